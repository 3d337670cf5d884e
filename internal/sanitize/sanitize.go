// Package sanitize prepares raw HTML for submission to a completion service.
// It strips script, style and comment blocks, collapses whitespace, and
// truncates the result to a configurable character budget.
package sanitize

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultMaxChars is the default character budget for sanitized content.
// Larger budgets improve extraction fidelity at the cost of completion
// tokens; callers running a cheaper tier should lower it.
const DefaultMaxChars = 20000

// MaxCharsLimit is the hard upper bound for the character budget.
const MaxCharsLimit = 80000

var (
	scriptRe   = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script>`)
	styleRe    = regexp.MustCompile(`(?is)<style\b[^>]*>.*?</style>`)
	noscriptRe = regexp.MustCompile(`(?is)<noscript\b[^>]*>.*?</noscript>`)
	commentRe  = regexp.MustCompile(`(?s)<!--.*?-->`)
	tagRe      = regexp.MustCompile(`(?s)<[^>]+>`)
	spaceRe    = regexp.MustCompile(`[ \t\r\f]+`)
	blankRe    = regexp.MustCompile(`\n{3,}`)
)

// Options configures sanitization behavior.
type Options struct {
	// MaxChars is the character budget applied after cleaning.
	// Values <= 0 use DefaultMaxChars; values above MaxCharsLimit are clamped.
	MaxChars int
}

// DefaultOptions returns the default sanitization options.
func DefaultOptions() *Options {
	return &Options{MaxChars: DefaultMaxChars}
}

// Clean strips noise from raw HTML and returns plain text bounded by the
// character budget. It never fails: malformed HTML is handled best-effort,
// falling back to regex surgery when the document cannot be parsed.
// Cleaning already-clean text is a no-op.
func Clean(raw string, opts *Options) string {
	if opts == nil {
		opts = DefaultOptions()
	}
	budget := opts.MaxChars
	if budget <= 0 {
		budget = DefaultMaxChars
	}
	if budget > MaxCharsLimit {
		budget = MaxCharsLimit
	}

	text := strip(raw)
	text = collapseWhitespace(text)
	return truncate(text, budget)
}

// strip removes script/style/comment blocks and markup, preferring a DOM
// pass so that attribute noise goes with the tags.
func strip(raw string) string {
	if !strings.Contains(raw, "<") {
		return raw
	}

	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw)); err == nil {
		doc.Find("script, style, noscript").Remove()
		if body := doc.Find("body"); body.Length() > 0 {
			return body.Text()
		}
		return doc.Text()
	}

	// DOM parse failed; fall back to regex surgery on the raw markup.
	text := scriptRe.ReplaceAllString(raw, " ")
	text = styleRe.ReplaceAllString(text, " ")
	text = noscriptRe.ReplaceAllString(text, " ")
	text = commentRe.ReplaceAllString(text, " ")
	return tagRe.ReplaceAllString(text, " ")
}

// collapseWhitespace normalizes runs of whitespace while keeping line
// boundaries so the completion service sees some document structure.
func collapseWhitespace(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = spaceRe.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")
	text = blankRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// truncate cuts text to at most n runes.
func truncate(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}
