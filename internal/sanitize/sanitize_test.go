package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean_StripsScriptAndStyle(t *testing.T) {
	raw := `
	<html>
		<head>
			<style>body { color: red; }</style>
			<script src="app.js"></script>
		</head>
		<body>
			<script>
				window.analytics.track("page_view");
			</script>
			<h1>Product Title</h1>
			<p>Price: $19.99</p>
		</body>
	</html>`

	text := Clean(raw, nil)
	assert.Contains(t, text, "Product Title")
	assert.Contains(t, text, "$19.99")
	assert.NotContains(t, text, "analytics")
	assert.NotContains(t, text, "color: red")
}

func TestClean_StripsComments(t *testing.T) {
	raw := `<body><!-- internal build marker --><p>Visible</p><!--
	multi-line
	comment --></body>`

	text := Clean(raw, nil)
	assert.Contains(t, text, "Visible")
	assert.NotContains(t, text, "build marker")
	assert.NotContains(t, text, "multi-line")
}

func TestClean_CaseInsensitiveTags(t *testing.T) {
	raw := `<BODY><SCRIPT>var x = 1;</SCRIPT><STYLE>.a{}</STYLE><p>kept</p></BODY>`

	text := Clean(raw, nil)
	assert.Contains(t, text, "kept")
	assert.NotContains(t, text, "var x")
	assert.NotContains(t, text, ".a{}")
}

func TestClean_CollapsesWhitespace(t *testing.T) {
	raw := "<body><p>one     two\t\tthree</p>\n\n\n\n\n<p>four</p></body>"

	text := Clean(raw, nil)
	assert.Contains(t, text, "one two three")
	assert.NotContains(t, text, "  ")
	assert.NotContains(t, text, "\n\n\n")
}

func TestClean_TruncatesToBudget(t *testing.T) {
	raw := "<body>" + strings.Repeat("abcde ", 1000) + "</body>"

	text := Clean(raw, &Options{MaxChars: 100})
	assert.LessOrEqual(t, len([]rune(text)), 100)
}

func TestClean_BudgetClamped(t *testing.T) {
	raw := strings.Repeat("x", MaxCharsLimit+500)

	text := Clean(raw, &Options{MaxChars: MaxCharsLimit * 2})
	assert.Equal(t, MaxCharsLimit, len([]rune(text)))
}

func TestClean_IdempotentOnCleanText(t *testing.T) {
	clean := "Product Title\nPrice: $19.99\n\nIn stock and ready to ship."

	assert.Equal(t, clean, Clean(clean, nil))
	assert.Equal(t, clean, Clean(Clean(clean, nil), nil))
}

func TestClean_MalformedHTMLDoesNotPanic(t *testing.T) {
	cases := []string{
		"<script>never closed",
		"<<<>>><p>broken</p><!-- unterminated",
		"<body><div><p>unclosed nesting",
		"",
	}

	for _, raw := range cases {
		assert.NotPanics(t, func() { Clean(raw, nil) })
	}
}

func TestClean_UnparseableFallsBackToRegex(t *testing.T) {
	// Regex path exercised directly via strip helpers on raw markup.
	raw := `before <SCRIPT type="text/javascript">alert(1)</script> after <!-- note -->`
	text := scriptRe.ReplaceAllString(raw, " ")
	text = commentRe.ReplaceAllString(text, " ")
	assert.NotContains(t, text, "alert")
	assert.NotContains(t, text, "note")
	assert.Contains(t, text, "before")
	assert.Contains(t, text, "after")
}
