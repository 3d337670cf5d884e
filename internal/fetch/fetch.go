// Package fetch retrieves raw page content for extraction jobs.
// Target servers are untrusted, so every request runs under a hard
// wall-clock timeout and a bounded redirect chain.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"
)

// DefaultTimeout is the hard wall-clock limit for one fetch.
const DefaultTimeout = 20 * time.Second

// DefaultUserAgent identifies the client to target servers.
const DefaultUserAgent = "Mozilla/5.0 (compatible; SchemaScrape/1.0)"

// MaxRedirects caps the redirect chain for a single fetch.
const MaxRedirects = 5

// Cause classifies why a fetch failed.
type Cause string

const (
	// CauseUnreachable covers transport errors and non-2xx statuses.
	CauseUnreachable Cause = "unreachable"
	// CauseTimeout covers deadline and cancellation expiry.
	CauseTimeout Cause = "timeout"
)

// Error is a failed fetch attempt.
type Error struct {
	URL     string
	Cause   Cause
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Message, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Result holds the raw response for a fetched URL.
type Result struct {
	URL        string
	Body       string
	StatusCode int
}

// Options configures fetch behavior.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
}

// DefaultOptions returns sensible fetch defaults.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
	}
}

// Fetcher retrieves raw content for a URL.
type Fetcher interface {
	Fetch(ctx context.Context, target string) (*Result, error)
}

// HTTPFetcher fetches pages with a plain HTTP client.
type HTTPFetcher struct {
	opts   *Options
	client *http.Client
}

// NewHTTPFetcher creates a fetcher with the given options.
func NewHTTPFetcher(opts *Options) *HTTPFetcher {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	return &HTTPFetcher{
		opts: opts,
		client: &http.Client{
			Timeout: opts.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= MaxRedirects {
					return fmt.Errorf("stopped after %d redirects", MaxRedirects)
				}
				return nil
			},
		},
	}
}

// Fetch retrieves the raw response body for target.
func (f *HTTPFetcher) Fetch(ctx context.Context, target string) (*Result, error) {
	parsed, err := url.Parse(target)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, &Error{URL: target, Cause: CauseUnreachable, Message: "invalid URL", Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &Error{URL: target, Cause: CauseUnreachable, Message: "failed to create request", Err: err}
	}

	req.Header.Set("User-Agent", f.opts.UserAgent)
	for key, value := range f.opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &Error{URL: target, Cause: classify(err), Message: "request failed", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{URL: target, Cause: classify(err), Message: "failed to read response body", Err: err}
	}

	result := &Result{
		URL:        target,
		Body:       string(body),
		StatusCode: resp.StatusCode,
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return result, &Error{
			URL:     target,
			Cause:   CauseUnreachable,
			Message: fmt.Sprintf("HTTP status %d", resp.StatusCode),
		}
	}

	return result, nil
}

// classify maps a transport error to a fetch cause.
func classify(err error) Cause {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return CauseTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CauseTimeout
	}
	return CauseUnreachable
}
