package fetch

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
)

// MinContentLength is the body length below which a plain HTTP fetch is
// assumed to have hit a client-rendered shell rather than real content.
const MinContentLength = 500

// BrowserFetcher renders pages with headless Chrome before returning their
// HTML. Requires Chrome/Chromium on the host.
type BrowserFetcher struct {
	opts *Options
}

// NewBrowserFetcher creates a browser-backed fetcher.
func NewBrowserFetcher(opts *Options) *BrowserFetcher {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &BrowserFetcher{opts: opts}
}

// Fetch navigates to target, waits for the document to render, and returns
// the rendered HTML. The same timeout contract as HTTPFetcher applies.
func (f *BrowserFetcher) Fetch(ctx context.Context, target string) (*Result, error) {
	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, f.opts.Timeout)
	defer cancel()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(target),
		chromedp.WaitReady("body"),
		// Give client-side frameworks a beat to inject content.
		chromedp.Sleep(2*time.Second),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return nil, &Error{URL: target, Cause: classify(err), Message: "browser rendering failed", Err: err}
	}

	return &Result{URL: target, Body: html, StatusCode: 200}, nil
}

// ShouldUseBrowser reports whether a plain fetch likely returned an empty
// SPA shell and the page should be re-fetched with a browser.
func ShouldUseBrowser(body string) bool {
	return len(body) < MinContentLength
}
