// Package fetch - browser.go provides headless browser rendering for pages built by JavaScript.
package fetch

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/chromedp/chromedp"
)

// DefaultRenderWait is how long the browser waits after the body is ready
// for scripts to finish building the page.
const DefaultRenderWait = 2 * time.Second

// BrowserGetter dereferences URLs by rendering them in headless Chrome.
// Requires Chrome/Chromium to be installed on the system.
type BrowserGetter struct {
	Timeout    time.Duration
	RenderWait time.Duration
	Verbose    bool
}

// NewBrowserGetter creates a BrowserGetter with default timings.
func NewBrowserGetter(verbose bool) *BrowserGetter {
	return &BrowserGetter{
		Timeout:    DefaultTimeout,
		RenderWait: DefaultRenderWait,
		Verbose:    verbose,
	}
}

// Get renders urlStr and returns the serialized DOM as the result body.
// A rendered page always has an <html> root, so the status code is reported as 200.
func (b *BrowserGetter) Get(ctx context.Context, urlStr string) (*Result, error) {
	if err := validateURL(urlStr); err != nil {
		return nil, err
	}
	if b.Verbose {
		log.Printf("[BROWSER] Starting headless browser for: %s", urlStr)
	}

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

	timeout := b.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	browserCtx, cancel = context.WithTimeout(browserCtx, timeout)
	defer cancel()

	var rendered string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(urlStr),
		chromedp.WaitReady("body"),
		chromedp.Sleep(b.RenderWait),
		chromedp.OuterHTML("html", &rendered),
	)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "browser rendering failed", Cause: fmt.Errorf("chromedp: %w", err)}
	}

	if b.Verbose {
		log.Printf("[BROWSER] Rendered HTML: %d bytes", len(rendered))
	}

	return &Result{
		URL:         urlStr,
		Body:        []byte(rendered),
		ContentType: "text/html",
		StatusCode:  200,
	}, nil
}
