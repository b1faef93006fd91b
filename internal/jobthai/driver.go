package jobthai

import (
	"context"
	"time"
)

// Driver is the browser surface the portal flow needs. Selectors are CSS.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	// Evaluate runs a JavaScript snippet in the page and discards its result.
	Evaluate(ctx context.Context, script string) error
	Fill(ctx context.Context, selector, value string) error
	Click(ctx context.Context, selector string) error
	// WaitUntil polls a JavaScript boolean expression until it is true or
	// timeout passes.
	WaitUntil(ctx context.Context, expression string, timeout time.Duration) error
	URL(ctx context.Context) (string, error)
	HTML(ctx context.Context) (string, error)
	// Screenshot saves the first element matching selector as a PNG file.
	Screenshot(ctx context.Context, selector, path string) error
	ClearCookies(ctx context.Context) error
	Close() error
}

// DriverOptions configure a browser.
type DriverOptions struct {
	ShowBrowser bool
	Timeout     time.Duration
}

const (
	DriverPlaywright = "playwright"
	DriverChromedp   = "chromedp"
)
