package jobthai

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// ChromeDriver drives a local Chrome through the DevTools protocol.
type ChromeDriver struct {
	browserCtx context.Context
	cancel     func()
	timeout    time.Duration
}

// NewChromedp allocates a Chrome process and a tab.
func NewChromedp(parent context.Context, opts DriverOptions) (*ChromeDriver, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", !opts.ShowBrowser),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.WindowSize(1920, 1080),
		)...,
	)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	// Start the browser eagerly so launch errors surface here.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("could not start chrome: %w", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &ChromeDriver{
		browserCtx: browserCtx,
		cancel: func() {
			cancelBrowser()
			cancelAlloc()
		},
		timeout: timeout,
	}, nil
}

// run executes actions in the tab, bounded by ctx and the driver timeout.
func (d *ChromeDriver) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(d.browserCtx, timeout)
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

func (d *ChromeDriver) Navigate(ctx context.Context, url string) error {
	return d.run(ctx, d.timeout,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

func (d *ChromeDriver) Evaluate(ctx context.Context, script string) error {
	return d.run(ctx, d.timeout, chromedp.Evaluate(script, nil))
}

func (d *ChromeDriver) Fill(ctx context.Context, selector, value string) error {
	return d.run(ctx, d.timeout,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.SetValue(selector, "", chromedp.ByQuery),
		chromedp.SendKeys(selector, value, chromedp.ByQuery),
	)
}

func (d *ChromeDriver) Click(ctx context.Context, selector string) error {
	return d.run(ctx, d.timeout, chromedp.Click(selector, chromedp.ByQuery))
}

func (d *ChromeDriver) WaitUntil(ctx context.Context, expression string, timeout time.Duration) error {
	var ok bool
	return d.run(ctx, timeout, chromedp.Poll(expression, &ok, chromedp.WithPollingInterval(250*time.Millisecond)))
}

func (d *ChromeDriver) URL(ctx context.Context) (string, error) {
	var url string
	err := d.run(ctx, d.timeout, chromedp.Location(&url))
	return url, err
}

func (d *ChromeDriver) HTML(ctx context.Context) (string, error) {
	var html string
	err := d.run(ctx, d.timeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

func (d *ChromeDriver) Screenshot(ctx context.Context, selector, path string) error {
	var buf []byte
	if err := d.run(ctx, d.timeout, chromedp.Screenshot(selector, &buf, chromedp.NodeVisible, chromedp.ByQuery)); err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0o644)
}

func (d *ChromeDriver) ClearCookies(ctx context.Context) error {
	return d.run(ctx, d.timeout, network.ClearBrowserCookies())
}

func (d *ChromeDriver) Close() error {
	d.cancel()
	return nil
}
