package jobthai

import (
	"context"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// PlaywrightDriver drives Chromium through playwright.
type PlaywrightDriver struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	bctx    playwright.BrowserContext
	page    playwright.Page
	timeout time.Duration
}

// NewPlaywright starts playwright and opens one page.
func NewPlaywright(opts DriverOptions) (*PlaywrightDriver, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(!opts.ShowBrowser),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("could not launch browser: %w", err)
	}

	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Locale:   playwright.String("th-TH"),
		Viewport: &playwright.Size{Width: 1920, Height: 1080},
	})
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("could not create browser context: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("could not create page: %w", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	page.SetDefaultTimeout(ms(timeout))

	return &PlaywrightDriver{pw: pw, browser: browser, bctx: bctx, page: page, timeout: timeout}, nil
}

func ms(d time.Duration) float64 {
	return float64(d.Milliseconds())
}

func (d *PlaywrightDriver) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := d.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(ms(d.timeout)),
	})
	return err
}

func (d *PlaywrightDriver) Evaluate(ctx context.Context, script string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := d.page.Evaluate(script)
	return err
}

func (d *PlaywrightDriver) Fill(ctx context.Context, selector, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.page.Locator(selector).First().Fill(value)
}

func (d *PlaywrightDriver) Click(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.page.Locator(selector).First().Click()
}

func (d *PlaywrightDriver) WaitUntil(ctx context.Context, expression string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := d.page.WaitForFunction(expression, nil, playwright.PageWaitForFunctionOptions{
		Timeout: playwright.Float(ms(timeout)),
	})
	return err
}

func (d *PlaywrightDriver) URL(context.Context) (string, error) {
	return d.page.URL(), nil
}

func (d *PlaywrightDriver) HTML(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return d.page.Content()
}

func (d *PlaywrightDriver) Screenshot(ctx context.Context, selector, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := d.page.Locator(selector).First().Screenshot(playwright.LocatorScreenshotOptions{
		Path: playwright.String(path),
	})
	return err
}

func (d *PlaywrightDriver) ClearCookies(context.Context) error {
	return d.bctx.ClearCookies()
}

func (d *PlaywrightDriver) Close() error {
	if err := d.browser.Close(); err != nil {
		_ = d.pw.Stop()
		return err
	}
	return d.pw.Stop()
}
