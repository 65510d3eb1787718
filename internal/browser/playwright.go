// Package browser is the in-process Playwright implementation of driver.Driver.
package browser

import (
	"context"
	"fmt"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"go-openclaw-applier/internal/driver"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

type Options struct {
	Headless  bool
	UserAgent string
	// Cookies are added to every new context.
	Cookies []playwright.OptionalCookie
	// Humanize adds random pauses and mouse movement around interactions.
	Humanize bool
}

// PlaywrightManager owns one Playwright process and one Chromium instance.
// Every session gets its own BrowserContext, so runs never share state.
type PlaywrightManager struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	opts    Options
}

func NewPlaywright(opts Options) (*PlaywrightManager, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args:     []string{"--disable-blink-features=AutomationControlled"},
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("could not launch browser: %w", err)
	}

	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	return &PlaywrightManager{pw: pw, browser: browser, opts: opts}, nil
}

func (pm *PlaywrightManager) NewContext(cookies []playwright.OptionalCookie) (playwright.BrowserContext, error) {
	bctx, err := pm.browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(pm.opts.UserAgent),
		Locale:    playwright.String("en-US"),
		Viewport:  &playwright.Size{Width: 1366, Height: 768},
	})
	if err != nil {
		return nil, fmt.Errorf("could not create browser context: %w", err)
	}

	if err := bctx.AddInitScript(playwright.Script{
		Content: playwright.String(`Object.defineProperty(navigator, 'webdriver', {get: () => undefined})`),
	}); err != nil {
		zap.L().Warn("⚠️ could not install init script", zap.Error(err))
	}

	if len(cookies) > 0 {
		if err := bctx.AddCookies(cookies); err != nil {
			_ = bctx.Close()
			return nil, fmt.Errorf("could not add cookies: %w", err)
		}
	}
	return bctx, nil
}

// OpenSession implements driver.Driver.
func (pm *PlaywrightManager) OpenSession(ctx context.Context, log driver.PageLogger) (driver.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bctx, err := pm.NewContext(pm.opts.Cookies)
	if err != nil {
		return nil, err
	}
	s, err := NewSession(bctx, pm.opts.Humanize)
	if err != nil {
		return nil, err
	}
	s.Forward(log)
	return s, nil
}

// Page opens a bare page in a fresh context, for callers that drive
// Playwright directly (e.g. PDF rendering).
func (pm *PlaywrightManager) Page() (playwright.Page, func(), error) {
	bctx, err := pm.NewContext(nil)
	if err != nil {
		return nil, nil, err
	}
	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		return nil, nil, fmt.Errorf("could not create page: %w", err)
	}
	return page, func() { _ = bctx.Close() }, nil
}

func (pm *PlaywrightManager) Close() error {
	if err := pm.browser.Close(); err != nil {
		_ = pm.pw.Stop()
		return fmt.Errorf("could not close browser: %w", err)
	}
	if err := pm.pw.Stop(); err != nil {
		return fmt.Errorf("could not stop playwright: %w", err)
	}
	return nil
}
