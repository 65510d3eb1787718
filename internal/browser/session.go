package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"

	"go-openclaw-applier/internal/driver"
)

const defaultActionTimeout = 30 * time.Second

// Session is one page in its own BrowserContext.
type Session struct {
	bctx     playwright.BrowserContext
	page     playwright.Page
	humanize bool
}

// NewSession opens a page in bctx. Closing the session closes bctx.
func NewSession(bctx playwright.BrowserContext, humanize bool) (*Session, error) {
	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		return nil, fmt.Errorf("could not create page: %w", err)
	}
	return &Session{bctx: bctx, page: page, humanize: humanize}, nil
}

// Forward sends the page's console output and uncaught errors to log.
func (s *Session) Forward(log driver.PageLogger) {
	if log == nil {
		return
	}
	s.page.OnConsole(func(msg playwright.ConsoleMessage) {
		log.Debugf("Console: %s", msg.Text())
	})
	s.page.OnPageError(func(err error) {
		log.Errorf("Page error: %v", err)
	})
}

// budget clamps a step timeout to what is left of ctx and converts it to
// Playwright milliseconds.
func budget(ctx context.Context, d time.Duration) (*float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d <= 0 {
		d = defaultActionTimeout
	}
	if deadline, ok := ctx.Deadline(); ok {
		left := time.Until(deadline)
		if left <= 0 {
			return nil, context.DeadlineExceeded
		}
		if left < d {
			d = left
		}
	}
	return playwright.Float(float64(d.Milliseconds())), nil
}

func waitUntil(w driver.WaitUntil) *playwright.WaitUntilState {
	switch w {
	case driver.WaitLoad:
		return playwright.WaitUntilStateLoad
	case driver.WaitDOMContentLoaded:
		return playwright.WaitUntilStateDomcontentloaded
	default:
		return playwright.WaitUntilStateNetworkidle
	}
}

func (s *Session) Navigate(ctx context.Context, url string, opts driver.NavigateOptions) error {
	timeout, err := budget(ctx, opts.Timeout)
	if err != nil {
		return err
	}
	if _, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: waitUntil(opts.WaitUntil),
		Timeout:   timeout,
	}); err != nil {
		return fmt.Errorf("goto %s: %w", url, err)
	}

	if s.humanize {
		if err := SmoothScroll(ctx, s.page); err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return nil
}

func (s *Session) Query(ctx context.Context, target driver.Target, timeout time.Duration) (driver.Element, error) {
	ms, err := budget(ctx, timeout)
	if err != nil {
		return nil, err
	}

	state := playwright.WaitForSelectorStateVisible
	if target.AllowHidden {
		state = playwright.WaitForSelectorStateAttached
	}

	loc := s.page.Locator(target.Selector).First()
	if err := loc.WaitFor(playwright.LocatorWaitForOptions{State: state, Timeout: ms}); err != nil {
		if errors.Is(err, playwright.ErrTimeout) {
			return nil, fmt.Errorf("%w: %s", driver.ErrNoMatch, target.Selector)
		}
		return nil, err
	}
	return &element{loc: loc, session: s}, nil
}

func (s *Session) WaitForIdle(ctx context.Context, timeout time.Duration) error {
	ms, err := budget(ctx, timeout)
	if err != nil {
		return err
	}
	return s.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: ms,
	})
}

func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	timeout, err := budget(ctx, 0)
	if err != nil {
		return nil, err
	}
	return s.page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(true),
		Timeout:  timeout,
	})
}

// Close releases the page and its context.
func (s *Session) Close() error {
	return s.bctx.Close()
}

func (s *Session) pause(ctx context.Context) error {
	if !s.humanize {
		return nil
	}
	if err := RandomDelay(ctx, 300*time.Millisecond, 900*time.Millisecond); err != nil {
		return err
	}
	return MouseJiggle(ctx, s.page)
}

type element struct {
	loc     playwright.Locator
	session *Session
}

func (e *element) Click(ctx context.Context) error {
	if err := e.session.pause(ctx); err != nil {
		return err
	}
	timeout, err := budget(ctx, 0)
	if err != nil {
		return err
	}
	return e.loc.Click(playwright.LocatorClickOptions{Timeout: timeout})
}

func (e *element) SetFile(ctx context.Context, path string) error {
	timeout, err := budget(ctx, 0)
	if err != nil {
		return err
	}
	return e.loc.SetInputFiles(path, playwright.LocatorSetInputFilesOptions{Timeout: timeout})
}

func (e *element) SetText(ctx context.Context, value string) error {
	timeout, err := budget(ctx, 0)
	if err != nil {
		return err
	}
	if !e.session.humanize {
		return e.loc.Fill(value, playwright.LocatorFillOptions{Timeout: timeout})
	}

	if err := e.loc.Click(playwright.LocatorClickOptions{Timeout: timeout}); err != nil {
		return err
	}
	return e.loc.PressSequentially(value, playwright.LocatorPressSequentiallyOptions{
		Delay:   playwright.Float(30),
		Timeout: timeout,
	})
}
