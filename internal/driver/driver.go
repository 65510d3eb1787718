// Package driver defines the browser-automation capability the apply flow is
// written against. Implementations live elsewhere (internal/browser for
// Playwright, drivertest for tests).
package driver

import (
	"context"
	"errors"
	"time"
)

// ErrNoMatch is returned by Query when no element resolved in time.
var ErrNoMatch = errors.New("no element matched selector")

type WaitUntil string

const (
	WaitLoad             WaitUntil = "load"
	WaitDOMContentLoaded WaitUntil = "domcontentloaded"
	WaitNetworkIdle      WaitUntil = "networkidle"
)

type NavigateOptions struct {
	WaitUntil WaitUntil
	Timeout   time.Duration
}

// Target is one selector candidate.
type Target struct {
	Selector string
	// AllowHidden accepts elements that are attached but not visible,
	// e.g. file inputs hidden behind a styled button.
	AllowHidden bool
}

func CSS(selector string) Target {
	return Target{Selector: selector}
}

func Hidden(selector string) Target {
	return Target{Selector: selector, AllowHidden: true}
}

type Element interface {
	Click(ctx context.Context) error
	SetFile(ctx context.Context, path string) error
	SetText(ctx context.Context, value string) error
}

type Querier interface {
	// Query resolves target within timeout. It returns ErrNoMatch (possibly
	// wrapped) when nothing matched.
	Query(ctx context.Context, target Target, timeout time.Duration) (Element, error)
}

// Session is one isolated browser page. Sessions are never shared between runs.
type Session interface {
	Querier
	Navigate(ctx context.Context, url string, opts NavigateOptions) error
	WaitForIdle(ctx context.Context, timeout time.Duration) error
	Close() error
}

// PageLogger receives what the page itself reports (console output and
// uncaught script errors) while a session is open.
type PageLogger interface {
	Debugf(format string, args ...any)
	Errorf(format string, args ...any)
}

type Driver interface {
	// OpenSession opens a page whose console and script errors go to log.
	// log may be nil.
	OpenSession(ctx context.Context, log PageLogger) (Session, error)
}

// Screenshotter is implemented by sessions that can capture the page.
type Screenshotter interface {
	Screenshot(ctx context.Context) ([]byte, error)
}
