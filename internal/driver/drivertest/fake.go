// Package drivertest provides an in-memory driver.Driver for tests.
package drivertest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go-openclaw-applier/internal/driver"
)

// Element is a fake page element that records what was done to it.
type Element struct {
	Name string
	// Hidden elements only match targets with AllowHidden.
	Hidden bool

	ClickErr   error
	SetFileErr error
	SetTextErr error

	mu     sync.Mutex
	clicks int
	files  []string
	text   string
}

func (e *Element) Click(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ClickErr != nil {
		return e.ClickErr
	}
	e.clicks++
	return nil
}

func (e *Element) SetFile(ctx context.Context, path string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.SetFileErr != nil {
		return e.SetFileErr
	}
	e.files = append(e.files, path)
	return nil
}

func (e *Element) SetText(ctx context.Context, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.SetTextErr != nil {
		return e.SetTextErr
	}
	e.text = value
	return nil
}

func (e *Element) Clicks() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clicks
}

func (e *Element) Files() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.files...)
}

func (e *Element) Text() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.text
}

// Page describes what every session opened by a Driver sees.
type Page struct {
	Elements map[string]*Element
	// QueryErrs makes a selector fail with an error other than ErrNoMatch.
	QueryErrs map[string]error
	// PanicOn makes a Query for the selector panic.
	PanicOn string

	NavigateErr error
	IdleErr     error
	Screenshot  []byte

	// Console is replayed to the session's log after each navigation.
	Console []string
	// ScriptErrs are reported as uncaught page errors after each navigation.
	ScriptErrs []error
}

type Session struct {
	page *Page
	log  driver.PageLogger

	mu        sync.Mutex
	closed    int
	navigated []string
	queried   []string
	idleWaits int
}

func (s *Session) Navigate(ctx context.Context, url string, opts driver.NavigateOptions) error {
	s.mu.Lock()
	s.navigated = append(s.navigated, url)
	s.mu.Unlock()
	if s.page.NavigateErr != nil {
		return s.page.NavigateErr
	}
	if s.log != nil {
		for _, line := range s.page.Console {
			s.log.Debugf("Console: %s", line)
		}
		for _, err := range s.page.ScriptErrs {
			s.log.Errorf("Page error: %v", err)
		}
	}
	return nil
}

func (s *Session) Query(ctx context.Context, target driver.Target, timeout time.Duration) (driver.Element, error) {
	s.mu.Lock()
	s.queried = append(s.queried, target.Selector)
	s.mu.Unlock()

	if s.page.PanicOn != "" && s.page.PanicOn == target.Selector {
		panic(fmt.Sprintf("selector engine crashed on %q", target.Selector))
	}
	if err, ok := s.page.QueryErrs[target.Selector]; ok {
		return nil, err
	}
	el, ok := s.page.Elements[target.Selector]
	if !ok || (el.Hidden && !target.AllowHidden) {
		return nil, fmt.Errorf("%w: %s (timeout %s)", driver.ErrNoMatch, target.Selector, timeout)
	}
	return el, nil
}

func (s *Session) WaitForIdle(ctx context.Context, timeout time.Duration) error {
	s.mu.Lock()
	s.idleWaits++
	s.mu.Unlock()
	return s.page.IdleErr
}

func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	if s.page.Screenshot == nil {
		return nil, fmt.Errorf("screenshots disabled")
	}
	return s.page.Screenshot, nil
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

func (s *Session) Closed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) Navigated() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.navigated...)
}

func (s *Session) Queried() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queried...)
}

func (s *Session) IdleWaits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idleWaits
}

// Driver opens a fresh Session over Page on every call.
type Driver struct {
	Page    *Page
	OpenErr error

	mu       sync.Mutex
	sessions []*Session
}

func New(page *Page) *Driver {
	if page.Elements == nil {
		page.Elements = map[string]*Element{}
	}
	return &Driver{Page: page}
}

func (d *Driver) OpenSession(ctx context.Context, log driver.PageLogger) (driver.Session, error) {
	if d.OpenErr != nil {
		return nil, d.OpenErr
	}
	s := &Session{page: d.Page, log: log}
	d.mu.Lock()
	d.sessions = append(d.sessions, s)
	d.mu.Unlock()
	return s, nil
}

func (d *Driver) Sessions() []*Session {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*Session(nil), d.sessions...)
}
