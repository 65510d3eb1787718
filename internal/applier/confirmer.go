package applier

import (
	"context"
	"time"

	"go-openclaw-applier/internal/applylog"
	"go-openclaw-applier/internal/driver"
	"go-openclaw-applier/internal/models"
)

const DefaultSubmitIdleTimeout = 30 * time.Second

// Confirmer clicks the submit control and waits for the page to go idle.
//
// Reaching idle is only a timing heuristic: a page that keeps polling may
// time out after a successful submission. Unless Strict is set such a
// timeout is logged and the submission is still reported.
type Confirmer struct {
	Candidates  []driver.Target
	Timeout     time.Duration
	IdleTimeout time.Duration
	Strict      bool
	Log         *applylog.Collector
}

// Submit returns false with a nil error when no submit control was found.
// It fails with unknown_error only when every matching control refused the
// click.
func (c *Confirmer) Submit(ctx context.Context, s driver.Session) (bool, error) {
	candidates := c.Candidates
	if candidates == nil {
		candidates = SubmitCandidates
	}
	idle := c.IdleTimeout
	if idle <= 0 {
		idle = DefaultSubmitIdleTimeout
	}

	c.Log.Info("Attempting to submit application")
	idx, err := ClickFirst(ctx, s, candidates, c.Timeout, c.Log)
	if idx < 0 {
		if err != nil && ctx.Err() == nil {
			c.Log.Warnf("Error with submit button: %v", err)
			return false, models.NewApplyError(models.KindUnknown, "failed to click submit button", err)
		}
		c.Log.Warn("could not find submit button")
		return false, nil
	}
	c.Log.Infof("Clicked submit button with selector: %s", candidates[idx].Selector)

	if err := s.WaitForIdle(ctx, idle); err != nil {
		c.Log.Warnf("Page did not settle after submission: %v", err)
		if c.Strict {
			return false, models.NewApplyError(models.KindSubmissionTimeout, "submission was not confirmed in time", err)
		}
	}
	return true, nil
}
