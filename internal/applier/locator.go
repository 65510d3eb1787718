// Package applier drives one job application through a driver.Session:
// locate the apply control, upload the resume, fill the form, submit.
package applier

import (
	"context"
	"errors"
	"time"

	"go-openclaw-applier/internal/applylog"
	"go-openclaw-applier/internal/driver"
)

const DefaultCandidateTimeout = time.Second

// Locate tries candidates in order and returns the first element that
// resolves within perCandidate, with its index. A failing candidate never
// stops the cascade. ok is false when every candidate was exhausted or ctx
// ended.
func Locate(ctx context.Context, q driver.Querier, candidates []driver.Target, perCandidate time.Duration, log *applylog.Collector) (driver.Element, int, bool) {
	return locateFrom(ctx, q, candidates, 0, perCandidate, log)
}

func locateFrom(ctx context.Context, q driver.Querier, candidates []driver.Target, start int, perCandidate time.Duration, log *applylog.Collector) (driver.Element, int, bool) {
	if perCandidate <= 0 {
		perCandidate = DefaultCandidateTimeout
	}

	for i := start; i < len(candidates); i++ {
		c := candidates[i]
		if ctx.Err() != nil {
			log.Debugf("Selector search interrupted: %v", ctx.Err())
			return nil, -1, false
		}

		el, err := q.Query(ctx, c, perCandidate)
		if err != nil {
			if errors.Is(err, driver.ErrNoMatch) {
				log.Debugf("No match for selector %s", c.Selector)
			} else {
				log.Debugf("Selector %s failed: %v", c.Selector, err)
			}
			continue
		}
		if el == nil {
			log.Debugf("No match for selector %s", c.Selector)
			continue
		}

		log.Infof("Matched selector #%d: %s", i+1, c.Selector)
		return el, i, true
	}
	return nil, -1, false
}

// ClickFirst clicks the first candidate that resolves and takes the click.
// A candidate whose click fails is skipped the same way as a miss. When
// nothing was clicked idx is -1 and err holds the last click failure, if
// there was one.
func ClickFirst(ctx context.Context, q driver.Querier, candidates []driver.Target, perCandidate time.Duration, log *applylog.Collector) (idx int, err error) {
	var lastErr error
	for start := 0; start < len(candidates); {
		el, i, ok := locateFrom(ctx, q, candidates, start, perCandidate, log)
		if !ok {
			break
		}
		if err := el.Click(ctx); err != nil {
			log.Debugf("Click on %s failed: %v", candidates[i].Selector, err)
			lastErr = err
			start = i + 1
			continue
		}
		return i, nil
	}
	return -1, lastErr
}
