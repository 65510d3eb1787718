package applier

import (
	"context"
	"time"

	"go-openclaw-applier/internal/applylog"
	"go-openclaw-applier/internal/driver"
	"go-openclaw-applier/internal/models"
)

// Filler types profile values into the form. It is best effort: a field
// that cannot be found or written is skipped with a warning.
type Filler struct {
	Rules   []FieldRule
	Timeout time.Duration
	Log     *applylog.Collector
}

func (f *Filler) Fill(ctx context.Context, q driver.Querier, profile models.ResumeProfile) {
	rules := f.Rules
	if rules == nil {
		rules = DefaultFieldRules
	}

	f.Log.Info("Filling out application form")
	for _, rule := range rules {
		value := rule.Value(profile)
		if value == "" {
			f.Log.Debugf("No %s in profile, skipping field", rule.Field)
			continue
		}

		el, _, ok := Locate(ctx, q, rule.Candidates, f.Timeout, f.Log)
		if !ok {
			f.Log.Warnf("Could not find %s field", rule.Field)
			continue
		}
		if err := el.SetText(ctx, value); err != nil {
			f.Log.Warnf("Error filling %s field: %v", rule.Field, err)
			continue
		}
		f.Log.Infof("Filled %s field", rule.Field)
	}
}
