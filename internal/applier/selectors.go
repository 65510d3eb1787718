package applier

import (
	"go-openclaw-applier/internal/driver"
	"go-openclaw-applier/internal/models"
)

// Candidate lists are priority ordered. Earlier entries win even when a
// later one would match a different element.

var ApplyButtonCandidates = []driver.Target{
	driver.CSS("button:has-text('Apply')"),
	driver.CSS("a:has-text('Apply')"),
	driver.CSS("button:has-text('Apply Now')"),
	driver.CSS("a:has-text('Apply Now')"),
	driver.CSS("button:has-text('Easy Apply')"),
	driver.CSS("button:has-text('Quick Apply')"),
	driver.CSS("[aria-label*='apply' i]"),
	driver.CSS("[data-automation*='apply' i]"),
}

// File inputs are usually hidden behind a styled button, so they only need
// to be attached.
var FileInputCandidates = []driver.Target{
	driver.Hidden("input[type='file']"),
	driver.Hidden("input[accept='.pdf']"),
	driver.Hidden("input[accept='application/pdf']"),
	driver.Hidden("input[name*='resume' i]"),
	driver.Hidden("input[name*='cv' i]"),
}

var SubmitCandidates = []driver.Target{
	driver.CSS("button[type='submit']"),
	driver.CSS("button:has-text('Submit')"),
	driver.CSS("button:has-text('Apply')"),
	driver.CSS("input[type='submit']"),
	driver.CSS("button.submit"),
	driver.CSS("button.apply"),
}

type Field string

const (
	FieldName    Field = "name"
	FieldEmail   Field = "email"
	FieldPhone   Field = "phone"
	FieldSummary Field = "summary"
)

// FieldRule binds one profile field to the inputs it may be typed into.
type FieldRule struct {
	Field      Field
	Candidates []driver.Target
	Value      func(p models.ResumeProfile) string
}

var DefaultFieldRules = []FieldRule{
	{
		Field: FieldName,
		Candidates: []driver.Target{
			driver.CSS("input[name*='name' i]"),
			driver.CSS("input[placeholder*='name' i]"),
		},
		Value: func(p models.ResumeProfile) string { return p.Name },
	},
	{
		Field: FieldEmail,
		Candidates: []driver.Target{
			driver.CSS("input[name*='email' i]"),
			driver.CSS("input[placeholder*='email' i]"),
		},
		Value: models.ResumeProfile.Email,
	},
	{
		Field: FieldPhone,
		Candidates: []driver.Target{
			driver.CSS("input[name*='phone' i]"),
			driver.CSS("input[placeholder*='phone' i]"),
		},
		Value: models.ResumeProfile.Phone,
	},
	{
		Field: FieldSummary,
		Candidates: []driver.Target{
			driver.CSS("textarea[name*='summary' i]"),
			driver.CSS("textarea[placeholder*='summary' i]"),
			driver.CSS("textarea[name*='about' i]"),
		},
		Value: func(p models.ResumeProfile) string { return p.Summary },
	},
}
