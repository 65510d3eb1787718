package applier

import (
	"go-openclaw-applier/internal/driver"
	"go-openclaw-applier/internal/jobboard"
)

// boardProfile holds the few selectors known for a specific board. Anything
// not listed falls back to the generic candidates.
type boardProfile struct {
	apply  []driver.Target
	signIn []driver.Target
}

var boardProfiles = map[jobboard.ID]boardProfile{
	jobboard.Amazon: {
		apply: []driver.Target{
			driver.CSS(`a.apply-button`),
			driver.CSS(`a:has-text("Apply Now")`),
		},
		signIn: []driver.Target{
			driver.CSS(`a:has-text("Sign in")`),
		},
	},
}

func profileFor(id jobboard.ID) boardProfile {
	return boardProfiles[id]
}

// applyCandidates puts board-specific selectors ahead of the generic list.
func (p boardProfile) applyCandidates() []driver.Target {
	out := make([]driver.Target, 0, len(p.apply)+len(ApplyButtonCandidates))
	out = append(out, p.apply...)
	return append(out, ApplyButtonCandidates...)
}
