// Package jobboard classifies job URLs by the board that hosts them.
package jobboard

import (
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
	"golang.org/x/text/cases"
)

// Detect returns the board hosting rawURL, or Unknown. It does no I/O.
func Detect(rawURL string) ID {
	id, _ := Describe(rawURL)
	return id
}

// Describe is Detect plus the registrable domain of the host (eTLD+1),
// which is what gets logged for unknown boards.
func Describe(rawURL string) (ID, string) {
	host := hostOf(rawURL)
	if host == "" {
		return Unknown, ""
	}

	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		domain = host
	}

	for _, b := range knownBoards {
		for _, d := range b.domains {
			if host == d || strings.HasSuffix(host, "."+d) {
				return b.id, domain
			}
		}
	}
	return Unknown, domain
}

func hostOf(rawURL string) string {
	raw := strings.TrimSpace(rawURL)
	if raw == "" {
		return ""
	}
	// bare hosts like "linkedin.com/jobs/1" parse with an empty Host
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	// a Caser is stateful, so one per call
	host := cases.Fold().String(u.Hostname())
	return strings.TrimSuffix(host, ".")
}
