// Package quota decides whether a video-host response signals that the
// upstream API quota is spent.
//
// Signals are checked in priority order: HTTP status (403 or 429), the
// top-level quotaExhausted body flag, then per-result flags or the word
// "quota" in a result's error text. Absent or malformed signals yield
// NotApplicable, which callers treat as OK.
package quota

import (
	"net/http"
	"strings"

	"golang.org/x/text/cases"
)

// Verdict is the outcome of inspecting a response.
type Verdict int

const (
	NotApplicable Verdict = iota
	OK
	Exhausted
)

func (v Verdict) String() string {
	switch v {
	case OK:
		return "ok"
	case Exhausted:
		return "exhausted"
	default:
		return "not_applicable"
	}
}

// Source names the signal that produced an Exhausted verdict.
type Source string

const (
	SourceNone   Source = ""
	SourceStatus Source = "status"
	SourceBody   Source = "body"
	SourceResult Source = "result"
)

// Result carries the per-item quota hints from a suggest response.
type Result struct {
	QuotaExhausted bool
	Error          string
}

// Signals gathers everything a response exposes about quota state.
type Signals struct {
	StatusCode     int
	QuotaExhausted *bool
	Results        []Result
}

// Decision is a verdict plus the signal that triggered it.
type Decision struct {
	Verdict Verdict
	Source  Source
}

// Exhausted reports whether the decision halts the run.
func (d Decision) Exhausted() bool {
	return d.Verdict == Exhausted
}

// Guard implements the quota heuristic.
type Guard struct{}

// NewGuard returns the default guard.
func NewGuard() Guard {
	return Guard{}
}

// Inspect applies the heuristic to a set of signals.
func (Guard) Inspect(s Signals) Decision {
	return Inspect(s)
}

// InspectText applies the text heuristic alone, used for stream events.
func (Guard) InspectText(text string) Decision {
	if MentionsQuota(text) {
		return Decision{Verdict: Exhausted, Source: SourceResult}
	}
	return Decision{Verdict: NotApplicable}
}

// Inspect applies the heuristic to a set of signals.
func Inspect(s Signals) Decision {
	if s.StatusCode == http.StatusForbidden || s.StatusCode == http.StatusTooManyRequests {
		return Decision{Verdict: Exhausted, Source: SourceStatus}
	}
	if s.QuotaExhausted != nil && *s.QuotaExhausted {
		return Decision{Verdict: Exhausted, Source: SourceBody}
	}
	for _, r := range s.Results {
		if r.QuotaExhausted || MentionsQuota(r.Error) {
			return Decision{Verdict: Exhausted, Source: SourceResult}
		}
	}
	if s.StatusCode == 0 && s.QuotaExhausted == nil && len(s.Results) == 0 {
		return Decision{Verdict: NotApplicable}
	}
	return Decision{Verdict: OK}
}

// MentionsQuota reports whether text contains "quota", ignoring case.
func MentionsQuota(text string) bool {
	if text == "" {
		return false
	}
	return strings.Contains(cases.Fold().String(text), "quota")
}
