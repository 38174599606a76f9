// Package session validates, persists and analyzes typing sessions.
package session

import (
	"math"
	"strings"

	"github.com/verte-zerg/typetrack/internal/model"
)

// Validation reasons, reported verbatim to clients.
const (
	ReasonWPMRequired      = "WPM is required"
	ReasonInvalidWPM       = "Invalid WPM value"
	ReasonInvalidAccuracy  = "Invalid accuracy value"
	ReasonInvalidDuration  = "Duration must be 15 or 30 seconds"
	ReasonInvalidErrors    = "Invalid total errors value"
	ReasonInvalidTiming    = "Invalid typing duration value"
	ReasonInvalidErrorWord = "Invalid error word value"
	ReasonDuplicateWords   = "Error words must be unique"
)

// ValidationError reports the first rule a candidate session broke.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func invalid(reason string) error {
	return &ValidationError{Reason: reason}
}

// Validate checks a candidate against the session rules in order and returns
// a *ValidationError for the first failure, or nil.
func Validate(c model.Candidate) error {
	if !c.WPM.Present {
		return invalid(ReasonWPMRequired)
	}
	if !finite(c.WPM) || c.WPM.Value < 0 {
		return invalid(ReasonInvalidWPM)
	}
	if !finite(c.Accuracy) || c.Accuracy.Value < 0 || c.Accuracy.Value > 100 {
		return invalid(ReasonInvalidAccuracy)
	}
	if !finite(c.Duration) || (c.Duration.Value != model.Duration15 && c.Duration.Value != model.Duration30) {
		return invalid(ReasonInvalidDuration)
	}
	if !finite(c.TotalErrors) || c.TotalErrors.Value < 0 || c.TotalErrors.Value != math.Trunc(c.TotalErrors.Value) {
		return invalid(ReasonInvalidErrors)
	}
	for _, d := range c.TypingDurations {
		if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
			return invalid(ReasonInvalidTiming)
		}
	}
	seen := make(map[string]struct{}, len(c.ErrorWords))
	for _, w := range c.ErrorWords {
		w = strings.TrimSpace(w)
		if w == "" {
			return invalid(ReasonInvalidErrorWord)
		}
		if _, dup := seen[w]; dup {
			return invalid(ReasonDuplicateWords)
		}
		seen[w] = struct{}{}
	}
	return nil
}

func finite(n model.Number) bool {
	return n.Present && n.Valid && !math.IsNaN(n.Value) && !math.IsInf(n.Value, 0)
}
