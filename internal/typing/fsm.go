// Package typing models a timed typing test as a pure state machine.
package typing

import (
	"regexp"
	"strings"
	"time"

	"github.com/verte-zerg/typetrack/internal/model"
	"github.com/verte-zerg/typetrack/internal/stats"
)

// Phase is the lifecycle stage of a test.
type Phase int

const (
	Idle Phase = iota
	Running
	Ended
)

func (p Phase) String() string {
	switch p {
	case Running:
		return "running"
	case Ended:
		return "ended"
	default:
		return "idle"
	}
}

// State is the full value of a test. It is never mutated in place.
type State struct {
	Phase           Phase
	Duration        int
	Remaining       int
	Passage         string
	Typed           string
	ErrorWords      []string
	TypingDurations []float64
	StartedAt       time.Time
	LastWordAt      time.Time
	EndedAt         time.Time
}

// Event drives a transition.
type Event interface {
	event()
}

// Start begins a test of Duration seconds over Passage.
type Start struct {
	Duration int
	Passage  string
	At       time.Time
}

// Keystroke carries the full input text after an edit.
type Keystroke struct {
	Text string
	At   time.Time
}

// Tick is one elapsed second.
type Tick struct{}

// Stop ends a running test early.
type Stop struct {
	At time.Time
}

func (Start) event()     {}
func (Keystroke) event() {}
func (Tick) event()      {}
func (Stop) event()      {}

var whitespace = regexp.MustCompile(`\s+`)

// Reduce applies e to s and returns the next state. Events that make no sense
// in the current phase return s unchanged.
func Reduce(s State, e Event) State {
	switch ev := e.(type) {
	case Start:
		if s.Phase == Running {
			return s
		}
		if ev.Duration != model.Duration15 && ev.Duration != model.Duration30 {
			return s
		}
		return State{
			Phase:           Running,
			Duration:        ev.Duration,
			Remaining:       ev.Duration,
			Passage:         ev.Passage,
			ErrorWords:      []string{},
			TypingDurations: []float64{},
			StartedAt:       ev.At,
			LastWordAt:      ev.At,
		}
	case Keystroke:
		if s.Phase != Running {
			return s
		}
		return keystroke(s, ev)
	case Tick:
		if s.Phase != Running {
			return s
		}
		s.Remaining--
		if s.Remaining <= 0 {
			s.Remaining = 0
			s.Phase = Ended
			s.EndedAt = s.StartedAt.Add(time.Duration(s.Duration) * time.Second)
		}
		return s
	case Stop:
		if s.Phase != Running {
			return s
		}
		s.Phase = Ended
		s.EndedAt = ev.At
		return s
	}
	return s
}

func keystroke(s State, ev Keystroke) State {
	grew := len(ev.Text) > len(s.Typed)
	s.Typed = ev.Text

	typedWords := whitespace.Split(ev.Text, -1)
	passageWords := whitespace.Split(s.Passage, -1)
	idx := len(typedWords) - 1
	if idx < len(passageWords) {
		want := passageWords[idx]
		got := typedWords[idx]
		if want != "" && got != "" && !strings.HasPrefix(want, got) && !contains(s.ErrorWords, want) {
			s.ErrorWords = append(append([]string{}, s.ErrorWords...), want)
		}
	}

	if grew && strings.HasSuffix(ev.Text, " ") {
		d := ev.At.Sub(s.LastWordAt).Seconds()
		if d < 0 {
			d = 0
		}
		s.TypingDurations = append(append([]float64{}, s.TypingDurations...), d)
		s.LastWordAt = ev.At
	}
	return s
}

func contains(words []string, w string) bool {
	for _, existing := range words {
		if existing == w {
			return true
		}
	}
	return false
}

// Elapsed reports the seconds the test actually ran, capped at its duration.
func (s State) Elapsed() float64 {
	if s.Phase == Idle {
		return 0
	}
	end := s.EndedAt
	if s.Phase == Running {
		end = s.StartedAt.Add(time.Duration(s.Duration-s.Remaining) * time.Second)
	}
	secs := end.Sub(s.StartedAt).Seconds()
	if secs < 0 {
		return 0
	}
	if limit := float64(s.Duration); secs > limit {
		return limit
	}
	return secs
}

// Metrics scores the transcript so far.
func (s State) Metrics() stats.Metrics {
	return stats.ComputeMetrics(s.Typed, s.Passage, s.Elapsed())
}

// Candidate builds the session submission for an ended test.
func (s State) Candidate() model.Candidate {
	m := s.Metrics()
	return model.Candidate{
		WPM:             model.NumberOf(m.WPM),
		Accuracy:        model.NumberOf(m.Accuracy),
		TotalErrors:     model.NumberOf(float64(m.TotalErrors)),
		ErrorWords:      append([]string{}, s.ErrorWords...),
		TypingDurations: append([]float64{}, s.TypingDurations...),
		Duration:        model.NumberOf(float64(s.Duration)),
	}
}
