package typing

import (
	"reflect"
	"testing"
	"time"

	"github.com/verte-zerg/typetrack/internal/session"
)

var t0 = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

func started(passage string, duration int) State {
	return Reduce(State{}, Start{Duration: duration, Passage: passage, At: t0})
}

func TestIdleIgnoresInput(t *testing.T) {
	s := Reduce(State{}, Keystroke{Text: "abc", At: t0})
	if s.Phase != Idle || s.Typed != "" {
		t.Fatalf("idle state should ignore keystrokes, got %+v", s)
	}
	s = Reduce(s, Tick{})
	s = Reduce(s, Stop{At: t0})
	if s.Phase != Idle {
		t.Fatalf("expected idle, got %v", s.Phase)
	}
}

func TestStartRejectsUnsupportedDuration(t *testing.T) {
	s := Reduce(State{}, Start{Duration: 20, Passage: "x", At: t0})
	if s.Phase != Idle {
		t.Fatalf("expected idle for 20s start, got %v", s.Phase)
	}
}

func TestTicksEndTheTest(t *testing.T) {
	s := started("the quick fox", 15)
	for i := 0; i < 14; i++ {
		s = Reduce(s, Tick{})
	}
	if s.Phase != Running || s.Remaining != 1 {
		t.Fatalf("expected running with 1s left, got %v %d", s.Phase, s.Remaining)
	}
	s = Reduce(s, Tick{})
	if s.Phase != Ended || s.Remaining != 0 {
		t.Fatalf("expected ended, got %v %d", s.Phase, s.Remaining)
	}
	if s.Elapsed() != 15 {
		t.Fatalf("expected 15s elapsed, got %v", s.Elapsed())
	}
	ended := Reduce(s, Keystroke{Text: "late", At: t0.Add(20 * time.Second)})
	if ended.Typed != "" {
		t.Fatalf("ended test should ignore keystrokes")
	}
}

func TestStopEndsEarly(t *testing.T) {
	s := started("the quick fox", 30)
	s = Reduce(s, Keystroke{Text: "the ", At: t0.Add(2 * time.Second)})
	s = Reduce(s, Stop{At: t0.Add(6 * time.Second)})
	if s.Phase != Ended {
		t.Fatalf("expected ended, got %v", s.Phase)
	}
	if s.Elapsed() != 6 {
		t.Fatalf("expected 6s elapsed, got %v", s.Elapsed())
	}
	// "the " matches the passage prefix: 1 word in 0.1 min.
	if m := s.Metrics(); m.WPM != 10 || m.Accuracy != 100 {
		t.Fatalf("unexpected metrics %+v", m)
	}
}

func TestErrorWordsUsePrefixMatchAndDedupe(t *testing.T) {
	s := started("the quick fox", 30)
	s = Reduce(s, Keystroke{Text: "tx", At: t0})
	s = Reduce(s, Keystroke{Text: "txe", At: t0})
	s = Reduce(s, Keystroke{Text: "txe ", At: t0})
	s = Reduce(s, Keystroke{Text: "txe q", At: t0})
	s = Reduce(s, Keystroke{Text: "txe qz", At: t0})
	want := []string{"the", "quick"}
	if !reflect.DeepEqual(s.ErrorWords, want) {
		t.Fatalf("expected %v, got %v", want, s.ErrorWords)
	}
}

func TestDurationsRecordedOnCompletedWords(t *testing.T) {
	s := started("the quick fox", 30)
	s = Reduce(s, Keystroke{Text: "the", At: t0.Add(500 * time.Millisecond)})
	s = Reduce(s, Keystroke{Text: "the ", At: t0.Add(1 * time.Second)})
	s = Reduce(s, Keystroke{Text: "the q", At: t0.Add(2 * time.Second)})
	// Backspacing onto a space is not a completed word.
	s = Reduce(s, Keystroke{Text: "the ", At: t0.Add(3 * time.Second)})
	s = Reduce(s, Keystroke{Text: "the quick ", At: t0.Add(4 * time.Second)})
	want := []float64{1, 3}
	if !reflect.DeepEqual(s.TypingDurations, want) {
		t.Fatalf("expected %v, got %v", want, s.TypingDurations)
	}
}

func TestReduceDoesNotShareSlices(t *testing.T) {
	s := started("a b c", 30)
	s1 := Reduce(s, Keystroke{Text: "a ", At: t0.Add(time.Second)})
	s2 := Reduce(s1, Keystroke{Text: "a b ", At: t0.Add(2 * time.Second)})
	if len(s1.TypingDurations) != 1 || len(s2.TypingDurations) != 2 {
		t.Fatalf("earlier state changed: %v %v", s1.TypingDurations, s2.TypingDurations)
	}
}

func TestRestartAfterEnd(t *testing.T) {
	s := started("abc", 15)
	s = Reduce(s, Keystroke{Text: "x", At: t0})
	s = Reduce(s, Stop{At: t0.Add(time.Second)})
	s = Reduce(s, Start{Duration: 30, Passage: "def", At: t0.Add(time.Minute)})
	if s.Phase != Running || s.Typed != "" || len(s.ErrorWords) != 0 || s.Remaining != 30 {
		t.Fatalf("expected fresh running state, got %+v", s)
	}
}

func TestCandidatePassesValidation(t *testing.T) {
	s := started("the quick fox", 15)
	s = Reduce(s, Keystroke{Text: "the ", At: t0.Add(time.Second)})
	s = Reduce(s, Keystroke{Text: "the qi", At: t0.Add(2 * time.Second)})
	s = Reduce(s, Keystroke{Text: "the qiuck ", At: t0.Add(3 * time.Second)})
	for i := 0; i < 15; i++ {
		s = Reduce(s, Tick{})
	}
	c := s.Candidate()
	if err := session.Validate(c); err != nil {
		t.Fatalf("expected valid candidate, got %v", err)
	}
	if c.Duration.Value != 15 || len(c.ErrorWords) != 1 || c.ErrorWords[0] != "quick" {
		t.Fatalf("unexpected candidate %+v", c)
	}
}
