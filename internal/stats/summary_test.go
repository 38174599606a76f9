package stats

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/typetrack/internal/model"
)

func TestSummarize(t *testing.T) {
	sessions := []model.Session{
		{WPM: 60, Accuracy: 90, ErrorWords: []string{"fox", "the"}},
		{WPM: 40, Accuracy: 100, ErrorWords: []string{"fox"}},
		{WPM: 50, Accuracy: 80},
	}
	s := Summarize(sessions, 10)
	if s.Sessions != 3 {
		t.Fatalf("expected 3 sessions, got %d", s.Sessions)
	}
	if s.AverageWPM != 50 || s.BestWPM != 60 || s.AverageAccuracy != 90 {
		t.Fatalf("unexpected aggregates: %+v", s)
	}
	wantSeries := []float64{50, 40, 60}
	for i, v := range wantSeries {
		if s.WPMSeries[i] != v {
			t.Fatalf("series should run oldest first: %v", s.WPMSeries)
		}
	}
	if len(s.TopErrorWords) != 2 || s.TopErrorWords[0] != (model.WordCount{Word: "fox", Count: 2}) {
		t.Fatalf("unexpected top words: %+v", s.TopErrorWords)
	}
}

func TestTopErrorWordsLimitAndTies(t *testing.T) {
	sessions := []model.Session{
		{ErrorWords: []string{"b", "a", "c"}},
		{ErrorWords: []string{"c"}},
	}
	top := TopErrorWords(sessions, 2)
	if len(top) != 2 {
		t.Fatalf("expected 2 words, got %d", len(top))
	}
	if top[0].Word != "c" || top[1].Word != "a" {
		t.Fatalf("unexpected order: %+v", top)
	}
}

func TestSelectFocusWords(t *testing.T) {
	focus := SelectFocusWords([]model.WordCount{{Word: "Fox.", Count: 3}, {Word: "lazy", Count: 1}}, 1)
	if len(focus) != 1 {
		t.Fatalf("expected 1 focus word, got %v", focus)
	}
	if _, ok := focus["fox"]; !ok {
		t.Fatalf("expected normalized word fox, got %v", focus)
	}
}

func TestRenderAnalysis(t *testing.T) {
	var buf bytes.Buffer
	a := Analyze(model.Session{ID: "abc", WPM: 72, Accuracy: 95, ErrorWords: []string{"jumps"}, TypingDurations: []float64{1, 2}})
	if err := RenderAnalysis(&buf, a); err != nil {
		t.Fatalf("RenderAnalysis failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Session abc", "Fast", "jumps", "Steadiness"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestRenderSummaryEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderSummary(&buf, model.Summary{}, 5); err != nil {
		t.Fatalf("RenderSummary failed: %v", err)
	}
	if !strings.Contains(buf.String(), "No sessions found.") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestRenderSessions(t *testing.T) {
	var buf bytes.Buffer
	sessions := []model.Session{
		{ID: "abc", WPM: 61, Accuracy: 97, TotalErrors: 2, Duration: 30, CreatedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)},
	}
	if err := RenderSessions(&buf, sessions); err != nil {
		t.Fatalf("RenderSessions() error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"ID", "abc", "61", "97%", "30s"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}
