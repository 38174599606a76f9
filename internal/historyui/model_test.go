package historyui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/typetrack/internal/model"
	"github.com/verte-zerg/typetrack/internal/stats"
)

type fakeSource struct {
	sessions []model.Session
	err      error
	limits   []int
	analyzed []string
}

func (f *fakeSource) List(_ context.Context, _, _ string, limit int) ([]model.Session, error) {
	f.limits = append(f.limits, limit)
	if f.err != nil {
		return nil, f.err
	}
	return f.sessions, nil
}

func (f *fakeSource) Summary(_ context.Context, _, _ string, _ int) (model.Summary, error) {
	return stats.Summarize(f.sessions, 5), nil
}

func (f *fakeSource) Analysis(_ context.Context, _, id string) (model.Analysis, error) {
	f.analyzed = append(f.analyzed, id)
	for _, s := range f.sessions {
		if s.ID == id {
			return stats.Analyze(s), nil
		}
	}
	return model.Analysis{}, errors.New("session not found")
}

func sampleSessions() []model.Session {
	now := time.Now()
	return []model.Session{
		{ID: "s2", WPM: 61, Accuracy: 97, TotalErrors: 2, ErrorWords: []string{"lazy"}, TypingDurations: []float64{0.5, 0.6}, Duration: 30, CreatedAt: now.Add(-time.Hour)},
		{ID: "s1", WPM: 48, Accuracy: 91, TotalErrors: 6, ErrorWords: []string{"quick", "lazy"}, TypingDurations: []float64{0.9, 1.2}, Duration: 15, CreatedAt: now.Add(-48 * time.Hour)},
	}
}

func TestNewModelLoadsSessions(t *testing.T) {
	src := &fakeSource{sessions: sampleSessions()}
	m := NewModel(src, "u1", model.HistoryConfig{Username: "ada", Last: 5, CurveWindow: 2})
	if len(m.sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(m.sessions))
	}
	if len(src.limits) == 0 || src.limits[0] != 5 {
		t.Fatalf("expected list limit 5, got %v", src.limits)
	}
	rows := sessionRows(m.sessions, time.Now())
	if !strings.Contains(rows[0][0], "ago") {
		t.Fatalf("expected relative time, got %q", rows[0][0])
	}
	if rows[1][5] != "quick, lazy" {
		t.Fatalf("unexpected missed words column %q", rows[1][5])
	}
}

func TestEnterLoadsAnalysis(t *testing.T) {
	src := &fakeSource{sessions: sampleSessions()}
	m := NewModel(src, "u1", model.HistoryConfig{Username: "ada"})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.activeTab != tabAnalysis {
		t.Fatalf("expected analysis tab, got %d", m.activeTab)
	}
	if len(src.analyzed) != 1 || src.analyzed[0] != "s2" {
		t.Fatalf("expected analysis of first row, got %v", src.analyzed)
	}
	if !strings.Contains(m.View(), "Session s2") {
		t.Fatalf("expected analysis in view")
	}
}

func TestLoadErrorShownInFooter(t *testing.T) {
	src := &fakeSource{err: errors.New("database is locked")}
	m := NewModel(src, "u1", model.HistoryConfig{})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 20})
	if !strings.Contains(m.View(), "database is locked") {
		t.Fatalf("expected load error in view")
	}
}

func TestLimitInputRefreshes(t *testing.T) {
	src := &fakeSource{sessions: sampleSessions()}
	m := NewModel(src, "u1", model.HistoryConfig{Last: 5})
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'/'}})
	if !m.limitMode {
		t.Fatalf("expected limit mode")
	}
	m.limitInput.SetValue("20")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.limitMode || m.cfg.Last != 20 {
		t.Fatalf("expected limit 20 applied, got mode=%v last=%d", m.limitMode, m.cfg.Last)
	}
	if got := src.limits[len(src.limits)-1]; got != 20 {
		t.Fatalf("expected refresh with limit 20, got %d", got)
	}
}

func TestLimitInputRejectsGarbage(t *testing.T) {
	src := &fakeSource{sessions: sampleSessions()}
	m := NewModel(src, "u1", model.HistoryConfig{Last: 5})
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'/'}})
	m.limitInput.SetValue("abc")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !m.limitMode || m.limitError == "" {
		t.Fatalf("expected limit input to stay open with an error")
	}
}

func TestMoveTabWraps(t *testing.T) {
	m := NewModel(&fakeSource{}, "u1", model.HistoryConfig{})
	m.moveTab(-1)
	if m.activeTab != tabAnalysis {
		t.Fatalf("expected wrap to last tab, got %d", m.activeTab)
	}
	m.moveTab(1)
	if m.activeTab != tabSessions {
		t.Fatalf("expected wrap to first tab, got %d", m.activeTab)
	}
}

func TestFitLines(t *testing.T) {
	out := fitLines("a\nb\nc", 3, 2)
	if out != "a  \nb  " {
		t.Fatalf("unexpected fit %q", out)
	}
}

func TestTruncateLine(t *testing.T) {
	if got := truncateLine("abcdefgh", 6); got != "abc..." {
		t.Fatalf("unexpected truncate %q", got)
	}
}
