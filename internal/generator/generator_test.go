package generator

import (
	"strings"
	"testing"
	"unicode"
)

func TestGenerateCountAndSource(t *testing.T) {
	g := NewSeeded(1)
	words := []string{"alpha", "beta"}
	out := g.Generate(words, 20, 0, 0, nil)
	if len(out) != 20 {
		t.Fatalf("expected 20 words, got %d", len(out))
	}
	for _, w := range out {
		if w != "alpha" && w != "beta" {
			t.Fatalf("unexpected word %q", w)
		}
	}
}

func TestGenerateAlwaysCapsAndPunct(t *testing.T) {
	g := NewSeeded(2)
	out := g.Generate([]string{"word"}, 5, 1, 1, []rune{'!'})
	for _, w := range out {
		if w != "Word!" {
			t.Fatalf("expected Word!, got %q", w)
		}
		if !unicode.IsUpper([]rune(w)[0]) {
			t.Fatalf("expected capitalized word")
		}
	}
}

func TestGenerateWeightedFavorsFocus(t *testing.T) {
	g := NewSeeded(3)
	words := []string{"rare", "other", "filler", "common"}
	focus := map[string]struct{}{"rare": {}}
	out := g.GenerateWeighted(words, 2000, 0, 0, nil, focus, 20)
	hits := 0
	for _, w := range out {
		if w == "rare" {
			hits++
		}
	}
	// Expected share is 21/24; uniform would be 1/4.
	if hits < 1200 {
		t.Fatalf("expected focus word to dominate, got %d/2000", hits)
	}
}

func TestPassageAndSample(t *testing.T) {
	g := NewSeeded(4)
	p := g.Passage([]string{"a", "b"}, Options{Words: 6})
	if len(strings.Fields(p)) != 6 {
		t.Fatalf("expected 6 words, got %q", p)
	}
	if got := g.Sample([]string{"only"}); got != "only" {
		t.Fatalf("unexpected sample %q", got)
	}
	if got := g.Sample(nil); got != "" {
		t.Fatalf("expected empty sample, got %q", got)
	}
}
