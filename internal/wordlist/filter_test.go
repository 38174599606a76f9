package wordlist

import "testing"

func TestKeepPlain(t *testing.T) {
	for _, word := range []string{"hello", "naïve", "résumé"} {
		if !KeepPlain(word) {
			t.Fatalf("expected %q to pass", word)
		}
	}
	for _, word := range []string{"", "don’t", "co-op", "abc1", "end."} {
		if KeepPlain(word) {
			t.Fatalf("expected %q to be rejected", word)
		}
	}
}

func TestFilterPreservesOrder(t *testing.T) {
	got := Filter([]string{"b", "1", "a"}, KeepPlain)
	if len(got) != 2 || got[0] != "b" || got[1] != "a" {
		t.Fatalf("unexpected result %v", got)
	}
}
