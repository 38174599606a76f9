package wordlist

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBuiltinHasPlainWords(t *testing.T) {
	words := Builtin()
	if len(words) < 100 {
		t.Fatalf("expected a sizeable list, got %d words", len(words))
	}
	for _, w := range words {
		if !KeepPlain(w) {
			t.Fatalf("builtin word %q is not plain", w)
		}
	}
}

func TestLoadOrBuiltinFallsBack(t *testing.T) {
	words, err := LoadOrBuiltin(filepath.Join(t.TempDir(), "missing.txt"))
	if err != nil {
		t.Fatalf("LoadOrBuiltin() error: %v", err)
	}
	if len(words) != len(Builtin()) {
		t.Fatalf("expected builtin list")
	}
}

func TestLoadOrBuiltinReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.txt")
	if err := os.WriteFile(path, []byte("alpha\n\n# note\nbeta2\ngamma\n"), 0o600); err != nil {
		t.Fatalf("write list: %v", err)
	}
	words, err := LoadOrBuiltin(path)
	if err != nil {
		t.Fatalf("LoadOrBuiltin() error: %v", err)
	}
	if len(words) != 2 || words[0] != "alpha" || words[1] != "gamma" {
		t.Fatalf("unexpected words %v", words)
	}
}

func TestLoadWordsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	if err := os.WriteFile(path, []byte("\n"), 0o600); err != nil {
		t.Fatalf("write list: %v", err)
	}
	if _, err := LoadWords(path); err == nil {
		t.Fatalf("expected error for empty list")
	}
}
