// Package wordlist loads word lists and reference passages.
package wordlist

import (
	"bufio"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
)

//go:embed words_en.txt
var builtinWords string

// Samples are the fixed reference passages served to clients.
var Samples = []string{
	"The quick brown fox jumps over the lazy dog. This sentence contains all the letters in the English alphabet.",
	"Programming is the process of creating instructions that tell a computer how to perform tasks.",
	"Practice makes progress. Type steadily, keep your eyes on the text, and let speed follow accuracy.",
	"A small habit repeated every day will often beat a large effort made only once in a while.",
}

// Builtin returns the embedded English word list.
func Builtin() []string {
	words, err := readWords(strings.NewReader(builtinWords))
	if err != nil {
		panic(fmt.Sprintf("embedded word list: %v", err))
	}
	return words
}

// LoadWords reads one word per line from the provided file path.
func LoadWords(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only word list.
			_ = cerr
		}
	}()
	return readWords(file)
}

// LoadOrBuiltin reads the list at path, falling back to the embedded list
// when path is empty or the file does not exist.
func LoadOrBuiltin(path string) ([]string, error) {
	if path == "" {
		return Builtin(), nil
	}
	words, err := LoadWords(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Builtin(), nil
	}
	if err != nil {
		return nil, err
	}
	words = Filter(words, KeepPlain)
	if len(words) == 0 {
		return nil, fmt.Errorf("word list %s has no plain words", path)
	}
	return words, nil
}

func readWords(r io.Reader) ([]string, error) {
	var words []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("word list is empty")
	}
	return words, nil
}
