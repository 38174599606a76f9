package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// cell is one rendered passage character.
type cell struct {
	text  string
	width int
	space bool
}

// buildCells styles every passage rune against the typed prefix. The rune
// under the cursor is underlined and the word being typed is highlighted.
func buildCells(passage, typed []rune) []cell {
	cursor := len(typed)
	wordStart, wordEnd := currentWord(passage, cursor)

	cells := make([]cell, 0, len(passage))
	for i, want := range passage {
		shown := want
		style := pendingStyle
		switch {
		case i < len(typed) && want == ' ' && typed[i] != ' ':
			shown = '•'
			style = incorrectStyle
		case i < len(typed) && typed[i] == want:
			style = correctStyle
		case i < len(typed):
			style = incorrectStyle
		case want != ' ' && i >= wordStart && i < wordEnd:
			style = currentWordStyle
		}
		if i == cursor {
			style = style.Underline(true)
		}
		cells = append(cells, cell{
			text:  style.Render(string(shown)),
			width: runewidth.RuneWidth(shown),
			space: want == ' ',
		})
	}
	return cells
}

// currentWord returns the bounds of the word containing pos, or of the next
// word when pos sits on a space.
func currentWord(passage []rune, pos int) (int, int) {
	if pos >= len(passage) {
		return -1, -1
	}
	start := pos
	if passage[start] == ' ' {
		for start < len(passage) && passage[start] == ' ' {
			start++
		}
	} else {
		for start > 0 && passage[start-1] != ' ' {
			start--
		}
	}
	end := start
	for end < len(passage) && passage[end] != ' ' {
		end++
	}
	return start, end
}

func joinCells(cells []cell) string {
	var b strings.Builder
	for _, c := range cells {
		b.WriteString(c.text)
	}
	return b.String()
}

// wrapCells breaks the passage into lines of at most width columns, moving
// whole words to the next line. Words longer than a line are split and a
// space that would overflow a line is dropped.
func wrapCells(cells []cell, width int) string {
	if width <= 0 {
		return joinCells(cells)
	}
	var lines []string
	var line strings.Builder
	used := 0
	flush := func() {
		lines = append(lines, line.String())
		line.Reset()
		used = 0
	}

	for _, word := range splitWords(cells) {
		w := 0
		for _, c := range word {
			if !c.space {
				w += c.width
			}
		}
		if used > 0 && used+w > width {
			flush()
		}
		for _, c := range word {
			if used+c.width > width && used > 0 {
				if c.space {
					continue
				}
				flush()
			}
			line.WriteString(c.text)
			used += c.width
		}
	}
	if used > 0 || len(lines) == 0 {
		flush()
	}
	return strings.Join(lines, "\n")
}

// splitWords groups cells into words, each keeping its trailing space.
func splitWords(cells []cell) [][]cell {
	var words [][]cell
	start := 0
	for i, c := range cells {
		if c.space {
			words = append(words, cells[start:i+1])
			start = i + 1
		}
	}
	if start < len(cells) {
		words = append(words, cells[start:])
	}
	return words
}
