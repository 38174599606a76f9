package stats

import (
	"sort"
	"strings"

	"github.com/verte-zerg/typetrack/internal/model"
)

// Summarize aggregates sessions listed newest first. The WPM series runs
// oldest to newest so it can be plotted left to right.
func Summarize(sessions []model.Session, topWords int) model.Summary {
	summary := model.Summary{
		Sessions:      len(sessions),
		WPMSeries:     make([]float64, 0, len(sessions)),
		TopErrorWords: []model.WordCount{},
	}
	if len(sessions) == 0 {
		return summary
	}

	var totalWPM, totalAcc float64
	for i := len(sessions) - 1; i >= 0; i-- {
		s := sessions[i]
		totalWPM += s.WPM
		totalAcc += s.Accuracy
		if s.WPM > summary.BestWPM {
			summary.BestWPM = s.WPM
		}
		summary.WPMSeries = append(summary.WPMSeries, s.WPM)
	}
	count := float64(len(sessions))
	summary.AverageWPM = totalWPM / count
	summary.AverageAccuracy = totalAcc / count
	summary.TopErrorWords = TopErrorWords(sessions, topWords)
	return summary
}

// TopErrorWords returns the n most frequent error words across sessions.
// Ties are ordered alphabetically.
func TopErrorWords(sessions []model.Session, n int) []model.WordCount {
	if n <= 0 || len(sessions) == 0 {
		return []model.WordCount{}
	}
	counts := map[string]int{}
	for _, s := range sessions {
		for word, c := range ErrorWordCounts(s.ErrorWords) {
			counts[word] += c
		}
	}
	return rankCounts(counts, n)
}

func rankCounts(counts map[string]int, n int) []model.WordCount {
	items := make([]model.WordCount, 0, len(counts))
	for word, c := range counts {
		items = append(items, model.WordCount{Word: word, Count: c})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Count == items[j].Count {
			return items[i].Word < items[j].Word
		}
		return items[i].Count > items[j].Count
	})
	if n > len(items) {
		n = len(items)
	}
	return items[:n]
}

// SelectFocusWords picks up to top words to bias practice passages toward.
// Words are lower-cased and stripped of surrounding punctuation so they match
// word list entries.
func SelectFocusWords(counts []model.WordCount, top int) map[string]struct{} {
	focus := map[string]struct{}{}
	if top <= 0 || top > len(counts) {
		top = len(counts)
	}
	for _, wc := range counts[:top] {
		word := strings.ToLower(strings.Trim(wc.Word, ".,!?;:\"'()[]{}-"))
		if word != "" {
			focus[word] = struct{}{}
		}
	}
	return focus
}
