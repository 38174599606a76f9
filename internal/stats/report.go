package stats

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/typetrack/internal/model"
)

// RenderAnalysis prints the analysis of one session as aligned tables.
func RenderAnalysis(w io.Writer, a model.Analysis) error {
	if _, err := fmt.Fprintf(w, "Session %s\n", a.SessionID); err != nil {
		return err
	}
	rows := [][]string{
		{"WPM", fmt.Sprintf("%.0f", a.WPM)},
		{"Accuracy", fmt.Sprintf("%.0f%%", a.Accuracy)},
		{"Errors", fmt.Sprintf("%d", a.TotalErrors)},
		{"Avg word time (s)", formatOptional(a.AverageTypingSpeed)},
		{"First words avg (s)", formatOptional(a.FirstSegmentAvg)},
		{"Last words avg (s)", formatOptional(a.LastSegmentAvg)},
		{"Typing style", a.Insights.TypingStyle},
		{"Resilience", a.Insights.Resilience},
		{"Consistency", a.Insights.Consistency},
	}
	if a.TypingPattern != nil {
		rows = append(rows,
			[]string{"Std dev (s)", fmt.Sprintf("%.2f", a.TypingPattern.StdDev)},
			[]string{"Steadiness", a.TypingPattern.Steadiness},
		)
	}
	if err := writeLines(w, formatTable([]string{"Metric", "Value"}, rows, map[int]bool{1: true})); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}

	if len(a.MostErrorProneWords) == 0 {
		_, err := fmt.Fprintln(w, "No error words.")
		return err
	}
	counts := rankCounts(a.MostErrorProneWords, len(a.MostErrorProneWords))
	wordRows := make([][]string, 0, len(counts))
	for _, wc := range counts {
		wordRows = append(wordRows, []string{wc.Word, fmt.Sprintf("%d", wc.Count)})
	}
	return writeLines(w, formatTable([]string{"Error word", "Count"}, wordRows, map[int]bool{1: true}))
}

// RenderSummary prints aggregate figures and a WPM trend line.
func RenderSummary(w io.Writer, s model.Summary, window int) error {
	if s.Sessions == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	lines := []string{
		"Summary",
		fmt.Sprintf("Sessions: %d", s.Sessions),
		fmt.Sprintf("Avg WPM: %.2f", s.AverageWPM),
		fmt.Sprintf("Best WPM: %.0f", s.BestWPM),
		fmt.Sprintf("Avg Accuracy: %.2f%%", s.AverageAccuracy),
		"WPM trend: " + Sparkline(MovingAverage(s.WPMSeries, window)),
		"",
	}
	if len(s.TopErrorWords) > 0 {
		rows := make([][]string, 0, len(s.TopErrorWords))
		for _, wc := range s.TopErrorWords {
			rows = append(rows, []string{wc.Word, fmt.Sprintf("%d", wc.Count)})
		}
		lines = append(lines, "Top error words")
		lines = append(lines, formatTable([]string{"Word", "Count"}, rows, map[int]bool{1: true})...)
	}
	return writeLines(w, lines)
}

// RenderSessions prints one row per session, newest first as given.
func RenderSessions(w io.Writer, sessions []model.Session) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, []string{
			s.ID,
			s.CreatedAt.Local().Format("2006-01-02 15:04"),
			fmt.Sprintf("%.0f", s.WPM),
			fmt.Sprintf("%.0f%%", s.Accuracy),
			fmt.Sprintf("%d", s.TotalErrors),
			fmt.Sprintf("%ds", s.Duration),
		})
	}
	headers := []string{"ID", "Date", "WPM", "Acc", "Errors", "Test"}
	return writeLines(w, formatTable(headers, rows, map[int]bool{2: true, 3: true, 4: true, 5: true}))
}

func formatOptional(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func formatTable(headers []string, rows [][]string, rightAlignCols map[int]bool) []string {
	colCount := len(headers)
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}
	if colCount == 0 {
		return nil
	}

	widths := make([]int, colCount)
	for i, header := range headers {
		widths[i] = runewidth.StringWidth(header)
	}
	for _, row := range rows {
		for i, cell := range row {
			if cw := runewidth.StringWidth(cell); cw > widths[i] {
				widths[i] = cw
			}
		}
	}

	lines := make([]string, 0, len(rows)+1)
	if len(headers) > 0 {
		lines = append(lines, formatRow(headers, widths, rightAlignCols))
	}
	for _, row := range rows {
		lines = append(lines, formatRow(row, widths, rightAlignCols))
	}
	return lines
}

func formatRow(row []string, widths []int, rightAlignCols map[int]bool) string {
	cells := make([]string, len(widths))
	for i, width := range widths {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		if rightAlignCols[i] {
			cells[i] = runewidth.FillLeft(cell, width)
		} else {
			cells[i] = runewidth.FillRight(cell, width)
		}
	}
	return strings.Join(cells, " ")
}
