// Package stats contains typing metrics, session analysis and reporting.
package stats

import (
	"math"
	"strings"
)

const sparkChars = " .:-=+*#%@"

// Metrics is the score of a typed transcript against a reference passage.
type Metrics struct {
	WPM          float64
	Accuracy     float64
	TotalErrors  int
	CorrectChars int
}

// ComputeMetrics scores typed against reference over elapsedSeconds.
// Characters are compared by position; reference positions past the end of
// the passage count as mismatches. WPM is scaled down by accuracy.
func ComputeMetrics(typed, reference string, elapsedSeconds float64) Metrics {
	typedRunes := []rune(typed)
	refRunes := []rune(reference)
	if len(typedRunes) == 0 {
		return Metrics{}
	}

	correct := 0
	for i, r := range typedRunes {
		if i < len(refRunes) && refRunes[i] == r {
			correct++
		}
	}

	accuracy := math.Round(float64(correct) / float64(len(typedRunes)) * 100)
	m := Metrics{
		Accuracy:     accuracy,
		TotalErrors:  len(typedRunes) - correct,
		CorrectChars: correct,
	}
	if elapsedSeconds <= 0 || math.IsNaN(elapsedSeconds) || math.IsInf(elapsedSeconds, 0) {
		return m
	}
	words := len(strings.Fields(typed))
	minutes := elapsedSeconds / 60
	m.WPM = math.Round(float64(words) / minutes * (accuracy / 100))
	return m
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := minMax(values)
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

func minMax(values []float64) (float64, float64) {
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	return minVal, maxVal
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
