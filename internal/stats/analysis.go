package stats

import (
	"math"

	"github.com/verte-zerg/typetrack/internal/model"
)

// Insight labels.
const (
	StyleFast     = "Fast"
	StyleCareful  = "Careful"
	StyleBalanced = "Balanced"

	ResilienceGood      = "Good recovery"
	ResilienceStruggled = "Struggled after errors"

	ConsistencyStable   = "Consistent"
	ConsistencyVariable = "Variable"

	SteadinessHigh   = "High"
	SteadinessMedium = "Medium"
	SteadinessLow    = "Low"

	InsightUndetermined = "Undetermined"
)

const (
	segmentSize          = 3
	consistentSpreadSecs = 2.0
)

// Analyze derives insights from a stored session. It does not look anything
// up and never fails; averages are nil when no word durations were recorded.
func Analyze(s model.Session) model.Analysis {
	a := model.Analysis{
		SessionID:           s.ID,
		WPM:                 s.WPM,
		Accuracy:            s.Accuracy,
		TotalErrors:         s.TotalErrors,
		MostErrorProneWords: ErrorWordCounts(s.ErrorWords),
		Insights: model.Insights{
			TypingStyle: TypingStyle(s.WPM),
			Resilience:  InsightUndetermined,
			Consistency: InsightUndetermined,
		},
	}

	durations := s.TypingDurations
	if len(durations) == 0 {
		return a
	}

	avg := mean(durations)
	n := segmentSize
	if n > len(durations) {
		n = len(durations)
	}
	first := mean(durations[:n])
	last := mean(durations[len(durations)-n:])
	a.AverageTypingSpeed = &avg
	a.FirstSegmentAvg = &first
	a.LastSegmentAvg = &last

	if last < first {
		a.Insights.Resilience = ResilienceGood
	} else {
		a.Insights.Resilience = ResilienceStruggled
	}

	lo, hi := minMax(durations)
	if hi-lo < consistentSpreadSecs {
		a.Insights.Consistency = ConsistencyStable
	} else {
		a.Insights.Consistency = ConsistencyVariable
	}

	a.TypingPattern = Pattern(durations)
	return a
}

// TypingStyle classifies a speed. 40 and 70 are both Balanced.
func TypingStyle(wpm float64) string {
	switch {
	case wpm > 70:
		return StyleFast
	case wpm < 40:
		return StyleCareful
	default:
		return StyleBalanced
	}
}

// ErrorWordCounts counts occurrences of each word, summing duplicates.
func ErrorWordCounts(words []string) map[string]int {
	counts := make(map[string]int, len(words))
	for _, w := range words {
		counts[w]++
	}
	return counts
}

// Pattern reports the population standard deviation of durations and a
// steadiness label. It returns nil for an empty slice.
func Pattern(durations []float64) *model.TypingPattern {
	if len(durations) == 0 {
		return nil
	}
	avg := mean(durations)
	var variance float64
	for _, d := range durations {
		variance += (d - avg) * (d - avg)
	}
	variance /= float64(len(durations))
	stdDev := math.Sqrt(variance)

	steadiness := SteadinessLow
	switch {
	case stdDev < 0.5:
		steadiness = SteadinessHigh
	case stdDev < 1:
		steadiness = SteadinessMedium
	}
	return &model.TypingPattern{
		AverageSpeed: avg,
		StdDev:       stdDev,
		Steadiness:   steadiness,
	}
}
