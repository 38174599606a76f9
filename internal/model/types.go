// Package model defines shared data structures.
package model

import (
	"encoding/json"
	"time"
)

// Supported nominal test lengths in seconds.
const (
	Duration15 = 15
	Duration30 = 30
)

// PracticeConfig defines settings for a terminal typing test.
type PracticeConfig struct {
	Username     string
	Duration     int
	Words        int
	CapsPct      float64
	PunctPct     float64
	PunctSet     string
	WordListPath string
	FocusErrors  bool
	FocusFactor  float64
	FocusWindow  int
}

// HistoryConfig defines options for history views.
type HistoryConfig struct {
	Username    string
	Last        int
	CurveWindow int
}

// User is a registered account. PasswordHash is never serialized.
type User struct {
	ID           string    `json:"_id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Session is a stored, immutable typing test result.
type Session struct {
	ID              string    `json:"_id"`
	UserID          string    `json:"userId"`
	WPM             float64   `json:"wpm"`
	Accuracy        float64   `json:"accuracy"`
	TotalErrors     int       `json:"totalErrors"`
	ErrorWords      []string  `json:"errorWords"`
	TypingDurations []float64 `json:"typingDurations"`
	Duration        int       `json:"duration"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Number is a numeric request field that remembers whether it was supplied
// and whether it decoded as a JSON number.
type Number struct {
	Value   float64
	Present bool
	Valid   bool
}

// NumberOf returns a present, valid Number.
func NumberOf(v float64) Number {
	return Number{Value: v, Present: true, Valid: true}
}

// UnmarshalJSON implements json.Unmarshaler. A JSON null counts as absent;
// any non-number value is kept as present but invalid.
func (n *Number) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*n = Number{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		*n = Number{Present: true}
		return nil
	}
	*n = Number{Value: v, Present: true, Valid: true}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Present || !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// Candidate is a session submitted for persistence. It is untrusted until
// it passes validation.
type Candidate struct {
	WPM             Number    `json:"wpm"`
	Accuracy        Number    `json:"accuracy"`
	TotalErrors     Number    `json:"totalErrors"`
	ErrorWords      []string  `json:"errorWords"`
	TypingDurations []float64 `json:"typingDurations"`
	Duration        Number    `json:"duration"`
}

// Insights classifies a session.
type Insights struct {
	TypingStyle string `json:"typingStyle"`
	Resilience  string `json:"resilience"`
	Consistency string `json:"consistency"`
}

// TypingPattern describes the spread of per-word durations.
type TypingPattern struct {
	AverageSpeed float64 `json:"averageSpeed"`
	StdDev       float64 `json:"stdDev"`
	Steadiness   string  `json:"steadiness"`
}

// Analysis is the derived view of a single session. Averages are nil when
// the session recorded no word durations.
type Analysis struct {
	SessionID           string         `json:"sessionId"`
	WPM                 float64        `json:"wpm"`
	Accuracy            float64        `json:"accuracy"`
	TotalErrors         int            `json:"totalErrors"`
	MostErrorProneWords map[string]int `json:"mostErrorProneWords"`
	AverageTypingSpeed  *float64       `json:"averageTypingSpeed"`
	FirstSegmentAvg     *float64       `json:"firstSegmentAvg"`
	LastSegmentAvg      *float64       `json:"lastSegmentAvg"`
	Insights            Insights       `json:"insights"`
	TypingPattern       *TypingPattern `json:"typingPattern,omitempty"`
}

// WordCount pairs a word with how often it occurred.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// Summary aggregates a window of a user's sessions.
type Summary struct {
	Sessions        int         `json:"sessions"`
	AverageWPM      float64     `json:"averageWpm"`
	BestWPM         float64     `json:"bestWpm"`
	AverageAccuracy float64     `json:"averageAccuracy"`
	WPMSeries       []float64   `json:"wpmSeries"`
	TopErrorWords   []WordCount `json:"topErrorWords"`
}
