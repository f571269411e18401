// Package analyzer aggregates a parsed chat table into activity summaries.
package analyzer

import (
	"time"
)

// EngineType names an aggregation.
type EngineType string

const (
	EngineSenders EngineType = "senders"
	EngineDaily   EngineType = "daily"
	EngineLength  EngineType = "length"
	EngineHourly  EngineType = "hourly"
	EngineWords   EngineType = "words"
)

// AllEngines lists every aggregation in the order it runs. Words depends on
// the sender ranking, so it runs after senders.
var AllEngines = []EngineType{EngineSenders, EngineDaily, EngineLength, EngineHourly, EngineWords}

// SenderCount is the number of messages sent by one participant.
type SenderCount struct {
	Name     string `json:"name"`
	Messages int    `json:"messages"`
}

// DayCount is the number of messages on one calendar day.
type DayCount struct {
	Date     time.Time `json:"date"`
	Messages int       `json:"messages"`
}

// SenderLength is the mean message length of one participant.
type SenderLength struct {
	Name     string  `json:"name"`
	Average  float64 `json:"average"`
	Messages int     `json:"messages"`
}

// WordCount is a word and how often it was used.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// SenderWords holds the most used words of one participant.
type SenderWords struct {
	Name  string      `json:"name"`
	Words []WordCount `json:"words"`
}

// Summary is the combined output of all engines. Sections of engines that
// did not run stay empty.
type Summary struct {
	// Messages is the number of rows aggregated.
	Messages int `json:"messages"`

	// Participants is the number of distinct senders.
	Participants int `json:"participants"`

	// TopSenders ranks senders by message count, ties broken by name.
	TopSenders []SenderCount `json:"top_senders,omitempty"`

	// Daily is the message count per parsed date, oldest first.
	Daily []DayCount `json:"daily,omitempty"`

	// AverageLength ranks senders by mean message length.
	AverageLength []SenderLength `json:"average_length,omitempty"`

	// Hourly is the hour-of-day histogram. Rows without a parsed hour are
	// not counted.
	Hourly [24]int `json:"hourly"`

	// PeakHour is the busiest hour, nil when no hour could be parsed.
	PeakHour *int `json:"peak_hour,omitempty"`

	// TopWords lists the most used words of each top sender.
	TopWords []SenderWords `json:"top_words,omitempty"`
}

// HourlyTotal returns the number of rows counted in the histogram.
func (s *Summary) HourlyTotal() int {
	total := 0
	for _, n := range s.Hourly {
		total += n
	}
	return total
}

// TimeRange limits analysis to rows dated within [Start, End]. A zero
// bound is open.
type TimeRange struct {
	Start time.Time `json:"start,omitempty"`
	End   time.Time `json:"end,omitempty"`
}

// Contains reports whether t falls within the range.
func (r *TimeRange) Contains(t time.Time) bool {
	if !r.Start.IsZero() && t.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && t.After(r.End) {
		return false
	}
	return true
}
