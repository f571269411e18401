package analyzer

import (
	"context"

	"github.com/ccollicutt/chatsift/pkg/table"
)

// HourlyEngine builds the hour-of-day histogram.
type HourlyEngine struct {
	buckets [24]int
}

// NewHourlyEngine creates an hour-of-day engine.
func NewHourlyEngine() *HourlyEngine {
	return &HourlyEngine{}
}

// Name returns the engine name.
func (e *HourlyEngine) Name() string {
	return string(EngineHourly)
}

// Type returns the engine type.
func (e *HourlyEngine) Type() EngineType {
	return EngineHourly
}

// Process counts one row. Rows without a parsed hour are skipped.
func (e *HourlyEngine) Process(ctx context.Context, row *table.Row) error {
	if row.Hour != nil && *row.Hour >= 0 && *row.Hour < 24 {
		e.buckets[*row.Hour]++
	}
	return nil
}

// Finalize fills Hourly and PeakHour. The earliest hour wins a tie.
func (e *HourlyEngine) Finalize(ctx context.Context, s *Summary) error {
	s.Hourly = e.buckets
	peak := -1
	for h, n := range e.buckets {
		if n > 0 && (peak < 0 || n > e.buckets[peak]) {
			peak = h
		}
	}
	if peak >= 0 {
		s.PeakHour = &peak
	}
	return nil
}

// Reset clears the histogram.
func (e *HourlyEngine) Reset() {
	e.buckets = [24]int{}
}
