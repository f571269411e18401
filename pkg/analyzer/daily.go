package analyzer

import (
	"context"
	"sort"
	"time"

	"github.com/ccollicutt/chatsift/pkg/table"
)

// DailyEngine counts messages per calendar day. Rows without a parsed date
// are skipped.
type DailyEngine struct {
	counts map[time.Time]int
}

// NewDailyEngine creates a per-day activity engine.
func NewDailyEngine() *DailyEngine {
	return &DailyEngine{counts: make(map[time.Time]int)}
}

// Name returns the engine name.
func (e *DailyEngine) Name() string {
	return string(EngineDaily)
}

// Type returns the engine type.
func (e *DailyEngine) Type() EngineType {
	return EngineDaily
}

// Process counts one row.
func (e *DailyEngine) Process(ctx context.Context, row *table.Row) error {
	if row.ParsedDate != nil {
		e.counts[*row.ParsedDate]++
	}
	return nil
}

// Finalize fills Daily, oldest first.
func (e *DailyEngine) Finalize(ctx context.Context, s *Summary) error {
	days := make([]DayCount, 0, len(e.counts))
	for d, n := range e.counts {
		days = append(days, DayCount{Date: d, Messages: n})
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].Date.Before(days[j].Date)
	})
	s.Daily = days
	return nil
}

// Reset clears counts.
func (e *DailyEngine) Reset() {
	e.counts = make(map[time.Time]int)
}
