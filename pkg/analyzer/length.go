package analyzer

import (
	"context"
	"sort"

	"github.com/ccollicutt/chatsift/pkg/table"
)

type lengthTotal struct {
	chars    int
	messages int
}

// LengthEngine computes the mean message length per sender and keeps the
// top N senders by mean.
type LengthEngine struct {
	topN   int
	totals map[string]*lengthTotal
}

// NewLengthEngine creates an average length engine. topN <= 0 keeps all senders.
func NewLengthEngine(topN int) *LengthEngine {
	return &LengthEngine{
		topN:   topN,
		totals: make(map[string]*lengthTotal),
	}
}

// Name returns the engine name.
func (e *LengthEngine) Name() string {
	return string(EngineLength)
}

// Type returns the engine type.
func (e *LengthEngine) Type() EngineType {
	return EngineLength
}

// Process adds one row's length.
func (e *LengthEngine) Process(ctx context.Context, row *table.Row) error {
	t, ok := e.totals[row.Sender]
	if !ok {
		t = &lengthTotal{}
		e.totals[row.Sender] = t
	}
	t.chars += row.Length
	t.messages++
	return nil
}

// Finalize fills AverageLength.
func (e *LengthEngine) Finalize(ctx context.Context, s *Summary) error {
	ranked := make([]SenderLength, 0, len(e.totals))
	for name, t := range e.totals {
		ranked = append(ranked, SenderLength{
			Name:     name,
			Average:  float64(t.chars) / float64(t.messages),
			Messages: t.messages,
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Average != ranked[j].Average {
			return ranked[i].Average > ranked[j].Average
		}
		return ranked[i].Name < ranked[j].Name
	})
	s.AverageLength = truncate(ranked, e.topN)
	return nil
}

// Reset clears totals.
func (e *LengthEngine) Reset() {
	e.totals = make(map[string]*lengthTotal)
}
