package analyzer

import (
	"context"

	"github.com/ccollicutt/chatsift/pkg/table"
)

// Engine aggregates table rows into one section of the Summary.
type Engine interface {
	// Name returns the engine name for reporting.
	Name() string

	// Type returns the aggregation kind.
	Type() EngineType

	// Process handles a single row, updating internal state.
	Process(ctx context.Context, row *table.Row) error

	// Finalize writes the engine's section into the summary.
	// Called after all rows have been processed, in engine order.
	Finalize(ctx context.Context, s *Summary) error

	// Reset clears internal state for reuse.
	Reset()
}
