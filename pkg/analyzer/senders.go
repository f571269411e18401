package analyzer

import (
	"context"
	"sort"
	"sync"

	"github.com/ccollicutt/chatsift/pkg/table"
)

// SendersEngine counts messages per sender and keeps the top N.
type SendersEngine struct {
	topN int

	mu     sync.Mutex
	counts map[string]int
}

// NewSendersEngine creates a sender ranking engine. topN <= 0 keeps all senders.
func NewSendersEngine(topN int) *SendersEngine {
	return &SendersEngine{
		topN:   topN,
		counts: make(map[string]int),
	}
}

// Name returns the engine name.
func (e *SendersEngine) Name() string {
	return string(EngineSenders)
}

// Type returns the engine type.
func (e *SendersEngine) Type() EngineType {
	return EngineSenders
}

// Process counts one row.
func (e *SendersEngine) Process(ctx context.Context, row *table.Row) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.counts[row.Sender]++
	return nil
}

// Finalize fills TopSenders.
func (e *SendersEngine) Finalize(ctx context.Context, s *Summary) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	ranked := make([]SenderCount, 0, len(e.counts))
	for name, n := range e.counts {
		ranked = append(ranked, SenderCount{Name: name, Messages: n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Messages != ranked[j].Messages {
			return ranked[i].Messages > ranked[j].Messages
		}
		return ranked[i].Name < ranked[j].Name
	})

	s.TopSenders = truncate(ranked, e.topN)
	return nil
}

// Reset clears counts.
func (e *SendersEngine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.counts = make(map[string]int)
}

func truncate[T any](s []T, n int) []T {
	if n > 0 && len(s) > n {
		return s[:n]
	}
	return s
}
