package parser

import (
	"container/heap"
	"context"
	"io"
	"time"
)

// MergedSource combines several MessageSources into one stream ordered by
// message timestamp (oldest first). Used when a conversation was exported
// in pieces, or from more than one phone.
//
// Messages whose date or time cannot be coerced sort as the zero time.
// Ties keep source order, then input order within a source.
type MergedSource struct {
	sources     []MessageSource
	order       DateOrder
	heap        *messageHeap
	initialized bool
	seq         int
}

// NewMergedSource creates a MessageSource that merges sources by timestamp.
func NewMergedSource(order DateOrder, sources ...MessageSource) *MergedSource {
	return &MergedSource{
		sources: sources,
		order:   order,
		heap:    &messageHeap{},
	}
}

// Next returns the next message in timestamp order across all sources.
// Returns io.EOF when all sources are exhausted.
func (m *MergedSource) Next(ctx context.Context) (*Message, error) {
	if !m.initialized {
		if err := m.initHeap(ctx); err != nil {
			return nil, err
		}
		m.initialized = true
	}

	if m.heap.Len() == 0 {
		return nil, io.EOF
	}

	item := heap.Pop(m.heap).(*heapItem)

	// Refill from the same source
	if err := m.pull(ctx, item.sourceIdx); err != nil {
		return nil, err
	}

	return item.msg, nil
}

// Stats sums the stats of every source.
func (m *MergedSource) Stats() ParseStats {
	var total ParseStats
	for _, src := range m.sources {
		total.add(src.Stats())
	}
	return total
}

func (m *MergedSource) initHeap(ctx context.Context) error {
	heap.Init(m.heap)
	for i := range m.sources {
		if err := m.pull(ctx, i); err != nil {
			return err
		}
	}
	return nil
}

func (m *MergedSource) pull(ctx context.Context, idx int) error {
	msg, err := m.sources[idx].Next(ctx)
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return err
	}

	ts, _ := ParseTimestamp(msg.Date, msg.Time, m.order)
	m.seq++
	heap.Push(m.heap, &heapItem{
		msg:       msg,
		ts:        ts,
		sourceIdx: idx,
		seq:       m.seq,
	})
	return nil
}

// Close releases all source resources.
func (m *MergedSource) Close() error {
	var firstErr error
	for _, src := range m.sources {
		if err := src.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

type heapItem struct {
	msg       *Message
	ts        time.Time
	sourceIdx int
	seq       int
}

// messageHeap implements heap.Interface for timestamp-ordered merging.
type messageHeap []*heapItem

func (h messageHeap) Len() int { return len(h) }

func (h messageHeap) Less(i, j int) bool {
	if !h[i].ts.Equal(h[j].ts) {
		return h[i].ts.Before(h[j].ts)
	}
	if h[i].sourceIdx != h[j].sourceIdx {
		return h[i].sourceIdx < h[j].sourceIdx
	}
	return h[i].seq < h[j].seq
}

func (h messageHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *messageHeap) Push(x interface{}) {
	*h = append(*h, x.(*heapItem))
}

func (h *messageHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[0 : n-1]
	return item
}
