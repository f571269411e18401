package parser

import (
	"context"
)

// MessageSource provides an iterator over reconstructed messages.
// Implementations are for sequential access only.
type MessageSource interface {
	// Next returns the next closed message.
	// Returns io.EOF when no more messages are available.
	// Lines before the first header are dropped, never reported as errors.
	Next(ctx context.Context) (*Message, error)

	// Stats returns the line counts seen so far.
	Stats() ParseStats

	// Close releases any resources held by the source.
	Close() error
}
