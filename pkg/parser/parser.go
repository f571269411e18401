package parser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

var (
	// ErrNoInput is returned when no chat export was provided.
	ErrNoInput = errors.New("no input selected")

	// ErrNoMessages is returned when parsing finished without a single
	// message, either because the input was empty or its format was not
	// recognized.
	ErrNoMessages = errors.New("no messages parsed")
)

// Parse reads r to completion and returns every message in input order.
// Unrecognized lines never cause an error; only read failures do.
// An empty result is not an error here, callers decide with ErrNoMessages.
func Parse(ctx context.Context, r io.Reader, opts ...Option) ([]Message, ParseStats, error) {
	src := NewReaderSource("", r, opts...)
	msgs, err := Collect(ctx, src)
	return msgs, src.Stats(), err
}

// ParseFile parses a single export file.
func ParseFile(ctx context.Context, path string, opts ...Option) ([]Message, ParseStats, error) {
	f, err := os.Open(path) // #nosec G304 -- user-provided paths are expected
	if err != nil {
		return nil, ParseStats{}, fmt.Errorf("opening chat export %s: %w", path, err)
	}
	defer f.Close()

	src := NewReaderSource(path, f, opts...)
	msgs, err := Collect(ctx, src)
	return msgs, src.Stats(), err
}

// Collect drains a MessageSource.
func Collect(ctx context.Context, src MessageSource) ([]Message, error) {
	var msgs []Message
	for {
		m, err := src.Next(ctx)
		if err == io.EOF {
			return msgs, nil
		}
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, *m)
	}
}
