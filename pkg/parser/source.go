package parser

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
)

// ReaderSource implements MessageSource over a single text stream.
type ReaderSource struct {
	name    string
	scanner *bufio.Scanner
	acc     *Accumulator
	closer  io.Closer
	lineNum int
	done    bool
}

// NewReaderSource creates a MessageSource reading lines from r. The name is
// recorded as the Source of every message.
func NewReaderSource(name string, r io.Reader, opts ...Option) *ReaderSource {
	o := buildOptions(opts)
	return &ReaderSource{
		name:    name,
		scanner: newLineScanner(NewDecodingReader(r), o.maxLineSize),
		acc:     NewAccumulator(name, opts...),
	}
}

// Next returns the next closed message. The last message is flushed when
// the stream ends.
func (s *ReaderSource) Next(ctx context.Context) (*Message, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if s.done {
			return nil, io.EOF
		}

		if s.scanner.Scan() {
			s.lineNum++
			if m := s.acc.Feed(RawLine{Text: s.scanner.Text(), Num: s.lineNum}); m != nil {
				return m, nil
			}
			continue
		}

		if err := s.scanner.Err(); err != nil {
			return nil, fmt.Errorf("reading %s: %w", s.displayName(), err)
		}

		s.done = true
		if m := s.acc.Flush(); m != nil {
			return m, nil
		}
	}
}

// Stats returns the line counts seen so far.
func (s *ReaderSource) Stats() ParseStats {
	return s.acc.Stats()
}

// Close releases the underlying reader when it was opened by this package.
func (s *ReaderSource) Close() error {
	if s.closer != nil {
		err := s.closer.Close()
		s.closer = nil
		return err
	}
	return nil
}

func (s *ReaderSource) displayName() string {
	if s.name == "" {
		return "input"
	}
	return s.name
}

// FileSource implements MessageSource for a list of export files. Each file
// is parsed with its own accumulator, so a message never spans two files.
type FileSource struct {
	files []string
	opts  []Option

	current   *ReaderSource
	fileIndex int
	stats     ParseStats
}

// NewFileSource creates a MessageSource that reads the given files in order.
func NewFileSource(files []string, opts ...Option) *FileSource {
	return &FileSource{
		files:     files,
		opts:      opts,
		fileIndex: -1,
	}
}

// Next returns the next message across all files.
// Returns io.EOF when all files have been exhausted.
func (s *FileSource) Next(ctx context.Context) (*Message, error) {
	for {
		if s.current == nil {
			if err := s.openNextFile(); err != nil {
				return nil, err
			}
		}

		m, err := s.current.Next(ctx)
		if err == nil {
			return m, nil
		}
		if err != io.EOF {
			return nil, err
		}

		if err := s.closeCurrentFile(); err != nil {
			return nil, err
		}
	}
}

// Stats returns line counts across the files read so far.
func (s *FileSource) Stats() ParseStats {
	var total ParseStats
	total.add(s.stats)
	if s.current != nil {
		total.add(s.current.Stats())
	}
	return total
}

// Close releases resources.
func (s *FileSource) Close() error {
	return s.closeCurrentFile()
}

func (s *FileSource) openNextFile() error {
	s.fileIndex++
	if s.fileIndex >= len(s.files) {
		return io.EOF
	}

	path := s.files[s.fileIndex]
	f, err := os.Open(path) // #nosec G304 -- user-provided paths are expected
	if err != nil {
		return fmt.Errorf("opening chat export %s: %w", path, err)
	}

	s.current = NewReaderSource(path, f, s.opts...)
	s.current.closer = f
	return nil
}

func (s *FileSource) closeCurrentFile() error {
	if s.current == nil {
		return nil
	}
	s.stats.add(s.current.Stats())
	err := s.current.Close()
	s.current = nil
	return err
}
