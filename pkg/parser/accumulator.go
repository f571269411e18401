package parser

import (
	"fmt"
	"strings"
)

// State is the accumulator state.
type State int

const (
	// Idle means no message is open.
	Idle State = iota
	// Open means a message is being built.
	Open
)

func (s State) String() string {
	if s == Open {
		return "open"
	}
	return "idle"
}

// EmptyLinePolicy decides what an empty continuation line contributes.
type EmptyLinePolicy string

const (
	// EmptyLineSpace appends a separating space even when the continuation
	// line is empty after trimming.
	EmptyLineSpace EmptyLinePolicy = "space"

	// EmptyLineSkip ignores continuation lines that are empty after trimming.
	EmptyLineSkip EmptyLinePolicy = "skip"
)

// ParseEmptyLinePolicy validates a policy name. The empty string selects EmptyLineSpace.
func ParseEmptyLinePolicy(s string) (EmptyLinePolicy, error) {
	switch EmptyLinePolicy(s) {
	case "", EmptyLineSpace:
		return EmptyLineSpace, nil
	case EmptyLineSkip:
		return EmptyLineSkip, nil
	default:
		return "", fmt.Errorf("invalid empty continuation policy %q (must be space or skip)", s)
	}
}

// Accumulator rebuilds messages from a stream of lines. It holds at most
// one open message. An Accumulator belongs to a single input; use a new one
// per file.
type Accumulator struct {
	normalizer *Normalizer
	matcher    *Matcher
	policy     EmptyLinePolicy
	source     string

	open  *Message
	stats ParseStats
}

// NewAccumulator creates an Accumulator in the Idle state.
func NewAccumulator(source string, opts ...Option) *Accumulator {
	o := buildOptions(opts)
	return &Accumulator{
		normalizer: NewNormalizer(o.trim),
		matcher:    o.matcher(),
		policy:     o.emptyLines,
		source:     source,
	}
}

// State reports whether a message is open.
func (a *Accumulator) State() State {
	if a.open != nil {
		return Open
	}
	return Idle
}

// Stats returns the line counts seen so far.
func (a *Accumulator) Stats() ParseStats {
	return a.stats
}

// Feed consumes one raw line. When the line is a header and a message was
// open, the previous message is returned closed.
func (a *Accumulator) Feed(line RawLine) *Message {
	a.stats.Lines++
	text := a.normalizer.Normalize(line.Text)

	if h, f, ok := a.matcher.Match(text); ok {
		closed := a.open
		a.open = &Message{
			Date:   h.Date,
			Time:   h.Time,
			Sender: h.Sender,
			Body:   h.Body,
			Source: a.source,
			Line:   line.Num,
		}
		a.stats.Headers++
		if a.stats.Formats == nil {
			a.stats.Formats = make(map[string]int)
		}
		a.stats.Formats[f.ID()]++
		return closed
	}

	if a.open == nil {
		// Banner or other noise before the first message.
		a.stats.Dropped++
		return nil
	}

	cont := strings.TrimSpace(text)
	if cont == "" && a.policy == EmptyLineSkip {
		return nil
	}
	a.open.Body += " " + cont
	a.stats.Continuations++
	return nil
}

// Flush closes and returns the open message, or nil when Idle.
func (a *Accumulator) Flush() *Message {
	closed := a.open
	a.open = nil
	return closed
}
