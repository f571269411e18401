// Package parser turns exported chat transcripts into ordered message records.
package parser

// RawLine is an input line before normalization.
type RawLine struct {
	// Text is the line content without its terminator.
	Text string

	// Num is the 1-based line number in the source.
	Num int
}

// Message is a single chat message reconstructed from a header line and
// any continuation lines that followed it.
type Message struct {
	// Date is the date exactly as it appeared in the header.
	Date string `json:"date"`

	// Time is the time exactly as it appeared in the header, including any AM/PM marker.
	Time string `json:"time"`

	// Sender is the display name of the author.
	Sender string `json:"sender"`

	// Body is the header body followed by each continuation line, joined by single spaces.
	Body string `json:"message"`

	// Source is the file (or stream name) the message came from.
	Source string `json:"source,omitempty"`

	// Line is the 1-based line number of the header line.
	Line int `json:"line,omitempty"`
}

// Fields returns the four core fields in column order.
func (m *Message) Fields() [4]string {
	return [4]string{m.Date, m.Time, m.Sender, m.Body}
}

// ParseStats counts what happened to each input line.
type ParseStats struct {
	// Lines is the total number of lines read.
	Lines int `json:"lines"`

	// Headers is the number of lines that opened a message.
	Headers int `json:"headers"`

	// Continuations is the number of lines appended to an open message.
	Continuations int `json:"continuations"`

	// Dropped is the number of lines seen before any header matched.
	Dropped int `json:"dropped"`

	// Formats counts header matches per format name.
	Formats map[string]int `json:"formats,omitempty"`
}

func (s *ParseStats) add(o ParseStats) {
	s.Lines += o.Lines
	s.Headers += o.Headers
	s.Continuations += o.Continuations
	s.Dropped += o.Dropped
	for name, n := range o.Formats {
		if s.Formats == nil {
			s.Formats = make(map[string]int)
		}
		s.Formats[name] += n
	}
}
