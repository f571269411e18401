package parser

import (
	"errors"
	"fmt"
	"regexp"
)

// FormatKind identifies an export dialect.
type FormatKind string

const (
	// KindBracketed is the iPhone style: "[01/02/2023, 10:15:00 AM] Bob: hello".
	KindBracketed FormatKind = "bracketed"

	// KindDash is the Android style: "01/02/2023, 10:15 AM - Bob: hello".
	KindDash FormatKind = "dash"

	// KindCustom is a user-supplied pattern from configuration.
	KindCustom FormatKind = "custom"
)

// Building blocks shared by the built-in dialects. Only the AM/PM marker is
// case-insensitive.
const (
	datePattern = `(?P<date>\d{1,2}[/.-]\d{1,2}[/.-]\d{2,4})`
	timePattern = `(?P<time>\d{1,2}:\d{2}(?::\d{2})?(?:\s*[APMapm]{1,2})?)`
	restPattern = `(?P<sender>[^:]+?):\s*(?P<body>.*)$`
)

// groupNames are the capture groups every format must declare.
var groupNames = [4]string{"date", "time", "sender", "body"}

// Header holds the four groups captured from a header line.
type Header struct {
	Date   string
	Time   string
	Sender string
	Body   string
}

// Format is a header pattern for one export dialect.
type Format struct {
	Name       string         // Human-readable name
	Kind       FormatKind     // Dialect identifier
	PatternStr string         // Pattern source, for config output
	Pattern    *regexp.Regexp // Compiled pattern
	Examples   []string       // Example header lines

	groups [4]int // submatch indexes of date, time, sender, body
}

// NewFormat compiles a header pattern. The pattern must declare the named
// groups date, time, sender and body.
func NewFormat(name string, kind FormatKind, pattern string) (*Format, error) {
	if pattern == "" {
		return nil, errors.New("pattern is required")
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern: %w", err)
	}

	f := &Format{
		Name:       name,
		Kind:       kind,
		PatternStr: pattern,
		Pattern:    re,
	}
	for i, g := range groupNames {
		idx := re.SubexpIndex(g)
		if idx < 0 {
			return nil, fmt.Errorf("pattern is missing the named capture group %q", g)
		}
		f.groups[i] = idx
	}
	return f, nil
}

func mustFormat(name string, kind FormatKind, pattern string, examples ...string) *Format {
	f, err := NewFormat(name, kind, pattern)
	if err != nil {
		panic(fmt.Sprintf("parser: built-in format %q: %v", name, err))
	}
	f.Examples = examples
	return f
}

// DefaultFormats returns the built-in dialects in priority order.
// Stricter dialects come first so a permissive one never claims their lines.
func DefaultFormats() []*Format {
	return []*Format{
		mustFormat("Bracketed timestamp (iPhone)", KindBracketed,
			`^\[`+datePattern+`,\s*`+timePattern+`\]\s*`+restPattern,
			"[01/02/2023, 10:15:00 AM] Bob: hello",
			"[15.01.24, 21:04:11] Alice: see you"),
		mustFormat("Dash timestamp (Android)", KindDash,
			`^`+datePattern+`,\s*`+timePattern+`\s*-\s*`+restPattern,
			"01/02/2023, 10:15 AM - Bob: hello",
			"15/01/2024, 21:04 - Alice: see you"),
	}
}

// ID is a short identifier: the kind for built-in dialects, the name for
// custom ones.
func (f *Format) ID() string {
	if f.Kind == KindCustom && f.Name != "" {
		return f.Name
	}
	return string(f.Kind)
}

// Match reports whether the line is a header in this dialect and returns
// the captured groups.
func (f *Format) Match(line string) (Header, bool) {
	m := f.Pattern.FindStringSubmatch(line)
	if m == nil {
		return Header{}, false
	}
	return Header{
		Date:   m[f.groups[0]],
		Time:   m[f.groups[1]],
		Sender: m[f.groups[2]],
		Body:   m[f.groups[3]],
	}, true
}

// Matcher tries an ordered list of formats against a line.
type Matcher struct {
	formats []*Format
}

// NewMatcher creates a Matcher. With no formats it uses DefaultFormats.
func NewMatcher(formats ...*Format) *Matcher {
	if len(formats) == 0 {
		formats = DefaultFormats()
	}
	return &Matcher{formats: formats}
}

// Formats returns the formats in priority order.
func (m *Matcher) Formats() []*Format {
	return m.formats
}

// Match returns the header captured by the first format that matches,
// or ok == false when no format matches. It never fails.
func (m *Matcher) Match(line string) (Header, *Format, bool) {
	for _, f := range m.formats {
		if h, ok := f.Match(line); ok {
			return h, f, true
		}
	}
	return Header{}, nil, false
}
