// Package detector identifies the export dialect and date order of a chat
// export from a sample of its lines.
package detector

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"

	"github.com/ccollicutt/chatsift/pkg/parser"
)

// DefaultSampleSize is the number of non-empty lines sampled.
const DefaultSampleSize = 200

// ClockStyle is the time notation used in headers.
type ClockStyle string

const (
	Clock12h   ClockStyle = "12h"
	Clock24h   ClockStyle = "24h"
	ClockMixed ClockStyle = "mixed"
)

// DetectionResult holds the result of analyzing an export.
type DetectionResult struct {
	Matches      []FormatMatch // Formats that matched, sorted by confidence descending
	SampledLines int           // Number of non-empty lines sampled
	ParsedLines  int           // Number of header lines for the best match

	// DateOrder is the inferred date order for the best match. When the
	// sample holds no day or month above 12 it falls back to day-first and
	// DateOrderCertain is false.
	DateOrder        parser.DateOrder
	DateOrderCertain bool
	Evidence         OrderEvidence

	// Clock is the time notation of the best match, empty without a match.
	Clock ClockStyle

	AmbiguityNote string // Warning about date ordering if applicable
}

// OrderEvidence counts dates that can only be read one way.
type OrderEvidence struct {
	DayFirst   int `json:"day_first"`
	MonthFirst int `json:"month_first"`
}

// FormatMatch represents a format that matched with its confidence score.
type FormatMatch struct {
	Format     *parser.Format
	Confidence float64       // 0.0 to 1.0 (share of sampled lines that are headers)
	MatchCount int           // Number of lines that matched
	SampleLine string        // First line that matched
	Sample     parser.Header // Groups captured from SampleLine

	priority int
	dates    []string
	times    []string
}

// Detector analyzes exports to identify their dialect.
type Detector struct {
	formats     []*parser.Format
	sampleSize  int
	maxLineSize int
	normalizer  *parser.Normalizer
}

// Option configures the Detector.
type Option func(*Detector)

// WithSampleSize sets the number of lines to sample.
func WithSampleSize(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.sampleSize = n
		}
	}
}

// WithMaxLineSize sets the longest physical line the sampler accepts.
func WithMaxLineSize(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.maxLineSize = n
		}
	}
}

// WithFormats replaces the candidate formats.
func WithFormats(formats ...*parser.Format) Option {
	return func(d *Detector) {
		if len(formats) > 0 {
			d.formats = formats
		}
	}
}

// New creates a new Detector with the built-in formats.
func New(opts ...Option) *Detector {
	d := &Detector{
		formats:     parser.DefaultFormats(),
		sampleSize:  DefaultSampleSize,
		maxLineSize: parser.DefaultMaxLineSize,
		normalizer:  parser.NewNormalizer(parser.TrimLeading),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DetectFromFile samples an export file.
func (d *Detector) DetectFromFile(ctx context.Context, path string) (*DetectionResult, error) {
	// #nosec G304 - path is provided by user via CLI
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return d.DetectFromReader(ctx, file)
}

// DetectFromReader samples lines from r.
func (d *Detector) DetectFromReader(ctx context.Context, r io.Reader) (*DetectionResult, error) {
	lines, err := d.sample(ctx, r)
	if err != nil {
		return nil, err
	}
	return d.DetectFromLines(lines), nil
}

// DetectFromLines analyzes a slice of raw lines. Every format is tried on
// every line, so overlapping formats each get credit.
func (d *Detector) DetectFromLines(lines []string) *DetectionResult {
	result := &DetectionResult{DateOrder: parser.DayFirst}

	stats := make(map[*parser.Format]*FormatMatch)

	for _, raw := range lines {
		line := d.normalizer.Normalize(raw)
		if line == "" {
			continue
		}
		result.SampledLines++

		for i, f := range d.formats {
			h, ok := f.Match(line)
			if !ok {
				continue
			}
			m := stats[f]
			if m == nil {
				m = &FormatMatch{Format: f, SampleLine: line, Sample: h, priority: i}
				stats[f] = m
			}
			m.MatchCount++
			m.dates = append(m.dates, h.Date)
			m.times = append(m.times, h.Time)
		}
	}

	if result.SampledLines == 0 {
		return result
	}

	for _, m := range stats {
		m.Confidence = float64(m.MatchCount) / float64(result.SampledLines)
		result.Matches = append(result.Matches, *m)
	}

	// Sort by confidence descending, then by matcher priority
	sort.Slice(result.Matches, func(i, j int) bool {
		if result.Matches[i].Confidence != result.Matches[j].Confidence {
			return result.Matches[i].Confidence > result.Matches[j].Confidence
		}
		return result.Matches[i].priority < result.Matches[j].priority
	})

	best := result.BestMatch()
	if best == nil {
		return result
	}
	result.ParsedLines = best.MatchCount
	result.Evidence = InferDateOrder(best.dates)
	result.Clock = clockStyle(best.times)

	switch {
	case result.Evidence.DayFirst > 0 && result.Evidence.MonthFirst == 0:
		result.DateOrder, result.DateOrderCertain = parser.DayFirst, true
	case result.Evidence.MonthFirst > 0 && result.Evidence.DayFirst == 0:
		result.DateOrder, result.DateOrderCertain = parser.MonthFirst, true
	case result.Evidence.DayFirst > 0 && result.Evidence.MonthFirst > 0:
		result.AmbiguityNote = fmt.Sprintf("Dates disagree on ordering (%d read only day-first, %d only month-first). "+
			"Set dates.order explicitly in your config.", result.Evidence.DayFirst, result.Evidence.MonthFirst)
	default:
		result.AmbiguityNote = "No date in the sample has a day above 12, so DD/MM and MM/DD cannot be told apart. " +
			"Assuming day-first; set dates.order: month-first if the export came from a US-locale phone."
	}

	return result
}

var dateFields = regexp.MustCompile(`^(\d{1,2})[/.-](\d{1,2})[/.-]\d{2,4}$`)

// InferDateOrder counts dates whose first field can only be a day (above
// 12) and dates whose second field can only be a day.
func InferDateOrder(dates []string) OrderEvidence {
	var ev OrderEvidence
	for _, d := range dates {
		m := dateFields.FindStringSubmatch(d)
		if m == nil {
			continue
		}
		first, _ := strconv.Atoi(m[1])
		second, _ := strconv.Atoi(m[2])
		switch {
		case first > 12 && second <= 12:
			ev.DayFirst++
		case second > 12 && first <= 12:
			ev.MonthFirst++
		}
	}
	return ev
}

var clockMarker = regexp.MustCompile(`[APMapm]`)

func clockStyle(times []string) ClockStyle {
	var twelve, twentyFour int
	for _, t := range times {
		if clockMarker.MatchString(t) {
			twelve++
		} else {
			twentyFour++
		}
	}
	switch {
	case twelve > 0 && twentyFour > 0:
		return ClockMixed
	case twelve > 0:
		return Clock12h
	case twentyFour > 0:
		return Clock24h
	}
	return ""
}

// sample reads up to sampleSize non-empty lines. Uses simple head sampling.
func (d *Detector) sample(ctx context.Context, r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(parser.NewDecodingReader(r))
	initial := 64 * 1024
	if d.maxLineSize < initial {
		initial = d.maxLineSize
	}
	scanner.Buffer(make([]byte, 0, initial), d.maxLineSize)

	for len(lines) < d.sampleSize && scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := scanner.Text()
		if d.normalizer.Normalize(line) != "" {
			lines = append(lines, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}

// BestMatch returns the highest confidence match, or nil if none found.
func (r *DetectionResult) BestMatch() *FormatMatch {
	if len(r.Matches) == 0 {
		return nil
	}
	return &r.Matches[0]
}

// HasMatch returns true if at least one format matched.
func (r *DetectionResult) HasMatch() bool {
	return len(r.Matches) > 0
}
