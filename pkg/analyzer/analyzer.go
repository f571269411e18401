package analyzer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ccollicutt/chatsift/pkg/parser"
	"github.com/ccollicutt/chatsift/pkg/table"
)

// ErrNoMessages is returned when there is nothing to aggregate.
var ErrNoMessages = parser.ErrNoMessages

// ErrNoMatchingRows is returned when the table has rows but the sender and
// time filters exclude all of them.
var ErrNoMatchingRows = errors.New("no messages matched the filters")

const (
	// DefaultTopN is the number of senders ranked.
	DefaultTopN = 5

	// DefaultWordsPerSender is the number of words listed per sender.
	DefaultWordsPerSender = 5
)

// Analyzer runs the aggregation engines over a table.
type Analyzer struct {
	engines []Engine

	// Options
	topN           int
	wordsPerSender int
	minWordLength  int
	stopWords      []string
	timeRange      *TimeRange
	senderFilter   map[string]bool // nil means all senders
	engineFilter   map[EngineType]bool
}

// AnalyzerOption configures analyzer behavior.
type AnalyzerOption func(*Analyzer)

// WithTopN sets how many senders are ranked.
func WithTopN(n int) AnalyzerOption {
	return func(a *Analyzer) {
		if n > 0 {
			a.topN = n
		}
	}
}

// WithWordsPerSender sets how many words are listed per sender.
func WithWordsPerSender(n int) AnalyzerOption {
	return func(a *Analyzer) {
		if n > 0 {
			a.wordsPerSender = n
		}
	}
}

// WithMinWordLength sets the shortest counted word.
func WithMinWordLength(n int) AnalyzerOption {
	return func(a *Analyzer) {
		if n > 0 {
			a.minWordLength = n
		}
	}
}

// WithStopWords adds words to the built-in stop list.
func WithStopWords(words []string) AnalyzerOption {
	return func(a *Analyzer) {
		a.stopWords = append(a.stopWords, words...)
	}
}

// WithTimeRange limits analysis to rows dated within the range. Rows
// without a parsed date are excluded while a range is active.
func WithTimeRange(start, end time.Time) AnalyzerOption {
	return func(a *Analyzer) {
		a.timeRange = &TimeRange{Start: start, End: end}
	}
}

// WithSenderFilter limits analysis to the given senders.
func WithSenderFilter(senders []string) AnalyzerOption {
	return func(a *Analyzer) {
		if len(senders) > 0 {
			a.senderFilter = make(map[string]bool)
			for _, s := range senders {
				a.senderFilter[s] = true
			}
		}
	}
}

// WithEngines limits analysis to the named engines.
func WithEngines(names []string) AnalyzerOption {
	return func(a *Analyzer) {
		if len(names) > 0 {
			a.engineFilter = make(map[EngineType]bool)
			for _, n := range names {
				a.engineFilter[EngineType(n)] = true
			}
		}
	}
}

// NewAnalyzer creates an analyzer.
func NewAnalyzer(opts ...AnalyzerOption) (*Analyzer, error) {
	a := &Analyzer{
		topN:           DefaultTopN,
		wordsPerSender: DefaultWordsPerSender,
		minWordLength:  DefaultMinWordLength,
		stopWords:      append([]string(nil), DefaultStopWords...),
	}

	// Apply options
	for _, opt := range opts {
		opt(a)
	}

	for name := range a.engineFilter {
		if !knownEngine(name) {
			return nil, fmt.Errorf("unknown engine %q", name)
		}
	}

	for _, et := range AllEngines {
		if a.engineFilter != nil && !a.engineFilter[et] {
			continue
		}
		a.engines = append(a.engines, a.createEngine(et))
	}

	return a, nil
}

func knownEngine(et EngineType) bool {
	for _, k := range AllEngines {
		if k == et {
			return true
		}
	}
	return false
}

func (a *Analyzer) createEngine(et EngineType) Engine {
	switch et {
	case EngineSenders:
		return NewSendersEngine(a.topN)
	case EngineDaily:
		return NewDailyEngine()
	case EngineLength:
		return NewLengthEngine(a.topN)
	case EngineHourly:
		return NewHourlyEngine()
	default:
		return NewWordsEngine(a.topN, a.wordsPerSender, a.minWordLength, a.stopWords)
	}
}

// AnalysisResult contains the complete analysis output.
type AnalysisResult struct {
	Summary  Summary
	Metadata AnalysisMetadata
}

// AnalysisMetadata provides context about the analysis run.
type AnalysisMetadata struct {
	// Sources lists the files the rows came from, in order of appearance.
	Sources []string

	// TimeRange is the date filter applied, if any.
	TimeRange *TimeRange

	// Senders is the sender filter applied, if any.
	Senders []string

	// FirstDate and LastDate bound the parsed dates analysed.
	FirstDate *time.Time
	LastDate  *time.Time

	// StartTime is when analysis began.
	StartTime time.Time

	// EndTime is when analysis completed.
	EndTime time.Time

	// RowsTotal is the number of rows in the table.
	RowsTotal int

	// RowsProcessed is the number of rows that passed the filters.
	RowsProcessed int
}

// Analyze aggregates the table. An empty table returns ErrNoMessages; a
// table whose rows are all filtered out returns ErrNoMatchingRows.
func (a *Analyzer) Analyze(ctx context.Context, t *table.Table) (*AnalysisResult, error) {
	result := &AnalysisResult{
		Metadata: AnalysisMetadata{
			TimeRange: a.timeRange,
			StartTime: time.Now(),
			RowsTotal: t.Len(),
		},
	}
	for s := range a.senderFilter {
		result.Metadata.Senders = append(result.Metadata.Senders, s)
	}
	sort.Strings(result.Metadata.Senders)

	if t.Empty() {
		return nil, ErrNoMessages
	}

	// Reset all engines before analysis
	for _, engine := range a.engines {
		engine.Reset()
	}

	sourcesMap := make(map[string]bool)
	participants := make(map[string]bool)

	for i := range t.Rows {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		row := &t.Rows[i]
		if !a.keep(row) {
			continue
		}

		if row.Source != "" && !sourcesMap[row.Source] {
			sourcesMap[row.Source] = true
			result.Metadata.Sources = append(result.Metadata.Sources, row.Source)
		}
		if d := row.ParsedDate; d != nil {
			if result.Metadata.FirstDate == nil || d.Before(*result.Metadata.FirstDate) {
				result.Metadata.FirstDate = d
			}
			if result.Metadata.LastDate == nil || d.After(*result.Metadata.LastDate) {
				result.Metadata.LastDate = d
			}
		}

		participants[row.Sender] = true
		result.Metadata.RowsProcessed++

		for _, engine := range a.engines {
			if err := engine.Process(ctx, row); err != nil {
				return nil, fmt.Errorf("processing row with engine %q: %w", engine.Name(), err)
			}
		}
	}

	if result.Metadata.RowsProcessed == 0 {
		return nil, ErrNoMatchingRows
	}
	result.Summary.Messages = result.Metadata.RowsProcessed
	result.Summary.Participants = len(participants)

	for _, engine := range a.engines {
		if err := engine.Finalize(ctx, &result.Summary); err != nil {
			return nil, fmt.Errorf("finalizing engine %q: %w", engine.Name(), err)
		}
	}

	result.Metadata.EndTime = time.Now()

	return result, nil
}

func (a *Analyzer) keep(row *table.Row) bool {
	if a.senderFilter != nil && !a.senderFilter[row.Sender] {
		return false
	}
	if a.timeRange != nil {
		if row.ParsedDate == nil || !a.timeRange.Contains(*row.ParsedDate) {
			return false
		}
	}
	return true
}
