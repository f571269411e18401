// Package output provides formatting and output generation for chat
// analysis reports and parsed messages.
package output

import (
	"time"

	"github.com/ccollicutt/chatsift/pkg/analyzer"
	"github.com/ccollicutt/chatsift/pkg/parser"
)

// Report is the complete analysis output.
type Report struct {
	// Summary holds the aggregated sections.
	Summary analyzer.Summary `json:"summary"`

	// Stats counts what happened to the input lines.
	Stats parser.ParseStats `json:"stats"`

	// Metadata provides context about the analysis.
	Metadata Metadata `json:"metadata"`
}

// Metadata provides context about the analysis run.
type Metadata struct {
	// ConfigFile is the path to the configuration file used.
	ConfigFile string `json:"config_file,omitempty"`

	// Sources lists the export files that were analyzed.
	Sources []string `json:"sources,omitempty"`

	// TimeRange is the date filter that was applied, if any.
	TimeRange *analyzer.TimeRange `json:"time_range,omitempty"`

	// Senders is the sender filter that was applied, if any.
	Senders []string `json:"senders,omitempty"`

	// FirstDate and LastDate bound the analysed messages.
	FirstDate *time.Time `json:"first_date,omitempty"`
	LastDate  *time.Time `json:"last_date,omitempty"`

	// DateOrder is the date order used to read header dates.
	DateOrder parser.DateOrder `json:"date_order,omitempty"`

	// AnalyzedAt is when the analysis was performed.
	AnalyzedAt time.Time `json:"analyzed_at"`

	// Duration is how long the analysis took.
	Duration time.Duration `json:"duration"`
}

// NewReport creates a Report from analysis results.
func NewReport(result *analyzer.AnalysisResult, stats parser.ParseStats, configFile string) *Report {
	return &Report{
		Summary: result.Summary,
		Stats:   stats,
		Metadata: Metadata{
			ConfigFile: configFile,
			Sources:    result.Metadata.Sources,
			TimeRange:  result.Metadata.TimeRange,
			Senders:    result.Metadata.Senders,
			FirstDate:  result.Metadata.FirstDate,
			LastDate:   result.Metadata.LastDate,
			AnalyzedAt: result.Metadata.EndTime,
			Duration:   result.Metadata.EndTime.Sub(result.Metadata.StartTime),
		},
	}
}

// HasMessages returns true if any message was aggregated.
func (r *Report) HasMessages() bool {
	return r.Summary.Messages > 0
}
