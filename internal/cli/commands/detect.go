package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/chatsift/pkg/detector"
	"github.com/ccollicutt/chatsift/pkg/parser"
)

// DetectOptions holds command-line options for the detect command.
type DetectOptions struct {
	Output      string
	SampleSize  int
	ShowAll     bool
	WriteConfig string
}

// NewDetectCommand creates the detect command.
func NewDetectCommand() *cobra.Command {
	opts := &DetectOptions{}

	cmd := &cobra.Command{
		Use:   "detect <export-file>",
		Short: "Detect the export dialect and date order of a chat export",
		Long: `Analyze a chat export to detect its header dialect and date order.

Samples lines from the file and tests them against the known header formats
(and any custom formats in the config). Reports the best format with a
confidence score, the clock notation, and whether dates are day-first or
month-first.

Optionally generates a starter config file with --write-config.

Supports:
  - Bracketed exports: [01/02/2023, 10:15:00 AM] Bob: hello
  - Dash exports:      01/02/2023, 10:15 AM - Bob: hello

Example:
  chatsift detect chat.txt
  chatsift detect --sample 500 chat.txt
  chatsift detect -w chatsift.yaml chat.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetect(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().IntVarP(&opts.SampleSize, "sample", "n", detector.DefaultSampleSize, "Number of non-empty lines to sample")
	cmd.Flags().BoolVar(&opts.ShowAll, "all", false, "Show all detected formats, not just the best match")
	cmd.Flags().StringVarP(&opts.WriteConfig, "write-config", "w", "", "Write starter config to file (will not overwrite)")

	return cmd
}

func runDetect(cmd *cobra.Command, args []string, opts *DetectOptions) error {
	exportFile := args[0]
	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	if opts.Output != "text" && opts.Output != "json" {
		return fmt.Errorf("unknown output format %q (use text or json)", opts.Output)
	}

	if _, err := os.Stat(exportFile); os.IsNotExist(err) {
		return fmt.Errorf("export file not found: %s", exportFile)
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	d := detector.New(
		detector.WithSampleSize(opts.SampleSize),
		detector.WithMaxLineSize(int(cfg.Parser.MaxLineSize)),
		detector.WithFormats(cfg.Parser.AllFormats()...),
	)

	result, err := d.DetectFromFile(ctx, exportFile)
	if err != nil {
		return fmt.Errorf("detection failed: %w", err)
	}

	if opts.WriteConfig != "" {
		if err := writeStarterConfig(out, result, exportFile, opts.WriteConfig); err != nil {
			return err
		}
	}

	if !result.HasMatch() {
		ExitCode = ExitNoMessages
	}

	if opts.Output == "json" {
		return outputDetectJSON(out, result, exportFile, opts)
	}
	outputDetectText(out, result, exportFile, opts)
	return nil
}

func outputDetectText(out io.Writer, result *detector.DetectionResult, exportFile string, opts *DetectOptions) {
	fmt.Fprintln(out, "=== Export Format Detection ===")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "File: %s\n", exportFile)
	fmt.Fprintf(out, "Lines sampled: %d\n", result.SampledLines)
	fmt.Fprintf(out, "Message headers: %d\n", result.ParsedLines)
	fmt.Fprintln(out)

	if !result.HasMatch() {
		fmt.Fprintln(out, "No export format detected.")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Tip: The file may come from an unsupported app or locale.")
		fmt.Fprintln(out, "Add a custom header pattern under parser.formats in the config.")
		return
	}

	best := result.BestMatch()
	fmt.Fprintf(out, "Detected Format: %s\n", best.Format.ID())
	fmt.Fprintf(out, "Confidence: %.1f%% (%d/%d lines matched)\n",
		best.Confidence*100, best.MatchCount, result.SampledLines)
	fmt.Fprintf(out, "Clock: %s\n", result.Clock)
	certainty := "inferred"
	if !result.DateOrderCertain {
		certainty = "assumed"
	}
	fmt.Fprintf(out, "Date order: %s (%s; %d day-first, %d month-first dates)\n",
		result.DateOrder, certainty, result.Evidence.DayFirst, result.Evidence.MonthFirst)
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Sample match:\n  %s\n", best.SampleLine)
	fmt.Fprintf(out, "Parsed as: date=%q time=%q sender=%q\n", best.Sample.Date, best.Sample.Time, best.Sample.Sender)
	fmt.Fprintln(out)

	if result.AmbiguityNote != "" {
		fmt.Fprintf(out, "Note: %s\n", result.AmbiguityNote)
		fmt.Fprintln(out)
	}

	fmt.Fprintln(out, "--- Configuration snippet (copy to your config file) ---")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "dates:")
	fmt.Fprintf(out, "  order: %s\n", result.DateOrder)
	if best.Format.Kind == parser.KindCustom {
		fmt.Fprintln(out, "parser:")
		fmt.Fprintln(out, "  formats:")
		fmt.Fprintf(out, "    - name: %s\n", best.Format.ID())
		fmt.Fprintf(out, "      pattern: %s\n", yamlQuote(best.Format.PatternStr))
	}
	fmt.Fprintln(out)

	if opts.ShowAll && len(result.Matches) > 1 {
		fmt.Fprintln(out, "--- Alternative formats detected ---")
		for i, m := range result.Matches[1:] {
			fmt.Fprintf(out, "%d. %s (%.1f%% confidence)\n", i+2, m.Format.ID(), m.Confidence*100)
			fmt.Fprintf(out, "   pattern: %s\n", yamlQuote(m.Format.PatternStr))
		}
		fmt.Fprintln(out)
	}
}

// JSONMatch represents a format match in JSON output.
type JSONMatch struct {
	Name       string  `json:"name"`
	Kind       string  `json:"kind"`
	Pattern    string  `json:"pattern"`
	Confidence float64 `json:"confidence"`
	MatchCount int     `json:"match_count"`
	SampleLine string  `json:"sample_line"`
}

// JSONOutput represents the full JSON output.
type JSONOutput struct {
	File             string                 `json:"file"`
	Matches          []JSONMatch            `json:"matches"`
	SampledLines     int                    `json:"sampled_lines"`
	ParsedLines      int                    `json:"parsed_lines"`
	DateOrder        string                 `json:"date_order,omitempty"`
	DateOrderCertain bool                   `json:"date_order_certain"`
	Evidence         detector.OrderEvidence `json:"evidence"`
	Clock            string                 `json:"clock,omitempty"`
	AmbiguityNote    string                 `json:"ambiguity_note,omitempty"`
}

func outputDetectJSON(out io.Writer, result *detector.DetectionResult, exportFile string, opts *DetectOptions) error {
	output := JSONOutput{
		File:             exportFile,
		SampledLines:     result.SampledLines,
		ParsedLines:      result.ParsedLines,
		DateOrder:        string(result.DateOrder),
		DateOrderCertain: result.DateOrderCertain,
		Evidence:         result.Evidence,
		Clock:            string(result.Clock),
		AmbiguityNote:    result.AmbiguityNote,
		Matches:          make([]JSONMatch, 0),
	}

	matches := result.Matches
	if !opts.ShowAll && len(matches) > 1 {
		matches = matches[:1] // Only show best match
	}

	for _, m := range matches {
		output.Matches = append(output.Matches, JSONMatch{
			Name:       m.Format.ID(),
			Kind:       string(m.Format.Kind),
			Pattern:    m.Format.PatternStr,
			Confidence: m.Confidence,
			MatchCount: m.MatchCount,
			SampleLine: m.SampleLine,
		})
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

// writeStarterConfig generates a starter config file from the detection.
func writeStarterConfig(out io.Writer, result *detector.DetectionResult, exportFile, configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s (will not overwrite)", configPath)
	}

	if !result.HasMatch() {
		return fmt.Errorf("cannot generate config: no export format detected")
	}

	content := generateStarterConfig(exportFile, result)

	// #nosec G306 - config file doesn't need restrictive permissions
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(out, "Wrote starter config to: %s\n\n", configPath)
	return nil
}

// generateStarterConfig creates a YAML config template.
func generateStarterConfig(exportFile string, result *detector.DetectionResult) string {
	best := result.BestMatch()

	absExport := exportFile
	if abs, err := filepath.Abs(exportFile); err == nil {
		absExport = abs
	}

	formats := `  # Extra header patterns, tried after the built-in dialects.
  # formats:
  #   - name: iso-dates
  #     pattern: '^(?P<date>\d{4}-\d{2}-\d{2}) (?P<time>\d{2}:\d{2}) (?P<sender>[^:]+): (?P<body>.*)$'
`
	if best.Format.Kind == parser.KindCustom {
		formats = fmt.Sprintf("  formats:\n    - name: %s\n      pattern: %s\n",
			yamlQuote(best.Format.ID()), yamlQuote(best.Format.PatternStr))
	}

	orderNote := "inferred from the sample"
	if !result.DateOrderCertain {
		orderNote = "assumed; no day or month above 12 was sampled"
	}

	return fmt.Sprintf(`# chatsift configuration
# Generated by: chatsift detect
# Detected format: %s (%.0f%% confidence)

inputs:
  - %s
  # Add more exports or use globs and directories:
  # - exports/*.txt

parser:
  # leading-only or both
  trim: leading-only
  # space (an empty line still adds a space) or skip
  empty_continuation: space
  max_line_size: 1MiB
%s
dates:
  # %s
  order: %s

stats:
  top: 5
  words_per_sender: 5
  min_word_length: 3
  # stop_words: [lol, haha]

# store:
#   path: ./chatsift.db

# webhooks:
#   - name: team-chat
#     url: https://example.com/hooks/chatsift
#     token: ${CHATSIFT_WEBHOOK_TOKEN}
#     trigger: on_messages
#     timeout: 10s
`, best.Format.ID(), best.Confidence*100,
		yamlQuote(absExport),
		formats,
		orderNote, result.DateOrder)
}

// yamlQuote single-quotes s for YAML.
func yamlQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
