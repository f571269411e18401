package commands

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/ccollicutt/chatsift/internal/logging"
	"github.com/ccollicutt/chatsift/pkg/config"
	"github.com/ccollicutt/chatsift/pkg/detector"
	"github.com/ccollicutt/chatsift/pkg/parser"
	"github.com/ccollicutt/chatsift/pkg/store"
)

// DiagnoseOptions holds options for the diagnose command
type DiagnoseOptions struct {
	Verbose bool
}

// Diagnostic statuses.
const (
	StatusOK      = "ok"
	StatusWarning = "warning"
	StatusError   = "error"
)

// DiagnosticResult represents the result of a single diagnostic check
type DiagnosticResult struct {
	Check    string
	Status   string // "ok", "warning", "error"
	Message  string
	Details  []string
	Suggests []string
}

// NewDiagnoseCommand creates the diagnose command
func NewDiagnoseCommand() *cobra.Command {
	opts := &DiagnoseOptions{}

	cmd := &cobra.Command{
		Use:   "diagnose [config-file]",
		Short: "Diagnose common configuration issues",
		Long: `Diagnose common configuration issues.

This command checks your configuration file for common problems:
- Config file syntax and values
- Input file existence and accessibility
- Header format coverage against the actual exports
- Configured date order against the dates in the exports
- Message store location
- Webhook settings

The config file defaults to the global --config flag.

Example:
  chatsift diagnose chatsift.yaml
  chatsift diagnose -v chatsift.yaml  # verbose output`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath := Globals.ConfigFile
			if len(args) == 1 {
				configPath = args[0]
			}
			if configPath == "" {
				return fmt.Errorf("config file required: pass it as an argument or with --config")
			}

			results := runDiagnose(commandContext(cmd), configPath, opts)
			if printDiagnostics(cmd.OutOrStdout(), results, opts) > 0 {
				ExitCode = ExitError
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show detailed diagnostic output")

	return cmd
}

func runDiagnose(ctx context.Context, configPath string, opts *DiagnoseOptions) []DiagnosticResult {
	results := []DiagnosticResult{}

	// 1. Check config file existence
	result := checkConfigExists(configPath)
	results = append(results, result)
	if result.Status == StatusError {
		return results
	}

	// 2. Parse config file
	cfg, result := checkConfigParseable(ctx, configPath)
	results = append(results, result)
	if result.Status == StatusError {
		return results
	}

	// 3. Check inputs
	inputResults, files := checkInputs(cfg)
	results = append(results, inputResults...)

	// 4. Check header formats and date order against the exports
	results = append(results, checkFormatCoverage(ctx, cfg, files, opts)...)

	// 5. Check the message store
	results = append(results, checkStore(ctx, cfg))

	// 6. Check webhooks configuration
	results = append(results, checkWebhooks(ctx, cfg, opts)...)

	return results
}

func checkConfigExists(path string) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Config File",
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		result.Status = StatusError
		result.Message = fmt.Sprintf("Config file not found: %s", path)
		result.Suggests = []string{
			"Check the file path is correct",
			"Use 'chatsift detect <export-file> --write-config chatsift.yaml' to generate a starter config",
		}
		return result
	}
	if err != nil {
		result.Status = StatusError
		result.Message = fmt.Sprintf("Cannot access config file: %v", err)
		result.Suggests = []string{"Check file permissions"}
		return result
	}
	if info.IsDir() {
		result.Status = StatusError
		result.Message = "Path is a directory, not a file"
		return result
	}
	if info.Size() == 0 {
		result.Status = StatusError
		result.Message = "Config file is empty"
		result.Suggests = []string{
			"Use 'chatsift detect <export-file> --write-config chatsift.yaml' to generate a starter config",
		}
		return result
	}

	result.Status = StatusOK
	result.Message = fmt.Sprintf("Found: %s (%s)", path, humanize.Bytes(uint64(info.Size())))
	return result
}

func checkConfigParseable(ctx context.Context, path string) (*config.Config, DiagnosticResult) {
	result := DiagnosticResult{
		Check: "Config Syntax",
	}

	cfg, err := config.Load(ctx, path)
	if err != nil {
		result.Status = StatusError
		result.Message = fmt.Sprintf("Failed to parse config: %v", err)
		switch {
		case strings.Contains(err.Error(), "yaml"):
			result.Suggests = []string{
				"Check YAML syntax - ensure proper indentation (use spaces, not tabs)",
			}
		case strings.Contains(err.Error(), "toml"):
			result.Suggests = []string{
				"Check TOML syntax - strings must be quoted, tables use [section] headers",
			}
		case strings.Contains(err.Error(), "formats"):
			result.Suggests = []string{
				"Custom formats need the named groups (?P<date>...), (?P<time>...), (?P<sender>...) and (?P<body>...)",
			}
		}
		return nil, result
	}

	result.Status = StatusOK
	result.Message = "Config file parsed successfully"
	result.Details = []string{
		fmt.Sprintf("Inputs: %d", len(cfg.Inputs)),
		fmt.Sprintf("Header formats: %d (%d custom)", len(cfg.Parser.AllFormats()), len(cfg.Parser.Formats)),
		fmt.Sprintf("Date order: %s", cfg.DateOrder()),
	}
	return cfg, result
}

// checkInputs reports on each input pattern and returns the readable files.
func checkInputs(cfg *config.Config) ([]DiagnosticResult, []string) {
	results := []DiagnosticResult{}

	if len(cfg.Inputs) == 0 {
		results = append(results, DiagnosticResult{
			Check:   "Inputs",
			Status:  StatusWarning,
			Message: "No inputs defined; exports must be passed on the command line",
			Suggests: []string{
				"Add an inputs section to your config",
				"Example: inputs:\n  - exports/*.txt",
			},
		})
		return results, nil
	}

	var files []string
	for _, input := range cfg.Inputs {
		result := DiagnosticResult{
			Check: fmt.Sprintf("Input: %s", input),
		}

		matched, err := parser.ExpandInputs([]string{input})
		if err != nil {
			result.Status = StatusError
			result.Message = fmt.Sprintf("Invalid glob pattern: %v", err)
			results = append(results, result)
			continue
		}

		var readable, empty, missing []string
		for _, f := range matched {
			info, err := os.Stat(f)
			switch {
			case err != nil:
				missing = append(missing, f)
			case info.IsDir():
				// directory without exports
				missing = append(missing, f)
			case info.Size() == 0:
				empty = append(empty, f)
			default:
				readable = append(readable, f)
			}
		}
		files = append(files, readable...)

		switch {
		case len(readable) == 0 && len(empty) == 0:
			result.Status = StatusError
			result.Message = "No export files found"
			result.Suggests = []string{
				"Check if the export path is correct",
				"Directories contribute their *.txt files",
			}
		case len(readable) == 0:
			result.Status = StatusWarning
			result.Message = fmt.Sprintf("%d file(s), all empty", len(empty))
		default:
			result.Status = StatusOK
			result.Message = fmt.Sprintf("Matches %d file(s)", len(readable))
			result.Details = append(result.Details, readable...)
			if len(empty) > 0 {
				result.Status = StatusWarning
				result.Message += fmt.Sprintf(", %d empty", len(empty))
			}
		}
		results = append(results, result)
	}

	if len(files) == 0 {
		results = append(results, DiagnosticResult{
			Check:   "Inputs Summary",
			Status:  StatusError,
			Message: "No readable export files found",
			Suggests: []string{
				"Ensure at least one export exists and is readable",
			},
		})
	}

	return results, files
}

// checkFormatCoverage samples the first readable export with the configured
// formats and compares the inferred date order with the configured one.
func checkFormatCoverage(ctx context.Context, cfg *config.Config, files []string, opts *DiagnoseOptions) []DiagnosticResult {
	if len(files) == 0 {
		return nil
	}

	exportFile := files[0]
	result := DiagnosticResult{
		Check: fmt.Sprintf("Format Test: %s", filepath.Base(exportFile)),
	}

	d := detector.New(
		detector.WithMaxLineSize(int(cfg.Parser.MaxLineSize)),
		detector.WithFormats(cfg.Parser.AllFormats()...),
	)
	det, err := d.DetectFromFile(ctx, exportFile)
	if err != nil {
		logging.FromContext(ctx).Warn("cannot sample export", "path", exportFile, "error", err)
		result.Status = StatusWarning
		result.Message = fmt.Sprintf("Cannot read file: %v", err)
		return []DiagnosticResult{result}
	}

	if !det.HasMatch() {
		result.Status = StatusError
		result.Message = "No header format matches any sampled line"
		result.Suggests = []string{
			"The export may come from an unsupported app or locale",
			"Add a custom pattern under parser.formats",
			"Use 'chatsift detect " + exportFile + "' to inspect the file",
		}
		return []DiagnosticResult{result}
	}

	best := det.BestMatch()
	switch {
	case best.Confidence < 0.5:
		result.Status = StatusWarning
		result.Message = fmt.Sprintf("Format %s matches only %d/%d sample lines", best.Format.ID(), best.MatchCount, det.SampledLines)
		result.Details = []string{"Long multi-line messages also lower this ratio"}
	default:
		result.Status = StatusOK
		result.Message = fmt.Sprintf("Format %s matches %d/%d sample lines", best.Format.ID(), best.MatchCount, det.SampledLines)
	}
	if opts.Verbose {
		result.Details = append(result.Details, "Sample match:", truncate(best.SampleLine, 80))
	}

	results := []DiagnosticResult{result}

	order := DiagnosticResult{Check: "Date Order"}
	configured := cfg.DateOrder()
	switch {
	case !det.DateOrderCertain:
		order.Status = StatusOK
		order.Message = fmt.Sprintf("Configured %s; sampled dates fit either order", configured)
	case det.DateOrder != configured:
		order.Status = StatusWarning
		order.Message = fmt.Sprintf("Configured %s but the export looks %s", configured, det.DateOrder)
		order.Details = []string{
			fmt.Sprintf("%d day-first and %d month-first dates sampled", det.Evidence.DayFirst, det.Evidence.MonthFirst),
		}
		order.Suggests = []string{fmt.Sprintf("Set dates.order: %s", det.DateOrder)}
	default:
		order.Status = StatusOK
		order.Message = fmt.Sprintf("Configured %s matches the export", configured)
	}
	if det.AmbiguityNote != "" && opts.Verbose {
		order.Details = append(order.Details, det.AmbiguityNote)
	}
	results = append(results, order)

	return results
}

func checkStore(ctx context.Context, cfg *config.Config) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Message Store",
	}

	path := cfg.Store.Path
	if _, err := os.Stat(path); os.IsNotExist(err) {
		result.Status = StatusOK
		result.Message = fmt.Sprintf("%s will be created on first import", path)
		return result
	}

	s, err := store.Open(path)
	if err != nil {
		result.Status = StatusError
		result.Message = fmt.Sprintf("Cannot open store: %v", err)
		result.Suggests = []string{"Check store.path points to a SQLite database chatsift created"}
		return result
	}
	defer s.Close()

	count, err := s.MessageCount(ctx)
	if err != nil {
		result.Status = StatusError
		result.Message = fmt.Sprintf("Cannot read store: %v", err)
		return result
	}

	result.Status = StatusOK
	result.Message = fmt.Sprintf("%s holds %s messages", path, humanize.Comma(int64(count)))
	return result
}

// printDiagnostics writes the report and returns the number of failed checks.
func printDiagnostics(out io.Writer, results []DiagnosticResult, opts *DiagnoseOptions) int {
	fmt.Fprintln(out, "=== chatsift Configuration Diagnostics ===")
	fmt.Fprintln(out)

	okCount := 0
	warnCount := 0
	errCount := 0

	for _, r := range results {
		var icon string
		switch r.Status {
		case StatusOK:
			icon = "PASS"
			okCount++
		case StatusWarning:
			icon = "WARN"
			warnCount++
		case StatusError:
			icon = "FAIL"
			errCount++
		}

		fmt.Fprintf(out, "[%s] %s\n", icon, r.Check)
		fmt.Fprintf(out, "    %s\n", r.Message)

		if opts.Verbose || r.Status != StatusOK {
			for _, d := range r.Details {
				fmt.Fprintf(out, "      - %s\n", d)
			}
		}

		for _, s := range r.Suggests {
			fmt.Fprintf(out, "      Hint: %s\n", s)
		}

		fmt.Fprintln(out)
	}

	fmt.Fprintln(out, "---")
	fmt.Fprintf(out, "Summary: %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

	if errCount > 0 {
		fmt.Fprintln(out, "\nFix the errors above before parsing.")
	} else if warnCount > 0 {
		fmt.Fprintln(out, "\nConfiguration is usable but has warnings.")
	} else {
		fmt.Fprintln(out, "\nConfiguration looks good!")
	}
	return errCount
}

func checkWebhooks(ctx context.Context, cfg *config.Config, opts *DiagnoseOptions) []DiagnosticResult {
	results := []DiagnosticResult{}

	if len(cfg.Webhooks) == 0 {
		// Webhooks are optional, just note they're not configured
		if opts.Verbose {
			results = append(results, DiagnosticResult{
				Check:   "Webhooks",
				Status:  StatusOK,
				Message: "No webhooks configured (optional)",
			})
		}
		return results
	}

	// URL and trigger were validated on load
	for _, wh := range cfg.Webhooks {
		name := wh.Name
		if name == "" {
			name = wh.URL
		}

		result := DiagnosticResult{
			Check:   fmt.Sprintf("Webhook: %s", name),
			Status:  StatusOK,
			Message: fmt.Sprintf("Trigger: %s", wh.Trigger),
		}

		if wh.Trigger == config.WebhookTriggerNever {
			result.Status = StatusWarning
			result.Message = "Trigger is never; this webhook is disabled"
		}

		if opts.Verbose {
			result.Details = []string{
				fmt.Sprintf("URL: %s", wh.URL),
				fmt.Sprintf("Timeout: %s", wh.TimeoutDuration()),
			}
			if wh.Token != "" {
				result.Details = append(result.Details, "Token: configured")
			}
		}

		results = append(results, result)
	}

	// Optionally test webhook connectivity
	if opts.Verbose {
		for _, wh := range cfg.Webhooks {
			name := wh.Name
			if name == "" {
				name = wh.URL
			}

			result := checkWebhookConnectivity(ctx, wh)
			result.Check = fmt.Sprintf("Webhook Connectivity: %s", name)
			results = append(results, result)
		}
	}

	return results
}

func checkWebhookConnectivity(ctx context.Context, wh config.WebhookConfig) DiagnosticResult {
	result := DiagnosticResult{}

	// Just do a HEAD request to check if the endpoint is reachable
	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, wh.URL, nil)
	if err != nil {
		result.Status = StatusWarning
		result.Message = fmt.Sprintf("Cannot create request: %v", err)
		return result
	}

	if wh.Token != "" {
		req.Header.Set("Authorization", "Bearer "+wh.Token)
	}

	resp, err := client.Do(req)
	if err != nil {
		result.Status = StatusWarning
		result.Message = fmt.Sprintf("Cannot connect: %v", err)
		result.Suggests = []string{
			"Check if the webhook URL is correct",
			"Verify network connectivity",
		}
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		result.Status = StatusOK
		result.Message = fmt.Sprintf("Reachable (status %d)", resp.StatusCode)
	} else {
		result.Status = StatusWarning
		result.Message = fmt.Sprintf("Reachable but returned status %d", resp.StatusCode)
		result.Suggests = []string{
			"The endpoint may require POST method (will work during actual webhook send)",
			"Check authentication if using a token",
		}
	}

	return result
}

func truncate(s string, maxWidth int) string {
	return runewidth.Truncate(s, maxWidth, "...")
}
