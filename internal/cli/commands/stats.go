package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/chatsift/internal/logging"
	"github.com/ccollicutt/chatsift/pkg/analyzer"
	"github.com/ccollicutt/chatsift/pkg/config"
	"github.com/ccollicutt/chatsift/pkg/output"
	"github.com/ccollicutt/chatsift/pkg/store"
	"github.com/ccollicutt/chatsift/pkg/webhook"
)

// dateFlagLayout is the layout of --since and --until.
const dateFlagLayout = "2006-01-02"

// StatsOptions holds command-line options for the stats command.
type StatsOptions struct {
	Output  string
	Verbose bool
	Quiet   bool
	Top     int
	Words   int
	Senders []string
	Since   string
	Until   string
	Engines []string

	// Stored import options
	ImportID string
	DB       string

	// Webhook options
	WebhookURL     string
	WebhookToken   string
	WebhookTrigger string
}

// NewStatsCommand creates the stats command.
func NewStatsCommand() *cobra.Command {
	opts := &StatsOptions{}

	cmd := &cobra.Command{
		Use:   "stats [export-file...]",
		Short: "Summarize chat activity",
		Long: `Parse chat exports and report activity statistics.

Reports:
  - Top senders by message count
  - Average message length per sender
  - Messages per hour of day and the peak hour
  - Most used words of the top senders
  - Messages per day (verbose)

Dates are read day-first unless dates.order in the config says otherwise.
With --import, a table stored by "chatsift import" is analyzed instead.

Exit codes:
  0 - Report written
  1 - No messages parsed
  2 - Configuration or runtime error

Example:
  chatsift stats chat.txt
  chatsift stats --top 3 --since 2024-01-01 exports/*.txt
  chatsift stats -o json -q chat.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Add daily activity and parse statistics")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Summary only, no details")
	cmd.Flags().IntVar(&opts.Top, "top", 0, "Number of top senders (default from config)")
	cmd.Flags().IntVar(&opts.Words, "words", 0, "Top words per sender (default from config)")
	cmd.Flags().StringSliceVar(&opts.Senders, "sender", nil, "Only count messages from these senders (can be repeated)")
	cmd.Flags().StringVar(&opts.Since, "since", "", "Only count messages on or after this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.Until, "until", "", "Only count messages on or before this date (YYYY-MM-DD)")
	cmd.Flags().StringSliceVar(&opts.Engines, "engine", nil, "Run specific sections only: senders, daily, length, hourly, words")
	cmd.Flags().StringVar(&opts.ImportID, "import", "", "Analyze a stored import instead of export files")
	cmd.Flags().StringVar(&opts.DB, "db", "", "Database path for --import (default from config store.path)")

	// Webhook flags
	cmd.Flags().StringVar(&opts.WebhookURL, "webhook-url", "", "Webhook endpoint URL")
	cmd.Flags().StringVar(&opts.WebhookToken, "webhook-token", "", "Bearer token for webhook auth")
	cmd.Flags().StringVar(&opts.WebhookTrigger, "webhook-trigger", string(config.WebhookTriggerOnMessages), "When to fire webhook (on_messages|always|never)")

	return cmd
}

func runStats(cmd *cobra.Command, args []string, opts *StatsOptions) error {
	ctx := commandContext(cmd)

	formatter, err := createFormatter(opts)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	hooks, err := collectWebhooks(cfg, opts)
	if err != nil {
		return err
	}

	analyzerOpts, err := buildAnalyzerOptions(cfg, opts)
	if err != nil {
		return err
	}
	a, err := analyzer.NewAnalyzer(analyzerOpts...)
	if err != nil {
		return fmt.Errorf("creating analyzer: %w", err)
	}

	var loaded *loadedTable
	if opts.ImportID != "" {
		loaded, err = loadStoredTable(ctx, cfg, opts)
	} else {
		loaded, err = loadTable(ctx, args, cfg)
	}
	if err != nil {
		return err
	}

	result, err := a.Analyze(ctx, loaded.Table)
	if errors.Is(err, analyzer.ErrNoMessages) || errors.Is(err, analyzer.ErrNoMatchingRows) {
		if errors.Is(err, analyzer.ErrNoMatchingRows) {
			fmt.Fprintf(cmd.ErrOrStderr(), "%v (%d parsed)\n", err, loaded.Table.Len())
			ExitCode = ExitNoMessages
		} else {
			noMessages(cmd, loaded.Files)
		}
		empty := &output.Report{Stats: loaded.Stats, Metadata: output.Metadata{
			ConfigFile: Globals.ConfigFile,
			Sources:    loaded.Files,
			DateOrder:  cfg.DateOrder(),
			AnalyzedAt: time.Now(),
		}}
		sendWebhooks(ctx, hooks, empty)
		return nil
	}
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	report := output.NewReport(result, loaded.Stats, Globals.ConfigFile)
	report.Metadata.DateOrder = cfg.DateOrder()

	if err := formatter.Format(ctx, report, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	// Send webhooks (errors logged but don't fail the command)
	sendWebhooks(ctx, hooks, report)

	return nil
}

// loadStoredTable reads a stored import back as a table.
func loadStoredTable(ctx context.Context, cfg *config.Config, opts *StatsOptions) (*loadedTable, error) {
	dbPath := opts.DB
	if dbPath == "" {
		dbPath = cfg.Store.Path
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	tbl, err := s.LoadTable(ctx, opts.ImportID)
	if err != nil {
		return nil, err
	}
	return &loadedTable{Table: tbl, Files: []string{dbPath + "#" + opts.ImportID}}, nil
}

func createFormatter(opts *StatsOptions) (output.Formatter, error) {
	color, err := colorMode()
	if err != nil {
		return nil, err
	}
	return output.NewFormatter(opts.Output, output.FormatOptions{
		Verbose: opts.Verbose,
		Quiet:   opts.Quiet,
		Color:   color,
	})
}

// buildAnalyzerOptions layers the command flags over the config defaults.
func buildAnalyzerOptions(cfg *config.Config, opts *StatsOptions) ([]analyzer.AnalyzerOption, error) {
	analyzerOpts := cfg.AnalyzerOptions()

	if opts.Top < 0 || opts.Words < 0 {
		return nil, errors.New("--top and --words must not be negative")
	}
	if opts.Top > 0 {
		analyzerOpts = append(analyzerOpts, analyzer.WithTopN(opts.Top))
	}
	if opts.Words > 0 {
		analyzerOpts = append(analyzerOpts, analyzer.WithWordsPerSender(opts.Words))
	}

	since, err := parseDateFlag("since", opts.Since)
	if err != nil {
		return nil, err
	}
	until, err := parseDateFlag("until", opts.Until)
	if err != nil {
		return nil, err
	}
	if !since.IsZero() && !until.IsZero() && until.Before(since) {
		return nil, fmt.Errorf("--until %s is before --since %s", opts.Until, opts.Since)
	}
	if !since.IsZero() || !until.IsZero() {
		analyzerOpts = append(analyzerOpts, analyzer.WithTimeRange(since, until))
	}

	if len(opts.Senders) > 0 {
		analyzerOpts = append(analyzerOpts, analyzer.WithSenderFilter(opts.Senders))
	}
	if len(opts.Engines) > 0 {
		analyzerOpts = append(analyzerOpts, analyzer.WithEngines(opts.Engines))
	}

	return analyzerOpts, nil
}

func parseDateFlag(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateFlagLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s %q (use YYYY-MM-DD)", name, value)
	}
	return t, nil
}

// collectWebhooks merges config file webhooks with the CLI webhook.
func collectWebhooks(cfg *config.Config, opts *StatsOptions) ([]config.WebhookConfig, error) {
	webhooks := make([]config.WebhookConfig, 0, len(cfg.Webhooks)+1)
	webhooks = append(webhooks, cfg.Webhooks...)

	if opts.WebhookURL != "" {
		trigger := config.WebhookTrigger(opts.WebhookTrigger)
		switch trigger {
		case "":
			trigger = config.WebhookTriggerOnMessages
		case config.WebhookTriggerOnMessages, config.WebhookTriggerAlways, config.WebhookTriggerNever:
		default:
			return nil, fmt.Errorf("invalid --webhook-trigger %q (must be on_messages, always, or never)", opts.WebhookTrigger)
		}

		webhooks = append(webhooks, config.WebhookConfig{
			Name:    "cli",
			URL:     opts.WebhookURL,
			Token:   opts.WebhookToken,
			Trigger: trigger,
			Timeout: config.Duration(config.DefaultWebhookTimeout),
		})
	}

	return webhooks, nil
}

// sendWebhooks sends the report to all configured webhooks.
func sendWebhooks(ctx context.Context, hooks []config.WebhookConfig, report *output.Report) {
	if len(hooks) == 0 {
		return
	}
	webhook.NewClient().Notify(ctx, hooks, report, logging.FromContext(ctx))
}
