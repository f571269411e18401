package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/chatsift/internal/logging"
	"github.com/ccollicutt/chatsift/pkg/config"
	"github.com/ccollicutt/chatsift/pkg/output"
	"github.com/ccollicutt/chatsift/pkg/parser"
	"github.com/ccollicutt/chatsift/pkg/table"
)

// Exit codes.
const (
	ExitOK         = 0
	ExitNoMessages = 1
	ExitError      = 2
)

// ExitCode is set by commands to indicate the result
var ExitCode = ExitOK

// GlobalOptions holds the persistent flags shared by every command.
type GlobalOptions struct {
	ConfigFile string
	LogLevel   string
	LogFormat  string
	Color      string
}

// Globals is bound to the root command's persistent flags.
var Globals = &GlobalOptions{Color: string(output.ColorAuto)}

// commandContext returns the command's context tagged with a run ID.
func commandContext(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if logging.RunID(ctx) == "" {
		ctx = logging.WithRunID(ctx)
	}
	return ctx
}

// colorMode validates the --color flag.
func colorMode() (output.ColorMode, error) {
	return output.ParseColorMode(Globals.Color)
}

// loadConfig loads --config, or the defaults when it is unset.
func loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(ctx, Globals.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// resolveInputs expands the command arguments, falling back to the config's
// inputs when none were given.
func resolveInputs(args []string, cfg *config.Config) ([]string, error) {
	patterns := args
	if len(patterns) == 0 {
		patterns = cfg.Inputs
	}
	if len(patterns) == 0 {
		return nil, fmt.Errorf("%w: pass export files or set inputs in the config", parser.ErrNoInput)
	}

	files, err := parser.ExpandInputs(patterns)
	if err != nil {
		return nil, fmt.Errorf("expanding inputs: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files matched %v", parser.ErrNoInput, patterns)
	}
	return files, nil
}

// openSource opens the inputs as one message stream. Several exports are
// merged chronologically, each with its own accumulator.
func openSource(files []string, cfg *config.Config) parser.MessageSource {
	opts := cfg.ParserOptions()
	if len(files) == 1 {
		return parser.NewFileSource(files, opts...)
	}
	sources := make([]parser.MessageSource, len(files))
	for i, file := range files {
		sources[i] = parser.NewFileSource([]string{file}, opts...)
	}
	return parser.NewMergedSource(cfg.DateOrder(), sources...)
}

// loadedTable is the parsed form of the selected inputs.
type loadedTable struct {
	Table *table.Table
	Stats parser.ParseStats
	Files []string
}

// loadTable parses every input into a table and logs per-run statistics.
func loadTable(ctx context.Context, args []string, cfg *config.Config) (*loadedTable, error) {
	files, err := resolveInputs(args, cfg)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	src := openSource(files, cfg)
	defer src.Close()

	tbl, err := table.FromSource(ctx, src, cfg.DateOrder())
	if err != nil {
		return nil, fmt.Errorf("parsing exports: %w", err)
	}
	stats := src.Stats()

	logging.FromContext(ctx).Debug("parsed exports",
		"files", len(files),
		"messages", tbl.Len(),
		"lines", stats.Lines,
		"dropped", stats.Dropped,
		"duration", time.Since(start))

	return &loadedTable{Table: tbl, Stats: stats, Files: files}, nil
}

// noMessages reports an empty parse result the same way for every command.
func noMessages(cmd *cobra.Command, files []string) {
	fmt.Fprintf(cmd.ErrOrStderr(), "%v in %d file(s); check that the export format is supported (try: chatsift detect)\n",
		parser.ErrNoMessages, len(files))
	ExitCode = ExitNoMessages
}
