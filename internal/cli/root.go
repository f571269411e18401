// Package cli provides the command-line interface for chatsift.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/chatsift/internal/cli/commands"
	"github.com/ccollicutt/chatsift/internal/cli/plugins"
	"github.com/ccollicutt/chatsift/internal/logging"
	"github.com/ccollicutt/chatsift/pkg/config"
)

// Execute runs the root command and returns the exit code.
func Execute() int {
	rootCmd := NewRootCommand()
	ctx := context.Background()

	// Check if the first argument might be a plugin command
	if len(os.Args) > 1 {
		potentialCommand := os.Args[1]
		// Skip flags (start with -)
		if len(potentialCommand) > 0 && potentialCommand[0] != '-' {
			if !isBuiltinCommand(rootCmd, potentialCommand) {
				if pluginPath, err := plugins.FindPlugin(potentialCommand); err == nil {
					return plugins.Execute(ctx, pluginPath, os.Args[2:], pluginEnvironment(ctx))
				}
				// Plugin not found - will fall through to Cobra which will show error
			}
		}
	}

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// Check if this was an unknown command that could be a plugin
		if len(os.Args) > 1 {
			potentialCommand := os.Args[1]
			if len(potentialCommand) > 0 && potentialCommand[0] != '-' {
				if !isBuiltinCommand(rootCmd, potentialCommand) {
					_, _ = fmt.Fprintln(os.Stderr, plugins.FormatNotFoundError(potentialCommand))
					return commands.ExitError
				}
			}
		}
		// Print error to stderr (SilenceErrors prevents Cobra from doing this)
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return commands.ExitError
	}
	return commands.ExitCode
}

// pluginEnvironment hands the default store path to plugins. Flags are not
// parsed before plugin dispatch, so only the environment can set it.
func pluginEnvironment(ctx context.Context) []string {
	cfg, err := config.LoadOrDefault(ctx, os.Getenv(plugins.EnvConfig))
	if err != nil {
		return nil
	}
	return plugins.Environment(os.Getenv(plugins.EnvConfig), cfg.Store.Path)
}

// isBuiltinCommand checks if a command name is a built-in cobra command.
func isBuiltinCommand(rootCmd *cobra.Command, name string) bool {
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == name || cmd.HasAlias(name) {
			return true
		}
	}
	// Also check for special commands like help and completion
	return name == "help" || name == "completion"
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	// Reset per-run state so the command tree can be built more than once.
	commands.ExitCode = commands.ExitOK
	globals := commands.Globals

	rootCmd := &cobra.Command{
		Use:   "chatsift",
		Short: "Parse and analyze chat exports",
		Long: `chatsift turns chat app text exports into structured messages.

It reads WhatsApp-style exports in either dialect:
  [01/02/2023, 10:15:00 AM] Bob: hello
  01/02/2023, 10:15 AM - Bob: hello

and joins multi-line messages, drops banner lines and cleans locale noise
(byte order marks, direction marks, narrow no-break spaces).

Then it can:
  - List or export the messages (text, JSON, CSV)
  - Compute per-sender, daily, hourly, length and word statistics
  - Store exports in a local SQLite database with full-text search
  - Notify webhooks with the statistics report

EXIT CODES:
  0  Success
  1  No messages found
  2  Error

PLUGINS:
  chatsift supports plugins for extended functionality. Plugins are standalone
  binaries named chatsift-<command> that are automatically discovered and invoked.

  Plugin locations (searched in order):
    1. Same directory as the chatsift binary
    2. ~/.chatsift/plugins/ (or $CHATSIFT_PLUGIN_DIR)
    3. Anywhere in PATH`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logging.Setup(globals.LogLevel, globals.LogFormat, cmd.ErrOrStderr())
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&globals.ConfigFile, "config", "c", "", "Config file (YAML, or TOML with a .toml extension)")
	flags.StringVar(&globals.LogLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	flags.StringVar(&globals.LogFormat, "log-format", "text", "Log format: text, json")
	flags.StringVar(&globals.Color, "color", "auto", "Color output: auto, always, never")

	// Add subcommands
	rootCmd.AddCommand(commands.NewParseCommand())
	rootCmd.AddCommand(commands.NewStatsCommand())
	rootCmd.AddCommand(commands.NewExportCommand())
	rootCmd.AddCommand(commands.NewImportCommand())
	rootCmd.AddCommand(commands.NewSearchCommand())
	rootCmd.AddCommand(commands.NewDetectCommand())
	rootCmd.AddCommand(commands.NewDiagnoseCommand())
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}
