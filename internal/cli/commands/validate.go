package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/chatsift/pkg/config"
	"github.com/ccollicutt/chatsift/pkg/parser"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file",
		Long: `Validate a chatsift configuration file without parsing any export.

Checks:
  - YAML or TOML syntax
  - Trim, empty continuation and date order values
  - Custom header formats (regex validity, required named groups)
  - Webhook URLs and triggers
  - Input file existence (warning only)`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath := args[0]
	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Validating %s...\n", configPath)

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Fprintf(out, "\nConfiguration valid!\n")
	fmt.Fprintf(out, "  Inputs:             %d pattern(s)\n", len(cfg.Inputs))
	fmt.Fprintf(out, "  Trim:               %s\n", cfg.Parser.Trim)
	fmt.Fprintf(out, "  Empty continuation: %s\n", cfg.Parser.EmptyContinuation)
	fmt.Fprintf(out, "  Max line size:      %s\n", cfg.Parser.MaxLineSize)
	fmt.Fprintf(out, "  Date order:         %s\n", cfg.DateOrder())
	fmt.Fprintf(out, "  Store:              %s\n", cfg.Store.Path)
	fmt.Fprintf(out, "  Webhooks:           %d\n", len(cfg.Webhooks))

	fmt.Fprintf(out, "\nHeader formats (in priority order):\n")
	for i, f := range cfg.Parser.AllFormats() {
		fmt.Fprintf(out, "  %d. [%s] %s\n", i+1, f.Kind, f.ID())
	}

	if len(cfg.Inputs) == 0 {
		return nil
	}

	// Check if inputs exist (warnings only)
	files, err := parser.ExpandInputs(cfg.Inputs)
	if err != nil {
		fmt.Fprintf(out, "\nWarning: Error expanding input patterns: %v\n", err)
	} else if len(files) == 0 {
		fmt.Fprintf(out, "\nWarning: No files match input patterns\n")
	} else {
		fmt.Fprintf(out, "\nExport files matched: %d\n", len(files))
		for _, f := range files {
			fmt.Fprintf(out, "  - %s\n", f)
		}
	}

	return nil
}
