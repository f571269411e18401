package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ccollicutt/chatsift/internal/logging"
	"github.com/ccollicutt/chatsift/pkg/output"
)

// ExportOptions holds command-line options for the export command.
type ExportOptions struct {
	Out   string
	Force bool
}

// NewExportCommand creates the export command.
func NewExportCommand() *cobra.Command {
	opts := &ExportOptions{}

	cmd := &cobra.Command{
		Use:   "export [export-file...]",
		Short: "Write parsed messages to CSV",
		Long: `Parse chat exports and write the message table as CSV.

Columns: Date, Time, Name, Message, Length of Message, Hour.
Date and Time are written as they appear in the export. Hour is empty when
the time could not be read.

Example:
  chatsift export chat.txt --out chat.csv
  chatsift export chat.txt --out - | head`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Out, "out", "", "CSV file to write, - for stdout (required)")
	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "Overwrite an existing file")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func runExport(cmd *cobra.Command, args []string, opts *ExportOptions) error {
	ctx := commandContext(cmd)

	if opts.Out != "-" && !opts.Force {
		if _, err := os.Stat(opts.Out); err == nil {
			return fmt.Errorf("output file already exists: %s (use --force to overwrite)", opts.Out)
		}
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	loaded, err := loadTable(ctx, args, cfg)
	if err != nil {
		return err
	}
	if loaded.Table.Empty() {
		noMessages(cmd, loaded.Files)
		return nil
	}

	var w io.Writer = cmd.OutOrStdout()
	if opts.Out != "-" {
		// #nosec G304 -- user-provided output path is expected
		f, err := os.Create(opts.Out)
		if err != nil {
			return fmt.Errorf("creating %s: %w", opts.Out, err)
		}
		defer f.Close()
		w = f
	}

	if err := output.WriteCSV(w, loaded.Table.Rows); err != nil {
		return fmt.Errorf("writing CSV: %w", err)
	}

	if opts.Out != "-" {
		logging.FromContext(ctx).Info("exported messages", "path", opts.Out, "rows", loaded.Table.Len())
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s messages to %s\n", humanize.Comma(int64(loaded.Table.Len())), opts.Out)
	}
	return nil
}
