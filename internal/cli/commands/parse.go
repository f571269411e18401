package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/chatsift/pkg/output"
	"github.com/ccollicutt/chatsift/pkg/table"
)

// ParseOptions holds command-line options for the parse command.
type ParseOptions struct {
	Output  string
	Limit   int
	Sender  string
	Verbose bool
}

// NewParseCommand creates the parse command.
func NewParseCommand() *cobra.Command {
	opts := &ParseOptions{}

	cmd := &cobra.Command{
		Use:   "parse [export-file...]",
		Short: "Parse chat exports and list the messages",
		Long: `Parse chat export files and print one record per message.

Continuation lines are joined to the message they belong to with a single
space. Lines before the first message header (banners, encryption notices)
are dropped. Several files are merged in timestamp order.

The text listing uses the "date, time - sender: body" form, which parses back
to the same fields.

Exit codes:
  0 - Messages parsed
  1 - No messages parsed
  2 - Configuration or runtime error

Example:
  chatsift parse chat.txt
  chatsift parse -o csv --limit 20 chat.txt
  chatsift parse -o json exports/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json|csv)")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0, "Print at most this many messages (0 for all)")
	cmd.Flags().StringVar(&opts.Sender, "sender", "", "Only list messages from this sender")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Prefix each message with its file and line")

	return cmd
}

func runParse(cmd *cobra.Command, args []string, opts *ParseOptions) error {
	ctx := commandContext(cmd)

	format, err := output.ParseMessageFormat(opts.Output)
	if err != nil {
		return err
	}
	color, err := colorMode()
	if err != nil {
		return err
	}
	if opts.Limit < 0 {
		return fmt.Errorf("invalid limit %d", opts.Limit)
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

	rows := loaded.Table.Rows
	if opts.Sender != "" {
		rows = loaded.Table.Filter(func(r *table.Row) bool { return r.Sender == opts.Sender }).Rows
	}
	if opts.Limit > 0 && len(rows) > opts.Limit {
		rows = rows[:opts.Limit]
	}

	w := output.NewMessageWriter(format, opts.Verbose, color)
	if err := w.Write(cmd.OutOrStdout(), rows); err != nil {
		return fmt.Errorf("writing messages: %w", err)
	}
	return nil
}
