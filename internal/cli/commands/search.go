package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/chatsift/pkg/output"
	"github.com/ccollicutt/chatsift/pkg/store"
)

// SearchOptions holds command-line options for the search command.
type SearchOptions struct {
	DB       string
	Output   string
	Sender   string
	ImportID string
	Limit    int
}

// NewSearchCommand creates the search command.
func NewSearchCommand() *cobra.Command {
	opts := &SearchOptions{}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search over imported messages",
		Long: `Search message bodies stored by "chatsift import".

All words of the query must appear in a message. Results are ranked by
relevance and printed tab-separated: import id, file:line, date and time,
sender, snippet.

Exit codes:
  0 - Results found
  1 - No results
  2 - Configuration or runtime error

Example:
  chatsift search lunch
  chatsift search "see you" --sender Bob --limit 5`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "Database path (default from config store.path)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().StringVar(&opts.Sender, "sender", "", "Only match messages from this sender")
	cmd.Flags().StringVar(&opts.ImportID, "import", "", "Only search this import")
	cmd.Flags().IntVar(&opts.Limit, "limit", store.DefaultSearchLimit, "Max results")

	return cmd
}

func runSearch(cmd *cobra.Command, args []string, opts *SearchOptions) error {
	ctx := commandContext(cmd)

	format, err := output.ParseMessageFormat(opts.Output)
	if err != nil {
		return err
	}
	color, err := colorMode()
	if err != nil {
		return err
	}
	sw, err := output.NewSearchWriter(format, color)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	dbPath := opts.DB
	if dbPath == "" {
		dbPath = cfg.Store.Path
	}

	s, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer s.Close()

	results, err := s.Search(ctx, store.SearchOptions{
		Query:    strings.Join(args, " "),
		Sender:   opts.Sender,
		ImportID: opts.ImportID,
		Limit:    opts.Limit,
	})
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "No results found.")
		ExitCode = ExitNoMessages
		if format == output.MessagesJSON {
			return sw.Write(cmd.OutOrStdout(), nil)
		}
		return nil
	}

	return sw.Write(cmd.OutOrStdout(), results)
}
