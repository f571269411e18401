package commands

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ccollicutt/chatsift/internal/logging"
	"github.com/ccollicutt/chatsift/pkg/store"
)

// ImportOptions holds command-line options for the import command.
type ImportOptions struct {
	DB   string
	List bool
}

// NewImportCommand creates the import command.
func NewImportCommand() *cobra.Command {
	opts := &ImportOptions{}

	cmd := &cobra.Command{
		Use:   "import [export-file...]",
		Short: "Store parsed messages in a searchable database",
		Long: `Parse chat exports and store each file as one import in a SQLite
database with a full-text index over message bodies.

Importing the same file twice stores it twice.

Example:
  chatsift import chat.txt
  chatsift import --db ./chats.db exports/
  chatsift import --list`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "Database path (default from config store.path)")
	cmd.Flags().BoolVar(&opts.List, "list", false, "List stored imports instead of importing")

	return cmd
}

func runImport(cmd *cobra.Command, args []string, opts *ImportOptions) error {
	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

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

	if opts.List {
		imports, err := s.Imports(ctx)
		if err != nil {
			return fmt.Errorf("listing imports: %w", err)
		}
		if len(imports) == 0 {
			fmt.Fprintf(out, "No imports in %s\n", dbPath)
			return nil
		}
		for _, imp := range imports {
			fmt.Fprintf(out, "%s  %s  %8s messages  %s\n",
				imp.ID, imp.ImportedAt.Local().Format("2006-01-02 15:04"), humanize.Comma(int64(imp.Messages)), imp.Source)
		}
		return nil
	}

	files, err := resolveInputs(args, cfg)
	if err != nil {
		return err
	}

	total := 0
	for _, file := range files {
		loaded, err := loadTable(ctx, []string{file}, cfg)
		if err != nil {
			return err
		}
		if loaded.Table.Empty() {
			logging.FromContext(ctx).Warn("skipping export without messages", "path", file)
			continue
		}

		imp, err := s.SaveTable(ctx, file, loaded.Table)
		if err != nil {
			return fmt.Errorf("storing %s: %w", file, err)
		}
		total += imp.Messages
		logging.FromContext(ctx).Debug("stored import", "id", imp.ID, "path", file, "messages", imp.Messages)
		fmt.Fprintf(out, "Imported %s messages from %s (%s)\n", humanize.Comma(int64(imp.Messages)), file, imp.ID)
	}

	if total == 0 {
		noMessages(cmd, files)
		return nil
	}

	count, err := s.MessageCount(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Database %s now holds %s messages\n", dbPath, humanize.Comma(int64(count)))
	return nil
}
