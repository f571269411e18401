package commands

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nalgeon/be"
	"github.com/spf13/cobra"

	"github.com/ccollicutt/chatsift/pkg/output"
	"github.com/ccollicutt/chatsift/pkg/webhook"
)

const testExport = `Messages and calls are end-to-end encrypted.
[15/01/2024, 09:00:00] Alice: good morning everyone
[15/01/2024, 09:05:00] Bob: morning! lunch today?
[15/01/2024, 12:30:00] Alice: lunch at noon
sounds good to me
[16/01/2024, 18:45:00] Carol: see you tomorrow
`

// resetState isolates the package-level flags, exit code and store path.
func resetState(t *testing.T) string {
	t.Helper()
	saved := *Globals
	*Globals = GlobalOptions{Color: string(output.ColorNever)}
	ExitCode = ExitOK
	t.Cleanup(func() {
		*Globals = saved
		ExitCode = ExitOK
	})

	dir := t.TempDir()
	t.Setenv("CHATSIFT_DB", filepath.Join(dir, "chatsift.db"))
	t.Setenv("CHATSIFT_TRIM", "")
	t.Setenv("CHATSIFT_DATE_ORDER", "")
	t.Setenv("CHATSIFT_EMPTY_CONTINUATION", "")
	return dir
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCommandDefinitions(t *testing.T) {
	tests := []struct {
		cmd   *cobra.Command
		use   string
		flags []string
	}{
		{NewParseCommand(), "parse [export-file...]", []string{"output", "limit", "sender", "verbose"}},
		{NewStatsCommand(), "stats [export-file...]", []string{"output", "verbose", "quiet", "top", "words", "sender", "since", "until", "engine", "import", "db", "webhook-url", "webhook-token", "webhook-trigger"}},
		{NewExportCommand(), "export [export-file...]", []string{"out", "force"}},
		{NewImportCommand(), "import [export-file...]", []string{"db", "list"}},
		{NewSearchCommand(), "search <query>", []string{"db", "output", "sender", "import", "limit"}},
		{NewDetectCommand(), "detect <export-file>", []string{"output", "sample", "all", "write-config"}},
		{NewDiagnoseCommand(), "diagnose [config-file]", []string{"verbose"}},
		{NewValidateCommand(), "validate <config-file>", nil},
		{NewVersionCommand(), "version", nil},
	}

	for _, tt := range tests {
		t.Run(tt.cmd.Name(), func(t *testing.T) {
			if tt.cmd.Use != tt.use {
				t.Errorf("Use = %q, want %q", tt.cmd.Use, tt.use)
			}
			for _, flag := range tt.flags {
				if tt.cmd.Flags().Lookup(flag) == nil {
					t.Errorf("Missing flag: %s", flag)
				}
			}
		})
	}
}

func TestRunParse(t *testing.T) {
	dir := resetState(t)
	export := writeFile(t, dir, "chat.txt", testExport)

	stdout, _, err := execute(t, NewParseCommand(), export)
	be.Err(t, err, nil)

	want := "15/01/2024, 09:00:00 - Alice: good morning everyone\n" +
		"15/01/2024, 09:05:00 - Bob: morning! lunch today?\n" +
		"15/01/2024, 12:30:00 - Alice: lunch at noon sounds good to me\n" +
		"16/01/2024, 18:45:00 - Carol: see you tomorrow\n"
	be.Equal(t, stdout, want)
	be.Equal(t, ExitCode, ExitOK)
}

func TestRunParse_SenderAndLimit(t *testing.T) {
	dir := resetState(t)
	export := writeFile(t, dir, "chat.txt", testExport)

	stdout, _, err := execute(t, NewParseCommand(), "--sender", "Alice", "-n", "1", export)
	be.Err(t, err, nil)
	be.Equal(t, stdout, "15/01/2024, 09:00:00 - Alice: good morning everyone\n")
}

func TestRunParse_JSON(t *testing.T) {
	dir := resetState(t)
	export := writeFile(t, dir, "chat.txt", testExport)

	stdout, _, err := execute(t, NewParseCommand(), "-o", "json", export)
	be.Err(t, err, nil)

	var rows []map[string]any
	be.Err(t, json.Unmarshal([]byte(stdout), &rows), nil)
	be.Equal(t, len(rows), 4)
}

func TestRunParse_Errors(t *testing.T) {
	dir := resetState(t)
	export := writeFile(t, dir, "chat.txt", testExport)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"bad output", []string{"-o", "xml", export}, "xml"},
		{"negative limit", []string{"-n", "-1", export}, "invalid limit"},
		{"no inputs", []string{}, "no input"},
		{"missing file", []string{filepath.Join(dir, "nope.txt")}, "parsing exports"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, NewParseCommand(), tt.args...)
			be.Err(t, err, tt.wantErr)
		})
	}
}

func TestRunParse_NoMessages(t *testing.T) {
	dir := resetState(t)
	export := writeFile(t, dir, "notes.txt", "just some notes\nwithout headers\n")

	stdout, stderr, err := execute(t, NewParseCommand(), export)
	be.Err(t, err, nil)
	be.Equal(t, stdout, "")
	be.True(t, strings.Contains(stderr, "chatsift detect"))
	be.Equal(t, ExitCode, ExitNoMessages)
}

func TestRunParse_ConfigInputs(t *testing.T) {
	dir := resetState(t)
	writeFile(t, dir, "chat.txt", testExport)
	Globals.ConfigFile = writeFile(t, dir, "chatsift.yaml", "inputs:\n  - "+filepath.Join(dir, "*.txt")+"\n")

	stdout, _, err := execute(t, NewParseCommand())
	be.Err(t, err, nil)
	be.Equal(t, strings.Count(stdout, "\n"), 4)
}

func TestRunStats_Text(t *testing.T) {
	dir := resetState(t)
	export := writeFile(t, dir, "chat.txt", testExport)

	stdout, _, err := execute(t, NewStatsCommand(), export)
	be.Err(t, err, nil)

	for _, want := range []string{"Chat Analysis Report", "4 from 3 participants", "Top senders", "Alice"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("output missing %q:\n%s", want, stdout)
		}
	}
	be.Equal(t, ExitCode, ExitOK)
}

func TestRunStats_JSONFilters(t *testing.T) {
	dir := resetState(t)
	export := writeFile(t, dir, "chat.txt", testExport)

	stdout, _, err := execute(t, NewStatsCommand(), "-o", "json", "--sender", "Alice", "--since", "2024-01-15", "--until", "2024-01-15", export)
	be.Err(t, err, nil)

	var report output.Report
	be.Err(t, json.Unmarshal([]byte(stdout), &report), nil)
	be.Equal(t, report.Summary.Messages, 2)
	be.Equal(t, report.Summary.Participants, 1)
	be.Equal(t, report.Metadata.Senders, []string{"Alice"})
}

func TestRunStats_FiltersExcludeEverything(t *testing.T) {
	dir := resetState(t)
	export := writeFile(t, dir, "chat.txt", testExport)

	stdout, stderr, err := execute(t, NewStatsCommand(), "--sender", "Nobody", export)
	be.Err(t, err, nil)
	be.Equal(t, stdout, "")
	be.True(t, strings.Contains(stderr, "matched the filters (4 parsed)"))
	be.True(t, !strings.Contains(stderr, "chatsift detect"))
	be.Equal(t, ExitCode, ExitNoMessages)
}

func TestRunStats_FlagErrors(t *testing.T) {
	dir := resetState(t)
	export := writeFile(t, dir, "chat.txt", testExport)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"bad since", []string{"--since", "15/01/2024", export}, "YYYY-MM-DD"},
		{"until before since", []string{"--since", "2024-02-01", "--until", "2024-01-01", export}, "before"},
		{"negative top", []string{"--top", "-1", export}, "negative"},
		{"bad trigger", []string{"--webhook-url", "http://localhost", "--webhook-trigger", "sometimes", export}, "invalid --webhook-trigger"},
		{"bad output", []string{"-o", "xml", export}, "xml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, NewStatsCommand(), tt.args...)
			be.Err(t, err, tt.wantErr)
		})
	}
}

func TestRunStats_Webhook(t *testing.T) {
	dir := resetState(t)
	export := writeFile(t, dir, "chat.txt", testExport)

	var received webhook.Payload
	var auth string
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		auth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &received)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	_, _, err := execute(t, NewStatsCommand(), "-q", "--webhook-url", server.URL, "--webhook-token", "secret", export)
	be.Err(t, err, nil)
	be.Equal(t, calls, 1)
	be.Equal(t, auth, "Bearer secret")
	be.Equal(t, received.Event, webhook.EventStats)
	be.Equal(t, received.Report.Summary.Messages, 4)
}

func TestRunStats_WebhookTriggerOnEmptyRun(t *testing.T) {
	dir := resetState(t)
	export := writeFile(t, dir, "empty.txt", "no headers here\n")

	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	_, _, err := execute(t, NewStatsCommand(), "--webhook-url", server.URL, export)
	be.Err(t, err, nil)
	be.Equal(t, calls, 0)
	be.Equal(t, ExitCode, ExitNoMessages)

	_, _, err = execute(t, NewStatsCommand(), "--webhook-url", server.URL, "--webhook-trigger", "always", export)
	be.Err(t, err, nil)
	be.Equal(t, calls, 1)
}

func TestRunExport(t *testing.T) {
	dir := resetState(t)
	export := writeFile(t, dir, "chat.txt", testExport)
	out := filepath.Join(dir, "messages.csv")

	stdout, _, err := execute(t, NewExportCommand(), "--out", out, export)
	be.Err(t, err, nil)
	be.True(t, strings.Contains(stdout, "Wrote 4 messages"))

	data, err := os.ReadFile(out)
	be.Err(t, err, nil)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	be.Equal(t, len(lines), 5)
	be.Equal(t, lines[0], strings.Join(output.CSVHeader, ","))
	be.Equal(t, lines[3], "15/01/2024,12:30:00,Alice,lunch at noon sounds good to me,31,12")

	// Refuses to overwrite without --force
	_, _, err = execute(t, NewExportCommand(), "--out", out, export)
	be.Err(t, err, "already exists")

	_, _, err = execute(t, NewExportCommand(), "--out", out, "--force", export)
	be.Err(t, err, nil)
}

func TestRunExport_Stdout(t *testing.T) {
	dir := resetState(t)
	export := writeFile(t, dir, "chat.txt", testExport)

	stdout, _, err := execute(t, NewExportCommand(), "--out", "-", export)
	be.Err(t, err, nil)
	be.True(t, strings.HasPrefix(stdout, strings.Join(output.CSVHeader, ",")+"\n"))
	be.Equal(t, strings.Count(stdout, "\n"), 5)
}

func TestImportAndSearch(t *testing.T) {
	dir := resetState(t)
	export := writeFile(t, dir, "chat.txt", testExport)
	db := filepath.Join(dir, "archive.db")

	stdout, _, err := execute(t, NewImportCommand(), "--db", db, export)
	be.Err(t, err, nil)
	be.True(t, strings.Contains(stdout, "Imported 4 messages"))
	be.True(t, strings.Contains(stdout, "now holds 4 messages"))

	stdout, _, err = execute(t, NewImportCommand(), "--db", db, "--list")
	be.Err(t, err, nil)
	be.True(t, strings.Contains(stdout, export))

	stdout, _, err = execute(t, NewSearchCommand(), "--db", db, "lunch")
	be.Err(t, err, nil)
	be.Equal(t, strings.Count(stdout, "\n"), 2)
	be.True(t, strings.Contains(stdout, "[lunch]"))
	be.Equal(t, ExitCode, ExitOK)

	stdout, _, err = execute(t, NewSearchCommand(), "--db", db, "--sender", "Bob", "-o", "json", "lunch")
	be.Err(t, err, nil)
	var results []map[string]any
	be.Err(t, json.Unmarshal([]byte(stdout), &results), nil)
	be.Equal(t, len(results), 1)
	be.Equal(t, results[0]["sender"], "Bob")
}

func TestSearch_NoResults(t *testing.T) {
	dir := resetState(t)
	export := writeFile(t, dir, "chat.txt", testExport)
	db := filepath.Join(dir, "archive.db")

	_, _, err := execute(t, NewImportCommand(), "--db", db, export)
	be.Err(t, err, nil)

	_, stderr, err := execute(t, NewSearchCommand(), "--db", db, "volcano")
	be.Err(t, err, nil)
	be.True(t, strings.Contains(stderr, "No results"))
	be.Equal(t, ExitCode, ExitNoMessages)

	_, _, err = execute(t, NewSearchCommand(), "--db", db, "-o", "csv", "lunch")
	be.Err(t, err, "csv")
}

func TestRunStats_FromImport(t *testing.T) {
	dir := resetState(t)
	export := writeFile(t, dir, "chat.txt", testExport)
	db := filepath.Join(dir, "archive.db")

	stdout, _, err := execute(t, NewImportCommand(), "--db", db, export)
	be.Err(t, err, nil)

	// "Imported 4 messages from <file> (<id>)"
	start := strings.LastIndex(stdout, "(")
	end := strings.LastIndex(stdout, ")")
	be.True(t, start > 0 && end > start)
	id := stdout[start+1 : end]

	stdout, _, err = execute(t, NewStatsCommand(), "--db", db, "--import", id, "-o", "json", "-q")
	be.Err(t, err, nil)
	var summary map[string]any
	be.Err(t, json.Unmarshal([]byte(stdout), &summary), nil)
	be.Equal(t, summary["messages"], float64(4))

	_, _, err = execute(t, NewStatsCommand(), "--db", db, "--import", "missing")
	be.Err(t, err, "not found")
}

func TestRunValidate(t *testing.T) {
	dir := resetState(t)
	writeFile(t, dir, "chat.txt", testExport)
	configPath := writeFile(t, dir, "chatsift.yaml", `inputs:
  - `+filepath.Join(dir, "*.txt")+`
parser:
  formats:
    - name: iso
      pattern: '^(?P<date>\d{4}-\d{2}-\d{2}) (?P<time>\d{2}:\d{2}) (?P<sender>[^:]+): (?P<body>.*)$'
dates:
  order: month-first
`)

	stdout, _, err := execute(t, NewValidateCommand(), configPath)
	be.Err(t, err, nil)
	for _, want := range []string{"Configuration valid!", "month-first", "[custom] iso", "Export files matched: 1"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("output missing %q:\n%s", want, stdout)
		}
	}
}

func TestRunValidate_Invalid(t *testing.T) {
	dir := resetState(t)

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad order", "dates:\n  order: sideways\n", "order"},
		{"bad trim", "parser:\n  trim: middle\n", "trim"},
		{"bad format", "parser:\n  formats:\n    - name: x\n      pattern: '(?P<date>['\n", "invalid pattern"},
		{"bad webhook", "webhooks:\n  - url: ftp://example.com\n", "scheme"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, strings.ReplaceAll(tt.name, " ", "_")+".yaml", tt.content)
			_, _, err := execute(t, NewValidateCommand(), path)
			be.Err(t, err, tt.wantErr)
		})
	}

	_, _, err := execute(t, NewValidateCommand(), filepath.Join(dir, "missing.yaml"))
	be.Err(t, err, "validation failed")
}

func TestRunVersion(t *testing.T) {
	resetState(t)
	saved := Version
	Version = "1.2.3"
	defer func() { Version = saved }()

	stdout, _, err := execute(t, NewVersionCommand())
	be.Err(t, err, nil)
	be.Equal(t, stdout, "chatsift 1.2.3\n")
}

func TestColorFlag(t *testing.T) {
	dir := resetState(t)
	export := writeFile(t, dir, "chat.txt", testExport)
	Globals.Color = "sometimes"

	_, _, err := execute(t, NewParseCommand(), export)
	be.Err(t, err, "sometimes")
}
