package commands

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ccollicutt/chatsift/pkg/config"
	"github.com/ccollicutt/chatsift/pkg/store"
)

func TestCheckConfigExists_NotFound(t *testing.T) {
	result := checkConfigExists("/nonexistent/config.yaml")

	if result.Status != StatusError {
		t.Errorf("Expected error status, got %s", result.Status)
	}
	if !strings.Contains(result.Message, "not found") {
		t.Errorf("Expected 'not found' in message, got: %s", result.Message)
	}
	if len(result.Suggests) == 0 {
		t.Error("Expected suggestions for a missing config")
	}
}

func TestCheckConfigExists_Empty(t *testing.T) {
	configPath := writeFile(t, t.TempDir(), "empty.yaml", "")

	result := checkConfigExists(configPath)

	if result.Status != StatusError {
		t.Errorf("Expected error status, got %s", result.Status)
	}
	if !strings.Contains(result.Message, "empty") {
		t.Errorf("Expected 'empty' in message, got: %s", result.Message)
	}
}

func TestCheckConfigExists_Directory(t *testing.T) {
	result := checkConfigExists(t.TempDir())

	if result.Status != StatusError {
		t.Errorf("Expected error status, got %s", result.Status)
	}
	if !strings.Contains(result.Message, "directory") {
		t.Errorf("Expected 'directory' in message, got: %s", result.Message)
	}
}

func TestCheckConfigExists_Success(t *testing.T) {
	configPath := writeFile(t, t.TempDir(), "config.yaml", "inputs: []\n")

	result := checkConfigExists(configPath)

	if result.Status != StatusOK {
		t.Errorf("Expected ok status, got %s", result.Status)
	}
	if !strings.Contains(result.Message, "B)") {
		t.Errorf("Expected file size in message, got: %s", result.Message)
	}
}

func TestCheckConfigParseable(t *testing.T) {
	resetState(t)
	dir := t.TempDir()

	tests := []struct {
		name       string
		file       string
		content    string
		wantStatus string
		wantHint   string
	}{
		{"valid yaml", "ok.yaml", "dates:\n  order: month-first\n", StatusOK, ""},
		{"valid toml", "ok.toml", "[dates]\norder = \"day-first\"\n", StatusOK, ""},
		{"bad yaml", "bad.yaml", "inputs:\n\t- chat.txt\n", StatusError, "YAML"},
		{"bad toml", "bad.toml", "[dates\norder = day-first\n", StatusError, "TOML"},
		{"bad format", "fmt.yaml", "parser:\n  formats:\n    - name: x\n      pattern: '^(?P<date>\\S+)$'\n", StatusError, "named groups"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, tt.file, tt.content)
			cfg, result := checkConfigParseable(context.Background(), path)

			if result.Status != tt.wantStatus {
				t.Fatalf("Status = %s, want %s (%s)", result.Status, tt.wantStatus, result.Message)
			}
			if tt.wantStatus == StatusOK && cfg == nil {
				t.Error("Expected a config on success")
			}
			if tt.wantHint != "" && !strings.Contains(strings.Join(result.Suggests, "\n"), tt.wantHint) {
				t.Errorf("Suggests = %v, want one mentioning %q", result.Suggests, tt.wantHint)
			}
		})
	}
}

func TestCheckInputs(t *testing.T) {
	dir := t.TempDir()
	export := writeFile(t, dir, "chat.txt", testExport)
	empty := writeFile(t, dir, "empty.txt", "")

	t.Run("none configured", func(t *testing.T) {
		results, files := checkInputs(&config.Config{})
		if len(results) != 1 || results[0].Status != StatusWarning {
			t.Errorf("results = %+v, want one warning", results)
		}
		if len(files) != 0 {
			t.Errorf("files = %v, want none", files)
		}
	})

	t.Run("readable", func(t *testing.T) {
		results, files := checkInputs(&config.Config{Inputs: []string{export}})
		if results[0].Status != StatusOK {
			t.Errorf("Status = %s, want ok (%s)", results[0].Status, results[0].Message)
		}
		if len(files) != 1 || files[0] != export {
			t.Errorf("files = %v, want [%s]", files, export)
		}
	})

	t.Run("missing", func(t *testing.T) {
		results, files := checkInputs(&config.Config{Inputs: []string{filepath.Join(dir, "nope.txt")}})
		if results[0].Status != StatusError {
			t.Errorf("Status = %s, want error", results[0].Status)
		}
		if len(files) != 0 {
			t.Errorf("files = %v, want none", files)
		}
		last := results[len(results)-1]
		if last.Check != "Inputs Summary" || last.Status != StatusError {
			t.Errorf("last result = %+v, want failing summary", last)
		}
	})

	t.Run("only empty", func(t *testing.T) {
		results, _ := checkInputs(&config.Config{Inputs: []string{empty}})
		if results[0].Status != StatusWarning || !strings.Contains(results[0].Message, "empty") {
			t.Errorf("result = %+v, want empty warning", results[0])
		}
	})

	t.Run("glob with empty file", func(t *testing.T) {
		results, files := checkInputs(&config.Config{Inputs: []string{filepath.Join(dir, "*.txt")}})
		if results[0].Status != StatusWarning || !strings.Contains(results[0].Message, "1 empty") {
			t.Errorf("result = %+v, want warning about 1 empty file", results[0])
		}
		if len(files) != 1 {
			t.Errorf("files = %v, want 1 readable", files)
		}
	})
}

func TestCheckFormatCoverage(t *testing.T) {
	resetState(t)
	dir := t.TempDir()
	ctx := context.Background()

	cfg, err := config.LoadOrDefault(ctx, "")
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}

	t.Run("matching export", func(t *testing.T) {
		export := writeFile(t, dir, "chat.txt", testExport)
		results := checkFormatCoverage(ctx, cfg, []string{export}, &DiagnoseOptions{Verbose: true})
		if len(results) != 2 {
			t.Fatalf("got %d results, want format and date order", len(results))
		}
		if results[0].Status != StatusOK || !strings.Contains(results[0].Message, "bracketed") {
			t.Errorf("format result = %+v", results[0])
		}
		if results[1].Status != StatusOK {
			t.Errorf("date order result = %+v, want ok", results[1])
		}
	})

	t.Run("no headers", func(t *testing.T) {
		export := writeFile(t, dir, "notes.txt", "shopping list\neggs\nmilk\n")
		results := checkFormatCoverage(ctx, cfg, []string{export}, &DiagnoseOptions{})
		if len(results) != 1 || results[0].Status != StatusError {
			t.Errorf("results = %+v, want one error", results)
		}
	})

	t.Run("date order mismatch", func(t *testing.T) {
		export := writeFile(t, dir, "us.txt", "1/25/24, 9:15 PM - Bob: hi\n1/26/24, 9:16 PM - Ann: hey\n")
		results := checkFormatCoverage(ctx, cfg, []string{export}, &DiagnoseOptions{})
		if len(results) != 2 {
			t.Fatalf("got %d results, want 2", len(results))
		}
		order := results[1]
		if order.Status != StatusWarning {
			t.Errorf("Status = %s, want warning (%s)", order.Status, order.Message)
		}
		if len(order.Suggests) == 0 || !strings.Contains(order.Suggests[0], "month-first") {
			t.Errorf("Suggests = %v, want month-first hint", order.Suggests)
		}
	})

	t.Run("no files", func(t *testing.T) {
		if results := checkFormatCoverage(ctx, cfg, nil, &DiagnoseOptions{}); results != nil {
			t.Errorf("results = %+v, want nil", results)
		}
	})
}

func TestCheckStore(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	cfg := &config.Config{Store: config.StoreConfig{Path: filepath.Join(dir, "new.db")}}
	result := checkStore(ctx, cfg)
	if result.Status != StatusOK || !strings.Contains(result.Message, "will be created") {
		t.Errorf("result = %+v, want ok with create note", result)
	}
	if _, err := os.Stat(cfg.Store.Path); !os.IsNotExist(err) {
		t.Error("checkStore should not create the database")
	}

	s, err := store.Open(cfg.Store.Path)
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	s.Close()

	result = checkStore(ctx, cfg)
	if result.Status != StatusOK || !strings.Contains(result.Message, "holds 0 messages") {
		t.Errorf("result = %+v, want empty store", result)
	}

	bogus := writeFile(t, dir, "bogus.db", "this is not sqlite, just text padding the header out")
	result = checkStore(ctx, &config.Config{Store: config.StoreConfig{Path: bogus}})
	if result.Status != StatusError {
		t.Errorf("result = %+v, want error for non-database file", result)
	}
}

func TestCheckWebhooks(t *testing.T) {
	ctx := context.Background()

	if results := checkWebhooks(ctx, &config.Config{}, &DiagnoseOptions{}); len(results) != 0 {
		t.Errorf("results = %+v, want none without webhooks", results)
	}
	if results := checkWebhooks(ctx, &config.Config{}, &DiagnoseOptions{Verbose: true}); len(results) != 1 {
		t.Errorf("results = %+v, want a verbose note", results)
	}

	cfg := &config.Config{Webhooks: []config.WebhookConfig{
		{Name: "team", URL: "https://example.com/hook", Trigger: config.WebhookTriggerOnMessages},
		{Name: "off", URL: "https://example.com/off", Trigger: config.WebhookTriggerNever},
	}}
	results := checkWebhooks(ctx, cfg, &DiagnoseOptions{})
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Status != StatusOK || results[0].Check != "Webhook: team" {
		t.Errorf("results[0] = %+v", results[0])
	}
	if results[1].Status != StatusWarning {
		t.Errorf("results[1] = %+v, want warning for disabled webhook", results[1])
	}
}

func TestCheckWebhookConnectivity(t *testing.T) {
	ctx := context.Background()

	var method, auth string
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		auth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer ok.Close()

	result := checkWebhookConnectivity(ctx, config.WebhookConfig{URL: ok.URL, Token: "secret"})
	if result.Status != StatusOK {
		t.Errorf("Status = %s, want ok (%s)", result.Status, result.Message)
	}
	if method != http.MethodHead || auth != "Bearer secret" {
		t.Errorf("request = %s with %q, want HEAD with bearer token", method, auth)
	}

	notAllowed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
	}))
	defer notAllowed.Close()

	result = checkWebhookConnectivity(ctx, config.WebhookConfig{URL: notAllowed.URL})
	if result.Status != StatusWarning || !strings.Contains(result.Message, "405") {
		t.Errorf("result = %+v, want warning with 405", result)
	}

	closed := httptest.NewServer(http.NotFoundHandler())
	url := closed.URL
	closed.Close()

	result = checkWebhookConnectivity(ctx, config.WebhookConfig{URL: url})
	if result.Status != StatusWarning || !strings.Contains(result.Message, "Cannot connect") {
		t.Errorf("result = %+v, want connection warning", result)
	}
}

func TestPrintDiagnostics(t *testing.T) {
	results := []DiagnosticResult{
		{Check: "Config File", Status: StatusOK, Message: "Found", Details: []string{"hidden unless verbose"}},
		{Check: "Date Order", Status: StatusWarning, Message: "looks month-first", Suggests: []string{"Set dates.order: month-first"}},
		{Check: "Input: chat.txt", Status: StatusError, Message: "No export files found", Details: []string{"shown"}},
	}

	var buf bytes.Buffer
	failed := printDiagnostics(&buf, results, &DiagnoseOptions{})
	out := buf.String()

	if failed != 1 {
		t.Errorf("printDiagnostics() = %d, want 1", failed)
	}
	for _, want := range []string{
		"[PASS] Config File",
		"[WARN] Date Order",
		"[FAIL] Input: chat.txt",
		"Hint: Set dates.order: month-first",
		"- shown",
		"Summary: 1 passed, 1 warnings, 1 errors",
		"Fix the errors above",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "hidden unless verbose") {
		t.Error("details of passing checks should only show in verbose mode")
	}
}

func TestRunDiagnose_Command(t *testing.T) {
	dir := resetState(t)
	export := writeFile(t, dir, "chat.txt", testExport)
	configPath := writeFile(t, dir, "chatsift.yaml", "inputs:\n  - "+export+"\n")

	stdout, _, err := execute(t, NewDiagnoseCommand(), configPath)
	if err != nil {
		t.Fatalf("diagnose error = %v", err)
	}
	if !strings.Contains(stdout, "Configuration looks good!") {
		t.Errorf("output:\n%s", stdout)
	}
	if ExitCode != ExitOK {
		t.Errorf("ExitCode = %d, want %d", ExitCode, ExitOK)
	}

	// Falls back to --config
	Globals.ConfigFile = filepath.Join(dir, "missing.yaml")
	stdout, _, err = execute(t, NewDiagnoseCommand())
	if err != nil {
		t.Fatalf("diagnose error = %v", err)
	}
	if !strings.Contains(stdout, "[FAIL] Config File") {
		t.Errorf("output:\n%s", stdout)
	}
	if ExitCode != ExitError {
		t.Errorf("ExitCode = %d, want %d", ExitCode, ExitError)
	}

	Globals.ConfigFile = ""
	if _, _, err := execute(t, NewDiagnoseCommand()); err == nil {
		t.Error("Expected error without a config file")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"a much longer line", 10, "a much ..."},
		{"日本語のテキスト", 7, "日本..."},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
