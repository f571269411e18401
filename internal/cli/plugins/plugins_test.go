package plugins

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFindPlugin_NotFound(t *testing.T) {
	t.Setenv(EnvPluginDir, t.TempDir())

	_, err := FindPlugin("nonexistent-plugin-xyz")
	if err != ErrPluginNotFound {
		t.Errorf("expected ErrPluginNotFound, got %v", err)
	}
}

func TestFindPlugin_RejectsPaths(t *testing.T) {
	for _, name := range []string{"", "../evil", "a/b"} {
		if _, err := FindPlugin(name); err != ErrPluginNotFound {
			t.Errorf("FindPlugin(%q) error = %v, want ErrPluginNotFound", name, err)
		}
	}
}

func TestFindPlugin_InPluginsDir(t *testing.T) {
	pluginsDir := t.TempDir()
	t.Setenv(EnvPluginDir, pluginsDir)

	pluginPath := filepath.Join(pluginsDir, "chatsift-testplugin")
	if err := os.WriteFile(pluginPath, []byte("#!/bin/sh\necho test"), 0755); err != nil {
		t.Fatalf("failed to create test plugin: %v", err)
	}

	found, err := FindPlugin("testplugin")
	if err != nil {
		t.Errorf("expected to find plugin, got error: %v", err)
	}
	if found != pluginPath {
		t.Errorf("expected %s, got %s", pluginPath, found)
	}
}

func TestDir(t *testing.T) {
	t.Setenv(EnvPluginDir, "/opt/chatsift/plugins")
	if got := Dir(); got != "/opt/chatsift/plugins" {
		t.Errorf("Dir() = %q, want override", got)
	}

	t.Setenv(EnvPluginDir, "")
	if got := Dir(); !strings.HasSuffix(got, filepath.Join(".chatsift", "plugins")) {
		t.Errorf("Dir() = %q, want ~/.chatsift/plugins", got)
	}
}

func TestExecute(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	script := "#!/bin/sh\nprintf '%s %s' \"$1\" \"$CHATSIFT_DB\" > " + out + "\nexit 3\n"
	plugin := filepath.Join(dir, "chatsift-echo")
	if err := os.WriteFile(plugin, []byte(script), 0755); err != nil {
		t.Fatal(err)
	}

	code := Execute(context.Background(), plugin, []string{"hello"}, Environment("", "/tmp/chat.db"))
	if code != 3 {
		t.Errorf("Execute() = %d, want 3", code)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello /tmp/chat.db" {
		t.Errorf("plugin saw %q, want %q", data, "hello /tmp/chat.db")
	}
}

func TestEnvironment(t *testing.T) {
	if env := Environment("", ""); len(env) != 0 {
		t.Errorf("Environment() = %v, want empty", env)
	}

	env := Environment("chatsift.yaml", "/data/chat.db")
	if len(env) != 2 {
		t.Fatalf("Environment() = %v, want 2 entries", env)
	}
	if !strings.HasPrefix(env[0], EnvConfig+"=") || !filepath.IsAbs(strings.TrimPrefix(env[0], EnvConfig+"=")) {
		t.Errorf("env[0] = %q, want absolute config path", env[0])
	}
	if env[1] != "CHATSIFT_DB=/data/chat.db" {
		t.Errorf("env[1] = %q", env[1])
	}
}

func TestFormatNotFoundError_KnownPlugin(t *testing.T) {
	err := FormatNotFoundError("watch")

	if !strings.Contains(err, "available as a plugin") {
		t.Error("expected error to mention plugin availability")
	}
	if !strings.Contains(err, "chatsift-watch") {
		t.Error("expected error to mention chatsift-watch")
	}
}

func TestFormatNotFoundError_UnknownPlugin(t *testing.T) {
	err := FormatNotFoundError("unknown")

	if !strings.Contains(err, "chatsift-unknown") {
		t.Error("expected error to mention chatsift-unknown")
	}
	if strings.Contains(err, "available as a plugin") {
		t.Error("should not mention plugin availability for unknown plugins")
	}
}

func TestIsExecutable(t *testing.T) {
	tmpDir := t.TempDir()

	nonExec := filepath.Join(tmpDir, "nonexec")
	if err := os.WriteFile(nonExec, []byte("test"), 0644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	if isExecutable(nonExec) {
		t.Error("non-executable file should not be detected as executable")
	}

	exec := filepath.Join(tmpDir, "exec")
	if err := os.WriteFile(exec, []byte("test"), 0755); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	if !isExecutable(exec) {
		t.Error("executable file should be detected as executable")
	}

	if isExecutable(tmpDir) {
		t.Error("directory should not be detected as executable")
	}
	if isExecutable(filepath.Join(tmpDir, "nonexistent")) {
		t.Error("non-existent file should not be detected as executable")
	}
}
