// Package plugins provides exec-based plugin support for chatsift.
// Plugins are separate binaries named chatsift-<command> that are discovered
// and executed when an unknown command is invoked.
//
// This follows the same pattern used by kubectl and git for plugins.
package plugins

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Prefix is prepended to the command name to form the plugin binary name.
const Prefix = "chatsift-"

// EnvPluginDir overrides the per-user plugin directory.
const EnvPluginDir = "CHATSIFT_PLUGIN_DIR"

// Environment passed to plugins so they can share the caller's settings.
const (
	EnvConfig = "CHATSIFT_CONFIG"
	EnvDB     = "CHATSIFT_DB"
)

// KnownPlugins lists plugins that have official implementations available.
// These get special error messages directing users where to obtain them.
var KnownPlugins = map[string]string{
	"watch": "Re-runs stats whenever an export file changes.",
	"serve": "Serves the message store over HTTP for browsing and search.",
}

// ErrPluginNotFound is returned when no plugin binary can be located.
var ErrPluginNotFound = errors.New("plugin not found")

// Dir returns the per-user plugin directory, ~/.chatsift/plugins unless
// CHATSIFT_PLUGIN_DIR is set.
func Dir() string {
	if dir := os.Getenv(EnvPluginDir); dir != "" {
		return dir
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".chatsift", "plugins")
}

// FindPlugin searches for a plugin binary named chatsift-<command>.
// It searches in the following locations in order:
//  1. Same directory as the chatsift binary
//  2. The plugin directory (see Dir)
//  3. Anywhere in PATH
//
// Returns the full path to the plugin binary if found.
func FindPlugin(command string) (string, error) {
	if command == "" || strings.ContainsRune(command, os.PathSeparator) {
		return "", ErrPluginNotFound
	}
	pluginName := Prefix + command

	// 1. Check same directory as chatsift binary
	if execPath, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(execPath), pluginName)
		if isExecutable(candidate) {
			return candidate, nil
		}
	}

	// 2. Check the plugin directory
	if dir := Dir(); dir != "" {
		candidate := filepath.Join(dir, pluginName)
		if isExecutable(candidate) {
			return candidate, nil
		}
	}

	// 3. Check PATH
	if path, err := exec.LookPath(pluginName); err == nil {
		return path, nil
	}

	return "", ErrPluginNotFound
}

// Execute runs a plugin with the given arguments and extra environment
// entries ("KEY=value"). It connects stdin, stdout, and stderr to the
// plugin process and returns the plugin's exit code.
func Execute(ctx context.Context, pluginPath string, args []string, env []string) int {
	cmd := exec.CommandContext(ctx, pluginPath, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(), env...)

	err := cmd.Run()
	if err != nil {
		// Extract exit code from error if available
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "Error executing plugin: %v\n", err)
		return 2
	}

	return 0
}

// Environment builds the variables handed to a plugin from the global
// --config flag and the store path. Empty values are left out.
func Environment(configFile, dbPath string) []string {
	var env []string
	if configFile != "" {
		if abs, err := filepath.Abs(configFile); err == nil {
			configFile = abs
		}
		env = append(env, EnvConfig+"="+configFile)
	}
	if dbPath != "" {
		env = append(env, EnvDB+"="+dbPath)
	}
	return env
}

// FormatNotFoundError returns a helpful error message when a plugin is not found.
// If the command is a known plugin, includes information about what it does.
func FormatNotFoundError(command string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("unknown command %q for \"chatsift\"\n", command))

	if info, ok := KnownPlugins[command]; ok {
		sb.WriteString(fmt.Sprintf("\n%q is available as a plugin.\n", command))
		sb.WriteString(info)
		sb.WriteString("\n\nInstall the plugin binary as one of:\n")
	} else {
		sb.WriteString("\nIf this is a plugin, install the binary as one of:\n")
	}

	sb.WriteString(fmt.Sprintf("  - %s%s in the same directory as chatsift\n", Prefix, command))
	sb.WriteString(fmt.Sprintf("  - ~/.chatsift/plugins/%s%s\n", Prefix, command))
	sb.WriteString(fmt.Sprintf("  - %s%s anywhere in your PATH\n", Prefix, command))

	sb.WriteString("\nRun 'chatsift --help' for usage.")

	return sb.String()
}

// isExecutable checks if a file exists and is executable.
func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	if info.Mode().IsRegular() {
		// Check if any execute bit is set
		return info.Mode()&0111 != 0
	}

	return false
}
