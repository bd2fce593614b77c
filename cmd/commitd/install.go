package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Register commitd as a Claude Code hook",
	Long: `Register "commitd hook" for SessionStart and PostToolUse events in the
Claude Code settings file. Existing unrelated hooks are preserved.

Examples:
  commitd install`,
	RunE: runInstall,
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove commitd hooks from Claude Code settings",
	Long: `Remove every hook entry referencing commitd from the Claude Code
settings file.

Examples:
  commitd uninstall`,
	RunE: runUninstall,
}

// hookEvents are the events commitd registers for, with the PostToolUse
// matcher limiting invocations to the tools the committer acts on.
var hookEvents = []struct {
	event   string
	matcher string
}{
	{event: "SessionStart"},
	{event: "PostToolUse", matcher: "Edit|MultiEdit|Write"},
}

func runInstall(cmd *cobra.Command, args []string) error {
	binPath, err := exec.LookPath("commitd")
	if err != nil {
		binPath, err = os.Executable()
		if err != nil {
			return fmt.Errorf("could not find commitd binary: %w", err)
		}
	}
	binPath, err = filepath.Abs(binPath)
	if err != nil {
		return fmt.Errorf("could not resolve commitd path: %w", err)
	}

	settingsPath := claudeSettingsPath()
	settings, err := readSettings(settingsPath)
	if err != nil {
		return err
	}

	hooks, _ := settings["hooks"].(map[string]any)
	if hooks == nil {
		hooks = make(map[string]any)
	}

	command := binPath + " hook"
	for _, he := range hookEvents {
		entry := map[string]any{
			"hooks": []any{map[string]any{"type": "command", "command": command}},
		}
		if he.matcher != "" {
			entry["matcher"] = he.matcher
		}

		groups, _ := hooks[he.event].([]any)
		groups = removeCommitdGroups(groups)
		hooks[he.event] = append(groups, entry)
	}
	settings["hooks"] = hooks

	if err := writeSettings(settingsPath, settings); err != nil {
		return err
	}

	fmt.Printf("Registered hook command: %s\n", command)
	fmt.Printf("Settings updated: %s\n", settingsPath)
	return nil
}

func runUninstall(cmd *cobra.Command, args []string) error {
	settingsPath := claudeSettingsPath()

	data, err := os.ReadFile(settingsPath)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Println("No Claude Code settings found, nothing to uninstall.")
			return nil
		}
		return fmt.Errorf("failed to read settings: %w", err)
	}

	var settings map[string]any
	if err := json.Unmarshal(data, &settings); err != nil {
		return fmt.Errorf("failed to parse settings: %w", err)
	}

	hooks, _ := settings["hooks"].(map[string]any)
	if hooks == nil {
		fmt.Println("No hook configuration found, nothing to uninstall.")
		return nil
	}

	for eventName, v := range hooks {
		groups, _ := v.([]any)
		remaining := removeCommitdGroups(groups)
		if len(remaining) == 0 {
			delete(hooks, eventName)
		} else {
			hooks[eventName] = remaining
		}
	}
	if len(hooks) == 0 {
		delete(settings, "hooks")
	}

	if err := writeSettings(settingsPath, settings); err != nil {
		return err
	}

	fmt.Printf("Removed commitd hooks from: %s\n", settingsPath)
	return nil
}

// removeCommitdGroups drops hook groups whose command references commitd,
// leaving the user's other hooks untouched.
func removeCommitdGroups(groups []any) []any {
	var kept []any
	for _, g := range groups {
		group, ok := g.(map[string]any)
		if !ok {
			kept = append(kept, g)
			continue
		}
		if !groupReferencesCommitd(group) {
			kept = append(kept, g)
		}
	}
	return kept
}

func groupReferencesCommitd(group map[string]any) bool {
	inner, _ := group["hooks"].([]any)
	for _, h := range inner {
		hook, ok := h.(map[string]any)
		if !ok {
			continue
		}
		if cmd, ok := hook["command"].(string); ok && strings.Contains(cmd, "commitd") {
			return true
		}
	}
	return false
}

func readSettings(path string) (map[string]any, error) {
	settings := make(map[string]any)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}
	if err := json.Unmarshal(data, &settings); err != nil {
		// Unparseable settings should be fixed by hand, not clobbered.
		return nil, fmt.Errorf("failed to parse settings %s: %w", path, err)
	}
	return settings, nil
}

func writeSettings(path string, settings map[string]any) error {
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}

// claudeSettingsPath returns the path to the Claude Code settings file,
// preferring ~/.claude/settings.json when present.
func claudeSettingsPath() string {
	home, _ := os.UserHomeDir()

	primary := filepath.Join(home, ".claude", "settings.json")
	if _, err := os.Stat(primary); err == nil {
		return primary
	}

	var configDir string
	switch runtime.GOOS {
	case "darwin":
		configDir = filepath.Join(home, "Library", "Application Support", "Claude")
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			configDir = filepath.Join(xdg, "claude")
		} else {
			configDir = filepath.Join(home, ".config", "claude")
		}
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "Claude")
	default:
		configDir = filepath.Join(home, ".claude")
	}
	return filepath.Join(configDir, "settings.json")
}
