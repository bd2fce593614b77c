// Package main implements the commitd CLI, an automatic commit hook for
// coding agent sessions.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/commitd/internal/config"
)

var (
	// configPath overrides the default config file location
	configPath string
	// language overrides the configured commit message language
	language string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "commitd",
	Short: "Automatic commits for coding agent sessions",
	Long: `commitd turns coding agent lifecycle events into git commits.

Installed as a Claude Code hook, it commits each successful file edit with a
generated message, commits leftover work when a session ends, and keeps agent
work off trunk branches by cutting per-session branches.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default ~/.config/commitd/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&language, "language", "l", "", "commit message language (overrides COMMITD_LANGUAGE)")
	rootCmd.AddCommand(hookCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(uninstallCmd)
}

// loadConfig loads the application config and applies the --language flag on
// top, keeping flag > env > file > default precedence.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if language != "" {
		cfg.Language = language
	}
	return cfg, nil
}
