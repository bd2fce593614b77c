// Package config loads commitd's application configuration.
//
// Precedence, highest to lowest:
//  1. Environment variables (COMMITD_LANGUAGE, COMMITD_LOGGING_LEVEL, ...)
//  2. YAML config file (~/.config/commitd/config.yaml by default)
//  3. Defaults
//
// The generator's own prompt/command configuration is embedded in the binary
// and is not part of this file; see the generator package.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/fyrsmithlabs/commitd/internal/logging"
)

const envPrefix = "COMMITD_"

// Config is the full application configuration.
type Config struct {
	// Language is the language commit messages are written in.
	Language string         `koanf:"language"`
	Logging  logging.Config `koanf:"logging"`
}

// Load reads configuration from the given YAML file path, then overrides
// with COMMITD_* environment variables. An empty path means the default
// location; a missing file is not an error.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = filepath.Join(home, ".config", "commitd", "config.yaml")
	}

	if content, err := os.ReadFile(configPath); err == nil {
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	// COMMITD_LANGUAGE -> language, COMMITD_LOGGING_LEVEL -> logging.level.
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		parts := strings.SplitN(key, "_", 2)
		if len(parts) == 1 {
			return key
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Language == "" {
		cfg.Language = "Japanese"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
}
