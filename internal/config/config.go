// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for r1chat.
//
// Configuration sources, in order of precedence:
//   - Environment variables (DEEPSEEK_API_KEY, R1CHAT_*)
//   - A .env file in the working directory
//   - ~/.r1chat/config.toml
//   - Built-in defaults
package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/jeranaias/r1chat/internal/util"
)

// APIKeyEnvVar is the environment variable holding the credential.
const APIKeyEnvVar = "DEEPSEEK_API_KEY"

// ErrMissingAPIKey is the fatal startup condition when a command that
// talks to the API has no credential available.
var ErrMissingAPIKey = fmt.Errorf(
	"%s is not set: export it or add it to .env or ~/.r1chat/config.toml", APIKeyEnvVar)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete r1chat configuration.
type Config struct {
	API     APIConfig     `toml:"api"`
	UI      UIConfig      `toml:"ui"`
	History HistoryConfig `toml:"history"`
	Export  ExportConfig  `toml:"export"`
}

// APIConfig configures the DeepSeek completion adapter.
type APIConfig struct {
	// Key is the API key. Normally supplied via DEEPSEEK_API_KEY;
	// storing it here is a fallback for single-user machines.
	Key string `toml:"key"`
	// BaseURL is the API endpoint.
	BaseURL string `toml:"base_url"`
	// Model is the completion model.
	Model string `toml:"model"`
	// TimeoutSecs bounds a blocking completion request.
	TimeoutSecs int `toml:"timeout_secs"`
	// RequestsPerMinute paces outgoing requests (0 = no pacing).
	RequestsPerMinute int `toml:"requests_per_minute"`
}

// UIConfig configures the terminal UI.
type UIConfig struct {
	// Theme is "dark", "light" or "auto".
	Theme string `toml:"theme"`
	// ShowReasoning is the initial reasoning display preference.
	ShowReasoning bool `toml:"show_reasoning"`
}

// HistoryConfig bounds what is forwarded to the API.
type HistoryConfig struct {
	// MaxMessages caps the history window sent per completion call
	// (0 = send the full conversation). Stored messages are never
	// trimmed.
	MaxMessages int `toml:"max_messages"`
}

// ExportConfig configures conversation export.
type ExportConfig struct {
	// OutputDir is where exported files are written (empty = cwd).
	OutputDir string `toml:"output_dir"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:           "https://api.deepseek.com",
			Model:             "deepseek-reasoner",
			TimeoutSecs:       120,
			RequestsPerMinute: 0,
		},
		UI: UIConfig{
			Theme:         "auto",
			ShowReasoning: true,
		},
		History: HistoryConfig{
			MaxMessages: 0,
		},
		Export: ExportConfig{
			OutputDir: "",
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns ~/.r1chat, creating nothing.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".r1chat"), nil
}

// ConfigPath returns the path of the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir creates the config directory with owner-only
// permissions.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// =============================================================================
// LOADING
// =============================================================================

// Load builds the effective configuration: defaults, then the config
// file when present, then .env, then environment overrides, then
// validation. A missing config file is not an error.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := LoadTOML(cfg, path); err != nil {
				return nil, fmt.Errorf("failed to load config: %w", err)
			}
		}
	}

	// .env in the working directory, ignored when absent.
	_ = godotenv.Load()

	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file over cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadFromPath loads a specific config file with env overrides and
// validation applied.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := LoadTOML(cfg, path); err != nil {
		return nil, err
	}
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyEnvOverrides applies environment variables over the loaded
// values.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv(APIKeyEnvVar); v != "" {
		c.API.Key = v
	}
	if v := os.Getenv("R1CHAT_BASE_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("R1CHAT_MODEL"); v != "" {
		c.API.Model = v
	}
	if v := os.Getenv("R1CHAT_THEME"); v != "" {
		c.UI.Theme = v
	}
	if v := os.Getenv("R1CHAT_MAX_HISTORY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.History.MaxMessages = n
		}
	}
}

// =============================================================================
// SAVING
// =============================================================================

// Save writes the configuration to ~/.r1chat/config.toml with
// owner-only permissions. The file may hold the API key.
func Save(cfg *Config) error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}
	path, err := ConfigPath()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return util.AtomicWriteFile(path, buf.Bytes(), 0600)
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks invariants on the loaded configuration.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api.base_url must not be empty")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api.base_url is not a valid http(s) URL: %q", c.API.BaseURL)
	}
	if c.API.Model == "" {
		return errors.New("api.model must not be empty")
	}
	if c.API.TimeoutSecs < 0 {
		return fmt.Errorf("api.timeout_secs must be >= 0, got %d", c.API.TimeoutSecs)
	}
	if c.API.RequestsPerMinute < 0 {
		return fmt.Errorf("api.requests_per_minute must be >= 0, got %d", c.API.RequestsPerMinute)
	}
	if c.History.MaxMessages < 0 {
		return fmt.Errorf("history.max_messages must be >= 0, got %d", c.History.MaxMessages)
	}
	switch c.UI.Theme {
	case "dark", "light", "auto":
	default:
		return fmt.Errorf("ui.theme must be dark, light or auto, got %q", c.UI.Theme)
	}
	return nil
}

// RequireAPIKey returns the credential or the fatal ErrMissingAPIKey.
func (c *Config) RequireAPIKey() (string, error) {
	if c.API.Key == "" {
		return "", ErrMissingAPIKey
	}
	return c.API.Key, nil
}

// =============================================================================
// GLOBAL CONFIG
// =============================================================================

var (
	globalConfig *Config
	globalMu     sync.RWMutex
	globalOnce   sync.Once
)

// Global returns the process-wide configuration, loading it on first
// use. Load failures fall back to defaults; config problems surface
// when a command validates explicitly.
func Global() *Config {
	globalOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			cfg = Default()
			cfg.ApplyEnvOverrides()
		}
		globalMu.Lock()
		globalConfig = cfg
		globalMu.Unlock()
	})
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalConfig
}

// SetGlobal replaces the global configuration (tests, `config set`).
func SetGlobal(cfg *Config) {
	globalOnce.Do(func() {})
	globalMu.Lock()
	globalConfig = cfg
	globalMu.Unlock()
}
