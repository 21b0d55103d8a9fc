// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for
// persona-tui.
//
// Configuration sources (in order of precedence):
//   - PERSONA_* environment variables
//   - ~/.persona/config.toml
//   - Built-in defaults
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/persona-tui/internal/provider"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete persona-tui configuration.
type Config struct {
	// Provider holds the chat-completions endpoint settings.
	Provider ProviderConfig `toml:"provider"`

	// UI configuration
	UI UIConfig `toml:"ui"`
}

// ProviderConfig contains the OpenAI-compatible endpoint settings.
type ProviderConfig struct {
	// BaseURL is the endpoint root, e.g. "https://api.example.com/v1"
	BaseURL string `toml:"base_url"`
	// APIKey authenticates requests. Never logged.
	APIKey string `toml:"api_key"`
	// Model is the model identifier sent with each request
	Model string `toml:"model"`
	// AuthHeader overrides the auth header name (default "Authorization")
	AuthHeader string `toml:"auth_header"`
	// AuthScheme overrides the auth scheme prefix (default "Bearer")
	AuthScheme string `toml:"auth_scheme"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme"`
	// ShowStats displays token/timing stats under replies
	ShowStats bool `toml:"show_stats"`
	// CompactMode uses a more compact transcript layout
	CompactMode bool `toml:"compact_mode"`
	// WordWrap is the rendering width; 0 follows the terminal
	WordWrap int `toml:"word_wrap"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Provider: ProviderConfig{
			BaseURL:    "",
			APIKey:     "",
			Model:      "",
			AuthHeader: provider.DefaultAuthHeader,
			AuthScheme: provider.DefaultAuthScheme,
		},
		UI: UIConfig{
			Theme:       "dark",
			ShowStats:   true,
			CompactMode: false,
			WordWrap:    0,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the persona-tui configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".persona"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// ensureSecurePermissions checks and fixes permissions on config files.
// Config files hold the API key and should be owner-only.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the default config file, falling back
// to defaults when no file exists. Environment overrides apply last.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific TOML file. A
// missing file is not an error; defaults are used.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if err := ensureSecurePermissions(path); err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not ensure secure permissions on %s: %v\n", path, err)
		}
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyEnvOverrides applies PERSONA_* environment variables on top of
// the loaded configuration.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("PERSONA_BASE_URL"); v != "" {
		c.Provider.BaseURL = v
	}
	if v := os.Getenv("PERSONA_API_KEY"); v != "" {
		c.Provider.APIKey = v
	}
	if v := os.Getenv("PERSONA_MODEL"); v != "" {
		c.Provider.Model = v
	}
	if v := os.Getenv("PERSONA_THEME"); v != "" {
		c.UI.Theme = v
	}
}

// fillDefaults fills in any missing values with defaults.
func (c *Config) fillDefaults() {
	defaults := Default()

	if c.Provider.AuthHeader == "" {
		c.Provider.AuthHeader = defaults.Provider.AuthHeader
	}
	if c.Provider.AuthScheme == "" {
		c.Provider.AuthScheme = defaults.Provider.AuthScheme
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks configuration invariants. Provider fields are only
// shape-checked here; completeness is checked at send time so the app
// can start unconfigured and fall back to canned replies.
func (c *Config) Validate() error {
	switch c.UI.Theme {
	case "dark", "light", "auto":
	default:
		return fmt.Errorf("ui.theme: must be one of dark, light, auto (got %q)", c.UI.Theme)
	}
	if c.UI.WordWrap < 0 {
		return fmt.Errorf("ui.word_wrap: must be >= 0")
	}
	return nil
}

// ToProviderConfig converts to the provider package's config type.
func (c *Config) ToProviderConfig() provider.Config {
	return provider.Config{
		BaseURL:    c.Provider.BaseURL,
		APIKey:     c.Provider.APIKey,
		Model:      c.Provider.Model,
		AuthHeader: c.Provider.AuthHeader,
		AuthScheme: c.Provider.AuthScheme,
	}
}

// IsProviderConfigured reports whether enough provider settings exist
// to attempt a real request.
func (c *Config) IsProviderConfigured() bool {
	return c.ToProviderConfig().Normalize().IsConfigured()
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveToPath(cfg, path)
}

// SaveToPath saves the configuration to a TOML file with owner-only
// permissions.
func SaveToPath(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}

	fmt.Fprintln(file, "# persona-tui configuration file")
	fmt.Fprintln(file, "# Generated by persona-tui - edit with care")
	fmt.Fprintln(file, "")

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}
