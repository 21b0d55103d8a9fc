// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"errors"
	"fmt"
	"strings"
)

// Defaults for provider configuration.
const (
	// DefaultAuthHeader is the header carrying the API credential.
	DefaultAuthHeader = "Authorization"

	// DefaultAuthScheme prefixes the credential in the auth header.
	DefaultAuthScheme = "Bearer"

	// chatCompletionsPath is appended to the base URL for streaming chat.
	chatCompletionsPath = "/chat/completions"

	// modelsPath is appended to the base URL for model discovery.
	modelsPath = "/models"
)

// Error variables for common provider errors.
var (
	// ErrNotConfigured indicates required provider settings are missing.
	ErrNotConfigured = errors.New("provider not configured")

	// ErrAuthFailed indicates authentication failed (invalid or expired API key).
	ErrAuthFailed = errors.New("authentication failed")

	// ErrRateLimited indicates too many requests were made.
	ErrRateLimited = errors.New("rate limited")

	// ErrModelNotFound indicates the requested model does not exist.
	ErrModelNotFound = errors.New("model not found")
)

// ConfigError reports a missing or invalid provider setting. It is
// returned before any network request is attempted.
type ConfigError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("provider config: %s %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("provider config: %s is required", e.Field)
}

// Is allows ConfigError to be compared with ErrNotConfigured.
func (e *ConfigError) Is(target error) bool {
	return target == ErrNotConfigured
}

// Config holds the settings for an OpenAI-compatible chat endpoint.
type Config struct {
	// BaseURL is the API root, e.g. "https://api.example.com/v1".
	// A trailing slash is tolerated.
	BaseURL string

	// APIKey is the credential sent on every request.
	APIKey string

	// Model is the identifier sent in the request body.
	Model string

	// AuthHeader and AuthScheme control how the credential is sent,
	// e.g. "Authorization: Bearer <key>". Empty values fall back to
	// the defaults.
	AuthHeader string
	AuthScheme string
}

// Normalize fills in defaults and trims stray whitespace and slashes.
func (c Config) Normalize() Config {
	c.BaseURL = strings.TrimSuffix(strings.TrimSpace(c.BaseURL), "/")
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.Model = strings.TrimSpace(c.Model)
	if c.AuthHeader == "" {
		c.AuthHeader = DefaultAuthHeader
	}
	if c.AuthScheme == "" {
		c.AuthScheme = DefaultAuthScheme
	}
	return c
}

// Validate checks that every required setting is present. It never
// touches the network, so callers can surface the error before a
// request is made.
func (c Config) Validate() error {
	n := c.Normalize()
	if n.BaseURL == "" {
		return &ConfigError{Field: "base_url"}
	}
	if n.APIKey == "" {
		return &ConfigError{Field: "api_key"}
	}
	if n.Model == "" {
		return &ConfigError{Field: "model"}
	}
	return nil
}

// IsConfigured reports whether Validate would pass.
func (c Config) IsConfigured() bool {
	return c.Validate() == nil
}
