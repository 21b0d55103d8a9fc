// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and persists the persona-tui configuration.
//
// The config file lives at ~/.persona/config.toml and holds the
// provider endpoint settings and UI preferences. PERSONA_BASE_URL,
// PERSONA_API_KEY, PERSONA_MODEL and PERSONA_THEME override the file.
// Watcher reloads the file on change so credentials can be rotated
// without restarting the app.
package config
