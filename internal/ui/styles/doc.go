// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the persona-tui
// terminal interface.
//
// A Theme bundles every lipgloss style the interface uses, built from
// one of two palettes (dark or light). The active palette comes from
// the configured theme name; "auto" resolves it from the terminal
// background at startup.
//
// Usage:
//
//	theme := styles.NewTheme(cfg.UI.Theme)
//	header := theme.Header.Render("persona-tui")
package styles
