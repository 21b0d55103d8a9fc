// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual UI components for persona-tui.
//
// Components are plain renderers: they hold display state, take a theme
// from the styles package, and produce strings for the Bubble Tea view.
// They do not handle input themselves; the chat model drives them.
//
// Current components:
//
//   - StatusBar: bottom bar with character, provider state and key hints
//   - Roster: selectable character list panel
package components
