// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// The package is organized around the Bubble Tea model-update-view
// cycle:
//
//   - model.go: the Model, its construction and state helpers
//   - update.go: the update loop, key handling and the send flow
//   - view.go: rendering of the transcript and its surrounding chrome
//   - messages.go: the tea.Msg catalog
//   - commands.go: slash command registry and handlers
//   - streaming.go: fragment batching for smooth streamed rendering
//   - runner.go: the goroutine bridge from reply streams to tea messages
//
// Replies stream either from a configured OpenAI-compatible provider
// or, when no provider is configured, from the built-in canned replies.
// The in-flight reply is rendered with a cheap markdown pass on each
// flush; once committed, it gets the full structured-block render.
package chat
