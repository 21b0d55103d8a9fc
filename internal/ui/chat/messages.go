// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file defines the Bubble Tea messages exchanged between the
// streaming goroutine, the command handlers and the update loop.
package chat

import (
	"time"

	"github.com/jeranaias/persona-tui/internal/config"
	"github.com/jeranaias/persona-tui/internal/model"
	"github.com/jeranaias/persona-tui/internal/provider"
)

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// StreamStartMsg signals that a reply stream has opened.
type StreamStartMsg struct {
	MessageID string
	StartTime time.Time
}

// StreamTokenMsg carries one content fragment from the stream.
type StreamTokenMsg struct {
	MessageID string
	Token     string
	IsFirst   bool
}

// StreamCompleteMsg signals normal completion of a reply stream.
type StreamCompleteMsg struct {
	MessageID string
	Stats     *model.Statistics
}

// StreamErrorMsg signals that a stream ended with an error. The
// placeholder message is replaced with a failure notice built from Err.
type StreamErrorMsg struct {
	MessageID string
	Err       error
}

// StreamTickMsg drives buffered fragment flushing at the render frame
// rate while a stream is active.
type StreamTickMsg struct {
	Time time.Time
}

// =============================================================================
// UI MESSAGES
// =============================================================================

// SpinnerTickMsg advances the spinner animation.
type SpinnerTickMsg struct {
	Time time.Time
}

// StatusMsg shows a transient notice in the status bar.
type StatusMsg struct {
	Text string
}

// ErrorMsg shows an error panel above the input area.
type ErrorMsg struct {
	Title   string
	Message string
}

// ClearErrorMsg dismisses the error panel.
type ClearErrorMsg struct{}

// =============================================================================
// CHARACTER AND CONFIG MESSAGES
// =============================================================================

// CharacterSwitchedMsg signals that the active character changed and
// its conversation was loaded.
type CharacterSwitchedMsg struct {
	Character    *model.Character
	Conversation *model.Conversation
}

// RosterChangedMsg signals that the character list was modified and the
// roster display should refresh.
type RosterChangedMsg struct {
	Roster []*model.Character
}

// ConfigReloadedMsg carries a freshly loaded configuration after the
// config file changed on disk.
type ConfigReloadedMsg struct {
	Config *config.Config
}

// ConfigReloadErrorMsg reports a failed live reload; the previous
// configuration stays active.
type ConfigReloadErrorMsg struct {
	Err error
}

// ModelsListMsg carries the provider's model listing for /models.
type ModelsListMsg struct {
	Models []provider.ModelInfo
	Err    error
}
