// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for characters, conversations
// and messages.
package model

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/persona-tui/internal/util"
)

// Validation limits for user-created characters.
const (
	MaxCharacterNameLen        = 40
	MaxCharacterDescriptionLen = 200
)

// ErrInvalidCharacter is returned when a character fails validation.
var ErrInvalidCharacter = errors.New("invalid character")

// =============================================================================
// CHARACTER TYPE
// =============================================================================

// Character is a chat persona: the name and icon shown in the roster,
// plus the persona fields that shape every reply.
type Character struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Icon        string    `json:"icon"` // emoji shown next to the name
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`

	// Personality is a short trait list woven into the system prompt.
	Personality string `json:"personality,omitempty"`

	// Background is the persona backstory sent as part of the system
	// prompt for every conversation with this character.
	Background string `json:"background,omitempty"`

	// ResponseFormat is an optional instruction appended to the system
	// prompt describing how replies should be structured.
	ResponseFormat string `json:"response_format,omitempty"`

	// OpeningMessage is shown as the character's first message when a
	// new conversation starts.
	OpeningMessage string `json:"opening_message,omitempty"`

	// Activity tracking, updated by the send flow.
	LastActive   time.Time `json:"last_active,omitempty"`
	MessageCount int       `json:"message_count,omitempty"`

	// Builtin characters ship with the app and cannot be deleted.
	Builtin bool `json:"builtin,omitempty"`
}

// NewCharacter creates a character with a generated ID.
func NewCharacter(name, icon, description string) *Character {
	return &Character{
		ID:          uuid.NewString(),
		Name:        name,
		Icon:        icon,
		Description: description,
		CreatedAt:   time.Now(),
	}
}

// Validate checks that the character is well formed.
func (c *Character) Validate() error {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return errors.New("character name is required")
	}
	if util.RuneLen(name) > MaxCharacterNameLen {
		return errors.New("character name too long")
	}
	if util.RuneLen(c.Description) > MaxCharacterDescriptionLen {
		return errors.New("character description too long")
	}
	return nil
}

// SystemPrompt assembles the system prompt sent to the provider from
// the persona fields. Returns an empty string when the character has
// no persona text at all.
func (c *Character) SystemPrompt() string {
	var parts []string
	if c.Background != "" {
		parts = append(parts, c.Background)
	}
	if c.Personality != "" {
		parts = append(parts, "性格特点: "+c.Personality)
	}
	if c.ResponseFormat != "" {
		parts = append(parts, c.ResponseFormat)
	}
	return strings.Join(parts, "\n\n")
}

// DisplayName returns the icon and name for list views.
func (c *Character) DisplayName() string {
	if c.Icon == "" {
		return c.Name
	}
	return c.Icon + " " + c.Name
}

// RecordActivity bumps the activity counters after a message is sent.
func (c *Character) RecordActivity(at time.Time) {
	c.LastActive = at
	c.MessageCount++
}
