// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for characters, conversations
// and messages.
package model

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/jeranaias/persona-tui/internal/provider"
)

// MaxMessages is the maximum number of messages to keep in conversation
// history. When exceeded, old messages are pruned to prevent unbounded
// memory growth.
const MaxMessages = 1000

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds a complete chat with one character.
type Conversation struct {
	// Identity
	ID          string    `json:"id"`
	CharacterID string    `json:"character_id"`
	Title       string    `json:"title"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Messages
	Messages []*Message `json:"messages"`

	// Archives holds snapshots of earlier message sequences with this
	// character, oldest first. They are destroyed only with the
	// character.
	Archives []*ConversationArchive `json:"archives,omitempty"`

	// Model used for this conversation
	Model string `json:"model,omitempty"`

	// System prompt captured from the character at creation time, so
	// editing a character later does not rewrite past conversations.
	SystemPrompt string `json:"system_prompt,omitempty"`

	// Token tracking
	TokensUsed int `json:"tokens_used"`
}

// NewConversation creates a new conversation with a generated ID.
func NewConversation(characterID string) *Conversation {
	return &Conversation{
		ID:          generateConversationID(),
		CharacterID: characterID,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		Messages:    make([]*Message, 0),
	}
}

// NewConversationWithCharacter creates a conversation seeded from a
// character: the system prompt is captured and the opening message, if
// any, becomes the first assistant message.
func NewConversationWithCharacter(ch *Character) *Conversation {
	conv := NewConversation(ch.ID)
	conv.SystemPrompt = ch.SystemPrompt()
	if ch.OpeningMessage != "" {
		opening := NewMessage(RoleAssistant, ch.OpeningMessage)
		conv.Messages = append(conv.Messages, opening)
	}
	return conv
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// AddMessage adds a message to the conversation.
func (c *Conversation) AddMessage(msg *Message) {
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = time.Now()
	c.updateTokenEstimate()
	c.updateTitle()
	c.pruneOldMessages()
}

// AddUserMessage creates and adds a user message.
func (c *Conversation) AddUserMessage(content string) *Message {
	msg := NewUserMessage(content)
	c.AddMessage(msg)
	return msg
}

// AddAssistantMessage creates and adds a streaming assistant message.
func (c *Conversation) AddAssistantMessage() *Message {
	msg := NewAssistantMessage()
	c.AddMessage(msg)
	return msg
}

// AddSystemMessage creates and adds a system message.
func (c *Conversation) AddSystemMessage(content string) *Message {
	msg := NewSystemMessage(content)
	c.AddMessage(msg)
	return msg
}

// GetLastMessage returns the most recent message, or nil if empty.
func (c *Conversation) GetLastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// GetLastAssistantMessage returns the most recent assistant message.
func (c *Conversation) GetLastAssistantMessage() *Message {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == RoleAssistant {
			return c.Messages[i]
		}
	}
	return nil
}

// GetLastUserMessage returns the most recent user message.
func (c *Conversation) GetLastUserMessage() *Message {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == RoleUser {
			return c.Messages[i]
		}
	}
	return nil
}

// AppendToLast appends a token to the last (streaming) message.
func (c *Conversation) AppendToLast(token string) {
	last := c.GetLastMessage()
	if last != nil && last.IsStreaming {
		last.AppendToken(token)
	}
}

// FinalizeLast finalizes the last streaming message with statistics.
func (c *Conversation) FinalizeLast(stats *Statistics) {
	last := c.GetLastMessage()
	if last != nil && last.IsStreaming {
		last.FinalizeStream(stats)
		c.updateTokenEstimate()
	}
}

// ConversationArchive is a snapshot of a finished message sequence.
type ConversationArchive struct {
	ArchivedAt time.Time  `json:"archived_at"`
	Title      string     `json:"title,omitempty"`
	Messages   []*Message `json:"messages"`
}

// Archive snapshots the current message sequence and starts fresh.
// A no-op returning false when there are no messages to keep.
func (c *Conversation) Archive() bool {
	if len(c.Messages) == 0 {
		return false
	}

	c.Archives = append(c.Archives, &ConversationArchive{
		ArchivedAt: time.Now(),
		Title:      c.GetTitle(),
		Messages:   c.Messages,
	})

	c.Messages = make([]*Message, 0)
	c.Title = ""
	c.TokensUsed = 0
	c.UpdatedAt = time.Now()
	return true
}

// ClearHistory removes all messages from the conversation.
func (c *Conversation) ClearHistory() {
	c.Messages = make([]*Message, 0)
	c.TokensUsed = 0
	c.UpdatedAt = time.Now()
}

// RemoveMessage removes a message by ID.
func (c *Conversation) RemoveMessage(id string) bool {
	for i, msg := range c.Messages {
		if msg.ID == id {
			c.Messages = append(c.Messages[:i], c.Messages[i+1:]...)
			c.UpdatedAt = time.Now()
			c.updateTokenEstimate()
			return true
		}
	}
	return false
}

// MessageCount returns the number of messages.
func (c *Conversation) MessageCount() int {
	return len(c.Messages)
}

// IsEmpty returns true if there are no messages.
func (c *Conversation) IsEmpty() bool {
	return len(c.Messages) == 0
}

// GetHistory returns the message history for display.
func (c *Conversation) GetHistory() []*Message {
	return c.Messages
}

// =============================================================================
// PROVIDER CONVERSION
// =============================================================================

// ToChatMessages converts the conversation to the provider wire format.
// The captured system prompt goes first; system notices shown in the
// transcript are skipped.
func (c *Conversation) ToChatMessages() []provider.ChatMessage {
	messages := make([]provider.ChatMessage, 0, len(c.Messages)+1)

	if c.SystemPrompt != "" {
		messages = append(messages, provider.NewSystemMessage(c.SystemPrompt))
	}

	for _, msg := range c.Messages {
		content := msg.GetDisplayContent()
		if content == "" {
			continue
		}
		switch msg.Role {
		case RoleUser:
			messages = append(messages, provider.NewUserMessage(content))
		case RoleAssistant:
			messages = append(messages, provider.NewAssistantMessage(content))
		}
	}

	return messages
}

// =============================================================================
// TOKEN TRACKING
// =============================================================================

// EstimateTokens estimates the total token count of the conversation.
func (c *Conversation) EstimateTokens() int {
	total := 0

	if c.SystemPrompt != "" {
		total += (len(c.SystemPrompt) + 3) / 4
	}

	for _, msg := range c.Messages {
		total += msg.EstimateTokens()
		// Overhead for message structure (~4 tokens per message)
		total += 4
	}

	return total
}

// updateTokenEstimate updates the token usage estimate.
func (c *Conversation) updateTokenEstimate() {
	c.TokensUsed = c.EstimateTokens()
}

// =============================================================================
// TITLE MANAGEMENT
// =============================================================================

// updateTitle auto-generates a title from the first user message if not set.
func (c *Conversation) updateTitle() {
	if c.Title != "" {
		return
	}

	for _, msg := range c.Messages {
		if msg.Role == RoleUser {
			c.Title = msg.Preview(50)
			return
		}
	}
}

// SetTitle manually sets the conversation title.
func (c *Conversation) SetTitle(title string) {
	c.Title = title
	c.UpdatedAt = time.Now()
}

// GetTitle returns the conversation title or a default.
func (c *Conversation) GetTitle() string {
	if c.Title != "" {
		return c.Title
	}
	return "New Conversation"
}

// =============================================================================
// METADATA
// =============================================================================

// Preview returns a short preview of the conversation.
func (c *Conversation) Preview() string {
	if len(c.Messages) == 0 {
		return "Empty conversation"
	}

	last := c.GetLastUserMessage()
	if last == nil {
		last = c.Messages[0]
	}

	return last.Preview(100)
}

// GetMeta returns metadata about the conversation.
func (c *Conversation) GetMeta() ConversationMeta {
	return ConversationMeta{
		ID:           c.ID,
		CharacterID:  c.CharacterID,
		Title:        c.GetTitle(),
		Model:        c.Model,
		MessageCount: len(c.Messages),
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
		Preview:      c.Preview(),
	}
}

// ConversationMeta holds lightweight metadata for listing.
type ConversationMeta struct {
	ID           string    `json:"id"`
	CharacterID  string    `json:"character_id"`
	Title        string    `json:"title"`
	Model        string    `json:"model,omitempty"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Preview      string    `json:"preview"`
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// generateConversationID creates a unique conversation ID.
func generateConversationID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return "conv_" + hex.EncodeToString(bytes)
}

// Clone creates a deep copy of the conversation.
func (c *Conversation) Clone() *Conversation {
	clone := &Conversation{
		ID:           c.ID,
		CharacterID:  c.CharacterID,
		Title:        c.Title,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
		Model:        c.Model,
		TokensUsed:   c.TokensUsed,
		SystemPrompt: c.SystemPrompt,
		Messages:     make([]*Message, len(c.Messages)),
	}

	for i, msg := range c.Messages {
		clone.Messages[i] = msg.Clone()
	}

	// Archive snapshots are immutable once taken, so sharing them is safe.
	clone.Archives = append([]*ConversationArchive(nil), c.Archives...)

	return clone
}

// pruneOldMessages removes old messages when history exceeds MaxMessages.
// System messages are always preserved.
func (c *Conversation) pruneOldMessages() {
	if len(c.Messages) <= MaxMessages {
		return
	}

	var systemMessages []*Message
	var otherMessages []*Message
	for _, msg := range c.Messages {
		if msg.Role == RoleSystem {
			systemMessages = append(systemMessages, msg)
		} else {
			otherMessages = append(otherMessages, msg)
		}
	}

	if len(otherMessages) > MaxMessages {
		otherMessages = otherMessages[len(otherMessages)-MaxMessages:]
	}

	c.Messages = make([]*Message, 0, len(systemMessages)+len(otherMessages))
	c.Messages = append(c.Messages, systemMessages...)
	c.Messages = append(c.Messages, otherMessages...)
}
