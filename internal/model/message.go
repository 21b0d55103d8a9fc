// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for characters, conversations
// and messages.
package model

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/persona-tui/internal/util"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Character"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in a conversation.
type Message struct {
	// Identity
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`

	// Content
	Content string `json:"content"`

	// Streaming state (not persisted). streamContent collects deltas
	// without reallocating the full string on every token.
	IsStreaming   bool            `json:"-"`
	streamContent strings.Builder `json:"-"`

	// Token statistics
	TokenCount int `json:"token_count,omitempty"`

	// Generation metrics (for assistant messages)
	TTFT          time.Duration `json:"ttft_ns,omitempty"`
	TotalDuration time.Duration `json:"total_duration_ns,omitempty"`
	TokensPerSec  float64       `json:"tokens_per_sec,omitempty"`
}

// NewMessage creates a new message with a generated ID.
func NewMessage(role Role, content string) *Message {
	return &Message{
		ID:        generateID(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) *Message {
	return NewMessage(RoleUser, content)
}

// NewAssistantMessage creates a new streaming assistant message.
func NewAssistantMessage() *Message {
	return &Message{
		ID:          generateID(),
		Role:        RoleAssistant,
		Timestamp:   time.Now(),
		IsStreaming: true,
	}
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) *Message {
	return NewMessage(RoleSystem, content)
}

// =============================================================================
// MESSAGE METHODS
// =============================================================================

// AppendToken appends a token to a streaming message.
func (m *Message) AppendToken(token string) {
	if m.IsStreaming {
		m.streamContent.WriteString(token)
	}
}

// FinalizeStream completes streaming and sets statistics.
func (m *Message) FinalizeStream(stats *Statistics) {
	if !m.IsStreaming {
		return
	}

	m.Content = m.streamContent.String()
	m.streamContent.Reset()
	m.IsStreaming = false

	if stats != nil {
		m.TTFT = stats.TTFT
		m.TotalDuration = stats.TotalDuration
		m.TokenCount = stats.CompletionTokens
		m.TokensPerSec = stats.TokensPerSecond
	}
}

// FailStream completes streaming with the partial content received so far,
// appending a short notice so the transcript shows the reply was cut off.
func (m *Message) FailStream(notice string) {
	if !m.IsStreaming {
		return
	}

	m.Content = m.streamContent.String()
	m.streamContent.Reset()
	m.IsStreaming = false

	if notice != "" {
		if m.Content != "" {
			m.Content += "\n\n"
		}
		m.Content += notice
	}
}

// Clone returns an independent copy. The struct is rebuilt rather than
// copied by value: a non-zero strings.Builder must never be copied, so
// an in-flight message seeds a fresh builder with the content received
// so far.
func (m *Message) Clone() *Message {
	clone := &Message{
		ID:            m.ID,
		Role:          m.Role,
		Timestamp:     m.Timestamp,
		Content:       m.Content,
		IsStreaming:   m.IsStreaming,
		TokenCount:    m.TokenCount,
		TTFT:          m.TTFT,
		TotalDuration: m.TotalDuration,
		TokensPerSec:  m.TokensPerSec,
	}
	if m.IsStreaming {
		clone.streamContent.WriteString(m.streamContent.String())
	}
	return clone
}

// GetDisplayContent returns the content to display (streaming or final).
func (m *Message) GetDisplayContent() string {
	if m.IsStreaming {
		return m.streamContent.String()
	}
	return m.Content
}

// Preview returns a truncated preview of the message content.
func (m *Message) Preview(maxLen int) string {
	return util.TruncateRunes(m.GetDisplayContent(), maxLen)
}

// IsEmpty returns true if the message has no content.
func (m *Message) IsEmpty() bool {
	return len(m.Content) == 0 && m.streamContent.Len() == 0
}

// EstimateTokens gives a rough estimate of token count.
// Uses the approximation of ~4 characters per token.
func (m *Message) EstimateTokens() int {
	content := m.GetDisplayContent()
	return (len(content) + 3) / 4
}

// FormatStats returns a formatted statistics line for assistant messages.
func (m *Message) FormatStats() string {
	if m.Role != RoleAssistant || m.TotalDuration == 0 {
		return ""
	}
	return fmt.Sprintf("%s | %d tokens | %.1f tok/s | TTFT %dms",
		formatDuration(m.TotalDuration),
		m.TokenCount,
		m.TokensPerSec,
		m.TTFT.Milliseconds())
}

// =============================================================================
// STATISTICS TYPE
// =============================================================================

// Statistics holds timing and token count information for a generation.
type Statistics struct {
	StartTime      time.Time
	FirstTokenTime time.Time
	EndTime        time.Time

	PromptTokens     int
	CompletionTokens int

	// Derived metrics (computed on Finalize)
	TTFT            time.Duration
	TotalDuration   time.Duration
	TokensPerSecond float64
}

// NewStatistics creates a new Statistics with the start time set.
func NewStatistics() *Statistics {
	return &Statistics{
		StartTime: time.Now(),
	}
}

// RecordFirstToken records when the first token was received.
func (s *Statistics) RecordFirstToken() {
	if s.FirstTokenTime.IsZero() {
		s.FirstTokenTime = time.Now()
		s.TTFT = s.FirstTokenTime.Sub(s.StartTime)
	}
}

// Finalize computes the final statistics.
func (s *Statistics) Finalize(tokenCount int) {
	s.EndTime = time.Now()
	s.CompletionTokens = tokenCount
	s.TotalDuration = s.EndTime.Sub(s.StartTime)

	if s.TotalDuration > 0 {
		s.TokensPerSecond = float64(tokenCount) / s.TotalDuration.Seconds()
	}
}

// Format returns a formatted string of the statistics.
func (s *Statistics) Format() string {
	return fmt.Sprintf("%s | %d tokens | %.1f tok/s | TTFT %dms",
		formatDuration(s.TotalDuration),
		s.CompletionTokens,
		s.TokensPerSecond,
		s.TTFT.Milliseconds())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// generateID creates a unique message ID.
func generateID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return "msg_" + hex.EncodeToString(bytes)
}

// formatDuration renders sub-second durations in milliseconds and longer
// ones in seconds with one decimal.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
