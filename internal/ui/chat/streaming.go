// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file implements streaming optimization for smooth, flicker-free
// rendering while a reply streams in. The StreamingBuffer batches
// fragments and releases them at a capped frame rate so the viewport is
// not rebuilt on every delta.
package chat

import (
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// STREAMING BUFFER
// =============================================================================

// StreamingBuffer batches streamed fragments for efficient rendering.
// Fragments accumulate until either the batch size threshold is reached
// or enough time has passed since the last flush.
//
// Thread-safety: Write is called from the streaming goroutine while
// Flush runs in the Bubble Tea loop, so every operation takes the mutex.
type StreamingBuffer struct {
	mu            sync.Mutex
	buffer        strings.Builder
	fragmentCount int
	lastFlush     time.Time

	batchSize  int           // Fragments per batch
	minFlushMs time.Duration // Min time between flushes (1000/maxFPS)
}

// NewStreamingBuffer creates a streaming buffer with default settings:
// 15 fragments per batch, flushed at most 30 times per second.
func NewStreamingBuffer() *StreamingBuffer {
	const (
		defaultBatchSize = 15
		defaultMaxFPS    = 30
	)
	return NewStreamingBufferWithConfig(defaultBatchSize, defaultMaxFPS)
}

// NewStreamingBufferWithConfig creates a streaming buffer with custom
// batch size and frame rate. Out-of-range values fall back to defaults.
func NewStreamingBufferWithConfig(batchSize, maxFPS int) *StreamingBuffer {
	if batchSize <= 0 {
		batchSize = 15
	}
	if maxFPS <= 0 || maxFPS > 60 {
		maxFPS = 30
	}

	return &StreamingBuffer{
		batchSize:  batchSize,
		minFlushMs: time.Duration(1000/maxFPS) * time.Millisecond,
		lastFlush:  time.Now(),
	}
}

// Write adds a fragment to the buffer. Called from the streaming
// goroutine.
func (sb *StreamingBuffer) Write(fragment string) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	sb.buffer.WriteString(fragment)
	sb.fragmentCount++
}

// Flush returns the accumulated content if a flush threshold has been
// reached. Returns ("", false) when nothing should be released yet.
// Called from the Bubble Tea loop on each stream tick.
func (sb *StreamingBuffer) Flush() (string, bool) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if !sb.shouldFlushLocked() {
		return "", false
	}
	return sb.drainLocked()
}

// shouldFlushLocked checks flush conditions. Caller must hold the lock.
func (sb *StreamingBuffer) shouldFlushLocked() bool {
	if sb.buffer.Len() == 0 {
		return false
	}
	if sb.fragmentCount >= sb.batchSize {
		return true
	}
	return time.Since(sb.lastFlush) >= sb.minFlushMs
}

// drainLocked extracts the content and resets the buffer. Caller must
// hold the lock.
func (sb *StreamingBuffer) drainLocked() (string, bool) {
	if sb.buffer.Len() == 0 {
		return "", false
	}
	content := sb.buffer.String()
	sb.buffer.Reset()
	sb.fragmentCount = 0
	sb.lastFlush = time.Now()
	return content, true
}

// ForceFlush immediately returns all buffered content regardless of
// thresholds. Use when a stream completes so no fragment is lost.
func (sb *StreamingBuffer) ForceFlush() (string, bool) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.drainLocked()
}

// Reset clears the buffer without flushing. Use when cancelling a
// stream or starting a new message.
func (sb *StreamingBuffer) Reset() {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	sb.buffer.Reset()
	sb.fragmentCount = 0
	sb.lastFlush = time.Now()
}

// Pending returns the number of fragments waiting to be flushed.
func (sb *StreamingBuffer) Pending() int {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.fragmentCount
}

// =============================================================================
// STREAMING TICK COMMAND
// =============================================================================

// streamTickCmd creates a tea.Cmd that sends StreamTickMsg at 30fps
// while a stream is active.
func streamTickCmd() tea.Cmd {
	return tea.Tick(33*time.Millisecond, func(t time.Time) tea.Msg {
		return StreamTickMsg{Time: t}
	})
}
