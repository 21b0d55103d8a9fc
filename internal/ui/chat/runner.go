// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/persona-tui/internal/model"
	"github.com/jeranaias/persona-tui/internal/offline"
	"github.com/jeranaias/persona-tui/internal/provider"
	"github.com/jeranaias/persona-tui/internal/session"
)

// =============================================================================
// STREAM RUNNER
// =============================================================================

// StreamRunner executes reply streams in a goroutine and feeds the
// results back into the Bubble Tea program as messages. One runner
// lives for the whole program; at most one stream is active at a time.
type StreamRunner struct {
	mu         sync.Mutex
	program    *tea.Program
	controller *session.Controller
	cancel     context.CancelFunc
}

// NewStreamRunner creates a runner. The program is attached later,
// after tea.NewProgram has been called.
func NewStreamRunner() *StreamRunner {
	return &StreamRunner{}
}

// SetProgram attaches the Bubble Tea program the runner reports to.
func (r *StreamRunner) SetProgram(p *tea.Program) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.program = p
}

// send delivers a message to the program if one is attached.
func (r *StreamRunner) send(msg tea.Msg) {
	r.mu.Lock()
	p := r.program
	r.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// Cancel aborts the in-flight stream, if any. The partial reply stays
// in the transcript.
func (r *StreamRunner) Cancel() {
	r.mu.Lock()
	ctrl := r.controller
	cancel := r.cancel
	r.mu.Unlock()

	if ctrl != nil {
		ctrl.Cancel()
	}
	if cancel != nil {
		cancel()
	}
}

// clear drops the references to the finished stream.
func (r *StreamRunner) clear() {
	r.mu.Lock()
	r.controller = nil
	r.cancel = nil
	r.mu.Unlock()
}

// Run streams a chat completion from the provider. It blocks until the
// stream reaches a terminal state, so call it in a goroutine.
func (r *StreamRunner) Run(client *provider.Client, messages []provider.ChatMessage, messageID string) {
	ctx, cancel := context.WithCancel(context.Background())
	ctrl := session.NewController(client)

	r.mu.Lock()
	r.controller = ctrl
	r.cancel = cancel
	r.mu.Unlock()
	defer r.clear()
	defer cancel()

	r.send(StreamStartMsg{MessageID: messageID, StartTime: time.Now()})

	stats := model.NewStatistics()
	isFirst := true

	ctrl.Run(ctx, messages, session.Callbacks{
		OnDelta: func(content string) {
			if isFirst {
				stats.RecordFirstToken()
			}
			r.send(StreamTokenMsg{
				MessageID: messageID,
				Token:     content,
				IsFirst:   isFirst,
			})
			isFirst = false
		},
		OnDone: func(full string) {
			stats.Finalize(len(full) / 4)
			r.send(StreamCompleteMsg{MessageID: messageID, Stats: stats})
		},
		OnError: func(err error) {
			r.send(StreamErrorMsg{MessageID: messageID, Err: err})
		},
	})
}

// RunOffline streams a canned reply for the named character. It blocks
// until the simulated stream finishes, so call it in a goroutine.
func (r *StreamRunner) RunOffline(picker *offline.Picker, characterName, messageID string) {
	ctx, cancel := context.WithCancel(context.Background())

	r.mu.Lock()
	r.cancel = cancel
	r.mu.Unlock()
	defer r.clear()
	defer cancel()

	r.send(StreamStartMsg{MessageID: messageID, StartTime: time.Now()})

	stats := model.NewStatistics()
	isFirst := true

	full, err := picker.Stream(ctx, characterName, func(fragment string) {
		if isFirst {
			stats.RecordFirstToken()
		}
		r.send(StreamTokenMsg{
			MessageID: messageID,
			Token:     fragment,
			IsFirst:   isFirst,
		})
		isFirst = false
	})
	if err != nil {
		r.send(StreamErrorMsg{MessageID: messageID, Err: session.ErrCancelled})
		return
	}

	stats.Finalize(len(full) / 4)
	r.send(StreamCompleteMsg{MessageID: messageID, Stats: stats})
}
