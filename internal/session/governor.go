// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session drives one streaming chat completion from request to
// terminal state, enforcing timeout policy along the way.
package session

import (
	"fmt"
	"sync"
	"time"
)

// Default timeout policy for a streaming session.
const (
	// DefaultIdleTimeout is the maximum silence between frames before
	// the stream is considered stalled.
	DefaultIdleTimeout = 20 * time.Second

	// DefaultHardTimeout caps the total stream duration regardless of
	// activity.
	DefaultHardTimeout = 120 * time.Second
)

// TimeoutReason distinguishes why a stream was cut off.
type TimeoutReason string

const (
	// TimeoutIdle means no frame arrived within the idle window.
	TimeoutIdle TimeoutReason = "idle-timeout"

	// TimeoutHard means the total duration cap was reached.
	TimeoutHard TimeoutReason = "hard-timeout"
)

// TimeoutError is delivered when the governor cuts a stream off.
type TimeoutError struct {
	Reason  TimeoutReason
	Elapsed time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	switch e.Reason {
	case TimeoutIdle:
		return fmt.Sprintf("stream stalled: no data for %s (%s)", e.Elapsed.Round(time.Second), e.Reason)
	case TimeoutHard:
		return fmt.Sprintf("stream exceeded maximum duration %s (%s)", e.Elapsed.Round(time.Second), e.Reason)
	default:
		return fmt.Sprintf("stream timeout (%s)", e.Reason)
	}
}

// Governor watches a stream for stalls. The idle timer re-arms on every
// received frame, content-bearing or not; the hard timer never re-arms.
// Whichever fires first wins and later firings are ignored.
type Governor struct {
	idle time.Duration
	hard time.Duration

	mu        sync.Mutex
	idleTimer *time.Timer
	hardTimer *time.Timer
	started   time.Time
	stopped   bool

	fired chan *TimeoutError
}

// NewGovernor creates a governor with the given windows. Zero or
// negative durations fall back to the defaults.
func NewGovernor(idle, hard time.Duration) *Governor {
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	if hard <= 0 {
		hard = DefaultHardTimeout
	}
	return &Governor{
		idle:  idle,
		hard:  hard,
		fired: make(chan *TimeoutError, 1),
	}
}

// Start arms both timers. The idle window begins counting immediately,
// so a stream that never produces a first frame still times out.
func (g *Governor) Start() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idleTimer != nil || g.stopped {
		return
	}

	g.started = time.Now()
	g.idleTimer = time.AfterFunc(g.idle, func() {
		g.fire(TimeoutIdle)
	})
	g.hardTimer = time.AfterFunc(g.hard, func() {
		g.fire(TimeoutHard)
	})
}

// Touch resets the idle window. Call it for every received frame, even
// ones carrying no content.
func (g *Governor) Touch() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idleTimer == nil || g.stopped {
		return
	}
	g.idleTimer.Reset(g.idle)
}

// Stop disarms both timers. Safe to call more than once.
func (g *Governor) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.stopped = true
	if g.idleTimer != nil {
		g.idleTimer.Stop()
	}
	if g.hardTimer != nil {
		g.hardTimer.Stop()
	}
}

// Expired delivers at most one timeout for the lifetime of the governor.
func (g *Governor) Expired() <-chan *TimeoutError {
	return g.fired
}

// fire records the first timeout and drops the rest.
func (g *Governor) fire(reason TimeoutReason) {
	g.mu.Lock()
	if g.stopped {
		g.mu.Unlock()
		return
	}
	elapsed := time.Since(g.started)
	g.mu.Unlock()

	select {
	case g.fired <- &TimeoutError{Reason: reason, Elapsed: elapsed}:
	default:
	}
}
