// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/persona-tui/internal/provider"
)

// =============================================================================
// STATE MACHINE
// =============================================================================

// State is the lifecycle position of one streaming session.
type State int

const (
	// StateIdle means Run has not been called yet.
	StateIdle State = iota

	// StateRequesting means the request is being validated and sent.
	StateRequesting

	// StateStreaming means the response stream is open and frames are
	// being consumed.
	StateStreaming

	// StateDone means the stream completed normally.
	StateDone

	// StateFailed means the stream ended with an error or timeout.
	StateFailed

	// StateCancelled means the caller cancelled the session.
	StateCancelled
)

// String returns the lowercase name of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequesting:
		return "requesting"
	case StateStreaming:
		return "streaming"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether the session has reached a final state.
func (s State) IsTerminal() bool {
	return s == StateDone || s == StateFailed || s == StateCancelled
}

// ErrAlreadyRunning is returned when Run is called on an active or
// finished controller.
var ErrAlreadyRunning = errors.New("session already started")

// ErrCancelled is delivered to OnError when the caller cancels the
// session mid-stream.
var ErrCancelled = errors.New("session cancelled")

// Callbacks receive the session's output. Exactly one of OnDone or
// OnError fires per session, after which no callback is invoked again.
type Callbacks struct {
	// OnDelta receives each content fragment in arrival order.
	OnDelta func(content string)

	// OnDone receives the full accumulated reply on normal completion.
	OnDone func(full string)

	// OnError receives the terminal error: configuration, transport,
	// timeout, or cancellation.
	OnError func(err error)
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller runs one streaming chat completion. A controller is single
// use: create a fresh one per request.
type Controller struct {
	client *provider.Client
	idle   time.Duration
	hard   time.Duration

	mu       sync.Mutex
	state    State
	cancel   context.CancelFunc
	finished bool

	accumulated strings.Builder
}

// NewController creates a controller with the default timeout policy.
func NewController(client *provider.Client) *Controller {
	return &Controller{
		client: client,
		idle:   DefaultIdleTimeout,
		hard:   DefaultHardTimeout,
		state:  StateIdle,
	}
}

// WithTimeouts overrides the idle and hard timeout windows.
func (c *Controller) WithTimeouts(idle, hard time.Duration) *Controller {
	c.idle = idle
	c.hard = hard
	return c
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Cancel aborts an in-flight session. The transcript keeps whatever
// content already arrived; OnError fires with ErrCancelled.
func (c *Controller) Cancel() {
	c.mu.Lock()
	cancel := c.cancel
	if !c.state.IsTerminal() && c.state != StateIdle {
		c.state = StateCancelled
	}
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Accumulated returns the content received so far. Useful after a
// failure to salvage a partial reply.
func (c *Controller) Accumulated() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accumulated.String()
}

// readEvent carries one frame (or read error) from the reader goroutine.
type readEvent struct {
	data []byte
	err  error
}

// openResult carries the outcome of the stream open running in its own
// goroutine, so the governor applies while the request is in flight.
type openResult struct {
	body io.ReadCloser
	err  error
}

// closeOpened reaps the body of an open that lost the race against
// cancellation or a timeout.
func closeOpened(opened <-chan openResult) {
	if res := <-opened; res.body != nil {
		res.body.Close()
	}
}

// Run executes the session to a terminal state. It blocks until OnDone
// or OnError has fired. Configuration problems are reported through
// OnError before any network activity.
func (c *Controller) Run(ctx context.Context, messages []provider.ChatMessage, cb Callbacks) {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		c.deliverError(cb, ErrAlreadyRunning)
		return
	}
	c.state = StateRequesting
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()
	defer cancel()

	// Config check happens before the socket is touched.
	if err := c.client.Config().Validate(); err != nil {
		c.finish(StateFailed, cb, func() { c.deliverError(cb, err) })
		return
	}

	// Both deadlines cover the in-flight request too: the idle clock
	// starts counting at request start, not at the first frame.
	gov := NewGovernor(c.idle, c.hard)
	gov.Start()
	defer gov.Stop()

	opened := make(chan openResult, 1)
	go func() {
		body, err := c.client.OpenStream(runCtx, messages)
		opened <- openResult{body: body, err: err}
	}()

	var body io.ReadCloser
	select {
	case <-runCtx.Done():
		go closeOpened(opened)
		c.finish(StateCancelled, cb, func() { c.deliverError(cb, ErrCancelled) })
		return

	case te := <-gov.Expired():
		// A provider that accepted the connection but never answered.
		// Cancelling the context aborts the in-flight request.
		cancel()
		go closeOpened(opened)
		c.finish(StateFailed, cb, func() { c.deliverError(cb, te) })
		return

	case res := <-opened:
		if res.err != nil {
			if runCtx.Err() != nil {
				c.finish(StateCancelled, cb, func() { c.deliverError(cb, ErrCancelled) })
				return
			}
			c.finish(StateFailed, cb, func() { c.deliverError(cb, res.err) })
			return
		}
		body = res.body
	}
	defer body.Close()

	c.setState(StateStreaming)

	events := make(chan readEvent)
	go func() {
		reader := provider.NewSSEReader(body)
		for {
			data, err := reader.ReadEvent()
			select {
			case events <- readEvent{data: data, err: err}:
			case <-runCtx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-runCtx.Done():
			c.finish(StateCancelled, cb, func() { c.deliverError(cb, ErrCancelled) })
			return

		case te := <-gov.Expired():
			// Closing the body unblocks the reader goroutine.
			body.Close()
			c.finish(StateFailed, cb, func() { c.deliverError(cb, te) })
			return

		case ev := <-events:
			if ev.err != nil {
				if ev.err == io.EOF {
					// Clean end of stream without an explicit done
					// marker still counts as completion.
					c.finish(StateDone, cb, func() { c.deliverDone(cb) })
					return
				}
				if runCtx.Err() != nil {
					c.finish(StateCancelled, cb, func() { c.deliverError(cb, ErrCancelled) })
					return
				}
				c.finish(StateFailed, cb, func() { c.deliverError(cb, ev.err) })
				return
			}

			// Every frame is activity, even an empty keep-alive.
			gov.Touch()

			content, done, ok := provider.ExtractDelta(ev.data)
			if !ok {
				continue
			}
			if content != "" {
				c.mu.Lock()
				c.accumulated.WriteString(content)
				c.mu.Unlock()
				if cb.OnDelta != nil {
					cb.OnDelta(content)
				}
			}
			if done {
				c.finish(StateDone, cb, func() { c.deliverDone(cb) })
				return
			}
		}
	}
}

// setState updates the state unless a terminal state was already reached.
func (c *Controller) setState(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.state.IsTerminal() {
		c.state = s
	}
}

// finish moves to a terminal state and runs deliver exactly once.
// Callbacks execute outside the lock.
func (c *Controller) finish(s State, cb Callbacks, deliver func()) {
	c.mu.Lock()
	if c.finished {
		c.mu.Unlock()
		return
	}
	c.finished = true
	if !c.state.IsTerminal() {
		c.state = s
	}
	c.mu.Unlock()

	deliver()
}

func (c *Controller) deliverDone(cb Callbacks) {
	if cb.OnDone != nil {
		cb.OnDone(c.Accumulated())
	}
}

func (c *Controller) deliverError(cb Callbacks, err error) {
	if cb.OnError != nil {
		cb.OnError(err)
	}
}
