// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/persona-tui/internal/provider"
)

func testClient(baseURL string) *provider.Client {
	return provider.NewClient(provider.Config{
		BaseURL: baseURL,
		APIKey:  "test-key",
		Model:   "test-model",
	})
}

// streamHandler writes SSE frames with flushing between them.
func streamHandler(frames []string, frameDelay time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher, _ := w.(http.Flusher)
		for _, f := range frames {
			select {
			case <-r.Context().Done():
				return
			case <-time.After(frameDelay):
			}
			fmt.Fprint(w, f)
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}

func deltaFrame(content string) string {
	return fmt.Sprintf("data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", content)
}

// =============================================================================
// GOVERNOR TESTS
// =============================================================================

func TestGovernor_IdleTimeout(t *testing.T) {
	gov := NewGovernor(50*time.Millisecond, 10*time.Second)
	gov.Start()
	defer gov.Stop()

	select {
	case te := <-gov.Expired():
		require.Equal(t, TimeoutIdle, te.Reason)
	case <-time.After(time.Second):
		t.Fatal("idle timeout did not fire")
	}
}

func TestGovernor_TouchResetsIdle(t *testing.T) {
	gov := NewGovernor(80*time.Millisecond, 10*time.Second)
	gov.Start()
	defer gov.Stop()

	// Keep touching for longer than the idle window.
	for i := 0; i < 5; i++ {
		time.Sleep(40 * time.Millisecond)
		gov.Touch()
	}

	select {
	case te := <-gov.Expired():
		t.Fatalf("governor fired despite activity: %v", te)
	default:
	}
}

func TestGovernor_HardTimeoutDespiteActivity(t *testing.T) {
	gov := NewGovernor(100*time.Millisecond, 200*time.Millisecond)
	gov.Start()
	defer gov.Stop()

	deadline := time.After(time.Second)
	ticker := time.NewTicker(30 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case te := <-gov.Expired():
			require.Equal(t, TimeoutHard, te.Reason, "constant activity must not defer the hard cap")
			return
		case <-ticker.C:
			gov.Touch()
		case <-deadline:
			t.Fatal("hard timeout did not fire")
		}
	}
}

func TestGovernor_StopPreventsFiring(t *testing.T) {
	gov := NewGovernor(30*time.Millisecond, 60*time.Millisecond)
	gov.Start()
	gov.Stop()

	time.Sleep(120 * time.Millisecond)
	select {
	case te := <-gov.Expired():
		t.Fatalf("stopped governor fired: %v", te)
	default:
	}
}

func TestTimeoutError_ReasonStrings(t *testing.T) {
	idle := &TimeoutError{Reason: TimeoutIdle, Elapsed: 20 * time.Second}
	hard := &TimeoutError{Reason: TimeoutHard, Elapsed: 120 * time.Second}
	require.Contains(t, idle.Error(), "idle-timeout")
	require.Contains(t, hard.Error(), "hard-timeout")
	require.NotEqual(t, idle.Error(), hard.Error())
}

// =============================================================================
// CONTROLLER TESTS
// =============================================================================

// callbackRecorder counts callback invocations for exactly-once checks.
type callbackRecorder struct {
	deltas     []string
	doneCount  atomic.Int32
	errCount   atomic.Int32
	full       string
	err        error
	terminated chan struct{}
}

func newRecorder() *callbackRecorder {
	return &callbackRecorder{terminated: make(chan struct{}, 2)}
}

func (r *callbackRecorder) callbacks() Callbacks {
	return Callbacks{
		OnDelta: func(s string) { r.deltas = append(r.deltas, s) },
		OnDone: func(full string) {
			r.full = full
			r.doneCount.Add(1)
			r.terminated <- struct{}{}
		},
		OnError: func(err error) {
			r.err = err
			r.errCount.Add(1)
			r.terminated <- struct{}{}
		},
	}
}

func (r *callbackRecorder) requireExactlyOnce(t *testing.T, wantDone bool) {
	t.Helper()
	if wantDone {
		require.Equal(t, int32(1), r.doneCount.Load(), "OnDone should fire exactly once")
		require.Equal(t, int32(0), r.errCount.Load(), "OnError should not fire")
	} else {
		require.Equal(t, int32(0), r.doneCount.Load(), "OnDone should not fire")
		require.Equal(t, int32(1), r.errCount.Load(), "OnError should fire exactly once")
	}
}

func TestController_HappyPath(t *testing.T) {
	frames := []string{
		deltaFrame("Hello"),
		deltaFrame(", "),
		deltaFrame("world"),
		"data: [DONE]\n\n",
	}
	server := httptest.NewServer(streamHandler(frames, 5*time.Millisecond))
	defer server.Close()

	rec := newRecorder()
	ctl := NewController(testClient(server.URL))
	ctl.Run(context.Background(), []provider.ChatMessage{provider.NewUserMessage("hi")}, rec.callbacks())

	rec.requireExactlyOnce(t, true)
	require.Equal(t, []string{"Hello", ", ", "world"}, rec.deltas)
	require.Equal(t, "Hello, world", rec.full)
	require.Equal(t, StateDone, ctl.State())
}

func TestController_MalformedFramesSkipped(t *testing.T) {
	frames := []string{
		deltaFrame("a"),
		"data: {broken json\n\n",
		deltaFrame("b"),
		"data: [DONE]\n\n",
	}
	server := httptest.NewServer(streamHandler(frames, 2*time.Millisecond))
	defer server.Close()

	rec := newRecorder()
	ctl := NewController(testClient(server.URL))
	ctl.Run(context.Background(), nil, rec.callbacks())

	rec.requireExactlyOnce(t, true)
	require.Equal(t, "ab", rec.full)
}

func TestController_EOFWithoutDoneCompletes(t *testing.T) {
	frames := []string{deltaFrame("partial answer")}
	server := httptest.NewServer(streamHandler(frames, 2*time.Millisecond))
	defer server.Close()

	rec := newRecorder()
	ctl := NewController(testClient(server.URL))
	ctl.Run(context.Background(), nil, rec.callbacks())

	rec.requireExactlyOnce(t, true)
	require.Equal(t, "partial answer", rec.full)
	require.Equal(t, StateDone, ctl.State())
}

func TestController_ConfigErrorBeforeNetwork(t *testing.T) {
	requested := atomic.Bool{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested.Store(true)
	}))
	defer server.Close()

	client := provider.NewClient(provider.Config{BaseURL: server.URL}) // no key, no model
	rec := newRecorder()
	ctl := NewController(client)
	ctl.Run(context.Background(), nil, rec.callbacks())

	rec.requireExactlyOnce(t, false)
	require.ErrorIs(t, rec.err, provider.ErrNotConfigured)
	require.False(t, requested.Load(), "no request should be sent for bad config")
	require.Equal(t, StateFailed, ctl.State())
}

func TestController_HTTPErrorFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer server.Close()

	rec := newRecorder()
	ctl := NewController(testClient(server.URL))
	ctl.Run(context.Background(), nil, rec.callbacks())

	rec.requireExactlyOnce(t, false)
	require.ErrorIs(t, rec.err, provider.ErrAuthFailed)
	require.Equal(t, StateFailed, ctl.State())
}

func TestController_IdleTimeout(t *testing.T) {
	// Server sends one frame then goes silent.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, deltaFrame("first"))
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	}))
	defer server.Close()

	rec := newRecorder()
	ctl := NewController(testClient(server.URL)).WithTimeouts(100*time.Millisecond, 10*time.Second)
	ctl.Run(context.Background(), nil, rec.callbacks())

	rec.requireExactlyOnce(t, false)

	var te *TimeoutError
	require.ErrorAs(t, rec.err, &te)
	require.Equal(t, TimeoutIdle, te.Reason)
	require.Equal(t, StateFailed, ctl.State())
	require.Equal(t, "first", ctl.Accumulated(), "partial content survives the timeout")
}

func TestController_HardTimeoutWithSteadyTraffic(t *testing.T) {
	// Frames arrive well inside the idle window forever; only the hard
	// cap can end this stream.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher, _ := w.(http.Flusher)
		for {
			select {
			case <-r.Context().Done():
				return
			case <-time.After(20 * time.Millisecond):
			}
			fmt.Fprint(w, deltaFrame("x"))
			if flusher != nil {
				flusher.Flush()
			}
		}
	}))
	defer server.Close()

	rec := newRecorder()
	ctl := NewController(testClient(server.URL)).WithTimeouts(200*time.Millisecond, 300*time.Millisecond)
	ctl.Run(context.Background(), nil, rec.callbacks())

	rec.requireExactlyOnce(t, false)

	var te *TimeoutError
	require.ErrorAs(t, rec.err, &te)
	require.Equal(t, TimeoutHard, te.Reason)
}

func TestController_IdleTimeoutWhileAwaitingHeaders(t *testing.T) {
	// The server accepts the connection and never sends response
	// headers. The idle clock counts from request start, so the
	// session must still end.
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	rec := newRecorder()
	ctl := NewController(testClient(server.URL)).WithTimeouts(100*time.Millisecond, 10*time.Second)

	finished := make(chan struct{})
	go func() {
		ctl.Run(context.Background(), nil, rec.callbacks())
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("controller hung while awaiting response headers")
	}

	rec.requireExactlyOnce(t, false)

	var te *TimeoutError
	require.ErrorAs(t, rec.err, &te)
	require.Equal(t, TimeoutIdle, te.Reason)
	require.Equal(t, StateFailed, ctl.State())
}

func TestController_HardTimeoutWhileAwaitingHeaders(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	rec := newRecorder()
	ctl := NewController(testClient(server.URL)).WithTimeouts(10*time.Second, 150*time.Millisecond)

	finished := make(chan struct{})
	go func() {
		ctl.Run(context.Background(), nil, rec.callbacks())
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("controller hung while awaiting response headers")
	}

	rec.requireExactlyOnce(t, false)

	var te *TimeoutError
	require.ErrorAs(t, rec.err, &te)
	require.Equal(t, TimeoutHard, te.Reason)
}

func TestController_Cancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, deltaFrame("before cancel"))
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	}))
	defer server.Close()

	rec := newRecorder()
	ctl := NewController(testClient(server.URL))

	go func() {
		time.Sleep(100 * time.Millisecond)
		ctl.Cancel()
	}()
	ctl.Run(context.Background(), nil, rec.callbacks())

	rec.requireExactlyOnce(t, false)
	require.ErrorIs(t, rec.err, ErrCancelled)
	require.Equal(t, StateCancelled, ctl.State())
	require.Equal(t, "before cancel", ctl.Accumulated())
}

func TestController_SingleUse(t *testing.T) {
	server := httptest.NewServer(streamHandler([]string{"data: [DONE]\n\n"}, 0))
	defer server.Close()

	rec := newRecorder()
	ctl := NewController(testClient(server.URL))
	ctl.Run(context.Background(), nil, rec.callbacks())
	require.Equal(t, StateDone, ctl.State())

	var second error
	ctl.Run(context.Background(), nil, Callbacks{OnError: func(err error) { second = err }})
	require.True(t, errors.Is(second, ErrAlreadyRunning))
}

func TestState_Strings(t *testing.T) {
	states := map[State]string{
		StateIdle:       "idle",
		StateRequesting: "requesting",
		StateStreaming:  "streaming",
		StateDone:       "done",
		StateFailed:     "failed",
		StateCancelled:  "cancelled",
	}
	for s, want := range states {
		require.Equal(t, want, s.String())
	}
	require.True(t, StateDone.IsTerminal())
	require.False(t, StateStreaming.IsTerminal())
}
