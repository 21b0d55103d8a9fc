// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testConfig(baseURL string) Config {
	return Config{
		BaseURL: baseURL,
		APIKey:  "test-key-123",
		Model:   "test-model",
	}
}

// =============================================================================
// STREAMING TRANSPORT TESTS
// =============================================================================

func TestOpenStream_SendsExpectedRequest(t *testing.T) {
	var gotPath, gotAuth, gotAccept, gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		gotContentType = r.Header.Get("Content-Type")
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte("data: [DONE]\n\n"))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	body, err := client.OpenStream(context.Background(), []ChatMessage{NewUserMessage("hi")})
	if err != nil {
		t.Fatalf("OpenStream failed: %v", err)
	}
	body.Close()

	if gotPath != "/chat/completions" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer test-key-123" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if gotAccept != "text/event-stream" {
		t.Errorf("accept = %q", gotAccept)
	}
	if gotContentType != "application/json" {
		t.Errorf("content type = %q", gotContentType)
	}
}

func TestOpenStream_CustomAuthHeader(t *testing.T) {
	var gotHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Api-Key")
		w.Write([]byte("data: [DONE]\n\n"))
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.AuthHeader = "X-Api-Key"
	cfg.AuthScheme = "Token"
	client := NewClient(cfg)

	body, err := client.OpenStream(context.Background(), nil)
	if err != nil {
		t.Fatalf("OpenStream failed: %v", err)
	}
	body.Close()

	if gotHeader != "Token test-key-123" {
		t.Errorf("custom auth header = %q", gotHeader)
	}
}

func TestOpenStream_ConfigErrorBeforeNetwork(t *testing.T) {
	requested := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = true
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.APIKey = ""
	client := NewClient(cfg)

	_, err := client.OpenStream(context.Background(), nil)
	if err == nil {
		t.Fatal("expected config error")
	}
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("error should match ErrNotConfigured, got %v", err)
	}
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got %T", err)
	}
	if requested {
		t.Error("no network request should happen for missing config")
	}
}

func TestOpenStream_ErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"bad key"}}`, ErrAuthFailed},
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"slow down"}}`, ErrRateLimited},
		{"model not found", http.StatusNotFound, `{"error":{"message":"nope"}}`, ErrModelNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer server.Close()

			client := NewClient(testConfig(server.URL))
			_, err := client.OpenStream(context.Background(), nil)
			if !errors.Is(err, tc.want) {
				t.Errorf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestOpenStream_ServerErrorWithUnparseableBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	_, err := client.OpenStream(context.Background(), nil)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T (%v)", err, err)
	}
	if apiErr.Status != http.StatusInternalServerError {
		t.Errorf("Status = %d", apiErr.Status)
	}
	if !strings.Contains(apiErr.Message, "boom") {
		t.Errorf("Message = %q", apiErr.Message)
	}
}

func TestOpenStream_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte(`data: {"choices":[{"delta":{"content":"x"}}]}` + "\n\n"))
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	client := NewClient(testConfig(server.URL))

	body, err := client.OpenStream(ctx, nil)
	if err != nil {
		t.Fatalf("OpenStream failed: %v", err)
	}
	defer body.Close()

	done := make(chan error, 1)
	go func() {
		reader := NewSSEReader(body)
		for {
			if _, err := reader.ReadEvent(); err != nil {
				done <- err
				return
			}
		}
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err == nil || err == io.EOF {
			t.Errorf("cancelled stream should surface a read error, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("read did not return after cancellation")
	}
}

// =============================================================================
// NON-STREAMING TESTS
// =============================================================================

func TestChat_ParsesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "resp-1",
			"model": "test-model",
			"choices": [{"message": {"role": "assistant", "content": "hi there"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 5, "completion_tokens": 2, "total_tokens": 7}
		}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	resp, err := client.Chat(context.Background(), []ChatMessage{NewUserMessage("hello")})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if resp.GetContent() != "hi there" {
		t.Errorf("content = %q", resp.GetContent())
	}
	if resp.Usage.TotalTokens != 7 {
		t.Errorf("total tokens = %d", resp.Usage.TotalTokens)
	}
}

func TestListModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[
			{"id":"model-a","name":"Model A","context_length":8192},
			{"id":"model-b","name":"Model B","context_length":32768}
		]}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	models, err := client.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels failed: %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("got %d models", len(models))
	}
	if models[0].ID != "model-a" || models[0].ContextSize != 8192 {
		t.Errorf("models[0] = %+v", models[0])
	}
}

func TestAPIKeyMasked(t *testing.T) {
	client := NewClient(testConfig("https://x"))
	masked := client.APIKeyMasked()
	if strings.Contains(masked, "test-key-123") {
		t.Error("masked key must not contain the key")
	}

	empty := NewClient(Config{})
	if empty.APIKeyMasked() != "[not set]" {
		t.Errorf("empty key mask = %q", empty.APIKeyMasked())
	}
}
