// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package provider implements the client for OpenAI-compatible chat
// completion endpoints, including streaming over Server-Sent Events.
package provider

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// Configuration constants for the HTTP layer.
const (
	// DefaultTimeout is the default timeout for non-streaming requests.
	DefaultTimeout = 60 * time.Second

	// MaxResponseSize is the maximum allowed response body size for
	// non-streaming endpoints.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB
)

var (
	// Shared HTTP client with connection pooling for non-streaming requests.
	sharedHTTPClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		Timeout: DefaultTimeout,
	}

	// sharedStreamingClient is used for streaming requests. It carries no
	// client timeout: stream lifetime is controlled via context.
	sharedStreamingClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
)

// APIError represents an error response from the provider API.
type APIError struct {
	Code    string
	Message string
	Status  int
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("provider error [%s] (HTTP %d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("provider error (HTTP %d): %s", e.Status, e.Message)
}

// ChatMessage represents a single message in a chat conversation.
type ChatMessage struct {
	Role    string `json:"role"`    // "user", "assistant", or "system"
	Content string `json:"content"` // The message content
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) ChatMessage {
	return ChatMessage{Role: "user", Content: content}
}

// NewAssistantMessage creates a new assistant message.
func NewAssistantMessage(content string) ChatMessage {
	return ChatMessage{Role: "assistant", Content: content}
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) ChatMessage {
	return ChatMessage{Role: "system", Content: content}
}

// ChatRequest represents a request to the chat completions endpoint.
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Stream      bool          `json:"stream"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

// ChatResponse represents a non-streaming chat completions response.
type ChatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message      ChatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// GetContent returns the content of the first choice, or empty string.
func (r *ChatResponse) GetContent() string {
	if len(r.Choices) > 0 {
		return r.Choices[0].Message.Content
	}
	return ""
}

// ModelInfo describes one model offered by the provider.
type ModelInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ContextSize int    `json:"context_length"`
}

// modelsResponse is the wire structure for the models endpoint.
type modelsResponse struct {
	Data []struct {
		ID            string `json:"id"`
		Name          string `json:"name"`
		ContextLength int    `json:"context_length"`
	} `json:"data"`
}

// apiErrorResponse represents an error response body from the API.
type apiErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to one OpenAI-compatible endpoint.
type Client struct {
	cfg             Config
	httpClient      *http.Client
	streamingClient *http.Client
}

// NewClient creates a client for the given configuration. The config is
// normalized but not validated; validation happens per request so that a
// half-configured client can still be constructed at startup.
func NewClient(cfg Config) *Client {
	return &Client{
		cfg:             cfg.Normalize(),
		httpClient:      sharedHTTPClient,
		streamingClient: sharedStreamingClient,
	}
}

// Config returns the client's normalized configuration.
func (c *Client) Config() Config {
	return c.cfg
}

// SetModel changes the model sent in subsequent requests.
func (c *Client) SetModel(model string) {
	c.cfg.Model = model
}

// IsConfigured reports whether the client has everything it needs to
// make a request.
func (c *Client) IsConfigured() bool {
	return c.cfg.IsConfigured()
}

// APIKeyMasked returns a display-safe description of the credential.
// The key itself is never exposed, only its length and a hash prefix.
func (c *Client) APIKeyMasked() string {
	if c.cfg.APIKey == "" {
		return "[not set]"
	}
	h := sha256.Sum256([]byte(c.cfg.APIKey))
	return fmt.Sprintf("[set, length=%d, fingerprint=%s]", len(c.cfg.APIKey), hex.EncodeToString(h[:4]))
}

// setHeaders sets the required headers for API requests.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set(c.cfg.AuthHeader, c.cfg.AuthScheme+" "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "persona-tui/0.1.0")
}

// =============================================================================
// REQUEST/RESPONSE LOGGING
// =============================================================================

// logRequest logs an API request without exposing sensitive data.
// Headers (auth) and body (message content) are never logged.
func logRequest(req *http.Request) {
	log.Printf("API Request: %s %s", req.Method, req.URL.Path)
}

// logResponse logs an API response with duration. Only status and
// timing, never the body.
func logResponse(resp *http.Response, duration time.Duration) {
	log.Printf("API Response: %d %s (%v)", resp.StatusCode, resp.Status, duration)
}

// =============================================================================
// NON-STREAMING CHAT
// =============================================================================

// Chat performs a blocking, non-streaming chat completion.
func (c *Client) Chat(ctx context.Context, messages []ChatMessage) (*ChatResponse, error) {
	if err := c.cfg.Validate(); err != nil {
		return nil, err
	}

	reqBody := ChatRequest{
		Model:    c.cfg.Model,
		Messages: messages,
		Stream:   false,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+chatCompletionsPath, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)
	logRequest(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	logResponse(resp, time.Since(start))

	body, err := readResponse(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, handleErrorResponse(resp.StatusCode, body)
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &chatResp, nil
}

// =============================================================================
// MODEL DISCOVERY
// =============================================================================

// ListModels retrieves the models offered by the configured endpoint.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	n := c.cfg
	if n.BaseURL == "" {
		return nil, &ConfigError{Field: "base_url"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.BaseURL+modelsPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)
	logRequest(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	logResponse(resp, time.Since(start))

	body, err := readResponse(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, handleErrorResponse(resp.StatusCode, body)
	}

	var modelsResp modelsResponse
	if err := json.Unmarshal(body, &modelsResp); err != nil {
		return nil, fmt.Errorf("failed to parse models response: %w", err)
	}

	models := make([]ModelInfo, 0, len(modelsResp.Data))
	for _, m := range modelsResp.Data {
		models = append(models, ModelInfo{
			ID:          m.ID,
			Name:        m.Name,
			ContextSize: m.ContextLength,
		})
	}
	return models, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// readResponse reads the response body with a size limit.
func readResponse(resp *http.Response) ([]byte, error) {
	limitedReader := io.LimitReader(resp.Body, MaxResponseSize)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// handleErrorResponse converts HTTP error responses to Go errors.
func handleErrorResponse(statusCode int, body []byte) error {
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		e := &APIError{
			Code:    apiErr.Error.Code,
			Message: apiErr.Error.Message,
			Status:  statusCode,
		}
		switch statusCode {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %s", ErrAuthFailed, e.Message)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", ErrModelNotFound, e.Message)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %s", ErrRateLimited, e.Message)
		default:
			return e
		}
	}

	// Unparseable error body, map by status alone.
	switch statusCode {
	case http.StatusUnauthorized:
		return ErrAuthFailed
	case http.StatusNotFound:
		return ErrModelNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return &APIError{
			Message: string(body),
			Status:  statusCode,
		}
	}
}
