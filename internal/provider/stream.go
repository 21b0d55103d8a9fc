// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// =============================================================================
// SSE FRAME DECODER
// =============================================================================

// doneSignal is the sentinel payload that terminates an SSE chat stream.
var doneSignal = []byte("[DONE]")

// SSEReader splits a Server-Sent Events stream into events. An event is
// one or more "data:" lines terminated by a blank line; other field
// types (event:, id:, retry:, comments) are ignored.
type SSEReader struct {
	reader *bufio.Reader
}

// NewSSEReader creates a new SSE reader from an io.Reader.
func NewSSEReader(r io.Reader) *SSEReader {
	return &SSEReader{
		reader: bufio.NewReader(r),
	}
}

// ReadEvent reads the next event's data payload. Multiple data lines in
// one event are joined with newlines. Returns io.EOF at end of stream;
// a partial event with no terminating blank line is discarded rather
// than surfaced as a truncated payload.
func (s *SSEReader) ReadEvent() ([]byte, error) {
	var dataLines [][]byte

	for {
		line, err := s.reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, err
		}

		line = bytes.TrimRight(line, "\r\n")

		// Blank line ends the event.
		if len(line) == 0 {
			if len(dataLines) > 0 {
				return bytes.Join(dataLines, []byte("\n")), nil
			}
			continue
		}

		if bytes.HasPrefix(line, []byte("data:")) {
			data := bytes.TrimSpace(line[5:])
			dataLines = append(dataLines, data)
		}
	}
}

// =============================================================================
// DELTA EXTRACTION
// =============================================================================

// StreamChunk represents one parsed payload from the streaming response.
type StreamChunk struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
			Role    string `json:"role,omitempty"`
		} `json:"delta"`
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// GetContent returns the text fragment carried by the first choice.
// It prefers the streaming delta and falls back to a full message body,
// which some providers send for the final chunk.
func (c *StreamChunk) GetContent() string {
	if len(c.Choices) == 0 {
		return ""
	}
	if c.Choices[0].Delta.Content != "" {
		return c.Choices[0].Delta.Content
	}
	return c.Choices[0].Message.Content
}

// IsDone returns true if the first choice carries a finish reason.
func (c *StreamChunk) IsDone() bool {
	if len(c.Choices) > 0 {
		return c.Choices[0].FinishReason != ""
	}
	return false
}

// ExtractDelta parses one SSE data payload.
//
// done is true for the [DONE] sentinel. ok is false for payloads that
// are not valid JSON; callers skip those and keep reading. A valid
// payload with no content yields ok=true and an empty content string.
func ExtractDelta(data []byte) (content string, done bool, ok bool) {
	if bytes.Equal(data, doneSignal) {
		return "", true, true
	}

	var chunk StreamChunk
	if err := json.Unmarshal(data, &chunk); err != nil {
		return "", false, false
	}
	return chunk.GetContent(), chunk.IsDone(), true
}

// =============================================================================
// STREAM TRANSPORT
// =============================================================================

// OpenStream validates the configuration, issues the streaming POST and
// returns the response body for the caller to read with SSEReader. Any
// configuration problem is returned before a connection is attempted.
// Non-2xx responses are converted to errors with the body consumed.
func (c *Client) OpenStream(ctx context.Context, messages []ChatMessage) (io.ReadCloser, error) {
	if err := c.cfg.Validate(); err != nil {
		return nil, err
	}

	reqBody := ChatRequest{
		Model:    c.cfg.Model,
		Messages: messages,
		Stream:   true,
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
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	logRequest(req)

	// Stream lifetime is bounded by ctx, not a client timeout.
	start := time.Now()
	resp, err := c.streamingClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	logResponse(resp, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
		resp.Body.Close()
		return nil, handleErrorResponse(resp.StatusCode, body)
	}

	return resp.Body, nil
}
