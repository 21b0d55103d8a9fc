// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"io"
	"strings"
	"testing"
)

// =============================================================================
// SSE READER TESTS
// =============================================================================

func TestSSEReader_SingleEvent(t *testing.T) {
	input := "data: {\"a\":1}\n\n"
	reader := NewSSEReader(strings.NewReader(input))

	data, err := reader.ReadEvent()
	if err != nil {
		t.Fatalf("ReadEvent failed: %v", err)
	}
	if string(data) != `{"a":1}` {
		t.Errorf("data = %q", data)
	}

	_, err = reader.ReadEvent()
	if err != io.EOF {
		t.Errorf("expected EOF, got %v", err)
	}
}

func TestSSEReader_MultipleEvents(t *testing.T) {
	input := "data: one\n\ndata: two\n\ndata: three\n\n"
	reader := NewSSEReader(strings.NewReader(input))

	var events []string
	for {
		data, err := reader.ReadEvent()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("ReadEvent failed: %v", err)
		}
		events = append(events, string(data))
	}

	want := []string{"one", "two", "three"}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d", len(events), len(want))
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event %d = %q, want %q", i, events[i], want[i])
		}
	}
}

func TestSSEReader_MultipleDataLinesJoined(t *testing.T) {
	input := "data: line1\ndata: line2\n\n"
	reader := NewSSEReader(strings.NewReader(input))

	data, err := reader.ReadEvent()
	if err != nil {
		t.Fatalf("ReadEvent failed: %v", err)
	}
	if string(data) != "line1\nline2" {
		t.Errorf("data = %q", data)
	}
}

func TestSSEReader_CRLFLineEndings(t *testing.T) {
	input := "data: hello\r\n\r\n"
	reader := NewSSEReader(strings.NewReader(input))

	data, err := reader.ReadEvent()
	if err != nil {
		t.Fatalf("ReadEvent failed: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("data = %q", data)
	}
}

func TestSSEReader_IgnoresNonDataFields(t *testing.T) {
	input := ": comment\nevent: message\nid: 42\nretry: 1000\ndata: payload\n\n"
	reader := NewSSEReader(strings.NewReader(input))

	data, err := reader.ReadEvent()
	if err != nil {
		t.Fatalf("ReadEvent failed: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("data = %q", data)
	}
}

func TestSSEReader_SkipsLeadingBlankLines(t *testing.T) {
	input := "\n\n\ndata: x\n\n"
	reader := NewSSEReader(strings.NewReader(input))

	data, err := reader.ReadEvent()
	if err != nil {
		t.Fatalf("ReadEvent failed: %v", err)
	}
	if string(data) != "x" {
		t.Errorf("data = %q", data)
	}
}

func TestSSEReader_PartialTrailingEventDiscarded(t *testing.T) {
	// The final event has no terminating blank line, so it is dropped
	// instead of surfacing a truncated payload.
	input := "data: complete\n\ndata: trunca"
	reader := NewSSEReader(strings.NewReader(input))

	data, err := reader.ReadEvent()
	if err != nil {
		t.Fatalf("ReadEvent failed: %v", err)
	}
	if string(data) != "complete" {
		t.Errorf("data = %q", data)
	}

	_, err = reader.ReadEvent()
	if err != io.EOF {
		t.Errorf("expected EOF for partial trailing event, got %v", err)
	}
}

func TestSSEReader_EmptyStream(t *testing.T) {
	reader := NewSSEReader(strings.NewReader(""))
	_, err := reader.ReadEvent()
	if err != io.EOF {
		t.Errorf("expected EOF, got %v", err)
	}
}

// chunkedReader delivers at most size bytes per Read, so the same
// logical stream can be replayed with arbitrary physical boundaries.
type chunkedReader struct {
	rest []byte
	size int
}

func (r *chunkedReader) Read(p []byte) (int, error) {
	if len(r.rest) == 0 {
		return 0, io.EOF
	}
	n := r.size
	if n > len(r.rest) {
		n = len(r.rest)
	}
	if n > len(p) {
		n = len(p)
	}
	copy(p, r.rest[:n])
	r.rest = r.rest[n:]
	return n, nil
}

// collectFragments pumps a stream through SSEReader and ExtractDelta,
// recording the delivered fragments in order.
func collectFragments(t *testing.T, r io.Reader) []string {
	t.Helper()
	reader := NewSSEReader(r)
	var fragments []string
	for {
		data, err := reader.ReadEvent()
		if err == io.EOF {
			return fragments
		}
		if err != nil {
			t.Fatalf("ReadEvent failed: %v", err)
		}
		content, done, ok := ExtractDelta(data)
		if !ok {
			continue
		}
		if content != "" {
			fragments = append(fragments, content)
		}
		if done {
			return fragments
		}
	}
}

func TestSSEReader_ChunkingInvariant(t *testing.T) {
	// Multi-byte runes and a split [DONE] sentinel make sure no chunk
	// size can land a boundary anywhere safe.
	input := "data: {\"choices\":[{\"delta\":{\"content\":\"你好\"}}]}\n\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\", \"}}]}\n\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\"world\"}}]}\n\n" +
		"data: [DONE]\n\n"

	want := collectFragments(t, strings.NewReader(input))
	if len(want) != 3 {
		t.Fatalf("baseline delivered %d fragments, want 3", len(want))
	}

	for _, size := range []int{1, 2, 3, 5, 7, 16, 64} {
		got := collectFragments(t, &chunkedReader{rest: []byte(input), size: size})
		if len(got) != len(want) {
			t.Fatalf("chunk size %d: got %d fragments, want %d", size, len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("chunk size %d: fragment %d = %q, want %q", size, i, got[i], want[i])
			}
		}
	}
}

// =============================================================================
// DELTA EXTRACTION TESTS
// =============================================================================

func TestExtractDelta_DoneSentinel(t *testing.T) {
	content, done, ok := ExtractDelta([]byte("[DONE]"))
	if !ok || !done {
		t.Errorf("ok=%v done=%v, want true/true", ok, done)
	}
	if content != "" {
		t.Errorf("content = %q", content)
	}
}

func TestExtractDelta_DeltaContent(t *testing.T) {
	payload := `{"choices":[{"delta":{"content":"你好"}}]}`
	content, done, ok := ExtractDelta([]byte(payload))
	if !ok {
		t.Fatal("payload should parse")
	}
	if done {
		t.Error("should not be done")
	}
	if content != "你好" {
		t.Errorf("content = %q", content)
	}
}

func TestExtractDelta_MessageContentFallback(t *testing.T) {
	payload := `{"choices":[{"message":{"content":"full reply"},"finish_reason":"stop"}]}`
	content, done, ok := ExtractDelta([]byte(payload))
	if !ok {
		t.Fatal("payload should parse")
	}
	if !done {
		t.Error("finish_reason should mark the stream done")
	}
	if content != "full reply" {
		t.Errorf("content = %q", content)
	}
}

func TestExtractDelta_MalformedJSON(t *testing.T) {
	_, _, ok := ExtractDelta([]byte("{not json"))
	if ok {
		t.Error("malformed payload should report ok=false")
	}
}

func TestExtractDelta_EmptyChoices(t *testing.T) {
	content, done, ok := ExtractDelta([]byte(`{"choices":[]}`))
	if !ok {
		t.Error("valid JSON should parse")
	}
	if done || content != "" {
		t.Errorf("content=%q done=%v", content, done)
	}
}

func TestExtractDelta_EmptyContentFragment(t *testing.T) {
	// A keep-alive style chunk with empty content is valid and yields
	// an empty fragment, not a skip.
	content, done, ok := ExtractDelta([]byte(`{"choices":[{"delta":{"content":""}}]}`))
	if !ok {
		t.Error("empty fragment should still parse")
	}
	if done || content != "" {
		t.Errorf("content=%q done=%v", content, done)
	}
}

// =============================================================================
// CONFIG TESTS
// =============================================================================

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantField string
	}{
		{"missing base url", Config{APIKey: "k", Model: "m"}, "base_url"},
		{"missing api key", Config{BaseURL: "https://x", Model: "m"}, "api_key"},
		{"missing model", Config{BaseURL: "https://x", APIKey: "k"}, "model"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			cfgErr, isCfg := err.(*ConfigError)
			if !isCfg {
				t.Fatalf("expected *ConfigError, got %T (%v)", err, err)
			}
			if cfgErr.Field != tc.wantField {
				t.Errorf("Field = %q, want %q", cfgErr.Field, tc.wantField)
			}
		})
	}

	valid := Config{BaseURL: "https://x/v1/", APIKey: " k ", Model: "m"}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid config failed: %v", err)
	}
}

func TestConfig_Normalize(t *testing.T) {
	cfg := Config{BaseURL: "https://api.example.com/v1/"}
	n := cfg.Normalize()
	if n.BaseURL != "https://api.example.com/v1" {
		t.Errorf("BaseURL = %q", n.BaseURL)
	}
	if n.AuthHeader != DefaultAuthHeader || n.AuthScheme != DefaultAuthScheme {
		t.Errorf("auth defaults not applied: %q %q", n.AuthHeader, n.AuthScheme)
	}
}
