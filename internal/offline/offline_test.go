// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package offline

import (
	"context"
	"strings"
	"testing"
)

func TestPickRotation(t *testing.T) {
	p := NewPicker()

	table := characterResponses["智慧导师"]
	for i := 0; i < len(table)*2; i++ {
		got := p.Pick("智慧导师")
		want := table[i%len(table)]
		if got != want {
			t.Fatalf("pick %d: got %q, want %q", i, got, want)
		}
	}
}

func TestPickIndependentCursors(t *testing.T) {
	p := NewPicker()

	p.Pick("智慧导师")
	p.Pick("智慧导师")

	got := p.Pick("创意助手")
	if want := characterResponses["创意助手"][0]; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestPickUnknownCharacter(t *testing.T) {
	p := NewPicker()

	got := p.Pick("神秘访客")
	if got != defaultResponses[0] {
		t.Fatalf("got %q, want default response", got)
	}
	if HasTable("神秘访客") {
		t.Fatal("unknown character should not have a table")
	}
}

func TestPickerReset(t *testing.T) {
	p := NewPicker()
	first := p.Pick("商业顾问")
	p.Pick("商业顾问")

	p.Reset()
	if got := p.Pick("商业顾问"); got != first {
		t.Fatalf("after reset got %q, want %q", got, first)
	}
}

func TestStreamReassembles(t *testing.T) {
	p := NewPicker().WithDelay(0)

	var sb strings.Builder
	full, err := p.Stream(context.Background(), "创意助手", func(delta string) {
		sb.WriteString(delta)
	})
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	if sb.String() != full {
		t.Fatalf("fragments %q do not reassemble to %q", sb.String(), full)
	}
	if full != characterResponses["创意助手"][0] {
		t.Fatalf("unexpected reply %q", full)
	}
}

func TestStreamCancelled(t *testing.T) {
	p := NewPicker().WithDelay(0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.Stream(ctx, "智慧导师", func(string) {}); err == nil {
		t.Fatal("expected context error")
	}
}
