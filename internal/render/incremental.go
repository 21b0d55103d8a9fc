// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render turns accumulated reply text into terminal output.
package render

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/persona-tui/internal/markdown"
)

// DefaultWidth is used when the terminal width is unknown.
const DefaultWidth = 80

var (
	titleStyle = lipgloss.NewStyle().Bold(true)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)
)

// Incremental owns the accumulator for one streaming reply. Append is
// monotonic: the buffer only grows until Reset. Preview is the cheap
// per-delta pass; Final runs structured-block detection and is a pure
// function of the accumulated text, so re-rendering is byte-identical.
type Incremental struct {
	mu       sync.Mutex
	buf      strings.Builder
	width    int
	renderer *glamour.TermRenderer
}

// NewIncremental creates a renderer wrapping at the given width.
func NewIncremental(width int) *Incremental {
	r := &Incremental{width: width}
	r.rebuild()
	return r
}

// rebuild recreates the glamour renderer for the current width.
func (r *Incremental) rebuild() {
	if r.width <= 0 {
		r.width = DefaultWidth
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(r.width),
	)
	if err != nil {
		// Plain text fallback when the terminal profile is unusable.
		r.renderer = nil
		return
	}
	r.renderer = renderer
}

// SetWidth adjusts word wrap, e.g. on terminal resize.
func (r *Incremental) SetWidth(width int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if width == r.width {
		return
	}
	r.width = width
	r.rebuild()
}

// Append adds one delta to the accumulator.
func (r *Incremental) Append(delta string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf.WriteString(delta)
}

// Raw returns the accumulated text so far.
func (r *Incremental) Raw() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.String()
}

// Len returns the accumulated length in bytes.
func (r *Incremental) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.Len()
}

// Reset clears the accumulator for a new session.
func (r *Incremental) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf.Reset()
}

// Preview renders the current accumulator without structured-block
// detection. Cheap enough to run on every delta.
func (r *Incremental) Preview() string {
	r.mu.Lock()
	text := r.buf.String()
	renderer := r.renderer
	r.mu.Unlock()

	return renderMarkdown(renderer, text)
}

// Final renders the accumulated text with structured-block detection:
// detected sections become titled panels, anything else is rendered as
// one markdown document.
func (r *Incremental) Final() string {
	r.mu.Lock()
	text := r.buf.String()
	renderer := r.renderer
	width := r.width
	r.mu.Unlock()

	return Finalize(renderer, text, width)
}

// Render runs the full pass over arbitrary text, reusing this
// instance's glamour renderer and width. Used for committed transcript
// messages.
func (r *Incremental) Render(text string) string {
	r.mu.Lock()
	renderer := r.renderer
	width := r.width
	r.mu.Unlock()

	return Finalize(renderer, text, width)
}

// Finalize is the full rendering pass as a pure function, shared by
// Incremental.Final and re-renders of committed messages.
func Finalize(renderer *glamour.TermRenderer, text string, width int) string {
	blocks := markdown.ParseBlocks(text)
	if !blocks.Structured {
		return renderMarkdown(renderer, text)
	}

	panel := panelStyle.Width(width - 2)
	parts := make([]string, 0, len(blocks.Sections))
	for _, sec := range blocks.Sections {
		header := titleStyle.Render(sec.Icon + " " + sec.Title)
		body := strings.TrimRight(renderMarkdown(renderer, sec.Body), "\n")
		parts = append(parts, panel.Render(header+"\n"+body))
	}
	return strings.Join(parts, "\n")
}

// renderMarkdown runs text through glamour, falling back to the raw
// text when the renderer is unavailable or fails.
func renderMarkdown(renderer *glamour.TermRenderer, text string) string {
	if renderer == nil {
		return text
	}
	out, err := renderer.Render(text)
	if err != nil {
		return text
	}
	return out
}
