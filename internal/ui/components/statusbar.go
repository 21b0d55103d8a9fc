// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual UI components for persona-tui.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/persona-tui/internal/ui/styles"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// Status represents the current application status.
type Status int

const (
	StatusReady Status = iota
	StatusStreaming
	StatusError
)

// String returns the display string for the status.
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "就绪"
	case StatusStreaming:
		return "回复中..."
	case StatusError:
		return "出错"
	default:
		return "未知"
	}
}

// StatusBar is the bottom status bar showing the active character, the
// provider state and key hints.
type StatusBar struct {
	CharacterName string // Display name of the active character
	ModelName     string // Provider model, empty in offline mode
	Online        bool   // Whether a provider is configured
	Status        Status // Current status
	Width         int    // Available width
	ShowShortcuts bool   // Show keyboard shortcuts
	Notice        string // Transient notice text, overrides shortcuts

	theme *styles.Theme
}

// NewStatusBar creates a new StatusBar component.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{
		Status:        StatusReady,
		Width:         80,
		ShowShortcuts: true,
		theme:         theme,
	}
}

// SetWidth updates the status bar width.
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// Render draws the status bar as a single line.
func (s *StatusBar) Render() string {
	var left []string

	if s.CharacterName != "" {
		left = append(left, s.CharacterName)
	}

	if s.Online {
		mode := s.theme.StatusOnline.Render("在线")
		if s.ModelName != "" {
			mode += " " + s.ModelName
		}
		left = append(left, mode)
	} else {
		left = append(left, s.theme.StatusOffline.Render("离线"))
	}

	left = append(left, s.Status.String())

	right := s.Notice
	if right == "" && s.ShowShortcuts {
		right = s.renderShortcuts()
	}

	leftStr := strings.Join(left, "  |  ")
	gap := s.Width - lipgloss.Width(leftStr) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}

	line := leftStr + strings.Repeat(" ", gap) + right
	return s.theme.StatusBar.Width(s.Width).Render(line)
}

// renderShortcuts renders the abbreviated key hints.
func (s *StatusBar) renderShortcuts() string {
	if s.Width < 70 {
		return s.theme.ShortcutKey.Render("/help")
	}
	pairs := [][2]string{
		{"Enter", "发送"},
		{"Esc", "取消"},
		{"/help", "命令"},
	}
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, fmt.Sprintf("%s %s",
			s.theme.ShortcutKey.Render(p[0]),
			s.theme.ShortcutDesc.Render(p[1])))
	}
	return strings.Join(parts, "  ")
}
