// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the persona-tui
// terminal interface.
package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Active palette
	Palette Palette

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// APPLICATION CONTAINER STYLES
	// ==========================================================================

	App       lipgloss.Style
	Container lipgloss.Style

	// ==========================================================================
	// HEADER STYLES
	// ==========================================================================

	Header         lipgloss.Style
	HeaderTitle    lipgloss.Style
	HeaderSubtitle lipgloss.Style

	// ==========================================================================
	// MESSAGE STYLES
	// ==========================================================================

	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	SystemLabel    lipgloss.Style
	MessageMeta    lipgloss.Style

	// ==========================================================================
	// INPUT AREA STYLES
	// ==========================================================================

	InputContainer   lipgloss.Style
	InputPrompt      lipgloss.Style
	InputPlaceholder lipgloss.Style

	// ==========================================================================
	// STATUS BAR STYLES
	// ==========================================================================

	StatusBar     lipgloss.Style
	StatusOnline  lipgloss.Style
	StatusOffline lipgloss.Style
	ShortcutKey   lipgloss.Style
	ShortcutDesc  lipgloss.Style

	// ==========================================================================
	// SPINNER AND STREAMING STYLES
	// ==========================================================================

	Spinner      lipgloss.Style
	ThinkingText lipgloss.Style
	ThinkingTime lipgloss.Style

	// ==========================================================================
	// ERROR STYLES
	// ==========================================================================

	ErrorBox     lipgloss.Style
	ErrorTitle   lipgloss.Style
	ErrorMessage lipgloss.Style

	// ==========================================================================
	// ROSTER STYLES
	// ==========================================================================

	RosterBox          lipgloss.Style
	RosterItem         lipgloss.Style
	RosterItemSelected lipgloss.Style
	RosterName         lipgloss.Style
	RosterMeta         lipgloss.Style

	// ==========================================================================
	// LIST AND OVERLAY STYLES
	// ==========================================================================

	OverlayBox   lipgloss.Style
	OverlayTitle lipgloss.Style
	ListItem     lipgloss.Style
	ListMeta     lipgloss.Style
}

// NewTheme creates a theme for the named variant ("dark", "light" or
// "auto").
func NewTheme(name string) *Theme {
	colorProfile := termenv.ColorProfile()

	t := &Theme{
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
		Palette:      PaletteForName(name),
	}

	t.initStyles()
	return t
}

// initStyles initializes all the lip gloss styles from the palette.
func (t *Theme) initStyles() {
	p := t.Palette

	// App container
	t.App = lipgloss.NewStyle()
	t.Container = lipgloss.NewStyle().Padding(0, 1)

	// Header
	t.Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Cyan).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(p.Purple).
		Padding(0, 2)

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Purple)

	t.HeaderSubtitle = lipgloss.NewStyle().
		Foreground(p.TextSecondary).
		Italic(true)

	// Message labels
	t.UserLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.UserBorder)

	t.AssistantLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.AssistantBorder)

	t.SystemLabel = lipgloss.NewStyle().
		Foreground(p.SystemBorder).
		Italic(true)

	t.MessageMeta = lipgloss.NewStyle().
		Foreground(p.TextMuted)

	// Input area
	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(p.Overlay).
		Padding(0, 1)

	t.InputPrompt = lipgloss.NewStyle().
		Foreground(p.Cyan).
		Bold(true)

	t.InputPlaceholder = lipgloss.NewStyle().
		Foreground(p.TextMuted).
		Italic(true)

	// Status bar
	t.StatusBar = lipgloss.NewStyle().
		Background(p.SurfaceDim).
		Foreground(p.TextSecondary).
		Padding(0, 1)

	t.StatusOnline = lipgloss.NewStyle().
		Foreground(p.Emerald).
		Bold(true)

	t.StatusOffline = lipgloss.NewStyle().
		Foreground(p.Amber).
		Bold(true)

	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(p.Cyan).
		Bold(true)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(p.TextMuted)

	// Spinner and streaming
	t.Spinner = lipgloss.NewStyle().
		Foreground(p.Purple)

	t.ThinkingText = lipgloss.NewStyle().
		Foreground(p.TextSecondary)

	t.ThinkingTime = lipgloss.NewStyle().
		Foreground(p.TextMuted)

	// Errors
	t.ErrorBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(p.Rose).
		Padding(0, 2)

	t.ErrorTitle = lipgloss.NewStyle().
		Foreground(p.Rose).
		Bold(true)

	t.ErrorMessage = lipgloss.NewStyle().
		Foreground(p.TextPrimary)

	// Roster
	t.RosterBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(p.Purple).
		Padding(1, 2)

	t.RosterItem = lipgloss.NewStyle().
		Foreground(p.TextPrimary).
		Padding(0, 1)

	t.RosterItemSelected = lipgloss.NewStyle().
		Background(p.Purple).
		Foreground(p.TextInverse).
		Bold(true).
		Padding(0, 1)

	t.RosterName = lipgloss.NewStyle().
		Foreground(p.Cyan).
		Bold(true)

	t.RosterMeta = lipgloss.NewStyle().
		Foreground(p.TextMuted).
		Italic(true)

	// Overlays and lists
	t.OverlayBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(p.Overlay).
		Padding(1, 2)

	t.OverlayTitle = lipgloss.NewStyle().
		Foreground(p.Purple).
		Bold(true)

	t.ListItem = lipgloss.NewStyle().
		Foreground(p.TextPrimary)

	t.ListMeta = lipgloss.NewStyle().
		Foreground(p.TextMuted).
		Italic(true)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // > 100 columns
)
