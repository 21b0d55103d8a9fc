// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// =============================================================================
// PALETTES
// =============================================================================

// Palette holds the color set for one theme variant.
type Palette struct {
	Name string

	// Accent colors
	Cyan    lipgloss.Color
	Purple  lipgloss.Color
	Emerald lipgloss.Color
	Amber   lipgloss.Color
	Rose    lipgloss.Color

	// Text colors
	TextPrimary   lipgloss.Color
	TextSecondary lipgloss.Color
	TextMuted     lipgloss.Color
	TextInverse   lipgloss.Color

	// Surface colors
	Surface    lipgloss.Color
	SurfaceDim lipgloss.Color
	Overlay    lipgloss.Color

	// Message bubble borders
	UserBorder      lipgloss.Color
	AssistantBorder lipgloss.Color
	SystemBorder    lipgloss.Color
}

// darkPalette is the default terminal palette.
var darkPalette = Palette{
	Name:            "dark",
	Cyan:            lipgloss.Color("#7dcfff"),
	Purple:          lipgloss.Color("#bb9af7"),
	Emerald:         lipgloss.Color("#9ece6a"),
	Amber:           lipgloss.Color("#e0af68"),
	Rose:            lipgloss.Color("#f7768e"),
	TextPrimary:     lipgloss.Color("#c0caf5"),
	TextSecondary:   lipgloss.Color("#a9b1d6"),
	TextMuted:       lipgloss.Color("#565f89"),
	TextInverse:     lipgloss.Color("#1a1b26"),
	Surface:         lipgloss.Color("#24283b"),
	SurfaceDim:      lipgloss.Color("#1f2335"),
	Overlay:         lipgloss.Color("#414868"),
	UserBorder:      lipgloss.Color("#7aa2f7"),
	AssistantBorder: lipgloss.Color("#bb9af7"),
	SystemBorder:    lipgloss.Color("#565f89"),
}

// lightPalette mirrors the dark palette on a light background.
var lightPalette = Palette{
	Name:            "light",
	Cyan:            lipgloss.Color("#0f4b6e"),
	Purple:          lipgloss.Color("#5a4a78"),
	Emerald:         lipgloss.Color("#33635c"),
	Amber:           lipgloss.Color("#8f5e15"),
	Rose:            lipgloss.Color("#8c4351"),
	TextPrimary:     lipgloss.Color("#343b58"),
	TextSecondary:   lipgloss.Color("#565a6e"),
	TextMuted:       lipgloss.Color("#9699a3"),
	TextInverse:     lipgloss.Color("#e6e7ed"),
	Surface:         lipgloss.Color("#e6e7ed"),
	SurfaceDim:      lipgloss.Color("#d5d6db"),
	Overlay:         lipgloss.Color("#c1c2c7"),
	UserBorder:      lipgloss.Color("#2959aa"),
	AssistantBorder: lipgloss.Color("#5a4a78"),
	SystemBorder:    lipgloss.Color("#9699a3"),
}

// PaletteForName resolves a configured theme name to a palette. "auto"
// picks dark or light from the terminal background; unknown names fall
// back to dark.
func PaletteForName(name string) Palette {
	switch name {
	case "light":
		return lightPalette
	case "dark":
		return darkPalette
	case "auto":
		if termenv.HasDarkBackground() {
			return darkPalette
		}
		return lightPalette
	default:
		return darkPalette
	}
}
