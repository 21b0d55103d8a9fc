// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "testing"

func TestPaletteForName(t *testing.T) {
	if got := PaletteForName("dark"); got.Name != "dark" {
		t.Errorf("PaletteForName(dark) = %s", got.Name)
	}
	if got := PaletteForName("light"); got.Name != "light" {
		t.Errorf("PaletteForName(light) = %s", got.Name)
	}
	// Unknown names fall back to dark.
	if got := PaletteForName("neon"); got.Name != "dark" {
		t.Errorf("PaletteForName(neon) = %s", got.Name)
	}
	// Auto resolves to one of the two variants.
	auto := PaletteForName("auto")
	if auto.Name != "dark" && auto.Name != "light" {
		t.Errorf("PaletteForName(auto) = %s", auto.Name)
	}
}

func TestNewTheme(t *testing.T) {
	theme := NewTheme("dark")
	if theme == nil {
		t.Fatal("NewTheme returned nil")
	}
	if theme.Palette.Name != "dark" {
		t.Errorf("palette = %s, want dark", theme.Palette.Name)
	}
	// Styles should render without panicking.
	out := theme.Header.Render("persona-tui")
	if out == "" {
		t.Error("Header.Render returned empty string")
	}
}

func TestThemeLayoutMode(t *testing.T) {
	theme := NewTheme("dark")

	theme.SetSize(40, 20)
	if theme.GetLayoutMode() != LayoutNarrow {
		t.Error("expected narrow layout at 40 columns")
	}

	theme.SetSize(80, 24)
	if theme.GetLayoutMode() != LayoutMedium {
		t.Error("expected medium layout at 80 columns")
	}

	theme.SetSize(140, 40)
	if theme.GetLayoutMode() != LayoutWide {
		t.Error("expected wide layout at 140 columns")
	}
}
