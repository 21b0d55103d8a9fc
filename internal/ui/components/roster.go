// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/jeranaias/persona-tui/internal/model"
	"github.com/jeranaias/persona-tui/internal/stats"
	"github.com/jeranaias/persona-tui/internal/ui/styles"
)

// =============================================================================
// CHARACTER ROSTER COMPONENT
// =============================================================================

// Roster renders the character list as a selectable panel.
type Roster struct {
	Characters []*model.Character
	Selected   int
	Width      int

	theme *styles.Theme
}

// NewRoster creates a roster panel.
func NewRoster(theme *styles.Theme) *Roster {
	return &Roster{
		Width: 60,
		theme: theme,
	}
}

// SetCharacters replaces the listed characters and clamps the selection.
func (r *Roster) SetCharacters(roster []*model.Character) {
	r.Characters = roster
	if r.Selected >= len(roster) {
		r.Selected = len(roster) - 1
	}
	if r.Selected < 0 {
		r.Selected = 0
	}
}

// MoveUp moves the selection up one entry.
func (r *Roster) MoveUp() {
	if r.Selected > 0 {
		r.Selected--
	}
}

// MoveDown moves the selection down one entry.
func (r *Roster) MoveDown() {
	if r.Selected < len(r.Characters)-1 {
		r.Selected++
	}
}

// Current returns the selected character, or nil when the list is empty.
func (r *Roster) Current() *model.Character {
	if len(r.Characters) == 0 {
		return nil
	}
	return r.Characters[r.Selected]
}

// Render draws the roster panel.
func (r *Roster) Render() string {
	var b strings.Builder

	b.WriteString(r.theme.OverlayTitle.Render("选择角色"))
	b.WriteString("\n\n")

	if len(r.Characters) == 0 {
		b.WriteString(r.theme.ListMeta.Render("还没有角色，用 /create 创建一个。"))
		return r.theme.RosterBox.Width(r.Width).Render(b.String())
	}

	for i, ch := range r.Characters {
		line := fmt.Sprintf("%d. %s %s", i+1, ch.Icon, ch.Name)
		meta := fmt.Sprintf("%d 条  %s", ch.MessageCount, stats.FormatRelative(ch.LastActive))

		style := r.theme.RosterItem
		if i == r.Selected {
			style = r.theme.RosterItemSelected
		}
		b.WriteString(style.Render(line))
		b.WriteString("  ")
		b.WriteString(r.theme.RosterMeta.Render(meta))
		b.WriteString("\n")
		if ch.Description != "" {
			b.WriteString(r.theme.ListMeta.Render("   " + ch.Description))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(r.theme.ShortcutDesc.Render("上下键选择，Enter 确认，Esc 返回"))

	return r.theme.RosterBox.Width(r.Width).Render(b.String())
}
