// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/persona-tui/internal/model"
)

// View renders the full chat interface.
func (m Model) View() string {
	if !m.ready {
		return "加载中..."
	}

	switch m.mode {
	case modeRoster:
		return m.renderWithOverlay(m.rosterPanel.Render())
	case modeOverlay:
		return m.renderWithOverlay(m.renderTextOverlay())
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	if m.lastError != nil {
		b.WriteString(m.renderError())
		b.WriteString("\n")
	}
	b.WriteString(m.renderInput())
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	return b.String()
}

// renderHeader draws the title line with the active character.
func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("persona-tui")
	if m.character == nil {
		return title
	}
	sub := m.theme.HeaderSubtitle.Render(m.character.Description)
	return title + "  " + m.theme.AssistantLabel.Render(m.character.DisplayName()) + "  " + sub
}

// renderInput draws the input area. During the creation wizard the
// current question appears above the field.
func (m Model) renderInput() string {
	var b strings.Builder
	if m.mode == modeCreate && m.wizard != nil {
		b.WriteString(m.theme.HeaderSubtitle.Render("创建角色: " + m.wizard.prompt()))
		b.WriteString("\n")
	} else if m.state == StateStreaming {
		elapsed := time.Since(m.thinkingStart).Round(time.Second)
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(m.theme.ThinkingText.Render("正在回复"))
		b.WriteString(" ")
		b.WriteString(m.theme.ThinkingTime.Render(elapsed.String()))
		b.WriteString("\n")
	}
	b.WriteString(m.theme.InputContainer.Width(m.width - 2).Render(m.input.View()))
	return b.String()
}

// renderError draws the dismissible error panel.
func (m Model) renderError() string {
	body := m.theme.ErrorTitle.Render(m.lastError.Title) + "\n" +
		m.theme.ErrorMessage.Render(m.lastError.Message) + "\n" +
		m.theme.ShortcutDesc.Render("Esc 关闭")
	return m.theme.ErrorBox.Width(min(m.width-4, 80)).Render(body)
}

// renderStatusBar draws the bottom status line.
func (m Model) renderStatusBar() string {
	m.statusBar.Online = m.cfg.IsProviderConfigured()
	m.statusBar.ModelName = m.cfg.Provider.Model
	m.statusBar.Status = m.statusForState()
	m.statusBar.Notice = m.statusMsg
	if m.character != nil {
		m.statusBar.CharacterName = m.character.DisplayName()
	} else {
		m.statusBar.CharacterName = ""
	}
	return m.statusBar.Render()
}

// renderTextOverlay draws the static overlay panel.
func (m Model) renderTextOverlay() string {
	body := m.theme.OverlayTitle.Render(m.overlayTitle) + "\n\n" +
		m.overlayBody + "\n\n" +
		m.theme.ShortcutDesc.Render("Esc 返回")
	return m.theme.OverlayBox.Width(min(m.width-4, 90)).Render(body)
}

// renderWithOverlay centers an overlay in the available space.
func (m Model) renderWithOverlay(overlay string) string {
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, overlay)
}

// =============================================================================
// TRANSCRIPT RENDERING
// =============================================================================

// refreshViewport rebuilds the transcript content.
func (m *Model) refreshViewport() {
	if m.conversation == nil {
		m.viewport.SetContent(m.theme.HeaderSubtitle.Render(
			"还没有角色。用 /characters 选择或 /create 创建一个。"))
		return
	}
	m.viewport.SetContent(m.renderMessages())
}

// renderMessages renders every transcript message. The in-flight reply
// uses the cheap preview pass; committed assistant replies get the full
// structured render.
func (m *Model) renderMessages() string {
	var b strings.Builder

	for _, msg := range m.conversation.Messages {
		switch msg.Role {
		case model.RoleUser:
			b.WriteString(m.theme.UserLabel.Render("你"))
			b.WriteString("\n")
			b.WriteString(lipgloss.NewStyle().Width(m.viewport.Width - 2).Render(msg.Content))

		case model.RoleAssistant:
			label := "助手"
			if m.character != nil {
				label = m.character.DisplayName()
			}
			b.WriteString(m.theme.AssistantLabel.Render(label))
			b.WriteString("\n")
			b.WriteString(m.renderAssistantBody(msg))

		default:
			b.WriteString(m.theme.SystemLabel.Render(msg.Content))
		}

		if stats := msg.FormatStats(); stats != "" {
			b.WriteString("\n")
			b.WriteString(m.theme.MessageMeta.Render(stats))
		}
		b.WriteString("\n\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

// renderAssistantBody picks the render pass for one assistant message.
func (m *Model) renderAssistantBody(msg *model.Message) string {
	if msg.ID == m.streamingMsgID && msg.IsStreaming {
		preview := m.renderer.Preview()
		if preview == "" {
			return m.theme.ThinkingText.Render("...")
		}
		return strings.TrimRight(preview, "\n")
	}
	return strings.TrimRight(m.renderer.Render(msg.GetDisplayContent()), "\n")
}
