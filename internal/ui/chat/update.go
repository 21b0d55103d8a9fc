// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/persona-tui/internal/session"
	"github.com/jeranaias/persona-tui/internal/ui/components"
)

// trimInput normalizes user input before processing.
func trimInput(s string) string {
	return strings.TrimSpace(s)
}

// Init starts the cursor blink and spinner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Update is the Bubble Tea update loop.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case StreamStartMsg:
		// The placeholder is already in the transcript; nothing to do
		// beyond confirming the stream is live.
		return m, nil

	case StreamTokenMsg:
		if msg.MessageID == m.streamingMsgID {
			m.streamingBuffer.Write(msg.Token)
		}
		return m, nil

	case StreamTickMsg:
		if m.state != StateStreaming {
			return m, nil
		}
		if content, ok := m.streamingBuffer.Flush(); ok {
			m.conversation.AppendToLast(content)
			m.renderer.Append(content)
			m.refreshViewport()
			m.viewport.GotoBottom()
		}
		return m, streamTickCmd()

	case StreamCompleteMsg:
		return m.finishStream(msg)

	case StreamErrorMsg:
		return m.failStream(msg)

	case ModelsListMsg:
		if msg.Err != nil {
			m.setError("无法获取模型列表", msg.Err.Error())
		} else {
			m.openOverlay("可用模型", formatModelList(msg.Models))
		}
		return m, nil

	case StatusMsg:
		m.statusMsg = msg.Text
		return m, nil

	case ErrorMsg:
		m.setError(msg.Title, msg.Message)
		return m, nil

	case ClearErrorMsg:
		m.clearError()
		return m, nil

	case CharacterSwitchedMsg:
		if m.state != StateStreaming && msg.Character != nil {
			m.character = msg.Character
			m.conversation = msg.Conversation
			m.renderer.Reset()
			m.refreshViewport()
			m.viewport.GotoBottom()
			m.statusMsg = "已切换到 " + msg.Character.DisplayName()
		}
		return m, nil

	case ConfigReloadedMsg:
		m.applyConfig(msg.Config)
		m.statusMsg = "配置已重新加载"
		return m, nil

	case ConfigReloadErrorMsg:
		m.statusMsg = "配置重载失败: " + msg.Err.Error()
		return m, nil
	}

	// Forward remaining messages to the focused input.
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// resize distributes the new terminal size across the layout.
func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.theme.SetSize(width, height)
	m.statusBar.SetWidth(width)
	m.rosterPanel.Width = min(width-4, 70)

	chromeHeight := 7 // header, input area and status bar
	vpHeight := height - chromeHeight
	if vpHeight < 3 {
		vpHeight = 3
	}
	m.viewport.Width = width
	m.viewport.Height = vpHeight
	m.input.Width = width - 6
	m.renderer.SetWidth(min(width-2, 100))
	m.ready = true
	m.refreshViewport()
	m.viewport.GotoBottom()
}

// =============================================================================
// KEY HANDLING
// =============================================================================

// handleKey routes key presses by surface mode.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Quit works everywhere.
	if key.Matches(msg, m.keyMap.Quit) {
		m.runner.Cancel()
		return m, tea.Quit
	}

	switch m.mode {
	case modeRoster:
		return m.handleRosterKey(msg)
	case modeOverlay:
		return m.handleOverlayKey(msg)
	case modeCreate:
		return m.handleCreateKey(msg)
	default:
		return m.handleChatKey(msg)
	}
}

// handleChatKey handles keys on the main chat surface.
func (m Model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Cancel):
		if m.state == StateStreaming {
			m.runner.Cancel()
			m.statusMsg = "已取消回复"
			return m, nil
		}
		m.clearError()
		return m, nil

	case key.Matches(msg, m.keyMap.Clear):
		m.clearError()
		m.statusMsg = ""
		return m, nil

	case key.Matches(msg, m.keyMap.Help):
		mdl, cmd := handleHelp(&m, nil)
		return deref(mdl, m), cmd

	case key.Matches(msg, m.keyMap.Submit):
		return m.handleSubmit()

	case key.Matches(msg, m.keyMap.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keyMap.PageDown):
		m.viewport.HalfViewDown()
		return m, nil

	case key.Matches(msg, m.keyMap.Up):
		m.viewport.LineUp(1)
		return m, nil

	case key.Matches(msg, m.keyMap.Down):
		m.viewport.LineDown(1)
		return m, nil

	case key.Matches(msg, m.keyMap.Home):
		m.viewport.GotoTop()
		return m, nil

	case key.Matches(msg, m.keyMap.End):
		m.viewport.GotoBottom()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleRosterKey handles keys while the character list is open.
func (m Model) handleRosterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeChat
		return m, nil
	case "up", "k":
		m.rosterPanel.MoveUp()
		return m, nil
	case "down", "j":
		m.rosterPanel.MoveDown()
		return m, nil
	case "enter":
		ch := m.rosterPanel.Current()
		m.mode = modeChat
		if ch == nil {
			return m, nil
		}
		if err := m.setCharacter(ch); err != nil {
			m.setError("无法加载对话", err.Error())
			return m, nil
		}
		m.statusMsg = "已切换到 " + ch.DisplayName()
		return m, nil
	}
	return m, nil
}

// handleOverlayKey dismisses the static overlay.
func (m Model) handleOverlayKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "enter", "q":
		m.closeOverlay()
	}
	return m, nil
}

// handleCreateKey drives the character creation wizard.
func (m Model) handleCreateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.wizard = nil
		m.mode = modeChat
		m.input.Reset()
		m.input.Placeholder = "输入消息，或 / 开头的命令..."
		m.statusMsg = "已取消创建"
		return m, nil

	case "enter":
		accepted, done := m.wizard.submit(m.input.Value())
		if !accepted {
			m.statusMsg = m.wizard.prompt() + " 不能为空"
			return m, nil
		}
		m.input.Reset()
		if !done {
			m.input.Placeholder = m.wizard.prompt()
			return m, nil
		}

		ch := m.wizard.build()
		m.wizard = nil
		m.mode = modeChat
		m.input.Placeholder = "输入消息，或 / 开头的命令..."

		if err := m.store.AddCharacter(ch); err != nil {
			m.setError("无法创建角色", err.Error())
			return m, nil
		}
		m.reloadRoster()
		if err := m.setCharacter(ch); err != nil {
			m.setError("无法加载对话", err.Error())
			return m, nil
		}
		m.statusMsg = "已创建角色 " + ch.DisplayName()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// deref unwraps the pointer form handed back by command handlers.
func deref(mdl tea.Model, fallback Model) tea.Model {
	if mm, ok := mdl.(*Model); ok {
		return *mm
	}
	return mdl
}

// =============================================================================
// SUBMIT AND STREAMING FLOW
// =============================================================================

// handleSubmit processes the input line: slash commands dispatch to the
// registry, anything else becomes a chat message.
func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	content := trimInput(m.input.Value())
	if content == "" {
		return m, nil
	}

	if strings.HasPrefix(content, "/") {
		m.input.Reset()
		mdl, cmd := m.handleCommand(content)
		return deref(mdl, m), cmd
	}

	return m.sendMessage(content)
}

// sendMessage appends the user message and a streaming placeholder,
// then starts the reply stream. Input is rejected while a stream is
// already active.
func (m Model) sendMessage(content string) (tea.Model, tea.Cmd) {
	if m.character == nil {
		m.statusMsg = "请先用 /characters 选择一个角色"
		return m, nil
	}
	if m.state == StateStreaming {
		m.statusMsg = "回复生成中，请稍候或按 Esc 取消"
		return m, nil
	}

	m.clearError()
	m.input.Reset()

	m.conversation.AddUserMessage(content)
	m.character.RecordActivity(time.Now())
	if err := m.store.UpdateCharacter(m.character); err != nil {
		m.statusMsg = "无法保存角色状态: " + err.Error()
	}

	placeholder := m.conversation.AddAssistantMessage()
	m.streamingMsgID = placeholder.ID
	m.streamingBuffer.Reset()
	m.renderer.Reset()
	m.state = StateStreaming
	m.thinkingStart = time.Now()

	if err := m.store.SaveConversation(m.conversation); err != nil {
		m.statusMsg = "无法保存对话: " + err.Error()
	}

	if m.cfg.IsProviderConfigured() {
		messages := m.conversation.ToChatMessages()
		go m.runner.Run(m.client, messages, placeholder.ID)
	} else {
		go m.runner.RunOffline(m.picker, m.character.Name, placeholder.ID)
	}

	m.refreshViewport()
	m.viewport.GotoBottom()
	return m, tea.Batch(streamTickCmd(), m.spinner.Tick)
}

// finishStream commits a completed reply.
func (m Model) finishStream(msg StreamCompleteMsg) (tea.Model, tea.Cmd) {
	if msg.MessageID != m.streamingMsgID {
		return m, nil
	}

	if content, ok := m.streamingBuffer.ForceFlush(); ok {
		m.conversation.AppendToLast(content)
		m.renderer.Append(content)
	}
	m.conversation.FinalizeLast(msg.Stats)
	m.state = StateReady
	m.streamingMsgID = ""

	if err := m.store.SaveConversation(m.conversation); err != nil {
		m.statusMsg = "无法保存对话: " + err.Error()
	}

	m.refreshViewport()
	m.viewport.GotoBottom()
	return m, nil
}

// failStream ends a stream on error or cancellation. Content that
// already arrived stays in the transcript; an empty placeholder becomes
// a failure notice.
func (m Model) failStream(msg StreamErrorMsg) (tea.Model, tea.Cmd) {
	if msg.MessageID != m.streamingMsgID {
		return m, nil
	}

	if content, ok := m.streamingBuffer.ForceFlush(); ok {
		m.conversation.AppendToLast(content)
		m.renderer.Append(content)
	}

	if last := m.conversation.GetLastAssistantMessage(); last != nil {
		last.FailStream(failureNotice(msg.Err))
	}
	m.state = StateReady
	m.streamingMsgID = ""

	if err := m.store.SaveConversation(m.conversation); err != nil {
		m.statusMsg = "无法保存对话: " + err.Error()
	}

	if !errors.Is(msg.Err, session.ErrCancelled) {
		m.setError("回复失败", msg.Err.Error())
	}

	m.refreshViewport()
	m.viewport.GotoBottom()
	return m, nil
}

// failureNotice builds the transcript notice for a failed stream.
func failureNotice(err error) string {
	var te *session.TimeoutError
	switch {
	case errors.Is(err, session.ErrCancelled):
		return "（已取消）"
	case errors.As(err, &te):
		return "（调用失败: " + string(te.Reason) + "）"
	default:
		return "（调用失败: " + err.Error() + "）"
	}
}

// statusForState maps the chat state onto the status bar.
func (m *Model) statusForState() components.Status {
	switch m.state {
	case StateStreaming:
		return components.StatusStreaming
	case StateError:
		return components.StatusError
	default:
		return components.StatusReady
	}
}

// min returns the smaller of two ints.
func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
