// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file implements the slash command system. Commands are looked up
// in a registry map so aliases share one handler.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/persona-tui/internal/export"
	"github.com/jeranaias/persona-tui/internal/provider"
	"github.com/jeranaias/persona-tui/internal/stats"
)

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// CommandHandler processes a slash command and returns the updated
// model and an optional command.
type CommandHandler func(m *Model, args []string) (tea.Model, tea.Cmd)

// commandRegistry maps command names (and aliases) to handlers.
var commandRegistry = map[string]CommandHandler{
	"help": handleHelp,

	"quit": handleQuit,
	"exit": handleQuit,
	"q":    handleQuit,

	"new": handleNew,

	"characters": handleCharacters,
	"chars":      handleCharacters,
	"roster":     handleCharacters,

	"switch": handleSwitch,
	"use":    handleSwitch,

	"create": handleCreate,

	"delete": handleDelete,
	"del":    handleDelete,

	"history": handleHistory,

	"search": handleSearch,

	"stats": handleStats,

	"models": handleModels,

	"export": handleExport,

	"config": handleConfig,
}

// handleCommand parses and dispatches a slash command line.
func (m *Model) handleCommand(content string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(content)
	if len(parts) == 0 {
		return m, nil
	}

	cmdName := strings.ToLower(strings.TrimPrefix(parts[0], "/"))
	args := parts[1:]

	if handler, ok := commandRegistry[cmdName]; ok {
		return handler(m, args)
	}

	m.statusMsg = fmt.Sprintf("未知命令 /%s，输入 /help 查看可用命令", cmdName)
	return m, nil
}

// =============================================================================
// COMMAND HANDLERS
// =============================================================================

// handleHelp shows the command overview overlay.
func handleHelp(m *Model, args []string) (tea.Model, tea.Cmd) {
	var b strings.Builder
	b.WriteString("可用命令:\n\n")
	for _, row := range [][2]string{
		{"/help", "显示本帮助"},
		{"/new", "归档当前对话并重新开始"},
		{"/characters", "打开角色列表"},
		{"/switch <名称|编号>", "切换角色"},
		{"/create", "创建新角色"},
		{"/delete <名称|编号>", "删除角色及其全部对话"},
		{"/history", "查看当前角色的归档对话"},
		{"/search <关键词>", "搜索历史对话"},
		{"/stats", "使用统计"},
		{"/models", "列出可用模型"},
		{"/export [md|html|json]", "导出当前对话"},
		{"/config", "查看当前配置"},
		{"/quit", "退出"},
	} {
		b.WriteString(fmt.Sprintf("  %-24s %s\n", row[0], row[1]))
	}
	b.WriteString("\n快捷键: Enter 发送，Esc 取消回复，Ctrl+C 退出")

	m.openOverlay("帮助", b.String())
	return m, nil
}

// handleQuit exits the program.
func handleQuit(m *Model, args []string) (tea.Model, tea.Cmd) {
	return m, tea.Quit
}

// handleNew archives the current messages and starts fresh.
func handleNew(m *Model, args []string) (tea.Model, tea.Cmd) {
	if m.character == nil {
		m.statusMsg = "请先选择一个角色"
		return m, nil
	}
	if m.state == StateStreaming {
		m.statusMsg = "回复生成中，请先等待或按 Esc 取消"
		return m, nil
	}

	// Persist the in-memory transcript first so the archive snapshot
	// includes everything on screen.
	if err := m.store.SaveConversation(m.conversation); err != nil {
		m.setError("无法保存对话", err.Error())
		return m, nil
	}

	conv, err := m.store.StartNewConversation(m.character)
	if err != nil {
		m.setError("无法开始新对话", err.Error())
		return m, nil
	}
	m.conversation = conv
	m.statusMsg = "已开始新对话，之前的消息已归档"
	m.refreshViewport()
	return m, nil
}

// handleCharacters opens the roster panel.
func handleCharacters(m *Model, args []string) (tea.Model, tea.Cmd) {
	m.rosterPanel.SetCharacters(m.roster)
	m.mode = modeRoster
	return m, nil
}

// handleSwitch switches the active character by name or 1-based index.
func handleSwitch(m *Model, args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 {
		m.statusMsg = "用法: /switch <名称|编号>"
		return m, nil
	}
	if m.state == StateStreaming {
		m.statusMsg = "回复生成中，请先等待或按 Esc 取消"
		return m, nil
	}

	ch, err := m.store.FindCharacter(strings.Join(args, " "))
	if err != nil {
		m.statusMsg = "找不到角色: " + strings.Join(args, " ")
		return m, nil
	}

	if err := m.setCharacter(ch); err != nil {
		m.setError("无法加载对话", err.Error())
		return m, nil
	}
	m.statusMsg = "已切换到 " + ch.DisplayName()
	return m, nil
}

// handleCreate starts the character creation wizard.
func handleCreate(m *Model, args []string) (tea.Model, tea.Cmd) {
	m.wizard = newCreateWizard()
	m.mode = modeCreate
	m.input.Reset()
	m.input.Placeholder = m.wizard.prompt()
	return m, nil
}

// handleDelete removes a character and its conversations.
func handleDelete(m *Model, args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 {
		m.statusMsg = "用法: /delete <名称|编号>"
		return m, nil
	}

	ch, err := m.store.FindCharacter(strings.Join(args, " "))
	if err != nil {
		m.statusMsg = "找不到角色: " + strings.Join(args, " ")
		return m, nil
	}

	if err := m.store.DeleteCharacter(ch.ID); err != nil {
		m.setError("无法删除角色", err.Error())
		return m, nil
	}

	m.reloadRoster()
	if m.character != nil && m.character.ID == ch.ID {
		m.character = nil
		m.conversation = nil
		if len(m.roster) > 0 {
			if err := m.setCharacter(m.roster[0]); err != nil {
				m.setError("无法加载对话", err.Error())
				return m, nil
			}
		}
		m.refreshViewport()
	}
	m.statusMsg = "已删除角色 " + ch.Name
	return m, nil
}

// handleHistory lists the archived conversations of the active
// character.
func handleHistory(m *Model, args []string) (tea.Model, tea.Cmd) {
	if m.conversation == nil {
		m.statusMsg = "请先选择一个角色"
		return m, nil
	}

	var b strings.Builder
	if len(m.conversation.Archives) == 0 {
		b.WriteString("这个角色还没有归档对话。用 /new 归档当前对话。")
	} else {
		for i, arc := range m.conversation.Archives {
			title := arc.Title
			if title == "" {
				title = "(无标题)"
			}
			b.WriteString(fmt.Sprintf("%d. %s\n   %s  %d 条消息\n",
				i+1, title,
				arc.ArchivedAt.Format("2006-01-02 15:04"),
				len(arc.Messages)))
		}
	}

	m.openOverlay("归档对话", b.String())
	return m, nil
}

// handleSearch searches stored conversations.
func handleSearch(m *Model, args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 {
		m.statusMsg = "用法: /search <关键词>"
		return m, nil
	}
	query := strings.Join(args, " ")

	metas, err := m.store.SearchConversations(query)
	if err != nil {
		m.setError("搜索失败", err.Error())
		return m, nil
	}

	var b strings.Builder
	if len(metas) == 0 {
		b.WriteString("没有匹配 \"" + query + "\" 的对话。")
	} else {
		for i, meta := range metas {
			title := meta.Title
			if title == "" {
				title = "(无标题)"
			}
			b.WriteString(fmt.Sprintf("%d. %s\n   %s\n", i+1, title, meta.Preview))
		}
	}

	m.openOverlay("搜索结果", b.String())
	return m, nil
}

// handleStats shows usage statistics.
func handleStats(m *Model, args []string) (tea.Model, tea.Cmd) {
	convs, err := m.store.LoadAllConversations()
	if err != nil {
		m.setError("无法读取统计数据", err.Error())
		return m, nil
	}

	summary := stats.Compute(m.roster, convs)
	m.openOverlay("使用统计", summary.Render())
	return m, nil
}

// handleModels lists the provider's models asynchronously.
func handleModels(m *Model, args []string) (tea.Model, tea.Cmd) {
	if !m.cfg.IsProviderConfigured() {
		m.statusMsg = "离线模式，没有可用的在线模型"
		return m, nil
	}

	client := m.client
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		models, err := client.ListModels(ctx)
		return ModelsListMsg{Models: models, Err: err}
	}
}

// handleExport writes the current conversation to a file. The format
// defaults to markdown.
func handleExport(m *Model, args []string) (tea.Model, tea.Cmd) {
	if m.character == nil || m.conversation == nil {
		m.statusMsg = "请先选择一个角色"
		return m, nil
	}

	format := "md"
	if len(args) > 0 {
		format = strings.ToLower(args[0])
	}

	opts := export.DefaultOptions()
	exporter, err := export.ForFormat(format, opts)
	if err != nil {
		m.statusMsg = "不支持的格式: " + format + "（可用: md, html, json）"
		return m, nil
	}

	path, err := export.ExportToFile(m.character, m.conversation, exporter, opts)
	if err != nil {
		m.setError("导出失败", err.Error())
		return m, nil
	}
	m.statusMsg = "已导出到 " + path
	return m, nil
}

// handleConfig shows the active configuration with the key masked.
func handleConfig(m *Model, args []string) (tea.Model, tea.Cmd) {
	pc := m.cfg.ToProviderConfig().Normalize()

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%-12s %s\n", "base_url", valueOrUnset(pc.BaseURL)))
	b.WriteString(fmt.Sprintf("%-12s %s\n", "api_key", maskKey(pc.APIKey)))
	b.WriteString(fmt.Sprintf("%-12s %s\n", "model", valueOrUnset(pc.Model)))
	b.WriteString(fmt.Sprintf("%-12s %s\n", "theme", m.cfg.UI.Theme))
	if m.cfg.IsProviderConfigured() {
		b.WriteString("\n在线模式：消息发送到上面的接口。")
	} else {
		b.WriteString("\n离线模式：使用内置回复。在 ~/.persona/config.toml 中配置接口后自动生效。")
	}

	m.openOverlay("配置", b.String())
	return m, nil
}

// valueOrUnset substitutes a placeholder for empty settings.
func valueOrUnset(v string) string {
	if v == "" {
		return "(未设置)"
	}
	return v
}

// maskKey hides all but the tail of an API key.
func maskKey(key string) string {
	if key == "" {
		return "(未设置)"
	}
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}

// formatModelList renders the /models overlay body.
func formatModelList(models []provider.ModelInfo) string {
	if len(models) == 0 {
		return "接口没有返回任何模型。"
	}
	var b strings.Builder
	for i, info := range models {
		b.WriteString(fmt.Sprintf("%d. %s\n", i+1, info.ID))
	}
	return b.String()
}
