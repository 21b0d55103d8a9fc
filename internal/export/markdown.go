// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/persona-tui/internal/model"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports conversations to Markdown format.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export converts a conversation to Markdown format.
func (e *MarkdownExporter) Export(ch *model.Character, conv *model.Conversation) ([]byte, error) {
	if ch == nil || conv == nil {
		return nil, fmt.Errorf("character and conversation are required")
	}
	if conv.IsEmpty() && len(conv.Archives) == 0 {
		return nil, fmt.Errorf("conversation has no messages")
	}

	var sb strings.Builder

	// YAML frontmatter with metadata
	if e.options.IncludeMetadata {
		sb.WriteString("---\n")
		sb.WriteString(fmt.Sprintf("title: %s\n", escapeYAML(conv.GetTitle())))
		sb.WriteString(fmt.Sprintf("character: %s\n", escapeYAML(ch.Name)))
		if conv.Model != "" {
			sb.WriteString(fmt.Sprintf("model: %s\n", conv.Model))
		}
		sb.WriteString(fmt.Sprintf("date: %s\n", conv.CreatedAt.Format(time.RFC3339)))
		sb.WriteString(fmt.Sprintf("updated: %s\n", conv.UpdatedAt.Format(time.RFC3339)))
		sb.WriteString(fmt.Sprintf("messages: %d\n", conv.MessageCount()))
		sb.WriteString(fmt.Sprintf("exported: %s\n", time.Now().Format(time.RFC3339)))
		sb.WriteString("generator: persona-tui\n")
		sb.WriteString("---\n\n")
	}

	// Title
	sb.WriteString(fmt.Sprintf("# %s\n\n", escapeMarkdown(ch.DisplayName())))

	if e.options.IncludeMetadata {
		sb.WriteString("## 角色信息\n\n")
		sb.WriteString(fmt.Sprintf("- **描述**: %s\n", ch.Description))
		if ch.Personality != "" {
			sb.WriteString(fmt.Sprintf("- **性格**: %s\n", ch.Personality))
		}
		sb.WriteString(fmt.Sprintf("- **创建时间**: %s\n", formatTimestamp(conv.CreatedAt)))
		sb.WriteString(fmt.Sprintf("- **消息数**: %d\n", conv.MessageCount()))
		sb.WriteString("\n---\n\n")
	}

	// Conversation messages
	sb.WriteString("## 对话\n\n")
	e.writeMessages(&sb, ch, conv.Messages)

	// Archived snapshots
	if e.options.IncludeArchives {
		for i, ar := range conv.Archives {
			sb.WriteString(fmt.Sprintf("\n## 归档 %d (%s)\n\n", i+1, formatTimestamp(ar.ArchivedAt)))
			e.writeMessages(&sb, ch, ar.Messages)
		}
	}

	// Footer
	sb.WriteString("\n---\n\n")
	sb.WriteString(fmt.Sprintf("*Exported from persona-tui on %s*\n",
		time.Now().Format("January 2, 2006 at 3:04 PM")))

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// =============================================================================
// FORMATTING HELPERS
// =============================================================================

func (e *MarkdownExporter) writeMessages(sb *strings.Builder, ch *model.Character, messages []*model.Message) {
	for i, msg := range messages {
		roleLabel := e.formatRoleLabel(ch, msg.Role)
		if e.options.IncludeTimestamps {
			fmt.Fprintf(sb, "### %s <sub>%s</sub>\n\n", roleLabel, formatShortTimestamp(msg.Timestamp))
		} else {
			fmt.Fprintf(sb, "### %s\n\n", roleLabel)
		}

		// Message bodies are already markdown.
		sb.WriteString(strings.TrimSpace(msg.GetDisplayContent()))
		sb.WriteString("\n\n")

		if msg.Role == model.RoleAssistant && e.options.IncludeMetadata {
			if stats := msg.FormatStats(); stats != "" {
				fmt.Fprintf(sb, "<sub>%s</sub>\n\n", stats)
			}
		}

		if i < len(messages)-1 {
			sb.WriteString("---\n\n")
		}
	}
}

// formatRoleLabel returns the display label for a role. Assistant
// messages carry the character's name.
func (e *MarkdownExporter) formatRoleLabel(ch *model.Character, role model.Role) string {
	if role == model.RoleAssistant {
		return escapeMarkdown(ch.DisplayName())
	}
	return role.DisplayName()
}

// =============================================================================
// ESCAPING HELPERS
// =============================================================================

// escapeMarkdown escapes special Markdown characters in plain text.
func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "#", "\\#")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "[", "\\[")
	s = strings.ReplaceAll(s, "]", "\\]")
	return s
}

// escapeYAML escapes special YAML characters in values.
func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":#|>@`\"'[]{}!%&*\n\r\\") || strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		s = strings.ReplaceAll(s, "\\", "\\\\")
		s = strings.ReplaceAll(s, "\"", "\\\"")
		s = strings.ReplaceAll(s, "\n", "\\n")
		s = strings.ReplaceAll(s, "\r", "\\r")
		return fmt.Sprintf("\"%s\"", s)
	}
	return s
}
