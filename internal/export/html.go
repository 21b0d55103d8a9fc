// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/jeranaias/persona-tui/internal/markdown"
	"github.com/jeranaias/persona-tui/internal/model"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports conversations to HTML with embedded CSS.
// Message bodies go through the injection-safe markdown renderer, so
// raw content never reaches the page unescaped.
type HTMLExporter struct {
	options *Options
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{options: opts}
}

// Export converts a conversation to HTML format.
func (e *HTMLExporter) Export(ch *model.Character, conv *model.Conversation) ([]byte, error) {
	if ch == nil || conv == nil {
		return nil, fmt.Errorf("character and conversation are required")
	}
	if conv.IsEmpty() && len(conv.Archives) == 0 {
		return nil, fmt.Errorf("conversation has no messages")
	}

	var sb strings.Builder

	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString("<html lang=\"zh\">\n")
	sb.WriteString("<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	sb.WriteString(fmt.Sprintf("    <title>%s</title>\n", html.EscapeString(ch.DisplayName())))
	sb.WriteString("    <meta name=\"generator\" content=\"persona-tui\">\n")
	sb.WriteString(fmt.Sprintf("    <meta name=\"date\" content=\"%s\">\n", conv.CreatedAt.Format(time.RFC3339)))
	sb.WriteString(e.getCSS())
	sb.WriteString("</head>\n")
	sb.WriteString(fmt.Sprintf("<body class=\"%s-theme\">\n", e.options.Theme))
	sb.WriteString("    <div class=\"container\">\n")

	if e.options.IncludeMetadata {
		sb.WriteString(e.renderHeader(ch, conv))
	}

	sb.WriteString("        <main class=\"conversation\">\n")
	for _, msg := range conv.Messages {
		sb.WriteString(e.renderMessage(ch, msg))
	}
	sb.WriteString("        </main>\n")

	if e.options.IncludeArchives {
		for i, ar := range conv.Archives {
			sb.WriteString(fmt.Sprintf("        <h2 class=\"archive-title\">归档 %d (%s)</h2>\n",
				i+1, formatTimestamp(ar.ArchivedAt)))
			sb.WriteString("        <main class=\"conversation\">\n")
			for _, msg := range ar.Messages {
				sb.WriteString(e.renderMessage(ch, msg))
			}
			sb.WriteString("        </main>\n")
		}
	}

	sb.WriteString("        <footer class=\"footer\">\n")
	sb.WriteString(fmt.Sprintf("            <p>Exported from <strong>persona-tui</strong> on %s</p>\n",
		time.Now().Format("January 2, 2006 at 3:04 PM")))
	sb.WriteString("        </footer>\n")
	sb.WriteString("    </div>\n")
	sb.WriteString(e.getScript())
	sb.WriteString("</body>\n")
	sb.WriteString("</html>\n")

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

// =============================================================================
// RENDERING FUNCTIONS
// =============================================================================

// renderHeader renders the header section with metadata.
func (e *HTMLExporter) renderHeader(ch *model.Character, conv *model.Conversation) string {
	var sb strings.Builder

	sb.WriteString("        <header class=\"header\">\n")
	sb.WriteString(fmt.Sprintf("            <h1>%s</h1>\n", html.EscapeString(ch.DisplayName())))
	sb.WriteString("            <div class=\"metadata\">\n")
	sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\">%s</span>\n", html.EscapeString(ch.Description)))
	if conv.Model != "" {
		sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\"><strong>Model:</strong> %s</span>\n", html.EscapeString(conv.Model)))
	}
	sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\"><strong>Created:</strong> %s</span>\n", formatTimestamp(conv.CreatedAt)))
	sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\"><strong>Messages:</strong> %d</span>\n", conv.MessageCount()))
	sb.WriteString("                <button class=\"theme-toggle\" onclick=\"toggleTheme()\" title=\"Toggle theme\">[Theme]</button>\n")
	sb.WriteString("            </div>\n")
	sb.WriteString("        </header>\n")

	return sb.String()
}

// renderMessage renders a single message.
func (e *HTMLExporter) renderMessage(ch *model.Character, msg *model.Message) string {
	var sb strings.Builder

	roleClass := strings.ToLower(string(msg.Role))
	sb.WriteString(fmt.Sprintf("            <div class=\"message %s-message\">\n", roleClass))

	sb.WriteString("                <div class=\"message-header\">\n")
	label := msg.Role.DisplayName()
	if msg.Role == model.RoleAssistant {
		label = ch.DisplayName()
	}
	sb.WriteString(fmt.Sprintf("                    <span class=\"role-label\">%s</span>\n", html.EscapeString(label)))
	if e.options.IncludeTimestamps {
		sb.WriteString(fmt.Sprintf("                    <span class=\"timestamp\">%s</span>\n", formatShortTimestamp(msg.Timestamp)))
	}
	sb.WriteString("                </div>\n")

	sb.WriteString("                <div class=\"message-content\">\n")
	sb.WriteString(e.renderBody(msg))
	sb.WriteString("                </div>\n")

	if msg.Role == model.RoleAssistant && e.options.IncludeMetadata {
		if stats := msg.FormatStats(); stats != "" {
			sb.WriteString(fmt.Sprintf("                <div class=\"message-stats\">%s</div>\n", html.EscapeString(stats)))
		}
	}

	sb.WriteString("            </div>\n")
	return sb.String()
}

// renderBody renders a message body. Assistant replies that follow the
// structured section shape become titled section blocks; everything
// else is one markdown document.
func (e *HTMLExporter) renderBody(msg *model.Message) string {
	content := msg.GetDisplayContent()

	if msg.Role == model.RoleAssistant {
		if blocks := markdown.ParseBlocks(content); blocks.Structured {
			var sb strings.Builder
			for _, sec := range blocks.Sections {
				sb.WriteString("<div class=\"section-block\">\n")
				sb.WriteString(fmt.Sprintf("<div class=\"section-title\">%s %s</div>\n",
					sec.Icon, html.EscapeString(sec.Title)))
				sb.WriteString(markdown.Render(sec.Body))
				sb.WriteString("</div>\n")
			}
			return sb.String()
		}
	}

	return markdown.Render(content)
}

// =============================================================================
// EMBEDDED CSS
// =============================================================================

// getCSS returns the embedded CSS for the HTML export.
func (e *HTMLExporter) getCSS() string {
	return `    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }

        :root {
            --font-sans: -apple-system, BlinkMacSystemFont, "Segoe UI", "PingFang SC", "Microsoft YaHei", sans-serif;
            --font-mono: "SF Mono", "Monaco", "Fira Code", "Source Code Pro", monospace;
        }

        .dark-theme {
            --bg-primary: #1a1b26;
            --bg-secondary: #24283b;
            --bg-tertiary: #414868;
            --text-primary: #c0caf5;
            --text-muted: #565f89;
            --border-color: #414868;
            --user-bg: #1f2335;
            --assistant-bg: #24283b;
            --code-bg: #16161e;
            --accent-blue: #7aa2f7;
            --accent-green: #9ece6a;
            --accent-purple: #bb9af7;
        }

        .light-theme {
            --bg-primary: #ffffff;
            --bg-secondary: #f7f8fa;
            --bg-tertiary: #e1e4e8;
            --text-primary: #24292e;
            --text-muted: #6a737d;
            --border-color: #e1e4e8;
            --user-bg: #f6f8fa;
            --assistant-bg: #ffffff;
            --code-bg: #f6f8fa;
            --accent-blue: #0366d6;
            --accent-green: #22863a;
            --accent-purple: #6f42c1;
        }

        body {
            font-family: var(--font-sans);
            font-size: 16px;
            line-height: 1.6;
            color: var(--text-primary);
            background: var(--bg-primary);
            padding: 20px;
        }

        .container {
            max-width: 860px;
            margin: 0 auto;
            background: var(--bg-secondary);
            border-radius: 12px;
            overflow: hidden;
        }

        .header {
            padding: 28px 32px;
            background: var(--bg-tertiary);
            border-bottom: 2px solid var(--border-color);
        }

        .header h1 { font-size: 26px; margin-bottom: 12px; }

        .metadata {
            display: flex;
            flex-wrap: wrap;
            gap: 14px;
            font-size: 14px;
            color: var(--text-muted);
            align-items: center;
        }

        .theme-toggle {
            margin-left: auto;
            background: var(--bg-secondary);
            border: 1px solid var(--border-color);
            border-radius: 6px;
            padding: 4px 10px;
            cursor: pointer;
            color: var(--text-primary);
        }

        .conversation { padding: 24px 32px; }

        .message {
            margin-bottom: 20px;
            padding: 16px 20px;
            border-radius: 8px;
            border-left: 4px solid transparent;
        }

        .user-message { background: var(--user-bg); border-left-color: var(--accent-blue); }
        .assistant-message { background: var(--assistant-bg); border-left-color: var(--accent-green); }
        .system-message { background: var(--bg-tertiary); border-left-color: var(--accent-purple); }

        .message-header {
            display: flex;
            justify-content: space-between;
            margin-bottom: 10px;
            font-size: 14px;
        }

        .role-label { font-weight: 600; }
        .timestamp { color: var(--text-muted); font-family: var(--font-mono); font-size: 13px; }

        .message-content p { margin-bottom: 10px; }
        .message-content p:last-child { margin-bottom: 0; }
        .message-content ul, .message-content ol { margin: 0 0 10px 24px; }
        .message-content blockquote {
            margin: 10px 0;
            padding-left: 12px;
            border-left: 3px solid var(--border-color);
            color: var(--text-muted);
        }

        .message-content pre {
            margin: 12px 0;
            padding: 14px;
            border-radius: 8px;
            background: var(--code-bg);
            border: 1px solid var(--border-color);
            overflow-x: auto;
        }

        .message-content code {
            font-family: var(--font-mono);
            font-size: 14px;
        }

        .section-block {
            margin: 12px 0;
            padding: 12px 16px;
            border: 1px solid var(--border-color);
            border-radius: 8px;
            background: var(--bg-primary);
        }

        .section-title {
            font-weight: 600;
            margin-bottom: 8px;
            color: var(--accent-blue);
        }

        .archive-title {
            padding: 12px 32px 0;
            font-size: 18px;
            color: var(--text-muted);
        }

        .message-stats {
            margin-top: 10px;
            padding-top: 10px;
            border-top: 1px solid var(--border-color);
            font-size: 13px;
            color: var(--text-muted);
        }

        .footer {
            padding: 18px 32px;
            text-align: center;
            font-size: 14px;
            color: var(--text-muted);
            border-top: 1px solid var(--border-color);
        }

        @media print {
            .theme-toggle { display: none; }
            .message { page-break-inside: avoid; }
        }
    </style>
`
}

// =============================================================================
// EMBEDDED JAVASCRIPT
// =============================================================================

// getScript returns the embedded JavaScript for theme toggling.
func (e *HTMLExporter) getScript() string {
	return `    <script>
        function toggleTheme() {
            const body = document.body;
            if (body.classList.contains('dark-theme')) {
                body.classList.remove('dark-theme');
                body.classList.add('light-theme');
            } else {
                body.classList.remove('light-theme');
                body.classList.add('dark-theme');
            }
        }
    </script>
`
}
