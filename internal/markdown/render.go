// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package markdown converts model output to HTML and detects structured
// reply sections.
package markdown

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

// =============================================================================
// REGULAR EXPRESSIONS
// =============================================================================

var (
	// Fenced code blocks run on the escaped text, so the fence chars
	// themselves are literal backticks.
	codeBlockRegex  = regexp.MustCompile("```([a-zA-Z0-9_+-]*)\n([\\s\\S]*?)```")
	inlineCodeRegex = regexp.MustCompile("`([^`\n]+)`")

	headingRegex     = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)
	orderedItemRegex = regexp.MustCompile(`^\d+\.\s+(.*)$`)
	hrRegex          = regexp.MustCompile(`^(-{3,}|\*{3,}|_{3,})$`)

	linkRegex   = regexp.MustCompile(`\[([^\]]+)\]\(([^)\s]+)\)`)
	boldRegex   = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicRegex = regexp.MustCompile(`\*([^*]+)\*`)
)

// placeholder marks extracted code spans. NUL never appears in model
// output that survived escaping, so collisions are not a concern.
func placeholder(i int) string {
	return fmt.Sprintf("\x00CODE%d\x00", i)
}

// =============================================================================
// RENDER
// =============================================================================

// Render converts markdown text to HTML.
//
// The input is HTML-escaped before any transform runs: raw <, > and & in
// model output are never interpreted as markup. Fenced code blocks and
// inline code spans are lifted out into placeholders first and restored
// verbatim last, so their contents are not re-processed by the other
// transforms. Render is a pure function; rendering the same input twice
// yields identical output.
func Render(text string) string {
	// Escape first. Everything after this point works on inert text.
	escaped := html.EscapeString(text)

	var stash []string

	// Lift fenced code blocks out before any other transform.
	escaped = codeBlockRegex.ReplaceAllStringFunc(escaped, func(match string) string {
		parts := codeBlockRegex.FindStringSubmatch(match)
		lang := parts[1]
		code := strings.TrimRight(parts[2], "\n")

		var rendered string
		if lang != "" {
			rendered = fmt.Sprintf(`<pre><code class="language-%s">%s</code></pre>`, lang, code)
		} else {
			rendered = fmt.Sprintf(`<pre><code>%s</code></pre>`, code)
		}
		stash = append(stash, rendered)
		return placeholder(len(stash) - 1)
	})

	// Inline code spans get the same treatment.
	escaped = inlineCodeRegex.ReplaceAllStringFunc(escaped, func(match string) string {
		parts := inlineCodeRegex.FindStringSubmatch(match)
		stash = append(stash, fmt.Sprintf(`<code>%s</code>`, parts[1]))
		return placeholder(len(stash) - 1)
	})

	out := renderLines(escaped)

	// Restore code spans last, verbatim.
	for i, rendered := range stash {
		out = strings.Replace(out, placeholder(i), rendered, 1)
	}
	return out
}

// renderLines applies the block-level transforms line by line.
func renderLines(text string) string {
	lines := strings.Split(text, "\n")

	var (
		b         strings.Builder
		paragraph []string
		listItems []string
		listTag   string // "ul" or "ol" while a list is open
		quote     []string
	)

	flushParagraph := func() {
		if len(paragraph) > 0 {
			b.WriteString("<p>" + strings.Join(paragraph, "<br>") + "</p>\n")
			paragraph = nil
		}
	}
	flushList := func() {
		if len(listItems) > 0 {
			b.WriteString("<" + listTag + ">\n")
			for _, item := range listItems {
				b.WriteString("<li>" + item + "</li>\n")
			}
			b.WriteString("</" + listTag + ">\n")
			listItems = nil
			listTag = ""
		}
	}
	flushQuote := func() {
		if len(quote) > 0 {
			b.WriteString("<blockquote>" + strings.Join(quote, "<br>") + "</blockquote>\n")
			quote = nil
		}
	}
	flushAll := func() {
		flushParagraph()
		flushList()
		flushQuote()
	}

	for _, raw := range lines {
		line := strings.TrimRight(raw, "\r")
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			flushAll()

		case strings.HasPrefix(trimmed, "\x00CODE"):
			flushAll()
			b.WriteString(trimmed + "\n")

		case headingRegex.MatchString(trimmed):
			flushAll()
			m := headingRegex.FindStringSubmatch(trimmed)
			level := len(m[1])
			b.WriteString(fmt.Sprintf("<h%d>%s</h%d>\n", level, renderInline(m[2]), level))

		case hrRegex.MatchString(trimmed):
			flushAll()
			b.WriteString("<hr>\n")

		case strings.HasPrefix(trimmed, "&gt;"):
			flushParagraph()
			flushList()
			content := strings.TrimSpace(strings.TrimPrefix(trimmed, "&gt;"))
			quote = append(quote, renderInline(content))

		case strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* "):
			flushParagraph()
			flushQuote()
			if listTag == "ol" {
				flushList()
			}
			listTag = "ul"
			listItems = append(listItems, renderInline(trimmed[2:]))

		case orderedItemRegex.MatchString(trimmed):
			flushParagraph()
			flushQuote()
			if listTag == "ul" {
				flushList()
			}
			listTag = "ol"
			m := orderedItemRegex.FindStringSubmatch(trimmed)
			listItems = append(listItems, renderInline(m[1]))

		default:
			flushList()
			flushQuote()
			paragraph = append(paragraph, renderInline(trimmed))
		}
	}
	flushAll()

	return strings.TrimRight(b.String(), "\n")
}

// renderInline applies span-level transforms: links, bold, then italic.
func renderInline(s string) string {
	s = linkRegex.ReplaceAllString(s, `<a href="$2">$1</a>`)
	s = boldRegex.ReplaceAllString(s, `<strong>$1</strong>`)
	s = italicRegex.ReplaceAllString(s, `<em>$1</em>`)
	return s
}
