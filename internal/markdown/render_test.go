// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// =============================================================================
// INJECTION SAFETY
// =============================================================================

func TestRender_EscapesRawHTML(t *testing.T) {
	out := Render(`hello <script>alert("xss")</script> world`)
	require.NotContains(t, out, "<script>")
	require.Contains(t, out, "&lt;script&gt;")
}

func TestRender_EscapesInsideCodeBlocks(t *testing.T) {
	out := Render("```\n<div>&amp;</div>\n```")
	require.NotContains(t, out, "<div>")
	require.Contains(t, out, "&lt;div&gt;")
}

func TestRender_AmpersandEscaped(t *testing.T) {
	out := Render("a & b")
	require.Contains(t, out, "a &amp; b")
}

// =============================================================================
// CODE BLOCKS
// =============================================================================

func TestRender_FencedCodeBlockVerbatim(t *testing.T) {
	// Markdown syntax inside a fence must not be interpreted.
	out := Render("```go\n**not bold** # not a heading\n```")
	require.Contains(t, out, `<pre><code class="language-go">`)
	require.Contains(t, out, "**not bold** # not a heading")
	require.NotContains(t, out, "<strong>")
	require.NotContains(t, out, "<h1>")
}

func TestRender_FencedCodeBlockNoLanguage(t *testing.T) {
	out := Render("```\nplain code\n```")
	require.Contains(t, out, "<pre><code>plain code</code></pre>")
}

func TestRender_InlineCode(t *testing.T) {
	out := Render("use `fmt.Println` here")
	require.Contains(t, out, "<code>fmt.Println</code>")
}

func TestRender_InlineCodeNotReprocessed(t *testing.T) {
	out := Render("the `**stars**` stay literal")
	require.Contains(t, out, "<code>**stars**</code>")
	require.NotContains(t, out, "<strong>")
}

// =============================================================================
// BLOCK ELEMENTS
// =============================================================================

func TestRender_Headings(t *testing.T) {
	require.Contains(t, Render("# Title"), "<h1>Title</h1>")
	require.Contains(t, Render("### Sub"), "<h3>Sub</h3>")
	require.Contains(t, Render("###### Deep"), "<h6>Deep</h6>")
}

func TestRender_Blockquote(t *testing.T) {
	out := Render("> quoted text")
	require.Contains(t, out, "<blockquote>quoted text</blockquote>")
}

func TestRender_UnorderedList(t *testing.T) {
	out := Render("- one\n- two\n* three")
	require.Contains(t, out, "<ul>")
	require.Contains(t, out, "<li>one</li>")
	require.Contains(t, out, "<li>three</li>")
	require.Equal(t, 1, strings.Count(out, "<ul>"), "adjacent items share one list")
}

func TestRender_OrderedList(t *testing.T) {
	out := Render("1. first\n2. second")
	require.Contains(t, out, "<ol>")
	require.Contains(t, out, "<li>first</li>")
	require.Contains(t, out, "<li>second</li>")
}

func TestRender_HorizontalRule(t *testing.T) {
	require.Contains(t, Render("---"), "<hr>")
	require.Contains(t, Render("***"), "<hr>")
}

func TestRender_Paragraphs(t *testing.T) {
	out := Render("first paragraph\n\nsecond paragraph")
	require.Equal(t, 2, strings.Count(out, "<p>"))
	require.Contains(t, out, "<p>first paragraph</p>")
}

// =============================================================================
// INLINE ELEMENTS
// =============================================================================

func TestRender_Links(t *testing.T) {
	out := Render("see [docs](https://example.com) now")
	require.Contains(t, out, `<a href="https://example.com">docs</a>`)
}

func TestRender_BoldAndItalic(t *testing.T) {
	out := Render("**bold** and *italic*")
	require.Contains(t, out, "<strong>bold</strong>")
	require.Contains(t, out, "<em>italic</em>")
}

func TestRender_MixedDocument(t *testing.T) {
	in := "# 标题\n\n**重点**内容\n\n- 项目一\n- 项目二\n\n```python\nprint('hi')\n```"
	out := Render(in)
	require.Contains(t, out, "<h1>标题</h1>")
	require.Contains(t, out, "<strong>重点</strong>")
	require.Contains(t, out, "<li>项目一</li>")
	require.Contains(t, out, `<code class="language-python">print(&#39;hi&#39;)</code>`)
}

// =============================================================================
// IDEMPOTENCE
// =============================================================================

func TestRender_Deterministic(t *testing.T) {
	in := "# h\n\n**b** `c`\n\n```\nx\n```\n\n- item"
	first := Render(in)
	second := Render(in)
	require.Equal(t, first, second, "re-rendering the same text must be byte-identical")
}
