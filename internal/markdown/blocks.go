// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markdown

import (
	"regexp"
	"strings"
)

// Heuristic thresholds for structured-block detection. Named so tests
// and tuning have one place to look.
const (
	// maxTitleLen is the maximum rune count of a section title,
	// excluding a trailing colon.
	maxTitleLen = 10

	// minBodyLines is the minimum number of non-empty lines in the
	// whole text before detection is attempted.
	minBodyLines = 4

	// minSections is the minimum number of detected sections for the
	// text to count as structured.
	minSections = 2
)

// titleRegex matches a label-like line: letters (any script, CJK
// included), digits and spaces, optionally ending with an ASCII or
// fullwidth colon.
var titleRegex = regexp.MustCompile(`^[\p{L}\p{N}][\p{L}\p{N} ]*[:：]?$`)

// Section is one detected titled block.
type Section struct {
	Title string
	Body  string
	Icon  string
}

// Blocks is the result of structured-block detection. When Structured
// is false, Sections is empty and the caller renders the whole text as
// plain markdown.
type Blocks struct {
	Structured bool
	Sections   []Section
}

// iconKeywords maps title keywords to icons. Checked in order; the
// Chinese labels match the builtin characters' response formats.
var iconKeywords = []struct {
	keywords []string
	icon     string
}{
	{[]string{"背景", "background", "context"}, "📘"},
	{[]string{"分析", "analysis", "insight"}, "🔍"},
	{[]string{"建议", "行动", "plan", "advice", "action", "suggestion"}, "💡"},
	{[]string{"风险", "注意", "risk", "warning", "caution"}, "⚠️"},
	{[]string{"总结", "结论", "summary", "conclusion"}, "📝"},
	{[]string{"步骤", "方案", "step", "approach"}, "🧭"},
}

// fallbackIcons is cycled deterministically for titles no keyword
// matches, so re-parsing the same text always yields the same icons.
var fallbackIcons = []string{"✨", "📌", "🔸", "🗂️"}

// ParseBlocks attempts to detect short heading lines each followed by
// body text. It is a heuristic, not a grammar: anything ambiguous
// degrades to Blocks{Structured: false} and never errors.
func ParseBlocks(text string) Blocks {
	lines := strings.Split(text, "\n")

	nonEmpty := 0
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			nonEmpty++
		}
	}
	if nonEmpty < minBodyLines {
		return Blocks{}
	}

	var sections []Section
	var current *Section
	var body []string

	closeCurrent := func() {
		if current != nil {
			current.Body = strings.TrimSpace(strings.Join(body, "\n"))
			if current.Body != "" {
				sections = append(sections, *current)
			}
			current = nil
			body = nil
		}
	}

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			if current != nil {
				body = append(body, "")
			}
			continue
		}

		if isTitleLine(line) {
			closeCurrent()
			title := strings.TrimRight(line, ":：")
			current = &Section{Title: title}
			continue
		}

		if current == nil {
			// Prose before the first title: not the structured shape.
			return Blocks{}
		}
		body = append(body, raw)
	}
	closeCurrent()

	if len(sections) < minSections {
		return Blocks{}
	}

	assignIcons(sections)
	return Blocks{Structured: true, Sections: sections}
}

// isTitleLine reports whether a line looks like a section label.
func isTitleLine(line string) bool {
	if !titleRegex.MatchString(line) {
		return false
	}
	bare := strings.TrimRight(line, ":：")
	n := len([]rune(bare))
	return n > 0 && n <= maxTitleLen
}

// assignIcons gives each section an icon: keyword match first, then a
// deterministic round-robin over the fallback sequence.
func assignIcons(sections []Section) {
	unmatched := 0
	for i := range sections {
		icon := matchIcon(sections[i].Title)
		if icon == "" {
			icon = fallbackIcons[unmatched%len(fallbackIcons)]
			unmatched++
		}
		sections[i].Icon = icon
	}
}

// matchIcon returns the icon for the first keyword found in the title,
// or empty when nothing matches.
func matchIcon(title string) string {
	lower := strings.ToLower(title)
	for _, entry := range iconKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.icon
			}
		}
	}
	return ""
}
