// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package markdown converts model output to HTML and detects structured
// reply sections.
//
// Render is injection-safe by construction: input is HTML-escaped before
// any transform, and fenced code spans are lifted out first and restored
// verbatim last. ParseBlocks is the heuristic that turns replies shaped
// as short labels with bodies (背景/分析/建议...) into titled sections;
// anything else falls back to plain markdown.
package markdown
