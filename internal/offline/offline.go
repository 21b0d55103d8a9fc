// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package offline supplies canned character replies when no provider
// is configured, with simulated streaming so the chat surface behaves
// the same either way.
package offline

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// RESPONSE TABLES
// =============================================================================

// characterResponses maps character names to their canned reply
// rotation. Unknown characters fall back to defaultResponses.
var characterResponses = map[string][]string{
	"智慧导师": {
		"这是一个很有趣的问题，让我来为你详细解答。",
		"从我的经验来看，这个问题有几个关键点需要考虑。",
		"你提出了一个很好的观点，我建议你可以从以下几个方面深入思考。",
	},
	"创意助手": {
		"哇！这个想法太有创意了！我有一些更有趣的建议给你。",
		"让我发挥一下想象力，我觉得可以这样设计...",
		"这个概念很棒！我们可以加入更多创新的元素。",
	},
	"商业顾问": {
		"从商业角度分析，这个方案有几个优势和需要注意的风险。",
		"根据市场调研数据，我建议采用以下策略来优化这个项目。",
		"这个投资机会看起来很有潜力，但我们需要仔细评估ROI。",
	},
}

var defaultResponses = []string{
	"这是一个很好的问题，让我为你分析一下。",
}

// =============================================================================
// PICKER
// =============================================================================

// DefaultFragmentDelay paces simulated streaming fragments.
const DefaultFragmentDelay = 40 * time.Millisecond

// fragmentRunes is the size of each simulated delta.
const fragmentRunes = 3

// Picker rotates through each character's canned replies in order, so
// repeated sends cycle predictably instead of repeating one line.
type Picker struct {
	mu      sync.Mutex
	cursors map[string]int
	delay   time.Duration
}

// NewPicker creates a picker with the default fragment pacing.
func NewPicker() *Picker {
	return &Picker{
		cursors: make(map[string]int),
		delay:   DefaultFragmentDelay,
	}
}

// WithDelay overrides fragment pacing. Zero disables the pause, which
// keeps tests fast.
func (p *Picker) WithDelay(d time.Duration) *Picker {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.delay = d
	return p
}

// Pick returns the next canned reply for the named character and
// advances its rotation.
func (p *Picker) Pick(characterName string) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	table, ok := characterResponses[characterName]
	if !ok {
		table = defaultResponses
	}

	idx := p.cursors[characterName] % len(table)
	p.cursors[characterName]++
	return table[idx]
}

// Reset rewinds every character's rotation to the start.
func (p *Picker) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cursors = make(map[string]int)
}

// Stream picks the next reply and delivers it as a sequence of short
// fragments, invoking onDelta for each. It returns the full reply, or
// the context error if cancelled mid-stream.
func (p *Picker) Stream(ctx context.Context, characterName string, onDelta func(string)) (string, error) {
	reply := p.Pick(characterName)

	p.mu.Lock()
	delay := p.delay
	p.mu.Unlock()

	runes := []rune(reply)
	for start := 0; start < len(runes); start += fragmentRunes {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		end := start + fragmentRunes
		if end > len(runes) {
			end = len(runes)
		}
		onDelta(string(runes[start:end]))

		if delay > 0 && end < len(runes) {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return reply, nil
}

// HasTable reports whether the character has a dedicated reply table.
func HasTable(characterName string) bool {
	_, ok := characterResponses[characterName]
	return ok
}
