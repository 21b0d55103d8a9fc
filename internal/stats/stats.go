// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stats aggregates roster activity for the stats panel.
package stats

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/persona-tui/internal/model"
)

// CharacterActivity is one roster row in the stats panel.
type CharacterActivity struct {
	Name         string
	Icon         string
	MessageCount int
	LastActive   time.Time
}

// Summary aggregates activity across the roster.
type Summary struct {
	TotalCharacters    int
	TotalConversations int // user messages sent, matching the original counter
	MostActive         string
	Characters         []CharacterActivity
}

// Compute builds a summary from the roster and its conversations.
// Conversation counts include archived snapshots.
func Compute(roster []*model.Character, conversations []*model.Conversation) Summary {
	sum := Summary{TotalCharacters: len(roster)}

	userMessages := make(map[string]int)
	for _, conv := range conversations {
		n := countUserMessages(conv.Messages)
		for _, ar := range conv.Archives {
			n += countUserMessages(ar.Messages)
		}
		userMessages[conv.CharacterID] += n
		sum.TotalConversations += n
	}

	best := -1
	for _, ch := range roster {
		count := ch.MessageCount
		if count == 0 {
			count = userMessages[ch.ID]
		}
		sum.Characters = append(sum.Characters, CharacterActivity{
			Name:         ch.Name,
			Icon:         ch.Icon,
			MessageCount: count,
			LastActive:   ch.LastActive,
		})
		if count > best {
			best = count
			sum.MostActive = ch.Name
		}
	}

	if len(roster) == 0 {
		sum.MostActive = "无"
	}
	return sum
}

func countUserMessages(messages []*model.Message) int {
	n := 0
	for _, msg := range messages {
		if msg.Role == model.RoleUser {
			n++
		}
	}
	return n
}

// Render formats the summary for the /stats command.
func (s Summary) Render() string {
	var sb strings.Builder
	sb.WriteString("统计信息\n")
	sb.WriteString("----------------------------------------\n")
	fmt.Fprintf(&sb, "角色总数:   %d\n", s.TotalCharacters)
	fmt.Fprintf(&sb, "对话总数:   %d\n", s.TotalConversations)
	fmt.Fprintf(&sb, "最活跃角色: %s\n", s.MostActive)

	if len(s.Characters) > 0 {
		sb.WriteString("----------------------------------------\n")
		for _, ch := range s.Characters {
			label := ch.Name
			if ch.Icon != "" {
				label = ch.Icon + " " + ch.Name
			}
			fmt.Fprintf(&sb, "%-16s %4d 条  %s\n", label, ch.MessageCount, FormatRelative(ch.LastActive))
		}
	}
	return sb.String()
}

// FormatRelative renders a timestamp the way the original roster list
// did ("刚刚", "5分钟前", "1小时前", "3天前").
func FormatRelative(t time.Time) string {
	if t.IsZero() {
		return "从未"
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "刚刚"
	case d < time.Hour:
		return fmt.Sprintf("%d分钟前", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%d小时前", int(d.Hours()))
	default:
		return fmt.Sprintf("%d天前", int(d.Hours()/24))
	}
}
