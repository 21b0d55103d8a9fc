// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "time"

// ArchiveVersion identifies the archive layout. Bump when fields change
// incompatibly.
const ArchiveVersion = 1

// Archive is the portable container written by full-state export and read
// back by import. It carries the whole roster and every conversation.
type Archive struct {
	Version       int             `json:"version"`
	ExportedAt    time.Time       `json:"exported_at"`
	Characters    []*Character    `json:"characters"`
	Conversations []*Conversation `json:"conversations"`
}

// NewArchive creates an archive stamped with the current time.
func NewArchive(characters []*Character, conversations []*Conversation) *Archive {
	return &Archive{
		Version:       ArchiveVersion,
		ExportedAt:    time.Now(),
		Characters:    characters,
		Conversations: conversations,
	}
}
