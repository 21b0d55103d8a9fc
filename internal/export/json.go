// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"fmt"

	"github.com/jeranaias/persona-tui/internal/model"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter exports conversations to JSON format.
// JSON exports always include the complete conversation with archives
// so the file is a faithful representation that can be re-imported.
type JSONExporter struct {
	options *Options
}

// NewJSONExporter creates a new JSON exporter. Options are accepted
// for consistency with the other exporters but do not filter output.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

// jsonDocument pairs the character with its conversation.
type jsonDocument struct {
	Version      int                 `json:"version"`
	Character    *model.Character    `json:"character"`
	Conversation *model.Conversation `json:"conversation"`
}

// Export converts a conversation to JSON format.
func (e *JSONExporter) Export(ch *model.Character, conv *model.Conversation) ([]byte, error) {
	if ch == nil || conv == nil {
		return nil, fmt.Errorf("character and conversation are required")
	}

	doc := jsonDocument{
		Version:      model.ArchiveVersion,
		Character:    ch,
		Conversation: conv,
	}
	return json.MarshalIndent(doc, "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}
