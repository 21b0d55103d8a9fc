// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists the character roster and per-character
// conversations as JSON files under the app home directory.
package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jeranaias/persona-tui/internal/model"
	"github.com/jeranaias/persona-tui/internal/util"
)

// =============================================================================
// ERRORS
// =============================================================================

// StoreError represents a storage-related error.
// It can be compared using errors.Is.
type StoreError struct {
	Message string
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing store errors.
func (e *StoreError) Is(target error) bool {
	t, ok := target.(*StoreError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

var (
	// ErrCharacterNotFound is returned when no character matches.
	ErrCharacterNotFound = &StoreError{Message: "character not found"}

	// ErrConversationNotFound is returned when a conversation doesn't exist.
	ErrConversationNotFound = &StoreError{Message: "conversation not found"}

	// ErrBuiltinCharacter is returned when deleting a builtin character.
	ErrBuiltinCharacter = &StoreError{Message: "builtin characters cannot be deleted"}

	// ErrDuplicateName is returned when a character name is already taken.
	ErrDuplicateName = &StoreError{Message: "a character with that name already exists"}
)

// =============================================================================
// STORE
// =============================================================================

const (
	charactersFile   = "characters.json"
	conversationsDir = "conversations"
)

// Store handles roster and conversation persistence. One conversation
// file per character; starting over archives in place rather than
// creating a new file.
type Store struct {
	// BaseDir is the app home directory. Default: ~/.persona/
	BaseDir string
}

// NewStore creates a store rooted at ~/.persona.
func NewStore() (*Store, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return NewStoreWithDir(filepath.Join(homeDir, ".persona"))
}

// NewStoreWithDir creates a store with a custom base directory.
func NewStoreWithDir(baseDir string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(baseDir, conversationsDir), 0755); err != nil {
		return nil, err
	}
	return &Store{BaseDir: baseDir}, nil
}

func (s *Store) charactersPath() string {
	return filepath.Join(s.BaseDir, charactersFile)
}

func (s *Store) conversationPath(characterID string) string {
	return filepath.Join(s.BaseDir, conversationsDir, characterID+".json")
}

// =============================================================================
// ROSTER OPERATIONS
// =============================================================================

// LoadCharacters reads the roster, seeding the default characters on
// first run.
func (s *Store) LoadCharacters() ([]*model.Character, error) {
	data, err := os.ReadFile(s.charactersPath())
	if err != nil {
		if os.IsNotExist(err) {
			roster := DefaultCharacters()
			if err := s.SaveCharacters(roster); err != nil {
				return nil, err
			}
			return roster, nil
		}
		return nil, err
	}

	var roster []*model.Character
	if err := json.Unmarshal(data, &roster); err != nil {
		return nil, err
	}
	return roster, nil
}

// SaveCharacters persists the full roster.
func (s *Store) SaveCharacters(roster []*model.Character) error {
	return util.AtomicWriteJSON(s.charactersPath(), roster, 0644)
}

// AddCharacter validates and appends a character to the roster.
func (s *Store) AddCharacter(ch *model.Character) error {
	if err := ch.Validate(); err != nil {
		return err
	}

	roster, err := s.LoadCharacters()
	if err != nil {
		return err
	}

	for _, existing := range roster {
		if strings.EqualFold(existing.Name, ch.Name) {
			return ErrDuplicateName
		}
	}

	roster = append(roster, ch)
	return s.SaveCharacters(roster)
}

// UpdateCharacter replaces the stored character with the same ID.
func (s *Store) UpdateCharacter(ch *model.Character) error {
	roster, err := s.LoadCharacters()
	if err != nil {
		return err
	}

	for i, existing := range roster {
		if existing.ID == ch.ID {
			roster[i] = ch
			return s.SaveCharacters(roster)
		}
	}
	return ErrCharacterNotFound
}

// DeleteCharacter removes a character and its conversation file.
// Builtin characters are protected.
func (s *Store) DeleteCharacter(id string) error {
	roster, err := s.LoadCharacters()
	if err != nil {
		return err
	}

	for i, ch := range roster {
		if ch.ID != id {
			continue
		}
		if ch.Builtin {
			return ErrBuiltinCharacter
		}

		roster = append(roster[:i], roster[i+1:]...)
		if err := s.SaveCharacters(roster); err != nil {
			return err
		}

		// Cascade: the conversation and its archives go with the character.
		if err := os.Remove(s.conversationPath(id)); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
	return ErrCharacterNotFound
}

// GetCharacter returns the character with the given ID.
func (s *Store) GetCharacter(id string) (*model.Character, error) {
	roster, err := s.LoadCharacters()
	if err != nil {
		return nil, err
	}
	for _, ch := range roster {
		if ch.ID == id {
			return ch, nil
		}
	}
	return nil, ErrCharacterNotFound
}

// FindCharacter resolves a roster reference: a 1-based index or a
// case-insensitive name.
func (s *Store) FindCharacter(ref string) (*model.Character, error) {
	roster, err := s.LoadCharacters()
	if err != nil {
		return nil, err
	}

	if idx, err := strconv.Atoi(strings.TrimSpace(ref)); err == nil {
		if idx < 1 || idx > len(roster) {
			return nil, ErrCharacterNotFound
		}
		return roster[idx-1], nil
	}

	ref = strings.ToLower(strings.TrimSpace(ref))
	for _, ch := range roster {
		if strings.ToLower(ch.Name) == ref {
			return ch, nil
		}
	}
	return nil, ErrCharacterNotFound
}

// =============================================================================
// CONVERSATION OPERATIONS
// =============================================================================

// LoadConversation returns the active conversation for a character,
// creating a fresh one seeded from the character on first use.
func (s *Store) LoadConversation(ch *model.Character) (*model.Conversation, error) {
	data, err := os.ReadFile(s.conversationPath(ch.ID))
	if err != nil {
		if os.IsNotExist(err) {
			conv := model.NewConversationWithCharacter(ch)
			if err := s.SaveConversation(conv); err != nil {
				return nil, err
			}
			return conv, nil
		}
		return nil, err
	}

	var conv model.Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// SaveConversation persists a conversation.
func (s *Store) SaveConversation(conv *model.Conversation) error {
	conv.UpdatedAt = time.Now()
	return util.AtomicWriteJSON(s.conversationPath(conv.CharacterID), conv, 0644)
}

// StartNewConversation archives the current message sequence (no-op
// when empty) and reseeds the opening message. Returns the refreshed
// conversation.
func (s *Store) StartNewConversation(ch *model.Character) (*model.Conversation, error) {
	conv, err := s.LoadConversation(ch)
	if err != nil {
		return nil, err
	}

	conv.Archive()
	if ch.OpeningMessage != "" {
		conv.AddMessage(model.NewMessage(model.RoleAssistant, ch.OpeningMessage))
	}

	if err := s.SaveConversation(conv); err != nil {
		return nil, err
	}
	return conv, nil
}

// LoadAllConversations returns every stored conversation. Characters
// without one are skipped; nothing is created as a side effect.
func (s *Store) LoadAllConversations() ([]*model.Conversation, error) {
	entries, err := os.ReadDir(filepath.Join(s.BaseDir, conversationsDir))
	if err != nil {
		if os.IsNotExist(err) {
			return []*model.Conversation{}, nil
		}
		return nil, err
	}

	var convs []*model.Conversation
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.BaseDir, conversationsDir, entry.Name()))
		if err != nil {
			continue
		}

		var conv model.Conversation
		if err := json.Unmarshal(data, &conv); err != nil {
			// Skip corrupted files
			continue
		}
		convs = append(convs, &conv)
	}
	return convs, nil
}

// DeleteConversation removes a character's conversation file.
func (s *Store) DeleteConversation(characterID string) error {
	if err := os.Remove(s.conversationPath(characterID)); err != nil {
		if os.IsNotExist(err) {
			return ErrConversationNotFound
		}
		return err
	}
	return nil
}

// ListConversations returns metadata for every stored conversation,
// most recently updated first.
func (s *Store) ListConversations() ([]model.ConversationMeta, error) {
	entries, err := os.ReadDir(filepath.Join(s.BaseDir, conversationsDir))
	if err != nil {
		if os.IsNotExist(err) {
			return []model.ConversationMeta{}, nil
		}
		return nil, err
	}

	var metas []model.ConversationMeta
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.BaseDir, conversationsDir, entry.Name()))
		if err != nil {
			continue
		}

		var conv model.Conversation
		if err := json.Unmarshal(data, &conv); err != nil {
			// Skip corrupted files
			continue
		}
		metas = append(metas, conv.GetMeta())
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].UpdatedAt.After(metas[j].UpdatedAt)
	})
	return metas, nil
}

// SearchConversations finds conversations whose title, preview or
// message content matches the query (case-insensitive).
func (s *Store) SearchConversations(query string) ([]model.ConversationMeta, error) {
	all, err := s.ListConversations()
	if err != nil {
		return nil, err
	}
	if query == "" {
		return all, nil
	}

	query = strings.ToLower(query)
	var results []model.ConversationMeta
	for _, meta := range all {
		if strings.Contains(strings.ToLower(meta.Title), query) ||
			strings.Contains(strings.ToLower(meta.Preview), query) {
			results = append(results, meta)
			continue
		}

		ch, err := s.GetCharacter(meta.CharacterID)
		if err != nil {
			continue
		}
		conv, err := s.LoadConversation(ch)
		if err != nil {
			continue
		}
		for _, msg := range conv.Messages {
			if strings.Contains(strings.ToLower(msg.Content), query) {
				results = append(results, meta)
				break
			}
		}
	}
	return results, nil
}

// =============================================================================
// EXPORT SNAPSHOT
// =============================================================================

// Snapshot collects the full roster and all conversations into one
// archive for export.
func (s *Store) Snapshot() (*model.Archive, error) {
	roster, err := s.LoadCharacters()
	if err != nil {
		return nil, err
	}

	var convs []*model.Conversation
	for _, ch := range roster {
		conv, err := s.LoadConversation(ch)
		if err != nil {
			return nil, err
		}
		convs = append(convs, conv)
	}

	return model.NewArchive(roster, convs), nil
}
