// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jeranaias/persona-tui/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStoreWithDir(t.TempDir())
	if err != nil {
		t.Fatalf("NewStoreWithDir: %v", err)
	}
	return s
}

// =============================================================================
// ROSTER TESTS
// =============================================================================

func TestLoadCharacters_SeedsDefaults(t *testing.T) {
	s := newTestStore(t)

	roster, err := s.LoadCharacters()
	if err != nil {
		t.Fatalf("LoadCharacters: %v", err)
	}
	if len(roster) != 3 {
		t.Fatalf("roster = %d, want 3", len(roster))
	}
	if roster[0].Name != "智慧导师" || !roster[0].Builtin {
		t.Errorf("unexpected first character: %+v", roster[0])
	}

	// The seed file is written so the second load hits disk.
	if _, err := os.Stat(s.charactersPath()); err != nil {
		t.Fatalf("characters.json not written: %v", err)
	}

	again, err := s.LoadCharacters()
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if again[0].ID != roster[0].ID {
		t.Error("second load should return the persisted roster")
	}
}

func TestAddCharacter(t *testing.T) {
	s := newTestStore(t)

	ch := model.NewCharacter("旅行规划师", "🗺️", "规划行程与路线")
	if err := s.AddCharacter(ch); err != nil {
		t.Fatalf("AddCharacter: %v", err)
	}

	got, err := s.GetCharacter(ch.ID)
	if err != nil {
		t.Fatalf("GetCharacter: %v", err)
	}
	if got.Name != "旅行规划师" {
		t.Errorf("Name = %q", got.Name)
	}

	dup := model.NewCharacter("旅行规划师", "", "")
	if err := s.AddCharacter(dup); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("duplicate add err = %v, want ErrDuplicateName", err)
	}

	invalid := model.NewCharacter("", "", "")
	if err := s.AddCharacter(invalid); err == nil {
		t.Error("expected validation error for empty name")
	}
}

func TestDeleteCharacter_Cascades(t *testing.T) {
	s := newTestStore(t)

	ch := model.NewCharacter("临时角色", "🤖", "")
	ch.OpeningMessage = "你好"
	if err := s.AddCharacter(ch); err != nil {
		t.Fatalf("AddCharacter: %v", err)
	}
	if _, err := s.LoadConversation(ch); err != nil {
		t.Fatalf("LoadConversation: %v", err)
	}

	convPath := s.conversationPath(ch.ID)
	if _, err := os.Stat(convPath); err != nil {
		t.Fatalf("conversation file missing before delete: %v", err)
	}

	if err := s.DeleteCharacter(ch.ID); err != nil {
		t.Fatalf("DeleteCharacter: %v", err)
	}
	if _, err := os.Stat(convPath); !os.IsNotExist(err) {
		t.Error("conversation file should be deleted with the character")
	}
	if _, err := s.GetCharacter(ch.ID); !errors.Is(err, ErrCharacterNotFound) {
		t.Errorf("GetCharacter err = %v, want ErrCharacterNotFound", err)
	}
}

func TestDeleteCharacter_BuiltinProtected(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.LoadCharacters(); err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteCharacter(MentorID); !errors.Is(err, ErrBuiltinCharacter) {
		t.Errorf("err = %v, want ErrBuiltinCharacter", err)
	}
}

func TestFindCharacter(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.LoadCharacters(); err != nil {
		t.Fatal(err)
	}

	byIndex, err := s.FindCharacter("2")
	if err != nil {
		t.Fatalf("FindCharacter(2): %v", err)
	}
	if byIndex.Name != "创意助手" {
		t.Errorf("index lookup = %q", byIndex.Name)
	}

	byName, err := s.FindCharacter("商业顾问")
	if err != nil {
		t.Fatalf("FindCharacter(name): %v", err)
	}
	if byName.ID != ConsultantID {
		t.Errorf("name lookup ID = %q", byName.ID)
	}

	if _, err := s.FindCharacter("99"); !errors.Is(err, ErrCharacterNotFound) {
		t.Errorf("out of range err = %v", err)
	}
	if _, err := s.FindCharacter("不存在"); !errors.Is(err, ErrCharacterNotFound) {
		t.Errorf("unknown name err = %v", err)
	}
}

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestLoadConversation_SeedsOpening(t *testing.T) {
	s := newTestStore(t)
	roster, err := s.LoadCharacters()
	if err != nil {
		t.Fatal(err)
	}

	conv, err := s.LoadConversation(roster[0])
	if err != nil {
		t.Fatalf("LoadConversation: %v", err)
	}
	if conv.MessageCount() != 1 {
		t.Fatalf("messages = %d, want opening message", conv.MessageCount())
	}
	if conv.Messages[0].Role != model.RoleAssistant {
		t.Error("opening message should be from the assistant")
	}
	if !strings.Contains(conv.Messages[0].Content, "智慧导师") {
		t.Errorf("opening = %q", conv.Messages[0].Content)
	}
}

func TestStartNewConversation_ArchivesNonEmpty(t *testing.T) {
	s := newTestStore(t)
	roster, err := s.LoadCharacters()
	if err != nil {
		t.Fatal(err)
	}
	ch := roster[0]

	conv, err := s.LoadConversation(ch)
	if err != nil {
		t.Fatal(err)
	}
	conv.AddUserMessage("第一轮的问题")
	if err := s.SaveConversation(conv); err != nil {
		t.Fatal(err)
	}

	fresh, err := s.StartNewConversation(ch)
	if err != nil {
		t.Fatalf("StartNewConversation: %v", err)
	}
	if len(fresh.Archives) != 1 {
		t.Fatalf("archives = %d, want 1", len(fresh.Archives))
	}
	if fresh.MessageCount() != 1 {
		t.Errorf("fresh conversation should hold only the opening message, got %d", fresh.MessageCount())
	}

	// Empty sequence: only the reseeded opening message, no new snapshot.
	again, err := s.StartNewConversation(ch)
	if err != nil {
		t.Fatal(err)
	}
	if len(again.Archives) != 2 {
		// The opening message counts as content, so it is archived too.
		t.Fatalf("archives = %d, want 2", len(again.Archives))
	}
}

func TestStartNewConversation_EmptyIsNoop(t *testing.T) {
	s := newTestStore(t)

	ch := model.NewCharacter("无开场白", "🫥", "")
	if err := s.AddCharacter(ch); err != nil {
		t.Fatal(err)
	}

	fresh, err := s.StartNewConversation(ch)
	if err != nil {
		t.Fatal(err)
	}
	if len(fresh.Archives) != 0 {
		t.Errorf("empty conversation should not produce a snapshot, got %d", len(fresh.Archives))
	}
}

func TestSaveConversation_Roundtrip(t *testing.T) {
	s := newTestStore(t)
	roster, err := s.LoadCharacters()
	if err != nil {
		t.Fatal(err)
	}

	conv, err := s.LoadConversation(roster[1])
	if err != nil {
		t.Fatal(err)
	}
	conv.AddUserMessage("设计一个logo")
	if err := s.SaveConversation(conv); err != nil {
		t.Fatal(err)
	}

	reloaded, err := s.LoadConversation(roster[1])
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.MessageCount() != conv.MessageCount() {
		t.Errorf("reloaded = %d messages, want %d", reloaded.MessageCount(), conv.MessageCount())
	}
	last := reloaded.GetLastUserMessage()
	if last == nil || last.Content != "设计一个logo" {
		t.Errorf("last user message = %+v", last)
	}
}

func TestSearchConversations(t *testing.T) {
	s := newTestStore(t)
	roster, err := s.LoadCharacters()
	if err != nil {
		t.Fatal(err)
	}

	conv, err := s.LoadConversation(roster[2])
	if err != nil {
		t.Fatal(err)
	}
	conv.AddUserMessage("帮我分析一下市场扩张策略")
	if err := s.SaveConversation(conv); err != nil {
		t.Fatal(err)
	}

	results, err := s.SearchConversations("市场扩张")
	if err != nil {
		t.Fatalf("SearchConversations: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	if results[0].CharacterID != roster[2].ID {
		t.Errorf("matched character = %q", results[0].CharacterID)
	}

	none, err := s.SearchConversations("量子物理")
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != 0 {
		t.Errorf("results = %d, want 0", len(none))
	}
}

func TestListConversations_SkipsCorrupted(t *testing.T) {
	s := newTestStore(t)
	roster, err := s.LoadCharacters()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.LoadConversation(roster[0]); err != nil {
		t.Fatal(err)
	}

	bad := filepath.Join(s.BaseDir, conversationsDir, "broken.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	metas, err := s.ListConversations()
	if err != nil {
		t.Fatalf("ListConversations: %v", err)
	}
	if len(metas) != 1 {
		t.Errorf("metas = %d, want 1 (corrupted file skipped)", len(metas))
	}
}

func TestSnapshot(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.LoadCharacters(); err != nil {
		t.Fatal(err)
	}

	ar, err := s.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(ar.Characters) != 3 || len(ar.Conversations) != 3 {
		t.Errorf("snapshot = %d chars / %d convs", len(ar.Characters), len(ar.Conversations))
	}
}

func TestAtomicWrite_NoPartialFile(t *testing.T) {
	s := newTestStore(t)
	roster, err := s.LoadCharacters()
	if err != nil {
		t.Fatal(err)
	}

	conv, err := s.LoadConversation(roster[0])
	if err != nil {
		t.Fatal(err)
	}
	conv.AddUserMessage("持久化检查")
	if err := s.SaveConversation(conv); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(filepath.Join(s.BaseDir, conversationsDir))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}
