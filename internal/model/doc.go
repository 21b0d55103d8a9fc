// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for characters, conversations
// and messages.
//
// # Key Types
//
//   - Character: a chat persona with background prompt and opening message
//   - Conversation: container for one chat with a character
//   - Message: single message with role, content, and streaming state
//   - Role: message role enumeration (user, assistant, system)
//   - Archive: portable container for full-state export and import
//
// # Usage
//
// Create a conversation for a character:
//
//	conv := model.NewConversationWithCharacter(ch)
//	conv.AddUserMessage("你好")
//	msgs := conv.ToChatMessages()
package model
