// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists the character roster and conversations.
//
// Layout under the app home directory (~/.persona by default):
//
//	characters.json              full roster, seeded on first run
//	conversations/<charID>.json  one active conversation per character,
//	                             with archived snapshots inline
//
// All writes go through util.AtomicWriteJSON so a crash mid-save never
// leaves a truncated file. Deleting a character removes its
// conversation file along with every archived snapshot in it.
package storage
