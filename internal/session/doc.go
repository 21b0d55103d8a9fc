// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session drives one streaming chat completion from request to
// terminal state.
//
// # Key Types
//
//   - Controller: single-use state machine (idle -> requesting ->
//     streaming -> done/failed/cancelled) with exactly-once delivery
//   - Governor: stall watchdog with an idle window that re-arms on every
//     frame and a hard cap that never does
//   - Callbacks: OnDelta per fragment, then exactly one of OnDone or
//     OnError
//
// # Usage
//
//	ctl := session.NewController(client)
//	ctl.Run(ctx, conv.ToChatMessages(), session.Callbacks{
//	    OnDelta: func(s string) { buf.Append(s) },
//	    OnDone:  func(full string) { conv.FinalizeLast(stats) },
//	    OnError: func(err error) { showError(err) },
//	})
package session
