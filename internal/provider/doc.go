// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package provider implements the client for OpenAI-compatible chat
// completion endpoints.
//
// The streaming path is layered: OpenStream issues the POST and hands
// back the response body, SSEReader splits it into events, and
// ExtractDelta turns each event payload into a text fragment. The
// session package drives these pieces with its own timeout policy.
//
// # Usage
//
//	client := provider.NewClient(cfg)
//	body, err := client.OpenStream(ctx, messages)
//	if err != nil { ... }
//	defer body.Close()
//
//	reader := provider.NewSSEReader(body)
//	for {
//	    data, err := reader.ReadEvent()
//	    ...
//	    content, done, ok := provider.ExtractDelta(data)
//	    ...
//	}
package provider
