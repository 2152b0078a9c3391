// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared by the chat session,
// the API client, and the exporters.
//
// # Key Types
//
//   - Role: Turn role enumeration (system, user, assistant)
//   - Turn: One immutable message in the session history
//   - Attachment: User-supplied file folded into the next request
//   - Settings: Model, sampling options, and system prompt for a session
//   - GenerationState: Idle or AwaitingResponse
//
// # Usage
//
//	settings := model.DefaultSettings()
//	settings.Model = "llama3.2"
//	turn := model.UserTurn("Hello!")
package model
