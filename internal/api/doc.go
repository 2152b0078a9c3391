// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api defines the Chat API consumed by a chat session and provides
// an HTTP client for it.
//
// The API exposes two operations:
//
//	GET  /api/models  -> {"models": [{"name": "..."}]}
//	POST /api/chat    -> {"message": {"role": "assistant", "content": "..."}}
//
// Failures are reported with a non-2xx status and an {"error": "..."} body.
//
// # Key Types
//
//   - ChatAPI: Interface implemented by any chat backend
//   - Client: HTTP implementation of ChatAPI
//   - ChatRequest / ChatResponse: Wire types for POST /api/chat
//   - TransportError, APIError, EmptyResponseError: Failure kinds
//
// # Usage
//
//	client := api.NewClient("http://localhost:3000")
//	models, err := client.ListModels(ctx)
//	resp, err := client.Chat(ctx, &api.ChatRequest{Model: models[0].Name, ...})
package api
