// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for the upstream Ollama API.
//
// The proxy server uses it to answer the Chat API: model listing is
// served from /api/tags and chat from a non-streaming /api/chat.
//
// # Key Types
//
//   - Client: HTTP client for Ollama API communication
//   - Message: Chat message with role and content
//   - ChatRequest: Request body for /api/chat
//   - ChatResponse: Response body with the assistant message and metrics
//   - ClientError: Categorized client failure
//
// # Usage
//
//	client := ollama.NewClientWithConfig(&ollama.ClientConfig{
//	    BaseURL: "http://localhost:11434",
//	})
//	resp, err := client.Chat(ctx, &ollama.ChatRequest{
//	    Model:    "llama3.2",
//	    Messages: []ollama.Message{ollama.NewUserMessage("Hello")},
//	})
package ollama
