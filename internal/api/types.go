// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"

	"github.com/jeranaias/ollamachat/internal/model"
)

// =============================================================================
// COLLABORATOR INTERFACE
// =============================================================================

// ChatAPI is the backend a chat session talks to.
type ChatAPI interface {
	// ListModels returns the models available for chat.
	ListModels(ctx context.Context) ([]ModelInfo, error)

	// Chat sends one non-streaming chat request.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
}

// =============================================================================
// REQUEST TYPES
// =============================================================================

// Options carries the sampling parameters of a chat request.
type Options struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Model    string       `json:"model"`
	Messages []model.Turn `json:"messages"`
	Options  Options      `json:"options"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// ModelInfo describes one available model.
type ModelInfo struct {
	Name       string `json:"name"`
	Size       int64  `json:"size,omitempty"`
	ModifiedAt string `json:"modified_at,omitempty"`
}

// ModelsResponse is the body of GET /api/models.
type ModelsResponse struct {
	Models []ModelInfo `json:"models"`
}

// ResponseMessage is the assistant message in a chat response.
// ContentHTML is set by servers that pre-render markdown.
type ResponseMessage struct {
	Role        string `json:"role"`
	Content     string `json:"content"`
	ContentHTML string `json:"content_html,omitempty"`
}

// ChatResponse is the body of a successful POST /api/chat.
type ChatResponse struct {
	Model   string          `json:"model,omitempty"`
	Message ResponseMessage `json:"message"`
	Done    bool            `json:"done,omitempty"`
}

// ErrorResponse is the body of a failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
