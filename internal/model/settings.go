// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// SESSION SETTINGS
// =============================================================================

// Default sampling values, matching the chat page's initial controls.
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 2048
)

// Settings holds the user-editable options of a chat session.
// They are read fresh at every submit.
type Settings struct {
	Model         string  `json:"model"`
	Temperature   float64 `json:"temperature"`
	MaxTokens     int     `json:"maxTokens"`
	SystemPrompt  string  `json:"systemPrompt"`
	ReasoningMode bool    `json:"reasoningMode"`
}

// DefaultSettings returns settings with no model selected.
func DefaultSettings() Settings {
	return Settings{
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
	}
}

// HasModel reports whether a model has been selected.
func (s Settings) HasModel() bool {
	return s.Model != ""
}

// =============================================================================
// GENERATION STATE
// =============================================================================

// GenerationState tracks whether a chat request is in flight.
type GenerationState int

const (
	StateIdle GenerationState = iota
	StateAwaitingResponse
)

// String returns the state name.
func (s GenerationState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateAwaitingResponse:
		return "AwaitingResponse"
	default:
		return "Unknown"
	}
}
