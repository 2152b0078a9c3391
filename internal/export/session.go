// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/ollamachat/internal/model"
)

// =============================================================================
// SESSION DOCUMENT
// =============================================================================

// SessionSettings is the settings block of an exported session.
type SessionSettings struct {
	Temperature   float64 `json:"temperature"`
	MaxTokens     int     `json:"maxTokens"`
	SystemPrompt  string  `json:"systemPrompt"`
	ReasoningMode bool    `json:"reasoningMode,omitempty"`
}

// Session is an exported chat session.
type Session struct {
	ID        string          `json:"id,omitempty"`
	Messages  []model.Turn    `json:"messages"`
	Model     string          `json:"model"`
	Timestamp time.Time       `json:"timestamp"`
	Settings  SessionSettings `json:"settings"`
}

// NewSession captures settings and history at time now.
func NewSession(settings model.Settings, history []model.Turn, now time.Time) *Session {
	messages := make([]model.Turn, len(history))
	copy(messages, history)

	return &Session{
		ID:        uuid.NewString(),
		Messages:  messages,
		Model:     settings.Model,
		Timestamp: now.UTC().Truncate(time.Millisecond),
		Settings: SessionSettings{
			Temperature:   settings.Temperature,
			MaxTokens:     settings.MaxTokens,
			SystemPrompt:  settings.SystemPrompt,
			ReasoningMode: settings.ReasoningMode,
		},
	}
}

// ModelSettings returns the session settings in model form.
func (s *Session) ModelSettings() model.Settings {
	return model.Settings{
		Model:         s.Model,
		Temperature:   s.Settings.Temperature,
		MaxTokens:     s.Settings.MaxTokens,
		SystemPrompt:  s.Settings.SystemPrompt,
		ReasoningMode: s.Settings.ReasoningMode,
	}
}

// History returns a copy of the exported turns.
func (s *Session) History() []model.Turn {
	out := make([]model.Turn, len(s.Messages))
	copy(out, s.Messages)
	return out
}

// Validate checks that every turn has a known role and that user and
// assistant turns are non-blank.
func (s *Session) Validate() error {
	for i, turn := range s.Messages {
		if !turn.Role.Valid() {
			return fmt.Errorf("message %d: invalid role %q", i, turn.Role)
		}
		if turn.Role != model.RoleSystem && turn.IsBlank() {
			return fmt.Errorf("message %d: empty %s content", i, turn.Role)
		}
	}
	if s.Settings.MaxTokens < 0 {
		return fmt.Errorf("settings: maxTokens must not be negative")
	}
	return nil
}

// =============================================================================
// SERIALIZATION
// =============================================================================

// Marshal encodes the session as indented JSON.
func Marshal(s *Session) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("session is nil")
	}
	out := *s
	if out.Messages == nil {
		out.Messages = []model.Turn{}
	}
	return json.MarshalIndent(&out, "", "  ")
}

// Parse decodes and validates a session document.
func Parse(data []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session: %w", err)
	}
	return &s, nil
}

// ReadFile loads a session document from disk.
func ReadFile(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	return Parse(data)
}
