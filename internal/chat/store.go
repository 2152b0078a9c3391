// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"

	"github.com/jeranaias/ollamachat/internal/model"
)

// =============================================================================
// MESSAGE STORE
// =============================================================================

// MessageStore is the ordered turn history of a session.
//
// Turns are only ever appended; Clear is the only way to remove them.
// A repeated user message is stored again, never merged with an earlier
// identical turn. MessageStore is not safe for concurrent use; Controller
// serializes access.
type MessageStore struct {
	turns []model.Turn
}

// NewMessageStore creates an empty store.
func NewMessageStore() *MessageStore {
	return &MessageStore{}
}

// Append adds a turn at the end of the history.
// User and assistant turns with blank content are rejected.
func (s *MessageStore) Append(turn model.Turn) error {
	if !turn.Role.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRole, turn.Role)
	}
	if turn.Role != model.RoleSystem && turn.IsBlank() {
		return fmt.Errorf("%w: %s turn", ErrEmptyContent, turn.Role)
	}
	s.turns = append(s.turns, turn)
	return nil
}

// Clear removes every turn.
func (s *MessageStore) Clear() {
	s.turns = nil
}

// All returns a copy of the history in append order.
func (s *MessageStore) All() []model.Turn {
	out := make([]model.Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Len returns the number of turns.
func (s *MessageStore) Len() int {
	return len(s.turns)
}

// Last returns the most recent turn.
func (s *MessageStore) Last() (model.Turn, bool) {
	if len(s.turns) == 0 {
		return model.Turn{}, false
	}
	return s.turns[len(s.turns)-1], true
}

// LastOfRole returns the most recent turn with the given role.
func (s *MessageStore) LastOfRole(role model.Role) (model.Turn, bool) {
	for i := len(s.turns) - 1; i >= 0; i-- {
		if s.turns[i].Role == role {
			return s.turns[i], true
		}
	}
	return model.Turn{}, false
}
