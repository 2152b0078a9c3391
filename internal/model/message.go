// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared by the chat session,
// the API client, and the exporters.
package model

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// =============================================================================
// TURN TYPE
// =============================================================================

// Turn is a single message exchanged in a chat.
// Turns are values; once appended to a history they are never modified.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// SystemTurn creates a system turn.
func SystemTurn(content string) Turn {
	return Turn{Role: RoleSystem, Content: content}
}

// UserTurn creates a user turn.
func UserTurn(content string) Turn {
	return Turn{Role: RoleUser, Content: content}
}

// AssistantTurn creates an assistant turn.
func AssistantTurn(content string) Turn {
	return Turn{Role: RoleAssistant, Content: content}
}

// IsBlank reports whether the turn carries no visible content.
func (t Turn) IsBlank() bool {
	return strings.TrimSpace(t.Content) == ""
}

// =============================================================================
// ATTACHMENT TYPE
// =============================================================================

// MaxAttachmentSize is the largest file, in bytes, that may be attached.
const MaxAttachmentSize = 100 * 1024

// Attachment is a named piece of text content folded into the next request.
type Attachment struct {
	Name    string `json:"name"`
	Content string `json:"content"`

	// SourceSize is the byte size of the file the content was decoded
	// from; zero when the content did not come from a file.
	SourceSize int `json:"-"`
}

// Size returns the size the limit applies to: the source file size when
// known, otherwise the content length in bytes.
func (a Attachment) Size() int {
	if a.SourceSize > 0 {
		return a.SourceSize
	}
	return len(a.Content)
}

// Validate checks the attachment against the size limit.
func (a Attachment) Validate() error {
	if a.Size() > MaxAttachmentSize {
		return fmt.Errorf("file %s exceeds the 100KB size limit", a.Name)
	}
	if !utf8.ValidString(a.Content) {
		return fmt.Errorf("file %s is not valid text", a.Name)
	}
	return nil
}
