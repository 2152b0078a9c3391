// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/jeranaias/ollamachat/internal/model"
)

// Notice texts shown to the user.
const (
	WelcomeNotice       = "Welcome to Ollama Chat! Select a model to start chatting."
	SelectModelNotice   = "Please select a model first."
	EmptyResponseNotice = "Error: Received empty response from model."
)

// =============================================================================
// NOTICES
// =============================================================================

// NoticeLevel classifies a notice.
type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeError
)

// Notice is a system-level message for the user. Notices are never sent to
// the model.
type Notice struct {
	Level NoticeLevel
	Text  string
	Time  time.Time
}

// IsError reports whether the notice describes a failure.
func (n Notice) IsError() bool {
	return n.Level == NoticeError
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// EntryKind distinguishes transcript entries.
type EntryKind int

const (
	EntryTurn EntryKind = iota
	EntryNotice
)

// Entry is one item of the user-visible transcript: either a turn from the
// history or a notice.
type Entry struct {
	Kind   EntryKind
	Turn   model.Turn
	Notice Notice

	// Synthesized marks the attachment turn built at submit time.
	Synthesized bool
	Time        time.Time
}
