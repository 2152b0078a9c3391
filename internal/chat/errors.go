// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	ErrEmptyContent         = errors.New("turn content is empty")
	ErrInvalidRole          = errors.New("invalid turn role")
	ErrNoModel              = errors.New("no model selected")
	ErrEmptySubmit          = errors.New("nothing to send")
	ErrAttachmentTooLarge   = errors.New("file is too large, maximum size is 100KB")
	ErrGenerationInProgress = errors.New("a response is being generated")
	ErrConfirmationRequired = errors.New("a response is being generated, confirmation required")
	ErrResponseDiscarded    = errors.New("response discarded after the session was reset")
)

// ValidationError is input rejected before any network attempt.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func newValidationError(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Message: err.Error(), Err: err}
}
