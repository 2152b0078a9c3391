// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks.
var (
	ErrTransport     = errors.New("failed to communicate with the server")
	ErrEmptyResponse = errors.New("received empty response from model")
)

// =============================================================================
// TRANSPORT ERROR
// =============================================================================

// TransportError means the server could not be reached or the exchange
// broke before a response was read.
type TransportError struct {
	Op    string
	Cause error
}

func (e *TransportError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", ErrTransport.Error(), e.Cause)
	}
	return ErrTransport.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// Is matches ErrTransport.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// =============================================================================
// API ERROR
// =============================================================================

// APIError is a non-2xx response. Message is taken verbatim from the
// error payload when one is present.
type APIError struct {
	StatusCode int
	Endpoint   string
	Message    string
	Details    string
}

func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError creates an APIError.
func NewAPIError(statusCode int, endpoint, message string) *APIError {
	return &APIError{StatusCode: statusCode, Endpoint: endpoint, Message: message}
}

// =============================================================================
// EMPTY RESPONSE ERROR
// =============================================================================

// EmptyResponseError is a 2xx response without assistant content.
type EmptyResponseError struct {
	Model string
}

func (e *EmptyResponseError) Error() string {
	return ErrEmptyResponse.Error()
}

// Is matches ErrEmptyResponse.
func (e *EmptyResponseError) Is(target error) bool {
	return target == ErrEmptyResponse
}
