// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the chat session: the message history, request
// composition, draft attachments, and the controller that runs one
// request/response exchange at a time against a ChatAPI.
//
// The controller has two states. Submit moves it from Idle to
// AwaitingResponse and every outcome (success, API error, transport
// failure, empty response) moves it back to Idle. A second Submit while a
// request is in flight is rejected. NewChat and ChangeModel clear the
// history and require explicit confirmation while a request is in flight.
//
// # Key Types
//
//   - MessageStore: Ordered, append-only turn history
//   - AttachmentList: Files waiting to be folded into the next request
//   - Controller: Session state machine and user-visible notice log
//   - ValidationError: Input rejected before any network attempt
//
// # Usage
//
//	ctrl := chat.NewController(api.NewClient(url),
//	    chat.WithSettings(settings),
//	    chat.WithLogger(logger),
//	)
//	if err := ctrl.Submit(ctx, "Hello"); err != nil {
//	    // the error is also recorded as a notice
//	}
//	for _, entry := range ctrl.Transcript() {
//	    ...
//	}
package chat
