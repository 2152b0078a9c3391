// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/jeranaias/ollamachat/internal/api"
	"github.com/jeranaias/ollamachat/internal/model"
)

// ReasoningInstruction is the system turn added when reasoning mode is on.
const ReasoningInstruction = "Please think step by step and show your reasoning before providing the final answer."

const attachmentHeader = "I'm attaching the following files for reference:\n\n"

// =============================================================================
// REQUEST COMPOSITION
// =============================================================================

// Compose builds the chat request for the given session state.
//
// The message list is, in order: the system prompt (when non-blank), the
// reasoning instruction (when enabled), the synthesized attachment turn
// (when there are attachments), then the whole history followed by the
// synthesized turn again, since the caller appends it to the history.
//
// The synthesized turn is returned so the caller can store it. Compose does
// not modify its arguments and equal inputs give deeply equal requests.
func Compose(settings model.Settings, history []model.Turn, attachments []model.Attachment) (*api.ChatRequest, *model.Turn) {
	messages := make([]model.Turn, 0, len(history)+4)

	if prompt := strings.TrimSpace(settings.SystemPrompt); prompt != "" {
		messages = append(messages, model.SystemTurn(prompt))
	}
	if settings.ReasoningMode {
		messages = append(messages, model.SystemTurn(ReasoningInstruction))
	}

	var synthesized *model.Turn
	if len(attachments) > 0 {
		turn := model.UserTurn(SynthesizeAttachments(attachments))
		synthesized = &turn
		messages = append(messages, turn)
	}

	messages = append(messages, history...)
	if synthesized != nil {
		messages = append(messages, *synthesized)
	}

	return &api.ChatRequest{
		Model:    settings.Model,
		Messages: messages,
		Options: api.Options{
			Temperature: settings.Temperature,
			NumPredict:  settings.MaxTokens,
		},
	}, synthesized
}

// SynthesizeAttachments concatenates attachments into one user message
// body, in list order.
func SynthesizeAttachments(attachments []model.Attachment) string {
	var sb strings.Builder
	sb.WriteString(attachmentHeader)
	for _, a := range attachments {
		sb.WriteString("File: ")
		sb.WriteString(a.Name)
		sb.WriteString("\n\n")
		sb.WriteString(a.Content)
		sb.WriteString("\n\n")
	}
	return sb.String()
}
