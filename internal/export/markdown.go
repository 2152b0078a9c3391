// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"

	"github.com/jeranaias/ollamachat/internal/model"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter writes a human-readable Markdown transcript.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export converts a session to Markdown.
func (e *MarkdownExporter) Export(s *Session) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("session is nil")
	}
	if len(s.Messages) == 0 {
		return nil, fmt.Errorf("session has no messages")
	}

	var sb strings.Builder
	sb.WriteString("---\n")
	sb.WriteString(fmt.Sprintf("model: %s\n", escapeYAML(s.Model)))
	sb.WriteString(fmt.Sprintf("date: %s\n", s.Timestamp.Format("2006-01-02T15:04:05Z07:00")))
	sb.WriteString(fmt.Sprintf("messages: %d\n", len(s.Messages)))
	sb.WriteString("---\n\n")

	sb.WriteString("# Ollama Chat\n\n")

	if e.options.IncludeMetadata {
		sb.WriteString("## Session Information\n\n")
		sb.WriteString(fmt.Sprintf("- **Model**: %s\n", escapeMarkdown(s.Model)))
		sb.WriteString(fmt.Sprintf("- **Saved**: %s\n", formatTimestamp(s.Timestamp)))
		sb.WriteString(fmt.Sprintf("- **Temperature**: %.2f\n", s.Settings.Temperature))
		sb.WriteString(fmt.Sprintf("- **Max Tokens**: %d\n", s.Settings.MaxTokens))
		if prompt := strings.TrimSpace(s.Settings.SystemPrompt); prompt != "" {
			sb.WriteString(fmt.Sprintf("- **System Prompt**: %s\n", escapeMarkdown(prompt)))
		}
		sb.WriteString("\n---\n\n")
	}

	sb.WriteString("## Conversation\n\n")
	for i, turn := range s.Messages {
		sb.WriteString(fmt.Sprintf("### %s\n\n", roleLabel(turn.Role)))
		sb.WriteString(strings.TrimSpace(turn.Content))
		sb.WriteString("\n\n")
		if i < len(s.Messages)-1 {
			sb.WriteString("---\n\n")
		}
	}

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// =============================================================================
// FORMATTING HELPERS
// =============================================================================

func roleLabel(role model.Role) string {
	if role == "" {
		return "Unknown"
	}
	return role.DisplayName()
}

// escapeMarkdown escapes characters that would break inline formatting.
func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "#", "\\#")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "[", "\\[")
	s = strings.ReplaceAll(s, "]", "\\]")
	return s
}

// escapeYAML quotes a front-matter value when it contains special characters.
func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":#|>@`\"'[]{}!%&*\n\r\\") || strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		s = strings.ReplaceAll(s, "\\", "\\\\")
		s = strings.ReplaceAll(s, "\"", "\\\"")
		s = strings.ReplaceAll(s, "\n", "\\n")
		s = strings.ReplaceAll(s, "\r", "\\r")
		return fmt.Sprintf("\"%s\"", s)
	}
	return s
}
