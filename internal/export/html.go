// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"strings"

	"github.com/jeranaias/ollamachat/internal/markdown"
	"github.com/jeranaias/ollamachat/internal/model"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter writes a standalone HTML transcript with highlighted code.
type HTMLExporter struct {
	options *Options
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{options: opts}
}

// Export converts a session to an HTML page. Every turn goes through the
// markdown renderer, so no content is emitted unescaped.
func (e *HTMLExporter) Export(s *Session) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("session is nil")
	}
	if len(s.Messages) == 0 {
		return nil, fmt.Errorf("session has no messages")
	}

	theme := e.options.Theme
	if theme != "light" {
		theme = "dark"
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	sb.WriteString("<meta charset=\"UTF-8\">\n")
	sb.WriteString(fmt.Sprintf("<title>Ollama Chat - %s</title>\n", html.EscapeString(s.Model)))
	sb.WriteString(e.stylesheet(theme))
	sb.WriteString("</head>\n")
	sb.WriteString(fmt.Sprintf("<body class=\"%s-theme\">\n<main class=\"conversation\">\n", theme))

	if e.options.IncludeMetadata {
		sb.WriteString("<header>\n")
		sb.WriteString(fmt.Sprintf("<h1>Ollama Chat</h1>\n<p class=\"meta\">Model: %s &middot; Saved: %s</p>\n",
			html.EscapeString(s.Model), html.EscapeString(formatTimestamp(s.Timestamp))))
		sb.WriteString("</header>\n")
	}

	for _, turn := range s.Messages {
		sb.WriteString(renderTurnHTML(turn))
	}

	sb.WriteString("</main>\n</body>\n</html>\n")
	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

func renderTurnHTML(turn model.Turn) string {
	role := html.EscapeString(string(turn.Role))
	return fmt.Sprintf("<section class=\"message %s-message\">\n<div class=\"message-header\">%s</div>\n<div class=\"message-content\">%s</div>\n</section>\n",
		role, html.EscapeString(roleLabel(turn.Role)), markdown.ToHTML(turn.Content))
}

func (e *HTMLExporter) stylesheet(theme string) string {
	bg, fg, card := "#1e1e2e", "#cdd6f4", "#313244"
	if theme == "light" {
		bg, fg, card = "#eff1f5", "#4c4f69", "#ffffff"
	}

	var sb strings.Builder
	sb.WriteString("<style>\n")
	sb.WriteString(fmt.Sprintf("body { background: %s; color: %s; font-family: system-ui, sans-serif; margin: 0; }\n", bg, fg))
	sb.WriteString(".conversation { max-width: 860px; margin: 0 auto; padding: 24px; }\n")
	sb.WriteString(fmt.Sprintf(".message { background: %s; border-radius: 8px; padding: 12px 16px; margin: 12px 0; }\n", card))
	sb.WriteString(".message-header { font-weight: 600; margin-bottom: 8px; }\n")
	sb.WriteString(".system-message { font-style: italic; opacity: 0.8; }\n")
	sb.WriteString(".code-block { position: relative; }\n")
	sb.WriteString(".code-block pre { overflow-x: auto; padding: 12px; border-radius: 6px; }\n")
	sb.WriteString(".copy-code-btn { display: none; }\n")
	sb.WriteString(".meta { opacity: 0.7; }\n")
	if css, err := markdown.StyleCSS(markdown.DefaultCodeStyle); err == nil {
		sb.WriteString(css)
	}
	sb.WriteString("</style>\n")
	return sb.String()
}
