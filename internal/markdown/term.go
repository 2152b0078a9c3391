// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markdown

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// =============================================================================
// TERMINAL RENDERER
// =============================================================================

// TermRenderer renders model output for a terminal.
type TermRenderer struct {
	glamour *glamour.TermRenderer
	width   int
}

// NewTermRenderer creates a renderer. style is "auto" or a glamour
// standard style name ("dark", "light", "notty", ...). width <= 0 disables
// word wrapping.
//
// When glamour cannot be initialized the renderer still works and falls
// back to plain prose with ANSI-highlighted code.
func NewTermRenderer(style string, width int) *TermRenderer {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" || style == "auto" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}

	r := &TermRenderer{width: width}
	if g, err := glamour.NewTermRenderer(opts...); err == nil {
		r.glamour = g
	}
	return r
}

// Render returns text formatted for the terminal.
func (r *TermRenderer) Render(text string) string {
	if r != nil && r.glamour != nil {
		if out, err := r.glamour.Render(text); err == nil {
			return strings.Trim(out, "\n")
		}
	}
	return renderPlain(Render(text))
}

// Width returns the configured wrap width.
func (r *TermRenderer) Width() int {
	return r.width
}

func renderPlain(doc Document) string {
	var sb strings.Builder
	for _, seg := range doc.Segments {
		if !seg.IsCode() {
			sb.WriteString(seg.Text)
			continue
		}
		if !strings.HasSuffix(sb.String(), "\n") && sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(HighlightANSI(seg.Text, seg.Language))
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
