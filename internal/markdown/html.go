// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markdown

import (
	"fmt"
	"html"
	"strings"
)

// =============================================================================
// HTML OUTPUT
// =============================================================================

// HTML renders the document as an HTML fragment.
//
// Prose is escaped and its line breaks become <br>. Each code block is a
// <pre><code> element with a language class and a copy button whose
// data-index refers to the block's position in CodeBlocks.
func (d Document) HTML() string {
	var sb strings.Builder
	codeIndex := 0

	for _, seg := range d.Segments {
		if seg.IsCode() {
			writeCodeHTML(&sb, seg, codeIndex)
			codeIndex++
			continue
		}
		writeProseHTML(&sb, seg.Text)
	}

	return sb.String()
}

// ToHTML is shorthand for Render(text).HTML().
func ToHTML(text string) string {
	return Render(text).HTML()
}

func writeProseHTML(sb *strings.Builder, text string) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if i > 0 {
			sb.WriteString("<br>\n")
		}
		sb.WriteString(html.EscapeString(line))
	}
}

func writeCodeHTML(sb *strings.Builder, seg Segment, index int) {
	class := "language-plaintext"
	if seg.Language != "" {
		class = "language-" + html.EscapeString(seg.Language)
	}
	fmt.Fprintf(sb, `<div class="code-block" data-index="%d">`, index)
	fmt.Fprintf(sb, `<pre><code class="%s">`, class)
	sb.WriteString(HighlightHTML(seg.Text, seg.Language))
	sb.WriteString(`</code></pre>`)
	fmt.Fprintf(sb, `<button class="copy-code-btn" data-index="%d">Copy</button>`, index)
	sb.WriteString(`</div>`)
}
