// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// SEGMENTATION TESTS
// =============================================================================

func TestRender_Segments(t *testing.T) {
	prose := func(s string) Segment { return Segment{Kind: SegmentProse, Text: s} }
	code := func(s, lang string) Segment { return Segment{Kind: SegmentCode, Text: s, Language: lang} }

	tests := []struct {
		name  string
		input string
		want  []Segment
	}{
		{"empty", "", nil},
		{"prose only", "hello\nworld", []Segment{prose("hello\nworld")}},
		{"inline fence", "a ```code``` b", []Segment{prose("a "), code("code", ""), prose(" b")}},
		{"unterminated fence", "a ```code", []Segment{prose("a "), code("code", "")}},
		{"bare fence", "```", []Segment{code("", "")}},
		{"tagged block", "x\n```go\nfmt.Println(1)\n```\ny", []Segment{
			prose("x\n"), code("fmt.Println(1)", "go"), prose("\ny"),
		}},
		{"untagged block", "```\nls -la\n```", []Segment{code("ls -la", "")}},
		{"unterminated tagged", "```python\nprint(1)\n", []Segment{code("print(1)", "python")}},
		{"info with spaces is body", "```not a tag\nbody```", []Segment{code("not a tag\nbody", "")}},
		{"two blocks", "```a\n1\n``` mid ```b\n2\n```", []Segment{
			code("1", "a"), prose(" mid "), code("2", "b"),
		}},
		{"crlf", "```js\r\nx()\r\n```", []Segment{code("x()", "js")}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			doc := Render(tc.input)
			assert.Equal(t, tc.want, doc.Segments)
		})
	}
}

func TestRender_Pure(t *testing.T) {
	input := "a\n```rust\nfn main() {}\n```\nb"
	assert.Equal(t, Render(input), Render(input))
}

func TestRender_PathologicalInputTerminates(t *testing.T) {
	inputs := []string{
		strings.Repeat("`", 1000),
		strings.Repeat("``` ", 500),
		strings.Repeat("```\n", 333),
		"````````",
	}
	for _, in := range inputs {
		doc := Render(in)
		for _, seg := range doc.Segments {
			assert.NotContains(t, seg.Language, "`")
		}
	}
}

func TestDocument_CodeBlocks(t *testing.T) {
	doc := Render("intro\n```go\na\n```\nthen\n```sh\nb\n```")
	blocks := doc.CodeBlocks()
	require.Len(t, blocks, 2)
	assert.Equal(t, "go", blocks[0].Language)
	assert.Equal(t, "b", blocks[1].Text)
}

// =============================================================================
// HTML TESTS
// =============================================================================

func TestHTML_EscapesProse(t *testing.T) {
	out := ToHTML(`<script>alert("x")</script>` + "\nnext")

	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.Contains(t, out, "<br>")
}

func TestHTML_EscapesCode(t *testing.T) {
	out := ToHTML("```html\n<img src=x onerror=alert(1)>\n```")

	assert.NotContains(t, out, "<img")
	assert.Contains(t, out, `class="language-html"`)
	assert.Contains(t, out, `<button class="copy-code-btn" data-index="0">`)
}

func TestHTML_CodeIndexes(t *testing.T) {
	out := ToHTML("```\na\n``` and ```\nb\n```")

	assert.Contains(t, out, `data-index="0"`)
	assert.Contains(t, out, `data-index="1"`)
	assert.Contains(t, out, `class="language-plaintext"`)
}

func TestStyleCSS(t *testing.T) {
	css, err := StyleCSS(DefaultCodeStyle)
	require.NoError(t, err)
	assert.NotEmpty(t, css)
}

// =============================================================================
// TERMINAL TESTS
// =============================================================================

func TestTermRenderer_Render(t *testing.T) {
	r := NewTermRenderer("notty", 80)
	out := r.Render("Hello **world**")
	assert.Contains(t, out, "Hello")
	assert.Equal(t, 80, r.Width())
}

func TestRenderPlain(t *testing.T) {
	out := renderPlain(Render("see:```\nx\n```"))
	assert.True(t, strings.HasPrefix(out, "see:\n"))
	assert.Contains(t, out, "x")
}
