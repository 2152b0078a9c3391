// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markdown

import (
	"bytes"
	"html"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// DefaultCodeStyle is the chroma style used for highlighted code.
const DefaultCodeStyle = "monokai"

var htmlFormatter = chromahtml.New(
	chromahtml.WithClasses(true),
	chromahtml.PreventSurroundingPre(true),
)

// =============================================================================
// SYNTAX HIGHLIGHTING
// =============================================================================

// lexerFor picks a lexer by name, then by content, then the plain fallback.
func lexerFor(code, language string) chroma.Lexer {
	var lexer chroma.Lexer
	if language != "" {
		lexer = lexers.Get(language)
	}
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return chroma.Coalesce(lexer)
}

func styleFor(name string) *chroma.Style {
	style := styles.Get(name)
	if style == nil {
		style = styles.Fallback
	}
	return style
}

// HighlightHTML returns code as class-annotated HTML spans. Token text is
// escaped by the formatter; on any failure the escaped plain code is
// returned.
func HighlightHTML(code, language string) string {
	iterator, err := lexerFor(code, language).Tokenise(nil, code)
	if err != nil {
		return html.EscapeString(code)
	}

	var buf bytes.Buffer
	if err := htmlFormatter.Format(&buf, styleFor(DefaultCodeStyle), iterator); err != nil {
		return html.EscapeString(code)
	}
	return buf.String()
}

// HighlightANSI returns code colored with 256-color terminal escapes.
func HighlightANSI(code, language string) string {
	iterator, err := lexerFor(code, language).Tokenise(nil, code)
	if err != nil {
		return code
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, styleFor(DefaultCodeStyle), iterator); err != nil {
		return code
	}
	return buf.String()
}

// StyleCSS returns the stylesheet matching the classes HighlightHTML emits.
func StyleCSS(styleName string) (string, error) {
	var buf bytes.Buffer
	if err := htmlFormatter.WriteCSS(&buf, styleFor(styleName)); err != nil {
		return "", err
	}
	return buf.String(), nil
}
