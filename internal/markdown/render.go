// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markdown

import (
	"strings"
)

const fence = "```"

// =============================================================================
// DOCUMENT TYPES
// =============================================================================

// SegmentKind distinguishes prose from code.
type SegmentKind int

const (
	SegmentProse SegmentKind = iota
	SegmentCode
)

// String returns the kind name.
func (k SegmentKind) String() string {
	if k == SegmentCode {
		return "code"
	}
	return "prose"
}

// Segment is a contiguous run of prose or the body of one fenced code block.
type Segment struct {
	Kind     SegmentKind
	Text     string
	Language string // code only; empty when the fence has no tag
}

// IsCode reports whether the segment is a code block.
func (s Segment) IsCode() bool {
	return s.Kind == SegmentCode
}

// Document is the structured form of a piece of model output.
type Document struct {
	Segments []Segment
}

// CodeBlocks returns the code segments in order.
func (d Document) CodeBlocks() []Segment {
	var blocks []Segment
	for _, seg := range d.Segments {
		if seg.IsCode() {
			blocks = append(blocks, seg)
		}
	}
	return blocks
}

// =============================================================================
// RENDER
// =============================================================================

// Render splits text into prose and fenced code segments.
//
// Fences are recognized anywhere in the text, so "a ```x``` b" yields a
// code segment between two prose segments. An opening fence followed by a
// single word and a newline carries that word as the language tag. A fence
// that is never closed runs to the end of the input.
func Render(text string) Document {
	var doc Document
	pos := 0

	for pos <= len(text) {
		open := strings.Index(text[pos:], fence)
		if open < 0 {
			doc.addProse(text[pos:])
			break
		}
		doc.addProse(text[pos : pos+open])

		bodyStart := pos + open + len(fence)
		lang, bodyStart := readInfoString(text, bodyStart)

		end := strings.Index(text[bodyStart:], fence)
		if end < 0 {
			doc.addCode(text[bodyStart:], lang)
			break
		}
		doc.addCode(text[bodyStart:bodyStart+end], lang)
		pos = bodyStart + end + len(fence)
	}

	return doc
}

// readInfoString consumes the rest of the opening fence line when it is
// empty or a language tag, returning the tag and where the body starts.
func readInfoString(text string, start int) (string, int) {
	nl := strings.IndexByte(text[start:], '\n')
	if nl < 0 {
		return "", start
	}
	info := strings.TrimSpace(text[start : start+nl])
	if info == "" || isLanguageTag(info) {
		return info, start + nl + 1
	}
	return "", start
}

func isLanguageTag(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '+', r == '-', r == '#', r == '.', r == '_':
		default:
			return false
		}
	}
	return s != ""
}

func (d *Document) addProse(text string) {
	if text == "" {
		return
	}
	d.Segments = append(d.Segments, Segment{Kind: SegmentProse, Text: text})
}

func (d *Document) addCode(body, lang string) {
	body = strings.TrimSuffix(body, "\n")
	body = strings.TrimSuffix(body, "\r")
	d.Segments = append(d.Segments, Segment{Kind: SegmentCode, Text: body, Language: lang})
}
