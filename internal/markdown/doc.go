// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package markdown turns model output into structured, safely renderable
// content.
//
// Model output is untrusted text. Render splits it into prose and fenced
// code segments without interpreting any markup; the HTML and terminal
// outputs escape everything they emit.
//
// # Key Types
//
//   - Document: Ordered prose and code segments
//   - Segment: One prose run or one fenced code block with its language tag
//   - TermRenderer: glamour-based terminal rendering with a plain fallback
//
// # Usage
//
//	doc := markdown.Render("Try this:\n```go\nfmt.Println(1)\n```")
//	for _, block := range doc.CodeBlocks() {
//	    fmt.Println(block.Language, block.Text)
//	}
//	page := doc.HTML()
package markdown
