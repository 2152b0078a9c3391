// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export saves and loads chat sessions.
//
// The JSON session document is the canonical artifact:
//
//	{
//	  "messages": [{"role": "user", "content": "..."}],
//	  "model": "llama3.2",
//	  "timestamp": "2025-01-02T03:04:05.000Z",
//	  "settings": {"temperature": 0.7, "maxTokens": 2048, "systemPrompt": ""}
//	}
//
// It round-trips through Marshal and Parse. Markdown and HTML exporters
// produce read-only transcripts.
//
// # Key Types
//
//   - Session: The exported session document
//   - Exporter: Format-specific writer (JSON, Markdown, HTML)
//   - Options: Output directory and metadata toggles
//
// # Usage
//
//	sess := export.NewSession(settings, history, time.Now())
//	path, err := export.ExportToFile(sess, export.NewJSONExporter(nil), nil)
//
//	loaded, err := export.ReadFile(path)
package export
