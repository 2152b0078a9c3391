// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the terminal front ends and
// the file writers.
//
// # Key Functions
//
// Text:
//   - TruncateWidth: Display-width aware truncation with an ellipsis
//   - StringWidth: Terminal column width of a string
//   - PadRight: Pad to a display width
//   - FormatBytes: Human-readable sizes ("2.0 GB", "512 B")
//
// Files:
//   - AtomicWriteFile: Crash-safe file writing with fsync
//
// # Usage
//
//	line := util.TruncateWidth(preview, 60)
//	err := util.AtomicWriteFile(path, data, 0644)
package util
