// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/jeranaias/ollamachat/internal/model"
)

// =============================================================================
// ATTACHMENT LIST
// =============================================================================

// AttachmentList holds the attachments of the unsent draft.
type AttachmentList struct {
	items []model.Attachment
}

// Add appends an attachment. Oversized or non-text content is rejected and
// the list is left unchanged.
func (l *AttachmentList) Add(a model.Attachment) error {
	if a.Size() > model.MaxAttachmentSize {
		return &ValidationError{
			Field:   "attachment",
			Message: fmt.Sprintf("%s: %s", a.Name, ErrAttachmentTooLarge),
			Err:     ErrAttachmentTooLarge,
		}
	}
	if err := a.Validate(); err != nil {
		return &ValidationError{Field: "attachment", Message: err.Error()}
	}
	l.items = append(l.items, a)
	return nil
}

// Remove deletes the attachment at index i.
func (l *AttachmentList) Remove(i int) error {
	if i < 0 || i >= len(l.items) {
		return fmt.Errorf("attachment index %d out of range", i)
	}
	l.items = append(l.items[:i:i], l.items[i+1:]...)
	return nil
}

// Clear removes every attachment.
func (l *AttachmentList) Clear() {
	l.items = nil
}

// All returns a copy of the attachments in the order they were added.
func (l *AttachmentList) All() []model.Attachment {
	out := make([]model.Attachment, len(l.items))
	copy(out, l.items)
	return out
}

// Len returns the number of attachments.
func (l *AttachmentList) Len() int {
	return len(l.items)
}

// =============================================================================
// FILE LOADING
// =============================================================================

// LoadAttachment reads a text file for attaching.
//
// Files larger than 100KB are rejected before their content is read. A
// UTF-8 or UTF-16 byte order mark selects the decoding; without one the
// file must be valid UTF-8.
func LoadAttachment(path string) (model.Attachment, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Attachment{}, fmt.Errorf("open attachment: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return model.Attachment{}, fmt.Errorf("stat attachment: %w", err)
	}
	name := filepath.Base(path)
	if info.IsDir() {
		return model.Attachment{}, &ValidationError{Field: "attachment", Message: name + " is a directory"}
	}
	if info.Size() > model.MaxAttachmentSize {
		return model.Attachment{}, &ValidationError{
			Field:   "attachment",
			Message: fmt.Sprintf("%s: %s", name, ErrAttachmentTooLarge),
			Err:     ErrAttachmentTooLarge,
		}
	}

	raw, err := io.ReadAll(io.LimitReader(f, model.MaxAttachmentSize+1))
	if err != nil {
		return model.Attachment{}, fmt.Errorf("read attachment: %w", err)
	}

	content, err := decodeText(raw)
	if err != nil {
		return model.Attachment{}, &ValidationError{Field: "attachment", Message: name + " is not a text file", Err: err}
	}
	return model.Attachment{Name: name, Content: content, SourceSize: len(raw)}, nil
}

var errNotText = errors.New("content is not valid text")

var byteOrderMarks = [][]byte{
	{0xEF, 0xBB, 0xBF},
	{0xFE, 0xFF},
	{0xFF, 0xFE},
}

// decodeText strips a BOM and converts UTF-16 to UTF-8. Content without a
// BOM must be NUL-free UTF-8.
func decodeText(raw []byte) (string, error) {
	if !hasByteOrderMark(raw) {
		if !utf8.Valid(raw) || bytes.IndexByte(raw, 0) >= 0 {
			return "", errNotText
		}
		return string(raw), nil
	}

	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(decoder, raw)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func hasByteOrderMark(raw []byte) bool {
	for _, bom := range byteOrderMarks {
		if bytes.HasPrefix(raw, bom) {
			return true
		}
	}
	return false
}
