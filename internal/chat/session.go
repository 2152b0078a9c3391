// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"

	"github.com/jeranaias/ollamachat/internal/export"
)

// =============================================================================
// SAVE AND LOAD
// =============================================================================

// Export captures the session as an export document.
func (c *Controller) Export() *export.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return export.NewSession(c.settings, c.store.All(), c.now())
}

// Restore replaces the history and settings with those of a saved session.
// Draft attachments are kept. Confirmation follows the same rule as
// NewChat.
func (c *Controller) Restore(s *export.Session, confirm bool) error {
	if s == nil {
		return fmt.Errorf("session is nil")
	}
	if err := s.Validate(); err != nil {
		return &ValidationError{Field: "session", Message: err.Error(), Err: err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkResetLocked(confirm); err != nil {
		return err
	}
	c.resetLocked()

	for _, turn := range s.History() {
		if err := c.store.Append(turn); err != nil {
			return err
		}
		c.addTurn(turn, false)
	}
	c.settings = s.ModelSettings()

	c.addNotice(NoticeInfo, fmt.Sprintf("Loaded chat with %d messages.", c.store.Len()))
	c.logger.Printf("SESSION_RESTORED | model=%s messages=%d", c.settings.Model, c.store.Len())
	return nil
}
