// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/ollamachat/internal/commands"
	"github.com/jeranaias/ollamachat/internal/config"
)

// =============================================================================
// RESPONSE MESSAGES
// =============================================================================

// responseMsg signals that a submit finished and the controller has
// recorded its outcome.
type responseMsg struct {
	err error
}

// =============================================================================
// COMMAND MESSAGES
// =============================================================================

// commandResultMsg delivers the result of a slash command.
type commandResultMsg struct {
	input  string
	result commands.Result
}

// modelsMsg delivers the model names used for completion.
type modelsMsg struct {
	names []string
	err   error
}

// =============================================================================
// CONFIGURATION MESSAGES
// =============================================================================

// ConfigReloadedMsg reports that the configuration file changed. Err is
// set when the new file could not be loaded; the previous configuration
// stays in effect.
type ConfigReloadedMsg struct {
	Config *config.Config
	Err    error
}
