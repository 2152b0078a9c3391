// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for
// ollamachat.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, validation and live reload.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - ChatConfig: Defaults for new chat sessions
//   - ServerConfig: Listener settings for the Chat API proxy
//   - ValidateErrors: Every problem found by Validate
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (OLLAMA_API_URL, OLLAMACHAT_*, PORT)
//   - ~/.ollamachat/config.toml
//   - ~/.ollamachat/config.json
//   - Built-in defaults
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Follow edits while a session runs:
//
//	err := config.Watch(ctx, path, func(cfg *config.Config, err error) {
//	    if err == nil {
//	        controller.UpdateSettings(...)
//	    }
//	})
package config
