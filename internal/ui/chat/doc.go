// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the terminal chat view.

The package implements an interactive chat interface with the Bubble Tea
framework. All session state lives in a chat Controller; the view renders
the controller's transcript and forwards input to it.

# Key Components

## Model (model.go)

The Model struct is the Bubble Tea model. It owns the widgets (viewport,
textarea, spinner, help) and the view-only state: the last command output,
a pending confirmation and tab completions.

## Update Loop (update.go)

  - Enter sends the draft, or runs it when it starts with /
  - Ctrl+J or Alt+Enter inserts a newline
  - Tab completes commands and their arguments
  - y / n answer a confirmation prompt
  - PgUp / PgDn scroll the transcript

Sending goes through Controller.SubmitAsync; the reply arrives as a
message once the controller has recorded it, so the transcript is always
re-read from the controller rather than patched locally.

## View Rendering (view.go)

Header with the model name, the transcript with role labels and
markdown-rendered replies, the pending attachments, the input area and a
status bar with the generation state and key help.

# Usage

	ctrl := chatcore.NewController(api.NewClient(url))
	m := chat.New(ctrl, chat.WithConfig(cfg))
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()

A running program picks up configuration edits when sent a
ConfigReloadedMsg.
*/
package chat
