// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the slash command system shared by the TUI and
// the line REPL.
//
// Handlers act on a chat.Controller and return a Result describing what
// the front end should do: print output, insert text into the input, ask
// for confirmation, or quit. No handler touches the terminal directly.
//
// # Key Types
//
//   - Registry: Command registry with all built-in commands
//   - Env: Dependencies handed to every handler
//   - Result: Outcome of one command for the front end to act on
//   - Completer: Tab completion for commands and arguments
//
// # Built-in Commands
//
//   - /help, /quit
//   - /new, /clear, /save, /load, /copy, /snippet
//   - /model, /models
//   - /system, /temp, /tokens, /reasoning, /settings
//   - /attach, /attachments, /detach
//
// # Usage
//
//	reg := commands.NewRegistry()
//	res := reg.Execute(ctx, env, "/model llama3.2", false)
//	if res.Confirm != "" && askUser(res.Confirm) {
//	    res = reg.Execute(ctx, env, "/model llama3.2", true)
//	}
package commands
