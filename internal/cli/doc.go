// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package cli implements the ollamachat command line.

# Commands

	ollamachat [chat]          Interactive chat (TUI on a terminal, REPL otherwise)
	ollamachat ask PROMPT      Send one message and print the reply
	ollamachat models          List the models the server offers
	ollamachat serve           Run the Chat API proxy in front of Ollama
	ollamachat config ...      Show, get, set or initialize configuration
	ollamachat version         Print version information

# Global Flags

	--config PATH     Configuration file (default ~/.ollamachat/config.toml)
	--api-url URL     Chat API server (overrides api.url)
	-m, --model NAME  Model to chat with (overrides chat.default_model)
	--log-file PATH   Append diagnostic logs to PATH

Slash commands typed into chat are shared with the TUI; see the commands
package. Logs never go to the terminal during a chat session so they do
not corrupt the display.
*/
package cli
