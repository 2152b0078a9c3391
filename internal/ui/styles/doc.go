// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the chat TUI.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection.

# Color System (colors.go)

  - Purple - Assistant turns and selections
  - Cyan - User turns, commands and the input prompt
  - Emerald - Success notices
  - Amber - Confirmation prompts and the busy indicator
  - Rose - Error notices

Text uses TextPrimary, TextSecondary and TextMuted; surfaces use Surface,
SurfaceDim and Overlay.

# Theme System (theme.go)

The Theme struct bundles the styles the chat view needs and records what
termenv detected about the terminal:

	theme := styles.NewTheme()
	header := theme.Header.Render("ollamachat")
	label := theme.RoleLabel(model.RoleUser)

MarkdownStyle resolves the "auto" markdown style setting to a concrete
glamour style for the detected background.

# Status Indicators

ASCII indicators accompany colors so states stay distinguishable without
color:

	styles.RenderSuccess("Chat saved")  // [OK] Chat saved
	styles.RenderError("No model")      // [X] No model
*/
package styles
