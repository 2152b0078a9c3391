// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	chatcore "github.com/jeranaias/ollamachat/internal/chat"
	"github.com/jeranaias/ollamachat/internal/model"
	"github.com/jeranaias/ollamachat/internal/util"
)

// maxCompletionsShown caps the completion line.
const maxCompletionsShown = 8

// =============================================================================
// LAYOUT
// =============================================================================

// renderChat renders the full screen: header, transcript, extras, input
// and status bar.
func (m Model) renderChat() string {
	parts := []string{m.renderHeader(), m.viewport.View()}
	if extras := m.renderExtras(); extras != "" {
		parts = append(parts, extras)
	}
	parts = append(parts, m.renderInput(), m.renderStatusBar())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// layout sizes the viewport to the space left by the other sections.
func (m *Model) layout() {
	if !m.ready {
		return
	}
	reserved := lipgloss.Height(m.renderHeader()) +
		lipgloss.Height(m.renderInput()) +
		lipgloss.Height(m.renderStatusBar())
	if extras := m.renderExtras(); extras != "" {
		reserved += lipgloss.Height(extras)
	}

	m.viewport.Width = max(m.width, 1)
	m.viewport.Height = max(m.height-reserved, 1)
}

// refreshTranscript re-reads the transcript from the controller. The view
// follows new content unless the user has scrolled up.
func (m *Model) refreshTranscript() {
	follow := m.viewport.AtBottom() || m.viewport.TotalLineCount() == 0
	m.viewport.SetContent(m.renderTranscript())
	if follow || m.controller.Busy() {
		m.viewport.GotoBottom()
	}
}

// =============================================================================
// SECTIONS
// =============================================================================

func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("Ollama Chat")

	modelName := m.controller.Settings().Model
	if modelName == "" {
		modelName = "no model selected"
	}
	line := title + "  " + m.theme.HeaderModel.Render(modelName)
	return m.theme.Header.Width(max(m.width, 1)).Render(line)
}

func (m Model) renderTranscript() string {
	entries := m.controller.Transcript()
	blocks := make([]string, 0, len(entries)+1)
	for _, e := range entries {
		blocks = append(blocks, m.renderEntry(e))
	}
	if m.controller.Busy() {
		blocks = append(blocks, m.theme.RoleLabel(model.RoleAssistant)+"  "+
			m.theme.NoticeInfo.Render("Thinking..."))
	}
	return strings.Join(blocks, "\n\n")
}

func (m Model) renderEntry(e chatcore.Entry) string {
	if e.Kind == chatcore.EntryNotice {
		if e.Notice.IsError() {
			return m.theme.NoticeError.Render(e.Notice.Text)
		}
		return m.theme.NoticeInfo.Render(e.Notice.Text)
	}

	header := m.theme.RoleLabel(e.Turn.Role)
	if !e.Time.IsZero() {
		header += "  " + m.theme.Timestamp.Render(e.Time.Format("15:04"))
	}

	bodyWidth := max(m.width-2, 1)
	var body string
	switch {
	case e.Synthesized:
		body = m.theme.Synthesized.Width(bodyWidth).Render(
			fmt.Sprintf("[attached file contents, %s]", util.FormatBytes(int64(len(e.Turn.Content)))))
	case e.Turn.Role == model.RoleAssistant && m.renderer != nil:
		body = m.theme.TurnBody.Render(m.renderer.Render(e.Turn.Content))
	default:
		body = m.theme.TurnBody.Width(bodyWidth).Render(e.Turn.Content)
	}
	return header + "\n" + body
}

// renderExtras renders the optional sections between the transcript and
// the input: pending attachments, command output, a confirmation prompt
// and completions.
func (m Model) renderExtras() string {
	var parts []string

	if attachments := m.controller.Attachments(); len(attachments) > 0 {
		names := make([]string, len(attachments))
		for i, a := range attachments {
			names[i] = fmt.Sprintf("%s (%s)", a.Name, util.FormatBytes(int64(a.Size())))
		}
		parts = append(parts, m.theme.Attachment.Render("Attached: "+strings.Join(names, ", ")))
	}

	if m.output != "" {
		if m.outputErr {
			parts = append(parts, m.theme.NoticeError.Render(m.output))
		} else {
			parts = append(parts, m.theme.CommandOutput.Render(m.output))
		}
	}

	if m.confirm != nil {
		parts = append(parts, m.theme.ConfirmBox.Render(m.confirm.prompt+" (y/n)"))
	}

	if len(m.completions) > 1 {
		parts = append(parts, m.renderCompletions())
	}

	return strings.Join(parts, "\n")
}

func (m Model) renderCompletions() string {
	items := make([]string, 0, maxCompletionsShown+1)
	for i, c := range m.completions {
		if i == maxCompletionsShown {
			items = append(items, m.theme.CompletionItem.Render(fmt.Sprintf("+%d more", len(m.completions)-i)))
			break
		}
		label := strings.TrimSpace(c)
		if i == m.completionIndex {
			items = append(items, m.theme.CompletionSelected.Render(label))
		} else {
			items = append(items, m.theme.CompletionItem.Render(label))
		}
	}
	return strings.Join(items, "  ")
}

func (m Model) renderInput() string {
	return m.theme.InputContainer.Width(max(m.width, 1)).Render(m.input.View())
}

func (m Model) renderStatusBar() string {
	var state string
	if m.controller.Busy() {
		state = m.theme.StatusBusy.Render(m.spinner.View() + " Generating...")
	} else {
		state = m.theme.StatusIdle.Render("Ready")
	}

	settings := m.controller.Settings()
	info := fmt.Sprintf("temp %.1f  tokens %d  messages %d",
		settings.Temperature, settings.MaxTokens, m.controller.HistoryLen())
	if settings.ReasoningMode {
		info += "  reasoning"
	}

	line := state + "  " + m.theme.ShortcutDesc.Render(info) + "  " + m.help.ShortHelpView(m.keys.ShortHelp())
	return m.theme.StatusBar.Width(max(m.width, 1)).MaxHeight(1).Render(line)
}
