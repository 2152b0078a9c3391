// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	chatcore "github.com/jeranaias/ollamachat/internal/chat"
	"github.com/jeranaias/ollamachat/internal/commands"
	"github.com/jeranaias/ollamachat/internal/markdown"
	"github.com/jeranaias/ollamachat/internal/model"
)

// modelsTimeout bounds the model fetch used for completion.
const modelsTimeout = 10 * time.Second

// =============================================================================
// COMMAND CREATORS
// =============================================================================

// waitForResponseCmd waits for a submit started with SubmitAsync.
func waitForResponseCmd(done <-chan error) tea.Cmd {
	return func() tea.Msg {
		return responseMsg{err: <-done}
	}
}

// runCommandCmd executes a slash command off the update loop. The command
// runs against a snapshot of env taken on the update loop.
func runCommandCmd(ctx context.Context, registry *commands.Registry, env *commands.Env, input string, force bool) tea.Cmd {
	snapshot := *env
	return func() tea.Msg {
		return commandResultMsg{
			input:  input,
			result: registry.Execute(ctx, &snapshot, input, force),
		}
	}
}

// listModelsCmd fetches model names for completion.
func listModelsCmd(ctx context.Context, controller *chatcore.Controller) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, modelsTimeout)
		defer cancel()

		models, err := controller.ListModels(ctx)
		if err != nil {
			return modelsMsg{err: err}
		}
		names := make([]string, len(models))
		for i, info := range models {
			names[i] = info.Name
		}
		return modelsMsg{names: names}
	}
}

// =============================================================================
// MESSAGE HANDLERS
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.ready = true

	m.input.SetWidth(max(m.width-2, 10))
	m.help.Width = m.width
	m.renderer = m.newRenderer()

	m.layout()
	m.refreshTranscript()
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	if m.confirm != nil {
		return m.handleConfirmKey(msg)
	}

	if !key.Matches(msg, m.keys.Complete) {
		m.completions = nil
	}

	switch {
	case key.Matches(msg, m.keys.Submit):
		return m.handleSubmit()

	case key.Matches(msg, m.keys.Complete):
		return m.handleComplete()

	case key.Matches(msg, m.keys.Dismiss):
		m.output = ""
		m.layout()
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		pending := m.confirm
		m.confirm = nil
		m.layout()
		return m, runCommandCmd(m.ctx, m.registry, m.env, pending.input, true)

	case key.Matches(msg, m.keys.Deny):
		m.confirm = nil
		m.setOutput("Cancelled.", false)
		return m, nil
	}
	return m, nil
}

// handleSubmit sends the draft, or runs it as a command.
func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	text := m.input.Value()
	m.output = ""

	if commands.IsCommand(text) {
		m.input.Reset()
		m.layout()
		return m, runCommandCmd(m.ctx, m.registry, m.env, strings.TrimSpace(text), false)
	}

	done, err := m.controller.SubmitAsync(m.ctx, text)
	switch {
	case errors.Is(err, chatcore.ErrEmptySubmit):
		return m, nil
	case errors.Is(err, chatcore.ErrGenerationInProgress):
		m.setOutput("A response is still being generated.", true)
		return m, nil
	case errors.Is(err, chatcore.ErrNoModel):
		// The controller recorded a notice.
		m.layout()
		m.refreshTranscript()
		return m, nil
	case err != nil:
		m.setOutput(err.Error(), true)
		return m, nil
	}

	m.input.Reset()
	m.layout()
	m.refreshTranscript()
	return m, tea.Batch(m.spinner.Tick, waitForResponseCmd(done))
}

// handleComplete fills in the single completion, or cycles through
// several on repeated presses.
func (m Model) handleComplete() (tea.Model, tea.Cmd) {
	if len(m.completions) == 0 {
		m.completions = m.completer.Complete(m.input.Value())
		m.completionIndex = 0
		if len(m.completions) == 0 {
			return m, nil
		}
	} else {
		m.completionIndex = (m.completionIndex + 1) % len(m.completions)
	}

	m.input.SetValue(m.completions[m.completionIndex])
	m.input.CursorEnd()
	if len(m.completions) == 1 {
		m.completions = nil
	}
	m.layout()
	return m, nil
}

func (m Model) handleResponse(msg responseMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil && !errors.Is(msg.err, chatcore.ErrResponseDiscarded) {
		m.logger.Printf("TUI_RESPONSE_FAILED | error=%v", msg.err)
	}
	m.layout()
	m.refreshTranscript()
	return m, nil
}

func (m Model) handleCommandResult(msg commandResultMsg) (tea.Model, tea.Cmd) {
	res := msg.result

	if res.Confirm != "" {
		m.confirm = &pendingConfirm{input: msg.input, prompt: res.Confirm}
		m.layout()
		return m, nil
	}

	switch res.Action {
	case commands.ActionQuit:
		return m, tea.Quit
	case commands.ActionInsert:
		m.input.InsertString(res.Insert)
	}

	if res.Err != nil {
		m.setOutput("Error: "+res.Err.Error(), true)
	} else {
		m.setOutput(res.Output, false)
	}
	m.refreshTranscript()

	var cmd tea.Cmd
	if res.Err == nil && commands.ExtractCommandName(msg.input) == "/models" {
		cmd = listModelsCmd(m.ctx, m.controller)
	}
	return m, cmd
}

// handleConfigReloaded applies an edited configuration file. Chat options
// replace the session settings except for the selected model.
func (m Model) handleConfigReloaded(msg ConfigReloadedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.setOutput("Error: configuration not reloaded: "+msg.Err.Error(), true)
		return m, nil
	}

	cfg := msg.Config
	env := *m.env
	env.Config = cfg
	m.env = &env
	m.controller.UpdateSettings(func(s *model.Settings) {
		s.Temperature = cfg.Chat.Temperature
		s.MaxTokens = cfg.Chat.MaxTokens
		s.SystemPrompt = cfg.Chat.SystemPrompt
		s.ReasoningMode = cfg.Chat.ReasoningMode
	})
	m.renderer = m.newRenderer()
	m.logger.Printf("TUI_CONFIG_RELOADED | style=%s", cfg.UI.MarkdownStyle)

	m.setOutput("Configuration reloaded.", false)
	m.refreshTranscript()
	return m, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (m *Model) setOutput(text string, isErr bool) {
	m.output = text
	m.outputErr = isErr
	m.layout()
}

// newRenderer builds the markdown renderer for the current width and
// configured style.
func (m *Model) newRenderer() *markdown.TermRenderer {
	wrap := m.width - 4
	if cfg := m.env.Config; cfg != nil && cfg.UI.WordWrap > 0 && cfg.UI.WordWrap < wrap {
		wrap = cfg.UI.WordWrap
	}
	style := "auto"
	if m.env.Config != nil {
		style = m.env.Config.UI.MarkdownStyle
	}
	return markdown.NewTermRenderer(m.theme.MarkdownStyle(style), wrap)
}
