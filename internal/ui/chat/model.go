// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"io"
	"log"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	chatcore "github.com/jeranaias/ollamachat/internal/chat"
	"github.com/jeranaias/ollamachat/internal/commands"
	"github.com/jeranaias/ollamachat/internal/config"
	"github.com/jeranaias/ollamachat/internal/markdown"
	"github.com/jeranaias/ollamachat/internal/ui/styles"
)

// Input area limits.
const (
	inputHeight    = 3
	inputCharLimit = 32 * 1024
)

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	ctx        context.Context
	controller *chatcore.Controller
	registry   *commands.Registry
	env        *commands.Env
	completer  *commands.Completer
	logger     *log.Logger

	// Widgets
	theme    *styles.Theme
	keys     KeyMap
	viewport viewport.Model
	input    textarea.Model
	spinner  spinner.Model
	help     help.Model
	renderer *markdown.TermRenderer

	// Layout
	width  int
	height int
	ready  bool

	// Output of the last command; cleared by the next input
	output    string
	outputErr bool

	// Command waiting for a y/n answer
	confirm *pendingConfirm

	// Tab completion cycle
	completions     []string
	completionIndex int

	// Model names for completion, shared across copies of Model
	models *modelCache
}

type pendingConfirm struct {
	input  string
	prompt string
}

type modelCache struct {
	names []string
}

// Option configures a Model.
type Option func(*Model)

// WithConfig sets the configuration commands read defaults from.
func WithConfig(cfg *config.Config) Option {
	return func(m *Model) {
		m.env.Config = cfg
	}
}

// WithClipboard replaces the system clipboard used by /copy.
func WithClipboard(c commands.Clipboard) Option {
	return func(m *Model) {
		m.env.Clipboard = c
	}
}

// WithLogger sets the logger for view and command events.
func WithLogger(logger *log.Logger) Option {
	return func(m *Model) {
		m.logger = logger
		m.env.Logger = logger
	}
}

// WithTheme sets the theme. The default detects the terminal.
func WithTheme(theme *styles.Theme) Option {
	return func(m *Model) {
		m.theme = theme
	}
}

// WithContext sets the context requests are sent under.
func WithContext(ctx context.Context) Option {
	return func(m *Model) {
		m.ctx = ctx
	}
}

// New creates a chat view for controller.
func New(controller *chatcore.Controller, opts ...Option) Model {
	registry := commands.NewRegistry()

	ta := textarea.New()
	ta.Placeholder = "Type a message, or /help for commands..."
	ta.ShowLineNumbers = false
	ta.CharLimit = inputCharLimit
	ta.SetHeight(inputHeight)
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("ctrl+j", "alt+enter"))
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Line

	m := Model{
		ctx:        context.Background(),
		controller: controller,
		registry:   registry,
		env:        &commands.Env{Controller: controller, Config: config.Default()},
		logger:     log.New(io.Discard, "", 0),
		keys:       DefaultKeyMap(),
		viewport:   viewport.New(80, 20),
		input:      ta,
		spinner:    sp,
		help:       help.New(),
		models:     &modelCache{},
	}
	for _, opt := range opts {
		opt(&m)
	}
	if m.theme == nil {
		m.theme = styles.NewTheme()
	}
	m.spinner.Style = m.theme.Spinner
	m.input.Prompt = "> "
	m.input.FocusedStyle.Prompt = m.theme.InputPrompt
	m.input.FocusedStyle.Placeholder = m.theme.Placeholder

	cache := m.models
	m.completer = commands.NewCompleter(registry)
	m.completer.ModelsFn = func() []string { return cache.names }

	return m
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init starts the cursor blink and fetches model names for completion.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, listModelsCmd(m.ctx, m.controller))
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case responseMsg:
		return m.handleResponse(msg)

	case commandResultMsg:
		return m.handleCommandResult(msg)

	case modelsMsg:
		if msg.err != nil {
			m.logger.Printf("TUI_MODELS_FAILED | error=%v", msg.err)
			return m, nil
		}
		m.models.names = msg.names
		return m, nil

	case ConfigReloadedMsg:
		return m.handleConfigReloaded(msg)

	case spinner.TickMsg:
		if !m.controller.Busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the chat interface.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	return m.renderChat()
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Controller returns the session controller behind the view.
func (m Model) Controller() *chatcore.Controller {
	return m.controller
}

// Input returns the current draft.
func (m Model) Input() string {
	return m.input.Value()
}

// Output returns the last command output shown under the transcript.
func (m Model) Output() string {
	return m.output
}

// ConfirmPrompt returns the pending confirmation question, if any.
func (m Model) ConfirmPrompt() string {
	if m.confirm == nil {
		return ""
	}
	return m.confirm.prompt
}
