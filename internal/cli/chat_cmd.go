// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat_cmd.go - Interactive chat command.
//
// Command: chat
// Short:   Start an interactive chat session
//
// On a terminal the full-screen TUI is used; --plain or piped input
// selects the line-based REPL. Edits to the configuration file are
// applied to a running TUI session.

package cli

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jeranaias/ollamachat/internal/chat"
	"github.com/jeranaias/ollamachat/internal/commands"
	"github.com/jeranaias/ollamachat/internal/config"
	"github.com/jeranaias/ollamachat/internal/markdown"
	uichat "github.com/jeranaias/ollamachat/internal/ui/chat"
	"github.com/jeranaias/ollamachat/internal/ui/styles"
)

// historyFileName holds REPL input history inside the config directory.
const historyFileName = "chat_history"

// modelsTimeout bounds model listing for completion.
const modelsTimeout = 10 * time.Second

func newChatCommand(a *app) *cobra.Command {
	var plain bool
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long: `Start an interactive chat session.

Type a message and press Enter to send it. Lines starting with / are
commands; /help lists them. Use /model <name> to pick a model.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runChat(cmd.Context(), plain)
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "Use the line-based chat even on a terminal")
	return cmd
}

func (a *app) runChat(ctx context.Context, plain bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	logger, err := a.logger(nil)
	if err != nil {
		return err
	}
	controller := a.newController(cfg, logger)

	if !plain && a.interactive() {
		return a.runTUI(ctx, cfg, controller, logger)
	}
	return a.runREPL(ctx, cfg, controller, logger)
}

// runTUI runs the full-screen chat and follows the configuration file.
func (a *app) runTUI(ctx context.Context, cfg *config.Config, controller *chat.Controller, logger *log.Logger) error {
	m := uichat.New(controller,
		uichat.WithConfig(cfg),
		uichat.WithLogger(logger),
		uichat.WithContext(ctx),
	)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if path, err := a.configFilePath(); err == nil {
		err := config.Watch(watchCtx, path, func(reloaded *config.Config, err error) {
			if reloaded != nil {
				a.applyFlags(reloaded)
			}
			p.Send(uichat.ConfigReloadedMsg{Config: reloaded, Err: err})
		})
		if err != nil {
			logger.Printf("CONFIG_WATCH_FAILED | path=%s error=%v", path, err)
		}
	}

	_, err := p.Run()
	return err
}

// runREPL runs the line-based chat. liner is only used when stdin is a
// terminal; piped input is read line by line.
func (a *app) runREPL(ctx context.Context, cfg *config.Config, controller *chat.Controller, logger *log.Logger) error {
	theme := styles.NewTheme()
	style := theme.MarkdownStyle(cfg.UI.MarkdownStyle)
	if !isTerminal(a.stdout) {
		style = "notty"
	}
	width := terminalWidth(a.stdout)
	if cfg.UI.WordWrap > 0 && cfg.UI.WordWrap < width {
		width = cfg.UI.WordWrap
	}
	renderer := markdown.NewTermRenderer(style, width)

	var in lineReader
	if isTerminal(a.stdin) {
		completer := commands.NewCompleter(commands.NewRegistry())
		completer.ModelsFn = cachedModelNames(ctx, controller)
		in = newLinerReader(a.historyPath(), completer.Complete)
	} else {
		in = newScanReader(a.stdin)
	}
	defer func() {
		if err := in.Close(); err != nil {
			logger.Printf("REPL_CLOSE_FAILED | error=%v", err)
		}
	}()

	return newREPL(controller, cfg, in, a.stdout, renderer, logger).Run(ctx)
}

// cachedModelNames returns a function listing model names. The list is
// fetched on first use and kept for the session.
func cachedModelNames(ctx context.Context, controller *chat.Controller) func() []string {
	var (
		once  sync.Once
		names []string
	)
	return func() []string {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(ctx, modelsTimeout)
			defer cancel()
			models, err := controller.ListModels(ctx)
			if err != nil {
				return
			}
			for _, m := range models {
				names = append(names, m.Name)
			}
		})
		return names
	}
}

// historyPath returns the REPL history file, falling back to the temp
// directory when the config directory is unavailable.
func (a *app) historyPath() string {
	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, historyFileName)
}
