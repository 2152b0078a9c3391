// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeranaias/ollamachat/internal/api"
	"github.com/jeranaias/ollamachat/internal/chat"
	"github.com/jeranaias/ollamachat/internal/config"
)

// Version information (set at build time)
var (
	Version   = "1.0.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// =============================================================================
// APPLICATION STATE
// =============================================================================

// globalOptions holds the persistent flags.
type globalOptions struct {
	configPath string
	apiURL     string
	model      string
	logFile    string
}

// app carries the streams and options shared by all subcommands.
type app struct {
	opts   globalOptions
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	logFile *os.File
}

// loadConfig loads the configuration file and applies flag overrides.
func (a *app) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if a.opts.configPath != "" {
		cfg, err = config.LoadFromPath(a.opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	a.applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

// applyFlags overlays --api-url and --model on cfg.
func (a *app) applyFlags(cfg *config.Config) {
	if a.opts.apiURL != "" {
		cfg.API.URL = a.opts.apiURL
	}
	if a.opts.model != "" {
		cfg.Chat.DefaultModel = a.opts.model
	}
}

// configFilePath returns the file --config names, or the default TOML
// location.
func (a *app) configFilePath() (string, error) {
	if a.opts.configPath != "" {
		return a.opts.configPath, nil
	}
	return config.ConfigPathTOML()
}

// logger returns the diagnostic logger. Without --log-file logs are
// discarded, or sent to fallback when it is non-nil.
func (a *app) logger(fallback io.Writer) (*log.Logger, error) {
	if a.opts.logFile == "" {
		if fallback == nil {
			fallback = io.Discard
		}
		return log.New(fallback, "", log.LstdFlags), nil
	}
	if a.logFile == nil {
		f, err := os.OpenFile(a.opts.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		a.logFile = f
	}
	return log.New(a.logFile, "", log.LstdFlags), nil
}

func (a *app) close() {
	if a.logFile != nil {
		a.logFile.Close()
		a.logFile = nil
	}
}

// newController builds a chat session against the configured Chat API.
func (a *app) newController(cfg *config.Config, logger *log.Logger) *chat.Controller {
	client := api.NewClientWithConfig(&api.ClientConfig{
		BaseURL: cfg.API.URL,
		Timeout: cfg.API.Timeout(),
		Logger:  logger,
	})
	return chat.NewController(client,
		chat.WithSettings(cfg.Chat.Settings()),
		chat.WithLogger(logger),
	)
}

// =============================================================================
// ROOT COMMAND
// =============================================================================

// NewRootCommand builds the command tree on the process streams.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&app{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr})
}

func newRootCommand(a *app) *cobra.Command {
	var plain bool

	root := &cobra.Command{
		Use:   "ollamachat",
		Short: "Chat with local Ollama models",
		Long: `ollamachat is a chat client for models served by Ollama.

Examples:
  ollamachat                          Start an interactive chat
  ollamachat -m llama3.2              Chat with a specific model
  ollamachat ask "What is Go?"        Send a single question
  cat notes.md | ollamachat ask       Read the prompt from stdin
  ollamachat models                   List available models
  ollamachat serve --port 3000        Run the Chat API proxy`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runChat(cmd.Context(), plain)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	root.PersistentFlags().StringVar(&a.opts.configPath, "config", "", "Configuration file (default ~/.ollamachat/config.toml)")
	root.PersistentFlags().StringVar(&a.opts.apiURL, "api-url", "", "Chat API server URL")
	root.PersistentFlags().StringVarP(&a.opts.model, "model", "m", "", "Model to chat with")
	root.PersistentFlags().StringVar(&a.opts.logFile, "log-file", "", "Append diagnostic logs to this file")
	root.Flags().BoolVar(&plain, "plain", false, "Use the line-based chat even on a terminal")

	root.AddCommand(newChatCommand(a))
	root.AddCommand(newAskCommand(a))
	root.AddCommand(newModelsCommand(a))
	root.AddCommand(newServeCommand(a))
	root.AddCommand(newConfigCommand(a))
	root.AddCommand(newVersionCommand(a))

	return root
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	root := NewRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}
