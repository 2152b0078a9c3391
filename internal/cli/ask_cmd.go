// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask_cmd.go - Single-shot question command.
//
// Command: ask [prompt]
// Short:   Send one message and print the reply
//
// Examples:
//   ollamachat ask -m llama3.2 "Explain goroutines"
//   ollamachat ask -a main.go "Review this file"
//   git diff | ollamachat ask "Write a commit message"
//
// The prompt is the joined arguments, followed by standard input when it
// is piped.

package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/ollamachat/internal/chat"
	"github.com/jeranaias/ollamachat/internal/markdown"
	"github.com/jeranaias/ollamachat/internal/model"
	"github.com/jeranaias/ollamachat/internal/ui/styles"
)

type askOptions struct {
	attachments []string
	system      string
	temperature float64
	maxTokens   int
	reasoning   bool
	raw         bool
}

func newAskCommand(a *app) *cobra.Command {
	var opts askOptions
	cmd := &cobra.Command{
		Use:   "ask [prompt]",
		Short: "Send one message and print the reply",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAsk(cmd, args, opts)
		},
	}
	cmd.Flags().StringArrayVarP(&opts.attachments, "attach", "a", nil, "Attach a text file (repeatable)")
	cmd.Flags().StringVarP(&opts.system, "system", "s", "", "System prompt")
	cmd.Flags().Float64VarP(&opts.temperature, "temperature", "t", model.DefaultTemperature, "Sampling temperature (0-2)")
	cmd.Flags().IntVar(&opts.maxTokens, "max-tokens", model.DefaultMaxTokens, "Maximum tokens to generate")
	cmd.Flags().BoolVar(&opts.reasoning, "reasoning", false, "Ask the model to reason step by step")
	cmd.Flags().BoolVar(&opts.raw, "raw", false, "Print the reply without markdown rendering")
	return cmd
}

func (a *app) runAsk(cmd *cobra.Command, args []string, opts askOptions) error {
	prompt, err := a.readPrompt(args)
	if err != nil {
		return err
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

	flags := cmd.Flags()
	controller.UpdateSettings(func(s *model.Settings) {
		if flags.Changed("system") {
			s.SystemPrompt = opts.system
		}
		if flags.Changed("temperature") {
			s.Temperature = opts.temperature
		}
		if flags.Changed("max-tokens") {
			s.MaxTokens = opts.maxTokens
		}
		if flags.Changed("reasoning") {
			s.ReasoningMode = opts.reasoning
		}
	})
	if s := controller.Settings(); s.Temperature < 0 || s.Temperature > 2 || s.MaxTokens <= 0 {
		return fmt.Errorf("temperature must be between 0 and 2 and max tokens positive")
	}

	for _, path := range opts.attachments {
		if _, err := controller.AttachFile(path); err != nil {
			return err
		}
	}

	if err := controller.Submit(cmd.Context(), prompt); err != nil {
		if errors.Is(err, chat.ErrNoModel) {
			return fmt.Errorf("%w: pass --model or set chat.default_model", err)
		}
		return err
	}

	reply, _ := controller.LastResponse()
	if opts.raw || !isTerminal(a.stdout) {
		fmt.Fprintln(a.stdout, reply.Content)
		return nil
	}
	theme := styles.NewTheme()
	renderer := markdown.NewTermRenderer(theme.MarkdownStyle(cfg.UI.MarkdownStyle), terminalWidth(a.stdout))
	fmt.Fprintln(a.stdout, renderer.Render(reply.Content))
	return nil
}

// readPrompt joins the arguments and appends piped standard input.
func (a *app) readPrompt(args []string) (string, error) {
	prompt := strings.Join(args, " ")
	if a.stdin != nil && !isTerminal(a.stdin) {
		data, err := io.ReadAll(a.stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		if piped := strings.TrimSpace(string(data)); piped != "" {
			if prompt != "" {
				prompt += "\n\n"
			}
			prompt += piped
		}
	}
	if strings.TrimSpace(prompt) == "" {
		return "", errors.New("no prompt given: pass it as an argument or on stdin")
	}
	return prompt, nil
}
