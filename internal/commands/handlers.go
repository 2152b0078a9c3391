// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jeranaias/ollamachat/internal/chat"
	"github.com/jeranaias/ollamachat/internal/export"
	"github.com/jeranaias/ollamachat/internal/markdown"
	"github.com/jeranaias/ollamachat/internal/model"
	"github.com/jeranaias/ollamachat/internal/util"
)

// Confirmation prompts.
const (
	confirmDiscardPending = "A response is still being generated and will be discarded. Continue?"
	confirmClearHistory   = "Are you sure you want to clear the chat history?"
)

// SnippetTemplate is inserted by /snippet; %s is the fence language.
const SnippetTemplate = "```%s\n# Your code here\n```"

// categoryOrder fixes the /help section order.
var categoryOrder = []string{"Navigation", "Conversation", "Model", "Settings", "Attachments"}

// =============================================================================
// NAVIGATION
// =============================================================================

func (r *Registry) handleHelp(ctx context.Context, env *Env, inv Invocation) Result {
	if len(inv.Args) > 0 {
		name := inv.Args[0]
		if !strings.HasPrefix(name, "/") {
			name = "/" + name
		}
		cmd := r.Get(name)
		if cmd == nil {
			return failure(fmt.Errorf("unknown command: %s", name))
		}
		var sb strings.Builder
		usage := cmd.Usage
		if usage == "" {
			usage = cmd.Name
		}
		fmt.Fprintf(&sb, "%s\n  %s", usage, cmd.Description)
		if len(cmd.Aliases) > 0 {
			fmt.Fprintf(&sb, "\n  Aliases: %s", strings.Join(cmd.Aliases, ", "))
		}
		return Result{Output: sb.String()}
	}

	groups := r.ByCategory()
	var sb strings.Builder
	sb.WriteString("Commands:")
	for _, category := range categoryOrder {
		cmds := groups[category]
		if len(cmds) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "\n\n%s", category)
		for _, cmd := range cmds {
			usage := cmd.Usage
			if usage == "" {
				usage = cmd.Name
			}
			fmt.Fprintf(&sb, "\n  %s %s", util.PadRight(usage, 28), cmd.Description)
		}
	}
	sb.WriteString("\n\nAnything not starting with / is sent to the model.")
	return Result{Output: sb.String()}
}

func handleQuit(ctx context.Context, env *Env, inv Invocation) Result {
	return Result{Action: ActionQuit}
}

// =============================================================================
// CONVERSATION
// =============================================================================

func handleNew(ctx context.Context, env *Env, inv Invocation) Result {
	err := env.Controller.NewChat(inv.Force)
	if errors.Is(err, chat.ErrConfirmationRequired) {
		return Result{Confirm: confirmDiscardPending}
	}
	if err != nil {
		return failure(err)
	}
	return Result{}
}

func handleClear(ctx context.Context, env *Env, inv Invocation) Result {
	if env.Controller.HistoryLen() == 0 {
		return output("Chat history is already empty.")
	}
	err := env.Controller.ClearHistory(inv.Force)
	if errors.Is(err, chat.ErrConfirmationRequired) {
		return Result{Confirm: confirmClearHistory}
	}
	if err != nil {
		return failure(err)
	}
	return Result{}
}

func handleSave(ctx context.Context, env *Env, inv Invocation) Result {
	if env.Controller.HistoryLen() == 0 {
		return failure(errors.New("nothing to save: the chat is empty"))
	}

	cfg := env.config()
	format := cfg.UI.ExportFormat
	if len(inv.Args) > 0 {
		format = inv.Args[0]
	}
	opts := export.DefaultOptions()
	opts.OutputDir = cfg.UI.ExportDir
	if len(inv.Args) > 1 {
		opts.OutputDir = expandHome(inv.Args[1])
	}

	exporter, err := export.ForFormat(format, opts)
	if err != nil {
		return failure(err)
	}
	path, err := export.ExportToFile(env.Controller.Export(), exporter, opts)
	if err != nil {
		return failure(fmt.Errorf("save chat: %w", err))
	}
	env.logf("CHAT_SAVED | path=%s format=%s", path, format)
	return output("Chat saved to %s", path)
}

func handleLoad(ctx context.Context, env *Env, inv Invocation) Result {
	path := expandHome(inv.RawArgs)
	if len(inv.Args) == 1 {
		path = expandHome(inv.Args[0])
	}

	s, err := export.ReadFile(path)
	if err != nil {
		return failure(fmt.Errorf("load chat: %w", err))
	}
	err = env.Controller.Restore(s, inv.Force)
	if errors.Is(err, chat.ErrConfirmationRequired) {
		return Result{Confirm: confirmDiscardPending}
	}
	if err != nil {
		return failure(err)
	}
	env.logf("CHAT_LOADED | path=%s messages=%d", path, len(s.Messages))
	return Result{}
}

func handleCopy(ctx context.Context, env *Env, inv Invocation) Result {
	last, ok := env.Controller.LastResponse()
	if !ok {
		return failure(errors.New("no response to copy yet"))
	}

	text, what := last.Content, "last response"
	if len(inv.Args) > 0 {
		n, err := strconv.Atoi(inv.Args[0])
		if err != nil {
			return failure(fmt.Errorf("code block number must be an integer, got %q", inv.Args[0]))
		}
		blocks := markdown.Render(last.Content).CodeBlocks()
		if len(blocks) == 0 {
			return failure(errors.New("the last response has no code blocks"))
		}
		if n < 1 || n > len(blocks) {
			return failure(fmt.Errorf("code block %d does not exist (the last response has %d)", n, len(blocks)))
		}
		text = blocks[n-1].Text
		what = fmt.Sprintf("code block %d", n)
		if lang := blocks[n-1].Language; lang != "" {
			what += " (" + lang + ")"
		}
	}

	if err := env.clipboard().WriteAll(text); err != nil {
		return failure(fmt.Errorf("copy failed: %w", err))
	}
	return output("Copied %s to clipboard.", what)
}

func handleSnippet(ctx context.Context, env *Env, inv Invocation) Result {
	lang := "python"
	if len(inv.Args) > 0 {
		lang = inv.Args[0]
	}
	return Result{Action: ActionInsert, Insert: fmt.Sprintf(SnippetTemplate, lang)}
}

// =============================================================================
// MODEL
// =============================================================================

func handleModel(ctx context.Context, env *Env, inv Invocation) Result {
	if len(inv.Args) == 0 {
		current := env.Controller.Settings().Model
		if current == "" {
			return output("No model selected. Use /models to list models and /model <name> to pick one.")
		}
		return output("Current model: %s", current)
	}

	err := env.Controller.ChangeModel(inv.Args[0], inv.Force)
	if errors.Is(err, chat.ErrConfirmationRequired) {
		return Result{Confirm: confirmDiscardPending}
	}
	if err != nil {
		return failure(err)
	}
	return Result{}
}

func handleModels(ctx context.Context, env *Env, inv Invocation) Result {
	models, err := env.Controller.ListModels(ctx)
	if err != nil {
		return failure(fmt.Errorf("failed to fetch models: %w", err))
	}

	current := env.Controller.Settings().Model
	var sb strings.Builder
	fmt.Fprintf(&sb, "Connection successful! Found %d models.", len(models))
	for _, m := range models {
		marker := " "
		if m.Name == current {
			marker = "*"
		}
		fmt.Fprintf(&sb, "\n %s %s", marker, m.Name)
		if m.Size > 0 {
			fmt.Fprintf(&sb, " (%s)", util.FormatBytes(m.Size))
		}
	}
	return Result{Output: sb.String()}
}

// =============================================================================
// SETTINGS
// =============================================================================

func handleSystem(ctx context.Context, env *Env, inv Invocation) Result {
	if inv.RawArgs == "" {
		prompt := env.Controller.Settings().SystemPrompt
		if strings.TrimSpace(prompt) == "" {
			return output("No system prompt set.")
		}
		return output("System prompt: %s", prompt)
	}

	prompt := inv.RawArgs
	if strings.EqualFold(prompt, "clear") {
		prompt = ""
	}
	env.Controller.UpdateSettings(func(s *model.Settings) {
		s.SystemPrompt = prompt
	})
	if prompt == "" {
		return output("System prompt cleared.")
	}
	return output("System prompt updated.")
}

func handleTemperature(ctx context.Context, env *Env, inv Invocation) Result {
	if len(inv.Args) == 0 {
		return output("Temperature: %.2f", env.Controller.Settings().Temperature)
	}

	v, err := strconv.ParseFloat(inv.Args[0], 64)
	if err != nil || v < 0 || v > 2 {
		return failure(fmt.Errorf("temperature must be a number between 0 and 2, got %q", inv.Args[0]))
	}
	env.Controller.UpdateSettings(func(s *model.Settings) {
		s.Temperature = v
	})
	return output("Temperature set to %.2f.", v)
}

func handleMaxTokens(ctx context.Context, env *Env, inv Invocation) Result {
	if len(inv.Args) == 0 {
		return output("Max tokens: %d", env.Controller.Settings().MaxTokens)
	}

	n, err := strconv.Atoi(inv.Args[0])
	if err != nil || n <= 0 {
		return failure(fmt.Errorf("max tokens must be a positive integer, got %q", inv.Args[0]))
	}
	env.Controller.UpdateSettings(func(s *model.Settings) {
		s.MaxTokens = n
	})
	return output("Max tokens set to %d.", n)
}

func handleReasoning(ctx context.Context, env *Env, inv Invocation) Result {
	enabled := !env.Controller.Settings().ReasoningMode
	if len(inv.Args) > 0 {
		enabled = strings.EqualFold(inv.Args[0], "on")
	}
	env.Controller.UpdateSettings(func(s *model.Settings) {
		s.ReasoningMode = enabled
	})
	if enabled {
		return output("Reasoning mode enabled.")
	}
	return output("Reasoning mode disabled.")
}

func handleSettings(ctx context.Context, env *Env, inv Invocation) Result {
	s := env.Controller.Settings()
	modelName := s.Model
	if modelName == "" {
		modelName = "(none)"
	}
	system := s.SystemPrompt
	if strings.TrimSpace(system) == "" {
		system = "(none)"
	}
	reasoning := "off"
	if s.ReasoningMode {
		reasoning = "on"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Model:         %s\n", modelName)
	fmt.Fprintf(&sb, "Temperature:   %.2f\n", s.Temperature)
	fmt.Fprintf(&sb, "Max tokens:    %d\n", s.MaxTokens)
	fmt.Fprintf(&sb, "Reasoning:     %s\n", reasoning)
	fmt.Fprintf(&sb, "System prompt: %s\n", util.TruncateWidth(system, 60))
	fmt.Fprintf(&sb, "Messages:      %d\n", env.Controller.HistoryLen())
	fmt.Fprintf(&sb, "Attachments:   %d\n", len(env.Controller.Attachments()))
	fmt.Fprintf(&sb, "State:         %s", env.Controller.State())
	return Result{Output: sb.String()}
}

// =============================================================================
// ATTACHMENTS
// =============================================================================

func handleAttach(ctx context.Context, env *Env, inv Invocation) Result {
	path := expandHome(inv.RawArgs)
	if len(inv.Args) == 1 {
		path = expandHome(inv.Args[0])
	}

	a, err := env.Controller.AttachFile(path)
	if err != nil {
		return failure(fmt.Errorf("attach %s: %w", filepath.Base(path), err))
	}
	return output("Attached %s (%s). It will be sent with your next message.",
		a.Name, util.FormatBytes(int64(a.Size())))
}

func handleAttachments(ctx context.Context, env *Env, inv Invocation) Result {
	attachments := env.Controller.Attachments()
	if len(attachments) == 0 {
		return output("No pending attachments.")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Pending attachments (%d):", len(attachments))
	for i, a := range attachments {
		fmt.Fprintf(&sb, "\n  %d. %s (%s)", i+1, a.Name, util.FormatBytes(int64(a.Size())))
	}
	return Result{Output: sb.String()}
}

func handleDetach(ctx context.Context, env *Env, inv Invocation) Result {
	if strings.EqualFold(inv.Args[0], "all") {
		env.Controller.ClearAttachments()
		return output("All attachments removed.")
	}

	n, err := strconv.Atoi(inv.Args[0])
	if err != nil {
		return failure(fmt.Errorf("attachment number must be an integer or all, got %q", inv.Args[0]))
	}
	attachments := env.Controller.Attachments()
	if n < 1 || n > len(attachments) {
		return failure(fmt.Errorf("attachment %d does not exist", n))
	}
	if err := env.Controller.RemoveAttachment(n - 1); err != nil {
		return failure(err)
	}
	return output("Removed %s.", attachments[n-1].Name)
}

// =============================================================================
// HELPERS
// =============================================================================

// expandHome replaces a leading ~ with the home directory.
func expandHome(path string) string {
	path = strings.TrimSpace(path)
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
