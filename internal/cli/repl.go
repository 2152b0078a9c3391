// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// repl.go - Line-based chat for terminals without the TUI and for piped
// input.
//
// USABILITY: liner gives history navigation, line editing and tab
// completion of slash commands. History persists in ~/.ollamachat.

package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/ollamachat/internal/chat"
	"github.com/jeranaias/ollamachat/internal/commands"
	"github.com/jeranaias/ollamachat/internal/config"
	"github.com/jeranaias/ollamachat/internal/markdown"
	"github.com/jeranaias/ollamachat/internal/model"
	"github.com/jeranaias/ollamachat/internal/ui/styles"
	"github.com/jeranaias/ollamachat/internal/util"
)

// errInterrupted is returned by a lineReader when Ctrl+C aborts a prompt.
var errInterrupted = errors.New("interrupted")

// =============================================================================
// LINE READERS
// =============================================================================

// lineReader reads one line of input. It returns io.EOF when input ends.
type lineReader interface {
	// Prompt shows prompt and returns the line; initial pre-fills it.
	Prompt(prompt, initial string) (string, error)
	Close() error
}

// linerReader reads from a terminal with history and completion.
type linerReader struct {
	state       *liner.State
	historyFile string
}

func newLinerReader(historyFile string, complete func(string) []string) *linerReader {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)
	state.SetMultiLineMode(true)
	state.SetCompleter(complete)

	r := &linerReader{state: state, historyFile: historyFile}
	if f, err := os.Open(historyFile); err == nil {
		r.state.ReadHistory(f)
		f.Close()
	}
	return r
}

func (r *linerReader) Prompt(prompt, initial string) (string, error) {
	var (
		line string
		err  error
	)
	if initial != "" {
		line, err = r.state.PromptWithSuggestion(prompt, initial, -1)
	} else {
		line, err = r.state.Prompt(prompt)
	}
	if errors.Is(err, liner.ErrPromptAborted) {
		return "", errInterrupted
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(line) != "" {
		r.state.AppendHistory(line)
	}
	return line, nil
}

// Close saves history with owner-only permissions and restores the
// terminal.
func (r *linerReader) Close() error {
	var buf bytes.Buffer
	if _, err := r.state.WriteHistory(&buf); err == nil && r.historyFile != "" {
		if err := util.AtomicWriteFile(r.historyFile, buf.Bytes(), 0600); err != nil {
			r.state.Close()
			return fmt.Errorf("save history: %w", err)
		}
	}
	return r.state.Close()
}

// scanReader reads piped input without prompting.
type scanReader struct {
	scanner *bufio.Scanner
}

func newScanReader(in io.Reader) *scanReader {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	return &scanReader{scanner: scanner}
}

func (r *scanReader) Prompt(prompt, initial string) (string, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.scanner.Text(), nil
}

func (r *scanReader) Close() error {
	return nil
}

// =============================================================================
// REPL
// =============================================================================

// REPL runs a chat session one line at a time.
type REPL struct {
	controller *chat.Controller
	registry   *commands.Registry
	env        *commands.Env
	in         lineReader
	out        io.Writer
	renderer   *markdown.TermRenderer
	logger     *log.Logger

	// printed counts the transcript entries already written to out
	printed int
	// insert pre-fills the next prompt
	insert string
}

func newREPL(controller *chat.Controller, cfg *config.Config, in lineReader, out io.Writer, renderer *markdown.TermRenderer, logger *log.Logger) *REPL {
	return &REPL{
		controller: controller,
		registry:   commands.NewRegistry(),
		env: &commands.Env{
			Controller: controller,
			Config:     cfg,
			Logger:     logger,
		},
		in:       in,
		out:      out,
		renderer: renderer,
		logger:   logger,
	}
}

// Run reads lines until input ends or /quit. Ctrl+C at the prompt also
// exits. A request in flight always runs to completion.
func (r *REPL) Run(ctx context.Context) error {
	r.printNew(true)

	for {
		line, err := r.in.Prompt("> ", r.insert)
		r.insert = ""
		switch {
		case errors.Is(err, io.EOF), errors.Is(err, errInterrupted):
			return nil
		case err != nil:
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if commands.IsCommand(line) {
			if quit := r.runCommand(ctx, line); quit {
				return nil
			}
			continue
		}
		r.submit(ctx, line)
	}
}

// submit sends a message. Failures are recorded in the transcript by the
// controller, so only the transcript is printed.
func (r *REPL) submit(ctx context.Context, text string) {
	if err := r.controller.Submit(ctx, text); err != nil {
		if errors.Is(err, chat.ErrEmptySubmit) {
			return
		}
		r.logger.Printf("REPL_SUBMIT_FAILED | error=%v", err)
	}
	r.printNew(false)
}

// runCommand executes a slash command, asking for confirmation when the
// command needs it. It reports whether the session should end.
func (r *REPL) runCommand(ctx context.Context, line string) bool {
	before := r.firstEntry()
	res := r.registry.Execute(ctx, r.env, line, false)

	if res.Confirm != "" {
		answer, err := r.in.Prompt(res.Confirm+" (y/n) ", "")
		if err != nil || !isYes(answer) {
			fmt.Fprintln(r.out, "Cancelled.")
			return errors.Is(err, io.EOF)
		}
		res = r.registry.Execute(ctx, r.env, line, true)
	}

	switch res.Action {
	case commands.ActionQuit:
		return true
	case commands.ActionInsert:
		r.insert = res.Insert
		if _, ok := r.in.(*scanReader); ok {
			fmt.Fprintln(r.out, res.Insert)
		}
	}

	if res.Err != nil {
		fmt.Fprintln(r.out, styles.RenderError(res.Err.Error()))
	} else if res.Output != "" {
		fmt.Fprintln(r.out, res.Output)
	}

	// A reset replaces the transcript; print it from the start.
	if entries := r.controller.Transcript(); len(entries) < r.printed || (len(entries) > 0 && entries[0] != before) {
		r.printed = 0
	}
	r.printNew(true)
	return false
}

func (r *REPL) firstEntry() chat.Entry {
	entries := r.controller.Transcript()
	if len(entries) == 0 {
		return chat.Entry{}
	}
	return entries[0]
}

// printNew writes transcript entries not yet shown. User turns are only
// echoed when echoUser is set, since the user just typed them otherwise.
func (r *REPL) printNew(echoUser bool) {
	entries := r.controller.Transcript()
	for _, e := range entries[min(r.printed, len(entries)):] {
		if out := r.formatEntry(e, echoUser); out != "" {
			fmt.Fprintln(r.out, out)
		}
	}
	r.printed = len(entries)
}

func (r *REPL) formatEntry(e chat.Entry, echoUser bool) string {
	if e.Kind == chat.EntryNotice {
		if e.Notice.IsError() {
			return styles.RenderError(e.Notice.Text)
		}
		return styles.RenderInfo(e.Notice.Text)
	}

	switch {
	case e.Synthesized:
		return styles.RenderInfo(fmt.Sprintf("Sent attached file contents (%s).", util.FormatBytes(int64(len(e.Turn.Content)))))
	case e.Turn.Role == model.RoleAssistant:
		return r.renderer.Render(e.Turn.Content) + "\n"
	case echoUser:
		return e.Turn.Role.DisplayName() + ": " + e.Turn.Content
	}
	return ""
}

func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}
