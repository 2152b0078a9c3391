// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/jeranaias/ollamachat/internal/chat"
	"github.com/jeranaias/ollamachat/internal/config"
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// Command represents a slash command that can be executed.
type Command struct {
	// Name is the primary command name (e.g., "/help")
	Name string

	// Aliases are alternative names (e.g., "/h", "/?")
	Aliases []string

	// Description is shown in help and completion
	Description string

	// Usage shows argument syntax (e.g., "/model <name>")
	Usage string

	// Args defines the expected arguments
	Args []ArgDef

	// Handler executes the command
	Handler func(ctx context.Context, env *Env, inv Invocation) Result

	// Hidden commands don't appear in help
	Hidden bool

	// Category for grouping in help display
	Category string
}

// ArgDef defines an argument for a command.
type ArgDef struct {
	Name        string
	Required    bool
	Type        ArgType
	Description string

	// Values for enum types
	Values []string
}

// ArgType indicates what kind of completion to provide.
type ArgType int

const (
	ArgTypeString ArgType = iota // Free-form string
	ArgTypeModel                 // Model name from the Chat API
	ArgTypeFile                  // File path
	ArgTypeEnum                  // One of predefined values
	ArgTypeNumber                // Numeric value
)

// Invocation is one parsed call of a command.
type Invocation struct {
	Name    string
	Args    []string
	RawArgs string

	// Force is set when the user already confirmed a destructive action.
	Force bool
}

// =============================================================================
// RESULT
// =============================================================================

// Action tells the front end what to do beyond showing output.
type Action int

const (
	ActionNone Action = iota
	ActionQuit
	ActionInsert // put Result.Insert into the input
)

// Result is the outcome of a command.
type Result struct {
	// Output is informational text for the user
	Output string

	// Err is shown as an error
	Err error

	Action Action
	Insert string

	// Confirm, when set, is a yes/no question. Re-run the same input with
	// force=true if the user agrees.
	Confirm string
}

func output(format string, args ...any) Result {
	return Result{Output: fmt.Sprintf(format, args...)}
}

func failure(err error) Result {
	return Result{Err: err}
}

// =============================================================================
// ENVIRONMENT
// =============================================================================

// Env carries the dependencies a handler may use.
type Env struct {
	Controller *chat.Controller

	// Config supplies export defaults; nil uses config.Default()
	Config *config.Config

	// Clipboard backs /copy; nil uses the system clipboard
	Clipboard Clipboard

	Logger *log.Logger
}

func (e *Env) config() *config.Config {
	if e.Config == nil {
		return config.Default()
	}
	return e.Config
}

func (e *Env) clipboard() Clipboard {
	if e.Clipboard == nil {
		return SystemClipboard{}
	}
	return e.Clipboard
}

func (e *Env) logf(format string, args ...any) {
	if e.Logger != nil {
		e.Logger.Printf(format, args...)
	}
}

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// Registry holds all registered commands.
type Registry struct {
	commands map[string]*Command
	aliases  map[string]*Command
}

// NewRegistry creates a registry with all built-in commands.
func NewRegistry() *Registry {
	r := &Registry{
		commands: make(map[string]*Command),
		aliases:  make(map[string]*Command),
	}
	r.registerBuiltins()
	return r
}

// Register adds a command to the registry.
func (r *Registry) Register(cmd *Command) {
	r.commands[cmd.Name] = cmd
	for _, alias := range cmd.Aliases {
		r.aliases[alias] = cmd
	}
}

// Get retrieves a command by name or alias.
func (r *Registry) Get(name string) *Command {
	if cmd, ok := r.commands[name]; ok {
		return cmd
	}
	if cmd, ok := r.aliases[name]; ok {
		return cmd
	}
	return nil
}

// All returns all registered commands sorted by name.
func (r *Registry) All() []*Command {
	cmds := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		cmds = append(cmds, cmd)
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })
	return cmds
}

// ByCategory returns visible commands grouped by category.
func (r *Registry) ByCategory() map[string][]*Command {
	result := make(map[string][]*Command)
	for _, cmd := range r.All() {
		if cmd.Hidden {
			continue
		}
		category := cmd.Category
		if category == "" {
			category = "General"
		}
		result[category] = append(result[category], cmd)
	}
	return result
}

// Execute parses input and runs the matching command. force marks a
// destructive action as already confirmed.
func (r *Registry) Execute(ctx context.Context, env *Env, input string, force bool) Result {
	parsed := NewParser(r).Parse(input)
	if !parsed.IsCommand {
		return failure(fmt.Errorf("not a command: %q", input))
	}
	if parsed.Command == nil {
		return failure(fmt.Errorf("unknown command: %s (type /help for a list)", parsed.CommandName))
	}
	if err := ValidateArgs(parsed.Command, parsed.Args); err != nil {
		return failure(err)
	}

	env.logf("COMMAND | name=%s args=%d force=%t", parsed.Command.Name, len(parsed.Args), force)
	return parsed.Command.Handler(ctx, env, Invocation{
		Name:    parsed.Command.Name,
		Args:    parsed.Args,
		RawArgs: parsed.RawArgs,
		Force:   force,
	})
}

// =============================================================================
// BUILT-IN COMMANDS
// =============================================================================

func (r *Registry) registerBuiltins() {
	// Navigation
	r.Register(&Command{
		Name:        "/help",
		Aliases:     []string{"/h", "/?"},
		Description: "Show available commands",
		Usage:       "/help [command]",
		Args:        []ArgDef{{Name: "command", Type: ArgTypeString, Description: "Command to describe"}},
		Category:    "Navigation",
		Handler:     r.handleHelp,
	})

	r.Register(&Command{
		Name:        "/quit",
		Aliases:     []string{"/q", "/exit"},
		Description: "Exit ollamachat",
		Category:    "Navigation",
		Handler:     handleQuit,
	})

	// Conversation
	r.Register(&Command{
		Name:        "/new",
		Aliases:     []string{"/n"},
		Description: "Start a new chat",
		Category:    "Conversation",
		Handler:     handleNew,
	})

	r.Register(&Command{
		Name:        "/clear",
		Aliases:     []string{"/c"},
		Description: "Clear the chat history",
		Category:    "Conversation",
		Handler:     handleClear,
	})

	r.Register(&Command{
		Name:        "/save",
		Aliases:     []string{"/s", "/export"},
		Description: "Save the chat to a file",
		Usage:       "/save [json|md|html] [dir]",
		Args: []ArgDef{
			{Name: "format", Type: ArgTypeEnum, Values: []string{"json", "md", "markdown", "html"}, Description: "Export format"},
			{Name: "dir", Type: ArgTypeFile, Description: "Output directory"},
		},
		Category: "Conversation",
		Handler:  handleSave,
	})

	r.Register(&Command{
		Name:        "/load",
		Aliases:     []string{"/l", "/open"},
		Description: "Load a chat saved as JSON",
		Usage:       "/load <file>",
		Args:        []ArgDef{{Name: "file", Required: true, Type: ArgTypeFile, Description: "Exported chat file"}},
		Category:    "Conversation",
		Handler:     handleLoad,
	})

	r.Register(&Command{
		Name:        "/copy",
		Description: "Copy the last response, or its Nth code block",
		Usage:       "/copy [n]",
		Args:        []ArgDef{{Name: "n", Type: ArgTypeNumber, Description: "Code block number"}},
		Category:    "Conversation",
		Handler:     handleCopy,
	})

	r.Register(&Command{
		Name:        "/snippet",
		Description: "Insert a code block template",
		Usage:       "/snippet [language]",
		Args:        []ArgDef{{Name: "language", Type: ArgTypeString, Description: "Fence language (default python)"}},
		Category:    "Conversation",
		Handler:     handleSnippet,
	})

	// Model
	r.Register(&Command{
		Name:        "/model",
		Aliases:     []string{"/m"},
		Description: "Show or switch the model (clears the chat)",
		Usage:       "/model [name]",
		Args:        []ArgDef{{Name: "name", Type: ArgTypeModel, Description: "Model to switch to"}},
		Category:    "Model",
		Handler:     handleModel,
	})

	r.Register(&Command{
		Name:        "/models",
		Description: "List available models",
		Category:    "Model",
		Handler:     handleModels,
	})

	// Settings
	r.Register(&Command{
		Name:        "/system",
		Description: "Show, set or clear the system prompt",
		Usage:       "/system [prompt|clear]",
		Args:        []ArgDef{{Name: "prompt", Type: ArgTypeString, Description: "New system prompt"}},
		Category:    "Settings",
		Handler:     handleSystem,
	})

	r.Register(&Command{
		Name:        "/temp",
		Aliases:     []string{"/temperature"},
		Description: "Show or set the temperature (0-2)",
		Usage:       "/temp [value]",
		Args:        []ArgDef{{Name: "value", Type: ArgTypeNumber, Description: "Sampling temperature"}},
		Category:    "Settings",
		Handler:     handleTemperature,
	})

	r.Register(&Command{
		Name:        "/tokens",
		Aliases:     []string{"/max-tokens"},
		Description: "Show or set the maximum response tokens",
		Usage:       "/tokens [n]",
		Args:        []ArgDef{{Name: "n", Type: ArgTypeNumber, Description: "Maximum tokens"}},
		Category:    "Settings",
		Handler:     handleMaxTokens,
	})

	r.Register(&Command{
		Name:        "/reasoning",
		Description: "Toggle step-by-step reasoning",
		Usage:       "/reasoning [on|off]",
		Args:        []ArgDef{{Name: "state", Type: ArgTypeEnum, Values: []string{"on", "off"}, Description: "Enable or disable"}},
		Category:    "Settings",
		Handler:     handleReasoning,
	})

	r.Register(&Command{
		Name:        "/settings",
		Aliases:     []string{"/status"},
		Description: "Show the current session settings",
		Category:    "Settings",
		Handler:     handleSettings,
	})

	// Attachments
	r.Register(&Command{
		Name:        "/attach",
		Aliases:     []string{"/a"},
		Description: "Attach a text file (max 100KB) to the next message",
		Usage:       "/attach <file>",
		Args:        []ArgDef{{Name: "file", Required: true, Type: ArgTypeFile, Description: "File to attach"}},
		Category:    "Attachments",
		Handler:     handleAttach,
	})

	r.Register(&Command{
		Name:        "/attachments",
		Description: "List files waiting to be sent",
		Category:    "Attachments",
		Handler:     handleAttachments,
	})

	r.Register(&Command{
		Name:        "/detach",
		Description: "Remove a pending attachment",
		Usage:       "/detach <n|all>",
		Args:        []ArgDef{{Name: "n", Required: true, Type: ArgTypeString, Description: "Attachment number or all"}},
		Category:    "Attachments",
		Handler:     handleDetach,
	})
}
