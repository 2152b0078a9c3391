// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// maxFileCompletions bounds file suggestions in large directories.
const maxFileCompletions = 50

// =============================================================================
// COMPLETER
// =============================================================================

// Completer handles tab completion for commands and arguments.
type Completer struct {
	registry *Registry

	// ModelsFn returns known model names; nil disables model completion.
	ModelsFn func() []string

	// FilesFn returns paths starting with prefix; defaults to a glob.
	FilesFn func(prefix string) []string
}

// NewCompleter creates a new completer with the given registry.
func NewCompleter(registry *Registry) *Completer {
	return &Completer{
		registry: registry,
		FilesFn:  globFiles,
	}
}

// Complete returns full-line completions for line, sorted. Lines that are
// not commands have none.
func (c *Completer) Complete(line string) []string {
	if !strings.HasPrefix(line, "/") {
		return nil
	}

	parts := splitCommandLine(line)
	endsWithSpace := strings.HasSuffix(line, " ")

	// Still typing the command name
	if len(parts) <= 1 && !endsWithSpace {
		return c.completeCommands(line)
	}

	cmd := c.registry.Get(strings.ToLower(parts[0]))
	if cmd == nil {
		return nil
	}

	argIndex := len(parts) - 2
	partial := ""
	if endsWithSpace {
		argIndex++
	} else {
		partial = parts[len(parts)-1]
	}
	if argIndex < 0 || argIndex >= len(cmd.Args) {
		return nil
	}

	base := strings.TrimSuffix(line, partial)
	var completions []string
	for _, candidate := range c.argCandidates(cmd.Args[argIndex], partial) {
		completions = append(completions, base+quoteIfNeeded(candidate))
	}
	sort.Strings(completions)
	return completions
}

// completeCommands returns command names starting with partial.
func (c *Completer) completeCommands(partial string) []string {
	partial = strings.ToLower(partial)

	var completions []string
	for _, cmd := range c.registry.All() {
		if cmd.Hidden || !strings.HasPrefix(cmd.Name, partial) {
			continue
		}
		name := cmd.Name
		if len(cmd.Args) > 0 {
			name += " "
		}
		completions = append(completions, name)
	}
	return completions
}

func (c *Completer) argCandidates(arg ArgDef, partial string) []string {
	var pool []string
	switch arg.Type {
	case ArgTypeEnum:
		pool = arg.Values
	case ArgTypeModel:
		if c.ModelsFn != nil {
			pool = c.ModelsFn()
		}
	case ArgTypeFile:
		if c.FilesFn != nil {
			return c.FilesFn(partial)
		}
	}

	var matches []string
	lower := strings.ToLower(partial)
	for _, v := range pool {
		if strings.HasPrefix(strings.ToLower(v), lower) {
			matches = append(matches, v)
		}
	}
	return matches
}

// globFiles lists paths beginning with prefix. Directories end in a
// separator so completion can continue into them.
func globFiles(prefix string) []string {
	matches, err := filepath.Glob(expandHome(prefix) + "*")
	if err != nil {
		return nil
	}
	if len(matches) > maxFileCompletions {
		matches = matches[:maxFileCompletions]
	}

	home, _ := os.UserHomeDir()
	for i, m := range matches {
		if info, err := os.Stat(m); err == nil && info.IsDir() {
			m += string(filepath.Separator)
		}
		if strings.HasPrefix(prefix, "~") && home != "" {
			m = "~" + strings.TrimPrefix(m, home)
		}
		matches[i] = m
	}
	return matches
}

func quoteIfNeeded(s string) string {
	if strings.ContainsAny(s, " \t") {
		return `"` + s + `"`
	}
	return s
}
