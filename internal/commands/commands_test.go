// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/ollamachat/internal/api"
	"github.com/jeranaias/ollamachat/internal/chat"
	"github.com/jeranaias/ollamachat/internal/config"
	"github.com/jeranaias/ollamachat/internal/model"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type fakeAPI struct {
	reply   string
	models  []api.ModelInfo
	err     error
	started chan struct{}
	release chan struct{}
}

func (f *fakeAPI) ListModels(ctx context.Context) ([]api.ModelInfo, error) {
	return f.models, f.err
}

func (f *fakeAPI) Chat(ctx context.Context, req *api.ChatRequest) (*api.ChatResponse, error) {
	if f.started != nil {
		close(f.started)
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	return &api.ChatResponse{Message: api.ResponseMessage{Role: "assistant", Content: f.reply}}, nil
}

type fakeClipboard struct {
	text string
	err  error
}

func (c *fakeClipboard) WriteAll(text string) error {
	if c.err != nil {
		return c.err
	}
	c.text = text
	return nil
}

type fixture struct {
	api       *fakeAPI
	ctrl      *chat.Controller
	env       *Env
	reg       *Registry
	clipboard *fakeClipboard
}

func newFixture(t *testing.T, reply string) *fixture {
	t.Helper()
	fake := &fakeAPI{reply: reply}
	settings := model.DefaultSettings()
	settings.Model = "llama3.2"

	ctrl := chat.NewController(fake,
		chat.WithSettings(settings),
		chat.WithLogger(log.New(io.Discard, "", 0)),
	)

	cfg := config.Default()
	cfg.UI.ExportDir = t.TempDir()

	clip := &fakeClipboard{}
	return &fixture{
		api:       fake,
		ctrl:      ctrl,
		reg:       NewRegistry(),
		clipboard: clip,
		env:       &Env{Controller: ctrl, Config: cfg, Clipboard: clip},
	}
}

func (f *fixture) run(t *testing.T, input string) Result {
	t.Helper()
	return f.reg.Execute(context.Background(), f.env, input, false)
}

func (f *fixture) force(t *testing.T, input string) Result {
	t.Helper()
	return f.reg.Execute(context.Background(), f.env, input, true)
}

// startPending submits a message whose reply is held until the returned
// function is called.
func (f *fixture) startPending(t *testing.T) (release func() error) {
	t.Helper()
	f.api.started = make(chan struct{})
	f.api.release = make(chan struct{})

	done, err := f.ctrl.SubmitAsync(context.Background(), "hello")
	require.NoError(t, err)
	<-f.api.started

	return func() error {
		close(f.api.release)
		return <-done
	}
}

// =============================================================================
// PARSER TESTS
// =============================================================================

func TestParser_Parse(t *testing.T) {
	p := NewParser(NewRegistry())

	res := p.Parse("  /model   llama3.2:latest ")
	assert.True(t, res.IsCommand)
	require.NotNil(t, res.Command)
	assert.Equal(t, "/model", res.Command.Name)
	assert.Equal(t, []string{"llama3.2:latest"}, res.Args)
	assert.Equal(t, "llama3.2:latest", res.RawArgs)

	res = p.Parse("/M mistral")
	require.NotNil(t, res.Command, "names are case-insensitive and aliases resolve")
	assert.Equal(t, "/model", res.Command.Name)

	res = p.Parse("/system You are a helpful assistant.")
	assert.Equal(t, "You are a helpful assistant.", res.RawArgs)

	res = p.Parse("hello /model")
	assert.False(t, res.IsCommand)

	res = p.Parse("/bogus")
	assert.True(t, res.IsCommand)
	assert.Nil(t, res.Command)
}

func TestSplitCommandLine(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{`a b  c`, []string{"a", "b", "c"}},
		{`"my file.txt" md`, []string{"my file.txt", "md"}},
		{`'single quoted' x`, []string{"single quoted", "x"}},
		{`"say \"hi\""`, []string{`say "hi"`}},
		{`""`, []string{""}},
		{``, nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, splitCommandLine(tt.input))
		})
	}
}

func TestValidateArgs(t *testing.T) {
	reg := NewRegistry()

	tests := []struct {
		name    string
		cmd     string
		args    []string
		wantErr string
	}{
		{"required missing", "/load", nil, "required argument missing"},
		{"enum invalid", "/save", []string{"pdf"}, "invalid value"},
		{"enum case-insensitive", "/reasoning", []string{"ON"}, ""},
		{"number invalid", "/temp", []string{"warm"}, "not a number"},
		{"optional absent", "/model", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateArgs(reg.Get(tt.cmd), tt.args)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// =============================================================================
// REGISTRY TESTS
// =============================================================================

func TestRegistry_UnknownAndNonCommand(t *testing.T) {
	f := newFixture(t, "")

	res := f.run(t, "/frobnicate")
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "unknown command: /frobnicate")

	res = f.run(t, "plain text")
	assert.Error(t, res.Err)
}

func TestRegistry_AllCategoriesInHelpOrder(t *testing.T) {
	reg := NewRegistry()
	for category := range reg.ByCategory() {
		assert.Contains(t, categoryOrder, category, "category %q missing from help order", category)
	}
}

func TestHelp(t *testing.T) {
	f := newFixture(t, "")

	res := f.run(t, "/help")
	require.NoError(t, res.Err)
	for _, want := range []string{"Navigation", "Conversation", "/model [name]", "/attach <file>", "/snippet"} {
		assert.Contains(t, res.Output, want)
	}

	res = f.run(t, "/help copy")
	require.NoError(t, res.Err)
	assert.Contains(t, res.Output, "/copy [n]")

	res = f.run(t, "/help nope")
	assert.Error(t, res.Err)
}

func TestQuit(t *testing.T) {
	f := newFixture(t, "")
	assert.Equal(t, ActionQuit, f.run(t, "/exit").Action)
}

// =============================================================================
// CONVERSATION COMMAND TESTS
// =============================================================================

func TestNew_ConfirmsWhilePending(t *testing.T) {
	f := newFixture(t, "late reply")
	release := f.startPending(t)

	res := f.run(t, "/new")
	assert.NotEmpty(t, res.Confirm)
	assert.Equal(t, 1, f.ctrl.HistoryLen(), "unconfirmed reset must not clear")

	res = f.force(t, "/new")
	assert.NoError(t, res.Err)
	assert.Empty(t, res.Confirm)
	assert.Equal(t, 0, f.ctrl.HistoryLen())

	assert.ErrorIs(t, release(), chat.ErrResponseDiscarded)
	assert.Equal(t, 0, f.ctrl.HistoryLen())
}

func TestClear(t *testing.T) {
	f := newFixture(t, "hi there")

	res := f.run(t, "/clear")
	assert.Equal(t, "Chat history is already empty.", res.Output)

	require.NoError(t, f.ctrl.Submit(context.Background(), "hello"))

	res = f.run(t, "/clear")
	assert.Equal(t, confirmClearHistory, res.Confirm)
	assert.Equal(t, 2, f.ctrl.HistoryLen())

	res = f.force(t, "/clear")
	assert.NoError(t, res.Err)
	assert.Equal(t, 0, f.ctrl.HistoryLen())
	assert.Equal(t, "llama3.2", f.ctrl.Settings().Model, "clear keeps the model")
}

func TestSnippet(t *testing.T) {
	f := newFixture(t, "")

	res := f.run(t, "/snippet")
	assert.Equal(t, ActionInsert, res.Action)
	assert.Equal(t, "```python\n# Your code here\n```", res.Insert)

	res = f.run(t, "/snippet go")
	assert.Equal(t, "```go\n# Your code here\n```", res.Insert)
}

func TestCopy(t *testing.T) {
	reply := "Two ways:\n```go\nfmt.Println(1)\n```\nand\n```\nplain\n```"
	f := newFixture(t, reply)

	res := f.run(t, "/copy")
	assert.EqualError(t, res.Err, "no response to copy yet")

	require.NoError(t, f.ctrl.Submit(context.Background(), "show me"))

	res = f.run(t, "/copy")
	require.NoError(t, res.Err)
	assert.Equal(t, reply, f.clipboard.text)
	assert.Equal(t, "Copied last response to clipboard.", res.Output)

	res = f.run(t, "/copy 1")
	require.NoError(t, res.Err)
	assert.Equal(t, "fmt.Println(1)", f.clipboard.text)
	assert.Equal(t, "Copied code block 1 (go) to clipboard.", res.Output)

	res = f.run(t, "/copy 2")
	require.NoError(t, res.Err)
	assert.Equal(t, "plain", f.clipboard.text)

	res = f.run(t, "/copy 3")
	assert.ErrorContains(t, res.Err, "code block 3 does not exist")

	f.clipboard.err = ErrClipboardUnavailable
	res = f.run(t, "/copy")
	assert.ErrorIs(t, res.Err, ErrClipboardUnavailable)
}

func TestSaveAndLoad(t *testing.T) {
	f := newFixture(t, "Paris.")

	res := f.run(t, "/save")
	assert.ErrorContains(t, res.Err, "nothing to save")

	f.ctrl.UpdateSettings(func(s *model.Settings) { s.SystemPrompt = "Be brief." })
	require.NoError(t, f.ctrl.Submit(context.Background(), "Capital of France?"))

	res = f.run(t, "/save")
	require.NoError(t, res.Err)
	require.True(t, strings.HasPrefix(res.Output, "Chat saved to "))
	path := strings.TrimPrefix(res.Output, "Chat saved to ")
	assert.Equal(t, ".json", filepath.Ext(path))
	assert.Equal(t, f.env.Config.UI.ExportDir, filepath.Dir(path))

	mdDir := t.TempDir()
	res = f.run(t, "/save md "+mdDir)
	require.NoError(t, res.Err)
	mdPath := strings.TrimPrefix(res.Output, "Chat saved to ")
	data, err := os.ReadFile(mdPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Capital of France?")

	// Load into a fresh session
	g := newFixture(t, "")
	res = g.run(t, "/load "+path)
	require.NoError(t, res.Err)
	want, got := f.ctrl.History(), g.ctrl.History()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Role, got[i].Role)
		assert.Equal(t, want[i].Content, got[i].Content)
	}
	assert.Equal(t, "Be brief.", g.ctrl.Settings().SystemPrompt)

	notices := g.ctrl.Notices()
	require.NotEmpty(t, notices)
	assert.Equal(t, "Loaded chat with 2 messages.", notices[len(notices)-1].Text)

	res = g.run(t, "/load "+filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, res.Err, "load chat")
}

// =============================================================================
// MODEL COMMAND TESTS
// =============================================================================

func TestModel(t *testing.T) {
	f := newFixture(t, "ok")

	res := f.run(t, "/model")
	assert.Equal(t, "Current model: llama3.2", res.Output)

	require.NoError(t, f.ctrl.Submit(context.Background(), "hi"))

	res = f.run(t, "/model mistral")
	require.NoError(t, res.Err)
	assert.Equal(t, "mistral", f.ctrl.Settings().Model)
	assert.Equal(t, 0, f.ctrl.HistoryLen(), "changing models clears the chat")
}

func TestModel_ConfirmsWhilePending(t *testing.T) {
	f := newFixture(t, "late")
	release := f.startPending(t)

	res := f.run(t, "/model mistral")
	assert.NotEmpty(t, res.Confirm)
	assert.Equal(t, "llama3.2", f.ctrl.Settings().Model)

	res = f.force(t, "/model mistral")
	require.NoError(t, res.Err)
	assert.Equal(t, "mistral", f.ctrl.Settings().Model)

	assert.ErrorIs(t, release(), chat.ErrResponseDiscarded)
}

func TestModels(t *testing.T) {
	f := newFixture(t, "")
	f.api.models = []api.ModelInfo{
		{Name: "llama3.2", Size: 2 << 30},
		{Name: "mistral"},
	}

	res := f.run(t, "/models")
	require.NoError(t, res.Err)
	assert.Equal(t, "Connection successful! Found 2 models.\n * llama3.2 (2.0 GB)\n   mistral", res.Output)

	f.api.err = &api.TransportError{Op: "list models", Cause: errors.New("connection refused")}
	res = f.run(t, "/models")
	assert.ErrorIs(t, res.Err, api.ErrTransport)
}

// =============================================================================
// SETTINGS COMMAND TESTS
// =============================================================================

func TestSettingsCommands(t *testing.T) {
	f := newFixture(t, "")

	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"/temp", "Temperature: 0.70", false},
		{"/temp 0.2", "Temperature set to 0.20.", false},
		{"/temp 2.5", "", true},
		{"/tokens", "Max tokens: 2048", false},
		{"/tokens 512", "Max tokens set to 512.", false},
		{"/tokens 0", "", true},
		{"/tokens 1.5", "", true},
		{"/reasoning", "Reasoning mode enabled.", false},
		{"/reasoning", "Reasoning mode disabled.", false},
		{"/reasoning on", "Reasoning mode enabled.", false},
		{"/system", "No system prompt set.", false},
		{"/system You are terse.", "System prompt updated.", false},
		{"/system", "System prompt: You are terse.", false},
		{"/system clear", "System prompt cleared.", false},
	}

	for _, tt := range tests {
		res := f.run(t, tt.input)
		if tt.wantErr {
			assert.Error(t, res.Err, tt.input)
			continue
		}
		require.NoError(t, res.Err, tt.input)
		assert.Equal(t, tt.want, res.Output, tt.input)
	}

	s := f.ctrl.Settings()
	assert.Equal(t, 0.2, s.Temperature)
	assert.Equal(t, 512, s.MaxTokens)
	assert.True(t, s.ReasoningMode)
	assert.Empty(t, s.SystemPrompt)

	res := f.run(t, "/settings")
	assert.Contains(t, res.Output, "Model:         llama3.2")
	assert.Contains(t, res.Output, "Reasoning:     on")
	assert.Contains(t, res.Output, "State:         Idle")
}

// =============================================================================
// ATTACHMENT COMMAND TESTS
// =============================================================================

func TestAttachments(t *testing.T) {
	f := newFixture(t, "")
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello notes"), 0644))

	res := f.run(t, "/attachments")
	assert.Equal(t, "No pending attachments.", res.Output)

	res = f.run(t, "/attach "+path)
	require.NoError(t, res.Err)
	assert.Equal(t, "Attached notes.txt (11 B). It will be sent with your next message.", res.Output)

	res = f.run(t, "/attachments")
	assert.Contains(t, res.Output, "1. notes.txt (11 B)")

	res = f.run(t, "/detach 2")
	assert.Error(t, res.Err)

	res = f.run(t, "/detach 1")
	require.NoError(t, res.Err)
	assert.Equal(t, "Removed notes.txt.", res.Output)
	assert.Empty(t, f.ctrl.Attachments())

	big := filepath.Join(dir, "big.txt")
	require.NoError(t, os.WriteFile(big, []byte(strings.Repeat("x", model.MaxAttachmentSize+1)), 0644))
	res = f.run(t, "/attach "+big)
	assert.ErrorIs(t, res.Err, chat.ErrAttachmentTooLarge)

	require.Nil(t, f.run(t, "/attach "+path).Err)
	res = f.run(t, "/detach all")
	assert.Equal(t, "All attachments removed.", res.Output)
	assert.Empty(t, f.ctrl.Attachments())
}

// =============================================================================
// COMPLETION TESTS
// =============================================================================

func TestCompleter(t *testing.T) {
	c := NewCompleter(NewRegistry())
	c.ModelsFn = func() []string { return []string{"llama3.2", "llava", "mistral"} }
	c.FilesFn = func(prefix string) []string { return []string{prefix + "chat.json", prefix + "my chat.json"} }

	tests := []struct {
		line string
		want []string
	}{
		{"/mo", []string{"/model ", "/models"}},
		{"/tok", []string{"/tokens "}},
		{"/save ", []string{"/save html", "/save json", "/save markdown", "/save md"}},
		{"/save m", []string{"/save markdown", "/save md"}},
		{"/model ll", []string{"/model llama3.2", "/model llava"}},
		{"/load ", []string{"/load \"my chat.json\"", "/load chat.json"}},
		{"/quit ", nil},
		{"/nope x", nil},
		{"hello", nil},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Complete(tt.line))
		})
	}
}

func TestGlobFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chat-a.json"), nil, 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "chats"), 0755))

	got := globFiles(filepath.Join(dir, "chat"))
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "chat-a.json"),
		filepath.Join(dir, "chats") + string(filepath.Separator),
	}, got)
}
