// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/ollamachat/internal/api"
	"github.com/jeranaias/ollamachat/internal/model"
)

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller runs a single chat session against a ChatAPI.
//
// At most one request is in flight. Settings and attachments may be edited
// while a request runs; the edits apply to the next submit. All methods are
// safe to call from multiple goroutines.
type Controller struct {
	mu sync.Mutex

	api         api.ChatAPI
	store       *MessageStore
	attachments AttachmentList
	settings    model.Settings
	state       model.GenerationState

	// epoch increments on every reset so a late response is dropped.
	epoch uint64

	notices    []Notice
	transcript []Entry

	logger *log.Logger
	now    func() time.Time
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithSettings sets the initial session settings.
func WithSettings(s model.Settings) ControllerOption {
	return func(c *Controller) {
		c.settings = s
	}
}

// WithLogger sets the logger for session events.
func WithLogger(logger *log.Logger) ControllerOption {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock sets the time source for notices and exports.
func WithClock(now func() time.Time) ControllerOption {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// NewController creates an idle controller seeded with the welcome notice.
func NewController(chatAPI api.ChatAPI, opts ...ControllerOption) *Controller {
	c := &Controller{
		api:      chatAPI,
		store:    NewMessageStore(),
		settings: model.DefaultSettings(),
		state:    model.StateIdle,
		logger:   log.New(io.Discard, "", 0),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.addNotice(NoticeInfo, WelcomeNotice)
	return c
}

// =============================================================================
// STATE ACCESSORS
// =============================================================================

// State returns the current generation state.
func (c *Controller) State() model.GenerationState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Busy reports whether a request is in flight.
func (c *Controller) Busy() bool {
	return c.State() == model.StateAwaitingResponse
}

// History returns a copy of the turn history.
func (c *Controller) History() []model.Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.All()
}

// HistoryLen returns the number of stored turns.
func (c *Controller) HistoryLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Len()
}

// LastResponse returns the most recent assistant turn.
func (c *Controller) LastResponse() (model.Turn, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.LastOfRole(model.RoleAssistant)
}

// Notices returns a copy of the notice log.
func (c *Controller) Notices() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notice, len(c.notices))
	copy(out, c.notices)
	return out
}

// Transcript returns turns and notices in the order they occurred.
func (c *Controller) Transcript() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, len(c.transcript))
	copy(out, c.transcript)
	return out
}

// =============================================================================
// SETTINGS
// =============================================================================

// Settings returns a copy of the current settings.
func (c *Controller) Settings() model.Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

// UpdateSettings edits settings in place. Allowed while a request is in
// flight; the in-flight request keeps the values it was sent with.
// Use ChangeModel to switch models.
func (c *Controller) UpdateSettings(fn func(*model.Settings)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	current := c.settings.Model
	fn(&c.settings)
	c.settings.Model = current
}

// =============================================================================
// ATTACHMENTS
// =============================================================================

// Attach adds an attachment to the draft.
func (c *Controller) Attach(a model.Attachment) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.attachments.Add(a); err != nil {
		return err
	}
	c.logger.Printf("ATTACHMENT_ADDED | name=%s bytes=%d pending=%d", a.Name, a.Size(), c.attachments.Len())
	return nil
}

// AttachFile loads a file from disk and adds it to the draft.
func (c *Controller) AttachFile(path string) (model.Attachment, error) {
	a, err := LoadAttachment(path)
	if err != nil {
		return model.Attachment{}, err
	}
	return a, c.Attach(a)
}

// RemoveAttachment removes the draft attachment at index i.
func (c *Controller) RemoveAttachment(i int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attachments.Remove(i)
}

// ClearAttachments drops every draft attachment.
func (c *Controller) ClearAttachments() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attachments.Clear()
}

// Attachments returns the draft attachments.
func (c *Controller) Attachments() []model.Attachment {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attachments.All()
}

// =============================================================================
// SUBMIT
// =============================================================================

// exchange is one in-flight request.
type exchange struct {
	epoch uint64
	req   *api.ChatRequest
	start time.Time
}

// Submit sends userText together with any draft attachments and waits for
// the reply.
//
// Input is validated before any network call: a blank submit without
// attachments or a missing model returns a *ValidationError and leaves the
// state Idle. Submitting while a request is in flight returns
// ErrGenerationInProgress. Otherwise exactly one request is made; its
// outcome is recorded in the history or as a notice and also returned.
func (c *Controller) Submit(ctx context.Context, userText string) error {
	ex, err := c.begin(userText)
	if err != nil {
		return err
	}
	resp, err := c.api.Chat(ctx, ex.req)
	return c.finish(ex, resp, err)
}

// SubmitAsync validates and starts a submit, then waits for the reply on a
// new goroutine. The returned channel yields the outcome once and is then
// closed. Validation failures are returned directly.
func (c *Controller) SubmitAsync(ctx context.Context, userText string) (<-chan error, error) {
	ex, err := c.begin(userText)
	if err != nil {
		return nil, err
	}

	done := make(chan error, 1)
	go func() {
		defer close(done)
		resp, err := c.api.Chat(ctx, ex.req)
		done <- c.finish(ex, resp, err)
	}()
	return done, nil
}

// begin performs the Idle -> AwaitingResponse transition.
func (c *Controller) begin(userText string) (*exchange, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == model.StateAwaitingResponse {
		return nil, ErrGenerationInProgress
	}

	text := strings.TrimSpace(userText)
	if text == "" && c.attachments.Len() == 0 {
		return nil, newValidationError("message", ErrEmptySubmit)
	}
	if !c.settings.HasModel() {
		c.addNotice(NoticeError, SelectModelNotice)
		return nil, newValidationError("model", ErrNoModel)
	}

	if text != "" {
		turn := model.UserTurn(text)
		if err := c.store.Append(turn); err != nil {
			return nil, newValidationError("message", err)
		}
		c.addTurn(turn, false)
	}

	attachments := c.attachments.All()
	req, synthesized := Compose(c.settings, c.store.All(), attachments)
	if synthesized != nil {
		if err := c.store.Append(*synthesized); err != nil {
			return nil, fmt.Errorf("store attachment turn: %w", err)
		}
		c.addTurn(*synthesized, true)
		c.attachments.Clear()
		c.addNotice(NoticeInfo, fmt.Sprintf("Attached %d file(s) to the conversation.", len(attachments)))
	}

	c.state = model.StateAwaitingResponse
	c.logger.Printf("CHAT_SUBMIT | model=%s messages=%d attachments=%d history=%d",
		req.Model, len(req.Messages), len(attachments), c.store.Len())

	return &exchange{epoch: c.epoch, req: req, start: c.now()}, nil
}

// finish performs the AwaitingResponse -> Idle transition.
func (c *Controller) finish(ex *exchange, resp *api.ChatResponse, callErr error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ex.epoch != c.epoch {
		c.logger.Printf("CHAT_DISCARDED | model=%s reason=session_reset", ex.req.Model)
		return ErrResponseDiscarded
	}
	c.state = model.StateIdle
	elapsed := c.now().Sub(ex.start)

	if callErr == nil && (resp == nil || strings.TrimSpace(resp.Message.Content) == "") {
		callErr = &api.EmptyResponseError{Model: ex.req.Model}
	}
	if callErr != nil {
		c.addNotice(NoticeError, errorNotice(callErr))
		c.logger.Printf("CHAT_ERROR | model=%s duration=%.3fs error=%v", ex.req.Model, elapsed.Seconds(), callErr)
		return callErr
	}

	turn := model.AssistantTurn(resp.Message.Content)
	if err := c.store.Append(turn); err != nil {
		return err
	}
	c.addTurn(turn, false)
	c.logger.Printf("CHAT_COMPLETE | model=%s duration=%.3fs chars=%d history=%d",
		ex.req.Model, elapsed.Seconds(), len(turn.Content), c.store.Len())
	return nil
}

// errorNotice formats a failed exchange for the user.
func errorNotice(err error) string {
	var emptyErr *api.EmptyResponseError
	if errors.As(err, &emptyErr) {
		return EmptyResponseNotice
	}
	return "Error: " + err.Error()
}

// =============================================================================
// RESET
// =============================================================================

// NewChat clears the history and seeds the welcome notice. While a request
// is in flight it returns ErrConfirmationRequired unless confirm is true;
// a confirmed reset discards the in-flight response.
func (c *Controller) NewChat(confirm bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkResetLocked(confirm); err != nil {
		return err
	}
	c.resetLocked()
	c.addNotice(NoticeInfo, WelcomeNotice)
	c.logger.Printf("CHAT_RESET | reason=new_chat")
	return nil
}

// ChangeModel selects a model, clearing the history. Selecting the current
// model is a no-op. Confirmation follows the same rule as NewChat.
func (c *Controller) ChangeModel(name string, confirm bool) error {
	name = strings.TrimSpace(name)

	c.mu.Lock()
	defer c.mu.Unlock()

	if name == "" {
		return newValidationError("model", ErrNoModel)
	}
	if name == c.settings.Model {
		return nil
	}
	if err := c.checkResetLocked(confirm); err != nil {
		return err
	}

	previous := c.settings.Model
	c.settings.Model = name
	c.resetLocked()
	c.addNotice(NoticeInfo, fmt.Sprintf("Now chatting with %s.", name))
	c.logger.Printf("MODEL_CHANGED | from=%s to=%s", previous, name)
	return nil
}

// ClearHistory clears the history without changing the model. A non-empty
// history needs confirm, matching the clear-chat prompt.
func (c *Controller) ClearHistory(confirm bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.store.Len() == 0 {
		return nil
	}
	if !confirm {
		return ErrConfirmationRequired
	}
	c.resetLocked()
	c.addNotice(NoticeInfo, WelcomeNotice)
	return nil
}

func (c *Controller) checkResetLocked(confirm bool) error {
	if c.state == model.StateAwaitingResponse && c.store.Len() > 0 && !confirm {
		return ErrConfirmationRequired
	}
	return nil
}

func (c *Controller) resetLocked() {
	c.store.Clear()
	c.transcript = nil
	c.notices = nil
	c.epoch++
	c.state = model.StateIdle
}

// =============================================================================
// MODELS
// =============================================================================

// ListModels returns the models offered by the API.
func (c *Controller) ListModels(ctx context.Context) ([]api.ModelInfo, error) {
	models, err := c.api.ListModels(ctx)
	if err != nil {
		c.logger.Printf("MODELS_FAILED | error=%v", err)
		return nil, err
	}
	c.logger.Printf("MODELS_LOADED | count=%d", len(models))
	return models, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (c *Controller) addNotice(level NoticeLevel, text string) {
	n := Notice{Level: level, Text: text, Time: c.now()}
	c.notices = append(c.notices, n)
	c.transcript = append(c.transcript, Entry{Kind: EntryNotice, Notice: n, Time: n.Time})
}

func (c *Controller) addTurn(turn model.Turn, synthesized bool) {
	c.transcript = append(c.transcript, Entry{
		Kind:        EntryTurn,
		Turn:        turn,
		Synthesized: synthesized,
		Time:        c.now(),
	})
}
