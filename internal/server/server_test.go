// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/ollamachat/internal/api"
	"github.com/jeranaias/ollamachat/internal/model"
	"github.com/jeranaias/ollamachat/internal/ollama"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type fakeUpstream struct {
	models   []ollama.ModelInfo
	reply    string
	err      error
	down     bool
	lastChat *ollama.ChatRequest
}

func (f *fakeUpstream) BaseURL() string { return "http://ollama.test:11434" }

func (f *fakeUpstream) CheckRunning(ctx context.Context) error {
	if f.down {
		return ollama.ErrNotRunning
	}
	return nil
}

func (f *fakeUpstream) Version(ctx context.Context) (string, error) {
	if f.down {
		return "", ollama.ErrNotRunning
	}
	return "0.5.1", nil
}

func (f *fakeUpstream) ListModels(ctx context.Context) ([]ollama.ModelInfo, error) {
	return f.models, f.err
}

func (f *fakeUpstream) Chat(ctx context.Context, req *ollama.ChatRequest) (*ollama.ChatResponse, error) {
	f.lastChat = req
	if f.err != nil {
		return nil, f.err
	}
	return &ollama.ChatResponse{
		Model:         req.Model,
		Message:       ollama.NewAssistantMessage(f.reply),
		Done:          true,
		EvalCount:     12,
		EvalDuration:  int64(2 * time.Second),
		TotalDuration: int64(3 * time.Second),
	}, nil
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func serve(t *testing.T, up Upstream, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	srv := New(Config{}, up, quietLogger())
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) api.ErrorResponse {
	t.Helper()
	var resp api.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return resp
}

// =============================================================================
// SERVER TESTS
// =============================================================================

func TestNew_Defaults(t *testing.T) {
	srv := New(Config{}, &fakeUpstream{}, nil)
	if srv.config.Port != DefaultPort {
		t.Errorf("Port = %d, want %d", srv.config.Port, DefaultPort)
	}
	if srv.Addr() != ":3000" {
		t.Errorf("Addr() = %q, want %q", srv.Addr(), ":3000")
	}
	if srv.logger == nil {
		t.Error("logger should default to log.Default()")
	}
}

func TestShutdown_NotStarted(t *testing.T) {
	srv := New(Config{}, &fakeUpstream{}, quietLogger())
	if err := srv.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() = %v, want nil", err)
	}
}

func TestHandleModels(t *testing.T) {
	modified := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	up := &fakeUpstream{models: []ollama.ModelInfo{
		{Name: "llama3.2", Size: 2_000_000_000, ModifiedAt: modified},
		{Name: "mistral"},
	}}

	rec := serve(t, up, http.MethodGet, "/api/models", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp api.ModelsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Models) != 2 {
		t.Fatalf("got %d models, want 2", len(resp.Models))
	}
	if resp.Models[0].Name != "llama3.2" || resp.Models[0].ModifiedAt != "2025-01-02T03:04:05Z" {
		t.Errorf("Models[0] = %+v", resp.Models[0])
	}
	if resp.Models[1].ModifiedAt != "" {
		t.Errorf("zero ModifiedAt should be omitted, got %q", resp.Models[1].ModifiedAt)
	}
}

func TestHandleModels_Empty(t *testing.T) {
	rec := serve(t, &fakeUpstream{}, http.MethodGet, "/api/models", "")
	if got := strings.TrimSpace(rec.Body.String()); got != `{"models":[]}` {
		t.Errorf("body = %s, want empty models array", got)
	}
}

func TestHandleModels_UpstreamError(t *testing.T) {
	up := &fakeUpstream{err: errors.New("connection refused")}
	rec := serve(t, up, http.MethodGet, "/api/models", "")

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	resp := decodeError(t, rec)
	if resp.Error != "Failed to fetch models" || resp.Details != "connection refused" {
		t.Errorf("error body = %+v", resp)
	}
}

func TestHandleChat(t *testing.T) {
	up := &fakeUpstream{reply: "Here:\n```go\nfmt.Println(1)\n```"}
	body := `{"model":"llama3.2","messages":[{"role":"user","content":"hi"}],"options":{"temperature":0.2,"num_predict":64}}`

	rec := serve(t, up, http.MethodPost, "/api/chat", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	if up.lastChat == nil || up.lastChat.Model != "llama3.2" || len(up.lastChat.Messages) != 1 {
		t.Fatalf("upstream request = %+v", up.lastChat)
	}
	if up.lastChat.Options["num_predict"] != float64(64) {
		t.Errorf("options not forwarded: %v", up.lastChat.Options)
	}

	var raw map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if raw["eval_count"] != float64(12) {
		t.Errorf("upstream metrics should pass through, eval_count = %v", raw["eval_count"])
	}

	var resp api.ChatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Message.Content != up.reply {
		t.Errorf("content = %q, want %q", resp.Message.Content, up.reply)
	}
	if !strings.Contains(resp.Message.ContentHTML, `class="code-block"`) {
		t.Errorf("content_html missing code block: %s", resp.Message.ContentHTML)
	}
}

func TestHandleChat_LogsGenerationStats(t *testing.T) {
	var logs strings.Builder
	srv := New(Config{}, &fakeUpstream{reply: "ok"}, log.New(&logs, "", 0))

	body := `{"model":"llama3.2","messages":[{"role":"user","content":"hi"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	want := "CHAT_COMPLETE | id="
	if !strings.Contains(logs.String(), want) {
		t.Fatalf("log %q missing %q", logs.String(), want)
	}
	if !strings.Contains(logs.String(), "model=llama3.2 eval_count=12 tokens_per_sec=6.0 total=3s") {
		t.Errorf("log missing generation stats: %q", logs.String())
	}
}

func TestHandleChat_Validation(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantError string
	}{
		{"missing model", `{"messages":[]}`, "Model is required"},
		{"blank model", `{"model":"  ","messages":[]}`, "Model is required"},
		{"missing messages", `{"model":"m"}`, "Messages array is required"},
		{"messages not array", `{"model":"m","messages":"hi"}`, "Messages array is required"},
		{"null messages", `{"model":"m","messages":null}`, "Messages array is required"},
		{"bad role", `{"model":"m","messages":[{"role":"tool","content":"x"}]}`, "Messages array is required"},
		{"invalid json", `{"model":`, "Invalid JSON body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := &fakeUpstream{reply: "ok"}
			rec := serve(t, up, http.MethodPost, "/api/chat", tt.body)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if got := decodeError(t, rec).Error; got != tt.wantError {
				t.Errorf("error = %q, want %q", got, tt.wantError)
			}
			if up.lastChat != nil {
				t.Error("invalid request should not reach upstream")
			}
		})
	}
}

func TestHandleChat_UpstreamError(t *testing.T) {
	up := &fakeUpstream{err: ollama.ErrModelNotFound}
	rec := serve(t, up, http.MethodPost, "/api/chat", `{"model":"nope","messages":[]}`)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	resp := decodeError(t, rec)
	if resp.Error != "Failed to communicate with Ollama" {
		t.Errorf("error = %q", resp.Error)
	}
	if resp.Details == "" {
		t.Error("details should carry the upstream error")
	}
}

func TestHandleChat_WrongMethod(t *testing.T) {
	rec := serve(t, &fakeUpstream{}, http.MethodGet, "/api/chat", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestHandleVersion(t *testing.T) {
	rec := serve(t, &fakeUpstream{}, http.MethodGet, "/api/version", "")

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["version"] != Version {
		t.Errorf("version = %q, want %q", resp["version"], Version)
	}
	if resp["ollama_version"] != "0.5.1" {
		t.Errorf("ollama_version = %q", resp["ollama_version"])
	}
	if resp["ollama_api_url"] != "http://ollama.test:11434" {
		t.Errorf("ollama_api_url = %q", resp["ollama_api_url"])
	}
}

func TestHandleHealth(t *testing.T) {
	tests := []struct {
		name       string
		down       bool
		wantStatus string
		wantOllama string
	}{
		{"upstream running", false, "ok", "running"},
		{"upstream down", true, "degraded", "unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, &fakeUpstream{down: tt.down}, http.MethodGet, "/health", "")
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			var resp map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp["status"] != tt.wantStatus || resp["ollama"] != tt.wantOllama {
				t.Errorf("health = %v", resp)
			}
		})
	}
}

// =============================================================================
// END-TO-END TESTS
// =============================================================================

// TestProxy_EndToEnd runs api.Client against the proxy in front of a fake
// Ollama server.
func TestProxy_EndToEnd(t *testing.T) {
	var gotStream any
	fakeOllama := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			w.Write([]byte(`{"models":[{"name":"llama3.2","size":42}]}`))
		case "/api/chat":
			var req map[string]any
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("decode upstream request: %v", err)
				return
			}
			gotStream = req["stream"]
			w.Write([]byte(`{"model":"llama3.2","message":{"role":"assistant","content":"**hello**"},"done":true}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer fakeOllama.Close()

	upstream := ollama.NewClientWithConfig(&ollama.ClientConfig{BaseURL: fakeOllama.URL + "/api"})
	proxy := httptest.NewServer(New(Config{}, upstream, quietLogger()).Handler())
	defer proxy.Close()

	client := api.NewClient(proxy.URL + "/api")
	ctx := context.Background()

	models, err := client.ListModels(ctx)
	if err != nil {
		t.Fatalf("ListModels() error = %v", err)
	}
	if len(models) != 1 || models[0].Name != "llama3.2" {
		t.Errorf("models = %+v", models)
	}

	resp, err := client.Chat(ctx, &api.ChatRequest{
		Model:    "llama3.2",
		Messages: []model.Turn{model.UserTurn("hi")},
		Options:  api.Options{Temperature: 0.7, NumPredict: 2048},
	})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if resp.Message.Content != "**hello**" {
		t.Errorf("content = %q", resp.Message.Content)
	}
	if resp.Message.ContentHTML == "" {
		t.Error("content_html should be populated")
	}
	if gotStream != false {
		t.Errorf("upstream stream = %v, want false", gotStream)
	}
}

func TestProxy_EndToEnd_ValidationSurfacesAsAPIError(t *testing.T) {
	proxy := httptest.NewServer(New(Config{}, &fakeUpstream{}, quietLogger()).Handler())
	defer proxy.Close()

	_, err := api.NewClient(proxy.URL).Chat(context.Background(), &api.ChatRequest{
		Messages: []model.Turn{model.UserTurn("hi")},
	})

	var apiErr *api.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %T %v, want *api.APIError", err, err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || apiErr.Message != "Model is required" {
		t.Errorf("APIError = %+v", apiErr)
	}
}
