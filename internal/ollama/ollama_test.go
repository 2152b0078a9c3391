// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestMessageConstructors(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		role string
	}{
		{"user", NewUserMessage("Hello"), "user"},
		{"assistant", NewAssistantMessage("Response"), "assistant"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.msg.Role != tc.role {
				t.Errorf("Role = %q, want %q", tc.msg.Role, tc.role)
			}
		})
	}
}

// =============================================================================
// RESPONSE TESTS
// =============================================================================

func TestChatResponse_TokensPerSecond(t *testing.T) {
	tests := []struct {
		name         string
		evalCount    int
		evalDuration int64
		want         float64
	}{
		{"normal", 100, int64(time.Second), 100.0},
		{"zero duration", 100, 0, 0.0},
		{"fast", 1000, int64(100 * time.Millisecond), 10000.0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := &ChatResponse{EvalCount: tc.evalCount, EvalDuration: tc.evalDuration}
			got := resp.TokensPerSecond()
			if tc.want != 0 && (got < tc.want*0.99 || got > tc.want*1.01) {
				t.Errorf("TokensPerSecond() = %f, want %f", got, tc.want)
			}
			if tc.want == 0 && got != 0 {
				t.Errorf("TokensPerSecond() = %f, want 0", got)
			}
		})
	}
}

func TestChatResponse_TotalTime(t *testing.T) {
	resp := &ChatResponse{TotalDuration: int64(1500 * time.Millisecond)}
	if got := resp.TotalTime(); got != 1500*time.Millisecond {
		t.Errorf("TotalTime() = %v, want 1.5s", got)
	}
	if got := (&ChatResponse{}).TotalTime(); got != 0 {
		t.Errorf("TotalTime() = %v, want 0", got)
	}
}

// =============================================================================
// CLIENT TESTS
// =============================================================================

func TestNewClientWithConfig_Defaults(t *testing.T) {
	c := NewClientWithConfig(&ClientConfig{BaseURL: "http://host:11434/api/"})
	if c.BaseURL() != "http://host:11434" {
		t.Errorf("BaseURL() = %q", c.BaseURL())
	}
	if c.config.Timeout != DefaultConfig().Timeout {
		t.Errorf("Timeout = %v", c.config.Timeout)
	}
}

func TestClient_ListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("path = %q, want /api/tags", r.URL.Path)
		}
		w.Write([]byte(`{"models":[{"name":"llama3.2:latest","size":2019393189}]}`))
	}))
	defer srv.Close()

	models, err := NewClientWithConfig(&ClientConfig{BaseURL: srv.URL}).ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if len(models) != 1 || models[0].Name != "llama3.2:latest" {
		t.Errorf("models = %+v", models)
	}
}

func TestClient_Chat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
			return
		}
		if req["stream"] != false {
			t.Errorf("stream = %v, want false", req["stream"])
		}
		opts, _ := req["options"].(map[string]any)
		if opts["temperature"] != float64(0) {
			t.Errorf("temperature = %v, want explicit 0", opts["temperature"])
		}
		w.Write([]byte(`{"model":"m","message":{"role":"assistant","content":"hi"},"done":true}`))
	}))
	defer srv.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: srv.URL})
	resp, err := client.Chat(context.Background(), &ChatRequest{
		Model:    "m",
		Messages: []Message{NewUserMessage("hello")},
		Stream:   true,
		Options:  map[string]any{"temperature": 0},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Message.Content != "hi" {
		t.Errorf("Content = %q", resp.Message.Content)
	}
}

func TestClient_Chat_ErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"model \"nope\" not found, try pulling it first"}`))
	}))
	defer srv.Close()

	_, err := NewClientWithConfig(&ClientConfig{BaseURL: srv.URL}).Chat(context.Background(), &ChatRequest{Model: "nope"})
	if !errors.Is(err, ErrModelNotFound) {
		t.Fatalf("error = %v, want ErrModelNotFound", err)
	}
	if err.Error() != `model "nope" not found, try pulling it first` {
		t.Errorf("message = %q", err.Error())
	}
}

func TestClient_NotRunning(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	err := NewClientWithConfig(&ClientConfig{BaseURL: url}).CheckRunning(context.Background())
	if !errors.Is(err, ErrNotRunning) {
		t.Errorf("error = %v, want ErrNotRunning", err)
	}
}

func TestClient_Version(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"version":"0.5.7"}`))
	}))
	defer srv.Close()

	v, err := NewClientWithConfig(&ClientConfig{BaseURL: srv.URL}).Version(context.Background())
	if err != nil || v != "0.5.7" {
		t.Errorf("Version() = %q, %v", v, err)
	}
}
