// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/ollamachat/internal/model"
)

// =============================================================================
// LIST MODELS TESTS
// =============================================================================

func TestClient_ListModels(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{"models object", `{"models":[{"name":"llama3.2","size":42},{"name":"qwen2.5"}]}`, []string{"llama3.2", "qwen2.5"}},
		{"bare array", `[{"name":"mistral"}]`, []string{"mistral"}},
		{"string array", `["a","b"]`, []string{"a", "b"}},
		{"openai data", `{"data":[{"id":"gpt"}]}`, []string{"gpt"}},
		{"unnamed entries skipped", `{"models":[{"size":1},{"name":"x"}]}`, []string{"x"}},
		{"empty list", `{"models":[]}`, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/api/models", r.URL.Path)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			models, err := NewClient(srv.URL).ListModels(context.Background())
			require.NoError(t, err)

			var names []string
			for _, m := range models {
				names = append(names, m.Name)
			}
			assert.Equal(t, tc.want, names)
		})
	}
}

func TestClient_ListModels_UndecodableBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"html page", `<html>proxy error page</html>`},
		{"unknown shape", `{"foo":1}`},
		{"empty body", ``},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			models, err := NewClient(srv.URL).ListModels(context.Background())
			assert.Nil(t, models)

			var transportErr *TransportError
			require.ErrorAs(t, err, &transportErr)
			assert.Equal(t, "decode models response", transportErr.Op)
			assert.ErrorIs(t, err, ErrTransport)
		})
	}
}

func TestClient_ListModels_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"Failed to communicate with Ollama","details":"connection refused"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).ListModels(context.Background())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "Failed to communicate with Ollama", apiErr.Error())
	assert.Equal(t, "connection refused", apiErr.Details)
}

// =============================================================================
// CHAT TESTS
// =============================================================================

func TestClient_Chat_Success(t *testing.T) {
	var got ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"message":{"role":"assistant","content":"Hi there"}}`))
	}))
	defer srv.Close()

	req := &ChatRequest{
		Model:    "llama3.2",
		Messages: []model.Turn{model.UserTurn("Hello")},
		Options:  Options{Temperature: 0.5, NumPredict: 100},
	}
	resp, err := NewClient(srv.URL + "/api/").Chat(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, "Hi there", resp.Message.Content)
	assert.Equal(t, *req, got)
}

func TestClient_Chat_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "error string",
			status: http.StatusBadRequest,
			body:   `{"error":"Model is required"}`,
			check: func(t *testing.T, err error) {
				var apiErr *APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, "Model is required", apiErr.Message)
			},
		},
		{
			name:   "error object",
			status: http.StatusNotFound,
			body:   `{"error":{"message":"model 'x' not found"}}`,
			check: func(t *testing.T, err error) {
				assert.EqualError(t, err, "model 'x' not found")
			},
		},
		{
			name:   "non json failure",
			status: http.StatusBadGateway,
			body:   `<html>bad gateway</html>`,
			check: func(t *testing.T, err error) {
				assert.EqualError(t, err, "request failed: 502 Bad Gateway")
			},
		},
		{
			name:   "missing content",
			status: http.StatusOK,
			body:   `{"message":{"role":"assistant"}}`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrEmptyResponse)
			},
		},
		{
			name:   "missing message",
			status: http.StatusOK,
			body:   `{}`,
			check: func(t *testing.T, err error) {
				var emptyErr *EmptyResponseError
				assert.ErrorAs(t, err, &emptyErr)
			},
		},
		{
			name:   "error in success body",
			status: http.StatusOK,
			body:   `{"error":"model is loading"}`,
			check: func(t *testing.T, err error) {
				var apiErr *APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, "model is loading", apiErr.Message)
			},
		},
		{
			name:   "garbage success body",
			status: http.StatusOK,
			body:   `not json`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrTransport)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL).Chat(context.Background(), &ChatRequest{Model: "m"})
			require.Error(t, err)
			tc.check(t, err)
		})
	}
}

func TestClient_Chat_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(url).Chat(context.Background(), &ChatRequest{Model: "m"})

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.True(t, errors.Is(err, ErrTransport))
}

func TestNormalizeBaseURL(t *testing.T) {
	assert.Equal(t, "http://h:1", normalizeBaseURL("http://h:1/"))
	assert.Equal(t, "http://h:1", normalizeBaseURL("http://h:1/api"))
	assert.Equal(t, "http://h:1", normalizeBaseURL("http://h:1/api/"))
}
