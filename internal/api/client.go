// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 8 << 20

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the Chat API client.
type ClientConfig struct {
	// BaseURL is the server root (default: http://localhost:3000).
	// A trailing "/api" is accepted and stripped.
	BaseURL string

	// Timeout for a single request (default: 5m; local models can be slow).
	Timeout time.Duration

	// Logger receives one line per request. Nil discards.
	Logger *log.Logger
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL: "http://localhost:3000",
		Timeout: 5 * time.Minute,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client is an HTTP implementation of ChatAPI.
//
// The Client is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
}

var _ ChatAPI = (*Client)(nil)

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string) *Client {
	cfg := DefaultConfig()
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return NewClientWithConfig(cfg)
}

// NewClientWithConfig creates a client with custom configuration.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultConfig().BaseURL
	}
	timeout := config.Timeout
	if timeout == 0 {
		timeout = DefaultConfig().Timeout
	}
	logger := config.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	return &Client{
		baseURL:    normalizeBaseURL(baseURL),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// BaseURL returns the normalized server root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func normalizeBaseURL(u string) string {
	u = strings.TrimRight(u, "/")
	u = strings.TrimSuffix(u, "/api")
	return u
}

// =============================================================================
// OPERATIONS
// =============================================================================

// ListModels fetches GET /api/models.
//
// The list is read from "models", from a bare array, or from an
// OpenAI-style "data" array. Entries may be objects or plain strings.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/models", nil)
	if err != nil {
		return nil, err
	}
	models, err := parseModelList(body)
	if err != nil {
		return nil, &TransportError{Op: "decode models response", Cause: err}
	}
	return models, nil
}

// Chat sends POST /api/chat. Exactly one attempt is made.
func (c *Client) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	start := time.Now()
	body, err := c.do(ctx, http.MethodPost, "/api/chat", payload)
	if err != nil {
		c.logger.Printf("CHAT_FAILED | model=%s messages=%d error=%v", req.Model, len(req.Messages), err)
		return nil, err
	}

	if errField := gjson.GetBytes(body, "error"); errField.Exists() && errField.String() != "" {
		return nil, parseAPIError(http.StatusOK, "/api/chat", body)
	}

	var resp ChatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &TransportError{Op: "decode chat response", Cause: err}
	}
	if strings.TrimSpace(resp.Message.Content) == "" {
		return nil, &EmptyResponseError{Model: req.Model}
	}

	c.logger.Printf("CHAT_COMPLETE | model=%s messages=%d chars=%d duration=%.3fs",
		req.Model, len(req.Messages), len(resp.Message.Content), time.Since(start).Seconds())
	return &resp, nil
}

// do performs one request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, &TransportError{Op: "create request", Cause: err}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: method + " " + path, Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &TransportError{Op: "read response", Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, parseAPIError(resp.StatusCode, path, body)
	}
	return body, nil
}

// =============================================================================
// RESPONSE PARSING
// =============================================================================

// parseAPIError extracts the error payload of a failed response.
// "error" may be a string or an object with a "message" field.
func parseAPIError(status int, endpoint string, body []byte) *APIError {
	apiErr := NewAPIError(status, endpoint, "")
	if gjson.ValidBytes(body) {
		parsed := gjson.ParseBytes(body)
		errField := parsed.Get("error")
		if errField.IsObject() {
			apiErr.Message = errField.Get("message").String()
		} else {
			apiErr.Message = errField.String()
		}
		apiErr.Details = parsed.Get("details").String()
	}
	if apiErr.Message == "" {
		apiErr.Message = fmt.Sprintf("request failed: %d %s", status, http.StatusText(status))
	}
	return apiErr
}

// errNoModelList is returned for a 2xx body that carries no model list.
var errNoModelList = errors.New("response has no model list")

func parseModelList(body []byte) ([]ModelInfo, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.New("response is not valid JSON")
	}
	parsed := gjson.ParseBytes(body)

	var list gjson.Result
	switch {
	case parsed.Get("models").IsArray():
		list = parsed.Get("models")
	case parsed.IsArray():
		list = parsed
	case parsed.Get("data").IsArray():
		list = parsed.Get("data")
	default:
		return nil, errNoModelList
	}

	models := make([]ModelInfo, 0, len(list.Array()))
	list.ForEach(func(_, entry gjson.Result) bool {
		var info ModelInfo
		if entry.Type == gjson.String {
			info.Name = entry.String()
		} else {
			info.Name = firstString(entry, "name", "model", "id")
			info.Size = entry.Get("size").Int()
			info.ModifiedAt = entry.Get("modified_at").String()
		}
		if info.Name != "" {
			models = append(models, info)
		}
		return true
	})
	return models, nil
}

func firstString(r gjson.Result, keys ...string) string {
	for _, k := range keys {
		if v := r.Get(k).String(); v != "" {
			return v
		}
	}
	return ""
}
