// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/jeranaias/ollamachat/internal/api"
	"github.com/jeranaias/ollamachat/internal/markdown"
	"github.com/jeranaias/ollamachat/internal/ollama"
)

// ============================================================================
// Constants
// ============================================================================

const (
	// DefaultPort is the port the proxy listens on when none is configured.
	DefaultPort = 3000

	// MaxRequestBodySize bounds POST /api/chat bodies. A conversation may
	// carry several attachments, so this is well above MaxAttachmentSize.
	MaxRequestBodySize = 8 << 20

	// Version is reported by GET /api/version.
	Version = "1.0.0"
)

// ============================================================================
// Upstream
// ============================================================================

// Upstream is the subset of the Ollama client used by the proxy.
type Upstream interface {
	BaseURL() string
	CheckRunning(ctx context.Context) error
	Version(ctx context.Context) (string, error)
	ListModels(ctx context.Context) ([]ollama.ModelInfo, error)
	Chat(ctx context.Context, req *ollama.ChatRequest) (*ollama.ChatResponse, error)
}

var _ Upstream = (*ollama.Client)(nil)

// ============================================================================
// Server
// ============================================================================

// Config holds proxy listener settings.
type Config struct {
	Host               string
	Port               int
	RateLimitPerMinute int // 0 disables rate limiting
}

// Server is the Chat API proxy.
type Server struct {
	config   Config
	upstream Upstream
	logger   *log.Logger
	handler  http.Handler
	server   *http.Server
}

// New creates a proxy in front of upstream. A nil logger uses log.Default().
func New(cfg Config, upstream Upstream, logger *log.Logger) *Server {
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if logger == nil {
		logger = log.Default()
	}

	s := &Server{
		config:   cfg,
		upstream: upstream,
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/models", s.handleModels)
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("GET /api/version", s.handleVersion)
	mux.HandleFunc("GET /health", s.handleHealth)

	middleware := []func(http.Handler) http.Handler{
		RecoveryMiddleware(logger),
		RequestIDMiddleware(),
		LoggingMiddleware(logger),
	}
	if cfg.RateLimitPerMinute > 0 {
		middleware = append(middleware,
			RateLimitMiddleware(NewRateLimiter(cfg.RateLimitPerMinute, 0), logger))
	}
	s.handler = Chain(middleware...)(mux)

	return s
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

// Start serves until Shutdown is called. It returns nil after a clean
// shutdown.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.Addr(),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Model generation can be slow; match the upstream client timeout.
		WriteTimeout: 6 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	s.logger.Printf("SERVER_START | addr=%s upstream=%s", s.Addr(), s.upstream.BaseURL())
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	s.logger.Printf("SERVER_STOP | addr=%s", s.Addr())
	return s.server.Shutdown(ctx)
}

// ============================================================================
// Handlers
// ============================================================================

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	models, err := s.upstream.ListModels(r.Context())
	if err != nil {
		s.logger.Printf("MODELS_FAILED | id=%s error=%v", RequestID(r.Context()), err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch models", err.Error())
		return
	}

	resp := api.ModelsResponse{Models: make([]api.ModelInfo, 0, len(models))}
	for _, m := range models {
		info := api.ModelInfo{Name: m.Name, Size: m.Size}
		if !m.ModifiedAt.IsZero() {
			info.ModifiedAt = m.ModifiedAt.Format(time.RFC3339)
		}
		resp.Models = append(resp.Models, info)
	}
	writeJSON(w, http.StatusOK, resp)
}

// chatRequestBody mirrors api.ChatRequest with pointer fields so missing
// members can be told apart from empty ones.
type chatRequestBody struct {
	Model    string           `json:"model"`
	Messages *json.RawMessage `json:"messages"`
	Options  map[string]any   `json:"options"`
}

// chatReply is the upstream response with the message replaced by one
// that carries rendered HTML.
type chatReply struct {
	*ollama.ChatResponse
	Message api.ResponseMessage `json:"message"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)

	var body chatRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large", "")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err.Error())
		return
	}

	if strings.TrimSpace(body.Model) == "" {
		writeError(w, http.StatusBadRequest, "Model is required", "")
		return
	}

	messages, err := parseMessages(body.Messages)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Messages array is required", err.Error())
		return
	}

	resp, err := s.upstream.Chat(r.Context(), &ollama.ChatRequest{
		Model:    body.Model,
		Messages: messages,
		Options:  body.Options,
	})
	if err != nil {
		s.logger.Printf("CHAT_FAILED | id=%s model=%s error=%v", RequestID(r.Context()), body.Model, err)
		writeError(w, http.StatusInternalServerError, "Failed to communicate with Ollama", err.Error())
		return
	}

	s.logger.Printf("CHAT_COMPLETE | id=%s model=%s eval_count=%d tokens_per_sec=%.1f total=%s",
		RequestID(r.Context()), body.Model, resp.EvalCount, resp.TokensPerSecond(), resp.TotalTime())

	reply := chatReply{
		ChatResponse: resp,
		Message: api.ResponseMessage{
			Role:    resp.Message.Role,
			Content: resp.Message.Content,
		},
	}
	if resp.Message.Content != "" {
		reply.Message.ContentHTML = markdown.ToHTML(resp.Message.Content)
	}
	writeJSON(w, http.StatusOK, reply)
}

// parseMessages requires raw to be a JSON array of role/content objects.
func parseMessages(raw *json.RawMessage) ([]ollama.Message, error) {
	if raw == nil {
		return nil, errors.New("messages is missing")
	}
	trimmed := strings.TrimSpace(string(*raw))
	if !strings.HasPrefix(trimmed, "[") {
		return nil, errors.New("messages must be an array")
	}

	var messages []ollama.Message
	if err := json.Unmarshal(*raw, &messages); err != nil {
		return nil, fmt.Errorf("invalid messages: %w", err)
	}
	for i, m := range messages {
		switch m.Role {
		case "system", "user", "assistant":
		default:
			return nil, fmt.Errorf("messages[%d]: invalid role %q", i, m.Role)
		}
	}
	return messages, nil
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"version":        Version,
		"go_version":     runtime.Version(),
		"ollama_api_url": s.upstream.BaseURL(),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	if v, err := s.upstream.Version(ctx); err == nil {
		resp["ollama_version"] = v
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status, ollamaStatus := "ok", "running"
	if err := s.upstream.CheckRunning(ctx); err != nil {
		status, ollamaStatus = "degraded", "unavailable"
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": status,
		"ollama": ollamaStatus,
	})
}

// ============================================================================
// Helpers
// ============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("JSON_ENCODE_FAILED | status=%d error=%v", status, err)
	}
}

func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, api.ErrorResponse{Error: message, Details: details})
}
