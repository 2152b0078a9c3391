// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides the HTTP proxy that exposes the Chat API on top
// of an Ollama server.
//
// Endpoints:
//   - GET  /api/models  - Models available upstream ({"models": [...]})
//   - POST /api/chat    - Non-streaming chat; adds message.content_html
//   - GET  /api/version - Proxy version and upstream URL
//   - GET  /health      - Liveness plus upstream status
//
// Failures are answered with {"error": "...", "details": "..."}.
//
// # Key Types
//
//   - Server: Route table, middleware chain and lifecycle
//   - Upstream: The Ollama operations the proxy needs
//   - RateLimiter: Per-client token bucket limiter
//
// # Usage
//
//	srv := server.New(server.Config{Port: 3000}, ollama.NewClient(), logger)
//	go srv.Start()
//	defer srv.Shutdown(ctx)
package server
