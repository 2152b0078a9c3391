// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// serve_cmd.go - Chat API proxy command.
//
// Command: serve
// Short:   Serve the Chat API in front of an Ollama server
//
// Flags:
//   --host          Listen host (default all interfaces)
//   --port          Listen port (default 3000)
//   --ollama-url    Ollama server to forward to
//   --rate-limit    Requests per minute per client IP (0 disables)

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/ollamachat/internal/ollama"
	"github.com/jeranaias/ollamachat/internal/server"
)

// shutdownTimeout bounds graceful shutdown after a signal.
const shutdownTimeout = 10 * time.Second

type serveOptions struct {
	host      string
	port      int
	ollamaURL string
	rateLimit int
}

func newServeCommand(a *app) *cobra.Command {
	var opts serveOptions
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the Chat API in front of an Ollama server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runServe(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.host, "host", "", "Listen host")
	cmd.Flags().IntVarP(&opts.port, "port", "p", 0, "Listen port (default from config)")
	cmd.Flags().StringVar(&opts.ollamaURL, "ollama-url", "", "Ollama server URL")
	cmd.Flags().IntVar(&opts.rateLimit, "rate-limit", 0, "Requests per minute per client IP, 0 disables")
	return cmd
}

func (a *app) runServe(cmd *cobra.Command, opts serveOptions) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Server.Host = opts.host
	}
	if flags.Changed("port") {
		cfg.Server.Port = opts.port
	}
	if flags.Changed("ollama-url") {
		cfg.Ollama.URL = opts.ollamaURL
	}
	if flags.Changed("rate-limit") {
		cfg.Server.RateLimitPerMinute = opts.rateLimit
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	// The server logs to stderr unless --log-file is set.
	logger, err := a.logger(a.stderr)
	if err != nil {
		return err
	}

	upstream := ollama.NewClientWithConfig(&ollama.ClientConfig{
		BaseURL: cfg.Ollama.URL,
		Timeout: cfg.API.Timeout(),
	})
	srv := server.New(server.Config{
		Host:               cfg.Server.Host,
		Port:               cfg.Server.Port,
		RateLimitPerMinute: cfg.Server.RateLimitPerMinute,
	}, upstream, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()
	fmt.Fprintf(a.stdout, "Serving the Chat API on %s (Ollama at %s)\n", srv.Addr(), upstream.BaseURL())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return <-errCh
}
