// Copyright 2025 The Paperless RAG Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package server exposes the question answering and ingestion pipeline
// over HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rae2001/paperless-rag/pkg/embedder"
	"github.com/rae2001/paperless-rag/pkg/paperless"
	"github.com/rae2001/paperless-rag/pkg/rag"
	"github.com/rae2001/paperless-rag/pkg/vector"
)

// Config configures the HTTP server.
type Config struct {
	// Host to bind (default: 0.0.0.0).
	Host string

	// Port to listen on (default: 8088).
	Port int

	// AllowedOrigins for CORS. ["*"] permits any origin.
	AllowedOrigins []string

	// ShutdownTimeout bounds graceful shutdown (default: 15s).
	ShutdownTimeout time.Duration
}

// SetDefaults applies default values.
func (c *Config) SetDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8088
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 15 * time.Second
	}
}

// AnswerAPI answers questions against the document index.
type AnswerAPI interface {
	Ask(ctx context.Context, req rag.AskRequest) (*rag.AskResponse, error)
}

// IngestAPI drives the ingestion pipeline.
type IngestAPI interface {
	IngestDocument(ctx context.Context, docID int, force bool) (*rag.IngestResult, error)
	IngestAll(ctx context.Context, force bool, updatedAfter string) (*rag.BatchResult, error)
	RemoveDocument(ctx context.Context, docID int) error
}

// ChunkStatsAPI aggregates indexed chunk statistics.
type ChunkStatsAPI interface {
	Summary(ctx context.Context) (*rag.ChunksSummary, error)
}

// DocumentAPI is the paperless-ngx surface the handlers need.
type DocumentAPI interface {
	ListDocuments(ctx context.Context, opts paperless.ListOptions) (*paperless.DocumentList, error)
	GetDocument(ctx context.Context, docID int) (*paperless.Document, error)
	SearchDocuments(ctx context.Context, title string) (*paperless.DocumentList, error)
	Ping(ctx context.Context) error
}

// LLMAPI is the language model surface the handlers need.
type LLMAPI interface {
	Ping(ctx context.Context) error
	Model() string
}

// Dependencies are the services the HTTP handlers delegate to.
type Dependencies struct {
	Answers   AnswerAPI
	Ingestor  IngestAPI
	Chunks    ChunkStatsAPI
	Store     vector.Store
	Documents DocumentAPI
	LLM       LLMAPI
	Embedder  embedder.Embedder
}

// Server is the HTTP server for the question answering service.
type Server struct {
	config     Config
	deps       Dependencies
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates the HTTP server with its routes configured.
func New(cfg Config, deps Dependencies) *Server {
	cfg.SetDefaults()

	s := &Server{
		config: cfg,
		deps:   deps,
		logger: slog.Default().With("component", "server"),
	}

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: s.routes(),
	}

	return s
}

// routes builds the router with global middleware applied.
func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	// Order: logging -> metrics -> cors
	r.Use(loggingMiddleware(s.logger))
	r.Use(metricsMiddleware)
	r.Use(corsMiddleware(s.config.AllowedOrigins))

	r.Get("/", s.handleInfo)
	r.Get("/health", s.handleHealth)
	r.Get("/metrics", MetricsHandler().ServeHTTP)

	r.Post("/ask", s.handleAsk)
	r.Post("/ingest", s.handleIngest)

	r.Route("/documents", func(r chi.Router) {
		r.Get("/", s.handleListDocuments)
		r.Get("/search", s.handleSearchDocuments)
		r.Get("/{id}", s.handleGetDocument)
		r.Delete("/{id}/index", s.handleRemoveDocument)
	})

	r.Get("/stats", s.handleStats)

	return r
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start runs the server until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("server failed: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return s.Shutdown()
	}
}

// Shutdown stops the server, waiting for in-flight requests up to the
// configured timeout.
func (s *Server) Shutdown() error {
	s.logger.Info("Shutting down HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
