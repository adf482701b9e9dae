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

// Command paperless-rag serves question answering over a paperless-ngx
// document archive.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	paperlessrag "github.com/rae2001/paperless-rag"
	"github.com/rae2001/paperless-rag/pkg/config"
	"github.com/rae2001/paperless-rag/pkg/embedder"
	"github.com/rae2001/paperless-rag/pkg/llm"
	"github.com/rae2001/paperless-rag/pkg/logger"
	"github.com/rae2001/paperless-rag/pkg/paperless"
	"github.com/rae2001/paperless-rag/pkg/rag"
	"github.com/rae2001/paperless-rag/pkg/server"
	"github.com/rae2001/paperless-rag/pkg/utils"
	"github.com/rae2001/paperless-rag/pkg/vector"
)

// startupTimeout bounds dependency initialization at boot.
const startupTimeout = 60 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "paperless-rag: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.Setup(logger.Config{
		Level:  cfg.LogLevel,
		Format: logger.Format(cfg.LogFormat),
	})
	log.Info("Starting paperless-rag", "version", paperlessrag.Version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bootCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	// Vector store and embedder are hard dependencies: without them
	// neither ingestion nor retrieval can work.
	store, err := vector.NewQdrantStore(vector.QdrantConfig{
		URL:      cfg.QdrantURL,
		GRPCPort: cfg.QdrantGRPCPort,
		APIKey:   cfg.QdrantAPIKey,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to qdrant: %w", err)
	}
	defer store.Close()

	emb, err := embedder.NewOpenAIEmbedder(embedder.OpenAIConfig{
		BaseURL:   cfg.EmbeddingBaseURL,
		APIKey:    cfg.EmbeddingAPIKey,
		Model:     cfg.EmbeddingModel,
		Dimension: cfg.EmbeddingDim,
	})
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}
	if err := emb.Warmup(bootCtx); err != nil {
		return fmt.Errorf("embedding service warmup failed: %w", err)
	}
	log.Info("Embedding service ready", "model", emb.Model(), "dimension", emb.Dimension())

	if err := store.EnsureCollection(bootCtx, emb.Dimension()); err != nil {
		return fmt.Errorf("failed to ensure qdrant collection: %w", err)
	}

	docs, err := paperless.NewClient(paperless.Config{
		BaseURL: cfg.PaperlessBaseURL,
		Token:   cfg.PaperlessAPIToken,
	})
	if err != nil {
		return fmt.Errorf("failed to create paperless client: %w", err)
	}
	if err := docs.Ping(bootCtx); err != nil {
		// Paperless may still be booting; ingestion retries on demand.
		log.Warn("Paperless is not reachable yet", "error", err)
	}

	model, err := llm.NewClient(llm.Config{
		APIKey:  cfg.OpenRouterAPIKey,
		Model:   cfg.OpenRouterModel,
		BaseURL: cfg.OpenRouterBaseURL,
	})
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	if err := model.Ping(bootCtx); err != nil {
		log.Warn("LLM probe failed", "model", model.Model(), "error", err)
	}

	gateKeywords, err := config.LoadGateKeywords(cfg.GateKeywordsFile)
	if err != nil {
		return fmt.Errorf("failed to load gate keywords: %w", err)
	}

	counter := utils.NewTokenCounter("cl100k_base")
	if !counter.Available() {
		log.Warn("tiktoken encoding unavailable, using character estimates")
	}
	chunker, err := rag.NewTokenChunker(rag.ChunkerConfig{
		ChunkTokens:   cfg.ChunkTokens,
		OverlapTokens: cfg.ChunkOverlap,
	}, counter)
	if err != nil {
		return fmt.Errorf("failed to create chunker: %w", err)
	}

	retriever := rag.NewRetriever(store, emb, rag.RetrieverConfig{TopK: cfg.RAGTopK})
	ingestor := rag.NewIngestor(docs, store, emb, chunker, rag.IngestorConfig{
		Concurrency: cfg.IngestConcurrency,
	})
	answers := rag.NewAnswerService(retriever, model, docs, rag.AnswerConfig{
		TopK:              cfg.RAGTopK,
		MaxSnippetsTokens: cfg.MaxSnippetsTokens,
		GateKeywords:      gateKeywords,
	})

	srv := server.New(server.Config{
		Host:           cfg.ServerHost,
		Port:           cfg.ServerPort,
		AllowedOrigins: cfg.AllowedOrigins,
	}, server.Dependencies{
		Answers:   answers,
		Ingestor:  ingestor,
		Chunks:    retriever,
		Store:     store,
		Documents: docs,
		LLM:       model,
		Embedder:  emb,
	})

	return srv.Start(ctx)
}
