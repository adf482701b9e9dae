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

// Package config loads application settings from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application settings.
type Config struct {
	// Paperless-ngx connection.
	PaperlessBaseURL  string
	PaperlessAPIToken string

	// OpenRouter LLM settings.
	OpenRouterAPIKey  string
	OpenRouterModel   string
	OpenRouterBaseURL string

	// Vector database.
	QdrantURL      string
	QdrantGRPCPort int
	QdrantAPIKey   string

	// Embedding service (OpenAI-compatible /embeddings endpoint).
	EmbeddingModel   string
	EmbeddingBaseURL string
	EmbeddingAPIKey  string
	EmbeddingDim     int

	// Retrieval tuning.
	RAGTopK           int
	ChunkTokens       int
	ChunkOverlap      int
	MaxSnippetsTokens int

	// Ingestion.
	IngestConcurrency int

	// HTTP server.
	ServerHost     string
	ServerPort     int
	AllowedOrigins []string

	// Logging.
	LogLevel  string
	LogFormat string

	// GateKeywordsFile optionally points at a YAML file overriding the
	// built-in document keyword list used to gate retrieval.
	GateKeywordsFile string
}

// Load reads configuration from the environment, after loading .env files.
func Load() (*Config, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		PaperlessBaseURL:  os.Getenv("PAPERLESS_BASE_URL"),
		PaperlessAPIToken: os.Getenv("PAPERLESS_API_TOKEN"),

		OpenRouterAPIKey:  os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterModel:   os.Getenv("OPENROUTER_MODEL"),
		OpenRouterBaseURL: os.Getenv("OPENROUTER_BASE_URL"),

		QdrantURL:      os.Getenv("QDRANT_URL"),
		QdrantGRPCPort: envInt("QDRANT_GRPC_PORT", 0),
		QdrantAPIKey:   os.Getenv("QDRANT_API_KEY"),

		EmbeddingModel:   os.Getenv("EMBEDDING_MODEL"),
		EmbeddingBaseURL: os.Getenv("EMBEDDING_BASE_URL"),
		EmbeddingAPIKey:  os.Getenv("EMBEDDING_API_KEY"),
		EmbeddingDim:     envInt("EMBEDDING_DIM", 0),

		RAGTopK:           envInt("RAG_TOP_K", 0),
		ChunkTokens:       envInt("CHUNK_TOKENS", 0),
		ChunkOverlap:      envInt("CHUNK_OVERLAP", -1),
		MaxSnippetsTokens: envInt("MAX_SNIPPETS_TOKENS", 0),

		IngestConcurrency: envInt("INGEST_CONCURRENCY", 0),

		ServerHost: os.Getenv("SERVER_HOST"),
		ServerPort: envInt("SERVER_PORT", 0),

		LogLevel:  os.Getenv("LOG_LEVEL"),
		LogFormat: os.Getenv("LOG_FORMAT"),

		GateKeywordsFile: os.Getenv("GATE_KEYWORDS_FILE"),
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		for _, origin := range strings.Split(origins, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
			}
		}
	}

	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SetDefaults applies default values for unset fields.
func (c *Config) SetDefaults() {
	if c.OpenRouterModel == "" {
		c.OpenRouterModel = "openai/gpt-4o-mini"
	}
	if c.OpenRouterBaseURL == "" {
		c.OpenRouterBaseURL = "https://openrouter.ai/api/v1"
	}
	if c.QdrantURL == "" {
		c.QdrantURL = "http://qdrant:6333"
	}
	if c.EmbeddingModel == "" {
		c.EmbeddingModel = "BAAI/bge-m3"
	}
	if c.EmbeddingBaseURL == "" {
		c.EmbeddingBaseURL = "http://embeddings:8080/v1"
	}
	if c.EmbeddingDim <= 0 {
		// bge-m3 produces 1024-dimensional vectors; the real dimension is
		// learned from a warmup request at startup.
		c.EmbeddingDim = 1024
	}
	if c.RAGTopK <= 0 {
		c.RAGTopK = 6
	}
	if c.ChunkTokens <= 0 {
		c.ChunkTokens = 800
	}
	if c.ChunkOverlap < 0 {
		c.ChunkOverlap = 120
	}
	if c.MaxSnippetsTokens <= 0 {
		c.MaxSnippetsTokens = 2500
	}
	if c.IngestConcurrency <= 0 {
		c.IngestConcurrency = 1
	}
	if c.ServerHost == "" {
		c.ServerHost = "0.0.0.0"
	}
	if c.ServerPort <= 0 {
		c.ServerPort = 8088
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.LogLevel == "" {
		c.LogLevel = "INFO"
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}

	c.PaperlessBaseURL = strings.TrimRight(c.PaperlessBaseURL, "/")
	c.OpenRouterBaseURL = strings.TrimRight(c.OpenRouterBaseURL, "/")
	c.EmbeddingBaseURL = strings.TrimRight(c.EmbeddingBaseURL, "/")
}

// Validate checks that required settings are present and consistent.
func (c *Config) Validate() error {
	if c.PaperlessBaseURL == "" {
		return fmt.Errorf("PAPERLESS_BASE_URL is required")
	}
	if c.PaperlessAPIToken == "" {
		return fmt.Errorf("PAPERLESS_API_TOKEN is required")
	}
	if c.OpenRouterAPIKey == "" {
		return fmt.Errorf("OPENROUTER_API_KEY is required")
	}
	if c.ChunkOverlap >= c.ChunkTokens {
		return fmt.Errorf("CHUNK_OVERLAP (%d) must be less than CHUNK_TOKENS (%d)", c.ChunkOverlap, c.ChunkTokens)
	}
	return nil
}

// envInt reads an integer environment variable, returning def when unset
// or unparseable.
func envInt(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
