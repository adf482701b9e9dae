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

package rag

import (
	"fmt"
	"strings"

	"github.com/rae2001/paperless-rag/pkg/utils"
)

// approxCharsPerToken drives the character fallback when no tiktoken
// encoding is available.
const approxCharsPerToken = 4

// ChunkerConfig configures token-window chunking.
type ChunkerConfig struct {
	// ChunkTokens is the window size in tokens (default: 800).
	ChunkTokens int

	// OverlapTokens is the overlap between consecutive windows.
	// Zero disables overlap; a negative value selects the default
	// of 120.
	OverlapTokens int
}

// SetDefaults applies default values. Zero is a valid overlap, so
// only negative values are treated as unset.
func (c *ChunkerConfig) SetDefaults() {
	if c.ChunkTokens <= 0 {
		c.ChunkTokens = 800
	}
	if c.OverlapTokens < 0 {
		c.OverlapTokens = 120
	}
}

// Validate checks the configuration for errors.
func (c *ChunkerConfig) Validate() error {
	if c.ChunkTokens <= 0 {
		return fmt.Errorf("chunk tokens must be positive, got %d", c.ChunkTokens)
	}
	if c.OverlapTokens < 0 {
		return fmt.Errorf("overlap must be non-negative, got %d", c.OverlapTokens)
	}
	if c.OverlapTokens >= c.ChunkTokens {
		return fmt.Errorf("overlap (%d) must be less than chunk tokens (%d)", c.OverlapTokens, c.ChunkTokens)
	}
	return nil
}

// TokenChunker splits text into overlapping token windows using the
// cl100k_base encoding, falling back to a character window of roughly
// four characters per token when the encoding is unavailable.
//
// Chunking is deterministic: the same text always yields the same chunks.
type TokenChunker struct {
	config  ChunkerConfig
	counter *utils.TokenCounter
}

// NewTokenChunker creates a chunker from configuration.
func NewTokenChunker(cfg ChunkerConfig, counter *utils.TokenCounter) (*TokenChunker, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid chunker config: %w", err)
	}

	return &TokenChunker{
		config:  cfg,
		counter: counter,
	}, nil
}

// Config returns the chunker configuration.
func (c *TokenChunker) Config() ChunkerConfig {
	return c.config
}

// Chunk splits text into overlapping windows. Whitespace-only text yields
// no chunks and empty windows are dropped.
func (c *TokenChunker) Chunk(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	if c.counter.Available() {
		return c.chunkByTokens(text)
	}
	return c.chunkByChars(text)
}

func (c *TokenChunker) chunkByTokens(text string) []string {
	tokens := c.counter.Encode(text)

	step := c.config.ChunkTokens - c.config.OverlapTokens
	var chunks []string
	for i := 0; i < len(tokens); i += step {
		end := i + c.config.ChunkTokens
		if end > len(tokens) {
			end = len(tokens)
		}

		chunk := strings.TrimSpace(c.counter.Decode(tokens[i:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
	}
	return chunks
}

func (c *TokenChunker) chunkByChars(text string) []string {
	chunkChars := c.config.ChunkTokens * approxCharsPerToken
	step := (c.config.ChunkTokens - c.config.OverlapTokens) * approxCharsPerToken

	// Window over runes so multi-byte characters are never split.
	runes := []rune(text)

	var chunks []string
	for i := 0; i < len(runes); i += step {
		end := i + chunkChars
		if end > len(runes) {
			end = len(runes)
		}

		chunk := strings.TrimSpace(string(runes[i:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
	}
	return chunks
}
