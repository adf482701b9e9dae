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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rae2001/paperless-rag/pkg/utils"
)

// fallbackCounter returns a counter without a loaded encoding, forcing the
// character-window path so tests run offline.
func fallbackCounter() *utils.TokenCounter {
	return &utils.TokenCounter{}
}

func TestChunkerConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  ChunkerConfig
		wantErr bool
	}{
		{
			name:    "Valid",
			config:  ChunkerConfig{ChunkTokens: 800, OverlapTokens: 120},
			wantErr: false,
		},
		{
			name:    "Zero overlap",
			config:  ChunkerConfig{ChunkTokens: 100, OverlapTokens: 0},
			wantErr: false,
		},
		{
			name:    "Overlap equals chunk size",
			config:  ChunkerConfig{ChunkTokens: 100, OverlapTokens: 100},
			wantErr: true,
		},
		{
			name:    "Overlap above chunk size",
			config:  ChunkerConfig{ChunkTokens: 100, OverlapTokens: 150},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestChunkerDefaults(t *testing.T) {
	chunker, err := NewTokenChunker(ChunkerConfig{OverlapTokens: -1}, fallbackCounter())
	require.NoError(t, err)
	assert.Equal(t, 800, chunker.Config().ChunkTokens)
	assert.Equal(t, 120, chunker.Config().OverlapTokens)
}

func TestChunkerZeroOverlapPreserved(t *testing.T) {
	chunker, err := NewTokenChunker(ChunkerConfig{ChunkTokens: 100, OverlapTokens: 0}, fallbackCounter())
	require.NoError(t, err)
	assert.Equal(t, 0, chunker.Config().OverlapTokens)
}

func TestChunkEmptyText(t *testing.T) {
	chunker, err := NewTokenChunker(ChunkerConfig{ChunkTokens: 10, OverlapTokens: 2}, fallbackCounter())
	require.NoError(t, err)

	assert.Nil(t, chunker.Chunk(""))
	assert.Nil(t, chunker.Chunk("   \n\t  "))
}

func TestChunkShortText(t *testing.T) {
	chunker, err := NewTokenChunker(ChunkerConfig{ChunkTokens: 100, OverlapTokens: 10}, fallbackCounter())
	require.NoError(t, err)

	chunks := chunker.Chunk("a short piece of text")
	require.Len(t, chunks, 1)
	assert.Equal(t, "a short piece of text", chunks[0])
}

func TestChunkCharFallbackWindows(t *testing.T) {
	// 10 tokens * 4 chars = 40-char windows, stepping (10-2)*4 = 32.
	chunker, err := NewTokenChunker(ChunkerConfig{ChunkTokens: 10, OverlapTokens: 2}, fallbackCounter())
	require.NoError(t, err)

	text := strings.Repeat("abcdefghij", 10) // 100 chars
	chunks := chunker.Chunk(text)

	require.Len(t, chunks, 4)
	assert.Equal(t, text[:40], chunks[0])
	assert.Equal(t, text[32:72], chunks[1])
	assert.Equal(t, text[64:100], chunks[2])
	assert.Equal(t, text[96:100], chunks[3])
}

func TestChunkOverlapRepeatsContent(t *testing.T) {
	chunker, err := NewTokenChunker(ChunkerConfig{ChunkTokens: 10, OverlapTokens: 2}, fallbackCounter())
	require.NoError(t, err)

	text := strings.Repeat("x", 80)
	chunks := chunker.Chunk(text)
	require.Len(t, chunks, 3)

	// Consecutive windows share 8 characters of overlap.
	assert.Equal(t, chunks[0][32:], chunks[1][:8])
}

func TestChunkMultiByteText(t *testing.T) {
	chunker, err := NewTokenChunker(ChunkerConfig{ChunkTokens: 10, OverlapTokens: 0}, fallbackCounter())
	require.NoError(t, err)

	text := strings.Repeat("東", 100)
	chunks := chunker.Chunk(text)

	require.Len(t, chunks, 3)
	for _, chunk := range chunks {
		assert.True(t, strings.HasPrefix(chunk, "東"), "chunk must start on a rune boundary")
	}
	assert.Equal(t, 40, len([]rune(chunks[0])))
}

func TestChunkDeterministic(t *testing.T) {
	chunker, err := NewTokenChunker(ChunkerConfig{ChunkTokens: 10, OverlapTokens: 2}, fallbackCounter())
	require.NoError(t, err)

	text := strings.Repeat("determinism ", 20)
	assert.Equal(t, chunker.Chunk(text), chunker.Chunk(text))
}
