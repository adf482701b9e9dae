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
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rae2001/paperless-rag/pkg/vector"
)

func TestSearchMapsPayloads(t *testing.T) {
	store := &fakeStore{
		searchResults: []vector.ScoredPoint{
			scoredPoint(1, "Methodology", "the construction methodology text", 0.9),
			scoredPoint(2, "Progress Report", "monthly progress report text", 0.7),
		},
	}
	retriever := NewRetriever(store, &fakeEmbedder{}, RetrieverConfig{TopK: 6})

	chunks, err := retriever.Search(context.Background(), "methodology", 0, nil)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.Equal(t, 6, store.lastSearchLimit, "zero topK falls back to config")
	assert.Equal(t, 1, chunks[0].DocID)
	assert.Equal(t, "Methodology", chunks[0].Title)
	assert.Equal(t, 1, chunks[0].Page)
	assert.Equal(t, []string{"archive"}, chunks[0].Tags)
	assert.InDelta(t, 0.9, chunks[0].Score, 1e-6)
}

func TestSearchPropagatesFilterTags(t *testing.T) {
	store := &fakeStore{}
	retriever := NewRetriever(store, &fakeEmbedder{}, RetrieverConfig{})

	_, err := retriever.Search(context.Background(), "query", 3, []string{"invoices"})
	require.NoError(t, err)
	assert.Equal(t, []string{"invoices"}, store.lastFilterTags)
}

func TestSearchEmbedderFailure(t *testing.T) {
	retriever := NewRetriever(&fakeStore{}, &fakeEmbedder{err: errors.New("connection refused")}, RetrieverConfig{})

	_, err := retriever.Search(context.Background(), "query", 3, nil)
	require.Error(t, err)

	var serr *SearchError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "embedder", serr.Component)
}

func TestHybridSearchRescoring(t *testing.T) {
	// The keyword-matching chunk has the lower vector score.
	store := &fakeStore{
		searchResults: []vector.ScoredPoint{
			scoredPoint(1, "A", "completely unrelated content here", 0.8),
			scoredPoint(2, "B", "helipad construction methodology", 0.6),
		},
	}
	retriever := NewRetriever(store, &fakeEmbedder{}, RetrieverConfig{})

	chunks, err := retriever.HybridSearch(context.Background(), "helipad construction", 2, nil, 0.5)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.Equal(t, 4, store.lastSearchLimit, "hybrid search widens retrieval to 2x")

	// Chunk 2 matches both query words: 0.5*0.6 + 0.5*1.0 = 0.8.
	// Chunk 1 matches none: 0.5*0.8 + 0.5*0.0 = 0.4.
	assert.Equal(t, 2, chunks[0].DocID)
	assert.InDelta(t, 0.8, chunks[0].Score, 1e-6)
	assert.InDelta(t, 0.6, chunks[0].VectorScore, 1e-6)
	assert.InDelta(t, 1.0, chunks[0].KeywordScore, 1e-6)
	assert.Equal(t, 1, chunks[1].DocID)
	assert.InDelta(t, 0.4, chunks[1].Score, 1e-6)
}

func TestDeduplicate(t *testing.T) {
	identical := "exactly the same words in this chunk"
	chunks := []ScoredChunk{
		{DocID: 1, Text: identical, Score: 0.9},
		{DocID: 2, Text: identical, Score: 0.8},
		{DocID: 3, Text: "something entirely different", Score: 0.7},
	}

	deduped := Deduplicate(chunks, DefaultDedupThreshold)
	require.Len(t, deduped, 2)
	assert.Equal(t, 1, deduped[0].DocID, "first occurrence wins")
	assert.Equal(t, 3, deduped[1].DocID)
}

func TestDeduplicateBelowThresholdKept(t *testing.T) {
	chunks := []ScoredChunk{
		{DocID: 1, Text: "alpha beta gamma delta epsilon zeta eta theta iota kappa"},
		{DocID: 2, Text: "alpha beta gamma delta epsilon zeta eta theta iota different"},
	}

	// 9 shared words of 11 total: similarity ~0.82, under the threshold.
	deduped := Deduplicate(chunks, DefaultDedupThreshold)
	assert.Len(t, deduped, 2)
}

func TestDeduplicateSingleChunk(t *testing.T) {
	chunks := []ScoredChunk{{DocID: 1, Text: "only one"}}
	assert.Len(t, Deduplicate(chunks, DefaultDedupThreshold), 1)
}

func TestJaccard(t *testing.T) {
	a := wordSet("one two three")
	b := wordSet("two three four")
	assert.InDelta(t, 0.5, jaccard(a, b), 1e-6)

	assert.Equal(t, 0.0, jaccard(wordSet(""), wordSet("")))
	assert.InDelta(t, 1.0, jaccard(a, a), 1e-6)
}

func TestWordSetLowercases(t *testing.T) {
	words := wordSet("Hello WORLD hello")
	assert.Len(t, words, 2)
	assert.True(t, words["hello"])
	assert.True(t, words["world"])
}

func TestSummary(t *testing.T) {
	store := &fakeStore{
		scrollPoints: []vector.StoredPoint{
			{Payload: map[string]any{"doc_id": int64(1), "file_type": "pdf", "token_count": int64(100), "tags": []any{"a"}}},
			{Payload: map[string]any{"doc_id": int64(1), "file_type": "pdf", "token_count": int64(200), "tags": []any{"a", "b"}}},
			{Payload: map[string]any{"doc_id": int64(2), "file_type": "docx", "token_count": int64(60), "tags": []any{}}},
		},
	}
	retriever := NewRetriever(store, &fakeEmbedder{}, RetrieverConfig{})

	summary, err := retriever.Summary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.TotalChunks)
	assert.Equal(t, 2, summary.UniqueDocuments)
	assert.Equal(t, 360, summary.TotalTokens)
	assert.InDelta(t, 120.0, summary.AverageTokensPerChunk, 1e-6)
	assert.Equal(t, 2, summary.FileTypeDistribution["pdf"])
	assert.Equal(t, 1, summary.FileTypeDistribution["docx"])
	assert.Equal(t, 2, summary.TopTags["a"])
	assert.Equal(t, 1, summary.TopTags["b"])
}

func TestTopN(t *testing.T) {
	counts := map[string]int{"a": 5, "b": 3, "c": 3, "d": 1}
	top := topN(counts, 3)

	assert.Len(t, top, 3)
	assert.Equal(t, 5, top["a"])
	assert.Equal(t, 3, top["b"])
	assert.Equal(t, 3, top["c"])
	_, ok := top["d"]
	assert.False(t, ok)
}
