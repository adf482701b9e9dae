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
	"log/slog"
	"sort"
	"strings"

	"github.com/rae2001/paperless-rag/pkg/embedder"
	"github.com/rae2001/paperless-rag/pkg/vector"
)

const (
	// DefaultScoreThreshold filters out weakly related chunks.
	DefaultScoreThreshold = 0.1

	// DefaultKeywordBoost is the weight of keyword overlap in hybrid
	// rescoring.
	DefaultKeywordBoost = 0.3

	// DefaultDedupThreshold is the Jaccard similarity above which two
	// chunks count as duplicates.
	DefaultDedupThreshold = 0.95
)

// RetrieverConfig configures retrieval.
type RetrieverConfig struct {
	// TopK is the default number of results (default: 6).
	TopK int
}

// SetDefaults applies default values.
func (c *RetrieverConfig) SetDefaults() {
	if c.TopK <= 0 {
		c.TopK = 6
	}
}

// Retriever finds document chunks relevant to a query.
type Retriever struct {
	store    vector.Store
	embedder embedder.Embedder
	config   RetrieverConfig
	logger   *slog.Logger
}

// NewRetriever creates a retriever.
func NewRetriever(store vector.Store, emb embedder.Embedder, cfg RetrieverConfig) *Retriever {
	cfg.SetDefaults()
	return &Retriever{
		store:    store,
		embedder: emb,
		config:   cfg,
		logger:   slog.Default().With("component", "retriever"),
	}
}

// TopK returns the configured default result count.
func (r *Retriever) TopK() int {
	return r.config.TopK
}

// Search embeds the query and returns the most similar chunks above the
// default score threshold, optionally restricted to chunks carrying at
// least one of filterTags.
func (r *Retriever) Search(ctx context.Context, query string, topK int, filterTags []string) ([]ScoredChunk, error) {
	if topK <= 0 {
		topK = r.config.TopK
	}

	vectors, err := r.embedder.Encode(ctx, []string{query})
	if err != nil {
		return nil, NewSearchError("embedder", "encode", "failed to embed query", query, err)
	}
	if len(vectors) == 0 {
		return nil, NewSearchError("embedder", "encode", "embedder returned no vector", query, nil)
	}

	points, err := r.store.Search(ctx, vectors[0], topK, DefaultScoreThreshold, filterTags)
	if err != nil {
		return nil, NewSearchError("vector_db", "search", "vector search failed", query, err)
	}

	chunks := make([]ScoredChunk, 0, len(points))
	for _, point := range points {
		chunks = append(chunks, chunkFromPayload(point.Payload, float64(point.Score)))
	}

	r.logger.Info("Vector search complete", "results", len(chunks), "top_k", topK)
	return chunks, nil
}

// HybridSearch combines vector similarity with keyword overlap. It
// retrieves twice the requested results, rescores each as
// (1-boost)*vector + boost*overlap, and returns the topK best.
func (r *Retriever) HybridSearch(ctx context.Context, query string, topK int, filterTags []string, keywordBoost float64) ([]ScoredChunk, error) {
	if topK <= 0 {
		topK = r.config.TopK
	}
	if keywordBoost <= 0 {
		keywordBoost = DefaultKeywordBoost
	}

	chunks, err := r.Search(ctx, query, topK*2, filterTags)
	if err != nil {
		return nil, err
	}

	queryKeywords := wordSet(query)
	for i := range chunks {
		overlap := 0.0
		if len(queryKeywords) > 0 {
			textWords := wordSet(chunks[i].Text)
			matched := 0
			for word := range queryKeywords {
				if textWords[word] {
					matched++
				}
			}
			overlap = float64(matched) / float64(len(queryKeywords))
		}

		chunks[i].VectorScore = chunks[i].Score
		chunks[i].KeywordScore = overlap
		chunks[i].Score = (1-keywordBoost)*chunks[i].VectorScore + keywordBoost*overlap
	}

	sort.SliceStable(chunks, func(i, j int) bool {
		return chunks[i].Score > chunks[j].Score
	})

	if len(chunks) > topK {
		chunks = chunks[:topK]
	}
	return chunks, nil
}

// Deduplicate drops chunks that are near-duplicates of an earlier chunk,
// measured by Jaccard similarity of their lowercased word sets. Order is
// preserved: the first occurrence wins.
func Deduplicate(chunks []ScoredChunk, threshold float64) []ScoredChunk {
	if len(chunks) <= 1 {
		return chunks
	}
	if threshold <= 0 {
		threshold = DefaultDedupThreshold
	}

	kept := make([]ScoredChunk, 0, len(chunks))
	keptWords := make([]map[string]bool, 0, len(chunks))

	for _, chunk := range chunks {
		words := wordSet(chunk.Text)

		duplicate := false
		for _, existing := range keptWords {
			if jaccard(words, existing) > threshold {
				duplicate = true
				break
			}
		}

		if !duplicate {
			kept = append(kept, chunk)
			keptWords = append(keptWords, words)
		}
	}

	return kept
}

// ChunksSummary aggregates chunk statistics across the collection.
type ChunksSummary struct {
	TotalChunks           int            `json:"total_chunks"`
	UniqueDocuments       int            `json:"unique_documents"`
	TotalTokens           int            `json:"total_tokens"`
	AverageTokensPerChunk float64        `json:"average_tokens_per_chunk"`
	FileTypeDistribution  map[string]int `json:"file_type_distribution"`
	TopTags               map[string]int `json:"top_tags"`
}

// maxSummaryPoints bounds the scroll walk so a huge collection cannot
// stall a stats request.
const maxSummaryPoints = 100000

// Summary walks the collection and aggregates per-file-type and tag
// statistics.
func (r *Retriever) Summary(ctx context.Context) (*ChunksSummary, error) {
	summary := &ChunksSummary{
		FileTypeDistribution: make(map[string]int),
	}

	uniqueDocs := make(map[int]bool)
	tagCounts := make(map[string]int)

	offset := ""
	for summary.TotalChunks < maxSummaryPoints {
		points, next, err := r.store.Scroll(ctx, 1000, offset)
		if err != nil {
			return nil, NewSearchError("vector_db", "scroll", "failed to scroll collection", "", err)
		}

		for _, point := range points {
			chunk := chunkFromPayload(point.Payload, 0)
			summary.TotalChunks++
			summary.TotalTokens += chunk.TokenCount
			uniqueDocs[chunk.DocID] = true
			summary.FileTypeDistribution[chunk.FileType]++
			for _, tag := range chunk.Tags {
				tagCounts[tag]++
			}
		}

		if next == "" {
			break
		}
		offset = next
	}

	summary.UniqueDocuments = len(uniqueDocs)
	if summary.TotalChunks > 0 {
		summary.AverageTokensPerChunk = float64(summary.TotalTokens) / float64(summary.TotalChunks)
	}
	summary.TopTags = topN(tagCounts, 10)

	return summary, nil
}

// wordSet returns the set of lowercased whitespace-separated words.
func wordSet(text string) map[string]bool {
	words := make(map[string]bool)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		words[word] = true
	}
	return words
}

// jaccard computes intersection size over union size.
func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	intersection := 0
	for word := range a {
		if b[word] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// topN returns the n highest counts.
func topN(counts map[string]int, n int) map[string]int {
	type entry struct {
		key   string
		count int
	}
	entries := make([]entry, 0, len(counts))
	for key, count := range counts {
		entries = append(entries, entry{key, count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].key < entries[j].key
	})

	if len(entries) > n {
		entries = entries[:n]
	}

	top := make(map[string]int, len(entries))
	for _, e := range entries {
		top[e.key] = e.count
	}
	return top
}
