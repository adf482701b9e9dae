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
	"fmt"

	"github.com/rae2001/paperless-rag/pkg/llm"
	"github.com/rae2001/paperless-rag/pkg/paperless"
	"github.com/rae2001/paperless-rag/pkg/vector"
)

// fakeStore is an in-memory vector.Store for tests.
type fakeStore struct {
	searchResults []vector.ScoredPoint
	searchErr     error
	scrollPoints  []vector.StoredPoint
	hasChunks     bool

	upserted    []vector.Point
	deletedDocs []int

	// lastSearchLimit records the limit of the most recent Search call.
	lastSearchLimit int
	lastFilterTags  []string
}

func (s *fakeStore) EnsureCollection(ctx context.Context, dimension int) error { return nil }

func (s *fakeStore) Upsert(ctx context.Context, points []vector.Point) error {
	s.upserted = append(s.upserted, points...)
	return nil
}

func (s *fakeStore) Search(ctx context.Context, vec []float32, limit int, scoreThreshold float32, filterTags []string) ([]vector.ScoredPoint, error) {
	s.lastSearchLimit = limit
	s.lastFilterTags = filterTags
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	results := s.searchResults
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (s *fakeStore) DeleteByDocID(ctx context.Context, docID int) error {
	s.deletedDocs = append(s.deletedDocs, docID)
	return nil
}

func (s *fakeStore) HasChunks(ctx context.Context, docID int) (bool, error) {
	return s.hasChunks, nil
}

func (s *fakeStore) Scroll(ctx context.Context, limit int, offset string) ([]vector.StoredPoint, string, error) {
	return s.scrollPoints, "", nil
}

func (s *fakeStore) Stats(ctx context.Context) (*vector.CollectionStats, error) {
	return &vector.CollectionStats{
		CollectionName: "paperless_chunks",
		PointsCount:    uint64(len(s.upserted)),
		Status:         "green",
	}, nil
}

func (s *fakeStore) Close() error { return nil }

// fakeEmbedder returns a constant vector per input.
type fakeEmbedder struct {
	dimension int
	err       error
}

func (e *fakeEmbedder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	dim := e.dimension
	if dim <= 0 {
		dim = 4
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vec := make([]float32, dim)
		vec[0] = float32(len(texts[i]))
		vectors[i] = vec
	}
	return vectors, nil
}

func (e *fakeEmbedder) Dimension() int {
	if e.dimension <= 0 {
		return 4
	}
	return e.dimension
}

func (e *fakeEmbedder) Model() string { return "fake-embedder" }

// fakeSource serves canned documents.
type fakeSource struct {
	docs    map[int]*paperless.Document
	content map[int][]byte

	getErr      error
	downloadErr error
}

func (s *fakeSource) ListDocuments(ctx context.Context, opts paperless.ListOptions) (*paperless.DocumentList, error) {
	list := &paperless.DocumentList{}
	if opts.Page > 1 {
		return list, nil
	}
	for _, doc := range s.docs {
		list.Results = append(list.Results, *doc)
	}
	list.Count = len(list.Results)
	return list, nil
}

func (s *fakeSource) GetDocument(ctx context.Context, docID int) (*paperless.Document, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	doc, ok := s.docs[docID]
	if !ok {
		return nil, fmt.Errorf("document %d not found", docID)
	}
	return doc, nil
}

func (s *fakeSource) DownloadDocument(ctx context.Context, docID int) ([]byte, error) {
	if s.downloadErr != nil {
		return nil, s.downloadErr
	}
	return s.content[docID], nil
}

func (s *fakeSource) DocumentURL(docID int) string {
	return fmt.Sprintf("http://paperless.local/documents/%d", docID)
}

// fakeModel records the conversation and returns a fixed answer.
type fakeModel struct {
	answer   string
	err      error
	messages []llm.Message
	calls    int
}

func (m *fakeModel) Complete(ctx context.Context, messages []llm.Message) (*llm.Completion, error) {
	m.calls++
	m.messages = messages
	if m.err != nil {
		return nil, m.err
	}
	answer := m.answer
	if answer == "" {
		answer = "generated answer"
	}
	return &llm.Completion{Answer: answer, Model: "fake-model"}, nil
}

func (m *fakeModel) Model() string { return "fake-model" }

// scoredPoint builds a search hit with the standard chunk payload.
func scoredPoint(docID int, title, text string, score float32) vector.ScoredPoint {
	return vector.ScoredPoint{
		ID:    ChunkID(docID, 1, 0),
		Score: score,
		Payload: map[string]any{
			"text":        text,
			"doc_id":      int64(docID),
			"title":       title,
			"page":        int64(1),
			"file_type":   "pdf",
			"tags":        []any{"archive"},
			"token_count": int64(len(text) / 4),
		},
	}
}
