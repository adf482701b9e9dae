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

// Package vector stores and searches document chunk embeddings.
package vector

import "context"

// Point is a chunk embedding with its payload, ready for upsert.
type Point struct {
	// ID is a UUID string. Qdrant only accepts UUIDs or unsigned integers
	// as point ids.
	ID string

	// Vector is the embedding.
	Vector []float32

	// Payload carries the chunk metadata (text, doc_id, title, page, ...).
	Payload map[string]any
}

// ScoredPoint is a search hit.
type ScoredPoint struct {
	ID      string
	Score   float32
	Payload map[string]any
}

// StoredPoint is a point returned by a scroll walk.
type StoredPoint struct {
	ID      string
	Payload map[string]any
}

// CollectionStats describes the chunk collection.
type CollectionStats struct {
	CollectionName string `json:"collection_name"`
	PointsCount    uint64 `json:"points_count"`
	VectorsCount   uint64 `json:"vectors_count"`
	SegmentsCount  uint64 `json:"segments_count"`
	Status         string `json:"status"`
}

// Store is the vector database facade used by ingestion and retrieval.
type Store interface {
	// EnsureCollection creates the chunk collection when missing and
	// verifies the stored vector dimension when present.
	EnsureCollection(ctx context.Context, dimension int) error

	// Upsert writes points, waiting for the operation to be applied.
	Upsert(ctx context.Context, points []Point) error

	// Search returns the points most similar to vector, above
	// scoreThreshold. When filterTags is non-empty only points tagged with
	// at least one of them are considered.
	Search(ctx context.Context, vector []float32, limit int, scoreThreshold float32, filterTags []string) ([]ScoredPoint, error)

	// DeleteByDocID removes all points belonging to a document.
	DeleteByDocID(ctx context.Context, docID int) error

	// HasChunks reports whether any point exists for the document.
	HasChunks(ctx context.Context, docID int) (bool, error)

	// Scroll pages through the collection. offset is the opaque token
	// returned by the previous call; an empty returned token means the
	// walk is complete.
	Scroll(ctx context.Context, limit int, offset string) ([]StoredPoint, string, error)

	// Stats returns collection statistics.
	Stats(ctx context.Context) (*CollectionStats, error)

	// Close releases the connection.
	Close() error
}
