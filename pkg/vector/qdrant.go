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

package vector

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/qdrant/go-client/qdrant"
)

// DefaultCollection is the Qdrant collection holding document chunks.
const DefaultCollection = "paperless_chunks"

// QdrantConfig configures the Qdrant store.
type QdrantConfig struct {
	// URL of the Qdrant REST endpoint, e.g. http://qdrant:6333. The host
	// is reused for the gRPC connection.
	URL string

	// GRPCPort overrides the gRPC port. When zero the port is derived
	// from the URL: Qdrant serves gRPC on REST port + 1 by default.
	GRPCPort int

	// APIKey for authenticated access (optional).
	APIKey string

	// Collection name (default: paperless_chunks).
	Collection string
}

// QdrantStore implements Store using the Qdrant vector database.
type QdrantStore struct {
	client     *qdrant.Client
	collection string
}

// NewQdrantStore connects to Qdrant over gRPC.
func NewQdrantStore(cfg QdrantConfig) (*QdrantStore, error) {
	if cfg.URL == "" {
		cfg.URL = "http://localhost:6333"
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}

	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL %q: %w", cfg.URL, err)
	}

	host := u.Hostname()
	if host == "" {
		host = "localhost"
	}

	port := cfg.GRPCPort
	if port == 0 {
		switch p := u.Port(); p {
		case "", "6333":
			port = 6334
		default:
			port, err = strconv.Atoi(p)
			if err != nil {
				return nil, fmt.Errorf("invalid Qdrant port %q: %w", p, err)
			}
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: u.Scheme == "https",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client for %s:%d: %w", host, port, err)
	}

	return &QdrantStore{
		client:     client,
		collection: cfg.Collection,
	}, nil
}

// Collection returns the collection name.
func (s *QdrantStore) Collection() string {
	return s.collection
}

// EnsureCollection creates the collection when missing and verifies the
// stored vector dimension when present.
func (s *QdrantStore) EnsureCollection(ctx context.Context, dimension int) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}

	if !exists {
		err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: s.collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(dimension),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil && !strings.Contains(err.Error(), "already exists") {
			return fmt.Errorf("failed to create collection %s: %w", s.collection, err)
		}
		return nil
	}

	info, err := s.client.GetCollectionInfo(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to inspect collection %s: %w", s.collection, err)
	}

	stored := info.GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize()
	if stored != 0 && stored != uint64(dimension) {
		return fmt.Errorf("collection %s holds %d-dimensional vectors but the embedder produces %d; reindex with a fresh collection",
			s.collection, stored, dimension)
	}

	return nil
}

// Upsert writes points and waits for the operation to be applied.
func (s *QdrantStore) Upsert(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	qdrantPoints := make([]*qdrant.PointStruct, 0, len(points))
	for _, point := range points {
		payload, err := payloadToQdrant(point.Payload)
		if err != nil {
			return fmt.Errorf("failed to convert payload for point %s: %w", point.ID, err)
		}
		qdrantPoints = append(qdrantPoints, &qdrant.PointStruct{
			Id:      qdrant.NewID(point.ID),
			Vectors: qdrant.NewVectors(point.Vector...),
			Payload: payload,
		})
	}

	wait := true
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         qdrantPoints,
		Wait:           &wait,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert %d points: %w", len(points), err)
	}
	return nil
}

// Search finds the most similar points above scoreThreshold.
func (s *QdrantStore) Search(ctx context.Context, vector []float32, limit int, scoreThreshold float32, filterTags []string) ([]ScoredPoint, error) {
	searchRequest := &qdrant.SearchPoints{
		CollectionName: s.collection,
		Vector:         vector,
		Limit:          uint64(limit),
		WithPayload:    qdrant.NewWithPayload(true),
	}

	if scoreThreshold > 0 {
		searchRequest.ScoreThreshold = &scoreThreshold
	}

	if len(filterTags) > 0 {
		searchRequest.Filter = tagFilter(filterTags)
	}

	searchResult, err := s.client.GetPointsClient().Search(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("failed to search points: %w", err)
	}

	results := make([]ScoredPoint, 0, len(searchResult.GetResult()))
	for _, point := range searchResult.GetResult() {
		results = append(results, ScoredPoint{
			ID:      pointIDString(point.GetId()),
			Score:   point.GetScore(),
			Payload: payloadFromQdrant(point.GetPayload()),
		})
	}
	return results, nil
}

// DeleteByDocID removes all points belonging to a document.
func (s *QdrantStore) DeleteByDocID(ctx context.Context, docID int) error {
	wait := true
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
				Filter: docFilter(docID),
			},
		},
		Wait: &wait,
	})
	if err != nil {
		return fmt.Errorf("failed to delete points for document %d: %w", docID, err)
	}
	return nil
}

// HasChunks reports whether any point exists for the document.
func (s *QdrantStore) HasChunks(ctx context.Context, docID int) (bool, error) {
	limit := uint32(1)
	resp, err := s.client.GetPointsClient().Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: s.collection,
		Filter:         docFilter(docID),
		Limit:          &limit,
	})
	if err != nil {
		return false, fmt.Errorf("failed to check chunks for document %d: %w", docID, err)
	}
	return len(resp.GetResult()) > 0, nil
}

// Scroll pages through the collection. offset is the point id returned by
// the previous call; an empty returned token ends the walk.
func (s *QdrantStore) Scroll(ctx context.Context, limit int, offset string) ([]StoredPoint, string, error) {
	scrollLimit := uint32(limit)
	request := &qdrant.ScrollPoints{
		CollectionName: s.collection,
		Limit:          &scrollLimit,
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if offset != "" {
		request.Offset = qdrant.NewID(offset)
	}

	resp, err := s.client.GetPointsClient().Scroll(ctx, request)
	if err != nil {
		return nil, "", fmt.Errorf("failed to scroll collection: %w", err)
	}

	points := make([]StoredPoint, 0, len(resp.GetResult()))
	for _, point := range resp.GetResult() {
		points = append(points, StoredPoint{
			ID:      pointIDString(point.GetId()),
			Payload: payloadFromQdrant(point.GetPayload()),
		})
	}

	next := ""
	if resp.GetNextPageOffset() != nil {
		next = pointIDString(resp.GetNextPageOffset())
	}

	return points, next, nil
}

// Stats returns collection statistics.
func (s *QdrantStore) Stats(ctx context.Context) (*CollectionStats, error) {
	info, err := s.client.GetCollectionInfo(ctx, s.collection)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection info: %w", err)
	}

	return &CollectionStats{
		CollectionName: s.collection,
		PointsCount:    info.GetPointsCount(),
		VectorsCount:   info.GetVectorsCount(),
		SegmentsCount:  info.GetSegmentsCount(),
		Status:         strings.ToLower(info.GetStatus().String()),
	}, nil
}

// Close closes the Qdrant client.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}

// Ensure QdrantStore implements Store.
var _ Store = (*QdrantStore)(nil)
