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
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rae2001/paperless-rag/pkg/embedder"
	"github.com/rae2001/paperless-rag/pkg/extract"
	"github.com/rae2001/paperless-rag/pkg/paperless"
	"github.com/rae2001/paperless-rag/pkg/vector"
)

// Ingestion result statuses.
const (
	StatusSuccess = "success"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
	StatusError   = "error"
)

// IngestResult describes the outcome of ingesting one document.
type IngestResult struct {
	DocID          int    `json:"doc_id"`
	Title          string `json:"title"`
	Status         string `json:"status"`
	ChunksCreated  int    `json:"chunks_created"`
	PagesProcessed int    `json:"pages_processed,omitempty"`

	// Reason explains skipped and failed outcomes
	// (e.g. "already_exists", "no_text_extracted").
	Reason string `json:"reason,omitempty"`

	// Err is set for StatusError outcomes.
	Err error `json:"-"`
}

// BatchResult summarizes a bulk ingestion run.
type BatchResult struct {
	TotalDocuments int `json:"total_documents"`
	Processed      int `json:"processed"`
	Skipped        int `json:"skipped"`
	Failed         int `json:"failed"`
	ChunksCreated  int `json:"chunks_created"`
}

// IngestorConfig configures the ingestor.
type IngestorConfig struct {
	// Concurrency bounds parallel document ingestion (default: 1).
	Concurrency int
}

// SetDefaults applies default values.
func (c *IngestorConfig) SetDefaults() {
	if c.Concurrency <= 0 {
		c.Concurrency = 1
	}
}

// Ingestor drives the per-document pipeline: download, extract, chunk,
// embed, upsert. Ingestion is idempotent: already indexed documents are
// skipped unless force is set.
type Ingestor struct {
	source   DocumentSource
	store    vector.Store
	embedder embedder.Embedder
	chunker  *TokenChunker
	config   IngestorConfig
	logger   *slog.Logger
}

// NewIngestor creates an ingestor.
func NewIngestor(source DocumentSource, store vector.Store, emb embedder.Embedder, chunker *TokenChunker, cfg IngestorConfig) *Ingestor {
	cfg.SetDefaults()
	return &Ingestor{
		source:   source,
		store:    store,
		embedder: emb,
		chunker:  chunker,
		config:   cfg,
		logger:   slog.Default().With("component", "ingestor"),
	}
}

// ChunkID derives the deterministic point id for a chunk. Re-ingesting a
// document overwrites its existing points instead of duplicating them.
func ChunkID(docID, page, index int) string {
	name := fmt.Sprintf("%d_%d_%d", docID, page, index)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}

// IngestDocument runs the pipeline for a single document. Failures are
// reported in the result status; the returned error is non-nil only for
// context cancellation.
func (in *Ingestor) IngestDocument(ctx context.Context, docID int, force bool) (*IngestResult, error) {
	in.logger.Info("Starting ingestion", "doc_id", docID, "force", force)

	doc, err := in.source.GetDocument(ctx, docID)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return errorResult(docID, NewIndexError(docID, "metadata", "failed to fetch document", err)), nil
	}

	title := doc.Title
	if title == "" {
		title = fmt.Sprintf("Document %d", docID)
	}

	if !force {
		exists, err := in.store.HasChunks(ctx, docID)
		if err != nil {
			return errorResult(docID, NewIndexError(docID, "lookup", "failed to check existing chunks", err)), nil
		}
		if exists {
			in.logger.Info("Document already indexed, skipping", "doc_id", docID)
			return &IngestResult{
				DocID:  docID,
				Title:  title,
				Status: StatusSkipped,
				Reason: "already_exists",
			}, nil
		}
	}

	content, err := in.source.DownloadDocument(ctx, docID)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return errorResult(docID, NewIndexError(docID, "download", "failed to download document", err)), nil
	}

	filename := doc.OriginalFilename
	if filename == "" {
		filename = fmt.Sprintf("document_%d.pdf", docID)
	}

	pages, err := extract.Extract(filename, content)
	if err != nil {
		return errorResult(docID, NewIndexError(docID, "extract", "failed to extract text", err)), nil
	}
	if len(pages) == 0 {
		in.logger.Warn("No text extracted", "doc_id", docID, "file", filename)
		return &IngestResult{
			DocID:  docID,
			Title:  title,
			Status: StatusFailed,
			Reason: "no_text_extracted",
		}, nil
	}

	fileType := doc.FileType
	if fileType == "" {
		fileType = string(extract.Detect(filename, content))
	}
	tags := doc.TagNames()
	ingestedAt := time.Now().UTC().Format(time.RFC3339)

	var points []vector.Point
	var texts []string
	for _, page := range pages {
		for _, text := range in.chunker.Chunk(page.Text) {
			index := len(points)
			points = append(points, vector.Point{
				ID: ChunkID(docID, page.Number, index),
				Payload: map[string]any{
					"text":        text,
					"doc_id":      docID,
					"title":       title,
					"page":        page.Number,
					"file_type":   fileType,
					"tags":        tags,
					"ingested_at": ingestedAt,
					"token_count": in.chunker.counter.Count(text),
				},
			})
			texts = append(texts, text)
		}
	}

	if len(points) == 0 {
		in.logger.Warn("No chunks created", "doc_id", docID)
		return &IngestResult{
			DocID:  docID,
			Title:  title,
			Status: StatusFailed,
			Reason: "no_chunks_created",
		}, nil
	}

	in.logger.Info("Embedding chunks", "doc_id", docID, "chunks", len(texts))
	vectors, err := in.embedder.Encode(ctx, texts)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return errorResult(docID, NewIndexError(docID, "embed", "failed to embed chunks", err)), nil
	}
	if len(vectors) != len(points) {
		return errorResult(docID, NewIndexError(docID, "embed",
			fmt.Sprintf("embedder returned %d vectors for %d chunks", len(vectors), len(points)), nil)), nil
	}
	for i := range points {
		points[i].Vector = vectors[i]
	}

	// Drop stale chunks before rewriting: a shrunk document must not keep
	// points beyond its new chunk count.
	if force {
		if err := in.store.DeleteByDocID(ctx, docID); err != nil {
			return errorResult(docID, NewIndexError(docID, "delete", "failed to remove existing chunks", err)), nil
		}
	}

	if err := in.store.Upsert(ctx, points); err != nil {
		return errorResult(docID, NewIndexError(docID, "upsert", "failed to store chunks", err)), nil
	}

	in.logger.Info("Ingestion complete", "doc_id", docID, "chunks", len(points), "pages", len(pages))

	return &IngestResult{
		DocID:          docID,
		Title:          title,
		Status:         StatusSuccess,
		ChunksCreated:  len(points),
		PagesProcessed: len(pages),
	}, nil
}

// IngestAll ingests every document in the paperless instance, newest
// first, optionally limited to documents modified after updatedAfter.
// Individual failures are counted and logged without stopping the run.
func (in *Ingestor) IngestAll(ctx context.Context, force bool, updatedAfter string) (*BatchResult, error) {
	var docIDs []int
	page := 1
	for {
		list, err := in.source.ListDocuments(ctx, paperless.ListOptions{
			UpdatedAfter: updatedAfter,
			Page:         page,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list documents: %w", err)
		}
		for _, doc := range list.Results {
			docIDs = append(docIDs, doc.ID)
		}
		if list.Next == nil || len(list.Results) == 0 {
			break
		}
		page++
	}

	in.logger.Info("Starting batch ingestion", "documents", len(docIDs), "force", force)

	summary := &BatchResult{TotalDocuments: len(docIDs)}
	var mu sync.Mutex

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(in.config.Concurrency)

	for _, docID := range docIDs {
		if gctx.Err() != nil {
			break
		}

		group.Go(func() error {
			result, err := in.IngestDocument(gctx, docID, force)
			if err != nil {
				// Context cancellation stops the batch.
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			switch result.Status {
			case StatusSuccess:
				summary.Processed++
				summary.ChunksCreated += result.ChunksCreated
			case StatusSkipped:
				summary.Skipped++
			default:
				summary.Failed++
				in.logger.Warn("Document ingestion failed",
					"doc_id", docID, "status", result.Status, "reason", result.Reason, "error", result.Err)
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return summary, err
	}

	in.logger.Info("Batch ingestion complete",
		"total", summary.TotalDocuments, "processed", summary.Processed,
		"skipped", summary.Skipped, "failed", summary.Failed, "chunks", summary.ChunksCreated)

	return summary, nil
}

// RemoveDocument deletes all indexed chunks of a document.
func (in *Ingestor) RemoveDocument(ctx context.Context, docID int) error {
	if err := in.store.DeleteByDocID(ctx, docID); err != nil {
		return NewIndexError(docID, "delete", "failed to remove document chunks", err)
	}
	in.logger.Info("Removed document from index", "doc_id", docID)
	return nil
}

func errorResult(docID int, err error) *IngestResult {
	return &IngestResult{
		DocID:  docID,
		Title:  fmt.Sprintf("Document %d", docID),
		Status: StatusError,
		Err:    err,
	}
}
