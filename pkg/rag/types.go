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

// Package rag implements the ingestion and retrieval pipeline: chunking,
// indexing, vector search and answer generation.
package rag

import (
	"context"

	"github.com/rae2001/paperless-rag/pkg/paperless"
)

// ScoredChunk is a retrieved document chunk with its relevance score.
type ScoredChunk struct {
	Text       string   `json:"text"`
	DocID      int      `json:"doc_id"`
	Title      string   `json:"title"`
	Page       int      `json:"page,omitempty"`
	FileType   string   `json:"file_type"`
	Tags       []string `json:"tags"`
	TokenCount int      `json:"token_count"`

	// Score is the final relevance score. After hybrid rescoring it is a
	// blend of VectorScore and KeywordScore.
	Score        float64 `json:"score"`
	VectorScore  float64 `json:"vector_score,omitempty"`
	KeywordScore float64 `json:"keyword_score,omitempty"`
}

// ChatMessage is one turn of conversation history.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Citation points at the source of an answer.
type Citation struct {
	DocID   int     `json:"doc_id"`
	Title   string  `json:"title"`
	Page    int     `json:"page,omitempty"`
	Score   float64 `json:"score"`
	URL     string  `json:"url,omitempty"`
	Snippet string  `json:"snippet"`
}

// DocumentSource is the paperless-ngx surface the pipeline needs.
// *paperless.Client satisfies it.
type DocumentSource interface {
	ListDocuments(ctx context.Context, opts paperless.ListOptions) (*paperless.DocumentList, error)
	GetDocument(ctx context.Context, docID int) (*paperless.Document, error)
	DownloadDocument(ctx context.Context, docID int) ([]byte, error)
	DocumentURL(docID int) string
}

// chunkFromPayload rebuilds a ScoredChunk from a vector store payload.
// Numeric payload values come back as int64 from the store.
func chunkFromPayload(payload map[string]any, score float64) ScoredChunk {
	chunk := ScoredChunk{Score: score}

	if text, ok := payload["text"].(string); ok {
		chunk.Text = text
	}
	chunk.DocID = payloadInt(payload, "doc_id")
	chunk.Page = payloadInt(payload, "page")
	chunk.TokenCount = payloadInt(payload, "token_count")

	if title, ok := payload["title"].(string); ok && title != "" {
		chunk.Title = title
	} else {
		chunk.Title = "Unknown Document"
	}

	if fileType, ok := payload["file_type"].(string); ok && fileType != "" {
		chunk.FileType = fileType
	} else {
		chunk.FileType = "unknown"
	}

	if tags, ok := payload["tags"].([]any); ok {
		for _, tag := range tags {
			if s, ok := tag.(string); ok {
				chunk.Tags = append(chunk.Tags, s)
			}
		}
	}

	return chunk
}

func payloadInt(payload map[string]any, key string) int {
	switch v := payload[key].(type) {
	case int64:
		return int(v)
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}
