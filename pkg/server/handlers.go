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

package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	paperlessrag "github.com/rae2001/paperless-rag"
	"github.com/rae2001/paperless-rag/pkg/paperless"
	"github.com/rae2001/paperless-rag/pkg/rag"
)

// healthCheckTimeout bounds the dependency probes of one health request.
const healthCheckTimeout = 10 * time.Second

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":        "Paperless RAG Q&A System",
		"version":     paperlessrag.Version,
		"description": "Question answering over paperless-ngx documents",
		"endpoints": map[string]string{
			"POST /ask":                    "Ask a question against the document index",
			"POST /ingest":                 "Index one document or start a full ingestion run",
			"GET /documents":               "List paperless documents",
			"GET /documents/search":        "Search documents by title",
			"GET /documents/{id}":          "Fetch document metadata",
			"DELETE /documents/{id}/index": "Remove a document from the index",
			"GET /stats":                   "Index and collection statistics",
			"GET /health":                  "Component health",
			"GET /metrics":                 "Prometheus metrics",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	components := make(map[string]string, 4)

	if _, err := s.deps.Store.Stats(ctx); err != nil {
		components["vector_database"] = "error: " + err.Error()
	} else {
		components["vector_database"] = "healthy"
	}

	if err := s.deps.Documents.Ping(ctx); err != nil {
		components["paperless"] = "error: " + err.Error()
	} else {
		components["paperless"] = "healthy"
	}

	if err := s.deps.LLM.Ping(ctx); err != nil {
		components["llm"] = "error: " + err.Error()
	} else {
		components["llm"] = "healthy"
	}

	if s.deps.Embedder.Dimension() > 0 {
		components["embedder"] = "healthy"
	} else {
		components["embedder"] = "error: embedding dimension unknown"
	}

	status := "healthy"
	for _, state := range components {
		if state != "healthy" {
			status = "degraded"
			break
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":     status,
		"components": components,
	})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req rag.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query must not be empty")
		return
	}

	resp, err := s.deps.Answers.Ask(r.Context(), req)
	if err != nil {
		questionsTotal.WithLabelValues("error").Inc()
		s.logger.Error("Ask failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if len(resp.Citations) == 0 {
		questionsTotal.WithLabelValues("no_context").Inc()
	} else {
		questionsTotal.WithLabelValues("answered").Inc()
	}
	writeJSON(w, http.StatusOK, resp)
}

// ingestRequest selects between single-document and full ingestion.
type ingestRequest struct {
	DocID        *int   `json:"doc_id,omitempty"`
	Force        bool   `json:"force_reindex,omitempty"`
	UpdatedAfter string `json:"updated_after,omitempty"`
}

// ingestResponse reports a synchronous single-document run.
type ingestResponse struct {
	DocID              int    `json:"doc_id"`
	Status             string `json:"status"`
	DocumentsProcessed int    `json:"documents_processed"`
	ChunksCreated      int    `json:"chunks_created"`
	PagesProcessed     int    `json:"pages_processed,omitempty"`
	Reason             string `json:"reason,omitempty"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	}

	if req.DocID != nil {
		result, err := s.deps.Ingestor.IngestDocument(r.Context(), *req.DocID, req.Force)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		documentsIngestedTotal.WithLabelValues(result.Status).Inc()
		chunksIndexedTotal.Add(float64(result.ChunksCreated))

		switch result.Status {
		case rag.StatusSuccess, rag.StatusSkipped:
			processed := 0
			if result.Status == rag.StatusSuccess {
				processed = 1
			}
			writeJSON(w, http.StatusOK, ingestResponse{
				DocID:              result.DocID,
				Status:             result.Status,
				DocumentsProcessed: processed,
				ChunksCreated:      result.ChunksCreated,
				PagesProcessed:     result.PagesProcessed,
				Reason:             result.Reason,
			})
		default:
			reason := result.Reason
			if reason == "" && result.Err != nil {
				reason = result.Err.Error()
			}
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"doc_id": result.DocID,
				"status": result.Status,
				"reason": reason,
			})
		}
		return
	}

	// Full runs take minutes; detach from the request context and report
	// progress through logs and metrics.
	go func() {
		summary, err := s.deps.Ingestor.IngestAll(context.Background(), req.Force, req.UpdatedAfter)
		if err != nil {
			s.logger.Error("Background ingestion failed", "error", err)
			return
		}
		documentsIngestedTotal.WithLabelValues(rag.StatusSuccess).Add(float64(summary.Processed))
		documentsIngestedTotal.WithLabelValues(rag.StatusSkipped).Add(float64(summary.Skipped))
		documentsIngestedTotal.WithLabelValues(rag.StatusFailed).Add(float64(summary.Failed))
		chunksIndexedTotal.Add(float64(summary.ChunksCreated))
	}()

	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":        "started",
		"mode":          "background",
		"force_reindex": req.Force,
	})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)

	list, err := s.deps.Documents.ListDocuments(r.Context(), paperless.ListOptions{})
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	docs := list.Results
	if offset >= len(docs) {
		docs = nil
	} else {
		docs = docs[offset:]
	}
	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	if docs == nil {
		docs = []paperless.Document{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count":     list.Count,
		"documents": docs,
	})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	docID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "document id must be an integer")
		return
	}

	doc, err := s.deps.Documents.GetDocument(r.Context(), docID)
	if err != nil {
		var perr *paperless.Error
		if errors.As(err, &perr) && perr.StatusCode == http.StatusNotFound {
			writeError(w, http.StatusNotFound, "document not found")
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleSearchDocuments(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}
	limit := queryInt(r, "limit", 10)

	list, err := s.deps.Documents.SearchDocuments(r.Context(), query)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	// Titles that start with the query rank before substring matches,
	// alphabetically within each group.
	docs := make([]paperless.Document, len(list.Results))
	copy(docs, list.Results)
	lowered := strings.ToLower(query)
	sort.SliceStable(docs, func(i, j int) bool {
		ti := strings.ToLower(docs[i].Title)
		tj := strings.ToLower(docs[j].Title)
		pi := strings.HasPrefix(ti, lowered)
		pj := strings.HasPrefix(tj, lowered)
		if pi != pj {
			return pi
		}
		return ti < tj
	})

	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"query":     query,
		"count":     len(docs),
		"documents": docs,
	})
}

func (s *Server) handleRemoveDocument(w http.ResponseWriter, r *http.Request) {
	docID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "document id must be an integer")
		return
	}

	if err := s.deps.Ingestor.RemoveDocument(r.Context(), docID); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "removed",
		"doc_id": docID,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := make(map[string]any, 5)

	if collection, err := s.deps.Store.Stats(r.Context()); err != nil {
		stats["vector_database"] = map[string]string{"error": err.Error()}
	} else {
		stats["vector_database"] = collection
	}

	if summary, err := s.deps.Chunks.Summary(r.Context()); err != nil {
		stats["chunks"] = map[string]string{"error": err.Error()}
	} else {
		stats["chunks"] = summary
	}

	if list, err := s.deps.Documents.ListDocuments(r.Context(), paperless.ListOptions{PageSize: 1}); err != nil {
		stats["paperless_documents"] = map[string]string{"error": err.Error()}
	} else {
		stats["paperless_documents"] = list.Count
	}

	stats["embedding_model"] = s.deps.Embedder.Model()
	stats["llm_model"] = s.deps.LLM.Model()

	writeJSON(w, http.StatusOK, stats)
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return def
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
