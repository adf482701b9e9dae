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
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paperless_rag_http_requests_total",
		Help: "Total HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "paperless_rag_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	questionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paperless_rag_questions_total",
		Help: "Questions answered, by outcome.",
	}, []string{"outcome"})

	documentsIngestedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paperless_rag_documents_ingested_total",
		Help: "Documents processed by the ingestion pipeline, by status.",
	}, []string{"status"})

	chunksIndexedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "paperless_rag_chunks_indexed_total",
		Help: "Chunks written to the vector store.",
	})
)

// MetricsHandler serves the Prometheus metrics endpoint.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
