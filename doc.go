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

// Package paperlessrag provides a retrieval-augmented question answering
// service over documents stored in a paperless-ngx instance.
//
// Documents are downloaded from paperless-ngx, text is extracted and split
// into overlapping token windows, embedded, and stored in a Qdrant
// collection. Questions are answered by retrieving the most similar chunks
// and prompting an OpenRouter-hosted model with the assembled context.
//
// The HTTP surface lives in pkg/server, the ingestion and retrieval
// pipeline in pkg/rag, and the integration clients in pkg/paperless,
// pkg/embedder, pkg/vector and pkg/llm.
package paperlessrag
