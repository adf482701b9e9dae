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
	"strings"
	"time"

	"github.com/rae2001/paperless-rag/pkg/llm"
	"github.com/rae2001/paperless-rag/pkg/utils"
)

const (
	// maxHistoryMessages bounds how many prior conversation turns are
	// forwarded to the model.
	maxHistoryMessages = 12

	// snippetLength is the citation excerpt length in characters.
	snippetLength = 300

	// searchWideningLimit is the top_k value below which retrieval widens
	// to twice the requested results before deduplication.
	searchWideningLimit = 20
)

// AnswerModel generates chat completions. *llm.Client satisfies it.
type AnswerModel interface {
	Complete(ctx context.Context, messages []llm.Message) (*llm.Completion, error)
	Model() string
}

// AskRequest is a question posed against the document index.
type AskRequest struct {
	Query string `json:"query"`

	// FilterTags restricts retrieval to documents carrying at least one
	// of these tags.
	FilterTags []string `json:"filter_tags,omitempty"`

	// TopK overrides the configured result count when positive.
	TopK int `json:"top_k,omitempty"`

	// AllowGeneralChat lets the model answer from its own knowledge when
	// retrieval finds nothing.
	AllowGeneralChat bool `json:"allow_general_chat,omitempty"`

	History []ChatMessage `json:"history,omitempty"`
}

// AskResponse is the generated answer with its sources.
type AskResponse struct {
	Answer    string     `json:"answer"`
	Citations []Citation `json:"citations"`
	Query     string     `json:"query"`
	ModelUsed string     `json:"model_used"`
}

// AnswerConfig configures answer generation.
type AnswerConfig struct {
	// TopK is the default number of chunks used as context (default: 6).
	TopK int

	// MaxSnippetsTokens is the context budget in estimated tokens
	// (default: 2500).
	MaxSnippetsTokens int

	// GateKeywords decide whether a query needs document retrieval at
	// all. A query containing none of them skips the vector search. Empty
	// means every query is searched.
	GateKeywords []string
}

// SetDefaults applies default values.
func (c *AnswerConfig) SetDefaults() {
	if c.TopK <= 0 {
		c.TopK = 6
	}
	if c.MaxSnippetsTokens <= 0 {
		c.MaxSnippetsTokens = 2500
	}
}

// AnswerService turns a question into a grounded answer: retrieve,
// deduplicate, assemble a token-budgeted context, and generate.
type AnswerService struct {
	retriever *Retriever
	model     AnswerModel
	source    DocumentSource
	config    AnswerConfig
	logger    *slog.Logger
}

// NewAnswerService creates an answer service.
func NewAnswerService(retriever *Retriever, model AnswerModel, source DocumentSource, cfg AnswerConfig) *AnswerService {
	cfg.SetDefaults()
	return &AnswerService{
		retriever: retriever,
		model:     model,
		source:    source,
		config:    cfg,
		logger:    slog.Default().With("component", "answer"),
	}
}

// Ask answers a question using the document index. When retrieval finds
// nothing, the response carries a fixed no-evidence answer unless the
// request allows general chat.
func (s *AnswerService) Ask(ctx context.Context, req AskRequest) (*AskResponse, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, NewSearchError("answer", "ask", "query must not be empty", "", nil)
	}

	topK := req.TopK
	if topK <= 0 {
		topK = s.config.TopK
	}

	var chunks []ScoredChunk
	if s.needsDocuments(query) {
		searchK := topK
		if topK < searchWideningLimit {
			searchK = topK * 2
		}

		var err error
		chunks, err = s.retriever.Search(ctx, query, searchK, req.FilterTags)
		if err != nil {
			return nil, err
		}
	} else {
		s.logger.Info("Query gated, skipping retrieval", "query_length", len(query))
	}

	if len(chunks) == 0 {
		if req.AllowGeneralChat {
			return s.generalChat(ctx, query, req.History)
		}
		return &AskResponse{
			Answer:    noEvidenceAnswer,
			Citations: []Citation{},
			Query:     query,
			ModelUsed: s.model.Model(),
		}, nil
	}

	chunks = Deduplicate(chunks, DefaultDedupThreshold)

	contextText, used := s.buildContext(chunks)
	s.logger.Info("Assembled context", "chunks", used, "retrieved", len(chunks))

	messages := s.buildMessages(query, contextText, req.History)

	completion, err := s.model.Complete(ctx, messages)
	if err != nil {
		return nil, NewSearchError("llm", "complete", "answer generation failed", query, err)
	}

	return &AskResponse{
		Answer:    completion.Answer,
		Citations: s.citations(chunks),
		Query:     query,
		ModelUsed: completion.Model,
	}, nil
}

// needsDocuments reports whether the query looks like a document
// question. With no gate keywords configured every query is searched.
func (s *AnswerService) needsDocuments(query string) bool {
	if len(s.config.GateKeywords) == 0 {
		return true
	}

	lowered := strings.ToLower(query)
	for _, keyword := range s.config.GateKeywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}

// generalChat answers without document context.
func (s *AnswerService) generalChat(ctx context.Context, query string, history []ChatMessage) (*AskResponse, error) {
	messages := make([]llm.Message, 0, maxHistoryMessages+2)
	messages = append(messages, llm.Message{Role: "system", Content: s.systemPrompt()})
	messages = append(messages, historyMessages(history)...)
	messages = append(messages, llm.Message{Role: "user", Content: query})

	completion, err := s.model.Complete(ctx, messages)
	if err != nil {
		return nil, NewSearchError("llm", "complete", "answer generation failed", query, err)
	}

	return &AskResponse{
		Answer:    completion.Answer,
		Citations: []Citation{},
		Query:     query,
		ModelUsed: completion.Model,
	}, nil
}

// buildContext formats chunks grouped per document, stopping once the
// estimated token budget is spent. It returns the context text and the
// number of chunks included.
func (s *AnswerService) buildContext(chunks []ScoredChunk) (string, int) {
	// Group chunks by document, preserving retrieval order.
	var docOrder []int
	grouped := make(map[int][]ScoredChunk)
	titles := make(map[int]string)
	for _, chunk := range chunks {
		if _, seen := grouped[chunk.DocID]; !seen {
			docOrder = append(docOrder, chunk.DocID)
			titles[chunk.DocID] = chunk.Title
		}
		grouped[chunk.DocID] = append(grouped[chunk.DocID], chunk)
	}

	var parts []string
	used := 0
	spent := 0
	budget := s.config.MaxSnippetsTokens

	for _, docID := range docOrder {
		parts = append(parts, fmt.Sprintf("\n=== From document: %s ===\n", titles[docID]))

		for _, chunk := range grouped[docID] {
			entry := chunk.Text
			if chunk.Page > 0 {
				entry = fmt.Sprintf("Page %d:\n%s", chunk.Page, chunk.Text)
			}
			entry += "\n"

			cost := utils.EstimateTokens(entry)
			if spent+cost > budget {
				break
			}

			parts = append(parts, entry)
			spent += cost
			used++
		}
	}

	return strings.Join(parts, "\n"), used
}

// buildMessages assembles the full conversation sent to the model.
func (s *AnswerService) buildMessages(query, contextText string, history []ChatMessage) []llm.Message {
	messages := make([]llm.Message, 0, maxHistoryMessages+2)
	messages = append(messages, llm.Message{Role: "system", Content: s.systemPrompt()})
	messages = append(messages, historyMessages(history)...)
	messages = append(messages, llm.Message{
		Role:    "user",
		Content: fmt.Sprintf(userMessageTemplate, query, contextText),
	})
	return messages
}

func (s *AnswerService) systemPrompt() string {
	today := time.Now().Format("January 2, 2006")
	return fmt.Sprintf(systemPromptTemplate, today)
}

// historyMessages keeps the last turns of the conversation, dropping
// empty messages and unknown roles.
func historyMessages(history []ChatMessage) []llm.Message {
	if len(history) > maxHistoryMessages {
		history = history[len(history)-maxHistoryMessages:]
	}

	messages := make([]llm.Message, 0, len(history))
	for _, msg := range history {
		switch msg.Role {
		case "user", "assistant", "system":
		default:
			continue
		}
		if strings.TrimSpace(msg.Content) == "" {
			continue
		}
		messages = append(messages, llm.Message{Role: msg.Role, Content: msg.Content})
	}
	return messages
}

// citations builds one citation per context chunk with a short excerpt
// and a link into the paperless web UI.
func (s *AnswerService) citations(chunks []ScoredChunk) []Citation {
	citations := make([]Citation, 0, len(chunks))
	for _, chunk := range chunks {
		citations = append(citations, Citation{
			DocID:   chunk.DocID,
			Title:   chunk.Title,
			Page:    chunk.Page,
			Score:   chunk.Score,
			URL:     s.source.DocumentURL(chunk.DocID),
			Snippet: snippet(chunk.Text, snippetLength),
		})
	}
	return citations
}

// snippet truncates text to limit characters on a rune boundary.
func snippet(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
