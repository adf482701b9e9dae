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

package paperless

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{BaseURL: server.URL, Token: "secret"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing base URL")
	}

	cfg = Config{BaseURL: "http://paperless:8000"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing token")
	}

	cfg = Config{BaseURL: "http://paperless:8000", Token: "t"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestListDocuments(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Token secret" {
			t.Errorf("Authorization = %q", got)
		}
		if r.URL.Path != "/api/documents/" {
			t.Errorf("path = %q", r.URL.Path)
		}

		q := r.URL.Query()
		if q.Get("ordering") != "-created" {
			t.Errorf("ordering = %q", q.Get("ordering"))
		}
		if q.Get("page_size") != "100" {
			t.Errorf("page_size = %q", q.Get("page_size"))
		}
		if q.Get("modified__gt") != "2026-01-01" {
			t.Errorf("modified__gt = %q", q.Get("modified__gt"))
		}
		if q.Get("page") != "2" {
			t.Errorf("page = %q", q.Get("page"))
		}

		_ = json.NewEncoder(w).Encode(DocumentList{
			Count: 1,
			Results: []Document{
				{ID: 10, Title: "Invoice March", Tags: []Tag{{ID: 1, Name: "finance"}}},
			},
		})
	})

	list, err := client.ListDocuments(context.Background(), ListOptions{
		UpdatedAfter: "2026-01-01",
		Page:         2,
	})
	if err != nil {
		t.Fatalf("ListDocuments() error = %v", err)
	}
	if list.Count != 1 || len(list.Results) != 1 {
		t.Fatalf("unexpected list: %+v", list)
	}
	if got := list.Results[0].TagNames(); len(got) != 1 || got[0] != "finance" {
		t.Errorf("TagNames() = %v", got)
	}
}

func TestGetDocumentNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := client.GetDocument(context.Background(), 99)
	if err == nil {
		t.Fatal("expected error")
	}

	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("error type = %T", err)
	}
	if perr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d", perr.StatusCode)
	}
	if perr.Operation != "get_document" {
		t.Errorf("Operation = %q", perr.Operation)
	}
}

func TestGetDocumentByTitle(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("title__icontains"); got != "invoice" {
			t.Errorf("title__icontains = %q", got)
		}
		_ = json.NewEncoder(w).Encode(DocumentList{
			Count:   2,
			Results: []Document{{ID: 1, Title: "Invoice A"}, {ID: 2, Title: "Invoice B"}},
		})
	})

	doc, err := client.GetDocumentByTitle(context.Background(), "invoice")
	if err != nil {
		t.Fatalf("GetDocumentByTitle() error = %v", err)
	}
	if doc == nil || doc.ID != 1 {
		t.Errorf("doc = %+v, want first match", doc)
	}
}

func TestGetDocumentByTitleNoMatch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(DocumentList{})
	})

	doc, err := client.GetDocumentByTitle(context.Background(), "nothing")
	if err != nil {
		t.Fatalf("GetDocumentByTitle() error = %v", err)
	}
	if doc != nil {
		t.Errorf("doc = %+v, want nil", doc)
	}
}

func TestDownloadDocument(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/documents/7/download/" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_, _ = w.Write([]byte("%PDF-1.7 content"))
	})

	content, err := client.DownloadDocument(context.Background(), 7)
	if err != nil {
		t.Fatalf("DownloadDocument() error = %v", err)
	}
	if string(content) != "%PDF-1.7 content" {
		t.Errorf("content = %q", content)
	}
}

func TestDocumentURL(t *testing.T) {
	client, err := NewClient(Config{BaseURL: "http://paperless:8000/", Token: "t"})
	if err != nil {
		t.Fatal(err)
	}
	if got := client.DocumentURL(42); got != "http://paperless:8000/documents/42" {
		t.Errorf("DocumentURL() = %q", got)
	}
}

func TestPing(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	})

	if err := client.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func TestPingUnauthorized(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	if err := client.Ping(context.Background()); err == nil {
		t.Error("expected error for 401")
	}
}
