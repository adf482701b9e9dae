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

// Package paperless is an HTTP client for the paperless-ngx REST API.
package paperless

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Config configures the paperless-ngx client.
type Config struct {
	// BaseURL of the paperless-ngx instance, without trailing slash.
	BaseURL string

	// Token for API authentication.
	Token string

	// Timeout for metadata requests (default: 60s).
	Timeout time.Duration

	// DownloadTimeout for file downloads (default: 120s).
	DownloadTimeout time.Duration
}

// SetDefaults applies default values.
func (c *Config) SetDefaults() {
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Timeout == 0 {
		c.Timeout = 60 * time.Second
	}
	if c.DownloadTimeout == 0 {
		c.DownloadTimeout = 120 * time.Second
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("paperless base URL is required")
	}
	if c.Token == "" {
		return fmt.Errorf("paperless API token is required")
	}
	return nil
}

// Client talks to the paperless-ngx REST API using token authentication.
type Client struct {
	baseURL  string
	token    string
	client   *http.Client
	download *http.Client
}

// Tag is a paperless-ngx tag attached to a document.
type Tag struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Document is the subset of paperless-ngx document metadata the service
// uses.
type Document struct {
	ID               int    `json:"id"`
	Title            string `json:"title"`
	Created          string `json:"created"`
	Modified         string `json:"modified"`
	FileType         string `json:"file_type"`
	OriginalFilename string `json:"original_filename"`
	PageCount        *int   `json:"page_count"`
	Tags             []Tag  `json:"tags"`
}

// TagNames returns the names of the document's tags.
func (d *Document) TagNames() []string {
	names := make([]string, 0, len(d.Tags))
	for _, tag := range d.Tags {
		names = append(names, tag.Name)
	}
	return names
}

// DocumentList is a paginated document listing.
type DocumentList struct {
	Count    int        `json:"count"`
	Next     *string    `json:"next"`
	Previous *string    `json:"previous"`
	Results  []Document `json:"results"`
}

// ListOptions narrows a document listing.
type ListOptions struct {
	// UpdatedAfter filters to documents modified after this ISO timestamp.
	UpdatedAfter string

	// PageSize is the number of documents per page (default: 100).
	PageSize int

	// Ordering is the sort field (default: "-created", newest first).
	Ordering string

	// Page is the 1-based page number (0 means first page).
	Page int
}

// Error reports a failed paperless-ngx API call.
type Error struct {
	Operation  string // Operation that failed
	Endpoint   string // Request path
	StatusCode int    // HTTP status, 0 for transport errors
	Err        error  // Underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("paperless %s %s: status %d", e.Operation, e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("paperless %s %s: %v", e.Operation, e.Endpoint, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewClient creates a paperless-ngx client.
func NewClient(cfg Config) (*Client, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Client{
		baseURL:  cfg.BaseURL,
		token:    cfg.Token,
		client:   &http.Client{Timeout: cfg.Timeout},
		download: &http.Client{Timeout: cfg.DownloadTimeout},
	}, nil
}

// ListDocuments lists documents, newest first by default.
func (c *Client) ListDocuments(ctx context.Context, opts ListOptions) (*DocumentList, error) {
	params := url.Values{}
	if opts.Ordering == "" {
		opts.Ordering = "-created"
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 100
	}
	params.Set("ordering", opts.Ordering)
	params.Set("page_size", strconv.Itoa(opts.PageSize))
	if opts.UpdatedAfter != "" {
		params.Set("modified__gt", opts.UpdatedAfter)
	}
	if opts.Page > 1 {
		params.Set("page", strconv.Itoa(opts.Page))
	}

	var list DocumentList
	if err := c.getJSON(ctx, "list_documents", "/api/documents/", params, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// GetDocument fetches metadata for a single document.
func (c *Client) GetDocument(ctx context.Context, docID int) (*Document, error) {
	var doc Document
	endpoint := fmt.Sprintf("/api/documents/%d/", docID)
	if err := c.getJSON(ctx, "get_document", endpoint, nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// SearchDocuments lists documents whose title contains the given string.
func (c *Client) SearchDocuments(ctx context.Context, title string) (*DocumentList, error) {
	params := url.Values{}
	params.Set("title__icontains", title)

	var list DocumentList
	if err := c.getJSON(ctx, "search_documents", "/api/documents/", params, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// GetDocumentByTitle returns the first document whose title contains the
// given string, or nil when nothing matches.
func (c *Client) GetDocumentByTitle(ctx context.Context, title string) (*Document, error) {
	params := url.Values{}
	params.Set("title__icontains", title)

	var list DocumentList
	if err := c.getJSON(ctx, "get_document_by_title", "/api/documents/", params, &list); err != nil {
		return nil, err
	}
	if len(list.Results) == 0 {
		return nil, nil
	}
	return &list.Results[0], nil
}

// DownloadDocument fetches the original file content of a document.
func (c *Client) DownloadDocument(ctx context.Context, docID int) ([]byte, error) {
	endpoint := fmt.Sprintf("/api/documents/%d/download/", docID)

	req, err := c.newRequest(ctx, endpoint, nil)
	if err != nil {
		return nil, &Error{Operation: "download_document", Endpoint: endpoint, Err: err}
	}

	resp, err := c.download.Do(req)
	if err != nil {
		return nil, &Error{Operation: "download_document", Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{Operation: "download_document", Endpoint: endpoint, StatusCode: resp.StatusCode}
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Operation: "download_document", Endpoint: endpoint, Err: err}
	}
	return content, nil
}

// DocumentURL builds a link to view the document in the paperless-ngx UI.
func (c *Client) DocumentURL(docID int) string {
	return fmt.Sprintf("%s/documents/%d", c.baseURL, docID)
}

// Ping verifies the API is reachable and the token is accepted.
func (c *Client) Ping(ctx context.Context) error {
	req, err := c.newRequest(ctx, "/api/", nil)
	if err != nil {
		return &Error{Operation: "ping", Endpoint: "/api/", Err: err}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &Error{Operation: "ping", Endpoint: "/api/", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &Error{Operation: "ping", Endpoint: "/api/", StatusCode: resp.StatusCode}
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, endpoint string, params url.Values) (*http.Request, error) {
	u := c.baseURL + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Token "+c.token)
	return req, nil
}

func (c *Client) getJSON(ctx context.Context, operation, endpoint string, params url.Values, out any) error {
	req, err := c.newRequest(ctx, endpoint, params)
	if err != nil {
		return &Error{Operation: operation, Endpoint: endpoint, Err: err}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &Error{Operation: operation, Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &Error{Operation: operation, Endpoint: endpoint, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Operation: operation, Endpoint: endpoint, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}
