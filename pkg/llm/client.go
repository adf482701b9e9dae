// Package llm generates answers through the OpenRouter chat completions API.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Config configures the OpenRouter client.
type Config struct {
	// APIKey for OpenRouter (required).
	APIKey string

	// Model name (default: openai/gpt-4o-mini).
	Model string

	// BaseURL of the API (default: https://openrouter.ai/api/v1).
	BaseURL string

	// Referer identifies the calling application to OpenRouter.
	Referer string

	// Title is the human-readable application name sent to OpenRouter.
	Title string

	// Temperature for generation (default: 0.2).
	Temperature float64

	// TopP nucleus sampling parameter (default: 0.9).
	TopP float64

	// MaxTokens caps the answer length (default: 1000).
	MaxTokens int

	// Timeout for API requests (default: 120s).
	Timeout time.Duration
}

// SetDefaults applies default values.
func (c *Config) SetDefaults() {
	if c.Model == "" {
		c.Model = "openai/gpt-4o-mini"
	}
	if c.BaseURL == "" {
		c.BaseURL = "https://openrouter.ai/api/v1"
	}
	c.BaseURL = strings.TrimSuffix(c.BaseURL, "/")
	if c.Referer == "" {
		c.Referer = "https://paperless-rag.local"
	}
	if c.Title == "" {
		c.Title = "Paperless RAG Q&A System"
	}
	if c.Temperature == 0 {
		c.Temperature = 0.2
	}
	if c.TopP == 0 {
		c.TopP = 0.9
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 1000
	}
	if c.Timeout == 0 {
		c.Timeout = 120 * time.Second
	}
}

// Message is a single conversation message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Usage reports token consumption for a completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Completion is a generated answer with metadata.
type Completion struct {
	Answer string
	Model  string
	Usage  Usage
}

// request is the chat completions payload.
type request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	TopP        float64   `json:"top_p"`
	MaxTokens   int       `json:"max_tokens"`
	Stream      bool      `json:"stream"`
}

// response is the chat completions result.
type response struct {
	Choices []struct {
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Code    any    `json:"code"`
	} `json:"error,omitempty"`
}

// Client calls the OpenRouter chat completions endpoint.
type Client struct {
	config Config
	client *http.Client
}

// NewClient creates an OpenRouter client.
func NewClient(cfg Config) (*Client, error) {
	cfg.SetDefaults()
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenRouter API key is required")
	}

	return &Client{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.config.Model
}

// Complete generates a response for the conversation.
func (c *Client) Complete(ctx context.Context, messages []Message) (*Completion, error) {
	payload := request{
		Model:       c.config.Model,
		Messages:    messages,
		Temperature: c.config.Temperature,
		TopP:        c.config.TopP,
		MaxTokens:   c.config.MaxTokens,
		Stream:      false,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("HTTP-Referer", c.config.Referer)
	req.Header.Set("X-Title", c.config.Title)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call OpenRouter: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("OpenRouter returned status %d: %s", resp.StatusCode, string(body))
	}

	var result response
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode OpenRouter response: %w", err)
	}

	if result.Error != nil {
		return nil, fmt.Errorf("OpenRouter API error: %s", result.Error.Message)
	}

	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("no response choices returned")
	}

	return &Completion{
		Answer: strings.TrimSpace(result.Choices[0].Message.Content),
		Model:  c.config.Model,
		Usage:  result.Usage,
	}, nil
}

// Ping sends a minimal probe request to verify the API key and model.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Complete(ctx, []Message{
		{Role: "user", Content: "Hello, can you respond with just 'OK'?"},
	})
	return err
}
