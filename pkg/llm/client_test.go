package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{APIKey: "key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Error("expected error for missing API key")
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{APIKey: "key"}
	cfg.SetDefaults()

	if cfg.Model != "openai/gpt-4o-mini" {
		t.Errorf("Model = %q", cfg.Model)
	}
	if cfg.BaseURL != "https://openrouter.ai/api/v1" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.Temperature != 0.2 || cfg.TopP != 0.9 || cfg.MaxTokens != 1000 {
		t.Errorf("sampling defaults = %v/%v/%d", cfg.Temperature, cfg.TopP, cfg.MaxTokens)
	}
}

func TestComplete(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("HTTP-Referer"); got == "" {
			t.Error("HTTP-Referer header missing")
		}
		if got := r.Header.Get("X-Title"); got == "" {
			t.Error("X-Title header missing")
		}

		var payload request
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if payload.Model != "openai/gpt-4o-mini" {
			t.Errorf("model = %q", payload.Model)
		}
		if payload.Temperature != 0.2 || payload.TopP != 0.9 || payload.MaxTokens != 1000 {
			t.Errorf("sampling = %v/%v/%d", payload.Temperature, payload.TopP, payload.MaxTokens)
		}
		if payload.Stream {
			t.Error("stream must be false")
		}
		if len(payload.Messages) != 2 || payload.Messages[0].Role != "system" {
			t.Errorf("messages = %+v", payload.Messages)
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "  the answer  "}},
			},
			"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
		})
	})

	completion, err := client.Complete(context.Background(), []Message{
		{Role: "system", Content: "be helpful"},
		{Role: "user", Content: "question"},
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if completion.Answer != "the answer" {
		t.Errorf("Answer = %q, want trimmed", completion.Answer)
	}
	if completion.Usage.TotalTokens != 15 {
		t.Errorf("TotalTokens = %d", completion.Usage.TotalTokens)
	}
}

func TestCompleteAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "invalid model", "code": 400},
		})
	})

	if _, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "q"}}); err == nil {
		t.Error("expected error from API error body")
	}
}

func TestCompleteHTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	if _, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "q"}}); err == nil {
		t.Error("expected error for non-200 status")
	}
}

func TestCompleteNoChoices(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	})

	if _, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "q"}}); err == nil {
		t.Error("expected error for empty choices")
	}
}
