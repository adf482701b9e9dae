// Package utils provides shared helpers for the paperless-rag service.
package utils

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter counts and encodes tokens using a tiktoken encoding.
// The zero value counts with the 4-characters-per-token estimate.
type TokenCounter struct {
	encoding *tiktoken.Tiktoken
}

var (
	// Cache encodings to avoid repeated initialization
	encodingCache = make(map[string]*tiktoken.Tiktoken)
	cacheMu       sync.RWMutex
)

// NewTokenCounter creates a counter for the given encoding name
// (e.g. "cl100k_base"). When the encoding cannot be loaded the returned
// counter falls back to estimation, so chunking keeps working offline.
func NewTokenCounter(encodingName string) *TokenCounter {
	cacheMu.RLock()
	cached, ok := encodingCache[encodingName]
	cacheMu.RUnlock()

	if ok {
		return &TokenCounter{encoding: cached}
	}

	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return &TokenCounter{}
	}

	cacheMu.Lock()
	encodingCache[encodingName] = encoding
	cacheMu.Unlock()

	return &TokenCounter{encoding: encoding}
}

// Available reports whether an exact encoding is loaded.
func (tc *TokenCounter) Available() bool {
	return tc != nil && tc.encoding != nil
}

// Count returns the token count for text, estimated when no encoding is
// available.
func (tc *TokenCounter) Count(text string) int {
	if !tc.Available() {
		return EstimateTokens(text)
	}
	return len(tc.encoding.Encode(text, nil, nil))
}

// Encode converts text to token ids. Returns nil when no encoding is
// available.
func (tc *TokenCounter) Encode(text string) []int {
	if !tc.Available() {
		return nil
	}
	return tc.encoding.Encode(text, nil, nil)
}

// Decode converts token ids back to text.
func (tc *TokenCounter) Decode(tokens []int) string {
	if !tc.Available() {
		return ""
	}
	return tc.encoding.Decode(tokens)
}

// EstimateTokens provides a rough token estimation.
// Rough estimation: 4 characters per token.
func EstimateTokens(text string) int {
	return len(text) / 4
}
