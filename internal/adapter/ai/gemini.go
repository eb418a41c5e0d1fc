package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/physai/textbook-rag/internal/port"
)

// GeminiConfig holds the configuration for the Gemini REST provider.
type GeminiConfig struct {
	BaseURL    string // default https://generativelanguage.googleapis.com/v1beta
	APIKey     string
	EmbedModel string // e.g. text-embedding-004
	ChatModel  string // e.g. gemini-1.5-flash
}

// GeminiProvider implements port.EmbeddingProvider and port.ChatProvider
// against the Google Generative Language REST API.
type GeminiProvider struct {
	cfg        GeminiConfig
	httpClient *http.Client
}

// NewGeminiProvider creates a Gemini-backed provider.
func NewGeminiProvider(cfg GeminiConfig) *GeminiProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	return &GeminiProvider{
		cfg:        cfg,
		httpClient: &http.Client{},
	}
}

// ModelName returns the chat model identifier.
func (g *GeminiProvider) ModelName() string {
	return g.cfg.ChatModel
}

// Embed generates a vector embedding for the given text.
func (g *GeminiProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	payload := map[string]interface{}{
		"model": "models/" + g.cfg.EmbedModel,
		"content": map[string]interface{}{
			"parts": []map[string]string{{"text": text}},
		},
		"taskType": "RETRIEVAL_DOCUMENT",
	}

	body, err := g.post(ctx, "/models/"+g.cfg.EmbedModel+":embedContent", payload)
	if err != nil {
		return nil, fmt.Errorf("gemini embed: %w", err)
	}

	var resp struct {
		Embedding struct {
			Values []float32 `json:"values"`
		} `json:"embedding"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("gemini embed decode: %w", err)
	}

	if len(resp.Embedding.Values) == 0 {
		return nil, fmt.Errorf("gemini embed: empty response")
	}

	return resp.Embedding.Values, nil
}

// Complete sends an assembled prompt and returns the generated text.
func (g *GeminiProvider) Complete(ctx context.Context, prompt string) (string, error) {
	payload := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": []map[string]string{{"text": prompt}}},
		},
	}

	body, err := g.post(ctx, "/models/"+g.cfg.ChatModel+":generateContent", payload)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	var resp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("gemini generate decode: %w", err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini generate: empty response")
	}

	return resp.Candidates[0].Content.Parts[0].Text, nil
}

// post is a helper for POST requests to the Gemini API. HTTP 429 and
// RESOURCE_EXHAUSTED responses are classified as rate limiting so the
// embedding layer can retry them.
func (g *GeminiProvider) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	url := g.cfg.BaseURL + path + "?key=" + g.cfg.APIKey
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode == http.StatusTooManyRequests || strings.Contains(string(body), "RESOURCE_EXHAUSTED") {
			return nil, fmt.Errorf("gemini API error (%d): %w", resp.StatusCode, port.ErrRateLimited)
		}
		return nil, fmt.Errorf("gemini API error (%d): %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}
