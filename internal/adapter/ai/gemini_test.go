package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/physai/textbook-rag/internal/port"
)

func newGeminiStub(t *testing.T, handler http.HandlerFunc) *GeminiProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewGeminiProvider(GeminiConfig{
		BaseURL:    srv.URL,
		APIKey:     "test-key",
		EmbedModel: "text-embedding-004",
		ChatModel:  "gemini-1.5-flash",
	})
}

func TestGeminiEmbed(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}
	p := newGeminiStub(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		fmt.Fprint(w, `{"embedding":{"values":[0.1,0.2,0.3]}}`)
	})

	vector, err := p.Embed(context.Background(), "hello")

	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vector)
	assert.Equal(t, "/models/text-embedding-004:embedContent", gotPath)
	assert.Equal(t, "RETRIEVAL_DOCUMENT", gotBody["taskType"])
}

func TestGeminiEmbed_EmptyResponse(t *testing.T) {
	p := newGeminiStub(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"embedding":{"values":[]}}`)
	})

	_, err := p.Embed(context.Background(), "hello")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty response")
}

func TestGeminiEmbed_TooManyRequestsIsRateLimited(t *testing.T) {
	p := newGeminiStub(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"quota"}}`, http.StatusTooManyRequests)
	})

	_, err := p.Embed(context.Background(), "hello")

	require.Error(t, err)
	assert.ErrorIs(t, err, port.ErrRateLimited)
}

func TestGeminiEmbed_ResourceExhaustedIsRateLimited(t *testing.T) {
	p := newGeminiStub(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"status":"RESOURCE_EXHAUSTED"}}`, http.StatusForbidden)
	})

	_, err := p.Embed(context.Background(), "hello")

	require.Error(t, err)
	assert.ErrorIs(t, err, port.ErrRateLimited)
}

func TestGeminiEmbed_OtherErrorsNotRateLimited(t *testing.T) {
	p := newGeminiStub(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"bad request"}}`, http.StatusBadRequest)
	})

	_, err := p.Embed(context.Background(), "hello")

	require.Error(t, err)
	assert.NotErrorIs(t, err, port.ErrRateLimited)
}

func TestGeminiComplete(t *testing.T) {
	var gotPath string
	p := newGeminiStub(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"the answer"}]}}]}`)
	})

	answer, err := p.Complete(context.Background(), "a prompt")

	require.NoError(t, err)
	assert.Equal(t, "the answer", answer)
	assert.Equal(t, "/models/gemini-1.5-flash:generateContent", gotPath)
}

func TestGeminiComplete_NoCandidates(t *testing.T) {
	p := newGeminiStub(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"candidates":[]}`)
	})

	_, err := p.Complete(context.Background(), "a prompt")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty response")
}

func TestGeminiModelName(t *testing.T) {
	p := NewGeminiProvider(GeminiConfig{ChatModel: "gemini-1.5-flash"})
	assert.Equal(t, "gemini-1.5-flash", p.ModelName())
}
