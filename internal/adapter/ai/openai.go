package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/physai/textbook-rag/internal/port"
)

// OpenAIConfig holds the configuration for the OpenAI provider.
type OpenAIConfig struct {
	APIKey     string
	EmbedModel string // e.g. text-embedding-3-small
	ChatModel  string // e.g. gpt-4o-mini
}

// OpenAIProvider implements port.EmbeddingProvider and port.ChatProvider
// using the OpenAI API. It serves as the fallback when no Gemini key is
// configured.
type OpenAIProvider struct {
	client     *openai.Client
	embedModel string
	chatModel  string
}

// NewOpenAIProvider creates an OpenAI-backed provider.
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	return &OpenAIProvider{
		client:     openai.NewClient(cfg.APIKey),
		embedModel: cfg.EmbedModel,
		chatModel:  cfg.ChatModel,
	}
}

// ModelName returns the chat model identifier.
func (o *OpenAIProvider) ModelName() string {
	return o.chatModel
}

// Embed generates a vector embedding for the given text.
func (o *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := o.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: []string{text},
		Model: openai.EmbeddingModel(o.embedModel),
	})
	if err != nil {
		return nil, classify("openai embed", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai embed: no embeddings returned")
	}
	return resp.Data[0].Embedding, nil
}

// Complete sends an assembled prompt and returns the response text.
func (o *OpenAIProvider) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", classify("openai chat", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai chat: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// classify maps OpenAI quota rejections onto the shared rate-limit
// sentinel so the retry layer can recognize them.
func classify(op string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%s: %v: %w", op, err, port.ErrRateLimited)
	}
	return fmt.Errorf("%s: %w", op, err)
}
