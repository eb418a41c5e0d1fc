package port

import "context"

// EmbeddingProvider abstracts the remote embedding API.
// Implementations can target Google Gemini, OpenAI, or any compatible API.
type EmbeddingProvider interface {
	// Embed generates a vector embedding for the given text. A provider
	// rejecting the call for quota reasons must return an error wrapping
	// ErrRateLimited so callers can retry.
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ChatProvider abstracts the remote chat-completion API.
type ChatProvider interface {
	// ModelName returns the identifier of the chat model being used.
	ModelName() string

	// Complete sends a fully assembled prompt and returns the response text.
	Complete(ctx context.Context, prompt string) (string, error)
}
