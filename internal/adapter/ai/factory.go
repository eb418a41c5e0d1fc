// Package ai provides the remote embedding and chat provider adapters.
package ai

import (
	"fmt"

	"github.com/physai/textbook-rag/internal/port"
	"github.com/physai/textbook-rag/pkg/config"
)

// NewFromConfig returns the embedding and chat providers selected by the
// AI_PROVIDER setting. A single provider instance backs both roles.
func NewFromConfig(cfg *config.Config) (port.EmbeddingProvider, port.ChatProvider, error) {
	switch cfg.AIProvider {
	case "gemini":
		if cfg.GoogleAPIKey == "" {
			return nil, nil, fmt.Errorf("GOOGLE_API_KEY is required for the gemini provider")
		}
		p := NewGeminiProvider(GeminiConfig{
			APIKey:     cfg.GoogleAPIKey,
			EmbedModel: cfg.GeminiEmbedModel,
			ChatModel:  cfg.GeminiChatModel,
		})
		return p, p, nil
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, nil, fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
		p := NewOpenAIProvider(OpenAIConfig{
			APIKey:     cfg.OpenAIAPIKey,
			EmbedModel: cfg.OpenAIEmbedModel,
			ChatModel:  cfg.OpenAIChatModel,
		})
		return p, p, nil
	default:
		return nil, nil, fmt.Errorf("unknown AI provider: %q", cfg.AIProvider)
	}
}
