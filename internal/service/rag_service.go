package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/physai/textbook-rag/internal/domain"
	"github.com/physai/textbook-rag/internal/port"
)

// NoContextSentinel is returned by FormatContext when retrieval found
// nothing, so the generator can disclose the gap instead of guessing.
const NoContextSentinel = "No relevant context found in the documentation."

// sourceExcerptLimit bounds the chunk excerpt stored in a source
// reference.
const sourceExcerptLimit = 200

// systemPrompt frames the assistant for the documentation corpus.
const systemPrompt = `You are a helpful AI assistant for a technical documentation corpus.

Your role is to:
1. Answer questions about concepts covered in the documentation
2. Help readers understand complex topics with clear explanations
3. Provide code examples when relevant

When answering:
- Use the provided context from the documentation to give accurate answers
- If the context doesn't contain enough information, say so honestly
- Keep explanations clear and accessible
- Reference specific documents when relevant

If the user has highlighted specific text, focus your answer on that selection while using the broader context for support.`

// RAGOptions tunes retrieval and prompt assembly.
type RAGOptions struct {
	ScoreThreshold float64 // minimum cosine similarity for retrieved chunks
	RetrieveLimit  int     // top-K chunks per query
	HistoryTurns   int     // most recent conversation turns kept in the prompt
}

// RAGService handles retrieval-augmented generation over the indexed
// documentation corpus.
type RAGService struct {
	embedder *Embedder
	index    port.VectorIndex
	chat     port.ChatProvider
	opts     RAGOptions
}

// NewRAGService creates a new RAG service.
func NewRAGService(embedder *Embedder, index port.VectorIndex, chat port.ChatProvider, opts RAGOptions) *RAGService {
	if opts.RetrieveLimit <= 0 {
		opts.RetrieveLimit = 5
	}
	if opts.HistoryTurns <= 0 {
		opts.HistoryTurns = 6
	}
	return &RAGService{embedder: embedder, index: index, chat: chat, opts: opts}
}

// buildSearchQuery combines the query with optional highlighted text so
// the embedding captures both intents.
func buildSearchQuery(query, selectedText string) string {
	if selectedText == "" {
		return query
	}
	return query + "\n\nContext from highlighted text: " + selectedText
}

// Retrieve embeds the search query and returns the most similar chunks
// at or above the configured score threshold, ranked by the index.
func (s *RAGService) Retrieve(ctx context.Context, query, selectedText string) ([]domain.RetrievedChunk, error) {
	queryVector, err := s.embedder.EmbedOne(ctx, buildSearchQuery(query, selectedText))
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	chunks, err := s.index.Search(ctx, queryVector, s.opts.RetrieveLimit, s.opts.ScoreThreshold)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	return chunks, nil
}

// FormatContext renders retrieved chunks into the grounding context
// block handed to the model. Chunks must arrive already ranked.
func FormatContext(chunks []domain.RetrievedChunk) string {
	if len(chunks) == 0 {
		return NoContextSentinel
	}

	parts := make([]string, len(chunks))
	for i, chunk := range chunks {
		parts[i] = fmt.Sprintf("[Source %d: %s (%s)]\n%s", i+1, chunk.Title, chunk.Source, chunk.Text)
	}
	return strings.Join(parts, "\n\n---\n\n")
}

// BuildPrompt assembles the full prompt in a fixed section order:
// system instructions, recent history, highlighted text, the question,
// the formatted context, and a closing instruction.
func (s *RAGService) BuildPrompt(query, contextBlock string, history []domain.ConversationTurn, selectedText string) string {
	var b strings.Builder
	b.WriteString(systemPrompt)
	b.WriteString("\n\n")

	if len(history) > 0 {
		recent := history
		if len(recent) > s.opts.HistoryTurns {
			recent = recent[len(recent)-s.opts.HistoryTurns:]
		}
		b.WriteString("Previous conversation:\n")
		for _, turn := range recent {
			role := "Assistant"
			if turn.Role == domain.RoleUser {
				role = "User"
			}
			fmt.Fprintf(&b, "%s: %s\n", role, turn.Content)
		}
		b.WriteString("\n")
	}

	if selectedText != "" {
		fmt.Fprintf(&b, "The user has highlighted the following text:\n```\n%s\n```\n\n", selectedText)
	}

	fmt.Fprintf(&b, "Question: %s\n\n", query)
	fmt.Fprintf(&b, "Relevant context from the documentation:\n%s\n\n", contextBlock)
	b.WriteString("Please provide a helpful answer based on the context above.")

	return b.String()
}

// Chat runs the full pipeline: retrieve, assemble, generate. It returns
// the answer plus source references with excerpts bounded to
// sourceExcerptLimit characters.
func (s *RAGService) Chat(ctx context.Context, query, selectedText string, history []domain.ConversationTurn) (string, []domain.SourceReference, error) {
	slog.Info("RAG chat", "query_len", len(query), "history", len(history), "model", s.chat.ModelName())

	chunks, err := s.Retrieve(ctx, query, selectedText)
	if err != nil {
		return "", nil, err
	}

	prompt := s.BuildPrompt(query, FormatContext(chunks), history, selectedText)

	answer, err := s.chat.Complete(ctx, prompt)
	if err != nil {
		return "", nil, fmt.Errorf("generate response: %w", err)
	}

	sources := make([]domain.SourceReference, len(chunks))
	for i, chunk := range chunks {
		excerpt := chunk.Text
		if len(excerpt) > sourceExcerptLimit {
			excerpt = truncateRunes(excerpt, sourceExcerptLimit) + "..."
		}
		score := chunk.Score
		sources[i] = domain.SourceReference{
			File:  chunk.Source,
			Chunk: excerpt,
			Score: &score,
		}
	}

	return answer, sources, nil
}
