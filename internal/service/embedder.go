package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/physai/textbook-rag/internal/port"
	"github.com/physai/textbook-rag/internal/util"
)

// Embedder wraps an embedding provider with input truncation, a
// per-call retry layer for rate-limit rejections, and steady pacing
// between batch calls. Two distinct provider limits drive the design: a
// soft steady-state rate handled by pacing, and hard burst rejections
// handled by exponential backoff.
type Embedder struct {
	provider port.EmbeddingProvider
	maxChars int
	pacing   time.Duration
	backoff  util.Backoff

	// sleep is swapped out in tests to avoid real waiting.
	sleep func(time.Duration)
}

// NewEmbedder creates an embedder around the given provider.
func NewEmbedder(provider port.EmbeddingProvider, maxChars int, pacing time.Duration, backoff util.Backoff) *Embedder {
	return &Embedder{
		provider: provider,
		maxChars: maxChars,
		pacing:   pacing,
		backoff:  backoff,
		sleep:    time.Sleep,
	}
}

// EmbedOne embeds a single text. The text is silently truncated to the
// provider's input budget. Rate-limit rejections are retried with
// doubling delay up to the policy's attempt count; any other error
// propagates immediately.
func (e *Embedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	text = truncateRunes(text, e.maxChars)

	var lastErr error
	for attempt := 0; attempt < e.backoff.MaxAttempts; attempt++ {
		vector, err := e.provider.Embed(ctx, text)
		if err == nil {
			return vector, nil
		}
		if !errors.Is(err, port.ErrRateLimited) {
			return nil, err
		}
		lastErr = err

		if attempt < e.backoff.MaxAttempts-1 {
			delay := e.backoff.Delay(attempt)
			slog.Warn("embedding rate limited, backing off",
				"delay", delay,
				"attempt", attempt+2,
				"max_attempts", e.backoff.MaxAttempts,
			)
			e.sleep(delay)
		}
	}

	return nil, fmt.Errorf("embed after %d attempts: %w", e.backoff.MaxAttempts, lastErr)
}

// truncateRunes cuts s to at most max bytes without splitting a rune,
// so truncated text stays valid UTF-8.
func truncateRunes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

// EmbedAll embeds texts sequentially with a fixed pacing delay between
// provider calls, returning vectors in input order. A failure on any
// text aborts the whole batch: partial ingestion would leave the index
// inconsistent with the source set. progress, if non-nil, is called
// after each embedded text.
func (e *Embedder) EmbedAll(ctx context.Context, texts []string, progress func(done, total int)) ([][]float32, error) {
	slog.Info("generating embeddings", "count", len(texts))

	vectors := make([][]float32, 0, len(texts))
	for i, text := range texts {
		if i > 0 {
			e.sleep(e.pacing)
		}
		vector, err := e.EmbedOne(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed text %d/%d: %w", i+1, len(texts), err)
		}
		vectors = append(vectors, vector)
		if progress != nil {
			progress(i+1, len(texts))
		}
	}

	slog.Info("embeddings generated", "count", len(vectors))
	return vectors, nil
}
