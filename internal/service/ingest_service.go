package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/physai/textbook-rag/internal/domain"
	"github.com/physai/textbook-rag/internal/port"
	"github.com/physai/textbook-rag/internal/segment"
)

// IngestOptions configures the ingestion pipeline.
type IngestOptions struct {
	DocsDir      string
	Pattern      string // glob relative to DocsDir, e.g. "*.md" or "**/*.md"
	ChunkSize    int
	ChunkOverlap int
	VectorSize   int
}

// IngestResult summarizes an ingestion run.
type IngestResult struct {
	ChunksProcessed int      `json:"chunks_processed"`
	Files           []string `json:"files"`
}

// IngestService splits documents into chunks, embeds them, and stores
// the vectors in the index.
type IngestService struct {
	embedder *Embedder
	index    port.VectorIndex
	opts     IngestOptions
}

// NewIngestService creates a new ingestion service.
func NewIngestService(embedder *Embedder, index port.VectorIndex, opts IngestOptions) *IngestService {
	return &IngestService{embedder: embedder, index: index, opts: opts}
}

// IngestFile ingests a single named document. A missing file fails
// outright with a not-found error; there is no fallback.
func (s *IngestService) IngestFile(ctx context.Context, file string) (*IngestResult, error) {
	raw, err := segment.ReadDoc(s.opts.DocsDir, file)
	if err != nil {
		return nil, err
	}

	doc, err := segment.ParseDocument(raw, file, s.opts.ChunkSize, s.opts.ChunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", file, err)
	}

	if err := s.index.EnsureCollection(ctx, s.opts.VectorSize); err != nil {
		return nil, err
	}

	count, err := s.embedAndUpsert(ctx, doc.Chunks, nil)
	if err != nil {
		return nil, err
	}
	return &IngestResult{ChunksProcessed: count, Files: []string{file}}, nil
}

// IngestAll re-indexes the whole corpus: the collection is deleted and
// recreated, then every matching document is processed. A document that
// fails to parse is logged and skipped so one bad file does not abort
// the run. progress, if non-nil, reports embedding progress.
func (s *IngestService) IngestAll(ctx context.Context, progress func(done, total int)) (*IngestResult, error) {
	files, err := segment.ListDocs(s.opts.DocsDir, s.opts.Pattern)
	if err != nil {
		return nil, err
	}

	if err := s.Reset(ctx); err != nil {
		return nil, err
	}

	var chunks []domain.Chunk
	var processed []string
	for _, file := range files {
		raw, err := segment.ReadDoc(s.opts.DocsDir, file)
		if err != nil {
			slog.Error("skipping document", "file", file, "error", err)
			continue
		}
		doc, err := segment.ParseDocument(raw, file, s.opts.ChunkSize, s.opts.ChunkOverlap)
		if err != nil {
			slog.Error("skipping document", "file", file, "error", err)
			continue
		}
		chunks = append(chunks, doc.Chunks...)
		processed = append(processed, file)
	}

	if len(chunks) == 0 {
		return &IngestResult{Files: processed}, nil
	}

	count, err := s.embedAndUpsert(ctx, chunks, progress)
	if err != nil {
		return nil, err
	}
	return &IngestResult{ChunksProcessed: count, Files: processed}, nil
}

// Reset deletes and recreates the collection for a clean slate.
func (s *IngestService) Reset(ctx context.Context) error {
	if err := s.index.DeleteCollection(ctx); err != nil {
		// Deleting a collection that never existed is not fatal.
		slog.Warn("delete collection", "error", err)
	}
	return s.index.EnsureCollection(ctx, s.opts.VectorSize)
}

// Status reports collection state and the documents available on disk.
func (s *IngestService) Status(ctx context.Context) (domain.CollectionInfo, []string, error) {
	info, err := s.index.Info(ctx)
	if err != nil {
		return domain.CollectionInfo{}, nil, err
	}
	files, err := segment.ListDocs(s.opts.DocsDir, s.opts.Pattern)
	if err != nil {
		return info, nil, err
	}
	return info, files, nil
}

func (s *IngestService) embedAndUpsert(ctx context.Context, chunks []domain.Chunk, progress func(done, total int)) (int, error) {
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	vectors, err := s.embedder.EmbedAll(ctx, texts, progress)
	if err != nil {
		return 0, err
	}

	slog.Info("upserting chunks", "count", len(chunks))
	count, err := s.index.Upsert(ctx, chunks, vectors)
	if err != nil {
		return 0, fmt.Errorf("upsert chunks: %w", err)
	}
	return count, nil
}
