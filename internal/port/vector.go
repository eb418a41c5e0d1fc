package port

import (
	"context"

	"github.com/physai/textbook-rag/internal/domain"
)

// VectorIndex abstracts the nearest-neighbor store holding chunk vectors.
type VectorIndex interface {
	// EnsureCollection creates the collection with the given vector
	// dimension if it does not already exist.
	EnsureCollection(ctx context.Context, dimension int) error

	// DeleteCollection drops the collection. Deleting a missing
	// collection is not an error.
	DeleteCollection(ctx context.Context) error

	// Upsert stores chunks with their vectors. len(chunks) must equal
	// len(vectors); a mismatch fails before any network call.
	Upsert(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) (int, error)

	// Search returns up to limit chunks ranked by descending cosine
	// similarity, filtered to scores at or above threshold.
	Search(ctx context.Context, vector []float32, limit int, threshold float64) ([]domain.RetrievedChunk, error)

	// Info reports collection status and point counts.
	Info(ctx context.Context) (domain.CollectionInfo, error)
}
