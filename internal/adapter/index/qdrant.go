// Package index provides the Qdrant-backed vector index adapter.
package index

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/physai/textbook-rag/internal/domain"
)

// upsertBatchSize caps how many points go into a single upsert request.
const upsertBatchSize = 100

// QdrantConfig holds the configuration for the Qdrant REST client.
type QdrantConfig struct {
	URL        string // e.g. http://localhost:6333
	APIKey     string // empty for unauthenticated local instances
	Collection string
	Timeout    time.Duration
}

// QdrantIndex implements port.VectorIndex over the Qdrant REST API with
// cosine distance.
type QdrantIndex struct {
	cfg        QdrantConfig
	httpClient *http.Client
}

// NewQdrantIndex creates a Qdrant-backed vector index.
func NewQdrantIndex(cfg QdrantConfig) *QdrantIndex {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &QdrantIndex{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// EnsureCollection creates the collection with the given dimension if it
// does not already exist.
func (q *QdrantIndex) EnsureCollection(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid vector dimension: %d", dimension)
	}

	exists, err := q.collectionExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	payload := map[string]interface{}{
		"vectors": map[string]interface{}{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	if _, err := q.do(ctx, http.MethodPut, "/collections/"+q.cfg.Collection, payload); err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	return nil
}

// DeleteCollection drops the collection. A missing collection is fine.
func (q *QdrantIndex) DeleteCollection(ctx context.Context) error {
	if _, err := q.do(ctx, http.MethodDelete, "/collections/"+q.cfg.Collection, nil); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	return nil
}

// Upsert stores chunks with their embedding vectors. The chunk and
// vector slices must be the same length; a mismatch fails before any
// network call. Points get fresh UUIDs, so re-ingestion relies on the
// caller recreating the collection rather than overwriting in place.
func (q *QdrantIndex) Upsert(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) (int, error) {
	if len(chunks) != len(vectors) {
		return 0, fmt.Errorf("chunk count %d does not match vector count %d", len(chunks), len(vectors))
	}

	type point struct {
		ID      string                 `json:"id"`
		Vector  []float32              `json:"vector"`
		Payload map[string]interface{} `json:"payload"`
	}

	points := make([]point, len(chunks))
	for i, chunk := range chunks {
		points[i] = point{
			ID:     uuid.New().String(),
			Vector: vectors[i],
			Payload: map[string]interface{}{
				"text":     chunk.Text,
				"source":   chunk.Source,
				"position": chunk.Position,
				"title":    chunk.Title,
			},
		}
	}

	for start := 0; start < len(points); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(points) {
			end = len(points)
		}
		payload := map[string]interface{}{"points": points[start:end]}
		if _, err := q.do(ctx, http.MethodPut, "/collections/"+q.cfg.Collection+"/points?wait=true", payload); err != nil {
			return 0, fmt.Errorf("upsert points %d-%d: %w", start, end, err)
		}
	}

	return len(points), nil
}

// Search returns up to limit chunks ranked by descending cosine
// similarity, filtered to scores at or above threshold.
func (q *QdrantIndex) Search(ctx context.Context, vector []float32, limit int, threshold float64) ([]domain.RetrievedChunk, error) {
	payload := map[string]interface{}{
		"vector":          vector,
		"limit":           limit,
		"score_threshold": threshold,
		"with_payload":    true,
	}

	body, err := q.do(ctx, http.MethodPost, "/collections/"+q.cfg.Collection+"/points/search", payload)
	if err != nil {
		return nil, fmt.Errorf("search points: %w", err)
	}

	var resp struct {
		Result []struct {
			Score   float64                `json:"score"`
			Payload map[string]interface{} `json:"payload"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	results := make([]domain.RetrievedChunk, 0, len(resp.Result))
	for _, hit := range resp.Result {
		rc := domain.RetrievedChunk{Score: hit.Score}
		if v, ok := hit.Payload["text"].(string); ok {
			rc.Text = v
		}
		if v, ok := hit.Payload["source"].(string); ok {
			rc.Source = v
		}
		if v, ok := hit.Payload["position"].(float64); ok {
			rc.Position = int(v)
		}
		if v, ok := hit.Payload["title"].(string); ok {
			rc.Title = v
		}
		results = append(results, rc)
	}
	return results, nil
}

// Info reports collection status and point counts.
func (q *QdrantIndex) Info(ctx context.Context) (domain.CollectionInfo, error) {
	body, err := q.do(ctx, http.MethodGet, "/collections/"+q.cfg.Collection, nil)
	if err != nil {
		return domain.CollectionInfo{}, fmt.Errorf("collection info: %w", err)
	}

	var resp struct {
		Result struct {
			Status       string `json:"status"`
			VectorsCount int64  `json:"vectors_count"`
			PointsCount  int64  `json:"points_count"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.CollectionInfo{}, fmt.Errorf("decode collection info: %w", err)
	}

	return domain.CollectionInfo{
		Name:        q.cfg.Collection,
		VectorCount: resp.Result.VectorsCount,
		PointCount:  resp.Result.PointsCount,
		Status:      resp.Result.Status,
	}, nil
}

func (q *QdrantIndex) collectionExists(ctx context.Context) (bool, error) {
	url := q.cfg.URL + "/collections/" + q.cfg.Collection + "/exists"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	q.setHeaders(req)

	resp, err := q.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return false, fmt.Errorf("qdrant API error (%d): %s", resp.StatusCode, string(body))
	}

	var out struct {
		Result struct {
			Exists bool `json:"exists"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, fmt.Errorf("decode exists response: %w", err)
	}
	return out.Result.Exists, nil
}

// do sends a JSON request to Qdrant and returns the raw response body.
func (q *QdrantIndex) do(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, q.cfg.URL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	q.setHeaders(req)

	resp, err := q.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("qdrant API error (%d): %s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}

func (q *QdrantIndex) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if q.cfg.APIKey != "" {
		req.Header.Set("api-key", q.cfg.APIKey)
	}
}
