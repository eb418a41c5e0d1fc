package handler

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/physai/textbook-rag/internal/service"
	"github.com/physai/textbook-rag/internal/util"
)

func newIngestApp(t *testing.T, index *stubIndex, docs map[string]string) *fiber.App {
	t.Helper()
	dir := t.TempDir()
	for name, content := range docs {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}

	embedder := service.NewEmbedder(stubEmbedProvider{}, 5000, 0, util.Backoff{
		Initial: time.Millisecond, Max: time.Millisecond, MaxAttempts: 1,
	})
	ingest := service.NewIngestService(embedder, index, service.IngestOptions{
		DocsDir:      dir,
		Pattern:      "*.md",
		ChunkSize:    500,
		ChunkOverlap: 50,
		VectorSize:   768,
	})

	app := fiber.New()
	NewIngestHandler(ingest).Register(app.Group("/api"))
	return app
}

func TestIngest_WholeCorpus(t *testing.T) {
	app := newIngestApp(t, &stubIndex{}, map[string]string{
		"a.md": "---\ntitle: A\n---\nAlpha content.",
		"b.md": "---\ntitle: B\n---\nBeta content.",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/ingest", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, float64(2), body["chunks_processed"])
	assert.Len(t, body["files"].([]interface{}), 2)
}

func TestIngest_SingleFile(t *testing.T) {
	app := newIngestApp(t, &stubIndex{}, map[string]string{
		"a.md": "---\ntitle: A\n---\nAlpha content.",
	})

	resp := postJSON(t, app, "/api/ingest", map[string]string{"file": "a.md"})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, []interface{}{"a.md"}, body["files"])
}

func TestIngest_MissingFileIs404(t *testing.T) {
	app := newIngestApp(t, &stubIndex{}, nil)

	resp := postJSON(t, app, "/api/ingest", map[string]string{"file": "nope.md"})

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestIngestStatus(t *testing.T) {
	app := newIngestApp(t, &stubIndex{}, map[string]string{"a.md": "content"})

	req := httptest.NewRequest(http.MethodGet, "/api/ingest/status", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, float64(1), body["docs_count"])
	assert.Equal(t, []interface{}{"a.md"}, body["available_docs"])
}

func TestIngestClear(t *testing.T) {
	app := newIngestApp(t, &stubIndex{}, nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/ingest", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "success", body["status"])
}
