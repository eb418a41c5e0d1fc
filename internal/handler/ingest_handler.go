package handler

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"github.com/physai/textbook-rag/internal/port"
	"github.com/physai/textbook-rag/internal/service"
)

// IngestHandler handles document ingestion endpoints.
type IngestHandler struct {
	ingest *service.IngestService
}

// NewIngestHandler creates a new ingest handler.
func NewIngestHandler(ingest *service.IngestService) *IngestHandler {
	return &IngestHandler{ingest: ingest}
}

// Register sets up ingestion routes.
func (h *IngestHandler) Register(router fiber.Router) {
	ingest := router.Group("/ingest")
	ingest.Post("", h.Ingest)
	ingest.Get("/status", h.Status)
	ingest.Delete("", h.Clear)
}

// Ingest processes documents into the vector index. With a file in the
// body only that document is ingested; otherwise the whole corpus is
// re-indexed from a clean collection.
func (h *IngestHandler) Ingest(c fiber.Ctx) error {
	var body struct {
		File string `json:"file"`
	}
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
	}

	var (
		result *service.IngestResult
		err    error
	)
	if body.File != "" {
		result, err = h.ingest.IngestFile(c.Context(), body.File)
	} else {
		result, err = h.ingest.IngestAll(c.Context(), nil)
	}
	if err != nil {
		if errors.Is(err, port.ErrDocumentNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		slog.Error("ingestion failed", "file", body.File, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "ingestion failed"})
	}

	return c.JSON(fiber.Map{
		"status":           "success",
		"chunks_processed": result.ChunksProcessed,
		"files":            result.Files,
		"message":          fmt.Sprintf("ingested %d chunks from %d file(s)", result.ChunksProcessed, len(result.Files)),
	})
}

// Status reports the collection state and the documents available on
// disk.
func (h *IngestHandler) Status(c fiber.Ctx) error {
	info, docs, err := h.ingest.Status(c.Context())
	if err != nil {
		return c.JSON(fiber.Map{
			"error":          err.Error(),
			"collection":     nil,
			"available_docs": []string{},
		})
	}

	return c.JSON(fiber.Map{
		"collection":     info,
		"available_docs": docs,
		"docs_count":     len(docs),
	})
}

// Clear drops and recreates the collection for re-ingestion.
func (h *IngestHandler) Clear(c fiber.Ctx) error {
	if err := h.ingest.Reset(c.Context()); err != nil {
		slog.Error("clear collection failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to clear collection"})
	}
	return c.JSON(fiber.Map{"status": "success", "message": "collection cleared and recreated"})
}
