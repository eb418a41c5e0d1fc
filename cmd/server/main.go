package main

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/physai/textbook-rag/internal/adapter/ai"
	"github.com/physai/textbook-rag/internal/adapter/index"
	"github.com/physai/textbook-rag/internal/adapter/store"
	"github.com/physai/textbook-rag/internal/handler"
	"github.com/physai/textbook-rag/internal/mcp"
	"github.com/physai/textbook-rag/internal/service"
	"github.com/physai/textbook-rag/internal/util"
	"github.com/physai/textbook-rag/pkg/config"

	_ "github.com/lib/pq"
)

func main() {
	// ── Load .env file ───────────────────────────────────────────────────
	_ = godotenv.Load() // silently ignore if .env doesn't exist

	// ── Configuration ────────────────────────────────────────────────────
	cfg := config.Load()

	slog.Info("starting RAG backend",
		"port", cfg.Port,
		"ai_provider", cfg.AIProvider,
		"collection", cfg.CollectionName,
		"docs_path", cfg.DocsPath,
	)

	// ── Database ─────────────────────────────────────────────────────────
	pgStore, err := store.NewPostgresStore(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pgStore.Close()

	if err := pgStore.InitSchema(context.Background()); err != nil {
		slog.Error("failed to initialize schema", "error", err)
		os.Exit(1)
	}

	// ── Adapters ─────────────────────────────────────────────────────────
	embedProvider, chatProvider, err := ai.NewFromConfig(cfg)
	if err != nil {
		slog.Error("failed to configure AI provider", "error", err)
		os.Exit(1)
	}

	vectorIndex := index.NewQdrantIndex(index.QdrantConfig{
		URL:        cfg.QdrantURL,
		APIKey:     cfg.QdrantAPIKey,
		Collection: cfg.CollectionName,
	})

	if err := vectorIndex.EnsureCollection(context.Background(), cfg.VectorSize); err != nil {
		slog.Error("failed to initialize vector collection", "error", err)
		os.Exit(1)
	}

	// ── Services ─────────────────────────────────────────────────────────
	embedder := service.NewEmbedder(embedProvider, cfg.EmbedMaxChars, cfg.EmbedPacing, util.Backoff{
		Initial:     cfg.EmbedRetryDelay,
		Max:         cfg.EmbedRetryMax,
		MaxAttempts: cfg.EmbedMaxAttempts,
	})

	ragService := service.NewRAGService(embedder, vectorIndex, chatProvider, service.RAGOptions{
		ScoreThreshold: cfg.ScoreThreshold,
		RetrieveLimit:  cfg.RetrieveLimit,
		HistoryTurns:   cfg.HistoryTurns,
	})

	ingestService := service.NewIngestService(embedder, vectorIndex, service.IngestOptions{
		DocsDir:      cfg.DocsPath,
		Pattern:      cfg.DocsGlob,
		ChunkSize:    cfg.ChunkSize,
		ChunkOverlap: cfg.ChunkOverlap,
		VectorSize:   cfg.VectorSize,
	})

	// ── Fiber App ────────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // full-corpus ingestion is slow by design
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Split(cfg.CORSOrigins, ","),
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
	}))

	// ── Routes ───────────────────────────────────────────────────────────
	app.Get("/api/health", func(c fiber.Ctx) error {
		dbStatus := "connected"
		if err := pgStore.Ping(c.Context()); err != nil {
			dbStatus = "unavailable"
		}
		vectorStatus := "connected"
		if _, err := vectorIndex.Info(c.Context()); err != nil {
			vectorStatus = "unavailable"
		}
		return c.JSON(fiber.Map{
			"status":   "healthy",
			"app":      cfg.AppName,
			"database": dbStatus,
			"vectordb": vectorStatus,
		})
	})

	api := app.Group("/api")

	chatHandler := handler.NewChatHandler(ragService, pgStore)
	chatHandler.Register(api)

	ingestHandler := handler.NewIngestHandler(ingestService)
	ingestHandler.Register(api)

	// ── MCP Server (separate port) ───────────────────────────────────────
	if cfg.MCPEnabled {
		mcpServer := mcp.NewServer(ragService, ingestService, cfg.MCPPort)
		go func() {
			if err := mcpServer.Start(); err != nil {
				slog.Error("MCP server failed", "error", err)
			}
		}()
	}

	// ── Start ────────────────────────────────────────────────────────────
	slog.Info("listening", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
