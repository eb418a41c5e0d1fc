// Command ingest runs the document ingestion pipeline from the terminal,
// without going through the HTTP API.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/physai/textbook-rag/internal/adapter/ai"
	"github.com/physai/textbook-rag/internal/adapter/index"
	"github.com/physai/textbook-rag/internal/service"
	"github.com/physai/textbook-rag/internal/util"
	"github.com/physai/textbook-rag/pkg/config"
)

var file string

var rootCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest documentation into the vector index",
	Long: `Ingest splits markdown documents into overlapping chunks, embeds them,
and stores the vectors in Qdrant for retrieval.

Without flags the whole corpus is re-indexed from a clean collection.
With --file only the named document is ingested.`,
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVarP(&file, "file", "f", "", "single document to ingest (relative to docs path)")
}

func run(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx := context.Background()

	fmt.Printf("Docs path:  %s\n", cfg.DocsPath)
	fmt.Printf("Provider:   %s\n", cfg.AIProvider)
	fmt.Printf("Collection: %s\n\n", cfg.CollectionName)

	embedProvider, _, err := ai.NewFromConfig(cfg)
	if err != nil {
		return err
	}

	vectorIndex := index.NewQdrantIndex(index.QdrantConfig{
		URL:        cfg.QdrantURL,
		APIKey:     cfg.QdrantAPIKey,
		Collection: cfg.CollectionName,
	})

	embedder := service.NewEmbedder(embedProvider, cfg.EmbedMaxChars, cfg.EmbedPacing, util.Backoff{
		Initial:     cfg.EmbedRetryDelay,
		Max:         cfg.EmbedRetryMax,
		MaxAttempts: cfg.EmbedMaxAttempts,
	})

	ingestService := service.NewIngestService(embedder, vectorIndex, service.IngestOptions{
		DocsDir:      cfg.DocsPath,
		Pattern:      cfg.DocsGlob,
		ChunkSize:    cfg.ChunkSize,
		ChunkOverlap: cfg.ChunkOverlap,
		VectorSize:   cfg.VectorSize,
	})

	var result *service.IngestResult
	if file != "" {
		result, err = ingestService.IngestFile(ctx, file)
	} else {
		var bar *progressbar.ProgressBar
		progress := func(done, total int) {
			if bar == nil {
				bar = progressbar.NewOptions(total,
					progressbar.OptionSetDescription("Embedding"),
					progressbar.OptionSetWidth(40),
					progressbar.OptionShowCount(),
					progressbar.OptionOnCompletion(func() {
						fmt.Println()
					}),
				)
			}
			bar.Set(done)
		}
		result, err = ingestService.IngestAll(ctx, progress)
	}
	if err != nil {
		return err
	}

	fmt.Printf("\nIngestion complete: %d chunks from %d file(s)\n", result.ChunksProcessed, len(result.Files))
	for _, f := range result.Files {
		fmt.Printf("  - %s\n", f)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("ingestion failed", "error", err)
		os.Exit(1)
	}
}
