// Command ingest-docs bulk-loads a directory of knowledge documents into the
// vector store. Each immediate subdirectory names the owning department:
//
//	docs/Finance/refunds.md -> department "Finance"
package main

import (
	"context"
	"flag"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"maildesk/internal/ai"
	"maildesk/internal/config"
	"maildesk/internal/database"
	"maildesk/internal/knowledge"
)

const embeddingDims = 1536

func main() {
	dir := flag.String("dir", "docs", "directory of department subdirectories with .txt/.md files")
	flag.Parse()

	cfg := config.Load()
	logger := cfg.SetupLogger()

	aiClient, err := ai.NewClient(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("AI client setup failed")
	}

	know, err := knowledge.NewStore(cfg.QdrantHost, cfg.QdrantPort, cfg.QdrantAPIKey,
		cfg.QdrantUseTLS, cfg.QdrantCollection, aiClient, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("qdrant setup failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	if err := know.EnsureCollection(ctx, embeddingDims); err != nil {
		logger.Fatal().Err(err).Msg("qdrant collection setup failed")
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		logger.Warn().Err(err).Msg("database unavailable, skipping document records")
		db = nil
	} else {
		defer db.Close()
		if err := database.EnsureSchema(db); err != nil {
			logger.Fatal().Err(err).Msg("schema setup failed")
		}
	}

	start := time.Now()
	indexed := 0
	err = filepath.WalkDir(*dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".txt" && ext != ".md" {
			return nil
		}

		rel, err := filepath.Rel(*dir, path)
		if err != nil {
			return err
		}
		department := cfg.FallbackDepartment
		if parts := strings.Split(filepath.ToSlash(rel), "/"); len(parts) > 1 {
			department = parts[0]
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		chunks, err := know.IndexDocument(ctx, d.Name(), department, string(content))
		if err != nil {
			logger.Error().Err(err).Str("file", path).Msg("indexing failed, skipping")
			return nil
		}
		if db != nil {
			query := db.Rebind(`INSERT INTO knowledge_docs (filename, department, chunk_count) VALUES (?, ?, ?)`)
			if _, err := db.ExecContext(ctx, query, d.Name(), department, chunks); err != nil {
				logger.Error().Err(err).Str("file", path).Msg("failed to record document")
			}
		}
		indexed++
		return nil
	})
	if err != nil {
		logger.Fatal().Err(err).Str("dir", *dir).Msg("document walk failed")
	}

	logger.Info().
		Int("documents", indexed).
		Dur("duration", time.Since(start)).
		Msg("ingestion complete")
}
