package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"maildesk/internal/ai"
	"maildesk/internal/cache"
	"maildesk/internal/cases"
	"maildesk/internal/classifier"
	"maildesk/internal/config"
	"maildesk/internal/database"
	"maildesk/internal/departments"
	"maildesk/internal/drafter"
	"maildesk/internal/knowledge"
	"maildesk/internal/mailbox"
	"maildesk/internal/notifier"
	"maildesk/internal/processor"
	"maildesk/internal/server"

	"github.com/robfig/cron/v3"
)

// embeddingDims matches the OpenAI text-embedding-3-small output size
const embeddingDims = 1536

func main() {
	cfg := config.Load()
	logger := cfg.SetupLogger()

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()

	if err := database.EnsureSchema(db); err != nil {
		logger.Fatal().Err(err).Msg("schema setup failed")
	}
	if err := database.SeedDepartments(db, cfg.SeedDepartments); err != nil {
		logger.Fatal().Err(err).Msg("department seeding failed")
	}

	aiClient, err := ai.NewClient(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("AI client setup failed")
	}

	store := cases.NewStore(db, logger)
	directory := departments.NewDirectory(db, cache.New(), cfg.FallbackDepartment, logger)

	startupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	labels, err := directory.Names(startupCtx)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load departments")
	}

	know, err := knowledge.NewStore(cfg.QdrantHost, cfg.QdrantPort, cfg.QdrantAPIKey,
		cfg.QdrantUseTLS, cfg.QdrantCollection, aiClient, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("qdrant setup failed")
	}
	startupCtx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	if err := know.EnsureCollection(startupCtx, embeddingDims); err != nil {
		// Retrieval degrades to empty context until Qdrant comes back
		logger.Warn().Err(err).Msg("qdrant collection check failed")
	}
	cancel()

	gateway := mailbox.NewGateway(cfg.IMAPHost, cfg.IMAPPort, cfg.IMAPUsername,
		cfg.IMAPPassword, cfg.IMAPMailbox, logger)
	defer gateway.Close()

	send := notifier.New(cfg.SendGridAPIKey, cfg.FromEmail, cfg.FromName, logger)
	callTimeout := time.Duration(cfg.CallTimeoutSeconds) * time.Second

	engine := processor.NewEngine(
		classifier.New(aiClient, labels, logger),
		directory,
		know,
		drafter.New(aiClient, logger),
		send,
		store,
		cfg.ConfidenceThreshold,
		cfg.UrgentSubjectMarker,
		callTimeout,
		logger,
	)
	proc := processor.New(gateway, engine, store, callTimeout, logger)

	scheduler := cron.New()
	_, err = scheduler.AddFunc(fmt.Sprintf("@every %ds", cfg.PollIntervalSeconds), func() {
		runCtx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		summary, err := proc.RunOnce(runCtx)
		if err != nil {
			logger.Error().Err(err).Msg("scheduled run failed")
			return
		}
		if summary.Fetched > 0 {
			logger.Info().
				Int("fetched", summary.Fetched).
				Int("processed", summary.Processed).
				Int("failed", summary.Failed).
				Msg("scheduled run finished")
		}
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("scheduler setup failed")
	}
	scheduler.Start()

	srv := server.New(cfg, db, store, directory, know, proc, logger)
	srv.Initialize()

	go func() {
		if err := srv.Start(); err != nil {
			logger.Error().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	cronCtx := scheduler.Stop()
	<-cronCtx.Done() // let an in-flight run finish

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
}
