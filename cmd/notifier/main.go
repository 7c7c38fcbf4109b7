package main

import (
	"context"
	"database/sql"
	"os/signal"
	"syscall"
	"time"

	"github.com/erfajc97/anko-back/internal/config"
	"github.com/erfajc97/anko-back/internal/email"
	"github.com/erfajc97/anko-back/internal/logger"
	"github.com/erfajc97/anko-back/internal/orchestrator/notifier"
	"github.com/erfajc97/anko-back/internal/pgmq"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	logger := logger.New()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("Warning: no .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Msgf("Error loading config: %v", err)
	}

	db, err := sql.Open("postgres", cfg.DBConnectionString)
	if err != nil {
		logger.Fatal().Msgf("Failed to open DB connection: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatal().Msgf("Failed to ping DB: %v", err)
	}
	logger.Info().Msg("Database connection established")

	pgmqClient := pgmq.New(db)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// pgmq.create is a no-op for existing queues
	for _, q := range []string{cfg.EmailQueueName, cfg.EmailDeadLetterQueueName} {
		if err := pgmqClient.Exec(ctx, "SELECT pgmq.create($1)", q); err != nil {
			logger.Fatal().Msgf("Failed to create queue %s: %v", q, err)
		}
	}
	logger.Info().Msg("PGMQ client initialized")

	renderer, err := email.NewRenderer()
	if err != nil {
		logger.Fatal().Msgf("Failed to load email templates: %v", err)
	}
	if cfg.EmailAPIKey == "" {
		logger.Warn().Msg("EMAIL_API_KEY is empty; the email API will likely reject requests")
	}
	mailer := email.NewClient(cfg.EmailAPIURL, cfg.EmailAPIKey, cfg.EmailFrom, time.Duration(cfg.EmailRequestTimeoutSec)*time.Second)

	if err := notifier.Run(ctx, logger, pgmqClient, renderer, mailer, notifier.OptionsFromConfig(cfg)); err != nil {
		logger.Fatal().Msgf("notifier failed: %v", err)
	}
	logger.Info().Msg("notifier stopped gracefully")
}
