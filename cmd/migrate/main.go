package main

import (
	"flag"

	"github.com/erfajc97/anko-back/internal/config"
	"github.com/erfajc97/anko-back/internal/logger"
	"github.com/erfajc97/anko-back/internal/repository"

	"github.com/joho/godotenv"
)

func main() {
	down := flag.Int("down", 0, "Roll back this many migrations instead of applying pending ones")
	flag.Parse()

	logger := logger.New()
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("Warning: no .env file found")
	}
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Msgf("Error loading config: %v", err)
	}

	if *down > 0 {
		if err := repository.MigrateDown(cfg.DBConnectionString, *down); err != nil {
			logger.Fatal().Msgf("Rollback failed: %v", err)
		}
		logger.Info().Int("steps", *down).Msg("Migrations rolled back")
		return
	}
	if err := repository.Migrate(cfg.DBConnectionString); err != nil {
		logger.Fatal().Msgf("Migration failed: %v", err)
	}
	logger.Info().Msg("Migrations applied")
}
