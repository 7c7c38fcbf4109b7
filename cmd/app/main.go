package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/erfajc97/anko-back/internal/api/v1/handler"
	"github.com/erfajc97/anko-back/internal/api/v1/router"
	"github.com/erfajc97/anko-back/internal/config"
	"github.com/erfajc97/anko-back/internal/jobs"
	"github.com/erfajc97/anko-back/internal/logger"
	"github.com/erfajc97/anko-back/internal/middleware"
	"github.com/erfajc97/anko-back/internal/notify"
	"github.com/erfajc97/anko-back/internal/pgmq"
	"github.com/erfajc97/anko-back/internal/repository"
	"github.com/erfajc97/anko-back/internal/service"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

func main() {
	logger := logger.New()

	// 1. Load configuration
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("Warning: no .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Msgf("Error loading config: %v", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal().Msgf("Invalid studio timezone: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Database
	if cfg.MigrateOnStart {
		if err := repository.Migrate(cfg.DBConnectionString); err != nil {
			logger.Fatal().Msgf("Failed to apply migrations: %v", err)
		}
		logger.Info().Msg("Migrations applied")
	}

	pool, err := repository.OpenPool(ctx, cfg.DBConnectionString, cfg.DBMaxConns)
	if err != nil {
		logger.Fatal().Msgf("Failed to open DB pool: %v", err)
	}
	defer pool.Close()
	logger.Info().Msg("Database connection successful")

	// The email queue shares the pool through database/sql.
	queueDB := stdlib.OpenDBFromPool(pool)
	defer queueDB.Close()
	notifier := notify.NewQueueNotifier(pgmq.New(queueDB), cfg.EmailQueueName)

	// 3. Repositories & services
	tx := repository.NewTransactor(pool, cfg.TxMaxAttempts, logger)
	userRepo := repository.NewUserRepo(pool)
	teacherRepo := repository.NewTeacherRepo(pool)
	packageRepo := repository.NewClassPackageRepo(pool)
	creditRepo := repository.NewUserPackageRepo(pool)
	scheduleRepo := repository.NewScheduleRepo(pool)
	bookingRepo := repository.NewBookingRepo(pool)
	paymentRepo := repository.NewPaymentRepo(pool)
	reportRepo := repository.NewReportRepo(pool)

	settings := service.StudioSettings{
		Location:  loc,
		Days:      cfg.CalendarDays,
		OpenHour:  cfg.CalendarOpenHour,
		CloseHour: cfg.CalendarCloseHour,
	}
	tokens := service.NewTokenIssuer(service.TokenConfig{
		AccessSecret:  cfg.JWTSecret,
		RefreshSecret: cfg.RefreshSecret(),
		AccessTTL:     cfg.JWTAccessTTL,
		RefreshTTL:    cfg.JWTRefreshTTL,
	})

	ledger := service.NewCreditLedger(tx, creditRepo, packageRepo, userRepo, notifier, logger)
	authSvc := service.NewAuthService(userRepo, tokens, notifier, cfg.FrontendURL, logger)
	userSvc := service.NewUserService(userRepo)
	teacherSvc := service.NewTeacherService(teacherRepo, logger)
	packageSvc := service.NewPackageService(packageRepo, logger)
	scheduleSvc := service.NewScheduleService(tx, scheduleRepo, teacherRepo, bookingRepo, ledger, notifier, settings, logger)
	calendarSvc := service.NewCalendarService(scheduleRepo, bookingRepo, creditRepo, settings, logger)
	bookingSvc := service.NewBookingService(tx, bookingRepo, scheduleRepo, userRepo, ledger, notifier, settings, logger)
	paymentSvc := service.NewPaymentService(tx, paymentRepo, packageRepo, userRepo, ledger, notifier, logger)
	reportSvc := service.NewReportService(reportRepo, settings, logger)

	// 4. Handlers & router
	validate := handler.NewValidator()
	handlers := router.Handlers{
		Auth:        handler.NewAuthHandler(authSvc, validate, logger),
		User:        handler.NewUserHandler(userSvc, validate, logger),
		Catalog:     handler.NewCatalogHandler(teacherSvc, packageSvc, validate, logger),
		UserPackage: handler.NewUserPackageHandler(ledger, validate, logger),
		Schedule:    handler.NewScheduleHandler(scheduleSvc, calendarSvc, loc, validate, logger),
		Booking:     handler.NewBookingHandler(bookingSvc, validate, logger),
		Payment:     handler.NewPaymentHandler(paymentSvc, validate, logger),
		Report:      handler.NewReportHandler(reportSvc, loc, logger),
	}
	limiter := middleware.NewIPRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	r := router.New(cfg, tokens, limiter, pool, handlers, logger)

	// 5. Background jobs
	scheduler := jobs.NewScheduler(loc, logger)
	if err := scheduler.AddPaymentSweep(cfg.PaymentSweepSpec, paymentSvc, cfg.PaymentPendingTTL); err != nil {
		logger.Fatal().Msgf("Failed to schedule payment sweep: %v", err)
	}
	if err := scheduler.AddSweep("@every 5m", "rate_limiter", limiter); err != nil {
		logger.Fatal().Msgf("Failed to schedule limiter sweep: %v", err)
	}
	scheduler.Start()

	// 6. Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Msgf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Msgf("Listen: %s", err)
		}
	}()

	// 7. Graceful shutdown
	<-ctx.Done()
	logger.Info().Msg("Shutdown signal received, exiting...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Msgf("Server forced to shutdown: %v", err)
	}
	scheduler.Stop(shutdownCtx)
	logger.Info().Msg("Server shut down gracefully")
}
