package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/orabank/digital-banking/internal/advisor"
	"github.com/orabank/digital-banking/internal/api"
	"github.com/orabank/digital-banking/internal/app"
	"github.com/orabank/digital-banking/internal/auth"
	"github.com/orabank/digital-banking/internal/config"
	"github.com/orabank/digital-banking/internal/jobs/inmemory"
	"github.com/orabank/digital-banking/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := logger.New()
		l.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Flags override the environment
	var (
		port    = flag.String("port", cfg.Port, "HTTP server port (or set PORT env)")
		backend = flag.String("store", cfg.StoreBackend, "Store backend: memory or mongo (or set STORE_BACKEND env)")
		delay   = flag.Duration("transfer-delay", cfg.TransferDelay, "Simulated transfer processing time (or set TRANSFER_DELAY env)")
	)
	flag.Parse()
	cfg.Port, cfg.StoreBackend, cfg.TransferDelay = *port, *backend, *delay

	log := logger.NewWithOptions(logger.Options{Level: cfg.LogLevel, JSON: cfg.LogJSON})
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx := logger.WithContext(context.Background(), log)

	store, closeStore, err := app.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer closeStore(context.Background())

	if cfg.GeminiAPIKey == "" {
		log.Warn().Msg("No Gemini API key configured - the assistant will answer with the fallback message")
	}
	gen, err := advisor.NewGeminiGenerator(ctx, cfg.GeminiAPIKey)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create advisory client")
	}

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, cfg.TransferWorkers, jobStore)

	bank := app.New(store, gen, jobQueue, jobStore, app.Options{
		TransferDelay:  cfg.TransferDelay,
		AdvisorTimeout: cfg.AdvisorTimeout,
	}, log)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	log.Info().Int("workers", cfg.TransferWorkers).Msg("Starting transfer worker")
	if err := jobQueue.Start(workerCtx, bank.ProcessTransfer); err != nil {
		log.Fatal().Err(err).Msg("Failed to start transfer worker")
	}

	tokens := auth.NewTokens(cfg.SessionSecret, cfg.SessionTTL)

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     api.NewRouter(bank, tokens, log),
		ReadTimeout: 15 * time.Second,
		// Assistant replies wait for the model.
		WriteTimeout: cfg.AdvisorTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Let queued transfers finish before stopping the workers
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping transfer queue")
	}
	cancelWorker()

	log.Info().Msg("Server exited")
}
