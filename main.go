package main

import (
	"context"
	"errors"
	"log" // Only for fatal errors before the logger is set up
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"signalRadar/config"
	"signalRadar/internal/adapters/binanceclient"
	"signalRadar/internal/adapters/logger"
	"signalRadar/internal/adapters/sqlite"
	"signalRadar/internal/api"
	"signalRadar/internal/app"
	"signalRadar/internal/strategy"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	// 2. Initialize Logger
	appLogger := logger.New(logger.ParseLevel(cfg.LogLevel))
	ctx := context.Background()
	appLogger.Info(ctx, "Logger initialized", map[string]interface{}{"level": cfg.LogLevel})

	// 3. Initialize Repository (Database Adapter)
	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize database repository: %v", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			appLogger.Error(ctx, err, "Error closing database repository")
		}
	}()

	// 4. Initialize Exchange Client (Binance Adapter)
	client, err := binanceclient.New(binanceclient.Config{
		BaseURL:        cfg.BaseURL,
		MaxConcurrency: cfg.MaxConcurrency,
		Logger:         appLogger,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize Binance client: %v", err)
	}

	// 5. Initialize Signal Engine
	engine, err := strategy.New(strategy.Config{
		TopN:             cfg.TopN,
		EntryTimeframe:   cfg.EntryTimeframe,
		MaxSpreadPercent: cfg.MaxSpreadPercent,
		Whitelist:        cfg.SymbolWhitelist,
		MinQuoteVolume:   cfg.MinQuoteVolume,
	}, client, appLogger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize signal engine: %v", err)
	}

	// 6. Initialize Signal Service
	service, err := app.NewSignalService(appLogger, engine, repo)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize signal service: %v", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLogger.Info(runCtx, "Received shutdown signal", map[string]interface{}{"signal": sig.String()})
		cancel()
	}()

	// 7. Hydrate the store from the latest persisted snapshot, then start the
	// refresh loop (eager first cycle inside Run).
	service.Hydrate(runCtx)
	go service.Run(runCtx, cfg.RefreshInterval)

	// 8. Serve the API
	server := api.NewServer(api.NewHandler(appLogger, service, repo, client))
	go func() {
		appLogger.Info(runCtx, "HTTP API listening", map[string]interface{}{"addr": cfg.HTTPAddr})
		if err := server.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error(runCtx, err, "HTTP server stopped unexpectedly")
			cancel()
		}
	}()

	<-runCtx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(shutdownCtx, err, "HTTP server shutdown failed")
	}
	appLogger.Info(ctx, "Application finished gracefully.")
}
