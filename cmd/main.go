package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"OHLCVService/api"
	"OHLCVService/internal/config"
	"OHLCVService/internal/data"
	"OHLCVService/internal/mock"
	"OHLCVService/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.App.LogLevel)
	slog.SetDefault(logger)

	// 1. Create the file-backed event store (reloads partitions from disk)
	store, err := data.NewFileEventStore(data.StoreConfig{DataDir: cfg.Storage.DataDir})
	if err != nil {
		logger.Error("failed to open event store", "data_dir", cfg.Storage.DataDir, "error", err)
		os.Exit(1)
	}

	// 2. Create the trade service (validation, aggregation)
	tradeService := service.NewTradeService(store, logger)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("received shutdown signal, stopping", "signal", sig.String())
		if err := store.Close(); err != nil {
			logger.Error("failed to close event store", "error", err)
		}
		os.Exit(0)
	}()

	// 3. Optionally seed demo trade history
	if cfg.Seed.Enabled {
		seedDemoData(cfg, tradeService, logger)
	}

	// 4. Create API handler and start serving
	apiHandler := api.NewAPIHandler(tradeService, logger)

	logger.Info("starting server",
		"name", cfg.App.Name,
		"environment", cfg.App.Environment,
		"port", cfg.App.Port,
		"data_dir", cfg.Storage.DataDir,
	)
	fmt.Printf("Endpoints:\n")
	fmt.Printf("  POST /v1/trades/ingest\n")
	fmt.Printf("  GET  /v1/stats/ohlc?symbol=AAPL&interval=5min\n")
	fmt.Printf("  GET  /health\n")

	log.Fatal(apiHandler.StartServer(cfg.App.Port))
}

// seedDemoData ingests generated random-walk history so the query
// endpoint has data to serve on a fresh start.
func seedDemoData(cfg *config.Config, tradeService *service.TradeService, logger *slog.Logger) {
	genConfig := mock.DefaultGeneratorConfig()
	if len(cfg.Seed.Symbols) > 0 {
		genConfig.Symbols = cfg.Seed.Symbols
	}
	if cfg.Seed.HistoryMinutes > 0 {
		genConfig.HistoryMinutes = cfg.Seed.HistoryMinutes
	}

	generator := mock.NewTradeDataGeneratorWithConfig(genConfig)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for symbol, batch := range generator.GenerateHistory(time.Now().UTC()) {
		result, err := tradeService.IngestTrades(ctx, batch)
		if err != nil {
			logger.Error("failed to seed demo data", "symbol", symbol, "error", err)
			continue
		}
		logger.Info("seeded demo data", "symbol", symbol, "inserted", result.Inserted)
	}
}

// newLogger builds the process-wide slog logger at the configured level.
func newLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}
