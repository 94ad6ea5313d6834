package api

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"OHLCVService/internal/model"

	"github.com/gin-gonic/gin"
)

// This file serves as the main entry point for the API package. It defines the APIHandler struct and its dependencies.
// The package structure is as follows:
// - api.go: Main API handler, routes and dependencies (this file)
// - handler.go: HTTP request handlers and DTOs
// - middleware.go: Middleware functions
// - validator.go: Request validation

// Constants
const (
	DefaultTimeout      = 30 * time.Second
	ServiceVersion      = "1.0.0"
	ServiceName         = "ohlcv-service"
	RequestIDContextKey = "request_id"
	RequestIDHeaderKey  = "X-Request-ID"
)

// TradeService is the interface the HTTP layer calls into
type TradeService interface {
	IngestTrades(ctx context.Context, events []model.TradeEvent) (model.AppendResult, error)
	GetOHLCV(ctx context.Context, symbol string, start, end *time.Time, interval string) ([]model.OHLCVBar, error)
}

// APIHandler handles HTTP requests using Gin framework
type APIHandler struct {
	tradeService TradeService
	validator    *Validator
	logger       *slog.Logger
}

// NewAPIHandler creates a new API handler
func NewAPIHandler(tradeService TradeService, logger *slog.Logger) *APIHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &APIHandler{
		tradeService: tradeService,
		validator:    GetValidator(),
		logger:       logger,
	}
}

// StartServer starts the HTTP server
func (h *APIHandler) StartServer(port int) error {
	router := h.SetupRoutes()
	return router.Run(":" + strconv.Itoa(port))
}

// SetupRoutes configures all API routes
func (h *APIHandler) SetupRoutes() *gin.Engine {
	// Set Gin to release mode for production
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Add middleware
	router.Use(requestIDMiddleware())
	router.Use(ginLoggerMiddleware())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	// API routes
	router.POST("/v1/trades/ingest", h.IngestTrades)
	router.GET("/v1/stats/ohlc", h.GetOHLCV)
	router.GET("/health", h.HealthCheck)

	return router
}
