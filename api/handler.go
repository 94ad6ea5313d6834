package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"OHLCVService/internal/core"
	"OHLCVService/internal/model"

	"github.com/gin-gonic/gin"
)

// tradeEventRequest is one trade in an ingest request body.
// Timestamps are RFC 3339 / ISO 8601.
type tradeEventRequest struct {
	Timestamp time.Time `json:"timestamp"`
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Volume    int64     `json:"volume"`
}

type ingestRequest struct {
	Trades []tradeEventRequest `json:"trades"`
}

type ingestResponse struct {
	Status            string `json:"status"`
	Message           string `json:"message"`
	Symbol            string `json:"symbol"`
	RecordsIngested   int    `json:"records_ingested"`
	DuplicatesSkipped int    `json:"duplicates_skipped"`
}

type ohlcvRecord struct {
	Timestamp string  `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    int64   `json:"volume"`
}

type ohlcvResponse struct {
	Symbol   string        `json:"symbol"`
	Interval string        `json:"interval"`
	Data     []ohlcvRecord `json:"data"`
}

// IngestTrades handles POST /v1/trades/ingest requests
func (h *APIHandler) IngestTrades(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), DefaultTimeout)
	defer cancel()

	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, err, http.StatusBadRequest, "malformed request body")
		return
	}

	events, err := h.validator.ValidateIngestRequest(req.Trades)
	if err != nil {
		h.handleValidationError(c, err)
		return
	}

	result, err := h.tradeService.IngestTrades(ctx, events)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ingestResponse{
		Status:            "success",
		Message:           ingestMessage(result),
		Symbol:            events[0].Symbol,
		RecordsIngested:   result.Inserted,
		DuplicatesSkipped: result.Duplicates,
	})
}

// GetOHLCV handles GET /v1/stats/ohlc requests
func (h *APIHandler) GetOHLCV(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), DefaultTimeout)
	defer cancel()

	symbol := c.Query("symbol")
	startParam := c.Query("start")
	endParam := c.Query("end")
	interval := c.DefaultQuery("interval", core.DefaultInterval)

	cleanSymbol, start, end, err := h.validator.ValidateOHLCVRequest(symbol, startParam, endParam)
	if err != nil {
		h.handleValidationError(c, err)
		return
	}

	bars, err := h.tradeService.GetOHLCV(ctx, cleanSymbol, start, end, interval)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	data := make([]ohlcvRecord, 0, len(bars))
	for _, bar := range bars {
		data = append(data, ohlcvRecord{
			Timestamp: time.UnixMilli(bar.Timestamp).UTC().Format(time.RFC3339),
			Open:      bar.Open,
			High:      bar.High,
			Low:       bar.Low,
			Close:     bar.Close,
			Volume:    bar.Volume,
		})
	}

	c.JSON(http.StatusOK, ohlcvResponse{
		Symbol:   cleanSymbol,
		Interval: interval,
		Data:     data,
	})
}

// HealthCheck handles GET /health requests
func (h *APIHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"service":   ServiceName,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   ServiceVersion,
	})
}

func ingestMessage(result model.AppendResult) string {
	switch {
	case result.Inserted == 0 && result.Duplicates > 0:
		return fmt.Sprintf("All %d trades were duplicates and skipped", result.Duplicates)
	case result.Duplicates > 0:
		return fmt.Sprintf("Ingested %d trades, skipped %d duplicates", result.Inserted, result.Duplicates)
	default:
		return fmt.Sprintf("Successfully ingested %d trades", result.Inserted)
	}
}

// handleServiceError maps core error conditions to HTTP status codes:
// invalid batch shape -> 400, invalid interval -> 422, unknown symbol
// or empty range -> 404, storage or unexpected faults -> 500.
func (h *APIHandler) handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidBatch):
		h.handleError(c, err, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrInvalidInterval):
		h.handleError(c, err, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, model.ErrUnknownSymbol), errors.Is(err, model.ErrNoDataInRange):
		h.handleError(c, err, http.StatusNotFound, err.Error())
	case errors.Is(err, model.ErrStorageFailure):
		h.handleError(c, err, http.StatusInternalServerError, "storage failure")
	default:
		h.handleError(c, err, http.StatusInternalServerError, "internal server error")
	}
}

// handleError logs the error and sends appropriate HTTP response
func (h *APIHandler) handleError(c *gin.Context, err error, statusCode int, userMessage string) {
	requestID, exists := c.Get(RequestIDContextKey)
	requestIDStr := "unknown"
	if exists {
		if id, ok := requestID.(string); ok {
			requestIDStr = id
		}
	}

	h.logger.Error("API error",
		slog.String("request_id", requestIDStr),
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.String("error", err.Error()),
		slog.Int("status_code", statusCode),
	)

	c.JSON(statusCode, gin.H{
		"error":      userMessage,
		"request_id": requestIDStr,
	})
}

// handleValidationError distinguishes field-level failures (422) from
// batch-shape and parameter failures (400)
func (h *APIHandler) handleValidationError(c *gin.Context, err error) {
	status := http.StatusBadRequest
	if errors.Is(err, errInvalidField) {
		status = http.StatusUnprocessableEntity
	}
	h.handleError(c, err, status, err.Error())
}
