package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"OHLCVService/internal/core"
	"OHLCVService/internal/model"
)

// EventStore is the storage contract the service depends on.
type EventStore interface {
	Append(ctx context.Context, events []model.TradeEvent) (model.AppendResult, error)
	ReadRange(ctx context.Context, symbol string, start, end *time.Time) ([]model.TradeEvent, error)
}

// TradeService provides the ingest and OHLCV query operations for the API
type TradeService struct {
	store  EventStore
	logger *slog.Logger
}

// NewTradeService creates a new trade service
func NewTradeService(store EventStore, logger *slog.Logger) *TradeService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TradeService{
		store:  store,
		logger: logger,
	}
}

// IngestTrades validates and stores a single-symbol batch of trade
// events. An empty or mixed-symbol batch fails with
// model.ErrInvalidBatch; duplicate events (same symbol, timestamp,
// price and volume) are skipped and counted, not treated as errors.
func (ts *TradeService) IngestTrades(ctx context.Context, events []model.TradeEvent) (model.AppendResult, error) {
	if len(events) == 0 {
		return model.AppendResult{}, fmt.Errorf("%w: empty batch", model.ErrInvalidBatch)
	}

	symbol := events[0].Symbol
	for _, e := range events[1:] {
		if e.Symbol != symbol {
			return model.AppendResult{}, fmt.Errorf("%w: got %s and %s in one batch", model.ErrInvalidBatch, symbol, e.Symbol)
		}
	}

	result, err := ts.store.Append(ctx, events)
	if err != nil {
		return model.AppendResult{}, fmt.Errorf("appending batch for %s: %w", symbol, err)
	}

	ts.logger.Info("ingested trade batch",
		slog.String("symbol", symbol),
		slog.Int("inserted", result.Inserted),
		slog.Int("duplicates", result.Duplicates),
	)

	return result, nil
}

// GetOHLCV aggregates a symbol's events in [start, end) into OHLCV bars
// at the requested interval. Nil bounds are unbounded. A symbol never
// ingested fails with model.ErrUnknownSymbol; a known symbol with no
// events in the window fails with model.ErrNoDataInRange.
func (ts *TradeService) GetOHLCV(ctx context.Context, symbol string, start, end *time.Time, intervalName string) ([]model.OHLCVBar, error) {
	interval, err := core.ParseInterval(intervalName)
	if err != nil {
		return nil, err
	}

	events, err := ts.store.ReadRange(ctx, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("reading events for %s: %w", symbol, err)
	}

	if len(events) == 0 {
		return nil, fmt.Errorf("%w: %s", model.ErrNoDataInRange, symbol)
	}

	return core.Aggregate(events, interval), nil
}
