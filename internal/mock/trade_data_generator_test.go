package mock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSymbolHistory(t *testing.T) {
	config := DefaultGeneratorConfig()
	config.HistoryMinutes = 15
	generator := NewTradeDataGeneratorWithConfig(config)

	now := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)
	events := generator.GenerateSymbolHistory("AAPL", now)

	require.NotEmpty(t, events)
	assert.GreaterOrEqual(t, len(events), config.HistoryMinutes)
	assert.LessOrEqual(t, len(events), config.HistoryMinutes*config.MaxTradesPerMinute)

	windowStart := now.Add(-time.Duration(config.HistoryMinutes) * time.Minute).UnixMilli()
	for i, e := range events {
		assert.Equal(t, "AAPL", e.Symbol)
		assert.Greater(t, e.Price, 0.0)
		assert.GreaterOrEqual(t, e.Volume, int64(100))
		assert.GreaterOrEqual(t, e.Timestamp, windowStart)
		assert.Less(t, e.Timestamp, now.UnixMilli())
		if i > 0 {
			// Strictly increasing timestamps keep generated batches free
			// of accidental duplicate identities
			assert.Greater(t, e.Timestamp, events[i-1].Timestamp)
		}
	}
}

func TestGenerateSymbolHistoryUnknownSymbolUsesFallbackPrice(t *testing.T) {
	generator := NewTradeDataGenerator()

	events := generator.GenerateSymbolHistory("ZZZZ", time.Now().UTC())

	require.NotEmpty(t, events)
	for _, e := range events {
		assert.Greater(t, e.Price, 0.0)
	}
}

func TestGenerateHistoryCoversAllSymbols(t *testing.T) {
	config := DefaultGeneratorConfig()
	config.Symbols = []string{"AAPL", "MSFT"}
	config.HistoryMinutes = 5
	generator := NewTradeDataGeneratorWithConfig(config)

	batches := generator.GenerateHistory(time.Now().UTC())

	require.Len(t, batches, 2)
	for symbol, batch := range batches {
		require.NotEmpty(t, batch)
		for _, e := range batch {
			assert.Equal(t, symbol, e.Symbol)
		}
	}
}
