package mock

import (
	"math/rand"
	"sort"
	"time"

	"OHLCVService/internal/model"
)

// GeneratorConfig holds configuration for the trade data generator
type GeneratorConfig struct {
	Symbols            []string
	BasePrices         map[string]float64
	Volatility         float64
	HistoryMinutes     int
	MaxTradesPerMinute int
}

// DefaultGeneratorConfig returns a sensible default configuration
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Symbols: []string{"AAPL", "MSFT", "GOOG"},
		BasePrices: map[string]float64{
			"AAPL": 190.0,
			"MSFT": 410.0,
			"GOOG": 175.0,
		},
		Volatility:         0.01, // 1% volatility
		HistoryMinutes:     60,
		MaxTradesPerMinute: 10,
	}
}

// TradeDataGenerator produces random-walk trade history as
// ready-to-ingest single-symbol batches, sorted by timestamp.
type TradeDataGenerator struct {
	config    GeneratorConfig
	basePrice map[string]float64
	rng       *rand.Rand
}

// NewTradeDataGenerator creates a new trade data generator with default config
func NewTradeDataGenerator() *TradeDataGenerator {
	return NewTradeDataGeneratorWithConfig(DefaultGeneratorConfig())
}

// NewTradeDataGeneratorWithConfig creates a new trade data generator with custom config
func NewTradeDataGeneratorWithConfig(config GeneratorConfig) *TradeDataGenerator {
	// Create a copy of base prices for modification
	basePrice := make(map[string]float64)
	for k, v := range config.BasePrices {
		basePrice[k] = v
	}

	return &TradeDataGenerator{
		config:    config,
		basePrice: basePrice,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// GenerateHistory returns one batch per configured symbol, each
// covering the configured history window ending at now.
func (tdg *TradeDataGenerator) GenerateHistory(now time.Time) map[string][]model.TradeEvent {
	batches := make(map[string][]model.TradeEvent, len(tdg.config.Symbols))
	for _, symbol := range tdg.config.Symbols {
		batches[symbol] = tdg.GenerateSymbolHistory(symbol, now)
	}
	return batches
}

// GenerateSymbolHistory produces a timestamp-sorted batch of trades for
// one symbol over the configured history window ending at now.
func (tdg *TradeDataGenerator) GenerateSymbolHistory(symbol string, now time.Time) []model.TradeEvent {
	nowMs := now.UnixMilli()
	price, ok := tdg.basePrice[symbol]
	if !ok {
		price = 100.0
	}

	var events []model.TradeEvent
	for i := 0; i < tdg.config.HistoryMinutes; i++ {
		minuteStart := nowMs - int64(tdg.config.HistoryMinutes-i)*60*1000

		numTrades := 1 + tdg.rng.Intn(tdg.config.MaxTradesPerMinute)

		// Distinct millisecond offsets within the minute so every trade
		// has a unique timestamp, sorted to keep chronological order.
		used := make(map[int]struct{}, numTrades)
		for len(used) < numTrades {
			used[tdg.rng.Intn(60*1000)] = struct{}{}
		}
		offsets := make([]int, 0, numTrades)
		for offset := range used {
			offsets = append(offsets, offset)
		}
		sort.Ints(offsets)

		for _, offset := range offsets {
			// Random walk around the current price
			change := (tdg.rng.Float64() - 0.5) * 2 * tdg.config.Volatility * price
			price += change
			if price < 1.0 {
				price = 1.0
			}

			events = append(events, model.TradeEvent{
				Timestamp: minuteStart + int64(offset),
				Symbol:    symbol,
				Price:     float64(int(price*100)) / 100, // 2 decimal places
				Volume:    int64(100 + tdg.rng.Intn(1_000_000)),
			})
		}
	}

	tdg.basePrice[symbol] = price
	return events
}
