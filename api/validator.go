package api

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"sync"
	"time"

	"OHLCVService/internal/model"
)

// errInvalidField marks field-level validation failures on ingest
// payloads, which map to 422 rather than the 400 used for batch-shape
// and query-parameter problems.
var errInvalidField = errors.New("invalid field")

// acceptedTimeLayouts are the timestamp formats accepted for query parameters.
var acceptedTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Validator handles validation logic separate from HTTP concerns
type Validator struct {
	symbolRegex *regexp.Regexp
}

var (
	validatorInstance *Validator
	validatorOnce     sync.Once
)

// GetValidator returns the singleton validator instance
func GetValidator() *Validator {
	validatorOnce.Do(func() {
		validatorInstance = &Validator{
			// Upper-cased ticker symbols: letters, digits, dot, hyphen
			symbolRegex: regexp.MustCompile(`^[A-Z0-9.\-]{1,20}$`),
		}
	})
	return validatorInstance
}

// ValidateIngestRequest validates an ingest batch and converts it to
// normalized model events. Batch-shape failures (empty list, mixed
// symbols) come back as plain errors; per-field failures are wrapped
// in errInvalidField.
func (v *Validator) ValidateIngestRequest(trades []tradeEventRequest) ([]model.TradeEvent, error) {
	if len(trades) == 0 {
		return nil, errors.New("trades list must not be empty")
	}

	events := make([]model.TradeEvent, 0, len(trades))
	for i, trade := range trades {
		symbol := v.normalizeSymbol(trade.Symbol)
		if err := v.validateSymbol(symbol); err != nil {
			return nil, fmt.Errorf("%w: trades[%d]: %v", errInvalidField, i, err)
		}
		if trade.Timestamp.IsZero() {
			return nil, fmt.Errorf("%w: trades[%d]: timestamp is required", errInvalidField, i)
		}
		if trade.Price <= 0 || math.IsNaN(trade.Price) || math.IsInf(trade.Price, 0) {
			return nil, fmt.Errorf("%w: trades[%d]: price must be a positive finite number", errInvalidField, i)
		}
		if trade.Volume < 0 {
			return nil, fmt.Errorf("%w: trades[%d]: volume must not be negative", errInvalidField, i)
		}

		events = append(events, model.TradeEvent{
			Timestamp: trade.Timestamp.UTC().UnixMilli(),
			Symbol:    symbol,
			Price:     trade.Price,
			Volume:    trade.Volume,
		})
	}

	first := events[0].Symbol
	for _, e := range events[1:] {
		if e.Symbol != first {
			return nil, fmt.Errorf("all trades must have the same symbol, found %s and %s", first, e.Symbol)
		}
	}

	return events, nil
}

// ValidateOHLCVRequest validates and sanitizes the symbol and time
// range for OHLCV queries. The interval is validated downstream by the
// aggregation core so the supported set lives in one place.
func (v *Validator) ValidateOHLCVRequest(symbol, startParam, endParam string) (string, *time.Time, *time.Time, error) {
	cleanSymbol := v.normalizeSymbol(symbol)
	if err := v.validateSymbol(cleanSymbol); err != nil {
		return "", nil, nil, err
	}

	start, err := parseTimeParam("start", startParam)
	if err != nil {
		return "", nil, nil, err
	}
	end, err := parseTimeParam("end", endParam)
	if err != nil {
		return "", nil, nil, err
	}

	if start != nil && end != nil && !start.Before(*end) {
		return "", nil, nil, errors.New("start must be before end")
	}

	return cleanSymbol, start, end, nil
}

// normalizeSymbol trims and upper-cases a symbol so storage and queries
// agree on case.
func (v *Validator) normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func (v *Validator) validateSymbol(symbol string) error {
	if symbol == "" {
		return errors.New("symbol parameter is required")
	}
	if !v.symbolRegex.MatchString(symbol) {
		return fmt.Errorf("symbol %q must be 1-20 characters of letters, digits, dots or hyphens", symbol)
	}
	return nil
}

// parseTimeParam parses an optional ISO-8601 query parameter. An empty
// value means unbounded on that side.
func parseTimeParam(name, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	for _, layout := range acceptedTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%s must be an ISO 8601 timestamp, got %q", name, value)
}
