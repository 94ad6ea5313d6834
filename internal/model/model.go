package model

// TradeEvent represents a single observed trade.
// Timestamp is a UTC instant in Unix milliseconds.
type TradeEvent struct {
	Timestamp int64   `json:"timestamp"`
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Volume    int64   `json:"volume"`
}

// OHLCVBar represents aggregated OHLCV data for one time bucket.
// Timestamp is the left-closed bucket boundary in Unix milliseconds.
type OHLCVBar struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    int64   `json:"volume"`
}

// AppendResult reports the outcome of an ingest batch.
type AppendResult struct {
	Inserted   int `json:"inserted"`
	Duplicates int `json:"duplicates"`
}
