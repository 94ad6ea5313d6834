package model

import "errors"

// Error taxonomy for the ingestion and query paths. All of these are
// recoverable-by-caller conditions; the api layer maps them to HTTP
// status codes. Check with errors.Is — ErrStorageFailure is typically
// wrapped around the underlying I/O error.
var (
	// ErrInvalidBatch indicates an empty or mixed-symbol ingest batch.
	ErrInvalidBatch = errors.New("invalid batch: must be non-empty and single-symbol")

	// ErrStorageFailure indicates the durability layer could not complete a write.
	ErrStorageFailure = errors.New("storage failure")

	// ErrUnknownSymbol indicates no partition exists for the requested symbol.
	ErrUnknownSymbol = errors.New("unknown symbol")

	// ErrNoDataInRange indicates the symbol is known but the requested
	// time range contains no events.
	ErrNoDataInRange = errors.New("no data in range")

	// ErrInvalidInterval indicates an interval outside the supported set.
	ErrInvalidInterval = errors.New("invalid interval")
)
