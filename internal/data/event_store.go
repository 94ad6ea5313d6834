package data

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"OHLCVService/internal/model"
)

// StoreConfig holds configuration for the file-backed event store
type StoreConfig struct {
	DataDir string
}

// DefaultStoreConfig returns sensible default configuration
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		DataDir: "data",
	}
}

// eventKey is the identity tuple used for deduplication. Two events
// with the same key are the same event; re-submission is a no-op.
type eventKey struct {
	timestamp int64
	price     float64
	volume    int64
}

func keyOf(e model.TradeEvent) eventKey {
	return eventKey{timestamp: e.Timestamp, price: e.Price, volume: e.Volume}
}

// partition holds one symbol's events, sorted ascending by timestamp,
// mirrored by an append-only journal file on disk.
type partition struct {
	mu     sync.RWMutex
	events []model.TradeEvent
	seen   map[eventKey]struct{}
	file   *os.File
}

// FileEventStore implements the event store over one append-only CSV
// file per symbol (records: timestamp_ms,price,volume). Appends to the
// same symbol are serialized by a per-partition lock; appends to
// different symbols proceed independently. Reads see either the
// pre-append or the fully-post-append state of a partition.
type FileEventStore struct {
	dir        string
	mu         sync.RWMutex // guards partitions map
	partitions map[string]*partition
}

// NewFileEventStore creates a store rooted at cfg.DataDir, loading any
// partition files left by a previous run.
func NewFileEventStore(cfg StoreConfig) (*FileEventStore, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	s := &FileEventStore{
		dir:        cfg.DataDir,
		partitions: make(map[string]*partition),
	}

	entries, err := os.ReadDir(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("reading data dir: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".csv") {
			continue
		}
		symbol := strings.TrimSuffix(name, ".csv")
		if err := s.loadPartition(symbol); err != nil {
			return nil, fmt.Errorf("loading partition %s: %w", symbol, err)
		}
	}

	return s, nil
}

// loadPartition reads a symbol's journal file from disk, rebuilding the
// sorted event slice and the dedup set.
func (s *FileEventStore) loadPartition(symbol string) error {
	f, err := os.OpenFile(s.partitionPath(symbol), os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = 3

	p := &partition{
		seen: make(map[eventKey]struct{}),
		file: f,
	}

	records, err := reader.ReadAll()
	if err != nil {
		f.Close()
		return fmt.Errorf("parsing journal: %w", err)
	}

	for _, record := range records {
		event, err := parseRecord(symbol, record)
		if err != nil {
			f.Close()
			return err
		}
		p.events = append(p.events, event)
		p.seen[keyOf(event)] = struct{}{}
	}

	// Journals are written in arrival order, which may not be
	// timestamp order. Stable sort keeps arrival order for ties.
	sort.SliceStable(p.events, func(i, j int) bool {
		return p.events[i].Timestamp < p.events[j].Timestamp
	})

	s.mu.Lock()
	s.partitions[symbol] = p
	s.mu.Unlock()

	return nil
}

func (s *FileEventStore) partitionPath(symbol string) string {
	return filepath.Join(s.dir, symbol+".csv")
}

func parseRecord(symbol string, record []string) (model.TradeEvent, error) {
	timestamp, err := strconv.ParseInt(record[0], 10, 64)
	if err != nil {
		return model.TradeEvent{}, fmt.Errorf("bad timestamp %q: %w", record[0], err)
	}
	price, err := strconv.ParseFloat(record[1], 64)
	if err != nil {
		return model.TradeEvent{}, fmt.Errorf("bad price %q: %w", record[1], err)
	}
	volume, err := strconv.ParseInt(record[2], 10, 64)
	if err != nil {
		return model.TradeEvent{}, fmt.Errorf("bad volume %q: %w", record[2], err)
	}
	return model.TradeEvent{
		Timestamp: timestamp,
		Symbol:    symbol,
		Price:     price,
		Volume:    volume,
	}, nil
}

func formatRecord(e model.TradeEvent) []string {
	return []string{
		strconv.FormatInt(e.Timestamp, 10),
		strconv.FormatFloat(e.Price, 'g', -1, 64),
		strconv.FormatInt(e.Volume, 10),
	}
}

// getOrCreatePartition returns the partition for a symbol, creating it
// (and its journal file) on first ingest of that symbol.
func (s *FileEventStore) getOrCreatePartition(symbol string) (*partition, error) {
	s.mu.RLock()
	p := s.partitions[symbol]
	s.mu.RUnlock()
	if p != nil {
		return p, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.partitions[symbol]; p != nil {
		return p, nil
	}

	f, err := os.OpenFile(s.partitionPath(symbol), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}

	p = &partition{
		seen: make(map[eventKey]struct{}),
		file: f,
	}
	s.partitions[symbol] = p
	return p, nil
}

// Append stores a single-symbol batch of events. Events whose identity
// tuple is already present (on disk or earlier in the same batch) are
// skipped and counted as duplicates; the rest are durably written and
// inserted at their sorted position. The batch commits all-or-nothing:
// on a write failure the journal is truncated back to its pre-batch
// size, in-memory state is left unchanged and the error is returned
// wrapped in model.ErrStorageFailure.
func (s *FileEventStore) Append(ctx context.Context, events []model.TradeEvent) (model.AppendResult, error) {
	if len(events) == 0 {
		return model.AppendResult{}, model.ErrInvalidBatch
	}
	symbol := events[0].Symbol
	for _, e := range events[1:] {
		if e.Symbol != symbol {
			return model.AppendResult{}, model.ErrInvalidBatch
		}
	}

	p, err := s.getOrCreatePartition(symbol)
	if err != nil {
		return model.AppendResult{}, fmt.Errorf("%w: opening journal for %s: %v", model.ErrStorageFailure, symbol, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var staged []model.TradeEvent
	duplicates := 0
	stagedKeys := make(map[eventKey]struct{})

	for _, e := range events {
		key := keyOf(e)
		if _, exists := p.seen[key]; exists {
			duplicates++
			continue
		}
		if _, exists := stagedKeys[key]; exists {
			duplicates++
			continue
		}
		stagedKeys[key] = struct{}{}
		staged = append(staged, e)
	}

	if len(staged) == 0 {
		return model.AppendResult{Inserted: 0, Duplicates: duplicates}, nil
	}

	if err := p.writeAndSync(staged); err != nil {
		return model.AppendResult{}, fmt.Errorf("%w: writing journal for %s: %v", model.ErrStorageFailure, symbol, err)
	}

	// Durable on disk; now make the events visible to readers.
	for _, e := range staged {
		p.insertSorted(e)
		p.seen[keyOf(e)] = struct{}{}
	}

	return model.AppendResult{Inserted: len(staged), Duplicates: duplicates}, nil
}

// writeAndSync appends the staged events to the journal and fsyncs.
// On failure the file is truncated back to its previous size so a
// partial batch is never left behind.
func (p *partition) writeAndSync(staged []model.TradeEvent) error {
	info, err := p.file.Stat()
	if err != nil {
		return err
	}
	offset := info.Size()

	writer := csv.NewWriter(p.file)
	for _, e := range staged {
		if err := writer.Write(formatRecord(e)); err != nil {
			p.file.Truncate(offset)
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		p.file.Truncate(offset)
		return err
	}
	if err := p.file.Sync(); err != nil {
		p.file.Truncate(offset)
		return err
	}
	return nil
}

// insertSorted places an event at its sorted position. Events with
// equal timestamps keep arrival order, which makes the close-price
// tie-break in aggregation deterministic.
func (p *partition) insertSorted(e model.TradeEvent) {
	idx := sort.Search(len(p.events), func(i int) bool {
		return p.events[i].Timestamp > e.Timestamp
	})
	p.events = append(p.events, model.TradeEvent{})
	copy(p.events[idx+1:], p.events[idx:])
	p.events[idx] = e
}

// ReadRange returns a symbol's events with start <= timestamp < end in
// ascending timestamp order. Nil bounds are unbounded on that side.
// A symbol that has never been successfully ingested yields
// model.ErrUnknownSymbol; a known symbol with no events in the range
// yields an empty slice.
func (s *FileEventStore) ReadRange(ctx context.Context, symbol string, start, end *time.Time) ([]model.TradeEvent, error) {
	s.mu.RLock()
	p := s.partitions[symbol]
	s.mu.RUnlock()
	if p == nil {
		return nil, fmt.Errorf("%w: %s", model.ErrUnknownSymbol, symbol)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	// An empty partition can only be left by a failed first ingest or
	// an empty journal file; either way the symbol was never
	// successfully ingested.
	if len(p.events) == 0 {
		return nil, fmt.Errorf("%w: %s", model.ErrUnknownSymbol, symbol)
	}

	lo := 0
	hi := len(p.events)
	if start != nil {
		startMs := start.UnixMilli()
		lo = sort.Search(len(p.events), func(i int) bool {
			return p.events[i].Timestamp >= startMs
		})
	}
	if end != nil {
		endMs := end.UnixMilli()
		hi = sort.Search(len(p.events), func(i int) bool {
			return p.events[i].Timestamp >= endMs
		})
	}
	if lo >= hi {
		return []model.TradeEvent{}, nil
	}

	// Return a copy to prevent external modification
	result := make([]model.TradeEvent, hi-lo)
	copy(result, p.events[lo:hi])
	return result, nil
}

// Close releases all journal file handles.
func (s *FileEventStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for _, p := range s.partitions {
		p.mu.Lock()
		if err := p.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		p.mu.Unlock()
	}
	return firstErr
}
