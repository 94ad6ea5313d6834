package data

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"OHLCVService/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *FileEventStore {
	t.Helper()
	store, err := NewFileEventStore(StoreConfig{DataDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func createTestEvent(symbol string, ts int64, price float64, volume int64) model.TradeEvent {
	return model.TradeEvent{
		Timestamp: ts,
		Symbol:    symbol,
		Price:     price,
		Volume:    volume,
	}
}

func createSequentialEvents(symbol string, count int, startMs, intervalMs int64) []model.TradeEvent {
	events := make([]model.TradeEvent, count)
	for i := 0; i < count; i++ {
		events[i] = createTestEvent(symbol, startMs+int64(i)*intervalMs, 100.0+float64(i), 1000)
	}
	return events
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func TestAppendAndReadRange(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	events := createSequentialEvents("AAPL", 5, 1_700_000_000_000, 60_000)
	result, err := store.Append(ctx, events)
	require.NoError(t, err)
	assert.Equal(t, 5, result.Inserted)
	assert.Equal(t, 0, result.Duplicates)

	got, err := store.ReadRange(ctx, "AAPL", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, events, got)
}

func TestAppendIdempotency(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	events := createSequentialEvents("AAPL", 4, 1_700_000_000_000, 60_000)

	first, err := store.Append(ctx, events)
	require.NoError(t, err)
	assert.Equal(t, 4, first.Inserted)

	second, err := store.Append(ctx, events)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Inserted)
	assert.Equal(t, 4, second.Duplicates)

	got, err := store.ReadRange(ctx, "AAPL", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, events, got)
}

func TestAppendDeduplicatesWithinBatch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	e := createTestEvent("AAPL", 1_700_000_000_000, 190.50, 100)
	result, err := store.Append(ctx, []model.TradeEvent{e, e, e})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Inserted)
	assert.Equal(t, 2, result.Duplicates)
}

// Same timestamp with different price or volume is a distinct event,
// not a duplicate.
func TestAppendIdentityIsFullTuple(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	ts := int64(1_700_000_000_000)
	batch := []model.TradeEvent{
		createTestEvent("AAPL", ts, 190.50, 100),
		createTestEvent("AAPL", ts, 190.55, 100),
		createTestEvent("AAPL", ts, 190.50, 200),
	}

	result, err := store.Append(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Inserted)
	assert.Equal(t, 0, result.Duplicates)
}

func TestAppendOrderInvariance(t *testing.T) {
	ctx := context.Background()
	sorted := createSequentialEvents("AAPL", 20, 1_700_000_000_000, 60_000)

	shuffled := make([]model.TradeEvent, len(sorted))
	copy(shuffled, sorted)
	rng := rand.New(rand.NewSource(42))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	storeA := newTestStore(t)
	_, err := storeA.Append(ctx, sorted)
	require.NoError(t, err)

	storeB := newTestStore(t)
	// Deliver the shuffled events one at a time to exercise sorted insertion
	for _, e := range shuffled {
		_, err := storeB.Append(ctx, []model.TradeEvent{e})
		require.NoError(t, err)
	}

	gotA, err := storeA.ReadRange(ctx, "AAPL", nil, nil)
	require.NoError(t, err)
	gotB, err := storeB.ReadRange(ctx, "AAPL", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, gotA, gotB)
}

func TestAppendRejectsInvalidBatches(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Append(ctx, nil)
	assert.ErrorIs(t, err, model.ErrInvalidBatch)

	mixed := []model.TradeEvent{
		createTestEvent("AAPL", 1_700_000_000_000, 190.50, 100),
		createTestEvent("MSFT", 1_700_000_060_000, 410.00, 100),
	}
	_, err = store.Append(ctx, mixed)
	assert.ErrorIs(t, err, model.ErrInvalidBatch)

	// A rejected batch must not create the partition
	_, err = store.ReadRange(ctx, "AAPL", nil, nil)
	assert.ErrorIs(t, err, model.ErrUnknownSymbol)
}

func TestReadRangeUnknownVsEmpty(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.ReadRange(ctx, "TSLA", nil, nil)
	assert.ErrorIs(t, err, model.ErrUnknownSymbol)

	events := createSequentialEvents("AAPL", 3, 1_700_000_000_000, 60_000)
	_, err = store.Append(ctx, events)
	require.NoError(t, err)

	// Known symbol, window entirely after its events: empty, not an error
	start := time.UnixMilli(1_800_000_000_000)
	got, err := store.ReadRange(ctx, "AAPL", timePtr(start), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReadRangeBoundsAreHalfOpen(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := int64(1_700_000_000_000)
	events := createSequentialEvents("AAPL", 5, base, 60_000)
	_, err := store.Append(ctx, events)
	require.NoError(t, err)

	start := time.UnixMilli(base + 60_000)
	end := time.UnixMilli(base + 3*60_000)
	got, err := store.ReadRange(ctx, "AAPL", timePtr(start), timePtr(end))
	require.NoError(t, err)

	// start inclusive, end exclusive
	require.Len(t, got, 2)
	assert.Equal(t, base+60_000, got[0].Timestamp)
	assert.Equal(t, base+2*60_000, got[1].Timestamp)
}

func TestPartitionsAreIndependentPerSymbol(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Append(ctx, createSequentialEvents("AAPL", 3, 1_700_000_000_000, 60_000))
	require.NoError(t, err)
	_, err = store.Append(ctx, createSequentialEvents("MSFT", 2, 1_700_000_000_000, 60_000))
	require.NoError(t, err)

	aapl, err := store.ReadRange(ctx, "AAPL", nil, nil)
	require.NoError(t, err)
	msft, err := store.ReadRange(ctx, "MSFT", nil, nil)
	require.NoError(t, err)

	assert.Len(t, aapl, 3)
	assert.Len(t, msft, 2)
	for _, e := range aapl {
		assert.Equal(t, "AAPL", e.Symbol)
	}
}

func TestReloadFromDisk(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewFileEventStore(StoreConfig{DataDir: dir})
	require.NoError(t, err)

	events := []model.TradeEvent{
		createTestEvent("AAPL", 1_700_000_120_000, 191.30, 640_000),
		createTestEvent("AAPL", 1_700_000_000_000, 190.50, 1_200_000),
	}
	_, err = store.Append(ctx, events)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := NewFileEventStore(StoreConfig{DataDir: dir})
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.ReadRange(ctx, "AAPL", nil, nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	// Sorted order restored even though the journal holds arrival order
	assert.Equal(t, int64(1_700_000_000_000), got[0].Timestamp)
	assert.Equal(t, int64(1_700_000_120_000), got[1].Timestamp)

	// Dedup state survives the restart too
	result, err := reopened.Append(ctx, events)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Inserted)
	assert.Equal(t, 2, result.Duplicates)
}

func TestConcurrentAppendsAndReads(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	symbols := []string{"AAPL", "MSFT", "GOOG"}
	const batches = 10
	const perBatch = 5

	var wg sync.WaitGroup
	for _, symbol := range symbols {
		for b := 0; b < batches; b++ {
			wg.Add(1)
			go func(symbol string, b int) {
				defer wg.Done()
				base := 1_700_000_000_000 + int64(b*perBatch)*1000
				batch := make([]model.TradeEvent, perBatch)
				for i := range batch {
					batch[i] = createTestEvent(symbol, base+int64(i)*1000, 100.0+float64(b), int64(10+i))
				}
				_, err := store.Append(ctx, batch)
				assert.NoError(t, err)
			}(symbol, b)
		}
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			// Concurrent readers must never observe a partially
			// applied batch or unsorted events
			for i := 0; i < 20; i++ {
				events, err := store.ReadRange(ctx, symbol, nil, nil)
				if err != nil {
					continue // partition may not exist yet
				}
				for j := 1; j < len(events); j++ {
					assert.LessOrEqual(t, events[j-1].Timestamp, events[j].Timestamp)
				}
			}
		}(symbol)
	}
	wg.Wait()

	for _, symbol := range symbols {
		events, err := store.ReadRange(ctx, symbol, nil, nil)
		require.NoError(t, err, fmt.Sprintf("symbol %s", symbol))
		assert.Len(t, events, batches*perBatch)
	}
}
