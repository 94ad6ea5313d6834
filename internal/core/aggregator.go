package core

import (
	"OHLCVService/internal/model"
)

// Aggregate folds a timestamp-ordered sequence of trade events into
// OHLCV bars at the requested interval. Each event belongs to the
// bucket whose start is its timestamp truncated down to the nearest
// interval boundary from the UTC epoch (left-closed, right-open).
// Because the input is sorted, one ascending pass suffices and bars
// come out in ascending bucket order; buckets with no events are never
// synthesized.
func Aggregate(events []model.TradeEvent, interval Interval) []model.OHLCVBar {
	if len(events) == 0 {
		return []model.OHLCVBar{}
	}

	intervalMs := interval.Millis()

	var result []model.OHLCVBar
	var current *model.OHLCVBar

	for _, event := range events {
		// Round timestamp down to the interval boundary
		bucketStart := (event.Timestamp / intervalMs) * intervalMs

		if current == nil || current.Timestamp != bucketStart {
			// Start a new bar, emitting the finished one
			if current != nil {
				result = append(result, *current)
			}
			current = &model.OHLCVBar{
				Timestamp: bucketStart,
				Open:      event.Price,
				High:      event.Price,
				Low:       event.Price,
				Close:     event.Price,
				Volume:    event.Volume,
			}
			continue
		}

		if event.Price > current.High {
			current.High = event.Price
		}
		if event.Price < current.Low {
			current.Low = event.Price
		}
		// Close is always the latest event's price within the bucket
		current.Close = event.Price
		current.Volume += event.Volume
	}

	result = append(result, *current)
	return result
}
