package core

import (
	"fmt"
	"time"

	"OHLCVService/internal/model"
)

// Interval is one of the fixed aggregation granularities.
type Interval struct {
	name     string
	duration time.Duration
}

// The supported aggregation intervals.
var (
	OneMinute   = Interval{name: "1min", duration: time.Minute}
	FiveMinutes = Interval{name: "5min", duration: 5 * time.Minute}
	OneHour     = Interval{name: "1h", duration: time.Hour}
	OneDay      = Interval{name: "1d", duration: 24 * time.Hour}
)

var intervals = map[string]Interval{
	OneMinute.name:   OneMinute,
	FiveMinutes.name: FiveMinutes,
	OneHour.name:     OneHour,
	OneDay.name:      OneDay,
}

// DefaultInterval is used when a query does not specify an interval.
const DefaultInterval = "1min"

// ParseInterval resolves an interval string against the supported set.
// Anything outside {1min, 5min, 1h, 1d} fails with model.ErrInvalidInterval.
func ParseInterval(s string) (Interval, error) {
	interval, ok := intervals[s]
	if !ok {
		return Interval{}, fmt.Errorf("%w: %q (supported: 1min, 5min, 1h, 1d)", model.ErrInvalidInterval, s)
	}
	return interval, nil
}

// String returns the interval's wire name.
func (i Interval) String() string {
	return i.name
}

// Millis returns the interval width in milliseconds.
func (i Interval) Millis() int64 {
	return i.duration.Milliseconds()
}
