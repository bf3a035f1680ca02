package model

import (
	"fmt"
	"time"
)

// Timeframe identifies a bar interval using the terminal's naming scheme.
type Timeframe string

const (
	M1  Timeframe = "M1"
	M5  Timeframe = "M5"
	M15 Timeframe = "M15"
	H1  Timeframe = "H1"
)

// ParseTimeframe validates a timeframe string. Unknown values are rejected
// before any computation starts.
func ParseTimeframe(s string) (Timeframe, error) {
	switch Timeframe(s) {
	case M1, M5, M15, H1:
		return Timeframe(s), nil
	}
	return "", fmt.Errorf("unknown timeframe %q (want M1, M5, M15 or H1)", s)
}

// Duration returns the bar interval length.
func (tf Timeframe) Duration() time.Duration {
	switch tf {
	case M1:
		return time.Minute
	case M5:
		return 5 * time.Minute
	case M15:
		return 15 * time.Minute
	case H1:
		return time.Hour
	}
	return 0
}

// BarsIn returns how many bars of this timeframe fit into d, minimum 1.
// Used to scale window sizes that are specified in wall-clock terms
// (e.g. "the 4-hour high" is 16 bars at M15 but 4 bars at H1).
func (tf Timeframe) BarsIn(d time.Duration) int {
	step := tf.Duration()
	if step <= 0 {
		return 1
	}
	n := int(d / step)
	if n < 1 {
		n = 1
	}
	return n
}
