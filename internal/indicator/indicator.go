// Package indicator derives per-bar values from a bar series: the volume
// ratio against its trailing mean, the average true range, and the rolling
// high/low envelope used for breakout detection.
//
// All indicators are causal: a value at bar i is computed only from bars ≤ i.
// Each exposes Ready(), and consumers must treat a not-ready value as
// undefined — no signal can be built from it.
package indicator

import "goldsys/internal/model"

// Indicator is the interface for all streaming indicators.
type Indicator interface {
	// Name returns the indicator name (e.g., "VOL_RATIO_20", "ATR_14").
	Name() string

	// Update feeds a new bar and recalculates.
	Update(bar model.Bar)

	// Value returns the current calculated value. Returns 0 if not enough data.
	Value() float64

	// Ready returns true once the warm-up window has been filled.
	Ready() bool
}
