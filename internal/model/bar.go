package model

import (
	"encoding/json"
	"time"
)

// Bar represents a single OHLCV bar for one instrument and timeframe.
// Prices are float64 quote units (XAUUSD quotes in fractional dollars, so
// integer minor units would force a fixed tick assumption the terminal does
// not guarantee). Bars are immutable once produced and totally ordered by TS
// within a series; no duplicate timestamps.
type Bar struct {
	Symbol string    `json:"symbol"`
	TF     Timeframe `json:"tf"`
	TS     time.Time `json:"time"` // bar open time (UTC, TF-aligned)
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"` // tick volume reported by the terminal
}

// Key returns a unique key for this bar's series: "symbol:tf".
func (b *Bar) Key() string {
	return b.Symbol + ":" + string(b.TF)
}

// JSON returns the JSON-encoded bar (ignoring errors for hot-path usage).
func (b *Bar) JSON() []byte {
	data, _ := json.Marshal(b)
	return data
}
