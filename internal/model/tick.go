package model

import (
	"encoding/json"
	"time"
)

// Tick represents a single quote from the terminal feed.
type Tick struct {
	Symbol string    `json:"symbol"`
	Bid    float64   `json:"bid"`
	Ask    float64   `json:"ask"`
	TS     time.Time `json:"ts"` // UTC timestamp
}

// JSON returns the JSON-encoded tick.
func (t *Tick) JSON() []byte {
	data, _ := json.Marshal(t)
	return data
}

// Account is the terminal account snapshot attached to live tick payloads.
type Account struct {
	Equity  float64 `json:"equity"`
	Balance float64 `json:"balance"`
	Profit  float64 `json:"profit"` // floating P&L of open terminal positions
}
