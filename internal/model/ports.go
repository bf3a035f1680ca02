package model

import (
	"context"
	"time"
)

// ── Boundary Port Interfaces ──
// These interfaces decouple the signal/backtest core from concrete providers
// (terminal gateway, SQLite, Redis). The core treats bar data as opaque input;
// connection, authentication and retry live behind these ports.

// BarSource supplies historical bars from the market data terminal.
type BarSource interface {
	// RatesRange fetches bars for [from, to) ordered by timestamp.
	RatesRange(ctx context.Context, symbol string, tf Timeframe, from, to time.Time) ([]Bar, error)

	// RatesFromPos fetches the most recent count bars ending at the current
	// bar, ordered by timestamp ascending.
	RatesFromPos(ctx context.Context, symbol string, tf Timeframe, count int) ([]Bar, error)
}

// BarReader reads stored bars for backtesting.
type BarReader interface {
	// ReadBars reads bars for a symbol and timeframe within [fromTS, toTS)
	// (Unix seconds), ordered by timestamp ascending.
	ReadBars(symbol string, tf Timeframe, fromTS, toTS int64) ([]Bar, error)

	// Close releases underlying resources.
	Close() error
}

// BarWriter persists bars.
type BarWriter interface {
	// WriteBars upserts a batch of bars in a single transaction.
	WriteBars(bars []Bar) error

	// Run reads bars from barCh and writes them in batches.
	// Blocks until ctx is cancelled or barCh is closed.
	Run(ctx context.Context, barCh <-chan Bar)

	// Close releases underlying resources.
	Close() error
}
