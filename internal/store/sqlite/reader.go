package sqlite

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"goldsys/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// Reader provides read-only access to stored bars for the backtest runner.
type Reader struct {
	db *sql.DB
}

// NewReader opens a SQLite connection for reading.
func NewReader(dbPath string) (*Reader, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open reader: %w", err)
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)

	log.Printf("[sqlite-reader] opened %s", dbPath)
	return &Reader{db: db}, nil
}

// ReadBars reads bars for a symbol and timeframe within [fromTS, toTS)
// (Unix seconds), ordered by timestamp ascending for correct replay order.
func (r *Reader) ReadBars(symbol string, tf model.Timeframe, fromTS, toTS int64) ([]model.Bar, error) {
	rows, err := r.db.Query(`
		SELECT symbol, tf, ts, open, high, low, close, volume
		FROM bars
		WHERE symbol = ? AND tf = ? AND ts >= ? AND ts < ?
		ORDER BY ts ASC
	`, symbol, string(tf), fromTS, toTS)
	if err != nil {
		return nil, fmt.Errorf("sqlite query bars: %w", err)
	}
	defer rows.Close()

	var bars []model.Bar
	for rows.Next() {
		var b model.Bar
		var tfStr string
		var tsUnix int64
		if err := rows.Scan(&b.Symbol, &tfStr, &tsUnix, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("sqlite scan bars: %w", err)
		}
		b.TF = model.Timeframe(tfStr)
		b.TS = time.Unix(tsUnix, 0).UTC()
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// Close closes the reader.
func (r *Reader) Close() error {
	return r.db.Close()
}
