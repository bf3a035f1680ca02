package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	"goldsys/internal/model"
)

func testBar(ts time.Time, close float64) model.Bar {
	return model.Bar{
		Symbol: "XAUUSD",
		TF:     model.M15,
		TS:     ts,
		Open:   close - 1,
		High:   close + 2,
		Low:    close - 2,
		Close:  close,
		Volume: 150,
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bars.db")
	w, err := New(WriterConfig{DBPath: path})
	if err != nil {
		t.Fatalf("open writer: %v", err)
	}
	defer w.Close()

	base := time.Date(2026, 1, 12, 13, 0, 0, 0, time.UTC)
	bars := []model.Bar{
		testBar(base, 100),
		testBar(base.Add(15*time.Minute), 101),
		testBar(base.Add(30*time.Minute), 102),
	}
	if err := w.WriteBars(bars); err != nil {
		t.Fatalf("write: %v", err)
	}

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("open reader: %v", err)
	}
	defer r.Close()

	got, err := r.ReadBars("XAUUSD", model.M15, base.Unix(), base.Add(time.Hour).Unix())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("read %d bars, want 3", len(got))
	}
	for i, b := range got {
		if !b.TS.Equal(bars[i].TS) {
			t.Errorf("bar %d ts = %s, want %s", i, b.TS, bars[i].TS)
		}
		if b.Close != bars[i].Close {
			t.Errorf("bar %d close = %v, want %v", i, b.Close, bars[i].Close)
		}
		if b.TF != model.M15 || b.Symbol != "XAUUSD" {
			t.Errorf("bar %d identity = %s %s", i, b.Symbol, b.TF)
		}
	}
}

func TestReadBarsRangeIsHalfOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bars.db")
	w, err := New(WriterConfig{DBPath: path})
	if err != nil {
		t.Fatalf("open writer: %v", err)
	}
	defer w.Close()

	base := time.Date(2026, 1, 12, 13, 0, 0, 0, time.UTC)
	if err := w.WriteBars([]model.Bar{
		testBar(base, 100),
		testBar(base.Add(15*time.Minute), 101),
	}); err != nil {
		t.Fatalf("write: %v", err)
	}

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("open reader: %v", err)
	}
	defer r.Close()

	// to is exclusive: the bar stamped exactly at to must not come back.
	got, err := r.ReadBars("XAUUSD", model.M15, base.Unix(), base.Add(15*time.Minute).Unix())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 1 || !got[0].TS.Equal(base) {
		t.Fatalf("got %d bars, want only the first", len(got))
	}
}

func TestWriteBarsUpsert(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bars.db")
	w, err := New(WriterConfig{DBPath: path})
	if err != nil {
		t.Fatalf("open writer: %v", err)
	}
	defer w.Close()

	base := time.Date(2026, 1, 12, 13, 0, 0, 0, time.UTC)
	if err := w.WriteBars([]model.Bar{testBar(base, 100)}); err != nil {
		t.Fatalf("write: %v", err)
	}
	// Same key, revised close: row is replaced, not duplicated.
	if err := w.WriteBars([]model.Bar{testBar(base, 105)}); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	ts, err := w.LastTimestamp("XAUUSD", model.M15)
	if err != nil {
		t.Fatalf("last timestamp: %v", err)
	}
	if ts != base.Unix() {
		t.Fatalf("last ts = %d, want %d", ts, base.Unix())
	}

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("open reader: %v", err)
	}
	defer r.Close()

	got, err := r.ReadBars("XAUUSD", model.M15, 0, base.Add(time.Hour).Unix())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d bars, want 1", len(got))
	}
	if got[0].Close != 105 {
		t.Fatalf("close = %v, want 105 after upsert", got[0].Close)
	}
}

func TestLastTimestampEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bars.db")
	w, err := New(WriterConfig{DBPath: path})
	if err != nil {
		t.Fatalf("open writer: %v", err)
	}
	defer w.Close()

	ts, err := w.LastTimestamp("XAUUSD", model.M15)
	if err != nil {
		t.Fatalf("last timestamp: %v", err)
	}
	if ts != 0 {
		t.Fatalf("ts = %d, want 0 for empty table", ts)
	}
}
