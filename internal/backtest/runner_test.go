package backtest

import (
	"errors"
	"testing"
	"time"

	"goldsys/internal/model"
	"goldsys/internal/session"
	"goldsys/internal/strategy"
)

type fakeReader struct {
	bars     []model.Bar
	err      error
	from, to int64
}

func (f *fakeReader) ReadBars(symbol string, tf model.Timeframe, fromTS, toTS int64) ([]model.Bar, error) {
	f.from, f.to = fromTS, toTS
	return f.bars, f.err
}

func (f *fakeReader) Close() error { return nil }

func newRunner(t *testing.T, reader model.BarReader) *Runner {
	t.Helper()
	filter, err := session.NewDefault()
	if err != nil {
		t.Fatalf("session filter: %v", err)
	}
	return NewRunner(reader, strategy.NewDetector(filter))
}

func req(start, end time.Time) Request {
	return Request{Symbol: "XAUUSD", Start: start, End: end, TF: model.M15}
}

func TestRunner_Validation(t *testing.T) {
	day := time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC)
	r := newRunner(t, &fakeReader{})

	cases := []struct {
		name string
		req  Request
	}{
		{"empty symbol", Request{Start: day, End: day, TF: model.M15}},
		{"unknown timeframe", Request{Symbol: "XAUUSD", Start: day, End: day, TF: model.Timeframe("M2")}},
		{"inverted range", req(day, day.AddDate(0, 0, -1))},
	}
	for _, tc := range cases {
		if _, err := r.Run(tc.req); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestRunner_NoData(t *testing.T) {
	day := time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC)
	r := newRunner(t, &fakeReader{})
	if _, err := r.Run(req(day, day)); !errors.Is(err, ErrNoData) {
		t.Fatalf("err = %v, want ErrNoData", err)
	}
}

func TestRunner_InclusiveEndDate(t *testing.T) {
	day := time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC)
	reader := &fakeReader{}
	r := newRunner(t, reader)
	r.Run(req(day, day)) // single calendar day

	if got := reader.to - reader.from; got != 86400 {
		t.Fatalf("query span = %ds, want 86400 (end date inclusive)", got)
	}
	if reader.from != day.Unix() {
		t.Fatalf("query start = %d, want %d", reader.from, day.Unix())
	}
}

func TestRunner_ShortSeriesEmptyResult(t *testing.T) {
	// Ten bars cannot warm up any indicator: the run succeeds with an empty
	// trade log rather than failing.
	day := time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC)
	bars := mkBars(100, 100, 100, 100, 100, 100, 100, 100, 100, 100)
	r := newRunner(t, &fakeReader{bars: bars})

	res, err := r.Run(req(day, day))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Trades) != 0 {
		t.Fatalf("trades = %d, want 0", len(res.Trades))
	}
	assertClose(t, res.Summary.FinalBalance, StartingBalance, 1e-9)
}

// TestRunner_BreakoutRoundTrip drives the full read, detect, simulate and
// aggregate path. The series is flat and out of session until 13:00 UTC
// (08:00 New York, winter), where a high-volume close above the prior 4-hour
// high fires a long entry; the next bar runs through the 6×ATR target.
func TestRunner_BreakoutRoundTrip(t *testing.T) {
	start := time.Date(2026, 1, 12, 5, 45, 0, 0, time.UTC)
	bars := make([]model.Bar, 31)
	for i := range bars {
		bars[i] = model.Bar{
			Symbol: "XAUUSD",
			TF:     model.M15,
			TS:     start.Add(time.Duration(i) * 15 * time.Minute),
			Open:   100, High: 102, Low: 98, Close: 100,
			Volume: 100,
		}
	}
	// Breakout bar at 13:00 UTC: close 105 above the prior rolling high of
	// 102, volume 3× the trailing mean.
	bars[29].Open, bars[29].High, bars[29].Low, bars[29].Close = 103, 107, 103, 105
	bars[29].Volume = 300
	// Resolution bar runs well past the target.
	bars[30].Open, bars[30].High, bars[30].Low, bars[30].Close = 130, 133, 129, 131

	r := newRunner(t, &fakeReader{bars: bars})
	day := time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC)
	res, err := r.Run(req(day, day))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Trades) != 1 {
		t.Fatalf("trades = %d, want 1", len(res.Trades))
	}

	tr := res.Trades[0]
	if tr.Type != "BUY" {
		t.Fatalf("type = %q, want BUY", tr.Type)
	}
	assertClose(t, tr.EntryPrice, 105, 1e-9)
	if !tr.EntryTime.Equal(bars[29].TS) {
		t.Errorf("entry time = %s, want %s", tr.EntryTime, bars[29].TS)
	}
	// ATR(14) at entry: thirteen ranges of 4 and the breakout bar's 7.
	atr := (13*4.0 + 7.0) / 14.0
	assertClose(t, tr.ExitPrice, 105+6*atr, 1e-9)
	assertClose(t, tr.Profit, 300, 1e-9)

	sum := res.Summary
	if sum.TotalTrades != 1 || sum.Wins != 1 || sum.Losses != 0 {
		t.Fatalf("summary counts = %d/%d/%d", sum.TotalTrades, sum.Wins, sum.Losses)
	}
	assertClose(t, sum.WinRate, 100, 1e-9)
	assertClose(t, sum.FinalBalance, 10300, 1e-9)
	if len(sum.Daily) != 1 || sum.Daily[0].Date != "2026-01-12" {
		t.Fatalf("daily = %+v", sum.Daily)
	}
}
