package strategy

import (
	"testing"
	"time"

	"goldsys/internal/indicator"
	"goldsys/internal/model"
	"goldsys/internal/session"
)

// sessionStart is 13:00 UTC = 08:00 America/New_York in January (EST).
var sessionStart = time.Date(2026, 1, 12, 13, 0, 0, 0, time.UTC)

func newDetector(t *testing.T) *Detector {
	t.Helper()
	f, err := session.NewDefault()
	if err != nil {
		t.Fatalf("session filter: %v", err)
	}
	return NewDetector(f)
}

// seriesWithBreakout builds 30 flat M15 bars ending exactly at the session
// open (so the final bar is in-session and warm-up is complete), then
// optionally turns the final bar into a breakout (close beyond the envelope,
// volume spike).
func seriesWithBreakout(kind Kind) []model.Bar {
	bars := make([]model.Bar, 30)
	start := sessionStart.Add(-29 * 15 * time.Minute)
	for i := range bars {
		bars[i] = model.Bar{
			Symbol: "XAUUSD", TF: model.M15,
			TS:   start.Add(time.Duration(i) * 15 * time.Minute),
			Open: 2000, High: 2001, Low: 1999, Close: 2000, Volume: 100,
		}
	}
	last := &bars[len(bars)-1]
	switch kind {
	case Long:
		last.Close = 2005
		last.High = 2005
		last.Volume = 300 // ratio ≈ 300/110 ≫ 1.3
	case Short:
		last.Close = 1995
		last.Low = 1995
		last.Volume = 300
	}
	return bars
}

func detect(t *testing.T, bars []model.Bar) []Kind {
	t.Helper()
	frame := indicator.Compute(bars, indicator.DefaultConfig(model.M15))
	return newDetector(t).Detect(bars, frame)
}

func TestDetect_FlatSeriesNoSignal(t *testing.T) {
	signals := detect(t, seriesWithBreakout(None))
	for i, s := range signals {
		if s != None {
			t.Errorf("bar %d: got %v on a flat series, want NEUTRAL", i, s)
		}
	}
}

func TestDetect_LongBreakout(t *testing.T) {
	signals := detect(t, seriesWithBreakout(Long))
	last := len(signals) - 1
	if signals[last] != Long {
		t.Fatalf("last bar: got %v, want LONG", signals[last])
	}
	for i := 0; i < last; i++ {
		if signals[i] != None {
			t.Errorf("bar %d: unexpected %v", i, signals[i])
		}
	}
}

func TestDetect_ShortBreakout(t *testing.T) {
	signals := detect(t, seriesWithBreakout(Short))
	last := len(signals) - 1
	if signals[last] != Short {
		t.Fatalf("last bar: got %v, want SHORT", signals[last])
	}
}

func TestDetect_BreakoutWithoutVolumeIsNeutral(t *testing.T) {
	bars := seriesWithBreakout(Long)
	bars[len(bars)-1].Volume = 100 // ratio ≈ 1.0, below threshold
	signals := detect(t, bars)
	if got := signals[len(signals)-1]; got != None {
		t.Errorf("breakout without volume: got %v, want NEUTRAL", got)
	}
}

func TestDetect_OutsideSessionIsNeutral(t *testing.T) {
	bars := seriesWithBreakout(Long)
	// Shift the whole series to 02:00 New York time.
	for i := range bars {
		bars[i].TS = bars[i].TS.Add(-6 * time.Hour)
	}
	signals := detect(t, bars)
	if got := signals[len(signals)-1]; got != None {
		t.Errorf("breakout outside session: got %v, want NEUTRAL", got)
	}
}

func TestDetect_WarmupAllNeutral(t *testing.T) {
	// 10 bars — shorter than every indicator window.
	bars := seriesWithBreakout(Long)[:10]
	bars[9].Close = 2050
	bars[9].Volume = 1000
	signals := detect(t, bars)
	for i, s := range signals {
		if s != None {
			t.Errorf("warm-up bar %d: got %v, want NEUTRAL", i, s)
		}
	}
}

func TestDetect_NoLookAhead(t *testing.T) {
	bars := seriesWithBreakout(Long)
	frame := indicator.Compute(bars, indicator.DefaultConfig(model.M15))
	det := newDetector(t)
	before := det.Detect(bars, frame)

	// Mutating a bar must not change any signal at earlier indices.
	mutated := make([]model.Bar, len(bars))
	copy(mutated, bars)
	last := len(mutated) - 1
	mutated[last].Close = 1500
	mutated[last].Volume = 9999
	after := det.Detect(mutated, indicator.Compute(mutated, indicator.DefaultConfig(model.M15)))

	for i := 0; i < last; i++ {
		if before[i] != after[i] {
			t.Fatalf("signal at bar %d changed when bar %d was mutated", i, last)
		}
	}
}

func TestDetect_DegenerateTieIsLong(t *testing.T) {
	// Malformed data where high ≤ low can satisfy both breakout conditions;
	// the long side must win.
	bars := seriesWithBreakout(None)
	for i := range bars {
		// Inverted envelope: rolling high 1990, rolling low 2010.
		bars[i].High = 1990
		bars[i].Low = 2010
	}
	last := len(bars) - 1
	bars[last].Close = 2000 // above rolling high AND below rolling low
	bars[last].Volume = 300
	signals := detect(t, bars)
	if signals[last] != Long {
		t.Errorf("degenerate tie: got %v, want LONG", signals[last])
	}
}

func TestBuildPrediction(t *testing.T) {
	p := BuildPrediction(Long, 2.0, true, true, "NY 08:00–10:00")
	if p.Status != "LONG" || p.Long != 85 {
		t.Errorf("long prediction: %+v", p)
	}
	p = BuildPrediction(None, 1.1, true, true, "NY 08:00–10:00")
	if p.Status != "NEUTRAL" || p.Neutral != 100 {
		t.Errorf("neutral prediction: %+v", p)
	}
	p = BuildPrediction(None, 0, false, false, "NY 08:00–10:00")
	if p.Analysis == "" {
		t.Error("expected a waiting-for-session analysis string")
	}
}
