package predictor

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"goldsys/internal/model"
)

func flatSeries(n int, close float64) []model.Bar {
	start := time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC)
	bars := make([]model.Bar, n)
	for i := range bars {
		bars[i] = model.Bar{
			Symbol: "XAUUSD",
			TF:     model.M5,
			TS:     start.Add(time.Duration(i) * 5 * time.Minute),
			Open:   close, High: close, Low: close, Close: close,
			Volume: 100,
		}
	}
	return bars
}

func TestComputeFeaturesFlatSeries(t *testing.T) {
	f, ok := ComputeFeatures(flatSeries(250, 2650))
	if !ok {
		t.Fatal("series should be long enough")
	}
	// On a constant series every EMA converges to the price, the VWAP
	// distance is zero and RSI has no losses.
	for name, got := range map[string]float64{
		"EMA20": f.EMA20, "EMA50": f.EMA50, "EMA200": f.EMA200, "Close": f.Close,
	} {
		if d := got - 2650; d > 1e-6 || d < -1e-6 {
			t.Errorf("%s = %v, want 2650", name, got)
		}
	}
	if f.VWAPDist != 0 {
		t.Errorf("VWAPDist = %v, want 0", f.VWAPDist)
	}
	if f.RSI14 != 100 {
		t.Errorf("RSI14 = %v, want 100 (no losses in window)", f.RSI14)
	}
	if f.ATR14 != 0 {
		t.Errorf("ATR14 = %v, want 0 on a flat series", f.ATR14)
	}
}

func TestComputeFeaturesShortSeries(t *testing.T) {
	if _, ok := ComputeFeatures(flatSeries(150, 2650)); ok {
		t.Fatal("150 bars cannot warm up EMA200")
	}
}

func TestRSIDirection(t *testing.T) {
	// Fifteen rising closes then fifteen falling ones.
	up := []float64{100, 101, 102, 103, 104, 105, 106, 107, 108, 109, 110, 111, 112, 113, 114}
	rsi, ok := rsi14(up)
	if !ok || rsi != 100 {
		t.Errorf("rising rsi = %v ok=%v, want 100", rsi, ok)
	}

	down := []float64{114, 113, 112, 111, 110, 109, 108, 107, 106, 105, 104, 103, 102, 101, 100}
	rsi, ok = rsi14(down)
	if !ok || rsi != 0 {
		t.Errorf("falling rsi = %v ok=%v, want 0", rsi, ok)
	}
}

func TestLoadMissingModelIsNeutral(t *testing.T) {
	m, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("missing model must not error: %v", err)
	}
	if m != nil {
		t.Fatal("model should be nil")
	}

	p := m.Score(&Features{Close: 2650})
	if p != Neutral() {
		t.Errorf("nil model score = %+v, want neutral", p)
	}
}

func TestLoadRejectsBadShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	os.WriteFile(path, []byte(`{"features":[],"weights":[[1,2]],"bias":[0]}`), 0o644)
	if _, err := Load(path); err == nil {
		t.Fatal("expected shape validation error")
	}
}

func TestScoreSoftmax(t *testing.T) {
	// Zero weights with a biased long class: probabilities must order
	// accordingly and sum to 1.
	zeros := make([]float64, len((&Features{}).vector()))
	m := &Model{
		Features: []string{"ema20", "ema50", "ema200", "rsi14", "atr14", "vwap_dist", "hour", "close"},
		Weights:  [][]float64{zeros, zeros, zeros},
		Bias:     []float64{0, 1, 0},
	}

	p := m.Score(&Features{})
	sum := p.Neutral + p.Long + p.Short
	if d := sum - 1; d > 1e-9 || d < -1e-9 {
		t.Fatalf("probabilities sum = %v", sum)
	}
	if p.Long <= p.Neutral || p.Neutral != p.Short {
		t.Errorf("score = %+v, want long dominant and the others equal", p)
	}
}
