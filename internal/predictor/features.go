// Package predictor scores the auxiliary classifier over a bar window and
// blends its class probabilities into the live payload. Inference only: the
// model ships as a JSON weight file produced offline, and feature
// construction here uses past bars exclusively.
package predictor

import (
	"goldsys/internal/indicator"
	"goldsys/internal/model"
)

// Features is the classifier input vector, in weight-file column order.
type Features struct {
	EMA20    float64
	EMA50    float64
	EMA200   float64
	RSI14    float64
	ATR14    float64
	VWAPDist float64 // % distance of close from session VWAP
	Hour     float64 // UTC hour of the last bar
	Close    float64
}

// vector returns the features in column order, bias excluded.
func (f *Features) vector() []float64 {
	return []float64{f.EMA20, f.EMA50, f.EMA200, f.RSI14, f.ATR14, f.VWAPDist, f.Hour, f.Close}
}

// ComputeFeatures derives the classifier inputs from a bar series. Returns
// false when the series is too short to warm up the slowest feature.
func ComputeFeatures(bars []model.Bar) (*Features, bool) {
	const slowest = 200
	if len(bars) < slowest+1 {
		return nil, false
	}

	closes := make([]float64, len(bars))
	for i := range bars {
		closes[i] = bars[i].Close
	}

	atr := indicator.NewATR(14)
	for _, b := range bars {
		atr.Update(b)
	}

	rsi, ok := rsi14(closes)
	if !ok {
		return nil, false
	}

	last := bars[len(bars)-1]
	f := &Features{
		EMA20:    ema(closes, 20),
		EMA50:    ema(closes, 50),
		EMA200:   ema(closes, 200),
		RSI14:    rsi,
		ATR14:    atr.Value(),
		VWAPDist: vwapDist(bars),
		Hour:     float64(last.TS.UTC().Hour()),
		Close:    last.Close,
	}
	return f, true
}

// ema is the recursive exponential mean with alpha = 2/(span+1), seeded with
// the first close.
func ema(closes []float64, span int) float64 {
	alpha := 2.0 / (float64(span) + 1.0)
	v := closes[0]
	for _, c := range closes[1:] {
		v = alpha*c + (1-alpha)*v
	}
	return v
}

// rsi14 is the simple-mean RSI over the last 14 deltas.
func rsi14(closes []float64) (float64, bool) {
	const period = 14
	if len(closes) < period+1 {
		return 0, false
	}
	var gain, loss float64
	for i := len(closes) - period; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	gain /= period
	loss /= period
	if loss == 0 {
		return 100, true
	}
	rs := gain / loss
	return 100 - 100/(1+rs), true
}

// vwapDist is the % distance of the last close from the volume-weighted
// average of the window's typical prices.
func vwapDist(bars []model.Bar) float64 {
	var pv, vol float64
	for _, b := range bars {
		typical := (b.High + b.Low + b.Close) / 3
		pv += typical * b.Volume
		vol += b.Volume
	}
	if vol == 0 {
		return 0
	}
	vwap := pv / vol
	if vwap == 0 {
		return 0
	}
	return (bars[len(bars)-1].Close - vwap) / vwap * 100
}
