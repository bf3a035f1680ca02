package indicator

import (
	"math"

	"goldsys/internal/model"
)

// ATR calculates the Average True Range as a simple rolling mean of the true
// range. The true range needs the previous close, so it is undefined on the
// very first bar; ATR becomes ready once period true-range values exist
// (period+1 bars).
type ATR struct {
	period    int
	buf       []float64 // circular buffer of true ranges
	idx       int
	trCount   int // true-range values received (bars - 1)
	barCount  int
	prevClose float64
	sum       float64
	current   float64
}

// NewATR creates an ATR indicator with the given period (typically 14).
func NewATR(period int) *ATR {
	return &ATR{
		period: period,
		buf:    make([]float64, period),
	}
}

func (a *ATR) Name() string { return "ATR_" + itoa(a.period) }

func (a *ATR) Update(bar model.Bar) {
	a.barCount++
	if a.barCount == 1 {
		// No previous close yet — true range undefined
		a.prevClose = bar.Close
		return
	}

	tr := trueRange(bar.High, bar.Low, a.prevClose)
	a.prevClose = bar.Close

	if a.trCount >= a.period {
		a.sum -= a.buf[a.idx]
	}
	a.buf[a.idx] = tr
	a.sum += tr
	a.idx = (a.idx + 1) % a.period
	a.trCount++

	if a.trCount >= a.period {
		a.current = a.sum / float64(a.period)
	}
}

func (a *ATR) Value() float64 { return a.current }
func (a *ATR) Ready() bool    { return a.trCount >= a.period }

// trueRange is max(high-low, |high-prevClose|, |low-prevClose|).
func trueRange(high, low, prevClose float64) float64 {
	tr := high - low
	if hc := math.Abs(high - prevClose); hc > tr {
		tr = hc
	}
	if lc := math.Abs(low - prevClose); lc > tr {
		tr = lc
	}
	return tr
}
