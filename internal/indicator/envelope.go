package indicator

import "goldsys/internal/model"

// RollingHigh tracks the maximum high over a trailing window of bars.
// The window is sized in bars but represents a wall-clock span (4 hours on
// 15-minute bars = 16 bars); callers scale it via Timeframe.BarsIn so the
// span survives a timeframe change.
type RollingHigh struct {
	period int
	buf    []float64
	idx    int
	count  int
}

// NewRollingHigh creates a rolling-high indicator over period bars.
func NewRollingHigh(period int) *RollingHigh {
	return &RollingHigh{
		period: period,
		buf:    make([]float64, period),
	}
}

func (r *RollingHigh) Name() string { return "ROLL_HIGH_" + itoa(r.period) }

func (r *RollingHigh) Update(bar model.Bar) {
	r.buf[r.idx] = bar.High
	r.idx = (r.idx + 1) % r.period
	r.count++
}

// Value scans the window. The window is small (≤16 at M15) so the O(period)
// scan is cheaper than maintaining a monotonic deque.
func (r *RollingHigh) Value() float64 {
	n := r.count
	if n > r.period {
		n = r.period
	}
	if n == 0 {
		return 0
	}
	max := r.buf[0]
	for i := 1; i < n; i++ {
		if r.buf[i] > max {
			max = r.buf[i]
		}
	}
	return max
}

func (r *RollingHigh) Ready() bool { return r.count >= r.period }

// RollingLow tracks the minimum low over a trailing window of bars.
type RollingLow struct {
	period int
	buf    []float64
	idx    int
	count  int
}

// NewRollingLow creates a rolling-low indicator over period bars.
func NewRollingLow(period int) *RollingLow {
	return &RollingLow{
		period: period,
		buf:    make([]float64, period),
	}
}

func (r *RollingLow) Name() string { return "ROLL_LOW_" + itoa(r.period) }

func (r *RollingLow) Update(bar model.Bar) {
	r.buf[r.idx] = bar.Low
	r.idx = (r.idx + 1) % r.period
	r.count++
}

func (r *RollingLow) Value() float64 {
	n := r.count
	if n > r.period {
		n = r.period
	}
	if n == 0 {
		return 0
	}
	min := r.buf[0]
	for i := 1; i < n; i++ {
		if r.buf[i] < min {
			min = r.buf[i]
		}
	}
	return min
}

func (r *RollingLow) Ready() bool { return r.count >= r.period }
