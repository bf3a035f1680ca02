package indicator

import (
	"time"

	"goldsys/internal/model"
)

// envelopeSpan is the wall-clock span of the breakout envelope: the rolling
// high/low is "the 4-hour high/low" regardless of bar interval.
const envelopeSpan = 4 * time.Hour

// Config holds the window parameters for the pipeline.
type Config struct {
	VolumeWindow int // trailing volume mean window (bars)
	ATRWindow    int // ATR period (bars)
	EnvelopeBars int // rolling high/low window (bars)
}

// DefaultConfig returns the standard windows for a timeframe: 20-bar volume
// mean, ATR(14), and an envelope sized to 4 hours of bars.
func DefaultConfig(tf model.Timeframe) Config {
	return Config{
		VolumeWindow: 20,
		ATRWindow:    14,
		EnvelopeBars: tf.BarsIn(envelopeSpan),
	}
}

// Values holds the derived indicator values for one bar. Each value carries
// its own defined flag: indicators warm up at different rates and a consumer
// must never treat an unwarmed value as usable.
type Values struct {
	VolumeRatio   float64
	VolumeRatioOK bool

	ATR   float64
	ATROK bool

	RollingHigh float64
	RollingLow  float64
	EnvelopeOK  bool
}

// Frame is the per-bar indicator series aligned 1:1 with the bar series that
// produced it. It is immutable after Compute returns.
type Frame struct {
	cfg    Config
	points []Values
}

// Compute runs a single forward pass over bars and returns the completed
// frame. Only past and current bars feed each point — the frame is safe for
// both backtest and live evaluation (the look-ahead feature path used for
// classifier labels must never go through here).
func Compute(bars []model.Bar, cfg Config) *Frame {
	vr := NewVolumeRatio(cfg.VolumeWindow)
	atr := NewATR(cfg.ATRWindow)
	high := NewRollingHigh(cfg.EnvelopeBars)
	low := NewRollingLow(cfg.EnvelopeBars)

	points := make([]Values, len(bars))
	for i, bar := range bars {
		vr.Update(bar)
		atr.Update(bar)
		high.Update(bar)
		low.Update(bar)

		p := &points[i]
		if vr.Ready() {
			p.VolumeRatio = vr.Value()
			p.VolumeRatioOK = true
		}
		if atr.Ready() {
			p.ATR = atr.Value()
			p.ATROK = true
		}
		if high.Ready() {
			p.RollingHigh = high.Value()
			p.RollingLow = low.Value()
			p.EnvelopeOK = true
		}
	}

	return &Frame{cfg: cfg, points: points}
}

// Len returns the number of points in the frame.
func (f *Frame) Len() int { return len(f.points) }

// At returns the values for bar index i.
func (f *Frame) At(i int) Values { return f.points[i] }

// Config returns the window parameters the frame was computed with.
func (f *Frame) Config() Config { return f.cfg }

// WarmupBars returns the number of leading bars with no fully defined point:
// the largest window dominates (the ATR needs one extra bar for its first
// true range).
func (f *Frame) WarmupBars() int {
	w := f.cfg.VolumeWindow
	if a := f.cfg.ATRWindow + 1; a > w {
		w = a
	}
	if e := f.cfg.EnvelopeBars; e > w {
		w = e
	}
	return w - 1
}
