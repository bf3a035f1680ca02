package strategy

import (
	"goldsys/internal/indicator"
	"goldsys/internal/model"
	"goldsys/internal/session"
)

// VolumeThreshold is the minimum volume ratio that confirms a breakout:
// the bar must carry at least 1.3× its trailing 20-bar average volume.
const VolumeThreshold = 1.3

// Detector implements the institutional breakout rule:
//
//	LONG:  close breaks above the prior bar's rolling 4H high on elevated volume
//	SHORT: close breaks below the prior bar's rolling 4H low on elevated volume
//
// Signals are only evaluated inside the session window, and only where the
// indicators at both the current and prior bar are fully warmed up.
type Detector struct {
	filter    *session.Filter
	threshold float64
}

// NewDetector creates a breakout detector gated by the given session filter.
func NewDetector(filter *session.Filter) *Detector {
	return &Detector{
		filter:    filter,
		threshold: VolumeThreshold,
	}
}

// Detect runs a single forward pass over the series and returns the signal
// stream aligned 1:1 with bars. Bars outside the session window, and bars
// whose indicators are still warming up, stay None.
func (d *Detector) Detect(bars []model.Bar, frame *indicator.Frame) []Kind {
	signals := make([]Kind, len(bars))
	for i := 1; i < len(bars); i++ {
		signals[i] = d.At(bars, frame, i)
	}
	return signals
}

// At evaluates the signal at a single bar index. Index 0 is always None:
// the breakout reference is the prior bar's envelope.
func (d *Detector) At(bars []model.Bar, frame *indicator.Frame, i int) Kind {
	if i < 1 || i >= len(bars) || frame.Len() != len(bars) {
		return None
	}
	if !d.filter.InSession(bars[i].TS) {
		return None
	}

	cur := frame.At(i)
	prev := frame.At(i - 1)
	if !cur.VolumeRatioOK || !prev.EnvelopeOK {
		return None
	}
	if cur.VolumeRatio <= d.threshold {
		return None
	}

	// LONG checked first: in the degenerate case where a malformed bar makes
	// both conditions true, the long side wins.
	if bars[i].Close > prev.RollingHigh {
		return Long
	}
	if bars[i].Close < prev.RollingLow {
		return Short
	}
	return None
}

// Motive returns the trade rationale recorded for a signal kind.
func Motive(k Kind) string {
	switch k {
	case Long:
		return MotiveBullish
	case Short:
		return MotiveBearish
	}
	return ""
}
