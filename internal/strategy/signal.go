// Package strategy turns a bar series and its indicator frame into a
// discrete per-bar trade signal.
//
// A signal at bar i is a pure function of bars i-1..i, the indicator frame,
// and the session filter. It never depends on simulator state or earlier
// signals, so the stream can be recomputed from scratch at any point and is
// identical between live evaluation and backtest.
package strategy

// Kind is the discrete per-bar signal.
type Kind int

const (
	None Kind = iota
	Long
	Short
)

func (k Kind) String() string {
	switch k {
	case Long:
		return "LONG"
	case Short:
		return "SHORT"
	}
	return "NEUTRAL"
}

// Signal is a detected entry opportunity at a specific bar.
type Signal struct {
	Kind   Kind
	Index  int     // bar index in the series the detector ran over
	Price  float64 // close of the signal bar
	Ratio  float64 // volume ratio at the signal bar
	Motive string  // human-readable rationale for the trade log
}

// Trade motives recorded on entry.
const (
	MotiveBullish = "Institutional Bullish Breakout (4H High + Volume)"
	MotiveBearish = "Institutional Bearish Breakout (4H Low + Volume)"
)
