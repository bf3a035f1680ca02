package backtest

import (
	"time"

	"goldsys/internal/model"
)

// Position is the single in-flight trade owned by the simulator. It is
// created on entry, mutated only by the simulator (the one allowed mutation
// is the break-even stop relocation), and converted to a ClosedTrade on exit.
type Position struct {
	Side       model.Side
	EntryPrice float64
	EntryTime  time.Time

	// StopLoss may move exactly once — to the entry price — when break-even
	// triggers. OriginalStopLoss is fixed at entry and never changes; the
	// 1R break-even distance is always measured against it.
	StopLoss         float64
	OriginalStopLoss float64
	TakeProfit       float64
	BreakEven        bool

	Motive string
}

// riskDistance is the 1R distance between entry and the original stop.
func (p *Position) riskDistance() float64 {
	d := p.EntryPrice - p.OriginalStopLoss
	if d < 0 {
		return -d
	}
	return d
}

// ClosedTrade is an immutable record of a completed trade. Trades are
// appended to the run's ordered log and never mutated afterwards.
type ClosedTrade struct {
	Side       model.Side `json:"-"`
	Type       string     `json:"type"` // BUY or SELL, for the dashboard contract
	EntryPrice float64    `json:"entry_price"`
	EntryTime  time.Time  `json:"entry_time"`
	ExitPrice  float64    `json:"exit_price"`
	ExitTime   time.Time  `json:"exit_time"`
	Profit     float64    `json:"profit"` // normalized risk units: −100, 0 or +300
	Motive     string     `json:"motive"`
	BreakEven  bool       `json:"break_even"` // stop had been moved to entry before exit
}

// close converts the position into its immutable trade record.
func (p *Position) close(exitPrice float64, exitTime time.Time, profit float64) ClosedTrade {
	return ClosedTrade{
		Side:       p.Side,
		Type:       p.Side.String(),
		EntryPrice: p.EntryPrice,
		EntryTime:  p.EntryTime,
		ExitPrice:  exitPrice,
		ExitTime:   exitTime,
		Profit:     profit,
		Motive:     p.Motive,
		BreakEven:  p.BreakEven,
	}
}
