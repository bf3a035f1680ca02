// Package backtest replays a signal stream over a bar series through an
// event-driven trade simulator and reduces the closed trades into summary
// statistics.
package backtest

import (
	"log"

	"goldsys/internal/indicator"
	"goldsys/internal/model"
	"goldsys/internal/strategy"
)

// Risk model constants. Profit is expressed in normalized units for a fixed
// 1-unit risk: a stopped-out trade loses 100, a take-profit earns 300 (3R).
const (
	StartingBalance = 10000.0
	LossUnit        = -100.0
	WinUnit         = 300.0

	// Stop distance is 2× current volatility; target is 6× for the fixed
	// 3:1 reward-to-risk ratio behind the ±300/−100 payoff.
	stopATRMult   = 2.0
	targetATRMult = 6.0

	// atrFallback is the stop distance used when ATR is still warming up at
	// an entry bar. A documented degradation — entries are not skipped.
	atrFallback = 2.0
)

// Simulator is the per-bar trade state machine. It holds at most one open
// position at any simulated time; the position lives entirely inside Run.
//
// Exit rules are checked against the bar close, stop-loss before take-profit:
// when both levels are crossed within one bar the adverse move is assumed to
// have happened first. A conservative policy choice, not observed market
// behavior — the intrabar path is unknowable from OHLC data.
type Simulator struct {
	trades []ClosedTrade
	open   *Position
}

// NewSimulator creates an empty simulator in the flat state.
func NewSimulator() *Simulator {
	return &Simulator{}
}

// Run replays the series and returns the ordered closed-trade log.
// bars, frame and signals must be aligned 1:1. A position still open at the
// end of the series is dropped, not force-closed: its outcome is unknown and
// a synthetic exit would skew the summary statistics.
func (s *Simulator) Run(bars []model.Bar, frame *indicator.Frame, signals []strategy.Kind) []ClosedTrade {
	if len(bars) != frame.Len() || len(bars) != len(signals) {
		log.Printf("[backtest] misaligned inputs: %d bars, %d frame points, %d signals",
			len(bars), frame.Len(), len(signals))
		return nil
	}

	s.trades = nil
	s.open = nil
	for i := range bars {
		s.step(&bars[i], frame.At(i), signals[i])
	}
	if s.open != nil {
		log.Printf("[backtest] dropping unresolved %s position opened %s",
			s.open.Side, s.open.EntryTime.Format("2006-01-02 15:04"))
		s.open = nil
	}
	return s.trades
}

// step processes one bar: exit management first, then — if flat — the entry
// check. An exit and a fresh entry may happen on the same bar.
func (s *Simulator) step(bar *model.Bar, vals indicator.Values, sig strategy.Kind) {
	price := bar.Close

	if s.open != nil {
		s.manageExit(price, bar)
	}

	if s.open == nil && sig != strategy.None {
		s.enter(sig, price, bar, vals)
	}
}

func (s *Simulator) manageExit(price float64, bar *model.Bar) {
	p := s.open

	// Break-even arming: once price has moved 1R in favor, the stop moves to
	// the entry and stays there for the rest of the position's life.
	if !p.BreakEven {
		dist := p.riskDistance()
		if p.Side == model.Long && price >= p.EntryPrice+dist {
			p.BreakEven = true
			p.StopLoss = p.EntryPrice
		} else if p.Side == model.Short && price <= p.EntryPrice-dist {
			p.BreakEven = true
			p.StopLoss = p.EntryPrice
		}
	}

	// Stop-loss (or break-even) hit.
	if (p.Side == model.Long && price <= p.StopLoss) ||
		(p.Side == model.Short && price >= p.StopLoss) {
		profit := LossUnit
		if p.BreakEven {
			profit = 0
		}
		s.trades = append(s.trades, p.close(p.StopLoss, bar.TS, profit))
		s.open = nil
		return
	}

	// Take-profit hit.
	if (p.Side == model.Long && price >= p.TakeProfit) ||
		(p.Side == model.Short && price <= p.TakeProfit) {
		s.trades = append(s.trades, p.close(p.TakeProfit, bar.TS, WinUnit))
		s.open = nil
	}
}

func (s *Simulator) enter(sig strategy.Kind, price float64, bar *model.Bar, vals indicator.Values) {
	atr := vals.ATR
	if !vals.ATROK || atr <= 0 {
		log.Printf("[backtest] ATR undefined at %s — using fallback stop distance %.1f",
			bar.TS.Format("2006-01-02 15:04"), atrFallback)
		atr = atrFallback
	}

	pos := &Position{
		EntryPrice: price,
		EntryTime:  bar.TS,
		Motive:     strategy.Motive(sig),
	}
	if sig == strategy.Long {
		pos.Side = model.Long
		pos.StopLoss = price - stopATRMult*atr
		pos.TakeProfit = price + targetATRMult*atr
	} else {
		pos.Side = model.Short
		pos.StopLoss = price + stopATRMult*atr
		pos.TakeProfit = price - targetATRMult*atr
	}
	pos.OriginalStopLoss = pos.StopLoss
	s.open = pos
}
