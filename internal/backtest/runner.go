package backtest

import (
	"errors"
	"fmt"
	"log"
	"time"

	"goldsys/internal/indicator"
	"goldsys/internal/model"
	"goldsys/internal/strategy"
)

// ErrNoData is returned when the requested range holds no bars at all. A range
// that holds bars but is too short for the indicator warm-up is not an error;
// it produces an empty result.
var ErrNoData = errors.New("backtest: no bars in requested range")

// Request describes one backtest run. Start and End are calendar dates; End is
// inclusive, so Start == End backtests a single day.
type Request struct {
	Symbol string
	Start  time.Time
	End    time.Time
	TF     model.Timeframe
}

// Validate checks the request before any data is read.
func (r Request) Validate() error {
	if r.Symbol == "" {
		return errors.New("backtest: symbol is required")
	}
	if r.TF.Duration() == 0 {
		return fmt.Errorf("backtest: unknown timeframe %q", string(r.TF))
	}
	if r.End.Before(r.Start) {
		return fmt.Errorf("backtest: end %s before start %s",
			r.End.Format("2006-01-02"), r.Start.Format("2006-01-02"))
	}
	return nil
}

// Result is the full output of one run: the summary plus the trade log it was
// reduced from.
type Result struct {
	Summary Summary       `json:"summary"`
	Trades  []ClosedTrade `json:"trades"`
}

// Runner wires the bar store, indicator pipeline, detector and simulator into
// a single Run call.
type Runner struct {
	reader   model.BarReader
	detector *strategy.Detector
}

// NewRunner creates a runner on top of a bar store and a configured detector.
func NewRunner(reader model.BarReader, detector *strategy.Detector) *Runner {
	return &Runner{reader: reader, detector: detector}
}

// Run executes one backtest: read bars for the date range, compute the
// indicator frame, detect signals, simulate trades, aggregate.
func (r *Runner) Run(req Request) (*Result, error) {
	if err := r.reqErr(req); err != nil {
		return nil, err
	}

	// End is an inclusive calendar date; the store query is [from, to).
	from := req.Start.Unix()
	to := req.End.Add(24 * time.Hour).Unix()

	bars, err := r.reader.ReadBars(req.Symbol, req.TF, from, to)
	if err != nil {
		return nil, fmt.Errorf("backtest: read bars: %w", err)
	}
	if len(bars) == 0 {
		return nil, ErrNoData
	}
	log.Printf("[backtest] %s %s: %d bars %s..%s", req.Symbol, req.TF, len(bars),
		req.Start.Format("2006-01-02"), req.End.Format("2006-01-02"))

	frame := indicator.Compute(bars, indicator.DefaultConfig(req.TF))
	signals := r.detector.Detect(bars, frame)
	trades := NewSimulator().Run(bars, frame, signals)

	return &Result{Summary: Aggregate(trades), Trades: trades}, nil
}

func (r *Runner) reqErr(req Request) error {
	if r.reader == nil {
		return errors.New("backtest: nil bar reader")
	}
	if r.detector == nil {
		return errors.New("backtest: nil detector")
	}
	return req.Validate()
}
