package backtest

import (
	"sort"
	"time"

	"github.com/montanaflynn/stats"
)

// DayStats is one calendar day's slice of the trade log, keyed by the entry
// time of each trade.
type DayStats struct {
	Date   string  `json:"date"`
	Trades int     `json:"trades"`
	Wins   int     `json:"wins"`
	Losses int     `json:"losses"`
	Profit float64 `json:"profit"`
}

// Summary reduces a closed-trade log into the headline numbers shown by the
// backtest CLI and the dashboard. Wins are trades with strictly positive
// profit; break-even exits count as losses so the win rate never flatters
// a strategy that keeps scratching out.
type Summary struct {
	TotalTrades  int     `json:"total_trades"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	WinRate      float64 `json:"win_rate"`
	Profit       float64 `json:"profit"`
	FinalBalance float64 `json:"final_balance"`

	AverageWin  float64 `json:"average_win"`
	AverageLoss float64 `json:"average_loss"`
	LargestWin  float64 `json:"largest_win"`
	LargestLoss float64 `json:"largest_loss"`

	Daily []DayStats `json:"daily"`
}

// Aggregate computes the summary for a trade log. An empty log yields a zero
// summary with the starting balance intact and a zero win rate.
func Aggregate(trades []ClosedTrade) Summary {
	sum := Summary{FinalBalance: StartingBalance}
	if len(trades) == 0 {
		return sum
	}

	var winAmts, lossAmts []float64
	days := map[string]*DayStats{}

	for _, t := range trades {
		sum.TotalTrades++
		sum.Profit += t.Profit
		if t.Profit > 0 {
			sum.Wins++
			winAmts = append(winAmts, t.Profit)
		} else {
			sum.Losses++
			lossAmts = append(lossAmts, t.Profit)
		}

		key := dayKey(t.EntryTime)
		d, ok := days[key]
		if !ok {
			d = &DayStats{Date: key}
			days[key] = d
		}
		d.Trades++
		if t.Profit > 0 {
			d.Wins++
		} else {
			d.Losses++
		}
		d.Profit += t.Profit
	}

	sum.WinRate = 100 * float64(sum.Wins) / float64(sum.TotalTrades)
	sum.FinalBalance = StartingBalance + sum.Profit

	if len(winAmts) > 0 {
		sum.AverageWin, _ = stats.Mean(winAmts)
		sum.LargestWin, _ = stats.Max(winAmts)
	}
	if len(lossAmts) > 0 {
		sum.AverageLoss, _ = stats.Mean(lossAmts)
		sum.LargestLoss, _ = stats.Min(lossAmts)
	}

	sum.Daily = make([]DayStats, 0, len(days))
	for _, d := range days {
		sum.Daily = append(sum.Daily, *d)
	}
	sort.Slice(sum.Daily, func(i, j int) bool { return sum.Daily[i].Date < sum.Daily[j].Date })

	return sum
}

// dayKey is shared by the aggregator and tests so the bucketing convention
// lives in one place.
func dayKey(ts time.Time) string {
	return ts.Format("2006-01-02")
}
