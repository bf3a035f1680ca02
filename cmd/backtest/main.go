// cmd/backtest replays stored bars through the breakout detector and the
// trade simulator, then prints the performance summary.
//
// Usage:
//
//	go run ./cmd/backtest --symbol=XAUUSD --from=2026-01-01 --to=2026-01-31 --tf=M15
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/olekukonko/tablewriter"

	"goldsys/internal/backtest"
	"goldsys/internal/model"
	"goldsys/internal/session"
	sqlitestore "goldsys/internal/store/sqlite"
	"goldsys/internal/strategy"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	// Flags
	symbol := flag.String("symbol", "XAUUSD", "Instrument to test")
	fromStr := flag.String("from", "", "Start date (YYYY-MM-DD, required)")
	toStr := flag.String("to", "", "End date inclusive (YYYY-MM-DD, required)")
	tfStr := flag.String("tf", "M15", "Bar timeframe (M1, M5, M15, H1)")
	dbPath := flag.String("db", "data/bars.db", "SQLite database path")
	csvPath := flag.String("csv", "", "Optional CSV file for the trade list")
	flag.Parse()

	if *fromStr == "" || *toStr == "" {
		flag.Usage()
		os.Exit(2)
	}

	from, err := time.ParseInLocation("2006-01-02", *fromStr, time.UTC)
	if err != nil {
		log.Fatalf("[backtest] bad --from: %v", err)
	}
	to, err := time.ParseInLocation("2006-01-02", *toStr, time.UTC)
	if err != nil {
		log.Fatalf("[backtest] bad --to: %v", err)
	}
	tf, err := model.ParseTimeframe(*tfStr)
	if err != nil {
		log.Fatalf("[backtest] bad --tf: %v", err)
	}

	reader, err := sqlitestore.NewReader(*dbPath)
	if err != nil {
		log.Fatalf("[backtest] sqlite open failed: %v", err)
	}
	defer reader.Close()

	filter, err := session.NewDefault()
	if err != nil {
		log.Fatalf("[backtest] session filter: %v", err)
	}

	runner := backtest.NewRunner(reader, strategy.NewDetector(filter))
	result, err := runner.Run(backtest.Request{
		Symbol: *symbol,
		Start:  from,
		End:    to,
		TF:     tf,
	})
	if err != nil {
		if errors.Is(err, backtest.ErrNoData) {
			log.Fatalf("[backtest] no bars stored for %s %s in [%s, %s] (run cmd/ingest first)",
				*symbol, tf, *fromStr, *toStr)
		}
		log.Fatalf("[backtest] run failed: %v", err)
	}

	printSummary(result.Summary, *symbol, tf, from, to)

	if *csvPath != "" {
		if err := exportTrades(*csvPath, result.Trades); err != nil {
			log.Fatalf("[backtest] csv export failed: %v", err)
		}
		log.Printf("[backtest] exported %d trades to %s", len(result.Trades), *csvPath)
	}
}

func printSummary(s backtest.Summary, symbol string, tf model.Timeframe, from, to time.Time) {
	row := func(label, value string) {
		fmt.Printf("║  %-15s %-27s ║\n", label, value)
	}
	fmt.Println()
	fmt.Println("╔══════════════════════════════════════════════╗")
	row("Breakout test", fmt.Sprintf("%s %s", symbol, tf))
	row("Range", fmt.Sprintf("%s → %s", from.Format("2006-01-02"), to.Format("2006-01-02")))
	fmt.Println("╠══════════════════════════════════════════════╣")
	row("Trades", fmt.Sprintf("%d (W %d / L %d)", s.TotalTrades, s.Wins, s.Losses))
	row("Win rate", fmt.Sprintf("%.2f%%", s.WinRate))
	row("Net P&L", fmt.Sprintf("%+.2f", s.Profit))
	row("Final balance", fmt.Sprintf("%.2f", s.FinalBalance))
	row("Avg win/loss", fmt.Sprintf("%+.2f / %+.2f", s.AverageWin, s.AverageLoss))
	row("Best/worst", fmt.Sprintf("%+.2f / %+.2f", s.LargestWin, s.LargestLoss))
	fmt.Println("╚══════════════════════════════════════════════╝")

	if len(s.Daily) == 0 {
		return
	}
	fmt.Println()
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Date", "Trades", "Wins", "Losses", "P&L"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, day := range s.Daily {
		table.Append([]string{
			day.Date,
			fmt.Sprintf("%d", day.Trades),
			fmt.Sprintf("%d", day.Wins),
			fmt.Sprintf("%d", day.Losses),
			fmt.Sprintf("%+.2f", day.Profit),
		})
	}
	table.Render()
}

// tradeRow is the CSV projection of a closed trade.
type tradeRow struct {
	Type      string  `csv:"type"`
	EntryTime string  `csv:"entry_time"`
	Entry     float64 `csv:"entry_price"`
	ExitTime  string  `csv:"exit_time"`
	Exit      float64 `csv:"exit_price"`
	Profit    float64 `csv:"profit"`
	BreakEven bool    `csv:"break_even"`
	Motive    string  `csv:"motive"`
}

func exportTrades(path string, trades []backtest.ClosedTrade) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating CSV file: %v", err)
	}
	defer file.Close()

	rows := make([]tradeRow, len(trades))
	for i, t := range trades {
		rows[i] = tradeRow{
			Type:      t.Type,
			EntryTime: t.EntryTime.Format(time.RFC3339),
			Entry:     t.EntryPrice,
			ExitTime:  t.ExitTime.Format(time.RFC3339),
			Exit:      t.ExitPrice,
			Profit:    t.Profit,
			BreakEven: t.BreakEven,
			Motive:    t.Motive,
		}
	}
	return gocsv.MarshalFile(&rows, file)
}
