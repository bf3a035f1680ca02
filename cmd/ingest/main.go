// cmd/ingest backfills historical bars from the terminal gateway into the
// local SQLite store, so backtests can run without hammering the gateway.
//
// Usage:
//
//	go run ./cmd/ingest --from=2025-01-01 --to=2026-01-31 --tf=M15,M5
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pquerna/otp/totp"

	"goldsys/config"
	"goldsys/internal/model"
	sqlitestore "goldsys/internal/store/sqlite"
	"goldsys/pkg/terminal"
)

// chunk keeps single gateway responses at a sane size (a week of M1 bars is
// about ten thousand rows).
const chunk = 7 * 24 * time.Hour

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	fromStr := flag.String("from", "", "Start date (YYYY-MM-DD, required)")
	toStr := flag.String("to", "", "End date inclusive (YYYY-MM-DD, required)")
	tfStr := flag.String("tf", "", "Timeframes, comma-separated (default ENABLED_TFS)")
	flag.Parse()

	if *fromStr == "" || *toStr == "" {
		flag.Usage()
		os.Exit(2)
	}
	from, err := time.ParseInLocation("2006-01-02", *fromStr, time.UTC)
	if err != nil {
		log.Fatalf("[ingest] bad --from: %v", err)
	}
	to, err := time.ParseInLocation("2006-01-02", *toStr, time.UTC)
	if err != nil {
		log.Fatalf("[ingest] bad --to: %v", err)
	}
	end := to.Add(24 * time.Hour) // inclusive end date

	cfg := config.Load()
	if *tfStr != "" {
		cfg.EnabledTFs = strings.TrimSpace(*tfStr)
	}
	tfs := cfg.ParseTFs()
	if len(tfs) == 0 {
		log.Fatal("[ingest] no valid timeframes")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("[ingest] interrupted, finishing current batch...")
		cancel()
	}()

	os.MkdirAll("data", 0o755)
	writer, err := sqlitestore.New(sqlitestore.WriterConfig{DBPath: cfg.SQLitePath})
	if err != nil {
		log.Fatalf("[ingest] sqlite init failed: %v", err)
	}
	defer writer.Close()

	term := terminal.New(terminal.Config{
		BaseURL: cfg.TerminalBaseURL,
		APIKey:  cfg.TerminalAPIKey,
	})
	code := ""
	if cfg.TerminalTOTPSecret != "" {
		code, err = totp.GenerateCode(cfg.TerminalTOTPSecret, time.Now())
		if err != nil {
			log.Fatalf("[ingest] TOTP generation failed: %v", err)
		}
	}
	if err := term.Login(ctx, cfg.TerminalAccount, cfg.TerminalPassword, cfg.TerminalServer, code); err != nil {
		log.Fatalf("[ingest] terminal login failed: %v", err)
	}
	defer term.Logout(context.Background())
	log.Printf("[ingest] connected, ingesting %s for %v from %s to %s",
		cfg.Symbol, tfs, *fromStr, *toStr)

	total := 0
	for _, tf := range tfs {
		n, err := ingestTF(ctx, term, writer, cfg.Symbol, tf, from, end)
		if err != nil {
			log.Fatalf("[ingest] %s failed: %v", tf, err)
		}
		log.Printf("[ingest] ✅ %s: %d bars stored", tf, n)
		total += n
	}
	log.Printf("[ingest] done, %d bars total", total)
}

// ingestTF walks the date range in week-sized chunks, resuming past bars that
// are already stored.
func ingestTF(ctx context.Context, term *terminal.Client, writer *sqlitestore.Writer,
	symbol string, tf model.Timeframe, from, end time.Time) (int, error) {

	if last, err := writer.LastTimestamp(symbol, tf); err == nil && last > 0 {
		resume := time.Unix(last, 0).UTC().Add(tf.Duration())
		if resume.After(from) {
			log.Printf("[ingest] %s: resuming after stored bar %s", tf, time.Unix(last, 0).UTC())
			from = resume
		}
	}

	count := 0
	for start := from; start.Before(end); start = start.Add(chunk) {
		if ctx.Err() != nil {
			return count, ctx.Err()
		}
		stop := start.Add(chunk)
		if stop.After(end) {
			stop = end
		}

		bars, err := term.RatesRange(ctx, symbol, tf, start, stop)
		if err != nil {
			return count, err
		}
		if len(bars) == 0 {
			continue
		}
		if err := writer.WriteBars(bars); err != nil {
			return count, err
		}
		count += len(bars)
		log.Printf("[ingest] %s: %s → %s, %d bars", tf,
			start.Format("2006-01-02"), stop.Format("2006-01-02"), len(bars))
	}
	return count, nil
}
