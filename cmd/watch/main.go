// cmd/watch tails the Redis live cache from a terminal: latest quote and
// prediction on startup, then the tick channel as quotes arrive. Useful for
// checking the bridge's fan-out without opening the dashboard.
//
// Usage:
//
//	go run ./cmd/watch --symbol=XAUUSD --bars=10
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"goldsys/internal/model"
	redisstore "goldsys/internal/store/redis"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	symbol := flag.String("symbol", "XAUUSD", "Instrument to watch")
	tfStr := flag.String("tf", "M15", "Timeframe for the recent bar dump")
	barCount := flag.Int("bars", 5, "Recent bars to print on startup")
	redisAddr := flag.String("redis", getEnv("REDIS_ADDR", "localhost:6379"), "Redis address")
	flag.Parse()

	tf, err := model.ParseTimeframe(*tfStr)
	if err != nil {
		log.Fatalf("[watch] bad --tf: %v", err)
	}

	reader, err := redisstore.NewReader(redisstore.ReaderConfig{
		Addr:     *redisAddr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	if err != nil {
		log.Fatalf("[watch] redis connect failed: %v", err)
	}
	defer reader.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	// ---- Snapshot: latest quote, prediction, recent bars ----
	if tick, err := reader.LatestTick(ctx, *symbol); err != nil {
		log.Printf("[watch] latest tick: %v", err)
	} else if tick != nil {
		fmt.Printf("latest quote : %s bid=%.2f ask=%.2f @ %s\n",
			tick.Symbol, tick.Bid, tick.Ask, tick.TS.Format("15:04:05"))
	} else {
		fmt.Println("latest quote : none cached yet")
	}

	if raw, err := reader.LatestPrediction(ctx, *symbol); err != nil {
		log.Printf("[watch] latest prediction: %v", err)
	} else if raw != nil {
		var pretty map[string]any
		if json.Unmarshal(raw, &pretty) == nil {
			fmt.Printf("prediction   : status=%v analysis=%v\n", pretty["status"], pretty["analysis"])
		}
	}

	bars, err := reader.RecentBars(ctx, *symbol, tf, *barCount)
	if err != nil {
		log.Printf("[watch] recent bars: %v", err)
	}
	for _, b := range bars {
		fmt.Printf("bar %s %s  O=%.2f H=%.2f L=%.2f C=%.2f V=%.0f\n",
			b.TF, b.TS.Format("01-02 15:04"), b.Open, b.High, b.Low, b.Close, b.Volume)
	}

	// ---- Live tail ----
	fmt.Printf("tailing pub:tick:%s (Ctrl+C to stop)\n", *symbol)
	tickCh := make(chan model.Tick, 100)
	go func() {
		if err := reader.SubscribeTicks(ctx, *symbol, tickCh); err != nil && ctx.Err() == nil {
			log.Printf("[watch] subscription ended: %v", err)
		}
		close(tickCh)
	}()

	for tick := range tickCh {
		fmt.Printf("%s  %s bid=%.2f ask=%.2f\n",
			tick.TS.Format("15:04:05.000"), tick.Symbol, tick.Bid, tick.Ask)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
