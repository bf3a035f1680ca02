// Package redis is the live distribution layer: the latest tick, bar and
// prediction for each symbol are cached under stable keys and fanned out over
// PubSub, with short bar streams kept for late-joining consumers.
package redis

import (
	"context"
	"fmt"
	"log"
	"time"

	"goldsys/internal/model"

	goredis "github.com/go-redis/redis/v8"
)

const (
	// Streams hold ~3h of bars regardless of timeframe.
	streamWindow     = 3 * time.Hour
	defaultLatestTTL = 30 * time.Minute
)

// WriterConfig configures the Redis writer.
type WriterConfig struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int
}

// Writer publishes ticks, bars and predictions to Redis.
type Writer struct {
	client *goredis.Client
}

// Client returns the underlying Redis client for health checks.
func (w *Writer) Client() *goredis.Client { return w.client }

// New creates a new Redis Writer and pings the server.
func New(cfg WriterConfig) (*Writer, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return &Writer{client: client}, nil
}

// Run reads closed bars from barCh and writes them to Redis.
// Blocks until ctx is cancelled or barCh is closed.
func (w *Writer) Run(ctx context.Context, barCh <-chan model.Bar) {
	for {
		select {
		case <-ctx.Done():
			return
		case bar, ok := <-barCh:
			if !ok {
				return
			}
			w.writeBar(ctx, bar)
		}
	}
}

// PublishTick caches and fans out the latest quote for a symbol.
func (w *Writer) PublishTick(ctx context.Context, tick model.Tick) {
	jsonData := string(tick.JSON())
	latestKey := "tick:latest:" + tick.Symbol
	pubsubCh := "pub:tick:" + tick.Symbol

	pipe := w.client.Pipeline()
	pipe.Set(ctx, latestKey, jsonData, defaultLatestTTL)
	pipe.Publish(ctx, pubsubCh, jsonData)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[redis] tick pipeline error for %s: %v", tick.Symbol, err)
	}
}

// PublishPrediction caches and fans out the latest evaluated signal payload.
// The payload is the already-encoded JSON the dashboard consumes.
func (w *Writer) PublishPrediction(ctx context.Context, symbol string, payload []byte) {
	jsonData := string(payload)
	latestKey := "prediction:latest:" + symbol
	pubsubCh := "pub:prediction:" + symbol

	pipe := w.client.Pipeline()
	pipe.Set(ctx, latestKey, jsonData, defaultLatestTTL)
	pipe.Publish(ctx, pubsubCh, jsonData)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[redis] prediction pipeline error for %s: %v", symbol, err)
	}
}

// writeBar performs the pipelined writes for a closed bar: XADD to the
// trimmed series stream, SET latest, PUBLISH for subscribers.
func (w *Writer) writeBar(ctx context.Context, bar model.Bar) {
	streamKey := "bar:" + string(bar.TF) + ":" + bar.Symbol
	latestKey := "bar:" + string(bar.TF) + ":latest:" + bar.Symbol
	pubsubCh := "pub:bar:" + string(bar.TF) + ":" + bar.Symbol
	jsonData := string(bar.JSON())

	pipe := w.client.Pipeline()

	pipe.XAdd(ctx, &goredis.XAddArgs{
		Stream: streamKey,
		MaxLen: streamMaxLen(bar.TF),
		Approx: true,
		Values: map[string]interface{}{
			"data": jsonData,
		},
	})
	pipe.Set(ctx, latestKey, jsonData, defaultLatestTTL)
	pipe.Publish(ctx, pubsubCh, jsonData)

	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[redis] bar pipeline error for %s: %v", bar.Key(), err)
	}
}

// streamMaxLen sizes a bar stream to the ~3h window, with a floor so trims
// never starve slow timeframes.
func streamMaxLen(tf model.Timeframe) int64 {
	step := tf.Duration()
	if step <= 0 {
		return 200
	}
	maxLen := int64(streamWindow/step) + 100
	if maxLen < 200 {
		maxLen = 200
	}
	return maxLen
}

// Close closes the Redis client.
func (w *Writer) Close() error {
	return w.client.Close()
}
