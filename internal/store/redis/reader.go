package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"goldsys/internal/model"

	goredis "github.com/go-redis/redis/v8"
)

// ReaderConfig configures the Redis reader.
type ReaderConfig struct {
	Addr     string
	Password string
	DB       int
}

// Reader reads the live cache: latest tick and prediction by key, recent
// bars from the trimmed series streams, and PubSub subscriptions for
// push-style consumers.
type Reader struct {
	client *goredis.Client
}

// NewReader creates a new Redis Reader and pings the server.
func NewReader(cfg ReaderConfig) (*Reader, error) {
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

	log.Printf("[redis-reader] connected to %s", cfg.Addr)
	return &Reader{client: client}, nil
}

// LatestTick returns the most recent cached quote for a symbol.
// Returns nil without error when no tick has been published yet.
func (r *Reader) LatestTick(ctx context.Context, symbol string) (*model.Tick, error) {
	data, err := r.client.Get(ctx, "tick:latest:"+symbol).Result()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get tick: %w", err)
	}
	var tick model.Tick
	if err := json.Unmarshal([]byte(data), &tick); err != nil {
		return nil, fmt.Errorf("unmarshal tick: %w", err)
	}
	return &tick, nil
}

// LatestPrediction returns the most recent cached prediction payload for a
// symbol, or nil when none has been published yet.
func (r *Reader) LatestPrediction(ctx context.Context, symbol string) ([]byte, error) {
	data, err := r.client.Get(ctx, "prediction:latest:"+symbol).Result()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get prediction: %w", err)
	}
	return []byte(data), nil
}

// RecentBars returns up to count most recent closed bars for symbol:tf from
// the trimmed stream, ordered by timestamp ascending.
func (r *Reader) RecentBars(ctx context.Context, symbol string, tf model.Timeframe, count int) ([]model.Bar, error) {
	streamKey := "bar:" + string(tf) + ":" + symbol
	msgs, err := r.client.XRevRangeN(ctx, streamKey, "+", "-", int64(count)).Result()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis xrevrange %s: %w", streamKey, err)
	}

	// XREVRANGE is newest-first; replay order wants oldest-first.
	bars := make([]model.Bar, 0, len(msgs))
	for i := len(msgs) - 1; i >= 0; i-- {
		data, ok := msgs[i].Values["data"].(string)
		if !ok {
			continue
		}
		var b model.Bar
		if err := json.Unmarshal([]byte(data), &b); err != nil {
			log.Printf("[redis-reader] skip malformed bar in %s: %v", streamKey, err)
			continue
		}
		bars = append(bars, b)
	}
	return bars, nil
}

// SubscribeTicks subscribes to the live tick channel for a symbol and
// delivers decoded ticks until ctx is cancelled.
func (r *Reader) SubscribeTicks(ctx context.Context, symbol string, out chan<- model.Tick) error {
	sub := r.client.Subscribe(ctx, "pub:tick:"+symbol)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var tick model.Tick
			if err := json.Unmarshal([]byte(msg.Payload), &tick); err != nil {
				log.Printf("[redis-reader] skip malformed tick: %v", err)
				continue
			}
			select {
			case out <- tick:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// Close closes the reader.
func (r *Reader) Close() error {
	return r.client.Close()
}
