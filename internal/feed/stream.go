// Package feed streams live quotes from the terminal gateway's websocket
// endpoint into a channel. The caller owns the channel; the feed never
// blocks on a slow consumer, it drops.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"goldsys/internal/model"
)

const (
	initialBackoff = 1 * time.Second
	maxBackoff     = 30 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 25 * time.Second
)

// Config holds the websocket feed settings.
type Config struct {
	URL    string // e.g. "ws://localhost:8228/api/v1/stream"
	Token  string // session token from the terminal login
	Symbol string
}

// Stream is a reconnecting tick feed.
type Stream struct {
	cfg Config

	// Optional metrics hooks
	OnTick      func()
	OnReconnect func()
}

// New creates a stream. No connection until Run.
func New(cfg Config) *Stream {
	return &Stream{cfg: cfg}
}

// subscribeMsg is sent once per connection.
type subscribeMsg struct {
	Action string `json:"action"`
	Symbol string `json:"symbol"`
	Token  string `json:"token"`
}

// wireTick is the gateway's tick wire format.
type wireTick struct {
	Symbol string  `json:"symbol"`
	Bid    float64 `json:"bid"`
	Ask    float64 `json:"ask"`
	Time   int64   `json:"time"` // epoch milliseconds
}

// Run connects and streams ticks into tickCh until ctx is cancelled,
// reconnecting with exponential backoff on any failure.
func (s *Stream) Run(ctx context.Context, tickCh chan<- model.Tick) error {
	backoff := initialBackoff
	for {
		err := s.connectAndRead(ctx, tickCh)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("[feed] connection lost: %v — reconnecting in %v", err, backoff)
		if s.OnReconnect != nil {
			s.OnReconnect()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// connectAndRead runs one connection lifetime: dial, subscribe, read until
// error or cancellation.
func (s *Stream) connectAndRead(ctx context.Context, tickCh chan<- model.Tick) error {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, s.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", s.cfg.URL, err)
	}
	defer conn.Close()

	sub := subscribeMsg{Action: "subscribe", Symbol: s.cfg.Symbol, Token: s.cfg.Token}
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	log.Printf("[feed] connected, subscribed to %s", s.cfg.Symbol)

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Close the connection when ctx is cancelled so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				conn.Close()
				return
			case <-done:
				return
			case <-ticker.C:
				deadline := time.Now().Add(5 * time.Second)
				if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
					conn.Close()
					return
				}
			}
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}

		var wt wireTick
		if err := json.Unmarshal(raw, &wt); err != nil {
			log.Printf("[feed] skip malformed message: %v", err)
			continue
		}
		if wt.Symbol == "" {
			continue // subscription ack or heartbeat
		}

		tick := model.Tick{
			Symbol: wt.Symbol,
			Bid:    wt.Bid,
			Ask:    wt.Ask,
			TS:     tickTime(wt.Time),
		}
		if s.OnTick != nil {
			s.OnTick()
		}
		select {
		case tickCh <- tick:
		default:
			log.Println("[feed] tickCh full, dropping tick")
		}
	}
}

// tickTime converts the gateway's epoch-millisecond stamp, falling back to
// wall clock when the gateway omits it.
func tickTime(ms int64) time.Time {
	if ms > 0 {
		return time.Unix(0, ms*int64(time.Millisecond)).UTC()
	}
	return time.Now().UTC()
}
