package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"goldsys/internal/model"
)

func TestStreamDeliversTicks(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		var sub subscribeMsg
		if err := conn.ReadJSON(&sub); err != nil {
			t.Errorf("read subscribe: %v", err)
			return
		}
		if sub.Action != "subscribe" || sub.Symbol != "XAUUSD" {
			t.Errorf("subscribe = %+v", sub)
		}

		conn.WriteJSON(map[string]any{"ack": true}) // heartbeat, no symbol
		conn.WriteJSON(wireTick{Symbol: "XAUUSD", Bid: 2650.1, Ask: 2650.4, Time: 1768222800000})
		conn.WriteJSON(wireTick{Symbol: "XAUUSD", Bid: 2650.2, Ask: 2650.5, Time: 1768222801000})

		// Hold the connection open until the client goes away.
		conn.ReadMessage()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := New(Config{
		URL:    "ws" + strings.TrimPrefix(srv.URL, "http"),
		Symbol: "XAUUSD",
	})
	tickCh := make(chan model.Tick, 8)
	go s.Run(ctx, tickCh)

	var got []model.Tick
	timeout := time.After(5 * time.Second)
	for len(got) < 2 {
		select {
		case tick := <-tickCh:
			got = append(got, tick)
		case <-timeout:
			t.Fatalf("got %d ticks before timeout, want 2", len(got))
		}
	}

	if got[0].Bid != 2650.1 || got[0].Ask != 2650.4 {
		t.Errorf("tick 0 = %+v", got[0])
	}
	want := time.Unix(1768222800, 0).UTC()
	if !got[0].TS.Equal(want) {
		t.Errorf("tick 0 ts = %s, want %s", got[0].TS, want)
	}
}

func TestTickTimeFallback(t *testing.T) {
	before := time.Now().UTC()
	ts := tickTime(0)
	if ts.Before(before) || time.Since(ts) > time.Minute {
		t.Errorf("fallback ts = %s", ts)
	}
}
