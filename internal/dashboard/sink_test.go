package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSinkPostsTick(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tick" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %s", ct)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewWithBase(srv.URL)
	err := s.SendTick(context.Background(), map[string]any{"symbol": "XAUUSD", "bid": 2650.1})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if got["symbol"] != "XAUUSD" {
		t.Errorf("payload = %v", got)
	}
}

func TestSinkBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewWithBase(srv.URL)
	if err := s.SendHistory(context.Background(), map[string]any{}); err == nil {
		t.Fatal("expected error on 500")
	}
}

func TestSinkNoAppFound(t *testing.T) {
	s := New()
	// Narrow the probe window so an absent dashboard fails fast.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.SendTick(ctx, map[string]any{}); err == nil {
		t.Fatal("expected error with no app running")
	}
}

func TestSinkInvalidatesOnConnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	s := NewWithBase(srv.URL)
	if err := s.SendTick(context.Background(), map[string]any{}); err != nil {
		t.Fatalf("send: %v", err)
	}

	srv.Close()
	if err := s.SendTick(context.Background(), map[string]any{}); err == nil {
		t.Fatal("expected error after server shutdown")
	}
	// The cached base must be dropped so the next send re-probes.
	s.mu.Lock()
	base := s.base
	s.mu.Unlock()
	if base != "" {
		t.Errorf("base = %q, want cleared", base)
	}
}
