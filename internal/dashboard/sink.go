// Package dashboard posts live payloads to the local dashboard app. The
// dashboard is optional: every send degrades to a log line when it is not
// running, and the bridge keeps going.
package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"
)

// The dashboard dev server binds the first free port in this range.
var probePorts = []int{3000, 3001, 3002}

const requestTimeout = 2 * time.Second

// Sink is the dashboard HTTP client. Discovery is lazy: the first send
// probes the port range and the result is cached until a send fails.
type Sink struct {
	client *http.Client

	mu   sync.Mutex
	base string // discovered base URL, "" until found
}

// New creates a sink with no discovered endpoint yet.
func New() *Sink {
	return &Sink{
		client: &http.Client{Timeout: requestTimeout},
	}
}

// NewWithBase creates a sink pinned to a fixed base URL, skipping discovery.
func NewWithBase(base string) *Sink {
	return &Sink{
		client: &http.Client{Timeout: requestTimeout},
		base:   base,
	}
}

// discover probes the candidate ports for a responding dashboard.
func (s *Sink) discover(ctx context.Context) string {
	for _, port := range probePorts {
		base := fmt.Sprintf("http://localhost:%d", port)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/api/history", nil)
		if err != nil {
			continue
		}
		resp, err := s.client.Do(req)
		if err != nil {
			continue
		}
		resp.Body.Close()
		if resp.StatusCode < 500 {
			log.Printf("[dashboard] found app at %s", base)
			return base
		}
	}
	return ""
}

// baseURL returns the cached base, running discovery if needed.
func (s *Sink) baseURL(ctx context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.base == "" {
		s.base = s.discover(ctx)
	}
	return s.base
}

// invalidate clears the cached base so the next send re-probes.
func (s *Sink) invalidate() {
	s.mu.Lock()
	s.base = ""
	s.mu.Unlock()
}

// SendTick posts the live tick payload to /api/tick.
func (s *Sink) SendTick(ctx context.Context, payload any) error {
	return s.post(ctx, "/api/tick", payload)
}

// SendHistory posts a history batch to /api/history.
func (s *Sink) SendHistory(ctx context.Context, payload any) error {
	return s.post(ctx, "/api/history", payload)
}

func (s *Sink) post(ctx context.Context, path string, payload any) error {
	base := s.baseURL(ctx)
	if base == "" {
		return fmt.Errorf("dashboard: no app found on ports %v", probePorts)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("dashboard: marshal %s payload: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("dashboard: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.invalidate()
		return fmt.Errorf("dashboard: post %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("dashboard: post %s: unexpected status %d", path, resp.StatusCode)
	}
	return nil
}
