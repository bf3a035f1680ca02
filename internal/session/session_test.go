package session

import (
	"testing"
	"time"
)

func mustFilter(t *testing.T) *Filter {
	t.Helper()
	f, err := NewDefault()
	if err != nil {
		t.Fatalf("NewDefault: %v", err)
	}
	return f
}

func TestInSession_SummerOffset(t *testing.T) {
	// July: New York is UTC-4 (EDT). 08:00–10:00 local = 12:00–14:00 UTC.
	f := mustFilter(t)
	cases := []struct {
		utc  string
		want bool
	}{
		{"2026-07-15T11:59:59Z", false},
		{"2026-07-15T12:00:00Z", true},
		{"2026-07-15T13:30:00Z", true},
		{"2026-07-15T14:00:00Z", true}, // inclusive close boundary
		{"2026-07-15T14:00:01Z", false},
	}
	for _, c := range cases {
		ts, _ := time.Parse(time.RFC3339, c.utc)
		if got := f.InSession(ts); got != c.want {
			t.Errorf("InSession(%s) = %v, want %v", c.utc, got, c.want)
		}
	}
}

func TestInSession_WinterOffset(t *testing.T) {
	// January: New York is UTC-5 (EST). 08:00–10:00 local = 13:00–15:00 UTC.
	f := mustFilter(t)
	cases := []struct {
		utc  string
		want bool
	}{
		{"2026-01-15T12:30:00Z", false}, // would be in-session under EDT
		{"2026-01-15T13:00:00Z", true},
		{"2026-01-15T15:00:00Z", true},
		{"2026-01-15T15:00:01Z", false},
	}
	for _, c := range cases {
		ts, _ := time.Parse(time.RFC3339, c.utc)
		if got := f.InSession(ts); got != c.want {
			t.Errorf("InSession(%s) = %v, want %v", c.utc, got, c.want)
		}
	}
}

func TestInSession_DSTTransitionDay(t *testing.T) {
	// US DST starts 2026-03-08: clocks jump 02:00 → 03:00 EST→EDT.
	// That morning the window is already on EDT: 12:00–14:00 UTC.
	f := mustFilter(t)
	ts, _ := time.Parse(time.RFC3339, "2026-03-08T12:30:00Z")
	if !f.InSession(ts) {
		t.Error("expected 12:30 UTC in-session on the DST spring-forward day")
	}
	// The day before (2026-03-07) is still EST: 12:30 UTC = 07:30 local.
	prev, _ := time.Parse(time.RFC3339, "2026-03-07T12:30:00Z")
	if f.InSession(prev) {
		t.Error("expected 12:30 UTC out-of-session the day before the transition")
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New("Mars/Olympus_Mons", 8, 10); err == nil {
		t.Error("expected error for unknown zone")
	}
	if _, err := New(DefaultZone, 10, 8); err == nil {
		t.Error("expected error for inverted window")
	}
}

func TestNew_InjectedZone(t *testing.T) {
	// The window follows the injected zone, not a hard-coded one.
	f, err := New("Europe/London", 8, 10)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	// July: London is UTC+1. 08:00 local = 07:00 UTC.
	ts, _ := time.Parse(time.RFC3339, "2026-07-15T07:30:00Z")
	if !f.InSession(ts) {
		t.Error("expected 07:30 UTC in-session for London window in July")
	}
}
