package calendar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFilterToday(t *testing.T) {
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	items := []feedItem{
		{Title: "Non-Farm Payrolls", Country: "USD", Impact: "High", Date: "2026-02-01T08:30:00-05:00"},
		{Title: "FOMC Minutes", Country: "USD", Impact: "Medium", Date: "2026-02-01T14:00:00-05:00"},
		{Title: "ECB Rate Decision", Country: "EUR", Impact: "High", Date: "2026-02-01T07:45:00-05:00"},
		{Title: "CPI y/y", Country: "USD", Impact: "Low", Date: "2026-02-01T08:30:00-05:00"},
		{Title: "Retail Sales", Country: "USD", Impact: "High", Date: "2026-02-02T08:30:00-05:00"},
		{Title: "OPEC Meetings", Country: "All", Impact: "Medium", Date: "2026-02-01T00:00:00-05:00"},
		{Title: "Bad Stamp", Country: "USD", Impact: "High", Date: "not-a-date"},
	}

	got := filterToday(items, now)
	want := []string{"Non-Farm Payrolls", "FOMC Minutes", "OPEC Meetings"}
	if len(got) != len(want) {
		t.Fatalf("events = %d, want %d: %+v", len(got), len(want), got)
	}
	for i, title := range want {
		if got[i].Title != title {
			t.Errorf("event %d = %q, want %q", i, got[i].Title, title)
		}
	}
}

func TestTodayEventsFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"title":"Non-Farm Payrolls","country":"USD","impact":"High","date":"2026-02-01T08:30:00-05:00"}
		]`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	c.now = func() time.Time { return time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC) }

	events := c.TodayEvents(context.Background())
	if len(events) != 1 || events[0].Title != "Non-Farm Payrolls" {
		t.Fatalf("events = %+v", events)
	}
}

func TestTodayEventsDegradesToEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL)
	if events := c.TodayEvents(context.Background()); events != nil {
		t.Fatalf("events = %+v, want nil on feed failure", events)
	}
}
