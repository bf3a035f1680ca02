// Package calendar fetches the week's economic events and filters them down
// to the entries that matter for gold: USD (or global) releases of medium or
// high impact happening today.
package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// DefaultFeedURL serves the whole week's events as a JSON array.
const DefaultFeedURL = "https://nfs.faireconomy.media/ff_calendar_thisweek.json"

// Event is one filtered calendar entry as shown in the prediction rationale.
type Event struct {
	Title  string `json:"title"`
	Impact string `json:"impact"`
	Time   string `json:"time"` // feed timestamp, zone-offset ISO format
}

// feedItem is the upstream wire format.
type feedItem struct {
	Title   string `json:"title"`
	Country string `json:"country"`
	Impact  string `json:"impact"`
	Date    string `json:"date"` // e.g. "2026-02-01T05:15:00-05:00"
}

// Client fetches and filters the feed.
type Client struct {
	url        string
	httpClient *http.Client

	// now is swapped out in tests.
	now func() time.Time
}

// New creates a calendar client for the given feed URL ("" for the default).
func New(url string) *Client {
	if url == "" {
		url = DefaultFeedURL
	}
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		now:        time.Now,
	}
}

// TodayEvents returns today's USD medium/high impact events. Any failure
// degrades to an empty list: the calendar enriches the rationale, a missing
// calendar must never stall the signal loop.
func (c *Client) TodayEvents(ctx context.Context) []Event {
	events, err := c.fetch(ctx)
	if err != nil {
		log.Printf("[calendar] fetch error: %v", err)
		return nil
	}
	return events
}

func (c *Client) fetch(ctx context.Context) ([]Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed status %d", resp.StatusCode)
	}

	var items []feedItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}

	return filterToday(items, c.now()), nil
}

// filterToday keeps today's USD (or global) medium/high impact entries.
// "Today" is the event's own calendar day in its zone-offset timestamp,
// compared against local today, matching how the feed groups its days.
func filterToday(items []feedItem, now time.Time) []Event {
	today := now.Format("2006-01-02")

	var events []Event
	for _, item := range items {
		ts, err := time.Parse(time.RFC3339, item.Date)
		if err != nil {
			continue
		}
		if ts.Format("2006-01-02") != today {
			continue
		}
		if item.Country != "USD" && item.Country != "All" {
			continue
		}
		if item.Impact != "High" && item.Impact != "Medium" {
			continue
		}
		events = append(events, Event{
			Title:  item.Title,
			Impact: item.Impact,
			Time:   item.Date,
		})
	}
	return events
}
