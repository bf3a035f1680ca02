// Package session restricts signal evaluation to a fixed daily trading
// window expressed in a market's local time zone.
//
// The reference zone is injected as an IANA identifier rather than a fixed
// UTC offset: the New York morning window drifts against UTC twice a year,
// and a fixed offset would shift the window by an hour for half the year.
package session

import (
	"fmt"
	"time"
)

// Default window: the New York 08:00–10:00 morning session, where the gold
// breakout volume concentrates.
const (
	DefaultZone      = "America/New_York"
	DefaultOpenHour  = 8
	DefaultCloseHour = 10
)

// Filter reports whether a UTC instant falls inside the trading window.
// The window is inclusive on both ends, matching the terminal convention
// (a bar stamped exactly at the close boundary still counts).
type Filter struct {
	loc       *time.Location
	openSecs  int // seconds since local midnight
	closeSecs int
}

// New creates a Filter for the given IANA zone and local [open, close] hour
// window. Fails if the zone is unknown or the window is inverted.
func New(zone string, openHour, closeHour int) (*Filter, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("session: load zone %q: %w", zone, err)
	}
	if openHour < 0 || closeHour > 24 || openHour > closeHour {
		return nil, fmt.Errorf("session: invalid window %02d:00–%02d:00", openHour, closeHour)
	}
	return &Filter{
		loc:       loc,
		openSecs:  openHour * 3600,
		closeSecs: closeHour * 3600,
	}, nil
}

// NewDefault creates the standard New York morning filter.
func NewDefault() (*Filter, error) {
	return New(DefaultZone, DefaultOpenHour, DefaultCloseHour)
}

// InSession returns true iff the instant's local time-of-day lies within the
// window. The conversion goes through the zone database, so daylight-saving
// transitions are handled for free.
func (f *Filter) InSession(utc time.Time) bool {
	local := utc.In(f.loc)
	secs := local.Hour()*3600 + local.Minute()*60 + local.Second()
	return secs >= f.openSecs && secs <= f.closeSecs
}

// Zone returns the filter's location name.
func (f *Filter) Zone() string {
	return f.loc.String()
}

// String returns a human-readable description of the window.
func (f *Filter) String() string {
	return fmt.Sprintf("%02d:00-%02d:00 %s", f.openSecs/3600, f.closeSecs/3600, f.loc)
}
