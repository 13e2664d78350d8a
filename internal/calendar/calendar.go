// Package calendar answers trading-session questions for the A-share market.
// All session math runs in Asia/Shanghai regardless of host timezone.
package calendar

import (
	"fmt"
	"time"
)

// Session labels the intraday phase of the Shanghai/Shenzhen exchanges.
type Session string

const (
	SessionPreOpen   Session = "PRE_OPEN"  // 9:15-9:25 call auction
	SessionMorning   Session = "MORNING"   // 9:30-11:30
	SessionLunch     Session = "LUNCH"     // 11:30-13:00
	SessionAfternoon Session = "AFTERNOON" // 13:00-15:00
	SessionClosed    Session = "CLOSED"
)

// Calendar resolves trading days and sessions. The clock is injectable so
// replay and tests can pin time.
type Calendar struct {
	loc *time.Location
	now func() time.Time
}

// New builds a calendar on the exchange timezone.
func New() (*Calendar, error) {
	loc, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		return nil, fmt.Errorf("load exchange timezone: %w", err)
	}
	return &Calendar{loc: loc, now: time.Now}, nil
}

// NewWithClock builds a calendar with a pinned clock, for replay and tests.
func NewWithClock(now func() time.Time) (*Calendar, error) {
	c, err := New()
	if err != nil {
		return nil, err
	}
	c.now = now
	return c, nil
}

// Location returns the exchange timezone.
func (c *Calendar) Location() *time.Location { return c.loc }

// Now returns the current exchange-local time.
func (c *Calendar) Now() time.Time { return c.now().In(c.loc) }

// IsTradingDay reports whether t falls on a weekday. Exchange holidays are
// not modeled; the upstream feed simply produces no data on them.
func (c *Calendar) IsTradingDay(t time.Time) bool {
	wd := t.In(c.loc).Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// SessionAt returns the intraday session containing t.
func (c *Calendar) SessionAt(t time.Time) Session {
	if !c.IsTradingDay(t) {
		return SessionClosed
	}
	lt := t.In(c.loc)
	m := lt.Hour()*60 + lt.Minute()

	switch {
	case m >= 9*60+15 && m < 9*60+25:
		return SessionPreOpen
	case m >= 9*60+30 && m < 11*60+30:
		return SessionMorning
	case m >= 11*60+30 && m < 13*60:
		return SessionLunch
	case m >= 13*60 && m < 15*60:
		return SessionAfternoon
	default:
		return SessionClosed
	}
}

// CurrentSession returns the session containing the calendar's clock.
func (c *Calendar) CurrentSession() Session {
	return c.SessionAt(c.now())
}

// IsTradingNow reports whether the continuous auction is running.
func (c *Calendar) IsTradingNow() bool {
	s := c.CurrentSession()
	return s == SessionMorning || s == SessionAfternoon
}

// TradeDate returns the current exchange-local date as YYYY-MM-DD, the key
// for daily risk resets.
func (c *Calendar) TradeDate() string {
	return c.Now().Format("2006-01-02")
}

// MinutesToClose returns the continuous-auction minutes remaining today.
// Lunch break minutes are excluded; zero outside trading hours.
func (c *Calendar) MinutesToClose() int {
	t := c.Now()
	switch c.SessionAt(t) {
	case SessionMorning:
		m := t.Hour()*60 + t.Minute()
		return (11*60 + 30 - m) + 120
	case SessionAfternoon:
		m := t.Hour()*60 + t.Minute()
		return 15*60 - m
	default:
		return 0
	}
}

// DayProgress returns the fraction of the 240-minute trading day elapsed,
// in [0, 1].
func (c *Calendar) DayProgress() float64 {
	t := c.Now()
	m := t.Hour()*60 + t.Minute()

	switch c.SessionAt(t) {
	case SessionMorning:
		return float64(m-(9*60+30)) / 240
	case SessionAfternoon:
		return float64(120+m-13*60) / 240
	case SessionLunch:
		return 0.5
	default:
		if c.IsTradingDay(t) && m >= 15*60 {
			return 1
		}
		return 0
	}
}
