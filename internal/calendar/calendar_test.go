package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pinned(t *testing.T, hour, min int) *Calendar {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Shanghai")
	require.NoError(t, err)
	// 2026-08-21 is a Friday.
	at := time.Date(2026, 8, 21, hour, min, 0, 0, loc)
	c, err := NewWithClock(func() time.Time { return at })
	require.NoError(t, err)
	return c
}

func TestSessionBoundaries(t *testing.T) {
	tests := []struct {
		hour, min int
		want      Session
	}{
		{9, 0, SessionClosed},
		{9, 15, SessionPreOpen},
		{9, 24, SessionPreOpen},
		{9, 25, SessionClosed}, // 9:25-9:30 gap between auction and open
		{9, 30, SessionMorning},
		{11, 29, SessionMorning},
		{11, 30, SessionLunch},
		{12, 59, SessionLunch},
		{13, 0, SessionAfternoon},
		{14, 59, SessionAfternoon},
		{15, 0, SessionClosed},
	}

	for _, tt := range tests {
		c := pinned(t, tt.hour, tt.min)
		assert.Equal(t, tt.want, c.CurrentSession(), "%02d:%02d", tt.hour, tt.min)
	}
}

func TestWeekendIsClosed(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Shanghai")
	require.NoError(t, err)
	sat := time.Date(2026, 8, 22, 10, 0, 0, 0, loc)

	c, err := NewWithClock(func() time.Time { return sat })
	require.NoError(t, err)

	assert.False(t, c.IsTradingDay(sat))
	assert.Equal(t, SessionClosed, c.CurrentSession())
	assert.False(t, c.IsTradingNow())
}

func TestMinutesToClose(t *testing.T) {
	assert.Equal(t, 240, pinned(t, 9, 30).MinutesToClose())
	assert.Equal(t, 121, pinned(t, 11, 29).MinutesToClose())
	assert.Equal(t, 120, pinned(t, 13, 0).MinutesToClose())
	assert.Equal(t, 1, pinned(t, 14, 59).MinutesToClose())
	assert.Equal(t, 0, pinned(t, 12, 0).MinutesToClose())
	assert.Equal(t, 0, pinned(t, 16, 0).MinutesToClose())
}

func TestDayProgress(t *testing.T) {
	assert.InDelta(t, 0.0, pinned(t, 9, 30).DayProgress(), 1e-9)
	assert.InDelta(t, 0.25, pinned(t, 10, 30).DayProgress(), 1e-9)
	assert.InDelta(t, 0.5, pinned(t, 12, 0).DayProgress(), 1e-9)
	assert.InDelta(t, 0.75, pinned(t, 14, 0).DayProgress(), 1e-9)
	assert.InDelta(t, 1.0, pinned(t, 15, 30).DayProgress(), 1e-9)
}

func TestTradeDate(t *testing.T) {
	assert.Equal(t, "2026-08-21", pinned(t, 10, 0).TradeDate())
}
