package quality

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sealrun/sealrun/internal/calendar"
	"github.com/sealrun/sealrun/internal/features"
	"github.com/sealrun/sealrun/internal/market"
)

func gateAt(t *testing.T, hour, min int) (*Gate, time.Time) {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Shanghai")
	require.NoError(t, err)
	// 2026-08-21 is a Friday.
	now := time.Date(2026, 8, 21, hour, min, 0, 0, loc)
	cal, err := calendar.NewWithClock(func() time.Time { return now })
	require.NoError(t, err)
	return NewGate(DefaultConfig(), cal, zerolog.Nop()), now
}

func TestCanAllowFreshDataDuringSession(t *testing.T) {
	g, now := gateAt(t, 10, 0)
	g.ObserveData(now.Add(-2 * time.Minute))

	ok, reason := g.CanAllow()
	assert.True(t, ok)
	assert.Empty(t, reason)
	assert.Equal(t, market.ActionAllow, g.MaxAction())
}

func TestCanAllowFalseOutsideContinuousAuction(t *testing.T) {
	tests := []struct {
		hour, min int
		want      string
	}{
		{9, 20, "call auction"},
		{12, 0, "lunch"},
		{16, 0, "closed"},
	}

	for _, tt := range tests {
		g, now := gateAt(t, tt.hour, tt.min)
		g.ObserveData(now.Add(-1 * time.Minute))

		ok, reason := g.CanAllow()
		assert.False(t, ok, "%02d:%02d", tt.hour, tt.min)
		assert.Contains(t, reason, tt.want)
		assert.Equal(t, market.ActionWatch, g.MaxAction())
	}
}

func TestLagZeroOutsideTradingHours(t *testing.T) {
	g, now := gateAt(t, 12, 0)
	g.ObserveData(now.Add(-45 * time.Minute))
	assert.Equal(t, 0, g.LagMinutes())
}

func TestStaleDataCapsToWatch(t *testing.T) {
	g, now := gateAt(t, 10, 30)
	g.ObserveData(now.Add(-25 * time.Minute))

	ok, reason := g.CanAllow()
	assert.False(t, ok)
	assert.Contains(t, reason, "stale")
	assert.Equal(t, market.ActionWatch, g.MaxAction())
}

func TestVeryStaleDataBlocks(t *testing.T) {
	g, now := gateAt(t, 10, 30)
	g.ObserveData(now.Add(-65 * time.Minute))

	assert.Equal(t, market.ActionBlock, g.MaxAction())
}

func TestNeverSeenDataBlocksDuringSession(t *testing.T) {
	g, _ := gateAt(t, 10, 0)
	assert.Equal(t, neverSeenLagMin, g.LagMinutes())
	assert.Equal(t, market.ActionBlock, g.MaxAction())
}

func TestApplyDegradationMarksFeatureSet(t *testing.T) {
	g, now := gateAt(t, 10, 30)
	g.ObserveData(now.Add(-25 * time.Minute))

	fs := &features.StockFeatureSet{Symbol: "002456"}
	got := g.ApplyDegradation(market.ActionAllow, fs)

	assert.Equal(t, market.ActionWatch, got)
	assert.True(t, fs.Degraded)
	assert.NotEmpty(t, fs.DegradedReason)
}

func TestApplyDegradationNeverUpgrades(t *testing.T) {
	g, now := gateAt(t, 10, 0)
	g.ObserveData(now.Add(-1 * time.Minute))

	fs := &features.StockFeatureSet{Symbol: "002456"}
	assert.Equal(t, market.ActionBlock, g.ApplyDegradation(market.ActionBlock, fs))
	assert.False(t, fs.Degraded)
}

func TestStatusSnapshot(t *testing.T) {
	g, now := gateAt(t, 10, 0)
	last := now.Add(-3 * time.Minute)
	g.ObserveData(last)

	st := g.Status()
	assert.Equal(t, 3, st.LagMinutes)
	assert.Equal(t, calendar.SessionMorning, st.Session)
	assert.True(t, st.CanAllow)
	assert.Equal(t, last, st.LastDataAt)
}
