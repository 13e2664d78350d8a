package features

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sealrun/sealrun/internal/market"
)

func testEngine() *Engine {
	return NewEngine(nil, zerolog.Nop())
}

func rampBars(symbol string, n int, start, step float64) []market.MinuteBar {
	base := time.Date(2026, 8, 21, 10, 0, 0, 0, time.UTC)
	bars := make([]market.MinuteBar, n)
	for i := range bars {
		c := start + float64(i)*step
		bars[i] = market.MinuteBar{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Symbol:    symbol,
			Open:      c,
			High:      c + 0.01,
			Low:       c - 0.01,
			Close:     c,
			Volume:    1_000_000,
			Amount:    10_000_000,
			PrevClose: start,
		}
	}
	return bars
}

func TestComputeStockFeaturesNoBarsDegradesWithQuoteFallback(t *testing.T) {
	e := testEngine()
	quote := &market.Quote{Symbol: "600519", Close: 1800, PrevClose: 1750, PctChange: 2.86, Amount: 500_000_000}

	fs := e.ComputeStockFeatures("600519", nil, quote, time.Now())

	assert.True(t, fs.Degraded)
	assert.Equal(t, []string{"bars"}, fs.MissingFields)
	assert.Equal(t, 1800.0, fs.Close)
	assert.Equal(t, 500_000_000.0, fs.Amt)
}

func TestComputeStockFeaturesShortHistoryListsMissing(t *testing.T) {
	e := testEngine()

	// 3 bars: enough for ret_1m, too short for the 5-minute metrics.
	fs := e.ComputeStockFeatures("600519", rampBars("600519", 3, 10.0, 0.02), nil, time.Now())

	assert.True(t, fs.Has("ret_1m"))
	assert.False(t, fs.Has("ret_5m"))
	assert.False(t, fs.Has("slope_5m"))
	assert.False(t, fs.Has("vol_ratio_5m"))
	assert.True(t, fs.Degraded)
}

func TestComputeStockFeaturesSortsOutOfOrderBars(t *testing.T) {
	e := testEngine()
	bars := rampBars("600519", 10, 10.0, 0.05)
	// Shuffle: move the latest bar to the front.
	shuffled := append([]market.MinuteBar{bars[9]}, bars[:9]...)

	fs := e.ComputeStockFeatures("600519", shuffled, nil, time.Now())

	// The latest close must win regardless of input order.
	assert.InDelta(t, 10.45, fs.Close, 1e-9)
	assert.Greater(t, fs.Slope5m, 0.0)
}

func TestComputeStockFeaturesSlopeUnits(t *testing.T) {
	e := testEngine()
	// Climbing 0.05 per minute from 10.00: 0.5% of the window's first close
	// per minute.
	fs := e.ComputeStockFeatures("600519", rampBars("600519", 10, 10.0, 0.05), nil, time.Now())

	require.True(t, fs.Has("slope_5m"))
	assert.InDelta(t, 0.485, fs.Slope5m, 0.02)
}

func TestComputeMarketFeaturesEmptyBatch(t *testing.T) {
	e := testEngine()

	mf := e.ComputeMarketFeatures(nil, time.Now())
	assert.True(t, mf.Degraded)
	assert.Equal(t, market.LightYellow, mf.RiskLight)
}

func TestComputeMarketFeaturesCountsPerTier(t *testing.T) {
	e := testEngine()

	quotes := []market.Quote{
		{Symbol: "600001", PctChange: 9.98},  // main sealed
		{Symbol: "600002", PctChange: 8.70},  // main touched, not sealed
		{Symbol: "300750", PctChange: 19.60}, // chinext sealed
		{Symbol: "300751", PctChange: 9.98},  // chinext: 10% is nowhere near
		{Symbol: "600003", PctChange: -9.80}, // main down limit
		{Symbol: "600004", PctChange: 1.00},
	}

	mf := e.ComputeMarketFeatures(quotes, time.Now())

	assert.Equal(t, 2, mf.LimitUpCount)
	assert.Equal(t, 3, mf.TouchLimitUpCount)
	assert.Equal(t, 1, mf.DownLimitCount)
	assert.InDelta(t, 1.0/3.0, mf.BombRate, 1e-9)
}

func TestComputeMarketFeaturesBombRateNeverNegative(t *testing.T) {
	e := testEngine()

	// Sealed count can exceed touch count when tier cutoffs disagree at the
	// margins; the rate clamps at zero instead of going negative.
	quotes := []market.Quote{
		{Symbol: "600001", PctChange: 9.98},
		{Symbol: "600002", PctChange: 9.98},
	}

	mf := e.ComputeMarketFeatures(quotes, time.Now())
	assert.GreaterOrEqual(t, mf.BombRate, 0.0)
}

func TestLiquidityScoreBands(t *testing.T) {
	tests := []struct {
		name             string
		amt, vr, rng     float64
		wantMin, wantMax float64
	}{
		{"deep and active", 250_000_000, 2.5, 0.02, 1.0, 1.0},
		{"thin and quiet", 10_000_000, 0.5, 0.001, 0.30, 0.30},
		{"middling", 120_000_000, 1.6, 0.007, 0.75, 0.75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := liquidityScore(tt.amt, tt.vr, tt.rng)
			assert.GreaterOrEqual(t, got, tt.wantMin)
			assert.LessOrEqual(t, got, tt.wantMax)
		})
	}
}
