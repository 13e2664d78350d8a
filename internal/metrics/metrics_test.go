package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sealrun/sealrun/internal/market"
	"github.com/sealrun/sealrun/internal/risk"
)

func TestCollectorRegistersCleanly(t *testing.T) {
	c := NewCollector()

	c.LimitUpCount.Set(42)
	c.BombRate.Set(0.18)
	c.Alerts.Add(3)

	assert.InDelta(t, 42, testutil.ToFloat64(c.LimitUpCount), 1e-9)
	assert.InDelta(t, 0.18, testutil.ToFloat64(c.BombRate), 1e-9)
	assert.InDelta(t, 3, testutil.ToFloat64(c.Alerts), 1e-9)

	// Two collectors must not collide: each owns its registry.
	require.NotPanics(t, func() { NewCollector() })
}

func TestCollectorCountsRiskEvents(t *testing.T) {
	var _ risk.Observer = (*Collector)(nil)

	c := NewCollector()
	c.TradeClosed()
	c.TradeClosed()
	c.RiskStopped()

	assert.InDelta(t, 2, testutil.ToFloat64(c.TradesRecorded), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(c.RiskStops), 1e-9)
}

func TestSetRiskLightIsExclusive(t *testing.T) {
	c := NewCollector()

	c.SetRiskLight(market.LightYellow)
	assert.InDelta(t, 0, testutil.ToFloat64(c.RiskLight.WithLabelValues("GREEN")), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(c.RiskLight.WithLabelValues("YELLOW")), 1e-9)
	assert.InDelta(t, 0, testutil.ToFloat64(c.RiskLight.WithLabelValues("RED")), 1e-9)

	c.SetRiskLight(market.LightGreen)
	assert.InDelta(t, 1, testutil.ToFloat64(c.RiskLight.WithLabelValues("GREEN")), 1e-9)
	assert.InDelta(t, 0, testutil.ToFloat64(c.RiskLight.WithLabelValues("YELLOW")), 1e-9)
}
