package regime

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/sealrun/sealrun/internal/market"
)

func TestClassifyPriorityOrder(t *testing.T) {
	tests := []struct {
		name      string
		limitUp   int
		downLimit int
		bombRate  float64
		want      market.RegimeMode
	}{
		{"strong primary", 55, 3, 0.10, market.RegimeStrong},
		{"strong secondary", 38, 8, 0.22, market.RegimeStrong},
		{"divergence by bombs", 35, 5, 0.32, market.RegimeDivergence},
		{"divergence by down limits", 32, 18, 0.10, market.RegimeDivergence},
		{"weak few seals", 12, 2, 0.10, market.RegimeWeak},
		{"weak heavy downside", 28, 30, 0.10, market.RegimeWeak},
		{"weak bombs everywhere", 28, 2, 0.45, market.RegimeWeak},
		{"chaos", 25, 12, 0.38, market.RegimeChaos},
		{"normal", 28, 5, 0.20, market.RegimeNormal},
		// Divergence outranks weak when both could match.
		{"divergence beats weak", 30, 30, 0.10, market.RegimeDivergence},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.limitUp, tt.downLimit, tt.bombRate))
		})
	}
}

func TestClassifyLight(t *testing.T) {
	tests := []struct {
		name      string
		mode      market.RegimeMode
		limitUp   int
		downLimit int
		bombRate  float64
		want      market.RiskLight
	}{
		{"weak regime is red", market.RegimeWeak, 15, 10, 0.20, market.LightRed},
		{"down limits force red", market.RegimeNormal, 40, 40, 0.10, market.LightRed},
		{"bomb rate forces red", market.RegimeNormal, 40, 5, 0.55, market.LightRed},
		{"few seals plus downside is red", market.RegimeNormal, 8, 22, 0.10, market.LightRed},
		{"divergence is yellow", market.RegimeDivergence, 35, 10, 0.30, market.LightYellow},
		{"chaos is yellow", market.RegimeChaos, 30, 12, 0.36, market.LightYellow},
		{"thin breadth is yellow", market.RegimeNormal, 22, 3, 0.10, market.LightYellow},
		{"clean strong is green", market.RegimeStrong, 55, 3, 0.10, market.LightGreen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyLight(tt.mode, tt.limitUp, tt.downLimit, tt.bombRate))
		})
	}
}

func TestClassifierUpdateTracksChanges(t *testing.T) {
	c := NewClassifier(zerolog.Nop())
	now := time.Now()

	first := c.Update(55, 3, 0.10, now)
	assert.Equal(t, market.RegimeStrong, first.Regime)
	assert.Equal(t, market.LightGreen, first.RiskLight)
	assert.True(t, first.RegimeChanged) // from the NORMAL start
	assert.False(t, first.LightChanged) // GREEN stays GREEN
	assert.Contains(t, first.Summary, "55 limit-ups")

	second := c.Update(55, 3, 0.10, now.Add(time.Minute))
	assert.False(t, second.RegimeChanged)
	assert.False(t, second.LightChanged)

	third := c.Update(12, 30, 0.45, now.Add(2*time.Minute))
	assert.Equal(t, market.RegimeWeak, third.Regime)
	assert.Equal(t, market.LightRed, third.RiskLight)
	assert.True(t, third.RegimeChanged)
	assert.True(t, third.LightChanged)

	mode, light := c.Current()
	assert.Equal(t, market.RegimeWeak, mode)
	assert.Equal(t, market.LightRed, light)
}

func TestClassifierHistoryBounded(t *testing.T) {
	c := NewClassifier(zerolog.Nop())
	now := time.Now()

	for i := 0; i < 150; i++ {
		c.Update(40, 5, 0.20, now.Add(time.Duration(i)*time.Minute))
	}

	all := c.History(0)
	assert.Len(t, all, 100)

	recent := c.History(10)
	assert.Len(t, recent, 10)
	// Oldest first; the last record is the newest.
	assert.True(t, recent[9].Timestamp.After(recent[0].Timestamp))
}
