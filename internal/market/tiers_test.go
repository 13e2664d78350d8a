package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTierFor(t *testing.T) {
	tests := []struct {
		symbol string
		tier   Tier
	}{
		{"600519", TierMain},
		{"000001", TierMain},
		{"002594", TierMain},
		{"300750", TierChiNext},
		{"688981", TierSTAR},
		{"830799", TierBSE},
		{"430047", TierBSE},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.tier.Name, TierFor(tt.symbol).Name, "symbol %s", tt.symbol)
	}
}

func TestLimitUpPrice_TierRounding(t *testing.T) {
	// Main board: 10.00 * 1.10 = 11.00
	assert.InDelta(t, 11.00, LimitUpPrice("600000", 10.00), 1e-9)
	// ChiNext: 10.00 * 1.20 = 12.00
	assert.InDelta(t, 12.00, LimitUpPrice("300001", 10.00), 1e-9)
	// BSE: 10.00 * 1.30 = 13.00
	assert.InDelta(t, 13.00, LimitUpPrice("830001", 10.00), 1e-9)
	// Rounding to 2 decimals: 23.45 * 1.1 = 25.795 -> 25.80
	assert.InDelta(t, 25.80, LimitUpPrice("600000", 23.45), 1e-9)
	// Invalid prev close
	assert.Zero(t, LimitUpPrice("600000", 0))
}

func TestLimitDownPrice(t *testing.T) {
	assert.InDelta(t, 9.00, LimitDownPrice("600000", 10.00), 1e-9)
	assert.InDelta(t, 8.00, LimitDownPrice("300001", 10.00), 1e-9)
}

func TestQuoteClassification_ChiNextCutoff(t *testing.T) {
	// A ChiNext name at +19.6% counts as limit-up even though the nominal
	// tier percentage is 20%.
	q := Quote{Symbol: "300001", PctChange: 19.6}
	assert.True(t, q.IsLimitUp())
	assert.True(t, q.TouchedLimitUp())

	q.PctChange = 19.4
	assert.False(t, q.IsLimitUp())
	assert.True(t, q.TouchedLimitUp())

	q.PctChange = 18.2
	assert.False(t, q.TouchedLimitUp())
}

func TestQuoteClassification_MainBoard(t *testing.T) {
	q := Quote{Symbol: "600519", PctChange: 9.5}
	assert.True(t, q.IsLimitUp())

	q.PctChange = 9.49
	assert.False(t, q.IsLimitUp())
	assert.True(t, q.TouchedLimitUp())

	q.PctChange = -9.5
	assert.True(t, q.IsLimitDown())
}

func TestActionRank_Ordering(t *testing.T) {
	assert.Less(t, ActionBlock.Rank(), ActionWatch.Rank())
	assert.Less(t, ActionWatch.Rank(), ActionAllow.Rank())
	// Unknown actions never outrank a real one.
	assert.Equal(t, 0, Action("???").Rank())
}
