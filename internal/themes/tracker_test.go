package themes

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sealrun/sealrun/internal/market"
)

func testTracker() *Tracker {
	return NewTracker(map[string][]string{
		"600001": {"AI"},
		"600002": {"AI"},
		"600003": {"AI", "Robotics"},
		"600004": {"Robotics"},
		"600005": {"Photovoltaic"},
	}, zerolog.Nop())
}

func TestAnalyzeRanksThemesByStrength(t *testing.T) {
	tr := testTracker()

	quotes := []market.Quote{
		{Symbol: "600001", PctChange: 10.0},
		{Symbol: "600002", PctChange: 9.98},
		{Symbol: "600003", PctChange: 6.0},
		{Symbol: "600004", PctChange: 2.0},
		{Symbol: "600005", PctChange: -1.0},
	}
	stats := tr.Analyze(quotes, []string{"600001", "600002"})

	require.Len(t, stats, 3)
	assert.Equal(t, "AI", stats[0].Name)
	assert.Equal(t, 2, stats[0].LimitUpCount)
	assert.Equal(t, 3, stats[0].StockCount)
	assert.ElementsMatch(t, []string{"600001", "600002"}, stats[0].Leaders)
	assert.Greater(t, stats[0].Strength, stats[1].Strength)
}

func TestAnalyzeUserFocusSortsFirst(t *testing.T) {
	tr := testTracker()
	tr.SetUserThemes([]string{"Photovoltaic"})

	quotes := []market.Quote{
		{Symbol: "600001", PctChange: 10.0},
		{Symbol: "600005", PctChange: 1.0},
	}
	stats := tr.Analyze(quotes, []string{"600001"})

	require.NotEmpty(t, stats)
	assert.Equal(t, "Photovoltaic", stats[0].Name)
	assert.True(t, stats[0].IsUserFocus)
}

func TestAnalyzeStrengthClamped(t *testing.T) {
	tr := NewTracker(map[string][]string{"600001": {"Hot"}}, zerolog.Nop())

	// 1 member stock that sealed: strength (1*10+10)/100 = 0.2.
	stats := tr.Analyze([]market.Quote{{Symbol: "600001", PctChange: 10.0}}, []string{"600001"})
	require.Len(t, stats, 1)
	assert.InDelta(t, 0.2, stats[0].Strength, 1e-9)
	assert.LessOrEqual(t, stats[0].Strength, 1.0)
	assert.GreaterOrEqual(t, stats[0].Strength, 0.0)
}

func TestScoreNoMembershipGetsBase(t *testing.T) {
	tr := testTracker()
	assert.Equal(t, float64(noThemeScore), tr.Score("999999", nil))
}

func TestScoreAddsUserFocusBonus(t *testing.T) {
	tr := testTracker()

	quotes := []market.Quote{
		{Symbol: "600001", PctChange: 10.0},
		{Symbol: "600002", PctChange: 10.0},
		{Symbol: "600003", PctChange: 5.0},
	}
	stats := tr.Analyze(quotes, []string{"600001", "600002"})

	plain := tr.Score("600001", stats)

	tr.SetUserThemes([]string{"AI"})
	focused := tr.Score("600001", stats)

	assert.InDelta(t, float64(userFocusBonus), focused-plain, 1e-9)
	assert.LessOrEqual(t, focused, 100.0)
}

func TestSymbolThemes(t *testing.T) {
	tr := testTracker()
	assert.ElementsMatch(t, []string{"AI", "Robotics"}, tr.SymbolThemes("600003"))
	assert.Empty(t, tr.SymbolThemes("999999"))
}
