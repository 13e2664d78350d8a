package regime

import (
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sealrun/sealrun/internal/market"
)

func quotesWithPct(n int, pct float64) []market.Quote {
	out := make([]market.Quote, n)
	for i := range out {
		out[i] = market.Quote{
			Symbol:    fmt.Sprintf("60%04d", i),
			PctChange: pct,
			Amount:    50_000_000,
		}
	}
	return out
}

func TestAnalyzeEmptyBatchDegrades(t *testing.T) {
	s := NewSentimentAnalyzer(zerolog.Nop())

	a := s.Analyze(nil, nil, nil, nil, time.Now())
	assert.True(t, a.Degraded)
	assert.Equal(t, market.LightYellow, a.RiskLight)
	assert.Equal(t, 50, a.Score)
}

func TestAnalyzeStrongMarketGradesHigh(t *testing.T) {
	s := NewSentimentAnalyzer(zerolog.Nop())

	// 110 sealed boards, broad advance, strong SH index.
	quotes := append(quotesWithPct(110, 9.98), quotesWithPct(400, 2.0)...)
	indices := []market.IndexQuote{
		{Kind: market.IndexSH, PctChange: 2.3},
		{Kind: market.IndexChiNext, PctChange: 2.8},
	}
	flow := 80.0

	a := s.Analyze(quotes, indices, nil, &flow, time.Now())

	// 50 +15 limit-ups +5 low bomb +15 index +10 ratio +5 north flow = 100.
	assert.Equal(t, 100, a.Score)
	assert.Equal(t, "A", a.Grade)
	assert.Equal(t, market.LightGreen, a.RiskLight)
	assert.Equal(t, FlowStrongBuy, a.NorthFlowView)
	assert.Equal(t, IndexStrong, a.IndexSentiment)
}

func TestAnalyzeWeakMarketGradesLow(t *testing.T) {
	s := NewSentimentAnalyzer(zerolog.Nop())

	// 5 seals, 40 down limits, broad decline, falling index.
	quotes := append(quotesWithPct(5, 9.98), quotesWithPct(40, -9.8)...)
	quotes = append(quotes, quotesWithPct(400, -2.0)...)
	indices := []market.IndexQuote{{Kind: market.IndexSH, PctChange: -2.5}}

	a := s.Analyze(quotes, indices, nil, nil, time.Now())

	// 50 -10 seals -10 down limits +5 low bomb -15 index -10 ratio = 10.
	assert.Equal(t, 10, a.Score)
	assert.Equal(t, "E", a.Grade)
	assert.Equal(t, market.LightRed, a.RiskLight)
	assert.Equal(t, market.RegimeWeak, a.Regime)
}

func TestAnalyzeOverrideOnHighBombRate(t *testing.T) {
	s := NewSentimentAnalyzer(zerolog.Nop())

	// Plenty of touches, few holds: bomb rate 0.5 forces RED regardless of
	// the otherwise healthy score.
	quotes := append(quotesWithPct(50, 9.98), quotesWithPct(50, 8.7)...)
	quotes = append(quotes, quotesWithPct(300, 2.0)...)
	indices := []market.IndexQuote{{Kind: market.IndexSH, PctChange: 1.5}}

	a := s.Analyze(quotes, indices, nil, nil, time.Now())

	require.InDelta(t, 0.5, a.BombRate, 1e-9)
	assert.Equal(t, market.LightRed, a.RiskLight)
	assert.Equal(t, market.RegimeWeak, a.Regime)
}

func TestAnalyzePrevLimitUpSurvivorship(t *testing.T) {
	s := NewSentimentAnalyzer(zerolog.Nop())

	quotes := []market.Quote{
		{Symbol: "600001", PctChange: 5.0, Amount: 1},
		{Symbol: "600002", PctChange: 4.0, Amount: 1},
		{Symbol: "600003", PctChange: -1.0, Amount: 1},
	}
	prev := []string{"600001", "600002", "999999"}

	a := s.Analyze(quotes, nil, prev, nil, time.Now())

	assert.Equal(t, 2, a.PrevLimitUpSurvive)
	assert.Equal(t, 2, a.PrevLimitUpRise)
	assert.Equal(t, 0, a.PrevLimitUpFall)
	assert.InDelta(t, 4.5, a.PrevLimitUpAvgPct, 1e-9)
}

func TestDeepAnalysisFlagOnDivergence(t *testing.T) {
	s := NewSentimentAnalyzer(zerolog.Nop())

	quotes := quotesWithPct(60, 9.98)
	indices := []market.IndexQuote{
		{Kind: market.IndexSH, PctChange: 1.8},
		{Kind: market.IndexChiNext, PctChange: -0.5},
	}

	a := s.Analyze(quotes, indices, nil, nil, time.Now())

	assert.Equal(t, IndexDiverge, a.IndexSentiment)
	assert.True(t, a.NeedsDeepAnalysis)
	assert.NotEmpty(t, a.DeepAnalysisWhy)
}

func TestGetTrend(t *testing.T) {
	s := NewSentimentAnalyzer(zerolog.Nop())
	now := time.Now()

	assert.Equal(t, "UNKNOWN", s.GetTrend(5).Direction)

	// Score climbs as breadth improves across cycles.
	s.Analyze(quotesWithPct(10, 2.0), nil, nil, nil, now)
	assert.Equal(t, "UNKNOWN", s.GetTrend(5).Direction)

	s.Analyze(quotesWithPct(120, 9.98), nil, nil, nil, now.Add(time.Minute))

	trend := s.GetTrend(5)
	assert.Equal(t, "IMPROVING", trend.Direction)
	assert.Greater(t, trend.Change, 10)
	assert.Equal(t, 2, trend.Periods)
}

func TestAnalyzeRecordsLast(t *testing.T) {
	s := NewSentimentAnalyzer(zerolog.Nop())
	require.Nil(t, s.Last())

	a := s.Analyze(quotesWithPct(30, 2.0), nil, nil, nil, time.Now())
	assert.Equal(t, a, s.Last())
}
