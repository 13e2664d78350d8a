package regime

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sealrun/sealrun/internal/market"
)

// sentimentHistoryCap bounds the analyzer's rolling score history.
const sentimentHistoryCap = 500

// FlowSentiment classifies northbound capital flow.
type FlowSentiment string

const (
	FlowStrongBuy  FlowSentiment = "STRONG_BUY"
	FlowBuy        FlowSentiment = "BUY"
	FlowNeutral    FlowSentiment = "NEUTRAL"
	FlowSell       FlowSentiment = "SELL"
	FlowStrongSell FlowSentiment = "STRONG_SELL"
)

// IndexSentiment classifies the benchmark index picture.
type IndexSentiment string

const (
	IndexStrong  IndexSentiment = "STRONG"
	IndexWeak    IndexSentiment = "WEAK"
	IndexNeutral IndexSentiment = "NEUTRAL"
	IndexDiverge IndexSentiment = "DIVERGE"
)

// Analysis is the full sentiment picture for one cycle.
type Analysis struct {
	Timestamp time.Time `json:"ts"`

	// Limit statistics.
	LimitUpCount      int     `json:"limit_up_count"`
	LimitDownCount    int     `json:"limit_down_count"`
	TouchLimitUpCount int     `json:"touch_limit_up_count"`
	BombRate          float64 `json:"bomb_rate"`

	// Benchmark indices.
	IndexSentiment    IndexSentiment `json:"index_sentiment"`
	SHPctChange       float64        `json:"sh_pct_change"`
	SZPctChange       float64        `json:"sz_pct_change"`
	ChiNextPctChange  float64        `json:"chinext_pct_change"`
	STARPctChange     float64        `json:"star_pct_change"`
	IndexStrengthDiff float64        `json:"index_strength_diff"` // ChiNext - SH

	// Capital flow.
	TotalAmount       float64       `json:"total_amount"` // 100M CNY units
	Top100AmountRatio float64       `json:"top100_amount_ratio"`
	NorthFlow         *float64      `json:"north_flow,omitempty"`
	NorthFlowView     FlowSentiment `json:"north_flow_sentiment,omitempty"`

	// Rise/fall distribution.
	RiseCount     int     `json:"rise_count"`
	FallCount     int     `json:"fall_count"`
	FlatCount     int     `json:"flat_count"`
	RiseFallRatio float64 `json:"rise_fall_ratio"`
	RisePct5      int     `json:"rise_pct_5"`
	RisePct3      int     `json:"rise_pct_3"`
	FallPct3      int     `json:"fall_pct_3"`
	FallPct5      int     `json:"fall_pct_5"`

	// Prior-day limit-up survivorship.
	PrevLimitUpSurvive int     `json:"prev_limit_up_survive"`
	PrevLimitUpRise    int     `json:"prev_limit_up_rise"`
	PrevLimitUpFall    int     `json:"prev_limit_up_fall"`
	PrevLimitUpAvgPct  float64 `json:"prev_limit_up_avg_pct"`

	// Composite.
	Score     int               `json:"sentiment_score"` // 0-100
	Grade     string            `json:"sentiment_grade"` // A-E
	GradeText string            `json:"sentiment_text"`
	RiskLight market.RiskLight  `json:"risk_light"`
	Regime    market.RegimeMode `json:"regime_mode"`

	// Informational flag: the picture is ambiguous or contradictory enough
	// to warrant a deeper look. Never a gating decision.
	NeedsDeepAnalysis bool     `json:"needs_deep_analysis"`
	DeepAnalysisWhy   []string `json:"deep_analysis_reasons,omitempty"`

	Degraded bool `json:"degraded"`
}

// Trend summarizes the direction of recent sentiment scores.
type Trend struct {
	Direction string `json:"trend"` // IMPROVING / DECLINING / STABLE / UNKNOWN
	Change    int    `json:"change"`
	Current   int    `json:"current_score"`
	Periods   int    `json:"periods"`
}

type sentimentRecord struct {
	ts    time.Time
	score int
	grade string
	light market.RiskLight
}

// SentimentAnalyzer produces a 0-100 composite market sentiment score from
// weighted factors, with grade bands mapped to regime and risk light.
// Cross-cycle state is a single-writer bounded history.
type SentimentAnalyzer struct {
	mu      sync.RWMutex
	history []sentimentRecord
	last    *Analysis
	log     zerolog.Logger
}

// NewSentimentAnalyzer builds an analyzer with empty history.
func NewSentimentAnalyzer(log zerolog.Logger) *SentimentAnalyzer {
	return &SentimentAnalyzer{log: log.With().Str("component", "sentiment").Logger()}
}

// Analyze runs the full sentiment computation over one snapshot. An empty
// quote batch yields a degraded result with a YELLOW light.
func (s *SentimentAnalyzer) Analyze(quotes []market.Quote, indices []market.IndexQuote, prevLimitUps []string, northFlow *float64, now time.Time) *Analysis {
	a := &Analysis{
		Timestamp:      now,
		IndexSentiment: IndexNeutral,
		Score:          50,
		Grade:          "C",
		GradeText:      "neutral",
		RiskLight:      market.LightGreen,
		Regime:         market.RegimeNormal,
	}

	if len(quotes) == 0 {
		a.Degraded = true
		a.RiskLight = market.LightYellow
		return a
	}

	s.analyzeLimitStocks(quotes, a)
	s.analyzeIndices(indices, a)
	s.analyzeFundFlow(quotes, a)
	s.analyzeRiseFall(quotes, a)
	if len(prevLimitUps) > 0 {
		s.analyzePrevLimitUps(quotes, prevLimitUps, a)
	}
	if northFlow != nil {
		a.NorthFlow = northFlow
		a.NorthFlowView = classifyNorthFlow(*northFlow)
	}

	s.scoreSentiment(a)
	s.checkDeepAnalysis(a)

	s.mu.Lock()
	s.history = append(s.history, sentimentRecord{ts: now, score: a.Score, grade: a.Grade, light: a.RiskLight})
	if len(s.history) > sentimentHistoryCap {
		s.history = s.history[len(s.history)-sentimentHistoryCap:]
	}
	s.last = a
	s.mu.Unlock()

	return a
}

func (s *SentimentAnalyzer) analyzeLimitStocks(quotes []market.Quote, a *Analysis) {
	for _, q := range quotes {
		if q.IsLimitUp() {
			a.LimitUpCount++
		}
		if q.TouchedLimitUp() {
			a.TouchLimitUpCount++
		}
		if q.IsLimitDown() {
			a.LimitDownCount++
		}
	}
	if a.TouchLimitUpCount > 0 {
		rate := float64(a.TouchLimitUpCount-a.LimitUpCount) / float64(a.TouchLimitUpCount)
		if rate < 0 {
			rate = 0
		}
		a.BombRate = rate
	}
}

func (s *SentimentAnalyzer) analyzeIndices(indices []market.IndexQuote, a *Analysis) {
	for _, idx := range indices {
		switch idx.Kind {
		case market.IndexSH:
			a.SHPctChange = idx.PctChange
		case market.IndexSZ:
			a.SZPctChange = idx.PctChange
		case market.IndexChiNext:
			a.ChiNextPctChange = idx.PctChange
		case market.IndexSTAR:
			a.STARPctChange = idx.PctChange
		}
	}
	a.IndexStrengthDiff = a.ChiNextPctChange - a.SHPctChange

	sh, cyb := a.SHPctChange, a.ChiNextPctChange
	switch {
	case sh > 1 && cyb > 1:
		a.IndexSentiment = IndexStrong
	case sh < -1 && cyb < -1:
		a.IndexSentiment = IndexWeak
	case math.Abs(sh-cyb) > 1.5:
		a.IndexSentiment = IndexDiverge
	default:
		a.IndexSentiment = IndexNeutral
	}
}

func (s *SentimentAnalyzer) analyzeFundFlow(quotes []market.Quote, a *Analysis) {
	amounts := make([]float64, 0, len(quotes))
	var total float64
	for _, q := range quotes {
		if q.Amount > 0 {
			amounts = append(amounts, q.Amount)
			total += q.Amount
		}
	}
	if total <= 0 {
		return
	}
	a.TotalAmount = total / 100_000_000

	sort.Sort(sort.Reverse(sort.Float64Slice(amounts)))
	top := amounts
	if len(top) > 100 {
		top = top[:100]
	}
	var topSum float64
	for _, v := range top {
		topSum += v
	}
	a.Top100AmountRatio = topSum / total
}

func (s *SentimentAnalyzer) analyzeRiseFall(quotes []market.Quote, a *Analysis) {
	for _, q := range quotes {
		switch {
		case q.PctChange > 0:
			a.RiseCount++
		case q.PctChange < 0:
			a.FallCount++
		default:
			a.FlatCount++
		}
		switch {
		case q.PctChange >= 5:
			a.RisePct5++
			a.RisePct3++
		case q.PctChange >= 3:
			a.RisePct3++
		case q.PctChange <= -5:
			a.FallPct5++
			a.FallPct3++
		case q.PctChange <= -3:
			a.FallPct3++
		}
	}
	if a.FallCount > 0 {
		a.RiseFallRatio = float64(a.RiseCount) / float64(a.FallCount)
	} else {
		a.RiseFallRatio = float64(a.RiseCount)
	}
}

func (s *SentimentAnalyzer) analyzePrevLimitUps(quotes []market.Quote, prev []string, a *Analysis) {
	prevSet := make(map[string]bool, len(prev))
	for _, sym := range prev {
		prevSet[sym] = true
	}

	var sum float64
	for _, q := range quotes {
		if !prevSet[q.Symbol] {
			continue
		}
		a.PrevLimitUpSurvive++
		sum += q.PctChange
		if q.PctChange > 0 {
			a.PrevLimitUpRise++
		} else if q.PctChange < 0 {
			a.PrevLimitUpFall++
		}
	}
	if a.PrevLimitUpSurvive > 0 {
		a.PrevLimitUpAvgPct = sum / float64(a.PrevLimitUpSurvive)
	}
}

func classifyNorthFlow(flow float64) FlowSentiment {
	switch {
	case flow > 50:
		return FlowStrongBuy
	case flow > 20:
		return FlowBuy
	case flow < -50:
		return FlowStrongSell
	case flow < -20:
		return FlowSell
	default:
		return FlowNeutral
	}
}

// scoreSentiment computes the composite: base 50 adjusted by bounded factors
// for limit stats (±15), index return (±15), rise/fall ratio (±10), capital
// flow (±5) and prior-day survivorship (±5), clamped to [0,100].
func (s *SentimentAnalyzer) scoreSentiment(a *Analysis) {
	score := 50

	switch {
	case a.LimitUpCount >= 100:
		score += 15
	case a.LimitUpCount >= 70:
		score += 10
	case a.LimitUpCount >= 40:
		score += 5
	case a.LimitUpCount < 20:
		score -= 10
	}

	switch {
	case a.LimitDownCount > 50:
		score -= 15
	case a.LimitDownCount > 30:
		score -= 10
	case a.LimitDownCount > 15:
		score -= 5
	}

	switch {
	case a.BombRate > 0.4:
		score -= 10
	case a.BombRate > 0.3:
		score -= 5
	case a.BombRate < 0.15:
		score += 5
	}

	switch sh := a.SHPctChange; {
	case sh > 2:
		score += 15
	case sh > 1:
		score += 10
	case sh > 0.5:
		score += 5
	case sh < -2:
		score -= 15
	case sh < -1:
		score -= 10
	case sh < -0.5:
		score -= 5
	}

	switch ratio := a.RiseFallRatio; {
	case ratio > 3:
		score += 10
	case ratio > 2:
		score += 5
	case ratio < 0.5:
		score -= 10
	case ratio < 0.8:
		score -= 5
	}

	switch a.NorthFlowView {
	case FlowStrongBuy:
		score += 5
	case FlowBuy:
		score += 3
	case FlowStrongSell:
		score -= 5
	case FlowSell:
		score -= 3
	}

	switch avg := a.PrevLimitUpAvgPct; {
	case a.PrevLimitUpSurvive == 0:
		// no factor
	case avg > 3:
		score += 5
	case avg > 0:
		score += 2
	case avg < -3:
		score -= 5
	case avg < 0:
		score -= 2
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	a.Score = score

	switch {
	case score >= 80:
		a.Grade, a.GradeText = "A", "very strong"
		a.Regime, a.RiskLight = market.RegimeStrong, market.LightGreen
	case score >= 65:
		a.Grade, a.GradeText = "B", "strong"
		a.Regime, a.RiskLight = market.RegimeStrong, market.LightGreen
	case score >= 45:
		a.Grade, a.GradeText = "C", "neutral"
		a.Regime, a.RiskLight = market.RegimeNormal, market.LightYellow
	case score >= 30:
		a.Grade, a.GradeText = "D", "weak"
		a.Regime, a.RiskLight = market.RegimeDivergence, market.LightYellow
	default:
		a.Grade, a.GradeText = "E", "very weak"
		a.Regime, a.RiskLight = market.RegimeWeak, market.LightRed
	}

	// Unconditional override regardless of score.
	if a.BombRate > 0.45 || a.LimitDownCount > 60 {
		a.RiskLight = market.LightRed
		a.Regime = market.RegimeWeak
	}
}

func (s *SentimentAnalyzer) checkDeepAnalysis(a *Analysis) {
	var reasons []string

	if a.IndexSentiment == IndexDiverge {
		reasons = append(reasons, "benchmark indices diverge sharply; sector rotation direction unclear")
	}
	if (a.Score >= 40 && a.Score <= 50) || (a.Score >= 60 && a.Score <= 70) {
		reasons = append(reasons, "sentiment score sits in an ambiguous band")
	}
	if a.LimitUpCount > 100 && a.BombRate > 0.3 {
		reasons = append(reasons, "many limit-ups but high bomb rate; capital conviction unclear")
	}
	if a.PrevLimitUpSurvive > 0 && a.PrevLimitUpAvgPct < -3 {
		reasons = append(reasons, "yesterday's limit-ups selling off hard; sentiment may be turning")
	}
	if a.NorthFlowView == FlowStrongBuy && a.SHPctChange < -1 {
		reasons = append(reasons, "strong northbound inflow against a falling index")
	} else if a.NorthFlowView == FlowStrongSell && a.SHPctChange > 1 {
		reasons = append(reasons, "strong northbound outflow against a rising index")
	}

	a.NeedsDeepAnalysis = len(reasons) > 0
	a.DeepAnalysisWhy = reasons
}

// Last returns the most recent analysis, or nil before the first cycle.
func (s *SentimentAnalyzer) Last() *Analysis {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// GetTrend reports the score direction over the trailing periods.
func (s *SentimentAnalyzer) GetTrend(periods int) Trend {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.history) < 2 {
		return Trend{Direction: "UNKNOWN"}
	}
	recent := s.history
	if periods > 0 && len(recent) > periods {
		recent = recent[len(recent)-periods:]
	}

	change := recent[len(recent)-1].score - recent[0].score
	dir := "STABLE"
	if change > 10 {
		dir = "IMPROVING"
	} else if change < -10 {
		dir = "DECLINING"
	}
	return Trend{
		Direction: dir,
		Change:    change,
		Current:   recent[len(recent)-1].score,
		Periods:   len(recent),
	}
}
