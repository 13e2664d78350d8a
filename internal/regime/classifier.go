package regime

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sealrun/sealrun/internal/market"
)

// historyCap bounds the classifier's rolling record for trend queries.
const historyCap = 100

// Classify maps aggregate limit statistics to a regime mode. Rules are
// evaluated in priority order; the first match wins.
func Classify(limitUp, downLimit int, bombRate float64) market.RegimeMode {
	// Strong market: many seals, few bombs, few down-limits.
	if limitUp >= 50 && bombRate <= 0.20 && downLimit <= 5 {
		return market.RegimeStrong
	}
	if limitUp >= 35 && bombRate <= 0.25 && downLimit <= 10 {
		return market.RegimeStrong
	}

	// Divergence: seals plentiful but bombs or down-limits piling up.
	if limitUp >= 30 && (bombRate > 0.28 || downLimit > 15) {
		return market.RegimeDivergence
	}

	// Weak: seals drying up or heavy downside.
	if limitUp < 20 || downLimit > 25 || bombRate > 0.40 {
		return market.RegimeWeak
	}

	// Chaos: high churn with no direction.
	if bombRate > 0.35 && downLimit > 10 {
		return market.RegimeChaos
	}

	return market.RegimeNormal
}

// ClassifyLight maps a regime plus raw statistics to the traffic light.
// Evaluated in priority order: RED conditions first, then YELLOW.
func ClassifyLight(mode market.RegimeMode, limitUp, downLimit int, bombRate float64) market.RiskLight {
	if mode == market.RegimeWeak || downLimit > 35 || bombRate > 0.50 ||
		(limitUp < 10 && downLimit > 20) {
		return market.LightRed
	}

	if mode == market.RegimeDivergence || mode == market.RegimeChaos ||
		bombRate > 0.30 || downLimit > 15 || limitUp < 25 {
		return market.LightYellow
	}

	return market.LightGreen
}

// Record is one historical classification sample.
type Record struct {
	Timestamp time.Time         `json:"ts"`
	Regime    market.RegimeMode `json:"regime"`
	RiskLight market.RiskLight  `json:"risk_light"`
	LimitUp   int               `json:"limit_up"`
	BombRate  float64           `json:"bomb_rate"`
	DownLimit int               `json:"down_limit"`
}

// UpdateResult reports the classification for one cycle and whether it
// changed versus the previous cycle.
type UpdateResult struct {
	Regime        market.RegimeMode `json:"regime_mode"`
	RiskLight     market.RiskLight  `json:"risk_light"`
	RegimeChanged bool              `json:"regime_changed"`
	LightChanged  bool              `json:"light_changed"`
	Summary       string            `json:"summary"`
}

// Classifier tracks the market regime across cycles with a bounded rolling
// history. Single writer: Update appends one record per cycle and evicts the
// oldest beyond the cap.
type Classifier struct {
	mu        sync.RWMutex
	regime    market.RegimeMode
	riskLight market.RiskLight
	history   []Record
	log       zerolog.Logger
}

// NewClassifier starts in NORMAL/GREEN with empty history.
func NewClassifier(log zerolog.Logger) *Classifier {
	return &Classifier{
		regime:    market.RegimeNormal,
		riskLight: market.LightGreen,
		log:       log.With().Str("component", "regime").Logger(),
	}
}

// Update reclassifies from one cycle's aggregate statistics.
func (c *Classifier) Update(limitUp, downLimit int, bombRate float64, now time.Time) UpdateResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	prevRegime := c.regime
	prevLight := c.riskLight

	c.regime = Classify(limitUp, downLimit, bombRate)
	c.riskLight = ClassifyLight(c.regime, limitUp, downLimit, bombRate)

	c.history = append(c.history, Record{
		Timestamp: now,
		Regime:    c.regime,
		RiskLight: c.riskLight,
		LimitUp:   limitUp,
		BombRate:  bombRate,
		DownLimit: downLimit,
	})
	if len(c.history) > historyCap {
		c.history = c.history[len(c.history)-historyCap:]
	}

	result := UpdateResult{
		Regime:        c.regime,
		RiskLight:     c.riskLight,
		RegimeChanged: c.regime != prevRegime,
		LightChanged:  c.riskLight != prevLight,
		Summary: fmt.Sprintf("%s | %s market | %d limit-ups | %.1f%% bomb rate | %d down-limits",
			c.riskLight, c.regime, limitUp, bombRate*100, downLimit),
	}

	if result.LightChanged {
		c.log.Info().
			Str("from", string(prevLight)).
			Str("to", string(c.riskLight)).
			Str("regime", string(c.regime)).
			Msg("risk light changed")
	}

	return result
}

// Current returns the latest regime and risk light.
func (c *Classifier) Current() (market.RegimeMode, market.RiskLight) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.regime, c.riskLight
}

// History returns up to limit most recent records, oldest first.
func (c *Classifier) History(limit int) []Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if limit <= 0 || limit > len(c.history) {
		limit = len(c.history)
	}
	out := make([]Record, limit)
	copy(out, c.history[len(c.history)-limit:])
	return out
}
