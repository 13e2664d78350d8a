package strategy

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/sealrun/sealrun/internal/features"
	"github.com/sealrun/sealrun/internal/market"
)

// Strategy is one decision pipeline over a feature snapshot. Implementations
// must be pure with respect to market state: same inputs, same outputs.
type Strategy interface {
	ID() string
	Name() string
	Version() string

	// FilterCandidates drops symbols failing the hard eligibility cutoffs.
	FilterCandidates(stocks []*features.StockFeatureSet, mkt features.MarketFeatureSet) []*features.StockFeatureSet

	// ScoreCandidate computes the composite 0-100 score with its breakdown.
	ScoreCandidate(stock *features.StockFeatureSet, mkt features.MarketFeatureSet, themeScore float64) Score

	// EvaluateTrigger runs the gate chain and maps it to an action.
	EvaluateTrigger(stock *features.StockFeatureSet, mkt features.MarketFeatureSet) (market.Action, []GateCheck)

	// GeneratePlan shapes the execution sketch for an actionable candidate.
	GeneratePlan(stock *features.StockFeatureSet, mkt features.MarketFeatureSet, score Score) Plan
}

// Score is the composite result with its full breakdown, kept for display.
type Score struct {
	Total       float64 `json:"total"`
	Market      float64 `json:"market"`
	Theme       float64 `json:"theme"`
	Stock       float64 `json:"stock"`
	Quality     float64 `json:"quality"`
	RiskPenalty float64 `json:"risk_penalty"`
	Factor      float64 `json:"factor"` // regime scaling applied to the raw sum
}

// GateCheck is one named gate's outcome with a human-readable detail.
type GateCheck struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// Plan is the execution sketch attached to an actionable candidate.
type Plan struct {
	MaxPosition   float64          `json:"max_position"`
	EntryNote     string           `json:"entry_note"`
	ExitRules     []string         `json:"exit_rules"`
	FailWindowSec int              `json:"fail_window_sec"`
	RiskLight     market.RiskLight `json:"risk_light"`
}

// RuleSet is the single strategy implementation: all behavior differences
// between strategies live in the Config tables.
type RuleSet struct {
	cfg Config
	log zerolog.Logger
}

// NewRuleSet validates the config and binds it to the shared pipeline.
func NewRuleSet(cfg Config, log zerolog.Logger) (*RuleSet, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("build rule set: %w", err)
	}
	return &RuleSet{
		cfg: cfg,
		log: log.With().Str("component", "strategy").Str("strategy", cfg.ID).Logger(),
	}, nil
}

// Config returns a copy of the bound rule tables.
func (r *RuleSet) Config() Config { return r.cfg }

func (r *RuleSet) ID() string      { return r.cfg.ID }
func (r *RuleSet) Name() string    { return r.cfg.Name }
func (r *RuleSet) Version() string { return r.cfg.Version }

// FilterCandidates applies the hard cutoffs: turnover floor, liquidity
// floor, open-count ceiling, and the event condition. Order is preserved.
func (r *RuleSet) FilterCandidates(stocks []*features.StockFeatureSet, mkt features.MarketFeatureSet) []*features.StockFeatureSet {
	out := make([]*features.StockFeatureSet, 0, len(stocks))
	for _, s := range stocks {
		if !r.eligible(s) {
			continue
		}
		out = append(out, s)
	}
	r.log.Debug().Int("in", len(stocks)).Int("out", len(out)).Msg("candidates filtered")
	return out
}

func (r *RuleSet) eligible(s *features.StockFeatureSet) bool {
	f := r.cfg.StockFilter
	if s.Has("amt") && s.Amt < f.MinAmount {
		return false
	}
	if s.LiquidityScore < f.MinLiquidityScore {
		return false
	}
	if s.Events.OpenCount > f.MaxOpenCount {
		return false
	}
	switch f.EventCondition {
	case RequireTouch:
		return s.Events.TouchLimitUp
	case RequireSealOrNear:
		return s.Events.IsLimitUp || s.Events.NearLimitUp
	}
	return false
}

// ScoreCandidate computes the weighted composite. The raw sum is scaled by
// the regime factor, then the capped risk penalty is subtracted; the total
// never goes negative.
func (r *RuleSet) ScoreCandidate(stock *features.StockFeatureSet, mkt features.MarketFeatureSet, themeScore float64) Score {
	sc := r.cfg.Scoring

	marketScore := sc.Market.LimitUpCount.Score(float64(mkt.LimitUpCount)) +
		sc.Market.BombRate.Score(mkt.BombRate) +
		sc.Market.DownLimitCount.Score(float64(mkt.DownLimitCount))

	stockScore := sc.Stock.Slope.Score(stock.Slope5m) +
		sc.Stock.Pullback.Score(stock.Pullback5m) +
		sc.Stock.VolRatio.Score(stock.VolRatio5m)

	qualityScore := r.qualityScore(stock.Events)

	raw := sc.WMarket*marketScore +
		sc.WTheme*themeScore +
		sc.WStock*stockScore +
		sc.WQuality*qualityScore

	factor := 1.0
	switch mkt.RiskLight {
	case market.LightYellow:
		factor = sc.YellowFactor
	case market.LightRed:
		factor = sc.RedFactor
	}

	penalty := r.riskPenalty(stock, mkt)

	total := raw*factor - penalty
	if total < 0 {
		total = 0
	}

	return Score{
		Total:       total,
		Market:      marketScore,
		Theme:       themeScore,
		Stock:       stockScore,
		Quality:     qualityScore,
		RiskPenalty: penalty,
		Factor:      factor,
	}
}

// qualityScore scores seal quality from the event summary. Symbols that
// never opened take the configured substitute for the speed band.
func (r *RuleSet) qualityScore(ev features.LimitEvents) float64 {
	q := r.cfg.Scoring.Quality

	speed := q.NoResealScore * q.ResealSpeed.Weight
	if ev.Resealed {
		speed = q.ResealSpeed.Score(float64(ev.ResealSpeedSec))
	}

	return speed +
		q.Stability.Score(float64(ev.ResealStable)) +
		q.OpenCount.Score(float64(ev.OpenCount))
}

func (r *RuleSet) riskPenalty(stock *features.StockFeatureSet, mkt features.MarketFeatureSet) float64 {
	p := r.cfg.Scoring.Penalty
	penalty := 0.0

	if stock.Degraded || mkt.Degraded {
		penalty += p.Degraded
	}
	if stock.Has("amt") {
		switch {
		case stock.Amt < p.AmtHardFloor:
			penalty += p.AmtHardPenalty
		case stock.Amt < p.AmtSoftFloor:
			penalty += p.AmtSoftPenalty
		}
	}
	switch mkt.RiskLight {
	case market.LightRed:
		penalty += p.RedLight
	case market.LightYellow:
		penalty += p.YellowLight
	}

	if penalty > p.Cap {
		penalty = p.Cap
	}
	return penalty
}

// EvaluateTrigger runs the five canonical gates and folds them into an
// action: BLOCK when the environment forbids entry, ALLOW when every gate
// passes, WATCH when the environment (and, for stricter rule sets, the
// event) passes but something else falls short.
func (r *RuleSet) EvaluateTrigger(stock *features.StockFeatureSet, mkt features.MarketFeatureSet) (market.Action, []GateCheck) {
	checks := []GateCheck{
		r.environmentGate(mkt),
		r.eventGate(stock.Events),
		r.volumeGate(stock),
		r.strengthGate(stock),
		r.liquidityGate(stock),
	}

	if !checks[0].Passed {
		return market.ActionBlock, checks
	}

	allPassed := true
	for _, c := range checks {
		if !c.Passed {
			allPassed = false
			break
		}
	}
	if allPassed {
		return market.ActionAllow, checks
	}

	if r.cfg.Trigger.WatchRequiresEvent && !checks[1].Passed {
		return market.ActionBlock, checks
	}
	return market.ActionWatch, checks
}

func (r *RuleSet) environmentGate(mkt features.MarketFeatureSet) GateCheck {
	g := r.cfg.MarketGate
	if !g.Allows(mkt.RiskLight) {
		return GateCheck{
			Name:   "environment",
			Detail: fmt.Sprintf("risk light %s not allowed for %s", mkt.RiskLight, r.cfg.ID),
		}
	}
	if mkt.BombRate > g.MaxBombRate {
		return GateCheck{
			Name:   "environment",
			Detail: fmt.Sprintf("bomb rate %.2f above limit %.2f", mkt.BombRate, g.MaxBombRate),
		}
	}
	return GateCheck{
		Name:   "environment",
		Passed: true,
		Detail: fmt.Sprintf("light %s, bomb rate %.2f within %.2f", mkt.RiskLight, mkt.BombRate, g.MaxBombRate),
	}
}

func (r *RuleSet) eventGate(ev features.LimitEvents) GateCheck {
	t := r.cfg.Trigger
	switch t.EventMode {
	case EventModeReseal:
		if !ev.Resealed {
			return GateCheck{Name: "event_state", Detail: "no reseal observed in window"}
		}
		if ev.ResealSpeedSec > t.ResealWindowSec {
			return GateCheck{
				Name:   "event_state",
				Detail: fmt.Sprintf("reseal took %ds, window is %ds", ev.ResealSpeedSec, t.ResealWindowSec),
			}
		}
		if ev.ResealStable < t.MinStableMin {
			return GateCheck{
				Name:   "event_state",
				Detail: fmt.Sprintf("seal stable %dm, need %dm", ev.ResealStable, t.MinStableMin),
			}
		}
		return GateCheck{
			Name:   "event_state",
			Passed: true,
			Detail: fmt.Sprintf("resealed in %ds, stable %dm", ev.ResealSpeedSec, ev.ResealStable),
		}

	case EventModeFirstSeal:
		if !ev.IsLimitUp {
			return GateCheck{Name: "event_state", Detail: "not sealed at the limit"}
		}
		if ev.OpenCount >= t.MaxOpenCount {
			return GateCheck{
				Name:   "event_state",
				Detail: fmt.Sprintf("opened %d times, tolerance is %d", ev.OpenCount, t.MaxOpenCount),
			}
		}
		return GateCheck{
			Name:   "event_state",
			Passed: true,
			Detail: fmt.Sprintf("sealed, %d opens within tolerance", ev.OpenCount),
		}
	}
	return GateCheck{Name: "event_state", Detail: "unknown event mode"}
}

func (r *RuleSet) volumeGate(s *features.StockFeatureSet) GateCheck {
	min := r.cfg.Trigger.MinVolRatio
	if !s.Has("vol_ratio_5m") {
		return GateCheck{Name: "volume", Detail: "vol ratio unavailable"}
	}
	if s.VolRatio5m < min {
		return GateCheck{
			Name:   "volume",
			Detail: fmt.Sprintf("vol ratio %.2f below %.2f", s.VolRatio5m, min),
		}
	}
	return GateCheck{
		Name:   "volume",
		Passed: true,
		Detail: fmt.Sprintf("vol ratio %.2f at or above %.2f", s.VolRatio5m, min),
	}
}

func (r *RuleSet) strengthGate(s *features.StockFeatureSet) GateCheck {
	t := r.cfg.Trigger
	if !s.Has("slope_5m") || !s.Has("pullback_5m") {
		return GateCheck{Name: "strength", Detail: "slope or pullback unavailable"}
	}
	if s.Slope5m < t.MinSlope {
		return GateCheck{
			Name:   "strength",
			Detail: fmt.Sprintf("slope %.3f below %.3f", s.Slope5m, t.MinSlope),
		}
	}
	if s.Pullback5m > t.MaxPullback {
		return GateCheck{
			Name:   "strength",
			Detail: fmt.Sprintf("pullback %.3f above %.3f", s.Pullback5m, t.MaxPullback),
		}
	}
	return GateCheck{
		Name:   "strength",
		Passed: true,
		Detail: fmt.Sprintf("slope %.3f, pullback %.3f", s.Slope5m, s.Pullback5m),
	}
}

func (r *RuleSet) liquidityGate(s *features.StockFeatureSet) GateCheck {
	min := r.cfg.StockFilter.MinLiquidityScore
	if s.LiquidityScore < min {
		return GateCheck{
			Name:   "liquidity",
			Detail: fmt.Sprintf("liquidity score %.2f below %.2f", s.LiquidityScore, min),
		}
	}
	return GateCheck{
		Name:   "liquidity",
		Passed: true,
		Detail: fmt.Sprintf("liquidity score %.2f", s.LiquidityScore),
	}
}

// GeneratePlan sizes the position by the current risk light and attaches the
// rule set's entry/exit discipline.
func (r *RuleSet) GeneratePlan(stock *features.StockFeatureSet, mkt features.MarketFeatureSet, score Score) Plan {
	p := r.cfg.Plan

	maxPos := p.MaxPosGreen
	switch mkt.RiskLight {
	case market.LightYellow:
		maxPos = p.MaxPosYellow
	case market.LightRed:
		maxPos = p.MaxPosRed
	}

	rules := make([]string, len(p.ExitRules))
	copy(rules, p.ExitRules)

	return Plan{
		MaxPosition:   maxPos,
		EntryNote:     p.EntryNote,
		ExitRules:     rules,
		FailWindowSec: p.FailWindowSec,
		RiskLight:     mkt.RiskLight,
	}
}
