package strategy

import (
	"errors"
	"fmt"
	"math"

	"github.com/sealrun/sealrun/internal/market"
	"github.com/sealrun/sealrun/internal/risk"
)

// Event modes select which event-state gate a rule set enforces.
const (
	EventModeReseal    = "reseal"     // requires a confirmed reseal within the window
	EventModeFirstSeal = "first_seal" // requires a currently sealed first board
)

// Filter conditions select the hard event eligibility cutoff.
const (
	RequireTouch      = "touch"        // must have touched the limit in-window
	RequireSealOrNear = "seal_or_near" // must be sealed or near the limit now
)

// ErrUnknownStrategy is returned when a strategy id is not registered.
var ErrUnknownStrategy = errors.New("unknown strategy")

// Config is one named, versioned rule set. Strategies are data: two rule
// sets differ only in these tables, never in control flow.
type Config struct {
	ID      string `yaml:"strategy_id"`
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Enabled bool   `yaml:"enabled"`

	MarketGate  MarketGate  `yaml:"market_gate"`
	StockFilter StockFilter `yaml:"stock_filter"`
	Scoring     Scoring     `yaml:"scoring"`
	Trigger     Trigger     `yaml:"trigger"`
	Plan        PlanConfig  `yaml:"plan"`
	Risk        risk.Params `yaml:"risk"`
}

// MarketGate bounds the market environments a rule set will trade in.
type MarketGate struct {
	AllowRiskLights []market.RiskLight `yaml:"allow_risk_lights"`
	MaxBombRate     float64            `yaml:"max_bomb_rate"`
}

// Allows reports whether the light permits new entries for this rule set.
func (g MarketGate) Allows(light market.RiskLight) bool {
	for _, l := range g.AllowRiskLights {
		if l == light {
			return true
		}
	}
	return false
}

// StockFilter holds the hard per-symbol eligibility cutoffs.
type StockFilter struct {
	MinAmount         float64 `yaml:"min_amount"`
	MinLiquidityScore float64 `yaml:"min_liquidity_score"`
	MaxOpenCount      int     `yaml:"max_open_cnt_30m"`
	EventCondition    string  `yaml:"event_condition"` // touch | seal_or_near
}

// Scoring holds the weighted breakpoint tables for the four sub-scores plus
// the regime scaling factors and risk penalties.
type Scoring struct {
	WMarket  float64 `yaml:"w_market"`
	WTheme   float64 `yaml:"w_theme"`
	WStock   float64 `yaml:"w_stock"`
	WQuality float64 `yaml:"w_quality"`

	YellowFactor float64 `yaml:"yellow_score_factor"`
	RedFactor    float64 `yaml:"red_score_factor"`

	Market  MarketBands  `yaml:"market_score"`
	Stock   StockBands   `yaml:"stock_score"`
	Quality QualityBands `yaml:"quality_score"`
	Penalty Penalties    `yaml:"penalty"`
}

// MarketBands scores the market environment.
type MarketBands struct {
	LimitUpCount   WeightedBands `yaml:"limit_up_count"`
	BombRate       WeightedBands `yaml:"bomb_rate"`
	DownLimitCount WeightedBands `yaml:"down_limit_count"`
}

// StockBands scores per-symbol strength.
type StockBands struct {
	Slope    WeightedBands `yaml:"slope_5m"`
	Pullback WeightedBands `yaml:"pullback_5m"`
	VolRatio WeightedBands `yaml:"vol_ratio_5m"`
}

// QualityBands scores seal quality. NoResealScore substitutes for the speed
// band when a symbol never opened (first boards that held).
type QualityBands struct {
	ResealSpeed   WeightedBands `yaml:"reseal_speed_sec"`
	Stability     WeightedBands `yaml:"reseal_stable_min"`
	OpenCount     WeightedBands `yaml:"open_count_30m"`
	NoResealScore float64       `yaml:"no_reseal_score"`
}

// Penalties is the additive risk penalty schedule, capped at Cap.
type Penalties struct {
	Degraded       float64 `yaml:"degraded"`
	AmtHardFloor   float64 `yaml:"amt_hard_floor"`
	AmtHardPenalty float64 `yaml:"amt_hard_penalty"`
	AmtSoftFloor   float64 `yaml:"amt_soft_floor"`
	AmtSoftPenalty float64 `yaml:"amt_soft_penalty"`
	RedLight       float64 `yaml:"red_light"`
	YellowLight    float64 `yaml:"yellow_light"`
	Cap            float64 `yaml:"cap"`
}

// Trigger holds the thresholds for the five canonical gates.
type Trigger struct {
	EventMode string `yaml:"event_mode"` // reseal | first_seal

	// Reseal mode.
	ResealWindowSec int `yaml:"reseal_window_sec"`
	MinStableMin    int `yaml:"min_stable_min"`

	// First-seal mode.
	MaxOpenCount int `yaml:"max_open_cnt"`

	MinVolRatio float64 `yaml:"min_vol_ratio_5m"`
	MinSlope    float64 `yaml:"min_slope_5m"`
	MaxPullback float64 `yaml:"max_pullback_5m"`

	// Stricter rule sets demand the event gate too before a WATCH.
	WatchRequiresEvent bool `yaml:"watch_requires_event"`
}

// PlanConfig sizes positions by risk light and shapes the exit checklist.
type PlanConfig struct {
	MaxPosGreen   float64  `yaml:"max_single_pos_green"`
	MaxPosYellow  float64  `yaml:"max_single_pos_yellow"`
	MaxPosRed     float64  `yaml:"max_single_pos_red"`
	FailWindowSec int      `yaml:"fail_window_sec"`
	EntryNote     string   `yaml:"entry_note"`
	ExitRules     []string `yaml:"exit_rules"`
}

// Validate rejects a malformed rule set before registration. A bad table
// must fail fast for this strategy only, never corrupt others.
func (c Config) Validate() error {
	if c.ID == "" {
		return errors.New("strategy config: missing strategy_id")
	}
	if c.Trigger.EventMode != EventModeReseal && c.Trigger.EventMode != EventModeFirstSeal {
		return fmt.Errorf("strategy %s: invalid event_mode %q", c.ID, c.Trigger.EventMode)
	}
	switch c.StockFilter.EventCondition {
	case RequireTouch, RequireSealOrNear:
	default:
		return fmt.Errorf("strategy %s: invalid event_condition %q", c.ID, c.StockFilter.EventCondition)
	}
	wsum := c.Scoring.WMarket + c.Scoring.WTheme + c.Scoring.WStock + c.Scoring.WQuality
	if math.Abs(wsum-1.0) > 0.01 {
		return fmt.Errorf("strategy %s: scoring weights sum to %.3f, want 1.0", c.ID, wsum)
	}
	if len(c.MarketGate.AllowRiskLights) == 0 {
		return fmt.Errorf("strategy %s: empty allow_risk_lights", c.ID)
	}
	if c.Scoring.Penalty.Cap <= 0 {
		return fmt.Errorf("strategy %s: penalty cap must be positive", c.ID)
	}
	for name, wb := range map[string]WeightedBands{
		"limit_up_count": c.Scoring.Market.LimitUpCount,
		"bomb_rate":      c.Scoring.Market.BombRate,
		"down_limit":     c.Scoring.Market.DownLimitCount,
		"slope":          c.Scoring.Stock.Slope,
		"pullback":       c.Scoring.Stock.Pullback,
		"vol_ratio":      c.Scoring.Stock.VolRatio,
		"reseal_speed":   c.Scoring.Quality.ResealSpeed,
		"stability":      c.Scoring.Quality.Stability,
		"open_count":     c.Scoring.Quality.OpenCount,
	} {
		if len(wb.Bands) == 0 {
			return fmt.Errorf("strategy %s: empty %s band table", c.ID, name)
		}
	}
	return nil
}
