package risk

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sealrun/sealrun/internal/market"
)

// Params are the account-level risk limits. Rule sets may override them.
type Params struct {
	StopAfterConsecutiveLosses int     `yaml:"stop_after_consecutive_losses"`
	DailyMaxDrawdown           float64 `yaml:"daily_max_drawdown"`
	MaxTotalPosition           float64 `yaml:"max_total_position"`
	MaxDailyTrades             int     `yaml:"max_daily_trades"`
}

// DefaultParams returns the production risk limits.
func DefaultParams() Params {
	return Params{
		StopAfterConsecutiveLosses: 3,
		DailyMaxDrawdown:           0.03,
		MaxTotalPosition:           0.60,
		MaxDailyTrades:             10,
	}
}

// State is a snapshot of one account's risk counters.
type State struct {
	ConsecutiveLosses int       `json:"consecutive_losses"`
	DailyPnL          float64   `json:"daily_pnl"`
	DailyPnLPct       float64   `json:"daily_pnl_pct"`
	TotalPosition     float64   `json:"total_position"`
	TradeCountToday   int       `json:"trade_count_today"`
	IsStopped         bool      `json:"is_stopped"`
	StopReason        string    `json:"stop_reason,omitempty"`
	LastTradeAt       time.Time `json:"last_trade_at,omitempty"`
	TradeDate         string    `json:"trade_date"`
}

// Observer receives account-level risk events, typically a metrics sink.
// Callbacks run under the gate's mutex and must not call back into it.
type Observer interface {
	RiskStopped()
	TradeClosed()
}

// Gate enforces account-level risk limits. It can only block, never relax,
// the actions proposed upstream. One Gate per account; trade recording is
// serialized by the gate's mutex.
type Gate struct {
	mu     sync.Mutex
	params Params
	state  State
	obs    Observer
	log    zerolog.Logger
}

// NewGate starts a gate with clean counters for the given trading day.
func NewGate(params Params, tradeDate string, log zerolog.Logger) *Gate {
	if params.StopAfterConsecutiveLosses <= 0 {
		params = DefaultParams()
	}
	return &Gate{
		params: params,
		state:  State{TradeDate: tradeDate},
		log:    log.With().Str("component", "risk").Logger(),
	}
}

// SetObserver attaches a sink for stop and trade events.
func (g *Gate) SetObserver(obs Observer) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.obs = obs
}

// UpdateParams overlays strategy-specific risk limits.
func (g *Gate) UpdateParams(p Params) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if p.StopAfterConsecutiveLosses > 0 {
		g.params.StopAfterConsecutiveLosses = p.StopAfterConsecutiveLosses
	}
	if p.DailyMaxDrawdown > 0 {
		g.params.DailyMaxDrawdown = p.DailyMaxDrawdown
	}
	if p.MaxTotalPosition > 0 {
		g.params.MaxTotalPosition = p.MaxTotalPosition
	}
	if p.MaxDailyTrades > 0 {
		g.params.MaxDailyTrades = p.MaxDailyTrades
	}
}

// CheckCanTrade reports whether new entries are permitted under the light.
// A tripped stop is retained until the day-boundary reset.
func (g *Gate) CheckCanTrade(light market.RiskLight) (bool, string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.checkCanTradeLocked(light)
}

func (g *Gate) checkCanTradeLocked(light market.RiskLight) (bool, string) {
	if g.state.IsStopped {
		reason := g.state.StopReason
		if reason == "" {
			reason = "trading stopped"
		}
		return false, reason
	}

	if light == market.LightRed {
		return false, "market risk light RED, no new entries"
	}

	if g.state.ConsecutiveLosses >= g.params.StopAfterConsecutiveLosses {
		reason := fmt.Sprintf("%d consecutive losses", g.params.StopAfterConsecutiveLosses)
		g.stopLocked(reason)
		return false, reason + ", trading stopped"
	}

	if g.state.DailyPnL < 0 && abs(g.state.DailyPnLPct) >= g.params.DailyMaxDrawdown {
		reason := fmt.Sprintf("daily drawdown beyond %.1f%%", g.params.DailyMaxDrawdown*100)
		g.stopLocked(reason)
		return false, reason + ", trading stopped"
	}

	if g.state.TotalPosition >= g.params.MaxTotalPosition {
		return false, fmt.Sprintf("total position at cap %.0f%%", g.params.MaxTotalPosition*100)
	}

	return true, "ok"
}

// AvailablePosition returns the remaining budget to the position cap,
// halved under YELLOW, zero when trading is blocked.
func (g *Gate) AvailablePosition(light market.RiskLight) float64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	if ok, _ := g.checkCanTradeLocked(light); !ok {
		return 0
	}

	available := g.params.MaxTotalPosition - g.state.TotalPosition
	if light == market.LightYellow {
		available *= 0.5
	}
	if available < 0 {
		available = 0
	}
	return available
}

// MaxPositionFor caps a plan's single-position limit by the remaining budget.
func (g *Gate) MaxPositionFor(planLimit float64, light market.RiskLight) float64 {
	available := g.AvailablePosition(light)
	if planLimit < available {
		return planLimit
	}
	return available
}

// RecordTrade updates the counters with one closed trade. Any non-negative
// P&L resets the consecutive-loss streak.
func (g *Gate) RecordTrade(symbol string, pnl, pnlPct float64, at time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if pnl < 0 {
		g.state.ConsecutiveLosses++
	} else {
		g.state.ConsecutiveLosses = 0
	}
	g.state.DailyPnL += pnl
	g.state.DailyPnLPct += pnlPct
	g.state.TradeCountToday++
	g.state.LastTradeAt = at
	if g.obs != nil {
		g.obs.TradeClosed()
	}

	g.log.Info().
		Str("symbol", symbol).
		Float64("pnl", pnl).
		Int("consecutive_losses", g.state.ConsecutiveLosses).
		Msg("trade recorded")
}

// UpdatePosition sets the current total position fraction.
func (g *Gate) UpdatePosition(total float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state.TotalPosition = total
}

// ResetDaily clears all counters except the carried position when the
// trading day changes.
func (g *Gate) ResetDaily(tradeDate string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state.TradeDate == tradeDate {
		return
	}
	carried := g.state.TotalPosition
	g.state = State{TotalPosition: carried, TradeDate: tradeDate}
	g.log.Info().Str("trade_date", tradeDate).Msg("new trading day, risk state reset")
}

// Snapshot returns a copy of the current risk state.
func (g *Gate) Snapshot() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *Gate) stopLocked(reason string) {
	g.state.IsStopped = true
	g.state.StopReason = reason
	if g.obs != nil {
		g.obs.RiskStopped()
	}
	g.log.Warn().Str("reason", reason).Msg("trading stop triggered")
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
