// Package quality downgrades decisions when the data feeding them is stale
// or the session makes them meaningless. The gate can only lower an action,
// never raise one.
package quality

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sealrun/sealrun/internal/calendar"
	"github.com/sealrun/sealrun/internal/features"
	"github.com/sealrun/sealrun/internal/market"
)

// neverSeenLagMin is the sentinel lag reported before any data arrived.
const neverSeenLagMin = 9999

// Config bounds the tolerated data staleness.
type Config struct {
	MaxLagMinutes int `yaml:"max_lag_minutes"`
}

// DefaultConfig returns the production staleness bound.
func DefaultConfig() Config {
	return Config{MaxLagMinutes: 20}
}

// Status is one snapshot of the gate's view of data health.
type Status struct {
	LagMinutes int              `json:"lag_minutes"`
	Session    calendar.Session `json:"session"`
	CanAllow   bool             `json:"can_allow"`
	Reason     string           `json:"reason,omitempty"`
	LastDataAt time.Time        `json:"last_data_at,omitempty"`
}

// Gate tracks data freshness against the trading calendar.
type Gate struct {
	mu       sync.Mutex
	cfg      Config
	cal      *calendar.Calendar
	lastData time.Time
	log      zerolog.Logger
}

// NewGate builds a quality gate over the given calendar.
func NewGate(cfg Config, cal *calendar.Calendar, log zerolog.Logger) *Gate {
	if cfg.MaxLagMinutes <= 0 {
		cfg = DefaultConfig()
	}
	return &Gate{
		cfg: cfg,
		cal: cal,
		log: log.With().Str("component", "quality").Logger(),
	}
}

// ObserveData records the timestamp of the freshest data seen.
func (g *Gate) ObserveData(ts time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if ts.After(g.lastData) {
		g.lastData = ts
	}
}

// LagMinutes returns the staleness of the last observed data. Outside
// trading hours lag is meaningless and reported as zero; before any data
// arrived it is the never-seen sentinel.
func (g *Gate) LagMinutes() int {
	g.mu.Lock()
	last := g.lastData
	g.mu.Unlock()

	if !g.cal.IsTradingNow() {
		return 0
	}
	if last.IsZero() {
		return neverSeenLagMin
	}
	lag := int(g.cal.Now().Sub(last).Minutes())
	if lag < 0 {
		lag = 0
	}
	return lag
}

// CanAllow reports whether an ALLOW is currently defensible, with the
// blocking reason when not.
func (g *Gate) CanAllow() (bool, string) {
	switch s := g.cal.CurrentSession(); s {
	case calendar.SessionPreOpen:
		return false, "call auction in progress, quotes not continuous"
	case calendar.SessionLunch:
		return false, "lunch break, market halted"
	case calendar.SessionClosed:
		return false, "market closed"
	}

	if lag := g.LagMinutes(); lag > g.cfg.MaxLagMinutes {
		return false, fmt.Sprintf("data %dm stale, tolerance %dm", lag, g.cfg.MaxLagMinutes)
	}
	return true, ""
}

// MaxAction returns the strongest action the current data health supports:
// BLOCK when data is stale beyond recovery, WATCH when an ALLOW is not
// defensible, otherwise ALLOW.
func (g *Gate) MaxAction() market.Action {
	if g.cal.IsTradingNow() && g.LagMinutes() > 3*g.cfg.MaxLagMinutes {
		return market.ActionBlock
	}
	if ok, _ := g.CanAllow(); !ok {
		return market.ActionWatch
	}
	return market.ActionAllow
}

// ApplyDegradation caps a proposed action at what the data supports and, on
// a downgrade, flags the feature set so the penalty schedule sees it.
func (g *Gate) ApplyDegradation(proposed market.Action, fs *features.StockFeatureSet) market.Action {
	max := g.MaxAction()
	if proposed.Rank() <= max.Rank() {
		return proposed
	}

	_, reason := g.CanAllow()
	if reason == "" {
		reason = "data quality degraded"
	}
	if fs != nil {
		fs.MarkDegraded(reason)
	}
	g.log.Warn().
		Str("symbol", symbolOf(fs)).
		Str("proposed", string(proposed)).
		Str("capped", string(max)).
		Str("reason", reason).
		Msg("action downgraded")
	return max
}

// Status returns the gate's current snapshot.
func (g *Gate) Status() Status {
	g.mu.Lock()
	last := g.lastData
	g.mu.Unlock()

	ok, reason := g.CanAllow()
	return Status{
		LagMinutes: g.LagMinutes(),
		Session:    g.cal.CurrentSession(),
		CanAllow:   ok,
		Reason:     reason,
		LastDataAt: last,
	}
}

func symbolOf(fs *features.StockFeatureSet) string {
	if fs == nil {
		return ""
	}
	return fs.Symbol
}
