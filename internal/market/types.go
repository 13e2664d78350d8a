package market

import "time"

// Action is the gated output decision for one candidate. Actions are ordered:
// BLOCK < WATCH < ALLOW. A gate may downgrade an action, never upgrade it.
type Action string

const (
	ActionBlock Action = "BLOCK"
	ActionWatch Action = "WATCH"
	ActionAllow Action = "ALLOW"
)

// Rank returns the ordering level of the action (BLOCK=0, WATCH=1, ALLOW=2).
// Unknown actions rank lowest so a malformed input can never outrank a gate.
func (a Action) Rank() int {
	switch a {
	case ActionAllow:
		return 2
	case ActionWatch:
		return 1
	default:
		return 0
	}
}

// RiskLight is the market-wide traffic-light risk classification.
type RiskLight string

const (
	LightGreen  RiskLight = "GREEN"
	LightYellow RiskLight = "YELLOW"
	LightRed    RiskLight = "RED"
)

// RegimeMode classifies overall market character.
type RegimeMode string

const (
	RegimeStrong     RegimeMode = "STRONG"
	RegimeNormal     RegimeMode = "NORMAL"
	RegimeDivergence RegimeMode = "DIVERGENCE"
	RegimeWeak       RegimeMode = "WEAK"
	RegimeChaos      RegimeMode = "CHAOS"
)

// Quote is one symbol's current-cycle snapshot from the quote feed.
// Quotes are immutable per refresh cycle.
type Quote struct {
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name,omitempty"`
	Close     float64 `json:"close"`
	Open      float64 `json:"open,omitempty"`
	High      float64 `json:"high,omitempty"`
	Low       float64 `json:"low,omitempty"`
	PrevClose float64 `json:"prev_close"`
	PctChange float64 `json:"pct_change"` // percent, e.g. 9.98
	Volume    float64 `json:"volume"`
	Amount    float64 `json:"amount"` // turnover in CNY
	Turnover  float64 `json:"turnover,omitempty"`
	Amplitude float64 `json:"amplitude,omitempty"`
}

// LimitUpPrice returns the tier-derived limit-up price for this quote.
func (q Quote) LimitUpPrice() float64 {
	return LimitUpPrice(q.Symbol, q.PrevClose)
}

// LimitDownPrice returns the tier-derived limit-down price for this quote.
func (q Quote) LimitDownPrice() float64 {
	return LimitDownPrice(q.Symbol, q.PrevClose)
}

// MinuteBar is one minute of OHLCV data for a symbol. Bar sequences must be
// consumed in non-decreasing timestamp order.
type MinuteBar struct {
	Timestamp    time.Time `json:"ts"`
	Symbol       string    `json:"symbol"`
	Open         float64   `json:"open"`
	High         float64   `json:"high"`
	Low          float64   `json:"low"`
	Close        float64   `json:"close"`
	Volume       float64   `json:"volume"`
	Amount       float64   `json:"amount"`
	PrevClose    float64   `json:"prev_close,omitempty"`
	LimitUpPrice float64   `json:"limit_up_price,omitempty"`
}

// IndexKind labels a benchmark index quote so the sentiment analyzer does
// not have to guess from exchange-specific code formats.
type IndexKind string

const (
	IndexSH      IndexKind = "SH"       // Shanghai Composite
	IndexSZ      IndexKind = "SZ"       // Shenzhen Component
	IndexChiNext IndexKind = "CHINEXT"  // ChiNext Index
	IndexSTAR    IndexKind = "STAR50"   // STAR Market 50
)

// IndexQuote is one benchmark index reading.
type IndexQuote struct {
	Kind      IndexKind `json:"kind"`
	Name      string    `json:"name,omitempty"`
	PctChange float64   `json:"pct_change"`
}

// Snapshot is one immutable cycle input: the full quote batch, trailing bar
// windows keyed by symbol, benchmark indices, and optional context signals.
// One planner invocation consumes exactly one snapshot.
type Snapshot struct {
	Timestamp    time.Time              `json:"ts"`
	Quotes       []Quote                `json:"quotes"`
	Bars         map[string][]MinuteBar `json:"bars"`
	Indices      []IndexQuote           `json:"indices,omitempty"`
	PrevLimitUps []string               `json:"prev_limit_ups,omitempty"`
	NorthFlow    *float64               `json:"north_flow,omitempty"` // 100M CNY units
}
