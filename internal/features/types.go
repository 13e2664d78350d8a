package features

import (
	"time"

	"github.com/sealrun/sealrun/internal/market"
)

// StockFeatureSet is one symbol's derived metrics for one cycle. It is
// created fresh every cycle and never mutated after assembly, except that
// the quality gate may flag it degraded when downgrading an action.
//
// Optional metrics use the zero value plus an entry in MissingFields; a
// metric absent from MissingFields was computed.
type StockFeatureSet struct {
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name,omitempty"`
	Timestamp time.Time `json:"ts"`

	Close     float64 `json:"close,omitempty"`
	PrevClose float64 `json:"prev_close,omitempty"`
	PctChange float64 `json:"pct_change,omitempty"`

	// Returns over trailing N minutes.
	Ret1m  float64 `json:"ret_1m,omitempty"`
	Ret5m  float64 `json:"ret_5m,omitempty"`
	Ret15m float64 `json:"ret_15m,omitempty"`

	// Trend strength: least-squares slope of trailing closes, in percent of
	// the window's first close per minute.
	Slope5m  float64 `json:"slope_5m,omitempty"`
	Slope10m float64 `json:"slope_10m,omitempty"`

	// Distance from the window high, clamped >= 0.
	Pullback5m float64 `json:"pullback_5m,omitempty"`

	// Volume.
	VolRatio5m float64 `json:"vol_ratio_5m,omitempty"`
	Amt        float64 `json:"amt,omitempty"`
	Amt5m      float64 `json:"amt_5m,omitempty"`

	// (max high - min low) / min low over the trailing window.
	Range5m float64 `json:"range_5m,omitempty"`

	NewHighCount30m int `json:"new_high_cnt_30m"`

	LimitUpPrice float64 `json:"limit_up_price,omitempty"`

	// Limit-event summary from the state machine.
	Events LimitEvents `json:"events"`

	LiquidityScore float64 `json:"liquidity_score,omitempty"`
	ResealQuality  float64 `json:"reseal_quality,omitempty"`

	Degraded       bool     `json:"degraded"`
	DegradedReason string   `json:"degraded_reason,omitempty"`
	MissingFields  []string `json:"missing_fields,omitempty"`
}

// Has reports whether a named metric was computed for this set.
func (f *StockFeatureSet) Has(field string) bool {
	for _, m := range f.MissingFields {
		if m == field {
			return false
		}
	}
	return true
}

// MarkDegraded flags the set degraded, retaining the first reason.
func (f *StockFeatureSet) MarkDegraded(reason string) {
	f.Degraded = true
	if f.DegradedReason == "" {
		f.DegradedReason = reason
	}
}

// MarketFeatureSet is the aggregate market picture for one cycle.
type MarketFeatureSet struct {
	Timestamp time.Time `json:"ts"`

	LimitUpCount      int     `json:"limit_up_count"`
	TouchLimitUpCount int     `json:"touch_limit_up_count"`
	DownLimitCount    int     `json:"down_limit_count"`
	BombRate          float64 `json:"bomb_rate"`

	RegimeMode market.RegimeMode `json:"regime_mode"`
	RiskLight  market.RiskLight  `json:"risk_light"`

	// Composite sentiment score, present only when the sentiment analyzer
	// ran for this cycle.
	SentimentScore int  `json:"sentiment_score,omitempty"`
	HasSentiment   bool `json:"has_sentiment"`

	Degraded bool `json:"degraded"`
}
