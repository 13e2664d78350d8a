package market

import (
	"math"
	"strings"
)

// Tier is a board tier with its daily price-limit percentage. Every
// limit-related computation must select thresholds by tier, never from a
// single global constant.
type Tier struct {
	Name     string
	LimitPct float64 // 0.10 / 0.20 / 0.30
}

var (
	TierMain    = Tier{Name: "main", LimitPct: 0.10}
	TierChiNext = Tier{Name: "chinext", LimitPct: 0.20}
	TierSTAR    = Tier{Name: "star", LimitPct: 0.20}
	TierBSE     = Tier{Name: "bse", LimitPct: 0.30}
)

// TierFor resolves a symbol's board tier from its code prefix:
// 30* ChiNext, 68* STAR Market, 8*/4* Beijing Exchange, everything else
// main board.
func TierFor(symbol string) Tier {
	switch {
	case strings.HasPrefix(symbol, "30"):
		return TierChiNext
	case strings.HasPrefix(symbol, "68"):
		return TierSTAR
	case strings.HasPrefix(symbol, "8"), strings.HasPrefix(symbol, "4"):
		return TierBSE
	default:
		return TierMain
	}
}

// LimitUpPrice computes the exchange limit-up price for a symbol:
// round(prevClose * (1 + tierPct), 2).
func LimitUpPrice(symbol string, prevClose float64) float64 {
	if prevClose <= 0 {
		return 0
	}
	return round2(prevClose * (1 + TierFor(symbol).LimitPct))
}

// LimitDownPrice computes the exchange limit-down price for a symbol.
func LimitDownPrice(symbol string, prevClose float64) float64 {
	if prevClose <= 0 {
		return 0
	}
	return round2(prevClose * (1 - TierFor(symbol).LimitPct))
}

// Quote-level classification cutoffs, in percent-change space. Sealed sits
// half a point under the nominal tier percentage to absorb rounding of the
// limit price; touch sits one further point below sealed.
const (
	sealedCutoffMargin = 0.5
	touchCutoffMargin  = 1.0
)

// SealedCutoff returns the minimum pct_change at which a quote counts as
// limit-up for its tier (9.5 / 19.5 / 29.5).
func SealedCutoff(symbol string) float64 {
	return TierFor(symbol).LimitPct*100 - sealedCutoffMargin
}

// TouchCutoff returns the minimum pct_change at which a quote counts as
// having touched its limit during the session (8.5 / 18.5 / 28.5).
func TouchCutoff(symbol string) float64 {
	return SealedCutoff(symbol) - touchCutoffMargin
}

// DownCutoff returns the maximum pct_change at which a quote counts as
// limit-down for its tier (-9.5 / -19.5 / -29.5).
func DownCutoff(symbol string) float64 {
	return -SealedCutoff(symbol)
}

// IsLimitUp reports whether the quote sits at its tier's limit-up band.
func (q Quote) IsLimitUp() bool {
	return q.PctChange >= SealedCutoff(q.Symbol)
}

// TouchedLimitUp reports whether the quote reached its tier's touch band.
func (q Quote) TouchedLimitUp() bool {
	return q.PctChange >= TouchCutoff(q.Symbol)
}

// IsLimitDown reports whether the quote sits at its tier's limit-down band.
func (q Quote) IsLimitDown() bool {
	return q.PctChange <= DownCutoff(q.Symbol)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
