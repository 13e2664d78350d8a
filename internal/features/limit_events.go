package features

import (
	"math"

	"github.com/sealrun/sealrun/internal/market"
)

// LimitState is the per-bar limit-proximity state of one symbol.
type LimitState string

const (
	StateNormal LimitState = "NORMAL"
	StateNear   LimitState = "NEAR"
	StateSealed LimitState = "SEALED"
	StateOpen   LimitState = "OPEN"
)

// DetectorConfig holds the thresholds for the limit-event state machine.
type DetectorConfig struct {
	LimitUpEps     float64 `yaml:"limit_up_eps"`      // sealed band around the limit price
	NearLimitUpEps float64 `yaml:"near_limit_up_eps"` // near band below the limit price
	MinOpenGap     float64 `yaml:"min_open_gap"`      // minimum gap below limit to count an open
	WindowMinutes  int     `yaml:"window_m"`          // trailing bar window

	// Percentage-change fallback bands used when no limit price is known.
	PctLimitUp     float64 `yaml:"pct_limit_up"`
	PctNearLimitUp float64 `yaml:"pct_near_limit_up"`
}

// DefaultDetectorConfig returns the production thresholds.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		LimitUpEps:     0.0005,
		NearLimitUpEps: 0.003,
		MinOpenGap:     0.001,
		WindowMinutes:  30,
		PctLimitUp:     0.095,
		PctNearLimitUp: 0.092,
	}
}

// LimitEvents summarizes seal/open/reseal activity over one bar window.
type LimitEvents struct {
	TouchLimitUp   bool       `json:"touch_limit_up_30m"`
	OpenCount      int        `json:"open_count_30m"`
	ResealSpeedSec int        `json:"reseal_speed_sec,omitempty"`
	Resealed       bool       `json:"resealed"` // ResealSpeedSec is meaningful only when true
	ResealStable   int        `json:"reseal_stable_min"`
	FirstSealIdx   int        `json:"first_seal_minute"` // -1 when never sealed
	FinalState     LimitState `json:"current_state"`
	IsLimitUp      bool       `json:"is_limit_up"`
	NearLimitUp    bool       `json:"near_limit_up"`
}

// LimitEventDetector infers limit-up seal/open/reseal events from minute
// bars. It is stateless; every call processes one window.
type LimitEventDetector struct {
	cfg DetectorConfig
}

// NewLimitEventDetector builds a detector with the given thresholds.
func NewLimitEventDetector(cfg DetectorConfig) *LimitEventDetector {
	if cfg.WindowMinutes <= 0 {
		cfg.WindowMinutes = DefaultDetectorConfig().WindowMinutes
	}
	return &LimitEventDetector{cfg: cfg}
}

// ClassifyBar returns the instantaneous limit state of a close price. With a
// known limit price the sealed/near bands are relative distances to it;
// without one, percentage-change bands against prevClose approximate them.
func (d *LimitEventDetector) ClassifyBar(close, limitUpPrice, prevClose float64) LimitState {
	if limitUpPrice > 0 {
		diff := math.Abs(close-limitUpPrice) / limitUpPrice
		switch {
		case diff <= d.cfg.LimitUpEps:
			return StateSealed
		case (limitUpPrice-close)/limitUpPrice <= d.cfg.NearLimitUpEps:
			return StateNear
		default:
			return StateNormal
		}
	}

	if prevClose > 0 {
		pct := (close - prevClose) / prevClose
		switch {
		case pct >= d.cfg.PctLimitUp:
			return StateSealed
		case pct >= d.cfg.PctNearLimitUp:
			return StateNear
		}
	}
	return StateNormal
}

// DetectEvents walks the trailing window of bars for one symbol and returns
// the event summary. An empty window yields the all-default result. When no
// limit price is supplied it is approximated from the first bar's prev close
// at the main-board 10% tier.
func (d *LimitEventDetector) DetectEvents(bars []market.MinuteBar, limitUpPrice float64) LimitEvents {
	result := LimitEvents{FirstSealIdx: -1, FinalState: StateNormal}
	if len(bars) == 0 {
		return result
	}

	if n := len(bars); n > d.cfg.WindowMinutes {
		bars = bars[n-d.cfg.WindowMinutes:]
	}

	prevClose := bars[0].PrevClose
	if limitUpPrice <= 0 && prevClose > 0 {
		limitUpPrice = math.Round(prevClose*1.1*100) / 100
	}

	state := StateNormal
	sealStartIdx := -1
	lastOpenIdx := -1
	states := make([]LimitState, 0, len(bars))

	for idx, bar := range bars {
		cur := d.ClassifyBar(bar.Close, limitUpPrice, prevClose)

		// A bar can touch the limit with its high without the close sealing.
		if limitUpPrice > 0 && bar.High > 0 &&
			(limitUpPrice-bar.High)/limitUpPrice <= d.cfg.LimitUpEps {
			result.TouchLimitUp = true
		}

		if state != StateSealed && cur == StateSealed {
			if result.FirstSealIdx < 0 {
				result.FirstSealIdx = idx
			}
			// An open may take several bars to recover; the reseal clock
			// runs from the open itself, not the last pre-seal bar.
			if lastOpenIdx >= 0 {
				result.ResealSpeedSec = (idx - lastOpenIdx) * 60
				result.Resealed = true
				lastOpenIdx = -1
			}
			sealStartIdx = idx
		} else if state == StateSealed && cur != StateSealed {
			// Only a close meaningfully below the limit counts as an open;
			// boundary noise stays in NEAR/NORMAL without incrementing.
			if (cur == StateNormal || cur == StateNear) &&
				limitUpPrice > 0 && bar.Close < limitUpPrice*(1-d.cfg.MinOpenGap) {
				result.OpenCount++
				lastOpenIdx = idx
				cur = StateOpen
			}
		}

		state = cur
		states = append(states, cur)
	}

	// Trailing run of SEALED bars from the most recent seal start.
	if sealStartIdx >= 0 {
		for i := len(states) - 1; i >= sealStartIdx && states[i] == StateSealed; i-- {
			result.ResealStable++
		}
	}

	result.FinalState = state
	result.IsLimitUp = state == StateSealed
	result.NearLimitUp = state == StateSealed || state == StateNear
	return result
}

// ResealQuality scores the reseal behavior 0-100: fast reseal, long stable
// run, and few opens each contribute a banded sub-score.
func (e LimitEvents) ResealQuality() float64 {
	score := 0.0

	if e.Resealed {
		switch {
		case e.ResealSpeedSec <= 30:
			score += 35
		case e.ResealSpeedSec <= 60:
			score += 28
		case e.ResealSpeedSec <= 120:
			score += 15
		default:
			score += 5
		}
	}

	switch {
	case e.ResealStable >= 5:
		score += 35
	case e.ResealStable >= 3:
		score += 28
	case e.ResealStable >= 1:
		score += 18
	default:
		score += 5
	}

	switch e.OpenCount {
	case 0:
		score += 30
	case 1:
		score += 22
	case 2:
		score += 12
	default:
		score += 5
	}

	return math.Min(score, 100)
}
