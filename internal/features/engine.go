package features

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/sealrun/sealrun/internal/market"
	"github.com/sealrun/sealrun/internal/regime"
)

// coreFields are the derived metrics whose absence degrades a feature set.
var coreFields = []string{"ret_5m", "slope_5m", "pullback_5m", "vol_ratio_5m", "amt"}

// Engine computes per-symbol feature sets and the market-wide aggregate.
// It never fails a cycle: missing or insufficient inputs degrade the output
// and list the missing fields instead of returning an error.
type Engine struct {
	detector *LimitEventDetector
	log      zerolog.Logger
}

// NewEngine builds a feature engine around the given event detector.
func NewEngine(detector *LimitEventDetector, log zerolog.Logger) *Engine {
	if detector == nil {
		detector = NewLimitEventDetector(DefaultDetectorConfig())
	}
	return &Engine{detector: detector, log: log.With().Str("component", "features").Logger()}
}

// ComputeStockFeatures derives one StockFeatureSet from a symbol's trailing
// bar window, with the quote as fallback when bars are missing. Bars are
// sorted by timestamp before use.
func (e *Engine) ComputeStockFeatures(symbol string, bars []market.MinuteBar, quote *market.Quote, now time.Time) *StockFeatureSet {
	fs := &StockFeatureSet{Symbol: symbol, Timestamp: now}
	if quote != nil {
		fs.Name = quote.Name
	}

	if len(bars) == 0 {
		fs.MarkDegraded("no bars")
		fs.MissingFields = []string{"bars"}
		if quote != nil {
			fs.Close = quote.Close
			fs.PrevClose = quote.PrevClose
			fs.PctChange = quote.PctChange
			fs.Amt = quote.Amount
		}
		return fs
	}

	sorted := make([]market.MinuteBar, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	bars = sorted

	latest := bars[len(bars)-1]
	close := latest.Close
	if close <= 0 && quote != nil {
		close = quote.Close
	}
	if close <= 0 {
		fs.MarkDegraded("no close price")
		fs.MissingFields = []string{"close"}
		return fs
	}
	fs.Close = close

	prevClose := latest.PrevClose
	if prevClose <= 0 {
		prevClose = bars[0].Close
	}
	fs.PrevClose = prevClose
	if prevClose > 0 {
		fs.PctChange = (close - prevClose) / prevClose * 100
	}

	limitUp := latest.LimitUpPrice
	if limitUp <= 0 && prevClose > 0 {
		limitUp = market.LimitUpPrice(symbol, prevClose)
	}
	fs.LimitUpPrice = limitUp

	var missing []string
	record := func(field string, v float64, ok bool, dst *float64) {
		if ok {
			*dst = v
		} else {
			missing = append(missing, field)
		}
	}

	v, ok := calcReturn(bars, 1)
	record("ret_1m", v, ok, &fs.Ret1m)
	v, ok = calcReturn(bars, 5)
	record("ret_5m", v, ok, &fs.Ret5m)
	v, ok = calcReturn(bars, 15)
	record("ret_15m", v, ok, &fs.Ret15m)

	v, ok = calcSlope(bars, 5)
	record("slope_5m", v, ok, &fs.Slope5m)
	v, ok = calcSlope(bars, 10)
	record("slope_10m", v, ok, &fs.Slope10m)

	v, ok = calcPullback(bars, 5)
	record("pullback_5m", v, ok, &fs.Pullback5m)

	v, ok = calcVolRatio(bars, 5)
	record("vol_ratio_5m", v, ok, &fs.VolRatio5m)

	v, ok = calcRange(bars, 5)
	record("range_5m", v, ok, &fs.Range5m)

	fs.Amt = sumAmount(bars)
	fs.Amt5m = sumAmount(tail(bars, 5))
	if fs.Amt <= 0 {
		if quote != nil && quote.Amount > 0 {
			fs.Amt = quote.Amount
		} else {
			missing = append(missing, "amt")
		}
	}

	fs.NewHighCount30m = calcNewHighCount(bars, 30)

	fs.Events = e.detector.DetectEvents(bars, limitUp)
	fs.ResealQuality = fs.Events.ResealQuality()
	fs.LiquidityScore = liquidityScore(fs.Amt, fs.VolRatio5m, fs.Range5m)

	if len(missing) > 0 {
		fs.MissingFields = missing
		for _, f := range missing {
			for _, core := range coreFields {
				if f == core {
					fs.MarkDegraded(fmt.Sprintf("insufficient history: %s", f))
				}
			}
		}
	}

	return fs
}

// ComputeMarketFeatures aggregates the full quote batch into the cycle's
// market picture, classifying each quote against its own tier's thresholds.
// An empty batch yields a degraded result with a YELLOW light.
func (e *Engine) ComputeMarketFeatures(quotes []market.Quote, now time.Time) *MarketFeatureSet {
	mf := &MarketFeatureSet{
		Timestamp:  now,
		RegimeMode: market.RegimeNormal,
		RiskLight:  market.LightGreen,
	}

	if len(quotes) == 0 {
		mf.Degraded = true
		mf.RiskLight = market.LightYellow
		return mf
	}

	for _, q := range quotes {
		if q.IsLimitUp() {
			mf.LimitUpCount++
		}
		if q.TouchedLimitUp() {
			mf.TouchLimitUpCount++
		}
		if q.IsLimitDown() {
			mf.DownLimitCount++
		}
	}

	// Touch and seal cutoffs come from different bands per tier; clamp so an
	// inconsistent pair can never push a negative rate into scoring.
	if mf.TouchLimitUpCount > 0 {
		rate := float64(mf.TouchLimitUpCount-mf.LimitUpCount) / float64(mf.TouchLimitUpCount)
		if rate < 0 {
			rate = 0
		}
		mf.BombRate = rate
	}

	mf.RegimeMode = regime.Classify(mf.LimitUpCount, mf.DownLimitCount, mf.BombRate)
	mf.RiskLight = regime.ClassifyLight(mf.RegimeMode, mf.LimitUpCount, mf.DownLimitCount, mf.BombRate)

	e.log.Debug().
		Int("limit_up", mf.LimitUpCount).
		Int("down_limit", mf.DownLimitCount).
		Float64("bomb_rate", mf.BombRate).
		Str("regime", string(mf.RegimeMode)).
		Str("light", string(mf.RiskLight)).
		Msg("market features computed")

	return mf
}

func tail(bars []market.MinuteBar, n int) []market.MinuteBar {
	if len(bars) <= n {
		return bars
	}
	return bars[len(bars)-n:]
}

func calcReturn(bars []market.MinuteBar, periods int) (float64, bool) {
	if len(bars) < periods {
		return 0, false
	}
	cur := bars[len(bars)-1].Close
	prev := bars[len(bars)-periods].Close
	if prev <= 0 {
		return 0, false
	}
	return (cur - prev) / prev, true
}

// calcSlope fits a least-squares line to the trailing closes and normalizes
// the coefficient to percent-per-minute of the first close, so thresholds
// are scale-free across price levels.
func calcSlope(bars []market.MinuteBar, periods int) (float64, bool) {
	if len(bars) < periods {
		return 0, false
	}
	prices := tail(bars, periods)

	n := float64(len(prices))
	var sumX, sumY, sumXY, sumXX float64
	for i, b := range prices {
		x := float64(i)
		sumX += x
		sumY += b.Close
		sumXY += x * b.Close
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 || prices[0].Close <= 0 {
		return 0, false
	}
	slope := (n*sumXY - sumX*sumY) / denom
	return slope / prices[0].Close * 100, true
}

func calcPullback(bars []market.MinuteBar, periods int) (float64, bool) {
	if len(bars) < periods {
		return 0, false
	}
	recent := tail(bars, periods)
	high := 0.0
	for _, b := range recent {
		h := b.High
		if h <= 0 {
			h = b.Close
		}
		if h > high {
			high = h
		}
	}
	if high <= 0 {
		return 0, false
	}
	pb := (high - recent[len(recent)-1].Close) / high
	if pb < 0 {
		pb = 0
	}
	return pb, true
}

// calcVolRatio compares the trailing N-bar mean volume to the mean of the
// older bars; it needs at least 2N bars of history.
func calcVolRatio(bars []market.MinuteBar, periods int) (float64, bool) {
	if len(bars) < periods*2 {
		return 0, false
	}
	recent := bars[len(bars)-periods:]
	older := bars[:len(bars)-periods]

	var recentSum, olderSum float64
	for _, b := range recent {
		recentSum += b.Volume
	}
	for _, b := range older {
		olderSum += b.Volume
	}
	olderMean := olderSum / float64(len(older))
	if olderMean <= 0 {
		return 0, false
	}
	return (recentSum / float64(periods)) / olderMean, true
}

func calcRange(bars []market.MinuteBar, periods int) (float64, bool) {
	if len(bars) < periods {
		return 0, false
	}
	recent := tail(bars, periods)
	high, low := 0.0, 0.0
	for _, b := range recent {
		h, l := b.High, b.Low
		if h <= 0 {
			h = b.Close
		}
		if l <= 0 {
			l = b.Close
		}
		if h > high {
			high = h
		}
		if low == 0 || l < low {
			low = l
		}
	}
	if low <= 0 {
		return 0, false
	}
	return (high - low) / low, true
}

// calcNewHighCount counts strictly-increasing running-maximum updates of the
// close over the trailing window.
func calcNewHighCount(bars []market.MinuteBar, periods int) int {
	if len(bars) < 2 {
		return 0
	}
	recent := tail(bars, periods)
	count := 0
	runningHigh := recent[0].Close
	for _, b := range recent[1:] {
		if b.Close > runningHigh {
			count++
			runningHigh = b.Close
		}
	}
	return count
}

func sumAmount(bars []market.MinuteBar) float64 {
	var sum float64
	for _, b := range bars {
		sum += b.Amount
	}
	return sum
}

// liquidityScore is a weighted sum of three banded sub-scores: amount tier,
// volume-ratio tier, and amplitude tier. Capped at 1.0.
func liquidityScore(amt, volRatio, rng float64) float64 {
	score := 0.0

	switch {
	case amt >= 200_000_000:
		score += 0.4
	case amt >= 100_000_000:
		score += 0.3
	case amt >= 50_000_000:
		score += 0.2
	default:
		score += 0.1
	}

	if volRatio <= 0 {
		volRatio = 1.0
	}
	switch {
	case volRatio >= 2.0:
		score += 0.3
	case volRatio >= 1.5:
		score += 0.25
	case volRatio >= 1.0:
		score += 0.15
	default:
		score += 0.1
	}

	switch {
	case rng >= 0.01 && rng <= 0.05:
		score += 0.3
	case rng >= 0.005 && rng < 0.01:
		score += 0.2
	case rng > 0.05:
		score += 0.15
	default:
		score += 0.1
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}
