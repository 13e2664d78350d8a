// Package planner orchestrates one decision cycle: features in, ranked
// candidate pool and alert cards out.
package planner

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sealrun/sealrun/internal/features"
	"github.com/sealrun/sealrun/internal/market"
	"github.com/sealrun/sealrun/internal/metrics"
	"github.com/sealrun/sealrun/internal/quality"
	"github.com/sealrun/sealrun/internal/regime"
	"github.com/sealrun/sealrun/internal/risk"
	"github.com/sealrun/sealrun/internal/strategy"
	"github.com/sealrun/sealrun/internal/themes"
)

// Config tunes the cycle executor.
type Config struct {
	Workers        int           `yaml:"workers"`
	SymbolTimeout  time.Duration `yaml:"symbol_timeout"`
	AlertWatchMin  float64       `yaml:"alert_watch_min_score"`
	MaxPoolSize    int           `yaml:"max_pool_size"`
}

// DefaultConfig returns the production cycle settings.
func DefaultConfig() Config {
	return Config{
		Workers:       8,
		SymbolTimeout: 2 * time.Second,
		AlertWatchMin: 60,
		MaxPoolSize:   50,
	}
}

// Candidate is one symbol's full decision for a cycle.
type Candidate struct {
	Symbol     string                    `json:"symbol"`
	Name       string                    `json:"name,omitempty"`
	Action     market.Action             `json:"action"`
	Score      strategy.Score            `json:"score"`
	Checks     []strategy.GateCheck      `json:"checks"`
	Plan       *strategy.Plan            `json:"plan,omitempty"`
	ThemeScore float64                   `json:"theme_score"`
	Features   *features.StockFeatureSet `json:"features,omitempty"`
}

// Transition records one pool membership or action change between cycles.
type Transition struct {
	Symbol string        `json:"symbol"`
	Kind   string        `json:"kind"` // ADDED / REMOVED / UPGRADED / DOWNGRADED
	From   market.Action `json:"from,omitempty"`
	To     market.Action `json:"to,omitempty"`
}

// CycleResult is everything one cycle produced.
type CycleResult struct {
	Timestamp  time.Time `json:"ts"`
	StrategyID string    `json:"strategy_id"`

	Market     *features.MarketFeatureSet `json:"market"`
	Regime     regime.UpdateResult        `json:"regime"`
	Sentiment  *regime.Analysis           `json:"sentiment,omitempty"`
	ThemeStats []themes.Stat              `json:"theme_stats,omitempty"`

	Candidates  []Candidate  `json:"candidates"`
	Transitions []Transition `json:"transitions,omitempty"`
	Alerts      []AlertCard  `json:"alerts,omitempty"`

	Duration time.Duration `json:"duration"`
}

// Planner wires the full pipeline. All collaborators are injected; the
// planner owns only the cross-cycle candidate pool.
type Planner struct {
	cfg        Config
	engine     *features.Engine
	classifier *regime.Classifier
	sentiment  *regime.SentimentAnalyzer
	themes     *themes.Tracker
	registry   *strategy.Registry
	riskGate   *risk.Gate
	quality    *quality.Gate
	metrics    *metrics.Collector
	log        zerolog.Logger

	mu       sync.Mutex
	prevPool map[string]market.Action
}

// New assembles a planner from its collaborators. The metrics collector may
// be nil for embedders that do not scrape.
func New(
	cfg Config,
	engine *features.Engine,
	classifier *regime.Classifier,
	sentiment *regime.SentimentAnalyzer,
	tracker *themes.Tracker,
	registry *strategy.Registry,
	riskGate *risk.Gate,
	qualityGate *quality.Gate,
	collector *metrics.Collector,
	log zerolog.Logger,
) *Planner {
	if cfg.Workers <= 0 {
		cfg = DefaultConfig()
	}
	if cfg.SymbolTimeout <= 0 {
		cfg.SymbolTimeout = DefaultConfig().SymbolTimeout
	}
	return &Planner{
		cfg:        cfg,
		engine:     engine,
		classifier: classifier,
		sentiment:  sentiment,
		themes:     tracker,
		registry:   registry,
		riskGate:   riskGate,
		quality:    qualityGate,
		metrics:    collector,
		log:        log.With().Str("component", "planner").Logger(),
		prevPool:   map[string]market.Action{},
	}
}

// RunCycle processes one snapshot end to end. It never fails the cycle:
// missing inputs degrade the result instead.
func (p *Planner) RunCycle(ctx context.Context, snap *market.Snapshot) *CycleResult {
	started := time.Now()
	if snap == nil {
		snap = &market.Snapshot{Timestamp: started}
	}
	now := snap.Timestamp
	if now.IsZero() {
		now = started
	}

	p.quality.ObserveData(now)

	mf := p.engine.ComputeMarketFeatures(snap.Quotes, now)
	update := p.classifier.Update(mf.LimitUpCount, mf.DownLimitCount, mf.BombRate, now)

	var analysis *regime.Analysis
	if p.sentiment != nil && len(snap.Quotes) > 0 {
		analysis = p.sentiment.Analyze(snap.Quotes, snap.Indices, snap.PrevLimitUps, snap.NorthFlow, now)
		mf.SentimentScore = analysis.Score
		mf.HasSentiment = true
	}

	result := &CycleResult{
		Timestamp: now,
		Market:    mf,
		Regime:    update,
		Sentiment: analysis,
	}

	// Snapshot the active strategy once; a mid-cycle switch must not mix
	// two rule sets in one pool.
	strat := p.registry.Active()
	if strat == nil {
		p.log.Warn().Msg("no active strategy, empty pool")
		p.finish(result, started)
		return result
	}
	result.StrategyID = strat.ID()

	stocks := p.computeStockFeatures(ctx, snap, now)
	eligible := strat.FilterCandidates(stocks, *mf)

	var limitUps []string
	for _, q := range snap.Quotes {
		if q.IsLimitUp() {
			limitUps = append(limitUps, q.Symbol)
		}
	}
	result.ThemeStats = p.themes.Analyze(snap.Quotes, limitUps)

	candidates := make([]Candidate, 0, len(eligible))
	for _, fs := range eligible {
		themeScore := p.themes.Score(fs.Symbol, result.ThemeStats)
		score := strat.ScoreCandidate(fs, *mf, themeScore)
		action, checks := strat.EvaluateTrigger(fs, *mf)
		action = p.quality.ApplyDegradation(action, fs)

		// The account-level gate can veto an entry the strategy allowed.
		if action == market.ActionAllow {
			if ok, reason := p.riskGate.CheckCanTrade(mf.RiskLight); !ok {
				action = market.ActionWatch
				checks = append(checks, strategy.GateCheck{Name: "account_risk", Detail: reason})
			}
		}

		// Blocked candidates stay in the pool so downgrades and stale-data
		// blocks remain visible; alerting filters by action downstream.
		plan := strat.GeneratePlan(fs, *mf, score)
		plan.MaxPosition = p.riskGate.MaxPositionFor(plan.MaxPosition, mf.RiskLight)

		candidates = append(candidates, Candidate{
			Symbol:     fs.Symbol,
			Name:       fs.Name,
			Action:     action,
			Score:      score,
			Checks:     checks,
			Plan:       &plan,
			ThemeScore: themeScore,
			Features:   fs,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score.Total > candidates[j].Score.Total
	})
	if p.cfg.MaxPoolSize > 0 && len(candidates) > p.cfg.MaxPoolSize {
		candidates = candidates[:p.cfg.MaxPoolSize]
	}
	result.Candidates = candidates
	result.Transitions = p.diffPool(candidates)
	result.Alerts = p.buildAlerts(candidates, update, now)

	p.finish(result, started)
	return result
}

// computeStockFeatures fans the per-symbol work across a bounded worker
// pool. A cancelled context degrades the remaining symbols instead of
// dropping them.
func (p *Planner) computeStockFeatures(ctx context.Context, snap *market.Snapshot, now time.Time) []*features.StockFeatureSet {
	quotes := make(map[string]*market.Quote, len(snap.Quotes))
	for i := range snap.Quotes {
		quotes[snap.Quotes[i].Symbol] = &snap.Quotes[i]
	}

	symbols := make([]string, 0, len(snap.Quotes))
	for _, q := range snap.Quotes {
		symbols = append(symbols, q.Symbol)
	}

	out := make([]*features.StockFeatureSet, len(symbols))
	jobs := make(chan int)
	var wg sync.WaitGroup

	workers := p.cfg.Workers
	if workers > len(symbols) {
		workers = len(symbols)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				sym := symbols[i]
				if ctx.Err() != nil {
					fs := &features.StockFeatureSet{Symbol: sym, Timestamp: now}
					fs.MarkDegraded("cycle cancelled")
					out[i] = fs
					continue
				}
				out[i] = p.computeOne(ctx, sym, snap.Bars[sym], quotes[sym], now)
			}
		}()
	}
	for i := range symbols {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return out
}

// computeOne bounds a single symbol's feature derivation by the configured
// timeout. A slow symbol degrades locally; it never stalls the cycle.
func (p *Planner) computeOne(ctx context.Context, sym string, bars []market.MinuteBar, quote *market.Quote, now time.Time) *features.StockFeatureSet {
	done := make(chan *features.StockFeatureSet, 1)
	go func() {
		done <- p.engine.ComputeStockFeatures(sym, bars, quote, now)
	}()

	timer := time.NewTimer(p.cfg.SymbolTimeout)
	defer timer.Stop()

	select {
	case fs := <-done:
		return fs
	case <-timer.C:
		p.log.Warn().Str("symbol", sym).Dur("timeout", p.cfg.SymbolTimeout).Msg("feature computation timed out")
	case <-ctx.Done():
	}
	fs := &features.StockFeatureSet{Symbol: sym, Timestamp: now}
	fs.MarkDegraded("feature computation timed out")
	return fs
}

// diffPool compares this cycle's pool against the previous one and records
// membership and action changes.
func (p *Planner) diffPool(candidates []Candidate) []Transition {
	p.mu.Lock()
	defer p.mu.Unlock()

	cur := make(map[string]market.Action, len(candidates))
	for _, c := range candidates {
		cur[c.Symbol] = c.Action
	}

	var out []Transition
	for _, c := range candidates {
		prev, was := p.prevPool[c.Symbol]
		switch {
		case !was:
			out = append(out, Transition{Symbol: c.Symbol, Kind: "ADDED", To: c.Action})
		case c.Action.Rank() > prev.Rank():
			out = append(out, Transition{Symbol: c.Symbol, Kind: "UPGRADED", From: prev, To: c.Action})
		case c.Action.Rank() < prev.Rank():
			out = append(out, Transition{Symbol: c.Symbol, Kind: "DOWNGRADED", From: prev, To: c.Action})
		}
	}
	for sym, prev := range p.prevPool {
		if _, still := cur[sym]; !still {
			out = append(out, Transition{Symbol: sym, Kind: "REMOVED", From: prev})
		}
	}

	p.prevPool = cur
	return out
}

func (p *Planner) finish(result *CycleResult, started time.Time) {
	result.Duration = time.Since(started)

	if p.metrics == nil {
		return
	}
	p.metrics.CycleDuration.WithLabelValues(result.StrategyID).Observe(result.Duration.Seconds())
	p.metrics.LimitUpCount.Set(float64(result.Market.LimitUpCount))
	p.metrics.DownLimitCount.Set(float64(result.Market.DownLimitCount))
	p.metrics.BombRate.Set(result.Market.BombRate)
	p.metrics.SetRiskLight(result.Market.RiskLight)
	if result.Market.HasSentiment {
		p.metrics.SentimentScore.Set(float64(result.Market.SentimentScore))
	}
	p.metrics.DataLagMinutes.Set(float64(p.quality.LagMinutes()))

	counts := map[market.Action]int{}
	degraded := 0
	for _, c := range result.Candidates {
		counts[c.Action]++
		if c.Features != nil && c.Features.Degraded {
			degraded++
		}
	}
	for _, a := range []market.Action{market.ActionAllow, market.ActionWatch, market.ActionBlock} {
		p.metrics.CandidatePool.WithLabelValues(string(a)).Set(float64(counts[a]))
	}
	p.metrics.DegradedSymbols.Set(float64(degraded))
	for _, tr := range result.Transitions {
		p.metrics.Transitions.WithLabelValues(tr.Kind).Inc()
	}
	p.metrics.Alerts.Add(float64(len(result.Alerts)))
}
