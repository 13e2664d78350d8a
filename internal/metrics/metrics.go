// Package metrics exposes the engine's operational counters on a dedicated
// Prometheus registry so tests and embedders never collide with the global.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sealrun/sealrun/internal/market"
)

// Collector holds the engine's Prometheus instruments.
type Collector struct {
	registry *prometheus.Registry

	CycleDuration *prometheus.HistogramVec
	CycleErrors   prometheus.Counter

	CandidatePool *prometheus.GaugeVec
	Alerts        prometheus.Counter
	Transitions   *prometheus.CounterVec

	LimitUpCount   prometheus.Gauge
	DownLimitCount prometheus.Gauge
	BombRate       prometheus.Gauge
	RiskLight      *prometheus.GaugeVec
	SentimentScore prometheus.Gauge

	DataLagMinutes   prometheus.Gauge
	DegradedSymbols  prometheus.Gauge
	RiskStops        prometheus.Counter
	TradesRecorded   prometheus.Counter
}

// NewCollector builds and registers all instruments on a fresh registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),

		CycleDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sealrun",
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of one full decision cycle.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"strategy"}),
		CycleErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sealrun",
			Name:      "cycle_errors_total",
			Help:      "Cycles that ended in an error.",
		}),

		CandidatePool: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "sealrun",
			Name:      "candidate_pool_size",
			Help:      "Candidates in the pool by action.",
		}, []string{"action"}),
		Alerts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sealrun",
			Name:      "alerts_total",
			Help:      "Alert cards emitted.",
		}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sealrun",
			Name:      "pool_transitions_total",
			Help:      "Candidate pool transitions by kind.",
		}, []string{"kind"}),

		LimitUpCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sealrun",
			Name:      "limit_up_count",
			Help:      "Symbols sealed at the upper limit this cycle.",
		}),
		DownLimitCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sealrun",
			Name:      "down_limit_count",
			Help:      "Symbols at the lower limit this cycle.",
		}),
		BombRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sealrun",
			Name:      "bomb_rate",
			Help:      "Fraction of touched limits that failed to hold.",
		}),
		RiskLight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "sealrun",
			Name:      "risk_light",
			Help:      "Active market risk light (1 for the active color).",
		}, []string{"color"}),
		SentimentScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sealrun",
			Name:      "sentiment_score",
			Help:      "Composite market sentiment 0-100.",
		}),

		DataLagMinutes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sealrun",
			Name:      "data_lag_minutes",
			Help:      "Staleness of the freshest market data.",
		}),
		DegradedSymbols: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sealrun",
			Name:      "degraded_symbols",
			Help:      "Symbols with degraded feature sets this cycle.",
		}),
		RiskStops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sealrun",
			Name:      "risk_stops_total",
			Help:      "Account-level trading stops triggered.",
		}),
		TradesRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sealrun",
			Name:      "trades_recorded_total",
			Help:      "Closed trades recorded against the risk gate.",
		}),
	}

	c.registry.MustRegister(
		c.CycleDuration, c.CycleErrors,
		c.CandidatePool, c.Alerts, c.Transitions,
		c.LimitUpCount, c.DownLimitCount, c.BombRate, c.RiskLight, c.SentimentScore,
		c.DataLagMinutes, c.DegradedSymbols, c.RiskStops, c.TradesRecorded,
	)
	return c
}

// Registry returns the underlying registry for an HTTP handler or push.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// RiskStopped and TradeClosed satisfy the risk gate's observer hook.
func (c *Collector) RiskStopped() { c.RiskStops.Inc() }
func (c *Collector) TradeClosed() { c.TradesRecorded.Inc() }

// SetRiskLight sets the active light to 1 and the others to 0.
func (c *Collector) SetRiskLight(light market.RiskLight) {
	for _, color := range []market.RiskLight{market.LightGreen, market.LightYellow, market.LightRed} {
		v := 0.0
		if color == light {
			v = 1.0
		}
		c.RiskLight.WithLabelValues(string(color)).Set(v)
	}
}
