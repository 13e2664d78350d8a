package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sealrun/sealrun/internal/calendar"
	"github.com/sealrun/sealrun/internal/config"
	"github.com/sealrun/sealrun/internal/features"
	"github.com/sealrun/sealrun/internal/feeds"
	"github.com/sealrun/sealrun/internal/metrics"
	"github.com/sealrun/sealrun/internal/planner"
	"github.com/sealrun/sealrun/internal/quality"
	"github.com/sealrun/sealrun/internal/regime"
	"github.com/sealrun/sealrun/internal/risk"
	"github.com/sealrun/sealrun/internal/themes"
)

func newScanCmd() *cobra.Command {
	var (
		flagSnapshot string
		flagStrategy string
		flagWatch    bool
		flagTop      int
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run decision cycles over market snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flagConfig)
			if err != nil {
				return err
			}
			if flagSnapshot != "" {
				cfg.Data.SnapshotPath = flagSnapshot
			}
			if flagStrategy != "" {
				cfg.ActiveStrategy = flagStrategy
			}
			return runScan(cmd.Context(), cfg, flagWatch, flagTop)
		},
	}

	cmd.Flags().StringVar(&flagSnapshot, "snapshot", "", "snapshot file (overrides config)")
	cmd.Flags().StringVar(&flagStrategy, "strategy", "", "active strategy id (overrides config)")
	cmd.Flags().BoolVar(&flagWatch, "watch", false, "keep cycling at the refresh interval")
	cmd.Flags().IntVar(&flagTop, "top", 10, "candidates to print per cycle")
	return cmd
}

func runScan(ctx context.Context, cfg config.Config, watch bool, top int) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cal, err := calendar.New()
	if err != nil {
		return err
	}

	logger := log.Logger

	reg, err := buildRegistry(cfg, logger)
	if err != nil {
		return err
	}
	if err := reg.SetActive(cfg.ActiveStrategy); err != nil {
		return fmt.Errorf("activate strategy: %w", err)
	}

	tracker := themes.NewTracker(nil, logger)
	tracker.SetUserThemes(cfg.UserThemes)
	if membership, err := feeds.NewFileThemeSource(cfg.Data.ThemesPath).Membership(ctx); err != nil {
		log.Warn().Err(err).Msg("theme membership not loaded")
	} else {
		tracker.SetMembership(membership)
	}

	collector := metrics.NewCollector()
	if cfg.Metrics.Enabled {
		go serveMetrics(cfg.Metrics.Addr, collector)
	}

	riskGate := risk.NewGate(cfg.Risk, cal.TradeDate(), logger)
	riskGate.SetObserver(collector)

	p := planner.New(
		cfg.Planner,
		features.NewEngine(features.NewLimitEventDetector(cfg.Detector), logger),
		regime.NewClassifier(logger),
		regime.NewSentimentAnalyzer(logger),
		tracker,
		reg,
		riskGate,
		quality.NewGate(cfg.Quality, cal, logger),
		collector,
		logger,
	)

	source := feeds.NewFileSource(cfg.Data.SnapshotPath)

	for {
		snap, err := source.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			collector.CycleErrors.Inc()
			log.Error().Err(err).Msg("snapshot fetch failed")
		} else {
			printCycle(p.RunCycle(ctx, snap), top)
		}

		if !watch {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(cfg.Data.Interval):
		}
	}
}

func printCycle(result *planner.CycleResult, top int) {
	fmt.Printf("\n=== %s  strategy=%s  (%s)\n",
		result.Timestamp.Format("15:04:05"), result.StrategyID, result.Duration.Round(time.Millisecond))
	fmt.Println(result.Regime.Summary)
	if result.Sentiment != nil {
		fmt.Printf("sentiment %d (%s, %s)\n",
			result.Sentiment.Score, result.Sentiment.Grade, result.Sentiment.GradeText)
	}

	if len(result.Candidates) == 0 {
		fmt.Println("no candidates")
		return
	}
	shown := result.Candidates
	if top > 0 && len(shown) > top {
		shown = shown[:top]
	}
	for i, c := range shown {
		fmt.Printf("%2d. %-8s %-6s score=%5.1f", i+1, c.Symbol, c.Action, c.Score.Total)
		if c.Plan != nil {
			fmt.Printf("  pos<=%.0f%%", c.Plan.MaxPosition*100)
		}
		fmt.Println()
	}
	for _, a := range result.Alerts {
		fmt.Printf("ALERT %s\n", a.Headline)
	}
}

func serveMetrics(addr string, collector *metrics.Collector) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(collector.Registry(), promhttp.HandlerOpts{}))
	log.Info().Str("addr", addr).Msg("metrics listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error().Err(err).Msg("metrics server stopped")
	}
}
