package strategy

import (
	"github.com/sealrun/sealrun/internal/market"
	"github.com/sealrun/sealrun/internal/risk"
)

// DefaultResealV1 chases confirmed reseals: a board that opened, proved
// demand by resealing fast, and held. Tolerates YELLOW environments at a
// scoring discount.
func DefaultResealV1() Config {
	return Config{
		ID:      "reseal_v1",
		Name:    "Reseal Chase",
		Version: "1.0.0",
		Enabled: true,

		MarketGate: MarketGate{
			AllowRiskLights: []market.RiskLight{market.LightGreen, market.LightYellow},
			MaxBombRate:     0.30,
		},

		StockFilter: StockFilter{
			MinAmount:         80_000_000,
			MinLiquidityScore: 0.60,
			MaxOpenCount:      3,
			EventCondition:    RequireTouch,
		},

		Scoring: Scoring{
			WMarket:  0.35,
			WTheme:   0.25,
			WStock:   0.25,
			WQuality: 0.15,

			YellowFactor: 0.75,
			RedFactor:    0.50,

			Market: MarketBands{
				LimitUpCount: WeightedBands{Weight: 0.40, Bands: Bands{
					{Min: 0, Max: 20, Score: 20},
					{Min: 20, Max: 40, Score: 60},
					{Min: 40, Max: 999, Score: 85},
				}},
				BombRate: WeightedBands{Weight: 0.35, Bands: Bands{
					{Min: 0.40, Max: 1, Score: 10},
					{Min: 0.25, Max: 0.40, Score: 50},
					{Min: 0, Max: 0.25, Score: 80},
				}},
				DownLimitCount: WeightedBands{Weight: 0.25, Bands: Bands{
					{Min: 15, Max: 999, Score: 10},
					{Min: 5, Max: 15, Score: 50},
					{Min: 0, Max: 5, Score: 80},
				}},
			},

			Stock: StockBands{
				Slope: WeightedBands{Weight: 0.35, Bands: Bands{
					{Min: 0, Max: 0.10, Score: 10},
					{Min: 0.10, Max: 0.30, Score: 50},
					{Min: 0.30, Max: 999, Score: 80},
				}},
				Pullback: WeightedBands{Weight: 0.35, Bands: Bands{
					{Min: 0.25, Max: 1, Score: 10},
					{Min: 0.12, Max: 0.25, Score: 50},
					{Min: 0, Max: 0.12, Score: 80},
				}},
				VolRatio: WeightedBands{Weight: 0.30, Bands: Bands{
					{Min: 0, Max: 1.2, Score: 20},
					{Min: 1.2, Max: 2, Score: 60},
					{Min: 2, Max: 100, Score: 85},
				}},
			},

			Quality: QualityBands{
				ResealSpeed: WeightedBands{Weight: 0.40, Bands: Bands{
					{Min: 0, Max: 30, Score: 85},
					{Min: 30, Max: 60, Score: 70},
					{Min: 60, Max: 120, Score: 40},
					{Min: 120, Max: 9999, Score: 10},
				}},
				Stability: WeightedBands{Weight: 0.35, Bands: Bands{
					{Min: 3, Max: 999, Score: 85},
					{Min: 1, Max: 3, Score: 60},
					{Min: 0, Max: 1, Score: 20},
				}},
				OpenCount: WeightedBands{Weight: 0.25, Bands: Bands{
					{Min: 0, Max: 1, Score: 85},
					{Min: 1, Max: 2, Score: 70},
					{Min: 2, Max: 3, Score: 50},
					{Min: 3, Max: 999, Score: 20},
				}},
				NoResealScore: 0,
			},

			Penalty: Penalties{
				Degraded:       15,
				AmtHardFloor:   50_000_000,
				AmtHardPenalty: 20,
				AmtSoftFloor:   80_000_000,
				AmtSoftPenalty: 10,
				RedLight:       30,
				YellowLight:    10,
				Cap:            30,
			},
		},

		Trigger: Trigger{
			EventMode:          EventModeReseal,
			ResealWindowSec:    60,
			MinStableMin:       1,
			MinVolRatio:        1.2,
			MinSlope:           0.25,
			MaxPullback:        0.18,
			WatchRequiresEvent: false,
		},

		Plan: PlanConfig{
			MaxPosGreen:   0.15,
			MaxPosYellow:  0.10,
			MaxPosRed:     0,
			FailWindowSec: 30,
			EntryNote:     "enter on confirmed reseal, never chase a straight-line spike",
			ExitRules: []string{
				"exit immediately if the board opens again after entry",
				"exit if not sealed within the fail window",
				"exit on market risk light turning RED",
				"take profit into the next morning's strength",
			},
		},

		Risk: risk.DefaultParams(),
	}
}

// DefaultFirstSealGuardV1 buys first boards that seal and hold. Much
// stricter: GREEN environments only, one open tolerated, and WATCH itself
// requires the seal.
func DefaultFirstSealGuardV1() Config {
	return Config{
		ID:      "firstseal_guard_v1",
		Name:    "First Seal Guard",
		Version: "1.0.0",
		Enabled: true,

		MarketGate: MarketGate{
			AllowRiskLights: []market.RiskLight{market.LightGreen},
			MaxBombRate:     0.25,
		},

		StockFilter: StockFilter{
			MinAmount:         120_000_000,
			MinLiquidityScore: 0.70,
			MaxOpenCount:      1,
			EventCondition:    RequireSealOrNear,
		},

		Scoring: Scoring{
			WMarket:  0.40,
			WTheme:   0.20,
			WStock:   0.25,
			WQuality: 0.15,

			YellowFactor: 0.60,
			RedFactor:    0.30,

			Market: MarketBands{
				LimitUpCount: WeightedBands{Weight: 0.40, Bands: Bands{
					{Min: 0, Max: 25, Score: 20},
					{Min: 25, Max: 50, Score: 65},
					{Min: 50, Max: 999, Score: 90},
				}},
				BombRate: WeightedBands{Weight: 0.35, Bands: Bands{
					{Min: 0.35, Max: 1, Score: 5},
					{Min: 0.20, Max: 0.35, Score: 45},
					{Min: 0, Max: 0.20, Score: 85},
				}},
				DownLimitCount: WeightedBands{Weight: 0.25, Bands: Bands{
					{Min: 10, Max: 999, Score: 5},
					{Min: 3, Max: 10, Score: 45},
					{Min: 0, Max: 3, Score: 85},
				}},
			},

			Stock: StockBands{
				Slope: WeightedBands{Weight: 0.35, Bands: Bands{
					{Min: 0, Max: 0.15, Score: 10},
					{Min: 0.15, Max: 0.35, Score: 55},
					{Min: 0.35, Max: 999, Score: 85},
				}},
				Pullback: WeightedBands{Weight: 0.35, Bands: Bands{
					{Min: 0.20, Max: 1, Score: 5},
					{Min: 0.08, Max: 0.20, Score: 45},
					{Min: 0, Max: 0.08, Score: 85},
				}},
				VolRatio: WeightedBands{Weight: 0.30, Bands: Bands{
					{Min: 0, Max: 1.5, Score: 15},
					{Min: 1.5, Max: 2.5, Score: 55},
					{Min: 2.5, Max: 100, Score: 90},
				}},
			},

			Quality: QualityBands{
				ResealSpeed: WeightedBands{Weight: 0.40, Bands: Bands{
					{Min: 0, Max: 20, Score: 90},
					{Min: 20, Max: 45, Score: 75},
					{Min: 45, Max: 90, Score: 35},
					{Min: 90, Max: 9999, Score: 5},
				}},
				Stability: WeightedBands{Weight: 0.35, Bands: Bands{
					{Min: 5, Max: 999, Score: 90},
					{Min: 2, Max: 5, Score: 65},
					{Min: 0, Max: 2, Score: 15},
				}},
				OpenCount: WeightedBands{Weight: 0.25, Bands: Bands{
					{Min: 0, Max: 1, Score: 90},
					{Min: 1, Max: 2, Score: 50},
					{Min: 2, Max: 999, Score: 10},
				}},
				// A first board that never opened is exactly what this rule
				// set wants; reward, don't zero.
				NoResealScore: 80,
			},

			Penalty: Penalties{
				Degraded:       20,
				AmtHardFloor:   80_000_000,
				AmtHardPenalty: 25,
				AmtSoftFloor:   120_000_000,
				AmtSoftPenalty: 15,
				RedLight:       30,
				YellowLight:    15,
				Cap:            30,
			},
		},

		Trigger: Trigger{
			EventMode:          EventModeFirstSeal,
			MaxOpenCount:       1,
			MinVolRatio:        1.8,
			MinSlope:           0.20,
			MaxPullback:        0.12,
			WatchRequiresEvent: true,
		},

		Plan: PlanConfig{
			MaxPosGreen:   0.10,
			MaxPosYellow:  0.05,
			MaxPosRed:     0,
			FailWindowSec: 20,
			EntryNote:     "enter only while the first board holds sealed on shrinking sell pressure",
			ExitRules: []string{
				"exit immediately on any open after entry",
				"exit if the seal fails within the fail window",
				"exit on market risk light leaving GREEN",
			},
		},

		Risk: risk.Params{
			StopAfterConsecutiveLosses: 2,
			DailyMaxDrawdown:           0.02,
			MaxTotalPosition:           0.40,
			MaxDailyTrades:             5,
		},
	}
}

// DefaultConfigs lists the built-in rule sets.
func DefaultConfigs() []Config {
	return []Config{DefaultResealV1(), DefaultFirstSealGuardV1()}
}
