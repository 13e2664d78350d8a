package main

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sealrun/sealrun/internal/config"
	"github.com/sealrun/sealrun/internal/strategy"
)

// buildRegistry loads rule sets from the strategy directory, then fills in
// any built-in not overridden by a file.
func buildRegistry(cfg config.Config, logger zerolog.Logger) (*strategy.Registry, error) {
	reg := strategy.NewRegistry(logger)

	if _, err := strategy.LoadDir(cfg.StrategyDir, reg, logger); err != nil {
		log.Warn().Err(err).Msg("strategy dir not loaded")
	}

	for _, sc := range strategy.DefaultConfigs() {
		if _, err := reg.Get(sc.ID); err == nil {
			continue
		}
		rs, err := strategy.NewRuleSet(sc, logger)
		if err != nil {
			return nil, err
		}
		if err := reg.Register(rs); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
