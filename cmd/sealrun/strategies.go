package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sealrun/sealrun/internal/config"
	"github.com/sealrun/sealrun/internal/strategy"
)

func newStrategiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "strategies",
		Short: "List the registered rule sets",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flagConfig)
			if err != nil {
				return err
			}

			reg, err := buildRegistry(cfg, log.Logger)
			if err != nil {
				return err
			}
			activateConfigured(reg, cfg.ActiveStrategy, log.Logger)

			for _, s := range reg.Summaries() {
				marker := " "
				if s.Active {
					marker = "*"
				}
				fmt.Printf("%s %-24s %-20s v%s\n", marker, s.ID, s.Name, s.Version)
			}
			return nil
		},
	}
}

// activateConfigured switches the registry to the configured rule set. A
// typo in active_strategy keeps the default active and warns instead of
// failing the listing.
func activateConfigured(reg *strategy.Registry, id string, logger zerolog.Logger) {
	if err := reg.SetActive(id); err != nil {
		logger.Warn().Err(err).Str("strategy", id).Msg("configured strategy not activated")
	}
}
