// Command sealrun runs the limit-up decision engine: one snapshot in, a
// ranked candidate pool and alert cards out.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	flagConfig  string
	flagVerbose bool
)

func main() {
	setupLogging()

	root := &cobra.Command{
		Use:     "sealrun",
		Version: "1.0.0",
		Short:   "Intraday limit-up chasing decision engine",
		Long: `sealrun scans A-share market snapshots for limit-up seal, open and
reseal events, scores candidates against the market regime and theme
strength, and emits gated trading signals with execution plans.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagVerbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}

	root.PersistentFlags().StringVarP(&flagConfig, "config", "c", "configs/app.yaml", "config file path")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	root.AddCommand(newScanCmd())
	root.AddCommand(newStrategiesCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogging() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	zerolog.TimeFieldFormat = time.RFC3339

	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	}
}
