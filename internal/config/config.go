// Package config loads the application configuration from YAML, with
// defaults that run a full cycle out of the box.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sealrun/sealrun/internal/features"
	"github.com/sealrun/sealrun/internal/planner"
	"github.com/sealrun/sealrun/internal/quality"
	"github.com/sealrun/sealrun/internal/risk"
)

// Config is the root application configuration.
type Config struct {
	LogLevel string `yaml:"log_level"`

	Data struct {
		SnapshotPath string        `yaml:"snapshot_path"`
		ThemesPath   string        `yaml:"themes_path"`
		Interval     time.Duration `yaml:"refresh_interval"`
	} `yaml:"data"`

	StrategyDir    string `yaml:"strategy_dir"`
	ActiveStrategy string `yaml:"active_strategy"`

	UserThemes []string `yaml:"user_themes"`

	Detector features.DetectorConfig `yaml:"detector"`
	Planner  planner.Config          `yaml:"planner"`
	Quality  quality.Config          `yaml:"quality"`
	Risk     risk.Params             `yaml:"risk"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Addr    string `yaml:"addr"`
	} `yaml:"metrics"`
}

// Default returns a configuration that runs without a config file.
func Default() Config {
	var cfg Config
	cfg.LogLevel = "info"
	cfg.Data.SnapshotPath = "snapshot.json"
	cfg.Data.ThemesPath = "themes.json"
	cfg.Data.Interval = time.Minute
	cfg.StrategyDir = "configs/strategies"
	cfg.ActiveStrategy = "reseal_v1"
	cfg.Detector = features.DefaultDetectorConfig()
	cfg.Planner = planner.DefaultConfig()
	cfg.Quality = quality.DefaultConfig()
	cfg.Risk = risk.DefaultParams()
	cfg.Metrics.Addr = ":9109"
	return cfg
}

// Load reads a YAML file over the defaults. A missing file is not an
// error; the defaults apply.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
