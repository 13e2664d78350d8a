package strategy

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// LoadConfig reads one rule set from a YAML file and validates it.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read strategy config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse strategy config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate strategy config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadDir registers every enabled *.yaml rule set under dir. A file that
// fails to parse or validate is skipped with a warning; it must not take
// down the strategies that loaded cleanly.
func LoadDir(dir string, reg *Registry, log zerolog.Logger) (int, error) {
	entries, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return 0, fmt.Errorf("scan strategy dir: %w", err)
	}
	sort.Strings(entries)

	loaded := 0
	for _, path := range entries {
		cfg, err := LoadConfig(path)
		if err != nil {
			log.Warn().Err(err).Str("file", path).Msg("strategy config skipped")
			continue
		}
		if !cfg.Enabled {
			log.Debug().Str("strategy", cfg.ID).Msg("strategy disabled, skipped")
			continue
		}
		rs, err := NewRuleSet(cfg, log)
		if err != nil {
			log.Warn().Err(err).Str("file", path).Msg("strategy config skipped")
			continue
		}
		if err := reg.Register(rs); err != nil {
			log.Warn().Err(err).Str("file", path).Msg("strategy config skipped")
			continue
		}
		loaded++
	}
	return loaded, nil
}
