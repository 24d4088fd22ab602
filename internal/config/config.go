// Package config loads the review tier configuration and CLI settings.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/sprite-ai/triage/internal/model"
	"github.com/sprite-ai/triage/internal/slogutil"
)

// Dir is the per-repository directory holding triage files.
const Dir = ".triage"

// ReviewTierConfig drives tier classification.
type ReviewTierConfig struct {
	CriticalPaths  []string       `yaml:"critical_paths" json:"critical_paths"`
	TierThresholds TierThresholds `yaml:"tier_thresholds" json:"tier_thresholds"`
}

// TierThresholds holds the per-tier limits.
type TierThresholds struct {
	Quick    QuickThreshold    `yaml:"quick" json:"quick"`
	Standard StandardThreshold `yaml:"standard" json:"standard"`
	Full     FullThreshold     `yaml:"full" json:"full"`
}

// QuickThreshold bounds changes eligible for the quick tier.
type QuickThreshold struct {
	MaxFiles     int              `yaml:"max_files" json:"max_files"`
	MaxLines     int              `yaml:"max_lines" json:"max_lines"`
	AllowedTypes []model.FileType `yaml:"allowed_types" json:"allowed_types"`
}

// StandardThreshold bounds changes eligible for the standard tier.
type StandardThreshold struct {
	MaxFiles int `yaml:"max_files" json:"max_files"`
	MaxLines int `yaml:"max_lines" json:"max_lines"`
}

// FullThreshold is the size at which a change always gets the full tier.
type FullThreshold struct {
	MinFiles int `yaml:"min_files" json:"min_files"`
	MinLines int `yaml:"min_lines" json:"min_lines"`
}

// Default returns the built-in configuration.
func Default() ReviewTierConfig {
	return ReviewTierConfig{
		CriticalPaths: []string{
			"src/lib/**",
			"src/commands/**",
			"lib/**",
			"cmd/*/main.go",
			"**/standards.md",
			"**/principles.md",
		},
		TierThresholds: TierThresholds{
			Quick: QuickThreshold{
				MaxFiles:     3,
				MaxLines:     50,
				AllowedTypes: []model.FileType{model.FileTest, model.FileConfig},
			},
			Standard: StandardThreshold{MaxFiles: 10, MaxLines: 200},
			Full:     FullThreshold{MinFiles: 11, MinLines: 201},
		},
	}
}

// Validate checks that every threshold is non-negative.
func (c ReviewTierConfig) Validate() error {
	t := c.TierThresholds
	for name, v := range map[string]int{
		"quick.max_files":    t.Quick.MaxFiles,
		"quick.max_lines":    t.Quick.MaxLines,
		"standard.max_files": t.Standard.MaxFiles,
		"standard.max_lines": t.Standard.MaxLines,
		"full.min_files":     t.Full.MinFiles,
		"full.min_lines":     t.Full.MinLines,
	} {
		if v < 0 {
			return fmt.Errorf("tier_thresholds.%s must not be negative, got %d", name, v)
		}
	}
	return nil
}

// TierConfigPath returns the default tier config location under base.
func TierConfigPath(base string) string {
	return filepath.Join(base, Dir, "review-tiers.yaml")
}

// ProfilesDir returns the default review profile directory under base.
func ProfilesDir(base string) string {
	return filepath.Join(base, Dir, "profiles")
}

// Parse decodes YAML over the defaults, so absent keys keep default values.
func Parse(data []byte) (ReviewTierConfig, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return ReviewTierConfig{}, fmt.Errorf("parsing tier config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return ReviewTierConfig{}, err
	}
	return cfg, nil
}

// Load reads the tier config at path. A missing, unreadable or invalid file
// yields Default() and a warning; the bool reports whether the file was used.
func Load(path string, logger *slog.Logger) (ReviewTierConfig, bool) {
	logger = slogutil.OrDiscard(logger)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn("tier config not found, using defaults", "path", path)
		} else {
			logger.Warn("reading tier config failed, using defaults", "path", path, "error", err)
		}
		return Default(), false
	}

	cfg, err := Parse(data)
	if err != nil {
		logger.Warn("invalid tier config, using defaults", "path", path, "error", err)
		return Default(), false
	}

	logger.Debug("loaded tier config", "path", path, "critical_paths", len(cfg.CriticalPaths))
	return cfg, true
}
