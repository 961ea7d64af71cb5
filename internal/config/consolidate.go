package config

import (
	"context"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/recall/pkg/log"
)

type ConsolidateConfig struct {
	Enabled  bool          `env:"CONSOLIDATE_ENABLED" envDefault:"true"`
	Interval time.Duration `env:"CONSOLIDATE_INTERVAL" envDefault:"1h"`

	// Daily reflect must finish inside this budget; exceeding it is a
	// reported failure, not a retry.
	ReflectBudget time.Duration `env:"CONSOLIDATE_REFLECT_BUDGET" envDefault:"5m"`

	ArchiveAfterDays int `env:"CONSOLIDATE_ARCHIVE_AFTER_DAYS" envDefault:"30"`

	// Both sides of a preference conflict must clear this confidence before
	// the pair is reported.
	ContradictionMinConfidence float64 `env:"CONSOLIDATE_CONTRADICTION_MIN_CONFIDENCE" envDefault:"0.4"`

	// Rollups look back this many days when re-deriving entity summaries.
	RollupLookbackDays int `env:"CONSOLIDATE_ROLLUP_LOOKBACK_DAYS" envDefault:"7"`
}

func NewConsolidateConfig(ctx context.Context) *ConsolidateConfig {
	c := &ConsolidateConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Consolidate config")
	}
	return c
}
