package config

import (
	"context"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/recall/pkg/log"
)

type SearchConfig struct {
	// Reciprocal Rank Fusion parameters.
	RRFK          int     `env:"SEARCH_RRF_K" envDefault:"60"`
	KeywordWeight float64 `env:"SEARCH_KEYWORD_WEIGHT" envDefault:"0.5"`
	VectorWeight  float64 `env:"SEARCH_VECTOR_WEIGHT" envDefault:"0.5"`

	DefaultLimit int `env:"SEARCH_DEFAULT_LIMIT" envDefault:"10"`

	// Vector hits below this cosine similarity are dropped before fusion.
	SimilarityThreshold float32 `env:"VECTOR_SIMILARITY_THRESHOLD" envDefault:"0.3"`

	// Recall latency above this is logged as a budget miss, not failed.
	SoftBudget time.Duration `env:"SEARCH_SOFT_BUDGET" envDefault:"100ms"`

	// The vector sub-search carries its own timeout so a slow backend never
	// stalls the keyword path.
	VectorTimeout time.Duration `env:"SEARCH_VECTOR_TIMEOUT" envDefault:"2s"`
}

func NewSearchConfig(ctx context.Context) *SearchConfig {
	c := &SearchConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Search config")
	}
	return c
}
