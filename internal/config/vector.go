package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/recall/pkg/log"
)

type VectorConfig struct {
	Enabled bool `env:"VECTOR_ENABLED" envDefault:"true"`

	// Embeddings are computed by the adapter, not the engine core.
	OpenAIAPIKey   string `env:"OPENAI_API_KEY"`
	EmbeddingModel string `env:"VECTOR_EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
}

func NewVectorConfig(ctx context.Context) *VectorConfig {
	c := &VectorConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Vector config")
	}
	return c
}
