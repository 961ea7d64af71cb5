package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/recall/pkg/log"
)

type SummarizerConfig struct {
	// "openai" or "heuristic". The heuristic summarizer is deterministic and
	// needs no credentials.
	Provider string `env:"SUMMARIZER_PROVIDER" envDefault:"heuristic"`

	OpenAIAPIKey string `env:"OPENAI_API_KEY"`
	Model        string `env:"SUMMARIZER_MODEL" envDefault:"gpt-4o-mini"`

	// Prompts are truncated to this many tokens before the call.
	MaxPromptTokens int `env:"SUMMARIZER_MAX_PROMPT_TOKENS" envDefault:"6000"`
}

func NewSummarizerConfig(ctx context.Context) *SummarizerConfig {
	c := &SummarizerConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Summarizer config")
	}
	return c
}
