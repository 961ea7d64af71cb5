package summarizer

import (
	"context"
	"fmt"

	"github.com/sandevgo/recall/internal/config"
	"github.com/sandevgo/recall/internal/core"
	"github.com/sandevgo/recall/pkg/log"
)

// NewSummarizer creates the text-synthesis collaborator the consolidation
// pipeline injects. Falls back to the heuristic implementation when the
// configured provider cannot run.
func NewSummarizer(ctx context.Context, cfg *config.SummarizerConfig) (core.Summarizer, error) {
	logger := log.FromCtx(ctx)

	switch cfg.Provider {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			logger.Warn().Msg("no OpenAI API key, using heuristic summarizer")
			return NewHeuristic(), nil
		}
		logger.Info().Str("model", cfg.Model).Msg("starting openai summarizer")
		return NewOpenAI(cfg.OpenAIAPIKey, cfg.Model, cfg.MaxPromptTokens), nil
	case "heuristic":
		return NewHeuristic(), nil
	default:
		return nil, fmt.Errorf("unknown summarizer provider: %s", cfg.Provider)
	}
}
