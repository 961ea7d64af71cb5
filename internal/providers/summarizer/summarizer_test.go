package summarizer

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/sandevgo/recall/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeuristic_Summarize(t *testing.T) {
	h := NewHeuristic()

	out, err := h.Summarize(context.Background(), "  first line  \n\n second \n")
	require.NoError(t, err)
	assert.Equal(t, "first line\nsecond", out)
}

func TestHeuristic_CapsLines(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&b, "line %d\n", i)
	}

	out, err := NewHeuristic().Summarize(context.Background(), b.String())
	require.NoError(t, err)
	assert.Len(t, strings.Split(out, "\n"), maxHeuristicLines)
}

func TestNewSummarizer(t *testing.T) {
	ctx := context.Background()

	s, err := NewSummarizer(ctx, &config.SummarizerConfig{Provider: "heuristic"})
	require.NoError(t, err)
	assert.IsType(t, &Heuristic{}, s)

	// OpenAI without a key degrades instead of failing startup.
	s, err = NewSummarizer(ctx, &config.SummarizerConfig{Provider: "openai"})
	require.NoError(t, err)
	assert.IsType(t, &Heuristic{}, s)

	s, err = NewSummarizer(ctx, &config.SummarizerConfig{Provider: "openai", OpenAIAPIKey: "sk-test"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAI{}, s)

	_, err = NewSummarizer(ctx, &config.SummarizerConfig{Provider: "markov"})
	assert.Error(t, err)
}
