package summarizer

import (
	"context"
	"strings"
)

const maxHeuristicLines = 12

// Heuristic is a deterministic rule-based summarizer: it keeps the leading
// lines of the input verbatim. Used when no LLM is configured and in tests.
type Heuristic struct{}

func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

func (h *Heuristic) Summarize(_ context.Context, text string) (string, error) {
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		kept = append(kept, line)
		if len(kept) == maxHeuristicLines {
			break
		}
	}
	return strings.Join(kept, "\n"), nil
}
