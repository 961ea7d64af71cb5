package consolidate

import (
	"context"
	"fmt"
	"time"
)

// Conflict is one detected inconsistency. Detection only: nothing is
// auto-resolved.
type Conflict struct {
	Kind        string `json:"kind"` // "preference" or "entity"
	Description string `json:"description"`
}

// detectContradictions runs both detectors: preference rows for the same
// user and key holding different values with both confidences above the
// threshold, and entities sharing a case-insensitive name across types.
func (c *Consolidator) detectContradictions(ctx context.Context) ([]Conflict, StageStatus) {
	started := time.Now()
	var conflicts []Conflict

	prefPairs, err := c.prefs.ValueConflicts(ctx, c.cfg.ContradictionMinConfidence)
	if err != nil {
		return nil, stageResult(OutcomeError, err.Error(), started)
	}
	for _, pair := range prefPairs {
		conflicts = append(conflicts, Conflict{
			Kind: "preference",
			Description: fmt.Sprintf("user %d key %q: %q (%.2f) vs %q (%.2f)",
				pair[0].UserID, pair[0].Key,
				pair[0].Value, pair[0].Confidence,
				pair[1].Value, pair[1].Confidence),
		})
	}

	entityPairs, err := c.entities.SameNameConflicts(ctx)
	if err != nil {
		return nil, stageResult(OutcomeError, err.Error(), started)
	}
	for _, pair := range entityPairs {
		conflicts = append(conflicts, Conflict{
			Kind: "entity",
			Description: fmt.Sprintf("%q exists as both %s and %s",
				pair[0].Name, pair[0].Type, pair[1].Type),
		})
	}

	return conflicts, stageResult(OutcomeOK, fmt.Sprintf("%d conflicts", len(conflicts)), started)
}
