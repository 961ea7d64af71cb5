package consolidate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sandevgo/recall/internal/core"
)

// archiveStale moves facts past the retention threshold into the archived
// state, dropping them from the hot keyword index (triggers keep the FTS
// table in sync) while mirroring them into month-bucketed documents. They
// stay retrievable via explicit archive queries.
func (c *Consolidator) archiveStale(ctx context.Context, now time.Time) StageStatus {
	started := time.Now()
	cutoff := now.UTC().AddDate(0, 0, -c.cfg.ArchiveAfterDays)

	archived, err := c.facts.ArchiveOlderThan(ctx, cutoff)
	if err != nil {
		return stageResult(OutcomeError, err.Error(), started)
	}
	if len(archived) == 0 {
		return stageResult(OutcomeSkipped, "nothing past retention", started)
	}

	if err := c.writeArchiveBuckets(archived); err != nil {
		return stageResult(OutcomeError, err.Error(), started)
	}

	if c.vector != nil && c.vector.IsAvailable(ctx) {
		for _, f := range archived {
			// Best-effort: an unreachable backend only leaves stale vectors.
			_ = c.vector.Delete(ctx, f.ID)
		}
	}

	return stageResult(OutcomeOK, fmt.Sprintf("%d facts archived", len(archived)), started)
}

func (c *Consolidator) writeArchiveBuckets(facts []core.Fact) error {
	if err := os.MkdirAll(c.archiveDir, 0755); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}

	buckets := make(map[string][]core.Fact)
	for _, f := range facts {
		buckets[f.Timestamp.UTC().Format("2006-01")] = append(buckets[f.Timestamp.UTC().Format("2006-01")], f)
	}

	for month, group := range buckets {
		path := filepath.Join(c.archiveDir, month+".md")
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("open archive bucket: %w", err)
		}
		for _, fact := range group {
			source := string(fact.Source)
			if source == "" {
				source = "unknown"
			}
			fmt.Fprintf(f, "- [%s] [%s] %s\n",
				fact.Timestamp.UTC().Format("2006-01-02 15:04:05"), source, fact.Content)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close archive bucket: %w", err)
		}
	}
	return nil
}
