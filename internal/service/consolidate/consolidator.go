package consolidate

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sandevgo/recall/internal/config"
	"github.com/sandevgo/recall/internal/core"
	"github.com/sandevgo/recall/pkg/log"
)

// Consolidator is the scheduled background pipeline: daily reflection,
// rollups, weekly pattern mining, contradiction detection and archival.
// It runs as a singleton; a tick arriving while a run is in flight is
// dropped. Failures are recorded in the status file and never crash the
// scheduler.
type Consolidator struct {
	cfg        *config.ConsolidateConfig
	facts      core.FactRepository
	entities   core.EntityRepository
	prefs      core.PreferenceRepository
	memory     core.Memory
	summarizer core.Summarizer
	vector     core.VectorIndex

	knowledgePath string
	reportsDir    string
	archiveDir    string
	statusPath    string

	running sync.Mutex
}

func NewConsolidator(
	cfg *config.ConsolidateConfig,
	facts core.FactRepository,
	entities core.EntityRepository,
	prefs core.PreferenceRepository,
	mem core.Memory,
	summarizer core.Summarizer,
	vector core.VectorIndex,
	knowledgePath, reportsDir, archiveDir, statusPath string,
) *Consolidator {
	return &Consolidator{
		cfg:           cfg,
		facts:         facts,
		entities:      entities,
		prefs:         prefs,
		memory:        mem,
		summarizer:    summarizer,
		vector:        vector,
		knowledgePath: knowledgePath,
		reportsDir:    reportsDir,
		archiveDir:    archiveDir,
		statusPath:    statusPath,
	}
}

func (c *Consolidator) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)
	logger.Info().Dur("interval", c.cfg.Interval).Msg("starting consolidation pipeline")

	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := c.RunOnce(ctx, time.Now()); err != nil {
				logger.Error().Err(err).Msg("consolidation run failed")
			}
		}
	}
}

func (c *Consolidator) Shutdown(ctx context.Context) error {
	return nil
}

// RunOnce executes all due stages. A run already in progress makes this a
// no-op; the pipeline is eventual, skipping under load is safe.
func (c *Consolidator) RunOnce(ctx context.Context, now time.Time) error {
	if !c.running.TryLock() {
		log.FromCtx(ctx).Debug().Msg("consolidation already running, skipping tick")
		return nil
	}
	defer c.running.Unlock()

	logger := log.FromCtx(ctx)

	status, err := loadStatus(c.statusPath)
	if err != nil {
		return err
	}

	status.RunID = uuid.NewString()
	status.StartedAt = now.UTC()
	status.Stages = map[string]StageStatus{}

	yesterday := now.UTC().AddDate(0, 0, -1).Format("2006-01-02")
	if status.LastReflectDate != yesterday {
		stage := c.dailyReflect(ctx, now)
		status.Stages["daily_reflect"] = stage
		if stage.Outcome != OutcomeError {
			status.LastReflectDate = yesterday
		}
	}

	status.Stages["rollups"] = c.rollups(ctx, now)

	weekStart, _ := lastCompletedWeek(now)
	if status.LastWeekStart != weekStart.Format("2006-01-02") {
		stage := c.weeklyPatterns(ctx, now)
		status.Stages["weekly_patterns"] = stage
		if stage.Outcome != OutcomeError {
			status.LastWeekStart = weekStart.Format("2006-01-02")
		}
	}

	conflicts, stage := c.detectContradictions(ctx)
	status.Stages["contradictions"] = stage
	for _, conflict := range conflicts {
		logger.Warn().
			Str("kind", conflict.Kind).
			Str("conflict", conflict.Description).
			Msg("contradiction detected")
	}

	status.Stages["archival"] = c.archiveStale(ctx, now)

	status.FinishedAt = time.Now().UTC()
	status.Outcome = overallOutcome(status.Stages)

	if err := saveStatus(c.statusPath, status); err != nil {
		return err
	}

	logger.Info().
		Str("run_id", status.RunID).
		Str("outcome", status.Outcome).
		Msg("consolidation run finished")
	return nil
}

// Conflicts exposes the contradiction detectors outside the scheduled loop.
func (c *Consolidator) Conflicts(ctx context.Context) ([]Conflict, error) {
	conflicts, stage := c.detectContradictions(ctx)
	if stage.Outcome == OutcomeError {
		return nil, &core.StorageError{Op: "detect contradictions", Err: errDetail(stage.Detail)}
	}
	return conflicts, nil
}

func overallOutcome(stages map[string]StageStatus) string {
	outcome := OutcomeSkipped
	for _, s := range stages {
		switch s.Outcome {
		case OutcomeError:
			return OutcomeError
		case OutcomeOK:
			outcome = OutcomeOK
		}
	}
	return outcome
}

type errDetail string

func (e errDetail) Error() string { return string(e) }
