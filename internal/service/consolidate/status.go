package consolidate

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// Run outcomes recorded in the status file.
const (
	OutcomeOK      = "ok"
	OutcomeSkipped = "skipped"
	OutcomeError   = "error"
)

// StageStatus records one pipeline stage of the latest run.
type StageStatus struct {
	Outcome   string `json:"outcome"`
	Detail    string `json:"detail,omitempty"`
	ElapsedMS int64  `json:"elapsed_ms"`
}

// Status is the only persistent state the pipeline keeps between runs: the
// metadata of the last run plus high-water marks for the daily and weekly
// stages.
type Status struct {
	RunID      string                 `json:"run_id"`
	StartedAt  time.Time              `json:"started_at"`
	FinishedAt time.Time              `json:"finished_at"`
	Outcome    string                 `json:"outcome"`
	Stages     map[string]StageStatus `json:"stages"`

	// Dates (UTC, 2006-01-02) of the last day reflected and the Monday of
	// the last week reported.
	LastReflectDate string `json:"last_reflect_date,omitempty"`
	LastWeekStart   string `json:"last_week_start,omitempty"`
}

func loadStatus(path string) (Status, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Status{Stages: map[string]StageStatus{}}, nil
	}
	if err != nil {
		return Status{}, fmt.Errorf("read status file: %w", err)
	}

	var s Status
	if err := json.Unmarshal(data, &s); err != nil {
		return Status{}, fmt.Errorf("parse status file: %w", err)
	}
	if s.Stages == nil {
		s.Stages = map[string]StageStatus{}
	}
	return s, nil
}

func saveStatus(path string, s Status) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}

	// Write-then-rename keeps the file readable if the process dies mid-save.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write status file: %w", err)
	}
	return os.Rename(tmp, path)
}
