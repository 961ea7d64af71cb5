package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sandevgo/recall/internal/core"
)

// Confidence evolution: start neutral, climb slowly on agreement, fall
// faster on contradiction, always clamped.
const (
	prefStartConfidence = 0.5
	prefConfirmStep     = 0.10
	prefContradictStep  = 0.15
	prefMinConfidence   = 0.10
	prefMaxConfidence   = 0.95
)

type PreferenceRepo struct {
	db *sql.DB
}

func NewPreferenceRepo(db *sql.DB) *PreferenceRepo {
	return &PreferenceRepo{db: db}
}

// Upsert records one piece of evidence. The stored value is last-write-wins;
// confidence tracks the agreement history.
func (r *PreferenceRepo) Upsert(ctx context.Context, userID int64, category, key, value string, confirmed bool) (core.Preference, error) {
	if category == "" {
		category = "general"
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Preference{}, &core.StorageError{Op: "upsert preference", Err: err}
	}
	defer tx.Rollback()

	var p core.Preference
	err = tx.QueryRowContext(ctx,
		`SELECT id, confidence, evidence_count FROM preferences
		 WHERE user_id = ? AND category = ? AND key = ?`,
		userID, category, key,
	).Scan(&p.ID, &p.Confidence, &p.EvidenceCount)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		res, err := tx.ExecContext(ctx,
			`INSERT INTO preferences (user_id, category, key, value, confidence, evidence_count)
			 VALUES (?, ?, ?, ?, ?, 1)`,
			userID, category, key, value, prefStartConfidence,
		)
		if err != nil {
			return core.Preference{}, &core.StorageError{Op: "upsert preference", Err: err}
		}
		p.ID, err = res.LastInsertId()
		if err != nil {
			return core.Preference{}, &core.StorageError{Op: "upsert preference", Err: err}
		}
		p.Confidence = prefStartConfidence
		p.EvidenceCount = 1

	case err != nil:
		return core.Preference{}, &core.StorageError{Op: "upsert preference", Err: err}

	default:
		if confirmed {
			p.Confidence = min(prefMaxConfidence, p.Confidence+prefConfirmStep)
		} else {
			p.Confidence = max(prefMinConfidence, p.Confidence-prefContradictStep)
		}
		p.EvidenceCount++

		_, err = tx.ExecContext(ctx,
			`UPDATE preferences
			 SET value = ?, confidence = ?, evidence_count = ?, updated_at = CURRENT_TIMESTAMP
			 WHERE id = ?`,
			value, p.Confidence, p.EvidenceCount, p.ID,
		)
		if err != nil {
			return core.Preference{}, &core.StorageError{Op: "upsert preference", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return core.Preference{}, &core.StorageError{Op: "upsert preference", Err: err}
	}

	p.UserID = userID
	p.Category = category
	p.Key = key
	p.Value = value
	p.UpdatedAt = time.Now().UTC()
	return p, nil
}

func (r *PreferenceRepo) ListForUser(ctx context.Context, userID int64) ([]core.Preference, error) {
	return r.list(ctx,
		`SELECT id, user_id, category, key, value, confidence, evidence_count, updated_at
		 FROM preferences WHERE user_id = ? ORDER BY category, key`, userID)
}

func (r *PreferenceRepo) All(ctx context.Context) ([]core.Preference, error) {
	return r.list(ctx,
		`SELECT id, user_id, category, key, value, confidence, evidence_count, updated_at
		 FROM preferences ORDER BY user_id, category, key`)
}

func (r *PreferenceRepo) list(ctx context.Context, query string, args ...any) ([]core.Preference, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &core.StorageError{Op: "list preferences", Err: err}
	}
	defer rows.Close()

	var prefs []core.Preference
	for rows.Next() {
		var p core.Preference
		if err := rows.Scan(&p.ID, &p.UserID, &p.Category, &p.Key, &p.Value, &p.Confidence, &p.EvidenceCount, &p.UpdatedAt); err != nil {
			return nil, &core.StorageError{Op: "list preferences", Err: err}
		}
		prefs = append(prefs, p)
	}
	return prefs, rows.Err()
}

// ValueConflicts reports preference pairs for the same user and key holding
// different values while both confidences clear the threshold. Rows in the
// same category cannot coexist (unique index), so conflicts surface across
// categories.
func (r *PreferenceRepo) ValueConflicts(ctx context.Context, minConfidence float64) ([][2]core.Preference, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.id, a.user_id, a.category, a.key, a.value, a.confidence, a.evidence_count, a.updated_at,
		       b.id, b.user_id, b.category, b.key, b.value, b.confidence, b.evidence_count, b.updated_at
		FROM preferences a
		JOIN preferences b
		  ON a.user_id = b.user_id
		 AND a.key = b.key
		 AND a.value != b.value
		 AND a.id < b.id
		WHERE a.confidence > ? AND b.confidence > ?`,
		minConfidence, minConfidence)
	if err != nil {
		return nil, &core.StorageError{Op: "preference conflicts", Err: err}
	}
	defer rows.Close()

	var pairs [][2]core.Preference
	for rows.Next() {
		var a, b core.Preference
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.Category, &a.Key, &a.Value, &a.Confidence, &a.EvidenceCount, &a.UpdatedAt,
			&b.ID, &b.UserID, &b.Category, &b.Key, &b.Value, &b.Confidence, &b.EvidenceCount, &b.UpdatedAt,
		); err != nil {
			return nil, &core.StorageError{Op: "preference conflicts", Err: err}
		}
		pairs = append(pairs, [2]core.Preference{a, b})
	}
	return pairs, rows.Err()
}
