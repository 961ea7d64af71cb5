package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sandevgo/recall/internal/core"
)

type FactRepo struct {
	db *sql.DB
}

func NewFactRepo(db *sql.DB) *FactRepo {
	return &FactRepo{db: db}
}

// Retain writes the fact row, its keyword-index entry (via triggers) and all
// entity mention rows in one transaction. On any failure nothing persists.
func (r *FactRepo) Retain(ctx context.Context, fact core.Fact, mentions []core.Mention) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, &core.StorageError{Op: "retain", Err: err}
	}
	defer tx.Rollback()

	ts := fact.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO facts (content, context, source, confidence, timestamp, entity_id, user_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		fact.Content, fact.Context, string(fact.Source), fact.Confidence, ts.UTC(), fact.EntityID, fact.UserID,
	)
	if err != nil {
		return 0, &core.StorageError{Op: "retain", Err: err}
	}

	factID, err := res.LastInsertId()
	if err != nil {
		return 0, &core.StorageError{Op: "retain", Err: err}
	}

	for _, m := range mentions {
		entityID, err := ensureEntity(ctx, tx, m.Name, m.Type)
		if err != nil {
			return 0, &core.StorageError{Op: "retain mention", Err: err}
		}
		_, err = tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO entity_mentions (fact_id, entity_id, mention_text) VALUES (?, ?, ?)`,
			factID, entityID, m.Text,
		)
		if err != nil {
			return 0, &core.StorageError{Op: "retain mention", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, &core.StorageError{Op: "retain", Err: err}
	}
	return factID, nil
}

// ensureEntity creates the entity lazily on first mention.
func ensureEntity(ctx context.Context, tx *sql.Tx, name string, typ core.EntityType) (int64, error) {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO entities (name, entity_type) VALUES (?, ?)
		 ON CONFLICT (name, entity_type) DO NOTHING`,
		name, string(typ),
	)
	if err != nil {
		return 0, err
	}

	var id int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM entities WHERE name = ? AND entity_type = ?`,
		name, string(typ),
	).Scan(&id)
	return id, err
}

func (r *FactRepo) Get(ctx context.Context, id int64) (core.Fact, error) {
	var f core.Fact
	var source string
	var active int
	err := r.db.QueryRowContext(ctx,
		`SELECT id, content, context, source, confidence, timestamp, is_active, entity_id, user_id
		 FROM facts WHERE id = ?`, id,
	).Scan(&f.ID, &f.Content, &f.Context, &source, &f.Confidence, &f.Timestamp, &active, &f.EntityID, &f.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Fact{}, fmt.Errorf("fact %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Fact{}, &core.StorageError{Op: "get fact", Err: err}
	}
	f.Source = core.Source(source)
	if active == 0 {
		f.State = core.FactArchived
	}
	return f, nil
}

// Archive flips the fact to the archived state. Idempotent.
func (r *FactRepo) Archive(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE facts SET is_active = 0 WHERE id = ?`, id)
	if err != nil {
		return &core.StorageError{Op: "archive", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &core.StorageError{Op: "archive", Err: err}
	}
	if n == 0 {
		return fmt.Errorf("fact %d: %w", id, core.ErrNotFound)
	}
	return nil
}

// Search runs a BM25-ranked full-text query. Raw rank values are negative
// (more negative is better); they are normalized to non-negative scores.
func (r *FactRepo) Search(ctx context.Context, query string, limit int, filters core.SearchFilters) ([]core.SearchResult, error) {
	var sb strings.Builder
	sb.WriteString(`
		SELECT f.id, f.content, f.context, f.source, f.confidence, f.timestamp, facts_fts.rank
		FROM facts f
		JOIN facts_fts ON f.id = facts_fts.rowid
		WHERE facts_fts MATCH ? AND f.confidence >= ?`)

	args := []any{escapeFTSQuery(query), filters.MinConfidence}

	if !filters.IncludeArchived {
		sb.WriteString(` AND f.is_active = 1`)
	}
	if filters.Source != core.SourceUnset {
		sb.WriteString(` AND f.source = ?`)
		args = append(args, string(filters.Source))
	}
	if filters.Context != "" {
		sb.WriteString(` AND f.context = ?`)
		args = append(args, filters.Context)
	}
	if cutoff := filters.TimeFilter.Cutoff(time.Now()); !cutoff.IsZero() {
		sb.WriteString(` AND f.timestamp >= ?`)
		args = append(args, cutoff)
	}
	if filters.Entity != "" {
		sb.WriteString(` AND EXISTS (
			SELECT 1 FROM entity_mentions em
			JOIN entities e ON e.id = em.entity_id
			WHERE em.fact_id = f.id AND e.name = ?)`)
		args = append(args, filters.Entity)
	}

	sb.WriteString(` ORDER BY facts_fts.rank LIMIT ?`)
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, &core.StorageError{Op: "search", Err: err}
	}
	defer rows.Close()

	return scanResults(rows, true)
}

func (r *FactRepo) SearchByEntity(ctx context.Context, entity string, limit int, filter core.TimeFilter) ([]core.SearchResult, error) {
	var sb strings.Builder
	sb.WriteString(`
		SELECT f.id, f.content, f.context, f.source, f.confidence, f.timestamp, 0
		FROM facts f
		JOIN entity_mentions em ON em.fact_id = f.id
		JOIN entities e ON e.id = em.entity_id
		WHERE e.name = ? AND f.is_active = 1`)

	args := []any{entity}
	if cutoff := filter.Cutoff(time.Now()); !cutoff.IsZero() {
		sb.WriteString(` AND f.timestamp >= ?`)
		args = append(args, cutoff)
	}
	sb.WriteString(` ORDER BY f.timestamp DESC LIMIT ?`)
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, &core.StorageError{Op: "search by entity", Err: err}
	}
	defer rows.Close()

	return scanResults(rows, false)
}

func (r *FactRepo) Recent(ctx context.Context, limit int, source core.Source) ([]core.SearchResult, error) {
	var sb strings.Builder
	sb.WriteString(`
		SELECT id, content, context, source, confidence, timestamp, 0
		FROM facts WHERE is_active = 1`)

	var args []any
	if source != core.SourceUnset {
		sb.WriteString(` AND source = ?`)
		args = append(args, string(source))
	}
	sb.WriteString(` ORDER BY timestamp DESC LIMIT ?`)
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, &core.StorageError{Op: "recent", Err: err}
	}
	defer rows.Close()

	return scanResults(rows, false)
}

// Between returns active facts inside [from, to], oldest first.
func (r *FactRepo) Between(ctx context.Context, from, to time.Time) ([]core.Fact, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, content, context, source, confidence, timestamp, entity_id, user_id
		 FROM facts
		 WHERE is_active = 1 AND timestamp >= ? AND timestamp <= ?
		 ORDER BY timestamp ASC`,
		from.UTC(), to.UTC(),
	)
	if err != nil {
		return nil, &core.StorageError{Op: "between", Err: err}
	}
	defer rows.Close()

	var facts []core.Fact
	for rows.Next() {
		var f core.Fact
		var source string
		if err := rows.Scan(&f.ID, &f.Content, &f.Context, &source, &f.Confidence, &f.Timestamp, &f.EntityID, &f.UserID); err != nil {
			return nil, &core.StorageError{Op: "between", Err: err}
		}
		f.Source = core.Source(source)
		facts = append(facts, f)
	}
	return facts, rows.Err()
}

// ArchiveOlderThan flips all active facts older than cutoff to archived and
// returns them so the caller can mirror them into date-bucketed documents.
func (r *FactRepo) ArchiveOlderThan(ctx context.Context, cutoff time.Time) ([]core.Fact, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, &core.StorageError{Op: "archive batch", Err: err}
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT id, content, context, source, confidence, timestamp
		 FROM facts WHERE is_active = 1 AND timestamp < ?
		 ORDER BY timestamp ASC`,
		cutoff.UTC(),
	)
	if err != nil {
		return nil, &core.StorageError{Op: "archive batch", Err: err}
	}

	var facts []core.Fact
	for rows.Next() {
		var f core.Fact
		var source string
		if err := rows.Scan(&f.ID, &f.Content, &f.Context, &source, &f.Confidence, &f.Timestamp); err != nil {
			rows.Close()
			return nil, &core.StorageError{Op: "archive batch", Err: err}
		}
		f.Source = core.Source(source)
		f.State = core.FactArchived
		facts = append(facts, f)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, &core.StorageError{Op: "archive batch", Err: err}
	}
	rows.Close()

	if len(facts) == 0 {
		return nil, tx.Commit()
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE facts SET is_active = 0 WHERE is_active = 1 AND timestamp < ?`,
		cutoff.UTC(),
	); err != nil {
		return nil, &core.StorageError{Op: "archive batch", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return nil, &core.StorageError{Op: "archive batch", Err: err}
	}
	return facts, nil
}

func scanResults(rows *sql.Rows, ranked bool) ([]core.SearchResult, error) {
	var results []core.SearchResult
	for rows.Next() {
		var r core.SearchResult
		var source string
		var rank float64
		if err := rows.Scan(&r.FactID, &r.Content, &r.Context, &source, &r.Confidence, &r.Timestamp, &rank); err != nil {
			return nil, &core.StorageError{Op: "scan result", Err: err}
		}
		r.Source = core.Source(source)
		if ranked {
			r.Score = math.Abs(rank)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// escapeFTSQuery quotes each token so FTS5 operators and punctuation in user
// queries are treated as literals.
func escapeFTSQuery(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return `""`
	}
	quoted := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.ReplaceAll(f, `"`, `""`)
		quoted = append(quoted, `"`+f+`"`)
	}
	return strings.Join(quoted, " ")
}
