package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sandevgo/recall/internal/core"
)

type EntityRepo struct {
	db *sql.DB
}

func NewEntityRepo(db *sql.DB) *EntityRepo {
	return &EntityRepo{db: db}
}

// Create inserts the entity if its (name, type) pair is new. The second
// return value reports whether a row was actually created.
func (r *EntityRepo) Create(ctx context.Context, e core.Entity) (int64, bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO entities (name, entity_type, summary, metadata)
		 VALUES (?, ?, ?, COALESCE(NULLIF(?, ''), '{}'))
		 ON CONFLICT (name, entity_type) DO NOTHING`,
		e.Name, string(e.Type), e.Summary, e.Metadata,
	)
	if err != nil {
		return 0, false, &core.StorageError{Op: "create entity", Err: err}
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, false, &core.StorageError{Op: "create entity", Err: err}
	}
	if n == 0 {
		existing, err := r.Get(ctx, e.Name, e.Type)
		if err != nil {
			return 0, false, err
		}
		return existing.ID, false, nil
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, false, &core.StorageError{Op: "create entity", Err: err}
	}
	return id, true, nil
}

func (r *EntityRepo) Get(ctx context.Context, name string, typ core.EntityType) (core.Entity, error) {
	return r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT id, name, entity_type, summary, metadata, created_at, updated_at
		 FROM entities WHERE name = ? AND entity_type = ?`,
		name, string(typ),
	), name)
}

// GetByName returns the oldest entity with the given name regardless of type.
func (r *EntityRepo) GetByName(ctx context.Context, name string) (core.Entity, error) {
	return r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT id, name, entity_type, summary, metadata, created_at, updated_at
		 FROM entities WHERE name = ? ORDER BY id ASC LIMIT 1`,
		name,
	), name)
}

func (r *EntityRepo) scanOne(row *sql.Row, name string) (core.Entity, error) {
	var e core.Entity
	var typ string
	err := row.Scan(&e.ID, &e.Name, &typ, &e.Summary, &e.Metadata, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Entity{}, fmt.Errorf("entity %q: %w", name, core.ErrNotFound)
	}
	if err != nil {
		return core.Entity{}, &core.StorageError{Op: "get entity", Err: err}
	}
	e.Type = core.EntityType(typ)
	return e, nil
}

func (r *EntityRepo) List(ctx context.Context, typ core.EntityType, limit int) ([]core.Entity, error) {
	query := `SELECT id, name, entity_type, summary, metadata, created_at, updated_at FROM entities`
	var args []any
	if typ != "" {
		query += ` WHERE entity_type = ?`
		args = append(args, string(typ))
	}
	query += ` ORDER BY name ASC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &core.StorageError{Op: "list entities", Err: err}
	}
	defer rows.Close()

	var entities []core.Entity
	for rows.Next() {
		var e core.Entity
		var t string
		if err := rows.Scan(&e.ID, &e.Name, &t, &e.Summary, &e.Metadata, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, &core.StorageError{Op: "list entities", Err: err}
		}
		e.Type = core.EntityType(t)
		entities = append(entities, e)
	}
	return entities, rows.Err()
}

func (r *EntityRepo) UpdateSummary(ctx context.Context, id int64, summary string) error {
	return r.update(ctx, id, `UPDATE entities SET summary = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, summary)
}

func (r *EntityRepo) UpdateMetadata(ctx context.Context, id int64, metadata string) error {
	return r.update(ctx, id, `UPDATE entities SET metadata = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, metadata)
}

func (r *EntityRepo) update(ctx context.Context, id int64, query, value string) error {
	res, err := r.db.ExecContext(ctx, query, value, id)
	if err != nil {
		return &core.StorageError{Op: "update entity", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &core.StorageError{Op: "update entity", Err: err}
	}
	if n == 0 {
		return fmt.Errorf("entity %d: %w", id, core.ErrNotFound)
	}
	return nil
}

// SameNameConflicts finds entities that share a case-insensitive name but
// carry different types. Detection only; nothing is resolved.
func (r *EntityRepo) SameNameConflicts(ctx context.Context) ([][2]core.Entity, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.id, a.name, a.entity_type, a.summary, a.metadata, a.created_at, a.updated_at,
		       b.id, b.name, b.entity_type, b.summary, b.metadata, b.created_at, b.updated_at
		FROM entities a
		JOIN entities b
		  ON lower(a.name) = lower(b.name)
		 AND a.entity_type != b.entity_type
		 AND a.id < b.id`)
	if err != nil {
		return nil, &core.StorageError{Op: "entity conflicts", Err: err}
	}
	defer rows.Close()

	var pairs [][2]core.Entity
	for rows.Next() {
		var a, b core.Entity
		var at, bt string
		if err := rows.Scan(
			&a.ID, &a.Name, &at, &a.Summary, &a.Metadata, &a.CreatedAt, &a.UpdatedAt,
			&b.ID, &b.Name, &bt, &b.Summary, &b.Metadata, &b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, &core.StorageError{Op: "entity conflicts", Err: err}
		}
		a.Type = core.EntityType(at)
		b.Type = core.EntityType(bt)
		pairs = append(pairs, [2]core.Entity{a, b})
	}
	return pairs, rows.Err()
}
