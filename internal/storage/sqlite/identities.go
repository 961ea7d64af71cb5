package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/sandevgo/recall/internal/core"
)

type IdentityRepo struct {
	db *sql.DB
}

func NewIdentityRepo(db *sql.DB) *IdentityRepo {
	return &IdentityRepo{db: db}
}

// Resolve maps a platform handle to its canonical user row, creating the row
// on first sight.
func (r *IdentityRepo) Resolve(ctx context.Context, platform, handle string) (core.UserIdentity, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_identities (platform, handle) VALUES (?, ?)
		 ON CONFLICT (platform, handle) DO NOTHING`,
		platform, handle,
	)
	if err != nil {
		return core.UserIdentity{}, &core.StorageError{Op: "resolve identity", Err: err}
	}

	var id core.UserIdentity
	err = r.db.QueryRowContext(ctx,
		`SELECT id, platform, handle, created_at FROM user_identities WHERE platform = ? AND handle = ?`,
		platform, handle,
	).Scan(&id.ID, &id.Platform, &id.Handle, &id.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.UserIdentity{}, core.ErrNotFound
	}
	if err != nil {
		return core.UserIdentity{}, &core.StorageError{Op: "resolve identity", Err: err}
	}
	return id, nil
}
