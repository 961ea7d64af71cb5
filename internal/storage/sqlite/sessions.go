package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sandevgo/recall/internal/core"
)

type SessionRepo struct {
	db *sql.DB
}

func NewSessionRepo(db *sql.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// Save creates the session on first interaction and refreshes the blob and
// last_active on every subsequent one. Returns the session key.
func (r *SessionRepo) Save(ctx context.Context, platform, user, contextBlob string) (string, error) {
	key := core.SessionKey(platform, user)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (key, platform, user_handle, context, last_active)
		 VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (key) DO UPDATE SET
		   context = excluded.context,
		   last_active = CURRENT_TIMESTAMP`,
		key, platform, user, contextBlob,
	)
	if err != nil {
		return "", &core.StorageError{Op: "save session", Err: err}
	}
	return key, nil
}

func (r *SessionRepo) Get(ctx context.Context, platform, user string) (core.Session, error) {
	key := core.SessionKey(platform, user)
	var s core.Session
	err := r.db.QueryRowContext(ctx,
		`SELECT key, platform, user_handle, context, last_active FROM sessions WHERE key = ?`,
		key,
	).Scan(&s.Key, &s.Platform, &s.UserHandle, &s.Context, &s.LastActive)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Session{}, fmt.Errorf("session %s: %w", key, core.ErrNotFound)
	}
	if err != nil {
		return core.Session{}, &core.StorageError{Op: "get session", Err: err}
	}
	return s, nil
}

func (r *SessionRepo) Clear(ctx context.Context, platform, user string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE key = ?`, core.SessionKey(platform, user))
	if err != nil {
		return &core.StorageError{Op: "clear session", Err: err}
	}
	return nil
}
