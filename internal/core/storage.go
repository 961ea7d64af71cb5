package core

import (
	"context"
	"time"
)

// FactRepository is the single source of truth for facts. Retain writes the
// fact row, its keyword-index entry and all mention rows in one transaction.
type FactRepository interface {
	Retain(ctx context.Context, fact Fact, mentions []Mention) (int64, error)
	Get(ctx context.Context, id int64) (Fact, error)
	Archive(ctx context.Context, id int64) error
	Search(ctx context.Context, query string, limit int, filters SearchFilters) ([]SearchResult, error)
	SearchByEntity(ctx context.Context, entity string, limit int, filter TimeFilter) ([]SearchResult, error)
	Recent(ctx context.Context, limit int, source Source) ([]SearchResult, error)
	Between(ctx context.Context, from, to time.Time) ([]Fact, error)
	ArchiveOlderThan(ctx context.Context, cutoff time.Time) ([]Fact, error)
}

// Mention is a pending entity mention resolved inside the retain transaction;
// the entity row is created lazily if absent.
type Mention struct {
	Name string
	Type EntityType
	Text string
}

type EntityRepository interface {
	Create(ctx context.Context, e Entity) (int64, bool, error)
	GetByName(ctx context.Context, name string) (Entity, error)
	Get(ctx context.Context, name string, typ EntityType) (Entity, error)
	List(ctx context.Context, typ EntityType, limit int) ([]Entity, error)
	UpdateSummary(ctx context.Context, id int64, summary string) error
	UpdateMetadata(ctx context.Context, id int64, metadata string) error
	// SameNameConflicts returns entity pairs sharing a case-insensitive name
	// but carrying different types.
	SameNameConflicts(ctx context.Context) ([][2]Entity, error)
}

type PreferenceRepository interface {
	Upsert(ctx context.Context, userID int64, category, key, value string, confirmed bool) (Preference, error)
	ListForUser(ctx context.Context, userID int64) ([]Preference, error)
	All(ctx context.Context) ([]Preference, error)
	// ValueConflicts returns preference pairs for the same (user, category,
	// key) whose values differ while both confidences exceed the threshold.
	ValueConflicts(ctx context.Context, minConfidence float64) ([][2]Preference, error)
}

type SessionRepository interface {
	Save(ctx context.Context, platform, user, contextBlob string) (string, error)
	Get(ctx context.Context, platform, user string) (Session, error)
	Clear(ctx context.Context, platform, user string) error
}

type IdentityRepository interface {
	Resolve(ctx context.Context, platform, handle string) (UserIdentity, error)
}
