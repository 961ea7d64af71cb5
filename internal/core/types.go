package core

import (
	"fmt"
	"time"
)

const (
	RecallName      = "Recall"
	RecallUserAgent = "Recall-Engine/0.1"
	RecallVersion   = "0.1.0"
)

// Source identifies the producer of a fact. Closed set; unknown values are
// rejected at the write boundary.
type Source string

const (
	SourceTelegram   Source = "telegram"
	SourceTreasury   Source = "treasury"
	SourceX          Source = "x"
	SourceBagsIntel  Source = "bags_intel"
	SourceBuyTracker Source = "buy_tracker"
	SourceSystem     Source = "system"
	SourceUnset      Source = ""
)

func ParseSource(s string) (Source, error) {
	switch Source(s) {
	case SourceTelegram, SourceTreasury, SourceX, SourceBagsIntel, SourceBuyTracker, SourceSystem, SourceUnset:
		return Source(s), nil
	}
	return SourceUnset, &ValidationError{Field: "source", Reason: fmt.Sprintf("unknown source %q", s)}
}

// EntityType classifies a named thing facts can mention.
type EntityType string

const (
	EntityToken    EntityType = "token"
	EntityUser     EntityType = "user"
	EntityStrategy EntityType = "strategy"
	EntityPlatform EntityType = "platform"
	EntityOther    EntityType = "other"
)

func ParseEntityType(s string) (EntityType, error) {
	switch EntityType(s) {
	case EntityToken, EntityUser, EntityStrategy, EntityPlatform, EntityOther:
		return EntityType(s), nil
	}
	return EntityOther, &ValidationError{Field: "entity_type", Reason: fmt.Sprintf("unknown entity type %q", s)}
}

// FactState is the lifecycle of a stored fact. Facts move Active -> Archived
// and never back outside an explicit administrative restore.
type FactState int

const (
	FactActive FactState = iota
	FactArchived
)

type Fact struct {
	ID         int64     `json:"id"`
	Content    string    `json:"content"`
	Context    string    `json:"context,omitempty"`
	Source     Source    `json:"source,omitempty"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
	State      FactState `json:"-"`
	EntityID   *int64    `json:"entity_id,omitempty"`
	UserID     *int64    `json:"user_id,omitempty"`
}

type Entity struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Type      EntityType `json:"type"`
	Summary   string     `json:"summary,omitempty"`
	Metadata  string     `json:"metadata,omitempty"` // JSON blob
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// EntityMention links a fact to an entity with the literal text that matched.
type EntityMention struct {
	FactID      int64  `json:"fact_id"`
	EntityID    int64  `json:"entity_id"`
	MentionText string `json:"mention_text"`
}

type Preference struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	Category      string    `json:"category"`
	Key           string    `json:"key"`
	Value         string    `json:"value"`
	Confidence    float64   `json:"confidence"`
	EvidenceCount int       `json:"evidence_count"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Session holds per-(platform, user) conversational state. The blob is
// opaque JSON owned by the calling bot.
type Session struct {
	Key        string    `json:"key"` // "platform:user_id"
	Platform   string    `json:"platform"`
	UserHandle string    `json:"user"`
	Context    string    `json:"context"`
	LastActive time.Time `json:"last_active"`
}

func SessionKey(platform, user string) string {
	return platform + ":" + user
}

// SearchResult is one ranked hit from the keyword index, the vector index,
// or the fused ranking.
type SearchResult struct {
	FactID     int64     `json:"id,omitempty"`
	Content    string    `json:"content"`
	Context    string    `json:"context,omitempty"`
	Source     Source    `json:"source,omitempty"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
	Score      float64   `json:"relevance_score"`
}

// SearchMode reports which index paths contributed to a recall response.
type SearchMode string

const (
	ModeHybrid  SearchMode = "hybrid"
	ModeFTSOnly SearchMode = "fts-only"
)

// RecallResponse wraps ranked results with observability metadata.
type RecallResponse struct {
	Results     []SearchResult `json:"results"`
	Count       int            `json:"count"`
	Query       string         `json:"query"`
	Mode        SearchMode     `json:"mode"`
	KeywordHits int            `json:"keyword_hits"`
	VectorHits  int            `json:"vector_hits"`
	ElapsedMS   int64          `json:"elapsed_ms"`
}

// TimeFilter restricts searches to a trailing window. All values except
// "today" are computed as now minus N days; "today" is midnight-aligned UTC.
type TimeFilter string

const (
	FilterToday   TimeFilter = "today"
	FilterWeek    TimeFilter = "week"
	FilterMonth   TimeFilter = "month"
	FilterQuarter TimeFilter = "quarter"
	FilterYear    TimeFilter = "year"
	FilterAll     TimeFilter = "all"
)

func ParseTimeFilter(s string) (TimeFilter, error) {
	if s == "" {
		return FilterAll, nil
	}
	switch TimeFilter(s) {
	case FilterToday, FilterWeek, FilterMonth, FilterQuarter, FilterYear, FilterAll:
		return TimeFilter(s), nil
	}
	return FilterAll, &ValidationError{Field: "time_filter", Reason: fmt.Sprintf("unknown time filter %q", s)}
}

// Cutoff returns the inclusive lower bound for the filter, or the zero time
// for FilterAll.
func (f TimeFilter) Cutoff(now time.Time) time.Time {
	now = now.UTC()
	switch f {
	case FilterToday:
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	case FilterWeek:
		return now.AddDate(0, 0, -7)
	case FilterMonth:
		return now.AddDate(0, 0, -30)
	case FilterQuarter:
		return now.AddDate(0, 0, -90)
	case FilterYear:
		return now.AddDate(0, 0, -365)
	default:
		return time.Time{}
	}
}

// SearchFilters narrows keyword and fused searches.
type SearchFilters struct {
	TimeFilter      TimeFilter
	Source          Source
	MinConfidence   float64
	Entity          string
	Context         string
	IncludeArchived bool
}

// UserIdentity maps a platform handle to a canonical user row.
type UserIdentity struct {
	ID        int64     `json:"id"`
	Platform  string    `json:"platform"`
	Handle    string    `json:"handle"`
	CreatedAt time.Time `json:"created_at"`
}
