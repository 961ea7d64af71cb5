package core

import "context"

// Memory is the engine surface the transports expose to bots.
type Memory interface {
	RetainFact(ctx context.Context, req RetainRequest) (int64, error)
	RetainPreference(ctx context.Context, req PreferenceRequest) (PreferenceResult, error)
	Recall(ctx context.Context, req RecallRequest) (RecallResponse, error)
	RecallByEntity(ctx context.Context, name string, k int, filter TimeFilter) (RecallResponse, error)
	RecallRecent(ctx context.Context, k int, source Source) (RecallResponse, error)
	GetFact(ctx context.Context, id int64) (Fact, error)
	ArchiveFact(ctx context.Context, id int64) error
}

type RetainRequest struct {
	Content    string
	Context    string
	Source     Source
	Confidence float64
	// Entities overrides automatic extraction when non-nil.
	Entities []Mention
}

type RecallRequest struct {
	Query string
	K     int
	// Embedding enables the semantic path; the engine never computes
	// embeddings itself.
	Embedding []float32
	Filters   SearchFilters
}

type PreferenceRequest struct {
	User      string
	Platform  string
	Category  string
	Key       string
	Value     string
	Evidence  string
	Confirmed bool
}

type PreferenceResult struct {
	ID            int64   `json:"id"`
	Confidence    float64 `json:"confidence"`
	EvidenceCount int     `json:"evidence_count"`
}
