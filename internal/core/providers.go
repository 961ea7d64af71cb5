package core

import "context"

// VectorIndex wraps an external cosine-similarity index keyed by fact
// content. When the backend is unreachable every operation degrades to a
// no-op returning empty results; errors never reach recall callers.
type VectorIndex interface {
	IsAvailable(ctx context.Context) bool
	Index(ctx context.Context, factID int64, content string, metadata map[string]string) error
	Search(ctx context.Context, embedding []float32, limit int, threshold float32) ([]VectorHit, error)
	Delete(ctx context.Context, factID int64) error
}

// VectorHit is one semantic match above the similarity threshold.
type VectorHit struct {
	Content    string
	Similarity float32
	Metadata   map[string]string
}

// Summarizer is the injected text-synthesis collaborator used by the
// consolidation pipeline. Any implementation satisfying "text in, prose out"
// is interchangeable.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}
