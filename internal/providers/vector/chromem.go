package vector

import (
	"context"
	"fmt"
	"strconv"

	chromem "github.com/philippgille/chromem-go"
	"github.com/sandevgo/recall/internal/config"
	"github.com/sandevgo/recall/internal/core"
	"github.com/sandevgo/recall/pkg/log"
	"github.com/sandevgo/recall/pkg/retry"
)

const collectionName = "facts"

// ChromemIndex implements core.VectorIndex on an embedded chromem-go store.
// Document embeddings are computed inside the adapter via the configured
// OpenAI embedding model; query embeddings are supplied by the caller.
type ChromemIndex struct {
	collection *chromem.Collection
	retrier    *retry.Retrier
}

// NewChromemIndex returns the adapter. When the vector path is disabled or
// no API key is configured the adapter is constructed unavailable: every
// operation degrades to a no-op and recall falls back to keyword-only mode.
func NewChromemIndex(ctx context.Context, cfg *config.VectorConfig, path string) (*ChromemIndex, error) {
	idx := &ChromemIndex{retrier: retry.NewDefaultRetrier()}

	if !cfg.Enabled || cfg.OpenAIAPIKey == "" {
		log.FromCtx(ctx).Info().Msg("vector index disabled, recall will run keyword-only")
		return idx, nil
	}

	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector store: %w", err)
	}

	embed := chromem.NewEmbeddingFuncOpenAI(cfg.OpenAIAPIKey, chromem.EmbeddingModelOpenAI(cfg.EmbeddingModel))
	collection, err := db.GetOrCreateCollection(collectionName, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector collection: %w", err)
	}

	idx.collection = collection
	return idx, nil
}

func (c *ChromemIndex) IsAvailable(ctx context.Context) bool {
	return c.collection != nil
}

func (c *ChromemIndex) Index(ctx context.Context, factID int64, content string, metadata map[string]string) error {
	if c.collection == nil {
		return nil
	}

	doc := chromem.Document{
		ID:       strconv.FormatInt(factID, 10),
		Content:  content,
		Metadata: metadata,
	}

	// The embedding call goes over the network; retry transient failures.
	err := c.retrier.Do(ctx, func() error {
		return c.collection.AddDocument(ctx, doc)
	})
	if err != nil {
		return &core.AdapterUnavailableError{Backend: "chromem", Err: err}
	}
	return nil
}

func (c *ChromemIndex) Search(ctx context.Context, embedding []float32, limit int, threshold float32) ([]core.VectorHit, error) {
	if c.collection == nil {
		return nil, nil
	}

	// chromem rejects result counts above the collection size.
	if count := c.collection.Count(); count < limit {
		limit = count
	}
	if limit == 0 {
		return nil, nil
	}

	results, err := c.collection.QueryEmbedding(ctx, embedding, limit, nil, nil)
	if err != nil {
		return nil, &core.AdapterUnavailableError{Backend: "chromem", Err: err}
	}

	hits := make([]core.VectorHit, 0, len(results))
	for _, res := range results {
		if res.Similarity < threshold {
			continue
		}
		hits = append(hits, core.VectorHit{
			Content:    res.Content,
			Similarity: res.Similarity,
			Metadata:   res.Metadata,
		})
	}
	return hits, nil
}

func (c *ChromemIndex) Delete(ctx context.Context, factID int64) error {
	if c.collection == nil {
		return nil
	}
	if err := c.collection.Delete(ctx, nil, nil, strconv.FormatInt(factID, 10)); err != nil {
		return &core.AdapterUnavailableError{Backend: "chromem", Err: err}
	}
	return nil
}
