package memory

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/sandevgo/recall/internal/config"
	"github.com/sandevgo/recall/internal/core"
	"github.com/sandevgo/recall/pkg/log"
	"golang.org/x/sync/errgroup"
)

// timeNow is swapped in tests that pin the clock.
var timeNow = time.Now

// Service is the retrieval engine: it owns the retain write path, the hybrid
// recall read path and the preference ledger logic.
type Service struct {
	cfg        *config.SearchConfig
	facts      core.FactRepository
	prefs      core.PreferenceRepository
	identities core.IdentityRepository
	vector     core.VectorIndex
	mirror     *DailyLog
}

func NewService(
	cfg *config.SearchConfig,
	facts core.FactRepository,
	prefs core.PreferenceRepository,
	identities core.IdentityRepository,
	vector core.VectorIndex,
	mirror *DailyLog,
) *Service {
	return &Service{
		cfg:        cfg,
		facts:      facts,
		prefs:      prefs,
		identities: identities,
		vector:     vector,
		mirror:     mirror,
	}
}

// RetainFact validates, extracts entity mentions when none are supplied, and
// writes fact + keyword index + mentions atomically. The markdown mirror and
// the vector index are fed after commit on a best-effort basis; their
// failures are logged and never surface to the caller.
func (s *Service) RetainFact(ctx context.Context, req core.RetainRequest) (int64, error) {
	if req.Content == "" {
		return 0, &core.ValidationError{Field: "content", Reason: "must not be empty"}
	}
	if err := core.ValidateConfidence(req.Confidence); err != nil {
		return 0, err
	}
	if _, err := core.ParseSource(string(req.Source)); err != nil {
		return 0, err
	}

	mentions := req.Entities
	if mentions == nil {
		mentions = ExtractMentions(req.Content, req.Context)
	}

	fact := core.Fact{
		Content:    req.Content,
		Context:    req.Context,
		Source:     req.Source,
		Confidence: req.Confidence,
		Timestamp:  timeNow().UTC(),
	}

	id, err := s.facts.Retain(ctx, fact, mentions)
	if err != nil {
		return 0, err
	}
	fact.ID = id

	s.mirrorAndIndex(ctx, fact)
	return id, nil
}

// mirrorAndIndex runs the secondary sinks detached from the request, so a
// caller hanging up cannot abort a write that already committed.
func (s *Service) mirrorAndIndex(ctx context.Context, fact core.Fact) {
	logger := log.FromCtx(ctx)
	bg := context.WithoutCancel(ctx)

	go func() {
		if s.mirror != nil {
			if err := s.mirror.Append(fact); err != nil {
				logger.Warn().Err(err).Int64("fact_id", fact.ID).Msg("daily log append failed")
			}
		}
		if s.vector != nil && s.vector.IsAvailable(bg) {
			meta := map[string]string{
				"fact_id":    strconv.FormatInt(fact.ID, 10),
				"source":     string(fact.Source),
				"confidence": strconv.FormatFloat(fact.Confidence, 'f', -1, 64),
				"timestamp":  fact.Timestamp.UTC().Format(time.RFC3339),
			}
			if err := s.vector.Index(bg, fact.ID, fact.Content, meta); err != nil {
				logger.Warn().Err(err).Int64("fact_id", fact.ID).Msg("vector index failed")
			}
		}
	}()
}

// Recall merges the keyword and vector paths with Reciprocal Rank Fusion.
// It always returns a response, possibly with zero results; the vector
// backend being down only degrades the mode, never fails the call.
func (s *Service) Recall(ctx context.Context, req core.RecallRequest) (core.RecallResponse, error) {
	started := timeNow()
	logger := log.FromCtx(ctx)

	if req.K <= 0 {
		req.K = s.cfg.DefaultLimit
	}
	if err := core.ValidateConfidence(req.Filters.MinConfidence); err != nil {
		return core.RecallResponse{}, err
	}

	var keyword, vector []core.SearchResult

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		keyword, err = s.facts.Search(gctx, req.Query, req.K, req.Filters)
		return err
	})
	g.Go(func() error {
		// The vector path is optional and bounded by its own timeout; its
		// failures are downgraded to keyword-only mode.
		if len(req.Embedding) == 0 || s.vector == nil || !s.vector.IsAvailable(gctx) {
			return nil
		}
		vctx, cancel := context.WithTimeout(gctx, s.cfg.VectorTimeout)
		defer cancel()

		hits, err := s.vector.Search(vctx, req.Embedding, req.K, s.cfg.SimilarityThreshold)
		if err != nil {
			logger.Warn().Err(err).Msg("vector search failed, degrading to fts-only")
			return nil
		}
		vector = vectorHitsToResults(hits)
		return nil
	})
	if err := g.Wait(); err != nil {
		return core.RecallResponse{}, err
	}

	resp := core.RecallResponse{
		Query:       req.Query,
		KeywordHits: len(keyword),
		VectorHits:  len(vector),
	}

	if len(vector) == 0 {
		resp.Mode = core.ModeFTSOnly
		resp.Results = truncate(keyword, req.K)
	} else {
		resp.Mode = core.ModeHybrid
		fused := fuseRRF(s.cfg.RRFK,
			rankedList{weight: s.cfg.KeywordWeight, results: keyword},
			rankedList{weight: s.cfg.VectorWeight, results: vector},
		)
		resp.Results = truncate(applyFilters(fused, req.Filters), req.K)
	}

	if resp.Results == nil {
		resp.Results = []core.SearchResult{}
	}
	resp.Count = len(resp.Results)

	elapsed := timeNow().Sub(started)
	resp.ElapsedMS = elapsed.Milliseconds()
	if elapsed > s.cfg.SoftBudget {
		logger.Warn().
			Dur("elapsed", elapsed).
			Str("query", req.Query).
			Msg("recall exceeded soft latency budget")
	}

	return resp, nil
}

func (s *Service) RecallByEntity(ctx context.Context, name string, k int, filter core.TimeFilter) (core.RecallResponse, error) {
	started := timeNow()
	if k <= 0 {
		k = s.cfg.DefaultLimit
	}

	results, err := s.facts.SearchByEntity(ctx, name, k, filter)
	if err != nil {
		return core.RecallResponse{}, err
	}
	return plainResponse(name, results, started), nil
}

func (s *Service) RecallRecent(ctx context.Context, k int, source core.Source) (core.RecallResponse, error) {
	started := timeNow()
	if k <= 0 {
		k = s.cfg.DefaultLimit
	}

	results, err := s.facts.Recent(ctx, k, source)
	if err != nil {
		return core.RecallResponse{}, err
	}
	return plainResponse("", results, started), nil
}

func (s *Service) GetFact(ctx context.Context, id int64) (core.Fact, error) {
	return s.facts.Get(ctx, id)
}

// ArchiveFact flips the fact to archived and removes it from the vector
// index. The vector removal is best-effort.
func (s *Service) ArchiveFact(ctx context.Context, id int64) error {
	if err := s.facts.Archive(ctx, id); err != nil {
		return err
	}
	if s.vector != nil && s.vector.IsAvailable(ctx) {
		if err := s.vector.Delete(ctx, id); err != nil {
			log.FromCtx(ctx).Warn().Err(err).Int64("fact_id", id).Msg("vector delete failed")
		}
	}
	return nil
}

// RetainPreference records one piece of preference evidence and writes a
// companion fact tagged @{user} for the audit trail.
func (s *Service) RetainPreference(ctx context.Context, req core.PreferenceRequest) (core.PreferenceResult, error) {
	if req.User == "" {
		return core.PreferenceResult{}, &core.ValidationError{Field: "user", Reason: "must not be empty"}
	}
	if req.Key == "" {
		return core.PreferenceResult{}, &core.ValidationError{Field: "key", Reason: "must not be empty"}
	}

	platform := req.Platform
	if platform == "" {
		platform = "system"
	}

	identity, err := s.identities.Resolve(ctx, platform, req.User)
	if err != nil {
		return core.PreferenceResult{}, err
	}

	pref, err := s.prefs.Upsert(ctx, identity.ID, req.Category, req.Key, req.Value, req.Confirmed)
	if err != nil {
		return core.PreferenceResult{}, err
	}

	content := fmt.Sprintf("Preference update for @%s: %s = %s", req.User, req.Key, req.Value)
	if req.Evidence != "" {
		content += " (" + req.Evidence + ")"
	}
	if _, err := s.RetainFact(ctx, core.RetainRequest{
		Content:    content,
		Context:    "preference_update",
		Source:     core.SourceSystem,
		Confidence: pref.Confidence,
		Entities:   []core.Mention{{Name: req.User, Type: core.EntityUser, Text: "@" + req.User}},
	}); err != nil {
		return core.PreferenceResult{}, err
	}

	return core.PreferenceResult{
		ID:            pref.ID,
		Confidence:    pref.Confidence,
		EvidenceCount: pref.EvidenceCount,
	}, nil
}

// GetPreferences lists the ledger for one user handle.
func (s *Service) GetPreferences(ctx context.Context, platform, user string) ([]core.Preference, error) {
	if platform == "" {
		platform = "system"
	}
	identity, err := s.identities.Resolve(ctx, platform, user)
	if err != nil {
		return nil, err
	}
	return s.prefs.ListForUser(ctx, identity.ID)
}

func vectorHitsToResults(hits []core.VectorHit) []core.SearchResult {
	results := make([]core.SearchResult, 0, len(hits))
	for _, h := range hits {
		r := core.SearchResult{
			Content: h.Content,
			Score:   float64(h.Similarity),
		}
		if id, err := strconv.ParseInt(h.Metadata["fact_id"], 10, 64); err == nil {
			r.FactID = id
		}
		r.Source = core.Source(h.Metadata["source"])
		if c, err := strconv.ParseFloat(h.Metadata["confidence"], 64); err == nil {
			r.Confidence = c
		}
		if ts, err := time.Parse(time.RFC3339, h.Metadata["timestamp"]); err == nil {
			r.Timestamp = ts
		}
		results = append(results, r)
	}
	return results
}

func plainResponse(query string, results []core.SearchResult, started time.Time) core.RecallResponse {
	if results == nil {
		results = []core.SearchResult{}
	}
	return core.RecallResponse{
		Results:     results,
		Count:       len(results),
		Query:       query,
		Mode:        core.ModeFTSOnly,
		KeywordHits: len(results),
		ElapsedMS:   timeNow().Sub(started).Milliseconds(),
	}
}

func truncate(results []core.SearchResult, k int) []core.SearchResult {
	if len(results) > k {
		return results[:k]
	}
	return results
}
