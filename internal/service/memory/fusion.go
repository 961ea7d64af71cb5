package memory

import (
	"sort"

	"github.com/sandevgo/recall/internal/core"
)

// rankedList is one source of ordered candidates feeding the fusion step.
type rankedList struct {
	weight  float64
	results []core.SearchResult
}

// fuseRRF merges ranked lists with Reciprocal Rank Fusion: a result at
// 1-based rank r in a list of weight w contributes w/(k+r), and
// contributions accumulate when the same content appears in several lists.
// Matching is by literal content equality.
func fuseRRF(k int, lists ...rankedList) []core.SearchResult {
	type fused struct {
		result core.SearchResult
		score  float64
		order  int
	}

	merged := make(map[string]*fused)
	order := 0

	for _, list := range lists {
		for i, res := range list.results {
			contribution := list.weight / float64(k+i+1)
			if f, ok := merged[res.Content]; ok {
				f.score += contribution
				// Keep the richer record: keyword hits carry fact metadata,
				// vector-only hits may not.
				if f.result.FactID == 0 && res.FactID != 0 {
					res.Score = 0
					f.result = res
				}
				continue
			}
			merged[res.Content] = &fused{result: res, score: contribution, order: order}
			order++
		}
	}

	out := make([]core.SearchResult, 0, len(merged))
	for _, f := range merged {
		f.result.Score = f.score
		out = append(out, f.result)
	}

	// Stable order for equal scores: first appearance wins.
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return merged[out[i].Content].order < merged[out[j].Content].order
	})
	return out
}

// applyFilters re-checks result-level constraints after fusion. Vector-only
// hits bypass the keyword index's WHERE clause, so time, source and
// confidence limits must hold on the fused list too.
func applyFilters(results []core.SearchResult, filters core.SearchFilters) []core.SearchResult {
	cutoff := filters.TimeFilter.Cutoff(timeNow())
	out := results[:0]
	for _, r := range results {
		if r.Confidence < filters.MinConfidence {
			continue
		}
		if filters.Source != core.SourceUnset && r.Source != filters.Source {
			continue
		}
		if !cutoff.IsZero() && r.Timestamp.Before(cutoff) {
			continue
		}
		out = append(out, r)
	}
	return out
}
