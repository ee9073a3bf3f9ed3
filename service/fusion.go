package service

import (
	"sort"

	"github.com/sachalbs/mouselaw-prod-sub000/models"

	"github.com/google/uuid"
)

// FuseResults merges the per-corpus result lists into one ranked list.
// The same entity reached both by identifier lookup and by similarity is
// kept once with its higher score (exact wins ties, so it keeps its 1.0
// tag). Results are ordered by score descending; equal scores are broken
// by corpus then identifier so the ordering is stable across runs rather
// than an accident of sort internals. A positive maxTotal truncates the
// fused list after the per-corpus caps have already bounded each
// corpus's contribution.
func FuseResults(resultSets [][]models.SearchResult, maxTotal int) []models.SearchResult {
	byEntity := make(map[uuid.UUID]models.SearchResult)
	for _, set := range resultSets {
		for _, r := range set {
			best, ok := byEntity[r.EntityID]
			if !ok || betterResult(r, best) {
				byEntity[r.EntityID] = r
			}
		}
	}

	fused := make([]models.SearchResult, 0, len(byEntity))
	for _, r := range byEntity {
		fused = append(fused, r)
	}

	sort.Slice(fused, func(i, j int) bool {
		a, b := fused[i], fused[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Corpus != b.Corpus {
			return a.Corpus < b.Corpus
		}
		return a.Identifier < b.Identifier
	})

	if maxTotal > 0 && len(fused) > maxTotal {
		fused = fused[:maxTotal]
	}

	return fused
}

// betterResult reports whether a should replace b for the same entity.
func betterResult(a, b models.SearchResult) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.MatchKind == models.MatchExact && b.MatchKind != models.MatchExact
}
