package search

import (
	"fmt"
	"sort"

	ragerrors "github.com/Aman-CERP/docrag/internal/errors"
)

// Combine merges two independently scaled candidate lists into one ranking.
//
// Each list is min-max normalized on its own (degenerate all-equal lists
// normalize to 0, not NaN). Candidates are unioned by identity key, with a
// missing side contributing 0, then blended:
//
//	final = semantic*weight + keyword*(1-weight)
//
// The sort is stable and descending by final score, so ties keep encounter
// order: semantic list first, then keyword-only additions. Pure function, no
// shared state.
func Combine(semantic, keyword []Candidate, semanticWeight float64) ([]RankedResult, error) {
	if semanticWeight < 0 || semanticWeight > 1 {
		return nil, ragerrors.New(ragerrors.ErrCodeInvalidWeight,
			fmt.Sprintf("semantic weight must be in [0,1], got %g", semanticWeight), nil)
	}

	semNorm := normalizeScores(semantic)
	kwNorm := normalizeScores(keyword)

	merged := make([]RankedResult, 0, len(semantic)+len(keyword))
	byKey := make(map[string]int, len(semantic)+len(keyword))

	for i, c := range semantic {
		key := identityKey(c.ID, c.Text)
		if pos, seen := byKey[key]; seen {
			// Duplicate within the semantic list, keep the higher score
			if semNorm[i] > merged[pos].SemanticScore {
				merged[pos].SemanticScore = semNorm[i]
			}
			continue
		}
		byKey[key] = len(merged)
		merged = append(merged, RankedResult{
			ID:            c.ID,
			Text:          c.Text,
			Metadata:      c.Metadata,
			SemanticScore: semNorm[i],
		})
	}

	for i, c := range keyword {
		key := identityKey(c.ID, c.Text)
		if pos, seen := byKey[key]; seen {
			if kwNorm[i] > merged[pos].KeywordScore {
				merged[pos].KeywordScore = kwNorm[i]
			}
			continue
		}
		byKey[key] = len(merged)
		merged = append(merged, RankedResult{
			ID:           c.ID,
			Text:         c.Text,
			Metadata:     c.Metadata,
			KeywordScore: kwNorm[i],
		})
	}

	for i := range merged {
		merged[i].FinalScore = clamp01(
			merged[i].SemanticScore*semanticWeight + merged[i].KeywordScore*(1-semanticWeight))
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].FinalScore > merged[j].FinalScore
	})

	return merged, nil
}

// normalizeScores min-max normalizes raw scores into [0,1]. When all scores
// are equal the spread is zero and every score normalizes to 0.
func normalizeScores(candidates []Candidate) []float64 {
	if len(candidates) == 0 {
		return nil
	}

	minS, maxS := candidates[0].Score, candidates[0].Score
	for _, c := range candidates[1:] {
		if c.Score < minS {
			minS = c.Score
		}
		if c.Score > maxS {
			maxS = c.Score
		}
	}

	normalized := make([]float64, len(candidates))
	if maxS == minS {
		return normalized
	}

	spread := maxS - minS
	for i, c := range candidates {
		normalized[i] = clamp01((c.Score - minS) / spread)
	}
	return normalized
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
