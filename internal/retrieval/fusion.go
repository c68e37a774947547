package retrieval

import (
	"sort"

	"talentmatch/internal/store"
	"talentmatch/internal/types"
)

// Fused is one candidate after relative-score fusion
type Fused struct {
	Profile      types.CandidateProfile
	Score        float64
	VectorScore  float64
	LexicalScore float64
}

// Fuse merges vector and lexical hits with relative-score fusion. Each list
// is min-max normalized to [0,1] (a constant list normalizes to 1), the
// fused score is vectorWeight*vector + (1-vectorWeight)*lexical with a
// missing component counting 0, and ties are broken by candidate_id.
func Fuse(vector, lexical []store.Scored, vectorWeight float64) []Fused {
	byID := make(map[string]*Fused, len(vector)+len(lexical))
	order := make([]string, 0, len(vector)+len(lexical))

	entry := func(p types.CandidateProfile) *Fused {
		f, ok := byID[p.CandidateID]
		if !ok {
			f = &Fused{Profile: p}
			byID[p.CandidateID] = f
			order = append(order, p.CandidateID)
		}
		return f
	}

	for i, s := range normalize(vector) {
		entry(vector[i].Profile).VectorScore = s
	}
	for i, s := range normalize(lexical) {
		entry(lexical[i].Profile).LexicalScore = s
	}

	out := make([]Fused, 0, len(order))
	for _, id := range order {
		f := byID[id]
		f.Score = vectorWeight*f.VectorScore + (1-vectorWeight)*f.LexicalScore
		out = append(out, *f)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Profile.CandidateID < out[j].Profile.CandidateID
	})
	return out
}

// normalize min-max scales raw scores. A duplicate candidate within one list
// keeps its best score.
func normalize(hits []store.Scored) []float64 {
	out := make([]float64, len(hits))
	if len(hits) == 0 {
		return out
	}

	lo, hi := hits[0].Score, hits[0].Score
	for _, h := range hits[1:] {
		lo = min(lo, h.Score)
		hi = max(hi, h.Score)
	}

	for i, h := range hits {
		if hi == lo {
			out[i] = 1
			continue
		}
		out[i] = (h.Score - lo) / (hi - lo)
	}

	best := make(map[string]float64, len(hits))
	for i, h := range hits {
		if s, ok := best[h.Profile.CandidateID]; !ok || out[i] > s {
			best[h.Profile.CandidateID] = out[i]
		}
	}
	for i, h := range hits {
		out[i] = best[h.Profile.CandidateID]
	}
	return out
}
