// Package ranking merges evaluated pools, orders them and splits the
// result into applicants and potential candidates.
package ranking

import (
	"context"
	"sort"

	"talentmatch/internal/errors"
	"talentmatch/internal/types"
)

// TitleResolver looks up job titles by id. Missing jobs are absent.
type TitleResolver interface {
	JobTitles(ctx context.Context, jobIDs []string) (map[string]string, error)
}

// Ranked is the final ordering of one run
type Ranked struct {
	Evaluated []types.RankedResult
	Applied   []types.RankedResult
	Potential []types.RankedResult
}

// Ranker orders evaluated candidates and resolves provenance titles
type Ranker struct {
	titles TitleResolver
	logger *errors.Logger
}

func New(titles TitleResolver, logger *errors.Logger) *Ranker {
	return &Ranker{titles: titles, logger: logger}
}

// Rank dedups, sorts by overall score descending (stable), truncates to
// topKEvaluated, resolves provenance titles for entries sourced from other
// jobs and partitions into applied and potential lists.
func (r *Ranker) Rank(ctx context.Context, jobID string, entries []types.RankedResult, topKEvaluated int) Ranked {
	ranked := Truncate(Sort(Dedup(entries)), topKEvaluated)
	r.resolveTitles(ctx, jobID, ranked)

	applied, potential := Partition(ranked)
	return Ranked{Evaluated: ranked, Applied: applied, Potential: potential}
}

// Dedup keeps one entry per candidate_id. An applied entry replaces an
// earlier non-applied one at its position; otherwise the first wins.
func Dedup(entries []types.RankedResult) []types.RankedResult {
	index := make(map[string]int, len(entries))
	out := make([]types.RankedResult, 0, len(entries))
	for _, e := range entries {
		i, seen := index[e.CandidateID]
		if !seen {
			index[e.CandidateID] = len(out)
			out = append(out, e)
			continue
		}
		if e.AppliedToJob && !out[i].AppliedToJob {
			out[i] = e
		}
	}
	return out
}

// Sort orders by overall score descending. Equal scores keep input order.
func Sort(entries []types.RankedResult) []types.RankedResult {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Evaluation.OverallScore > entries[j].Evaluation.OverallScore
	})
	return entries
}

// Truncate keeps the first n entries. n <= 0 keeps none.
func Truncate(entries []types.RankedResult, n int) []types.RankedResult {
	if n <= 0 {
		return entries[:0]
	}
	if len(entries) > n {
		return entries[:n]
	}
	return entries
}

// Partition splits entries by applied_to_job, preserving order.
func Partition(entries []types.RankedResult) (applied, potential []types.RankedResult) {
	applied = []types.RankedResult{}
	potential = []types.RankedResult{}
	for _, e := range entries {
		if e.AppliedToJob {
			applied = append(applied, e)
		} else {
			potential = append(potential, e)
		}
	}
	return applied, potential
}

// resolveTitles sets OriginalJobTitle on entries whose original job differs
// from jobID. A deleted job leaves the title nil; a lookup failure is
// logged and leaves every title nil.
func (r *Ranker) resolveTitles(ctx context.Context, jobID string, entries []types.RankedResult) {
	var ids []string
	seen := make(map[string]bool)
	for _, e := range entries {
		if e.OriginalJobID != "" && e.OriginalJobID != jobID && !seen[e.OriginalJobID] {
			seen[e.OriginalJobID] = true
			ids = append(ids, e.OriginalJobID)
		}
	}
	if len(ids) == 0 || r.titles == nil {
		return
	}

	titles, err := r.titles.JobTitles(ctx, ids)
	if err != nil {
		r.logger.LogError(err, "Failed to resolve original job titles", "job_id", jobID, "jobs", len(ids))
		return
	}

	for i := range entries {
		e := &entries[i]
		if e.OriginalJobID == "" || e.OriginalJobID == jobID {
			continue
		}
		if title, ok := titles[e.OriginalJobID]; ok {
			e.OriginalJobTitle = &title
		}
	}
}
