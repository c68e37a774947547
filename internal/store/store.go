// Package store persists job postings and candidate profiles and serves the
// vector and lexical searches used by retrieval.
package store

import (
	"context"

	"talentmatch/internal/types"
)

// Filter scopes a search. An empty JobID searches the whole corpus.
type Filter struct {
	JobID string
}

// Scored is one search hit with its raw component score. Higher is better.
type Scored struct {
	Profile types.CandidateProfile
	Score   float64
}

// Store is the persistence contract used by the engine.
type Store interface {
	UpsertJob(ctx context.Context, job types.JobPosting) error
	// GetJob returns nil, nil when the job does not exist.
	GetJob(ctx context.Context, jobID string) (*types.JobPosting, error)
	ListJobs(ctx context.Context, limit int) ([]types.JobSummary, error)
	// JobTitles resolves titles for ids; missing jobs are absent from the map.
	JobTitles(ctx context.Context, jobIDs []string) (map[string]string, error)

	// UpsertCandidate inserts or replaces a candidate by candidate_id. A row
	// with the same (job_id, source_digest) and a different candidate_id is
	// deleted in the same transaction; the number of such rows is returned.
	UpsertCandidate(ctx context.Context, c types.CandidateProfile) (int, error)
	CountCandidates(ctx context.Context, jobID string) (int, error)

	VectorSearch(ctx context.Context, vector []float32, filter Filter, limit int) ([]Scored, error)
	LexicalSearch(ctx context.Context, query string, filter Filter, limit int) ([]Scored, error)

	Ping(ctx context.Context) error
	Close()
}
