// Package retrieval runs the hybrid lexical and vector candidate search,
// optionally scoped to the applicants of one job.
package retrieval

import (
	"context"

	"talentmatch/internal/config"
	"talentmatch/internal/errors"
	"talentmatch/internal/observability"
	"talentmatch/internal/store"
	"talentmatch/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// Pool modes, used as metric and log labels
const (
	ModeScoped     = "scoped"
	ModeCorpusWide = "corpus_wide"
)

// Retriever fetches candidate pools for a job
type Retriever struct {
	store        store.Store
	vectorWeight float64
	poolRatio    int
	safetyLimit  int
	logger       *errors.Logger
	metrics      *observability.Metrics
}

// New creates a Retriever. metrics may be nil.
func New(st store.Store, cfg config.ScreeningConfig, logger *errors.Logger, metrics *observability.Metrics) *Retriever {
	ratio := cfg.CandidatePoolRatio
	if ratio < 1 {
		ratio = 1
	}
	return &Retriever{
		store:        st,
		vectorWeight: cfg.VectorWeight,
		poolRatio:    ratio,
		safetyLimit:  cfg.SafetyLimit,
		logger:       logger,
		metrics:      metrics,
	}
}

// CorpusWideLimit is the pool size for a corpus-wide search:
// min(topK, maxAllCandidatesLimit, safetyLimit). Non-positive caps are ignored.
func (r *Retriever) CorpusWideLimit(topK, maxAllCandidatesLimit int) int {
	limit := topK
	if maxAllCandidatesLimit > 0 {
		limit = min(limit, maxAllCandidatesLimit)
	}
	if r.safetyLimit > 0 {
		limit = min(limit, r.safetyLimit)
	}
	return limit
}

// Retrieve returns the candidate pool for params. In all-candidates mode
// the scoped and corpus-wide pools are fetched concurrently and merged with
// applied entries taking precedence; scoped entries come first.
func (r *Retriever) Retrieve(ctx context.Context, job *types.JobPosting, params types.ScreeningParams) ([]types.RetrievedCandidate, error) {
	if job == nil {
		return nil, errors.NewNotFoundError(errors.ErrCodeJobNotFound, "job not found", nil).
			WithContext("job_id", params.JobID)
	}
	if !job.HasVector() {
		return nil, errors.NewNotFoundError(errors.ErrCodeJobNotIndexed, "job has no description vector", nil).
			WithContext("job_id", job.JobID)
	}

	ctx, span := otel.Tracer("talentmatch.retrieval").Start(ctx, "retrieval.retrieve")
	defer span.End()
	span.SetAttributes(
		attribute.String("job_id", job.JobID),
		attribute.Int("top_k", params.TopK),
		attribute.Bool("search_all_candidates", params.SearchAllCandidates),
	)

	if !params.SearchAllCandidates {
		return r.Scoped(ctx, job, params.TopK)
	}

	var scoped, corpus []types.RetrievedCandidate
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		scoped, err = r.Scoped(gctx, job, params.TopK)
		return err
	})
	g.Go(func() error {
		var err error
		corpus, err = r.CorpusWide(gctx, job, r.CorpusWideLimit(params.TopK, params.MaxAllCandidatesLimit))
		return err
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	merged := Merge(scoped, corpus)
	r.logger.Debug("Merged retrieval pools",
		"job_id", job.JobID,
		"scoped", len(scoped),
		"corpus_wide", len(corpus),
		"merged", len(merged))
	return merged, nil
}

// Scoped searches only the job's own applicants. Every result is applied.
func (r *Retriever) Scoped(ctx context.Context, job *types.JobPosting, topK int) ([]types.RetrievedCandidate, error) {
	fused, err := r.hybrid(ctx, job, store.Filter{JobID: job.JobID}, topK)
	if err != nil {
		return nil, err
	}

	out := make([]types.RetrievedCandidate, 0, len(fused))
	for _, f := range fused {
		out = append(out, toRetrieved(f, true, false))
	}
	r.metrics.RecordRetrievalPool(ctx, ModeScoped, len(out))
	return out, nil
}

// CorpusWide searches every candidate up to limit and tags provenance.
func (r *Retriever) CorpusWide(ctx context.Context, job *types.JobPosting, limit int) ([]types.RetrievedCandidate, error) {
	fused, err := r.hybrid(ctx, job, store.Filter{}, limit)
	if err != nil {
		return nil, err
	}

	out := make([]types.RetrievedCandidate, 0, len(fused))
	for _, f := range fused {
		out = append(out, toRetrieved(f, f.Profile.JobID == job.JobID, true))
	}
	r.metrics.RecordRetrievalPool(ctx, ModeCorpusWide, len(out))
	return out, nil
}

func (r *Retriever) hybrid(ctx context.Context, job *types.JobPosting, filter store.Filter, limit int) ([]Fused, error) {
	if limit <= 0 {
		return nil, nil
	}
	fetch := limit * r.poolRatio
	query := lexicalQuery(job)

	var vectorHits, lexicalHits []store.Scored
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		vectorHits, err = r.store.VectorSearch(gctx, job.Vector, filter, fetch)
		return err
	})
	g.Go(func() error {
		var err error
		lexicalHits, err = r.store.LexicalSearch(gctx, query, filter, fetch)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	fused := Fuse(vectorHits, lexicalHits, r.vectorWeight)
	if len(fused) > limit {
		fused = fused[:limit]
	}
	return fused, nil
}

func lexicalQuery(job *types.JobPosting) string {
	return job.Title + "\n" + job.Description
}

func toRetrieved(f Fused, applied, corpusWide bool) types.RetrievedCandidate {
	return types.RetrievedCandidate{
		Profile:        f.Profile,
		Score:          f.Score,
		AppliedToJob:   applied,
		OriginalJobID:  f.Profile.JobID,
		VectorScore:    f.VectorScore,
		LexicalScore:   f.LexicalScore,
		FromCorpusWide: corpusWide,
	}
}

// Merge concatenates pools, keeping one entry per candidate_id. An applied
// entry replaces an earlier non-applied one in place; otherwise the first
// occurrence wins.
func Merge(pools ...[]types.RetrievedCandidate) []types.RetrievedCandidate {
	index := make(map[string]int)
	var out []types.RetrievedCandidate
	for _, pool := range pools {
		for _, c := range pool {
			id := c.Profile.CandidateID
			i, seen := index[id]
			if !seen {
				index[id] = len(out)
				out = append(out, c)
				continue
			}
			if c.AppliedToJob && !out[i].AppliedToJob {
				out[i] = c
			}
		}
	}
	return out
}
