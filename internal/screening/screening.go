// Package screening runs the full pipeline for one job: retrieval, bounded
// parallel evaluation, then merging and ranking.
package screening

import (
	"context"
	"fmt"
	"time"

	"talentmatch/internal/errors"
	"talentmatch/internal/evaluation"
	"talentmatch/internal/events"
	"talentmatch/internal/observability"
	"talentmatch/internal/ranking"
	"talentmatch/internal/retrieval"
	"talentmatch/internal/store"
	"talentmatch/internal/types"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// Service runs screening requests. It holds no per-run state.
type Service struct {
	store       store.Store
	retriever   *retrieval.Retriever
	evaluator   *evaluation.Evaluator
	ranker      *ranking.Ranker
	publisher   events.Publisher
	concurrency int
	logger      *errors.Logger
	metrics     *observability.Metrics
}

// Options wires a Service. Publisher and Metrics may be nil.
type Options struct {
	Store       store.Store
	Retriever   *retrieval.Retriever
	Evaluator   *evaluation.Evaluator
	Ranker      *ranking.Ranker
	Publisher   events.Publisher
	Concurrency int
	Logger      *errors.Logger
	Metrics     *observability.Metrics
}

func NewService(opts Options) *Service {
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	publisher := opts.Publisher
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Service{
		store:       opts.Store,
		retriever:   opts.Retriever,
		evaluator:   opts.Evaluator,
		ranker:      opts.Ranker,
		publisher:   publisher,
		concurrency: concurrency,
		logger:      opts.Logger,
		metrics:     opts.Metrics,
	}
}

// slot holds one candidate's evaluation outcome
type slot struct {
	eval *types.Evaluation
	err  error
}

// Run screens candidates for req.JobID. A missing job or a job without a
// description vector fails before any oracle call. Per-candidate failures
// are reported in the response and never abort the run.
func (s *Service) Run(ctx context.Context, req types.ScreeningRequest) (*types.ScreeningResponse, error) {
	if err := types.Validate(req); err != nil {
		return nil, err
	}
	params := req.Resolve()
	runID := uuid.NewString()
	start := time.Now()

	ctx, span := otel.Tracer("talentmatch.screening").Start(ctx, "screening.run")
	defer span.End()
	span.SetAttributes(
		attribute.String("run_id", runID),
		attribute.String("job_id", params.JobID),
		attribute.Int("top_k", params.TopK),
		attribute.Int("top_k_evaluated", params.TopKEvaluated),
	)

	searchType := types.SearchTypeAppliedOnly
	if params.SearchAllCandidates {
		searchType = types.SearchTypeAllCandidates
	}

	job, err := s.loadJob(ctx, params.JobID)
	if err != nil {
		s.metrics.RecordScreeningRun(ctx, searchType, false)
		return nil, err
	}

	logger := s.logger.With("run_id", runID, "job_id", job.JobID)
	logger.Info("Starting screening",
		"top_k", params.TopK,
		"top_k_evaluated", params.TopKEvaluated,
		"search_all_candidates", params.SearchAllCandidates,
		"max_all_candidates_limit", params.MaxAllCandidatesLimit)
	events.Emit(ctx, s.publisher, logger, events.New(events.ScreeningStarted, job.JobID, runID, map[string]any{
		"search_type": searchType,
	}))

	resp, err := s.run(ctx, job, params, runID, searchType, logger)
	s.metrics.RecordScreeningRun(ctx, searchType, err == nil)
	if err != nil {
		span.RecordError(err)
		events.Emit(ctx, s.publisher, logger, events.New(events.ScreeningFailed, job.JobID, runID, map[string]any{
			"error": err.Error(),
		}))
		return nil, err
	}

	logger.Info("Screening finished",
		"retrieved", resp.Stats.Retrieved,
		"evaluated", resp.Stats.TotalEvaluated,
		"failed", resp.Stats.Failed,
		"returned", resp.Stats.ReturnedCount,
		"duration_ms", time.Since(start).Milliseconds())
	events.Emit(ctx, s.publisher, logger, events.New(events.ScreeningFinished, job.JobID, runID, map[string]any{
		"returned_count": resp.Stats.ReturnedCount,
		"failed":         resp.Stats.Failed,
	}))
	return resp, nil
}

func (s *Service) loadJob(ctx context.Context, jobID string) (*types.JobPosting, error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, errors.NewNotFoundError(errors.ErrCodeJobNotFound, "job not found", nil).
			WithContext("job_id", jobID)
	}
	if !job.HasVector() {
		return nil, errors.NewNotFoundError(errors.ErrCodeJobNotIndexed, "job has no description vector", nil).
			WithContext("job_id", jobID)
	}
	return job, nil
}

func (s *Service) run(ctx context.Context, job *types.JobPosting, params types.ScreeningParams, runID, searchType string, logger *errors.Logger) (*types.ScreeningResponse, error) {
	pool, err := s.retriever.Retrieve(ctx, job, params)
	if err != nil {
		return nil, err
	}

	slots := s.evaluate(ctx, job, pool)
	if err := ctx.Err(); err != nil {
		return nil, errors.NewUpstreamError(errors.ErrCodeOracleUnavailable, "screening run aborted", err)
	}

	entries := make([]types.RankedResult, 0, len(pool))
	candidateErrors := []types.CandidateError{}
	for i, c := range pool {
		if slots[i].err != nil {
			logger.LogError(slots[i].err, "Evaluation failed", "candidate_id", c.Profile.CandidateID)
			candidateErrors = append(candidateErrors, types.CandidateError{
				CandidateID: c.Profile.CandidateID,
				Stage:       "evaluation",
				Type:        string(errors.TypeOf(slots[i].err)),
				Message:     slots[i].err.Error(),
			})
			continue
		}
		entries = append(entries, types.RankedResult{
			CandidateID:    c.Profile.CandidateID,
			Candidate:      c.Profile,
			Evaluation:     *slots[i].eval,
			RetrievalScore: c.Score,
			AppliedToJob:   c.AppliedToJob,
			OriginalJobID:  c.OriginalJobID,
		})
	}
	totalEvaluated := len(entries)

	ranked := s.ranker.Rank(ctx, job.JobID, entries, params.TopKEvaluated)

	return &types.ScreeningResponse{
		RunID:               runID,
		JobID:               job.JobID,
		JobTitle:            job.Title,
		SearchType:          searchType,
		Evaluated:           ranked.Evaluated,
		AppliedCandidates:   ranked.Applied,
		PotentialCandidates: ranked.Potential,
		Stats: types.ScreeningStats{
			Retrieved:           len(pool),
			TotalEvaluated:      totalEvaluated,
			Failed:              len(candidateErrors),
			AppliedCandidates:   len(ranked.Applied),
			PotentialCandidates: len(ranked.Potential),
			ReturnedCount:       len(ranked.Evaluated),
		},
		Errors: candidateErrors,
	}, nil
}

// evaluate scores every pooled candidate with at most s.concurrency oracle
// calls in flight. Each task writes only its own slot.
func (s *Service) evaluate(ctx context.Context, job *types.JobPosting, pool []types.RetrievedCandidate) []slot {
	slots := make([]slot, len(pool))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i := range pool {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				slots[i].err = err
				return nil
			}
			eval, err := s.evaluator.Evaluate(ctx, job, pool[i].Profile)
			if err == nil && eval == nil {
				err = errors.NewInternalError(errors.ErrCodeSchemaViolation,
					fmt.Sprintf("no evaluation for candidate %s", pool[i].Profile.CandidateID), nil)
			}
			slots[i] = slot{eval: eval, err: err}
			return nil
		})
	}
	_ = g.Wait()
	return slots
}

// Summary reports ingestion counts for a job. Every stage count equals the
// number of candidates ingested against the job; no pre-filter runs.
func (s *Service) Summary(ctx context.Context, jobID string) (*types.ScreeningSummary, error) {
	if jobID == "" {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, "job_id is required", nil)
	}
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, errors.NewNotFoundError(errors.ErrCodeJobNotFound, "job not found", nil).
			WithContext("job_id", jobID)
	}

	n, err := s.store.CountCandidates(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return &types.ScreeningSummary{
		JobID:               jobID,
		FastFilterProcessed: n,
		FastFilterFiltered:  0,
		SemanticMatched:     n,
		LLMEvaluated:        n,
	}, nil
}
