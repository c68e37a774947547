// Package jobs creates, describes and lists job postings.
package jobs

import (
	"context"
	"strings"
	"time"

	"talentmatch/internal/ai"
	"talentmatch/internal/errors"
	"talentmatch/internal/identity"
	"talentmatch/internal/normalize"
	"talentmatch/internal/observability"
	"talentmatch/internal/store"
	"talentmatch/internal/types"
)

// MaxListLimit caps a job listing.
const MaxListLimit = 200

// Service manages job postings
type Service struct {
	store    store.Store
	writer   ai.JobWriter
	embedder ai.Embedder
	now      func() time.Time
	logger   *errors.Logger
	metrics  *observability.Metrics
}

// NewService creates a job Service. metrics may be nil.
func NewService(st store.Store, writer ai.JobWriter, embedder ai.Embedder, logger *errors.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		store:    st,
		writer:   writer,
		embedder: embedder,
		now:      time.Now,
		logger:   logger,
		metrics:  metrics,
	}
}

// Generate drafts a markdown job description from hiring inputs.
func (s *Service) Generate(ctx context.Context, req types.JobRequest) (*types.GeneratedJob, error) {
	if err := types.Validate(req); err != nil {
		return nil, err
	}

	description, _, err := s.writer.DescribeJob(ctx, req)
	if err != nil {
		return nil, upstream(err, "job description generation failed")
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, errors.NewUpstreamError(errors.ErrCodeOracleUnavailable, "empty job description", nil)
	}

	s.logger.Info("Generated job description", "job_title", req.JobTitle, "length", len(description))
	return &types.GeneratedJob{JobTitle: req.JobTitle, JobDescription: description}, nil
}

// Create stores a job and its description vector. The job ID derives from
// the title and the current UTC day, so re-creating a job with the same
// title on the same day replaces it.
func (s *Service) Create(ctx context.Context, req types.CreateJobRequest) (*types.JobPosting, error) {
	if err := types.Validate(req); err != nil {
		return nil, err
	}
	req, err := normalize.New(s.now).Job(req)
	if err != nil {
		return nil, err
	}

	created := identity.CreationDay(s.now())
	vector, err := s.embedder.Embed(ctx, req.JobDescription)
	if err != nil {
		if errors.TypeOf(err) == errors.ErrorTypeInternal {
			err = errors.NewUpstreamError(errors.ErrCodeEmbeddingFailed, "failed to embed job description", err)
		}
		return nil, err
	}

	job := types.JobPosting{
		JobID:       identity.JobID(req.JobTitle, created),
		Title:       req.JobTitle,
		Description: req.JobDescription,
		CreatedAt:   created,
		Vector:      vector,
	}
	if err := s.store.UpsertJob(ctx, job); err != nil {
		return nil, err
	}

	s.metrics.RecordJobCreated(ctx)
	s.logger.Info("Created job", "job_id", job.JobID, "job_title", job.Title)
	return &job, nil
}

// List returns up to limit jobs, newest first. A zero limit means
// DefaultListJobsLimit.
func (s *Service) List(ctx context.Context, limit int) ([]types.JobSummary, error) {
	if limit == 0 {
		limit = types.DefaultListJobsLimit
	}
	if err := types.Validate(types.ListJobsRequest{Limit: limit}); err != nil {
		return nil, err
	}

	jobs, err := s.store.ListJobs(ctx, limit)
	if err != nil {
		return nil, err
	}
	if jobs == nil {
		jobs = []types.JobSummary{}
	}
	return jobs, nil
}

// Get returns one job.
func (s *Service) Get(ctx context.Context, jobID string) (*types.JobPosting, error) {
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
	return job, nil
}

func upstream(err error, msg string) error {
	if errors.TypeOf(err) != errors.ErrorTypeInternal {
		return err
	}
	return errors.NewUpstreamError(errors.ErrCodeOracleUnavailable, msg, err)
}
