// Package ingest turns resume documents into stored candidate profiles:
// upload management, text extraction, structured extraction, summary,
// embedding and upsert.
package ingest

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"talentmatch/internal/ai"
	"talentmatch/internal/errors"
	"talentmatch/internal/events"
	"talentmatch/internal/identity"
	"talentmatch/internal/normalize"
	"talentmatch/internal/observability"
	"talentmatch/internal/schemas"
	"talentmatch/internal/store"
	"talentmatch/internal/types"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// Ingestion stages, reported on per-document errors
const (
	StageExtract   = "extract"
	StageProfile   = "profile"
	StageNormalize = "normalize"
	StageSummary   = "summary"
	StageEmbed     = "embed"
	StageStore     = "store"
)

// Source lists the resume documents available for a job.
type Source interface {
	Documents(ctx context.Context, jobID string) ([]Document, error)
}

// Options wires a Service. Publisher and Metrics may be nil.
type Options struct {
	Store       store.Store
	Extractor   ai.ProfileExtractor
	Summarizer  ai.Summarizer
	Embedder    ai.Embedder
	Sources     []Source
	Publisher   events.Publisher
	Concurrency int
	// DocumentTimeout bounds the work on a single document; zero means none.
	DocumentTimeout time.Duration
	Logger          *errors.Logger
	Metrics         *observability.Metrics
}

// Service runs resume ingestion for a job
type Service struct {
	store           store.Store
	extractor       ai.ProfileExtractor
	summarizer      ai.Summarizer
	embedder        ai.Embedder
	sources         []Source
	publisher       events.Publisher
	concurrency     int
	documentTimeout time.Duration
	normalizer      *normalize.Normalizer
	logger          *errors.Logger
	metrics         *observability.Metrics
}

func NewService(opts Options) *Service {
	concurrency := max(opts.Concurrency, 1)
	publisher := opts.Publisher
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Service{
		store:           opts.Store,
		extractor:       opts.Extractor,
		summarizer:      opts.Summarizer,
		embedder:        opts.Embedder,
		sources:         opts.Sources,
		publisher:       publisher,
		concurrency:     concurrency,
		documentTimeout: opts.DocumentTimeout,
		normalizer:      normalize.New(nil),
		logger:          opts.Logger,
		metrics:         opts.Metrics,
	}
}

type outcome struct {
	candidateID string
	replaced    int
	stage       string
	err         error
}

// Process ingests every document available for jobID. Documents that fail
// are reported and skipped. It fails when the job is missing, when there
// are no documents and when no document produced a candidate.
func (s *Service) Process(ctx context.Context, jobID string) (*types.IngestReport, error) {
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

	ctx, span := otel.Tracer("talentmatch.ingest").Start(ctx, "ingest.process")
	defer span.End()
	span.SetAttributes(attribute.String("job_id", jobID))

	docs, err := s.collect(ctx, jobID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if len(docs) == 0 {
		return nil, errors.NewValidationError(errors.ErrCodeNoDocuments, "no resume documents found for job", nil).
			WithContext("job_id", jobID)
	}

	runID := uuid.NewString()
	logger := s.logger.With("run_id", runID, "job_id", jobID)
	logger.Info("Starting ingestion", "documents", len(docs), "concurrency", s.concurrency)
	start := time.Now()

	outcomes := make([]outcome, len(docs))
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i := range docs {
		g.Go(func() error {
			outcomes[i] = s.processDocument(ctx, job, docs[i])
			return nil
		})
	}
	_ = g.Wait()

	report := &types.IngestReport{JobID: jobID, Inserted: []string{}, Errors: []types.IngestError{}}
	for i, o := range outcomes {
		if o.err != nil {
			logger.LogError(o.err, "Document ingestion failed", "source", docs[i].Name, "stage", o.stage)
			report.Errors = append(report.Errors, types.IngestError{
				Source:  docs[i].Name,
				Stage:   o.stage,
				Type:    string(errors.TypeOf(o.err)),
				Message: o.err.Error(),
			})
			continue
		}
		report.Inserted = append(report.Inserted, o.candidateID)
		report.Replaced += o.replaced
	}
	report.TotalCandidates = len(report.Inserted)

	s.metrics.RecordIngestion(ctx, report.TotalCandidates, len(report.Errors))
	events.Emit(ctx, s.publisher, logger, events.New(events.IngestFinished, jobID, runID, map[string]any{
		"inserted": report.TotalCandidates,
		"failed":   len(report.Errors),
	}))
	logger.Info("Ingestion finished",
		"inserted", report.TotalCandidates,
		"replaced", report.Replaced,
		"failed", len(report.Errors),
		"duration_ms", time.Since(start).Milliseconds())

	if report.TotalCandidates == 0 {
		return nil, errors.NewSchemaError(errors.ErrCodeNoCandidatesParsed, "no candidates could be parsed from the documents", nil).
			WithContext("job_id", jobID).
			WithContext("documents", len(docs))
	}
	return report, nil
}

// collect reads all sources, dropping byte-identical duplicates.
func (s *Service) collect(ctx context.Context, jobID string) ([]Document, error) {
	seen := make(map[string]bool)
	var docs []Document
	for _, src := range s.sources {
		found, err := src.Documents(ctx, jobID)
		if err != nil {
			return nil, err
		}
		for _, d := range found {
			digest := identity.SourceDigest(d.Data)
			if seen[digest] {
				s.logger.Debug("Skipping duplicate document", "job_id", jobID, "source", d.Name)
				continue
			}
			seen[digest] = true
			docs = append(docs, d)
		}
	}
	return docs, nil
}

func (s *Service) processDocument(ctx context.Context, job *types.JobPosting, doc Document) outcome {
	if s.documentTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.documentTimeout)
		defer cancel()
	}
	fail := func(stage string, err error) outcome { return outcome{stage: stage, err: err} }

	text, err := ExtractText(doc.Name, doc.Data)
	if err != nil {
		return fail(StageExtract, err)
	}

	raw, _, err := s.extractor.ExtractProfile(ctx, text)
	if err != nil {
		return fail(StageProfile, upstream(err, "profile extraction failed"))
	}
	if err := schemas.Validate(schemas.ProfileV1, raw); err != nil {
		return fail(StageProfile, err)
	}

	profile, err := s.normalizer.Profile(raw)
	if err != nil {
		return fail(StageNormalize, err)
	}
	profile.JobID = job.JobID

	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return fail(StageSummary, errors.NewInternalError(errors.ErrCodeInvalidFormat, "failed to encode profile", err))
	}
	summary, _, err := s.summarizer.SummarizeProfile(ctx, profileJSON)
	if err != nil {
		return fail(StageSummary, upstream(err, "profile summary failed"))
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return fail(StageSummary, errors.NewUpstreamError(errors.ErrCodeOracleUnavailable, "empty profile summary", nil))
	}

	vector, err := s.embedder.Embed(ctx, summary)
	if err != nil {
		if errors.TypeOf(err) == errors.ErrorTypeInternal {
			err = errors.NewUpstreamError(errors.ErrCodeEmbeddingFailed, "failed to embed summary", err)
		}
		return fail(StageEmbed, err)
	}

	profile.ResumeSummary = summary
	profile.SummaryVector = vector
	profile.CandidateID = identity.CandidateID(profile.Name, summary)
	profile.SourceDigest = identity.SourceDigest(doc.Data)

	replaced, err := s.store.UpsertCandidate(ctx, profile)
	if err != nil {
		return fail(StageStore, err)
	}
	if replaced > 0 {
		s.logger.Info("Replaced previous candidate for document",
			"job_id", job.JobID,
			"candidate_id", profile.CandidateID,
			"source", doc.Name,
			"replaced", replaced)
	}
	return outcome{candidateID: profile.CandidateID, replaced: replaced}
}

func upstream(err error, msg string) error {
	if errors.TypeOf(err) != errors.ErrorTypeInternal {
		return err
	}
	return errors.NewUpstreamError(errors.ErrCodeOracleUnavailable, msg, err)
}
