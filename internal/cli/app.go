package cli

import (
	"context"
	"fmt"
	"time"

	"talentmatch/internal/ai"
	"talentmatch/internal/config"
	"talentmatch/internal/errors"
	"talentmatch/internal/evaluation"
	"talentmatch/internal/events"
	"talentmatch/internal/ingest"
	"talentmatch/internal/jobs"
	"talentmatch/internal/observability"
	"talentmatch/internal/ranking"
	"talentmatch/internal/retrieval"
	"talentmatch/internal/screening"
	"talentmatch/internal/store"
)

// app owns every long-lived handle a command needs. Nothing is global;
// each command builds one and closes it when done.
type app struct {
	cfg    *config.Config
	logger *errors.Logger

	om        *observability.ObservabilityManager
	store     *store.Postgres
	ai        *ai.Service
	publisher events.Publisher

	uploads   *ingest.Uploads
	jobs      *jobs.Service
	screening *screening.Service
	ingest    *ingest.Service
}

// newApp wires the store, AI provider, event publisher and services.
func newApp(ctx context.Context, cfg *config.Config, logger *errors.Logger) (*app, error) {
	om, err := observability.NewObservabilityManager(observability.GetObservabilityConfig(cfg, Version))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}
	a := &app{cfg: cfg, logger: logger, om: om}
	metrics := om.GetMetrics()

	if a.store, err = store.Open(ctx, cfg.Store, logger); err != nil {
		a.Close()
		return nil, err
	}

	if a.ai, err = ai.NewService(cfg, logger, metrics); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create AI service: %w", err)
	}

	if a.publisher, err = events.NewPublisher(cfg.Events, logger); err != nil {
		a.Close()
		return nil, err
	}

	a.uploads = ingest.NewUploads(cfg.Ingest, logger)
	sources := []ingest.Source{a.uploads}
	if cfg.Ingest.S3.Enabled {
		s3src, err := ingest.NewS3Source(ctx, cfg.Ingest, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		sources = append(sources, s3src)
	}

	provider := a.ai.Provider
	a.jobs = jobs.NewService(a.store, provider, provider, logger, metrics)
	a.screening = screening.NewService(screening.Options{
		Store:       a.store,
		Retriever:   retrieval.New(a.store, cfg.Screening, logger, metrics),
		Evaluator:   evaluation.New(provider, cfg.Screening.EvaluationTimeout, logger, metrics),
		Ranker:      ranking.New(a.store, logger),
		Publisher:   a.publisher,
		Concurrency: cfg.Screening.Concurrency,
		Logger:      logger,
		Metrics:     metrics,
	})
	a.ingest = ingest.NewService(ingest.Options{
		Store:           a.store,
		Extractor:       provider,
		Summarizer:      provider,
		Embedder:        provider,
		Sources:         sources,
		Publisher:       a.publisher,
		Concurrency:     cfg.Ingest.Concurrency,
		DocumentTimeout: cfg.Ingest.ExtractTimeout,
		Logger:          logger,
		Metrics:         metrics,
	})
	return a, nil
}

// Close releases handles in reverse order of acquisition.
func (a *app) Close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.LogError(err, "Failed to close event publisher")
		}
	}
	if a.ai != nil {
		if err := a.ai.Close(); err != nil {
			a.logger.LogError(err, "Failed to close AI service")
		}
	}
	if a.store != nil {
		a.store.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.om.Shutdown(ctx); err != nil {
		a.logger.LogError(err, "Failed to shutdown observability")
	}
}
