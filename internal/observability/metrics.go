package observability

import (
	"context"
	"fmt"
	"time"

	"talentmatch/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// Metrics holds all custom metrics for talentmatch. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	settings config.CustomMetricsConfig

	// AI operation metrics
	AIProcessingTime metric.Float64Histogram
	AIRequestCount   metric.Int64Counter
	AIErrorCount     metric.Int64Counter
	AITokenUsage     metric.Int64Histogram

	// Business metrics
	ScreeningRuns       metric.Int64Counter
	CandidatesEvaluated metric.Int64Counter
	EvaluationFailures  metric.Int64Counter
	RetrievalPoolSize   metric.Int64Histogram
	OverallScores       metric.Int64Histogram
	ResumesIngested     metric.Int64Counter
	JobsCreated         metric.Int64Counter

	// Rate limiting metrics
	RateLimitHits metric.Int64Counter
}

// AIOperationResult holds the result of an AI operation including token usage
type AIOperationResult struct {
	Error      error
	TokenUsage *TokenUsage
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

func newMetrics(meter metric.Meter, settings config.CustomMetricsConfig) (*Metrics, error) {
	m := &Metrics{settings: settings}

	if err := m.createAIMetrics(meter); err != nil {
		return nil, err
	}
	if err := m.createBusinessMetrics(meter); err != nil {
		return nil, err
	}
	if err := m.createRateLimitMetrics(meter); err != nil {
		return nil, err
	}
	return m, nil
}

// createAIMetrics creates AI-related metrics
func (m *Metrics) createAIMetrics(meter metric.Meter) error {
	var err error

	m.AIProcessingTime, err = meter.Float64Histogram(
		"talentmatch_ai_processing_duration_seconds",
		metric.WithDescription("Time spent processing AI requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create AI processing time metric: %w", err)
	}

	m.AIRequestCount, err = meter.Int64Counter(
		"talentmatch_ai_requests_total",
		metric.WithDescription("Total number of AI requests"),
	)
	if err != nil {
		return fmt.Errorf("failed to create AI request count metric: %w", err)
	}

	m.AIErrorCount, err = meter.Int64Counter(
		"talentmatch_ai_errors_total",
		metric.WithDescription("Total number of AI request errors"),
	)
	if err != nil {
		return fmt.Errorf("failed to create AI error count metric: %w", err)
	}

	m.AITokenUsage, err = meter.Int64Histogram(
		"talentmatch_ai_token_usage_total",
		metric.WithDescription("Token usage for AI requests (input, output, total)"),
		metric.WithUnit("tokens"),
	)
	if err != nil {
		return fmt.Errorf("failed to create AI token usage metric: %w", err)
	}

	return nil
}

// createBusinessMetrics creates screening and ingestion metrics
func (m *Metrics) createBusinessMetrics(meter metric.Meter) error {
	var err error

	m.ScreeningRuns, err = meter.Int64Counter(
		"talentmatch_screening_runs_total",
		metric.WithDescription("Total number of screening runs"),
	)
	if err != nil {
		return fmt.Errorf("failed to create screening runs metric: %w", err)
	}

	m.CandidatesEvaluated, err = meter.Int64Counter(
		"talentmatch_candidates_evaluated_total",
		metric.WithDescription("Total number of candidates scored by the oracle"),
	)
	if err != nil {
		return fmt.Errorf("failed to create candidates evaluated metric: %w", err)
	}

	m.EvaluationFailures, err = meter.Int64Counter(
		"talentmatch_evaluation_failures_total",
		metric.WithDescription("Total number of candidate evaluations dropped"),
	)
	if err != nil {
		return fmt.Errorf("failed to create evaluation failures metric: %w", err)
	}

	m.RetrievalPoolSize, err = meter.Int64Histogram(
		"talentmatch_retrieval_pool_size",
		metric.WithDescription("Number of candidates returned by hybrid retrieval"),
	)
	if err != nil {
		return fmt.Errorf("failed to create retrieval pool size metric: %w", err)
	}

	m.OverallScores, err = meter.Int64Histogram(
		"talentmatch_overall_score",
		metric.WithDescription("Distribution of recomputed overall scores"),
	)
	if err != nil {
		return fmt.Errorf("failed to create overall score metric: %w", err)
	}

	m.ResumesIngested, err = meter.Int64Counter(
		"talentmatch_resumes_ingested_total",
		metric.WithDescription("Total number of resumes processed into candidates"),
	)
	if err != nil {
		return fmt.Errorf("failed to create resumes ingested metric: %w", err)
	}

	m.JobsCreated, err = meter.Int64Counter(
		"talentmatch_jobs_created_total",
		metric.WithDescription("Total number of job postings created"),
	)
	if err != nil {
		return fmt.Errorf("failed to create jobs created metric: %w", err)
	}

	return nil
}

// createRateLimitMetrics creates rate limiting metrics
func (m *Metrics) createRateLimitMetrics(meter metric.Meter) error {
	var err error

	m.RateLimitHits, err = meter.Int64Counter(
		"talentmatch_rate_limit_hits_total",
		metric.WithDescription("Total number of rate limit hits"),
	)
	if err != nil {
		return fmt.Errorf("failed to create rate limit hits metric: %w", err)
	}

	return nil
}

// TrackAIOperation instruments an AI operation with tracing, metrics and token usage
func (m *Metrics) TrackAIOperation(ctx context.Context, operation string, fn func(context.Context) *AIOperationResult) error {
	tracer := otel.Tracer("talentmatch.ai")
	ctx, span := tracer.Start(ctx, "ai."+operation)
	defer span.End()

	start := time.Now()
	result := fn(ctx)
	duration := time.Since(start).Seconds()

	var err error
	if result != nil {
		err = result.Error
	}

	if m != nil && m.settings.AIOperations.Enabled {
		m.recordAIMetrics(ctx, operation, err, duration, result, span)
	}

	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("error", true))
	}

	return err
}

// recordAIMetrics records all AI-related metrics
func (m *Metrics) recordAIMetrics(ctx context.Context, operation string, err error, duration float64, result *AIOperationResult, span oteltrace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("operation", operation),
		attribute.Bool("success", err == nil),
	}

	if m.settings.AIOperations.TrackDuration {
		m.AIProcessingTime.Record(ctx, duration, metric.WithAttributes(attrs...))
	}
	m.AIRequestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	if err != nil {
		m.AIErrorCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	m.recordTokenUsage(ctx, result, attrs, span)

	span.SetAttributes(attrs...)
}

// recordTokenUsage records token usage metrics and span attributes
func (m *Metrics) recordTokenUsage(ctx context.Context, result *AIOperationResult, attrs []attribute.KeyValue, span oteltrace.Span) {
	if result == nil || result.TokenUsage == nil {
		return
	}

	if m.settings.AIOperations.TrackTokenUsage {
		tokenTypes := []struct {
			tokenType string
			value     int64
		}{
			{"input", result.TokenUsage.InputTokens},
			{"output", result.TokenUsage.OutputTokens},
			{"total", result.TokenUsage.TotalTokens},
		}
		for _, tt := range tokenTypes {
			tokenAttrs := append(append([]attribute.KeyValue{}, attrs...), attribute.String("token_type", tt.tokenType))
			m.AITokenUsage.Record(ctx, tt.value, metric.WithAttributes(tokenAttrs...))
		}
	}

	// Always on the span for debugging
	span.SetAttributes(
		attribute.Int64("ai.tokens.input", result.TokenUsage.InputTokens),
		attribute.Int64("ai.tokens.output", result.TokenUsage.OutputTokens),
		attribute.Int64("ai.tokens.total", result.TokenUsage.TotalTokens),
	)
}

func (m *Metrics) businessEnabled() bool {
	return m != nil && m.settings.BusinessMetrics.Enabled
}

// RecordScreeningRun records a finished (or failed) screening run
func (m *Metrics) RecordScreeningRun(ctx context.Context, searchType string, success bool) {
	if !m.businessEnabled() || !m.settings.BusinessMetrics.TrackScreening {
		return
	}
	m.ScreeningRuns.Add(ctx, 1, metric.WithAttributes(
		attribute.String("search_type", searchType),
		attribute.Bool("success", success),
	))
}

// RecordRetrievalPool records the size of a retrieval pool
func (m *Metrics) RecordRetrievalPool(ctx context.Context, mode string, size int) {
	if !m.businessEnabled() || !m.settings.BusinessMetrics.TrackScreening {
		return
	}
	m.RetrievalPoolSize.Record(ctx, int64(size), metric.WithAttributes(attribute.String("mode", mode)))
}

// RecordEvaluation records one candidate evaluation outcome. The score is
// only recorded for successful evaluations.
func (m *Metrics) RecordEvaluation(ctx context.Context, err error, overall int) {
	if !m.businessEnabled() || !m.settings.BusinessMetrics.TrackScreening {
		return
	}
	if err != nil {
		m.EvaluationFailures.Add(ctx, 1)
		return
	}
	m.CandidatesEvaluated.Add(ctx, 1)
	if m.settings.BusinessMetrics.TrackScoreSpread {
		m.OverallScores.Record(ctx, int64(overall))
	}
}

// RecordIngestion records the outcome of one resume batch
func (m *Metrics) RecordIngestion(ctx context.Context, inserted, failed int) {
	if !m.businessEnabled() || !m.settings.BusinessMetrics.TrackIngestion {
		return
	}
	m.ResumesIngested.Add(ctx, int64(inserted), metric.WithAttributes(attribute.Bool("success", true)))
	if failed > 0 {
		m.ResumesIngested.Add(ctx, int64(failed), metric.WithAttributes(attribute.Bool("success", false)))
	}
}

// RecordJobCreated records a job posting upsert
func (m *Metrics) RecordJobCreated(ctx context.Context) {
	if !m.businessEnabled() {
		return
	}
	m.JobsCreated.Add(ctx, 1)
}

// RecordRateLimitHit records a rejected request
func (m *Metrics) RecordRateLimitHit(ctx context.Context, attrs ...attribute.KeyValue) {
	if m == nil || !m.settings.Infrastructure.Enabled || !m.settings.Infrastructure.TrackRateLimits {
		return
	}
	m.RateLimitHits.Add(ctx, 1, metric.WithAttributes(attrs...))
}
