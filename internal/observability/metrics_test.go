package observability

import (
	"context"
	"errors"
	"testing"

	"talentmatch/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func allMetricsEnabled() config.CustomMetricsConfig {
	return config.CustomMetricsConfig{
		AIOperations:    config.AIOperationsMetricsConfig{Enabled: true, TrackDuration: true, TrackTokenUsage: true},
		BusinessMetrics: config.BusinessMetricsConfig{Enabled: true, TrackScreening: true, TrackIngestion: true, TrackScoreSpread: true},
		Infrastructure:  config.InfrastructureMetricsConfig{Enabled: true, TrackRateLimits: true},
	}
}

func collectSum(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func newTestMetrics(t *testing.T, settings config.CustomMetricsConfig) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := newMetrics(mp.Meter("test"), settings)
	require.NoError(t, err)
	return m, reader
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()

	m.RecordScreeningRun(ctx, "all_candidates", true)
	m.RecordRetrievalPool(ctx, "scoped", 3)
	m.RecordEvaluation(ctx, nil, 50)
	m.RecordIngestion(ctx, 1, 1)
	m.RecordJobCreated(ctx)
	m.RecordRateLimitHit(ctx)

	want := errors.New("boom")
	err := m.TrackAIOperation(ctx, "evaluate", func(context.Context) *AIOperationResult {
		return &AIOperationResult{Error: want}
	})
	assert.ErrorIs(t, err, want)
}

func TestRecordEvaluation(t *testing.T) {
	m, reader := newTestMetrics(t, allMetricsEnabled())
	ctx := context.Background()

	m.RecordEvaluation(ctx, nil, 80)
	m.RecordEvaluation(ctx, nil, 40)
	m.RecordEvaluation(ctx, errors.New("schema"), 0)

	assert.Equal(t, int64(2), collectSum(t, reader, "talentmatch_candidates_evaluated_total"))
	assert.Equal(t, int64(1), collectSum(t, reader, "talentmatch_evaluation_failures_total"))
}

func TestBusinessMetricsDisabled(t *testing.T) {
	settings := allMetricsEnabled()
	settings.BusinessMetrics.Enabled = false
	m, reader := newTestMetrics(t, settings)

	m.RecordScreeningRun(context.Background(), "applied_only", true)
	assert.Equal(t, int64(0), collectSum(t, reader, "talentmatch_screening_runs_total"))
}

func TestTrackAIOperationCountsErrors(t *testing.T) {
	m, reader := newTestMetrics(t, allMetricsEnabled())
	ctx := context.Background()

	_ = m.TrackAIOperation(ctx, "embed", func(context.Context) *AIOperationResult { return nil })
	_ = m.TrackAIOperation(ctx, "evaluate", func(context.Context) *AIOperationResult {
		return &AIOperationResult{Error: errors.New("unavailable"), TokenUsage: &TokenUsage{InputTokens: 10}}
	})

	assert.Equal(t, int64(2), collectSum(t, reader, "talentmatch_ai_requests_total"))
	assert.Equal(t, int64(1), collectSum(t, reader, "talentmatch_ai_errors_total"))
}
