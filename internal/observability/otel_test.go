package observability

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"talentmatch/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilManagerIsSafe(t *testing.T) {
	var om *ObservabilityManager

	assert.Nil(t, om.GetMetrics())
	assert.NotNil(t, om.Tracer("test"))
	assert.NoError(t, om.ServeMetrics(errors.Discard()))
	assert.Empty(t, om.MetricsAddr())
	assert.NoError(t, om.Shutdown(context.Background()))

	h := om.HTTPMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestDisabledManager(t *testing.T) {
	om, err := NewObservabilityManager(ObservabilityConfig{ServiceName: "talentmatch", Enabled: false})
	require.NoError(t, err)

	assert.Nil(t, om.GetMetrics())
	assert.NoError(t, om.ServeMetrics(errors.Discard()))
	assert.Empty(t, om.MetricsAddr())
	assert.NoError(t, om.Shutdown(context.Background()))
}

func TestPrometheusEndpoint(t *testing.T) {
	om, err := NewObservabilityManager(ObservabilityConfig{
		ServiceName:   "talentmatch-test",
		Enabled:       true,
		SampleRate:    1,
		Prometheus:    PrometheusConfig{Enabled: true, Endpoint: "/metrics", Port: "0"},
		CustomMetrics: allMetricsEnabled(),
	})
	require.NoError(t, err)
	require.NotNil(t, om.GetMetrics())

	// No listener until asked.
	assert.Empty(t, om.MetricsAddr())

	require.NoError(t, om.ServeMetrics(errors.Discard()))
	_, port, err := net.SplitHostPort(om.MetricsAddr())
	require.NoError(t, err)

	om.GetMetrics().RecordJobCreated(context.Background())

	resp, err := http.Get("http://127.0.0.1:" + port + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "target_info")
	assert.Contains(t, string(body), `service_name="talentmatch-test"`)

	require.NoError(t, om.Shutdown(context.Background()))
	_, err = http.Get("http://127.0.0.1:" + port + "/metrics")
	assert.Error(t, err)
}

func TestServeMetricsPortInUse(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer ln.Close()
	_, port, _ := net.SplitHostPort(ln.Addr().String())

	om, err := NewObservabilityManager(ObservabilityConfig{
		ServiceName: "talentmatch-test",
		Enabled:     true,
		Prometheus:  PrometheusConfig{Enabled: true, Endpoint: "/metrics", Port: port},
	})
	require.NoError(t, err)
	defer om.Shutdown(context.Background())

	err = om.ServeMetrics(errors.Discard())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrorTypeConfig))
}
