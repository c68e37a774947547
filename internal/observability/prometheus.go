package observability

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"talentmatch/internal/config"
	"talentmatch/internal/errors"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// PrometheusConfig holds Prometheus-specific configuration
type PrometheusConfig struct {
	Enabled  bool
	Endpoint string
	Port     string
}

// newPrometheusReader creates an exporter bound to a private registry so
// repeated managers in one process do not collide on the default one.
func newPrometheusReader() (sdkmetric.Reader, http.Handler, error) {
	registry := promclient.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}
	return exporter, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), nil
}

// ServeMetrics exposes the Prometheus endpoint on its own port until
// Shutdown. Only long-running commands call it; one-shot CLI commands keep
// the reader but never bind a port.
func (om *ObservabilityManager) ServeMetrics(logger *errors.Logger) error {
	if om == nil || om.promHandler == nil {
		return nil
	}

	endpoint := om.config.Prometheus.Endpoint
	if endpoint == "" {
		endpoint = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle("GET "+endpoint, om.promHandler)

	// Bind before returning so a taken port fails the command.
	ln, err := net.Listen("tcp", ":"+om.config.Prometheus.Port)
	if err != nil {
		return errors.NewConfigError("METRICS_PORT_UNAVAILABLE",
			fmt.Sprintf("cannot listen for Prometheus metrics on port %s", om.config.Prometheus.Port), err)
	}

	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
			logger.LogError(err, "Prometheus metrics server stopped")
		}
	}()

	om.metricsAddr = ln.Addr().String()
	om.shutdownFuncs = append(om.shutdownFuncs, server.Shutdown)
	logger.Info("Prometheus metrics endpoint started", "address", om.metricsAddr, "path", endpoint)
	return nil
}

// MetricsAddr returns the bound metrics address, or "" when not serving.
func (om *ObservabilityManager) MetricsAddr() string {
	if om == nil {
		return ""
	}
	return om.metricsAddr
}

// GetPrometheusConfig creates Prometheus configuration from provided config
func GetPrometheusConfig(cfg *config.Config) PrometheusConfig {
	if cfg == nil {
		return PrometheusConfig{Enabled: true, Endpoint: "/metrics", Port: "9090"}
	}
	return PrometheusConfig{
		Enabled:  cfg.Observability.Prometheus.Enabled,
		Endpoint: cfg.Observability.Prometheus.Endpoint,
		Port:     cfg.Observability.Prometheus.Port,
	}
}
