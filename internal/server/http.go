package server

import (
	"context"
	"time"

	"talentmatch/internal/ai"
	"talentmatch/internal/config"
	"talentmatch/internal/errors"
	"talentmatch/internal/ingest"
	"talentmatch/internal/jobs"
	"talentmatch/internal/screening"
	"talentmatch/internal/store"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// HealthChecker reports AI backend readiness for /health.
type HealthChecker interface {
	GetModelInfo(ctx context.Context) *ai.ModelInfo
	GetCircuitBreakerStats() map[string]any
}

// Services are the application handles the HTTP layer dispatches to.
type Services struct {
	Screening *screening.Service
	Jobs      *jobs.Service
	Ingest    *ingest.Service
	Uploads   *ingest.Uploads
	AI        HealthChecker
	Store     store.Store
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// API Authentication
	APIKeys map[string]bool

	// Timeout configurations
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	ShutdownTimeout    time.Duration
	HealthCheckTimeout time.Duration

	// Request size limits
	MaxRequestSize int64
	MaxUploadSize  int64

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	services Services

	// Logger
	Logger *errors.Logger
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host               string
	Port               string
	Version            string
	APIKeys            []string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	ShutdownTimeout    time.Duration
	HealthCheckTimeout time.Duration
	MaxRequestSize     int64
	MaxUploadSize      int64 // whole multipart body for one upload request
	RateLimit          *config.RateLimitConfig
}

const (
	// maxFilesPerUpload bounds the multipart body of one upload request.
	maxFilesPerUpload         = 20
	defaultHealthCheckTimeout = 5 * time.Second
	defaultShutdownTimeout    = 30 * time.Second
)

// ConfigFrom derives the server settings from the application config.
func ConfigFrom(cfg *config.Config, version string) ServerConfig {
	rl := cfg.Server.RateLimit
	return ServerConfig{
		Host:               cfg.Server.Host,
		Port:               cfg.Server.Port,
		Version:            version,
		APIKeys:            cfg.Server.APIKeys,
		ReadTimeout:        cfg.Server.ReadTimeout,
		WriteTimeout:       cfg.Server.WriteTimeout,
		IdleTimeout:        cfg.Server.IdleTimeout,
		ShutdownTimeout:    cfg.Server.ShutdownTimeout,
		HealthCheckTimeout: cfg.Observability.HealthCheck.Timeout,
		MaxRequestSize:     cfg.Server.MaxRequestSize,
		MaxUploadSize:      cfg.Ingest.MaxUploadSize * maxFilesPerUpload,
		RateLimit:          &rl,
	}
}

// NewServer creates a new Server instance from a ServerConfig struct
func NewServer(cfg ServerConfig, services Services, logger *errors.Logger) *Server {
	// Convert API keys slice to map for O(1) lookup
	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	var rateLimiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(*cfg.RateLimit, logger)
	}

	healthTimeout := cfg.HealthCheckTimeout
	if healthTimeout <= 0 {
		healthTimeout = defaultHealthCheckTimeout
	}

	return &Server{
		Host:               cfg.Host,
		Port:               cfg.Port,
		Version:            cfg.Version,
		APIKeys:            apiKeyMap,
		ReadTimeout:        cfg.ReadTimeout,
		WriteTimeout:       cfg.WriteTimeout,
		IdleTimeout:        cfg.IdleTimeout,
		ShutdownTimeout:    cfg.ShutdownTimeout,
		HealthCheckTimeout: healthTimeout,
		MaxRequestSize:     cfg.MaxRequestSize,
		MaxUploadSize:      cfg.MaxUploadSize,
		RateLimit:          cfg.RateLimit,
		RateLimiter:        rateLimiter,
		services:           services,
		Logger:             logger,
	}
}
