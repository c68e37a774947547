package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"talentmatch/internal/errors"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
// Secret precedence order:
// 1. Vault (if configured) - Highest priority
// 2. Config File values
// 3. Environment Variables (TALENTMATCH_AI_APIKEY, etc., optionally from .env)
// 4. Default values - Lowest priority
type Config struct {
	AI            AIConfig            `mapstructure:"ai"`
	Store         StoreConfig         `mapstructure:"store"`
	Screening     ScreeningConfig     `mapstructure:"screening"`
	Ingest        IngestConfig        `mapstructure:"ingest"`
	Events        EventsConfig        `mapstructure:"events"`
	Server        ServerConfig        `mapstructure:"server"`
	App           AppConfig           `mapstructure:"app"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// AIConfig holds AI service configuration
type AIConfig struct {
	// Global/fallback configuration
	Provider          string        `mapstructure:"provider"`
	Model             string        `mapstructure:"model"`
	Timeout           time.Duration `mapstructure:"timeout"`
	APIKey            string        `mapstructure:"apiKey"`
	MaxRetries        int           `mapstructure:"maxRetries"`
	Temperature       float32       `mapstructure:"temperature"`
	UseSystemPrompts  bool          `mapstructure:"useSystemPrompts"`
	RequestsPerMinute int           `mapstructure:"requestsPerMinute"` // Shared oracle budget across operations
	Burst             int           `mapstructure:"burst"`

	// Operation-specific configurations
	Evaluate  OperationAIConfig `mapstructure:"evaluate"`
	Extract   OperationAIConfig `mapstructure:"extract"`
	Summarize OperationAIConfig `mapstructure:"summarize"`
	Describe  OperationAIConfig `mapstructure:"describe"`
	Embed     OperationAIConfig `mapstructure:"embed"`
}

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`          // Whether circuit breaker is enabled
	MaxRequests      uint32        `mapstructure:"maxRequests"`      // Max requests allowed when half-open
	Interval         time.Duration `mapstructure:"interval"`         // Interval to clear counts
	Timeout          time.Duration `mapstructure:"timeout"`          // Timeout for half-open to open
	MinRequests      uint32        `mapstructure:"minRequests"`      // Minimum requests before tripping
	FailureThreshold float64       `mapstructure:"failureThreshold"` // Failure ratio threshold (0.0-1.0)
}

// OperationAIConfig holds AI configuration for specific operations
type OperationAIConfig struct {
	Provider         string               `mapstructure:"provider"`
	Model            string               `mapstructure:"model"`
	Timeout          *time.Duration       `mapstructure:"timeout"`
	APIKey           string               `mapstructure:"apiKey"`
	MaxRetries       *int                 `mapstructure:"maxRetries"`
	Temperature      *float32             `mapstructure:"temperature"`
	UseSystemPrompts *bool                `mapstructure:"useSystemPrompts"`
	Dimensions       int32                `mapstructure:"dimensions"` // Embedding size, embed operation only
	Prompts          PromptConfig         `mapstructure:"prompts"`
	CircuitBreaker   CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// PromptConfig holds customizable prompts for one operation. File contents
// are loaded into System and User at startup.
type PromptConfig struct {
	System     string `mapstructure:"system"`
	SystemFile string `mapstructure:"systemFile"`
	User       string `mapstructure:"user"`
	UserFile   string `mapstructure:"userFile"`
}

// StoreConfig holds the Postgres/pgvector connection settings
type StoreConfig struct {
	DatabaseURL     string        `mapstructure:"databaseURL"`
	MaxConns        int32         `mapstructure:"maxConns"`
	ConnectTimeout  time.Duration `mapstructure:"connectTimeout"`
	QueryTimeout    time.Duration `mapstructure:"queryTimeout"`
	VectorDimension int           `mapstructure:"vectorDimension"`
	AutoMigrate     bool          `mapstructure:"autoMigrate"`
}

// ScreeningConfig holds retrieval and evaluation settings
type ScreeningConfig struct {
	VectorWeight       float64       `mapstructure:"vectorWeight"`       // Fusion weight for vector similarity; lexical gets the rest
	Concurrency        int           `mapstructure:"concurrency"`        // Parallel oracle calls per run
	SafetyLimit        int           `mapstructure:"safetyLimit"`        // Hard ceiling on corpus-wide pool size
	EvaluationTimeout  time.Duration `mapstructure:"evaluationTimeout"`  // Per-candidate evaluation deadline
	CandidatePoolRatio int           `mapstructure:"candidatePoolRatio"` // Over-fetch factor per retrieval component before fusion
}

// IngestConfig holds resume ingestion settings
type IngestConfig struct {
	UploadRoot     string        `mapstructure:"uploadRoot"`
	AllowedKinds   []string      `mapstructure:"allowedKinds"`
	MaxUploadSize  int64         `mapstructure:"maxUploadSize"`
	Concurrency    int           `mapstructure:"concurrency"`
	WatchDebounce  time.Duration `mapstructure:"watchDebounce"`
	S3             S3Config      `mapstructure:"s3"`
	ExtractTimeout time.Duration `mapstructure:"extractTimeout"`
}

// S3Config holds the optional S3-compatible resume source
type S3Config struct {
	Enabled         bool   `mapstructure:"enabled"`
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"accessKeyID"`
	SecretAccessKey string `mapstructure:"secretAccessKey"`
}

// EventsConfig holds the AMQP status event publisher settings
type EventsConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"readTimeout"`
	WriteTimeout    time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout     time.Duration `mapstructure:"idleTimeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdownTimeout"`
	MaxRequestSize  int64         `mapstructure:"maxRequestSize"`

	// API Authentication
	APIKeys []string `mapstructure:"apiKeys"` // Valid API keys for authentication

	// Rate Limiting Configuration
	RateLimit RateLimitConfig `mapstructure:"rateLimit"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool          `mapstructure:"enabled"`        // Enable/disable rate limiting
	RequestsPerMin int           `mapstructure:"requestsPerMin"` // Requests allowed per minute
	BurstCapacity  int           `mapstructure:"burstCapacity"`  // Burst capacity for token bucket
	ByIP           bool          `mapstructure:"byIP"`           // Enable per-IP rate limiting
	ByAPIKey       bool          `mapstructure:"byAPIKey"`       // Enable per-API-key rate limiting
	Window         time.Duration `mapstructure:"window"`         // Idle limiter eviction window
}

// AppConfig holds general application configuration
type AppConfig struct {
	LogLevel         string   `mapstructure:"logLevel"`
	DefaultFormat    string   `mapstructure:"defaultFormat"`
	SupportedFormats []string `mapstructure:"supportedFormats"`
}

// ObservabilityConfig holds observability configuration
type ObservabilityConfig struct {
	Enabled         bool                `mapstructure:"enabled"`
	ServiceName     string              `mapstructure:"serviceName"`
	ServiceVersion  string              `mapstructure:"serviceVersion"`
	ServiceInstance string              `mapstructure:"serviceInstance"`
	Tracing         TracingConfig       `mapstructure:"tracing"`
	Metrics         MetricsConfig       `mapstructure:"metrics"`
	CustomMetrics   CustomMetricsConfig `mapstructure:"customMetrics"`
	Console         ConsoleConfig       `mapstructure:"console"`
	Prometheus      PrometheusConfig    `mapstructure:"prometheus"`
	OTLP            OTLPConfig          `mapstructure:"otlp"`
	HealthCheck     HealthCheckConfig   `mapstructure:"healthCheck"`
}

// TracingConfig holds tracing configuration
type TracingConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	SampleRate float64 `mapstructure:"sampleRate"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	CollectionInterval time.Duration `mapstructure:"collectionInterval"`
}

// ConsoleConfig holds console output configuration
type ConsoleConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	PrettyPrint bool `mapstructure:"prettyPrint"`
}

// CustomMetricsConfig holds fine-grained custom metrics configuration
type CustomMetricsConfig struct {
	AIOperations    AIOperationsMetricsConfig   `mapstructure:"aiOperations"`
	BusinessMetrics BusinessMetricsConfig       `mapstructure:"businessMetrics"`
	Infrastructure  InfrastructureMetricsConfig `mapstructure:"infrastructure"`
}

// AIOperationsMetricsConfig holds AI operation metrics configuration
type AIOperationsMetricsConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	TrackDuration   bool `mapstructure:"trackDuration"`
	TrackTokenUsage bool `mapstructure:"trackTokenUsage"`
}

// BusinessMetricsConfig holds screening and ingestion metrics configuration
type BusinessMetricsConfig struct {
	Enabled          bool `mapstructure:"enabled"`
	TrackScreening   bool `mapstructure:"trackScreening"`
	TrackIngestion   bool `mapstructure:"trackIngestion"`
	TrackScoreSpread bool `mapstructure:"trackScoreSpread"`
}

// InfrastructureMetricsConfig holds infrastructure metrics configuration
type InfrastructureMetricsConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	TrackRateLimits bool `mapstructure:"trackRateLimits"`
}

// PrometheusConfig holds Prometheus configuration
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Port     string `mapstructure:"port"`
}

// OTLPConfig holds OTLP exporter configuration
type OTLPConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Endpoint string            `mapstructure:"endpoint"`
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
}

// HealthCheckConfig holds health check configuration
type HealthCheckConfig struct {
	Timeout             time.Duration `mapstructure:"timeout"`
	AIModelCheckTimeout time.Duration `mapstructure:"aiModelCheckTimeout"`
}

// LoadConfig loads configuration from a .env file, environment variables
// and a config file
func LoadConfig() (*Config, error) {
	log.Println("[CONFIG] Starting configuration loading process")

	if err := godotenv.Load(); err == nil {
		log.Println("[CONFIG] Loaded environment overrides from .env")
	}

	v := viper.New()
	setDefaults(v)
	log.Println("[CONFIG] Applied default configuration values")

	v.SetEnvPrefix("TALENTMATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	log.Println("[CONFIG] Configured environment variable handling with prefix 'TALENTMATCH'")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/talentmatch/")
	v.AddConfigPath("$HOME/.talentmatch")
	v.AddConfigPath(".")

	configFileUsed := ""
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Println("[CONFIG] No config file found, using defaults and environment variables")
	} else {
		configFileUsed = v.ConfigFileUsed()
		log.Printf("[CONFIG] Successfully loaded config file: %s", configFileUsed)
	}

	cfg, err := load(v)
	if err != nil {
		return nil, err
	}
	cfg.logConfigurationSources(configFileUsed)

	// Vault secrets override file and environment values
	vaultLogger, err := errors.New(cfg.App.LogLevel)
	if err != nil {
		vaultLogger = errors.Discard()
	}
	if err := ApplyVaultSecrets(cfg, vaultLogger); err != nil {
		return nil, fmt.Errorf("failed to load secrets from Vault: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log.Println("[CONFIG] Configuration loading completed successfully")
	return cfg, nil
}

// load unmarshals v and applies fallbacks and prompt files. Validation is
// left to the caller so commands that need no AI key can still run.
func load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.applyFallbacks()

	if err := cfg.validatePromptFiles(); err != nil {
		return nil, fmt.Errorf("prompt file validation failed: %w", err)
	}
	if err := cfg.loadPromptsFromFiles(); err != nil {
		return nil, fmt.Errorf("failed to load custom prompts from files: %w", err)
	}
	return &cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.AI.APIKey == "" {
		return fmt.Errorf("AI API key is required (set TALENTMATCH_AI_APIKEY environment variable)")
	}
	if c.AI.Timeout <= 0 {
		return fmt.Errorf("AI timeout must be positive")
	}
	if c.Store.DatabaseURL == "" {
		return fmt.Errorf("database URL is required (set TALENTMATCH_STORE_DATABASEURL environment variable)")
	}
	if c.Store.VectorDimension <= 0 {
		return fmt.Errorf("store vector dimension must be positive")
	}
	if c.AI.Embed.Dimensions != 0 && int(c.AI.Embed.Dimensions) != c.Store.VectorDimension {
		return fmt.Errorf("embedding dimensions (%d) must match store vector dimension (%d)",
			c.AI.Embed.Dimensions, c.Store.VectorDimension)
	}
	if err := c.Screening.Validate(); err != nil {
		return err
	}
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Events.Enabled && c.Events.URL == "" {
		return fmt.Errorf("events URL is required when events are enabled")
	}
	if c.Ingest.S3.Enabled && c.Ingest.S3.Bucket == "" {
		return fmt.Errorf("ingest S3 bucket is required when the S3 source is enabled")
	}

	validFormats := make(map[string]bool)
	for _, format := range c.App.SupportedFormats {
		validFormats[format] = true
	}
	if !validFormats[c.App.DefaultFormat] {
		return fmt.Errorf("invalid default format: %s", c.App.DefaultFormat)
	}

	return nil
}

// Validate checks the screening section
func (s ScreeningConfig) Validate() error {
	if s.VectorWeight < 0 || s.VectorWeight > 1 {
		return fmt.Errorf("screening vector weight must be within [0,1], got %v", s.VectorWeight)
	}
	if s.Concurrency < 1 {
		return fmt.Errorf("screening concurrency must be at least 1")
	}
	if s.SafetyLimit < 1 {
		return fmt.Errorf("screening safety limit must be at least 1")
	}
	if s.CandidatePoolRatio < 1 {
		return fmt.Errorf("screening candidate pool ratio must be at least 1")
	}
	return nil
}
