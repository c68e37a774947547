package config

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// AI Configuration - Global defaults
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.model", "gemini-2.5-flash")
	v.SetDefault("ai.timeout", 60*time.Second)
	v.SetDefault("ai.apiKey", "")
	v.SetDefault("ai.maxRetries", 3)
	v.SetDefault("ai.temperature", 0.2)
	v.SetDefault("ai.useSystemPrompts", true)
	v.SetDefault("ai.requestsPerMinute", 60)
	v.SetDefault("ai.burst", 5)

	// Per-operation defaults. Scoring and extraction run cold for
	// repeatability; descriptions and summaries get a little more room.
	setOperationDefaults(v, OpEvaluate, 60*time.Second, 3, 0.0)
	setOperationDefaults(v, OpExtract, 90*time.Second, 2, 0.0)
	setOperationDefaults(v, OpSummarize, 60*time.Second, 3, 0.3)
	setOperationDefaults(v, OpDescribe, 60*time.Second, 2, 0.4)
	setOperationDefaults(v, OpEmbed, 30*time.Second, 3, 0.0)
	v.SetDefault("ai.embed.model", "gemini-embedding-001")
	v.SetDefault("ai.embed.dimensions", 768)

	// Store
	v.SetDefault("store.databaseURL", "")
	v.SetDefault("store.maxConns", 10)
	v.SetDefault("store.connectTimeout", 10*time.Second)
	v.SetDefault("store.queryTimeout", 30*time.Second)
	v.SetDefault("store.vectorDimension", 768)
	v.SetDefault("store.autoMigrate", true)

	// Screening
	v.SetDefault("screening.vectorWeight", 0.7)
	v.SetDefault("screening.concurrency", 4)
	v.SetDefault("screening.safetyLimit", 50)
	v.SetDefault("screening.evaluationTimeout", 90*time.Second)
	v.SetDefault("screening.candidatePoolRatio", 2)

	// Ingestion
	v.SetDefault("ingest.uploadRoot", "./uploads")
	v.SetDefault("ingest.allowedKinds", []string{"pdf"})
	v.SetDefault("ingest.maxUploadSize", 10*1024*1024)
	v.SetDefault("ingest.concurrency", 2)
	v.SetDefault("ingest.watchDebounce", 2*time.Second)
	v.SetDefault("ingest.extractTimeout", 2*time.Minute)
	v.SetDefault("ingest.s3.enabled", false)
	v.SetDefault("ingest.s3.region", "auto")

	// Events
	v.SetDefault("events.enabled", false)
	v.SetDefault("events.exchange", "screening_updates")

	// Server Configuration
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 5*time.Minute) // Screening runs hold the connection
	v.SetDefault("server.idleTimeout", 120*time.Second)
	v.SetDefault("server.shutdownTimeout", 30*time.Second)
	v.SetDefault("server.maxRequestSize", 1024*1024)
	v.SetDefault("server.apiKeys", []string{})

	// Rate limiting defaults
	v.SetDefault("server.rateLimit.enabled", true)
	v.SetDefault("server.rateLimit.requestsPerMin", 30)
	v.SetDefault("server.rateLimit.burstCapacity", 5)
	v.SetDefault("server.rateLimit.byIP", true)
	v.SetDefault("server.rateLimit.byAPIKey", false)
	v.SetDefault("server.rateLimit.window", time.Minute)

	// App Configuration
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "text")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown"})

	// Vault Configuration
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.secrets.apiKeys", "")
	v.SetDefault("vault.secrets.geminiKey", "")
	v.SetDefault("vault.secrets.database", "")
	v.SetDefault("vault.secrets.events", "")
	v.SetDefault("vault.secrets.s3", "")

	// Observability Configuration
	v.SetDefault("observability.enabled", true)
	v.SetDefault("observability.serviceName", "talentmatch")
	v.SetDefault("observability.serviceVersion", "1.0.0")
	v.SetDefault("observability.tracing.enabled", true)
	v.SetDefault("observability.tracing.sampleRate", 1.0)
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)
	v.SetDefault("observability.console.enabled", false)
	v.SetDefault("observability.console.prettyPrint", true)
	v.SetDefault("observability.customMetrics.aiOperations.enabled", true)
	v.SetDefault("observability.customMetrics.aiOperations.trackDuration", true)
	v.SetDefault("observability.customMetrics.aiOperations.trackTokenUsage", true)
	v.SetDefault("observability.customMetrics.businessMetrics.enabled", true)
	v.SetDefault("observability.customMetrics.businessMetrics.trackScreening", true)
	v.SetDefault("observability.customMetrics.businessMetrics.trackIngestion", true)
	v.SetDefault("observability.customMetrics.businessMetrics.trackScoreSpread", true)
	v.SetDefault("observability.customMetrics.infrastructure.enabled", true)
	v.SetDefault("observability.customMetrics.infrastructure.trackRateLimits", true)
	v.SetDefault("observability.prometheus.enabled", false)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "9090")
	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.healthCheck.timeout", 5*time.Second)
	v.SetDefault("observability.healthCheck.aiModelCheckTimeout", 10*time.Second)
}

func setOperationDefaults(v *viper.Viper, op string, timeout time.Duration, retries int, temperature float64) {
	prefix := "ai." + op + "."
	v.SetDefault(prefix+"provider", "gemini")
	v.SetDefault(prefix+"model", "")
	v.SetDefault(prefix+"timeout", timeout)
	v.SetDefault(prefix+"apiKey", "")
	v.SetDefault(prefix+"maxRetries", retries)
	v.SetDefault(prefix+"temperature", temperature)
	v.SetDefault(prefix+"useSystemPrompts", true)

	v.SetDefault(prefix+"circuitBreaker.enabled", true)
	v.SetDefault(prefix+"circuitBreaker.maxRequests", 3)
	v.SetDefault(prefix+"circuitBreaker.interval", 60*time.Second)
	v.SetDefault(prefix+"circuitBreaker.timeout", 60*time.Second)
	v.SetDefault(prefix+"circuitBreaker.minRequests", 3)
	v.SetDefault(prefix+"circuitBreaker.failureThreshold", 0.6)
}
