package ai

import (
	"context"
	"fmt"

	"talentmatch/internal/config"
	"talentmatch/internal/errors"
	"talentmatch/internal/observability"
)

// Service owns the configured AI provider
type Service struct {
	Provider AIProvider // Exported for access from server package
	logger   *errors.Logger
}

// NewService creates the AI service for the configured provider
func NewService(cfg *config.Config, logger *errors.Logger, metrics *observability.Metrics) (*Service, error) {
	evalCfg, err := cfg.GetOperationConfig(config.OpEvaluate)
	if err != nil {
		return nil, err
	}

	logger.Debug("Initializing AI service",
		"provider", cfg.AI.Provider,
		"model", evalCfg.Model,
		"temperature", *evalCfg.Temperature,
		"timeout", *evalCfg.Timeout,
		"max_retries", *evalCfg.MaxRetries,
		"requests_per_minute", cfg.AI.RequestsPerMinute,
		"use_system_prompts", *evalCfg.UseSystemPrompts)

	var provider AIProvider
	switch cfg.AI.Provider {
	case "gemini":
		provider, err = NewGeminiProvider(cfg, logger, metrics)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI provider: %s", cfg.AI.Provider), nil)
	}
	if err != nil {
		return nil, err
	}

	return &Service{
		Provider: provider,
		logger:   logger,
	}, nil
}

// GetModelInfo returns information about the AI model for health checks
func (s *Service) GetModelInfo(ctx context.Context) *ModelInfo {
	return s.Provider.GetModelInfo(ctx)
}

// Close releases the provider
func (s *Service) Close() error {
	return s.Provider.Close()
}

// GetCircuitBreakerStats reports breaker state per AI operation
func (s *Service) GetCircuitBreakerStats() map[string]any {
	return s.Provider.GetCircuitBreakerStats()
}
