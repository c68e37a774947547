package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"talentmatch/internal/config"
	"talentmatch/internal/errors"
	"talentmatch/internal/observability"
	"talentmatch/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// generateOperation is one text generation operation with its own model,
// prompts and breaker.
type generateOperation struct {
	name    string
	cfg     config.OperationAIConfig
	client  *genai.Client
	breaker *CircuitBreaker[*genai.GenerateContentResponse]
}

// GeminiProvider implements AIProvider for Google Gemini
type GeminiProvider struct {
	ops               map[string]*generateOperation
	embedCfg          config.OperationAIConfig
	embedClient       *genai.Client
	embedBreaker      *CircuitBreaker[*genai.EmbedContentResponse]
	modelBreaker      *CircuitBreaker[*genai.Model]
	limiter           *rate.Limiter
	metrics           *observability.Metrics
	logger            *errors.Logger
	modelCheckTimeout time.Duration
}

// Ensure GeminiProvider implements AIProvider
var _ AIProvider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a Gemini provider for every AI operation.
// Operations that share an API key share a client.
func NewGeminiProvider(cfg *config.Config, logger *errors.Logger, metrics *observability.Metrics) (*GeminiProvider, error) {
	clients := make(map[string]*genai.Client)
	clientFor := func(apiKey string) (*genai.Client, error) {
		if c, ok := clients[apiKey]; ok {
			return c, nil
		}
		c, err := genai.NewClient(context.Background(), &genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "Failed to create Gemini client", err)
		}
		clients[apiKey] = c
		return c, nil
	}

	g := &GeminiProvider{
		ops:               make(map[string]*generateOperation),
		limiter:           newOracleLimiter(cfg.AI.RequestsPerMinute, cfg.AI.Burst),
		metrics:           metrics,
		logger:            logger,
		modelCheckTimeout: cfg.Observability.HealthCheck.AIModelCheckTimeout,
	}

	for _, op := range []string{config.OpEvaluate, config.OpExtract, config.OpSummarize, config.OpDescribe} {
		opCfg, err := cfg.GetOperationConfig(op)
		if err != nil {
			return nil, err
		}
		client, err := clientFor(opCfg.APIKey)
		if err != nil {
			return nil, err
		}
		g.ops[op] = &generateOperation{
			name:    op,
			cfg:     opCfg,
			client:  client,
			breaker: NewCircuitBreaker[*genai.GenerateContentResponse](op, opCfg.CircuitBreaker, logger),
		}
	}

	embedCfg, err := cfg.GetOperationConfig(config.OpEmbed)
	if err != nil {
		return nil, err
	}
	if g.embedClient, err = clientFor(embedCfg.APIKey); err != nil {
		return nil, err
	}
	g.embedCfg = embedCfg
	g.embedBreaker = NewCircuitBreaker[*genai.EmbedContentResponse](config.OpEmbed, embedCfg.CircuitBreaker, logger)

	evalCfg := g.ops[config.OpEvaluate].cfg
	g.modelBreaker = NewCircuitBreaker[*genai.Model]("model-"+config.OpEvaluate,
		newModelCircuitBreakerConfig(evalCfg.CircuitBreaker), logger)

	return g, nil
}

// newOracleLimiter builds the token bucket shared by every model call
func newOracleLimiter(requestsPerMinute, burst int) *rate.Limiter {
	if requestsPerMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), burst)
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}

// GetModelInfo checks the readiness and availability of the scoring model
func (g *GeminiProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	op := g.ops[config.OpEvaluate]
	modelInfo := &ModelInfo{
		Name:      op.cfg.Model,
		Available: false,
	}

	timeout := g.modelCheckTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	model, err := g.modelBreaker.Execute(func() (*genai.Model, error) {
		return op.client.Models.Get(checkCtx, op.cfg.Model, &genai.GetModelConfig{})
	})
	if err != nil {
		modelInfo.Error = fmt.Sprintf("Failed to get model info: %v", err)
		g.logger.Warn("Model availability check failed",
			"model", op.cfg.Model,
			"provider", op.cfg.Provider,
			"error", err.Error())
		return modelInfo
	}

	modelInfo.Available = true
	modelInfo.DisplayName = model.DisplayName
	modelInfo.Version = model.Version

	g.logger.Debug("Model availability check successful",
		"model", op.cfg.Model,
		"display_name", modelInfo.DisplayName,
		"version", modelInfo.Version)

	return modelInfo
}

// generate runs one text generation call with tracing, metrics, rate
// limiting, circuit breaking and retries. Failures come back as upstream
// AppErrors.
func (g *GeminiProvider) generate(
	ctx context.Context,
	opName string,
	userPrompt string,
	systemPrompt string,
	genaiConfig *genai.GenerateContentConfig,
	spanAttributes ...attribute.KeyValue,
) (string, *TokenUsage, error) {
	op := g.ops[opName]
	tracer := otel.Tracer("talentmatch.ai.gemini")
	ctx, span := tracer.Start(ctx, "gemini."+opName)
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", op.cfg.Model),
		attribute.Float64("ai.temperature", float64(*op.cfg.Temperature)),
	)
	span.SetAttributes(spanAttributes...)

	genaiConfig.Temperature = op.cfg.Temperature
	if *op.cfg.UseSystemPrompts && systemPrompt != "" {
		genaiConfig.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	var text string
	var usage *TokenUsage
	err := g.metrics.TrackAIOperation(ctx, opName, func(ctx context.Context) *observability.AIOperationResult {
		callCtx, cancel := context.WithTimeout(ctx, *op.cfg.Timeout)
		defer cancel()

		result, err := op.breaker.Execute(func() (*genai.GenerateContentResponse, error) {
			return executeWithRetry(callCtx, g.logger, opName, *op.cfg.MaxRetries, func() (*genai.GenerateContentResponse, error) {
				if err := g.limiter.Wait(callCtx); err != nil {
					return nil, err
				}
				return op.client.Models.GenerateContent(callCtx, op.cfg.Model, genai.Text(userPrompt), genaiConfig)
			})
		})
		if err != nil {
			return &observability.AIOperationResult{Error: err}
		}

		usage = extractTokenUsage(result)
		text = strings.TrimSpace(result.Text())
		if text == "" {
			return &observability.AIOperationResult{Error: fmt.Errorf("empty response from model"), TokenUsage: usage}
		}
		return &observability.AIOperationResult{TokenUsage: usage}
	})

	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		appErr := errors.NewUpstreamError(errors.ErrCodeOracleUnavailable, "Failed to generate content for "+opName, err).
			WithContext("operation", opName)
		if isBreakerRejection(err) {
			appErr = appErr.WithContext("circuit_open", true)
		}
		return "", usage, appErr
	}

	span.SetAttributes(attribute.Bool("success", true))
	return text, usage, nil
}

// Evaluate implements ScoringOracle
func (g *GeminiProvider) Evaluate(ctx context.Context, input EvaluationInput) (json.RawMessage, *TokenUsage, error) {
	systemPrompt, userTemplate := promptsFor(config.OpEvaluate, g.ops[config.OpEvaluate].cfg)
	userPrompt := fmt.Sprintf(userTemplate, input.JobDescription, string(input.Candidate))

	text, usage, err := g.generate(ctx, config.OpEvaluate, userPrompt, systemPrompt,
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   evaluationResponseSchema(),
		},
		attribute.Int("input.job_length", len(input.JobDescription)),
		attribute.Int("input.candidate_length", len(input.Candidate)),
	)
	if err != nil {
		return nil, usage, err
	}
	return json.RawMessage(stripCodeFence(text)), usage, nil
}

// ExtractProfile implements ProfileExtractor
func (g *GeminiProvider) ExtractProfile(ctx context.Context, documentText string) (json.RawMessage, *TokenUsage, error) {
	systemPrompt, userTemplate := promptsFor(config.OpExtract, g.ops[config.OpExtract].cfg)
	userPrompt := fmt.Sprintf(userTemplate, documentText)

	text, usage, err := g.generate(ctx, config.OpExtract, userPrompt, systemPrompt,
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   profileResponseSchema(),
		},
		attribute.Int("input.document_length", len(documentText)),
	)
	if err != nil {
		return nil, usage, err
	}
	return json.RawMessage(stripCodeFence(text)), usage, nil
}

// SummarizeProfile implements Summarizer
func (g *GeminiProvider) SummarizeProfile(ctx context.Context, profile json.RawMessage) (string, *TokenUsage, error) {
	systemPrompt, userTemplate := promptsFor(config.OpSummarize, g.ops[config.OpSummarize].cfg)
	userPrompt := fmt.Sprintf(userTemplate, string(profile))

	return g.generate(ctx, config.OpSummarize, userPrompt, systemPrompt,
		&genai.GenerateContentConfig{},
		attribute.Int("input.profile_length", len(profile)),
	)
}

// DescribeJob implements JobWriter
func (g *GeminiProvider) DescribeJob(ctx context.Context, req types.JobRequest) (string, *TokenUsage, error) {
	systemPrompt, userTemplate := promptsFor(config.OpDescribe, g.ops[config.OpDescribe].cfg)
	userPrompt := formatDescribePrompt(userTemplate, req)

	return g.generate(ctx, config.OpDescribe, userPrompt, systemPrompt,
		&genai.GenerateContentConfig{},
		attribute.String("input.job_title", req.JobTitle),
	)
}

func formatDescribePrompt(template string, req types.JobRequest) string {
	return fmt.Sprintf(template,
		req.JobTitle,
		req.RequiredSkills,
		req.NiceToHaveSkills,
		req.YearsExperience,
		req.RelevantIndustryProjectExperience,
		req.EducationRequirement,
		req.Responsibilities,
	)
}

// Embed implements Embedder
func (g *GeminiProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, "cannot embed empty text", nil)
	}

	embedCfg := &genai.EmbedContentConfig{TaskType: "SEMANTIC_SIMILARITY"}
	if g.embedCfg.Dimensions > 0 {
		dims := g.embedCfg.Dimensions
		embedCfg.OutputDimensionality = &dims
	}

	var vector []float32
	err := g.metrics.TrackAIOperation(ctx, config.OpEmbed, func(ctx context.Context) *observability.AIOperationResult {
		callCtx, cancel := context.WithTimeout(ctx, *g.embedCfg.Timeout)
		defer cancel()

		resp, err := g.embedBreaker.Execute(func() (*genai.EmbedContentResponse, error) {
			return executeWithRetry(callCtx, g.logger, config.OpEmbed, *g.embedCfg.MaxRetries, func() (*genai.EmbedContentResponse, error) {
				if err := g.limiter.Wait(callCtx); err != nil {
					return nil, err
				}
				return g.embedClient.Models.EmbedContent(callCtx, g.embedCfg.Model, genai.Text(text), embedCfg)
			})
		})
		if err != nil {
			return &observability.AIOperationResult{Error: err}
		}
		if len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil || len(resp.Embeddings[0].Values) == 0 {
			return &observability.AIOperationResult{Error: fmt.Errorf("embedding response is empty")}
		}
		vector = resp.Embeddings[0].Values
		return nil
	})
	if err != nil {
		return nil, errors.NewUpstreamError(errors.ErrCodeEmbeddingFailed, "Failed to embed text", err)
	}

	if want := int(g.embedCfg.Dimensions); want > 0 && len(vector) != want {
		return nil, errors.NewSchemaError(errors.ErrCodeEmbeddingFailed,
			fmt.Sprintf("embedding has %d dimensions, expected %d", len(vector), want), nil)
	}
	return NormalizeL2(vector), nil
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (g *GeminiProvider) GetCircuitBreakerStats() map[string]any {
	stats := make(map[string]any, len(g.ops)+3)
	healthy := true
	for name, op := range g.ops {
		stats[name] = op.breaker.GetStats()
		healthy = healthy && op.breaker.IsHealthy()
	}
	stats[config.OpEmbed] = g.embedBreaker.GetStats()
	stats["model_operations"] = g.modelBreaker.GetStats()
	stats["overall_healthy"] = healthy && g.embedBreaker.IsHealthy() && g.modelBreaker.IsHealthy()
	return stats
}

// Close implements AIProvider interface
func (g *GeminiProvider) Close() error {
	// genai clients hold no resources in unary mode
	return nil
}

// extractTokenUsage extracts token usage information from Gemini API response
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}

	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}

// stripCodeFence removes a ```json fence some models add despite the
// response MIME type.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
