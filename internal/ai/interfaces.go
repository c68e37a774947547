package ai

import (
	"context"
	"encoding/json"

	"talentmatch/internal/observability"
	"talentmatch/internal/types"
)

// TokenUsage represents token usage information from AI responses
type TokenUsage = observability.TokenUsage

// EvaluationInput is one (job, candidate) pair for the scoring oracle.
type EvaluationInput struct {
	JobDescription string
	Candidate      json.RawMessage
}

// ScoringOracle scores one candidate against one job. The raw JSON is
// returned unvalidated; callers own the output contract.
type ScoringOracle interface {
	Evaluate(ctx context.Context, input EvaluationInput) (json.RawMessage, *TokenUsage, error)
}

// ProfileExtractor turns resume text into a raw structured profile object.
type ProfileExtractor interface {
	ExtractProfile(ctx context.Context, documentText string) (json.RawMessage, *TokenUsage, error)
}

// Summarizer writes the retrieval summary for a normalized profile.
type Summarizer interface {
	SummarizeProfile(ctx context.Context, profile json.RawMessage) (string, *TokenUsage, error)
}

// JobWriter drafts a markdown job description from hiring inputs.
type JobWriter interface {
	DescribeJob(ctx context.Context, req types.JobRequest) (string, *TokenUsage, error)
}

// Embedder maps text to an L2-normalized vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// AIProvider is the full set of operations a backend supplies.
type AIProvider interface {
	ScoringOracle
	ProfileExtractor
	Summarizer
	JobWriter
	Embedder
	GetModelInfo(ctx context.Context) *ModelInfo
	GetCircuitBreakerStats() map[string]any
	Close() error
}
