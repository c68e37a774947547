// Package evaluation scores one candidate against one job through the
// scoring oracle and enforces the evaluation.v1 output contract.
package evaluation

import (
	"context"
	"encoding/json"
	"time"

	"talentmatch/internal/ai"
	"talentmatch/internal/errors"
	"talentmatch/internal/observability"
	"talentmatch/internal/schemas"
	"talentmatch/internal/types"
)

// Evaluator is stateless per pair and safe for concurrent use.
type Evaluator struct {
	oracle  ai.ScoringOracle
	timeout time.Duration
	logger  *errors.Logger
	metrics *observability.Metrics
}

// New creates an Evaluator. A zero timeout leaves deadlines to the caller.
func New(oracle ai.ScoringOracle, timeout time.Duration, logger *errors.Logger, metrics *observability.Metrics) *Evaluator {
	return &Evaluator{oracle: oracle, timeout: timeout, logger: logger, metrics: metrics}
}

// Evaluate runs one oracle call for (job, candidate). Oracle failures come
// back as upstream errors; output that breaks the contract comes back as a
// SchemaViolation after the payload is logged.
func (e *Evaluator) Evaluate(ctx context.Context, job *types.JobPosting, candidate types.CandidateProfile) (*types.Evaluation, error) {
	eval, err := e.evaluate(ctx, job, candidate)
	overall := 0
	if eval != nil {
		overall = eval.OverallScore
	}
	e.metrics.RecordEvaluation(ctx, err, overall)
	return eval, err
}

func (e *Evaluator) evaluate(ctx context.Context, job *types.JobPosting, candidate types.CandidateProfile) (*types.Evaluation, error) {
	candidateJSON, err := json.Marshal(oracleView(candidate))
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeMalformedProfile, "failed to encode candidate", err).
			WithContext("candidate_id", candidate.CandidateID)
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	raw, _, err := e.oracle.Evaluate(ctx, ai.EvaluationInput{
		JobDescription: job.Description,
		Candidate:      candidateJSON,
	})
	if err != nil {
		if errors.TypeOf(err) == errors.ErrorTypeInternal {
			err = errors.NewUpstreamError(errors.ErrCodeOracleUnavailable, "scoring oracle failed", err)
		}
		return nil, err
	}

	eval, err := Decode(raw)
	if err != nil {
		e.logger.LogError(err, "Discarding evaluation that violates schema",
			"job_id", job.JobID,
			"candidate_id", candidate.CandidateID,
			"payload", string(raw))
		return nil, err
	}

	if oracleOverall := eval.OverallScore; oracleOverall != OverallScore(*eval) {
		e.logger.Debug("Oracle overall score differs from weighted score",
			"candidate_id", candidate.CandidateID,
			"oracle_overall", oracleOverall,
			"computed_overall", OverallScore(*eval))
	}
	eval.OverallScore = OverallScore(*eval)
	return eval, nil
}

// candidateView is the part of a profile shown to the oracle. Contact
// details and identifiers are left out.
type candidateView struct {
	Name              string             `json:"name"`
	Skills            types.TextList     `json:"skills"`
	ResumeSummary     string             `json:"resume_summary"`
	Experience        []types.Experience `json:"experience"`
	Projects          []types.Project    `json:"projects"`
	YearsOfExperience *int               `json:"years_of_experience"`
	Education         []types.Education  `json:"education"`
}

func oracleView(c types.CandidateProfile) candidateView {
	return candidateView{
		Name:              c.Name,
		Skills:            c.Skills,
		ResumeSummary:     c.ResumeSummary,
		Experience:        c.Experience,
		Projects:          c.Projects,
		YearsOfExperience: c.YearsOfExperience,
		Education:         c.Education,
	}
}

// Decode validates raw oracle output against evaluation.v1, decodes it and
// checks score bounds.
func Decode(raw []byte) (*types.Evaluation, error) {
	if err := schemas.Validate(schemas.EvaluationV1, raw); err != nil {
		return nil, err
	}

	var eval types.Evaluation
	if err := json.Unmarshal(raw, &eval); err != nil {
		return nil, errors.NewSchemaError(errors.ErrCodeSchemaViolation, "evaluation could not be decoded", err)
	}
	if err := CheckBounds(eval); err != nil {
		return nil, err
	}
	return &eval, nil
}
