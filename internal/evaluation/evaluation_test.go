package evaluation

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"talentmatch/internal/ai"
	"talentmatch/internal/ai/aitest"
	"talentmatch/internal/errors"
	"talentmatch/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withScores(s [5]int) types.Evaluation {
	return types.Evaluation{
		YearsExperienceScore: s[0],
		Skills:               types.SkillsAssessment{Score: s[1]},
		IndustryRelevance:    types.CriterionAssessment{Score: s[2]},
		AchievementsAndCerts: types.CriterionAssessment{Score: s[3]},
		EducationAlignment:   types.CriterionAssessment{Score: s[4]},
	}
}

func TestOverallScore(t *testing.T) {
	tests := []struct {
		name   string
		scores [5]int
		want   int
	}{
		{"all minimum", aitest.Uniform(1), 0},
		{"all maximum", aitest.Uniform(10), 100},
		{"years only", [5]int{10, 1, 1, 1, 1}, 20},
		{"skills mid rounds up", [5]int{1, 6, 1, 1, 1}, 17},
		{"education small rounds up", [5]int{1, 1, 1, 1, 2}, 1},
		{"mixed", [5]int{7, 8, 6, 5, 9}, 64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OverallScore(withScores(tt.scores)))
		})
	}
}

func TestOverallScoreMonotonicAndBounded(t *testing.T) {
	base := [5]int{5, 5, 5, 5, 5}
	for criterion := range 5 {
		prev := -1
		for s := 1; s <= 10; s++ {
			scores := base
			scores[criterion] = s
			got := OverallScore(withScores(scores))
			assert.GreaterOrEqual(t, got, prev, "criterion %d score %d", criterion, s)
			assert.GreaterOrEqual(t, got, 0)
			assert.LessOrEqual(t, got, 100)
			prev = got
		}
	}
}

func TestWeightsSumToHundred(t *testing.T) {
	sum := 0
	for _, w := range Weights {
		sum += w
	}
	assert.Equal(t, 100, sum)
}

func TestCheckBounds(t *testing.T) {
	require.NoError(t, CheckBounds(withScores(aitest.Uniform(5))))

	bad := withScores([5]int{5, 11, 5, 5, 5})
	err := CheckBounds(bad)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrorTypeSchema))
	assert.Contains(t, err.Error(), "skills.score")

	over := withScores(aitest.Uniform(5))
	over.OverallScore = 101
	assert.Error(t, CheckBounds(over))
}

var testJob = &types.JobPosting{JobID: "job00001", Title: "Go Engineer", Description: "Build Go services"}

func newEvaluator(respond func(context.Context, ai.EvaluationInput) (json.RawMessage, error)) (*Evaluator, *aitest.Oracle) {
	oracle := &aitest.Oracle{Respond: respond}
	return New(oracle, 0, errors.Discard(), nil), oracle
}

func TestEvaluateRecomputesOverall(t *testing.T) {
	e, oracle := newEvaluator(func(_ context.Context, in ai.EvaluationInput) (json.RawMessage, error) {
		assert.Equal(t, "Build Go services", in.JobDescription)
		assert.Equal(t, "Ada", aitest.CandidateName(in))
		return aitest.EvaluationJSON(aitest.Uniform(10), 42), nil
	})

	eval, err := e.Evaluate(context.Background(), testJob, types.CandidateProfile{CandidateID: "c1", Name: "Ada"})
	require.NoError(t, err)
	assert.Equal(t, 100, eval.OverallScore)
	assert.Equal(t, []string{"Go"}, eval.Skills.MatchedSkills)
	assert.Equal(t, 1, oracle.Calls())
}

func TestEvaluateSchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"invalid json", `{"years_experience_score":`},
		{"missing fields", `{"summary":"ok"}`},
		{"score out of range", string(aitest.EvaluationJSON([5]int{0, 5, 5, 5, 5}, 50))},
		{"overall out of range", string(aitest.EvaluationJSON(aitest.Uniform(5), 140))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newEvaluator(func(context.Context, ai.EvaluationInput) (json.RawMessage, error) {
				return json.RawMessage(tt.raw), nil
			})
			_, err := e.Evaluate(context.Background(), testJob, types.CandidateProfile{CandidateID: "c1", Name: "Ada"})
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrorTypeSchema), "got %v", err)
		})
	}
}

func TestEvaluateOracleFailureIsUpstream(t *testing.T) {
	e, _ := newEvaluator(func(context.Context, ai.EvaluationInput) (json.RawMessage, error) {
		return nil, fmt.Errorf("connection reset")
	})
	_, err := e.Evaluate(context.Background(), testJob, types.CandidateProfile{CandidateID: "c1", Name: "Ada"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrorTypeUpstream))

	e, _ = newEvaluator(func(context.Context, ai.EvaluationInput) (json.RawMessage, error) {
		return nil, errors.NewUpstreamError(errors.ErrCodeOracleUnavailable, "quota", nil)
	})
	_, err = e.Evaluate(context.Background(), testJob, types.CandidateProfile{CandidateID: "c1", Name: "Ada"})
	assert.True(t, errors.Is(err, errors.ErrorTypeUpstream))
}

func TestEvaluateSendsOracleView(t *testing.T) {
	e, _ := newEvaluator(func(_ context.Context, in ai.EvaluationInput) (json.RawMessage, error) {
		var view map[string]any
		require.NoError(t, json.Unmarshal(in.Candidate, &view))
		assert.Contains(t, view, "resume_summary")
		assert.NotContains(t, view, "email")
		assert.NotContains(t, view, "candidate_id")
		return aitest.EvaluationJSON(aitest.Uniform(5), 44), nil
	})

	email := "ada@example.com"
	_, err := e.Evaluate(context.Background(), testJob, types.CandidateProfile{
		CandidateID:   "c1",
		Name:          "Ada",
		Email:         &email,
		ResumeSummary: "Go engineer",
	})
	require.NoError(t, err)
}
