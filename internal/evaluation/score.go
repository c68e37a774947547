package evaluation

import (
	"fmt"

	"talentmatch/internal/errors"
	"talentmatch/internal/types"
)

// Criterion weights in percent, in the order years, skills, industry,
// achievements and certifications, education. They sum to 100.
var Weights = [5]int{20, 30, 30, 15, 5}

// CriterionScores returns the five sub-scores in Weights order
func CriterionScores(e types.Evaluation) [5]int {
	return [5]int{
		e.YearsExperienceScore,
		e.Skills.Score,
		e.IndustryRelevance.Score,
		e.AchievementsAndCerts.Score,
		e.EducationAlignment.Score,
	}
}

// OverallScore computes round(Σ wᵢ(sᵢ−1)/9) with halves rounded up, in
// integer arithmetic: N = Σ wᵢ(sᵢ−1), overall = (2N + 9) / 18.
func OverallScore(e types.Evaluation) int {
	n := 0
	for i, s := range CriterionScores(e) {
		n += Weights[i] * (s - 1)
	}
	return (2*n + 9) / 18
}

var criterionNames = [5]string{
	"years_experience_score",
	"skills.score",
	"industry_relevance.score",
	"achievements_and_certs.score",
	"education_alignment.score",
}

// CheckBounds verifies every sub-score is in [1,10] and the overall in [0,100].
func CheckBounds(e types.Evaluation) error {
	for i, s := range CriterionScores(e) {
		if s < types.MinCriterionScore || s > types.MaxCriterionScore {
			return errors.NewSchemaError(errors.ErrCodeSchemaViolation,
				fmt.Sprintf("%s out of range: %d", criterionNames[i], s), nil)
		}
	}
	if e.OverallScore < types.MinOverallScore || e.OverallScore > types.MaxOverallScore {
		return errors.NewSchemaError(errors.ErrCodeSchemaViolation,
			fmt.Sprintf("overall_score_0_to_100 out of range: %d", e.OverallScore), nil)
	}
	return nil
}
