package types

// Evidence holds short quotes or paraphrased bullets supporting a score.
type Evidence struct {
	Notes []string `json:"notes"`
}

// SkillsAssessment is the hard-skills criterion.
type SkillsAssessment struct {
	Score                  int      `json:"score"`
	MatchedSkills          []string `json:"matched_skills"`
	MissingEssentialSkills []string `json:"missing_essential_skills"`
	NiceToHaveMatched      []string `json:"nice_to_have_matched"`
	Evidence               Evidence `json:"evidence"`
}

// CriterionAssessment is a generic scored criterion.
type CriterionAssessment struct {
	Score    int      `json:"score"`
	Evidence Evidence `json:"evidence"`
}

// Evaluation is the per (job, candidate) assessment. It is recomputed on
// every screening run and never stored.
type Evaluation struct {
	YearsExperienceScore    int                 `json:"years_experience_score"`
	YearsExperienceEvidence Evidence            `json:"years_experience_evidence"`
	Skills                  SkillsAssessment    `json:"skills"`
	IndustryRelevance       CriterionAssessment `json:"industry_relevance"`
	AchievementsAndCerts    CriterionAssessment `json:"achievements_and_certs"`
	EducationAlignment      CriterionAssessment `json:"education_alignment"`
	OverallScore            int                 `json:"overall_score_0_to_100"`
	Summary                 string              `json:"summary"`
}

// Sub-score bounds shared by every criterion.
const (
	MinCriterionScore = 1
	MaxCriterionScore = 10
	MinOverallScore   = 0
	MaxOverallScore   = 100
)
