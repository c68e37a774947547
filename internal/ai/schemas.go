package ai

import "google.golang.org/genai"

func stringList() *genai.Schema {
	return &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}}
}

func evidenceSchema() *genai.Schema {
	return &genai.Schema{
		Type:       genai.TypeObject,
		Properties: map[string]*genai.Schema{"notes": stringList()},
		Required:   []string{"notes"},
	}
}

func criterionSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"score":    {Type: genai.TypeInteger},
			"evidence": evidenceSchema(),
		},
		Required: []string{"score", "evidence"},
	}
}

// evaluationResponseSchema mirrors the evaluation.v1 contract so the model
// is steered toward output that passes local validation.
func evaluationResponseSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"years_experience_score":    {Type: genai.TypeInteger},
			"years_experience_evidence": evidenceSchema(),
			"skills": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"score":                    {Type: genai.TypeInteger},
					"matched_skills":           stringList(),
					"missing_essential_skills": stringList(),
					"nice_to_have_matched":     stringList(),
					"evidence":                 evidenceSchema(),
				},
				Required: []string{"score", "matched_skills", "missing_essential_skills", "nice_to_have_matched", "evidence"},
			},
			"industry_relevance":     criterionSchema(),
			"achievements_and_certs": criterionSchema(),
			"education_alignment":    criterionSchema(),
			"overall_score_0_to_100": {Type: genai.TypeInteger},
			"summary":                {Type: genai.TypeString},
		},
		Required: []string{
			"years_experience_score", "years_experience_evidence", "skills",
			"industry_relevance", "achievements_and_certs", "education_alignment",
			"overall_score_0_to_100", "summary",
		},
	}
}

// profileResponseSchema describes the structured resume extraction. Every
// field is a string or list so "n/a" can be returned for missing data.
func profileResponseSchema() *genai.Schema {
	str := func() *genai.Schema { return &genai.Schema{Type: genai.TypeString} }
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"name":         str(),
			"email":        str(),
			"age":          str(),
			"skills":       stringList(),
			"social_links": stringList(),
			"experience": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"company":          str(),
						"location":         str(),
						"role":             str(),
						"start_date":       str(),
						"end_date":         str(),
						"responsibilities": stringList(),
					},
				},
			},
			"education": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"institution":     str(),
						"qualification":   str(),
						"graduation_date": str(),
						"details":         stringList(),
					},
				},
			},
			"projects": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"name":        str(),
						"description": str(),
					},
				},
			},
			"years_of_experience": str(),
			"highest_education":   str(),
			"current_role":        str(),
			"function":            str(),
		},
		Required: []string{"name"},
	}
}
