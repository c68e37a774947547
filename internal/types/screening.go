package types

// Search types reported back to callers.
const (
	SearchTypeAllCandidates = "all_candidates"
	SearchTypeAppliedOnly   = "applied_only"
)

// Screening request defaults.
const (
	DefaultTopK                  = 30
	DefaultTopKEvaluated         = 10
	DefaultMaxAllCandidatesLimit = 5
)

// ScreeningRequest starts one screening run for a job. Pointer fields
// distinguish "not sent" from zero so defaults can be applied.
type ScreeningRequest struct {
	JobID                 string `json:"job_id" validate:"required,max=64"`
	TopK                  *int   `json:"top_k,omitempty" validate:"omitempty,gte=1,lte=200"`
	TopKEvaluated         *int   `json:"top_k_evaluated,omitempty" validate:"omitempty,gte=1,lte=50"`
	SearchAllCandidates   *bool  `json:"search_all_candidates,omitempty"`
	MaxAllCandidatesLimit *int   `json:"max_all_candidates_limit,omitempty" validate:"omitempty,gte=1,lte=50"`
}

// ScreeningParams is a ScreeningRequest with defaults resolved.
type ScreeningParams struct {
	JobID                 string
	TopK                  int
	TopKEvaluated         int
	SearchAllCandidates   bool
	MaxAllCandidatesLimit int
}

// Resolve applies defaults to unset fields.
func (r ScreeningRequest) Resolve() ScreeningParams {
	p := ScreeningParams{
		JobID:                 r.JobID,
		TopK:                  DefaultTopK,
		TopKEvaluated:         DefaultTopKEvaluated,
		SearchAllCandidates:   true,
		MaxAllCandidatesLimit: DefaultMaxAllCandidatesLimit,
	}
	if r.TopK != nil {
		p.TopK = *r.TopK
	}
	if r.TopKEvaluated != nil {
		p.TopKEvaluated = *r.TopKEvaluated
	}
	if r.SearchAllCandidates != nil {
		p.SearchAllCandidates = *r.SearchAllCandidates
	}
	if r.MaxAllCandidatesLimit != nil {
		p.MaxAllCandidatesLimit = *r.MaxAllCandidatesLimit
	}
	return p
}

// RetrievedCandidate is one hit from hybrid retrieval.
type RetrievedCandidate struct {
	Profile        CandidateProfile `json:"candidate"`
	Score          float64          `json:"retrieval_score"`
	AppliedToJob   bool             `json:"applied_to_job"`
	OriginalJobID  string           `json:"original_job_id,omitempty"`
	VectorScore    float64          `json:"-"`
	LexicalScore   float64          `json:"-"`
	FromCorpusWide bool             `json:"-"`
}

// RankedResult is an evaluated candidate with provenance.
type RankedResult struct {
	CandidateID      string           `json:"candidate_id"`
	Candidate        CandidateProfile `json:"candidate"`
	Evaluation       Evaluation       `json:"evaluation"`
	RetrievalScore   float64          `json:"retrieval_score"`
	AppliedToJob     bool             `json:"applied_to_job"`
	OriginalJobID    string           `json:"original_job_id,omitempty"`
	OriginalJobTitle *string          `json:"original_job_title,omitempty"`
}

// CandidateError records a candidate dropped from a run.
type CandidateError struct {
	CandidateID string `json:"candidate_id"`
	Stage       string `json:"stage"`
	Type        string `json:"type"`
	Message     string `json:"message"`
}

// ScreeningStats summarizes a run.
type ScreeningStats struct {
	Retrieved           int `json:"retrieved"`
	TotalEvaluated      int `json:"total_evaluated"`
	Failed              int `json:"failed"`
	AppliedCandidates   int `json:"applied_candidates"`
	PotentialCandidates int `json:"potential_candidates"`
	ReturnedCount       int `json:"returned_count"`
}

// ScreeningResponse is the result of a run.
type ScreeningResponse struct {
	RunID               string           `json:"run_id"`
	JobID               string           `json:"job_id"`
	JobTitle            string           `json:"job_title"`
	SearchType          string           `json:"search_type"`
	Evaluated           []RankedResult   `json:"evaluated"`
	AppliedCandidates   []RankedResult   `json:"applied_candidates"`
	PotentialCandidates []RankedResult   `json:"potential_candidates"`
	Stats               ScreeningStats   `json:"stats"`
	Errors              []CandidateError `json:"errors"`
}

// ScreeningSummary reports pipeline funnel counts for a job.
type ScreeningSummary struct {
	JobID               string `json:"job_id"`
	FastFilterProcessed int    `json:"fast_filter_processed"`
	FastFilterFiltered  int    `json:"fast_filter_filtered"`
	SemanticMatched     int    `json:"semantic_matched"`
	LLMEvaluated        int    `json:"llm_evaluated"`
}
