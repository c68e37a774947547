package types

import "time"

// Experience is one employment entry. Nil pointers are absent values.
type Experience struct {
	Company          *string    `json:"company"`
	Location         *string    `json:"location"`
	Role             *string    `json:"role"`
	StartDate        *time.Time `json:"start_date"`
	EndDate          *time.Time `json:"end_date"`
	Responsibilities TextList   `json:"responsibilities"`
}

// Education is one education entry.
type Education struct {
	Institution    *string    `json:"institution"`
	Qualification  *string    `json:"qualification"`
	GraduationDate *time.Time `json:"graduation_date"`
	Details        TextList   `json:"details"`
}

// Project is one project entry.
type Project struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// CandidateProfile is a normalized resume. Record lists are nil when the
// extractor omitted them and empty when it returned nothing.
type CandidateProfile struct {
	CandidateID       string       `json:"candidate_id"`
	JobID             string       `json:"job_id"`
	Name              string       `json:"name"`
	Email             *string      `json:"email"`
	Age               *int         `json:"age"`
	Skills            TextList     `json:"skills"`
	SocialLinks       TextList     `json:"social_links"`
	Experience        []Experience `json:"experience"`
	Education         []Education  `json:"education"`
	Projects          []Project    `json:"projects"`
	YearsOfExperience *int         `json:"years_of_experience"`
	HighestEducation  *string      `json:"highest_education"`
	CurrentRole       *string      `json:"current_role"`
	Function          *string      `json:"function"`
	ResumeSummary     string       `json:"resume_summary"`
	SourceDigest      string       `json:"source_digest,omitempty"`
	SummaryVector     []float32    `json:"-"`
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
