package types

import "time"

// JobPosting is a stored job opening.
type JobPosting struct {
	JobID       string    `json:"job_id"`
	Title       string    `json:"job_title"`
	Description string    `json:"job_description"`
	CreatedAt   time.Time `json:"job_creation_date"`
	Vector      []float32 `json:"-"`
}

// HasVector reports whether the job has been embedded.
func (j *JobPosting) HasVector() bool {
	return j != nil && len(j.Vector) > 0
}

// JobSummary is the list projection of a job.
type JobSummary struct {
	JobID     string    `json:"job_id"`
	Title     string    `json:"job_title"`
	CreatedAt time.Time `json:"job_creation_date"`
}

// JobRequest carries the hiring manager's raw inputs for description generation.
type JobRequest struct {
	JobTitle                          string `json:"job_title" validate:"required,max=200"`
	RequiredSkills                    string `json:"required_skills" validate:"required"`
	NiceToHaveSkills                  string `json:"nice_to_have_skills"`
	YearsExperience                   string `json:"years_experience" validate:"required"`
	RelevantIndustryProjectExperience string `json:"relevant_industry_project_experience"`
	EducationRequirement              string `json:"education_requirement"`
	Responsibilities                  string `json:"responsibilities"`
}

// GeneratedJob is the output of description generation.
type GeneratedJob struct {
	JobTitle       string `json:"job_title"`
	JobDescription string `json:"job_description"`
}

// CreateJobRequest stores a job and embeds its description.
type CreateJobRequest struct {
	JobTitle       string `json:"job_title" validate:"required,max=200"`
	JobDescription string `json:"job_description" validate:"required"`
}

// ListJobsRequest bounds the job listing.
type ListJobsRequest struct {
	Limit int `json:"limit" validate:"gte=1,lte=200"`
}

// DefaultListJobsLimit applies when the caller gives no limit.
const DefaultListJobsLimit = 25
