package types

import "time"

// UploadedFile describes a stored resume document.
type UploadedFile struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}

// UploadResult reports a batch upload.
type UploadResult struct {
	JobID     string   `json:"job_id"`
	Saved     int      `json:"saved"`
	Filenames []string `json:"filenames"`
	Errors    []string `json:"errors"`
}

// IngestError records a document that could not become a candidate.
type IngestError struct {
	Source  string `json:"source"`
	Stage   string `json:"stage"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

// IngestReport is the result of processing a job's resumes.
type IngestReport struct {
	JobID           string        `json:"job_id"`
	TotalCandidates int           `json:"total_candidates"`
	Inserted        []string      `json:"inserted"`
	Replaced        int           `json:"replaced"`
	Errors          []IngestError `json:"errors"`
}
