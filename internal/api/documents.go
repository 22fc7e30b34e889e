package api

import "github.com/runforge/arc/internal/models"

// SubmitRequest is the request body for submit(file_ref, run_config)
// (spec.md §6).
type SubmitRequest struct {
	FileRef   string           `json:"file_ref"`
	RunConfig models.RunConfig `json:"run_config,omitempty"`
}

// SubmitResponse echoes the allocated run_id.
type SubmitResponse struct {
	RunID string `json:"run_id"`
}

// JobDocument is the wire shape of a Job Queue entry (get_job/list_jobs).
type JobDocument struct {
	RunID     string           `json:"run_id"`
	Status    models.JobStatus `json:"status"`
	FilePath  string           `json:"file_path"`
	Message   string           `json:"message,omitempty"`
	RunPath   string           `json:"run_path,omitempty"`
	CreatedAt models.Time      `json:"created_at"`
	UpdatedAt models.Time      `json:"updated_at"`
}

func makeJobDocument(job *models.Job) JobDocument {
	return JobDocument{
		RunID:     string(job.RunID),
		Status:    job.Status,
		FilePath:  job.FilePath,
		Message:   job.Message,
		RunPath:   job.RunPath,
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
	}
}

// JobListDocument is the list_jobs response envelope.
type JobListDocument struct {
	Jobs   []JobDocument `json:"jobs"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// ErrorDocument is the standard error response body.
type ErrorDocument struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
