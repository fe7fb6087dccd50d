// Package types defines the request and response shapes of the HTTP API.
package types

import (
	"encoding/json"
	"time"

	"github.com/briggon/dataplane/internal/models"
)

// SubmitJobRequest is the body of POST /api/v1/process.
type SubmitJobRequest struct {
	Data     json.RawMessage `json:"data"`
	Priority string          `json:"priority,omitempty"`
}

// SubmitJobResponse acknowledges an accepted submission.
type SubmitJobResponse struct {
	JobID     string           `json:"job_id"`
	Status    models.JobStatus `json:"status"`
	Message   string           `json:"message"`
	CreatedAt time.Time        `json:"created_at"`
}

// JobStatusResponse is the body of GET /api/v1/job/:id.
type JobStatusResponse struct {
	JobID          string           `json:"job_id"`
	Status         models.JobStatus `json:"status"`
	Progress       float64          `json:"progress"`
	Priority       string           `json:"priority,omitempty"`
	ResultLocation string           `json:"result_location,omitempty"`
	Error          string           `json:"error,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}

// NewJobStatusResponse builds the status view of a job record.
func NewJobStatusResponse(job *models.Job) JobStatusResponse {
	return JobStatusResponse{
		JobID:          job.ID,
		Status:         job.Status,
		Progress:       job.Progress,
		Priority:       string(job.Priority),
		ResultLocation: job.ResultLocation,
		Error:          job.Error,
		CreatedAt:      job.CreatedAt,
	}
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

// ReadyResponse is the body of GET /ready.
type ReadyResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// RootResponse is the service banner served at GET /.
type RootResponse struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Status  string `json:"status"`
}
