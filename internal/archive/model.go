// Package archive mirrors terminal job records to PostgreSQL. The Redis
// record store expires entries after their TTL; the archive keeps a
// durable row per finished job for reporting and retention.
package archive

import (
	"time"

	"gorm.io/gorm"

	"github.com/briggon/dataplane/internal/models"
)

// Job is the archived form of a terminal job record.
type Job struct {
	gorm.Model
	JobID          string    `json:"job_id" gorm:"not null;uniqueIndex"`
	Status         string    `json:"status" gorm:"not null;index"`
	Priority       string    `json:"priority" gorm:"index"`
	Progress       float64   `json:"progress"`
	ResultLocation string    `json:"result_location,omitempty" gorm:"type:text"`
	Error          string    `json:"error,omitempty" gorm:"type:text"`
	SubmittedAt    time.Time `json:"submitted_at" gorm:"index"`
}

// FromRecord converts a job record into its archived form.
func FromRecord(job *models.Job) *Job {
	return &Job{
		JobID:          job.ID,
		Status:         job.Status.String(),
		Priority:       string(job.Priority),
		Progress:       job.Progress,
		ResultLocation: job.ResultLocation,
		Error:          job.Error,
		SubmittedAt:    job.CreatedAt,
	}
}
