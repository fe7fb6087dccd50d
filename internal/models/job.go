// Package models defines the core entities tracked by the service.
package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// JobStatus represents the current state of a job in the system
type JobStatus int

// Job status constants
const (
	// JobStatusUnknown represents an unknown or invalid job status
	JobStatusUnknown JobStatus = iota
	// JobStatusQueued indicates the job is waiting to be picked up by a worker
	JobStatusQueued
	// JobStatusProcessing indicates the job is currently being processed
	JobStatusProcessing
	// JobStatusCompleted indicates the job has finished successfully
	JobStatusCompleted
	// JobStatusFailed indicates the job has failed to complete
	JobStatusFailed
)

var jobStatusNames = []string{
	"unknown",
	"queued",
	"processing",
	"completed",
	"failed",
}

// String returns the string representation of a job status
func (s JobStatus) String() string {
	if int(s) < 0 || int(s) >= len(jobStatusNames) {
		return jobStatusNames[JobStatusUnknown]
	}
	return jobStatusNames[s]
}

// Terminal reports whether the status is a final state. Terminal jobs are
// never mutated again by the executor.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// ParseJobStatus converts a string representation of a job status to JobStatus type
func ParseJobStatus(str string) (JobStatus, error) {
	for i, status := range jobStatusNames {
		if status == str {
			return JobStatus(i), nil
		}
	}
	return JobStatusUnknown, fmt.Errorf("invalid job status: %s", str)
}

// MarshalJSON implements the json.Marshaler interface for JobStatus
func (s JobStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for JobStatus
func (s *JobStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	status, err := ParseJobStatus(str)
	if err != nil {
		return err
	}

	*s = status
	return nil
}

// JobPriority controls which execution queue a job lands in. Workers
// drain higher priorities first.
type JobPriority string

// Job priority constants
const (
	// JobPriorityLow is drained only when no normal or high priority work is waiting
	JobPriorityLow JobPriority = "low"
	// JobPriorityNormal is the default priority for submissions that omit one
	JobPriorityNormal JobPriority = "normal"
	// JobPriorityHigh is drained before all other priorities
	JobPriorityHigh JobPriority = "high"
)

// ParseJobPriority converts a string to a JobPriority. The empty string
// maps to JobPriorityNormal.
func ParseJobPriority(str string) (JobPriority, error) {
	switch JobPriority(str) {
	case JobPriorityLow, JobPriorityNormal, JobPriorityHigh:
		return JobPriority(str), nil
	case "":
		return JobPriorityNormal, nil
	default:
		return "", fmt.Errorf("invalid job priority: %s", str)
	}
}

// Job represents one unit of submitted work tracked through its lifecycle.
//
// Exactly one of ResultLocation and Error is set once the status is
// terminal; neither is set before that. Progress is only meaningful while
// the job is processing and is pinned to 1.0 on completion.
type Job struct {
	ID             string      `json:"job_id"`
	Status         JobStatus   `json:"status"`
	Progress       float64     `json:"progress"`
	Priority       JobPriority `json:"priority"`
	ResultLocation string      `json:"result_location,omitempty"`
	Error          string      `json:"error,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}

// Validate checks the record invariants. It is used by tests and by the
// store implementations before persisting.
func (j *Job) Validate() error {
	if j.ID == "" {
		return fmt.Errorf("job id is required")
	}
	if j.Status == JobStatusUnknown {
		return fmt.Errorf("job status is required")
	}
	if j.Progress < 0.0 || j.Progress > 1.0 {
		return fmt.Errorf("job progress must be within [0.0, 1.0], got %f", j.Progress)
	}
	if _, err := ParseJobPriority(string(j.Priority)); err != nil {
		return err
	}
	if !j.Status.Terminal() && (j.ResultLocation != "" || j.Error != "") {
		return fmt.Errorf("result_location and error may only be set on terminal jobs")
	}
	if j.ResultLocation != "" && j.Error != "" {
		return fmt.Errorf("result_location and error are mutually exclusive")
	}
	return nil
}
