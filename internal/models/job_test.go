package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJobStatus(t *testing.T) {
	tests := []struct {
		input    string
		expected JobStatus
		wantErr  bool
	}{
		{"queued", JobStatusQueued, false},
		{"processing", JobStatusProcessing, false},
		{"completed", JobStatusCompleted, false},
		{"failed", JobStatusFailed, false},
		{"unknown", JobStatusUnknown, false},
		{"pending", JobStatusUnknown, true},
		{"", JobStatusUnknown, true},
	}

	for _, tc := range tests {
		status, err := ParseJobStatus(tc.input)
		if tc.wantErr {
			assert.Error(t, err, "input %q", tc.input)
			continue
		}
		require.NoError(t, err, "input %q", tc.input)
		assert.Equal(t, tc.expected, status)
	}
}

func TestJobStatusJSON(t *testing.T) {
	data, err := json.Marshal(JobStatusProcessing)
	require.NoError(t, err)
	assert.Equal(t, `"processing"`, string(data))

	var status JobStatus
	require.NoError(t, json.Unmarshal([]byte(`"completed"`), &status))
	assert.Equal(t, JobStatusCompleted, status)

	assert.Error(t, json.Unmarshal([]byte(`"bogus"`), &status))
}

func TestJobStatusTerminal(t *testing.T) {
	assert.False(t, JobStatusQueued.Terminal())
	assert.False(t, JobStatusProcessing.Terminal())
	assert.True(t, JobStatusCompleted.Terminal())
	assert.True(t, JobStatusFailed.Terminal())
}

func TestParseJobPriority(t *testing.T) {
	p, err := ParseJobPriority("")
	require.NoError(t, err)
	assert.Equal(t, JobPriorityNormal, p)

	p, err = ParseJobPriority("high")
	require.NoError(t, err)
	assert.Equal(t, JobPriorityHigh, p)

	_, err = ParseJobPriority("urgent")
	assert.Error(t, err)
}

func TestJobValidate(t *testing.T) {
	job := &Job{
		ID:        "job-1",
		Status:    JobStatusQueued,
		Priority:  JobPriorityNormal,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, job.Validate())

	// Result on a non-terminal job violates the lifecycle invariant.
	job.ResultLocation = "results/job-1.json"
	assert.Error(t, job.Validate())

	job.Status = JobStatusCompleted
	job.Progress = 1.0
	require.NoError(t, job.Validate())

	// Error and result are mutually exclusive on terminal jobs.
	job.Error = "boom"
	assert.Error(t, job.Validate())

	job.ResultLocation = ""
	job.Status = JobStatusFailed
	require.NoError(t, job.Validate())

	job.Progress = 1.5
	assert.Error(t, job.Validate())
}
