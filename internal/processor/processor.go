// Package processor is the domain-specific extension point. The rest of
// the system treats the transformation as an opaque function from payload
// bytes to result bytes; products built on this template replace the
// default processor with their own logic.
package processor

import (
	"context"
	"encoding/json"
	"fmt"
)

// ProgressFunc reports transformation progress in [0.0, 1.0]. Reports are
// best-effort; implementations may call it at whatever granularity makes
// sense for their workload, or not at all.
type ProgressFunc func(progress float64)

// Processor transforms a submitted payload into a result blob. It may be
// arbitrarily slow; the executor holds no lock on the job record while it
// runs. Returned errors are recorded on the job verbatim.
type Processor interface {
	Process(ctx context.Context, jobID string, payload json.RawMessage, report ProgressFunc) ([]byte, error)
}

// Func adapts a plain function to the Processor interface.
type Func func(ctx context.Context, jobID string, payload json.RawMessage, report ProgressFunc) ([]byte, error)

// Process calls f.
func (f Func) Process(ctx context.Context, jobID string, payload json.RawMessage, report ProgressFunc) ([]byte, error) {
	return f(ctx, jobID, payload, report)
}

// EchoResult is the output of the default processor.
type EchoResult struct {
	Processed bool   `json:"processed"`
	InputSize int    `json:"input_size"`
	JobID     string `json:"job_id"`
}

// echo is the placeholder transformation shipped with the template. It
// acknowledges the payload and reports its size.
type echo struct{}

// NewEcho returns the default placeholder processor.
func NewEcho() Processor {
	return echo{}
}

func (echo) Process(_ context.Context, jobID string, payload json.RawMessage, report ProgressFunc) ([]byte, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("empty payload")
	}
	if !json.Valid(payload) {
		return nil, fmt.Errorf("payload is not valid JSON")
	}

	if report != nil {
		report(0.5)
	}

	result := EchoResult{
		Processed: true,
		InputSize: len(payload),
		JobID:     jobID,
	}

	if report != nil {
		report(1.0)
	}
	return json.Marshal(result)
}
