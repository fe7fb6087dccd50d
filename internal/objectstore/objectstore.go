// Package objectstore abstracts the blob storage holding job results.
// The platform runs a MinIO cluster, accessed through the S3 API.
package objectstore

import "context"

// ResultKey derives the deterministic object key for a job's result.
// Re-executing the same job ID overwrites the same object instead of
// accumulating duplicates.
func ResultKey(jobID string) string {
	return "results/" + jobID + ".json"
}

// ObjectStore reads and writes opaque result blobs.
type ObjectStore interface {
	// Put writes the blob under the given key, overwriting any previous
	// value.
	Put(ctx context.Context, key string, body []byte) error

	// Get reads the blob stored under the given key.
	Get(ctx context.Context, key string) ([]byte, error)

	// Ping verifies connectivity for readiness checks.
	Ping(ctx context.Context) error
}
