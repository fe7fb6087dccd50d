package archive

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/briggon/dataplane/internal/models"
)

// ErrNotArchived is returned when no archived row exists for a job ID.
var ErrNotArchived = errors.New("job not archived")

// Repository handles database operations for archived jobs
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new archive repository instance
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Save inserts the terminal record for a job. Re-archiving the same job
// ID is a no-op, which keeps executor retries idempotent.
func (r *Repository) Save(ctx context.Context, job *models.Job) error {
	if !job.Status.Terminal() {
		return fmt.Errorf("refusing to archive non-terminal job %s (%s)", job.ID, job.Status)
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "job_id"}},
			DoNothing: true,
		}).
		Create(FromRecord(job)).Error
}

// GetByJobID retrieves an archived job by its job ID
func (r *Repository) GetByJobID(ctx context.Context, jobID string) (*Job, error) {
	var archived Job
	err := r.db.WithContext(ctx).Where(&Job{JobID: jobID}).First(&archived).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotArchived
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get archived job: %w", err)
	}
	return &archived, nil
}

// List returns archived jobs, optionally filtered by status, newest first.
func (r *Repository) List(ctx context.Context, status string, limit int) ([]Job, error) {
	query := r.db.WithContext(ctx).Order("submitted_at DESC")
	if status != "" {
		query = query.Where(&Job{Status: status})
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var jobs []Job
	if err := query.Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("failed to list archived jobs: %w", err)
	}
	return jobs, nil
}
