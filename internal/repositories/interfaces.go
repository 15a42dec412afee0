package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/SAP-F-2025/marking-service/internal/models"
	"gorm.io/gorm"
)

// Repository groups the per-entity repositories behind one handle.
type Repository interface {
	MarkingScheme() MarkingSchemeRepository
	GradingBatch() GradingBatchRepository
	Answer() AnswerRepository

	// WithTransaction runs fn in a database transaction. Pass tx to the
	// repository methods to join it.
	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// MarkingSchemeRepository persists marking schemes with their ordered questions.
type MarkingSchemeRepository interface {
	Create(ctx context.Context, tx *gorm.DB, scheme *models.MarkingScheme) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.MarkingScheme, error)
	ListByAssignment(ctx context.Context, tx *gorm.DB, assignmentID uint) ([]*models.MarkingScheme, error)
	// GetLatestByAssignment returns the most recently updated scheme of an assignment.
	GetLatestByAssignment(ctx context.Context, tx *gorm.DB, assignmentID uint) (*models.MarkingScheme, error)
	// Update replaces the scheme row and its full question list.
	Update(ctx context.Context, tx *gorm.DB, scheme *models.MarkingScheme) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
}

// GradingBatchRepository persists batch headers and per-file task rows.
type GradingBatchRepository interface {
	Create(ctx context.Context, tx *gorm.DB, batch *models.GradingBatch) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.GradingBatch, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, id string, status models.BatchStatus, finishedAt *time.Time) error
	// SaveTask upserts a task row keyed by batch and file id.
	SaveTask(ctx context.Context, tx *gorm.DB, task *models.GradingTask) error
	// ListLatestCompletedTasks returns, per file, the completed task of the
	// most recently created batch of an assignment.
	ListLatestCompletedTasks(ctx context.Context, tx *gorm.DB, assignmentID uint) ([]*models.GradingTask, error)
	// MarkInterrupted moves batches left running by a previous process to cancelled.
	MarkInterrupted(ctx context.Context, tx *gorm.DB, at time.Time) (int64, error)
}

// AnswerRepository stores per-question grading results. Rows are never
// updated in place; a regrade supersedes the previous rows of the file.
type AnswerRepository interface {
	SupersedeAndCreate(ctx context.Context, tx *gorm.DB, assignmentID uint, fileID string, answers []models.Answer) error
	ListCurrentByAssignment(ctx context.Context, tx *gorm.DB, assignmentID uint) ([]models.Answer, error)
}

// IsNotFoundError reports whether err is gorm's record-not-found error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
