package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/SAP-F-2025/marking-service/internal/models"
	"github.com/SAP-F-2025/marking-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GradingBatchPostgreSQL struct {
	db *gorm.DB
}

func NewGradingBatchPostgreSQL(db *gorm.DB) repositories.GradingBatchRepository {
	return &GradingBatchPostgreSQL{db: db}
}

// Create inserts the batch header and its initial task rows
func (g *GradingBatchPostgreSQL) Create(ctx context.Context, tx *gorm.DB, batch *models.GradingBatch) error {
	db := g.getDB(tx)
	if err := db.WithContext(ctx).Create(batch).Error; err != nil {
		return fmt.Errorf("failed to create grading batch: %w", err)
	}
	return nil
}

func (g *GradingBatchPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.GradingBatch, error) {
	db := g.getDB(tx)
	var batch models.GradingBatch
	err := db.WithContext(ctx).
		Preload("Tasks", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("id = ?", id).
		First(&batch).Error
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

func (g *GradingBatchPostgreSQL) UpdateStatus(ctx context.Context, tx *gorm.DB, id string, status models.BatchStatus, finishedAt *time.Time) error {
	db := g.getDB(tx)
	result := db.WithContext(ctx).
		Model(&models.GradingBatch{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      status,
			"finished_at": finishedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update batch status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (g *GradingBatchPostgreSQL) SaveTask(ctx context.Context, tx *gorm.DB, task *models.GradingTask) error {
	db := g.getDB(tx)
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "batch_id"}, {Name: "file_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"file_name", "status", "raw_score", "normalized_score",
				"error_kind", "error_message", "started_at", "finished_at",
			}),
		}).
		Create(task).Error
}

func (g *GradingBatchPostgreSQL) ListLatestCompletedTasks(ctx context.Context, tx *gorm.DB, assignmentID uint) ([]*models.GradingTask, error) {
	db := g.getDB(tx)
	var tasks []*models.GradingTask
	err := db.WithContext(ctx).
		Model(&models.GradingTask{}).
		Select("grading_tasks.*").
		Joins("JOIN grading_batches ON grading_batches.id = grading_tasks.batch_id").
		Where("grading_batches.assignment_id = ?", assignmentID).
		Where("grading_tasks.status = ?", models.TaskCompleted).
		Order("grading_batches.created_at DESC").
		Order("grading_tasks.finished_at DESC").
		Order("grading_tasks.id DESC").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(tasks))
	latest := make([]*models.GradingTask, 0, len(tasks))
	for _, t := range tasks {
		if seen[t.FileID] {
			continue
		}
		seen[t.FileID] = true
		latest = append(latest, t)
	}
	return latest, nil
}

func (g *GradingBatchPostgreSQL) MarkInterrupted(ctx context.Context, tx *gorm.DB, at time.Time) (int64, error) {
	db := g.getDB(tx)
	result := db.WithContext(ctx).
		Model(&models.GradingBatch{}).
		Where("status = ?", models.BatchRunning).
		Updates(map[string]interface{}{
			"status":      models.BatchCancelled,
			"finished_at": at,
		})
	return result.RowsAffected, result.Error
}

func (g *GradingBatchPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return g.db
}
