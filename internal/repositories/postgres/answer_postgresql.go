package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/SAP-F-2025/marking-service/internal/models"
	"github.com/SAP-F-2025/marking-service/internal/repositories"
	"gorm.io/gorm"
)

type AnswerPostgreSQL struct {
	db *gorm.DB
}

func NewAnswerPostgreSQL(db *gorm.DB) repositories.AnswerRepository {
	return &AnswerPostgreSQL{db: db}
}

func (a *AnswerPostgreSQL) SupersedeAndCreate(ctx context.Context, tx *gorm.DB, assignmentID uint, fileID string, answers []models.Answer) error {
	run := func(tx *gorm.DB) error {
		err := tx.Model(&models.Answer{}).
			Where("assignment_id = ? AND file_id = ? AND superseded_at IS NULL", assignmentID, fileID).
			Update("superseded_at", time.Now().UTC()).Error
		if err != nil {
			return fmt.Errorf("failed to supersede answers: %w", err)
		}
		if len(answers) == 0 {
			return nil
		}
		for i := range answers {
			answers[i].ID = 0
			answers[i].AssignmentID = assignmentID
			answers[i].FileID = fileID
			answers[i].SupersededAt = nil
		}
		if err := tx.Create(&answers).Error; err != nil {
			return fmt.Errorf("failed to store answers: %w", err)
		}
		return nil
	}

	if tx != nil {
		return run(tx.WithContext(ctx))
	}
	return a.db.WithContext(ctx).Transaction(run)
}

func (a *AnswerPostgreSQL) ListCurrentByAssignment(ctx context.Context, tx *gorm.DB, assignmentID uint) ([]models.Answer, error) {
	db := a.getDB(tx)
	var answers []models.Answer
	err := db.WithContext(ctx).
		Where("assignment_id = ? AND superseded_at IS NULL", assignmentID).
		Order("file_id ASC, question_id ASC").
		Find(&answers).Error
	if err != nil {
		return nil, err
	}
	return answers, nil
}

func (a *AnswerPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}
