package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/SAP-F-2025/marking-service/internal/models"
	"github.com/SAP-F-2025/marking-service/internal/repositories"
	"gorm.io/gorm"
)

type MarkingSchemePostgreSQL struct {
	db *gorm.DB
}

func NewMarkingSchemePostgreSQL(db *gorm.DB) repositories.MarkingSchemeRepository {
	return &MarkingSchemePostgreSQL{db: db}
}

func orderedQuestions(db *gorm.DB) *gorm.DB {
	return db.Order("number ASC")
}

// Create inserts the scheme together with its questions
func (m *MarkingSchemePostgreSQL) Create(ctx context.Context, tx *gorm.DB, scheme *models.MarkingScheme) error {
	db := m.getDB(tx)
	if err := db.WithContext(ctx).Create(scheme).Error; err != nil {
		return fmt.Errorf("failed to create marking scheme: %w", err)
	}
	return nil
}

func (m *MarkingSchemePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.MarkingScheme, error) {
	db := m.getDB(tx)
	var scheme models.MarkingScheme
	err := db.WithContext(ctx).
		Preload("Questions", orderedQuestions).
		First(&scheme, id).Error
	if err != nil {
		return nil, err
	}
	return &scheme, nil
}

func (m *MarkingSchemePostgreSQL) ListByAssignment(ctx context.Context, tx *gorm.DB, assignmentID uint) ([]*models.MarkingScheme, error) {
	db := m.getDB(tx)
	var schemes []*models.MarkingScheme
	err := db.WithContext(ctx).
		Preload("Questions", orderedQuestions).
		Where("assignment_id = ?", assignmentID).
		Order("updated_at DESC, id DESC").
		Find(&schemes).Error
	if err != nil {
		return nil, err
	}
	return schemes, nil
}

func (m *MarkingSchemePostgreSQL) GetLatestByAssignment(ctx context.Context, tx *gorm.DB, assignmentID uint) (*models.MarkingScheme, error) {
	db := m.getDB(tx)
	var scheme models.MarkingScheme
	err := db.WithContext(ctx).
		Preload("Questions", orderedQuestions).
		Where("assignment_id = ?", assignmentID).
		Order("updated_at DESC, id DESC").
		First(&scheme).Error
	if err != nil {
		return nil, err
	}
	return &scheme, nil
}

// Update rewrites the scheme header and syncs the question rows: rows no
// longer present are deleted, the rest are upserted so existing question ids
// survive for answer statistics.
func (m *MarkingSchemePostgreSQL) Update(ctx context.Context, tx *gorm.DB, scheme *models.MarkingScheme) error {
	run := func(tx *gorm.DB) error {
		result := tx.Model(&models.MarkingScheme{}).
			Where("id = ?", scheme.ID).
			Updates(map[string]interface{}{
				"assignment_id": scheme.AssignmentID,
				"title":         scheme.Title,
				"pass_score":    scheme.PassScore,
				"updated_at":    time.Now().UTC(),
			})
		if result.Error != nil {
			return fmt.Errorf("failed to update marking scheme: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		keep := make([]uint, 0, len(scheme.Questions))
		for _, q := range scheme.Questions {
			if q.ID != 0 {
				keep = append(keep, q.ID)
			}
		}
		del := tx.Where("marking_scheme_id = ?", scheme.ID)
		if len(keep) > 0 {
			del = del.Where("id NOT IN ?", keep)
		}
		if err := del.Delete(&models.QuestionSpec{}).Error; err != nil {
			return fmt.Errorf("failed to remove questions: %w", err)
		}

		for i := range scheme.Questions {
			q := &scheme.Questions[i]
			q.MarkingSchemeID = scheme.ID
			if err := tx.Save(q).Error; err != nil {
				return fmt.Errorf("failed to save question %d: %w", q.Number, err)
			}
		}
		return nil
	}

	if tx != nil {
		return run(tx.WithContext(ctx))
	}
	return m.db.WithContext(ctx).Transaction(run)
}

func (m *MarkingSchemePostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	run := func(tx *gorm.DB) error {
		if err := tx.Where("marking_scheme_id = ?", id).Delete(&models.QuestionSpec{}).Error; err != nil {
			return fmt.Errorf("failed to delete questions: %w", err)
		}
		result := tx.Delete(&models.MarkingScheme{}, id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete marking scheme: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	}

	if tx != nil {
		return run(tx.WithContext(ctx))
	}
	return m.db.WithContext(ctx).Transaction(run)
}

func (m *MarkingSchemePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return m.db
}
