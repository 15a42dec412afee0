package postgres

import (
	"context"

	"github.com/SAP-F-2025/marking-service/internal/repositories"
	"gorm.io/gorm"
)

type Repository struct {
	db            *gorm.DB
	markingScheme repositories.MarkingSchemeRepository
	gradingBatch  repositories.GradingBatchRepository
	answer        repositories.AnswerRepository
}

func NewRepository(db *gorm.DB) repositories.Repository {
	return &Repository{
		db:            db,
		markingScheme: NewMarkingSchemePostgreSQL(db),
		gradingBatch:  NewGradingBatchPostgreSQL(db),
		answer:        NewAnswerPostgreSQL(db),
	}
}

func (r *Repository) MarkingScheme() repositories.MarkingSchemeRepository { return r.markingScheme }
func (r *Repository) GradingBatch() repositories.GradingBatchRepository   { return r.gradingBatch }
func (r *Repository) Answer() repositories.AnswerRepository               { return r.answer }

func (r *Repository) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}
