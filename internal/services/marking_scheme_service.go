package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/SAP-F-2025/marking-service/internal/models"
	"github.com/SAP-F-2025/marking-service/internal/repositories"
	"github.com/SAP-F-2025/marking-service/internal/validator"
	"gorm.io/gorm"
)

type markingSchemeService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	opLogger  *ServiceLogger
	validator *validator.Validator
}

func NewMarkingSchemeService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) MarkingSchemeService {
	return &markingSchemeService{
		repo:      repo,
		logger:    logger,
		opLogger:  NewServiceLogger(logger, LogConfig{Service: "marking-service", Component: "marking_scheme"}),
		validator: validator,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *markingSchemeService) Create(ctx context.Context, req *SchemeRequest) (scheme *models.MarkingScheme, err error) {
	op := s.opLogger.WithOperation(ctx, "create_scheme")
	defer func() { op.LogResult(schemeResourceID(scheme), "marking_scheme", err) }()

	if err = s.validator.Validate(req); err != nil {
		return nil, err
	}

	scheme = buildScheme(req)
	if err = s.checkScheme(scheme); err != nil {
		return nil, err
	}

	if err = s.repo.MarkingScheme().Create(ctx, nil, scheme); err != nil {
		return nil, fmt.Errorf("failed to create marking scheme: %w", err)
	}

	op.LogAudit(AuditSchemeCreated, schemeResourceID(scheme), "marking_scheme", nil, scheme.TotalPossibleMarks())
	return scheme, nil
}

func (s *markingSchemeService) GetByID(ctx context.Context, id uint) (*models.MarkingScheme, error) {
	scheme, err := s.repo.MarkingScheme().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSchemeNotFound
		}
		return nil, fmt.Errorf("failed to get marking scheme: %w", err)
	}
	return scheme, nil
}

func (s *markingSchemeService) ListByAssignment(ctx context.Context, assignmentID uint) ([]*models.MarkingScheme, error) {
	schemes, err := s.repo.MarkingScheme().ListByAssignment(ctx, nil, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list marking schemes: %w", err)
	}
	return schemes, nil
}

// Update replaces the scheme's header and question list. Questions are
// matched to stored rows by position so their ids are kept.
func (s *markingSchemeService) Update(ctx context.Context, id uint, req *SchemeRequest) (scheme *models.MarkingScheme, err error) {
	op := s.opLogger.WithOperation(ctx, "update_scheme")
	defer func() { op.LogResult(strconv.FormatUint(uint64(id), 10), "marking_scheme", err) }()

	if err = s.validator.Validate(req); err != nil {
		return nil, err
	}

	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		current, err := s.load(ctx, tx, id)
		if err != nil {
			return err
		}

		next := buildScheme(req)
		next.ID = current.ID
		next.CreatedAt = current.CreatedAt
		for i := range next.Questions {
			if i < len(current.Questions) {
				next.Questions[i].ID = current.Questions[i].ID
			}
		}
		if err := s.checkScheme(next); err != nil {
			return err
		}
		if err := s.repo.MarkingScheme().Update(ctx, tx, next); err != nil {
			return fmt.Errorf("failed to update marking scheme: %w", err)
		}
		scheme = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	op.LogAudit(AuditSchemeUpdated, schemeResourceID(scheme), "marking_scheme", nil, scheme.TotalPossibleMarks())
	return s.GetByID(ctx, id)
}

func (s *markingSchemeService) Delete(ctx context.Context, id uint) (err error) {
	op := s.opLogger.WithOperation(ctx, "delete_scheme")
	defer func() { op.LogResult(strconv.FormatUint(uint64(id), 10), "marking_scheme", err) }()

	if err = s.repo.MarkingScheme().Delete(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrSchemeNotFound
		}
		return fmt.Errorf("failed to delete marking scheme: %w", err)
	}
	op.LogAudit(AuditSchemeDeleted, strconv.FormatUint(uint64(id), 10), "marking_scheme", nil, nil)
	return nil
}

// ===== QUESTION MUTATIONS =====

func (s *markingSchemeService) InsertQuestionAfter(ctx context.Context, id uint, index int, req *QuestionRequest) (*models.MarkingScheme, error) {
	if req == nil {
		req = &QuestionRequest{}
	}
	return s.mutate(ctx, "insert_question", id, func(scheme *models.MarkingScheme) error {
		return scheme.InsertQuestionAfter(index, buildQuestion(*req))
	})
}

func (s *markingSchemeService) DeleteQuestion(ctx context.Context, id uint, index int) (*models.MarkingScheme, error) {
	return s.mutate(ctx, "delete_question", id, func(scheme *models.MarkingScheme) error {
		return scheme.DeleteQuestion(index)
	})
}

func (s *markingSchemeService) ChangeGradingType(ctx context.Context, id uint, index int, req *ChangeGradingTypeRequest) (*models.MarkingScheme, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	return s.mutate(ctx, "change_grading_type", id, func(scheme *models.MarkingScheme) error {
		return scheme.ChangeGradingType(index, req.GradingType)
	})
}

// mutate loads the scheme, applies fn, re-validates and persists. Nothing is
// written when fn or validation fails.
func (s *markingSchemeService) mutate(ctx context.Context, operation string, id uint, fn func(*models.MarkingScheme) error) (scheme *models.MarkingScheme, err error) {
	op := s.opLogger.WithOperation(ctx, operation)
	defer func() { op.LogResult(strconv.FormatUint(uint64(id), 10), "marking_scheme", err) }()

	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		current, err := s.load(ctx, tx, id)
		if err != nil {
			return err
		}
		before := len(current.Questions)
		if err := fn(current); err != nil {
			return err
		}
		if err := s.checkScheme(current); err != nil {
			return err
		}
		if err := s.repo.MarkingScheme().Update(ctx, tx, current); err != nil {
			return fmt.Errorf("failed to save marking scheme: %w", err)
		}
		s.logger.Debug("Marking scheme mutated",
			"scheme_id", id,
			"operation", operation,
			"questions_before", before,
			"questions_after", len(current.Questions))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// ===== HELPERS =====

func (s *markingSchemeService) load(ctx context.Context, tx *gorm.DB, id uint) (*models.MarkingScheme, error) {
	scheme, err := s.repo.MarkingScheme().GetByID(ctx, tx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSchemeNotFound
		}
		return nil, fmt.Errorf("failed to load marking scheme: %w", err)
	}
	return scheme, nil
}

// checkScheme applies the ordered scheme rules. A scheme must keep at least
// one question.
func (s *markingSchemeService) checkScheme(scheme *models.MarkingScheme) error {
	if len(scheme.Questions) == 0 {
		return NewValidationError("questions", "at least one question is required", 0)
	}
	return s.validator.Scheme().Validate(scheme)
}

func buildScheme(req *SchemeRequest) *models.MarkingScheme {
	scheme := &models.MarkingScheme{
		AssignmentID: req.AssignmentID,
		Title:        req.Title,
		PassScore:    req.PassScore,
		Questions:    make([]models.QuestionSpec, 0, len(req.Questions)),
	}
	for _, q := range req.Questions {
		scheme.Questions = append(scheme.Questions, buildQuestion(q))
	}
	scheme.Renumber()
	return scheme
}

func buildQuestion(req QuestionRequest) models.QuestionSpec {
	q := models.QuestionSpec{
		QuestionText:      req.QuestionText,
		AnswerText:        req.AnswerText,
		Marks:             req.Marks,
		GradingType:       req.GradingType,
		CaseSensitive:     req.CaseSensitive,
		OrderSensitive:    req.OrderSensitive,
		RangeSensitive:    req.RangeSensitive,
		PartialMatching:   req.PartialMatching,
		SemanticThreshold: req.SemanticThreshold,
		UseRange:          req.UseRange,
		Range:             req.Range,
	}
	if q.GradingType == "" {
		q.GradingType = models.DefaultGradingType
	}
	if q.GradingType.IsValid() {
		q.ApplyGradingTypeConstraints()
	}
	return q
}

func schemeResourceID(scheme *models.MarkingScheme) string {
	if scheme == nil {
		return ""
	}
	return strconv.FormatUint(uint64(scheme.ID), 10)
}
