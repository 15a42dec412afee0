package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/SAP-F-2025/marking-service/internal/cache"
	"github.com/SAP-F-2025/marking-service/internal/models"
	"github.com/SAP-F-2025/marking-service/internal/repositories"
	"github.com/SAP-F-2025/marking-service/internal/scoring"
)

const DefaultReportCacheTTL = 5 * time.Minute

type reportService struct {
	repo     repositories.Repository
	cache    cache.CacheService
	ttl      time.Duration
	table    scoring.GradeTable
	logger   *slog.Logger
	opLogger *ServiceLogger
}

// NewReportService builds assignment reports. cache may be nil.
func NewReportService(repo repositories.Repository, cacheService cache.CacheService, ttl time.Duration, logger *slog.Logger) ReportService {
	if ttl <= 0 {
		ttl = DefaultReportCacheTTL
	}
	return &reportService{
		repo:     repo,
		cache:    cacheService,
		ttl:      ttl,
		table:    scoring.DefaultGradeTable,
		logger:   logger,
		opLogger: NewServiceLogger(logger, LogConfig{Service: "marking-service", Component: "report"}),
	}
}

// GetAssignmentReport computes statistics over the latest completed score of
// every file graded for the assignment. With nothing graded yet the report
// carries zero values. Everything is recomputed from the
// stored scores; only the finished report is cached.
func (s *reportService) GetAssignmentReport(ctx context.Context, assignmentID uint) (report *models.AssignmentReport, err error) {
	op := s.opLogger.WithOperation(ctx, "assignment_report")
	defer func() { op.LogResult(strconv.FormatUint(uint64(assignmentID), 10), "assignment_report", err) }()

	key := cache.ReportKey(assignmentID)
	if s.cache != nil {
		var cached models.AssignmentReport
		if cacheErr := s.cache.Get(ctx, key, &cached); cacheErr == nil {
			cached.CacheHit = true
			return &cached, nil
		} else if !errors.Is(cacheErr, cache.ErrCacheMiss) {
			s.logger.Warn("Report cache unavailable", "assignment_id", assignmentID, "error", cacheErr)
		}
	}

	scheme, err := s.repo.MarkingScheme().GetLatestByAssignment(ctx, nil, assignmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSchemeNotFound
		}
		return nil, fmt.Errorf("failed to load marking scheme: %w", err)
	}

	tasks, err := s.repo.GradingBatch().ListLatestCompletedTasks(ctx, nil, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load graded files: %w", err)
	}

	answers, err := s.repo.Answer().ListCurrentByAssignment(ctx, nil, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load answers: %w", err)
	}

	report = s.buildReport(scheme, tasks, answers)

	if s.cache != nil {
		if cacheErr := s.cache.Set(ctx, key, report, s.ttl); cacheErr != nil {
			s.logger.Warn("Failed to cache report", "assignment_id", assignmentID, "error", cacheErr)
		}
	}
	return report, nil
}

func (s *reportService) InvalidateAssignment(ctx context.Context, assignmentID uint) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, cache.ReportKey(assignmentID))
}

func (s *reportService) buildReport(scheme *models.MarkingScheme, tasks []*models.GradingTask, answers []models.Answer) *models.AssignmentReport {
	entries := make([]scoring.ScoreEntry, 0, len(tasks))
	scores := make([]float64, 0, len(tasks))
	for _, t := range tasks {
		raw := 0.0
		if t.RawScore != nil {
			raw = *t.RawScore
		}
		score := 0
		if t.NormalizedScore != nil {
			score = *t.NormalizedScore
		}
		entries = append(entries, scoring.ScoreEntry{
			FileID:   t.FileID,
			FileName: t.FileName,
			RawScore: raw,
			Score:    float64(score),
		})
		scores = append(scores, float64(score))
	}

	return &models.AssignmentReport{
		AssignmentID:      scheme.AssignmentID,
		SchemeID:          scheme.ID,
		PassScore:         scheme.PassScore,
		Summary:           scoring.Summarize(scores, scheme.PassScore),
		GradeDistribution: scoring.GradeDistribution(scores, s.table),
		ScoreHistogram:    scoring.ScoreHistogram(scores),
		Students:          scoring.StudentResults(entries, scheme.PassScore, s.table),
		Questions:         scoring.QuestionResults(scheme, answers),
		GeneratedAt:       time.Now().UTC(),
	}
}
