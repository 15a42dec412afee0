package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/SAP-F-2025/marking-service/internal/grading"
	"github.com/SAP-F-2025/marking-service/internal/models"
	"github.com/SAP-F-2025/marking-service/internal/repositories"
	"github.com/SAP-F-2025/marking-service/internal/validator"
	"gorm.io/gorm"
)

type gradingService struct {
	repo      repositories.Repository
	engine    *grading.Engine
	reports   ReportService
	logger    *slog.Logger
	opLogger  *ServiceLogger
	validator *validator.Validator

	// runCtx outlives the request that started a batch and ends on Shutdown.
	runCtx   context.Context
	stopRuns context.CancelFunc
	mu       sync.RWMutex
	live     map[string]*liveBatch
	// starting holds assignments between the in-progress check and the
	// batch becoming live.
	starting  map[uint]struct{}
	persistWG sync.WaitGroup
}

type liveBatch struct {
	batch        *grading.Batch
	schemeID     uint
	assignmentID uint
	createdAt    time.Time
	persisted    chan struct{}
}

// NewGradingService wires the engine to persistence. reports may be nil.
func NewGradingService(repo repositories.Repository, engine *grading.Engine, reports ReportService, logger *slog.Logger, validator *validator.Validator) GradingService {
	runCtx, stop := context.WithCancel(context.Background())
	return &gradingService{
		repo:      repo,
		engine:    engine,
		reports:   reports,
		logger:    logger,
		opLogger:  NewServiceLogger(logger, LogConfig{Service: "marking-service", Component: "grading"}),
		validator: validator,
		runCtx:    runCtx,
		stopRuns:  stop,
		live:      make(map[string]*liveBatch),
		starting:  make(map[uint]struct{}),
	}
}

func (s *gradingService) StartBatch(ctx context.Context, req *StartBatchRequest) (resp *BatchResponse, err error) {
	op := s.opLogger.WithOperation(ctx, "start_batch")
	defer func() {
		id := ""
		if resp != nil {
			id = resp.ID
		}
		op.LogResult(id, "grading_batch", err)
	}()

	if err = s.validator.Validate(req); err != nil {
		return nil, err
	}
	files := requestedFiles(req)
	if len(files) == 0 {
		return nil, ErrNoFilesSelected
	}

	scheme, err := s.repo.MarkingScheme().GetByID(ctx, nil, req.SchemeID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSchemeNotFound
		}
		return nil, fmt.Errorf("failed to load marking scheme: %w", err)
	}
	if !s.reserveAssignment(scheme.AssignmentID) {
		return nil, ErrBatchInProgress
	}
	promoted := false
	defer func() {
		if !promoted {
			s.releaseAssignment(scheme.AssignmentID)
		}
	}()

	batch, err := s.engine.StartBatch(ctx, files, scheme)
	if err != nil {
		return nil, err
	}

	snapshot, err := json.Marshal(batch.Scheme())
	if err != nil {
		_ = s.engine.Cancel(ctx, batch)
		return nil, fmt.Errorf("failed to snapshot marking scheme: %w", err)
	}
	record := &models.GradingBatch{
		ID:                 batch.ID(),
		SchemeID:           scheme.ID,
		AssignmentID:       scheme.AssignmentID,
		PassScore:          batch.PassScore(),
		TotalPossibleMarks: batch.TotalPossibleMarks(),
		Status:             models.BatchRunning,
		SchemeSnapshot:     snapshot,
		Tasks:              batch.Tasks(),
		CreatedAt:          batch.CreatedAt(),
	}
	if err = s.repo.GradingBatch().Create(ctx, nil, record); err != nil {
		_ = s.engine.Cancel(ctx, batch)
		return nil, fmt.Errorf("failed to persist grading batch: %w", err)
	}

	lb := &liveBatch{
		batch:        batch,
		schemeID:     scheme.ID,
		assignmentID: scheme.AssignmentID,
		createdAt:    batch.CreatedAt(),
		persisted:    make(chan struct{}),
	}
	s.mu.Lock()
	s.live[batch.ID()] = lb
	delete(s.starting, scheme.AssignmentID)
	s.mu.Unlock()
	promoted = true

	s.persistWG.Add(1)
	go s.persist(lb)
	go s.run(lb)

	op.LogAudit(AuditBatchStarted, batch.ID(), "grading_batch", nil, len(batch.Tasks()))
	return s.liveResponse(lb), nil
}

func (s *gradingService) GetBatch(ctx context.Context, id string) (*BatchResponse, error) {
	if lb, ok := s.lookup(id); ok {
		return s.liveResponse(lb), nil
	}

	record, err := s.repo.GradingBatch().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrBatchNotFound
		}
		return nil, fmt.Errorf("failed to get grading batch: %w", err)
	}
	return &BatchResponse{
		GradingBatch: record,
		Stats:        grading.ComputeStats(record.Tasks, record.PassScore, record.TotalPossibleMarks),
	}, nil
}

func (s *gradingService) GetStats(ctx context.Context, id string) (*models.GradingBatchStats, error) {
	resp, err := s.GetBatch(ctx, id)
	if err != nil {
		return nil, err
	}
	return &resp.Stats, nil
}

func (s *gradingService) CancelBatch(ctx context.Context, id string) (resp *BatchResponse, err error) {
	op := s.opLogger.WithOperation(ctx, "cancel_batch")
	defer func() { op.LogResult(id, "grading_batch", err) }()

	if lb, ok := s.lookup(id); ok {
		if err = s.engine.Cancel(ctx, lb.batch); err != nil {
			if errors.Is(err, grading.ErrBatchFinished) {
				return nil, ErrBatchNotCancellable
			}
			return nil, err
		}
		op.LogAudit(AuditBatchCancelled, id, "grading_batch", models.BatchRunning, models.BatchCancelled)
		return s.liveResponse(lb), nil
	}

	record, err := s.repo.GradingBatch().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrBatchNotFound
		}
		return nil, fmt.Errorf("failed to get grading batch: %w", err)
	}
	switch record.Status {
	case models.BatchCancelled:
		// cancelling twice is a no-op
	case models.BatchRunning:
		// orphaned by a previous process
		now := time.Now().UTC()
		if err = s.repo.GradingBatch().UpdateStatus(ctx, nil, id, models.BatchCancelled, &now); err != nil {
			return nil, err
		}
		record.Status = models.BatchCancelled
		record.FinishedAt = &now
	default:
		return nil, ErrBatchNotCancellable
	}
	return &BatchResponse{
		GradingBatch: record,
		Stats:        grading.ComputeStats(record.Tasks, record.PassScore, record.TotalPossibleMarks),
	}, nil
}

func (s *gradingService) WaitForBatch(ctx context.Context, id string) error {
	lb, ok := s.lookup(id)
	if !ok {
		if _, err := s.GetBatch(ctx, id); err != nil {
			return err
		}
		return nil
	}
	select {
	case <-lb.persisted:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *gradingService) RecoverInterrupted(ctx context.Context) error {
	n, err := s.repo.GradingBatch().MarkInterrupted(ctx, nil, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to close interrupted batches: %w", err)
	}
	if n > 0 {
		s.logger.Warn("Closed grading batches interrupted by a restart", "count", n)
	}
	return nil
}

// Shutdown cancels live batches and waits until their final state is stored.
// Grader calls still in flight when ctx ends are aborted.
func (s *gradingService) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	batches := make([]*grading.Batch, 0, len(s.live))
	for _, lb := range s.live {
		batches = append(batches, lb.batch)
	}
	s.mu.RUnlock()
	for _, b := range batches {
		if err := s.engine.Cancel(ctx, b); err != nil && !errors.Is(err, grading.ErrBatchFinished) {
			s.logger.Warn("Failed to cancel batch on shutdown", "batch_id", b.ID(), "error", err)
		}
	}

	done := make(chan struct{})
	go func() {
		s.persistWG.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.stopRuns()
		return nil
	case <-ctx.Done():
		s.stopRuns()
		return ctx.Err()
	}
}

// ===== BACKGROUND WORK =====

func (s *gradingService) run(lb *liveBatch) {
	if err := s.engine.Run(s.runCtx, lb.batch); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("Grading batch run failed", "batch_id", lb.batch.ID(), "error", err)
	}
}

// persist drains the batch's transition events into the database. It ends
// when the engine closes the event channel.
func (s *gradingService) persist(lb *liveBatch) {
	defer s.persistWG.Done()
	defer close(lb.persisted)

	ctx := context.Background()
	batchID := lb.batch.ID()

	for ev := range lb.batch.Events() {
		if err := s.persistEvent(ctx, lb, ev); err != nil {
			s.logger.Error("Failed to persist grading task",
				"batch_id", batchID,
				"file_id", ev.Task.FileID,
				"status", string(ev.Task.Status),
				"error", err)
		}
	}

	status := lb.batch.Status()
	if err := s.repo.GradingBatch().UpdateStatus(ctx, nil, batchID, status, lb.batch.FinishedAt()); err != nil {
		s.logger.Error("Failed to store final batch status", "batch_id", batchID, "status", string(status), "error", err)
	}
	if s.reports != nil {
		if err := s.reports.InvalidateAssignment(ctx, lb.assignmentID); err != nil {
			s.logger.Warn("Failed to invalidate report cache", "assignment_id", lb.assignmentID, "error", err)
		}
	}

	s.mu.Lock()
	delete(s.live, batchID)
	s.mu.Unlock()

	stats := lb.batch.Stats()
	s.logger.Info("Grading batch stored",
		"batch_id", batchID,
		"status", string(status),
		"completed_files", stats.CompletedFiles,
		"errored_files", stats.ErroredFiles,
		"passed_files", stats.PassedFiles,
		"failed_files", stats.FailedFiles)
}

func (s *gradingService) persistEvent(ctx context.Context, lb *liveBatch, ev grading.TaskEvent) error {
	task := ev.Task
	task.ID = 0
	if task.Status != models.TaskCompleted || len(ev.Answers) == 0 {
		return s.repo.GradingBatch().SaveTask(ctx, nil, &task)
	}
	return s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.repo.GradingBatch().SaveTask(ctx, tx, &task); err != nil {
			return err
		}
		return s.repo.Answer().SupersedeAndCreate(ctx, tx, lb.assignmentID, task.FileID, ev.Answers)
	})
}

// ===== HELPERS =====

func (s *gradingService) lookup(id string) (*liveBatch, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lb, ok := s.live[id]
	return lb, ok
}

// reserveAssignment claims assignmentID for one starting batch. It fails while
// another start holds the claim or a batch of the assignment is running.
func (s *gradingService) reserveAssignment(assignmentID uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.starting[assignmentID]; ok {
		return false
	}
	for _, lb := range s.live {
		if lb.assignmentID == assignmentID && lb.batch.Status() == models.BatchRunning {
			return false
		}
	}
	s.starting[assignmentID] = struct{}{}
	return true
}

func (s *gradingService) releaseAssignment(assignmentID uint) {
	s.mu.Lock()
	delete(s.starting, assignmentID)
	s.mu.Unlock()
}

func (s *gradingService) liveResponse(lb *liveBatch) *BatchResponse {
	b := lb.batch
	return &BatchResponse{
		GradingBatch: &models.GradingBatch{
			ID:                 b.ID(),
			SchemeID:           lb.schemeID,
			AssignmentID:       lb.assignmentID,
			PassScore:          b.PassScore(),
			TotalPossibleMarks: b.TotalPossibleMarks(),
			Status:             b.Status(),
			Tasks:              b.Tasks(),
			CreatedAt:          lb.createdAt,
			FinishedAt:         b.FinishedAt(),
		},
		Stats: b.Stats(),
		Live:  true,
	}
}

func requestedFiles(req *StartBatchRequest) []grading.File {
	files := make([]grading.File, 0, len(req.Files)+len(req.FileIDs))
	files = append(files, req.Files...)
	for _, id := range req.FileIDs {
		files = append(files, grading.File{ID: id})
	}

	out := files[:0]
	for _, f := range files {
		f.ID = strings.TrimSpace(f.ID)
		if f.ID != "" {
			out = append(out, f)
		}
	}
	return out
}
