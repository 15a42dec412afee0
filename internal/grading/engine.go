package grading

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/SAP-F-2025/marking-service/internal/events"
	"github.com/SAP-F-2025/marking-service/internal/metrics"
	"github.com/SAP-F-2025/marking-service/internal/models"
	"github.com/SAP-F-2025/marking-service/internal/scoring"
	"github.com/SAP-F-2025/marking-service/internal/utils"
)

var (
	ErrNoFilesSelected     = errors.New("no files selected for grading")
	ErrSchemeNotConfigured = errors.New("marking scheme has no questions or no possible marks")
)

const (
	DefaultTimeout     = 30 * time.Second
	DefaultConcurrency = 4
)

type Config struct {
	// Timeout bounds a single grader call.
	Timeout time.Duration
	// Concurrency caps the number of files graded at once by Run.
	Concurrency int
}

// Engine drives batches through the per-file state machine.
type Engine struct {
	grader    Grader
	publisher events.EventPublisher
	logger    utils.Logger
	config    Config
	now       func() time.Time
}

// NewEngine creates an engine. publisher may be nil.
func NewEngine(grader Grader, publisher events.EventPublisher, logger utils.Logger, config Config) *Engine {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.Concurrency <= 0 {
		config.Concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = utils.NewDefaultLogger()
	}
	return &Engine{
		grader:    grader,
		publisher: publisher,
		logger:    logger.With("component", "grading_engine"),
		config:    config,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// StartBatch creates a batch with one pending task per distinct file id. The
// scheme is copied so later edits do not affect the running batch.
func (e *Engine) StartBatch(ctx context.Context, files []File, scheme *models.MarkingScheme) (*Batch, error) {
	selected := make([]File, 0, len(files))
	for _, f := range files {
		f.ID = strings.TrimSpace(f.ID)
		if f.ID == "" {
			continue
		}
		selected = append(selected, f)
	}
	if len(selected) == 0 {
		return nil, ErrNoFilesSelected
	}
	if scheme == nil || !scheme.IsConfigured() {
		return nil, ErrSchemeNotConfigured
	}

	b := newBatch(uuid.NewString(), selected, scheme.Clone(), e.now())

	metrics.BatchesStarted().Inc()
	e.logger.InfoContext(ctx, "Grading batch started",
		"batch_id", b.id,
		"scheme_id", scheme.ID,
		"assignment_id", scheme.AssignmentID,
		"total_files", len(b.tasks),
		"total_possible_marks", b.totalPossibleMarks)
	e.publish(ctx, events.EventBatchStarted, events.BatchStartedEvent{
		BatchID:            b.id,
		SchemeID:           scheme.ID,
		AssignmentID:       scheme.AssignmentID,
		TotalFiles:         len(b.tasks),
		PassScore:          b.passScore,
		TotalPossibleMarks: b.totalPossibleMarks,
	})
	return b, nil
}

// Advance grades one file. Calling it for a file that is already grading or
// finished returns the current status without side effects.
func (e *Engine) Advance(ctx context.Context, b *Batch, fileID string) (models.TaskStatus, error) {
	status, started, err := b.begin(fileID, e.now())
	if err != nil || !started {
		return status, err
	}

	task, _ := b.Task(fileID)
	metrics.InFlightTasks().Inc()
	begin := time.Now()
	result, callErr := e.callGrader(ctx, FileRequest{
		BatchID: b.id,
		File:    File{ID: task.FileID, Name: task.FileName},
		Scheme:  b.Scheme(),
	})
	metrics.GradingLatency().Observe(time.Since(begin).Seconds())
	metrics.InFlightTasks().Dec()

	if callErr != nil {
		return e.fail(ctx, b, fileID, models.ErrorKindGrading, &GradingCollaboratorError{FileID: fileID, Err: callErr}, nil)
	}
	if err := scoring.CheckRawScore(fileID, result.RawScore, b.totalPossibleMarks); err != nil {
		var raw *float64
		if !math.IsNaN(result.RawScore) && !math.IsInf(result.RawScore, 0) {
			raw = &result.RawScore
		}
		return e.fail(ctx, b, fileID, models.ErrorKindDataIntegrity, err, raw)
	}
	if err := scoring.CheckAnswerMarks(fileID, result.RawScore, b.totalPossibleMarks, result.Answers); err != nil {
		raw := result.RawScore
		return e.fail(ctx, b, fileID, models.ErrorKindDataIntegrity, err, &raw)
	}
	return e.complete(ctx, b, fileID, result)
}

// Run advances every pending file with bounded concurrency. It stops issuing
// new work once the batch is cancelled. If ctx ends first the batch is
// cancelled and ctx.Err() is returned.
func (e *Engine) Run(ctx context.Context, b *Batch) error {
	g := new(errgroup.Group)
	g.SetLimit(e.config.Concurrency)

	var stopErr error
	for _, fileID := range b.pendingFileIDs() {
		if ctx.Err() != nil {
			stopErr = ctx.Err()
			break
		}
		if b.Status() != models.BatchRunning {
			break
		}

		id := fileID
		g.Go(func() error {
			_, err := e.Advance(ctx, b, id)
			if errors.Is(err, ErrBatchCancelled) {
				return nil
			}
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if stopErr != nil {
		if err := e.Cancel(context.WithoutCancel(ctx), b); err != nil && !errors.Is(err, ErrBatchFinished) {
			return err
		}
		return stopErr
	}
	return nil
}

// Cancel stops the batch from starting new files. Files already being graded
// run to completion. Cancelling twice is a no-op.
func (e *Engine) Cancel(ctx context.Context, b *Batch) error {
	closedAs, err := b.cancel(e.now())
	if err != nil {
		return err
	}
	e.logger.InfoContext(ctx, "Grading batch cancelled", "batch_id", b.id)
	if closedAs != "" {
		e.batchClosed(ctx, b, closedAs)
	}
	return nil
}

func (e *Engine) callGrader(ctx context.Context, req FileRequest) (*FileResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	type outcome struct {
		result *FileResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("%w: %v", ErrGraderPanic, r)}
			}
		}()
		result, err := e.grader.GradeFile(callCtx, req)
		done <- outcome{result: result, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: %v", ErrGraderTimeout, out.err)
			}
			return nil, out.err
		}
		if out.result == nil {
			return nil, ErrMalformedResult
		}
		return out.result, nil
	case <-callCtx.Done():
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, ErrGraderTimeout
		}
		return nil, callCtx.Err()
	}
}

func (e *Engine) complete(ctx context.Context, b *Batch, fileID string, result *FileResult) (models.TaskStatus, error) {
	raw := result.RawScore
	normalized := scoring.Normalize(raw, b.totalPossibleMarks)

	answers := make([]models.Answer, len(result.Answers))
	for i, a := range result.Answers {
		a.AssignmentID = b.scheme.AssignmentID
		a.BatchID = b.id
		a.FileID = fileID
		answers[i] = a
	}

	task, closedAs := b.finish(fileID, models.TaskCompleted, func(t *models.GradingTask) {
		t.RawScore = &raw
		t.NormalizedScore = &normalized
	}, answers, e.now())

	passed := scoring.IsPass(float64(normalized), b.passScore)
	metrics.TaskOutcomes().WithLabelValues("completed").Inc()
	e.logger.InfoContext(ctx, "File graded",
		"batch_id", b.id,
		"file_id", fileID,
		"raw_score", raw,
		"normalized_score", normalized,
		"passed", passed)
	e.publish(ctx, events.EventTaskCompleted, events.TaskCompletedEvent{
		BatchID:         b.id,
		FileID:          fileID,
		RawScore:        raw,
		NormalizedScore: normalized,
		Passed:          passed,
	})

	if closedAs != "" {
		e.batchClosed(ctx, b, closedAs)
	}
	return task.Status, nil
}

// fail records an error outcome. rawScore is kept for data integrity failures
// so the offending value stays visible.
func (e *Engine) fail(ctx context.Context, b *Batch, fileID string, kind models.TaskErrorKind, cause error, rawScore *float64) (models.TaskStatus, error) {
	task, closedAs := b.finish(fileID, models.TaskError, func(t *models.GradingTask) {
		t.RawScore = rawScore
		t.ErrorKind = kind
		t.ErrorMessage = cause.Error()
	}, nil, e.now())

	metrics.TaskOutcomes().WithLabelValues(string(kind)).Inc()

	var integrity *scoring.DataIntegrityError
	if errors.As(cause, &integrity) {
		e.logger.ErrorContext(ctx, "Raw score does not fit marking scheme",
			"kind", string(kind),
			"batch_id", b.id,
			"file_id", fileID,
			"raw_score", integrity.RawScore,
			"total_possible_marks", integrity.TotalPossibleMarks,
			"reason", integrity.Reason)
		e.publish(ctx, events.EventDataIntegrity, events.DataIntegrityEvent{
			BatchID:            b.id,
			FileID:             fileID,
			RawScore:           integrity.RawScore,
			TotalPossibleMarks: integrity.TotalPossibleMarks,
			Reason:             integrity.Reason,
		})
	} else {
		e.logger.WarnContext(ctx, "Grading failed for file",
			"kind", string(kind),
			"batch_id", b.id,
			"file_id", fileID,
			"error", cause)
	}
	e.publish(ctx, events.EventTaskFailed, events.TaskFailedEvent{
		BatchID:   b.id,
		FileID:    fileID,
		ErrorKind: string(kind),
		Error:     cause.Error(),
	})

	if closedAs != "" {
		e.batchClosed(ctx, b, closedAs)
	}
	return task.Status, nil
}

func (e *Engine) batchClosed(ctx context.Context, b *Batch, status models.BatchStatus) {
	stats := b.Stats()
	metrics.BatchesFinished().WithLabelValues(string(status)).Inc()
	e.logger.InfoContext(ctx, "Grading batch finished",
		"batch_id", b.id,
		"status", string(status),
		"completed_files", stats.CompletedFiles,
		"errored_files", stats.ErroredFiles,
		"integrity_errors", stats.IntegrityErrors)

	eventType := events.EventBatchFinished
	if status == models.BatchCancelled {
		eventType = events.EventBatchCancelled
	}
	e.publish(ctx, eventType, events.BatchFinishedEvent{
		BatchID:        b.id,
		AssignmentID:   b.scheme.AssignmentID,
		Status:         string(status),
		TotalFiles:     stats.TotalFiles,
		CompletedFiles: stats.CompletedFiles,
		ErroredFiles:   stats.ErroredFiles,
		PassedFiles:    stats.PassedFiles,
		FailedFiles:    stats.FailedFiles,
	})
}

// publish is best effort. A broker outage must not fail grading.
func (e *Engine) publish(ctx context.Context, eventType events.EventType, data interface{}) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.PublishGradingEvent(context.WithoutCancel(ctx), events.NewGradingEvent(eventType, data)); err != nil {
		e.logger.WarnContext(ctx, "Failed to publish grading event", "event_type", eventType, "error", err)
	}
}
