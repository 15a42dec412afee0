package grading

import (
	"errors"
	"sync"
	"time"

	"github.com/SAP-F-2025/marking-service/internal/models"
)

var (
	ErrTaskNotFound   = errors.New("file is not part of this batch")
	ErrBatchCancelled = errors.New("batch has been cancelled")
	ErrBatchFinished  = errors.New("batch has already finished")
)

// Batch is one run of the engine over a set of files. The scheme, pass score
// and total possible marks are frozen when the batch starts.
type Batch struct {
	id                 string
	scheme             models.MarkingScheme
	passScore          int
	totalPossibleMarks int
	createdAt          time.Time

	mu         sync.Mutex
	tasks      []models.GradingTask
	index      map[string]int
	status     models.BatchStatus
	inFlight   int
	closed     bool
	finishedAt *time.Time
	events     chan TaskEvent
	done       chan struct{}
}

func newBatch(id string, files []File, scheme models.MarkingScheme, now time.Time) *Batch {
	b := &Batch{
		id:                 id,
		scheme:             scheme,
		passScore:          scheme.PassScore,
		totalPossibleMarks: scheme.TotalPossibleMarks(),
		createdAt:          now,
		index:              make(map[string]int, len(files)),
		status:             models.BatchRunning,
		done:               make(chan struct{}),
	}
	for _, f := range files {
		if _, dup := b.index[f.ID]; dup {
			continue
		}
		b.index[f.ID] = len(b.tasks)
		b.tasks = append(b.tasks, models.GradingTask{
			BatchID:  id,
			FileID:   f.ID,
			FileName: f.Name,
			Status:   models.TaskPending,
		})
	}
	// every task makes at most two transitions, so sends never block
	b.events = make(chan TaskEvent, 2*len(b.tasks))
	return b
}

func (b *Batch) ID() string                   { return b.id }
func (b *Batch) PassScore() int               { return b.passScore }
func (b *Batch) TotalPossibleMarks() int      { return b.totalPossibleMarks }
func (b *Batch) CreatedAt() time.Time         { return b.createdAt }
func (b *Batch) Events() <-chan TaskEvent     { return b.events }
func (b *Batch) Done() <-chan struct{}        { return b.done }
func (b *Batch) Scheme() models.MarkingScheme { return b.scheme.Clone() }

// Status returns the batch state.
func (b *Batch) Status() models.BatchStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

// FinishedAt is set once the batch is closed.
func (b *Batch) FinishedAt() *time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.finishedAt
}

// Tasks returns a snapshot of all tasks in submission order.
func (b *Batch) Tasks() []models.GradingTask {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.GradingTask, len(b.tasks))
	copy(out, b.tasks)
	return out
}

// Task returns a snapshot of one task.
func (b *Batch) Task(fileID string) (models.GradingTask, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	idx, ok := b.index[fileID]
	if !ok {
		return models.GradingTask{}, false
	}
	return b.tasks[idx], true
}

// Stats folds the current task snapshot.
func (b *Batch) Stats() models.GradingBatchStats {
	return ComputeStats(b.Tasks(), b.passScore, b.totalPossibleMarks)
}

// pendingFileIDs lists files that have not been picked up yet.
func (b *Batch) pendingFileIDs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var ids []string
	for _, t := range b.tasks {
		if t.Status == models.TaskPending {
			ids = append(ids, t.FileID)
		}
	}
	return ids
}

// begin moves a pending task to grading. started is false when the task was
// not pending; that case is a no-op and reports the current status.
func (b *Batch) begin(fileID string, now time.Time) (status models.TaskStatus, started bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	idx, ok := b.index[fileID]
	if !ok {
		return "", false, ErrTaskNotFound
	}
	task := &b.tasks[idx]
	if task.Status != models.TaskPending {
		return task.Status, false, nil
	}
	if b.status != models.BatchRunning {
		return task.Status, false, ErrBatchCancelled
	}

	from := task.Status
	task.Status = models.TaskGrading
	task.StartedAt = &now
	b.inFlight++
	b.emitLocked(from, *task, nil)
	return task.Status, true, nil
}

// finish applies the terminal transition of a grading task and closes the
// batch when nothing is left to do. closedAs is empty while the batch stays open.
func (b *Batch) finish(fileID string, to models.TaskStatus, apply func(*models.GradingTask), answers []models.Answer, now time.Time) (task models.GradingTask, closedAs models.BatchStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()

	idx := b.index[fileID]
	current := &b.tasks[idx]
	if !canTransition(current.Status, to) {
		return *current, ""
	}

	from := current.Status
	current.Status = to
	current.FinishedAt = &now
	apply(current)
	b.inFlight--
	b.emitLocked(from, *current, answers)

	return *current, b.closeIfDoneLocked(now)
}

// cancel stops the batch from issuing new work. In-flight tasks still finish.
func (b *Batch) cancel(now time.Time) (closedAs models.BatchStatus, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.status {
	case models.BatchRunning:
		b.status = models.BatchCancelled
		return b.closeIfDoneLocked(now), nil
	case models.BatchCancelled:
		return "", nil
	case models.BatchCompleted:
		return "", ErrBatchFinished
	default:
		return "", ErrBatchFinished
	}
}

func (b *Batch) emitLocked(from models.TaskStatus, task models.GradingTask, answers []models.Answer) {
	b.events <- TaskEvent{
		BatchID: b.id,
		From:    from,
		Task:    task,
		Answers: answers,
		Stats:   ComputeStats(b.tasks, b.passScore, b.totalPossibleMarks),
	}
}

func (b *Batch) closeIfDoneLocked(now time.Time) models.BatchStatus {
	if b.closed {
		return ""
	}

	switch b.status {
	case models.BatchRunning:
		for _, t := range b.tasks {
			if !t.Status.IsTerminal() {
				return ""
			}
		}
		b.status = models.BatchCompleted
	case models.BatchCancelled:
		if b.inFlight > 0 {
			return ""
		}
	case models.BatchCompleted:
		return ""
	}

	b.closed = true
	b.finishedAt = &now
	close(b.events)
	close(b.done)
	return b.status
}
