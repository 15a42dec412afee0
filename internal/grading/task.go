package grading

import "github.com/SAP-F-2025/marking-service/internal/models"

// canTransition is the per-file state machine:
//
//	pending -> grading -> completed
//	                   -> error
func canTransition(from, to models.TaskStatus) bool {
	switch from {
	case models.TaskPending:
		return to == models.TaskGrading
	case models.TaskGrading:
		return to == models.TaskCompleted || to == models.TaskError
	case models.TaskCompleted, models.TaskError:
		return false
	default:
		return false
	}
}

// TaskEvent is emitted on every task transition. Stats is the batch fold
// right after the transition.
type TaskEvent struct {
	BatchID string
	From    models.TaskStatus
	Task    models.GradingTask
	Answers []models.Answer
	Stats   models.GradingBatchStats
}
