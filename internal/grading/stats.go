package grading

import (
	"sort"

	"github.com/SAP-F-2025/marking-service/internal/models"
	"github.com/SAP-F-2025/marking-service/internal/scoring"
)

// ComputeStats folds a task snapshot into batch statistics. Only completed
// tasks contribute scores and pass/fail counts. The fold visits tasks in file
// id order so the result does not depend on completion order.
func ComputeStats(tasks []models.GradingTask, passScore, totalPossibleMarks int) models.GradingBatchStats {
	ordered := make([]models.GradingTask, len(tasks))
	copy(ordered, tasks)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].FileID < ordered[j].FileID })

	stats := models.GradingBatchStats{
		TotalFiles:         len(ordered),
		PassScore:          passScore,
		TotalPossibleMarks: totalPossibleMarks,
	}

	for _, task := range ordered {
		switch task.Status {
		case models.TaskPending:
			stats.PendingFiles++
		case models.TaskGrading:
			stats.GradingFiles++
		case models.TaskCompleted:
			stats.CompletedFiles++
			raw := 0.0
			if task.RawScore != nil {
				raw = *task.RawScore
			}
			normalized := scoring.Normalize(raw, totalPossibleMarks)
			stats.TotalRawScore += raw
			stats.TotalNormalizedScore += normalized
			if scoring.IsPass(float64(normalized), passScore) {
				stats.PassedFiles++
			} else {
				stats.FailedFiles++
			}
		case models.TaskError:
			stats.ErroredFiles++
			if task.ErrorKind == models.ErrorKindDataIntegrity {
				stats.IntegrityErrors++
			}
		}
	}

	if stats.CompletedFiles > 0 {
		stats.AverageScore = float64(stats.TotalNormalizedScore) / float64(stats.CompletedFiles)
	}
	return stats
}
