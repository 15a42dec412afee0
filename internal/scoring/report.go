package scoring

import (
	"sort"

	"github.com/SAP-F-2025/marking-service/internal/models"
)

// ScoreEntry is the final result of one graded submission.
type ScoreEntry struct {
	FileID   string
	FileName string
	RawScore float64
	Score    float64
}

// StudentResults ranks every entry and attaches grade, percentile and
// pass/fail. The result is ordered by rank, ties by file id.
func StudentResults(entries []ScoreEntry, passScore int, table GradeTable) []models.StudentResult {
	scores := make([]float64, len(entries))
	for i, e := range entries {
		scores[i] = e.Score
	}
	ranks := Ranks(scores)
	percentiles := Percentiles(scores)

	results := make([]models.StudentResult, len(entries))
	for i, e := range entries {
		results[i] = models.StudentResult{
			FileID:     e.FileID,
			FileName:   e.FileName,
			RawScore:   e.RawScore,
			Score:      e.Score,
			Grade:      table.Letter(e.Score),
			Rank:       ranks[i],
			Percentile: percentiles[i],
			Passed:     IsPass(e.Score, passScore),
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Rank != results[j].Rank {
			return results[i].Rank < results[j].Rank
		}
		return results[i].FileID < results[j].FileID
	})
	return results
}

// QuestionResults averages the awarded marks of the given answers per question
// of the scheme, in question order.
func QuestionResults(scheme *models.MarkingScheme, answers []models.Answer) []models.QuestionResult {
	type acc struct {
		count int
		marks float64
	}
	byQuestion := make(map[uint]*acc, len(scheme.Questions))
	for _, a := range answers {
		entry, ok := byQuestion[a.QuestionID]
		if !ok {
			entry = &acc{}
			byQuestion[a.QuestionID] = entry
		}
		entry.count++
		entry.marks += a.MarksForAnswer
	}

	results := make([]models.QuestionResult, 0, len(scheme.Questions))
	for _, q := range scheme.Questions {
		result := models.QuestionResult{
			QuestionID:     q.ID,
			Number:         q.Number,
			AllocatedMarks: q.Marks,
		}
		if entry, ok := byQuestion[q.ID]; ok && entry.count > 0 {
			result.Responses = entry.count
			result.AverageMarks = entry.marks / float64(entry.count)
			if q.Marks > 0 {
				result.AveragePercentage = 100 * result.AverageMarks / float64(q.Marks)
			}
		}
		results = append(results, result)
	}
	return results
}
