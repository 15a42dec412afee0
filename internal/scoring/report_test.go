package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/marking-service/internal/models"
)

func TestStudentResults(t *testing.T) {
	entries := []ScoreEntry{
		{FileID: "c", FileName: "c.pdf", RawScore: 5, Score: 50},
		{FileID: "b", FileName: "b.pdf", RawScore: 8, Score: 80},
		{FileID: "a", FileName: "a.pdf", RawScore: 8, Score: 80},
		{FileID: "d", FileName: "d.pdf", RawScore: 9, Score: 90},
	}

	results := StudentResults(entries, 60, DefaultGradeTable)

	require.Len(t, results, 4)
	assert.Equal(t, "d", results[0].FileID)
	assert.Equal(t, 1, results[0].Rank)
	assert.Equal(t, 75.0, results[0].Percentile)
	assert.Equal(t, "a", results[1].FileID)
	assert.Equal(t, 2, results[1].Rank)
	assert.Equal(t, "b", results[2].FileID)
	assert.Equal(t, 2, results[2].Rank)
	assert.Equal(t, 25.0, results[2].Percentile)
	assert.Equal(t, "c", results[3].FileID)
	assert.Equal(t, 4, results[3].Rank)
	assert.False(t, results[3].Passed)
	assert.Equal(t, "C+", results[3].Grade)
}

func TestQuestionResults(t *testing.T) {
	scheme := &models.MarkingScheme{Questions: []models.QuestionSpec{
		{ID: 1, Number: 1, Marks: 4},
		{ID: 2, Number: 2, Marks: 6},
	}}
	answers := []models.Answer{
		{QuestionID: 1, MarksForAnswer: 4},
		{QuestionID: 1, MarksForAnswer: 2},
		{QuestionID: 7, MarksForAnswer: 1},
	}

	results := QuestionResults(scheme, answers)

	require.Len(t, results, 2)
	assert.Equal(t, 2, results[0].Responses)
	assert.Equal(t, 3.0, results[0].AverageMarks)
	assert.Equal(t, 75.0, results[0].AveragePercentage)
	assert.Equal(t, 0, results[1].Responses)
	assert.Equal(t, 0.0, results[1].AverageMarks)
}
