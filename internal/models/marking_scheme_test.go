package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func float64Ptr(v float64) *float64 {
	return &v
}

func newScheme(marks ...int) *MarkingScheme {
	scheme := &MarkingScheme{ID: 7, AssignmentID: 3, PassScore: 40}
	for _, m := range marks {
		scheme.Questions = append(scheme.Questions, QuestionSpec{
			AnswerText:  "answer",
			Marks:       m,
			GradingType: GradingOneWord,
		})
	}
	scheme.Renumber()
	return scheme
}

func assertDenseNumbers(t *testing.T, scheme *MarkingScheme) {
	t.Helper()
	for i, q := range scheme.Questions {
		assert.Equal(t, i+1, q.Number)
	}
}

func TestTotalPossibleMarks(t *testing.T) {
	scheme := newScheme(5, 5)
	assert.Equal(t, 10, scheme.TotalPossibleMarks())
	assert.True(t, scheme.IsConfigured())

	scheme.Questions[0], scheme.Questions[1] = scheme.Questions[1], scheme.Questions[0]
	assert.Equal(t, 10, scheme.TotalPossibleMarks())

	empty := &MarkingScheme{}
	assert.Equal(t, 0, empty.TotalPossibleMarks())
	assert.False(t, empty.IsConfigured())
}

func TestInsertQuestionAfter(t *testing.T) {
	scheme := newScheme(1, 2, 3)

	require.NoError(t, scheme.InsertQuestionAfter(0, QuestionSpec{AnswerText: "new", Marks: 9}))
	require.Len(t, scheme.Questions, 4)
	assert.Equal(t, 9, scheme.Questions[1].Marks)
	assert.Equal(t, DefaultGradingType, scheme.Questions[1].GradingType)
	assert.Equal(t, uint(7), scheme.Questions[1].MarkingSchemeID)
	assertDenseNumbers(t, scheme)

	require.NoError(t, scheme.InsertQuestionAfter(-1, QuestionSpec{AnswerText: "first", Marks: 4, GradingType: GradingList}))
	assert.Equal(t, "first", scheme.Questions[0].AnswerText)
	assertDenseNumbers(t, scheme)

	require.NoError(t, scheme.InsertQuestionAfter(len(scheme.Questions)-1, QuestionSpec{AnswerText: "last", Marks: 1}))
	assert.Equal(t, "last", scheme.Questions[len(scheme.Questions)-1].AnswerText)
	assertDenseNumbers(t, scheme)

	assert.ErrorIs(t, scheme.InsertQuestionAfter(99, QuestionSpec{}), ErrQuestionIndexOutOfRange)
	assert.ErrorIs(t, scheme.InsertQuestionAfter(0, QuestionSpec{GradingType: "essay"}), ErrInvalidGradingType)
}

func TestDeleteQuestion(t *testing.T) {
	scheme := newScheme(1, 2, 3)

	require.NoError(t, scheme.DeleteQuestion(1))
	require.Len(t, scheme.Questions, 2)
	assert.Equal(t, 1, scheme.Questions[0].Marks)
	assert.Equal(t, 3, scheme.Questions[1].Marks)
	assertDenseNumbers(t, scheme)

	require.NoError(t, scheme.DeleteQuestion(0))
	assert.ErrorIs(t, scheme.DeleteQuestion(0), ErrLastQuestion)
	assert.Len(t, scheme.Questions, 1)
	assert.ErrorIs(t, scheme.DeleteQuestion(5), ErrQuestionIndexOutOfRange)
}

func TestChangeGradingTypeResetsIncompatibleFlags(t *testing.T) {
	loaded := func() *MarkingScheme {
		scheme := newScheme(2)
		q := &scheme.Questions[0]
		q.CaseSensitive = true
		q.OrderSensitive = true
		q.RangeSensitive = true
		q.PartialMatching = true
		q.SemanticThreshold = float64Ptr(0.5)
		q.UseRange = true
		q.Range = &Range{Min: float64Ptr(1), Max: float64Ptr(2), TolerancePercent: 5}
		return scheme
	}

	t.Run("one-word", func(t *testing.T) {
		scheme := loaded()
		require.NoError(t, scheme.ChangeGradingType(0, GradingOneWord))
		q := scheme.Questions[0]
		assert.True(t, q.CaseSensitive)
		assert.False(t, q.OrderSensitive)
		assert.False(t, q.RangeSensitive)
		assert.False(t, q.PartialMatching)
		assert.Nil(t, q.SemanticThreshold)
		assert.False(t, q.UseRange)
		assert.Nil(t, q.Range)
	})

	t.Run("short-phrase", func(t *testing.T) {
		scheme := loaded()
		require.NoError(t, scheme.ChangeGradingType(0, GradingShortPhrase))
		q := scheme.Questions[0]
		assert.True(t, q.CaseSensitive)
		assert.Equal(t, 0.5, *q.SemanticThreshold)
		assert.False(t, q.OrderSensitive)
		assert.False(t, q.RangeSensitive)
		assert.False(t, q.PartialMatching)
		assert.Nil(t, q.Range)
	})

	t.Run("short-phrase default threshold", func(t *testing.T) {
		scheme := newScheme(1)
		require.NoError(t, scheme.ChangeGradingType(0, GradingShortPhrase))
		require.NotNil(t, scheme.Questions[0].SemanticThreshold)
		assert.Equal(t, DefaultSemanticThreshold, *scheme.Questions[0].SemanticThreshold)
	})

	t.Run("list", func(t *testing.T) {
		scheme := loaded()
		require.NoError(t, scheme.ChangeGradingType(0, GradingList))
		q := scheme.Questions[0]
		assert.True(t, q.OrderSensitive)
		assert.True(t, q.PartialMatching)
		assert.False(t, q.CaseSensitive)
		assert.False(t, q.RangeSensitive)
		assert.Nil(t, q.SemanticThreshold)
		assert.False(t, q.UseRange)
		assert.Nil(t, q.Range)
	})

	t.Run("numerical", func(t *testing.T) {
		scheme := loaded()
		require.NoError(t, scheme.ChangeGradingType(0, GradingNumerical))
		q := scheme.Questions[0]
		assert.False(t, q.CaseSensitive)
		assert.False(t, q.OrderSensitive)
		assert.True(t, q.RangeSensitive)
		assert.False(t, q.PartialMatching)
		assert.Nil(t, q.SemanticThreshold)
		assert.True(t, q.UseRange)
		require.NotNil(t, q.Range)
	})

	t.Run("numerical without range drops stale range", func(t *testing.T) {
		scheme := loaded()
		scheme.Questions[0].UseRange = false
		require.NoError(t, scheme.ChangeGradingType(0, GradingNumerical))
		assert.Nil(t, scheme.Questions[0].Range)
	})

	t.Run("invalid", func(t *testing.T) {
		scheme := loaded()
		assert.ErrorIs(t, scheme.ChangeGradingType(0, "essay"), ErrInvalidGradingType)
		assert.ErrorIs(t, scheme.ChangeGradingType(3, GradingList), ErrQuestionIndexOutOfRange)
	})
}

func TestCloneIsDeep(t *testing.T) {
	scheme := newScheme(2)
	scheme.Questions[0].GradingType = GradingNumerical
	scheme.Questions[0].UseRange = true
	scheme.Questions[0].Range = &Range{Min: float64Ptr(1), Max: float64Ptr(3)}

	snapshot := scheme.Clone()
	scheme.PassScore = 90
	scheme.Questions[0].Marks = 50
	*scheme.Questions[0].Range.Min = 2

	assert.Equal(t, 40, snapshot.PassScore)
	assert.Equal(t, 2, snapshot.Questions[0].Marks)
	assert.Equal(t, 1.0, *snapshot.Questions[0].Range.Min)
}

func TestTaskStatusIsTerminal(t *testing.T) {
	assert.False(t, TaskPending.IsTerminal())
	assert.False(t, TaskGrading.IsTerminal())
	assert.True(t, TaskCompleted.IsTerminal())
	assert.True(t, TaskError.IsTerminal())
}
