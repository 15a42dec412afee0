package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/SAP-F-2025/marking-service/internal/errors"
	"github.com/SAP-F-2025/marking-service/internal/models"
)

func float64Ptr(v float64) *float64 {
	return &v
}

func validScheme() *models.MarkingScheme {
	scheme := &models.MarkingScheme{
		AssignmentID: 1,
		Title:        "Quiz 1",
		PassScore:    40,
		Questions: []models.QuestionSpec{
			{AnswerText: "Paris", Marks: 5, GradingType: models.GradingOneWord},
			{AnswerText: "42", Marks: 5, GradingType: models.GradingNumerical, RangeSensitive: true,
				UseRange: true, Range: &models.Range{Min: float64Ptr(40), Max: float64Ptr(44), TolerancePercent: 5}},
		},
	}
	scheme.Renumber()
	return scheme
}

func requireValidationError(t *testing.T, err error) *apperrors.ValidationError {
	t.Helper()
	var ve *apperrors.ValidationError
	require.True(t, errors.As(err, &ve), "expected *ValidationError, got %v", err)
	return ve
}

func TestSchemeValidatorAcceptsValidScheme(t *testing.T) {
	v := New()
	assert.NoError(t, v.Scheme().Validate(validScheme()))
}

func TestSchemeValidatorRules(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(s *models.MarkingScheme)
		field    string
		question int
	}{
		{
			name:     "blank answer text",
			mutate:   func(s *models.MarkingScheme) { s.Questions[1].AnswerText = "   " },
			field:    "answer_text",
			question: 2,
		},
		{
			name:     "zero marks",
			mutate:   func(s *models.MarkingScheme) { s.Questions[0].Marks = 0 },
			field:    "marks",
			question: 1,
		},
		{
			name:     "missing range",
			mutate:   func(s *models.MarkingScheme) { s.Questions[1].Range = nil },
			field:    "range.min",
			question: 2,
		},
		{
			name:     "missing max",
			mutate:   func(s *models.MarkingScheme) { s.Questions[1].Range.Max = nil },
			field:    "range.max",
			question: 2,
		},
		{
			name:     "inverted range",
			mutate:   func(s *models.MarkingScheme) { s.Questions[1].Range.Min = float64Ptr(50) },
			field:    "range",
			question: 2,
		},
		{
			name:   "pass score too high",
			mutate: func(s *models.MarkingScheme) { s.PassScore = 101 },
			field:  "pass_score",
		},
		{
			name:   "negative pass score",
			mutate: func(s *models.MarkingScheme) { s.PassScore = -1 },
			field:  "pass_score",
		},
		{
			name:     "unknown grading type",
			mutate:   func(s *models.MarkingScheme) { s.Questions[0].GradingType = "essay" },
			field:    "grading_type",
			question: 1,
		},
		{
			name: "semantic threshold out of range",
			mutate: func(s *models.MarkingScheme) {
				s.Questions[0].GradingType = models.GradingShortPhrase
				s.Questions[0].SemanticThreshold = float64Ptr(1.5)
			},
			field:    "semantic_threshold",
			question: 1,
		},
	}

	v := New()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			scheme := validScheme()
			tc.mutate(scheme)

			ve := requireValidationError(t, v.Scheme().Validate(scheme))
			assert.Equal(t, tc.field, ve.Field)
			assert.Equal(t, tc.question, ve.QuestionNumber)
		})
	}
}

func TestSchemeValidatorFirstFailureWins(t *testing.T) {
	scheme := validScheme()
	scheme.PassScore = 150
	scheme.Questions[1].Marks = -2
	scheme.Questions[1].AnswerText = ""
	scheme.Questions[0].Marks = 0

	ve := requireValidationError(t, New().Scheme().Validate(scheme))
	assert.Equal(t, "answer_text", ve.Field)
	assert.Equal(t, 2, ve.QuestionNumber)

	scheme.Questions[1].AnswerText = "fixed"
	ve = requireValidationError(t, New().Scheme().Validate(scheme))
	assert.Equal(t, "marks", ve.Field)
	assert.Equal(t, 1, ve.QuestionNumber)
}

func TestRangeOnlyCheckedWhenUsed(t *testing.T) {
	scheme := validScheme()
	scheme.Questions[1].UseRange = false
	scheme.Questions[1].Range = nil
	assert.NoError(t, New().Scheme().Validate(scheme))
}

func TestValidateStructTags(t *testing.T) {
	type request struct {
		PassScore int                `json:"pass_score" validate:"pass_score"`
		Type      models.GradingType `json:"grading_type" validate:"grading_type"`
	}

	v := New()
	assert.NoError(t, v.Validate(&request{PassScore: 40, Type: models.GradingList}))

	err := v.Validate(&request{PassScore: 120, Type: "essay"})
	var errs apperrors.ValidationErrors
	require.True(t, errors.As(err, &errs))
	assert.Len(t, errs, 2)
	assert.Equal(t, "pass_score", errs[0].Field)
	assert.Equal(t, "grading_type", errs[1].Field)
}
