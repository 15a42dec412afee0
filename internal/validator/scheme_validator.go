package validator

import (
	"strings"

	apperrors "github.com/SAP-F-2025/marking-service/internal/errors"
	"github.com/SAP-F-2025/marking-service/internal/models"
	"github.com/go-playground/validator/v10"
)

// SchemeValidator checks a marking scheme before it may be persisted or used
// for grading. Rules run in a fixed order and the first failure is returned.
type SchemeValidator struct {
	structValidator *validator.Validate
}

// NewSchemeValidator creates a scheme validator sharing the tag validator
func NewSchemeValidator(structValidator *validator.Validate) *SchemeValidator {
	return &SchemeValidator{structValidator: structValidator}
}

type schemeRule func(scheme *models.MarkingScheme) *apperrors.ValidationError

// Validate returns nil or the first *errors.ValidationError found.
func (v *SchemeValidator) Validate(scheme *models.MarkingScheme) error {
	rules := []schemeRule{
		ruleAnswerText,
		ruleMarks,
		ruleNumericalRange,
		rulePassScore,
		v.ruleQuestionFields,
	}

	for _, rule := range rules {
		if err := rule(scheme); err != nil {
			return err
		}
	}
	return nil
}

func ruleAnswerText(scheme *models.MarkingScheme) *apperrors.ValidationError {
	for i, q := range scheme.Questions {
		if strings.TrimSpace(q.AnswerText) == "" {
			return apperrors.NewQuestionValidationError(questionNumber(q, i), "answer_text", "is required", "required", q.AnswerText)
		}
	}
	return nil
}

func ruleMarks(scheme *models.MarkingScheme) *apperrors.ValidationError {
	for i, q := range scheme.Questions {
		if q.Marks <= 0 {
			return apperrors.NewQuestionValidationError(questionNumber(q, i), "marks", "must be a positive integer", "positive_marks", q.Marks)
		}
	}
	return nil
}

func ruleNumericalRange(scheme *models.MarkingScheme) *apperrors.ValidationError {
	for i, q := range scheme.Questions {
		if q.GradingType != models.GradingNumerical || !q.UseRange {
			continue
		}
		number := questionNumber(q, i)
		if q.Range == nil || q.Range.Min == nil {
			return apperrors.NewQuestionValidationError(number, "range.min", "is required when use_range is set", "required", nil)
		}
		if q.Range.Max == nil {
			return apperrors.NewQuestionValidationError(number, "range.max", "is required when use_range is set", "required", nil)
		}
		if *q.Range.Min > *q.Range.Max {
			return apperrors.NewQuestionValidationError(number, "range", "min must not exceed max", "range_order", *q.Range)
		}
	}
	return nil
}

func rulePassScore(scheme *models.MarkingScheme) *apperrors.ValidationError {
	if scheme.PassScore < 0 || scheme.PassScore > 100 {
		return apperrors.NewValidationErrorWithRule("pass_score", "must be between 0 and 100", "pass_score", scheme.PassScore)
	}
	return nil
}

// ruleQuestionFields applies the struct tags on each question (grading type,
// semantic threshold, tolerance).
func (v *SchemeValidator) ruleQuestionFields(scheme *models.MarkingScheme) *apperrors.ValidationError {
	for i := range scheme.Questions {
		q := &scheme.Questions[i]
		if err := v.structValidator.Struct(q); err != nil {
			errs := apperrors.ToValidationErrors(err)
			if len(errs) == 0 {
				return apperrors.NewQuestionValidationError(questionNumber(*q, i), "question", err.Error(), "", nil)
			}
			first := errs[0]
			first.QuestionNumber = questionNumber(*q, i)
			return &first
		}
	}
	return nil
}

func questionNumber(q models.QuestionSpec, index int) int {
	if q.Number > 0 {
		return q.Number
	}
	return index + 1
}
