package errors

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ValidationError represents a single validation error. QuestionNumber is set
// when the offending field belongs to a question of a marking scheme.
type ValidationError struct {
	Field          string      `json:"field"`
	Message        string      `json:"message"`
	Value          interface{} `json:"value,omitempty"`
	Rule           string      `json:"rule,omitempty"`
	QuestionNumber int         `json:"question_number,omitempty"`
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s", ve[0].describe())
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

func (pe *ValidationError) Error() string {
	if pe.QuestionNumber > 0 {
		return fmt.Sprintf("validation error on question %d field '%s': %s", pe.QuestionNumber, pe.Field, pe.Message)
	}
	return fmt.Sprintf("validation error on field '%s': %s", pe.Field, pe.Message)
}

func (pe ValidationError) describe() string {
	if pe.QuestionNumber > 0 {
		return fmt.Sprintf("question %d %s %s", pe.QuestionNumber, pe.Field, pe.Message)
	}
	return fmt.Sprintf("%s %s", pe.Field, pe.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// NewValidationErrorWithRule creates a new validation error with rule
func NewValidationErrorWithRule(field, message, rule string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
		Rule:    rule,
	}
}

// NewQuestionValidationError creates a validation error tied to a question number
func NewQuestionValidationError(questionNumber int, field, message, rule string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:          field,
		Message:        message,
		Value:          value,
		Rule:           rule,
		QuestionNumber: questionNumber,
	}
}

// ToValidationErrors converts validator.ValidationErrors to our custom type
func ToValidationErrors(err error) ValidationErrors {
	var errors ValidationErrors

	if validatorErr, ok := err.(validator.ValidationErrors); ok {
		for _, err := range validatorErr {
			errors = append(errors, ValidationError{
				Field:   err.Field(),
				Message: getErrorMessage(err),
				Value:   err.Value(),
				Rule:    err.Tag(),
			})
		}
	}

	return errors
}

// getErrorMessage returns user-friendly error messages
func getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", err.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", err.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", err.Param())
	case "numeric":
		return "must be a number"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", err.Param())
	case "dive":
		return "contains an invalid element"

	// Custom validators
	case "grading_type":
		return "must be a valid grading type (one-word, short-phrase, list, numerical)"
	case "pass_score":
		return "must be between 0 and 100"

	default:
		return fmt.Sprintf("validation failed for rule '%s'", err.Tag())
	}
}
