package services

import (
	"errors"
	"fmt"

	apperrors "github.com/SAP-F-2025/marking-service/internal/errors"
	"github.com/SAP-F-2025/marking-service/internal/grading"
	"github.com/SAP-F-2025/marking-service/internal/models"
	"github.com/SAP-F-2025/marking-service/internal/scoring"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")
	ErrBadRequest       = errors.New("bad request")
	ErrConflict         = errors.New("resource conflict")

	// Marking scheme errors
	ErrSchemeNotFound          = errors.New("marking scheme not found")
	ErrSchemeNotConfigured     = grading.ErrSchemeNotConfigured
	ErrLastQuestion            = models.ErrLastQuestion
	ErrQuestionIndexOutOfRange = models.ErrQuestionIndexOutOfRange
	ErrInvalidGradingType      = models.ErrInvalidGradingType

	// Grading batch errors
	ErrNoFilesSelected     = grading.ErrNoFilesSelected
	ErrBatchNotFound       = errors.New("grading batch not found")
	ErrBatchNotCancellable = errors.New("grading batch has already finished")
	ErrBatchInProgress     = errors.New("grading batch is still running")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// DataIntegrityError is raised when a raw score cannot belong to its scheme.
type DataIntegrityError = scoring.DataIntegrityError

// GradingCollaboratorError is a per-file failure of the external grader.
type GradingCollaboratorError = grading.GradingCollaboratorError

type BusinessRuleError struct {
	Rule    string                 `json:"rule"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (bre *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule violation (%s): %s", bre.Rule, bre.Message)
}

// ===== ERROR HELPERS =====

// NewValidationError creates a new validation error using the shared type
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

func NewBusinessRuleError(rule, message string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{
		Rule:    rule,
		Message: message,
		Context: context,
	}
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrSchemeNotFound) ||
		errors.Is(err, ErrBatchNotFound)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) ||
		errors.Is(err, ErrBadRequest) ||
		errors.Is(err, ErrNoFilesSelected) ||
		errors.Is(err, ErrQuestionIndexOutOfRange) ||
		errors.Is(err, ErrInvalidGradingType) {
		return true
	}
	var ve apperrors.ValidationErrors
	if errors.As(err, &ve) {
		return true
	}
	var single *apperrors.ValidationError
	return errors.As(err, &single)
}

// IsBusinessRule checks if error represents a business rule violation
func IsBusinessRule(err error) bool {
	var bre *BusinessRuleError
	return errors.As(err, &bre) ||
		errors.Is(err, ErrSchemeNotConfigured) ||
		errors.Is(err, ErrLastQuestion)
}

// IsConflict checks if error represents a resource conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrBatchNotCancellable) ||
		errors.Is(err, ErrBatchInProgress)
}

// IsDataIntegrity checks if error is a scheme/result mismatch
func IsDataIntegrity(err error) bool {
	var die *DataIntegrityError
	return errors.As(err, &die)
}

// IsGradingFailure checks if error came from the external grader
func IsGradingFailure(err error) bool {
	var gce *GradingCollaboratorError
	return errors.As(err, &gce)
}
