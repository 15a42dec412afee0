package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/SAP-F-2025/marking-service/internal/grading"
	"github.com/SAP-F-2025/marking-service/internal/scoring"
)

func TestErrorClassification(t *testing.T) {
	integrity := &scoring.DataIntegrityError{FileID: "f1", RawScore: 12, TotalPossibleMarks: 10, Reason: "raw score exceeds total possible marks"}
	collaborator := &grading.GradingCollaboratorError{FileID: "f2", Err: grading.ErrGraderTimeout}

	tests := []struct {
		name       string
		err        error
		notFound   bool
		validation bool
		conflict   bool
		rule       bool
		integrity  bool
		grading    bool
	}{
		{name: "scheme not found", err: fmt.Errorf("load: %w", ErrSchemeNotFound), notFound: true},
		{name: "no files selected", err: ErrNoFilesSelected, validation: true},
		{name: "index out of range", err: ErrQuestionIndexOutOfRange, validation: true},
		{name: "validation error", err: NewValidationError("questions", "at least one question is required", 0), validation: true},
		{name: "batch running", err: ErrBatchInProgress, conflict: true},
		{name: "batch finished", err: ErrBatchNotCancellable, conflict: true},
		{name: "last question", err: ErrLastQuestion, rule: true},
		{name: "business rule", err: NewBusinessRuleError("unique_title", "title taken", nil), rule: true},
		{name: "data integrity", err: fmt.Errorf("grade: %w", integrity), integrity: true},
		{name: "grader failure", err: collaborator, grading: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.notFound, IsNotFound(tt.err))
			assert.Equal(t, tt.validation, IsValidation(tt.err))
			assert.Equal(t, tt.conflict, IsConflict(tt.err))
			assert.Equal(t, tt.rule, IsBusinessRule(tt.err))
			assert.Equal(t, tt.integrity, IsDataIntegrity(tt.err))
			assert.Equal(t, tt.grading, IsGradingFailure(tt.err))
		})
	}
}

func TestFormatError(t *testing.T) {
	assert.Nil(t, FormatError(nil))

	formatted := FormatError(&ValidationError{Field: "answer_text", Rule: "required", QuestionNumber: 3, Message: "is required"})
	assert.Equal(t, "validation", formatted["type"])
	assert.Equal(t, 3, formatted["question_number"])

	formatted = FormatError(&scoring.DataIntegrityError{FileID: "f9", Reason: "raw score is negative"})
	assert.Equal(t, "data_integrity", formatted["type"])
	assert.Equal(t, "f9", formatted["file_id"])

	formatted = FormatError(ErrBatchNotCancellable)
	assert.Equal(t, "conflict", formatted["type"])

	formatted = FormatError(errors.New("boom"))
	assert.Equal(t, "unknown", formatted["type"])
}
