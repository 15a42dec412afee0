package grading

import (
	"context"
	"errors"
	"fmt"

	"github.com/SAP-F-2025/marking-service/internal/models"
)

// File identifies one submitted file to grade.
type File struct {
	ID   string `json:"file_id" validate:"required,max=100"`
	Name string `json:"file_name" validate:"max=255"`
}

// FileRequest is what the external grader receives for one file.
type FileRequest struct {
	BatchID string
	File    File
	Scheme  models.MarkingScheme
}

// FileResult is the external grader's verdict for one file. Answers may be
// empty when the collaborator only reports a file-level raw score.
type FileResult struct {
	RawScore float64
	Answers  []models.Answer
}

// Grader is the opaque answer-grading collaborator.
type Grader interface {
	GradeFile(ctx context.Context, req FileRequest) (*FileResult, error)
}

// GraderFunc adapts a function to the Grader interface.
type GraderFunc func(ctx context.Context, req FileRequest) (*FileResult, error)

func (f GraderFunc) GradeFile(ctx context.Context, req FileRequest) (*FileResult, error) {
	return f(ctx, req)
}

var (
	ErrMalformedResult = errors.New("malformed grading result")
	ErrGraderTimeout   = errors.New("grading call timed out")
	ErrGraderPanic     = errors.New("grading call panicked")
)

// GradingCollaboratorError records a per-file failure of the external grader.
type GradingCollaboratorError struct {
	FileID string
	Err    error
}

func (e *GradingCollaboratorError) Error() string {
	return fmt.Sprintf("grading failed for file %s: %v", e.FileID, e.Err)
}

func (e *GradingCollaboratorError) Unwrap() error {
	return e.Err
}
