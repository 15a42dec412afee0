package services

import (
	"context"

	"github.com/SAP-F-2025/marking-service/internal/grading"
	"github.com/SAP-F-2025/marking-service/internal/models"
)

// ===== REQUEST/RESPONSE DTOs =====

type QuestionRequest struct {
	QuestionText      string             `json:"question_text"`
	AnswerText        string             `json:"answer_text"`
	Marks             int                `json:"marks"`
	GradingType       models.GradingType `json:"grading_type"`
	CaseSensitive     bool               `json:"case_sensitive"`
	OrderSensitive    bool               `json:"order_sensitive"`
	RangeSensitive    bool               `json:"range_sensitive"`
	PartialMatching   bool               `json:"partial_matching"`
	SemanticThreshold *float64           `json:"semantic_threshold"`
	UseRange          bool               `json:"use_range"`
	Range             *models.Range      `json:"range"`
}

// SchemeRequest carries a full marking scheme for create and update.
type SchemeRequest struct {
	AssignmentID uint              `json:"assignment_id" validate:"required"`
	Title        string            `json:"title" validate:"max=200"`
	PassScore    int               `json:"pass_score"`
	Questions    []QuestionRequest `json:"questions"`
}

type ChangeGradingTypeRequest struct {
	GradingType models.GradingType `json:"grading_type" validate:"required,grading_type"`
}

// StartBatchRequest selects files for grading. FileIDs is the short form;
// Files also carries display names.
type StartBatchRequest struct {
	SchemeID uint           `json:"scheme_id" validate:"required"`
	FileIDs  []string       `json:"file_ids"`
	Files    []grading.File `json:"files" validate:"omitempty,dive"`
}

type BatchResponse struct {
	*models.GradingBatch
	Stats models.GradingBatchStats `json:"stats"`
	Live  bool                     `json:"live"`
}

type ReportExport struct {
	FileName    string
	ContentType string
	Content     []byte
}

// ===== SERVICE INTERFACES =====

type MarkingSchemeService interface {
	Create(ctx context.Context, req *SchemeRequest) (*models.MarkingScheme, error)
	GetByID(ctx context.Context, id uint) (*models.MarkingScheme, error)
	ListByAssignment(ctx context.Context, assignmentID uint) ([]*models.MarkingScheme, error)
	Update(ctx context.Context, id uint, req *SchemeRequest) (*models.MarkingScheme, error)
	Delete(ctx context.Context, id uint) error

	InsertQuestionAfter(ctx context.Context, id uint, index int, req *QuestionRequest) (*models.MarkingScheme, error)
	DeleteQuestion(ctx context.Context, id uint, index int) (*models.MarkingScheme, error)
	ChangeGradingType(ctx context.Context, id uint, index int, req *ChangeGradingTypeRequest) (*models.MarkingScheme, error)
}

type GradingService interface {
	StartBatch(ctx context.Context, req *StartBatchRequest) (*BatchResponse, error)
	GetBatch(ctx context.Context, id string) (*BatchResponse, error)
	GetStats(ctx context.Context, id string) (*models.GradingBatchStats, error)
	CancelBatch(ctx context.Context, id string) (*BatchResponse, error)
	// WaitForBatch blocks until a live batch is fully persisted.
	WaitForBatch(ctx context.Context, id string) error
	// RecoverInterrupted closes batches left running by a previous process.
	RecoverInterrupted(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

type ReportService interface {
	GetAssignmentReport(ctx context.Context, assignmentID uint) (*models.AssignmentReport, error)
	InvalidateAssignment(ctx context.Context, assignmentID uint) error
}

type ExportService interface {
	ExportAssignmentReport(ctx context.Context, assignmentID uint) (*ReportExport, error)
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	MarkingScheme() MarkingSchemeService
	Grading() GradingService
	Report() ReportService
	Export() ExportService

	// Health and lifecycle
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
