package models

import (
	"time"

	"gorm.io/datatypes"
)

type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskGrading   TaskStatus = "grading"
	TaskCompleted TaskStatus = "completed"
	TaskError     TaskStatus = "error"
)

// IsTerminal reports whether no further transition is possible.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskCompleted || s == TaskError
}

type BatchStatus string

const (
	BatchRunning   BatchStatus = "running"
	BatchCompleted BatchStatus = "completed"
	BatchCancelled BatchStatus = "cancelled"
)

// TaskErrorKind separates collaborator failures from scheme/result mismatches.
type TaskErrorKind string

const (
	ErrorKindGrading       TaskErrorKind = "grading_failure"
	ErrorKindDataIntegrity TaskErrorKind = "data_integrity"
)

type GradingBatch struct {
	ID                 string         `json:"id" gorm:"primaryKey;size:36"`
	SchemeID           uint           `json:"scheme_id" gorm:"not null;index"`
	AssignmentID       uint           `json:"assignment_id" gorm:"not null;index"`
	PassScore          int            `json:"pass_score"`
	TotalPossibleMarks int            `json:"total_possible_marks"`
	Status             BatchStatus    `json:"status" gorm:"not null;size:20;index"`
	SchemeSnapshot     datatypes.JSON `json:"scheme_snapshot,omitempty"`
	Tasks              []GradingTask  `json:"tasks" gorm:"foreignKey:BatchID;constraint:OnDelete:CASCADE"`

	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

type GradingTask struct {
	ID              uint          `json:"-" gorm:"primaryKey"`
	BatchID         string        `json:"batch_id" gorm:"not null;size:36;uniqueIndex:idx_batch_file"`
	FileID          string        `json:"file_id" gorm:"not null;size:100;uniqueIndex:idx_batch_file"`
	FileName        string        `json:"file_name" gorm:"size:255"`
	Status          TaskStatus    `json:"status" gorm:"not null;size:20"`
	RawScore        *float64      `json:"raw_score,omitempty"`
	NormalizedScore *int          `json:"normalized_score,omitempty"`
	ErrorKind       TaskErrorKind `json:"error_kind,omitempty" gorm:"size:30"`
	ErrorMessage    string        `json:"error_message,omitempty" gorm:"type:text"`
	StartedAt       *time.Time    `json:"started_at,omitempty"`
	FinishedAt      *time.Time    `json:"finished_at,omitempty"`
}

// GradingBatchStats is a fold over the completed tasks of one batch.
type GradingBatchStats struct {
	TotalFiles           int     `json:"total_files"`
	PendingFiles         int     `json:"pending_files"`
	GradingFiles         int     `json:"grading_files"`
	CompletedFiles       int     `json:"completed_files"`
	ErroredFiles         int     `json:"errored_files"`
	IntegrityErrors      int     `json:"integrity_errors"`
	TotalRawScore        float64 `json:"total_raw_score"`
	TotalNormalizedScore int     `json:"total_normalized_score"`
	AverageScore         float64 `json:"average_score"`
	PassedFiles          int     `json:"passed_files"`
	FailedFiles          int     `json:"failed_files"`
	PassScore            int     `json:"pass_score"`
	TotalPossibleMarks   int     `json:"total_possible_marks"`
}

func (GradingBatch) TableName() string {
	return "grading_batches"
}

func (GradingTask) TableName() string {
	return "grading_tasks"
}
