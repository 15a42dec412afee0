package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the grading lifecycle events published by the service
type EventType string

const (
	EventBatchStarted   EventType = "grading.batch.started"
	EventBatchFinished  EventType = "grading.batch.finished"
	EventBatchCancelled EventType = "grading.batch.cancelled"

	EventTaskCompleted EventType = "grading.task.completed"
	EventTaskFailed    EventType = "grading.task.failed"

	EventDataIntegrity EventType = "grading.data_integrity"
)

const (
	eventSource  = "marking-service"
	eventVersion = "1.0"
)

// GradingEvent is the envelope for every published event
type GradingEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewGradingEvent wraps data in an envelope with a fresh id
func NewGradingEvent(eventType EventType, data interface{}) *GradingEvent {
	return &GradingEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

type BatchStartedEvent struct {
	BatchID            string `json:"batch_id"`
	SchemeID           uint   `json:"scheme_id"`
	AssignmentID       uint   `json:"assignment_id"`
	TotalFiles         int    `json:"total_files"`
	PassScore          int    `json:"pass_score"`
	TotalPossibleMarks int    `json:"total_possible_marks"`
}

type BatchFinishedEvent struct {
	BatchID        string `json:"batch_id"`
	AssignmentID   uint   `json:"assignment_id"`
	Status         string `json:"status"`
	TotalFiles     int    `json:"total_files"`
	CompletedFiles int    `json:"completed_files"`
	ErroredFiles   int    `json:"errored_files"`
	PassedFiles    int    `json:"passed_files"`
	FailedFiles    int    `json:"failed_files"`
}

type TaskCompletedEvent struct {
	BatchID         string  `json:"batch_id"`
	FileID          string  `json:"file_id"`
	RawScore        float64 `json:"raw_score"`
	NormalizedScore int     `json:"normalized_score"`
	Passed          bool    `json:"passed"`
}

type TaskFailedEvent struct {
	BatchID   string `json:"batch_id"`
	FileID    string `json:"file_id"`
	ErrorKind string `json:"error_kind"`
	Error     string `json:"error"`
}

type DataIntegrityEvent struct {
	BatchID            string  `json:"batch_id"`
	FileID             string  `json:"file_id"`
	RawScore           float64 `json:"raw_score"`
	TotalPossibleMarks int     `json:"total_possible_marks"`
	Reason             string  `json:"reason"`
}
