package models

import "time"

// Answer is one graded (submission, question) pair. Rows are never updated in
// place: re-grading inserts new rows and stamps SupersededAt on the old ones.
type Answer struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	AssignmentID   uint       `json:"assignment_id" gorm:"not null;index"`
	BatchID        string     `json:"batch_id" gorm:"not null;size:36;index"`
	FileID         string     `json:"file_id" gorm:"not null;size:100;index"`
	QuestionID     uint       `json:"question_id" gorm:"not null;index"`
	StudentAnswer  string     `json:"student_answer" gorm:"type:text"`
	CorrectAnswer  string     `json:"correct_answer" gorm:"type:text"`
	MarksForAnswer float64    `json:"marks_for_answer"`
	AllocatedMarks int        `json:"allocated_marks"`
	SupersededAt   *time.Time `json:"superseded_at,omitempty" gorm:"index"`
	CreatedAt      time.Time  `json:"created_at"`
}

func (Answer) TableName() string {
	return "answers"
}
