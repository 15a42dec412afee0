package models

import (
	"errors"
	"time"
)

type GradingType string

const (
	GradingOneWord     GradingType = "one-word"
	GradingShortPhrase GradingType = "short-phrase"
	GradingList        GradingType = "list"
	GradingNumerical   GradingType = "numerical"
)

// DefaultGradingType is used for freshly inserted question rows.
const DefaultGradingType = GradingShortPhrase

// DefaultSemanticThreshold is applied when a question switches to short-phrase
// grading without an explicit threshold.
const DefaultSemanticThreshold = 0.8

var (
	ErrQuestionIndexOutOfRange = errors.New("question index out of range")
	ErrLastQuestion            = errors.New("a marking scheme must keep at least one question")
	ErrInvalidGradingType      = errors.New("invalid grading type")
)

// IsValid reports whether t is one of the supported grading types.
func (t GradingType) IsValid() bool {
	switch t {
	case GradingOneWord, GradingShortPhrase, GradingList, GradingNumerical:
		return true
	}
	return false
}

// Range bounds a numerical answer. Min and Max are pointers so that a missing
// bound can be told apart from zero.
type Range struct {
	Min              *float64 `json:"min"`
	Max              *float64 `json:"max"`
	TolerancePercent float64  `json:"tolerance_percent" validate:"min=0,max=100"`
}

type MarkingScheme struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	AssignmentID uint           `json:"assignment_id" gorm:"not null;index"`
	Title        string         `json:"title" gorm:"size:200" validate:"max=200"`
	PassScore    int            `json:"pass_score" gorm:"not null;default:50"`
	Questions    []QuestionSpec `json:"questions" gorm:"foreignKey:MarkingSchemeID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type QuestionSpec struct {
	// ID is zero for rows that have not been persisted yet.
	ID              uint   `json:"id,omitempty" gorm:"primaryKey"`
	MarkingSchemeID uint   `json:"-" gorm:"not null;index"`
	Number          int    `json:"number" gorm:"not null"`
	QuestionText    string `json:"question_text" gorm:"type:text"`
	AnswerText      string `json:"answer_text" gorm:"type:text;not null"`
	Marks           int    `json:"marks" gorm:"not null"`

	GradingType       GradingType `json:"grading_type" gorm:"not null;size:20" validate:"grading_type"`
	CaseSensitive     bool        `json:"case_sensitive"`
	OrderSensitive    bool        `json:"order_sensitive"`
	RangeSensitive    bool        `json:"range_sensitive"`
	PartialMatching   bool        `json:"partial_matching"`
	SemanticThreshold *float64    `json:"semantic_threshold,omitempty" validate:"omitempty,min=0,max=1"`
	UseRange          bool        `json:"use_range"`
	Range             *Range      `json:"range,omitempty" gorm:"serializer:json"`
}

func (MarkingScheme) TableName() string {
	return "marking_schemes"
}

func (QuestionSpec) TableName() string {
	return "marking_scheme_questions"
}

// TotalPossibleMarks is the sum of allocated marks over all questions.
func (s *MarkingScheme) TotalPossibleMarks() int {
	total := 0
	for _, q := range s.Questions {
		total += q.Marks
	}
	return total
}

// IsConfigured reports whether the scheme can be used for grading.
func (s *MarkingScheme) IsConfigured() bool {
	return len(s.Questions) > 0 && s.TotalPossibleMarks() > 0
}

// Renumber assigns dense 1-based numbers following slice order.
func (s *MarkingScheme) Renumber() {
	for i := range s.Questions {
		s.Questions[i].Number = i + 1
	}
}

// InsertQuestionAfter inserts q directly after the question at index.
// An index of -1 inserts at the front.
func (s *MarkingScheme) InsertQuestionAfter(index int, q QuestionSpec) error {
	if index < -1 || index >= len(s.Questions) {
		return ErrQuestionIndexOutOfRange
	}
	if q.GradingType == "" {
		q.GradingType = DefaultGradingType
	}
	if !q.GradingType.IsValid() {
		return ErrInvalidGradingType
	}
	q.ID = 0
	q.MarkingSchemeID = s.ID
	q.ApplyGradingTypeConstraints()

	pos := index + 1
	s.Questions = append(s.Questions, QuestionSpec{})
	copy(s.Questions[pos+1:], s.Questions[pos:])
	s.Questions[pos] = q
	s.Renumber()
	return nil
}

// DeleteQuestion removes the question at index. The last remaining question
// cannot be removed.
func (s *MarkingScheme) DeleteQuestion(index int) error {
	if index < 0 || index >= len(s.Questions) {
		return ErrQuestionIndexOutOfRange
	}
	if len(s.Questions) == 1 {
		return ErrLastQuestion
	}
	s.Questions = append(s.Questions[:index], s.Questions[index+1:]...)
	s.Renumber()
	return nil
}

// ChangeGradingType switches the question at index to newType and resets every
// flag the new type does not allow.
func (s *MarkingScheme) ChangeGradingType(index int, newType GradingType) error {
	if index < 0 || index >= len(s.Questions) {
		return ErrQuestionIndexOutOfRange
	}
	if !newType.IsValid() {
		return ErrInvalidGradingType
	}
	s.Questions[index].GradingType = newType
	s.Questions[index].ApplyGradingTypeConstraints()
	s.Renumber()
	return nil
}

// ApplyGradingTypeConstraints forces the mode-specific flags into the only
// combination allowed for the question's grading type.
func (q *QuestionSpec) ApplyGradingTypeConstraints() {
	switch q.GradingType {
	case GradingOneWord:
		q.OrderSensitive = false
		q.RangeSensitive = false
		q.PartialMatching = false
		q.SemanticThreshold = nil
		q.UseRange = false
		q.Range = nil
	case GradingShortPhrase:
		q.OrderSensitive = false
		q.RangeSensitive = false
		q.PartialMatching = false
		q.UseRange = false
		q.Range = nil
		if q.SemanticThreshold == nil {
			threshold := DefaultSemanticThreshold
			q.SemanticThreshold = &threshold
		}
	case GradingList:
		q.CaseSensitive = false
		q.RangeSensitive = false
		q.SemanticThreshold = nil
		q.UseRange = false
		q.Range = nil
	case GradingNumerical:
		q.CaseSensitive = false
		q.OrderSensitive = false
		q.RangeSensitive = true
		q.PartialMatching = false
		q.SemanticThreshold = nil
		if !q.UseRange {
			q.Range = nil
		}
	}
}

// Clone returns a deep copy, used to snapshot a scheme at batch start.
func (s *MarkingScheme) Clone() MarkingScheme {
	out := *s
	out.Questions = make([]QuestionSpec, len(s.Questions))
	for i, q := range s.Questions {
		cp := q
		if q.SemanticThreshold != nil {
			v := *q.SemanticThreshold
			cp.SemanticThreshold = &v
		}
		if q.Range != nil {
			r := *q.Range
			if q.Range.Min != nil {
				v := *q.Range.Min
				r.Min = &v
			}
			if q.Range.Max != nil {
				v := *q.Range.Max
				r.Max = &v
			}
			cp.Range = &r
		}
		out.Questions[i] = cp
	}
	return out
}
