package scoring

import (
	"fmt"
	"math"
	"math/big"
	"strconv"

	"github.com/SAP-F-2025/marking-service/internal/models"
)

// DataIntegrityError flags a raw score that cannot belong to the scheme it was
// graded against. It is reported separately from ordinary grading failures.
type DataIntegrityError struct {
	FileID             string  `json:"file_id"`
	RawScore           float64 `json:"raw_score"`
	TotalPossibleMarks int     `json:"total_possible_marks"`
	QuestionID         uint    `json:"question_id,omitempty"`
	Reason             string  `json:"reason"`
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("data integrity error for file %s: raw score %g against %d possible marks: %s",
		e.FileID, e.RawScore, e.TotalPossibleMarks, e.Reason)
}

var half = big.NewRat(1, 2)

// Normalize converts a raw score into a whole percentage of totalPossibleMarks,
// rounding half up. A non-positive total yields 0. Out-of-range raw scores are
// not clamped; use CheckRawScore to detect them.
//
// The raw score is taken at its shortest decimal form, so 0.29 of 2 is exactly
// 14.5 percent and rounds to 15.
func Normalize(rawScore float64, totalPossibleMarks int) int {
	if totalPossibleMarks <= 0 {
		return 0
	}
	r, ok := new(big.Rat).SetString(strconv.FormatFloat(rawScore, 'f', -1, 64))
	if !ok {
		return int(math.Floor(rawScore*100/float64(totalPossibleMarks) + 0.5))
	}
	r.Mul(r, big.NewRat(100, int64(totalPossibleMarks)))
	r.Add(r, half)
	// Euclidean division floors for the always-positive denominator.
	q := new(big.Int).Div(r.Num(), r.Denom())
	return int(q.Int64())
}

// CheckRawScore returns a *DataIntegrityError when rawScore lies outside
// [0, totalPossibleMarks] or when marks are reported for an empty scheme.
func CheckRawScore(fileID string, rawScore float64, totalPossibleMarks int) error {
	switch {
	case math.IsNaN(rawScore) || math.IsInf(rawScore, 0):
		return &DataIntegrityError{FileID: fileID, RawScore: rawScore, TotalPossibleMarks: totalPossibleMarks, Reason: "raw score is not a finite number"}
	case totalPossibleMarks == 0 && rawScore != 0:
		return &DataIntegrityError{FileID: fileID, RawScore: rawScore, TotalPossibleMarks: totalPossibleMarks, Reason: "scheme has no possible marks"}
	case rawScore < 0:
		return &DataIntegrityError{FileID: fileID, RawScore: rawScore, TotalPossibleMarks: totalPossibleMarks, Reason: "raw score is negative"}
	case rawScore > float64(totalPossibleMarks):
		return &DataIntegrityError{FileID: fileID, RawScore: rawScore, TotalPossibleMarks: totalPossibleMarks, Reason: "raw score exceeds total possible marks"}
	}
	return nil
}

// CheckAnswerMarks returns a *DataIntegrityError for the first answer whose
// awarded marks fall outside [0, AllocatedMarks].
func CheckAnswerMarks(fileID string, rawScore float64, totalPossibleMarks int, answers []models.Answer) error {
	for _, a := range answers {
		m := a.MarksForAnswer
		if math.IsNaN(m) || math.IsInf(m, 0) || m < 0 || m > float64(a.AllocatedMarks) {
			return &DataIntegrityError{
				FileID:             fileID,
				RawScore:           rawScore,
				TotalPossibleMarks: totalPossibleMarks,
				QuestionID:         a.QuestionID,
				Reason:             fmt.Sprintf("answer awarded %g of %d allocated marks", m, a.AllocatedMarks),
			}
		}
	}
	return nil
}
