package scoring

// GradeBoundary maps a minimum percentage to a letter.
type GradeBoundary struct {
	Letter string  `json:"letter"`
	Min    float64 `json:"min"`
}

// GradeTable is ordered highest boundary first; the first boundary whose Min
// the score reaches wins, otherwise FallbackLetter applies.
type GradeTable struct {
	Boundaries     []GradeBoundary `json:"boundaries"`
	FallbackLetter string          `json:"fallback_letter"`
}

// DefaultGradeTable is the one boundary set used for every report and export.
var DefaultGradeTable = GradeTable{
	Boundaries: []GradeBoundary{
		{Letter: "A+", Min: 81},
		{Letter: "A", Min: 75},
		{Letter: "A-", Min: 70},
		{Letter: "B+", Min: 65},
		{Letter: "B", Min: 60},
		{Letter: "B-", Min: 55},
		{Letter: "C+", Min: 50},
		{Letter: "C", Min: 45},
		{Letter: "C-", Min: 40},
	},
	FallbackLetter: "E",
}

// Letter returns the grade letter for a percentage score.
func (t GradeTable) Letter(score float64) string {
	for _, b := range t.Boundaries {
		if score >= b.Min {
			return b.Letter
		}
	}
	return t.FallbackLetter
}

// Letters lists every letter the table can produce, best first.
func (t GradeTable) Letters() []string {
	letters := make([]string, 0, len(t.Boundaries)+1)
	for _, b := range t.Boundaries {
		letters = append(letters, b.Letter)
	}
	return append(letters, t.FallbackLetter)
}
