package models

import "time"

type ScoreSummary struct {
	Count             int     `json:"count"`
	Highest           float64 `json:"highest"`
	Lowest            float64 `json:"lowest"`
	Median            float64 `json:"median"`
	Average           float64 `json:"average"`
	StandardDeviation float64 `json:"standard_deviation"`
	Passed            int     `json:"passed"`
	Failed            int     `json:"failed"`
	PassRate          float64 `json:"pass_rate"`
}

type GradeBucket struct {
	Grade      string  `json:"grade"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type ScoreBin struct {
	Label string `json:"label"`
	Min   int    `json:"min"`
	Max   int    `json:"max"`
	Count int    `json:"count"`
}

type StudentResult struct {
	FileID     string  `json:"file_id"`
	FileName   string  `json:"file_name"`
	RawScore   float64 `json:"raw_score"`
	Score      float64 `json:"score"`
	Grade      string  `json:"grade"`
	Rank       int     `json:"rank"`
	Percentile float64 `json:"percentile"`
	Passed     bool    `json:"passed"`
}

type QuestionResult struct {
	QuestionID        uint    `json:"question_id"`
	Number            int     `json:"number"`
	AllocatedMarks    int     `json:"allocated_marks"`
	Responses         int     `json:"responses"`
	AverageMarks      float64 `json:"average_marks"`
	AveragePercentage float64 `json:"average_percentage"`
}

type AssignmentReport struct {
	AssignmentID      uint             `json:"assignment_id"`
	SchemeID          uint             `json:"scheme_id"`
	PassScore         int              `json:"pass_score"`
	Summary           ScoreSummary     `json:"summary"`
	GradeDistribution []GradeBucket    `json:"grade_distribution"`
	ScoreHistogram    []ScoreBin       `json:"score_histogram"`
	Students          []StudentResult  `json:"students"`
	Questions         []QuestionResult `json:"questions"`
	GeneratedAt       time.Time        `json:"generated_at"`
	CacheHit          bool             `json:"cache_hit"`
}
