package grader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/SAP-F-2025/marking-service/internal/grading"
	"github.com/SAP-F-2025/marking-service/internal/models"
	"github.com/SAP-F-2025/marking-service/internal/utils"
)

const gradePath = "/grade"

// HTTPGrader calls an external answer-grading service over JSON. The engine
// applies its own per-file timeout; the client timeout only guards against a
// stuck connection when the client is used on its own.
type HTTPGrader struct {
	baseURL string
	client  *http.Client
	logger  utils.Logger
}

func NewHTTPGrader(baseURL string, timeout time.Duration, logger utils.Logger) *HTTPGrader {
	if timeout <= 0 {
		timeout = grading.DefaultTimeout
	}
	return &HTTPGrader{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type gradeRequest struct {
	BatchID   string          `json:"batch_id"`
	FileID    string          `json:"file_id"`
	FileName  string          `json:"file_name,omitempty"`
	Questions []gradeQuestion `json:"questions"`
}

type gradeQuestion struct {
	QuestionID        uint               `json:"question_id"`
	Number            int                `json:"number"`
	QuestionText      string             `json:"question_text,omitempty"`
	AnswerText        string             `json:"answer_text"`
	Marks             int                `json:"marks"`
	GradingType       models.GradingType `json:"grading_type"`
	CaseSensitive     bool               `json:"case_sensitive"`
	OrderSensitive    bool               `json:"order_sensitive"`
	RangeSensitive    bool               `json:"range_sensitive"`
	PartialMatching   bool               `json:"partial_matching"`
	SemanticThreshold *float64           `json:"semantic_threshold,omitempty"`
	UseRange          bool               `json:"use_range"`
	Range             *models.Range      `json:"range,omitempty"`
}

type gradeResponse struct {
	RawScore *float64      `json:"raw_score"`
	Answers  []gradeAnswer `json:"answers"`
}

type gradeAnswer struct {
	QuestionID    uint     `json:"question_id"`
	StudentAnswer string   `json:"student_answer"`
	Marks         *float64 `json:"marks"`
}

// GradeFile implements grading.Grader.
func (g *HTTPGrader) GradeFile(ctx context.Context, req grading.FileRequest) (*grading.FileResult, error) {
	body, err := json.Marshal(buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("failed to encode grading request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+gradePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build grading request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("grading request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("grading service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out gradeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", grading.ErrMalformedResult, err)
	}

	result, err := toResult(req.Scheme, out)
	if err != nil {
		g.logger.WarnContext(ctx, "Grading service returned an unusable result",
			"batch_id", req.BatchID,
			"file_id", req.File.ID,
			"error", err)
		return nil, err
	}
	return result, nil
}

func buildRequest(req grading.FileRequest) gradeRequest {
	questions := make([]gradeQuestion, len(req.Scheme.Questions))
	for i, q := range req.Scheme.Questions {
		questions[i] = gradeQuestion{
			QuestionID:        q.ID,
			Number:            q.Number,
			QuestionText:      q.QuestionText,
			AnswerText:        q.AnswerText,
			Marks:             q.Marks,
			GradingType:       q.GradingType,
			CaseSensitive:     q.CaseSensitive,
			OrderSensitive:    q.OrderSensitive,
			RangeSensitive:    q.RangeSensitive,
			PartialMatching:   q.PartialMatching,
			SemanticThreshold: q.SemanticThreshold,
			UseRange:          q.UseRange,
			Range:             q.Range,
		}
	}
	return gradeRequest{
		BatchID:   req.BatchID,
		FileID:    req.File.ID,
		FileName:  req.File.Name,
		Questions: questions,
	}
}

// toResult checks per-answer marks against the scheme and fills in the
// correct answer and allocation. When the service omits raw_score it is the
// sum of answer marks.
func toResult(scheme models.MarkingScheme, resp gradeResponse) (*grading.FileResult, error) {
	byID := make(map[uint]models.QuestionSpec, len(scheme.Questions))
	for _, q := range scheme.Questions {
		byID[q.ID] = q
	}

	answers := make([]models.Answer, 0, len(resp.Answers))
	sum := 0.0
	for _, a := range resp.Answers {
		q, ok := byID[a.QuestionID]
		if !ok {
			return nil, fmt.Errorf("%w: unknown question %d", grading.ErrMalformedResult, a.QuestionID)
		}
		if a.Marks == nil {
			return nil, fmt.Errorf("%w: question %d has no marks", grading.ErrMalformedResult, q.Number)
		}
		if *a.Marks < 0 || *a.Marks > float64(q.Marks) {
			return nil, fmt.Errorf("%w: question %d awarded %g of %d marks", grading.ErrMalformedResult, q.Number, *a.Marks, q.Marks)
		}
		sum += *a.Marks
		answers = append(answers, models.Answer{
			QuestionID:     q.ID,
			StudentAnswer:  a.StudentAnswer,
			CorrectAnswer:  q.AnswerText,
			MarksForAnswer: *a.Marks,
			AllocatedMarks: q.Marks,
		})
	}

	switch {
	case resp.RawScore != nil:
		return &grading.FileResult{RawScore: *resp.RawScore, Answers: answers}, nil
	case len(answers) > 0:
		return &grading.FileResult{RawScore: sum, Answers: answers}, nil
	default:
		return nil, errors.Join(grading.ErrMalformedResult, errors.New("response has neither raw_score nor answers"))
	}
}
