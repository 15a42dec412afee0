package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/marking-service/internal/models"
)

type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) GetAssignmentReport(ctx context.Context, assignmentID uint) (*models.AssignmentReport, error) {
	args := m.Called(ctx, assignmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AssignmentReport), args.Error(1)
}

func (m *MockReportService) InvalidateAssignment(ctx context.Context, assignmentID uint) error {
	args := m.Called(ctx, assignmentID)
	return args.Error(0)
}

func sampleReport() *models.AssignmentReport {
	return &models.AssignmentReport{
		AssignmentID: 5,
		SchemeID:     2,
		PassScore:    40,
		Summary:      models.ScoreSummary{Count: 2, Highest: 90, Lowest: 30, Passed: 1, Failed: 1},
		GradeDistribution: []models.GradeBucket{
			{Grade: "A+", Count: 1, Percentage: 50},
			{Grade: "E", Count: 1, Percentage: 50},
		},
		ScoreHistogram: []models.ScoreBin{{Label: "30-39", Min: 30, Max: 39, Count: 1}},
		Students: []models.StudentResult{
			{FileID: "f1", FileName: "alice.pdf", RawScore: 9, Score: 90, Grade: "A+", Rank: 1, Percentile: 50, Passed: true},
			{FileID: "f2", FileName: "bob.pdf", RawScore: 3, Score: 30, Grade: "E", Rank: 2, Percentile: 0},
		},
		Questions:   []models.QuestionResult{{QuestionID: 1, Number: 1, AllocatedMarks: 4, Responses: 2, AverageMarks: 3}},
		GeneratedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestExportService_ExportAssignmentReport(t *testing.T) {
	reports := new(MockReportService)
	reports.On("GetAssignmentReport", mock.Anything, uint(5)).Return(sampleReport(), nil)
	svc := NewExportService(reports, discardLogger())

	export, err := svc.ExportAssignmentReport(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "assignment-5-report.xlsx", export.FileName)
	assert.Equal(t, xlsxContentType, export.ContentType)
	reports.AssertExpectations(t)

	f, err := excelize.OpenReader(bytes.NewReader(export.Content))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Summary", "Students", "Distribution", "Questions"}, f.GetSheetList())

	value, err := f.GetCellValue("Summary", "B1")
	require.NoError(t, err)
	assert.Equal(t, "5", value)

	rows, err := f.GetRows("Students")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Rank", rows[0][0])
	assert.Equal(t, []string{"1", "f1", "alice.pdf", "9", "90", "A+", "50", "PASS"}, rows[1])
	assert.Equal(t, "FAIL", rows[2][7])

	rows, err = f.GetRows("Distribution")
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, "A+", rows[1][0])
	assert.Equal(t, "30-39", rows[4][0])

	value, err = f.GetCellValue("Questions", "D2")
	require.NoError(t, err)
	assert.Equal(t, "3", value)
}

func TestExportService_PropagatesReportErrors(t *testing.T) {
	reports := new(MockReportService)
	reports.On("GetAssignmentReport", mock.Anything, uint(9)).Return(nil, ErrSchemeNotFound)
	svc := NewExportService(reports, discardLogger())

	_, err := svc.ExportAssignmentReport(context.Background(), 9)
	assert.ErrorIs(t, err, ErrSchemeNotFound)
}
