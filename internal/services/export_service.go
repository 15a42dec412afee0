package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/marking-service/internal/models"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type exportService struct {
	reports ReportService
	logger  *slog.Logger
}

func NewExportService(reports ReportService, logger *slog.Logger) ExportService {
	return &exportService{
		reports: reports,
		logger:  logger,
	}
}

// ExportAssignmentReport renders the assignment report as an xlsx workbook
// with Summary, Students, Distribution and Questions sheets.
func (s *exportService) ExportAssignmentReport(ctx context.Context, assignmentID uint) (*ReportExport, error) {
	report, err := s.reports.GetAssignmentReport(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "Summary"); err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	if err := writeSummary(f, report); err != nil {
		return nil, err
	}

	studentRows := make([][]interface{}, len(report.Students))
	for i, st := range report.Students {
		studentRows[i] = []interface{}{st.Rank, st.FileID, st.FileName, st.RawScore, st.Score, st.Grade, st.Percentile, passLabel(st.Passed)}
	}
	if err := writeTable(f, "Students",
		[]string{"Rank", "File ID", "File Name", "Raw Score", "Score (%)", "Grade", "Percentile", "Result"},
		studentRows); err != nil {
		return nil, err
	}

	distRows := make([][]interface{}, 0, len(report.GradeDistribution)+len(report.ScoreHistogram)+1)
	for _, g := range report.GradeDistribution {
		distRows = append(distRows, []interface{}{g.Grade, g.Count, g.Percentage})
	}
	distRows = append(distRows, []interface{}{})
	for _, bin := range report.ScoreHistogram {
		distRows = append(distRows, []interface{}{bin.Label, bin.Count})
	}
	if err := writeTable(f, "Distribution", []string{"Grade / Range", "Count", "Percentage"}, distRows); err != nil {
		return nil, err
	}

	questionRows := make([][]interface{}, len(report.Questions))
	for i, q := range report.Questions {
		questionRows[i] = []interface{}{q.Number, q.AllocatedMarks, q.Responses, q.AverageMarks, q.AveragePercentage}
	}
	if err := writeTable(f, "Questions",
		[]string{"Question", "Marks", "Responses", "Average Marks", "Average (%)"},
		questionRows); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.logger.Info("Assignment report exported",
		"assignment_id", assignmentID,
		"students", len(report.Students),
		"bytes", buf.Len())

	return &ReportExport{
		FileName:    fmt.Sprintf("assignment-%d-report.xlsx", assignmentID),
		ContentType: xlsxContentType,
		Content:     buf.Bytes(),
	}, nil
}

func writeSummary(f *excelize.File, report *models.AssignmentReport) error {
	rows := [][]interface{}{
		{"Assignment", report.AssignmentID},
		{"Marking Scheme", report.SchemeID},
		{"Pass Score", report.PassScore},
		{"Students", report.Summary.Count},
		{"Highest", report.Summary.Highest},
		{"Lowest", report.Summary.Lowest},
		{"Median", report.Summary.Median},
		{"Average", report.Summary.Average},
		{"Standard Deviation", report.Summary.StandardDeviation},
		{"Passed", report.Summary.Passed},
		{"Failed", report.Summary.Failed},
		{"Pass Rate (%)", report.Summary.PassRate},
		{"Generated At", report.GeneratedAt.Format("2006-01-02 15:04:05")},
	}
	return writeRows(f, "Summary", 1, rows)
}

func writeTable(f *excelize.File, sheet string, headers []string, rows [][]interface{}) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create Excel sheet %s: %w", sheet, err)
	}
	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := writeRows(f, sheet, 1, [][]interface{}{header}); err != nil {
		return err
	}
	return writeRows(f, sheet, 2, rows)
}

func writeRows(f *excelize.File, sheet string, firstRow int, rows [][]interface{}) error {
	for r, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, firstRow+r)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", firstRow+r, sheet, err)
		}
	}
	return nil
}

func passLabel(passed bool) string {
	if passed {
		return "PASS"
	}
	return "FAIL"
}
