package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/marking-service/internal/services"
	"github.com/SAP-F-2025/marking-service/internal/utils"
)

type ReportHandler struct {
	BaseHandler
	reportService services.ReportService
	exportService services.ExportService
}

func NewReportHandler(reportService services.ReportService, exportService services.ExportService, logger utils.Logger) *ReportHandler {
	return &ReportHandler{
		BaseHandler:   NewBaseHandler(logger),
		reportService: reportService,
		exportService: exportService,
	}
}

// GetAssignmentReport returns the statistics report of an assignment
// @Summary Assignment report
// @Tags reports
// @Produce json
// @Param assignment_id path uint true "Assignment ID"
// @Success 200 {object} models.AssignmentReport
// @Failure 404 {object} ErrorResponse
// @Router /reports/assignments/{assignment_id} [get]
func (h *ReportHandler) GetAssignmentReport(c *gin.Context) {
	assignmentID, ok := ParseUintParam(c, "assignment_id")
	if !ok {
		return
	}

	report, err := h.reportService.GetAssignmentReport(c.Request.Context(), assignmentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// ExportAssignmentReport downloads the report as an xlsx workbook
// @Summary Export assignment report
// @Tags reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param assignment_id path uint true "Assignment ID"
// @Success 200 {file} file
// @Failure 404 {object} ErrorResponse
// @Router /reports/assignments/{assignment_id}/export [get]
func (h *ReportHandler) ExportAssignmentReport(c *gin.Context) {
	assignmentID, ok := ParseUintParam(c, "assignment_id")
	if !ok {
		return
	}
	h.LogRequest(c, "Exporting assignment report", "assignment_id", assignmentID)

	export, err := h.exportService.ExportAssignmentReport(c.Request.Context(), assignmentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName))
	c.Data(http.StatusOK, export.ContentType, export.Content)
}
