package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/marking-service/internal/services"
	"github.com/SAP-F-2025/marking-service/internal/utils"
)

type GradingHandler struct {
	BaseHandler
	gradingService services.GradingService
}

func NewGradingHandler(gradingService services.GradingService, logger utils.Logger) *GradingHandler {
	return &GradingHandler{
		BaseHandler:    NewBaseHandler(logger),
		gradingService: gradingService,
	}
}

// StartBatch starts grading the selected files against a marking scheme.
// Grading continues in the background; poll the batch for progress.
// @Summary Start grading batch
// @Tags grading
// @Accept json
// @Produce json
// @Param batch body services.StartBatchRequest true "Scheme and files"
// @Success 202 {object} services.BatchResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /grading/batches [post]
func (h *GradingHandler) StartBatch(c *gin.Context) {
	var req services.StartBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}
	h.LogRequest(c, "Starting grading batch", "scheme_id", req.SchemeID, "files", len(req.FileIDs)+len(req.Files))

	batch, err := h.gradingService.StartBatch(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, batch)
}

// GetBatch returns a batch with its tasks and statistics
// @Summary Get grading batch
// @Tags grading
// @Produce json
// @Param id path string true "Batch ID"
// @Success 200 {object} services.BatchResponse
// @Failure 404 {object} ErrorResponse
// @Router /grading/batches/{id} [get]
func (h *GradingHandler) GetBatch(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	batch, err := h.gradingService.GetBatch(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}

// GetBatchStats returns only the statistics of a batch
// @Summary Get grading batch statistics
// @Tags grading
// @Produce json
// @Param id path string true "Batch ID"
// @Success 200 {object} models.GradingBatchStats
// @Failure 404 {object} ErrorResponse
// @Router /grading/batches/{id}/stats [get]
func (h *GradingHandler) GetBatchStats(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	stats, err := h.gradingService.GetStats(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// CancelBatch stops a running batch. Files already being graded finish;
// pending files stay pending.
// @Summary Cancel grading batch
// @Tags grading
// @Produce json
// @Param id path string true "Batch ID"
// @Success 200 {object} services.BatchResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /grading/batches/{id}/cancel [post]
func (h *GradingHandler) CancelBatch(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	h.LogRequest(c, "Cancelling grading batch", "batch_id", id)

	batch, err := h.gradingService.CancelBatch(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}
