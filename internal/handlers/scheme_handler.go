package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/marking-service/internal/services"
	"github.com/SAP-F-2025/marking-service/internal/utils"
)

type SchemeHandler struct {
	BaseHandler
	schemeService services.MarkingSchemeService
}

func NewSchemeHandler(schemeService services.MarkingSchemeService, logger utils.Logger) *SchemeHandler {
	return &SchemeHandler{
		BaseHandler:   NewBaseHandler(logger),
		schemeService: schemeService,
	}
}

// CreateScheme creates a marking scheme
// @Summary Create marking scheme
// @Description Validates and stores a marking scheme for an assignment
// @Tags schemes
// @Accept json
// @Produce json
// @Param scheme body services.SchemeRequest true "Marking scheme"
// @Success 201 {object} models.MarkingScheme
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /schemes [post]
func (h *SchemeHandler) CreateScheme(c *gin.Context) {
	h.LogRequest(c, "Creating marking scheme")

	var req services.SchemeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}

	scheme, err := h.schemeService.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, scheme)
}

// GetScheme returns a marking scheme with its questions in order
// @Summary Get marking scheme
// @Tags schemes
// @Produce json
// @Param id path uint true "Scheme ID"
// @Success 200 {object} models.MarkingScheme
// @Failure 404 {object} ErrorResponse
// @Router /schemes/{id} [get]
func (h *SchemeHandler) GetScheme(c *gin.Context) {
	id, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}

	scheme, err := h.schemeService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, scheme)
}

// ListAssignmentSchemes lists the schemes of an assignment, newest first
// @Summary List marking schemes of an assignment
// @Tags schemes
// @Produce json
// @Param assignment_id path uint true "Assignment ID"
// @Success 200 {array} models.MarkingScheme
// @Router /assignments/{assignment_id}/schemes [get]
func (h *SchemeHandler) ListAssignmentSchemes(c *gin.Context) {
	assignmentID, ok := ParseUintParam(c, "assignment_id")
	if !ok {
		return
	}

	schemes, err := h.schemeService.ListByAssignment(c.Request.Context(), assignmentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, schemes)
}

// UpdateScheme replaces a marking scheme. Invalid schemes are rejected
// before anything is written.
// @Summary Update marking scheme
// @Tags schemes
// @Accept json
// @Produce json
// @Param id path uint true "Scheme ID"
// @Param scheme body services.SchemeRequest true "Marking scheme"
// @Success 200 {object} models.MarkingScheme
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /schemes/{id} [put]
func (h *SchemeHandler) UpdateScheme(c *gin.Context) {
	id, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}
	h.LogRequest(c, "Updating marking scheme", "scheme_id", id)

	var req services.SchemeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}

	scheme, err := h.schemeService.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, scheme)
}

// DeleteScheme removes a marking scheme and its questions
// @Summary Delete marking scheme
// @Tags schemes
// @Param id path uint true "Scheme ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /schemes/{id} [delete]
func (h *SchemeHandler) DeleteScheme(c *gin.Context) {
	id, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}
	h.LogRequest(c, "Deleting marking scheme", "scheme_id", id)

	if err := h.schemeService.Delete(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// InsertQuestionAfter adds a question after the given zero-based index.
// Index -1 inserts at the front.
// @Summary Insert question
// @Tags schemes
// @Accept json
// @Produce json
// @Param id path uint true "Scheme ID"
// @Param index path int true "Question index"
// @Param question body services.QuestionRequest true "New question"
// @Success 200 {object} models.MarkingScheme
// @Failure 400 {object} ErrorResponse
// @Router /schemes/{id}/questions/{index}/insert-after [post]
func (h *SchemeHandler) InsertQuestionAfter(c *gin.Context) {
	id, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}
	index, ok := ParseIndexParam(c, "index")
	if !ok {
		return
	}

	var req services.QuestionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
			return
		}
	}

	scheme, err := h.schemeService.InsertQuestionAfter(c.Request.Context(), id, index, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, scheme)
}

// DeleteQuestion removes the question at index. The last question of a
// scheme cannot be removed.
// @Summary Delete question
// @Tags schemes
// @Produce json
// @Param id path uint true "Scheme ID"
// @Param index path int true "Question index"
// @Success 200 {object} models.MarkingScheme
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /schemes/{id}/questions/{index} [delete]
func (h *SchemeHandler) DeleteQuestion(c *gin.Context) {
	id, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}
	index, ok := ParseIndexParam(c, "index")
	if !ok {
		return
	}

	scheme, err := h.schemeService.DeleteQuestion(c.Request.Context(), id, index)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, scheme)
}

// ChangeGradingType switches a question's grading type and resets the
// constraint flags that type does not allow.
// @Summary Change grading type
// @Tags schemes
// @Accept json
// @Produce json
// @Param id path uint true "Scheme ID"
// @Param index path int true "Question index"
// @Param body body services.ChangeGradingTypeRequest true "Grading type"
// @Success 200 {object} models.MarkingScheme
// @Failure 400 {object} ErrorResponse
// @Router /schemes/{id}/questions/{index}/grading-type [put]
func (h *SchemeHandler) ChangeGradingType(c *gin.Context) {
	id, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}
	index, ok := ParseIndexParam(c, "index")
	if !ok {
		return
	}

	var req services.ChangeGradingTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}

	scheme, err := h.schemeService.ChangeGradingType(c.Request.Context(), id, index, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, scheme)
}
