package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aryaniscoding/dbms-project-TE/internal/models"
	"github.com/aryaniscoding/dbms-project-TE/internal/service"
	appErrors "github.com/aryaniscoding/dbms-project-TE/pkg/errors"
	"github.com/aryaniscoding/dbms-project-TE/pkg/response"
)

// MarkHandler exposes teacher mark submission endpoints.
type MarkHandler struct {
	marks *service.MarkService
}

// NewMarkHandler constructs MarkHandler.
func NewMarkHandler(marks *service.MarkService) *MarkHandler {
	return &MarkHandler{marks: marks}
}

// Submit godoc
// @Summary Submit or overwrite a mark
// @Description Upserts the mark for a (student, subject) pair; the grade is derived from the marks
// @Tags Marks
// @Accept json
// @Produce json
// @Param payload body service.SubmitMarkRequest true "Mark payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /teacher/marks [post]
func (h *MarkHandler) Submit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.SubmitMarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	receipt, err := h.marks.Submit(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	status := http.StatusOK
	if receipt.Status == models.MarkStatusCreated {
		status = http.StatusCreated
	}
	response.JSON(c, status, receipt, nil)
}
