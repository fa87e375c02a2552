package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aryaniscoding/dbms-project-TE/internal/service"
	appErrors "github.com/aryaniscoding/dbms-project-TE/pkg/errors"
	"github.com/aryaniscoding/dbms-project-TE/pkg/response"
)

// ResultHandler exposes the student-facing result endpoints.
type ResultHandler struct {
	results *service.ResultService
}

// NewResultHandler constructs ResultHandler.
func NewResultHandler(results *service.ResultService) *ResultHandler {
	return &ResultHandler{results: results}
}

// Me godoc
// @Summary Get the authenticated student's profile
// @Tags Results
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /student/me [get]
func (h *ResultHandler) Me(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	student, err := h.results.MyProfile(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// MyResult godoc
// @Summary Get the authenticated student's aggregated result
// @Description Returns per-subject marks with grades and the CGPA
// @Tags Results
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /student/result [get]
func (h *ResultHandler) MyResult(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	result, err := h.results.MyResult(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// MyResultPDF godoc
// @Summary Download the authenticated student's result card as PDF
// @Tags Results
// @Produce application/pdf
// @Success 200 {string} string "PDF payload"
// @Failure 401 {object} response.Envelope
// @Router /student/result/pdf [get]
func (h *ResultHandler) MyResultPDF(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	data, err := h.results.MyResultPDF(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("result-%s.pdf", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", data)
}
