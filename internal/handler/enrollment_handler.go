package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aryaniscoding/dbms-project-TE/internal/models"
	"github.com/aryaniscoding/dbms-project-TE/internal/service"
	appErrors "github.com/aryaniscoding/dbms-project-TE/pkg/errors"
	"github.com/aryaniscoding/dbms-project-TE/pkg/response"
)

// EnrollmentHandler exposes enrollment management endpoints.
type EnrollmentHandler struct {
	enrollments *service.EnrollmentService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments *service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

// List godoc
// @Summary List enrollments
// @Tags Enrollments
// @Produce json
// @Param studentId query string false "Filter by student"
// @Param subjectId query string false "Filter by subject"
// @Success 200 {object} response.Envelope
// @Router /admin/enrollments [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	filter := models.EnrollmentFilter{
		StudentID: c.Query("studentId"),
		SubjectID: c.Query("subjectId"),
	}

	enrollments, err := h.enrollments.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, nil)
}

// Create godoc
// @Summary Enroll a student into a subject
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body service.EnrollRequest true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/enrollments [post]
func (h *EnrollmentHandler) Create(c *gin.Context) {
	var req service.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	enrollment, err := h.enrollments.Enroll(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}
