package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/aryaniscoding/dbms-project-TE/internal/models"
	"github.com/aryaniscoding/dbms-project-TE/internal/service"
	appErrors "github.com/aryaniscoding/dbms-project-TE/pkg/errors"
	"github.com/aryaniscoding/dbms-project-TE/pkg/response"
)

// SubjectHandler exposes subject catalog endpoints.
type SubjectHandler struct {
	subjects *service.SubjectService
}

// NewSubjectHandler constructs SubjectHandler.
func NewSubjectHandler(subjects *service.SubjectService) *SubjectHandler {
	return &SubjectHandler{subjects: subjects}
}

// List godoc
// @Summary List subjects
// @Tags Subjects
// @Produce json
// @Param search query string false "Search by code or name"
// @Param teacherId query string false "Filter by assigned teacher"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /admin/subjects [get]
func (h *SubjectHandler) List(c *gin.Context) {
	var filter models.SubjectFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.TeacherID = c.Query("teacherId")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	subjects, pagination, err := h.subjects.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, pagination)
}

// Create godoc
// @Summary Create subject
// @Tags Subjects
// @Accept json
// @Produce json
// @Param payload body service.CreateSubjectRequest true "Subject payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/subjects [post]
func (h *SubjectHandler) Create(c *gin.Context) {
	var req service.CreateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	subject, err := h.subjects.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, subject)
}

// AssignTeacher godoc
// @Summary Assign owning teacher to a subject
// @Tags Subjects
// @Accept json
// @Produce json
// @Param id path string true "Subject ID"
// @Param payload body service.AssignTeacherRequest true "Assignment payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/subjects/{id}/teacher [put]
func (h *SubjectHandler) AssignTeacher(c *gin.Context) {
	var req service.AssignTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	subject, err := h.subjects.AssignTeacher(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subject, nil)
}

// MySubjects godoc
// @Summary List subjects owned by the authenticated teacher
// @Tags Subjects
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /teacher/subjects [get]
func (h *SubjectHandler) MySubjects(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	subjects, err := h.subjects.ListByTeacher(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, nil)
}
