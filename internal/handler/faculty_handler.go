package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-adp-scheduler/internal/models"
	"github.com/noah-isme/sma-adp-scheduler/internal/service"
	appErrors "github.com/noah-isme/sma-adp-scheduler/pkg/errors"
	"github.com/noah-isme/sma-adp-scheduler/pkg/response"
)

// FacultyHandler wires faculty, course-mapping and preference services to
// HTTP routes.
type FacultyHandler struct {
	faculty  *service.FacultyService
	mappings *service.CourseMappingService
	prefs    *service.FacultyPreferenceService
}

// NewFacultyHandler constructs a new FacultyHandler.
func NewFacultyHandler(faculty *service.FacultyService, mappings *service.CourseMappingService, prefs *service.FacultyPreferenceService) *FacultyHandler {
	return &FacultyHandler{
		faculty:  faculty,
		mappings: mappings,
		prefs:    prefs,
	}
}

// List godoc
// @Summary List faculty
// @Tags Faculty
// @Produce json
// @Param search query string false "Search by name/email/employee code"
// @Param active query bool false "Filter by active status"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param sort query string false "Sort field (full_name,email,created_at)"
// @Param order query string false "Sort order (asc/desc)"
// @Success 200 {object} response.Envelope
// @Router /faculty [get]
func (h *FacultyHandler) List(c *gin.Context) {
	filter := models.FacultyFilter{
		Search:    strings.TrimSpace(c.Query("search")),
		SortBy:    c.Query("sort"),
		SortOrder: c.Query("order"),
	}
	if active := c.Query("active"); active != "" {
		switch strings.ToLower(active) {
		case "true":
			val := true
			filter.Active = &val
		case "false":
			val := false
			filter.Active = &val
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	faculty, pagination, err := h.faculty.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, faculty, pagination)
}

// Get godoc
// @Summary Get faculty detail
// @Tags Faculty
// @Produce json
// @Param id path string true "Faculty ID"
// @Success 200 {object} response.Envelope
// @Router /faculty/{id} [get]
func (h *FacultyHandler) Get(c *gin.Context) {
	faculty, err := h.faculty.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, faculty, nil)
}

// Create godoc
// @Summary Create faculty
// @Tags Faculty
// @Accept json
// @Produce json
// @Param payload body service.CreateFacultyRequest true "Faculty payload"
// @Success 201 {object} response.Envelope
// @Router /faculty [post]
func (h *FacultyHandler) Create(c *gin.Context) {
	var req service.CreateFacultyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid faculty payload"))
		return
	}
	faculty, err := h.faculty.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, faculty)
}

// Update godoc
// @Summary Update faculty
// @Tags Faculty
// @Accept json
// @Produce json
// @Param id path string true "Faculty ID"
// @Param payload body service.UpdateFacultyRequest true "Faculty payload"
// @Success 200 {object} response.Envelope
// @Router /faculty/{id} [put]
func (h *FacultyHandler) Update(c *gin.Context) {
	var req service.UpdateFacultyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid faculty payload"))
		return
	}
	faculty, err := h.faculty.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, faculty, nil)
}

// Delete godoc
// @Summary Deactivate faculty
// @Tags Faculty
// @Param id path string true "Faculty ID"
// @Success 204
// @Router /faculty/{id} [delete]
func (h *FacultyHandler) Delete(c *gin.Context) {
	if err := h.faculty.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListMappings godoc
// @Summary List course mappings taught by a faculty member
// @Tags Course Mappings
// @Param id path string true "Faculty ID"
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /faculty/{id}/mappings [get]
func (h *FacultyHandler) ListMappings(c *gin.Context) {
	mappings, err := h.mappings.ListByFaculty(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, mappings, nil)
}

// CreateMapping godoc
// @Summary Assign a course mapping to a faculty member
// @Tags Course Mappings
// @Accept json
// @Produce json
// @Param id path string true "Faculty ID"
// @Param payload body service.CreateCourseMappingRequest true "Mapping payload"
// @Success 201 {object} response.Envelope
// @Router /faculty/{id}/mappings [post]
func (h *FacultyHandler) CreateMapping(c *gin.Context) {
	var req service.CreateCourseMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid mapping payload"))
		return
	}
	req.FacultyID = c.Param("id")
	mapping, err := h.mappings.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, mapping)
}

// DeleteMapping godoc
// @Summary Remove a course mapping
// @Tags Course Mappings
// @Param id path string true "Faculty ID"
// @Param mid path string true "Mapping ID"
// @Success 204
// @Router /faculty/{id}/mappings/{mid} [delete]
func (h *FacultyHandler) DeleteMapping(c *gin.Context) {
	if err := h.mappings.Delete(c.Request.Context(), c.Param("mid")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// GetPreferences godoc
// @Summary Get faculty preference windows
// @Tags Faculty Preferences
// @Param id path string true "Faculty ID"
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /faculty/{id}/preferences [get]
func (h *FacultyHandler) GetPreferences(c *gin.Context) {
	prefs, err := h.prefs.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, prefs, nil)
}

// CreatePreference godoc
// @Summary Declare a faculty preference window
// @Tags Faculty Preferences
// @Accept json
// @Produce json
// @Param id path string true "Faculty ID"
// @Param payload body service.CreateFacultyPreferenceRequest true "Preference payload"
// @Success 201 {object} response.Envelope
// @Router /faculty/{id}/preferences [post]
func (h *FacultyHandler) CreatePreference(c *gin.Context) {
	var req service.CreateFacultyPreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid preference payload"))
		return
	}
	pref, err := h.prefs.Create(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, pref)
}

// ReplacePreferences godoc
// @Summary Replace every preference window for a faculty member
// @Tags Faculty Preferences
// @Accept json
// @Produce json
// @Param id path string true "Faculty ID"
// @Param payload body []service.CreateFacultyPreferenceRequest true "Preference windows"
// @Success 200 {object} response.Envelope
// @Router /faculty/{id}/preferences [put]
func (h *FacultyHandler) ReplacePreferences(c *gin.Context) {
	var req []service.CreateFacultyPreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid preference payload"))
		return
	}
	prefs, err := h.prefs.ReplaceAll(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, prefs, nil)
}

// DeletePreference godoc
// @Summary Remove a single faculty preference window
// @Tags Faculty Preferences
// @Param id path string true "Faculty ID"
// @Param pid path string true "Preference ID"
// @Success 204
// @Router /faculty/{id}/preferences/{pid} [delete]
func (h *FacultyHandler) DeletePreference(c *gin.Context) {
	if err := h.prefs.Delete(c.Request.Context(), c.Param("pid")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
