package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuscore/college-admin-api/internal/models"
	"github.com/campuscore/college-admin-api/internal/service"
	appErrors "github.com/campuscore/college-admin-api/pkg/errors"
	"github.com/campuscore/college-admin-api/pkg/response"
)

type facultyService interface {
	List(ctx context.Context, filter models.FacultyFilter) ([]models.Faculty, *models.Pagination, error)
	Get(ctx context.Context, id int64) (*models.Faculty, error)
	Create(ctx context.Context, req service.CreateFacultyRequest, adminEmail string) (*models.Faculty, error)
	Update(ctx context.Context, id int64, req service.UpdateFacultyRequest) (*models.Faculty, error)
	SetActive(ctx context.Context, id int64, active bool) (*models.Faculty, error)
	ToggleHodFlag(ctx context.Context, id int64) error
	Demote(ctx context.Context, id int64, actorEmail string) (*models.Department, error)
	Delete(ctx context.Context, id int64, actorEmail string) (*models.Department, error)
}

// FacultyHandler exposes faculty roster endpoints.
type FacultyHandler struct {
	service facultyService
}

// NewFacultyHandler builds a new handler.
func NewFacultyHandler(service facultyService) *FacultyHandler {
	return &FacultyHandler{service: service}
}

type statusRequest struct {
	IsActive bool `json:"is_active"`
}

// List godoc
// @Summary List faculty members
// @Tags Faculty
// @Produce json
// @Param search query string false "Search over name, email and department"
// @Param active query bool false "Active filter"
// @Param hod query bool false "HOD filter"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /faculty [get]
func (h *FacultyHandler) List(c *gin.Context) {
	filter := models.FacultyFilter{
		Search:     c.Query("search"),
		Active:     queryBool(c, "active"),
		HOD:        queryBool(c, "hod"),
		AdminEmail: actorEmail(c),
		Page:       queryInt(c, "page", 1),
		PageSize:   queryInt(c, "page_size", 20),
		SortBy:     c.Query("sort_by"),
		SortOrder:  c.Query("sort_order"),
	}
	faculty, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, faculty, pagination)
}

// Get godoc
// @Summary Get a faculty member
// @Tags Faculty
// @Produce json
// @Param id path int true "Faculty ID"
// @Success 200 {object} response.Envelope
// @Router /faculty/{id} [get]
func (h *FacultyHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	faculty, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, faculty, nil)
}

// Create godoc
// @Summary Create a faculty member
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
	faculty, err := h.service.Create(c.Request.Context(), req, actorEmail(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, faculty)
}

// Update godoc
// @Summary Update a faculty member
// @Tags Faculty
// @Accept json
// @Produce json
// @Param id path int true "Faculty ID"
// @Param payload body service.UpdateFacultyRequest true "Faculty payload"
// @Success 200 {object} response.Envelope
// @Router /faculty/{id} [put]
func (h *FacultyHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.UpdateFacultyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid faculty payload"))
		return
	}
	faculty, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, faculty, nil)
}

// SetStatus godoc
// @Summary Activate or deactivate a faculty member
// @Tags Faculty
// @Accept json
// @Produce json
// @Param id path int true "Faculty ID"
// @Param payload body statusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /faculty/{id}/status [patch]
func (h *FacultyHandler) SetStatus(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}
	faculty, err := h.service.SetActive(c.Request.Context(), id, req.IsActive)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, faculty, nil)
}

// ToggleHod godoc
// @Summary Toggle the HOD flag directly (always rejected)
// @Tags Faculty
// @Produce json
// @Param id path int true "Faculty ID"
// @Failure 400 {object} response.Envelope
// @Router /faculty/{id}/hod [patch]
func (h *FacultyHandler) ToggleHod(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.ToggleHodFlag(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Demote godoc
// @Summary Remove a faculty member's HOD role
// @Tags Faculty
// @Produce json
// @Param id path int true "Faculty ID"
// @Success 200 {object} response.Envelope
// @Router /faculty/{id}/demote [post]
func (h *FacultyHandler) Demote(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	affected, err := h.service.Demote(c.Request.Context(), id, actorEmail(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"deactivated_department": affected}, nil)
}

// Delete godoc
// @Summary Delete a faculty member
// @Tags Faculty
// @Produce json
// @Param id path int true "Faculty ID"
// @Success 200 {object} response.Envelope
// @Router /faculty/{id} [delete]
func (h *FacultyHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	affected, err := h.service.Delete(c.Request.Context(), id, actorEmail(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"deactivated_department": affected}, nil)
}
