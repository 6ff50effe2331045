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

type departmentService interface {
	List(ctx context.Context, filter models.DepartmentFilter) ([]models.Department, *models.Pagination, error)
	Get(ctx context.Context, id int64) (*models.Department, error)
	Create(ctx context.Context, req service.CreateDepartmentRequest, adminEmail string) (*models.Department, error)
	Update(ctx context.Context, id int64, req service.UpdateDepartmentRequest, actorEmail string) (*models.Department, error)
	SetActive(ctx context.Context, id int64, active bool) (*models.Department, error)
	AssignHod(ctx context.Context, id, facultyID int64, actorEmail string) (*models.Department, error)
	ReassignHod(ctx context.Context, id, oldFacultyID, newFacultyID int64, actorEmail string) (*models.Department, error)
	ReleaseHod(ctx context.Context, id int64, actorEmail string) (*models.Department, error)
	Delete(ctx context.Context, id int64, actorEmail string) error
}

// DepartmentHandler exposes department endpoints.
type DepartmentHandler struct {
	service departmentService
}

// NewDepartmentHandler builds a new handler.
func NewDepartmentHandler(service departmentService) *DepartmentHandler {
	return &DepartmentHandler{service: service}
}

type assignHodRequest struct {
	FacultyID int64 `json:"faculty_id" binding:"required,min=1"`
}

type reassignHodRequest struct {
	OldFacultyID int64 `json:"old_faculty_id" binding:"required,min=1"`
	NewFacultyID int64 `json:"new_faculty_id" binding:"required,min=1"`
}

// List godoc
// @Summary List departments
// @Tags Departments
// @Produce json
// @Param search query string false "Search over name"
// @Param active query bool false "Active filter"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /departments [get]
func (h *DepartmentHandler) List(c *gin.Context) {
	filter := models.DepartmentFilter{
		Search:     c.Query("search"),
		Active:     queryBool(c, "active"),
		AdminEmail: actorEmail(c),
		Page:       queryInt(c, "page", 1),
		PageSize:   queryInt(c, "page_size", 20),
		SortBy:     c.Query("sort_by"),
		SortOrder:  c.Query("sort_order"),
	}
	departments, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, departments, pagination)
}

// Get godoc
// @Summary Get a department
// @Tags Departments
// @Produce json
// @Param id path int true "Department ID"
// @Success 200 {object} response.Envelope
// @Router /departments/{id} [get]
func (h *DepartmentHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	department, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, department, nil)
}

// Create godoc
// @Summary Create a department
// @Tags Departments
// @Accept json
// @Produce json
// @Param payload body service.CreateDepartmentRequest true "Department payload"
// @Success 201 {object} response.Envelope
// @Router /departments [post]
func (h *DepartmentHandler) Create(c *gin.Context) {
	var req service.CreateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid department payload"))
		return
	}
	department, err := h.service.Create(c.Request.Context(), req, actorEmail(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, department)
}

// Update godoc
// @Summary Update a department
// @Tags Departments
// @Accept json
// @Produce json
// @Param id path int true "Department ID"
// @Param payload body service.UpdateDepartmentRequest true "Department payload"
// @Success 200 {object} response.Envelope
// @Router /departments/{id} [put]
func (h *DepartmentHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.UpdateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid department payload"))
		return
	}
	department, err := h.service.Update(c.Request.Context(), id, req, actorEmail(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, department, nil)
}

// SetStatus godoc
// @Summary Activate or deactivate a department
// @Tags Departments
// @Accept json
// @Produce json
// @Param id path int true "Department ID"
// @Param payload body statusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /departments/{id}/status [patch]
func (h *DepartmentHandler) SetStatus(c *gin.Context) {
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
	department, err := h.service.SetActive(c.Request.Context(), id, req.IsActive)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, department, nil)
}

// AssignHod godoc
// @Summary Assign an HOD to a department
// @Tags Departments
// @Accept json
// @Produce json
// @Param id path int true "Department ID"
// @Param payload body assignHodRequest true "HOD payload"
// @Success 200 {object} response.Envelope
// @Router /departments/{id}/hod [post]
func (h *DepartmentHandler) AssignHod(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req assignHodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid hod payload"))
		return
	}
	department, err := h.service.AssignHod(c.Request.Context(), id, req.FacultyID, actorEmail(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, department, nil)
}

// ReassignHod godoc
// @Summary Replace the HOD of a department
// @Tags Departments
// @Accept json
// @Produce json
// @Param id path int true "Department ID"
// @Param payload body reassignHodRequest true "Reassignment payload"
// @Success 200 {object} response.Envelope
// @Router /departments/{id}/hod [put]
func (h *DepartmentHandler) ReassignHod(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req reassignHodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid hod payload"))
		return
	}
	department, err := h.service.ReassignHod(c.Request.Context(), id, req.OldFacultyID, req.NewFacultyID, actorEmail(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, department, nil)
}

// ReleaseHod godoc
// @Summary Release the HOD of a department
// @Tags Departments
// @Produce json
// @Param id path int true "Department ID"
// @Success 200 {object} response.Envelope
// @Router /departments/{id}/hod [delete]
func (h *DepartmentHandler) ReleaseHod(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	department, err := h.service.ReleaseHod(c.Request.Context(), id, actorEmail(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, department, nil)
}

// Delete godoc
// @Summary Delete a department
// @Tags Departments
// @Produce json
// @Param id path int true "Department ID"
// @Success 204 {object} nil
// @Router /departments/{id} [delete]
func (h *DepartmentHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), id, actorEmail(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
