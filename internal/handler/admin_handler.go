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

type adminService interface {
	List(ctx context.Context, filter models.AdminFilter) ([]models.Admin, *models.Pagination, error)
	Get(ctx context.Context, id int64) (*models.Admin, error)
	Create(ctx context.Context, req service.CreateAdminRequest, actorEmail string) (*models.Admin, error)
	Update(ctx context.Context, id int64, req service.UpdateAdminRequest, actorEmail string) (*models.Admin, error)
	SetActive(ctx context.Context, id int64, active bool, actorEmail string) (*models.Admin, error)
	Unlock(ctx context.Context, id int64, actorEmail string) (*models.Admin, error)
	ResetPassword(ctx context.Context, id int64, req service.ResetPasswordRequest, actorEmail string) error
	Delete(ctx context.Context, id int64, actorID int64, actorEmail string) error
}

// AdminHandler exposes admin account management endpoints. Routes using this
// handler are restricted to SUPERADMIN.
type AdminHandler struct {
	service adminService
}

// NewAdminHandler builds a new handler.
func NewAdminHandler(service adminService) *AdminHandler {
	return &AdminHandler{service: service}
}

// List godoc
// @Summary List admin accounts
// @Tags Admins
// @Produce json
// @Param search query string false "Search over name and email"
// @Param active query bool false "Active filter"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /admins [get]
func (h *AdminHandler) List(c *gin.Context) {
	filter := models.AdminFilter{
		Search:    c.Query("search"),
		Active:    queryBool(c, "active"),
		Page:      queryInt(c, "page", 1),
		PageSize:  queryInt(c, "page_size", 20),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if raw, ok := c.GetQuery("role"); ok {
		role := models.AdminRole(raw)
		filter.Role = &role
	}
	admins, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, admins, pagination)
}

// Get godoc
// @Summary Get an admin account
// @Tags Admins
// @Produce json
// @Param id path int true "Admin ID"
// @Success 200 {object} response.Envelope
// @Router /admins/{id} [get]
func (h *AdminHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	admin, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, admin, nil)
}

// Create godoc
// @Summary Create an admin account
// @Tags Admins
// @Accept json
// @Produce json
// @Param payload body service.CreateAdminRequest true "Admin payload"
// @Success 201 {object} response.Envelope
// @Router /admins [post]
func (h *AdminHandler) Create(c *gin.Context) {
	var req service.CreateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid admin payload"))
		return
	}
	admin, err := h.service.Create(c.Request.Context(), req, actorEmail(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, admin)
}

// Update godoc
// @Summary Update an admin account
// @Tags Admins
// @Accept json
// @Produce json
// @Param id path int true "Admin ID"
// @Param payload body service.UpdateAdminRequest true "Admin payload"
// @Success 200 {object} response.Envelope
// @Router /admins/{id} [put]
func (h *AdminHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.UpdateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid admin payload"))
		return
	}
	admin, err := h.service.Update(c.Request.Context(), id, req, actorEmail(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, admin, nil)
}

// SetStatus godoc
// @Summary Activate or deactivate an admin account
// @Tags Admins
// @Accept json
// @Produce json
// @Param id path int true "Admin ID"
// @Param payload body statusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /admins/{id}/status [patch]
func (h *AdminHandler) SetStatus(c *gin.Context) {
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
	admin, err := h.service.SetActive(c.Request.Context(), id, req.IsActive, actorEmail(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, admin, nil)
}

// Unlock godoc
// @Summary Unlock an admin account after failed logins
// @Tags Admins
// @Produce json
// @Param id path int true "Admin ID"
// @Success 200 {object} response.Envelope
// @Router /admins/{id}/unlock [post]
func (h *AdminHandler) Unlock(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	admin, err := h.service.Unlock(c.Request.Context(), id, actorEmail(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, admin, nil)
}

// ResetPassword godoc
// @Summary Reset an admin account password
// @Tags Admins
// @Accept json
// @Produce json
// @Param id path int true "Admin ID"
// @Param payload body service.ResetPasswordRequest true "Password payload"
// @Success 204 {object} nil
// @Router /admins/{id}/password [put]
func (h *AdminHandler) ResetPassword(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid password payload"))
		return
	}
	if err := h.service.ResetPassword(c.Request.Context(), id, req, actorEmail(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Delete godoc
// @Summary Delete an admin account
// @Tags Admins
// @Produce json
// @Param id path int true "Admin ID"
// @Success 204 {object} nil
// @Router /admins/{id} [delete]
func (h *AdminHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var actorID int64
	if claims := claimsFromContext(c); claims != nil {
		actorID = claims.AdminID
	}
	if err := h.service.Delete(c.Request.Context(), id, actorID, actorEmail(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
