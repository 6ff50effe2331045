package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuscore/college-admin-api/internal/models"
	"github.com/campuscore/college-admin-api/pkg/response"
)

type dashboardService interface {
	Stats(ctx context.Context, adminEmail string) (*models.DashboardStats, error)
	RecentActivity(ctx context.Context, resource string, limit int) ([]models.AuditLog, error)
}

// DashboardHandler exposes dashboard aggregation endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler builds a new handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Stats godoc
// @Summary Headline counters for the admin portal
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/stats [get]
func (h *DashboardHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context(), actorEmail(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Activity godoc
// @Summary Recent audit activity
// @Tags Dashboard
// @Produce json
// @Param resource query string false "Resource filter (department, admin)"
// @Param limit query int false "Max entries"
// @Success 200 {object} response.Envelope
// @Router /dashboard/activity [get]
func (h *DashboardHandler) Activity(c *gin.Context) {
	entries, err := h.service.RecentActivity(c.Request.Context(), c.Query("resource"), queryInt(c, "limit", 20))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}
