package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuscore/college-admin-api/internal/service"
	appErrors "github.com/campuscore/college-admin-api/pkg/errors"
	"github.com/campuscore/college-admin-api/pkg/response"
)

type exportService interface {
	FacultyRoster(ctx context.Context, adminEmail string, format service.ExportFormat) (*service.ExportResult, error)
	DepartmentRoster(ctx context.Context, adminEmail string, format service.ExportFormat) (*service.ExportResult, error)
}

type exportJobService interface {
	Enqueue(adminEmail string, resource service.ExportResource, format service.ExportFormat) (*service.ExportJob, error)
	Job(id, adminEmail string) (*service.ExportJob, error)
	Download(token string) (*service.ExportDownload, error)
}

// ExportHandler exposes roster export endpoints.
type ExportHandler struct {
	service exportService
	jobs    exportJobService
}

// NewExportHandler builds a new handler. The jobs service may be nil when the
// async export path is disabled.
func NewExportHandler(service exportService, jobs exportJobService) *ExportHandler {
	return &ExportHandler{service: service, jobs: jobs}
}

// Faculty godoc
// @Summary Export the faculty roster
// @Tags Exports
// @Produce text/csv,application/pdf
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /exports/faculty [get]
func (h *ExportHandler) Faculty(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))
	result, err := h.service.FacultyRoster(c.Request.Context(), actorEmail(c), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	serveExport(c, result)
}

// Departments godoc
// @Summary Export the department roster
// @Tags Exports
// @Produce text/csv,application/pdf
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /exports/departments [get]
func (h *ExportHandler) Departments(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))
	result, err := h.service.DepartmentRoster(c.Request.Context(), actorEmail(c), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	serveExport(c, result)
}

type createExportJobRequest struct {
	Resource string `json:"resource" binding:"required"`
	Format   string `json:"format"`
}

// CreateJob godoc
// @Summary Queue a roster export for background rendering
// @Tags Exports
// @Accept json
// @Produce json
// @Param payload body createExportJobRequest true "Export job"
// @Success 202 {object} service.ExportJob
// @Router /exports/jobs [post]
func (h *ExportHandler) CreateJob(c *gin.Context) {
	var req createExportJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export job payload"))
		return
	}
	if req.Format == "" {
		req.Format = "csv"
	}
	job, err := h.jobs.Enqueue(actorEmail(c), service.ExportResource(req.Resource), service.ExportFormat(req.Format))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, job, nil)
}

// Job godoc
// @Summary Fetch the status of a queued export
// @Tags Exports
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} service.ExportJob
// @Router /exports/jobs/{id} [get]
func (h *ExportHandler) Job(c *gin.Context) {
	job, err := h.jobs.Job(c.Param("id"), actorEmail(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

// Download godoc
// @Summary Download a rendered export using a signed token
// @Tags Exports
// @Produce text/csv,application/pdf
// @Param token query string true "Signed download token"
// @Success 200 {file} file
// @Router /exports/download [get]
func (h *ExportHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token query parameter is required"))
		return
	}
	download, err := h.jobs.Download(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.Reader.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", download.FileName))
	c.Header("Content-Type", download.ContentType)
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, download.Reader)
}

func serveExport(c *gin.Context, result *service.ExportResult) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.FileName))
	c.Data(http.StatusOK, result.ContentType, result.Data)
}
