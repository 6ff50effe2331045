package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/campuscore/college-admin-api/pkg/errors"
	"github.com/campuscore/college-admin-api/pkg/jobs"
	"github.com/campuscore/college-admin-api/pkg/storage"
)

type rosterRenderer interface {
	FacultyRoster(ctx context.Context, adminEmail string, format ExportFormat) (*ExportResult, error)
	DepartmentRoster(ctx context.Context, adminEmail string, format ExportFormat) (*ExportResult, error)
}

type exportStore interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type downloadSigner interface {
	Issue(jobID, path string) (string, time.Time, error)
	Redeem(token string) (storage.DownloadTicket, error)
}

// ExportJobStatus tracks the lifecycle of a queued export.
type ExportJobStatus string

const (
	JobPending   ExportJobStatus = "pending"
	JobCompleted ExportJobStatus = "completed"
	JobFailed    ExportJobStatus = "failed"
)

// ExportResource names the roster a job renders.
type ExportResource string

const (
	ResourceFaculty     ExportResource = "faculty"
	ResourceDepartments ExportResource = "departments"
)

// ExportJob is the client-visible record of a queued roster export.
type ExportJob struct {
	ID            string          `json:"id"`
	Resource      ExportResource  `json:"resource"`
	Format        ExportFormat    `json:"format"`
	Status        ExportJobStatus `json:"status"`
	FileName      string          `json:"file_name,omitempty"`
	DownloadToken string          `json:"download_token,omitempty"`
	ExpiresAt     *time.Time      `json:"expires_at,omitempty"`
	Error         string          `json:"error,omitempty"`
	RequestedBy   string          `json:"requested_by"`
	CreatedAt     time.Time       `json:"created_at"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
}

type exportJobPayload struct {
	JobID      string
	Resource   ExportResource
	Format     ExportFormat
	AdminEmail string
}

// ExportDownload is an open handle to a rendered export file.
type ExportDownload struct {
	FileName    string
	ContentType string
	Reader      io.ReadCloser
}

// ExportJobService queues roster exports, renders them in the background and
// hands out signed download tokens for the resulting files.
type ExportJobService struct {
	renderer rosterRenderer
	store    exportStore
	signer   downloadSigner
	logger   *zap.Logger

	pool    *jobs.Pool[exportJobPayload]
	linkTTL time.Duration

	mu       sync.RWMutex
	jobsByID map[string]*ExportJob

	janitorStop chan struct{}
	janitorOnce sync.Once
}

// NewExportJobService constructs the service and its backing worker pool.
func NewExportJobService(renderer rosterRenderer, store exportStore, signer downloadSigner, workers int, linkTTL time.Duration, logger *zap.Logger) *ExportJobService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if linkTTL <= 0 {
		linkTTL = 24 * time.Hour
	}
	s := &ExportJobService{
		renderer:    renderer,
		store:       store,
		signer:      signer,
		logger:      logger,
		linkTTL:     linkTTL,
		jobsByID:    make(map[string]*ExportJob),
		janitorStop: make(chan struct{}),
	}
	s.pool = jobs.NewPool("roster-exports", s.process, jobs.Options{
		Workers:  workers,
		Attempts: 3,
		Backoff:  5 * time.Second,
		Logger:   logger,
	})
	return s
}

// Start launches the worker pool and the file janitor.
func (s *ExportJobService) Start(ctx context.Context) {
	s.pool.Start(ctx)
	go s.janitor()
}

// Stop drains the workers and halts the janitor.
func (s *ExportJobService) Stop() {
	s.pool.Shutdown()
	s.janitorOnce.Do(func() { close(s.janitorStop) })
}

// Enqueue registers a new export job and pushes it onto the queue.
func (s *ExportJobService) Enqueue(adminEmail string, resource ExportResource, format ExportFormat) (*ExportJob, error) {
	switch resource {
	case ResourceFaculty, ResourceDepartments:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown export resource %q", resource))
	}
	switch ExportFormat(strings.ToLower(string(format))) {
	case FormatCSV, FormatPDF:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	job := &ExportJob{
		ID:          uuid.NewString(),
		Resource:    resource,
		Format:      ExportFormat(strings.ToLower(string(format))),
		Status:      JobPending,
		RequestedBy: adminEmail,
		CreatedAt:   time.Now().UTC(),
	}

	s.mu.Lock()
	s.jobsByID[job.ID] = job
	s.mu.Unlock()

	err := s.pool.Submit(jobs.Task[exportJobPayload]{
		ID:   job.ID,
		Kind: string(resource),
		Payload: exportJobPayload{
			JobID:      job.ID,
			Resource:   resource,
			Format:     job.Format,
			AdminEmail: adminEmail,
		},
	})
	if err != nil {
		s.mu.Lock()
		delete(s.jobsByID, job.ID)
		s.mu.Unlock()
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "export queue is not accepting jobs")
	}
	return s.snapshot(job.ID), nil
}

// Job returns the current state of a queued export.
func (s *ExportJobService) Job(id, adminEmail string) (*ExportJob, error) {
	job := s.snapshot(id)
	if job == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	if job.RequestedBy != adminEmail {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "export job belongs to another account")
	}
	return job, nil
}

// Download redeems a signed ticket and opens the rendered file.
func (s *ExportJobService) Download(token string) (*ExportDownload, error) {
	ticket, err := s.signer.Redeem(token)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid or expired download token")
	}

	job := s.snapshot(ticket.JobID)
	if job == nil || job.Status != JobCompleted {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export is no longer available")
	}

	file, err := s.store.Open(ticket.Path)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export file is no longer available")
	}
	return &ExportDownload{
		FileName:    filepath.Base(ticket.Path),
		ContentType: contentTypeFor(ticket.Path),
		Reader:      file,
	}, nil
}

func (s *ExportJobService) process(ctx context.Context, task jobs.Task[exportJobPayload]) error {
	payload := task.Payload

	result, err := s.render(ctx, payload)
	if err != nil {
		s.markFailed(payload.JobID, err)
		return err
	}

	relPath := filepath.Join(payload.JobID, result.FileName)
	if _, err := s.store.Save(relPath, result.Data); err != nil {
		s.markFailed(payload.JobID, err)
		return err
	}

	token, expiresAt, err := s.signer.Issue(payload.JobID, relPath)
	if err != nil {
		s.markFailed(payload.JobID, err)
		return err
	}

	s.mu.Lock()
	if j, ok := s.jobsByID[payload.JobID]; ok {
		now := time.Now().UTC()
		j.Status = JobCompleted
		j.FileName = result.FileName
		j.DownloadToken = token
		j.ExpiresAt = &expiresAt
		j.CompletedAt = &now
		j.Error = ""
	}
	s.mu.Unlock()

	s.logger.Info("export job completed",
		zap.String("job_id", payload.JobID),
		zap.String("resource", string(payload.Resource)),
		zap.String("file", result.FileName))
	return nil
}

func (s *ExportJobService) render(ctx context.Context, payload exportJobPayload) (*ExportResult, error) {
	switch payload.Resource {
	case ResourceFaculty:
		return s.renderer.FacultyRoster(ctx, payload.AdminEmail, payload.Format)
	case ResourceDepartments:
		return s.renderer.DepartmentRoster(ctx, payload.AdminEmail, payload.Format)
	default:
		return nil, fmt.Errorf("unknown export resource %q", payload.Resource)
	}
}

func (s *ExportJobService) markFailed(jobID string, cause error) {
	s.mu.Lock()
	if j, ok := s.jobsByID[jobID]; ok {
		j.Status = JobFailed
		j.Error = cause.Error()
	}
	s.mu.Unlock()
}

func (s *ExportJobService) snapshot(id string) *ExportJob {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobsByID[id]
	if !ok {
		return nil
	}
	copied := *job
	return &copied
}

// janitor prunes expired export files and their job records.
func (s *ExportJobService) janitor() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-s.janitorStop:
			return
		case <-ticker.C:
			deleted, err := s.store.CleanupOlderThan(s.linkTTL)
			if err != nil {
				s.logger.Warn("export cleanup failed", zap.Error(err))
				continue
			}
			if len(deleted) == 0 {
				continue
			}
			s.mu.Lock()
			for _, rel := range deleted {
				delete(s.jobsByID, filepath.Dir(rel))
			}
			s.mu.Unlock()
			s.logger.Info("expired exports removed", zap.Int("count", len(deleted)))
		}
	}
}

func contentTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return "text/csv"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
