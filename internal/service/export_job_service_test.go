package service

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campuscore/college-admin-api/internal/models"
	appErrors "github.com/campuscore/college-admin-api/pkg/errors"
	"github.com/campuscore/college-admin-api/pkg/export"
	"github.com/campuscore/college-admin-api/pkg/storage"
)

func newExportJobFixture(t *testing.T) *ExportJobService {
	t.Helper()
	faculty := exportFacultyListerStub{members: []models.Faculty{
		{ID: 1, FirstName: "Asha", LastName: "Rao", Email: "asha@college.edu", IsActive: true},
	}}
	departments := exportDepartmentListerStub{}
	renderer := NewExportService(faculty, departments, export.NewCSVExporter(), export.NewPDFExporter(), zap.NewNop())

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewTicketSigner("job-test-secret", time.Hour)

	svc := NewExportJobService(renderer, store, signer, 1, time.Hour, zap.NewNop())
	svc.Start(context.Background())
	t.Cleanup(svc.Stop)
	return svc
}

func waitForJob(t *testing.T, svc *ExportJobService, id string) *ExportJob {
	t.Helper()
	var job *ExportJob
	require.Eventually(t, func() bool {
		var err error
		job, err = svc.Job(id, "admin@college.edu")
		return err == nil && job.Status != JobPending
	}, 5*time.Second, 10*time.Millisecond)
	return job
}

func TestExportJobServiceRendersAndSignsDownload(t *testing.T) {
	svc := newExportJobFixture(t)

	job, err := svc.Enqueue("admin@college.edu", ResourceFaculty, FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, JobPending, job.Status)

	done := waitForJob(t, svc, job.ID)
	require.Equal(t, JobCompleted, done.Status)
	assert.Equal(t, "faculty_roster.csv", done.FileName)
	require.NotEmpty(t, done.DownloadToken)
	require.NotNil(t, done.ExpiresAt)

	download, err := svc.Download(done.DownloadToken)
	require.NoError(t, err)
	defer download.Reader.Close()
	assert.Equal(t, "faculty_roster.csv", download.FileName)
	assert.Equal(t, "text/csv", download.ContentType)

	body, err := io.ReadAll(download.Reader)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Asha Rao")
}

func TestExportJobServiceRejectsUnknownResource(t *testing.T) {
	svc := newExportJobFixture(t)

	_, err := svc.Enqueue("admin@college.edu", ExportResource("students"), FormatCSV)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportJobServiceRejectsUnknownFormat(t *testing.T) {
	svc := newExportJobFixture(t)

	_, err := svc.Enqueue("admin@college.edu", ResourceFaculty, ExportFormat("xlsx"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportJobServiceJobOwnership(t *testing.T) {
	svc := newExportJobFixture(t)

	job, err := svc.Enqueue("admin@college.edu", ResourceDepartments, FormatCSV)
	require.NoError(t, err)

	_, err = svc.Job(job.ID, "other@college.edu")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestExportJobServiceJobNotFound(t *testing.T) {
	svc := newExportJobFixture(t)

	_, err := svc.Job("missing-id", "admin@college.edu")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestExportJobServiceDownloadRejectsTamperedToken(t *testing.T) {
	svc := newExportJobFixture(t)

	_, err := svc.Download("abc123~badsignature")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
