package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/campuscore/college-admin-api/internal/models"
	appErrors "github.com/campuscore/college-admin-api/pkg/errors"
	"github.com/campuscore/college-admin-api/pkg/export"
)

type rosterExporter interface {
	Render(roster export.Roster) ([]byte, error)
}

type exportFacultyLister interface {
	List(ctx context.Context, filter models.FacultyFilter) ([]models.Faculty, int, error)
}

type exportDepartmentLister interface {
	List(ctx context.Context, filter models.DepartmentFilter) ([]models.Department, int, error)
}

// ExportFormat selects the output encoding of a roster export.
type ExportFormat string

const (
	FormatCSV ExportFormat = "csv"
	FormatPDF ExportFormat = "pdf"
)

// ExportResult bundles rendered bytes with HTTP metadata.
type ExportResult struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ExportService renders faculty and department rosters as CSV or PDF files.
type ExportService struct {
	faculty     exportFacultyLister
	departments exportDepartmentLister
	csv         rosterExporter
	pdf         rosterExporter
	logger      *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(faculty exportFacultyLister, departments exportDepartmentLister, csv, pdf rosterExporter, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{faculty: faculty, departments: departments, csv: csv, pdf: pdf, logger: logger}
}

// FacultyRoster exports the full faculty roster of the admin.
func (s *ExportService) FacultyRoster(ctx context.Context, adminEmail string, format ExportFormat) (*ExportResult, error) {
	members, _, err := s.faculty.List(ctx, models.FacultyFilter{AdminEmail: adminEmail, Page: 1, PageSize: 100})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty roster")
	}

	roster := export.Roster{
		Title:   "Faculty Roster",
		Headers: []string{"Name", "Email", "Department", "Status", "HOD"},
	}
	for _, m := range members {
		department := ""
		if m.Department != nil {
			department = *m.Department
		}
		roster.Rows = append(roster.Rows, []string{
			m.FullName(), m.Email, department, statusLabel(m.IsActive), yesNo(m.IsHOD),
		})
	}
	return s.render(roster, "faculty_roster", format)
}

// DepartmentRoster exports the department roster of the admin.
func (s *ExportService) DepartmentRoster(ctx context.Context, adminEmail string, format ExportFormat) (*ExportResult, error) {
	departments, _, err := s.departments.List(ctx, models.DepartmentFilter{AdminEmail: adminEmail, Page: 1, PageSize: 100})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department roster")
	}

	roster := export.Roster{
		Title:   "Department Roster",
		Headers: []string{"Name", "Established", "HOD ID", "Status"},
	}
	for _, d := range departments {
		established := ""
		if d.EstablishYear != nil {
			established = strconv.Itoa(*d.EstablishYear)
		}
		hod := ""
		if d.HodID != nil {
			hod = strconv.FormatInt(*d.HodID, 10)
		}
		roster.Rows = append(roster.Rows, []string{d.Name, established, hod, statusLabel(d.IsActive)})
	}
	return s.render(roster, "department_roster", format)
}

func (s *ExportService) render(roster export.Roster, baseName string, format ExportFormat) (*ExportResult, error) {
	switch ExportFormat(strings.ToLower(string(format))) {
	case FormatCSV:
		data, err := s.csv.Render(roster)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportResult{FileName: baseName + ".csv", ContentType: "text/csv", Data: data}, nil
	case FormatPDF:
		data, err := s.pdf.Render(roster)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportResult{FileName: baseName + ".pdf", ContentType: "application/pdf", Data: data}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func statusLabel(active bool) string {
	if active {
		return "Active"
	}
	return "Inactive"
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
