package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campuscore/college-admin-api/internal/models"
	appErrors "github.com/campuscore/college-admin-api/pkg/errors"
)

type facultyRepository interface {
	List(ctx context.Context, filter models.FacultyFilter) ([]models.Faculty, int, error)
	FindByID(ctx context.Context, id int64) (*models.Faculty, error)
	ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error)
	Create(ctx context.Context, faculty *models.Faculty) error
	Update(ctx context.Context, faculty *models.Faculty) error
	SetActive(ctx context.Context, id int64, active bool) error
	Delete(ctx context.Context, id int64) error
}

type hodReleaser interface {
	Release(ctx context.Context, facultyID int64, actorEmail string) (*models.Department, error)
}

type statsInvalidator interface {
	InvalidateStats(ctx context.Context, adminEmail string)
}

// CreateFacultyRequest represents payload for creating faculty members.
type CreateFacultyRequest struct {
	FirstName     string  `json:"first_name" validate:"required,max=100"`
	LastName      string  `json:"last_name" validate:"required,max=100"`
	Email         string  `json:"email" validate:"required,email"`
	Department    *string `json:"department" validate:"omitempty,max=200"`
	Phone         *string `json:"phone" validate:"omitempty,max=50"`
	Gender        *string `json:"gender" validate:"omitempty,oneof=male female other"`
	Qualification *string `json:"qualification" validate:"omitempty,max=500"`
}

// UpdateFacultyRequest represents payload for updating faculty members.
// Email is absent on purpose: it is immutable once set.
type UpdateFacultyRequest struct {
	FirstName     string  `json:"first_name" validate:"required,max=100"`
	LastName      string  `json:"last_name" validate:"required,max=100"`
	Department    *string `json:"department" validate:"omitempty,max=200"`
	Phone         *string `json:"phone" validate:"omitempty,max=50"`
	Gender        *string `json:"gender" validate:"omitempty,oneof=male female other"`
	Qualification *string `json:"qualification" validate:"omitempty,max=500"`
}

// FacultyService orchestrates faculty roster operations. HOD obligations are
// delegated to the coordinator; this service never touches the flag itself.
type FacultyService struct {
	repo        facultyRepository
	coordinator hodReleaser
	stats       statsInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewFacultyService constructs a FacultyService.
func NewFacultyService(repo facultyRepository, coordinator hodReleaser, stats statsInvalidator, validate *validator.Validate, logger *zap.Logger) *FacultyService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FacultyService{repo: repo, coordinator: coordinator, stats: stats, validator: validate, logger: logger}
}

// List returns faculty plus pagination data. An empty result is a valid
// outcome, never an error.
func (s *FacultyService) List(ctx context.Context, filter models.FacultyFilter) ([]models.Faculty, *models.Pagination, error) {
	faculty, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list faculty")
	}
	if faculty == nil {
		faculty = []models.Faculty{}
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return faculty, pagination, nil
}

// Get returns a faculty member by id.
func (s *FacultyService) Get(ctx context.Context, id int64) (*models.Faculty, error) {
	faculty, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "faculty not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty")
	}
	return faculty, nil
}

// Create registers a new faculty member. A member without a department
// assignment starts inactive.
func (s *FacultyService) Create(ctx context.Context, req CreateFacultyRequest, adminEmail string) (*models.Faculty, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid faculty payload")
	}
	exists, err := s.repo.ExistsByEmail(ctx, req.Email, 0)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email uniqueness")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already used")
	}

	faculty := &models.Faculty{
		FirstName:  strings.TrimSpace(req.FirstName),
		LastName:   strings.TrimSpace(req.LastName),
		Email:      strings.TrimSpace(req.Email),
		AdminEmail: adminEmail,
	}
	faculty.Department = normalizeOptional(req.Department)
	faculty.Phone = normalizeOptional(req.Phone)
	faculty.Gender = normalizeOptional(req.Gender)
	faculty.Qualification = normalizeOptional(req.Qualification)
	faculty.IsActive = faculty.HasDepartment()

	if err := s.repo.Create(ctx, faculty); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create faculty")
	}
	s.invalidate(ctx, adminEmail)
	return faculty, nil
}

// Update modifies an existing faculty member. Clearing the department
// assignment deactivates the member.
func (s *FacultyService) Update(ctx context.Context, id int64, req UpdateFacultyRequest) (*models.Faculty, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid faculty payload")
	}

	faculty, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	faculty.FirstName = strings.TrimSpace(req.FirstName)
	faculty.LastName = strings.TrimSpace(req.LastName)
	faculty.Department = normalizeOptional(req.Department)
	faculty.Phone = normalizeOptional(req.Phone)
	faculty.Gender = normalizeOptional(req.Gender)
	faculty.Qualification = normalizeOptional(req.Qualification)
	if !faculty.HasDepartment() {
		faculty.IsActive = false
	}

	if err := s.repo.Update(ctx, faculty); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update faculty")
	}
	s.invalidate(ctx, faculty.AdminEmail)
	return faculty, nil
}

// SetActive toggles the active flag. Activating requires a department
// assignment.
func (s *FacultyService) SetActive(ctx context.Context, id int64, active bool) (*models.Faculty, error) {
	faculty, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if active && !faculty.HasDepartment() {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "cannot activate faculty without a department assignment")
	}
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update faculty status")
	}
	faculty.IsActive = active
	s.invalidate(ctx, faculty.AdminEmail)
	return faculty, nil
}

// ToggleHodFlag rejects the standalone promotion path: the flag is only
// reachable through department chair management.
func (s *FacultyService) ToggleHodFlag(ctx context.Context, id int64) error {
	return appErrors.Clone(appErrors.ErrInvalidOperation, "HOD status is managed through department chair assignment; use the department endpoints")
}

// Delete removes a faculty member after discharging any HOD obligation. The
// returned department, when non-nil, was deactivated as part of the release
// so the caller can warn the user. Release failure leaves the member
// un-deleted.
func (s *FacultyService) Delete(ctx context.Context, id int64, actorEmail string) (*models.Department, error) {
	faculty, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	affected, err := s.coordinator.Release(ctx, id, actorEmail)
	if err != nil {
		if appErrors.HasCode(err, appErrors.ErrDegraded) {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "cannot delete faculty: HOD release failed")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete faculty")
	}
	s.invalidate(ctx, faculty.AdminEmail)
	return affected, nil
}

// Demote clears a faculty member's HOD role through the coordinator and
// returns the department that was deactivated, if any.
func (s *FacultyService) Demote(ctx context.Context, id int64, actorEmail string) (*models.Department, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.coordinator.Release(ctx, id, actorEmail)
}

func (s *FacultyService) invalidate(ctx context.Context, adminEmail string) {
	if s.stats != nil {
		s.stats.InvalidateStats(ctx, adminEmail)
	}
}

func normalizeOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
