package service

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campuscore/college-admin-api/internal/models"
	appErrors "github.com/campuscore/college-admin-api/pkg/errors"
)

type departmentRepository interface {
	List(ctx context.Context, filter models.DepartmentFilter) ([]models.Department, int, error)
	FindByID(ctx context.Context, id int64) (*models.Department, error)
	Create(ctx context.Context, department *models.Department) error
	Update(ctx context.Context, department *models.Department) error
	SetActive(ctx context.Context, id int64, active bool) error
	Delete(ctx context.Context, id int64) error
}

type hodCoordinator interface {
	Assign(ctx context.Context, departmentID, facultyID int64, actorEmail string) (*models.Department, error)
	Reassign(ctx context.Context, departmentID, oldFacultyID, newFacultyID int64, actorEmail string) (*models.Department, error)
	Release(ctx context.Context, facultyID int64, actorEmail string) (*models.Department, error)
}

type departmentAuditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// CreateDepartmentRequest represents payload for creating departments.
type CreateDepartmentRequest struct {
	Name          string `json:"name" validate:"required,max=200"`
	EstablishYear *int   `json:"establish_year" validate:"omitempty,min=1800,max=2100"`
	HodID         *int64 `json:"hod_id" validate:"omitempty,min=1"`
	IsActive      bool   `json:"is_active"`
}

// UpdateDepartmentRequest represents payload for updating departments. HodID
// carries the desired chair; changes route through the coordinator.
type UpdateDepartmentRequest struct {
	Name          string `json:"name" validate:"required,max=200"`
	EstablishYear *int   `json:"establish_year" validate:"omitempty,min=1800,max=2100"`
	HodID         *int64 `json:"hod_id" validate:"omitempty,min=1"`
}

// DepartmentService orchestrates department operations, delegating every HOD
// transition to the coordinator.
type DepartmentService struct {
	repo        departmentRepository
	coordinator hodCoordinator
	audit       departmentAuditLogger
	stats       statsInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewDepartmentService constructs a DepartmentService.
func NewDepartmentService(repo departmentRepository, coordinator hodCoordinator, audit departmentAuditLogger, stats statsInvalidator, validate *validator.Validate, logger *zap.Logger) *DepartmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DepartmentService{repo: repo, coordinator: coordinator, audit: audit, stats: stats, validator: validate, logger: logger}
}

// List returns departments plus pagination data.
func (s *DepartmentService) List(ctx context.Context, filter models.DepartmentFilter) ([]models.Department, *models.Pagination, error) {
	departments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list departments")
	}
	if departments == nil {
		departments = []models.Department{}
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return departments, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a department by id.
func (s *DepartmentService) Get(ctx context.Context, id int64) (*models.Department, error) {
	department, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department")
	}
	return department, nil
}

// Create registers a department. A department may only be active when it has
// an HOD, so an active request without a chair is rejected up front; with a
// chair, the row is created inactive and the coordinator promotes the chair,
// which also activates the department. A failed promotion rolls the row back.
func (s *DepartmentService) Create(ctx context.Context, req CreateDepartmentRequest, adminEmail string) (*models.Department, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid department payload")
	}
	if req.IsActive && req.HodID == nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "an active department requires an HOD")
	}

	department := &models.Department{
		Name:          strings.TrimSpace(req.Name),
		EstablishYear: req.EstablishYear,
		IsActive:      false,
		AdminEmail:    adminEmail,
	}
	if err := s.repo.Create(ctx, department); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create department")
	}

	if req.HodID != nil {
		promoted, err := s.coordinator.Assign(ctx, department.ID, *req.HodID, adminEmail)
		if err != nil {
			if delErr := s.repo.Delete(ctx, department.ID); delErr != nil {
				s.logger.Error("failed to roll back department after HOD assignment failure",
					zap.Int64("department_id", department.ID), zap.Error(delErr))
				return nil, appErrors.Clone(appErrors.ErrDegraded, "department created but HOD assignment failed and rollback did not complete")
			}
			return nil, err
		}
		department = promoted
	}

	s.invalidate(ctx, adminEmail)
	return department, nil
}

// Update modifies a department. Name and establish year are written directly;
// a changed hod_id is routed through the coordinator as an assign, reassign or
// release depending on the current chair.
func (s *DepartmentService) Update(ctx context.Context, id int64, req UpdateDepartmentRequest, actorEmail string) (*models.Department, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid department payload")
	}

	department, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	department.Name = strings.TrimSpace(req.Name)
	department.EstablishYear = req.EstablishYear
	if err := s.repo.Update(ctx, department); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update department")
	}

	switch {
	case req.HodID == nil && department.HodID != nil:
		if _, err := s.coordinator.Release(ctx, *department.HodID, actorEmail); err != nil {
			return nil, err
		}
	case req.HodID != nil && department.HodID == nil:
		if _, err := s.coordinator.Assign(ctx, id, *req.HodID, actorEmail); err != nil {
			return nil, err
		}
	case req.HodID != nil && department.HodID != nil && *req.HodID != *department.HodID:
		if _, err := s.coordinator.Reassign(ctx, id, *department.HodID, *req.HodID, actorEmail); err != nil {
			return nil, err
		}
	}

	updated, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, updated.AdminEmail)
	return updated, nil
}

// SetActive toggles the active flag. Activating requires a sitting HOD.
func (s *DepartmentService) SetActive(ctx context.Context, id int64, active bool) (*models.Department, error) {
	department, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if active && !department.HasHod() {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "cannot activate a department without an HOD")
	}
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update department status")
	}
	department.IsActive = active
	s.invalidate(ctx, department.AdminEmail)
	return department, nil
}

// AssignHod promotes a faculty member to chair of the department.
func (s *DepartmentService) AssignHod(ctx context.Context, id, facultyID int64, actorEmail string) (*models.Department, error) {
	return s.coordinator.Assign(ctx, id, facultyID, actorEmail)
}

// ReassignHod swaps the sitting chair for a new one.
func (s *DepartmentService) ReassignHod(ctx context.Context, id, oldFacultyID, newFacultyID int64, actorEmail string) (*models.Department, error) {
	return s.coordinator.Reassign(ctx, id, oldFacultyID, newFacultyID, actorEmail)
}

// ReleaseHod clears the department's chair, deactivating the department.
func (s *DepartmentService) ReleaseHod(ctx context.Context, id int64, actorEmail string) (*models.Department, error) {
	department, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !department.HasHod() {
		return department, nil
	}
	if _, err := s.coordinator.Release(ctx, *department.HodID, actorEmail); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete removes a department. A sitting HOD is released first; if the
// release fails the deletion proceeds anyway and the failure is logged, since
// the row removal itself clears the hod_id reference.
func (s *DepartmentService) Delete(ctx context.Context, id int64, actorEmail string) error {
	department, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if department.HasHod() {
		if _, err := s.coordinator.Release(ctx, *department.HodID, actorEmail); err != nil {
			s.logger.Warn("HOD release failed during department delete, continuing",
				zap.Int64("department_id", id), zap.Int64p("hod_id", department.HodID), zap.Error(err))
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete department")
	}
	s.emitAudit(ctx, actorEmail, models.AuditActionDepartmentDrop, department)
	s.invalidate(ctx, department.AdminEmail)
	return nil
}

func (s *DepartmentService) emitAudit(ctx context.Context, actorEmail, action string, department *models.Department) {
	if s.audit == nil {
		return
	}
	resourceID := strconv.FormatInt(department.ID, 10)
	entry := &models.AuditLog{
		Action:     action,
		Resource:   "department",
		ResourceID: &resourceID,
		ActorEmail: &actorEmail,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to write audit log", zap.String("action", action), zap.Error(err))
	}
}

func (s *DepartmentService) invalidate(ctx context.Context, adminEmail string) {
	if s.stats != nil {
		s.stats.InvalidateStats(ctx, adminEmail)
	}
}
