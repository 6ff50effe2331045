package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campuscore/college-admin-api/internal/models"
	appErrors "github.com/campuscore/college-admin-api/pkg/errors"
)

type classRepository interface {
	List(ctx context.Context, filter models.ClassFilter) ([]models.Class, int, error)
	FindByID(ctx context.Context, id int64) (*models.Class, error)
	FindByCoordinatorID(ctx context.Context, facultyID, excludeClassID int64) (*models.Class, error)
	Create(ctx context.Context, class *models.Class) error
	Update(ctx context.Context, class *models.Class) error
	SetActive(ctx context.Context, id int64, active bool) error
	Delete(ctx context.Context, id int64) error
	ListAvailableCoordinators(ctx context.Context, adminEmail string) ([]models.Faculty, error)
}

type facultyFinder interface {
	FindByID(ctx context.Context, id int64) (*models.Faculty, error)
}

// CreateClassRequest represents payload for creating classes.
type CreateClassRequest struct {
	Name          string `json:"name" validate:"required,max=200"`
	BatchYear     *int   `json:"batch_year" validate:"omitempty,min=1900,max=2100"`
	CoordinatorID *int64 `json:"coordinator_id" validate:"omitempty,min=1"`
	DepartmentID  *int64 `json:"department_id" validate:"omitempty,min=1"`
	IsActive      bool   `json:"is_active"`
}

// UpdateClassRequest represents payload for updating classes.
type UpdateClassRequest struct {
	Name          string `json:"name" validate:"required,max=200"`
	BatchYear     *int   `json:"batch_year" validate:"omitempty,min=1900,max=2100"`
	CoordinatorID *int64 `json:"coordinator_id" validate:"omitempty,min=1"`
	DepartmentID  *int64 `json:"department_id" validate:"omitempty,min=1"`
	IsActive      bool   `json:"is_active"`
}

// ClassService manages student classes and their coordinators. A faculty
// member may coordinate at most one class at a time.
type ClassService struct {
	repo        classRepository
	faculty     facultyFinder
	departments departmentFinder
	stats       statsInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewClassService constructs a ClassService.
func NewClassService(repo classRepository, faculty facultyFinder, departments departmentFinder, stats statsInvalidator, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{repo: repo, faculty: faculty, departments: departments, stats: stats, validator: validate, logger: logger}
}

// List returns classes plus pagination data.
func (s *ClassService) List(ctx context.Context, filter models.ClassFilter) ([]models.Class, *models.Pagination, error) {
	classes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	if classes == nil {
		classes = []models.Class{}
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return classes, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a class by id.
func (s *ClassService) Get(ctx context.Context, id int64) (*models.Class, error) {
	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return class, nil
}

// Create registers a class. The coordinator, when given, must be an existing
// faculty member who is not already coordinating another class.
func (s *ClassService) Create(ctx context.Context, req CreateClassRequest, adminEmail string) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	if err := s.checkDepartment(ctx, req.DepartmentID); err != nil {
		return nil, err
	}
	if err := s.checkCoordinator(ctx, req.CoordinatorID, 0); err != nil {
		return nil, err
	}

	class := &models.Class{
		Name:          strings.TrimSpace(req.Name),
		BatchYear:     req.BatchYear,
		CoordinatorID: req.CoordinatorID,
		DepartmentID:  req.DepartmentID,
		IsActive:      req.IsActive,
		AdminEmail:    adminEmail,
	}
	if err := s.repo.Create(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}
	s.invalidate(ctx, adminEmail)
	return class, nil
}

// Update modifies an existing class, re-checking coordinator uniqueness when
// the coordinator changes.
func (s *ClassService) Update(ctx context.Context, id int64, req UpdateClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}

	class, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkDepartment(ctx, req.DepartmentID); err != nil {
		return nil, err
	}
	if err := s.checkCoordinator(ctx, req.CoordinatorID, id); err != nil {
		return nil, err
	}

	class.Name = strings.TrimSpace(req.Name)
	class.BatchYear = req.BatchYear
	class.CoordinatorID = req.CoordinatorID
	class.DepartmentID = req.DepartmentID
	class.IsActive = req.IsActive

	if err := s.repo.Update(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class")
	}
	s.invalidate(ctx, class.AdminEmail)
	return class, nil
}

// SetActive toggles the active flag.
func (s *ClassService) SetActive(ctx context.Context, id int64, active bool) (*models.Class, error) {
	class, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class status")
	}
	class.IsActive = active
	s.invalidate(ctx, class.AdminEmail)
	return class, nil
}

// Delete removes a class.
func (s *ClassService) Delete(ctx context.Context, id int64) error {
	class, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class")
	}
	s.invalidate(ctx, class.AdminEmail)
	return nil
}

// AvailableCoordinators lists active faculty not yet coordinating a class.
func (s *ClassService) AvailableCoordinators(ctx context.Context, adminEmail string) ([]models.Faculty, error) {
	faculty, err := s.repo.ListAvailableCoordinators(ctx, adminEmail)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list available coordinators")
	}
	if faculty == nil {
		faculty = []models.Faculty{}
	}
	return faculty, nil
}

func (s *ClassService) checkCoordinator(ctx context.Context, coordinatorID *int64, excludeClassID int64) error {
	if coordinatorID == nil {
		return nil
	}
	member, err := s.faculty.FindByID(ctx, *coordinatorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "coordinator does not exist")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify coordinator")
	}
	if !member.IsActive {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "coordinator must be an active faculty member")
	}
	existing, err := s.repo.FindByCoordinatorID(ctx, *coordinatorID, excludeClassID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify coordinator availability")
	}
	if existing != nil {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("%s is already a class coordinator for %s", member.FullName(), existing.Name))
	}
	return nil
}

func (s *ClassService) checkDepartment(ctx context.Context, departmentID *int64) error {
	if departmentID == nil || s.departments == nil {
		return nil
	}
	if _, err := s.departments.FindByID(ctx, *departmentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "department does not exist")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify department")
	}
	return nil
}

func (s *ClassService) invalidate(ctx context.Context, adminEmail string) {
	if s.stats != nil {
		s.stats.InvalidateStats(ctx, adminEmail)
	}
}
