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

type subjectRepository interface {
	List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error)
	FindByID(ctx context.Context, id int64) (*models.Subject, error)
	Create(ctx context.Context, subject *models.Subject) error
	Update(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id int64) error
	BulkAssignDepartment(ctx context.Context, ids []int64, departmentID *int64) (int64, error)
}

type departmentFinder interface {
	FindByID(ctx context.Context, id int64) (*models.Department, error)
}

// CreateSubjectRequest represents payload for creating subjects.
type CreateSubjectRequest struct {
	Name         string  `json:"name" validate:"required,max=200"`
	Code         *string `json:"code" validate:"omitempty,max=50"`
	DepartmentID *int64  `json:"department_id" validate:"omitempty,min=1"`
}

// UpdateSubjectRequest represents payload for updating subjects.
type UpdateSubjectRequest struct {
	Name         string  `json:"name" validate:"required,max=200"`
	Code         *string `json:"code" validate:"omitempty,max=50"`
	DepartmentID *int64  `json:"department_id" validate:"omitempty,min=1"`
}

// BulkAssignSubjectsRequest moves a batch of subjects to a department.
type BulkAssignSubjectsRequest struct {
	SubjectIDs   []int64 `json:"subject_ids" validate:"required,min=1,dive,min=1"`
	DepartmentID *int64  `json:"department_id" validate:"omitempty,min=1"`
}

// SubjectService manages the subject catalogue.
type SubjectService struct {
	repo        subjectRepository
	departments departmentFinder
	stats       statsInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewSubjectService constructs a SubjectService.
func NewSubjectService(repo subjectRepository, departments departmentFinder, stats statsInvalidator, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{repo: repo, departments: departments, stats: stats, validator: validate, logger: logger}
}

// List returns subjects plus pagination data.
func (s *SubjectService) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, *models.Pagination, error) {
	subjects, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	if subjects == nil {
		subjects = []models.Subject{}
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return subjects, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a subject by id.
func (s *SubjectService) Get(ctx context.Context, id int64) (*models.Subject, error) {
	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	return subject, nil
}

// Create registers a subject. The department reference, when given, must
// point at an existing department at the time of the write.
func (s *SubjectService) Create(ctx context.Context, req CreateSubjectRequest, adminEmail string) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	if err := s.checkDepartment(ctx, req.DepartmentID); err != nil {
		return nil, err
	}

	subject := &models.Subject{
		Name:         strings.TrimSpace(req.Name),
		Code:         normalizeOptional(req.Code),
		DepartmentID: req.DepartmentID,
		AdminEmail:   adminEmail,
	}
	if err := s.repo.Create(ctx, subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subject")
	}
	s.invalidate(ctx, adminEmail)
	return subject, nil
}

// Update modifies an existing subject.
func (s *SubjectService) Update(ctx context.Context, id int64, req UpdateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}

	subject, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkDepartment(ctx, req.DepartmentID); err != nil {
		return nil, err
	}

	subject.Name = strings.TrimSpace(req.Name)
	subject.Code = normalizeOptional(req.Code)
	subject.DepartmentID = req.DepartmentID

	if err := s.repo.Update(ctx, subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update subject")
	}
	s.invalidate(ctx, subject.AdminEmail)
	return subject, nil
}

// BulkAssign repoints a batch of subjects at a department. A nil department
// detaches them.
func (s *SubjectService) BulkAssign(ctx context.Context, req BulkAssignSubjectsRequest, adminEmail string) (int64, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk assignment payload")
	}
	if err := s.checkDepartment(ctx, req.DepartmentID); err != nil {
		return 0, err
	}

	affected, err := s.repo.BulkAssignDepartment(ctx, req.SubjectIDs, req.DepartmentID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reassign subjects")
	}
	s.invalidate(ctx, adminEmail)
	return affected, nil
}

// Delete removes a subject.
func (s *SubjectService) Delete(ctx context.Context, id int64) error {
	subject, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete subject")
	}
	s.invalidate(ctx, subject.AdminEmail)
	return nil
}

func (s *SubjectService) checkDepartment(ctx context.Context, departmentID *int64) error {
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

func (s *SubjectService) invalidate(ctx context.Context, adminEmail string) {
	if s.stats != nil {
		s.stats.InvalidateStats(ctx, adminEmail)
	}
}
