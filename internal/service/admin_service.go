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
	"golang.org/x/crypto/bcrypt"

	"github.com/campuscore/college-admin-api/internal/models"
	appErrors "github.com/campuscore/college-admin-api/pkg/errors"
)

type adminRepository interface {
	List(ctx context.Context, filter models.AdminFilter) ([]models.Admin, int, error)
	FindByID(ctx context.Context, id int64) (*models.Admin, error)
	ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error)
	Create(ctx context.Context, admin *models.Admin) error
	Update(ctx context.Context, admin *models.Admin) error
	SetActive(ctx context.Context, id int64, active bool) error
	Unlock(ctx context.Context, id int64) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	Delete(ctx context.Context, id int64) error
}

type adminAuditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// CreateAdminRequest represents payload for creating admin accounts.
type CreateAdminRequest struct {
	Email          string  `json:"email" validate:"required,email"`
	Password       string  `json:"password" validate:"required,min=8,max=72"`
	FirstName      string  `json:"first_name" validate:"required,max=100"`
	MiddleName     *string `json:"middle_name" validate:"omitempty,max=100"`
	LastName       string  `json:"last_name" validate:"required,max=100"`
	Phone          *string `json:"phone" validate:"omitempty,max=50"`
	Gender         *string `json:"gender" validate:"omitempty,oneof=male female other"`
	CollegeName    *string `json:"college_name" validate:"omitempty,max=300"`
	CollegeAddress *string `json:"college_address" validate:"omitempty,max=500"`
	Role           string  `json:"role" validate:"required,oneof=ADMIN SUPERADMIN"`
}

// UpdateAdminRequest represents payload for updating admin accounts. Email and
// password change through their dedicated operations.
type UpdateAdminRequest struct {
	FirstName      string  `json:"first_name" validate:"required,max=100"`
	MiddleName     *string `json:"middle_name" validate:"omitempty,max=100"`
	LastName       string  `json:"last_name" validate:"required,max=100"`
	Phone          *string `json:"phone" validate:"omitempty,max=50"`
	Gender         *string `json:"gender" validate:"omitempty,oneof=male female other"`
	CollegeName    *string `json:"college_name" validate:"omitempty,max=300"`
	CollegeAddress *string `json:"college_address" validate:"omitempty,max=500"`
	Role           string  `json:"role" validate:"required,oneof=ADMIN SUPERADMIN"`
}

// ResetPasswordRequest sets a new password for an admin account.
type ResetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// AdminService manages administrator accounts.
type AdminService struct {
	repo      adminRepository
	audit     adminAuditLogger
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAdminService constructs an AdminService.
func NewAdminService(repo adminRepository, audit adminAuditLogger, validate *validator.Validate, logger *zap.Logger) *AdminService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// List returns admin accounts plus pagination data.
func (s *AdminService) List(ctx context.Context, filter models.AdminFilter) ([]models.Admin, *models.Pagination, error) {
	admins, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list admins")
	}
	if admins == nil {
		admins = []models.Admin{}
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return admins, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns an admin account by id.
func (s *AdminService) Get(ctx context.Context, id int64) (*models.Admin, error) {
	admin, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "admin not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load admin")
	}
	return admin, nil
}

// Create registers an admin account with a bcrypt-hashed password.
func (s *AdminService) Create(ctx context.Context, req CreateAdminRequest, actorEmail string) (*models.Admin, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid admin payload")
	}
	exists, err := s.repo.ExistsByEmail(ctx, req.Email, 0)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email uniqueness")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already used")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	admin := &models.Admin{
		Email:          strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash:   string(hash),
		FirstName:      strings.TrimSpace(req.FirstName),
		MiddleName:     normalizeOptional(req.MiddleName),
		LastName:       strings.TrimSpace(req.LastName),
		Phone:          normalizeOptional(req.Phone),
		Gender:         normalizeOptional(req.Gender),
		CollegeName:    normalizeOptional(req.CollegeName),
		CollegeAddress: normalizeOptional(req.CollegeAddress),
		Role:           models.AdminRole(req.Role),
		IsActive:       true,
	}
	if err := s.repo.Create(ctx, admin); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create admin")
	}
	s.emitAudit(ctx, actorEmail, models.AuditActionAdminCreate, admin.ID)
	return admin, nil
}

// Update modifies profile fields of an admin account.
func (s *AdminService) Update(ctx context.Context, id int64, req UpdateAdminRequest, actorEmail string) (*models.Admin, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid admin payload")
	}

	admin, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	admin.FirstName = strings.TrimSpace(req.FirstName)
	admin.MiddleName = normalizeOptional(req.MiddleName)
	admin.LastName = strings.TrimSpace(req.LastName)
	admin.Phone = normalizeOptional(req.Phone)
	admin.Gender = normalizeOptional(req.Gender)
	admin.CollegeName = normalizeOptional(req.CollegeName)
	admin.CollegeAddress = normalizeOptional(req.CollegeAddress)
	admin.Role = models.AdminRole(req.Role)

	if err := s.repo.Update(ctx, admin); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update admin")
	}
	s.emitAudit(ctx, actorEmail, models.AuditActionAdminUpdate, id)
	return admin, nil
}

// SetActive toggles the active flag of an admin account.
func (s *AdminService) SetActive(ctx context.Context, id int64, active bool, actorEmail string) (*models.Admin, error) {
	admin, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update admin status")
	}
	admin.IsActive = active
	s.emitAudit(ctx, actorEmail, models.AuditActionAdminUpdate, id)
	return admin, nil
}

// Unlock clears the lockout state and failed-login counter of an account.
func (s *AdminService) Unlock(ctx context.Context, id int64, actorEmail string) (*models.Admin, error) {
	admin, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Unlock(ctx, id); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unlock admin")
	}
	admin.IsLocked = false
	admin.FailedLoginAttempts = 0
	s.emitAudit(ctx, actorEmail, models.AuditActionAdminUnlock, id)
	return admin, nil
}

// ResetPassword replaces the account password and stamps the change time.
func (s *AdminService) ResetPassword(ctx context.Context, id int64, req ResetPasswordRequest, actorEmail string) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid password payload")
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	if err := s.repo.UpdatePassword(ctx, id, string(hash)); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset password")
	}
	s.emitAudit(ctx, actorEmail, models.AuditActionPasswordReset, id)
	return nil
}

// Delete removes an admin account. Self-deletion is refused.
func (s *AdminService) Delete(ctx context.Context, id int64, actorID int64, actorEmail string) error {
	if id == actorID {
		return appErrors.Clone(appErrors.ErrInvalidOperation, "cannot delete your own account")
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete admin")
	}
	s.emitAudit(ctx, actorEmail, models.AuditActionAdminDelete, id)
	return nil
}

func (s *AdminService) emitAudit(ctx context.Context, actorEmail, action string, adminID int64) {
	if s.audit == nil {
		return
	}
	resourceID := strconv.FormatInt(adminID, 10)
	var actor *string
	if actorEmail != "" {
		actor = &actorEmail
	}
	entry := &models.AuditLog{
		ActorEmail: actor,
		Action:     action,
		Resource:   "admin",
		ResourceID: &resourceID,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to write audit log", zap.String("action", action), zap.Error(err))
	}
}
