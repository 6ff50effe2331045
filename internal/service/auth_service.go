package service

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/campuscore/college-admin-api/internal/models"
	"github.com/campuscore/college-admin-api/pkg/config"
	appErrors "github.com/campuscore/college-admin-api/pkg/errors"
)

type authAdminRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.Admin, error)
	RecordFailedLogin(ctx context.Context, id int64, lockThreshold int) error
	RecordSuccessfulLogin(ctx context.Context, id int64, ts time.Time) error
}

// AuthService authenticates admins and issues JWT access tokens.
type AuthService struct {
	admins    authAdminRepository
	audit     adminAuditLogger
	jwtCfg    config.JWTConfig
	maxFailed int
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAuthService constructs an AuthService.
func NewAuthService(admins authAdminRepository, audit adminAuditLogger, jwtCfg config.JWTConfig, maxFailed int, validate *validator.Validate, logger *zap.Logger) *AuthService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxFailed <= 0 {
		maxFailed = 5
	}
	return &AuthService{admins: admins, audit: audit, jwtCfg: jwtCfg, maxFailed: maxFailed, validator: validate, logger: logger}
}

// Login validates credentials and returns a signed access token. Failed
// attempts are counted; reaching the threshold locks the account until an
// explicit unlock.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	admin, err := s.admins.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid credentials")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load admin")
	}

	if admin.IsLocked {
		return nil, appErrors.Clone(appErrors.ErrAccountLocked, "account is locked after repeated failed logins")
	}
	if !admin.IsActive {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "account is deactivated")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		if recErr := s.admins.RecordFailedLogin(ctx, admin.ID, s.maxFailed); recErr != nil {
			s.logger.Warn("failed to record login failure", zap.Int64("admin_id", admin.ID), zap.Error(recErr))
		}
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid credentials")
	}

	now := time.Now().UTC()
	token, err := s.issueToken(admin, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to issue token")
	}

	if err := s.admins.RecordSuccessfulLogin(ctx, admin.ID, now); err != nil {
		s.logger.Warn("failed to record login", zap.Int64("admin_id", admin.ID), zap.Error(err))
	}
	s.emitAudit(ctx, admin)

	return &models.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.jwtCfg.Expiration.Seconds()),
		IssuedAt:    now,
		Admin: models.AdminInfo{
			ID:       admin.ID,
			Email:    admin.Email,
			FullName: admin.FirstName + " " + admin.LastName,
			Role:     admin.Role,
		},
	}, nil
}

// ValidateToken parses and verifies an access token, returning its claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	claims := &models.JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.jwtCfg.Secret), nil
	}, jwt.WithIssuer(s.jwtCfg.Issuer), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token")
	}
	return claims, nil
}

func (s *AuthService) issueToken(admin *models.Admin, now time.Time) (string, error) {
	claims := models.JWTClaims{
		AdminID: admin.ID,
		Email:   admin.Email,
		Role:    admin.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(admin.ID, 10),
			Issuer:    s.jwtCfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtCfg.Expiration)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtCfg.Secret))
}

func (s *AuthService) emitAudit(ctx context.Context, admin *models.Admin) {
	if s.audit == nil {
		return
	}
	resourceID := strconv.FormatInt(admin.ID, 10)
	entry := &models.AuditLog{
		ActorEmail: &admin.Email,
		Action:     models.AuditActionLogin,
		Resource:   "admin",
		ResourceID: &resourceID,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to write login audit", zap.Error(err))
	}
}
