package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/campuscore/college-admin-api/internal/models"
)

const adminColumns = "id, email, password_hash, first_name, middle_name, last_name, phone, gender, college_name, college_address, role, is_active, is_locked, failed_login_attempts, password_changed_at, last_login, created_at, updated_at"

// AdminRepository manages persistence for administrator accounts.
type AdminRepository struct {
	db *sqlx.DB
}

// NewAdminRepository constructs an AdminRepository.
func NewAdminRepository(db *sqlx.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// List returns admins matching filters along with total count.
func (r *AdminRepository) List(ctx context.Context, filter models.AdminFilter) ([]models.Admin, int, error) {
	base := "FROM admins WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Role != nil {
		conditions = append(conditions, fmt.Sprintf("role = $%d", len(args)+1))
		args = append(args, *filter.Role)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		conditions = append(conditions, fmt.Sprintf("(LOWER(email) LIKE $%d OR LOWER(first_name) LIKE $%d OR LOWER(last_name) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, search)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY id DESC LIMIT %d OFFSET %d", adminColumns, base, size, offset)
	var admins []models.Admin
	if err := r.db.SelectContext(ctx, &admins, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list admins: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count admins: %w", err)
	}

	return admins, total, nil
}

// FindByID fetches an admin by ID.
func (r *AdminRepository) FindByID(ctx context.Context, id int64) (*models.Admin, error) {
	query := fmt.Sprintf("SELECT %s FROM admins WHERE id = $1", adminColumns)
	var admin models.Admin
	if err := r.db.GetContext(ctx, &admin, query, id); err != nil {
		return nil, err
	}
	return &admin, nil
}

// FindByEmail fetches an admin by email.
func (r *AdminRepository) FindByEmail(ctx context.Context, email string) (*models.Admin, error) {
	query := fmt.Sprintf("SELECT %s FROM admins WHERE LOWER(email) = LOWER($1)", adminColumns)
	var admin models.Admin
	if err := r.db.GetContext(ctx, &admin, query, email); err != nil {
		return nil, err
	}
	return &admin, nil
}

// ExistsByEmail checks if another admin uses the same email.
func (r *AdminRepository) ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error) {
	const query = "SELECT EXISTS (SELECT 1 FROM admins WHERE LOWER(email) = LOWER($1) AND id <> $2)"
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, email, excludeID); err != nil {
		return false, fmt.Errorf("check admin email: %w", err)
	}
	return exists, nil
}

// Create inserts a new admin account and fills in the generated ID.
func (r *AdminRepository) Create(ctx context.Context, admin *models.Admin) error {
	now := time.Now().UTC()
	admin.CreatedAt = now
	admin.UpdatedAt = now

	const query = `INSERT INTO admins (email, password_hash, first_name, middle_name, last_name, phone, gender, college_name, college_address, role, is_active, is_locked, failed_login_attempts, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15) RETURNING id`
	if err := r.db.GetContext(ctx, &admin.ID, query,
		admin.Email, admin.PasswordHash, admin.FirstName, admin.MiddleName, admin.LastName,
		admin.Phone, admin.Gender, admin.CollegeName, admin.CollegeAddress, admin.Role,
		admin.IsActive, admin.IsLocked, admin.FailedLoginAttempts, admin.CreatedAt, admin.UpdatedAt); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	return nil
}

// Update modifies the profile fields of an admin account. Password and lock
// state have dedicated mutators.
func (r *AdminRepository) Update(ctx context.Context, admin *models.Admin) error {
	admin.UpdatedAt = time.Now().UTC()
	const query = `UPDATE admins SET email = :email, first_name = :first_name, middle_name = :middle_name,
		last_name = :last_name, phone = :phone, gender = :gender, college_name = :college_name,
		college_address = :college_address, role = :role, is_active = :is_active, updated_at = :updated_at
		WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, admin); err != nil {
		return fmt.Errorf("update admin: %w", err)
	}
	return nil
}

// SetActive flips the active flag.
func (r *AdminRepository) SetActive(ctx context.Context, id int64, active bool) error {
	const query = `UPDATE admins SET is_active = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, active, time.Now().UTC()); err != nil {
		return fmt.Errorf("set admin active: %w", err)
	}
	return nil
}

// Unlock clears the lock flag and failed login counter.
func (r *AdminRepository) Unlock(ctx context.Context, id int64) error {
	const query = `UPDATE admins SET is_locked = FALSE, failed_login_attempts = 0, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("unlock admin: %w", err)
	}
	return nil
}

// UpdatePassword stores a new password hash and stamps password_changed_at.
func (r *AdminRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	now := time.Now().UTC()
	const query = `UPDATE admins SET password_hash = $2, password_changed_at = $3, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, passwordHash, now); err != nil {
		return fmt.Errorf("update admin password: %w", err)
	}
	return nil
}

// RecordFailedLogin increments the failure counter and locks the account once
// the threshold is reached.
func (r *AdminRepository) RecordFailedLogin(ctx context.Context, id int64, lockThreshold int) error {
	const query = `UPDATE admins SET failed_login_attempts = failed_login_attempts + 1,
		is_locked = (failed_login_attempts + 1 >= $2), updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, lockThreshold, time.Now().UTC()); err != nil {
		return fmt.Errorf("record failed login: %w", err)
	}
	return nil
}

// RecordSuccessfulLogin resets the failure counter and stamps last_login.
func (r *AdminRepository) RecordSuccessfulLogin(ctx context.Context, id int64, ts time.Time) error {
	const query = `UPDATE admins SET failed_login_attempts = 0, last_login = $2, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, ts); err != nil {
		return fmt.Errorf("record successful login: %w", err)
	}
	return nil
}

// Delete removes an admin row.
func (r *AdminRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM admins WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete admin: %w", err)
	}
	return nil
}
