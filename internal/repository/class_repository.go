package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/campuscore/college-admin-api/internal/models"
)

const classColumns = "id, name, batch_year, coordinator_id, department_id, is_active, admin_email, created_at, updated_at"

// ClassRepository manages persistence for classes.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs a ClassRepository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// List returns classes matching filters along with total count. A numeric
// search term additionally matches the batch year.
func (r *ClassRepository) List(ctx context.Context, filter models.ClassFilter) ([]models.Class, int, error) {
	base := "FROM classes WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.AdminEmail != "" {
		conditions = append(conditions, fmt.Sprintf("admin_email = $%d", len(args)+1))
		args = append(args, filter.AdminEmail)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		if year, err := strconv.Atoi(filter.Search); err == nil {
			conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR batch_year = $%d)", len(args)+1, len(args)+2))
			args = append(args, search, year)
		} else {
			conditions = append(conditions, fmt.Sprintf("LOWER(name) LIKE $%d", len(args)+1))
			args = append(args, search)
		}
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY id DESC LIMIT %d OFFSET %d", classColumns, base, size, offset)
	var classes []models.Class
	if err := r.db.SelectContext(ctx, &classes, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list classes: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count classes: %w", err)
	}

	return classes, total, nil
}

// FindByID fetches a class by ID.
func (r *ClassRepository) FindByID(ctx context.Context, id int64) (*models.Class, error) {
	query := fmt.Sprintf("SELECT %s FROM classes WHERE id = $1", classColumns)
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// FindByCoordinatorID returns the class coordinated by the given faculty,
// excluding the provided class ID, or nil when none exists.
func (r *ClassRepository) FindByCoordinatorID(ctx context.Context, facultyID, excludeClassID int64) (*models.Class, error) {
	query := fmt.Sprintf("SELECT %s FROM classes WHERE coordinator_id = $1 AND id <> $2", classColumns)
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, facultyID, excludeClassID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find class by coordinator: %w", err)
	}
	return &class, nil
}

// Create inserts a new class and fills in the generated ID.
func (r *ClassRepository) Create(ctx context.Context, class *models.Class) error {
	now := time.Now().UTC()
	class.CreatedAt = now
	class.UpdatedAt = now

	const query = `INSERT INTO classes (name, batch_year, coordinator_id, department_id, is_active, admin_email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	if err := r.db.GetContext(ctx, &class.ID, query,
		class.Name, class.BatchYear, class.CoordinatorID, class.DepartmentID, class.IsActive,
		class.AdminEmail, class.CreatedAt, class.UpdatedAt); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

// Update modifies an existing class.
func (r *ClassRepository) Update(ctx context.Context, class *models.Class) error {
	class.UpdatedAt = time.Now().UTC()
	const query = `UPDATE classes SET name = :name, batch_year = :batch_year, coordinator_id = :coordinator_id,
		department_id = :department_id, is_active = :is_active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("update class: %w", err)
	}
	return nil
}

// SetActive flips the active flag.
func (r *ClassRepository) SetActive(ctx context.Context, id int64, active bool) error {
	const query = `UPDATE classes SET is_active = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, active, time.Now().UTC()); err != nil {
		return fmt.Errorf("set class active: %w", err)
	}
	return nil
}

// Delete removes a class row.
func (r *ClassRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM classes WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete class: %w", err)
	}
	return nil
}

// ListAvailableCoordinators returns active faculty of the owning admin who
// are not yet coordinating any class.
func (r *ClassRepository) ListAvailableCoordinators(ctx context.Context, adminEmail string) ([]models.Faculty, error) {
	query := fmt.Sprintf(`SELECT %s FROM faculty
		WHERE is_active AND admin_email = $1
		AND id NOT IN (SELECT coordinator_id FROM classes WHERE coordinator_id IS NOT NULL AND admin_email = $1)
		ORDER BY first_name ASC`, facultyColumns)
	var faculty []models.Faculty
	if err := r.db.SelectContext(ctx, &faculty, query, adminEmail); err != nil {
		return nil, fmt.Errorf("list available coordinators: %w", err)
	}
	return faculty, nil
}

// Count returns the number of classes owned by the admin.
func (r *ClassRepository) Count(ctx context.Context, adminEmail string) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM classes WHERE admin_email = $1", adminEmail); err != nil {
		return 0, fmt.Errorf("count classes: %w", err)
	}
	return total, nil
}
