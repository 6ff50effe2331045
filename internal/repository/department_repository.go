package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/campuscore/college-admin-api/internal/models"
)

const departmentColumns = "id, name, establish_year, hod_id, is_active, admin_email, row_version, created_at, updated_at"

// DepartmentRepository manages persistence for departments.
type DepartmentRepository struct {
	db *sqlx.DB
}

// NewDepartmentRepository constructs a DepartmentRepository.
func NewDepartmentRepository(db *sqlx.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

// List returns departments matching filters along with total count.
func (r *DepartmentRepository) List(ctx context.Context, filter models.DepartmentFilter) ([]models.Department, int, error) {
	base := "FROM departments WHERE 1=1"
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
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(admin_email) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, search)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"name":       "name",
		"created_at": "created_at",
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "id"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", departmentColumns, base, column, order, size, offset)
	var departments []models.Department
	if err := r.db.SelectContext(ctx, &departments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list departments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count departments: %w", err)
	}

	return departments, total, nil
}

// FindByID fetches a department by ID.
func (r *DepartmentRepository) FindByID(ctx context.Context, id int64) (*models.Department, error) {
	query := fmt.Sprintf("SELECT %s FROM departments WHERE id = $1", departmentColumns)
	var department models.Department
	if err := r.db.GetContext(ctx, &department, query, id); err != nil {
		return nil, err
	}
	return &department, nil
}

// FindByHodID returns the department chaired by the given faculty, or nil
// when none exists. At most one row can match.
func (r *DepartmentRepository) FindByHodID(ctx context.Context, facultyID int64) (*models.Department, error) {
	query := fmt.Sprintf("SELECT %s FROM departments WHERE hod_id = $1", departmentColumns)
	var department models.Department
	if err := r.db.GetContext(ctx, &department, query, facultyID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find department by hod: %w", err)
	}
	return &department, nil
}

// Create inserts a new department and fills in the generated ID.
func (r *DepartmentRepository) Create(ctx context.Context, department *models.Department) error {
	now := time.Now().UTC()
	department.CreatedAt = now
	department.UpdatedAt = now
	department.RowVersion = 1

	const query = `INSERT INTO departments (name, establish_year, hod_id, is_active, admin_email, row_version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	if err := r.db.GetContext(ctx, &department.ID, query,
		department.Name, department.EstablishYear, department.HodID, department.IsActive,
		department.AdminEmail, department.RowVersion, department.CreatedAt, department.UpdatedAt); err != nil {
		return fmt.Errorf("create department: %w", err)
	}
	return nil
}

// Update modifies the descriptive fields of a department. HOD and active
// flags go through SetHod/SetActive so the coordinator keeps control of them.
func (r *DepartmentRepository) Update(ctx context.Context, department *models.Department) error {
	department.UpdatedAt = time.Now().UTC()
	const query = `UPDATE departments SET name = :name, establish_year = :establish_year,
		row_version = row_version + 1, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, department); err != nil {
		return fmt.Errorf("update department: %w", err)
	}
	department.RowVersion++
	return nil
}

// SetActive flips the active flag.
func (r *DepartmentRepository) SetActive(ctx context.Context, id int64, active bool) error {
	const query = `UPDATE departments SET is_active = $2, row_version = row_version + 1, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, active, time.Now().UTC()); err != nil {
		return fmt.Errorf("set department active: %w", err)
	}
	return nil
}

// SetHod conditionally writes the chair assignment and active flag in one
// statement. It succeeds only when the row still carries the expected
// version, returning ErrRowConflict otherwise. Only the HOD coordinator may
// call this.
func (r *DepartmentRepository) SetHod(ctx context.Context, id int64, hodID *int64, active bool, expectedVersion int64) error {
	const query = `UPDATE departments SET hod_id = $2, is_active = $3, row_version = row_version + 1, updated_at = $4
		WHERE id = $1 AND row_version = $5`
	result, err := r.db.ExecContext(ctx, query, id, hodID, active, time.Now().UTC(), expectedVersion)
	if err != nil {
		return fmt.Errorf("set department hod: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set department hod: %w", err)
	}
	if affected == 0 {
		return ErrRowConflict
	}
	return nil
}

// Delete removes a department row.
func (r *DepartmentRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM departments WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete department: %w", err)
	}
	return nil
}

// DepartmentStats aggregates counters for the dashboard.
type DepartmentStats struct {
	Total  int `db:"total"`
	Active int `db:"active"`
}

// Stats returns headline department counters scoped to the owning admin.
func (r *DepartmentRepository) Stats(ctx context.Context, adminEmail string) (*DepartmentStats, error) {
	const query = `SELECT COUNT(*) AS total, COUNT(*) FILTER (WHERE is_active) AS active
		FROM departments WHERE admin_email = $1`
	var stats DepartmentStats
	if err := r.db.GetContext(ctx, &stats, query, adminEmail); err != nil {
		return nil, fmt.Errorf("department stats: %w", err)
	}
	return &stats, nil
}
