package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/campuscore/college-admin-api/internal/models"
)

const facultyColumns = "id, first_name, last_name, department, email, phone, gender, qualification, is_active, is_hod, admin_email, row_version, created_at, updated_at"

// FacultyRepository manages persistence for faculty records.
type FacultyRepository struct {
	db *sqlx.DB
}

// NewFacultyRepository constructs a FacultyRepository.
func NewFacultyRepository(db *sqlx.DB) *FacultyRepository {
	return &FacultyRepository{db: db}
}

// List returns faculty matching filters along with total count.
func (r *FacultyRepository) List(ctx context.Context, filter models.FacultyFilter) ([]models.Faculty, int, error) {
	base := "FROM faculty WHERE 1=1"
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
	if filter.HOD != nil {
		conditions = append(conditions, fmt.Sprintf("is_hod = $%d", len(args)+1))
		args = append(args, *filter.HOD)
	}
	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		conditions = append(conditions, fmt.Sprintf("(LOWER(first_name) LIKE $%d OR LOWER(last_name) LIKE $%d OR LOWER(email) LIKE $%d OR LOWER(COALESCE(department, '')) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1, len(args)+1))
		args = append(args, search)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"first_name": "first_name",
		"last_name":  "last_name",
		"email":      "email",
		"created_at": "created_at",
		"updated_at": "updated_at",
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "id"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", facultyColumns, base, column, order, size, offset)
	var faculty []models.Faculty
	if err := r.db.SelectContext(ctx, &faculty, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list faculty: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count faculty: %w", err)
	}

	return faculty, total, nil
}

// FindByID fetches a faculty record by ID.
func (r *FacultyRepository) FindByID(ctx context.Context, id int64) (*models.Faculty, error) {
	query := fmt.Sprintf("SELECT %s FROM faculty WHERE id = $1", facultyColumns)
	var faculty models.Faculty
	if err := r.db.GetContext(ctx, &faculty, query, id); err != nil {
		return nil, err
	}
	return &faculty, nil
}

// ExistsByEmail checks if another faculty record uses the same email.
func (r *FacultyRepository) ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error) {
	query := "SELECT EXISTS (SELECT 1 FROM faculty WHERE LOWER(email) = LOWER($1) AND id <> $2)"
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, email, excludeID); err != nil {
		return false, fmt.Errorf("check faculty email: %w", err)
	}
	return exists, nil
}

// Create inserts a new faculty record and fills in the generated ID.
func (r *FacultyRepository) Create(ctx context.Context, faculty *models.Faculty) error {
	now := time.Now().UTC()
	faculty.CreatedAt = now
	faculty.UpdatedAt = now
	faculty.RowVersion = 1

	const query = `INSERT INTO faculty (first_name, last_name, department, email, phone, gender, qualification, is_active, is_hod, admin_email, row_version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) RETURNING id`
	if err := r.db.GetContext(ctx, &faculty.ID, query,
		faculty.FirstName, faculty.LastName, faculty.Department, faculty.Email, faculty.Phone,
		faculty.Gender, faculty.Qualification, faculty.IsActive, faculty.IsHOD, faculty.AdminEmail,
		faculty.RowVersion, faculty.CreatedAt, faculty.UpdatedAt); err != nil {
		return fmt.Errorf("create faculty: %w", err)
	}
	return nil
}

// Update modifies the mutable fields of a faculty record. The email column is
// deliberately absent: it is immutable once set.
func (r *FacultyRepository) Update(ctx context.Context, faculty *models.Faculty) error {
	faculty.UpdatedAt = time.Now().UTC()
	const query = `UPDATE faculty SET first_name = :first_name, last_name = :last_name, department = :department,
		phone = :phone, gender = :gender, qualification = :qualification, is_active = :is_active,
		row_version = row_version + 1, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, faculty); err != nil {
		return fmt.Errorf("update faculty: %w", err)
	}
	faculty.RowVersion++
	return nil
}

// SetActive flips the active flag.
func (r *FacultyRepository) SetActive(ctx context.Context, id int64, active bool) error {
	const query = `UPDATE faculty SET is_active = $2, row_version = row_version + 1, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, active, time.Now().UTC()); err != nil {
		return fmt.Errorf("set faculty active: %w", err)
	}
	return nil
}

// SetHodFlag conditionally writes the HOD flag. It succeeds only when the row
// still carries the expected version, returning ErrRowConflict otherwise.
// Only the HOD coordinator may call this.
func (r *FacultyRepository) SetHodFlag(ctx context.Context, id int64, hod bool, expectedVersion int64) error {
	const query = `UPDATE faculty SET is_hod = $2, row_version = row_version + 1, updated_at = $3
		WHERE id = $1 AND row_version = $4`
	result, err := r.db.ExecContext(ctx, query, id, hod, time.Now().UTC(), expectedVersion)
	if err != nil {
		return fmt.Errorf("set faculty hod flag: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set faculty hod flag: %w", err)
	}
	if affected == 0 {
		return ErrRowConflict
	}
	return nil
}

// Delete removes a faculty row.
func (r *FacultyRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM faculty WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete faculty: %w", err)
	}
	return nil
}

// FacultyStats aggregates counters for the dashboard.
type FacultyStats struct {
	Total    int `db:"total"`
	Active   int `db:"active"`
	Inactive int `db:"inactive"`
	Hods     int `db:"hods"`
}

// Stats returns headline faculty counters scoped to the owning admin.
func (r *FacultyRepository) Stats(ctx context.Context, adminEmail string) (*FacultyStats, error) {
	const query = `SELECT COUNT(*) AS total,
		COUNT(*) FILTER (WHERE is_active) AS active,
		COUNT(*) FILTER (WHERE NOT is_active) AS inactive,
		COUNT(*) FILTER (WHERE is_hod) AS hods
		FROM faculty WHERE admin_email = $1`
	var stats FacultyStats
	if err := r.db.GetContext(ctx, &stats, query, adminEmail); err != nil {
		return nil, fmt.Errorf("faculty stats: %w", err)
	}
	return &stats, nil
}
