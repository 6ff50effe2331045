package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuscore/college-admin-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	cleanup := func() {
		_ = sqlxDB.Close()
	}
	return sqlxDB, mock, cleanup
}

func TestFacultyRepositoryListFiltersByActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewFacultyRepository(db)

	rows := sqlmock.NewRows([]string{"id", "first_name", "last_name", "email", "is_active", "is_hod", "row_version"}).
		AddRow(1, "Asha", "Rao", "asha@college.edu", true, false, 1)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT")).
		WithArgs("admin@college.edu", true).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("admin@college.edu", true).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	active := true
	faculty, total, err := repo.List(context.Background(), models.FacultyFilter{AdminEmail: "admin@college.edu", Active: &active})
	require.NoError(t, err)
	require.Len(t, faculty, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Asha", faculty[0].FirstName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFacultyRepositorySetHodFlag(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewFacultyRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE faculty SET is_hod = $2, row_version = row_version + 1")).
		WithArgs(int64(1), true, sqlmock.AnyArg(), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SetHodFlag(context.Background(), 1, true, 3)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFacultyRepositorySetHodFlagVersionMismatch(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewFacultyRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE faculty SET is_hod = $2, row_version = row_version + 1")).
		WithArgs(int64(1), true, sqlmock.AnyArg(), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetHodFlag(context.Background(), 1, true, 3)
	require.ErrorIs(t, err, ErrRowConflict)
}

func TestFacultyRepositoryExistsByEmail(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewFacultyRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("asha@college.edu", int64(0)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsByEmail(context.Background(), "asha@college.edu", 0)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestFacultyRepositoryCreateReturnsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewFacultyRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO faculty")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	faculty := &models.Faculty{FirstName: "Asha", LastName: "Rao", Email: "asha@college.edu", AdminEmail: "admin@college.edu"}
	err := repo.Create(context.Background(), faculty)
	require.NoError(t, err)
	assert.Equal(t, int64(7), faculty.ID)
	assert.Equal(t, int64(1), faculty.RowVersion)
}

func TestFacultyRepositoryStats(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewFacultyRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) AS total")).
		WithArgs("admin@college.edu").
		WillReturnRows(sqlmock.NewRows([]string{"total", "active", "inactive", "hods"}).AddRow(40, 30, 10, 6))

	stats, err := repo.Stats(context.Background(), "admin@college.edu")
	require.NoError(t, err)
	assert.Equal(t, 40, stats.Total)
	assert.Equal(t, 30, stats.Active)
	assert.Equal(t, 10, stats.Inactive)
	assert.Equal(t, 6, stats.Hods)
}
