package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubjectRepositoryBulkAssignDepartment(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	deptID := int64(10)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE subjects SET department_id = $1, updated_at = $2 WHERE id IN ($3, $4, $5)")).
		WithArgs(deptID, sqlmock.AnyArg(), int64(1), int64(2), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	affected, err := repo.BulkAssignDepartment(context.Background(), []int64{1, 2, 3}, &deptID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryBulkAssignDetach(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE subjects SET department_id = $1, updated_at = $2 WHERE id IN ($3)")).
		WithArgs(nil, sqlmock.AnyArg(), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := repo.BulkAssignDepartment(context.Background(), []int64{1}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
}

func TestSubjectRepositoryBulkAssignEmptyShortCircuits(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	affected, err := repo.BulkAssignDepartment(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Zero(t, affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryCount(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM subjects WHERE admin_email = $1")).
		WithArgs("admin@college.edu").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(120))

	total, err := repo.Count(context.Background(), "admin@college.edu")
	require.NoError(t, err)
	assert.Equal(t, 120, total)
}
