package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campuscore/college-admin-api/internal/models"
	appErrors "github.com/campuscore/college-admin-api/pkg/errors"
)

type subjectRepoStub struct {
	subjects    map[int64]*models.Subject
	bulkIDs     []int64
	bulkDept    *int64
	bulkUpdated int64
	created     []*models.Subject
	deleted     []int64
}

func (s *subjectRepoStub) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error) {
	return nil, 0, nil
}

func (s *subjectRepoStub) FindByID(ctx context.Context, id int64) (*models.Subject, error) {
	subj, ok := s.subjects[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *subj
	return &copied, nil
}

func (s *subjectRepoStub) Create(ctx context.Context, subject *models.Subject) error {
	subject.ID = int64(len(s.subjects) + 1)
	copied := *subject
	s.subjects[subject.ID] = &copied
	s.created = append(s.created, subject)
	return nil
}

func (s *subjectRepoStub) Update(ctx context.Context, subject *models.Subject) error {
	copied := *subject
	s.subjects[subject.ID] = &copied
	return nil
}

func (s *subjectRepoStub) Delete(ctx context.Context, id int64) error {
	s.deleted = append(s.deleted, id)
	delete(s.subjects, id)
	return nil
}

func (s *subjectRepoStub) BulkAssignDepartment(ctx context.Context, ids []int64, departmentID *int64) (int64, error) {
	s.bulkIDs = ids
	s.bulkDept = departmentID
	return s.bulkUpdated, nil
}

type departmentFinderStub struct {
	departments map[int64]*models.Department
}

func (s departmentFinderStub) FindByID(ctx context.Context, id int64) (*models.Department, error) {
	d, ok := s.departments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *d
	return &copied, nil
}

func newSubjectFixture() (*subjectRepoStub, *SubjectService) {
	repo := &subjectRepoStub{subjects: map[int64]*models.Subject{}}
	departments := departmentFinderStub{departments: map[int64]*models.Department{
		10: {ID: 10, Name: "Physics"},
	}}
	svc := NewSubjectService(repo, departments, nil, nil, zap.NewNop())
	return repo, svc
}

func TestSubjectServiceCreateChecksDepartment(t *testing.T) {
	_, svc := newSubjectFixture()

	_, err := svc.Create(context.Background(), CreateSubjectRequest{Name: "Optics", DepartmentID: i64(99)}, "admin@college.edu")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSubjectServiceCreateWithValidDepartment(t *testing.T) {
	repo, svc := newSubjectFixture()

	subject, err := svc.Create(context.Background(), CreateSubjectRequest{
		Name: "Optics", Code: strPtr("PHY-301"), DepartmentID: i64(10),
	}, "admin@college.edu")
	require.NoError(t, err)
	require.NotNil(t, subject.DepartmentID)
	assert.Equal(t, int64(10), *subject.DepartmentID)
	require.Len(t, repo.created, 1)
}

func TestSubjectServiceCreateWithoutDepartmentAllowed(t *testing.T) {
	_, svc := newSubjectFixture()

	subject, err := svc.Create(context.Background(), CreateSubjectRequest{Name: "Optics"}, "admin@college.edu")
	require.NoError(t, err)
	assert.Nil(t, subject.DepartmentID)
}

func TestSubjectServiceBulkAssign(t *testing.T) {
	repo, svc := newSubjectFixture()
	repo.bulkUpdated = 3

	affected, err := svc.BulkAssign(context.Background(), BulkAssignSubjectsRequest{
		SubjectIDs: []int64{1, 2, 3}, DepartmentID: i64(10),
	}, "admin@college.edu")
	require.NoError(t, err)
	assert.Equal(t, int64(3), affected)
	assert.Equal(t, []int64{1, 2, 3}, repo.bulkIDs)
	require.NotNil(t, repo.bulkDept)
	assert.Equal(t, int64(10), *repo.bulkDept)
}

func TestSubjectServiceBulkAssignDetach(t *testing.T) {
	repo, svc := newSubjectFixture()
	repo.bulkUpdated = 2

	affected, err := svc.BulkAssign(context.Background(), BulkAssignSubjectsRequest{SubjectIDs: []int64{1, 2}}, "admin@college.edu")
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)
	assert.Nil(t, repo.bulkDept)
}

func TestSubjectServiceBulkAssignEmptyList(t *testing.T) {
	_, svc := newSubjectFixture()

	_, err := svc.BulkAssign(context.Background(), BulkAssignSubjectsRequest{SubjectIDs: []int64{}}, "admin@college.edu")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSubjectServiceDeleteUnknown(t *testing.T) {
	_, svc := newSubjectFixture()

	err := svc.Delete(context.Background(), 42)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
