package service

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campuscore/college-admin-api/internal/models"
	"github.com/campuscore/college-admin-api/internal/repository"
	appErrors "github.com/campuscore/college-admin-api/pkg/errors"
)

type fakeFacultyStore struct {
	members  map[int64]*models.Faculty
	flagErrs map[int64][]error
}

func (f *fakeFacultyStore) FindByID(ctx context.Context, id int64) (*models.Faculty, error) {
	m, ok := f.members[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *m
	return &copied, nil
}

func (f *fakeFacultyStore) SetHodFlag(ctx context.Context, id int64, hod bool, expectedVersion int64) error {
	if errs := f.flagErrs[id]; len(errs) > 0 {
		next := errs[0]
		f.flagErrs[id] = errs[1:]
		if next != nil {
			return next
		}
	}
	m, ok := f.members[id]
	if !ok {
		return sql.ErrNoRows
	}
	if m.RowVersion != expectedVersion {
		return repository.ErrRowConflict
	}
	m.IsHOD = hod
	m.RowVersion++
	return nil
}

type fakeDepartmentStore struct {
	departments map[int64]*models.Department
	setHodErrs  []error
}

func (f *fakeDepartmentStore) FindByID(ctx context.Context, id int64) (*models.Department, error) {
	d, ok := f.departments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *d
	return &copied, nil
}

func (f *fakeDepartmentStore) FindByHodID(ctx context.Context, facultyID int64) (*models.Department, error) {
	for _, d := range f.departments {
		if d.HodID != nil && *d.HodID == facultyID {
			copied := *d
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeDepartmentStore) SetHod(ctx context.Context, id int64, hodID *int64, active bool, expectedVersion int64) error {
	if len(f.setHodErrs) > 0 {
		next := f.setHodErrs[0]
		f.setHodErrs = f.setHodErrs[1:]
		if next != nil {
			return next
		}
	}
	d, ok := f.departments[id]
	if !ok {
		return sql.ErrNoRows
	}
	if d.RowVersion != expectedVersion {
		return repository.ErrRowConflict
	}
	d.HodID = hodID
	d.IsActive = active
	d.RowVersion++
	return nil
}

type auditSinkStub struct {
	logs []*models.AuditLog
	err  error
}

func (s *auditSinkStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	s.logs = append(s.logs, log)
	return s.err
}

type transitionsStub struct {
	entries []string
}

func (s *transitionsStub) RecordHodTransition(kind, outcome string) {
	s.entries = append(s.entries, kind+":"+outcome)
}

func i64(v int64) *int64 { return &v }

func newCoordinatorFixture() (*fakeFacultyStore, *fakeDepartmentStore, *auditSinkStub, *transitionsStub, *HodCoordinator) {
	faculty := &fakeFacultyStore{
		members: map[int64]*models.Faculty{
			1: {ID: 1, FirstName: "Asha", LastName: "Rao", Email: "asha@college.edu", IsActive: true, RowVersion: 3},
			2: {ID: 2, FirstName: "Vikram", LastName: "Iyer", Email: "vikram@college.edu", IsActive: true, RowVersion: 1},
		},
		flagErrs: map[int64][]error{},
	}
	departments := &fakeDepartmentStore{
		departments: map[int64]*models.Department{
			10: {ID: 10, Name: "Physics", RowVersion: 5},
			11: {ID: 11, Name: "Chemistry", RowVersion: 2},
		},
	}
	audit := &auditSinkStub{}
	metrics := &transitionsStub{}
	coordinator := NewHodCoordinator(faculty, departments, audit, metrics, zap.NewNop())
	return faculty, departments, audit, metrics, coordinator
}

func TestHodCoordinatorAssignPromotesAndActivates(t *testing.T) {
	faculty, departments, audit, metrics, coordinator := newCoordinatorFixture()

	dept, err := coordinator.Assign(context.Background(), 10, 1, "admin@college.edu")
	require.NoError(t, err)
	require.NotNil(t, dept)
	require.NotNil(t, dept.HodID)
	assert.Equal(t, int64(1), *dept.HodID)
	assert.True(t, dept.IsActive)

	assert.True(t, faculty.members[1].IsHOD)
	assert.Equal(t, int64(1), *departments.departments[10].HodID)
	assert.True(t, departments.departments[10].IsActive)

	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionHodAssign, audit.logs[0].Action)
	assert.Equal(t, []string{"assign:ok"}, metrics.entries)
}

func TestHodCoordinatorAssignSameChairIsNoOp(t *testing.T) {
	faculty, departments, audit, _, coordinator := newCoordinatorFixture()
	faculty.members[1].IsHOD = true
	departments.departments[10].HodID = i64(1)
	departments.departments[10].IsActive = true

	dept, err := coordinator.Assign(context.Background(), 10, 1, "admin@college.edu")
	require.NoError(t, err)
	require.NotNil(t, dept)
	assert.Equal(t, int64(10), dept.ID)
	assert.Empty(t, audit.logs)
	assert.Equal(t, int64(5), departments.departments[10].RowVersion)
}

func TestHodCoordinatorAssignRejectsSecondChair(t *testing.T) {
	faculty, departments, _, metrics, coordinator := newCoordinatorFixture()
	faculty.members[1].IsHOD = true
	departments.departments[11].HodID = i64(1)
	departments.departments[11].IsActive = true

	_, err := coordinator.Assign(context.Background(), 10, 1, "admin@college.edu")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Contains(t, appErrors.FromError(err).Message, "Chemistry")
	assert.Equal(t, []string{"assign:conflict"}, metrics.entries)
}

func TestHodCoordinatorAssignRejectsOccupiedDepartment(t *testing.T) {
	faculty, departments, _, _, coordinator := newCoordinatorFixture()
	faculty.members[2].IsHOD = true
	departments.departments[10].HodID = i64(2)
	departments.departments[10].IsActive = true

	_, err := coordinator.Assign(context.Background(), 10, 1, "admin@college.edu")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestHodCoordinatorAssignUnknownDepartment(t *testing.T) {
	_, _, _, metrics, coordinator := newCoordinatorFixture()

	_, err := coordinator.Assign(context.Background(), 99, 1, "admin@college.edu")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Equal(t, []string{"assign:error"}, metrics.entries)
}

func TestHodCoordinatorAssignCompensatesOnPromoteFailure(t *testing.T) {
	faculty, departments, audit, metrics, coordinator := newCoordinatorFixture()
	faculty.flagErrs[1] = []error{repository.ErrRowConflict}

	_, err := coordinator.Assign(context.Background(), 10, 1, "admin@college.edu")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	// The department write was rolled back.
	assert.Nil(t, departments.departments[10].HodID)
	assert.False(t, departments.departments[10].IsActive)
	assert.False(t, faculty.members[1].IsHOD)
	assert.Empty(t, audit.logs)
	assert.Equal(t, []string{"assign:conflict"}, metrics.entries)
}

func TestHodCoordinatorAssignDegradedWhenCompensationFails(t *testing.T) {
	faculty, departments, _, metrics, coordinator := newCoordinatorFixture()
	faculty.flagErrs[1] = []error{repository.ErrRowConflict}
	departments.setHodErrs = []error{nil, sql.ErrConnDone}

	_, err := coordinator.Assign(context.Background(), 10, 1, "admin@college.edu")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDegraded.Code, appErrors.FromError(err).Code)
	assert.Equal(t, []string{"assign:degraded"}, metrics.entries)
}

func TestHodCoordinatorReassignSwapsChairs(t *testing.T) {
	faculty, departments, audit, metrics, coordinator := newCoordinatorFixture()
	faculty.members[1].IsHOD = true
	departments.departments[10].HodID = i64(1)
	departments.departments[10].IsActive = true

	dept, err := coordinator.Reassign(context.Background(), 10, 1, 2, "admin@college.edu")
	require.NoError(t, err)
	require.NotNil(t, dept.HodID)
	assert.Equal(t, int64(2), *dept.HodID)
	assert.True(t, dept.IsActive)

	assert.False(t, faculty.members[1].IsHOD)
	assert.True(t, faculty.members[2].IsHOD)
	assert.Equal(t, int64(2), *departments.departments[10].HodID)

	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionHodReassign, audit.logs[0].Action)
	assert.Equal(t, []string{"reassign:ok"}, metrics.entries)
}

func TestHodCoordinatorReassignRequiresDistinctChairs(t *testing.T) {
	_, _, _, _, coordinator := newCoordinatorFixture()

	_, err := coordinator.Reassign(context.Background(), 10, 1, 1, "admin@college.edu")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestHodCoordinatorReassignDetectsConcurrentChairChange(t *testing.T) {
	faculty, departments, _, _, coordinator := newCoordinatorFixture()
	faculty.members[2].IsHOD = true
	departments.departments[10].HodID = i64(2)
	departments.departments[10].IsActive = true

	// Caller believes faculty 1 is the sitting chair.
	_, err := coordinator.Reassign(context.Background(), 10, 1, 2, "admin@college.edu")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestHodCoordinatorReassignRejectsChairingCandidate(t *testing.T) {
	faculty, departments, _, _, coordinator := newCoordinatorFixture()
	faculty.members[1].IsHOD = true
	departments.departments[10].HodID = i64(1)
	departments.departments[10].IsActive = true
	faculty.members[2].IsHOD = true
	departments.departments[11].HodID = i64(2)
	departments.departments[11].IsActive = true

	_, err := coordinator.Reassign(context.Background(), 10, 1, 2, "admin@college.edu")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestHodCoordinatorReassignRestoresOutgoingOnPromoteFailure(t *testing.T) {
	faculty, departments, audit, metrics, coordinator := newCoordinatorFixture()
	faculty.members[1].IsHOD = true
	departments.departments[10].HodID = i64(1)
	departments.departments[10].IsActive = true
	faculty.flagErrs[2] = []error{sql.ErrConnDone}

	_, err := coordinator.Reassign(context.Background(), 10, 1, 2, "admin@college.edu")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)

	assert.True(t, faculty.members[1].IsHOD)
	assert.False(t, faculty.members[2].IsHOD)
	assert.Equal(t, int64(1), *departments.departments[10].HodID)
	assert.Empty(t, audit.logs)
	assert.Equal(t, []string{"reassign:error"}, metrics.entries)
}

func TestHodCoordinatorReassignDegradedWhenUnwindFails(t *testing.T) {
	faculty, departments, _, metrics, coordinator := newCoordinatorFixture()
	faculty.members[1].IsHOD = true
	departments.departments[10].HodID = i64(1)
	departments.departments[10].IsActive = true
	departments.setHodErrs = []error{sql.ErrConnDone}
	// Demoting the incoming chair back fails during the unwind.
	faculty.flagErrs[2] = []error{nil, sql.ErrConnDone}

	_, err := coordinator.Reassign(context.Background(), 10, 1, 2, "admin@college.edu")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDegraded.Code, appErrors.FromError(err).Code)
	assert.Equal(t, []string{"reassign:degraded"}, metrics.entries)
}

func TestHodCoordinatorReleaseClearsChairAndDeactivates(t *testing.T) {
	faculty, departments, audit, metrics, coordinator := newCoordinatorFixture()
	faculty.members[1].IsHOD = true
	departments.departments[10].HodID = i64(1)
	departments.departments[10].IsActive = true

	dept, err := coordinator.Release(context.Background(), 1, "admin@college.edu")
	require.NoError(t, err)
	require.NotNil(t, dept)
	assert.Nil(t, dept.HodID)
	assert.False(t, dept.IsActive)

	assert.False(t, faculty.members[1].IsHOD)
	assert.Nil(t, departments.departments[10].HodID)
	assert.False(t, departments.departments[10].IsActive)

	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionHodRelease, audit.logs[0].Action)
	assert.Equal(t, []string{"release:ok"}, metrics.entries)
}

func TestHodCoordinatorReleaseNoChairIsNoOp(t *testing.T) {
	_, _, audit, metrics, coordinator := newCoordinatorFixture()

	dept, err := coordinator.Release(context.Background(), 1, "admin@college.edu")
	require.NoError(t, err)
	assert.Nil(t, dept)
	assert.Empty(t, audit.logs)
	assert.Equal(t, []string{"release:ok"}, metrics.entries)
}

func TestHodCoordinatorReleaseHealsStaleFlag(t *testing.T) {
	faculty, _, audit, _, coordinator := newCoordinatorFixture()
	faculty.members[1].IsHOD = true

	dept, err := coordinator.Release(context.Background(), 1, "admin@college.edu")
	require.NoError(t, err)
	assert.Nil(t, dept)
	assert.False(t, faculty.members[1].IsHOD)
	assert.Empty(t, audit.logs)
}

func TestHodCoordinatorReleaseIsIdempotent(t *testing.T) {
	faculty, departments, _, _, coordinator := newCoordinatorFixture()
	faculty.members[1].IsHOD = true
	departments.departments[10].HodID = i64(1)
	departments.departments[10].IsActive = true

	first, err := coordinator.Release(context.Background(), 1, "admin@college.edu")
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := coordinator.Release(context.Background(), 1, "admin@college.edu")
	require.NoError(t, err)
	assert.Nil(t, second)
}

func TestHodCoordinatorReleaseDegradedWhenRestoreFails(t *testing.T) {
	faculty, departments, _, metrics, coordinator := newCoordinatorFixture()
	faculty.members[1].IsHOD = true
	departments.departments[10].HodID = i64(1)
	departments.departments[10].IsActive = true
	faculty.flagErrs[1] = []error{sql.ErrConnDone}
	departments.setHodErrs = []error{nil, sql.ErrConnDone}

	_, err := coordinator.Release(context.Background(), 1, "admin@college.edu")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDegraded.Code, appErrors.FromError(err).Code)
	assert.Equal(t, []string{"release:degraded"}, metrics.entries)
}

func TestHodCoordinatorReleaseConflictRestoresDepartment(t *testing.T) {
	faculty, departments, _, _, coordinator := newCoordinatorFixture()
	faculty.members[1].IsHOD = true
	departments.departments[10].HodID = i64(1)
	departments.departments[10].IsActive = true
	faculty.flagErrs[1] = []error{repository.ErrRowConflict}

	_, err := coordinator.Release(context.Background(), 1, "admin@college.edu")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	// The department write was rolled back so the chair still stands.
	assert.Equal(t, int64(1), *departments.departments[10].HodID)
	assert.True(t, departments.departments[10].IsActive)
}

func TestHodCoordinatorDemoteDelegatesToRelease(t *testing.T) {
	faculty, departments, _, _, coordinator := newCoordinatorFixture()
	faculty.members[1].IsHOD = true
	departments.departments[10].HodID = i64(1)
	departments.departments[10].IsActive = true

	dept, err := coordinator.Demote(context.Background(), 1, "admin@college.edu")
	require.NoError(t, err)
	require.NotNil(t, dept)
	assert.False(t, dept.IsActive)
	assert.False(t, faculty.members[1].IsHOD)
}

func assertChairInvariants(t *testing.T, faculty *fakeFacultyStore, departments *fakeDepartmentStore, step string) {
	t.Helper()
	for id, m := range faculty.members {
		chaired := 0
		for _, d := range departments.departments {
			if d.HodID != nil && *d.HodID == id {
				chaired++
			}
		}
		if m.IsHOD {
			require.Equal(t, 1, chaired, "faculty %d carries the HOD flag but chairs %d departments after %s", id, chaired, step)
		} else {
			require.Zero(t, chaired, "faculty %d chairs a department without the HOD flag after %s", id, step)
		}
	}
	for id, d := range departments.departments {
		if d.IsActive {
			require.NotNil(t, d.HodID, "department %d is active without a chair after %s", id, step)
		}
	}
}

func TestHodCoordinatorRandomSequencesKeepInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(20260829))
	ctx := context.Background()

	for run := 0; run < 200; run++ {
		faculty := &fakeFacultyStore{
			members: map[int64]*models.Faculty{
				1: {ID: 1, FirstName: "Asha", LastName: "Rao", IsActive: true, RowVersion: 3},
				2: {ID: 2, FirstName: "Vikram", LastName: "Iyer", IsActive: true, RowVersion: 1},
				3: {ID: 3, FirstName: "Meera", LastName: "Nair", IsActive: true, RowVersion: 7},
				4: {ID: 4, FirstName: "Ravi", LastName: "Menon", IsActive: true, RowVersion: 2},
			},
			flagErrs: map[int64][]error{},
		}
		departments := &fakeDepartmentStore{
			departments: map[int64]*models.Department{
				10: {ID: 10, Name: "Physics", RowVersion: 5},
				11: {ID: 11, Name: "Chemistry", RowVersion: 2},
				12: {ID: 12, Name: "Mathematics", RowVersion: 9},
			},
		}
		coordinator := NewHodCoordinator(faculty, departments, nil, nil, zap.NewNop())

		for step := 0; step < 30; step++ {
			deptID := int64(10 + rng.Intn(3))
			facultyID := int64(1 + rng.Intn(4))
			var (
				label string
				err   error
			)
			switch rng.Intn(3) {
			case 0:
				label = fmt.Sprintf("run %d step %d assign(%d, %d)", run, step, deptID, facultyID)
				_, err = coordinator.Assign(ctx, deptID, facultyID, "admin@college.edu")
			case 1:
				oldID := facultyID
				if d := departments.departments[deptID]; d.HodID != nil {
					oldID = *d.HodID
				}
				newID := int64(1 + rng.Intn(4))
				label = fmt.Sprintf("run %d step %d reassign(%d, %d, %d)", run, step, deptID, oldID, newID)
				_, err = coordinator.Reassign(ctx, deptID, oldID, newID, "admin@college.edu")
			default:
				label = fmt.Sprintf("run %d step %d release(%d)", run, step, facultyID)
				_, err = coordinator.Release(ctx, facultyID, "admin@college.edu")
			}

			// Conflicts and validation rejections are expected outcomes of a
			// random sequence; a degraded result is not, since no store
			// failures are injected here.
			if err != nil {
				assert.False(t, appErrors.HasCode(err, appErrors.ErrDegraded), "unexpected degraded result after %s: %v", label, err)
			}
			assertChairInvariants(t, faculty, departments, label)
		}
	}
}
