package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/campuscore/college-admin-api/internal/models"
	"github.com/campuscore/college-admin-api/internal/repository"
	appErrors "github.com/campuscore/college-admin-api/pkg/errors"
)

type coordinatorFacultyStore interface {
	FindByID(ctx context.Context, id int64) (*models.Faculty, error)
	SetHodFlag(ctx context.Context, id int64, hod bool, expectedVersion int64) error
}

type coordinatorDepartmentStore interface {
	FindByID(ctx context.Context, id int64) (*models.Department, error)
	FindByHodID(ctx context.Context, facultyID int64) (*models.Department, error)
	SetHod(ctx context.Context, id int64, hodID *int64, active bool, expectedVersion int64) error
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type transitionRecorder interface {
	RecordHodTransition(kind, outcome string)
}

// HodCoordinator owns every transition over the
// {faculty.is_hod, departments.hod_id, departments.is_active} triple.
//
// A faculty member chairs at most one department and a department is only
// active while it has a chair. Each transition is a short sequence of
// conditional writes against the two stores; a concurrent writer surfacing
// through a version mismatch aborts the transition with a conflict, and a
// failure after the first write triggers a compensating write so the stores
// never disagree about the same assignment edge. When the compensation
// itself fails the caller receives a degraded error so operators know the
// rows need manual reconciliation.
type HodCoordinator struct {
	faculty     coordinatorFacultyStore
	departments coordinatorDepartmentStore
	audit       auditLogger
	metrics     transitionRecorder
	logger      *zap.Logger
}

// NewHodCoordinator constructs a HodCoordinator. Audit and metrics may be nil.
func NewHodCoordinator(faculty coordinatorFacultyStore, departments coordinatorDepartmentStore, audit auditLogger, metrics transitionRecorder, logger *zap.Logger) *HodCoordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HodCoordinator{faculty: faculty, departments: departments, audit: audit, metrics: metrics, logger: logger}
}

func (c *HodCoordinator) recordOutcome(kind string, err error) {
	if c.metrics == nil {
		return
	}
	switch {
	case err == nil:
		c.metrics.RecordHodTransition(kind, "ok")
	case appErrors.HasCode(err, appErrors.ErrDegraded):
		c.metrics.RecordHodTransition(kind, "degraded")
	case appErrors.HasCode(err, appErrors.ErrConflict):
		c.metrics.RecordHodTransition(kind, "conflict")
	default:
		c.metrics.RecordHodTransition(kind, "error")
	}
}

// Assign makes the faculty the chair of the department and activates it.
// It fails with a conflict when the candidate already chairs any department.
func (c *HodCoordinator) Assign(ctx context.Context, departmentID, facultyID int64, actorEmail string) (dept *models.Department, err error) {
	defer func() { c.recordOutcome("assign", err) }()

	department, err := c.departments.FindByID(ctx, departmentID)
	if err != nil {
		return nil, c.loadErr(err, "department")
	}
	candidate, err := c.faculty.FindByID(ctx, facultyID)
	if err != nil {
		return nil, c.loadErr(err, "faculty")
	}

	if candidate.IsHOD {
		chaired, err := c.departments.FindByHodID(ctx, facultyID)
		if err != nil {
			return nil, c.storeErr(err, "failed to resolve chaired department")
		}
		if chaired != nil && chaired.ID == departmentID {
			// Assigning the current chair again is a no-op.
			return chaired, nil
		}
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("%s is already HOD of %s", candidate.FullName(), chairedName(chaired)))
	}
	if department.HodID != nil && *department.HodID != facultyID {
		return nil, appErrors.Clone(appErrors.ErrConflict, "department already has an HOD; use reassign")
	}

	if err := c.departments.SetHod(ctx, departmentID, &facultyID, true, department.RowVersion); err != nil {
		return nil, c.storeErr(err, "failed to update department chair")
	}

	if err := c.faculty.SetHodFlag(ctx, facultyID, true, candidate.RowVersion); err != nil {
		// Revert the department write so the stores keep agreeing.
		if compErr := c.departments.SetHod(ctx, departmentID, department.HodID, department.IsActive, department.RowVersion+1); compErr != nil {
			c.logger.Error("hod assign compensation failed",
				zap.Int64("department_id", departmentID),
				zap.Int64("faculty_id", facultyID),
				zap.Error(compErr))
			return nil, appErrors.Wrap(err, appErrors.ErrDegraded.Code, appErrors.ErrDegraded.Status,
				"hod assignment partially applied; department and faculty may disagree")
		}
		return nil, c.storeErr(err, "failed to promote faculty")
	}

	updated := *department
	updated.HodID = &facultyID
	updated.IsActive = true
	updated.RowVersion++

	c.emitAudit(ctx, actorEmail, models.AuditActionHodAssign, departmentID, department.HodID, &facultyID)
	return &updated, nil
}

// Reassign replaces the department's chair. Validation of the incoming chair
// precedes the demotion of the outgoing one; a failure after the demotion
// re-promotes the old chair best effort.
func (c *HodCoordinator) Reassign(ctx context.Context, departmentID, oldFacultyID, newFacultyID int64, actorEmail string) (dept *models.Department, err error) {
	defer func() { c.recordOutcome("reassign", err) }()

	if oldFacultyID == newFacultyID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "new HOD must differ from the current HOD")
	}

	department, err := c.departments.FindByID(ctx, departmentID)
	if err != nil {
		return nil, c.loadErr(err, "department")
	}
	if department.HodID == nil || *department.HodID != oldFacultyID {
		return nil, appErrors.Clone(appErrors.ErrConflict, "department chair changed concurrently")
	}

	candidate, err := c.faculty.FindByID(ctx, newFacultyID)
	if err != nil {
		return nil, c.loadErr(err, "faculty")
	}
	if candidate.IsHOD {
		chaired, err := c.departments.FindByHodID(ctx, newFacultyID)
		if err != nil {
			return nil, c.storeErr(err, "failed to resolve chaired department")
		}
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("%s is already HOD of %s", candidate.FullName(), chairedName(chaired)))
	}

	outgoing, err := c.faculty.FindByID(ctx, oldFacultyID)
	if err != nil {
		return nil, c.loadErr(err, "faculty")
	}

	if err := c.faculty.SetHodFlag(ctx, oldFacultyID, false, outgoing.RowVersion); err != nil {
		return nil, c.storeErr(err, "failed to demote outgoing HOD")
	}

	if err := c.faculty.SetHodFlag(ctx, newFacultyID, true, candidate.RowVersion); err != nil {
		if compErr := c.faculty.SetHodFlag(ctx, oldFacultyID, true, outgoing.RowVersion+1); compErr != nil {
			c.logger.Error("hod reassign compensation failed",
				zap.Int64("department_id", departmentID),
				zap.Int64("old_faculty_id", oldFacultyID),
				zap.Error(compErr))
			return nil, appErrors.Wrap(err, appErrors.ErrDegraded.Code, appErrors.ErrDegraded.Status,
				"hod reassignment partially applied; outgoing HOD could not be restored")
		}
		return nil, c.storeErr(err, "failed to promote incoming HOD")
	}

	if err := c.departments.SetHod(ctx, departmentID, &newFacultyID, department.IsActive, department.RowVersion); err != nil {
		demoteErr := c.faculty.SetHodFlag(ctx, newFacultyID, false, candidate.RowVersion+1)
		promoteErr := c.faculty.SetHodFlag(ctx, oldFacultyID, true, outgoing.RowVersion+1)
		if demoteErr != nil || promoteErr != nil {
			c.logger.Error("hod reassign compensation failed",
				zap.Int64("department_id", departmentID),
				zap.NamedError("demote_new", demoteErr),
				zap.NamedError("restore_old", promoteErr))
			return nil, appErrors.Wrap(err, appErrors.ErrDegraded.Code, appErrors.ErrDegraded.Status,
				"hod reassignment partially applied; chair flags may disagree with the department")
		}
		return nil, c.storeErr(err, "failed to update department chair")
	}

	updated := *department
	updated.HodID = &newFacultyID
	updated.RowVersion++

	c.emitAudit(ctx, actorEmail, models.AuditActionHodReassign, departmentID, &oldFacultyID, &newFacultyID)
	return &updated, nil
}

// Release discharges any chair obligation held by the faculty: the chaired
// department loses its HOD and is deactivated, and the faculty's flag is
// cleared. It is a no-op returning nil when the faculty chairs nothing, and
// calling it twice in a row settles on the same state.
func (c *HodCoordinator) Release(ctx context.Context, facultyID int64, actorEmail string) (dept *models.Department, err error) {
	defer func() { c.recordOutcome("release", err) }()

	faculty, err := c.faculty.FindByID(ctx, facultyID)
	if err != nil {
		return nil, c.loadErr(err, "faculty")
	}

	department, err := c.departments.FindByHodID(ctx, facultyID)
	if err != nil {
		return nil, c.storeErr(err, "failed to resolve chaired department")
	}
	if department == nil {
		if faculty.IsHOD {
			// Stale flag with no chaired department: heal it.
			if err := c.faculty.SetHodFlag(ctx, facultyID, false, faculty.RowVersion); err != nil {
				return nil, c.storeErr(err, "failed to clear stale HOD flag")
			}
		}
		return nil, nil
	}

	if err := c.departments.SetHod(ctx, department.ID, nil, false, department.RowVersion); err != nil {
		return nil, c.storeErr(err, "failed to release department chair")
	}

	if err := c.faculty.SetHodFlag(ctx, facultyID, false, faculty.RowVersion); err != nil {
		if compErr := c.departments.SetHod(ctx, department.ID, department.HodID, department.IsActive, department.RowVersion+1); compErr != nil {
			c.logger.Error("hod release compensation failed",
				zap.Int64("department_id", department.ID),
				zap.Int64("faculty_id", facultyID),
				zap.Error(compErr))
			return nil, appErrors.Wrap(err, appErrors.ErrDegraded.Code, appErrors.ErrDegraded.Status,
				"hod release partially applied; department deactivated but faculty flag not cleared")
		}
		return nil, c.storeErr(err, "failed to demote faculty")
	}

	released := *department
	released.HodID = nil
	released.IsActive = false
	released.RowVersion++

	c.emitAudit(ctx, actorEmail, models.AuditActionHodRelease, department.ID, department.HodID, nil)
	return &released, nil
}

// Demote is the explicit admin action variant of Release; the effect and the
// returned affected department are identical.
func (c *HodCoordinator) Demote(ctx context.Context, facultyID int64, actorEmail string) (*models.Department, error) {
	return c.Release(ctx, facultyID, actorEmail)
}

func (c *HodCoordinator) loadErr(err error, entity string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, entity+" not found")
	}
	return c.storeErr(err, "failed to load "+entity)
}

func (c *HodCoordinator) storeErr(err error, message string) error {
	switch {
	case errors.Is(err, repository.ErrRowConflict):
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "concurrent modification detected")
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		return appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, message)
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
	}
}

func chairedName(d *models.Department) string {
	if d == nil {
		return "another department"
	}
	return d.Name
}

func (c *HodCoordinator) emitAudit(ctx context.Context, actorEmail, action string, departmentID int64, oldHod, newHod *int64) {
	if c.audit == nil {
		return
	}
	resourceID := strconv.FormatInt(departmentID, 10)
	newValues, _ := json.Marshal(map[string]interface{}{"hod_id": newHod})
	oldValues, _ := json.Marshal(map[string]interface{}{"hod_id": oldHod})
	var actor *string
	if actorEmail != "" {
		actor = &actorEmail
	}
	log := &models.AuditLog{
		ActorEmail: actor,
		Action:     action,
		Resource:   "department",
		ResourceID: &resourceID,
		OldValues:  oldValues,
		NewValues:  newValues,
	}
	if err := c.audit.CreateAuditLog(ctx, log); err != nil {
		c.logger.Warn("failed to record hod audit", zap.Error(err))
	}
}
