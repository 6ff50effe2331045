package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuscore/college-admin-api/internal/middleware"
	"github.com/campuscore/college-admin-api/internal/models"
	"github.com/campuscore/college-admin-api/internal/service"
	appErrors "github.com/campuscore/college-admin-api/pkg/errors"
)

type departmentServiceMock struct {
	listResp       []models.Department
	listPage       *models.Pagination
	listErr        error
	getResp        *models.Department
	getErr         error
	createResp     *models.Department
	createErr      error
	updateResp     *models.Department
	updateErr      error
	setResp        *models.Department
	setErr         error
	assignResp     *models.Department
	assignErr      error
	reassignResp   *models.Department
	reassignErr    error
	releaseResp    *models.Department
	releaseErr     error
	deleteErr      error
	lastID         int64
	lastFacultyID  int64
	lastOldFaculty int64
	lastNewFaculty int64
	lastActor      string
	assignCalled   bool
	reassignCalled bool
	releaseCalled  bool
	deleteCalled   bool
}

func (m *departmentServiceMock) List(ctx context.Context, filter models.DepartmentFilter) ([]models.Department, *models.Pagination, error) {
	return m.listResp, m.listPage, m.listErr
}

func (m *departmentServiceMock) Get(ctx context.Context, id int64) (*models.Department, error) {
	m.lastID = id
	return m.getResp, m.getErr
}

func (m *departmentServiceMock) Create(ctx context.Context, req service.CreateDepartmentRequest, adminEmail string) (*models.Department, error) {
	m.lastActor = adminEmail
	return m.createResp, m.createErr
}

func (m *departmentServiceMock) Update(ctx context.Context, id int64, req service.UpdateDepartmentRequest, actorEmail string) (*models.Department, error) {
	m.lastID = id
	m.lastActor = actorEmail
	return m.updateResp, m.updateErr
}

func (m *departmentServiceMock) SetActive(ctx context.Context, id int64, active bool) (*models.Department, error) {
	m.lastID = id
	return m.setResp, m.setErr
}

func (m *departmentServiceMock) AssignHod(ctx context.Context, id, facultyID int64, actorEmail string) (*models.Department, error) {
	m.assignCalled = true
	m.lastID = id
	m.lastFacultyID = facultyID
	m.lastActor = actorEmail
	return m.assignResp, m.assignErr
}

func (m *departmentServiceMock) ReassignHod(ctx context.Context, id, oldFacultyID, newFacultyID int64, actorEmail string) (*models.Department, error) {
	m.reassignCalled = true
	m.lastID = id
	m.lastOldFaculty = oldFacultyID
	m.lastNewFaculty = newFacultyID
	m.lastActor = actorEmail
	return m.reassignResp, m.reassignErr
}

func (m *departmentServiceMock) ReleaseHod(ctx context.Context, id int64, actorEmail string) (*models.Department, error) {
	m.releaseCalled = true
	m.lastID = id
	m.lastActor = actorEmail
	return m.releaseResp, m.releaseErr
}

func (m *departmentServiceMock) Delete(ctx context.Context, id int64, actorEmail string) error {
	m.deleteCalled = true
	m.lastID = id
	m.lastActor = actorEmail
	return m.deleteErr
}

func departmentTestContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{AdminID: 1, Email: "admin@college.edu", Role: models.RoleAdmin})
	return c, w
}

func TestDepartmentHandlerCreateInvalidState(t *testing.T) {
	mockSvc := &departmentServiceMock{
		createErr: appErrors.Clone(appErrors.ErrInvalidState, "an active department requires an HOD"),
	}
	handler := NewDepartmentHandler(mockSvc)

	payload, _ := json.Marshal(service.CreateDepartmentRequest{Name: "Physics", IsActive: true})
	c, w := departmentTestContext(t)
	req, _ := http.NewRequest(http.MethodPost, "/departments", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestDepartmentHandlerCreate(t *testing.T) {
	mockSvc := &departmentServiceMock{
		createResp: &models.Department{ID: 10, Name: "Physics"},
	}
	handler := NewDepartmentHandler(mockSvc)

	payload, _ := json.Marshal(service.CreateDepartmentRequest{Name: "Physics"})
	c, w := departmentTestContext(t)
	req, _ := http.NewRequest(http.MethodPost, "/departments", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "admin@college.edu", mockSvc.lastActor)
}

func TestDepartmentHandlerAssignHod(t *testing.T) {
	hodID := int64(7)
	mockSvc := &departmentServiceMock{
		assignResp: &models.Department{ID: 10, Name: "Physics", HodID: &hodID, IsActive: true},
	}
	handler := NewDepartmentHandler(mockSvc)

	c, w := departmentTestContext(t)
	req, _ := http.NewRequest(http.MethodPost, "/departments/10/hod", bytes.NewBufferString(`{"faculty_id":7}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "10"}}

	handler.AssignHod(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mockSvc.assignCalled)
	assert.Equal(t, int64(10), mockSvc.lastID)
	assert.Equal(t, int64(7), mockSvc.lastFacultyID)
}

func TestDepartmentHandlerAssignHodMissingFaculty(t *testing.T) {
	mockSvc := &departmentServiceMock{}
	handler := NewDepartmentHandler(mockSvc)

	c, w := departmentTestContext(t)
	req, _ := http.NewRequest(http.MethodPost, "/departments/10/hod", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "10"}}

	handler.AssignHod(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, mockSvc.assignCalled)
}

func TestDepartmentHandlerAssignHodConflict(t *testing.T) {
	mockSvc := &departmentServiceMock{
		assignErr: appErrors.Clone(appErrors.ErrConflict, "faculty already chairs Chemistry"),
	}
	handler := NewDepartmentHandler(mockSvc)

	c, w := departmentTestContext(t)
	req, _ := http.NewRequest(http.MethodPost, "/departments/10/hod", bytes.NewBufferString(`{"faculty_id":2}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "10"}}

	handler.AssignHod(c)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "Chemistry")
}

func TestDepartmentHandlerReassignHod(t *testing.T) {
	hodID := int64(2)
	mockSvc := &departmentServiceMock{
		reassignResp: &models.Department{ID: 10, Name: "Physics", HodID: &hodID, IsActive: true},
	}
	handler := NewDepartmentHandler(mockSvc)

	c, w := departmentTestContext(t)
	req, _ := http.NewRequest(http.MethodPut, "/departments/10/hod", bytes.NewBufferString(`{"old_faculty_id":1,"new_faculty_id":2}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "10"}}

	handler.ReassignHod(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mockSvc.reassignCalled)
	assert.Equal(t, int64(1), mockSvc.lastOldFaculty)
	assert.Equal(t, int64(2), mockSvc.lastNewFaculty)
}

func TestDepartmentHandlerReassignHodInvalidBody(t *testing.T) {
	mockSvc := &departmentServiceMock{}
	handler := NewDepartmentHandler(mockSvc)

	c, w := departmentTestContext(t)
	req, _ := http.NewRequest(http.MethodPut, "/departments/10/hod", bytes.NewBufferString(`{"old_faculty_id":1}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "10"}}

	handler.ReassignHod(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, mockSvc.reassignCalled)
}

func TestDepartmentHandlerReleaseHod(t *testing.T) {
	mockSvc := &departmentServiceMock{
		releaseResp: &models.Department{ID: 10, Name: "Physics", IsActive: false},
	}
	handler := NewDepartmentHandler(mockSvc)

	c, w := departmentTestContext(t)
	req, _ := http.NewRequest(http.MethodDelete, "/departments/10/hod", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "10"}}

	handler.ReleaseHod(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mockSvc.releaseCalled)
	assert.Equal(t, "admin@college.edu", mockSvc.lastActor)
}

func TestDepartmentHandlerReleaseHodDegraded(t *testing.T) {
	mockSvc := &departmentServiceMock{
		releaseErr: appErrors.Clone(appErrors.ErrDegraded, "partial failure, manual review required"),
	}
	handler := NewDepartmentHandler(mockSvc)

	c, w := departmentTestContext(t)
	req, _ := http.NewRequest(http.MethodDelete, "/departments/10/hod", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "10"}}

	handler.ReleaseHod(c)
	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestDepartmentHandlerDelete(t *testing.T) {
	mockSvc := &departmentServiceMock{}
	handler := NewDepartmentHandler(mockSvc)

	c, w := departmentTestContext(t)
	req, _ := http.NewRequest(http.MethodDelete, "/departments/10", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "10"}}

	handler.Delete(c)
	c.Writer.WriteHeaderNow()
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, mockSvc.deleteCalled)
}

func TestDepartmentHandlerSetStatusRequiresHod(t *testing.T) {
	mockSvc := &departmentServiceMock{
		setErr: appErrors.Clone(appErrors.ErrPreconditionFailed, "department has no HOD"),
	}
	handler := NewDepartmentHandler(mockSvc)

	c, w := departmentTestContext(t)
	req, _ := http.NewRequest(http.MethodPatch, "/departments/10/status", bytes.NewBufferString(`{"is_active":true}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "10"}}

	handler.SetStatus(c)
	require.Equal(t, http.StatusPreconditionFailed, w.Code)
}
