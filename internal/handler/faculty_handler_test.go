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

type facultyServiceMock struct {
	listResp     []models.Faculty
	listPage     *models.Pagination
	listErr      error
	getResp      *models.Faculty
	getErr       error
	createResp   *models.Faculty
	createErr    error
	updateResp   *models.Faculty
	updateErr    error
	setResp      *models.Faculty
	setErr       error
	toggleErr    error
	demoteResp   *models.Department
	demoteErr    error
	deleteResp   *models.Department
	deleteErr    error
	lastFilter   models.FacultyFilter
	lastID       int64
	lastActive   bool
	lastActor    string
	listCalled   bool
	createCalled bool
	toggleCalled bool
	demoteCalled bool
	deleteCalled bool
}

func (m *facultyServiceMock) List(ctx context.Context, filter models.FacultyFilter) ([]models.Faculty, *models.Pagination, error) {
	m.listCalled = true
	m.lastFilter = filter
	return m.listResp, m.listPage, m.listErr
}

func (m *facultyServiceMock) Get(ctx context.Context, id int64) (*models.Faculty, error) {
	m.lastID = id
	return m.getResp, m.getErr
}

func (m *facultyServiceMock) Create(ctx context.Context, req service.CreateFacultyRequest, adminEmail string) (*models.Faculty, error) {
	m.createCalled = true
	m.lastActor = adminEmail
	return m.createResp, m.createErr
}

func (m *facultyServiceMock) Update(ctx context.Context, id int64, req service.UpdateFacultyRequest) (*models.Faculty, error) {
	m.lastID = id
	return m.updateResp, m.updateErr
}

func (m *facultyServiceMock) SetActive(ctx context.Context, id int64, active bool) (*models.Faculty, error) {
	m.lastID = id
	m.lastActive = active
	return m.setResp, m.setErr
}

func (m *facultyServiceMock) ToggleHodFlag(ctx context.Context, id int64) error {
	m.toggleCalled = true
	m.lastID = id
	return m.toggleErr
}

func (m *facultyServiceMock) Demote(ctx context.Context, id int64, actorEmail string) (*models.Department, error) {
	m.demoteCalled = true
	m.lastID = id
	m.lastActor = actorEmail
	return m.demoteResp, m.demoteErr
}

func (m *facultyServiceMock) Delete(ctx context.Context, id int64, actorEmail string) (*models.Department, error) {
	m.deleteCalled = true
	m.lastID = id
	m.lastActor = actorEmail
	return m.deleteResp, m.deleteErr
}

func facultyTestContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{AdminID: 1, Email: "admin@college.edu", Role: models.RoleSuperAdmin})
	return c, w
}

func TestFacultyHandlerList(t *testing.T) {
	mockSvc := &facultyServiceMock{
		listResp: []models.Faculty{{ID: 1, FirstName: "Asha", LastName: "Rao"}},
		listPage: &models.Pagination{Page: 2, PageSize: 10, TotalCount: 11},
	}
	handler := NewFacultyHandler(mockSvc)

	c, w := facultyTestContext(t)
	req, _ := http.NewRequest(http.MethodGet, "/faculty?search=rao&active=true&page=2&page_size=10", nil)
	c.Request = req

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mockSvc.listCalled)
	assert.Equal(t, "rao", mockSvc.lastFilter.Search)
	require.NotNil(t, mockSvc.lastFilter.Active)
	assert.True(t, *mockSvc.lastFilter.Active)
	assert.Equal(t, 2, mockSvc.lastFilter.Page)
	assert.Equal(t, 10, mockSvc.lastFilter.PageSize)
	assert.Equal(t, "admin@college.edu", mockSvc.lastFilter.AdminEmail)
}

func TestFacultyHandlerGetInvalidID(t *testing.T) {
	handler := NewFacultyHandler(&facultyServiceMock{})

	c, w := facultyTestContext(t)
	req, _ := http.NewRequest(http.MethodGet, "/faculty/abc", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "abc"}}

	handler.Get(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFacultyHandlerGetNotFound(t *testing.T) {
	mockSvc := &facultyServiceMock{getErr: appErrors.ErrNotFound}
	handler := NewFacultyHandler(mockSvc)

	c, w := facultyTestContext(t)
	req, _ := http.NewRequest(http.MethodGet, "/faculty/7", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "7"}}

	handler.Get(c)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, int64(7), mockSvc.lastID)
}

func TestFacultyHandlerCreate(t *testing.T) {
	mockSvc := &facultyServiceMock{
		createResp: &models.Faculty{ID: 5, FirstName: "Asha", LastName: "Rao", Email: "asha@college.edu"},
	}
	handler := NewFacultyHandler(mockSvc)

	payload, _ := json.Marshal(service.CreateFacultyRequest{
		FirstName: "Asha",
		LastName:  "Rao",
		Email:     "asha@college.edu",
	})
	c, w := facultyTestContext(t)
	req, _ := http.NewRequest(http.MethodPost, "/faculty", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, mockSvc.createCalled)
	assert.Equal(t, "admin@college.edu", mockSvc.lastActor)
}

func TestFacultyHandlerCreateInvalidBody(t *testing.T) {
	mockSvc := &facultyServiceMock{}
	handler := NewFacultyHandler(mockSvc)

	c, w := facultyTestContext(t)
	req, _ := http.NewRequest(http.MethodPost, "/faculty", bytes.NewBufferString(`{"first_name":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, mockSvc.createCalled)
}

func TestFacultyHandlerCreateConflict(t *testing.T) {
	mockSvc := &facultyServiceMock{
		createErr: appErrors.Clone(appErrors.ErrConflict, "email already registered"),
	}
	handler := NewFacultyHandler(mockSvc)

	payload, _ := json.Marshal(service.CreateFacultyRequest{
		FirstName: "Asha",
		LastName:  "Rao",
		Email:     "asha@college.edu",
	})
	c, w := facultyTestContext(t)
	req, _ := http.NewRequest(http.MethodPost, "/faculty", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestFacultyHandlerSetStatus(t *testing.T) {
	mockSvc := &facultyServiceMock{
		setResp: &models.Faculty{ID: 3, IsActive: false},
	}
	handler := NewFacultyHandler(mockSvc)

	c, w := facultyTestContext(t)
	req, _ := http.NewRequest(http.MethodPatch, "/faculty/3/status", bytes.NewBufferString(`{"is_active":false}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "3"}}

	handler.SetStatus(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(3), mockSvc.lastID)
	assert.False(t, mockSvc.lastActive)
}

func TestFacultyHandlerSetStatusPreconditionFailed(t *testing.T) {
	mockSvc := &facultyServiceMock{
		setErr: appErrors.Clone(appErrors.ErrPreconditionFailed, "faculty has no department"),
	}
	handler := NewFacultyHandler(mockSvc)

	c, w := facultyTestContext(t)
	req, _ := http.NewRequest(http.MethodPatch, "/faculty/3/status", bytes.NewBufferString(`{"is_active":true}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "3"}}

	handler.SetStatus(c)
	require.Equal(t, http.StatusPreconditionFailed, w.Code)
}

func TestFacultyHandlerToggleHodRejected(t *testing.T) {
	mockSvc := &facultyServiceMock{
		toggleErr: appErrors.Clone(appErrors.ErrInvalidOperation, "the HOD flag cannot be toggled directly"),
	}
	handler := NewFacultyHandler(mockSvc)

	c, w := facultyTestContext(t)
	req, _ := http.NewRequest(http.MethodPatch, "/faculty/2/hod", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "2"}}

	handler.ToggleHod(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.True(t, mockSvc.toggleCalled)
}

func TestFacultyHandlerDemote(t *testing.T) {
	mockSvc := &facultyServiceMock{
		demoteResp: &models.Department{ID: 10, Name: "Physics", IsActive: false},
	}
	handler := NewFacultyHandler(mockSvc)

	c, w := facultyTestContext(t)
	req, _ := http.NewRequest(http.MethodPost, "/faculty/1/demote", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "1"}}

	handler.Demote(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mockSvc.demoteCalled)
	assert.Equal(t, "admin@college.edu", mockSvc.lastActor)
	assert.Contains(t, w.Body.String(), "deactivated_department")
	assert.Contains(t, w.Body.String(), "Physics")
}

func TestFacultyHandlerDeleteConflict(t *testing.T) {
	mockSvc := &facultyServiceMock{
		deleteErr: appErrors.Clone(appErrors.ErrConflict, "concurrent modification detected"),
	}
	handler := NewFacultyHandler(mockSvc)

	c, w := facultyTestContext(t)
	req, _ := http.NewRequest(http.MethodDelete, "/faculty/1", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "1"}}

	handler.Delete(c)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.True(t, mockSvc.deleteCalled)
}

func TestFacultyHandlerDeleteReportsAffectedDepartment(t *testing.T) {
	mockSvc := &facultyServiceMock{
		deleteResp: &models.Department{ID: 10, Name: "Physics", IsActive: false},
	}
	handler := NewFacultyHandler(mockSvc)

	c, w := facultyTestContext(t)
	req, _ := http.NewRequest(http.MethodDelete, "/faculty/1", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "1"}}

	handler.Delete(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "deactivated_department")
}
