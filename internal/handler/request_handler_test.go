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

	"github.com/noah-isme/offday-api/internal/dto"
	"github.com/noah-isme/offday-api/internal/middleware"
	"github.com/noah-isme/offday-api/internal/models"
	appErrors "github.com/noah-isme/offday-api/pkg/errors"
)

type requestServiceMock struct {
	request        *models.OffdayRequest
	requests       []models.OffdayRequest
	pagination     *models.Pagination
	err            error
	directorCalled bool
	chairmanCalled bool
}

func (m *requestServiceMock) Create(_ context.Context, _ *models.JWTClaims, _ dto.CreateOffdayRequest) (*models.OffdayRequest, error) {
	return m.request, m.err
}

func (m *requestServiceMock) Get(_ context.Context, _ *models.JWTClaims, _ string) (*models.OffdayRequest, error) {
	return m.request, m.err
}

func (m *requestServiceMock) List(_ context.Context, _ *models.JWTClaims, _ dto.RequestListQuery) ([]models.OffdayRequest, *models.Pagination, error) {
	return m.requests, m.pagination, m.err
}

func (m *requestServiceMock) Update(_ context.Context, _ *models.JWTClaims, _ string, _ dto.UpdateOffdayRequest) (*models.OffdayRequest, error) {
	return m.request, m.err
}

func (m *requestServiceMock) Delete(_ context.Context, _ *models.JWTClaims, _ string) error {
	return m.err
}

func (m *requestServiceMock) DirectorDecide(_ context.Context, _ *models.JWTClaims, _ string, _ dto.DirectorDecisionRequest) (*models.OffdayRequest, error) {
	m.directorCalled = true
	return m.request, m.err
}

func (m *requestServiceMock) ChairmanDecide(_ context.Context, _ *models.JWTClaims, _ string, _ dto.ChairmanDecisionRequest) (*models.OffdayRequest, error) {
	m.chairmanCalled = true
	return m.request, m.err
}

func testContext(t *testing.T, method, target string, body interface{}, claims *models.JWTClaims) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, target, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c, w
}

func TestRequestHandlerCreate(t *testing.T) {
	mock := &requestServiceMock{request: &models.OffdayRequest{ID: "req-1", Status: models.RequestStatusPending}}
	handler := NewRequestHandler(mock, nil)

	c, w := testContext(t, http.MethodPost, "/requests", dto.CreateOffdayRequest{
		Subject:     "Family leave",
		StartDate:   "2026-09-07",
		EndDate:     "2026-09-09",
		Description: "travelling home",
	}, &models.JWTClaims{UserID: "u-1", Role: models.RoleTeacher, Email: "jane@school.edu"})

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestRequestHandlerCreateInvalidBody(t *testing.T) {
	handler := NewRequestHandler(&requestServiceMock{}, nil)

	c, w := testContext(t, http.MethodPost, "/requests", nil, &models.JWTClaims{Role: models.RoleTeacher})
	c.Request.Body = http.NoBody

	handler.Create(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequestHandlerCreateUnauthenticated(t *testing.T) {
	handler := NewRequestHandler(&requestServiceMock{}, nil)

	c, w := testContext(t, http.MethodPost, "/requests", dto.CreateOffdayRequest{}, nil)

	handler.Create(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequestHandlerListEmpty(t *testing.T) {
	mock := &requestServiceMock{pagination: models.NewPagination(1, 10, 0)}
	handler := NewRequestHandler(mock, nil)

	c, w := testContext(t, http.MethodGet, "/requests?page=1&limit=10", nil, &models.JWTClaims{Role: models.RoleTeacher})

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"data":[]`)
}

func TestRequestHandlerDecideRoutesByRole(t *testing.T) {
	mock := &requestServiceMock{request: &models.OffdayRequest{ID: "req-1", Status: models.RequestStatusInProgress}}
	handler := NewRequestHandler(mock, nil)

	c, w := testContext(t, http.MethodPatch, "/requests/req-1/status", dto.DirectorDecisionRequest{
		Action: models.DecisionForward,
	}, &models.JWTClaims{UserID: "u-2", Role: models.RoleDirector})
	c.Params = gin.Params{{Key: "id", Value: "req-1"}}

	handler.Decide(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mock.directorCalled)
	assert.False(t, mock.chairmanCalled)
}

func TestRequestHandlerDecideChairman(t *testing.T) {
	mock := &requestServiceMock{request: &models.OffdayRequest{ID: "req-1", Status: models.RequestStatusAccepted}}
	handler := NewRequestHandler(mock, nil)

	c, w := testContext(t, http.MethodPatch, "/requests/req-1/status", dto.ChairmanDecisionRequest{
		Action: models.DecisionAccept,
	}, &models.JWTClaims{UserID: "u-3", Role: models.RoleChairman})
	c.Params = gin.Params{{Key: "id", Value: "req-1"}}

	handler.Decide(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mock.chairmanCalled)
}

func TestRequestHandlerDecideForbiddenForTeachers(t *testing.T) {
	handler := NewRequestHandler(&requestServiceMock{}, nil)

	c, w := testContext(t, http.MethodPatch, "/requests/req-1/status", dto.DirectorDecisionRequest{
		Action: models.DecisionForward,
	}, &models.JWTClaims{Role: models.RoleTeacher})
	c.Params = gin.Params{{Key: "id", Value: "req-1"}}

	handler.Decide(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequestHandlerDecideConflictPropagates(t *testing.T) {
	mock := &requestServiceMock{err: appErrors.Clone(appErrors.ErrConflict, "request already processed")}
	handler := NewRequestHandler(mock, nil)

	c, w := testContext(t, http.MethodPatch, "/requests/req-1/status", dto.DirectorDecisionRequest{
		Action: models.DecisionForward,
	}, &models.JWTClaims{Role: models.RoleDirector})
	c.Params = gin.Params{{Key: "id", Value: "req-1"}}

	handler.Decide(c)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRequestHandlerDeleteNoContent(t *testing.T) {
	handler := NewRequestHandler(&requestServiceMock{}, nil)

	c, w := testContext(t, http.MethodDelete, "/requests/req-1", nil, &models.JWTClaims{Role: models.RoleTeacher})
	c.Params = gin.Params{{Key: "id", Value: "req-1"}}

	handler.Delete(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, w.Code)
}
