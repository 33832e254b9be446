package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/offday-api/internal/models"
	appErrors "github.com/noah-isme/offday-api/pkg/errors"
)

type validatorMock struct {
	claims *models.JWTClaims
	err    error
}

func (m *validatorMock) ValidateToken(_ string) (*models.JWTClaims, error) {
	return m.claims, m.err
}

func newTestRouter(validator TokenValidator, roles ...models.UserRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := []gin.HandlerFunc{JWTAuth(validator)}
	if len(roles) > 0 {
		handlers = append(handlers, RequireRoles(roles...))
	}
	handlers = append(handlers, func(c *gin.Context) {
		claims, _ := ClaimsFromContext(c)
		c.JSON(http.StatusOK, gin.H{"email": claims.Email})
	})
	r.GET("/protected", handlers...)
	return r
}

func TestJWTAuthMissingHeader(t *testing.T) {
	r := newTestRouter(&validatorMock{})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)

	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuthMalformedHeader(t *testing.T) {
	r := newTestRouter(&validatorMock{})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Token abc")

	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuthInvalidToken(t *testing.T) {
	r := newTestRouter(&validatorMock{err: appErrors.ErrUnauthorized})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer bad-token")

	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuthSetsClaims(t *testing.T) {
	claims := &models.JWTClaims{UserID: "u-1", Role: models.RoleTeacher, Email: "jane@school.edu"}
	r := newTestRouter(&validatorMock{claims: claims})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer good-token")

	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "jane@school.edu")
}

func TestRequireRolesForbidden(t *testing.T) {
	claims := &models.JWTClaims{UserID: "u-1", Role: models.RoleTeacher}
	r := newTestRouter(&validatorMock{claims: claims}, models.RoleDirector, models.RoleChairman)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer good-token")

	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireRolesAllowed(t *testing.T) {
	claims := &models.JWTClaims{UserID: "u-2", Role: models.RoleDirector, Email: "dir@school.edu"}
	r := newTestRouter(&validatorMock{claims: claims}, models.RoleDirector)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer good-token")

	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
