package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/offday-api/internal/middleware"
	"github.com/noah-isme/offday-api/internal/models"
	appErrors "github.com/noah-isme/offday-api/pkg/errors"
	"github.com/noah-isme/offday-api/pkg/response"
)

// claimsFromContext pulls the authenticated claims or writes a 401.
func claimsFromContext(c *gin.Context) (*models.JWTClaims, bool) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok || claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	return claims, true
}

// queryInt parses an integer query parameter, falling back on garbage.
func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
