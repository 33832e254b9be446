package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/offday-api/internal/dto"
	"github.com/noah-isme/offday-api/internal/models"
	appErrors "github.com/noah-isme/offday-api/pkg/errors"
	"github.com/noah-isme/offday-api/pkg/response"
)

// UserService serves profile and leave-ledger reads.
type UserService interface {
	Profile(ctx context.Context, claims *models.JWTClaims) (*dto.ProfileResponse, error)
	UpdateProfile(ctx context.Context, claims *models.JWTClaims, req dto.UpdateProfileRequest) (*dto.ProfileResponse, error)
	Offdays(ctx context.Context, claims *models.JWTClaims) ([]models.LeaveInterval, error)
}

// UserHandler exposes profile endpoints.
type UserHandler struct {
	users  UserService
	logger *zap.Logger
}

// NewUserHandler constructs the handler.
func NewUserHandler(users UserService, logger *zap.Logger) *UserHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserHandler{users: users, logger: logger}
}

// Profile handles GET /profile.
func (h *UserHandler) Profile(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		return
	}
	profile, err := h.users.Profile(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// UpdateProfile handles PUT /profile.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		return
	}
	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	profile, err := h.users.UpdateProfile(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// Offdays handles GET /profile/offdays.
func (h *UserHandler) Offdays(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		return
	}
	intervals, err := h.users.Offdays(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, intervals, nil)
}
