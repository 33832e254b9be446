package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/offday-api/internal/dto"
	"github.com/noah-isme/offday-api/internal/models"
	"github.com/noah-isme/offday-api/pkg/response"
)

// AvailabilityService projects users onto their per-date leave state.
type AvailabilityService interface {
	List(ctx context.Context, claims *models.JWTClaims, query dto.AvailabilityQuery) (*dto.AvailabilityPage, *models.Pagination, error)
}

// AvailabilityHandler serves the availability projection.
type AvailabilityHandler struct {
	availability AvailabilityService
	logger       *zap.Logger
}

// NewAvailabilityHandler constructs the handler.
func NewAvailabilityHandler(availability AvailabilityService, logger *zap.Logger) *AvailabilityHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityHandler{availability: availability, logger: logger}
}

// List handles GET /users/status.
func (h *AvailabilityHandler) List(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		return
	}
	query := dto.AvailabilityQuery{
		Date:   c.Query("date"),
		Status: c.Query("status"),
		Search: c.Query("search"),
		Page:   queryInt(c, "page", 1),
		Limit:  queryInt(c, "limit", 10),
	}
	page, pagination, err := h.availability.List(c.Request.Context(), claims, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, page, pagination)
}
