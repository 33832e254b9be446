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

// RequestService is the lifecycle surface the HTTP layer depends on.
type RequestService interface {
	Create(ctx context.Context, claims *models.JWTClaims, req dto.CreateOffdayRequest) (*models.OffdayRequest, error)
	Get(ctx context.Context, claims *models.JWTClaims, id string) (*models.OffdayRequest, error)
	List(ctx context.Context, claims *models.JWTClaims, query dto.RequestListQuery) ([]models.OffdayRequest, *models.Pagination, error)
	Update(ctx context.Context, claims *models.JWTClaims, id string, req dto.UpdateOffdayRequest) (*models.OffdayRequest, error)
	Delete(ctx context.Context, claims *models.JWTClaims, id string) error
	DirectorDecide(ctx context.Context, claims *models.JWTClaims, id string, req dto.DirectorDecisionRequest) (*models.OffdayRequest, error)
	ChairmanDecide(ctx context.Context, claims *models.JWTClaims, id string, req dto.ChairmanDecisionRequest) (*models.OffdayRequest, error)
}

// RequestHandler exposes the offday request lifecycle over HTTP.
type RequestHandler struct {
	requests RequestService
	logger   *zap.Logger
}

// NewRequestHandler constructs the handler.
func NewRequestHandler(requests RequestService, logger *zap.Logger) *RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestHandler{requests: requests, logger: logger}
}

// Create handles POST /requests.
func (h *RequestHandler) Create(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		return
	}
	var req dto.CreateOffdayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	request, err := h.requests.Create(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, request)
}

// Get handles GET /requests/:id.
func (h *RequestHandler) Get(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		return
	}
	request, err := h.requests.Get(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// List handles GET /requests.
func (h *RequestHandler) List(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		return
	}
	query := dto.RequestListQuery{
		Status: c.Query("status"),
		Search: c.Query("search"),
		Page:   queryInt(c, "page", 1),
		Limit:  queryInt(c, "limit", 10),
	}
	requests, pagination, err := h.requests.List(c.Request.Context(), claims, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	if requests == nil {
		requests = []models.OffdayRequest{}
	}
	response.JSON(c, http.StatusOK, requests, pagination)
}

// Update handles PUT /requests/:id.
func (h *RequestHandler) Update(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		return
	}
	var req dto.UpdateOffdayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	request, err := h.requests.Update(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Delete handles DELETE /requests/:id.
func (h *RequestHandler) Delete(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		return
	}
	if err := h.requests.Delete(c.Request.Context(), claims, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Decide handles PATCH /requests/:id/status. The payload shape depends on the
// caller's role: directors forward or reject, the chairman accepts or rejects.
func (h *RequestHandler) Decide(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		return
	}

	var (
		request *models.OffdayRequest
		err     error
	)
	switch claims.Role {
	case models.RoleDirector:
		var req dto.DirectorDecisionRequest
		if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
			response.Error(c, appErrors.Wrap(bindErr, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
			return
		}
		request, err = h.requests.DirectorDecide(c.Request.Context(), claims, c.Param("id"), req)
	case models.RoleChairman:
		var req dto.ChairmanDecisionRequest
		if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
			response.Error(c, appErrors.Wrap(bindErr, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
			return
		}
		request, err = h.requests.ChairmanDecide(c.Request.Context(), claims, c.Param("id"), req)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "decisions are limited to review roles"))
		return
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}
