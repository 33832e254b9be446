package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/offday-api/internal/dto"
	"github.com/noah-isme/offday-api/internal/models"
	"github.com/noah-isme/offday-api/internal/service"
	"github.com/noah-isme/offday-api/pkg/response"
)

// ExportService renders the request register for download.
type ExportService interface {
	RequestRegister(ctx context.Context, claims *models.JWTClaims, query dto.ExportQuery) (*service.ExportDocument, error)
}

// ExportHandler serves register downloads.
type ExportHandler struct {
	exports ExportService
	logger  *zap.Logger
}

// NewExportHandler constructs the handler.
func NewExportHandler(exports ExportService, logger *zap.Logger) *ExportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportHandler{exports: exports, logger: logger}
}

// RequestRegister handles GET /requests/export.
func (h *ExportHandler) RequestRegister(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		return
	}
	query := dto.ExportQuery{
		Format: dto.ExportFormat(c.DefaultQuery("format", string(dto.ExportFormatCSV))),
		Status: c.Query("status"),
		Search: c.Query("search"),
	}
	doc, err := h.exports.RequestRegister(c.Request.Context(), claims, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, doc.Filename))
	c.Data(http.StatusOK, doc.ContentType, doc.Body)
}
