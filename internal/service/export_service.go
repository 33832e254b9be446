package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/offday-api/internal/dto"
	"github.com/noah-isme/offday-api/internal/models"
	appErrors "github.com/noah-isme/offday-api/pkg/errors"
	"github.com/noah-isme/offday-api/pkg/export"
)

type exportStore interface {
	ListAll(ctx context.Context, filter models.RequestFilter, maxRows int) ([]models.OffdayRequest, error)
}

// ExportDocument is a rendered request register.
type ExportDocument struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders the request register as CSV or PDF for the review
// roles.
type ExportService struct {
	repo    exportStore
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	maxRows int
	enabled bool
	logger  *zap.Logger
}

// NewExportService constructs the service.
func NewExportService(repo exportStore, maxRows int, enabled bool, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRows <= 0 {
		maxRows = 1000
	}
	return &ExportService{
		repo:    repo,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		maxRows: maxRows,
		enabled: enabled,
		logger:  logger,
	}
}

var registerHeaders = []string{"Owner", "Email", "Subject", "Start", "End", "Days", "Status", "Rejection Message"}

// RequestRegister renders every request matching the filter. Only the review
// roles may export; teachers never see other owners' rows.
func (s *ExportService) RequestRegister(ctx context.Context, claims *models.JWTClaims, query dto.ExportQuery) (*ExportDocument, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	switch claims.Role {
	case models.RoleDirector, models.RoleChairman:
	case models.RoleTeacher:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "exports are limited to review roles")
	default:
		return nil, appErrors.ErrForbidden
	}
	if !s.enabled {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "exports are disabled")
	}

	filter := models.RequestFilter{Search: query.Search}
	if query.Status != "" && query.Status != "all" {
		status := models.RequestStatus(query.Status)
		switch status {
		case models.RequestStatusPending, models.RequestStatusInProgress, models.RequestStatusAccepted, models.RequestStatusRejected:
			filter.Status = status
		default:
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown status filter")
		}
	}

	requests, err := s.repo.ListAll(ctx, filter, s.maxRows)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request register")
	}

	dataset := export.Dataset{Headers: registerHeaders, Rows: make([]map[string]string, 0, len(requests))}
	for _, request := range requests {
		row := map[string]string{
			"Owner":   request.OwnerName,
			"Email":   request.OwnerEmail,
			"Subject": request.Subject,
			"Start":   request.StartDate.Format(dto.DateLayout),
			"End":     request.EndDate.Format(dto.DateLayout),
			"Days":    strconv.Itoa(request.Days),
			"Status":  string(request.Status),
		}
		if request.RejectionMessage != nil {
			row["Rejection Message"] = *request.RejectionMessage
		}
		dataset.Rows = append(dataset.Rows, row)
	}

	stamp := time.Now().UTC().Format("20060102")
	switch query.Format {
	case dto.ExportFormatCSV, "":
		body, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportDocument{
			Filename:    fmt.Sprintf("offday-requests-%s.csv", stamp),
			ContentType: "text/csv",
			Body:        body,
		}, nil
	case dto.ExportFormatPDF:
		body, err := s.pdf.Render(dataset, "Offday Request Register")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportDocument{
			Filename:    fmt.Sprintf("offday-requests-%s.pdf", stamp),
			ContentType: "application/pdf",
			Body:        body,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}
