package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/offday-api/internal/dto"
	"github.com/noah-isme/offday-api/internal/models"
	appErrors "github.com/noah-isme/offday-api/pkg/errors"
)

type stubExportStore struct {
	requests []models.OffdayRequest
	filter   models.RequestFilter
	maxRows  int
}

func (s *stubExportStore) ListAll(_ context.Context, filter models.RequestFilter, maxRows int) ([]models.OffdayRequest, error) {
	s.filter = filter
	s.maxRows = maxRows
	return s.requests, nil
}

func TestExportServiceCSV(t *testing.T) {
	message := "insufficient coverage"
	request := *pendingRequest()
	request.Status = models.RequestStatusRejected
	request.RejectionMessage = &message
	store := &stubExportStore{requests: []models.OffdayRequest{request}}
	svc := NewExportService(store, 500, true, nil)

	doc, err := svc.RequestRegister(context.Background(), directorClaims(), dto.ExportQuery{Format: dto.ExportFormatCSV, Status: "rejected"})
	require.NoError(t, err)
	require.Equal(t, "text/csv", doc.ContentType)
	require.True(t, strings.HasSuffix(doc.Filename, ".csv"))
	require.Equal(t, 500, store.maxRows)
	require.Equal(t, models.RequestStatusRejected, store.filter.Status)

	body := string(doc.Body)
	require.Contains(t, body, "Jane Doe")
	require.Contains(t, body, "jane@school.edu")
	require.Contains(t, body, "insufficient coverage")
}

func TestExportServicePDF(t *testing.T) {
	store := &stubExportStore{requests: []models.OffdayRequest{*pendingRequest()}}
	svc := NewExportService(store, 0, true, nil)

	doc, err := svc.RequestRegister(context.Background(), chairmanClaims(), dto.ExportQuery{Format: dto.ExportFormatPDF})
	require.NoError(t, err)
	require.Equal(t, "application/pdf", doc.ContentType)
	require.True(t, strings.HasPrefix(string(doc.Body), "%PDF"))
}

func TestExportServiceForbidsTeachers(t *testing.T) {
	svc := NewExportService(&stubExportStore{}, 100, true, nil)

	_, err := svc.RequestRegister(context.Background(), teacherClaims(), dto.ExportQuery{Format: dto.ExportFormatCSV})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestExportServiceDisabled(t *testing.T) {
	svc := NewExportService(&stubExportStore{}, 100, false, nil)

	_, err := svc.RequestRegister(context.Background(), directorClaims(), dto.ExportQuery{Format: dto.ExportFormatCSV})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestExportServiceRejectsUnknownFormat(t *testing.T) {
	svc := NewExportService(&stubExportStore{}, 100, true, nil)

	_, err := svc.RequestRegister(context.Background(), directorClaims(), dto.ExportQuery{Format: "xlsx"})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
