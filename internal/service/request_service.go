package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/offday-api/internal/dto"
	"github.com/noah-isme/offday-api/internal/models"
	"github.com/noah-isme/offday-api/internal/repository"
	appErrors "github.com/noah-isme/offday-api/pkg/errors"
)

// availabilityCachePattern matches every cached availability page. Acceptance
// changes the projection, so the whole namespace is dropped.
const availabilityCachePattern = "availability:*"

type requestStore interface {
	Create(ctx context.Context, request *models.OffdayRequest) error
	GetByID(ctx context.Context, id string) (*models.OffdayRequest, error)
	FindByIDAndOwner(ctx context.Context, id, ownerEmail string) (*models.OffdayRequest, error)
	List(ctx context.Context, filter models.RequestFilter) ([]models.OffdayRequest, int, error)
	UpdatePending(ctx context.Context, params repository.UpdatePendingParams) error
	DeletePending(ctx context.Context, id, ownerEmail string) error
	UpdateStatus(ctx context.Context, params repository.UpdateStatusParams) error
	AcceptAndRecordLeave(ctx context.Context, request *models.OffdayRequest) error
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context, pattern string) error
}

// RequestService is the request lifecycle engine: the sole authority for
// validating and applying state transitions, enforcing role permissions,
// and committing the leave-ledger side effect on acceptance.
type RequestService struct {
	repo      requestStore
	audit     auditLogger
	cache     cacheInvalidator
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRequestService constructs the lifecycle engine.
func NewRequestService(repo requestStore, audit auditLogger, cache cacheInvalidator, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *RequestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &RequestService{repo: repo, audit: audit, cache: cache, metrics: metrics, validator: validate, logger: logger}
}

// Create persists a new pending request owned by the calling teacher.
func (s *RequestService) Create(ctx context.Context, claims *models.JWTClaims, req dto.CreateOffdayRequest) (*models.OffdayRequest, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	switch claims.Role {
	case models.RoleTeacher:
	case models.RoleDirector, models.RoleChairman:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only teachers can submit requests")
	default:
		return nil, appErrors.ErrForbidden
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request payload")
	}
	start, end, days, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	request := &models.OffdayRequest{
		OwnerEmail:  claims.Email,
		OwnerName:   claims.FullName,
		Subject:     req.Subject,
		StartDate:   start,
		EndDate:     end,
		Days:        days,
		Description: req.Description,
		Status:      models.RequestStatusPending,
	}
	if err := s.repo.Create(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create request")
	}
	s.emitAudit(ctx, claims, models.AuditActionRequestCreate, request)
	return request, nil
}

// Get returns a request enforcing ownership scope for teachers.
func (s *RequestService) Get(ctx context.Context, claims *models.JWTClaims, id string) (*models.OffdayRequest, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	var (
		request *models.OffdayRequest
		err     error
	)
	switch claims.Role {
	case models.RoleTeacher:
		request, err = s.repo.FindByIDAndOwner(ctx, id, claims.Email)
	case models.RoleDirector, models.RoleChairman:
		request, err = s.repo.GetByID(ctx, id)
	default:
		return nil, appErrors.ErrForbidden
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request")
	}
	return request, nil
}

// List returns requests visible to the caller. Teachers only ever see their
// own; directors and chairmen see everything.
func (s *RequestService) List(ctx context.Context, claims *models.JWTClaims, query dto.RequestListQuery) ([]models.OffdayRequest, *models.Pagination, error) {
	if claims == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}
	filter := models.RequestFilter{
		Search:   strings.TrimSpace(query.Search),
		Page:     query.Page,
		PageSize: query.Limit,
	}
	switch claims.Role {
	case models.RoleTeacher:
		filter.OwnerEmail = claims.Email
	case models.RoleDirector, models.RoleChairman:
	default:
		return nil, nil, appErrors.ErrForbidden
	}
	if query.Status != "" && query.Status != "all" {
		status := models.RequestStatus(query.Status)
		switch status {
		case models.RequestStatusPending, models.RequestStatusInProgress, models.RequestStatusAccepted, models.RequestStatusRejected:
			filter.Status = status
		default:
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown status filter")
		}
	}

	requests, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list requests")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 10
	}
	return requests, models.NewPagination(page, size, total), nil
}

// Update applies a partial edit to a pending request owned by the caller.
func (s *RequestService) Update(ctx context.Context, claims *models.JWTClaims, id string, req dto.UpdateOffdayRequest) (*models.OffdayRequest, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	switch claims.Role {
	case models.RoleTeacher:
	case models.RoleDirector, models.RoleChairman:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the owning teacher can edit a request")
	default:
		return nil, appErrors.ErrForbidden
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request payload")
	}

	existing, err := s.repo.FindByIDAndOwner(ctx, id, claims.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request")
	}
	if existing.Status != models.RequestStatusPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "cannot edit a request that is already processed")
	}

	params := repository.UpdatePendingParams{
		ID:          id,
		OwnerEmail:  claims.Email,
		Subject:     req.Subject,
		Description: req.Description,
	}
	if req.StartDate != nil || req.EndDate != nil {
		startRaw := existing.StartDate.Format(dto.DateLayout)
		endRaw := existing.EndDate.Format(dto.DateLayout)
		if req.StartDate != nil {
			startRaw = *req.StartDate
		}
		if req.EndDate != nil {
			endRaw = *req.EndDate
		}
		start, end, days, err := parseDateRange(startRaw, endRaw)
		if err != nil {
			return nil, err
		}
		params.StartDate = &start
		params.EndDate = &end
		params.Days = &days
	}

	if err := s.repo.UpdatePending(ctx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "cannot edit a request that is already processed")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update request")
	}

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload request")
	}
	s.emitAudit(ctx, claims, models.AuditActionRequestUpdate, updated)
	return updated, nil
}

// Delete removes a pending request owned by the caller.
func (s *RequestService) Delete(ctx context.Context, claims *models.JWTClaims, id string) error {
	if claims == nil {
		return appErrors.ErrUnauthorized
	}
	switch claims.Role {
	case models.RoleTeacher:
	case models.RoleDirector, models.RoleChairman:
		return appErrors.Clone(appErrors.ErrForbidden, "only the owning teacher can delete a request")
	default:
		return appErrors.ErrForbidden
	}

	existing, err := s.repo.FindByIDAndOwner(ctx, id, claims.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request")
	}
	if existing.Status != models.RequestStatusPending {
		return appErrors.Clone(appErrors.ErrConflict, "cannot delete a request that is already processed")
	}

	if err := s.repo.DeletePending(ctx, id, claims.Email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrConflict, "cannot delete a request that is already processed")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete request")
	}
	s.emitAudit(ctx, claims, models.AuditActionRequestDelete, existing)
	return nil
}

// DirectorDecide forwards or rejects a pending request. The transition is a
// conditional write keyed on the pending status: when a concurrent decision
// wins the race, this one fails with a conflict instead of overwriting.
func (s *RequestService) DirectorDecide(ctx context.Context, claims *models.JWTClaims, id string, req dto.DirectorDecisionRequest) (*models.OffdayRequest, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	switch claims.Role {
	case models.RoleDirector:
	case models.RoleTeacher, models.RoleChairman:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the director can review pending requests")
	default:
		return nil, appErrors.ErrForbidden
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid decision payload")
	}

	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request")
	}
	if request.Status != models.RequestStatusPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "request already processed")
	}

	params := repository.UpdateStatusParams{ID: id, From: models.RequestStatusPending}
	action := models.AuditActionRequestForward
	switch req.Action {
	case models.DecisionForward:
		params.To = models.RequestStatusInProgress
	case models.DecisionReject:
		params.To = models.RequestStatusRejected
		message := req.Message
		params.RejectionMessage = &message
		action = models.AuditActionRequestReject
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "action must be forward or reject")
	}

	if err := s.repo.UpdateStatus(ctx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "request already processed")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply decision")
	}

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload request")
	}
	s.metrics.RecordDecision(string(claims.Role), string(req.Action))
	s.emitAudit(ctx, claims, action, updated)
	return updated, nil
}

// ChairmanDecide accepts or rejects a forwarded request. Acceptance flips
// the status and appends the leave interval to the owner's ledger in one
// transaction; the interval is always derived from the request record, never
// from caller-supplied values.
func (s *RequestService) ChairmanDecide(ctx context.Context, claims *models.JWTClaims, id string, req dto.ChairmanDecisionRequest) (*models.OffdayRequest, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	switch claims.Role {
	case models.RoleChairman:
	case models.RoleTeacher, models.RoleDirector:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the chairman can give final approval")
	default:
		return nil, appErrors.ErrForbidden
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid decision payload")
	}

	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request")
	}

	action := models.AuditActionRequestAccept
	switch req.Action {
	case models.DecisionAccept:
		if request.Status != models.RequestStatusInProgress {
			return nil, appErrors.Clone(appErrors.ErrConflict, "request not ready for acceptance")
		}
		if err := s.checkAcceptTarget(request, req); err != nil {
			return nil, err
		}
		if err := s.repo.AcceptAndRecordLeave(ctx, request); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrConflict, "request not ready for acceptance")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to accept request")
		}
		if s.cache != nil {
			if err := s.cache.Invalidate(ctx, availabilityCachePattern); err != nil {
				s.logger.Warn("failed to invalidate availability cache", zap.Error(err))
			}
		}
	case models.DecisionReject:
		if request.Status != models.RequestStatusInProgress {
			return nil, appErrors.Clone(appErrors.ErrConflict, "request already processed")
		}
		message := req.Message
		params := repository.UpdateStatusParams{
			ID:               id,
			From:             models.RequestStatusInProgress,
			To:               models.RequestStatusRejected,
			RejectionMessage: &message,
		}
		if err := s.repo.UpdateStatus(ctx, params); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrConflict, "request already processed")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply decision")
		}
		action = models.AuditActionRequestReject
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "action must be accept or reject")
	}

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload request")
	}
	s.metrics.RecordDecision(string(claims.Role), string(req.Action))
	s.emitAudit(ctx, claims, action, updated)
	return updated, nil
}

// checkAcceptTarget rejects acceptance payloads whose optional target fields
// disagree with the request being decided. The ledger write itself never
// uses these fields.
func (s *RequestService) checkAcceptTarget(request *models.OffdayRequest, req dto.ChairmanDecisionRequest) error {
	if req.TargetEmail != "" && !strings.EqualFold(req.TargetEmail, request.OwnerEmail) {
		return appErrors.Clone(appErrors.ErrValidation, "target email does not match the request owner")
	}
	if req.Start != "" {
		start, err := time.Parse(dto.DateLayout, req.Start)
		if err != nil || !start.Equal(request.StartDate) {
			return appErrors.Clone(appErrors.ErrValidation, "start date does not match the request")
		}
	}
	if req.End != "" {
		end, err := time.Parse(dto.DateLayout, req.End)
		if err != nil || !end.Equal(request.EndDate) {
			return appErrors.Clone(appErrors.ErrValidation, "end date does not match the request")
		}
	}
	return nil
}

func (s *RequestService) emitAudit(ctx context.Context, claims *models.JWTClaims, action string, request *models.OffdayRequest) {
	if s.audit == nil || request == nil {
		return
	}
	payload, _ := json.Marshal(request)
	log := &models.AuditLog{
		UserID:     &claims.UserID,
		Action:     action,
		Resource:   "offday_request",
		ResourceID: &request.ID,
		NewValues:  payload,
		IPAddress:  "system",
		UserAgent:  "request-service",
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

// parseDateRange parses both calendar dates and derives the inclusive day
// count. The end date must not precede the start date.
func parseDateRange(startRaw, endRaw string) (time.Time, time.Time, int, error) {
	start, err := time.Parse(dto.DateLayout, startRaw)
	if err != nil {
		return time.Time{}, time.Time{}, 0, appErrors.Clone(appErrors.ErrValidation, "invalid start date")
	}
	end, err := time.Parse(dto.DateLayout, endRaw)
	if err != nil {
		return time.Time{}, time.Time{}, 0, appErrors.Clone(appErrors.ErrValidation, "invalid end date")
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, 0, appErrors.Clone(appErrors.ErrValidation, "end date must be after start date")
	}
	return start, end, models.LeaveDays(start, end), nil
}
