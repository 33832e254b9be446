package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/offday-api/internal/dto"
	"github.com/noah-isme/offday-api/internal/models"
	appErrors "github.com/noah-isme/offday-api/pkg/errors"
)

type availabilityStore interface {
	ListAvailability(ctx context.Context, filter models.AvailabilityFilter) ([]models.UserAvailability, int, error)
}

// AvailabilityService projects the leave ledger onto per-date availability.
// Pages are cached in Redis keyed by the full query; acceptance invalidates
// the whole availability namespace, so a stale page can only outlive the
// ledger by the cache TTL.
type AvailabilityService struct {
	repo   availabilityStore
	cache  *CacheService
	logger *zap.Logger
}

// NewAvailabilityService constructs the service.
func NewAvailabilityService(repo availabilityStore, cache *CacheService, logger *zap.Logger) *AvailabilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{repo: repo, cache: cache, logger: logger}
}

// List returns the availability projection for one date. The date defaults to
// today when absent from the query.
func (s *AvailabilityService) List(ctx context.Context, claims *models.JWTClaims, query dto.AvailabilityQuery) (*dto.AvailabilityPage, *models.Pagination, error) {
	if claims == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}
	switch claims.Role {
	case models.RoleTeacher, models.RoleDirector, models.RoleChairman:
	default:
		return nil, nil, appErrors.ErrForbidden
	}

	filter, err := buildAvailabilityFilter(query)
	if err != nil {
		return nil, nil, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 10
	}
	filter.Page = page
	filter.PageSize = size

	key := availabilityCacheKey(filter)
	if s.cache.Enabled() {
		var cached dto.AvailabilityPage
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("availability cache read failed", zap.Error(err))
		} else if hit {
			return &cached, models.NewPagination(page, size, cached.TotalItems), nil
		}
	}

	teachers, total, err := s.repo.ListAvailability(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability")
	}
	if teachers == nil {
		teachers = []models.UserAvailability{}
	}

	pagination := models.NewPagination(page, size, total)
	result := &dto.AvailabilityPage{
		Teachers:   teachers,
		TotalItems: total,
		TotalPages: pagination.TotalPages,
	}

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, key, result, 0); err != nil {
			s.logger.Warn("availability cache write failed", zap.Error(err))
		}
	}
	return result, pagination, nil
}

func buildAvailabilityFilter(query dto.AvailabilityQuery) (models.AvailabilityFilter, error) {
	filter := models.AvailabilityFilter{
		Search:   strings.TrimSpace(query.Search),
		Page:     query.Page,
		PageSize: query.Limit,
	}

	if query.Date == "" {
		now := time.Now().UTC()
		filter.Date = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	} else {
		date, err := time.Parse(dto.DateLayout, query.Date)
		if err != nil {
			return models.AvailabilityFilter{}, appErrors.Clone(appErrors.ErrValidation, "invalid date")
		}
		filter.Date = date
	}

	if query.Status != "" && query.Status != "all" {
		status := models.AvailabilityStatus(query.Status)
		switch status {
		case models.AvailabilityOnLeave, models.AvailabilityAvailable:
			filter.Status = status
		default:
			return models.AvailabilityFilter{}, appErrors.Clone(appErrors.ErrValidation, "unknown availability status")
		}
	}
	return filter, nil
}

func availabilityCacheKey(filter models.AvailabilityFilter) string {
	return fmt.Sprintf("availability:%s:%s:%s:%d:%d",
		filter.Date.Format(dto.DateLayout), filter.Status, strings.ToLower(filter.Search), filter.Page, filter.PageSize)
}
