package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/offday-api/internal/dto"
	"github.com/noah-isme/offday-api/internal/models"
	appErrors "github.com/noah-isme/offday-api/pkg/errors"
)

type stubAvailabilityStore struct {
	listFn func(ctx context.Context, filter models.AvailabilityFilter) ([]models.UserAvailability, int, error)
	calls  int
}

func (s *stubAvailabilityStore) ListAvailability(ctx context.Context, filter models.AvailabilityFilter) ([]models.UserAvailability, int, error) {
	s.calls++
	return s.listFn(ctx, filter)
}

type memoryCacheRepo struct {
	entries map[string][]byte
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{entries: map[string][]byte{}}
}

func (m *memoryCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(_ context.Context, _ string) error {
	m.entries = map[string][]byte{}
	return nil
}

func TestAvailabilityServiceListProjectsDate(t *testing.T) {
	var captured models.AvailabilityFilter
	store := &stubAvailabilityStore{
		listFn: func(_ context.Context, filter models.AvailabilityFilter) ([]models.UserAvailability, int, error) {
			captured = filter
			return []models.UserAvailability{
				{ID: "u-1", Name: "Jane Doe", Email: "jane@school.edu", Role: models.RoleTeacher, Status: models.AvailabilityOnLeave},
			}, 1, nil
		},
	}
	svc := NewAvailabilityService(store, nil, nil)

	page, pagination, err := svc.List(context.Background(), directorClaims(), dto.AvailabilityQuery{Date: "2026-09-08"})
	require.NoError(t, err)
	require.Equal(t, "2026-09-08", captured.Date.Format(dto.DateLayout))
	require.Len(t, page.Teachers, 1)
	require.Equal(t, models.AvailabilityOnLeave, page.Teachers[0].Status)
	require.Equal(t, 1, pagination.TotalItems)
	require.Equal(t, 1, pagination.CurrentPage)
}

func TestAvailabilityServiceListRejectsBadDate(t *testing.T) {
	svc := NewAvailabilityService(&stubAvailabilityStore{}, nil, nil)

	_, _, err := svc.List(context.Background(), teacherClaims(), dto.AvailabilityQuery{Date: "08-09-2026"})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAvailabilityServiceListRejectsUnknownStatus(t *testing.T) {
	svc := NewAvailabilityService(&stubAvailabilityStore{}, nil, nil)

	_, _, err := svc.List(context.Background(), teacherClaims(), dto.AvailabilityQuery{Status: "busy"})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAvailabilityServiceListServesSecondCallFromCache(t *testing.T) {
	store := &stubAvailabilityStore{
		listFn: func(_ context.Context, _ models.AvailabilityFilter) ([]models.UserAvailability, int, error) {
			return []models.UserAvailability{
				{ID: "u-1", Name: "Jane Doe", Email: "jane@school.edu", Role: models.RoleTeacher, Status: models.AvailabilityAvailable},
			}, 1, nil
		},
	}
	cache := NewCacheService(newMemoryCacheRepo(), nil, time.Minute, nil, true)
	svc := NewAvailabilityService(store, cache, nil)

	query := dto.AvailabilityQuery{Date: "2026-09-08", Page: 1, Limit: 10}
	first, _, err := svc.List(context.Background(), chairmanClaims(), query)
	require.NoError(t, err)
	second, _, err := svc.List(context.Background(), chairmanClaims(), query)
	require.NoError(t, err)

	require.Equal(t, 1, store.calls)
	require.Equal(t, first.Teachers, second.Teachers)
}

func TestAvailabilityServiceCacheDroppedOnInvalidation(t *testing.T) {
	store := &stubAvailabilityStore{
		listFn: func(_ context.Context, _ models.AvailabilityFilter) ([]models.UserAvailability, int, error) {
			return nil, 0, nil
		},
	}
	cache := NewCacheService(newMemoryCacheRepo(), nil, time.Minute, nil, true)
	svc := NewAvailabilityService(store, cache, nil)

	query := dto.AvailabilityQuery{Date: "2026-09-08"}
	_, _, err := svc.List(context.Background(), directorClaims(), query)
	require.NoError(t, err)
	require.NoError(t, cache.Invalidate(context.Background(), "availability:*"))
	_, _, err = svc.List(context.Background(), directorClaims(), query)
	require.NoError(t, err)
	require.Equal(t, 2, store.calls)
}
