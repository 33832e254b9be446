package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/offday-api/internal/dto"
	"github.com/noah-isme/offday-api/internal/models"
	appErrors "github.com/noah-isme/offday-api/pkg/errors"
)

type stubUserStore struct {
	user      *models.User
	intervals []models.LeaveInterval
	updated   bool
	updateErr error
	logs      []*models.AuditLog
}

func (s *stubUserStore) FindByEmail(_ context.Context, _ string) (*models.User, error) {
	if s.user == nil {
		return nil, sql.ErrNoRows
	}
	return s.user, nil
}

func (s *stubUserStore) UpdateProfile(_ context.Context, _ string, fullName *string, department *string) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updated = true
	if fullName != nil {
		s.user.FullName = *fullName
	}
	if department != nil {
		s.user.Department = department
	}
	return nil
}

func (s *stubUserStore) ListOffdays(_ context.Context, _ string) ([]models.LeaveInterval, error) {
	return s.intervals, nil
}

func (s *stubUserStore) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	s.logs = append(s.logs, log)
	return nil
}

func TestUserServiceProfile(t *testing.T) {
	department := "Mathematics"
	store := &stubUserStore{user: &models.User{
		ID:         "u-1",
		Email:      "jane@school.edu",
		FullName:   "Jane Doe",
		Role:       models.RoleTeacher,
		Department: &department,
	}}
	svc := NewUserService(store, nil, nil)

	profile, err := svc.Profile(context.Background(), teacherClaims())
	require.NoError(t, err)
	require.Equal(t, "Jane Doe", profile.Name)
	require.Equal(t, "Mathematics", profile.Department)
	require.Equal(t, "teacher", profile.Role)
}

func TestUserServiceProfileNotFound(t *testing.T) {
	svc := NewUserService(&stubUserStore{}, nil, nil)

	_, err := svc.Profile(context.Background(), teacherClaims())
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUserServiceUpdateProfile(t *testing.T) {
	store := &stubUserStore{user: &models.User{
		ID:       "u-1",
		Email:    "jane@school.edu",
		FullName: "Jane Doe",
		Role:     models.RoleTeacher,
	}}
	svc := NewUserService(store, nil, nil)

	name := "Jane D. Doe"
	department := "Physics"
	profile, err := svc.UpdateProfile(context.Background(), teacherClaims(), dto.UpdateProfileRequest{
		Name:       &name,
		Department: &department,
	})
	require.NoError(t, err)
	require.True(t, store.updated)
	require.Equal(t, "Jane D. Doe", profile.Name)
	require.Equal(t, "Physics", profile.Department)
	require.Len(t, store.logs, 1)
	require.Equal(t, models.AuditActionProfileUpdate, store.logs[0].Action)
}

func TestUserServiceUpdateProfileEmptyPayload(t *testing.T) {
	svc := NewUserService(&stubUserStore{user: &models.User{}}, nil, nil)

	_, err := svc.UpdateProfile(context.Background(), teacherClaims(), dto.UpdateProfileRequest{})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUserServiceOffdaysEmptyLedger(t *testing.T) {
	svc := NewUserService(&stubUserStore{user: &models.User{}}, nil, nil)

	intervals, err := svc.Offdays(context.Background(), teacherClaims())
	require.NoError(t, err)
	require.NotNil(t, intervals)
	require.Empty(t, intervals)
}

func TestUserServiceOffdaysOrdering(t *testing.T) {
	start, _ := time.Parse(dto.DateLayout, "2026-09-07")
	end, _ := time.Parse(dto.DateLayout, "2026-09-09")
	store := &stubUserStore{
		user:      &models.User{},
		intervals: []models.LeaveInterval{{ID: "o-1", UserEmail: "jane@school.edu", RequestID: "req-1", StartDate: start, EndDate: end}},
	}
	svc := NewUserService(store, nil, nil)

	intervals, err := svc.Offdays(context.Background(), teacherClaims())
	require.NoError(t, err)
	require.Len(t, intervals, 1)
	require.True(t, intervals[0].Covers(start.Add(24*time.Hour)))
	require.False(t, intervals[0].Covers(end.Add(24*time.Hour)))
}
