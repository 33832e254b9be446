package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/offday-api/internal/dto"
	"github.com/noah-isme/offday-api/internal/models"
	appErrors "github.com/noah-isme/offday-api/pkg/errors"
)

type userStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateProfile(ctx context.Context, email string, fullName *string, department *string) error
	ListOffdays(ctx context.Context, email string) ([]models.LeaveInterval, error)
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// UserService serves profile reads and edits plus the caller's leave ledger.
type UserService struct {
	repo      userStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService constructs the service.
func NewUserService(repo userStore, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, validator: validate, logger: logger}
}

// Profile returns the caller's own profile.
func (s *UserService) Profile(ctx context.Context, claims *models.JWTClaims) (*dto.ProfileResponse, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	user, err := s.repo.FindByEmail(ctx, claims.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}
	return profileResponse(user), nil
}

// UpdateProfile applies a partial edit to the caller's own profile. Email and
// role are immutable here.
func (s *UserService) UpdateProfile(ctx context.Context, claims *models.JWTClaims, req dto.UpdateProfileRequest) (*dto.ProfileResponse, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}
	if req.Name == nil && req.Department == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "nothing to update")
	}

	if err := s.repo.UpdateProfile(ctx, claims.Email, req.Name, req.Department); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
	}

	user, err := s.repo.FindByEmail(ctx, claims.Email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload profile")
	}
	s.emitProfileAudit(ctx, claims, user)
	return profileResponse(user), nil
}

// Offdays returns the caller's own append-only leave ledger.
func (s *UserService) Offdays(ctx context.Context, claims *models.JWTClaims) ([]models.LeaveInterval, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	intervals, err := s.repo.ListOffdays(ctx, claims.Email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load leave ledger")
	}
	if intervals == nil {
		intervals = []models.LeaveInterval{}
	}
	return intervals, nil
}

func (s *UserService) emitProfileAudit(ctx context.Context, claims *models.JWTClaims, user *models.User) {
	payload, _ := json.Marshal(user)
	log := &models.AuditLog{
		UserID:    &claims.UserID,
		Action:    models.AuditActionProfileUpdate,
		Resource:  "user",
		NewValues: payload,
		IPAddress: "system",
		UserAgent: "user-service",
	}
	if err := s.repo.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

func profileResponse(user *models.User) *dto.ProfileResponse {
	resp := &dto.ProfileResponse{
		Name:  user.FullName,
		Email: user.Email,
		Role:  string(user.Role),
	}
	if user.Department != nil {
		resp.Department = *user.Department
	}
	return resp
}
