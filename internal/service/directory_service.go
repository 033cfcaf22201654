package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/itsmkit/helpdesk-service/internal/domain"
	"github.com/itsmkit/helpdesk-service/internal/repository"
	apperrors "github.com/itsmkit/helpdesk-service/pkg/util/errorutil"
)

// DirectoryService owns the user directory: listing by role, employee
// profile maintenance and removal.
type DirectoryService struct {
	users repository.UserRepository
}

// NewDirectoryService constructs the service.
func NewDirectoryService(users repository.UserRepository) *DirectoryService {
	return &DirectoryService{users: users}
}

// GetUser fetches a user with the assigned-tickets back-reference loaded.
func (s *DirectoryService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, apperrors.NewValidationError("user id is required", nil)
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// ListUsers returns all users regardless of role, newest first.
func (s *DirectoryService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// ListByRole returns users holding the given role.
func (s *DirectoryService) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	if !role.IsValid() {
		return nil, apperrors.NewValidationError("invalid role", nil)
	}
	users, err := s.users.ListByRole(ctx, role)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// UpdateProfile applies partial employee profile changes.
func (s *DirectoryService) UpdateProfile(ctx context.Context, userID string, update domain.UserProfileUpdate) (*domain.User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	applyString(&user.Name, update.Name)
	applyString(&user.Specialization, update.Specialization)
	applyString(&user.EmployeeID, update.EmployeeID)
	applyString(&user.Department, update.Department)
	applyString(&user.Team, update.Team)
	applyString(&user.Position, update.Position)
	applyString(&user.Location, update.Location)
	applyString(&user.OfficeBranch, update.OfficeBranch)
	applyString(&user.Floor, update.Floor)
	applyString(&user.Building, update.Building)
	if update.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*update.Email))
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// DeleteUser removes a user permanently.
func (s *DirectoryService) DeleteUser(ctx context.Context, userID string) error {
	if userID == "" {
		return apperrors.NewValidationError("user id is required", nil)
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return apperrors.MapError(err)
	}
	return nil
}

func applyString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}
