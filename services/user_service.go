package services

import (
	"context"
	"errors"
	"strings"

	"github.com/princinho/natours/apperrors"
	"github.com/princinho/natours/database"
	"github.com/princinho/natours/models"
)

const msgNotForPasswords = "This route is not for password updates. Please use /updateMyPassword."

// ProfileUpdate is the subset of fields a user may change on their own profile.
type ProfileUpdate struct {
	Name  *string
	Email *string
	// HasPasswordFields is set when the request tried to send password data.
	HasPasswordFields bool
}

// UserService covers the self-service and listing endpoints.
type UserService struct {
	users UserRepository
}

func NewUserService(users UserRepository) *UserService {
	return &UserService{users: users}
}

func (s *UserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	users, err := s.users.FindAll(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return users, nil
}

// UpdateMe applies a profile update. Password changes go through
// AuthService.UpdatePassword instead.
func (s *UserService) UpdateMe(ctx context.Context, current *models.User, upd ProfileUpdate) (*models.User, error) {
	if upd.HasPasswordFields {
		return nil, apperrors.Validation(msgNotForPasswords)
	}

	user, err := s.users.FindByID(ctx, current.ID.Hex())
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, apperrors.Unauthorized(msgUserGone)
		}
		return nil, apperrors.Internal(err)
	}

	if upd.Name != nil {
		user.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.Email != nil {
		user.Email = *upd.Email
	}

	if err := s.users.Save(ctx, user, database.SaveOptions{Validate: true}); err != nil {
		if errors.Is(err, database.ErrDuplicateEmail) {
			return nil, apperrors.Validation(msgDuplicateEmail)
		}
		return nil, err
	}
	return user, nil
}

// DeleteMe deactivates the account. The document is kept.
func (s *UserService) DeleteMe(ctx context.Context, current *models.User) error {
	user, err := s.users.FindByID(ctx, current.ID.Hex())
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return apperrors.Unauthorized(msgUserGone)
		}
		return apperrors.Internal(err)
	}

	user.Active = false
	if err := s.users.Save(ctx, user, database.SaveOptions{Validate: false}); err != nil {
		return apperrors.Internal(err)
	}
	return nil
}
