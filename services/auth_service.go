// Package services holds the credential and session logic: signup, login,
// password changes, password resets and bearer token checks.
package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/princinho/natours/apperrors"
	"github.com/princinho/natours/database"
	"github.com/princinho/natours/mailer"
	"github.com/princinho/natours/models"
	"github.com/princinho/natours/utils"
)

// UserRepository is the persistence the services need.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error)
	FindAll(ctx context.Context) ([]*models.User, error)
	Create(ctx context.Context, u *models.User) error
	Save(ctx context.Context, u *models.User, opts database.SaveOptions) error
}

// TokenIssuer issues and verifies bearer tokens.
type TokenIssuer interface {
	Issue(userID string) (string, error)
	Verify(token string) (*utils.Claims, error)
}

const (
	msgIncorrectCredentials = "Incorrect email or password"
	msgMissingCredentials   = "Please provide email and password!"
	msgPasswordMismatch     = "Passwords are not the same!"
	msgWrongCurrentPassword = "Your current password is wrong."
	msgDuplicateEmail       = "Duplicate field value. Please use another value!"

	msgNotLoggedIn      = "You are not logged in! Please log in to get access."
	msgTokenInvalid     = "Invalid token. Please log in again!"
	msgTokenExpired     = "Your token has expired! Please log in again."
	msgUserGone         = "The user belonging to this token no longer exists."
	msgPasswordChanged  = "User recently changed password! Please log in again."
	msgPermissionDenied = "You do not have permission to perform this action"
)

// Session is the result of a successful signup, login or password change.
type Session struct {
	User  *models.User
	Token string
}

type AuthService struct {
	users  UserRepository
	hasher utils.PasswordHasher
	tokens TokenIssuer
	mailer mailer.Mailer
	logger *slog.Logger
	now    func() time.Time
}

func NewAuthService(users UserRepository, hasher utils.PasswordHasher, tokens TokenIssuer, m mailer.Mailer, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		mailer: m,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock returns a copy of the service using now as its time source. Used by tests.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	cp := *s
	cp.now = now
	return &cp
}

// Signup creates a regular user and logs them in.
func (s *AuthService) Signup(ctx context.Context, name, email, password, passwordConfirm string) (*Session, error) {
	if password != passwordConfirm {
		return nil, apperrors.Validation(msgPasswordMismatch)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	user := &models.User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicateEmail) {
			return nil, apperrors.Validation(msgDuplicateEmail)
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "user signed up", "user_id", user.ID.Hex())
	return s.issue(user)
}

// Login checks credentials. An unknown email and a wrong password give the
// same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, apperrors.Validation(msgMissingCredentials)
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, apperrors.Unauthorized(msgIncorrectCredentials)
		}
		return nil, apperrors.Internal(err)
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, apperrors.Unauthorized(msgIncorrectCredentials)
	}
	return s.issue(user)
}

// UpdatePassword changes the password of an authenticated user after checking
// the current one. Tokens issued before the change stop passing Authenticate.
func (s *AuthService) UpdatePassword(ctx context.Context, current *models.User, currentPassword, password, passwordConfirm string) (*Session, error) {
	user, err := s.users.FindByID(ctx, current.ID.Hex())
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, apperrors.Unauthorized(msgUserGone)
		}
		return nil, apperrors.Internal(err)
	}

	if !s.hasher.Verify(currentPassword, user.PasswordHash) {
		return nil, apperrors.Unauthorized(msgWrongCurrentPassword)
	}
	if password != passwordConfirm {
		return nil, apperrors.Validation(msgPasswordMismatch)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	user.SetPassword(hash, s.now())

	if err := s.users.Save(ctx, user, database.SaveOptions{Validate: true}); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "password updated", "user_id", user.ID.Hex())
	return s.issue(user)
}

// Authenticate resolves a bearer token to its user. It rejects tokens that
// are invalid or expired, whose user is gone or deactivated, and tokens issued
// before the user's last password change.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, apperrors.Unauthorized(msgNotLoggedIn)
	}

	claims, err := s.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, utils.ErrTokenExpired) {
			return nil, apperrors.Unauthorized(msgTokenExpired)
		}
		return nil, apperrors.Unauthorized(msgTokenInvalid)
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) || errors.Is(err, database.ErrInvalidID) {
			return nil, apperrors.Unauthorized(msgUserGone)
		}
		return nil, apperrors.Internal(err)
	}

	if user.ChangedPasswordAfter(claims.IssuedAt.Time) {
		return nil, apperrors.Unauthorized(msgPasswordChanged)
	}
	return user, nil
}

// Authorize checks the user's role against allowed.
func (s *AuthService) Authorize(user *models.User, allowed models.RoleSet) error {
	if user == nil || !allowed.Contains(user.Role) {
		return apperrors.Forbidden(msgPermissionDenied)
	}
	return nil
}

func (s *AuthService) issue(user *models.User) (*Session, error) {
	token, err := s.tokens.Issue(user.ID.Hex())
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return &Session{User: user, Token: token}, nil
}
