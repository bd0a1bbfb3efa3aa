package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/princinho/natours/apperrors"
	"github.com/princinho/natours/database"
	"github.com/princinho/natours/mailer"
	"github.com/princinho/natours/utils"
)

const (
	ResetPath = "/api/v1/users/resetPassword/"

	// resetChangeSkew back-dates passwordChangedAt on reset so the token
	// issued right after is never older than the change.
	resetChangeSkew = time.Second

	msgNoUserWithEmail   = "There is no user with that email address."
	msgResetMailFailed   = "There was an error sending the email. Try again later!"
	msgResetTokenInvalid = "Token is invalid or has expired"
	resetMailSubject     = "Your password reset token (valid for 20 min)"
)

// ResetURL builds the link delivered to the user.
func ResetURL(baseURL, rawToken string) string {
	return strings.TrimRight(baseURL, "/") + ResetPath + rawToken
}

func resetMailBody(url string) string {
	return fmt.Sprintf("Forgot your password? Submit a PATCH request with your new password and passwordConfirm to: %s.\n"+
		"If you didn't forget your password, please ignore this email!", url)
}

// ForgotPassword stores a pending reset for the user and mails the raw token.
// If delivery fails the pending reset is removed again.
func (s *AuthService) ForgotPassword(ctx context.Context, email, baseURL string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return apperrors.NotFound(msgNoUserWithEmail)
		}
		return apperrors.Internal(err)
	}

	rawToken, hash, err := utils.GenerateResetToken()
	if err != nil {
		return apperrors.Internal(err)
	}
	user.SetPasswordReset(hash, s.now().Add(utils.ResetTokenExpiry))
	if err := s.users.Save(ctx, user, database.SaveOptions{Validate: false}); err != nil {
		return apperrors.Internal(err)
	}

	url := ResetURL(baseURL, rawToken)
	s.logger.DebugContext(ctx, "password reset requested", "user_id", user.ID.Hex())

	sendErr := s.mailer.Send(ctx, mailer.Message{
		To:      user.Email,
		Subject: resetMailSubject,
		Body:    resetMailBody(url),
	})
	if sendErr == nil {
		return nil
	}

	s.logger.ErrorContext(ctx, "password reset email failed", "user_id", user.ID.Hex(), "error", sendErr)
	user.ClearPasswordReset()
	if err := s.users.Save(context.WithoutCancel(ctx), user, database.SaveOptions{Validate: false}); err != nil {
		s.logger.ErrorContext(ctx, "clearing pending reset failed", "user_id", user.ID.Hex(), "error", err)
	}
	return apperrors.Server(msgResetMailFailed, sendErr)
}

// ResetPassword consumes a reset token, sets the new password and logs the
// user in.
func (s *AuthService) ResetPassword(ctx context.Context, rawToken, password, passwordConfirm string) (*Session, error) {
	now := s.now()
	user, err := s.users.FindByResetToken(ctx, utils.HashResetToken(rawToken), now)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, apperrors.Unauthorized(msgResetTokenInvalid).WithStatus(http.StatusBadRequest)
		}
		return nil, apperrors.Internal(err)
	}
	if password != passwordConfirm {
		return nil, apperrors.Validation(msgPasswordMismatch)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	user.SetPassword(hash, now.Add(-resetChangeSkew))
	user.ClearPasswordReset()

	if err := s.users.Save(ctx, user, database.SaveOptions{Validate: true}); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "password reset completed", "user_id", user.ID.Hex())
	return s.issue(user)
}
