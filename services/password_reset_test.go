package services

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/princinho/natours/apperrors"
	"github.com/princinho/natours/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseURL = "https://natours.example"

func TestResetURL(t *testing.T) {
	assert.Equal(t, "https://natours.example/api/v1/users/resetPassword/abc", ResetURL("https://natours.example/", "abc"))
	assert.Equal(t, "http://localhost:3000/api/v1/users/resetPassword/abc", ResetURL("http://localhost:3000", "abc"))
}

func TestForgotPassword_UnknownEmail(t *testing.T) {
	d := newTestDeps(t)

	err := d.auth.ForgotPassword(context.Background(), "nobody@x.com", baseURL)
	requireAppError(t, err, apperrors.KindNotFound, http.StatusNotFound, msgNoUserWithEmail)
	assert.Empty(t, d.mail.sent)
}

func TestForgotPassword_StoresOnlyHash(t *testing.T) {
	d := newTestDeps(t)
	ctx := context.Background()
	sess := d.signupAnn(t)

	require.NoError(t, d.auth.ForgotPassword(ctx, "ann@x.com", baseURL))

	msg := d.mail.last(t)
	assert.Equal(t, "ann@x.com", msg.To)
	assert.Equal(t, resetMailSubject, msg.Subject)
	assert.True(t, strings.Contains(msg.Body, baseURL+ResetPath))
	raw := tokenFromMail(t, msg)

	stored, ok := d.store.Get(sess.User.ID)
	require.True(t, ok)
	require.NotNil(t, stored.PasswordResetToken)
	require.NotNil(t, stored.PasswordResetExpires)
	assert.NotEqual(t, raw, *stored.PasswordResetToken)
	assert.Equal(t, utils.HashResetToken(raw), *stored.PasswordResetToken)
	assert.True(t, stored.PasswordResetExpires.Equal(d.clock.Now().Add(20*time.Minute)))
}

func TestForgotPassword_DeliveryFailureClearsReset(t *testing.T) {
	d := newTestDeps(t)
	ctx := context.Background()
	sess := d.signupAnn(t)
	d.mail.err = errBoom

	err := d.auth.ForgotPassword(ctx, "ann@x.com", baseURL)
	requireAppError(t, err, apperrors.KindServer, http.StatusInternalServerError, msgResetMailFailed)
	assert.ErrorIs(t, err, errBoom)

	stored, ok := d.store.Get(sess.User.ID)
	require.True(t, ok)
	assert.Nil(t, stored.PasswordResetToken)
	assert.Nil(t, stored.PasswordResetExpires)

	// the token that never reached the user is useless
	raw := tokenFromMail(t, d.mail.last(t))
	_, err = d.auth.ResetPassword(ctx, raw, "NewSecret456!", "NewSecret456!")
	requireAppError(t, err, apperrors.KindAuth, http.StatusBadRequest, msgResetTokenInvalid)
}

func TestResetPassword(t *testing.T) {
	d := newTestDeps(t)
	ctx := context.Background()
	signup := d.signupAnn(t)

	d.clock.Advance(10 * time.Second)
	require.NoError(t, d.auth.ForgotPassword(ctx, "ann@x.com", baseURL))
	raw := tokenFromMail(t, d.mail.last(t))

	d.clock.Advance(time.Minute)
	sess, err := d.auth.ResetPassword(ctx, raw, "NewSecret456!", "NewSecret456!")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)

	stored, ok := d.store.Get(signup.User.ID)
	require.True(t, ok)
	assert.Nil(t, stored.PasswordResetToken)
	assert.Nil(t, stored.PasswordResetExpires)
	require.NotNil(t, stored.PasswordChangedAt)
	assert.True(t, stored.PasswordChangedAt.Equal(d.clock.Now().Add(-time.Second)))

	// new token works, the signup token predates the change
	_, err = d.auth.Authenticate(ctx, sess.Token)
	require.NoError(t, err)
	_, err = d.auth.Authenticate(ctx, signup.Token)
	requireAppError(t, err, apperrors.KindAuth, http.StatusUnauthorized, msgPasswordChanged)

	_, err = d.auth.Login(ctx, "ann@x.com", "NewSecret456!")
	require.NoError(t, err)

	t.Run("single use", func(t *testing.T) {
		_, err := d.auth.ResetPassword(ctx, raw, "Another789!", "Another789!")
		requireAppError(t, err, apperrors.KindAuth, http.StatusBadRequest, msgResetTokenInvalid)
	})
}

func TestResetPassword_Expired(t *testing.T) {
	d := newTestDeps(t)
	ctx := context.Background()
	signup := d.signupAnn(t)

	require.NoError(t, d.auth.ForgotPassword(ctx, "ann@x.com", baseURL))
	raw := tokenFromMail(t, d.mail.last(t))

	d.clock.Advance(21 * time.Minute)
	_, err := d.auth.ResetPassword(ctx, raw, "NewSecret456!", "NewSecret456!")
	requireAppError(t, err, apperrors.KindAuth, http.StatusBadRequest, msgResetTokenInvalid)

	stored, ok := d.store.Get(signup.User.ID)
	require.True(t, ok)
	assert.False(t, stored.HasPendingReset(d.clock.Now()))
	assert.Nil(t, stored.PasswordChangedAt)

	_, err = d.auth.Login(ctx, "ann@x.com", "Secret123!")
	assert.NoError(t, err, "old password still valid")
}

func TestResetPassword_Mismatch(t *testing.T) {
	d := newTestDeps(t)
	ctx := context.Background()
	d.signupAnn(t)

	require.NoError(t, d.auth.ForgotPassword(ctx, "ann@x.com", baseURL))
	raw := tokenFromMail(t, d.mail.last(t))

	_, err := d.auth.ResetPassword(ctx, raw, "NewSecret456!", "Nope")
	requireAppError(t, err, apperrors.KindValidation, http.StatusBadRequest, msgPasswordMismatch)

	_, err = d.auth.ResetPassword(ctx, raw, "NewSecret456!", "NewSecret456!")
	assert.NoError(t, err, "token survives a rejected attempt")
}

func TestResetPassword_UnknownToken(t *testing.T) {
	d := newTestDeps(t)
	d.signupAnn(t)

	_, err := d.auth.ResetPassword(context.Background(), "deadbeef", "NewSecret456!", "NewSecret456!")
	requireAppError(t, err, apperrors.KindAuth, http.StatusBadRequest, msgResetTokenInvalid)
}
