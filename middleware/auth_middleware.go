package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/princinho/natours/apperrors"
	"github.com/princinho/natours/models"
)

const currentUserKey = "currentUser"

// Authenticator resolves bearer tokens and checks roles.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
	Authorize(user *models.User, allowed models.RoleSet) error
}

// Protect requires a valid "Authorization: Bearer <token>" header and stores
// the authenticated user on the context.
func Protect(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := auth.Authenticate(c.Request.Context(), bearerToken(c.GetHeader("Authorization")))
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

// RestrictTo must run after Protect. It rejects users whose role is not in allowed.
func RestrictTo(auth Authenticator, allowed models.RoleSet) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := CurrentUser(c)
		if err := auth.Authorize(user, allowed); err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user stored by Protect.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}

// MustCurrentUser is CurrentUser for handlers mounted behind Protect.
func MustCurrentUser(c *gin.Context) (*models.User, error) {
	user, ok := CurrentUser(c)
	if !ok {
		return nil, apperrors.Internal(errMissingUser)
	}
	return user, nil
}

func bearerToken(header string) string {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}
