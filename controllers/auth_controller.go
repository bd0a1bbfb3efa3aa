package controllers

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/princinho/natours/dto"
	"github.com/princinho/natours/middleware"
	"github.com/princinho/natours/services"
	"github.com/princinho/natours/utils"
)

// TokenCookie controls the "jwt" cookie sent alongside every issued token.
type TokenCookie struct {
	TTL    time.Duration
	Secure bool
}

func createSendToken(c *gin.Context, status int, session *services.Session, cookie TokenCookie) {
	utils.SetTokenCookie(c, session.Token, cookie.TTL, cookie.Secure)
	c.JSON(status, gin.H{
		"status": "success",
		"token":  session.Token,
		"data":   gin.H{"user": session.User.View()},
	})
}

// POST /api/v1/users/signup
func Signup(auth *services.AuthService, cookie TokenCookie) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.SignupDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			_ = c.Error(err)
			return
		}

		session, err := auth.Signup(c.Request.Context(), body.Name, body.Email, body.Password, body.PasswordConfirm)
		if err != nil {
			_ = c.Error(err)
			return
		}
		createSendToken(c, http.StatusCreated, session, cookie)
	}
}

// POST /api/v1/users/login
func Login(auth *services.AuthService, cookie TokenCookie) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.LoginDTO
		// An empty body is left to the service so it gets the missing credentials message.
		if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
			_ = c.Error(err)
			return
		}

		session, err := auth.Login(c.Request.Context(), body.Email, body.Password)
		if err != nil {
			_ = c.Error(err)
			return
		}
		createSendToken(c, http.StatusOK, session, cookie)
	}
}

// POST /api/v1/users/forgotPassword
func ForgotPassword(auth *services.AuthService, publicURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.ForgotPasswordDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			_ = c.Error(err)
			return
		}

		if err := auth.ForgotPassword(c.Request.Context(), body.Email, baseURL(c, publicURL)); err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Token sent to email!"})
	}
}

// PATCH /api/v1/users/resetPassword/:token
func ResetPassword(auth *services.AuthService, cookie TokenCookie) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.ResetPasswordDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			_ = c.Error(err)
			return
		}

		session, err := auth.ResetPassword(c.Request.Context(), c.Param("token"), body.Password, body.PasswordConfirm)
		if err != nil {
			_ = c.Error(err)
			return
		}
		createSendToken(c, http.StatusOK, session, cookie)
	}
}

// PATCH /api/v1/users/updateMyPassword
func UpdatePassword(auth *services.AuthService, cookie TokenCookie) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := middleware.MustCurrentUser(c)
		if err != nil {
			_ = c.Error(err)
			return
		}

		var body dto.UpdatePasswordDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			_ = c.Error(err)
			return
		}

		session, err := auth.UpdatePassword(c.Request.Context(), user, body.PasswordCurrent, body.Password, body.PasswordConfirm)
		if err != nil {
			_ = c.Error(err)
			return
		}
		createSendToken(c, http.StatusOK, session, cookie)
	}
}

// baseURL is the configured public URL or, failing that, the scheme and host
// the client used to reach us. The fallback trusts the Host and
// X-Forwarded-Proto headers, so deployments behind a proxy should set PUBLIC_URL.
func baseURL(c *gin.Context, publicURL string) string {
	if publicURL != "" {
		return strings.TrimRight(publicURL, "/")
	}
	scheme := "http"
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host
}
