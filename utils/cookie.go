package utils

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const TokenCookieName = "jwt"

// SetTokenCookie hands the bearer token to the browser as an httpOnly cookie.
// secure is only set in production so local http development keeps working.
func SetTokenCookie(c *gin.Context, token string, ttl time.Duration, secure bool) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     TokenCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearTokenCookie(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(TokenCookieName, "", -1, "/", "", secure, true)
}
