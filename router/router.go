// Package router wires middleware and handlers into a gin engine.
package router

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/princinho/natours/controllers"
	"github.com/princinho/natours/middleware"
	"github.com/princinho/natours/models"
	"github.com/princinho/natours/services"
)

// MaxBodyBytes caps JSON request bodies.
const MaxBodyBytes = 10 << 10

type Deps struct {
	Auth           *services.AuthService
	Users          *services.UserService
	Logger         *slog.Logger
	Cookie         controllers.TokenCookie
	AllowedOrigins map[string]bool
	// PublicURL, when set, is the base of password reset links instead of
	// the request's own scheme and host.
	PublicURL string
	Production     bool
}

func New(d Deps) *gin.Engine {
	r := gin.New()

	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(d.Logger))
	if !d.Production {
		r.Use(gin.Logger())
	}
	r.Use(middleware.ErrorHandler(d.Logger))
	r.Use(middleware.Recovery())
	r.Use(middleware.SecureHeaders(d.Production))
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return d.AllowedOrigins[origin]
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.BodyLimit(MaxBodyBytes))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	users := r.Group("/api/v1/users")
	{
		users.POST("/signup", controllers.Signup(d.Auth, d.Cookie))
		users.POST("/login", controllers.Login(d.Auth, d.Cookie))
		users.POST("/forgotPassword", controllers.ForgotPassword(d.Auth, d.PublicURL))
		users.PATCH("/resetPassword/:token", controllers.ResetPassword(d.Auth, d.Cookie))
	}

	protected := users.Group("", middleware.Protect(d.Auth))
	{
		protected.PATCH("/updateMyPassword", controllers.UpdatePassword(d.Auth, d.Cookie))
		protected.PATCH("/updateMe", controllers.UpdateMe(d.Users))
		protected.DELETE("/deleteMe", controllers.DeleteMe(d.Users, d.Cookie))
		protected.GET("", middleware.RestrictTo(d.Auth, models.NewRoleSet(models.RoleAdmin)), controllers.GetAllUsers(d.Users))
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"status":  "fail",
			"message": fmt.Sprintf("Can't find %s on this server!", c.Request.URL.Path),
		})
	})

	return r
}
