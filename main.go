package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/princinho/natours/config"
	"github.com/princinho/natours/controllers"
	"github.com/princinho/natours/database"
	"github.com/princinho/natours/mailer"
	"github.com/princinho/natours/router"
	"github.com/princinho/natours/services"
	"github.com/princinho/natours/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}
	logger := config.NewLogger(cfg)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	client, err := database.Connect(connectCtx, cfg.MongoURI)
	cancel()
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(disconnectCtx); err != nil {
			logger.Error("disconnecting from mongo", "error", err)
		}
	}()

	usersCol := database.OpenCollection(client, cfg.DatabaseName, database.UsersCollection)
	store := database.NewUserStore(usersCol)
	if err := store.EnsureIndexes(ctx); err != nil {
		return err
	}

	hasher := utils.NewBcryptHasher(cfg.BcryptCost)
	// seeding admin user
	if err := utils.SeedAdminUser(ctx, usersCol, hasher, cfg.AdminEmail, cfg.AdminPassword, logger); err != nil {
		return err
	}

	var m mailer.Mailer = &mailer.LogMailer{Logger: logger}
	if cfg.EmailHost != "" {
		m = mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:     cfg.EmailHost,
			Port:     cfg.EmailPort,
			Username: cfg.EmailUsername,
			Password: cfg.EmailPassword,
			From:     cfg.EmailFrom,
		})
	} else {
		logger.Warn("EMAIL_HOST not set, reset emails are not delivered")
	}

	signer := utils.NewTokenSigner([]byte(cfg.JWTSecret), cfg.JWTExpiresIn)
	auth := services.NewAuthService(store, hasher, signer, m, logger)

	r := router.New(router.Deps{
		Auth:           auth,
		Users:          services.NewUserService(store),
		Logger:         logger,
		Cookie:         controllers.TokenCookie{TTL: cfg.CookieTTL(), Secure: cfg.IsProduction()},
		AllowedOrigins: cfg.Origins(),
		Production:     cfg.IsProduction(),
		PublicURL:      cfg.PublicURL,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
