package config

import (
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime settings read from the environment.
type Config struct {
	AppEnv    string `envconfig:"APP_ENV" default:"development"`
	Port      string `envconfig:"PORT" default:"3000"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	MongoURI     string `envconfig:"MONGODB_URI" default:"mongodb://localhost:27017"`
	DatabaseName string `envconfig:"DATABASE_NAME" default:"natours"`

	JWTSecret            string        `envconfig:"JWT_SECRET" required:"true"`
	JWTExpiresIn         time.Duration `envconfig:"JWT_EXPIRES_IN" default:"2160h"`
	JWTCookieExpiresDays int           `envconfig:"JWT_COOKIE_EXPIRES_IN" default:"90"`
	BcryptCost           int           `envconfig:"BCRYPT_COST" default:"12"`

	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS"`
	PublicURL      string `envconfig:"PUBLIC_URL"`

	EmailHost     string `envconfig:"EMAIL_HOST"`
	EmailPort     int    `envconfig:"EMAIL_PORT" default:"587"`
	EmailUsername string `envconfig:"EMAIL_USERNAME"`
	EmailPassword string `envconfig:"EMAIL_PASSWORD"`
	EmailFrom     string `envconfig:"EMAIL_FROM" default:"Natours Dev <natours@example.com>"`

	AdminEmail    string `envconfig:"ADMIN_EMAIL"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD"`
}

// Load reads an optional config.env / .env file and then the process environment.
func Load() (*Config, error) {
	for _, f := range []string{"config.env", ".env"} {
		if _, err := os.Stat(f); err == nil {
			if err := godotenv.Load(f); err != nil {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters")
	}
	if c.JWTExpiresIn <= 0 {
		return errors.New("JWT_EXPIRES_IN must be positive")
	}
	if c.JWTCookieExpiresDays <= 0 {
		return errors.New("JWT_COOKIE_EXPIRES_IN must be positive")
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return errors.New("BCRYPT_COST must be between 4 and 31")
	}
	if c.IsProduction() && c.EmailHost == "" {
		return errors.New("EMAIL_HOST is required in production")
	}
	return nil
}

// IsProduction reports whether the app runs in production mode.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// CookieTTL is the lifetime of the jwt cookie.
func (c *Config) CookieTTL() time.Duration {
	return time.Duration(c.JWTCookieExpiresDays) * 24 * time.Hour
}

// Origins splits ALLOWED_ORIGINS into a lookup set.
func (c *Config) Origins() map[string]bool {
	allowed := map[string]bool{}
	for _, origin := range strings.Split(c.AllowedOrigins, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			allowed[origin] = true
		}
	}
	return allowed
}

// NewLogger returns a slog.Logger configured by LOG_FORMAT.
func NewLogger(c *Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if !c.IsProduction() {
		opts.Level = slog.LevelDebug
	}
	if c != nil && c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
