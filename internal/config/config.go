package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration required by the API process.
// All values must come from env (or env-file loaded by the process runner).
// No business logic should depend on raw environment variables.
type Config struct {
	App     AppConfig     `envconfig:"APP"`
	DB      DBConfig      `envconfig:"DB"`
	Redis   RedisConfig   `envconfig:"REDIS"`
	Session SessionConfig `envconfig:"SESSION"`
	Root    RootConfig    `envconfig:"ROOT"`
	Login   LoginConfig   `envconfig:"LOGIN"`
}

type AppConfig struct {
	Env  string `envconfig:"ENV"`
	Port int    `envconfig:"PORT" default:"8080"`

	// LogLevel (APP_LOG_LEVEL) overrides the per-environment default.
	LogLevel string `envconfig:"LOG_LEVEL"`
}

type DBConfig struct {
	Host     string `envconfig:"HOST"`
	Port     int    `envconfig:"PORT" default:"5432"`
	User     string `envconfig:"USER"`
	Password string `envconfig:"PASSWORD"`
	Name     string `envconfig:"NAME"`

	// Accepts: disable, require, verify-ca, verify-full
	SSLMode string `envconfig:"SSLMODE"`
}

// RedisConfig is optional. An empty Host disables login throttling.
type RedisConfig struct {
	Host string `envconfig:"HOST"`
	Port int    `envconfig:"PORT" default:"6379"`
}

type SessionConfig struct {
	Secret     string        `envconfig:"SECRET"`
	CookieName string        `envconfig:"COOKIE_NAME"`
	TTL        time.Duration `envconfig:"TTL"`

	// StaleGrace is how far an identity's updated_at may trail behind a token's
	// issuance before the token is considered rotated out.
	StaleGrace time.Duration `envconfig:"STALE_GRACE"`

	// Secure is derived from APP_ENV, never read from env.
	Secure bool `ignored:"true"`
}

// RootConfig describes the break-glass principal. It never lives in the database.
type RootConfig struct {
	Enabled  bool   `envconfig:"ENABLED" default:"true"`
	ID       string `envconfig:"ID"`
	Email    string `envconfig:"EMAIL"`
	Password string `envconfig:"PASSWORD"`
}

type LoginConfig struct {
	MaxAttempts int           `envconfig:"MAX_ATTEMPTS"`
	Window      time.Duration `envconfig:"WINDOW"`
}

const (
	DefaultSessionTTL        = 7 * 24 * time.Hour
	DefaultStaleGrace        = 5 * time.Minute
	DefaultSessionCookieName = "session"
	DefaultRootID            = "root"

	minProductionSecretLen = 32
)

func Load() (Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	c.App.Env = strings.TrimSpace(c.App.Env)
	c.DB.Host = strings.TrimSpace(c.DB.Host)
	c.DB.SSLMode = strings.TrimSpace(c.DB.SSLMode)
	c.Redis.Host = strings.TrimSpace(c.Redis.Host)
	c.Root.Email = strings.ToLower(strings.TrimSpace(c.Root.Email))

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate reports every problem at once and fills in defaults for optional values.
func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	if c.DB.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.DB.Port <= 0 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
	}
	if c.DB.User == "" {
		errs = append(errs, errors.New("DB_USER is required"))
	}
	if c.DB.Name == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if c.DB.SSLMode == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("DB_SSLMODE is required in production"))
		} else {
			c.DB.SSLMode = "disable"
		}
	}
	if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
		errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
	}

	if c.Redis.Host != "" && (c.Redis.Port <= 0 || c.Redis.Port > 65535) {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}

	if c.Session.Secret == "" {
		errs = append(errs, errors.New("SESSION_SECRET is required"))
	} else if c.IsProduction() && len(c.Session.Secret) < minProductionSecretLen {
		errs = append(errs, fmt.Errorf("SESSION_SECRET must be at least %d bytes in production", minProductionSecretLen))
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = DefaultSessionCookieName
	}
	if c.Session.TTL <= 0 {
		c.Session.TTL = DefaultSessionTTL
	}
	if c.Session.StaleGrace < 0 {
		errs = append(errs, errors.New("SESSION_STALE_GRACE must not be negative"))
	} else if c.Session.StaleGrace == 0 {
		c.Session.StaleGrace = DefaultStaleGrace
	}
	c.Session.Secure = c.IsProduction()

	if c.Root.Enabled {
		if c.Root.ID == "" {
			c.Root.ID = DefaultRootID
		}
		if c.Root.Email == "" {
			errs = append(errs, errors.New("ROOT_EMAIL is required when ROOT_ENABLED"))
		}
		if c.Root.Password == "" {
			errs = append(errs, errors.New("ROOT_PASSWORD is required when ROOT_ENABLED"))
		}
	}

	if c.Login.MaxAttempts <= 0 {
		c.Login.MaxAttempts = 10
	}
	if c.Login.Window <= 0 {
		c.Login.Window = 15 * time.Minute
	}

	return errors.Join(errs...)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c Config) RedisEnabled() bool {
	return c.Redis.Host != ""
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}
