// Package config loads application settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/erazemk/lostfound/internal/db"
)

// Config holds application configuration values.
type Config struct {
	SecretKey      string `mapstructure:"SECRET_KEY"`
	DatabaseURL    string `mapstructure:"DATABASE_URL"`
	UploadFolder   string `mapstructure:"UPLOAD_FOLDER"`
	MaxUploadSize  int64  `mapstructure:"MAX_UPLOAD_SIZE"`
	Port           int    `mapstructure:"PORT"`
	RedisURL       string `mapstructure:"REDIS_URL"`
	LoginRateLimit int    `mapstructure:"LOGIN_RATE_LIMIT"`
	LogFile        string `mapstructure:"LOG_FILE"`
	Env            string `mapstructure:"APP_ENV"`
}

// Defaults.
const (
	DefaultDatabaseURL    = "lostfound.sqlite3"
	DefaultUploadFolder   = "uploads"
	DefaultMaxUploadSize  = 16 << 20
	DefaultPort           = 5000
	DefaultLoginRateLimit = 10
)

// MinProductionSecret is the shortest SECRET_KEY accepted in production.
const MinProductionSecret = 32

// Load reads envFile (if it exists) into the process environment and then
// builds a Config from environment variables and defaults.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SECRET_KEY", "")
	v.SetDefault("DATABASE_URL", DefaultDatabaseURL)
	v.SetDefault("UPLOAD_FOLDER", DefaultUploadFolder)
	v.SetDefault("MAX_UPLOAD_SIZE", DefaultMaxUploadSize)
	v.SetDefault("PORT", DefaultPort)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("LOGIN_RATE_LIMIT", DefaultLoginRateLimit)
	v.SetDefault("LOG_FILE", "")
	v.SetDefault("APP_ENV", "development")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &cfg, nil
}

// IsProduction reports whether APP_ENV names a production deployment.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// DatabasePath returns the SQLite path DATABASE_URL points at.
func (c *Config) DatabasePath() (string, error) {
	return db.PathFromURL(c.DatabaseURL)
}

// Validate checks that the values are usable.
func (c *Config) Validate() error {
	if _, err := c.DatabasePath(); err != nil {
		return fmt.Errorf("DATABASE_URL: %w", err)
	}
	if c.UploadFolder == "" {
		return errors.New("UPLOAD_FOLDER is required")
	}
	if c.MaxUploadSize <= 0 {
		return errors.New("MAX_UPLOAD_SIZE must be positive")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT %d out of range", c.Port)
	}
	if c.LoginRateLimit < 0 {
		return errors.New("LOGIN_RATE_LIMIT must not be negative")
	}

	if c.IsProduction() {
		if len(c.SecretKey) < MinProductionSecret {
			return fmt.Errorf("SECRET_KEY must be at least %d characters in production", MinProductionSecret)
		}
	} else if c.SecretKey != "" && len(c.SecretKey) < MinProductionSecret {
		slog.Warn("SECRET_KEY is shorter than recommended", "min", MinProductionSecret)
	}

	return nil
}
