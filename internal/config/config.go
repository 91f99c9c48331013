package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// InitDB opens the postgres connection from the environment. DATABASE_URL
// wins; otherwise the DSN is assembled from the discrete DB_* variables.
func InitDB() *gorm.DB {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			envOr("DB_HOST", "localhost"),
			envOr("DB_PORT", "5432"),
			envOr("DB_USER", "postgres"),
			envOr("DB_PASSWORD", "postgres"),
			envOr("DB_NAME", "tools"),
			envOr("DB_SSLMODE", "disable"),
		)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect to database")
	}
	return db
}

// DetectionConfig selects and tunes the detection backend. A non-empty
// RemoteURL means the remote backend is configured and takes priority.
type DetectionConfig struct {
	RemoteURL        string
	Timeout          time.Duration
	DefaultThreshold float64
}

func (c DetectionConfig) RemoteConfigured() bool {
	return c.RemoteURL != ""
}

func LoadDetection() DetectionConfig {
	cfg := DetectionConfig{
		RemoteURL:        os.Getenv("DETECTION_REMOTE_URL"),
		Timeout:          30 * time.Second,
		DefaultThreshold: 0.5,
	}

	if raw := os.Getenv("DETECTION_TIMEOUT_SECONDS"); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			cfg.Timeout = time.Duration(secs) * time.Second
		}
	}
	if raw := os.Getenv("DETECTION_DEFAULT_THRESHOLD"); raw != "" {
		if threshold, err := strconv.ParseFloat(raw, 64); err == nil && threshold > 0 && threshold <= 1 {
			cfg.DefaultThreshold = threshold
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
