package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/aussiebroadwan/estate/pkg/httpx"
)

type Config struct {
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	BaseURL              string        // Public URL used in mailed links (default: http://localhost:PORT)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Orphan image sweep interval (default: 1h)
	OrphanGracePeriod    time.Duration // Minimum age of an unreferenced image before removal (default: 1h)

	DBDriver     string // sqlite or postgres (default: sqlite)
	DatabaseFile string // SQLite database file (default: estate.db)
	DatabaseURL  string // Postgres DSN, required when DBDriver is postgres

	JWTSecret    string        // Session signing secret, required outside dev
	SessionTTL   time.Duration // Session lifetime (default: 24h)
	CookieSecure bool          // Secure flag on the session cookie (default: true unless ENV=dev)
	PepperFile   string        // File holding the password pepper (default: pepper)

	AssetBackend   string // fs or gridfs (default: fs)
	UploadsDir     string // Image directory for the fs backend (default: public/uploads)
	MaxUploadBytes int64  // Largest accepted image (default: 5 MiB)
	MongoURI       string // MongoDB URI, required when AssetBackend is gridfs
	MongoDatabase  string // MongoDB database for the gridfs bucket (default: estate)

	SMTPHost string // Mail server; empty logs mail instead of sending it
	SMTPPort int    // Mail server port (default: 587)
	SMTPUser string
	SMTPPass string
	MailFrom string // Sender address (default: no-reply@localhost)

	PublishedOnly bool // Hide drafts from public browsing, search and the API (default: false)
}

// LoadConfig reads the environment, after loading a .env file if one exists.
func LoadConfig() Config {
	_ = godotenv.Load()
	httpx.ReloadRateLimits()

	env := getEnvOrDefault("ENV", "dev")
	port := getEnvIntOrDefault("PORT", 8080)

	return Config{
		Env:                  env,
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 port,
		BaseURL:              getEnvOrDefault("BASE_URL", fmt.Sprintf("http://localhost:%d", port)),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
		OrphanGracePeriod:    getEnvDurationOrDefault("ORPHAN_GRACE_PERIOD", 1*time.Hour),

		DBDriver:     strings.ToLower(getEnvOrDefault("DB_DRIVER", "sqlite")),
		DatabaseFile: getEnvOrDefault("DATABASE_FILE", "estate.db"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),

		JWTSecret:    os.Getenv("JWT_SECRET"),
		SessionTTL:   getEnvDurationOrDefault("SESSION_TTL", 24*time.Hour),
		CookieSecure: getEnvBoolOrDefault("COOKIE_SECURE", env != "dev"),
		PepperFile:   getEnvOrDefault("PEPPER_FILE", "pepper"),

		AssetBackend:   strings.ToLower(getEnvOrDefault("ASSET_BACKEND", "fs")),
		UploadsDir:     getEnvOrDefault("UPLOADS_DIR", "public/uploads"),
		MaxUploadBytes: int64(getEnvIntOrDefault("MAX_UPLOAD_BYTES", 5<<20)),
		MongoURI:       os.Getenv("MONGO_URI"),
		MongoDatabase:  getEnvOrDefault("MONGO_DATABASE", "estate"),

		SMTPHost: os.Getenv("SMTP_HOST"),
		SMTPPort: getEnvIntOrDefault("SMTP_PORT", 587),
		SMTPUser: os.Getenv("SMTP_USER"),
		SMTPPass: os.Getenv("SMTP_PASS"),
		MailFrom: getEnvOrDefault("MAIL_FROM", "no-reply@localhost"),

		PublishedOnly: getEnvBoolOrDefault("PUBLISHED_ONLY", false),
	}
}

// Validate reports settings that cannot work together.
func (c Config) Validate() error {
	var errs []error

	switch c.DBDriver {
	case "sqlite":
	case "postgres":
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required with DB_DRIVER=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver))
	}

	switch c.AssetBackend {
	case "fs":
	case "gridfs":
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGO_URI is required with ASSET_BACKEND=gridfs"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown ASSET_BACKEND %q", c.AssetBackend))
	}

	if c.JWTSecret == "" && c.Env != "dev" {
		errs = append(errs, errors.New("JWT_SECRET is required outside dev"))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_BYTES must be positive"))
	}

	return errors.Join(errs...)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
