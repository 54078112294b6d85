package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/mnedoszytko/leitner-flashcards/internal/logger"
)

type Config struct {
	Addr               string
	DBPath             string
	LogLevel           string
	CORSAllowedOrigins []string
	MaxImportBytes     int64
	ExportSource       string
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying sensible defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		Addr:               envOr("ADDR", ":8080"),
		DBPath:             envOr("DB_PATH", "file:leitner.db"),
		LogLevel:           envOr("LOG_LEVEL", "INFO"),
		CORSAllowedOrigins: envListOr("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		MaxImportBytes:     int64(envIntOr("MAX_IMPORT_BYTES", 10<<20)),
		ExportSource:       envOr("EXPORT_SOURCE", "Leitner Flashcards App"),
	}
}

// Validate reports every invalid setting in a single error.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Addr) == "" {
		errs = append(errs, errors.New("ADDR cannot be empty"))
	}
	if strings.TrimSpace(c.DBPath) == "" {
		errs = append(errs, errors.New("DB_PATH cannot be empty"))
	}
	if !logger.IsValidLevel(c.LogLevel) {
		errs = append(errs, fmt.Errorf("LOG_LEVEL %q must be one of DEBUG, INFO, WARN, ERROR", c.LogLevel))
	}
	if c.MaxImportBytes <= 0 {
		errs = append(errs, fmt.Errorf("MAX_IMPORT_BYTES must be positive, got %d", c.MaxImportBytes))
	}
	if strings.TrimSpace(c.ExportSource) == "" {
		errs = append(errs, errors.New("EXPORT_SOURCE cannot be empty"))
	}
	return errors.Join(errs...)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}

func envListOr(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
