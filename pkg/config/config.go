// pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/David-Botos/data-clarity/pkg/model"
)

// Audit backends
const (
	AuditBackendFile     = "file"
	AuditBackendPostgres = "postgres"
	AuditBackendNone     = "none"
)

// Scorer names accepted in MATCH_SCORER
const (
	ScorerPartial     = "partial"
	ScorerLevenshtein = "levenshtein"
)

// Config represents the application configuration
type Config struct {
	// Optional database connections; nil when not configured
	Snowflake *SnowflakeConfig
	Postgres  *PostgresConfig

	// Cleaning defaults
	MissingColumnThreshold float64
	FillValue              string
	ExtraNullMarkers       []string

	// Matching
	MinConfidence float64
	Scorer        string
	CatalogPath   string

	// Audit log
	AuditBackend string
	AuditLogPath string
	AuditTable   string

	// Logging
	LogLevel  string
	LogFormat string
}

// LoadConfig loads configuration from environment variables. Variables are first
// read from the given env files, or from .env when none are given; a missing
// .env is not an error.
func LoadConfig(envFiles ...string) (*Config, error) {
	if err := loadEnvFiles(envFiles); err != nil {
		return nil, err
	}

	cfg := &Config{
		// Default values
		MissingColumnThreshold: getEnvAsFloat("CLEAN_MISSING_THRESHOLD", model.DefaultMissingColumnThreshold),
		FillValue:              getEnv("CLEAN_FILL_VALUE", model.DefaultFillValue),
		ExtraNullMarkers:       getEnvAsStringSlice("CLEAN_NULL_MARKERS", nil),
		MinConfidence:          getEnvAsFloat("MATCH_MIN_CONFIDENCE", 60),
		Scorer:                 strings.ToLower(getEnv("MATCH_SCORER", ScorerPartial)),
		CatalogPath:            getEnv("CATALOG_PATH", ""),
		AuditBackend:           strings.ToLower(getEnv("AUDIT_BACKEND", AuditBackendFile)),
		AuditLogPath:           getEnv("AUDIT_LOG_PATH", "data_clarity_audit.log"),
		AuditTable:             getEnv("AUDIT_TABLE", "data_clarity_audit"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		LogFormat:              getEnv("LOG_FORMAT", "console"),
	}

	// Load optional database configurations
	snowConfig, err := LoadSnowflakeConfig()
	switch {
	case err == nil:
		cfg.Snowflake = snowConfig
	case !errors.Is(err, ErrNotConfigured):
		return nil, fmt.Errorf("failed to load Snowflake configuration: %w", err)
	}

	pgConfig, err := LoadPostgresConfig()
	switch {
	case err == nil:
		cfg.Postgres = pgConfig
	case !errors.Is(err, ErrNotConfigured):
		return nil, fmt.Errorf("failed to load PostgreSQL configuration: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures all required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.CleaningParameters().Validate(); err != nil {
		return err
	}

	if math.IsNaN(c.MinConfidence) || c.MinConfidence < 0 || c.MinConfidence > 100 {
		return fmt.Errorf("match confidence must be between 0 and 100, got %v", c.MinConfidence)
	}

	switch c.Scorer {
	case ScorerPartial, ScorerLevenshtein:
	default:
		return fmt.Errorf("unknown scorer %q", c.Scorer)
	}

	switch c.AuditBackend {
	case AuditBackendFile:
		if c.AuditLogPath == "" {
			return errors.New("audit log path is required for the file audit backend")
		}
	case AuditBackendPostgres:
		if c.Postgres == nil {
			return fmt.Errorf("postgres audit backend: %w", ErrNotConfigured)
		}
		if c.AuditTable == "" {
			return errors.New("audit table is required for the postgres audit backend")
		}
	case AuditBackendNone:
	default:
		return fmt.Errorf("unknown audit backend %q", c.AuditBackend)
	}

	return nil
}

// CleaningParameters returns the configured defaults for the executor
func (c *Config) CleaningParameters() model.CleaningParameters {
	return model.CleaningParameters{
		MissingColumnThreshold: c.MissingColumnThreshold,
		FillValue:              c.FillValue,
	}
}

func loadEnvFiles(files []string) error {
	if len(files) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load .env: %w", err)
		}
		return nil
	}

	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("failed to load env files: %w", err)
	}
	return nil
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(valueStr), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsStringSlice parses a comma-separated list, dropping empty items
func getEnvAsStringSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var result []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			result = append(result, v)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}
	return result
}
