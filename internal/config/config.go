// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the API server and schedulectl.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// NextDeparturesLimit is how many upcoming departures the next endpoint
	// returns by default. 1..50, defaults to 3.
	NextDeparturesLimit int

	// MaxBodyBytes caps request bodies. Defaults to 1 MiB.
	MaxBodyBytes int64

	// MigrateOnStart applies pending goose migrations before serving.
	// Defaults to true.
	MigrateOnStart bool

	// NATSURL enables change events when set. Empty disables publishing.
	NATSURL string

	// NATSSubjectPrefix is the first subject token of every event.
	// Defaults to "busboard".
	NATSSubjectPrefix string
}

// Load reads configuration from environment variables and returns a Config.
// A .env file in the working directory is loaded first when present; real
// environment variables win over it.
// Returns an error listing any required variables that are not set and any
// variables that do not parse.
func Load() (Config, error) {
	// A missing .env is the normal case in containers.
	_ = godotenv.Load()

	cfg := Config{
		Port:              getEnv("PORT", "8080"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		CORSOrigins:       splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		NATSURL:           os.Getenv("NATS_URL"),
		NATSSubjectPrefix: getEnv("NATS_SUBJECT_PREFIX", "busboard"),
	}

	var missing, invalid []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	limit, err := strconv.Atoi(getEnv("NEXT_DEPARTURES_LIMIT", "3"))
	if err != nil || limit < 1 || limit > 50 {
		invalid = append(invalid, "NEXT_DEPARTURES_LIMIT (1..50)")
	}
	cfg.NextDeparturesLimit = limit

	maxBody, err := strconv.ParseInt(getEnv("MAX_BODY_BYTES", "1048576"), 10, 64)
	if err != nil || maxBody < 1 {
		invalid = append(invalid, "MAX_BODY_BYTES (positive integer)")
	}
	cfg.MaxBodyBytes = maxBody

	migrate, err := strconv.ParseBool(getEnv("MIGRATE_ON_START", "true"))
	if err != nil {
		invalid = append(invalid, "MIGRATE_ON_START (true/false)")
	}
	cfg.MigrateOnStart = migrate

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variables: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
