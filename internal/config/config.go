package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/campus-sports/livematch/internal/platform/logging"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv             string
	ServiceName        string
	ServiceVersion     string
	HTTPAddr           string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	CORSAllowedOrigins []string
	LogLevel           logging.Level

	AdminAPIToken    string
	InternalJobToken string

	// LiveAPIEnabled selects the real live-fixtures backend; when false the
	// service runs on the in-memory store with seeded fixtures.
	LiveAPIEnabled            bool
	LiveAPIBaseURL            string
	LiveAPIToken              string
	LiveAPITimeout            time.Duration
	LiveAPIMaxRetries         int
	LiveAPICircuitEnabled     bool
	LiveAPICircuitFailures    int
	LiveAPICircuitOpenTimeout time.Duration
	LiveAPICircuitHalfOpenReq int

	ReconcileWorkers int
	MaxBench         int
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	readTimeout, err := time.ParseDuration(getEnv("APP_READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_READ_TIMEOUT: %w", err)
	}
	writeTimeout, err := time.ParseDuration(getEnv("APP_WRITE_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_WRITE_TIMEOUT: %w", err)
	}

	liveAPIEnabled, err := strconv.ParseBool(getEnv("LIVE_API_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse LIVE_API_ENABLED: %w", err)
	}
	liveAPIBaseURL := strings.TrimSpace(getEnv("LIVE_API_BASE_URL", ""))
	liveAPIToken := strings.TrimSpace(getEnv("LIVE_API_TOKEN", ""))
	if liveAPIEnabled {
		if liveAPIBaseURL == "" {
			return Config{}, fmt.Errorf("LIVE_API_BASE_URL is required when LIVE_API_ENABLED=true")
		}
		if liveAPIToken == "" {
			return Config{}, fmt.Errorf("LIVE_API_TOKEN is required when LIVE_API_ENABLED=true")
		}
	}

	liveAPITimeout, err := time.ParseDuration(getEnv("LIVE_API_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse LIVE_API_TIMEOUT: %w", err)
	}
	if liveAPITimeout <= 0 {
		return Config{}, fmt.Errorf("LIVE_API_TIMEOUT must be > 0")
	}

	liveAPIMaxRetries, err := getEnvAsInt("LIVE_API_MAX_RETRIES", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse LIVE_API_MAX_RETRIES: %w", err)
	}
	if liveAPIMaxRetries < 0 {
		return Config{}, fmt.Errorf("LIVE_API_MAX_RETRIES must be >= 0")
	}

	circuitEnabled, err := strconv.ParseBool(getEnv("LIVE_API_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse LIVE_API_CIRCUIT_ENABLED: %w", err)
	}
	circuitFailures, err := getEnvAsInt("LIVE_API_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse LIVE_API_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if circuitFailures < 1 {
		return Config{}, fmt.Errorf("LIVE_API_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	circuitOpenTimeout, err := time.ParseDuration(getEnv("LIVE_API_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse LIVE_API_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if circuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("LIVE_API_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	circuitHalfOpenReq, err := getEnvAsInt("LIVE_API_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse LIVE_API_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if circuitHalfOpenReq < 1 {
		return Config{}, fmt.Errorf("LIVE_API_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	reconcileWorkers, err := getEnvAsInt("RECONCILE_WORKERS", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse RECONCILE_WORKERS: %w", err)
	}
	if reconcileWorkers < 1 {
		return Config{}, fmt.Errorf("RECONCILE_WORKERS must be >= 1")
	}

	maxBench, err := getEnvAsInt("MAX_BENCH", 9)
	if err != nil {
		return Config{}, fmt.Errorf("parse MAX_BENCH: %w", err)
	}
	if maxBench < 0 {
		return Config{}, fmt.Errorf("MAX_BENCH must be >= 0")
	}

	cfg := Config{
		AppEnv:             appEnv,
		ServiceName:        getEnv("APP_SERVICE_NAME", "livematch-api"),
		ServiceVersion:     getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:           getEnv("APP_HTTP_ADDR", ":8080"),
		ReadTimeout:        readTimeout,
		WriteTimeout:       writeTimeout,
		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		LogLevel:           parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),

		AdminAPIToken:    strings.TrimSpace(getEnv("ADMIN_API_TOKEN", "")),
		InternalJobToken: strings.TrimSpace(getEnv("INTERNAL_JOB_TOKEN", "")),

		LiveAPIEnabled:            liveAPIEnabled,
		LiveAPIBaseURL:            liveAPIBaseURL,
		LiveAPIToken:              liveAPIToken,
		LiveAPITimeout:            liveAPITimeout,
		LiveAPIMaxRetries:         liveAPIMaxRetries,
		LiveAPICircuitEnabled:     circuitEnabled,
		LiveAPICircuitFailures:    circuitFailures,
		LiveAPICircuitOpenTimeout: circuitOpenTimeout,
		LiveAPICircuitHalfOpenReq: circuitHalfOpenReq,

		ReconcileWorkers: reconcileWorkers,
		MaxBench:         maxBench,
	}

	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}
	if cfg.AppEnv == EnvProd && cfg.AdminAPIToken == "" {
		return Config{}, fmt.Errorf("ADMIN_API_TOKEN is required when APP_ENV=prod")
	}

	return cfg, nil
}

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}
