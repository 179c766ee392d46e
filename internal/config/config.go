package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	apperrors "github.com/jobappid/verify-portal/pkg/util/errorutil"
)

// Config aggregates runtime configuration for the portal.
type Config struct {
	App      AppConfig
	Upstream UpstreamConfig
	Redis    RedisConfig
	Session  SessionConfig
	Logger   LoggerConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// UpstreamConfig points at the verification API.
type UpstreamConfig struct {
	BaseURL        string
	TimeoutSeconds int
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// SessionConfig controls browser session persistence.
type SessionConfig struct {
	Backend      string
	Secret       string
	TTLHours     int
	CookieSecure bool
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// Session backends.
const (
	SessionBackendRedis  = "redis"
	SessionBackendMemory = "memory"
)

// Load reads configuration from environment variables, applying defaults where possible.
// A missing API_BASE_URL is reported here so the process never starts without one.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	baseURL, err := BaseURL(os.Getenv("API_BASE_URL"))
	if err != nil {
		return nil, err
	}

	backend := strings.ToLower(getEnv("SESSION_BACKEND", SessionBackendRedis))
	if backend != SessionBackendRedis && backend != SessionBackendMemory {
		return nil, apperrors.NewConfigError(fmt.Sprintf("invalid SESSION_BACKEND %q: use redis or memory", backend))
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "verify-portal"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Upstream: UpstreamConfig{
			BaseURL:        baseURL,
			TimeoutSeconds: getEnvAsInt("UPSTREAM_TIMEOUT_SECONDS", 20),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Session: SessionConfig{
			Backend:      backend,
			Secret:       getEnv("SESSION_SECRET", "dev-secret"),
			TTLHours:     getEnvAsInt("SESSION_TTL_HOURS", 12),
			CookieSecure: getEnvAsBool("SESSION_COOKIE_SECURE", false),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	return cfg, nil
}

// BaseURL validates the upstream base URL and strips trailing slashes.
func BaseURL(raw string) (string, error) {
	v := strings.TrimRight(strings.TrimSpace(raw), "/")
	if v == "" {
		return "", apperrors.NewConfigError("missing API_BASE_URL: set it in your .env and restart")
	}
	return v, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Timeout returns the per-call upstream timeout.
func (u UpstreamConfig) Timeout() time.Duration {
	if u.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(u.TimeoutSeconds) * time.Second
}

// TTL returns how long an idle session is kept.
func (s SessionConfig) TTL() time.Duration {
	if s.TTLHours <= 0 {
		return 12 * time.Hour
	}
	return time.Duration(s.TTLHours) * time.Hour
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
