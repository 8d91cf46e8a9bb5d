package config

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env   string
	Port  int
	DBURL string

	DBMaxConns        int
	DBConnectAttempts int

	JWTSecret   string
	JWTTTLHours int

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	CORSAllowedOrigins []string

	AuthRateLimit       int
	AuthRateLimitWindow time.Duration
	// WriteRateLimit caps chat sends and connection requests per user per
	// minute. Zero turns it off.
	WriteRateLimit int
	MaxBodyBytes   int64

	OTELEndpoint      string
	OTELServiceName   string
	OTELSamplePercent int

	WorkerPollInterval time.Duration
	WorkerConcurrency  int
	WorkerHealthPort   int
	WorkerLockTTL      time.Duration
	JobMaxAttempts     int

	NotifierTimeout          time.Duration
	NotifierFailureThreshold int
	NotifierCooldown         time.Duration
}

// LoadDotEnv reads a local .env file when one exists. Real environment
// variables always win over file values.
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Default().Warn("could not load .env", "err", err)
	}
}

func Load() Config {
	return Config{
		Env:   getEnv("APP_ENV", "dev"),
		Port:  getEnvInt("PORT", 8080),
		DBURL: buildDBURL(),

		DBMaxConns:        getEnvInt("DB_MAX_CONNS", 10),
		DBConnectAttempts: getEnvInt("DB_CONNECT_ATTEMPTS", 5),

		JWTSecret:   getEnv("JWT_SECRET", "dev-secret-change-me"),
		JWTTTLHours: getEnvInt("JWT_TTL_HOURS", 24),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		CacheTTL:      time.Duration(getEnvInt("CACHE_TTL_SECONDS", 10)) * time.Second,

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),

		AuthRateLimit:       getEnvInt("AUTH_RATE_LIMIT", 20),
		AuthRateLimitWindow: time.Duration(getEnvInt("AUTH_RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second,
		WriteRateLimit:      getEnvInt("WRITE_RATE_LIMIT_PER_MINUTE", 60),
		MaxBodyBytes:        int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),

		OTELEndpoint:      getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTELServiceName:   getEnv("OTEL_SERVICE_NAME", "worklink"),
		OTELSamplePercent: getEnvInt("OTEL_SAMPLE_PERCENT", 100),

		WorkerPollInterval: time.Duration(getEnvInt("WORKER_POLL_INTERVAL_MS", 500)) * time.Millisecond,
		WorkerConcurrency:  getEnvInt("WORKER_CONCURRENCY", 4),
		WorkerHealthPort:   getEnvInt("WORKER_HEALTH_PORT", 8081),
		WorkerLockTTL:      time.Duration(getEnvInt("WORKER_LOCK_TTL_SECONDS", 60)) * time.Second,
		JobMaxAttempts:     getEnvInt("JOB_MAX_ATTEMPTS", 8),

		NotifierTimeout:          time.Duration(getEnvInt("NOTIFIER_TIMEOUT_MS", 3000)) * time.Millisecond,
		NotifierFailureThreshold: getEnvInt("NOTIFIER_FAILURE_THRESHOLD", 3),
		NotifierCooldown:         time.Duration(getEnvInt("NOTIFIER_COOLDOWN_SECONDS", 15)) * time.Second,
	}
}

func (c Config) JWTTTL() time.Duration {
	return time.Duration(c.JWTTTLHours) * time.Hour
}

func buildDBURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "worklink")
	pass := getEnv("DB_PASSWORD", "worklink")
	name := getEnv("DB_NAME", "worklink")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)
		if err != nil {
			slog.Default().Warn("invalid integer env value, using default", "key", key, "value", v)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	out := make([]string, 0)
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
