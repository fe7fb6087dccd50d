// Package config holds the environment-driven configuration for the
// dataplane service. Every platform-shared service (Redis, MinIO/S3,
// PostgreSQL) is configured here so the API server, the worker pool and
// the CLI all read the same surface.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Defaults for the application surface.
const (
	DefaultAppName    = "dataplane"
	DefaultAppVersion = "1.0.0"
	DefaultListenAddr = ":8080"
)

// GetEnv retrieves the value of an environment variable with a fallback value if not set
func GetEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// GetEnvInt retrieves an integer environment variable with a fallback value
func GetEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}

// GetEnvBool retrieves a boolean environment variable with a fallback value
func GetEnvBool(key string, fallback bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return b
}

// GetEnvDuration retrieves a duration environment variable with a fallback value
func GetEnvDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

// Settings is the full application configuration.
type Settings struct {
	// Application
	AppName     string
	AppVersion  string
	AppEnv      string
	ListenAddr  string
	CORSOrigins []string

	// Submission limits
	MaxPayloadBytes int
	EnqueueTimeout  time.Duration

	// Redis (job record store + execution queue)
	RedisHost     string
	RedisPort     int
	RedisPassword string
	RedisDB       int
	JobTTL        time.Duration

	// S3-compatible object store (MinIO on the platform)
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3Region    string
	S3UseSSL    bool

	// PostgreSQL job archive
	ArchiveEnabled   bool
	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Worker pool
	WorkerConcurrency int
	PollTimeout       time.Duration
}

// Load builds Settings from environment variables, applying defaults for
// anything unset.
func Load() *Settings {
	return &Settings{
		AppName:     GetEnv("APP_NAME", DefaultAppName),
		AppVersion:  GetEnv("APP_VERSION", DefaultAppVersion),
		AppEnv:      GetEnv("APP_ENV", "development"),
		ListenAddr:  GetEnv("LISTEN_ADDR", DefaultListenAddr),
		CORSOrigins: splitOrigins(GetEnv("CORS_ORIGINS", "*")),

		MaxPayloadBytes: GetEnvInt("MAX_PAYLOAD_BYTES", 1<<20),
		EnqueueTimeout:  GetEnvDuration("ENQUEUE_TIMEOUT", 5*time.Second),

		RedisHost:     GetEnv("REDIS_HOST", "localhost"),
		RedisPort:     GetEnvInt("REDIS_PORT", 6379),
		RedisPassword: GetEnv("REDIS_PASSWORD", ""),
		RedisDB:       GetEnvInt("REDIS_DB", 0),
		JobTTL:        GetEnvDuration("JOB_TTL", 7*24*time.Hour),

		S3Endpoint:  GetEnv("S3_ENDPOINT", "http://localhost:9000"),
		S3AccessKey: GetEnv("S3_ACCESS_KEY", "minio-admin"),
		S3SecretKey: GetEnv("S3_SECRET_KEY", "changeme"),
		S3Bucket:    GetEnv("S3_BUCKET", "data-platform"),
		S3Region:    GetEnv("S3_REGION", "us-east-1"),
		S3UseSSL:    GetEnvBool("S3_USE_SSL", false),

		ArchiveEnabled:   GetEnvBool("ARCHIVE_ENABLED", false),
		PostgresHost:     GetEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     GetEnvInt("POSTGRES_PORT", 5432),
		PostgresUser:     GetEnv("POSTGRES_USER", "postgres"),
		PostgresPassword: GetEnv("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:       GetEnv("POSTGRES_DB", "dataplane"),
		PostgresSSLMode:  GetEnv("POSTGRES_SSL_MODE", "disable"),

		WorkerConcurrency: GetEnvInt("WORKER_CONCURRENCY", 4),
		PollTimeout:       GetEnvDuration("POLL_TIMEOUT", time.Second),
	}
}

// RedisAddr returns the host:port address for the Redis connection.
func (s *Settings) RedisAddr() string {
	return fmt.Sprintf("%s:%d", s.RedisHost, s.RedisPort)
}

// PostgresDSN returns the DSN for the archive database connection.
func (s *Settings) PostgresDSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		s.PostgresHost, s.PostgresUser, s.PostgresPassword, s.PostgresDB, s.PostgresPort, s.PostgresSSLMode)
}

func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
