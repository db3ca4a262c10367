package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Snapshot backends
const (
	SnapshotMemory   = "memory"
	SnapshotFile     = "file"
	SnapshotRedis    = "redis"
	SnapshotPostgres = "postgres"
)

// Storage backends
const (
	StorageNone  = "none"
	StorageS3    = "s3"
	StorageMinIO = "minio"
)

// Config holds all configuration for the application
type Config struct {
	// Server
	Port        string
	CORSOrigins []string
	Env         string
	// AppOrigin is the public origin embedded in invite URLs
	AppOrigin string

	// Persistence
	SnapshotBackend  string
	SnapshotFile     string
	RedisURL         string
	SnapshotRedisKey string
	DatabaseURL      string

	// Remote APIs
	ChatAPIURL     string
	ChatAPIKey     string
	SpaceAPIURL    string
	SpaceAPIKey    string
	GatewayTimeout time.Duration

	InviteTTLHours         int
	ChatRateLimitPerMinute int

	// Auth0 (optional: both or neither)
	Auth0Domain   string
	Auth0Audience string

	// Document storage
	StorageBackend string
	S3             S3Config
	MinIO          MinIOConfig

	// NATSURL enables event fan-out over NATS when set
	NATSURL string
}

// S3Config holds AWS S3 configuration
type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // Optional: for LocalStack local dev
}

// MinIOConfig holds MinIO configuration
type MinIOConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	UseSSL          bool
}

// AuthEnabled reports whether bearer-token authentication is configured
func (c *Config) AuthEnabled() bool {
	return c.Auth0Domain != "" && c.Auth0Audience != ""
}

// IsProduction reports whether the app runs in production
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	timeoutSeconds, err := getEnvInt("GATEWAY_TIMEOUT_SECONDS", 5)
	if err != nil {
		return nil, err
	}
	inviteTTL, err := getEnvInt("INVITE_TTL_HOURS", 168)
	if err != nil {
		return nil, err
	}
	chatRate, err := getEnvInt("CHAT_RATE_LIMIT_PER_MINUTE", 30)
	if err != nil {
		return nil, err
	}
	minioSSL, err := strconv.ParseBool(getEnv("MINIO_USE_SSL", "false"))
	if err != nil {
		return nil, fmt.Errorf("MINIO_USE_SSL must be a boolean: %w", err)
	}

	cfg := &Config{
		Port:                   getEnv("PORT", "8080"),
		CORSOrigins:            strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),
		Env:                    getEnv("ENV", "development"),
		AppOrigin:              getEnv("APP_ORIGIN", "http://localhost:3000"),
		SnapshotBackend:        strings.ToLower(getEnv("SNAPSHOT_BACKEND", SnapshotFile)),
		SnapshotFile:           getEnv("SNAPSHOT_FILE", "./data/snapshot.json"),
		RedisURL:               getEnv("REDIS_URL", ""),
		SnapshotRedisKey:       getEnv("SNAPSHOT_REDIS_KEY", "spaces:snapshot"),
		DatabaseURL:            getEnv("DATABASE_URL", ""),
		ChatAPIURL:             getEnv("CHAT_API_URL", ""),
		ChatAPIKey:             getEnv("CHAT_API_KEY", ""),
		SpaceAPIURL:            getEnv("SPACE_API_URL", ""),
		SpaceAPIKey:            getEnv("SPACE_API_KEY", ""),
		GatewayTimeout:         time.Duration(timeoutSeconds) * time.Second,
		InviteTTLHours:         inviteTTL,
		ChatRateLimitPerMinute: chatRate,
		Auth0Domain:            getEnv("AUTH0_DOMAIN", ""),
		Auth0Audience:          getEnv("AUTH0_AUDIENCE", ""),
		StorageBackend:         strings.ToLower(getEnv("STORAGE_BACKEND", StorageNone)),
		S3: S3Config{
			Region:          getEnv("S3_REGION", "us-east-1"),
			Bucket:          getEnv("S3_BUCKET", "spaces-documents"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			Endpoint:        getEnv("S3_ENDPOINT", ""), // Empty = use AWS
		},
		MinIO: MinIOConfig{
			Endpoint:        getEnv("MINIO_ENDPOINT", ""),
			AccessKeyID:     getEnv("MINIO_ACCESS_KEY", ""),
			SecretAccessKey: getEnv("MINIO_SECRET_KEY", ""),
			BucketName:      getEnv("MINIO_BUCKET", "spaces-documents"),
			UseSSL:          minioSSL,
		},
		NATSURL: getEnv("NATS_URL", ""),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.SnapshotBackend {
	case SnapshotMemory:
	case SnapshotFile:
		if c.SnapshotFile == "" {
			return fmt.Errorf("SNAPSHOT_FILE is required for the file snapshot backend")
		}
	case SnapshotRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis snapshot backend")
		}
	case SnapshotPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres snapshot backend")
		}
	default:
		return fmt.Errorf("unknown SNAPSHOT_BACKEND %q", c.SnapshotBackend)
	}

	switch c.StorageBackend {
	case StorageNone:
	case StorageS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required for the s3 storage backend")
		}
	case StorageMinIO:
		if c.MinIO.Endpoint == "" || c.MinIO.BucketName == "" {
			return fmt.Errorf("MINIO_ENDPOINT and MINIO_BUCKET are required for the minio storage backend")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}

	if (c.Auth0Domain == "") != (c.Auth0Audience == "") {
		return fmt.Errorf("AUTH0_DOMAIN and AUTH0_AUDIENCE must be set together")
	}
	if c.GatewayTimeout <= 0 {
		return fmt.Errorf("GATEWAY_TIMEOUT_SECONDS must be positive")
	}
	if c.InviteTTLHours <= 0 || c.InviteTTLHours > 24*30 {
		return fmt.Errorf("INVITE_TTL_HOURS must be between 1 and %d", 24*30)
	}
	if c.ChatRateLimitPerMinute <= 0 {
		return fmt.Errorf("CHAT_RATE_LIMIT_PER_MINUTE must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}
