package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type EnvConfig struct {
	Postgres struct {
		Host     string
		Database string
		Username string
		Password string
		Port     string
	}
	Redis struct {
		Password string
		Database int
		Host     string
		Port     string
	}
	RabbitMQ struct {
		Host     string
		Port     string
		Username string
		Password string
	}
	JWT struct {
		SecretKey string
	}
	CORS struct {
		AllowDomains string
	}
	Storage struct {
		Backend       string // "s3", "minio" or "local"
		S3Bucket      string
		S3Region      string
		S3AccessKey   string
		S3SecretKey   string
		S3Endpoint    string
		MinioEndpoint string
		MinioAccess   string
		MinioSecret   string
		MinioBucket   string
		MinioUseSSL   bool
		LocalDir      string
		PublicBaseURL string
	}
	Quota struct {
		CeilingBytes      int64 // 0 = use backend-type default
		RecomputeInterval time.Duration
	}
	Thumbnail struct {
		Queue          string
		Concurrency    int
		MaxAttempts    int
		BackoffKind    string // "fixed" or "exponential"
		BaseDelay      time.Duration
		Width          int
		MaxSeekSeconds float64
		SignTTL        time.Duration
	}
	Media struct {
		ProbeTimeout   time.Duration
		ExtractTimeout time.Duration
		ScratchDir     string
	}
	Telemetry struct {
		OTLPEndpoint string
		ServiceName  string
	}
	Environment struct {
		Mode string
	}
}

// Per-backend quota defaults, applied when QUOTA_CEILING_BYTES is unset.
const (
	defaultQuotaLocal = 100 << 30 // 100 GiB
	defaultQuotaMinio = 500 << 30 // 500 GiB
	defaultQuotaS3    = 1 << 40   // 1 TiB
)

func LoadEnvConfig() *EnvConfig {
	var config EnvConfig

	// Postgres
	config.Postgres.Host = getenv("PGPOOL_HOST", "localhost")
	config.Postgres.Database = getenv("PGPOOL_DB", "cutroom")
	config.Postgres.Username = getenv("PGPOOL_USER", "postgres")
	config.Postgres.Password = os.Getenv("PGPOOL_PASSWORD")
	config.Postgres.Port = getenv("PGPOOL_PORT", "5432")

	// Redis
	config.Redis.Password = os.Getenv("REDIS_PASSWORD")
	config.Redis.Database, _ = strconv.Atoi(os.Getenv("REDIS_DB"))
	config.Redis.Host = getenv("REDIS_HOST", "localhost")
	config.Redis.Port = getenv("REDIS_PORT", "6379")

	// RabbitMQ
	config.RabbitMQ.Host = getenv("RABBITMQ_HOST", "localhost")
	config.RabbitMQ.Port = getenv("RABBITMQ_PORT", "5672")
	config.RabbitMQ.Username = getenv("RABBITMQ_USER", "guest")
	config.RabbitMQ.Password = getenv("RABBITMQ_PASSWORD", "guest")

	config.JWT.SecretKey = os.Getenv("JWT_SECRET_KEY")
	config.CORS.AllowDomains = os.Getenv("ALLOWED_DOMAINS")

	// Storage backend selection; exactly one implementation is constructed
	// at startup and injected everywhere as the same interface type.
	config.Storage.Backend = strings.ToLower(getenv("STORAGE_BACKEND", "local"))
	config.Storage.S3Bucket = getenv("AWS_S3_BUCKET", "cutroom-media")
	config.Storage.S3Region = getenv("AWS_S3_REGION", "us-east-1")
	config.Storage.S3AccessKey = os.Getenv("AWS_ACCESS_KEY_ID")
	config.Storage.S3SecretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	config.Storage.S3Endpoint = os.Getenv("AWS_S3_ENDPOINT")
	config.Storage.MinioEndpoint = os.Getenv("MINIO_ENDPOINT")
	config.Storage.MinioAccess = os.Getenv("MINIO_ACCESS_KEY")
	config.Storage.MinioSecret = os.Getenv("MINIO_SECRET_KEY")
	config.Storage.MinioBucket = getenv("MINIO_BUCKET", "cutroom-media")
	config.Storage.MinioUseSSL = getenv("MINIO_USE_SSL", "false") == "true"
	config.Storage.LocalDir = getenv("LOCAL_STORAGE_DIR", "./data/media")
	config.Storage.PublicBaseURL = getenv("PUBLIC_BASE_URL", "http://localhost:8080/media")

	// Quota ceiling: backend-type-dependent default, overridable.
	if v, err := strconv.ParseInt(os.Getenv("QUOTA_CEILING_BYTES"), 10, 64); err == nil && v > 0 {
		config.Quota.CeilingBytes = v
	} else {
		switch config.Storage.Backend {
		case "s3":
			config.Quota.CeilingBytes = defaultQuotaS3
		case "minio":
			config.Quota.CeilingBytes = defaultQuotaMinio
		default:
			config.Quota.CeilingBytes = defaultQuotaLocal
		}
	}
	config.Quota.RecomputeInterval = time.Duration(getenvInt("QUOTA_RECOMPUTE_INTERVAL_MINUTES", 60)) * time.Minute

	// Thumbnail queue / worker
	config.Thumbnail.Queue = getenv("THUMBNAIL_QUEUE", "media.thumbnail")
	config.Thumbnail.Concurrency = getenvInt("THUMBNAIL_CONCURRENCY", 2)
	config.Thumbnail.MaxAttempts = getenvInt("THUMBNAIL_MAX_ATTEMPTS", 3)
	config.Thumbnail.BackoffKind = getenv("THUMBNAIL_BACKOFF", "exponential")
	config.Thumbnail.BaseDelay = time.Duration(getenvInt("THUMBNAIL_BASE_DELAY_MS", 5000)) * time.Millisecond
	config.Thumbnail.Width = getenvInt("THUMB_WIDTH", 640)
	config.Thumbnail.SignTTL = time.Duration(getenvInt("SIGN_TTL_MINUTES", 10)) * time.Minute

	// Seek ceiling for long files: default ~10s, never below 5s.
	maxSeek, err := strconv.ParseFloat(os.Getenv("MAX_SEEK_SECONDS"), 64)
	if err != nil || maxSeek <= 0 {
		maxSeek = 10
	}
	if maxSeek < 5 {
		maxSeek = 5
	}
	config.Thumbnail.MaxSeekSeconds = maxSeek

	config.Media.ProbeTimeout = time.Duration(getenvInt("PROBE_TIMEOUT_SECONDS", 10)) * time.Second
	config.Media.ExtractTimeout = time.Duration(getenvInt("EXTRACT_TIMEOUT_SECONDS", 60)) * time.Second
	config.Media.ScratchDir = getenv("SCRATCH_DIR", os.TempDir())

	config.Telemetry.OTLPEndpoint = os.Getenv("OTLP_ENDPOINT")
	config.Telemetry.ServiceName = getenv("SERVICE_NAME", "cutroom-media-service")

	config.Environment.Mode = getenv("DEPLOY_ENV", "development")

	return &config
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return fallback
}
