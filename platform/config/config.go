// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
	GetRateLimitPerMinute() int
}

// RedisConfig provides the shared Redis connection used for caching.
type RedisConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
}

// SchedulerConfig provides settings for the asynq job queue.
type SchedulerConfig interface {
	RedisConfig
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// MinIOConfig provides settings for MinIO S3-compatible document storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	GetMinioBucketLeadDocuments() string
	IsMinIOEnabled() bool
}

// AMQPConfig provides settings for the RabbitMQ event relay.
type AMQPConfig interface {
	GetAMQPURL() string
	GetAMQPExchange() string
	IsAMQPEnabled() bool
}

// PipelineConfig provides lifecycle policy switches.
type PipelineConfig interface {
	GetPipelineCacheTTL() time.Duration
	GetPreserveProbabilityOverride() bool
	GetBulkReassignConcurrency() int
}

// LeadsConfig adds the lead intake settings to the lifecycle switches.
type LeadsConfig interface {
	PipelineConfig
	// GetPhoneDefaultRegion is the ISO region for phone numbers without a country prefix.
	GetPhoneDefaultRegion() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                         string
	HTTPAddr                    string
	DatabaseURL                 string
	JWTAccessSecret             string
	CORSAllowAll                bool
	CORSOrigins                 []string
	CORSAllowCreds              bool
	RateLimitPerMinute          int
	RedisURL                    string
	RedisTLSInsecure            bool
	AsynqQueueName              string
	AsynqConcurrency            int
	MinIOEndpoint               string
	MinIOAccessKey              string
	MinIOSecretKey              string
	MinIOUseSSL                 bool
	MinIOMaxFileSize            int64
	MinioBucketLeadDocuments    string
	AMQPURL                     string
	AMQPExchange                string
	PipelineCacheTTL            time.Duration
	PreserveProbabilityOverride bool
	BulkReassignConcurrency     int
	PhoneDefaultRegion          string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string        { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool      { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string   { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool    { return c.CORSAllowCreds }
func (c *Config) GetRateLimitPerMinute() int { return c.RateLimitPerMinute }

// RedisConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }

// SchedulerConfig implementation
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// MinIOConfig implementation
func (c *Config) GetMinIOEndpoint() string   { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string  { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string  { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool       { return c.MinIOUseSSL }
func (c *Config) GetMinIOMaxFileSize() int64 { return c.MinIOMaxFileSize }
func (c *Config) GetMinioBucketLeadDocuments() string {
	return c.MinioBucketLeadDocuments
}
func (c *Config) IsMinIOEnabled() bool { return c.MinIOEndpoint != "" }

// AMQPConfig implementation
func (c *Config) GetAMQPURL() string      { return c.AMQPURL }
func (c *Config) GetAMQPExchange() string { return c.AMQPExchange }
func (c *Config) IsAMQPEnabled() bool     { return c.AMQPURL != "" }

// PipelineConfig implementation
func (c *Config) GetPipelineCacheTTL() time.Duration  { return c.PipelineCacheTTL }
func (c *Config) GetPreserveProbabilityOverride() bool { return c.PreserveProbabilityOverride }
func (c *Config) GetBulkReassignConcurrency() int      { return c.BulkReassignConcurrency }
func (c *Config) GetPhoneDefaultRegion() string        { return c.PhoneDefaultRegion }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                         getEnv("APP_ENV", "development"),
		HTTPAddr:                    getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:                 getEnv("DATABASE_URL", ""),
		JWTAccessSecret:             getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:                corsAllowAll,
		CORSOrigins:                 corsOrigins,
		CORSAllowCreds:              strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		RateLimitPerMinute:          mustInt(getEnv("RATE_LIMIT_PER_MINUTE", "300")),
		RedisURL:                    getEnv("REDIS_URL", ""),
		RedisTLSInsecure:            strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:              getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:            mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		MinIOEndpoint:               getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:              getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:              getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:                 strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinIOMaxFileSize:            mustInt64(getEnv("MINIO_MAX_FILE_SIZE", "26214400")),
		MinioBucketLeadDocuments:    getEnv("MINIO_BUCKET_LEAD_DOCUMENTS", "lead-documents"),
		AMQPURL:                     getEnv("AMQP_URL", ""),
		AMQPExchange:                getEnv("AMQP_EXCHANGE", "crm.events"),
		PipelineCacheTTL:            mustDuration(getEnv("PIPELINE_CACHE_TTL", "5m")),
		PreserveProbabilityOverride: strings.EqualFold(getEnv("PIPELINE_PRESERVE_PROBABILITY_OVERRIDE", "false"), "true"),
		BulkReassignConcurrency:     mustInt(getEnv("BULK_REASSIGN_CONCURRENCY", "8")),
		PhoneDefaultRegion:          strings.ToUpper(strings.TrimSpace(getEnv("PHONE_DEFAULT_REGION", "NL"))),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if cfg.BulkReassignConcurrency < 1 {
		cfg.BulkReassignConcurrency = 1
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func mustInt64(value string) int64 {
	result, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
