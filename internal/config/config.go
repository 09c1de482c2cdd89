// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Server
	Port string

	// Database
	DatabaseURL string

	// Redis (job queue)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// JWT
	JWTSecret          string
	JWTExpirationHours int

	// MinIO
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	// Inference service
	InferenceURL string
	// Zero means no timeout on the outbound inference call. The source
	// system never bounded it; this is the knob to change that.
	InferenceTimeout time.Duration

	// Workers
	WorkerCount        int
	WorkerPollInterval time.Duration

	// How many completed and failed jobs each retention list keeps.
	JobRetention int

	// Token balance granted to a newly registered user.
	StartingTokenBalance float64
}

func Load() (*Config, error) {
	cfg := &Config{
		Port: getEnv("PORT", "8080"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		JWTSecret:          getEnv("JWT_SECRET", ""),
		JWTExpirationHours: getEnvInt("JWT_EXPIRATION_HOURS", 24),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getEnv("MINIO_BUCKET", "spectrograms"),
		MinioUseSSL:    getEnv("MINIO_USE_SSL", "false") == "true",

		InferenceURL:     getEnv("INFERENCE_URL", "http://127.0.0.1:8080/inference"),
		InferenceTimeout: time.Duration(getEnvInt("INFERENCE_TIMEOUT", 0)) * time.Second,

		WorkerCount:        getEnvInt("WORKER_COUNT", 2),
		WorkerPollInterval: time.Duration(getEnvInt("WORKER_POLL_INTERVAL", 1)) * time.Second,

		JobRetention: getEnvInt("JOB_RETENTION", 20),

		StartingTokenBalance: getEnvFloat("TOKEN_STARTING_BALANCE", 10),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.WorkerCount < 1 {
		return fmt.Errorf("WORKER_COUNT must be at least 1")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
