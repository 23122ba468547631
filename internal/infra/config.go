package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	FrontendURL string

	FalAPIKey       string
	FalBaseURL      string
	FalSyncBaseURL  string
	FalModel        string
	FalVisionModel  string
	FalCostPerImage float64
	FalPollInterval time.Duration
	FalMaxPolls     int

	SendGridAPIKey string
	EmailFrom      string
	EmailFromName  string

	PDFServiceURL string
	PDFServiceKey string

	S3Bucket       string
	S3Region       string
	StorageBaseURL string
	StoragePath    string

	WebhookSecret string

	PreviewPages         int
	TotalPages           int
	MaxCompletionRetries int
	WorkerConcurrency    int
	PreviewTTL           time.Duration

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		FalAPIKey:       os.Getenv("FAL_API_KEY"),
		FalBaseURL:      getEnv("FAL_BASE_URL", "https://queue.fal.run"),
		FalSyncBaseURL:  getEnv("FAL_SYNC_BASE_URL", "https://fal.run"),
		FalModel:        getEnv("FAL_MODEL", "fal-ai/nano-banana/edit"),
		FalVisionModel:  getEnv("FAL_VISION_MODEL", "fal-ai/llava-next"),
		FalCostPerImage: getEnvFloat("FAL_COST_PER_IMAGE", 0.04),
		FalPollInterval: time.Second * time.Duration(getEnvInt("FAL_POLL_INTERVAL_SECONDS", 5)),
		FalMaxPolls:     getEnvInt("FAL_MAX_POLLS", 60),

		SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		EmailFrom:      getEnv("EMAIL_FROM", "no-reply@storybook.local"),
		EmailFromName:  getEnv("EMAIL_FROM_NAME", "Storybook"),

		PDFServiceURL: getEnv("PDF_SERVICE_URL", "http://localhost:9090"),
		PDFServiceKey: os.Getenv("PDF_SERVICE_KEY"),

		S3Bucket:       os.Getenv("S3_BUCKET"),
		S3Region:       getEnv("S3_REGION", "us-east-1"),
		StorageBaseURL: getEnv("STORAGE_BASE_URL", "http://localhost:8080/static"),
		StoragePath:    getEnv("STORAGE_PATH", "./storage"),

		WebhookSecret: os.Getenv("WEBHOOK_SECRET"),

		PreviewPages:         getEnvInt("PREVIEW_PAGES", 5),
		TotalPages:           getEnvInt("TOTAL_PAGES", 10),
		MaxCompletionRetries: getEnvInt("MAX_COMPLETION_RETRIES", 3),
		WorkerConcurrency:    getEnvInt("WORKER_CONCURRENCY", 8),
		PreviewTTL:           time.Hour * 24 * time.Duration(getEnvInt("PREVIEW_TTL_DAYS", 7)),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.PreviewPages <= 0 || cfg.TotalPages < cfg.PreviewPages {
		return nil, fmt.Errorf("invalid page configuration: preview=%d total=%d", cfg.PreviewPages, cfg.TotalPages)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
