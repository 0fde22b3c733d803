package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings, read once at startup from the
// environment (with .env as a convenience for local development).
type Config struct {
	RunMode string

	MongoURI    string
	MongoDBName string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret     string
	JWTTTLSeconds int

	APIPort string
	AppURL  string

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	S3Bucket           string
	ImageBaseS3URL     string

	ImageMaxDimension   int
	MaxImageSizeMB      int
	MaxImagesPerListing int

	DefaultPageSize  int
	MaxPageSize      int
	InboxSize        int
	SearchDebounceMS int

	RateLimitRPS   float64
	RateLimitBurst int
}

// Load reads configuration for the given run mode. Missing required values
// are fatal: there is no sensible way to run without them.
func Load(runMode string) *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	return &Config{
		RunMode: runMode,

		MongoURI:    getRequiredEnv("MONGO_URI"),
		MongoDBName: getEnv("MONGO_DB_NAME", "marketplace"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		JWTSecret:     getRequiredEnv("JWT_SECRET"),
		JWTTTLSeconds: getEnvInt("JWT_TTL_SECONDS", 86400*7),

		APIPort: getEnv("API_PORT", "8080"),
		AppURL:  getEnv("APP_URL", "http://localhost:3000"),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnv("SMTP_PORT", "587"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", "no-reply@localhost"),

		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		S3Bucket:           getEnv("S3_BUCKET", ""),
		ImageBaseS3URL:     getEnv("IMAGE_BASE_S3_URL", ""),

		ImageMaxDimension:   getEnvInt("IMAGE_MAX_DIMENSION", 2048),
		MaxImageSizeMB:      getEnvInt("MAX_IMAGE_SIZE_MB", 5),
		MaxImagesPerListing: getEnvInt("MAX_IMAGES_PER_LISTING", 10),

		DefaultPageSize:  getEnvInt("DEFAULT_PAGE_SIZE", 10),
		MaxPageSize:      getEnvInt("MAX_PAGE_SIZE", 100),
		InboxSize:        getEnvInt("INBOX_SIZE", 5),
		SearchDebounceMS: getEnvInt("SEARCH_DEBOUNCE_MS", 400),

		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 20),
	}
}

// MaxImageSizeBytes is the per-file upload cap in bytes.
func (c *Config) MaxImageSizeBytes() int64 {
	return int64(c.MaxImageSizeMB) * 1024 * 1024
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getRequiredEnv(key string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		log.Fatal(fmt.Sprintf("Required environment variable %s is not set", key))
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Fatal(fmt.Sprintf("Environment variable %s must be an integer, got %q", key, value))
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Fatal(fmt.Sprintf("Environment variable %s must be a number, got %q", key, value))
	}
	return f
}
