package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration, loaded from environment
// variables with an optional .env file.
type Config struct {
	// Server
	APIPort       string
	BackendAPIKey string
	CorsOrigins   string

	// Queue
	RedisURL string

	// Asset directories
	UploadsDir string
	ScratchDir string
	OutputDir  string

	// Rendering
	EngineTimeout time.Duration

	// Providers
	OpenAIKey      string
	GeminiKey      string
	HuggingFaceKey string
	ImageProvider  string
	DefaultVoice   string

	// Worker
	WorkerEnabled     bool
	MaxConcurrentJobs int
}

// Load reads configuration from the environment. A .env file in the
// working directory is applied first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[Config] No .env file found, using environment variables")
	}

	uploadsDir := getEnv("UPLOADS_DIR", "uploads")

	cfg := &Config{
		APIPort:       getEnv("API_PORT", "8080"),
		BackendAPIKey: os.Getenv("BACKEND_API_KEY"),
		CorsOrigins:   getEnv("CORS_ALLOWED_ORIGINS", "*"),

		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379"),

		UploadsDir: uploadsDir,
		ScratchDir: getEnv("SCRATCH_DIR", filepath.Join(uploadsDir, "temp")),
		OutputDir:  getEnv("OUTPUT_DIR", filepath.Join(uploadsDir, "videos")),

		EngineTimeout: getEnvDuration("FFMPEG_TIMEOUT_SECONDS", 600),

		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		GeminiKey:      os.Getenv("GEMINI_API_KEY"),
		HuggingFaceKey: os.Getenv("HUGGINGFACE_API_KEY"),
		ImageProvider:  getEnv("IMAGE_PROVIDER", "pollinations"),
		DefaultVoice:   getEnv("DEFAULT_VOICE", "Kore"),

		WorkerEnabled:     getEnvBool("WORKER_ENABLED", true),
		MaxConcurrentJobs: getEnvInt("MAX_CONCURRENT_JOBS", 2),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.GeminiKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if c.MaxConcurrentJobs < 1 {
		return fmt.Errorf("MAX_CONCURRENT_JOBS must be at least 1")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		log.Printf("[Config] Invalid value for %s, using default %d", key, fallback)
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
		log.Printf("[Config] Invalid value for %s, using default %t", key, fallback)
	}
	return fallback
}

// getEnvDuration reads a whole number of seconds. Zero disables the
// timeout entirely.
func getEnvDuration(key string, fallbackSeconds int) time.Duration {
	seconds := getEnvInt(key, fallbackSeconds)
	if seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
