package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
// It is the single source of truth for runtime parameters.
type Config struct {
	Port string
	Env  string

	DB       DatabaseConfig
	Redis    RedisConfig
	Gemini   GeminiConfig
	Sovrn    SovrnConfig
	Apify    ApifyConfig
	BrowseAI BrowseAIConfig
	Worker   WorkerConfig
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig contains Redis connection parameters.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// GeminiConfig controls the AI spelling-correction escalation.
type GeminiConfig struct {
	Enabled bool
	APIKey  string
	Model   string
	Timeout time.Duration
}

// SovrnConfig contains credentials for affiliate links, recommendations and
// price comparisons.
type SovrnConfig struct {
	APIKey    string
	SecretKey string
	BidFloor  float64
	Market    string
}

// ApifyConfig contains the scraped-dataset endpoints consumed by ingestion.
type ApifyConfig struct {
	Token            string
	AmazonEndpoint   string
	FlipkartEndpoint string
	AmazonLimit      int
	FlipkartLimit    int
}

// BrowseAIConfig identifies the Browse.ai robot tasks that capture the
// Samsung and Sony storefronts. A store with empty IDs is skipped.
type BrowseAIConfig struct {
	APIKey         string
	BaseURL        string
	SamsungRobotID string
	SamsungTaskID  string
	SonyRobotID    string
	SonyTaskID     string
}

// WorkerConfig contains scheduling configuration for background workers.
type WorkerConfig struct {
	IngestionEnabled bool
	// IngestionDay/IngestionHour pin the monthly ingestion run
	// (default: 28th at 23:00 IST, the day after scraping).
	IngestionDay  int
	IngestionHour int
}

// Load reads configuration from environment variables. If a .env file exists
// in the working directory, it will be loaded first. It returns a populated
// Config or an error with a human-friendly message.
func Load() (*Config, error) {
	// Load .env if present; ignore error if file is missing so that production
	// environments relying solely on real environment variables keep working.
	_ = godotenv.Load()

	cfg := &Config{}

	// Server
	cfg.Port = getEnv("PORT", "3000")
	cfg.Env = getEnv("ENV", "development")

	// Database
	cfg.DB = DatabaseConfig{
		Host:     getEnv("DB_HOST", ""),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", ""),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", ""),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	// Redis
	cfg.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", "redis"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}

	// Gemini spelling correction
	var err error
	cfg.Gemini = GeminiConfig{
		Enabled: getEnvBool("GEMINI_ENABLED", true),
		APIKey:  getEnv("GEMINI_API_KEY", ""),
		Model:   getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
	}
	if cfg.Gemini.Timeout, err = parseDurationEnv("GEMINI_TIMEOUT", "10s"); err != nil {
		return nil, fmt.Errorf("invalid GEMINI_TIMEOUT: %w", err)
	}

	// Sovrn Commerce
	cfg.Sovrn = SovrnConfig{
		APIKey:    getEnv("SOVRN_API_KEY", ""),
		SecretKey: getEnv("SOVRN_SECRET_KEY", ""),
		BidFloor:  getEnvFloat("SOVRN_BID_FLOOR", 0.10),
		Market:    getEnv("SOVRN_MARKET", "usd_en"),
	}

	// Apify ingestion sources
	cfg.Apify = ApifyConfig{
		Token:            getEnv("APIFY_API_TOKEN", ""),
		AmazonEndpoint:   getEnv("AMAZON_API_ENDPOINT", ""),
		FlipkartEndpoint: getEnv("FLIPKART_API_ENDPOINT", ""),
		AmazonLimit:      getEnvInt("AMAZON_PRODUCT_LIMIT", 500),
		FlipkartLimit:    getEnvInt("FLIPKART_PRODUCT_LIMIT", 450),
	}

	// Browse.ai brand store captures
	cfg.BrowseAI = BrowseAIConfig{
		APIKey:         getEnv("BROWSEAI_API_KEY", ""),
		BaseURL:        getEnv("BROWSEAI_API_BASE_URL", ""),
		SamsungRobotID: getEnv("BROWSEAI_SAMSUNG_ROBOT_ID", ""),
		SamsungTaskID:  getEnv("BROWSEAI_SAMSUNG_TASK_ID", ""),
		SonyRobotID:    getEnv("BROWSEAI_SONY_ROBOT_ID", ""),
		SonyTaskID:     getEnv("BROWSEAI_SONY_TASK_ID", ""),
	}

	// Workers
	cfg.Worker = WorkerConfig{
		IngestionEnabled: getEnvBool("INGESTION_ENABLED", false),
		IngestionDay:     getEnvInt("INGESTION_DAY", 28),
		IngestionHour:    getEnvInt("INGESTION_HOUR", 23),
	}
	if cfg.Worker.IngestionDay < 1 || cfg.Worker.IngestionDay > 28 {
		return nil, errors.New("INGESTION_DAY must be between 1 and 28")
	}
	if cfg.Worker.IngestionHour < 0 || cfg.Worker.IngestionHour > 23 {
		return nil, errors.New("INGESTION_HOUR must be between 0 and 23")
	}

	// Basic validation for DB parameters — keeps messages concise and helpful.
	if cfg.DB.Host == "" || cfg.DB.User == "" || cfg.DB.Name == "" {
		return nil, errors.New("database configuration incomplete: ensure DB_HOST, DB_USER, and DB_NAME are set")
	}

	return cfg, nil
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the value of an environment variable as an integer or a default if empty/invalid.
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// getEnvFloat returns the value of an environment variable as a float or a default if empty/invalid.
func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

// getEnvBool returns the value of an environment variable as a bool or a default if empty/invalid.
func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// parseDurationEnv reads an environment variable and parses it as time.Duration.
// If the variable is empty, it falls back to the provided default value.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}
