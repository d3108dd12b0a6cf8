package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `json:"server"`
	Redis     RedisConfig     `json:"redis"`
	Retrieval RetrievalConfig `json:"retrieval"`
	OCR       OCRConfig       `json:"ocr"`
	Log       LogConfig       `json:"log"`
	Security  SecurityConfig  `json:"security"`
	Browser   BrowserConfig   `json:"browser"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port         int    `json:"port"`
	Environment  string `json:"environment"`
	ReadTimeout  int    `json:"read_timeout"`
	WriteTimeout int    `json:"write_timeout"`
	IdleTimeout  int    `json:"idle_timeout"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled      bool          `json:"enabled"`
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	Password     string        `json:"password"`
	DB           int           `json:"db"`
	PoolSize     int           `json:"pool_size"`
	DialTimeout  time.Duration `json:"dial_timeout"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
}

// RetrievalConfig holds settings for captcha-gated registry lookups
type RetrievalConfig struct {
	MaxAttempts        int           `json:"max_attempts"`
	RetryDelay         time.Duration `json:"retry_delay"`
	RequestTimeout     time.Duration `json:"request_timeout"`
	OverallTimeout     time.Duration `json:"overall_timeout"`
	InsecureSkipVerify bool          `json:"insecure_skip_verify"`
	UserAgent          string        `json:"user_agent"`
	RequestsPerSecond  float64       `json:"requests_per_second"`
	BatchConcurrency   int           `json:"batch_concurrency"`
	MaxBatchSize       int           `json:"max_batch_size"`
	CacheTTL           time.Duration `json:"cache_ttl"`
	SitesFile          string        `json:"sites_file"`
}

// OCRConfig holds tesseract settings
type OCRConfig struct {
	Language    string `json:"language"`
	PageSegMode int    `json:"page_seg_mode"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// SecurityConfig holds security configuration
type SecurityConfig struct {
	RateLimit RateLimitConfig `json:"rate_limit"`
	CORS      CORSConfig      `json:"cors"`
	AdminKey  string          `json:"-"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int           `json:"requests_per_minute"`
	BurstSize         int           `json:"burst_size"`
	CleanupInterval   time.Duration `json:"cleanup_interval"`
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowedMethods   []string `json:"allowed_methods"`
	AllowedHeaders   []string `json:"allowed_headers"`
	AllowCredentials bool     `json:"allow_credentials"`
}

// BrowserConfig holds the headless browser pool used for cookie warm-up
type BrowserConfig struct {
	Enabled     bool          `json:"enabled"`
	MinBrowsers int           `json:"min_browsers"`
	MaxBrowsers int           `json:"max_browsers"`
	PageTimeout time.Duration `json:"page_timeout"`
	Headless    bool          `json:"headless"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnvAsInt("PORT", 8080),
			Environment:  getEnv("ENVIRONMENT", "development"),
			ReadTimeout:  getEnvAsInt("READ_TIMEOUT", 30),
			WriteTimeout: getEnvAsInt("WRITE_TIMEOUT", 300),
			IdleTimeout:  getEnvAsInt("IDLE_TIMEOUT", 60),
		},
		Redis: RedisConfig{
			Enabled:      getEnvAsBool("REDIS_ENABLED", true),
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnvAsInt("REDIS_PORT", 6379),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
			DialTimeout:  getEnvAsDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvAsDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvAsDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Retrieval: RetrievalConfig{
			MaxAttempts:        getEnvAsInt("RETRIEVAL_MAX_ATTEMPTS", 10),
			RetryDelay:         getEnvAsDuration("RETRIEVAL_RETRY_DELAY", 500*time.Millisecond),
			RequestTimeout:     getEnvAsDuration("RETRIEVAL_REQUEST_TIMEOUT", 30*time.Second),
			OverallTimeout:     getEnvAsDuration("RETRIEVAL_OVERALL_TIMEOUT", 5*time.Minute),
			InsecureSkipVerify: getEnvAsBool("RETRIEVAL_INSECURE_SKIP_VERIFY", false),
			UserAgent:          getEnv("RETRIEVAL_USER_AGENT", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/139.0.0.0 Safari/537.36"),
			RequestsPerSecond:  getEnvAsFloat("RETRIEVAL_REQUESTS_PER_SECOND", 2),
			BatchConcurrency:   getEnvAsInt("RETRIEVAL_BATCH_CONCURRENCY", 5),
			MaxBatchSize:       getEnvAsInt("RETRIEVAL_MAX_BATCH_SIZE", 50),
			CacheTTL:           getEnvAsDuration("RETRIEVAL_CACHE_TTL", 24*time.Hour),
			SitesFile:          getEnv("RETRIEVAL_SITES_FILE", ""),
		},
		OCR: OCRConfig{
			Language:    getEnv("OCR_LANGUAGE", "eng"),
			PageSegMode: getEnvAsInt("OCR_PAGE_SEG_MODE", 7),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Security: SecurityConfig{
			RateLimit: RateLimitConfig{
				RequestsPerMinute: getEnvAsInt("RATE_LIMIT_RPM", 100),
				BurstSize:         getEnvAsInt("RATE_LIMIT_BURST", 10),
				CleanupInterval:   getEnvAsDuration("RATE_LIMIT_CLEANUP", time.Minute),
			},
			CORS: CORSConfig{
				AllowedOrigins:   getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
				AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
				AllowedHeaders:   []string{"*"},
				AllowCredentials: false,
			},
			AdminKey: getEnv("ADMIN_API_KEY", ""),
		},
		Browser: BrowserConfig{
			Enabled:     getEnvAsBool("BROWSER_ENABLED", false),
			MinBrowsers: getEnvAsInt("BROWSER_MIN", 1),
			MaxBrowsers: getEnvAsInt("BROWSER_MAX", 3),
			PageTimeout: getEnvAsDuration("PAGE_TIMEOUT", 30*time.Second),
			Headless:    getEnvAsBool("BROWSER_HEADLESS", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks cross-field constraints
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Server.Port)
	}
	if c.Retrieval.BatchConcurrency <= 0 {
		return fmt.Errorf("RETRIEVAL_BATCH_CONCURRENCY must be positive")
	}
	if c.OCR.PageSegMode < 0 || c.OCR.PageSegMode > 13 {
		return fmt.Errorf("OCR_PAGE_SEG_MODE must be between 0 and 13")
	}
	if c.Browser.Enabled && c.Browser.MaxBrowsers < c.Browser.MinBrowsers {
		return fmt.Errorf("BROWSER_MAX must be >= BROWSER_MIN")
	}
	return nil
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("90s") or plain seconds ("90")
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
