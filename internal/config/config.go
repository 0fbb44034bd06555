// Package config provides application configuration.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Port             string
	RedisAddr        string
	JWTSecret        string
	SessionTTL       time.Duration
	QuestionCacheTTL time.Duration
	PageSize         int
	Recommender      RecommenderConfig
	CORS             CORSConfig
}

// CORSConfig holds the headers written by the CORS middleware
type CORSConfig struct {
	AllowedOrigins string
	AllowedMethods string
	AllowedHeaders string
}

// Load reads configuration from a .env file (if present) and environment variables
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		RedisAddr:        redisAddr(getEnv("REDIS_URI", "localhost:6379")),
		JWTSecret:        getEnv("JWT_SECRET", "super-secret-key-change-in-production"),
		SessionTTL:       time.Duration(getEnvInt("SESSION_TTL_MINUTES", 120)) * time.Minute,
		QuestionCacheTTL: time.Duration(getEnvInt("QUESTION_CACHE_TTL_MINUTES", 60)) * time.Minute,
		PageSize:         getEnvInt("PAGE_SIZE", 8),
		Recommender:      DefaultRecommenderConfig(),
		CORS: CORSConfig{
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			AllowedMethods: getEnv("CORS_ALLOWED_METHODS", "GET, POST, PUT, DELETE, OPTIONS"),
			AllowedHeaders: getEnv("CORS_ALLOWED_HEADERS", "Content-Type, Authorization"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that all required configuration fields are usable
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.Recommender.BaseURL == "" {
		return fmt.Errorf("RECOMMENDER_URL cannot be empty")
	}
	if c.Recommender.TimeoutMS <= 0 {
		return fmt.Errorf("RECOMMENDER_TIMEOUT_MS must be > 0")
	}
	if c.Recommender.MaxRetries <= 0 {
		return fmt.Errorf("RECOMMENDER_MAX_RETRIES must be > 0")
	}
	if c.Recommender.DefaultRoundLimit <= 0 {
		return fmt.Errorf("DEFAULT_ROUND_LIMIT must be > 0")
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("PAGE_SIZE must be > 0")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL_MINUTES must be > 0")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET cannot be empty")
	}
	return nil
}

// redisAddr strips the redis:// scheme go-redis does not expect in Options.Addr
func redisAddr(uri string) string {
	return strings.TrimPrefix(uri, "redis://")
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	val, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}
	n, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvBool(key string, defaultVal bool) bool {
	val, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}
	b, err := strconv.ParseBool(strings.TrimSpace(val))
	if err != nil {
		return defaultVal
	}
	return b
}
