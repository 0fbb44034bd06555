package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// RecommenderConfig holds settings for the remote recommendation service
type RecommenderConfig struct {
	// BaseURL is the API root, e.g. http://localhost:8000/api
	BaseURL string `json:"baseUrl"`

	TimeoutMS  int `json:"timeoutMs"`
	MaxRetries int `json:"maxRetries"`

	// DefaultRoundLimit is used until the service reports round_limit
	DefaultRoundLimit int `json:"defaultRoundLimit"`

	// ForceFallback asks the service to decide even when the base result is not tied
	ForceFallback bool `json:"forceFallback"`
}

// DefaultRecommenderConfig returns the recommender configuration from the environment
func DefaultRecommenderConfig() RecommenderConfig {
	return RecommenderConfig{
		BaseURL:           strings.TrimRight(getEnv("RECOMMENDER_URL", "http://localhost:8000/api"), "/"),
		TimeoutMS:         getEnvInt("RECOMMENDER_TIMEOUT_MS", 30000),
		MaxRetries:        getEnvInt("RECOMMENDER_MAX_RETRIES", 3),
		DefaultRoundLimit: getEnvInt("DEFAULT_ROUND_LIMIT", 3),
		ForceFallback:     getEnvBool("RECOMMENDER_FORCE_FALLBACK", false),
	}
}

// LoadRecommenderConfig reads a .env file (if present) into the environment and returns the
// recommender configuration. Variables already set win over the file.
func LoadRecommenderConfig() RecommenderConfig {
	// a missing .env is fine
	_ = godotenv.Load()
	return DefaultRecommenderConfig()
}

// Timeout returns the per-request HTTP timeout
func (c RecommenderConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// Endpoint joins the base URL with an operation path
func (c RecommenderConfig) Endpoint(path string) string {
	return c.BaseURL + path
}
