package service

import (
	"adaptivestrategy/internal/config"
	"adaptivestrategy/internal/model"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"time"
	"unicode/utf8"
)

// ErrRecommenderStatus is wrapped by every non-2xx response from the recommendation service
var ErrRecommenderStatus = errors.New("recommendation service returned an error status")

// Recommender is the contract of the remote scoring and recommendation service
type Recommender interface {
	ListQuestions(ctx context.Context) (*model.QuestionsResponse, error)
	Recommend(ctx context.Context, req model.RecommendRequest) (*model.Recommendation, error)
	Requestion(ctx context.Context, req model.RequestionRequest) (*model.RequestionResponse, error)
	Fallback(ctx context.Context, req model.FallbackRequest) (*model.FallbackRecommendation, error)
}

// RecommenderClient calls the recommendation service over JSON/HTTP
type RecommenderClient struct {
	cfg        config.RecommenderConfig
	httpClient *http.Client
	backoff    time.Duration
}

// NewRecommenderClient creates a new recommendation service client
func NewRecommenderClient(cfg config.RecommenderConfig) *RecommenderClient {
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	return &RecommenderClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout(),
		},
		backoff: time.Second,
	}
}

// ListQuestions fetches the primary EQ and FLA question set
func (c *RecommenderClient) ListQuestions(ctx context.Context) (*model.QuestionsResponse, error) {
	var out model.QuestionsResponse
	if err := c.call(ctx, http.MethodGet, "/questions", nil, &out); err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}
	return &out, nil
}

// Recommend scores the answers and returns a recommendation
func (c *RecommenderClient) Recommend(ctx context.Context, req model.RecommendRequest) (*model.Recommendation, error) {
	var out model.Recommendation
	if err := c.call(ctx, http.MethodPost, "/recommend", req, &out); err != nil {
		return nil, fmt.Errorf("failed to load recommendation: %w", err)
	}
	return &out, nil
}

// Requestion asks for supplementary questions targeting the tied subscales
func (c *RecommenderClient) Requestion(ctx context.Context, req model.RequestionRequest) (*model.RequestionResponse, error) {
	var out model.RequestionResponse
	if err := c.call(ctx, http.MethodPost, "/requestion", req, &out); err != nil {
		return nil, fmt.Errorf("failed to load supplementary questions: %w", err)
	}
	return &out, nil
}

// Fallback asks for the final decision once tie-break rounds are exhausted
func (c *RecommenderClient) Fallback(ctx context.Context, req model.FallbackRequest) (*model.FallbackRecommendation, error) {
	req.Force = req.Force || c.cfg.ForceFallback
	var out model.FallbackRecommendation
	if err := c.call(ctx, http.MethodPost, "/recommend/llm-fallback", req, &out); err != nil {
		return nil, fmt.Errorf("failed to load fallback recommendation: %w", err)
	}
	return &out, nil
}

func (c *RecommenderClient) call(ctx context.Context, method, path string, payload, out interface{}) error {
	var body []byte
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = data
	}

	respBody, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		log.Printf("[Recommender] ERROR: Failed to parse %s response: %v", path, err)
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// doRequest performs HTTP request with retry logic
func (c *RecommenderClient) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	url := c.cfg.Endpoint(path)
	log.Printf("[Recommender] %s %s", method, path)

	var lastErr error
	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			log.Printf("[Recommender] Retry attempt %d/%d for %s %s", attempt, c.cfg.MaxRetries, method, path)
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			log.Printf("[Recommender] ERROR: HTTP request failed (attempt %d): %v", attempt+1, err)
			lastErr = err
			if waitErr := c.wait(ctx, attempt); waitErr != nil {
				return nil, waitErr
			}
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			log.Printf("[Recommender] RATE LIMITED: Retry %d/%d", attempt+1, c.cfg.MaxRetries)
			lastErr = fmt.Errorf("rate limited")
			if waitErr := c.wait(ctx, attempt); waitErr != nil {
				return nil, waitErr
			}
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			log.Printf("[Recommender] ERROR: API returned %d: %s", resp.StatusCode, string(respBody))
			return nil, fmt.Errorf("%w: %d %s", ErrRecommenderStatus, resp.StatusCode, detail(respBody))
		}

		return respBody, nil
	}

	log.Printf("[Recommender] ERROR: Max retries (%d) exceeded for %s %s: %v", c.cfg.MaxRetries, method, path, lastErr)
	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// wait sleeps with exponential backoff unless the context ends first
func (c *RecommenderClient) wait(ctx context.Context, attempt int) error {
	if attempt+1 >= c.cfg.MaxRetries {
		return nil
	}
	backoff := time.Duration(math.Pow(2, float64(attempt))) * c.backoff
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(backoff):
		return nil
	}
}

// detail extracts the "detail" field error bodies usually carry, else the raw text
func detail(body []byte) string {
	var payload struct {
		Detail interface{} `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != nil {
		if s, ok := payload.Detail.(string); ok {
			return s
		}
		if b, err := json.Marshal(payload.Detail); err == nil {
			return string(b)
		}
	}
	const limit = 200
	if len(body) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(body[cut]) {
			cut--
		}
		return string(body[:cut])
	}
	return string(body)
}
