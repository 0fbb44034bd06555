package cache

import (
	"adaptivestrategy/internal/model"
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// QuestionCache holds the primary question set fetched from the recommender
type QuestionCache interface {
	// GetQuestions returns nil, nil on a cache miss
	GetQuestions(ctx context.Context) ([]model.Question, error)
	SetQuestions(ctx context.Context, questions []model.Question) error
}

const questionsKey = "tiebreak:questions:primary"

type questionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewQuestionCache creates a Redis-backed question cache
func NewQuestionCache(client *redis.Client, ttl time.Duration) QuestionCache {
	return &questionCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *questionCache) GetQuestions(ctx context.Context) ([]model.Question, error) {
	data, err := c.client.Get(ctx, questionsKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var questions []model.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func (c *questionCache) SetQuestions(ctx context.Context, questions []model.Question) error {
	data, err := json.Marshal(questions)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, questionsKey, data, c.ttl).Err()
}
