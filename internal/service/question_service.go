package service

import (
	"adaptivestrategy/internal/cache"
	"adaptivestrategy/internal/model"
	"context"
	"fmt"
	"log"

	"golang.org/x/sync/singleflight"
)

// QuestionService serves the primary question bank, cached and loaded at most once at a time
type QuestionService struct {
	client Recommender
	cache  cache.QuestionCache
	group  singleflight.Group
}

// NewQuestionService creates a new question service
func NewQuestionService(client Recommender, questionCache cache.QuestionCache) *QuestionService {
	return &QuestionService{
		client: client,
		cache:  questionCache,
	}
}

// Primary returns the primary EQ and FLA questions in service order
func (s *QuestionService) Primary(ctx context.Context) ([]model.Question, error) {
	if cached, err := s.cache.GetQuestions(ctx); err != nil {
		log.Printf("[Questions] Cache read failed, loading from service: %v", err)
	} else if len(cached) > 0 {
		return cached, nil
	}

	v, err, shared := s.group.Do("primary", func() (interface{}, error) {
		resp, err := s.client.ListQuestions(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		if len(resp.Questions) == 0 {
			return nil, fmt.Errorf("recommendation service returned no questions")
		}
		if err := s.cache.SetQuestions(ctx, resp.Questions); err != nil {
			log.Printf("[Questions] Failed to cache question bank: %v", err)
		}
		log.Printf("[Questions] Loaded %d questions", len(resp.Questions))
		return resp.Questions, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		log.Printf("[Questions] Shared in-flight question load")
	}
	return append([]model.Question(nil), v.([]model.Question)...), nil
}
