// Package app wires configuration, stores and services into a runnable application.
package app

import (
	"adaptivestrategy/internal/cache"
	"adaptivestrategy/internal/config"
	"adaptivestrategy/internal/service"
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type App struct {
	Config        *config.Config
	SessionStore  cache.SessionStore
	QuestionCache cache.QuestionCache
	Recommender   service.Recommender
	AuthService   *service.AuthService
	Questions     *service.QuestionService
	Sessions      *service.SessionService
}

// New builds the service graph on top of the given stores
func New(cfg *config.Config, store cache.SessionStore, questionCache cache.QuestionCache) *App {
	recommender := service.NewRecommenderClient(cfg.Recommender)
	authSvc := service.NewAuthService(cfg.JWTSecret, cfg.SessionTTL)
	questions := service.NewQuestionService(recommender, questionCache)
	sessions := service.NewSessionService(
		store,
		questions,
		recommender,
		authSvc,
		cfg.Recommender.DefaultRoundLimit,
		cfg.PageSize,
	)

	return &App{
		Config:        cfg,
		SessionStore:  store,
		QuestionCache: questionCache,
		Recommender:   recommender,
		AuthService:   authSvc,
		Questions:     questions,
		Sessions:      sessions,
	}
}

// NewInMemory builds an application whose sessions live in process
func NewInMemory(cfg *config.Config) *App {
	return New(cfg, cache.NewMemorySessionStore(), cache.NewMemoryQuestionCache(cfg.QuestionCacheTTL))
}

// NewRedis builds an application backed by Redis and returns the client for shutdown
func NewRedis(ctx context.Context, cfg *config.Config) (*App, *redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := rdb.Ping(pingCtx).Result(); err != nil {
		rdb.Close()
		return nil, nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	a := New(cfg,
		cache.NewSessionCache(rdb, cfg.SessionTTL),
		cache.NewQuestionCache(rdb, cfg.QuestionCacheTTL),
	)
	return a, rdb, nil
}
