package cache

import (
	"adaptivestrategy/internal/model"
	"adaptivestrategy/internal/tiebreak"
	"context"
	"fmt"
	"sync"
	"time"
)

// MemorySessionStore keeps sessions in process. Used by the terminal client and tests.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]*tiebreak.Session
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]*tiebreak.Session)}
}

func (m *MemorySessionStore) Create(ctx context.Context, session *tiebreak.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[session.ID]; exists {
		return fmt.Errorf("session %s already exists", session.ID)
	}
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now
	m.sessions[session.ID] = session.Clone()
	return nil
}

func (m *MemorySessionStore) Get(ctx context.Context, id string) (*tiebreak.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	return s.Clone(), nil
}

func (m *MemorySessionStore) Update(ctx context.Context, id string, fn UpdateFunc) (*tiebreak.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	work := s.Clone()
	if err := fn(work); err != nil {
		return nil, err
	}
	work.UpdatedAt = time.Now().UTC()
	m.sessions[id] = work
	return work.Clone(), nil
}

func (m *MemorySessionStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// MemoryQuestionCache is an in-process QuestionCache with expiry
type MemoryQuestionCache struct {
	mu        sync.RWMutex
	questions []model.Question
	expiresAt time.Time
	ttl       time.Duration
}

func NewMemoryQuestionCache(ttl time.Duration) *MemoryQuestionCache {
	return &MemoryQuestionCache{ttl: ttl}
}

func (m *MemoryQuestionCache) GetQuestions(ctx context.Context) ([]model.Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.questions == nil || time.Now().After(m.expiresAt) {
		return nil, nil
	}
	return append([]model.Question(nil), m.questions...), nil
}

func (m *MemoryQuestionCache) SetQuestions(ctx context.Context, questions []model.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.questions = append([]model.Question(nil), questions...)
	m.expiresAt = time.Now().Add(m.ttl)
	return nil
}
