package service

import (
	"adaptivestrategy/internal/cache"
	"adaptivestrategy/internal/model"
	"adaptivestrategy/internal/tiebreak"
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound        = cache.ErrSessionNotFound
	ErrRecommenderUnavailable = errors.New("recommendation service unavailable")
	ErrNoResult               = errors.New("session has no result yet")
)

// SessionService drives questionnaire sessions through the tie-break state machine.
// Every transition is an atomic update of the stored session; remote calls the machine
// asks for run between transitions and their outcome is fed back as the next event.
type SessionService struct {
	store             cache.SessionStore
	questions         *QuestionService
	recommender       Recommender
	authSvc           *AuthService
	broadcaster       Broadcaster
	defaultRoundLimit int
	pageSize          int
	now               func() time.Time
}

// NewSessionService creates a new session service
func NewSessionService(
	store cache.SessionStore,
	questions *QuestionService,
	recommender Recommender,
	authSvc *AuthService,
	defaultRoundLimit int,
	pageSize int,
) *SessionService {
	if pageSize < 1 {
		pageSize = 8
	}
	return &SessionService{
		store:             store,
		questions:         questions,
		recommender:       recommender,
		authSvc:           authSvc,
		defaultRoundLimit: defaultRoundLimit,
		pageSize:          pageSize,
		now:               time.Now,
	}
}

// SetBroadcaster sets the broadcaster for WebSocket events
func (s *SessionService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Create starts a session for the given respondent. The token is empty when the
// service runs without an auth service (terminal client).
func (s *SessionService) Create(ctx context.Context, profile model.UserProfile) (*tiebreak.Session, string, error) {
	if err := profile.Validate(); err != nil {
		return nil, "", err
	}

	questions, err := s.questions.Primary(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrRecommenderUnavailable, err)
	}

	session := tiebreak.New(uuid.New().String(), s.defaultRoundLimit)
	if _, err := session.Apply(tiebreak.Start{Questions: questions, Profile: profile}); err != nil {
		return nil, "", err
	}
	if err := s.store.Create(ctx, session); err != nil {
		return nil, "", fmt.Errorf("failed to store session: %w", err)
	}

	var token string
	if s.authSvc != nil {
		token, err = s.authSvc.GenerateSessionToken(session.ID)
		if err != nil {
			return nil, "", fmt.Errorf("failed to generate token: %w", err)
		}
	}

	log.Printf("[Session] Created %s with %d questions", session.ID, len(questions))
	s.publish(session)
	return session, token, nil
}

// Get returns the current snapshot of a session
func (s *SessionService) Get(ctx context.Context, id string) (*tiebreak.Session, error) {
	session, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// QuestionPage returns one page of the primary questionnaire with progress
func (s *SessionService) QuestionPage(ctx context.Context, id string, page int) (*model.QuestionPage, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	p := model.Paginate(session.Questions, session.Answers, page, s.pageSize)
	return &p, nil
}

// Answer records a Likert answer for a displayed primary or supplementary question
func (s *SessionService) Answer(ctx context.Context, id, questionID string, value int) (*tiebreak.Session, error) {
	session, _, err := s.apply(ctx, id, tiebreak.Answer{QuestionID: questionID, Value: value})
	return session, err
}

// Submit sends the displayed answers and follows the protocol until the session waits
// for input again, resolves or a call fails
func (s *SessionService) Submit(ctx context.Context, id string) (*tiebreak.Session, error) {
	return s.dispatch(ctx, id, tiebreak.Submit{})
}

// RetryFallback re-issues a failed fallback call
func (s *SessionService) RetryFallback(ctx context.Context, id string) (*tiebreak.Session, error) {
	return s.dispatch(ctx, id, tiebreak.RetryFallback{})
}

// Restart discards all progress. Responses still in flight become stale.
func (s *SessionService) Restart(ctx context.Context, id string) (*tiebreak.Session, error) {
	session, _, err := s.apply(ctx, id, tiebreak.Restart{})
	if err == nil {
		log.Printf("[Session] Restarted %s (generation %d)", id, session.Generation)
	}
	return session, err
}

// Export builds the downloadable result snapshot and its file name
func (s *SessionService) Export(ctx context.Context, id string) (*model.ResultExport, string, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if session.Result == nil {
		return nil, "", ErrNoResult
	}

	now := s.now()
	export := &model.ResultExport{
		Timestamp:   model.ExportTimestamp(now),
		User:        session.Profile,
		Result:      session.Result.Effective(),
		LLMFallback: session.Result.Fallback,
	}
	return export, model.ExportFileName(now), nil
}

// Delete discards a session. A call still in flight for it is dropped when it returns.
func (s *SessionService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	log.Printf("[Session] Deleted %s", id)
	return nil
}

// dispatch applies an event and executes the effects it produces until none remain
func (s *SessionService) dispatch(ctx context.Context, id string, ev tiebreak.Event) (*tiebreak.Session, error) {
	session, effect, err := s.apply(ctx, id, ev)
	if err != nil {
		return nil, err
	}

	// Calls and the transitions that record them outlive the caller's request.
	callCtx := context.WithoutCancel(ctx)
	var callErr error
	for effect != nil {
		var next tiebreak.Event
		next, callErr = s.execute(callCtx, effect)

		session, effect, err = s.apply(callCtx, id, next)
		if errors.Is(err, tiebreak.ErrStaleResponse) || errors.Is(err, tiebreak.ErrUnexpectedResponse) {
			log.Printf("[Session] Discarding %T for %s: %v", next, id, err)
			return s.Get(callCtx, id)
		}
		if err != nil {
			return nil, err
		}
	}

	if callErr != nil {
		return session, fmt.Errorf("%w: %v", ErrRecommenderUnavailable, callErr)
	}
	return session, nil
}

// apply runs one transition inside a store update and publishes the result
func (s *SessionService) apply(ctx context.Context, id string, ev tiebreak.Event) (*tiebreak.Session, tiebreak.Effect, error) {
	var effect tiebreak.Effect
	session, err := s.store.Update(ctx, id, func(sess *tiebreak.Session) error {
		eff, err := sess.Apply(ev)
		if err != nil {
			return err
		}
		effect = eff
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	s.publish(session)
	return session, effect, nil
}

// execute performs the remote call an effect describes and converts its outcome to an event
func (s *SessionService) execute(ctx context.Context, effect tiebreak.Effect) (tiebreak.Event, error) {
	gen := effect.Generation()
	fail := func(err error) (tiebreak.Event, error) {
		log.Printf("[Session] %T failed: %v", effect, err)
		return tiebreak.CallFailed{Generation: gen, Message: err.Error()}, err
	}

	switch e := effect.(type) {
	case tiebreak.RecommendCall:
		rec, err := s.recommender.Recommend(ctx, e.Request)
		if err != nil {
			return fail(err)
		}
		return tiebreak.RecommendReceived{Generation: gen, Response: *rec}, nil
	case tiebreak.RequestionCall:
		resp, err := s.recommender.Requestion(ctx, e.Request)
		if err != nil {
			return fail(err)
		}
		return tiebreak.RequestionReceived{Generation: gen, Response: *resp}, nil
	case tiebreak.FallbackCall:
		fb, err := s.recommender.Fallback(ctx, e.Request)
		if err != nil {
			return fail(err)
		}
		return tiebreak.FallbackReceived{Generation: gen, Response: *fb}, nil
	}
	return fail(fmt.Errorf("unsupported effect %T", effect))
}

func (s *SessionService) publish(session *tiebreak.Session) {
	if s.broadcaster == nil || session == nil {
		return
	}
	s.broadcaster.BroadcastSession(session.ID, MsgSessionUpdated, NewSessionView(session))
}
