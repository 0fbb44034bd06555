package cache

import (
	"adaptivestrategy/internal/model"
	"adaptivestrategy/internal/tiebreak"
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSessionTTL = 30 * time.Minute

func newRedisStore(t *testing.T) (SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewSessionCache(client, testSessionTTL), mr
}

// answeredSession is a started session with every primary question answered
func answeredSession(t *testing.T, id string) *tiebreak.Session {
	t.Helper()
	s := tiebreak.New(id, 3)
	_, err := s.Apply(tiebreak.Start{
		Questions: []model.Question{
			{QuestionID: "EQ-1", Scale: model.ScaleEQ, Subscale: "wellbeing", LikertMin: 1, LikertMax: 5},
			{QuestionID: "FLA-1", Scale: model.ScaleFLA, Subscale: "test anxiety", LikertMin: 1, LikertMax: 5},
		},
		Profile: model.UserProfile{Name: "Kim", Education: "University", Age: "24"},
	})
	require.NoError(t, err)
	for _, id := range []string{"EQ-1", "FLA-1"} {
		_, err := s.Apply(tiebreak.Answer{QuestionID: id, Value: 4})
		require.NoError(t, err)
	}
	return s
}

func settledRecommendation() model.Recommendation {
	return model.Recommendation{
		RecommendedStrategy: "기억전략",
		ScoreGap:            0.3,
		TopEQSubscale:       "wellbeing",
		TopFLASubscale:      "test anxiety",
		EQScores:            map[string]float64{"wellbeing": 4},
		FLAScores:           map[string]float64{"test anxiety": 2},
	}
}

func TestSessionCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)

	s := answeredSession(t, "s-1")
	s.Result = tiebreak.Primary(settledRecommendation())
	_, err := s.Apply(tiebreak.Submit{})
	require.NoError(t, err)
	require.NotNil(t, s.InFlight)

	require.NoError(t, store.Create(ctx, s))
	assert.True(t, mr.Exists("tiebreak:session:s-1"))
	assert.Equal(t, testSessionTTL, mr.TTL("tiebreak:session:s-1"))

	got, err := store.Get(ctx, "s-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, tiebreak.StateSubmitting, got.State)
	assert.Equal(t, s.Profile, got.Profile)
	assert.Equal(t, s.Answers, got.Answers)
	assert.Equal(t, s.Questions, got.Questions)
	require.NotNil(t, got.InFlight)
	assert.Equal(t, tiebreak.PhaseRecommend, got.InFlight.Phase)
	assert.Equal(t, tiebreak.StateAwaitingPrimaryAnswers, got.InFlight.Origin)
	require.NotNil(t, got.Result)
	assert.Equal(t, "기억전략", got.Result.Strategy())
	assert.Equal(t, s.Result.Recommendation.EQScores, got.Result.Recommendation.EQScores)
	assert.True(t, s.CreatedAt.Equal(got.CreatedAt))

	missing, err := store.Get(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSessionCacheCreateRejectsDuplicate(t *testing.T) {
	ctx := context.Background()
	store, _ := newRedisStore(t)

	require.NoError(t, store.Create(ctx, tiebreak.New("s-1", 3)))

	dup := tiebreak.New("s-1", 5)
	assert.Error(t, store.Create(ctx, dup))

	got, err := store.Get(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, 3, got.DefaultRoundLimit, "the first session is kept")
}

func TestSessionCacheUpdate(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)
	require.NoError(t, store.Create(ctx, answeredSession(t, "s-1")))
	mr.FastForward(time.Minute)

	_, err := store.Update(ctx, "s-1", func(s *tiebreak.Session) error {
		_, err := s.Apply(tiebreak.Answer{QuestionID: "EQ-1", Value: 9})
		return err
	})
	require.ErrorIs(t, err, tiebreak.ErrInvalidAnswer)
	got, _ := store.Get(ctx, "s-1")
	assert.Equal(t, 4, got.Answers["EQ-1"], "a rejected event writes nothing")

	updated, err := store.Update(ctx, "s-1", func(s *tiebreak.Session) error {
		_, err := s.Apply(tiebreak.Answer{QuestionID: "EQ-1", Value: 2})
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Answers["EQ-1"])
	assert.Equal(t, testSessionTTL, mr.TTL("tiebreak:session:s-1"), "updates refresh the TTL")

	got, _ = store.Get(ctx, "s-1")
	assert.Equal(t, 2, got.Answers["EQ-1"])
}

func TestSessionCacheUpdateExpired(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)
	require.NoError(t, store.Create(ctx, answeredSession(t, "s-1")))

	mr.FastForward(testSessionTTL + time.Second)

	_, err := store.Update(ctx, "s-1", func(*tiebreak.Session) error { return nil })
	assert.ErrorIs(t, err, ErrSessionNotFound)

	got, err := store.Get(ctx, "s-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionCacheConcurrentSubmitHasOneWinner(t *testing.T) {
	ctx := context.Background()
	store, _ := newRedisStore(t)
	require.NoError(t, store.Create(ctx, answeredSession(t, "s-1")))

	const workers = 20
	var ok, rejected atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := store.Update(ctx, "s-1", func(s *tiebreak.Session) error {
				_, err := s.Apply(tiebreak.Submit{})
				return err
			})
			if err != nil {
				rejected.Add(1)
				return
			}
			ok.Add(1)
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), ok.Load())
	assert.Equal(t, int32(workers-1), rejected.Load())

	got, err := store.Get(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, tiebreak.StateSubmitting, got.State)
	require.NotNil(t, got.InFlight)

	resolved, err := store.Update(ctx, "s-1", func(s *tiebreak.Session) error {
		_, err := s.Apply(tiebreak.RecommendReceived{Generation: s.Generation, Response: settledRecommendation()})
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, tiebreak.StateResolved, resolved.State)
	assert.Nil(t, resolved.InFlight)
	require.NotNil(t, resolved.Result)
	assert.Equal(t, "기억전략", resolved.Result.Strategy())
}

func TestSessionCacheDelete(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)
	require.NoError(t, store.Create(ctx, tiebreak.New("s-1", 3)))

	require.NoError(t, store.Delete(ctx, "s-1"))
	assert.False(t, mr.Exists("tiebreak:session:s-1"))

	got, err := store.Get(ctx, "s-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}
