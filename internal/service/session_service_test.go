package service

import (
	"adaptivestrategy/internal/cache"
	"adaptivestrategy/internal/model"
	"adaptivestrategy/internal/tiebreak"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRecommender replays scripted responses and records the requests it receives
type fakeRecommender struct {
	mu          sync.Mutex
	questions   []model.Question
	recommends  []model.Recommendation
	requestions []model.RequestionResponse
	fallback    *model.FallbackRecommendation
	failNext    map[string]error
	block       chan struct{}

	listCalls    int
	recommendReq []model.RecommendRequest
	requestReq   []model.RequestionRequest
	fallbackReq  []model.FallbackRequest
}

func newFakeRecommender() *fakeRecommender {
	return &fakeRecommender{
		questions: []model.Question{
			{QuestionID: "EQ-1", Scale: model.ScaleEQ, Subscale: "wellbeing", LikertMin: 1, LikertMax: 5},
			{QuestionID: "FLA-1", Scale: model.ScaleFLA, Subscale: "test anxiety", LikertMin: 1, LikertMax: 5},
		},
		failNext: map[string]error{},
	}
}

func (f *fakeRecommender) fail(op string) error {
	if err, ok := f.failNext[op]; ok {
		delete(f.failNext, op)
		return err
	}
	return nil
}

func (f *fakeRecommender) ListQuestions(ctx context.Context) (*model.QuestionsResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if err := f.fail("questions"); err != nil {
		return nil, err
	}
	return &model.QuestionsResponse{TotalQuestions: len(f.questions), Questions: f.questions}, nil
}

func (f *fakeRecommender) Recommend(ctx context.Context, req model.RecommendRequest) (*model.Recommendation, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recommendReq = append(f.recommendReq, req)
	if err := f.fail("recommend"); err != nil {
		return nil, err
	}
	if len(f.recommends) == 0 {
		return nil, errors.New("no scripted recommendation")
	}
	rec := f.recommends[0]
	f.recommends = f.recommends[1:]
	return &rec, nil
}

func (f *fakeRecommender) Requestion(ctx context.Context, req model.RequestionRequest) (*model.RequestionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requestReq = append(f.requestReq, req)
	if err := f.fail("requestion"); err != nil {
		return nil, err
	}
	if len(f.requestions) == 0 {
		return nil, errors.New("no scripted requestion")
	}
	resp := f.requestions[0]
	f.requestions = f.requestions[1:]
	return &resp, nil
}

func (f *fakeRecommender) Fallback(ctx context.Context, req model.FallbackRequest) (*model.FallbackRecommendation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fallbackReq = append(f.fallbackReq, req)
	if err := f.fail("fallback"); err != nil {
		return nil, err
	}
	if f.fallback == nil {
		return nil, errors.New("no scripted fallback")
	}
	fb := *f.fallback
	return &fb, nil
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	states []tiebreak.State
}

func (b *recordingBroadcaster) BroadcastSession(sessionID, msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if view, ok := payload.(*SessionView); ok && msgType == MsgSessionUpdated {
		b.states = append(b.states, view.State)
	}
}

func tied(eq, fla string) model.Recommendation {
	return model.Recommendation{
		RecommendedStrategy: "인지전략",
		TieTriggered:        true,
		ScoreGap:            0.02,
		TopEQSubscale:       eq,
		TopFLASubscale:      fla,
		EQScores:            map[string]float64{eq: 4.0, "sociability": 3.0},
		FLAScores:           map[string]float64{fla: 3.5},
	}
}

func settled(strategy string) model.Recommendation {
	rec := tied("wellbeing", "test anxiety")
	rec.TieTriggered = false
	rec.RecommendedStrategy = strategy
	return rec
}

func round(n, limit int) model.RequestionResponse {
	return model.RequestionResponse{
		RoundLimit: limit,
		Questions: []model.Question{
			{QuestionID: fmt.Sprintf("EQ-R%d", n), Scale: model.ScaleEQ},
			{QuestionID: fmt.Sprintf("FLA-R%d", n), Scale: model.ScaleFLA},
		},
	}
}

func testProfile() model.UserProfile {
	return model.UserProfile{Name: "Kim", Education: "University", Age: "24"}
}

func newTestSessionService(t *testing.T, rec *fakeRecommender) (*SessionService, *recordingBroadcaster) {
	t.Helper()
	questions := NewQuestionService(rec, cache.NewMemoryQuestionCache(time.Hour))
	svc := NewSessionService(cache.NewMemorySessionStore(), questions, rec, NewAuthService("secret", time.Hour), 3, 8)
	b := &recordingBroadcaster{}
	svc.SetBroadcaster(b)
	return svc, b
}

func createAnswered(t *testing.T, svc *SessionService) *tiebreak.Session {
	t.Helper()
	ctx := context.Background()
	s, token, err := svc.Create(ctx, testProfile())
	require.NoError(t, err)
	require.NotEmpty(t, token)
	for _, q := range s.Questions {
		_, err := svc.Answer(ctx, s.ID, q.QuestionID, 4)
		require.NoError(t, err)
	}
	return s
}

func answerSupplementary(t *testing.T, svc *SessionService, s *tiebreak.Session, value int) {
	t.Helper()
	for _, q := range s.Requestion.Questions {
		_, err := svc.Answer(context.Background(), s.ID, q.QuestionID, value)
		require.NoError(t, err)
	}
}

func TestCreateValidatesProfile(t *testing.T) {
	svc, _ := newTestSessionService(t, newFakeRecommender())
	_, _, err := svc.Create(context.Background(), model.UserProfile{Name: "Kim", Education: " "})
	assert.ErrorIs(t, err, model.ErrInvalidProfile)
}

func TestCreateReportsQuestionLoadFailure(t *testing.T) {
	rec := newFakeRecommender()
	rec.failNext["questions"] = errors.New("connection refused")
	svc, _ := newTestSessionService(t, rec)

	_, _, err := svc.Create(context.Background(), testProfile())
	assert.ErrorIs(t, err, ErrRecommenderUnavailable)
}

func TestQuestionBankIsCached(t *testing.T) {
	rec := newFakeRecommender()
	svc, _ := newTestSessionService(t, rec)

	for i := 0; i < 3; i++ {
		_, _, err := svc.Create(context.Background(), testProfile())
		require.NoError(t, err)
	}
	assert.Equal(t, 1, rec.listCalls)
}

func TestSubmitResolvesWithoutTie(t *testing.T) {
	rec := newFakeRecommender()
	rec.recommends = []model.Recommendation{settled("기억전략")}
	svc, b := newTestSessionService(t, rec)
	s := createAnswered(t, svc)

	got, err := svc.Submit(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, tiebreak.StateResolved, got.State)
	assert.Equal(t, "기억전략", got.Result.Strategy())
	assert.Equal(t, map[string]int{"EQ-1": 4, "FLA-1": 4}, rec.recommendReq[0].Responses)
	assert.Contains(t, b.states, tiebreak.StateSubmitting)
	assert.Equal(t, tiebreak.StateResolved, b.states[len(b.states)-1])
}

func TestSubmitRejectsIncompleteAnswers(t *testing.T) {
	svc, _ := newTestSessionService(t, newFakeRecommender())
	s, _, err := svc.Create(context.Background(), testProfile())
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), s.ID)
	assert.ErrorIs(t, err, tiebreak.ErrIncomplete)
}

func TestFullTieBreakFlowEscalatesToFallback(t *testing.T) {
	ctx := context.Background()
	rec := newFakeRecommender()
	rec.recommends = []model.Recommendation{
		tied("wellbeing", "test anxiety"),
		tied("wellbeing", "test anxiety"),
		tied("wellbeing", "test anxiety"),
	}
	rec.requestions = []model.RequestionResponse{round(1, 2), round(2, 2)}
	rec.fallback = &model.FallbackRecommendation{RecommendedStrategy: "보상전략", Reason: "still tied", UsedLLM: true}
	svc, _ := newTestSessionService(t, rec)
	s := createAnswered(t, svc)

	got, err := svc.Submit(ctx, s.ID)
	require.NoError(t, err)
	require.Equal(t, tiebreak.StateAwaitingRequestionAnswers, got.State)
	assert.Equal(t, 1, got.Requestion.Round)
	assert.Equal(t, 2, got.Requestion.MaxRounds)

	answerSupplementary(t, svc, got, 5)
	got, err = svc.Submit(ctx, s.ID)
	require.NoError(t, err)
	require.Equal(t, tiebreak.StateAwaitingRequestionAnswers, got.State)
	assert.Equal(t, 2, got.Requestion.Round)
	assert.Equal(t, []string{"EQ-R1", "FLA-R1"}, rec.requestReq[1].UsedQuestionIDs)

	answerSupplementary(t, svc, got, 2)
	got, err = svc.Submit(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, tiebreak.StateResolved, got.State)
	assert.Equal(t, tiebreak.ResultPrimaryWithFallback, got.Result.Kind)
	assert.Equal(t, "보상전략", got.Result.Strategy())

	require.Len(t, rec.fallbackReq, 1)
	assert.Equal(t, []int{5, 2}, rec.fallbackReq[0].TieBreakerAnswers.EQ)
	assert.Equal(t, []int{5, 2}, rec.fallbackReq[0].TieBreakerAnswers.FLA)
	assert.Equal(t, "Kim", rec.fallbackReq[0].UserProfile["name"])
	assert.Equal(t, []int{5, 2}, rec.recommendReq[2].TieBreakerAnswers.EQ)
}

func TestRecommendFailureSurfacesAndKeepsAnswers(t *testing.T) {
	rec := newFakeRecommender()
	rec.failNext["recommend"] = errors.New("502 bad gateway")
	rec.recommends = []model.Recommendation{settled("기억전략")}
	svc, _ := newTestSessionService(t, rec)
	s := createAnswered(t, svc)

	got, err := svc.Submit(context.Background(), s.ID)
	require.ErrorIs(t, err, ErrRecommenderUnavailable)
	require.NotNil(t, got)
	assert.Equal(t, tiebreak.StateAwaitingPrimaryAnswers, got.State)
	assert.Len(t, got.Answers, 2)
	assert.Contains(t, got.LastError, "502 bad gateway")
	assert.False(t, got.Busy())

	got, err = svc.Submit(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, tiebreak.StateResolved, got.State)
	assert.Empty(t, got.LastError)
}

func TestFallbackFailureCanBeRetried(t *testing.T) {
	rec := newFakeRecommender()
	rec.recommends = []model.Recommendation{tied("wellbeing", "test anxiety")}
	rec.requestions = []model.RequestionResponse{{RoundLimit: 3, Questions: []model.Question{}}}
	rec.failNext["fallback"] = errors.New("timeout")
	rec.fallback = &model.FallbackRecommendation{RecommendedStrategy: "사회적 전략"}
	svc, _ := newTestSessionService(t, rec)
	s := createAnswered(t, svc)

	got, err := svc.Submit(context.Background(), s.ID)
	require.ErrorIs(t, err, ErrRecommenderUnavailable)
	assert.Equal(t, tiebreak.StateEscalatingFallback, got.State)
	assert.Equal(t, tiebreak.ResultPrimary, got.Result.Kind)

	_, err = svc.Submit(context.Background(), s.ID)
	assert.ErrorIs(t, err, tiebreak.ErrInvalidTransition)

	got, err = svc.RetryFallback(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, tiebreak.StateResolved, got.State)
	assert.Equal(t, "사회적 전략", got.Result.Strategy())
}

func TestRestartDuringCallDiscardsLateResponse(t *testing.T) {
	ctx := context.Background()
	rec := newFakeRecommender()
	rec.recommends = []model.Recommendation{settled("기억전략")}
	rec.block = make(chan struct{})
	svc, _ := newTestSessionService(t, rec)
	s := createAnswered(t, svc)

	done := make(chan *tiebreak.Session)
	go func() {
		got, err := svc.Submit(ctx, s.ID)
		assert.NoError(t, err)
		done <- got
	}()

	require.Eventually(t, func() bool {
		cur, err := svc.Get(ctx, s.ID)
		return err == nil && cur.Busy()
	}, time.Second, 5*time.Millisecond)

	_, err := svc.Answer(ctx, s.ID, "EQ-1", 1)
	assert.ErrorIs(t, err, tiebreak.ErrBusy)

	restarted, err := svc.Restart(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, restarted.Generation)

	close(rec.block)
	got := <-done
	assert.Equal(t, tiebreak.StateAwaitingPrimaryAnswers, got.State)
	assert.Nil(t, got.Result)
	assert.Empty(t, got.Answers)
}

func TestQuestionPage(t *testing.T) {
	svc, _ := newTestSessionService(t, newFakeRecommender())
	svc.pageSize = 1
	s, _, err := svc.Create(context.Background(), testProfile())
	require.NoError(t, err)
	_, err = svc.Answer(context.Background(), s.ID, "FLA-1", 3)
	require.NoError(t, err)

	page, err := svc.QuestionPage(context.Background(), s.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, 1, page.Answered)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "FLA-1", page.Items[0].Question.QuestionID)
	require.NotNil(t, page.Items[0].Answer)
	assert.Equal(t, 3, *page.Items[0].Answer)
}

func TestExport(t *testing.T) {
	rec := newFakeRecommender()
	rec.recommends = []model.Recommendation{tied("wellbeing", "test anxiety")}
	rec.requestions = []model.RequestionResponse{{RoundLimit: 1, Questions: nil}}
	rec.fallback = &model.FallbackRecommendation{RecommendedStrategy: "보상전략", Reason: "llm"}
	svc, _ := newTestSessionService(t, rec)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 9, 30, 15, 123000000, time.UTC) }
	s := createAnswered(t, svc)

	_, _, err := svc.Export(context.Background(), s.ID)
	assert.ErrorIs(t, err, ErrNoResult)

	_, err = svc.Submit(context.Background(), s.ID)
	require.NoError(t, err)

	export, name, err := svc.Export(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, "result_2024-05-01T093015123Z.json", name)
	assert.Equal(t, "2024-05-01T09:30:15.123Z", export.Timestamp)
	assert.Equal(t, "Kim", export.User.Name)
	assert.Equal(t, "보상전략", export.Result.RecommendedStrategy)
	require.NotNil(t, export.LLMFallback)
	assert.Equal(t, "llm", export.LLMFallback.Reason)
}

func TestUnknownSession(t *testing.T) {
	svc, _ := newTestSessionService(t, newFakeRecommender())
	_, err := svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = svc.Answer(context.Background(), "missing", "EQ-1", 3)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDeleteDropsSessionAndLateResponse(t *testing.T) {
	ctx := context.Background()
	rec := newFakeRecommender()
	rec.recommends = []model.Recommendation{settled("기억전략")}
	rec.block = make(chan struct{})
	svc, _ := newTestSessionService(t, rec)
	s := createAnswered(t, svc)

	done := make(chan error)
	go func() {
		_, err := svc.Submit(ctx, s.ID)
		done <- err
	}()

	require.Eventually(t, func() bool {
		cur, err := svc.Get(ctx, s.ID)
		return err == nil && cur.Busy()
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, svc.Delete(ctx, s.ID))
	close(rec.block)
	assert.ErrorIs(t, <-done, ErrSessionNotFound)

	_, err := svc.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, s.ID), ErrSessionNotFound)
}

func TestSessionViewProjection(t *testing.T) {
	rec := newFakeRecommender()
	rec.recommends = []model.Recommendation{tied("wellbeing", "test anxiety")}
	rec.requestions = []model.RequestionResponse{round(1, 3)}
	svc, _ := newTestSessionService(t, rec)
	s := createAnswered(t, svc)

	got, err := svc.Submit(context.Background(), s.ID)
	require.NoError(t, err)

	view := NewSessionView(got)
	require.NotNil(t, view.Requestion)
	assert.Equal(t, 1, view.Requestion.Round)
	assert.Len(t, view.Requestion.Items, 2)
	assert.Equal(t, noticeRequestion, view.Notice)
	assert.False(t, view.CanSubmit)
	assert.Equal(t, 2, view.Missing)
	require.NotNil(t, view.Result)
	assert.False(t, view.Result.Final)
	require.NotNil(t, view.Result.Guide)
	assert.Equal(t, "인지전략", view.Result.Guide.Key)
	assert.Equal(t, "wellbeing", view.Result.TopEQ[0].Name)
}

func TestSessionViewNoticeFollowsRequestionCycle(t *testing.T) {
	rec := newFakeRecommender()
	rec.recommends = []model.Recommendation{tied("wellbeing", "test anxiety")}
	rec.requestions = []model.RequestionResponse{round(1, 3)}
	svc, _ := newTestSessionService(t, rec)
	s := createAnswered(t, svc)

	got, err := svc.Submit(context.Background(), s.ID)
	require.NoError(t, err)
	require.Equal(t, tiebreak.StateAwaitingRequestionAnswers, got.State)

	for _, q := range got.Requestion.Questions {
		_, err := got.Apply(tiebreak.Answer{QuestionID: q.QuestionID, Value: 3})
		require.NoError(t, err)
	}
	_, err = got.Apply(tiebreak.Submit{})
	require.NoError(t, err)

	view := NewSessionView(got)
	assert.Equal(t, tiebreak.StateSubmitting, view.State)
	assert.Nil(t, view.Requestion)
	assert.Equal(t, noticeResubmit, view.Notice)

	_, err = got.Apply(tiebreak.RecommendReceived{Generation: got.Generation, Response: tied("wellbeing", "test anxiety")})
	require.NoError(t, err)
	_, err = got.Apply(tiebreak.RequestionReceived{Generation: got.Generation, Response: round(2, 3)})
	require.NoError(t, err)

	view = NewSessionView(got)
	require.NotNil(t, view.Requestion)
	assert.Equal(t, 2, view.Requestion.Round)
	assert.Equal(t, noticeRequestion, view.Notice, "every new round asks for answers again")
}

func TestTopScores(t *testing.T) {
	scores := map[string]float64{"a": 1, "b": 3, "c": 3, "d": 2}
	top := TopScores(scores, 3)
	require.Len(t, top, 3)
	assert.Equal(t, []string{"b", "c", "d"}, []string{top[0].Name, top[1].Name, top[2].Name})
}
