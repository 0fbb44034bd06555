package tiebreak

import (
	"adaptivestrategy/internal/model"
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition  = errors.New("event not allowed in current state")
	ErrIncomplete         = errors.New("not every displayed question has been answered")
	ErrInvalidAnswer      = errors.New("invalid answer")
	ErrBusy               = errors.New("a request is already in progress")
	ErrStaleResponse      = errors.New("response belongs to a previous session generation")
	ErrUnexpectedResponse = errors.New("response does not match the outstanding request")
	ErrNoQuestions        = errors.New("question set is empty")
)

// Apply runs one transition. On error the session is left untouched. The returned effect,
// if any, must be executed by the caller and its outcome fed back as an event.
func (s *Session) Apply(ev Event) (Effect, error) {
	switch e := ev.(type) {
	case Start:
		return nil, s.start(e)
	case Answer:
		return nil, s.answer(e)
	case Submit:
		return s.submit()
	case RecommendReceived:
		return s.onRecommend(e)
	case RequestionReceived:
		return s.onRequestion(e)
	case FallbackReceived:
		return nil, s.onFallback(e)
	case CallFailed:
		return nil, s.onFailure(e)
	case RetryFallback:
		return s.retryFallback()
	case Restart:
		return nil, s.restart()
	}
	return nil, fmt.Errorf("%w: unknown event %T", ErrInvalidTransition, ev)
}

func (s *Session) start(e Start) error {
	if s.State != StateIdle {
		return fmt.Errorf("%w: start from %s", ErrInvalidTransition, s.State)
	}
	if len(e.Questions) == 0 {
		return ErrNoQuestions
	}
	s.Profile = e.Profile
	s.Questions = append([]model.Question(nil), e.Questions...)
	s.resetProgress()
	s.State = StateAwaitingPrimaryAnswers
	return nil
}

func (s *Session) answer(e Answer) error {
	if s.Busy() {
		return ErrBusy
	}
	if !s.State.Awaiting() {
		return fmt.Errorf("%w: answer in %s", ErrInvalidTransition, s.State)
	}
	q, ok := findQuestion(s.DisplayedQuestions(), e.QuestionID)
	if !ok {
		return fmt.Errorf("%w: question %q is not displayed", ErrInvalidAnswer, e.QuestionID)
	}
	if !q.Accepts(e.Value) {
		lo, hi := q.Bounds()
		return fmt.Errorf("%w: %d outside %d..%d", ErrInvalidAnswer, e.Value, lo, hi)
	}
	s.displayedAnswers()[e.QuestionID] = e.Value
	return nil
}

func (s *Session) submit() (Effect, error) {
	if s.Busy() {
		return nil, ErrBusy
	}
	if !s.State.Awaiting() {
		return nil, fmt.Errorf("%w: submit in %s", ErrInvalidTransition, s.State)
	}
	if missing := s.Missing(); missing > 0 {
		return nil, fmt.Errorf("%w: %d unanswered", ErrIncomplete, missing)
	}

	history := s.History.Clone()
	if s.State == StateAwaitingRequestionAnswers {
		history = s.History.Extend(s.Requestion.Questions, s.Requestion.Answers)
	}

	s.InFlight = &Submission{
		Origin:  s.State,
		Phase:   PhaseRecommend,
		History: history,
	}
	s.State = StateSubmitting
	s.LastError = ""

	return RecommendCall{
		Gen: s.Generation,
		Request: model.RecommendRequest{
			Responses:         model.CopyAnswers(s.Answers),
			TieBreakerAnswers: history.Clone(),
		},
	}, nil
}

func (s *Session) onRecommend(e RecommendReceived) (Effect, error) {
	if err := s.expect(e.Generation, PhaseRecommend); err != nil {
		return nil, err
	}
	rec := e.Response.Clone()
	history := s.InFlight.History

	if !rec.TieTriggered {
		s.commit(history, rec)
		s.finish(StateResolved)
		return nil, nil
	}

	if s.Requestion.Round < s.Requestion.MaxRounds {
		s.InFlight.Phase = PhaseRequestion
		s.InFlight.Recommendation = &rec
		return RequestionCall{
			Gen: s.Generation,
			Request: model.RequestionRequest{
				EQSubscale:      rec.TopEQSubscale,
				FLASubscale:     rec.TopFLASubscale,
				UsedQuestionIDs: append([]string{}, s.Requestion.UsedQuestionIDs...),
			},
		}, nil
	}

	return s.escalate(history, rec), nil
}

func (s *Session) onRequestion(e RequestionReceived) (Effect, error) {
	if err := s.expect(e.Generation, PhaseRequestion); err != nil {
		return nil, err
	}
	if s.InFlight.Recommendation == nil {
		return nil, fmt.Errorf("%w: no recommendation staged", ErrUnexpectedResponse)
	}
	rec := *s.InFlight.Recommendation
	history := s.InFlight.History

	if e.Response.RoundLimit >= 1 {
		s.Requestion.MaxRounds = e.Response.RoundLimit
	}

	// Nothing left to ask, or the fresh limit no longer allows another round.
	if len(e.Response.Questions) == 0 || s.Requestion.Round >= s.Requestion.MaxRounds {
		return s.escalate(history, rec), nil
	}

	s.commit(history, rec)
	s.Requestion.Round++
	s.Requestion.UsedQuestionIDs = appendUnique(s.Requestion.UsedQuestionIDs, e.Response.Questions)
	s.Requestion.Questions = append([]model.Question{}, e.Response.Questions...)
	s.Requestion.Answers = map[string]int{}
	s.finish(StateAwaitingRequestionAnswers)
	return nil, nil
}

func (s *Session) onFallback(e FallbackReceived) error {
	if err := s.expect(e.Generation, PhaseFallback); err != nil {
		return err
	}
	if s.Result == nil {
		return fmt.Errorf("%w: no primary result to overlay", ErrUnexpectedResponse)
	}
	s.Result = s.Result.WithFallback(e.Response)
	s.finish(StateResolved)
	return nil
}

func (s *Session) onFailure(e CallFailed) error {
	if e.Generation != s.Generation {
		return ErrStaleResponse
	}
	if s.InFlight == nil {
		return fmt.Errorf("%w: no request outstanding", ErrUnexpectedResponse)
	}
	s.State = s.InFlight.Origin
	s.InFlight = nil
	s.LastError = e.Message
	return nil
}

func (s *Session) retryFallback() (Effect, error) {
	if s.Busy() {
		return nil, ErrBusy
	}
	if s.State != StateEscalatingFallback {
		return nil, fmt.Errorf("%w: retry fallback in %s", ErrInvalidTransition, s.State)
	}
	s.InFlight = &Submission{
		Origin:  StateEscalatingFallback,
		Phase:   PhaseFallback,
		History: s.History.Clone(),
	}
	s.LastError = ""
	return s.fallbackCall(), nil
}

func (s *Session) restart() error {
	if s.State == StateIdle {
		return fmt.Errorf("%w: restart before start", ErrInvalidTransition)
	}
	s.Generation++
	s.resetProgress()
	s.State = StateAwaitingPrimaryAnswers
	return nil
}

func (s *Session) resetProgress() {
	s.Answers = map[string]int{}
	s.History = model.NewTieBreakHistory()
	s.Requestion = newRequestionState(s.DefaultRoundLimit)
	s.Result = nil
	s.InFlight = nil
	s.LastError = ""
}

// expect guards a response event against restarts and out-of-order delivery
func (s *Session) expect(generation int, phase Phase) error {
	if generation != s.Generation {
		return ErrStaleResponse
	}
	if s.InFlight == nil || s.InFlight.Phase != phase {
		return fmt.Errorf("%w: got %s response", ErrUnexpectedResponse, phase)
	}
	return nil
}

// commit accepts a recommendation and the history it was computed from.
// The supplementary questions that produced the history are consumed.
func (s *Session) commit(history model.TieBreakHistory, rec model.Recommendation) {
	s.History = history.Clone()
	s.Result = Primary(rec)
	s.Requestion.Questions = []model.Question{}
	s.Requestion.Answers = map[string]int{}
}

func (s *Session) finish(state State) {
	s.State = state
	s.InFlight = nil
	s.LastError = ""
}

func (s *Session) escalate(history model.TieBreakHistory, rec model.Recommendation) Effect {
	s.commit(history, rec)
	s.State = StateEscalatingFallback
	s.InFlight = &Submission{
		Origin:  StateEscalatingFallback,
		Phase:   PhaseFallback,
		History: history.Clone(),
	}
	s.LastError = ""
	return s.fallbackCall()
}

func (s *Session) fallbackCall() FallbackCall {
	var profile map[string]string
	if s.Profile != (model.UserProfile{}) {
		profile = s.Profile.AsMap()
	}
	return FallbackCall{
		Gen: s.Generation,
		Request: model.FallbackRequest{
			Responses:         model.CopyAnswers(s.Answers),
			TieBreakerAnswers: s.History.Clone(),
			UserProfile:       profile,
		},
	}
}

func findQuestion(questions []model.Question, id string) (model.Question, bool) {
	for _, q := range questions {
		if q.QuestionID == id {
			return q, true
		}
	}
	return model.Question{}, false
}

func appendUnique(ids []string, questions []model.Question) []string {
	seen := make(map[string]bool, len(ids))
	out := append([]string{}, ids...)
	for _, id := range ids {
		seen[id] = true
	}
	for _, q := range questions {
		if seen[q.QuestionID] {
			continue
		}
		seen[q.QuestionID] = true
		out = append(out, q.QuestionID)
	}
	return out
}
