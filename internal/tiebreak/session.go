package tiebreak

import (
	"adaptivestrategy/internal/model"
	"time"
)

// RequestionState is the bookkeeping of supplementary question rounds
type RequestionState struct {
	Round           int              `json:"round"`     // completed requestion cycles
	MaxRounds       int              `json:"maxRounds"` // latest round_limit from the service
	Questions       []model.Question `json:"questions"` // currently displayed supplementary questions
	UsedQuestionIDs []string         `json:"usedQuestionIds"`
	Answers         map[string]int   `json:"answers"`
}

// Submission is the staged state of an outstanding call. Nothing in it is committed to
// the session until the whole transition succeeds.
type Submission struct {
	Origin         State                 `json:"origin"` // state to return to on failure
	Phase          Phase                 `json:"phase"`
	History        model.TieBreakHistory `json:"history"`
	Recommendation *model.Recommendation `json:"recommendation,omitempty"`
}

// Session is the complete state of one respondent's questionnaire run.
// Only Apply mutates it; renderers work on Clone().
type Session struct {
	ID                string                `json:"id"`
	Generation        int                   `json:"generation"`
	State             State                 `json:"state"`
	Profile           model.UserProfile     `json:"profile"`
	Questions         []model.Question      `json:"questions"`
	Answers           map[string]int        `json:"answers"`
	History           model.TieBreakHistory `json:"history"`
	Requestion        RequestionState       `json:"requestion"`
	Result            *Result               `json:"result,omitempty"`
	InFlight          *Submission           `json:"inFlight,omitempty"`
	LastError         string                `json:"lastError,omitempty"`
	DefaultRoundLimit int                   `json:"defaultRoundLimit"`
	CreatedAt         time.Time             `json:"createdAt"`
	UpdatedAt         time.Time             `json:"updatedAt"`
}

// New creates an idle session. A non-positive round limit falls back to DefaultRoundLimit.
func New(id string, defaultRoundLimit int) *Session {
	if defaultRoundLimit < 1 {
		defaultRoundLimit = DefaultRoundLimit
	}
	return &Session{
		ID:                id,
		State:             StateIdle,
		Answers:           map[string]int{},
		History:           model.NewTieBreakHistory(),
		Requestion:        newRequestionState(defaultRoundLimit),
		DefaultRoundLimit: defaultRoundLimit,
	}
}

func newRequestionState(maxRounds int) RequestionState {
	return RequestionState{
		MaxRounds:       maxRounds,
		Questions:       []model.Question{},
		UsedQuestionIDs: []string{},
		Answers:         map[string]int{},
	}
}

// Busy reports whether a remote call is outstanding
func (s *Session) Busy() bool {
	return s.InFlight != nil
}

// DisplayedQuestions returns the questions the user is currently asked to answer
func (s *Session) DisplayedQuestions() []model.Question {
	switch s.State {
	case StateAwaitingPrimaryAnswers:
		return s.Questions
	case StateAwaitingRequestionAnswers:
		return s.Requestion.Questions
	}
	return nil
}

func (s *Session) displayedAnswers() map[string]int {
	if s.State == StateAwaitingRequestionAnswers {
		return s.Requestion.Answers
	}
	return s.Answers
}

// Missing counts displayed questions without a recorded answer
func (s *Session) Missing() int {
	answers := s.displayedAnswers()
	n := 0
	for _, q := range s.DisplayedQuestions() {
		if _, ok := answers[q.QuestionID]; !ok {
			n++
		}
	}
	return n
}

// CanSubmit reports whether the submit action should be enabled
func (s *Session) CanSubmit() bool {
	return s.State.Awaiting() && !s.Busy() && s.Missing() == 0
}

// Answered counts answered primary questions
func (s *Session) Answered() int {
	n := 0
	for _, q := range s.Questions {
		if _, ok := s.Answers[q.QuestionID]; ok {
			n++
		}
	}
	return n
}

// Clone returns a deep copy safe to hand to renderers
func (s *Session) Clone() *Session {
	out := *s
	out.Questions = append([]model.Question(nil), s.Questions...)
	out.Answers = model.CopyAnswers(s.Answers)
	out.History = s.History.Clone()
	out.Requestion = RequestionState{
		Round:           s.Requestion.Round,
		MaxRounds:       s.Requestion.MaxRounds,
		Questions:       append([]model.Question{}, s.Requestion.Questions...),
		UsedQuestionIDs: append([]string{}, s.Requestion.UsedQuestionIDs...),
		Answers:         model.CopyAnswers(s.Requestion.Answers),
	}
	out.Result = s.Result.clone()
	if s.InFlight != nil {
		sub := *s.InFlight
		sub.History = s.InFlight.History.Clone()
		if s.InFlight.Recommendation != nil {
			rec := s.InFlight.Recommendation.Clone()
			sub.Recommendation = &rec
		}
		out.InFlight = &sub
	}
	return &out
}
