package service

import (
	"adaptivestrategy/internal/model"
	"adaptivestrategy/internal/tiebreak"
	"sort"
	"time"
)

const (
	// shown while supplementary questions wait for answers
	noticeRequestion = "평가 결과가 애매합니다. 재질문이 필요합니다."
	// shown while supplementary answers are being resubmitted
	noticeResubmit = "결과가 애매합니다. 재질문을 한 번 더 시도합니다."
)

// SessionView is the renderer-facing projection of a session
type SessionView struct {
	ID         string                `json:"id"`
	Generation int                   `json:"generation"`
	State      tiebreak.State        `json:"state"`
	Profile    model.UserProfile     `json:"profile"`
	Busy       bool                  `json:"busy"`
	CanSubmit  bool                  `json:"canSubmit"`
	Answered   int                   `json:"answered"`
	Total      int                   `json:"total"`
	Missing    int                   `json:"missing"`
	Requestion *RequestionView       `json:"requestion,omitempty"`
	Result     *ResultView           `json:"result,omitempty"`
	Notice     string                `json:"notice,omitempty"`
	LastError  string                `json:"lastError,omitempty"`
	History    model.TieBreakHistory `json:"history"`
	UpdatedAt  time.Time             `json:"updatedAt"`
}

// RequestionView is the supplementary-question modal
type RequestionView struct {
	Round     int                    `json:"round"`
	MaxRounds int                    `json:"maxRounds"`
	Items     []model.AnsweredPrompt `json:"items"`
}

// ResultView is the accepted recommendation with the fallback overlay applied
type ResultView struct {
	Kind           tiebreak.ResultKind           `json:"kind"`
	Strategy       string                        `json:"strategy"`
	Reason         string                        `json:"reason"`
	Recommendation model.Recommendation          `json:"recommendation"`
	Fallback       *model.FallbackRecommendation `json:"fallback,omitempty"`
	Guide          *model.StrategyGuide          `json:"guide,omitempty"`
	TopEQ          []model.ScoreEntry            `json:"topEq"`
	TopFLA         []model.ScoreEntry            `json:"topFla"`
	Final          bool                          `json:"final"`
}

// NewSessionView projects a session for rendering
func NewSessionView(s *tiebreak.Session) *SessionView {
	v := &SessionView{
		ID:         s.ID,
		Generation: s.Generation,
		State:      s.State,
		Profile:    s.Profile,
		Busy:       s.Busy(),
		CanSubmit:  s.CanSubmit(),
		Answered:   s.Answered(),
		Total:      len(s.Questions),
		Missing:    s.Missing(),
		LastError:  s.LastError,
		History:    s.History.Clone(),
		UpdatedAt:  s.UpdatedAt,
	}

	if s.State == tiebreak.StateAwaitingRequestionAnswers {
		v.Requestion = &RequestionView{
			Round:     s.Requestion.Round,
			MaxRounds: s.Requestion.MaxRounds,
			Items:     prompts(s.Requestion.Questions, s.Requestion.Answers),
		}
		v.Notice = noticeRequestion
	}
	if s.State == tiebreak.StateSubmitting && s.InFlight != nil &&
		s.InFlight.Origin == tiebreak.StateAwaitingRequestionAnswers {
		v.Notice = noticeResubmit
	}

	if s.Result != nil {
		rec := s.Result.Effective()
		r := &ResultView{
			Kind:           s.Result.Kind,
			Strategy:       s.Result.Strategy(),
			Reason:         s.Result.Reason(),
			Recommendation: rec,
			Fallback:       s.Result.Fallback,
			TopEQ:          TopScores(rec.EQScores, 5),
			TopFLA:         TopScores(rec.FLAScores, 4),
			Final:          s.State == tiebreak.StateResolved,
		}
		if guide, ok := model.LookupStrategyGuide(r.Strategy); ok {
			r.Guide = &guide
		}
		v.Result = r
	}
	return v
}

// TopScores returns the n highest scores, ties broken by name
func TopScores(scores map[string]float64, n int) []model.ScoreEntry {
	out := make([]model.ScoreEntry, 0, len(scores))
	for name, score := range scores {
		out = append(out, model.ScoreEntry{Name: name, Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func prompts(questions []model.Question, answers map[string]int) []model.AnsweredPrompt {
	items := make([]model.AnsweredPrompt, 0, len(questions))
	for _, q := range questions {
		item := model.AnsweredPrompt{Question: q}
		if v, ok := answers[q.QuestionID]; ok {
			item.Answer = &v
		}
		items = append(items, item)
	}
	return items
}
