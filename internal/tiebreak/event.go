package tiebreak

import "adaptivestrategy/internal/model"

// Event is an input to Session.Apply
type Event interface {
	isEvent()
}

// Start loads the primary question set and opens the questionnaire
type Start struct {
	Questions []model.Question
	Profile   model.UserProfile
}

// Answer records a Likert answer for a displayed question
type Answer struct {
	QuestionID string
	Value      int
}

// Submit sends the displayed answers (primary or supplementary) for a recommendation
type Submit struct{}

// RecommendReceived delivers a successful recommend response
type RecommendReceived struct {
	Generation int
	Response   model.Recommendation
}

// RequestionReceived delivers a successful supplementary-question response
type RequestionReceived struct {
	Generation int
	Response   model.RequestionResponse
}

// FallbackReceived delivers a successful fallback response
type FallbackReceived struct {
	Generation int
	Response   model.FallbackRecommendation
}

// CallFailed reports that the outstanding call could not complete
type CallFailed struct {
	Generation int
	Message    string
}

// RetryFallback re-issues a failed fallback call
type RetryFallback struct{}

// Restart discards all progress and reopens the questionnaire
type Restart struct{}

func (Start) isEvent()              {}
func (Answer) isEvent()             {}
func (Submit) isEvent()             {}
func (RecommendReceived) isEvent()  {}
func (RequestionReceived) isEvent() {}
func (FallbackReceived) isEvent()   {}
func (CallFailed) isEvent()         {}
func (RetryFallback) isEvent()      {}
func (Restart) isEvent()            {}
