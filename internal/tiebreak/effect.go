package tiebreak

import "adaptivestrategy/internal/model"

// Effect describes a remote call the caller must perform. The response must be fed back
// tagged with Generation() so that answers to a restarted session are recognised as stale.
type Effect interface {
	Generation() int
}

// RecommendCall asks the service to score the answers
type RecommendCall struct {
	Gen     int
	Request model.RecommendRequest
}

// RequestionCall asks the service for supplementary questions
type RequestionCall struct {
	Gen     int
	Request model.RequestionRequest
}

// FallbackCall asks the service for a fallback decision
type FallbackCall struct {
	Gen     int
	Request model.FallbackRequest
}

func (c RecommendCall) Generation() int  { return c.Gen }
func (c RequestionCall) Generation() int { return c.Gen }
func (c FallbackCall) Generation() int   { return c.Gen }
