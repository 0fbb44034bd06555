package tiebreak

import "adaptivestrategy/internal/model"

// ResultKind tags which variant a Result holds
type ResultKind string

const (
	ResultPrimary             ResultKind = "primary"
	ResultPrimaryWithFallback ResultKind = "primary_with_fallback"
)

// Result is the accepted outcome of a session: either the primary recommendation alone,
// or the primary recommendation with a fallback decision overlaid on its strategy
type Result struct {
	Kind           ResultKind                    `json:"kind"`
	Recommendation model.Recommendation          `json:"recommendation"`
	Fallback       *model.FallbackRecommendation `json:"fallback,omitempty"`
}

// Primary wraps a recommendation accepted as-is
func Primary(rec model.Recommendation) *Result {
	return &Result{Kind: ResultPrimary, Recommendation: rec.Clone()}
}

// WithFallback returns a new result whose strategy is replaced by the fallback decision.
// Scores, candidates and ranking stay from the primary recommendation.
func (r *Result) WithFallback(fb model.FallbackRecommendation) *Result {
	return &Result{
		Kind:           ResultPrimaryWithFallback,
		Recommendation: r.Recommendation.Clone(),
		Fallback:       &fb,
	}
}

// Strategy is the strategy the session finally recommends
func (r *Result) Strategy() string {
	if r.Kind == ResultPrimaryWithFallback && r.Fallback != nil {
		return r.Fallback.RecommendedStrategy
	}
	return r.Recommendation.RecommendedStrategy
}

// Reason is the human-readable justification: the fallback reason when present, else the summary
func (r *Result) Reason() string {
	if r.Fallback != nil && r.Fallback.Reason != "" {
		return r.Fallback.Reason
	}
	return r.Recommendation.Summary
}

// Effective returns the recommendation with the overlaid strategy applied
func (r *Result) Effective() model.Recommendation {
	rec := r.Recommendation.Clone()
	rec.RecommendedStrategy = r.Strategy()
	return rec
}

func (r *Result) clone() *Result {
	if r == nil {
		return nil
	}
	out := &Result{Kind: r.Kind, Recommendation: r.Recommendation.Clone()}
	if r.Fallback != nil {
		fb := *r.Fallback
		out.Fallback = &fb
	}
	return out
}
