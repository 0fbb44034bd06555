// Package tiebreak implements the tie-break resolution protocol: submitting survey answers,
// re-questioning while the recommendation service reports an ambiguous result, and escalating
// to a fallback decision once the round limit is reached.
//
// The package is pure: Session.Apply takes an event and returns at most one Effect describing
// the network call the caller must perform. The outcome of that call is fed back as another
// event. No I/O happens here.
package tiebreak

// State is a node of the tie-break state machine
type State string

const (
	StateIdle                      State = "idle"
	StateAwaitingPrimaryAnswers    State = "awaiting_primary_answers"
	StateSubmitting                State = "submitting"
	StateAwaitingRequestionAnswers State = "awaiting_requestion_answers"
	StateEscalatingFallback        State = "escalating_fallback"
	StateResolved                  State = "resolved"
)

// Awaiting reports whether the state waits for user answers
func (s State) Awaiting() bool {
	return s == StateAwaitingPrimaryAnswers || s == StateAwaitingRequestionAnswers
}

// Phase identifies which remote call an in-flight submission is waiting on
type Phase string

const (
	PhaseRecommend  Phase = "recommend"
	PhaseRequestion Phase = "requestion"
	PhaseFallback   Phase = "fallback"
)

// DefaultRoundLimit is used until the service reports its own round_limit
const DefaultRoundLimit = 3
