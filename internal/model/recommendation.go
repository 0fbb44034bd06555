package model

// StrategyCandidate is one driver-subscale to strategy pairing considered by the service
type StrategyCandidate struct {
	Driver            Scale   `json:"driver"`
	DriverSubscale    string  `json:"driver_subscale"`
	StrategySubscale  string  `json:"strategy_subscale"`
	Correlation       float64 `json:"correlation"`
	UserSubscaleScore float64 `json:"user_subscale_score"`
	FinalScore        float64 `json:"final_score"`
}

// RankedStrategy is an entry of the overall strategy ranking
type RankedStrategy struct {
	StrategySubscale string  `json:"strategy_subscale"`
	Score            float64 `json:"score"`
}

// RecommendRequest is the body of the recommend operation
type RecommendRequest struct {
	Responses         map[string]int  `json:"responses"`
	TieBreakerAnswers TieBreakHistory `json:"tie_breaker_answers"`
}

// Recommendation is the response of the recommend operation
type Recommendation struct {
	RecommendedStrategy string              `json:"recommended_strategy"`
	TieTriggered        bool                `json:"tie_triggered"`
	ScoreGap            float64             `json:"score_gap"`
	Summary             string              `json:"summary"`
	Candidates          []StrategyCandidate `json:"candidates"`
	TopEQSubscale       string              `json:"top_eq_subscale"`
	TopFLASubscale      string              `json:"top_fla_subscale"`
	EQScores            map[string]float64  `json:"eq_scores"`
	FLAScores           map[string]float64  `json:"fla_scores"`
	StrategyRanking     []RankedStrategy    `json:"strategy_ranking"`
}

// Clone returns a deep copy so snapshots never share maps or slices
func (r Recommendation) Clone() Recommendation {
	out := r
	out.Candidates = append([]StrategyCandidate(nil), r.Candidates...)
	out.StrategyRanking = append([]RankedStrategy(nil), r.StrategyRanking...)
	out.EQScores = copyScores(r.EQScores)
	out.FLAScores = copyScores(r.FLAScores)
	return out
}

func copyScores(in map[string]float64) map[string]float64 {
	if in == nil {
		return nil
	}
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// RequestionRequest is the body of the request-supplementary-questions operation
type RequestionRequest struct {
	EQSubscale      string   `json:"eq_subscale"`
	FLASubscale     string   `json:"fla_subscale"`
	UsedQuestionIDs []string `json:"used_question_ids"`
}

// RequestionResponse carries the next supplementary questions and the current round limit
type RequestionResponse struct {
	RoundLimit int        `json:"round_limit"`
	Questions  []Question `json:"questions"`
}

// FallbackRequest is the body of the fallback-recommend operation
type FallbackRequest struct {
	Responses         map[string]int    `json:"responses"`
	TieBreakerAnswers TieBreakHistory   `json:"tie_breaker_answers"`
	UserProfile       map[string]string `json:"user_profile,omitempty"`
	Force             bool              `json:"force"`
}

// FallbackRecommendation is the decision produced once tie-break rounds are exhausted
type FallbackRecommendation struct {
	RecommendedStrategy string  `json:"recommended_strategy"`
	Reason              string  `json:"reason"`
	Confidence          float64 `json:"confidence"`
	Model               string  `json:"model"`
	UsedLLM             bool    `json:"used_llm"`
	BaseTieTriggered    bool    `json:"base_tie_triggered"`
	BaseScoreGap        float64 `json:"base_score_gap"`
}

// ScoreEntry is a named subscale score, used for sorted profile views
type ScoreEntry struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}
