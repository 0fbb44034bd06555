package model

// TieBreakHistory accumulates every supplementary answer given across requestion rounds,
// per scale, in the order collected
type TieBreakHistory struct {
	EQ  []int `json:"EQ"`
	FLA []int `json:"FLA"`
}

// NewTieBreakHistory returns an empty history that serializes as {"EQ":[],"FLA":[]}
func NewTieBreakHistory() TieBreakHistory {
	return TieBreakHistory{EQ: []int{}, FLA: []int{}}
}

// Clone returns a deep copy with non-nil slices
func (h TieBreakHistory) Clone() TieBreakHistory {
	return TieBreakHistory{
		EQ:  append([]int{}, h.EQ...),
		FLA: append([]int{}, h.FLA...),
	}
}

// Len returns the number of answers recorded for a scale
func (h TieBreakHistory) Len(scale Scale) int {
	switch scale {
	case ScaleEQ:
		return len(h.EQ)
	case ScaleFLA:
		return len(h.FLA)
	}
	return 0
}

// Extend returns a new history with the answers to questions appended, partitioned by scale
// and kept in question order. Questions of an unknown scale are ignored.
func (h TieBreakHistory) Extend(questions []Question, answers map[string]int) TieBreakHistory {
	next := h.Clone()
	for _, q := range questions {
		v, ok := answers[q.QuestionID]
		if !ok {
			continue
		}
		switch q.Scale {
		case ScaleEQ:
			next.EQ = append(next.EQ, v)
		case ScaleFLA:
			next.FLA = append(next.FLA, v)
		}
	}
	return next
}

// CopyAnswers returns a copy of an answer set (never nil)
func CopyAnswers(answers map[string]int) map[string]int {
	out := make(map[string]int, len(answers))
	for k, v := range answers {
		out[k] = v
	}
	return out
}

// AnswerRequest is the body for recording a single Likert answer
type AnswerRequest struct {
	Value int `json:"value"`
}
