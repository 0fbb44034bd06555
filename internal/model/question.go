package model

// Scale identifies one of the two score axes a question belongs to
type Scale string

const (
	ScaleEQ  Scale = "EQ"  // Emotional intelligence
	ScaleFLA Scale = "FLA" // Foreign language anxiety
)

// Default Likert bounds used when the service omits them
const (
	DefaultLikertMin = 1
	DefaultLikertMax = 5
)

// Question is a Likert item served by the recommendation service (primary or supplementary)
type Question struct {
	QuestionID   string `json:"question_id"`
	Scale        Scale  `json:"scale"`
	ItemNumber   int    `json:"item_number"`
	Subscale     string `json:"subscale"`
	Text         string `json:"text"`
	ReverseCoded bool   `json:"reverse_coded"`
	LikertMin    int    `json:"likert_min"`
	LikertMax    int    `json:"likert_max"`
}

// Bounds returns the inclusive Likert range, falling back to 1..5
func (q Question) Bounds() (int, int) {
	lo, hi := q.LikertMin, q.LikertMax
	if lo == 0 && hi == 0 {
		return DefaultLikertMin, DefaultLikertMax
	}
	if lo == 0 {
		lo = DefaultLikertMin
	}
	if hi == 0 || hi < lo {
		hi = DefaultLikertMax
	}
	return lo, hi
}

// Accepts reports whether value is inside the question's Likert range
func (q Question) Accepts(value int) bool {
	lo, hi := q.Bounds()
	return value >= lo && value <= hi
}

// QuestionsResponse is the payload of the list-questions operation
type QuestionsResponse struct {
	TotalQuestions int        `json:"total_questions"`
	Questions      []Question `json:"questions"`
}

// QuestionPage is one page of the primary questionnaire with recorded answers
type QuestionPage struct {
	Page       int              `json:"page"`
	TotalPages int              `json:"totalPages"`
	PageSize   int              `json:"pageSize"`
	Answered   int              `json:"answered"`
	Total      int              `json:"total"`
	Items      []AnsweredPrompt `json:"items"`
}

// AnsweredPrompt pairs a question with its recorded answer (nil when unanswered)
type AnsweredPrompt struct {
	Question Question `json:"question"`
	Answer   *int     `json:"answer,omitempty"`
}

// Paginate cuts questions into the requested page. Out-of-range pages are clamped.
func Paginate(questions []Question, answers map[string]int, page, pageSize int) QuestionPage {
	if pageSize <= 0 {
		pageSize = len(questions)
		if pageSize == 0 {
			pageSize = 1
		}
	}
	totalPages := (len(questions) + pageSize - 1) / pageSize
	if page < 0 {
		page = 0
	}
	if totalPages > 0 && page >= totalPages {
		page = totalPages - 1
	}

	answered := 0
	for _, q := range questions {
		if _, ok := answers[q.QuestionID]; ok {
			answered++
		}
	}

	items := []AnsweredPrompt{}
	start := page * pageSize
	end := start + pageSize
	if end > len(questions) {
		end = len(questions)
	}
	for i := start; i < end; i++ {
		item := AnsweredPrompt{Question: questions[i]}
		if v, ok := answers[questions[i].QuestionID]; ok {
			item.Answer = &v
		}
		items = append(items, item)
	}

	return QuestionPage{
		Page:       page,
		TotalPages: totalPages,
		PageSize:   pageSize,
		Answered:   answered,
		Total:      len(questions),
		Items:      items,
	}
}
