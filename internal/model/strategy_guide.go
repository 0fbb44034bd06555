package model

// StrategyGuide is the static study guidance shown next to a recommended strategy
type StrategyGuide struct {
	Key        string   `json:"key"` // strategy name as returned by the service
	Label      string   `json:"label"`
	Title      string   `json:"title"`
	Summary    string   `json:"summary"`
	Definition string   `json:"definition"`
	Tips       []string `json:"tips"`
}

var strategyGuides = []StrategyGuide{
	{
		Key:        "기억전략",
		Label:      "Memory",
		Title:      "기억전략 (Memory)",
		Summary:    "암기 및 복습 기법",
		Definition: "학습 내용을 반복, 연상, 구조화하여 장기 기억에 정착시키는 전략입니다.",
		Tips: []string{
			"새 단어를 주제별로 묶어 암기하세요.",
			"이미지나 상황과 연결해 연상 기억을 만드세요.",
			"하루 10분 짧은 복습을 매일 반복하세요.",
		},
	},
	{
		Key:        "인지전략",
		Label:      "Cognitive",
		Title:      "인지전략 (Cognitive)",
		Summary:    "언어 분석 및 이해 전략",
		Definition: "문장 구조 분석, 요약, 반복 연습을 통해 언어를 능동적으로 처리하는 전략입니다.",
		Tips: []string{
			"문장을 짧게 끊어 핵심 구조를 파악하세요.",
			"읽은 내용을 2~3문장으로 요약하세요.",
			"문법 패턴을 실제 예문에 적용해 연습하세요.",
		},
	},
	{
		Key:        "보상전략",
		Label:      "Compensation",
		Title:      "보상전략 (Compensation)",
		Summary:    "부족한 언어 능력 보완 전략",
		Definition: "학습자가 지식의 공백이나 제한을 극복하는 데 도움을 주는 기법입니다.",
		Tips: []string{
			"대화 중 특정 단어가 생각나지 않으면 쉬운 동의어로 표현하세요.",
			"새로운 단어나 표현이 보이면 메모하고 반복 노출하세요.",
			"몸짓, 예시, 시각 자료를 함께 써 의미를 전달하세요.",
		},
	},
	{
		Key:        "메타인지 전략",
		Label:      "Metacognitive",
		Title:      "메타인지전략 (Metacognitive)",
		Summary:    "학습 계획 및 모니터링 전략",
		Definition: "학습 과정을 계획, 점검, 조절, 평가해 자기주도성을 높이는 전략입니다.",
		Tips: []string{
			"하루 학습 목표를 구체적으로 적고 체크하세요.",
			"학습 후 무엇이 어려웠는지 기록해 다음 계획에 반영하세요.",
			"주간 단위로 성취도를 점검해 루틴을 조정하세요.",
		},
	},
	{
		Key:        "정의적 전략",
		Label:      "Affective",
		Title:      "정의적전략 (Affective)",
		Summary:    "감정 조절 및 동기 유지 전략",
		Definition: "불안과 긴장을 줄이고 학습 동기를 유지하도록 감정을 관리하는 전략입니다.",
		Tips: []string{
			"짧은 호흡 훈련으로 긴장을 완화하세요.",
			"작은 성공 경험을 기록해 자기효능감을 높이세요.",
			"학습 목표를 난이도별로 나눠 부담을 줄이세요.",
		},
	},
	{
		Key:        "사회적 전략",
		Label:      "Social",
		Title:      "사회전략 (Social)",
		Summary:    "다른 사람과의 상호작용 전략",
		Definition: "질문, 협업, 피드백을 통해 상호작용 속에서 학습 효과를 높이는 전략입니다.",
		Tips: []string{
			"스터디 파트너와 짧은 회화를 자주 시도하세요.",
			"모르는 표현은 즉시 질문하고 피드백을 받으세요.",
			"온라인 커뮤니티에서 예문을 공유하며 점검하세요.",
		},
	},
}

// the service has used both spellings for the social strategy
var strategyAliases = map[string]string{
	"사회전략": "사회적 전략",
}

// StrategyGuides returns the guide table in display order
func StrategyGuides() []StrategyGuide {
	out := make([]StrategyGuide, len(strategyGuides))
	copy(out, strategyGuides)
	return out
}

// LookupStrategyGuide finds the guide for a strategy name returned by the service
func LookupStrategyGuide(name string) (StrategyGuide, bool) {
	if alias, ok := strategyAliases[name]; ok {
		name = alias
	}
	for _, g := range strategyGuides {
		if g.Key == name {
			return g, true
		}
	}
	return StrategyGuide{}, false
}
