package domain

import "time"

// QuestionType identifies the answer shape and correctness rule of a question.
type QuestionType string

const (
	TrueFalse    QuestionType = "true-false"
	SingleSelect QuestionType = "single-select"
	MultiSelect  QuestionType = "multi-select"
	Matching     QuestionType = "matching"
	FillBlank    QuestionType = "fill-blank"
)

// QuizType distinguishes plain quizzes from timed and scenario ones.
type QuizType string

const (
	QuizStandard QuizType = "standard"
	QuizTimed    QuizType = "timed"
	QuizScenario QuizType = "scenario"
)

// AnswerKind tags which variant of AnswerValue is populated.
type AnswerKind string

const (
	KindSelected  AnswerKind = "selected"
	KindSelection AnswerKind = "selection"
	KindText      AnswerKind = "text"
	KindPairs     AnswerKind = "pairs"
)

// AnswerValue is a tagged union with one variant per question type:
// an option index (true-false, single-select), a set of option indices
// (multi-select), free text (fill-blank), or a left→right mapping
// (matching). An unanswered question is represented as a nil
// *AnswerValue, never as a zero AnswerValue.
type AnswerValue struct {
	Kind      AnswerKind        `json:"kind"`
	Selected  int               `json:"selected,omitempty"`
	Selection []int             `json:"selection,omitempty"`
	Text      string            `json:"text,omitempty"`
	Pairs     map[string]string `json:"pairs,omitempty"`
}

// SelectedAnswer builds the single-index variant.
func SelectedAnswer(index int) *AnswerValue {
	return &AnswerValue{Kind: KindSelected, Selected: index}
}

// SelectionAnswer builds the multi-index variant. Order is irrelevant.
func SelectionAnswer(indices ...int) *AnswerValue {
	return &AnswerValue{Kind: KindSelection, Selection: indices}
}

// TextAnswer builds the free-text variant.
func TextAnswer(text string) *AnswerValue {
	return &AnswerValue{Kind: KindText, Text: text}
}

// PairsAnswer builds the matching variant from left→right pairs.
func PairsAnswer(pairs map[string]string) *AnswerValue {
	return &AnswerValue{Kind: KindPairs, Pairs: pairs}
}

// Question is one immutable quiz item.
type Question struct {
	Type          QuestionType `json:"type"`
	Prompt        string       `json:"prompt"`
	Options       []string     `json:"options,omitempty"`
	LeftColumn    []string     `json:"leftColumn,omitempty"`
	RightColumn   []string     `json:"rightColumn,omitempty"`
	CorrectAnswer AnswerValue  `json:"correctAnswer"`
	Explanation   string       `json:"explanation,omitempty"`
}

// Quiz is an ordered sequence of questions plus metadata. Read-only to
// this service; quizzes are produced elsewhere.
type Quiz struct {
	ID         string     `json:"id"`
	Type       QuizType   `json:"quizType"`
	TimeLimit  int        `json:"timeLimit,omitempty"` // seconds, timed quizzes only
	Title      string     `json:"title"`
	Topic      string     `json:"topic,omitempty"`
	Difficulty string     `json:"difficulty,omitempty"`
	Questions  []Question `json:"questions"`
}

// Timed reports whether the quiz runs against a countdown.
func (q Quiz) Timed() bool {
	return q.TimeLimit > 0
}

// AttemptDraft is the locally persisted, in-progress state of an
// attempt. Answers is index-aligned with the quiz's questions; a nil
// slot means unanswered. Remaining/LastSavedAt carry the countdown
// state for timed quizzes.
type AttemptDraft struct {
	Answers      []*AnswerValue
	CurrentIndex int
	Remaining    int
	LastSavedAt  time.Time
}

// NewAttemptDraft returns an empty draft with count nil answer slots.
func NewAttemptDraft(count int) AttemptDraft {
	return AttemptDraft{Answers: make([]*AnswerValue, count)}
}

// Complete reports whether every answer slot is filled.
func (d AttemptDraft) Complete() bool {
	for _, a := range d.Answers {
		if a == nil {
			return false
		}
	}
	return true
}

// RecoverRemaining applies elapsed wall-clock drift to a persisted
// remaining time: time keeps running out while the attempt is away.
// Clamped at zero.
func RecoverRemaining(remaining int, lastSavedAt, now time.Time) int {
	elapsed := int(now.Sub(lastSavedAt).Seconds())
	if elapsed < 0 {
		elapsed = 0
	}
	if remaining <= elapsed {
		return 0
	}
	return remaining - elapsed
}

// QuizResult is the graded outcome of a submitted attempt.
// CorrectAnswers is index-aligned with the quiz's questions.
type QuizResult struct {
	AttemptID      string        `json:"attemptId"`
	Score          int           `json:"score"`
	TotalQuestions int           `json:"totalQuestions"`
	Percentage     float64       `json:"percentage"`
	CorrectAnswers []AnswerValue `json:"correctAnswers"`
}

// ChallengeCompletion reports a graded attempt to the challenge system.
type ChallengeCompletion struct {
	ChallengeID    string `json:"challengeId"`
	QuizID         string `json:"quizId"`
	Score          int    `json:"score"`
	TotalQuestions int    `json:"totalQuestions"`
	AttemptID      string `json:"attemptId"`
}

// ChallengeProgress is the challenge system's response.
type ChallengeProgress struct {
	Completed        bool `json:"completed"`
	CurrentQuizIndex int  `json:"currentQuizIndex"`
	TotalQuizzes     int  `json:"totalQuizzes"`
}
