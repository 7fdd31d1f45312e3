package app

import (
	"sort"

	"github.com/whalewalker/quizzer-frontend-sub000/internal/domain"
)

// PairOutcome is the per-pair verdict for one matching question row.
type PairOutcome struct {
	Left     string `json:"left"`
	Expected string `json:"expected"`
	Got      string `json:"got,omitempty"`
	Correct  bool   `json:"correct"`
}

// QuestionReview is the per-question outcome shown after grading.
type QuestionReview struct {
	Index         int                 `json:"index"`
	Type          domain.QuestionType `json:"type"`
	Prompt        string              `json:"prompt"`
	UserAnswer    *domain.AnswerValue `json:"userAnswer"`
	CorrectAnswer domain.AnswerValue  `json:"correctAnswer"`
	Correct       bool                `json:"correct"`
	Explanation   string              `json:"explanation,omitempty"`
	// Pairs breaks a matching question down row by row. The question's
	// Correct flag stays all-or-nothing; this only feeds highlighting.
	Pairs []PairOutcome `json:"pairs,omitempty"`
}

// BuildReview derives the per-question outcomes from the quiz, the
// graded result, and the answers that were submitted. Pure and safe to
// recompute at any time; nothing here mutates its inputs.
func BuildReview(quiz domain.Quiz, result domain.QuizResult, answers []*domain.AnswerValue) []QuestionReview {
	reviews := make([]QuestionReview, len(quiz.Questions))
	for i, q := range quiz.Questions {
		correct := q.CorrectAnswer
		if i < len(result.CorrectAnswers) {
			correct = result.CorrectAnswers[i]
		}

		var user *domain.AnswerValue
		if i < len(answers) {
			user = answers[i]
		}

		review := QuestionReview{
			Index:         i,
			Type:          q.Type,
			Prompt:        q.Prompt,
			UserAnswer:    user,
			CorrectAnswer: correct,
			Correct:       domain.Evaluate(q.Type, user, &correct),
			Explanation:   q.Explanation,
		}
		if q.Type == domain.Matching {
			review.Pairs = pairOutcomes(user, correct)
		}
		reviews[i] = review
	}
	return reviews
}

func pairOutcomes(user *domain.AnswerValue, correct domain.AnswerValue) []PairOutcome {
	lefts := make([]string, 0, len(correct.Pairs))
	for left := range correct.Pairs {
		lefts = append(lefts, left)
	}
	sort.Strings(lefts)

	outcomes := make([]PairOutcome, 0, len(lefts))
	for _, left := range lefts {
		expected := correct.Pairs[left]
		got := ""
		if user != nil {
			got = user.Pairs[left]
		}
		outcomes = append(outcomes, PairOutcome{
			Left:     left,
			Expected: expected,
			Got:      got,
			Correct:  got == expected,
		})
	}
	return outcomes
}
