package app_test

import (
	"testing"

	"github.com/whalewalker/quizzer-frontend-sub000/internal/app"
	"github.com/whalewalker/quizzer-frontend-sub000/internal/domain"
)

func TestBuildReviewOutcomes(t *testing.T) {
	quiz := domain.Quiz{
		ID: "quiz-1",
		Questions: []domain.Question{
			{
				Type:          domain.SingleSelect,
				Prompt:        "Pick",
				Options:       []string{"A", "B"},
				CorrectAnswer: *domain.SelectedAnswer(1),
				Explanation:   "B is right",
			},
			{
				Type:          domain.FillBlank,
				Prompt:        "Blank",
				CorrectAnswer: *domain.TextAnswer("Amazon"),
			},
			{
				Type:       domain.Matching,
				Prompt:     "Match",
				LeftColumn: []string{"Paris", "Rome"},
				CorrectAnswer: *domain.PairsAnswer(map[string]string{
					"Paris": "France",
					"Rome":  "Italy",
				}),
			},
		},
	}
	answers := []*domain.AnswerValue{
		domain.SelectedAnswer(1),
		nil,
		domain.PairsAnswer(map[string]string{"Paris": "France", "Rome": "Spain"}),
	}
	result := domain.QuizResult{
		AttemptID:      "a-1",
		Score:          1,
		TotalQuestions: 3,
		CorrectAnswers: []domain.AnswerValue{
			*domain.SelectedAnswer(1),
			*domain.TextAnswer("Amazon"),
			*domain.PairsAnswer(map[string]string{"Paris": "France", "Rome": "Italy"}),
		},
	}

	reviews := app.BuildReview(quiz, result, answers)
	if len(reviews) != 3 {
		t.Fatalf("expected 3 reviews, got %d", len(reviews))
	}

	if !reviews[0].Correct || reviews[0].Explanation != "B is right" {
		t.Fatalf("unexpected review 0: %+v", reviews[0])
	}
	if reviews[1].Correct || reviews[1].UserAnswer != nil {
		t.Fatalf("unanswered question must be incorrect: %+v", reviews[1])
	}

	// Matching: question-level verdict is all-or-nothing, pairs carry
	// the row-by-row breakdown for highlighting.
	matching := reviews[2]
	if matching.Correct {
		t.Fatalf("partial matching must be incorrect: %+v", matching)
	}
	if len(matching.Pairs) != 2 {
		t.Fatalf("expected 2 pair outcomes, got %+v", matching.Pairs)
	}
	if matching.Pairs[0].Left != "Paris" || !matching.Pairs[0].Correct {
		t.Fatalf("expected Paris pair correct, got %+v", matching.Pairs[0])
	}
	if matching.Pairs[1].Left != "Rome" || matching.Pairs[1].Correct || matching.Pairs[1].Got != "Spain" {
		t.Fatalf("expected Rome pair incorrect with got=Spain, got %+v", matching.Pairs[1])
	}
}

func TestBuildReviewFallsBackToQuizAnswerKey(t *testing.T) {
	quiz := domain.Quiz{
		Questions: []domain.Question{
			{
				Type:          domain.TrueFalse,
				Prompt:        "T or F",
				Options:       []string{"True", "False"},
				CorrectAnswer: *domain.SelectedAnswer(0),
			},
		},
	}
	// Result without correctAnswers (older backend shape).
	reviews := app.BuildReview(quiz, domain.QuizResult{TotalQuestions: 1}, []*domain.AnswerValue{domain.SelectedAnswer(0)})
	if !reviews[0].Correct {
		t.Fatalf("expected fallback to the quiz's own answer key, got %+v", reviews[0])
	}
}
