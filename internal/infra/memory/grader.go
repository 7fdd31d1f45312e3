package memory

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/whalewalker/quizzer-frontend-sub000/internal/app"
	"github.com/whalewalker/quizzer-frontend-sub000/internal/domain"
)

// Grader grades attempts locally against the quiz's own answer key.
// Used when no grading backend is configured (demo mode) and in tests;
// production deployments point app.Grader at the HTTP client instead.
type Grader struct {
	quizzes app.QuizRepository
	seq     atomic.Int64
}

func NewGrader(quizzes app.QuizRepository) *Grader {
	return &Grader{quizzes: quizzes}
}

func (g *Grader) Grade(ctx context.Context, sub app.Submission) (domain.QuizResult, error) {
	quiz, err := g.quizzes.GetQuiz(ctx, sub.QuizID)
	if err != nil {
		return domain.QuizResult{}, err
	}
	if len(sub.Answers) != len(quiz.Questions) {
		return domain.QuizResult{}, fmt.Errorf("expected %d answers, got %d", len(quiz.Questions), len(sub.Answers))
	}

	score := 0
	correctAnswers := make([]domain.AnswerValue, len(quiz.Questions))
	for i, q := range quiz.Questions {
		correctAnswers[i] = q.CorrectAnswer
		correct := q.CorrectAnswer
		if domain.Evaluate(q.Type, sub.Answers[i], &correct) {
			score++
		}
	}

	total := len(quiz.Questions)
	percentage := 0.0
	if total > 0 {
		percentage = math.Round(float64(score)/float64(total)*10000) / 100
	}

	return domain.QuizResult{
		AttemptID:      fmt.Sprintf("local-%s-%d", quiz.ID, g.seq.Add(1)),
		Score:          score,
		TotalQuestions: total,
		Percentage:     percentage,
		CorrectAnswers: correctAnswers,
	}, nil
}
