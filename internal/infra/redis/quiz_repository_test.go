package redis

import (
	"context"
	"testing"
	"time"

	"github.com/whalewalker/quizzer-frontend-sub000/internal/domain"
	"github.com/whalewalker/quizzer-frontend-sub000/internal/infra/memory"
)

func TestQuizRepositoryCachesInRedis(t *testing.T) {
	mr, client := newTestRedis(t)
	defer mr.Close()

	loader := &countingLoader{
		QuizLoader: memory.NewStaticQuizLoader(map[string]domain.Quiz{
			"quiz-1": sampleQuiz(),
		}),
	}
	repo := NewQuizRepository(client, loader, time.Minute)

	quiz, err := repo.GetQuiz(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if len(quiz.Questions) != 2 || quiz.TimeLimit != 120 {
		t.Fatalf("unexpected quiz %+v", quiz)
	}
	if !mr.Exists("quiz:quiz-1:content") {
		t.Fatalf("expected cached content key")
	}

	// Second call should hit cache, loader not incremented, and the
	// cached copy must round-trip the full question set.
	cached, _ := repo.GetQuiz(context.Background(), "quiz-1")
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if cached.Questions[1].Type != domain.Matching || cached.Questions[1].CorrectAnswer.Pairs["Paris"] != "France" {
		t.Fatalf("cached quiz lost data: %+v", cached.Questions[1])
	}
}

func TestQuizRepositoryMissReturnsNotFound(t *testing.T) {
	mr, client := newTestRedis(t)
	defer mr.Close()

	repo := NewQuizRepository(client, memory.NewStaticQuizLoader(nil), time.Minute)
	if _, err := repo.GetQuiz(context.Background(), "missing"); err != domain.ErrQuizNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

type countingLoader struct {
	memory.QuizLoader
	calls int
}

func (l *countingLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	l.calls++
	return l.QuizLoader.LoadQuiz(ctx, quizID)
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:        "quiz-1",
		Type:      domain.QuizTimed,
		TimeLimit: 120,
		Title:     "Sample",
		Questions: []domain.Question{
			{
				Type:          domain.SingleSelect,
				Prompt:        "What is 2 + 2?",
				Options:       []string{"3", "4"},
				CorrectAnswer: *domain.SelectedAnswer(1),
			},
			{
				Type:       domain.Matching,
				Prompt:     "Match capitals",
				LeftColumn: []string{"Paris"},
				CorrectAnswer: *domain.PairsAnswer(map[string]string{
					"Paris": "France",
				}),
			},
		},
	}
}
