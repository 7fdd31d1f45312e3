package app

import (
	"context"
	"fmt"

	"github.com/whalewalker/quizzer-frontend-sub000/internal/domain"
)

// DraftStore persists in-progress attempts so they survive disconnects
// and restarts, scoped per quiz id. Every write is a complete overwrite
// of its field, never a partial patch.
type DraftStore interface {
	// Load reads the persisted draft. A missing, malformed, or
	// length-mismatched answers array is silently replaced with
	// questionCount nil slots, and an out-of-range cursor resets to 0.
	// For timed quizzes (timeLimit > 0) the remaining time is recovered
	// with wall-clock drift applied, or initialized to timeLimit when
	// no timer state was saved.
	Load(ctx context.Context, quizID string, questionCount, timeLimit int) (domain.AttemptDraft, error)
	// SaveAnswer persists the full answers array.
	SaveAnswer(ctx context.Context, quizID string, answers []*domain.AnswerValue) error
	// SaveCursor persists the current question index.
	SaveCursor(ctx context.Context, quizID string, index int) error
	// SaveTimerTick persists the remaining seconds and stamps the write time.
	SaveTimerTick(ctx context.Context, quizID string, remaining int) error
	// Clear removes every persisted field for the quiz.
	Clear(ctx context.Context, quizID string) error
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// Submission is what the grading collaborator receives.
type Submission struct {
	QuizID      string                `json:"quizId"`
	ChallengeID string                `json:"challengeId,omitempty"`
	Answers     []*domain.AnswerValue `json:"answers"`
}

// Grader is the external grading collaborator. It must be safe to
// retry on failure; the draft is preserved until it succeeds.
type Grader interface {
	Grade(ctx context.Context, sub Submission) (domain.QuizResult, error)
}

// ChallengeClient reports graded attempts that belong to a challenge.
// Failures here never invalidate an already-successful grading.
type ChallengeClient interface {
	CompleteQuiz(ctx context.Context, completion domain.ChallengeCompletion) (domain.ChallengeProgress, error)
}

// AttemptService opens attempt sessions. It composes the quiz source,
// the draft store, and the grading/challenge collaborators.
type AttemptService struct {
	drafts     DraftStore
	quizzes    QuizRepository
	grader     Grader
	challenges ChallengeClient
}

// NewAttemptService wires the attempt use cases. challenges may be nil
// when no challenge system is configured.
func NewAttemptService(drafts DraftStore, quizzes QuizRepository, grader Grader, challenges ChallengeClient) *AttemptService {
	return &AttemptService{
		drafts:     drafts,
		quizzes:    quizzes,
		grader:     grader,
		challenges: challenges,
	}
}

// Start opens (or resumes) the attempt session for a quiz. The
// persisted draft, if any, is recovered with drift-corrected remaining
// time; otherwise a fresh draft is initialized.
func (s *AttemptService) Start(ctx context.Context, quizID, challengeID string) (*Attempt, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}

	draft, err := s.drafts.Load(ctx, quizID, len(quiz.Questions), quiz.TimeLimit)
	if err != nil {
		return nil, fmt.Errorf("load draft: %w", err)
	}

	a := &Attempt{
		quiz:        quiz,
		challengeID: challengeID,
		draft:       draft,
		state:       StateAnswering,
		timer:       TimerIdle,
		drafts:      s.drafts,
		grader:      s.grader,
		challenges:  s.challenges,
	}
	if quiz.Timed() {
		if draft.Remaining > 0 {
			a.timer = TimerRunning
		} else {
			// The countdown ran out while the attempt was away; the
			// caller must force-submit before showing anything else.
			a.timer = TimerExpired
		}
	}
	return a, nil
}
