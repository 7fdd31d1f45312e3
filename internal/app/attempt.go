package app

import (
	"context"
	"sync"

	"github.com/whalewalker/quizzer-frontend-sub000/internal/domain"
)

// State is the attempt lifecycle phase.
type State string

const (
	StateAnswering  State = "answering"
	StateSubmitting State = "submitting"
	StateReviewing  State = "reviewing"
)

// TimerState is the countdown phase for timed quizzes.
type TimerState string

const (
	TimerIdle    TimerState = "idle"
	TimerRunning TimerState = "running"
	TimerExpired TimerState = "expired"
	TimerStopped TimerState = "stopped"
)

// Attempt is one in-progress pass through a quiz. It owns the timer
// state and writes every mutation through to the draft store, so a
// dropped connection can resume where it left off. All methods are
// safe for concurrent use; the tick loop and the message handler
// serialize on the same mutex.
type Attempt struct {
	quiz        domain.Quiz
	challengeID string

	drafts     DraftStore
	grader     Grader
	challenges ChallengeClient

	mu     sync.Mutex
	draft  domain.AttemptDraft
	state  State
	timer  TimerState
	result *domain.QuizResult
	review []QuestionReview
}

// Snapshot is a read-only view of the attempt for transports.
type Snapshot struct {
	QuizID       string
	State        State
	Timer        TimerState
	Answers      []*domain.AnswerValue
	CurrentIndex int
	Remaining    int
}

// SubmitOutcome carries everything produced by a successful submission.
// ChallengeErr is non-fatal: the grading already succeeded and the
// result stands even when the challenge report could not be delivered.
type SubmitOutcome struct {
	Result       domain.QuizResult
	Review       []QuestionReview
	Challenge    *domain.ChallengeProgress
	ChallengeErr error
}

// Quiz returns the quiz being attempted.
func (a *Attempt) Quiz() domain.Quiz {
	return a.quiz
}

// Snapshot captures the current attempt state.
func (a *Attempt) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	answers := make([]*domain.AnswerValue, len(a.draft.Answers))
	copy(answers, a.draft.Answers)
	return Snapshot{
		QuizID:       a.quiz.ID,
		State:        a.state,
		Timer:        a.timer,
		Answers:      answers,
		CurrentIndex: a.draft.CurrentIndex,
		Remaining:    a.draft.Remaining,
	}
}

// Answer overwrites the answer slot at index and persists the full
// answers array immediately. Re-answering a question keeps no history.
// A nil value clears the slot.
func (a *Attempt) Answer(ctx context.Context, index int, value *domain.AnswerValue) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != StateAnswering {
		return domain.ErrAttemptSubmitted
	}
	if index < 0 || index >= len(a.draft.Answers) {
		return domain.ErrQuestionIndex
	}
	if !domain.MatchesShape(a.quiz.Questions[index].Type, value) {
		return domain.ErrAnswerShape
	}

	a.draft.Answers[index] = value
	return a.drafts.SaveAnswer(ctx, a.quiz.ID, a.draft.Answers)
}

// Navigate moves the cursor to index and persists it. Skipping past an
// unanswered question leaves its slot nil; nothing marks it specially.
func (a *Attempt) Navigate(ctx context.Context, index int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != StateAnswering {
		return domain.ErrAttemptSubmitted
	}
	if index < 0 || index >= len(a.quiz.Questions) {
		return domain.ErrQuestionIndex
	}

	a.draft.CurrentIndex = index
	return a.drafts.SaveCursor(ctx, a.quiz.ID, index)
}

// Tick advances the countdown by one second and persists the timer
// state. It is a no-op unless the timer is running, so a tick arriving
// after expiry or stop cannot re-fire the expiry transition. The
// caller owns the ticking loop and must tear it down once expired is
// reported, then trigger the forced submission.
func (a *Attempt) Tick(ctx context.Context) (remaining int, expired bool, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.timer != TimerRunning {
		return a.draft.Remaining, false, nil
	}

	a.draft.Remaining--
	if a.draft.Remaining <= 0 {
		a.draft.Remaining = 0
		a.timer = TimerExpired
		expired = true
	}
	err = a.drafts.SaveTimerTick(ctx, a.quiz.ID, a.draft.Remaining)
	return a.draft.Remaining, expired, err
}

// Stop halts the countdown without clearing the persisted draft, so a
// later Start resumes with drift-corrected time. Called when the
// client goes away mid-attempt; after submission it does nothing.
func (a *Attempt) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.timer == TimerRunning {
		a.timer = TimerStopped
	}
}

// State returns the lifecycle phase.
func (a *Attempt) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// TimerState returns the countdown phase.
func (a *Attempt) TimerState() TimerState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.timer
}

// Outcome returns the graded result and review once the attempt is in
// the reviewing state.
func (a *Attempt) Outcome() (domain.QuizResult, []QuestionReview, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.result == nil {
		return domain.QuizResult{}, nil, false
	}
	return *a.result, a.review, true
}

// Submit sends the answers to the grading collaborator. A
// user-initiated submit (force=false) is rejected with
// ErrIncompleteAttempt while any slot is nil; a timeout-forced submit
// bypasses the check and sends the nils as they are. On grading
// failure the attempt stays answering with the draft untouched, so the
// user can retry. On success the draft is cleared, the timer stops,
// and the attempt transitions to reviewing. Re-entrant calls while a
// submission is in flight return ErrSubmissionInFlight.
func (a *Attempt) Submit(ctx context.Context, force bool) (SubmitOutcome, error) {
	a.mu.Lock()
	switch a.state {
	case StateSubmitting:
		a.mu.Unlock()
		return SubmitOutcome{}, domain.ErrSubmissionInFlight
	case StateReviewing:
		a.mu.Unlock()
		return SubmitOutcome{}, domain.ErrAttemptSubmitted
	}
	if !force && !a.draft.Complete() {
		a.mu.Unlock()
		return SubmitOutcome{}, domain.ErrIncompleteAttempt
	}

	a.state = StateSubmitting
	answers := make([]*domain.AnswerValue, len(a.draft.Answers))
	copy(answers, a.draft.Answers)
	a.mu.Unlock()

	result, err := a.grader.Grade(ctx, Submission{
		QuizID:      a.quiz.ID,
		ChallengeID: a.challengeID,
		Answers:     answers,
	})
	if err != nil {
		a.mu.Lock()
		a.state = StateAnswering
		a.mu.Unlock()
		return SubmitOutcome{}, err
	}

	// Grading succeeded; the persisted draft is done for. Clearing is
	// best-effort since the result already stands.
	_ = a.drafts.Clear(ctx, a.quiz.ID)

	outcome := SubmitOutcome{
		Result: result,
		Review: BuildReview(a.quiz, result, answers),
	}
	if a.challengeID != "" && a.challenges != nil {
		progress, challengeErr := a.challenges.CompleteQuiz(ctx, domain.ChallengeCompletion{
			ChallengeID:    a.challengeID,
			QuizID:         a.quiz.ID,
			Score:          result.Score,
			TotalQuestions: result.TotalQuestions,
			AttemptID:      result.AttemptID,
		})
		if challengeErr != nil {
			outcome.ChallengeErr = challengeErr
		} else {
			outcome.Challenge = &progress
		}
	}

	a.mu.Lock()
	a.state = StateReviewing
	a.timer = TimerStopped
	a.result = &outcome.Result
	a.review = outcome.Review
	a.mu.Unlock()

	return outcome, nil
}
