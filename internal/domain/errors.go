package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrIncompleteAttempt rejects a user-initiated submission while answer slots are still empty.
	ErrIncompleteAttempt = errors.New("attempt has unanswered questions")
	// ErrAttemptSubmitted is returned when mutating an attempt that already left the answering state.
	ErrAttemptSubmitted = errors.New("attempt already submitted")
	// ErrSubmissionInFlight ignores re-entrant submits while one is outstanding.
	ErrSubmissionInFlight = errors.New("submission already in progress")
	// ErrQuestionIndex is returned for navigation or answers outside [0, question count).
	ErrQuestionIndex = errors.New("question index out of range")
	// ErrAnswerShape is returned when an answer's variant does not match the question type.
	ErrAnswerShape = errors.New("answer shape does not match question type")
)
