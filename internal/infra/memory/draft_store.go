package memory

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/whalewalker/quizzer-frontend-sub000/internal/domain"
)

// DraftStore is an in-memory implementation of app.DraftStore backed
// by a plain string key-value map, one key per persisted field
// (quiz:<id>:answers, :cursor, :remaining, :savedAt). It mirrors the
// Redis adapter's layout so tests exercise the same recovery paths.
type DraftStore struct {
	mu    sync.RWMutex
	kv    map[string]string
	clock func() time.Time
}

func NewDraftStore() *DraftStore {
	return NewDraftStoreWithClock(time.Now)
}

// NewDraftStoreWithClock allows deterministic drift recovery in tests.
func NewDraftStoreWithClock(clock func() time.Time) *DraftStore {
	return &DraftStore{
		kv:    make(map[string]string),
		clock: clock,
	}
}

func (s *DraftStore) Load(_ context.Context, quizID string, questionCount, timeLimit int) (domain.AttemptDraft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	draft := domain.NewAttemptDraft(questionCount)

	if raw, ok := s.kv[answersKey(quizID)]; ok {
		var answers []*domain.AnswerValue
		if err := json.Unmarshal([]byte(raw), &answers); err == nil && len(answers) == questionCount {
			draft.Answers = answers
		}
		// Malformed or mismatched answers fall back to the fresh slots.
	}

	if raw, ok := s.kv[cursorKey(quizID)]; ok {
		if cursor, err := strconv.Atoi(raw); err == nil && cursor >= 0 && cursor < questionCount {
			draft.CurrentIndex = cursor
		}
	}

	if timeLimit > 0 {
		draft.Remaining = timeLimit
		rawRemaining, okRemaining := s.kv[remainingKey(quizID)]
		rawSavedAt, okSavedAt := s.kv[savedAtKey(quizID)]
		if okRemaining && okSavedAt {
			remaining, errR := strconv.Atoi(rawRemaining)
			savedAtMs, errS := strconv.ParseInt(rawSavedAt, 10, 64)
			if errR == nil && errS == nil {
				savedAt := time.UnixMilli(savedAtMs)
				draft.Remaining = domain.RecoverRemaining(remaining, savedAt, s.clock())
				draft.LastSavedAt = savedAt
			}
		}
	}

	return draft, nil
}

func (s *DraftStore) SaveAnswer(_ context.Context, quizID string, answers []*domain.AnswerValue) error {
	data, err := json.Marshal(answers)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kv[answersKey(quizID)] = string(data)
	return nil
}

func (s *DraftStore) SaveCursor(_ context.Context, quizID string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kv[cursorKey(quizID)] = strconv.Itoa(index)
	return nil
}

func (s *DraftStore) SaveTimerTick(_ context.Context, quizID string, remaining int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kv[remainingKey(quizID)] = strconv.Itoa(remaining)
	s.kv[savedAtKey(quizID)] = strconv.FormatInt(s.clock().UnixMilli(), 10)
	return nil
}

func (s *DraftStore) Clear(_ context.Context, quizID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.kv, answersKey(quizID))
	delete(s.kv, cursorKey(quizID))
	delete(s.kv, remainingKey(quizID))
	delete(s.kv, savedAtKey(quizID))
	return nil
}

func answersKey(quizID string) string   { return "quiz:" + quizID + ":answers" }
func cursorKey(quizID string) string    { return "quiz:" + quizID + ":cursor" }
func remainingKey(quizID string) string { return "quiz:" + quizID + ":remaining" }
func savedAtKey(quizID string) string   { return "quiz:" + quizID + ":savedAt" }
