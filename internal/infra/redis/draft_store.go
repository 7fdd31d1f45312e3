package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/whalewalker/quizzer-frontend-sub000/internal/domain"
)

// DraftStore is the Redis-backed implementation of app.DraftStore.
// Each persisted field lives under its own key (quiz:<id>:answers,
// :cursor, :remaining, :savedAt) and every write replaces the field
// wholesale, so concurrent writers can interleave without producing a
// torn draft — last writer wins per field. A TTL keeps abandoned
// drafts from accumulating; 0 disables expiry.
type DraftStore struct {
	client *redis.Client
	ttl    time.Duration
	clock  func() time.Time
}

func NewDraftStore(client *redis.Client, ttl time.Duration) *DraftStore {
	return NewDraftStoreWithClock(client, ttl, time.Now)
}

// NewDraftStoreWithClock allows deterministic drift recovery in tests.
func NewDraftStoreWithClock(client *redis.Client, ttl time.Duration, clock func() time.Time) *DraftStore {
	return &DraftStore{client: client, ttl: ttl, clock: clock}
}

func (s *DraftStore) Load(ctx context.Context, quizID string, questionCount, timeLimit int) (domain.AttemptDraft, error) {
	draft := domain.NewAttemptDraft(questionCount)

	values, err := s.client.MGet(ctx,
		s.answersKey(quizID),
		s.cursorKey(quizID),
		s.remainingKey(quizID),
		s.savedAtKey(quizID),
	).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return domain.AttemptDraft{}, err
	}

	if raw, ok := asString(values[0]); ok {
		var answers []*domain.AnswerValue
		if err := json.Unmarshal([]byte(raw), &answers); err == nil && len(answers) == questionCount {
			draft.Answers = answers
		}
		// Unparseable or mismatched answers are treated as absent.
	}

	if raw, ok := asString(values[1]); ok {
		if cursor, err := strconv.Atoi(raw); err == nil && cursor >= 0 && cursor < questionCount {
			draft.CurrentIndex = cursor
		}
	}

	if timeLimit > 0 {
		draft.Remaining = timeLimit
		rawRemaining, okRemaining := asString(values[2])
		rawSavedAt, okSavedAt := asString(values[3])
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

func (s *DraftStore) SaveAnswer(ctx context.Context, quizID string, answers []*domain.AnswerValue) error {
	data, err := json.Marshal(answers)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.answersKey(quizID), data, s.ttl).Err()
}

func (s *DraftStore) SaveCursor(ctx context.Context, quizID string, index int) error {
	return s.client.Set(ctx, s.cursorKey(quizID), strconv.Itoa(index), s.ttl).Err()
}

func (s *DraftStore) SaveTimerTick(ctx context.Context, quizID string, remaining int) error {
	now := s.clock().UnixMilli()
	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.remainingKey(quizID), strconv.Itoa(remaining), s.ttl)
	pipe.Set(ctx, s.savedAtKey(quizID), strconv.FormatInt(now, 10), s.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *DraftStore) Clear(ctx context.Context, quizID string) error {
	return s.client.Del(ctx,
		s.answersKey(quizID),
		s.cursorKey(quizID),
		s.remainingKey(quizID),
		s.savedAtKey(quizID),
	).Err()
}

func (s *DraftStore) answersKey(quizID string) string   { return "quiz:" + quizID + ":answers" }
func (s *DraftStore) cursorKey(quizID string) string    { return "quiz:" + quizID + ":cursor" }
func (s *DraftStore) remainingKey(quizID string) string { return "quiz:" + quizID + ":remaining" }
func (s *DraftStore) savedAtKey(quizID string) string   { return "quiz:" + quizID + ":savedAt" }

func asString(v interface{}) (string, bool) {
	if v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
