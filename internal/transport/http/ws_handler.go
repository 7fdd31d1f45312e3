package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/whalewalker/quizzer-frontend-sub000/internal/app"
	"github.com/whalewalker/quizzer-frontend-sub000/internal/domain"
)

// WSHandler drives one attempt session per connection: it streams the
// recovered draft on connect, ticks the countdown every second, and
// applies answer/navigate/submit messages to the state machine.
type WSHandler struct {
	service   *app.AttemptService
	upgrader  websocket.Upgrader
	tickEvery time.Duration
}

func NewWSHandler(service *app.AttemptService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		tickEvery: time.Second,
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	Index int                 `json:"index"`
	Value *domain.AnswerValue `json:"value"`
}

type navigatePayload struct {
	Index int `json:"index"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type timerPayload struct {
	Remaining int `json:"remaining"`
}

// questionView is a question with the answer key stripped; correct
// answers only travel to the client inside the post-submission review.
type questionView struct {
	Index       int                 `json:"index"`
	Type        domain.QuestionType `json:"type"`
	Prompt      string              `json:"prompt"`
	Options     []string            `json:"options,omitempty"`
	LeftColumn  []string            `json:"leftColumn,omitempty"`
	RightColumn []string            `json:"rightColumn,omitempty"`
}

type attemptPayload struct {
	QuizID       string                `json:"quizId"`
	Title        string                `json:"title"`
	QuizType     domain.QuizType       `json:"quizType"`
	Timed        bool                  `json:"timed"`
	Remaining    int                   `json:"remaining,omitempty"`
	State        app.State             `json:"state"`
	CurrentIndex int                   `json:"currentIndex"`
	Questions    []questionView        `json:"questions"`
	Answers      []*domain.AnswerValue `json:"answers"`
}

type submittedPayload struct {
	Forced           bool                      `json:"forced"`
	Result           domain.QuizResult         `json:"result"`
	Review           []app.QuestionReview      `json:"review"`
	Challenge        *domain.ChallengeProgress `json:"challenge,omitempty"`
	ChallengeWarning string                    `json:"challengeWarning,omitempty"`
}

// ServeWS upgrades the request and runs the attempt session until the
// client disconnects or the attempt is submitted.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	challengeID := r.URL.Query().Get("challengeId")
	if quizID == "" {
		http.Error(w, "missing quizId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	attempt, err := h.service.Start(r.Context(), quizID, challengeID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	// Leaving mid-attempt stops the countdown but keeps the persisted
	// draft, so the attempt can resume with drift-corrected time.
	defer attempt.Stop()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "attempt", Payload: snapshotPayload(attempt)}

	guardedSend := func(msg outboundMessage[any]) bool {
		select {
		case send <- msg:
			return true
		case <-closeSignals:
			return false
		}
	}

	var tickerDone chan struct{}
	switch attempt.TimerState() {
	case app.TimerRunning:
		tickerDone = make(chan struct{})
		go h.runTicker(r.Context(), attempt, guardedSend, closeSignals, tickerDone)
	case app.TimerExpired:
		// The countdown ran out while the attempt was away.
		h.submit(r.Context(), attempt, true, guardedSend)
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				guardedSend(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}})
				continue
			}
			if err := attempt.Answer(r.Context(), payload.Index, payload.Value); err != nil {
				guardedSend(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
			}
		case "navigate":
			var payload navigatePayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				guardedSend(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid navigate payload"}})
				continue
			}
			if err := attempt.Navigate(r.Context(), payload.Index); err != nil {
				guardedSend(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
			}
		case "submit":
			h.submit(r.Context(), attempt, false, guardedSend)
		default:
			guardedSend(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}})
		}
	}

	close(closeSignals)
	if tickerDone != nil {
		<-tickerDone
	}
	close(send)
	<-writerDone
}

// runTicker advances the countdown once per interval. The loop tears
// itself down as soon as expiry fires, so a forced submission can
// never race with further ticks.
func (h *WSHandler) runTicker(ctx context.Context, attempt *app.Attempt, sendMsg func(outboundMessage[any]) bool, closeSignals <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(h.tickEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			remaining, expired, err := attempt.Tick(ctx)
			if err != nil {
				log.Printf("persist timer tick: %v", err)
			}
			if !sendMsg(outboundMessage[any]{Type: "timer", Payload: timerPayload{Remaining: remaining}}) {
				return
			}
			if expired {
				h.submit(ctx, attempt, true, sendMsg)
				return
			}
			if attempt.TimerState() != app.TimerRunning {
				return
			}
		case <-closeSignals:
			return
		}
	}
}

func (h *WSHandler) submit(ctx context.Context, attempt *app.Attempt, forced bool, sendMsg func(outboundMessage[any]) bool) {
	outcome, err := attempt.Submit(ctx, forced)
	switch {
	case errors.Is(err, domain.ErrIncompleteAttempt):
		sendMsg(outboundMessage[any]{Type: "validationError", Payload: errorPayload{Message: err.Error()}})
	case errors.Is(err, domain.ErrSubmissionInFlight), errors.Is(err, domain.ErrAttemptSubmitted):
		// Double submit; the first one already answers.
	case err != nil:
		log.Printf("submit attempt %s: %v", attempt.Quiz().ID, err)
		sendMsg(outboundMessage[any]{Type: "submitFailed", Payload: errorPayload{Message: "submission failed, answers preserved; try again"}})
	default:
		payload := submittedPayload{
			Forced:    forced,
			Result:    outcome.Result,
			Review:    outcome.Review,
			Challenge: outcome.Challenge,
		}
		if outcome.ChallengeErr != nil {
			log.Printf("challenge completion for quiz %s: %v", attempt.Quiz().ID, outcome.ChallengeErr)
			payload.ChallengeWarning = "challenge progress could not be updated"
		}
		sendMsg(outboundMessage[any]{Type: "submitted", Payload: payload})
	}
}

func snapshotPayload(attempt *app.Attempt) attemptPayload {
	quiz := attempt.Quiz()
	snap := attempt.Snapshot()

	questions := make([]questionView, len(quiz.Questions))
	for i, q := range quiz.Questions {
		questions[i] = questionView{
			Index:       i,
			Type:        q.Type,
			Prompt:      q.Prompt,
			Options:     q.Options,
			LeftColumn:  q.LeftColumn,
			RightColumn: q.RightColumn,
		}
	}

	return attemptPayload{
		QuizID:       quiz.ID,
		Title:        quiz.Title,
		QuizType:     quiz.Type,
		Timed:        quiz.Timed(),
		Remaining:    snap.Remaining,
		State:        snap.State,
		CurrentIndex: snap.CurrentIndex,
		Questions:    questions,
		Answers:      snap.Answers,
	}
}
