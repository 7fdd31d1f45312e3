// Package httpapi holds the JSON-over-HTTP clients for the external
// collaborators: the grading backend and the challenge system.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/whalewalker/quizzer-frontend-sub000/internal/app"
	"github.com/whalewalker/quizzer-frontend-sub000/internal/domain"
)

// APIError carries a non-2xx response from a collaborator.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if strings.TrimSpace(e.Message) == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return e.Message
}

// GradingClient implements app.Grader against the grading backend.
// POST {base}/attempts with the answers; the backend owns scoring and
// returns the authoritative QuizResult.
type GradingClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewGradingClient(baseURL string, httpClient *http.Client) *GradingClient {
	return &GradingClient{
		baseURL:    normalizeBase(baseURL),
		httpClient: orDefault(httpClient),
	}
}

func (c *GradingClient) Grade(ctx context.Context, sub app.Submission) (domain.QuizResult, error) {
	var result domain.QuizResult
	if err := doJSON(ctx, c.httpClient, c.baseURL+"/attempts", sub, &result); err != nil {
		return domain.QuizResult{}, err
	}
	return result, nil
}

// ChallengeClient implements app.ChallengeClient.
// POST {base}/challenges/complete after a successful grading.
type ChallengeClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewChallengeClient(baseURL string, httpClient *http.Client) *ChallengeClient {
	return &ChallengeClient{
		baseURL:    normalizeBase(baseURL),
		httpClient: orDefault(httpClient),
	}
}

func (c *ChallengeClient) CompleteQuiz(ctx context.Context, completion domain.ChallengeCompletion) (domain.ChallengeProgress, error) {
	var progress domain.ChallengeProgress
	if err := doJSON(ctx, c.httpClient, c.baseURL+"/challenges/complete", completion, &progress); err != nil {
		return domain.ChallengeProgress{}, err
	}
	return progress, nil
}

func doJSON(ctx context.Context, client *http.Client, url string, body, dest interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = json.Unmarshal(data, &apiErr)
		return &APIError{StatusCode: resp.StatusCode, Message: apiErr.Error}
	}

	if dest == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

func normalizeBase(baseURL string) string {
	return strings.TrimRight(strings.TrimSpace(baseURL), "/")
}

func orDefault(client *http.Client) *http.Client {
	if client == nil {
		return &http.Client{Timeout: 15 * time.Second}
	}
	return client
}
