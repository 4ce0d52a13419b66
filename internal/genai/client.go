package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"classwork_service/internal/domain"
)

// Client talks to the content generation service, the external model that
// produces quiz questions for a topic, count and grade level. Its output is
// treated as untrusted: malformed entries are filtered out before they can
// reach assignment creation.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type generateRequest struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
	Grade string `json:"grade"`
}

type Question struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
}

type generateResponse struct {
	Questions []Question `json:"questions"`
}

// Generate requests count questions and returns the ones that pass
// validation, plus how many were dropped.
func (c *Client) Generate(ctx context.Context, topic string, count int, grade string) ([]domain.MCQQuestion, int, error) {
	body, err := json.Marshal(generateRequest{Topic: topic, Count: count, Grade: grade})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to marshal generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/generate", bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("content service request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("content service returned status %d", resp.StatusCode)
	}

	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, 0, fmt.Errorf("failed to decode content service response: %w", err)
	}

	questions, dropped := FilterQuestions(decoded.Questions)
	return questions, dropped, nil
}

// FilterQuestions drops entries that would violate the MCQ invariants: empty
// question text, no options, missing correct answer, or a correct answer that
// is not one of the options.
func FilterQuestions(raw []Question) ([]domain.MCQQuestion, int) {
	var questions []domain.MCQQuestion
	dropped := 0

	for _, q := range raw {
		if !valid(q) {
			dropped++
			continue
		}
		questions = append(questions, domain.MCQQuestion{
			Question:      q.Question,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
		})
	}

	return questions, dropped
}

func valid(q Question) bool {
	if strings.TrimSpace(q.Question) == "" {
		return false
	}
	if len(q.Options) == 0 {
		return false
	}
	if strings.TrimSpace(q.CorrectAnswer) == "" {
		return false
	}
	for _, opt := range q.Options {
		if opt == q.CorrectAnswer {
			return true
		}
	}
	return false
}
