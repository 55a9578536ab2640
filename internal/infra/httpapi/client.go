package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"quiztaker/internal/domain"
)

// SubmitRequest is the body of POST /quiz/{id}/submit.
type SubmitRequest struct {
	Answers []domain.AnswerSubmission `json:"answers"`
}

// Client talks to the quiz service over HTTP and maps failures onto the
// domain error taxonomy.
type Client struct {
	baseURL string
	client  *http.Client
}

// New constructs a client for the given base URL with a request timeout.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// FetchQuiz loads GET /quiz/{id}.
func (c *Client) FetchQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	body, status, err := c.do(ctx, http.MethodGet, "/quiz/"+url.PathEscape(quizID), nil)
	if err != nil {
		return domain.Quiz{}, err
	}
	if err := statusError(status, body); err != nil {
		return domain.Quiz{}, err
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(body, &quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("%w: decode quiz: %v", domain.ErrValidation, err)
	}
	if err := domain.ValidateQuiz(quiz); err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

// SubmitQuiz posts the answers to POST /quiz/{id}/submit.
func (c *Client) SubmitQuiz(ctx context.Context, quizID string, answers []domain.AnswerSubmission) (domain.SubmitResponse, error) {
	if answers == nil {
		answers = []domain.AnswerSubmission{}
	}
	payload, err := json.Marshal(SubmitRequest{Answers: answers})
	if err != nil {
		return domain.SubmitResponse{}, fmt.Errorf("%w: encode answers: %v", domain.ErrValidation, err)
	}
	body, status, err := c.do(ctx, http.MethodPost, "/quiz/"+url.PathEscape(quizID)+"/submit", payload)
	if err != nil {
		return domain.SubmitResponse{}, err
	}
	if err := statusError(status, body); err != nil {
		return domain.SubmitResponse{}, err
	}
	var res domain.SubmitResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return domain.SubmitResponse{}, fmt.Errorf("%w: decode grading: %v", domain.ErrValidation, err)
	}
	return res, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, int, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", domain.ErrNetwork, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", domain.ErrNetwork, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: read body: %v", domain.ErrNetwork, err)
	}
	return body, resp.StatusCode, nil
}

type errorBody struct {
	Error string `json:"error"`
}

func statusError(status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}
	msg := strings.TrimSpace(string(body))
	var eb errorBody
	if json.Unmarshal(body, &eb) == nil && eb.Error != "" {
		msg = eb.Error
	}
	switch status {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrQuizNotFound, msg)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", domain.ErrValidation, msg)
	default:
		return fmt.Errorf("%w: status %d: %s", domain.ErrNetwork, status, msg)
	}
}
