package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/NARAsimha654/MockView-Bot/internal/domain"
	"github.com/NARAsimha654/MockView-Bot/internal/logger"
)

// Client talks to the remote interview service. The server keeps the
// interview state in a cookie-scoped session, so all calls share one
// cookie jar; the client never inspects the credential itself.
type Client struct {
	baseURL string
	http    *http.Client
	log     *logger.Logger
}

// New builds a Client for the service at baseURL.
func New(baseURL string, timeout time.Duration, log *logger.Logger) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Jar: jar, Timeout: timeout},
		log:     log,
	}, nil
}

// Topics lists the service-provided topic identifiers.
func (c *Client) Topics(ctx context.Context) ([]string, error) {
	var topics []string
	if err := c.getJSON(ctx, "/topics", &topics); err != nil {
		return nil, err
	}
	return topics, nil
}

// StartSession bootstraps a topic-based interview. The previously
// answered ids are sent so the server can avoid repeats.
func (c *Client) StartSession(ctx context.Context, topic string, answeredIDs []string, persona domain.Persona) error {
	if answeredIDs == nil {
		answeredIDs = []string{}
	}
	payload := struct {
		Topic       string         `json:"topic"`
		AnsweredIDs []string       `json:"globally_answered_ids"`
		Persona     domain.Persona `json:"persona"`
	}{topic, answeredIDs, persona}

	var resp struct {
		Message string `json:"message"`
	}
	return c.postJSON(ctx, "/start", payload, &resp)
}

// StartCustomSession bootstraps a job-description-derived interview.
// Service error messages are returned verbatim for the UI to surface.
func (c *Client) StartCustomSession(ctx context.Context, jobDescription string, persona domain.Persona) error {
	payload := struct {
		JDText  string         `json:"jd_text"`
		Persona domain.Persona `json:"persona"`
	}{jobDescription, persona}

	var resp struct {
		Message string `json:"message"`
	}
	return c.postJSON(ctx, "/start-custom-interview", payload, &resp)
}

// NextQuestion asks the server-side session for the next question.
func (c *Client) NextQuestion(ctx context.Context) (domain.AskResult, error) {
	var resp struct {
		Status   string `json:"status"`
		Message  string `json:"message"`
		ID       string `json:"id"`
		Question string `json:"question"`
	}
	if err := c.getJSON(ctx, "/ask", &resp); err != nil {
		return domain.AskResult{}, err
	}

	if resp.Status == "complete" {
		return domain.AskResult{Complete: true, Message: resp.Message}, nil
	}
	if resp.Status != "question" || resp.Question == "" {
		return domain.AskResult{}, fmt.Errorf("unexpected ask response status %q", resp.Status)
	}
	return domain.AskResult{
		Question: domain.Question{ID: resp.ID, Text: resp.Question},
	}, nil
}

// SubmitAnswer sends the user's answer for evaluation.
func (c *Client) SubmitAnswer(ctx context.Context, answer string) (domain.Evaluation, error) {
	payload := struct {
		Answer string `json:"answer"`
	}{answer}

	var resp struct {
		Score       int    `json:"score"`
		Feedback    string `json:"feedback"`
		ModelAnswer string `json:"model_answer"`
	}
	if err := c.postJSON(ctx, "/answer", payload, &resp); err != nil {
		return domain.Evaluation{}, err
	}
	return domain.Evaluation{
		Score:       resp.Score,
		Feedback:    resp.Feedback,
		ModelAnswer: resp.ModelAnswer,
	}, nil
}

// Hint fetches a one-sentence hint for the current question.
func (c *Client) Hint(ctx context.Context, questionText string) (string, error) {
	payload := struct {
		Question string `json:"question"`
	}{questionText}

	var resp struct {
		Hint string `json:"hint"`
	}
	if err := c.postJSON(ctx, "/hint", payload, &resp); err != nil {
		return "", err
	}
	return resp.Hint, nil
}

// Explanation fetches a deeper explanation of the answered concept.
func (c *Client) Explanation(ctx context.Context, questionText, modelAnswer string) (string, error) {
	payload := struct {
		Question string `json:"question"`
		Answer   string `json:"answer"`
	}{questionText, modelAnswer}

	var resp struct {
		Explanation string `json:"explanation"`
	}
	if err := c.postJSON(ctx, "/explain", payload, &resp); err != nil {
		return "", err
	}
	return resp.Explanation, nil
}

// GenerateReport asks the service to render the session transcript as a
// PDF document and returns the raw payload.
func (c *Client) GenerateReport(ctx context.Context, transcript []domain.TranscriptEntry, summary domain.Summary) ([]byte, error) {
	if transcript == nil {
		transcript = []domain.TranscriptEntry{}
	}
	payload := struct {
		History []domain.TranscriptEntry `json:"history"`
		Summary struct {
			Count        int `json:"count"`
			AverageScore int `json:"average_score"`
		} `json:"summary"`
	}{History: transcript}
	payload.Summary.Count = summary.Answered
	payload.Summary.AverageScore = summary.AverageScore

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode report request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate-report", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create report request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("report generation failed: %s", readServiceError(resp.Body, resp.StatusCode))
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request for %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	return c.decode(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request for %s: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request for %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return c.decode(req, out)
}

func (c *Client) decode(req *http.Request, out any) error {
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s", readServiceError(resp.Body, resp.StatusCode))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response from %s: %w", req.URL.Path, err)
	}
	return nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	requestID := uuid.NewString()
	start := time.Now()

	resp, err := c.http.Do(req)
	fields := logrus.Fields{
		"request_id": requestID,
		"method":     req.Method,
		"path":       req.URL.Path,
		"elapsed":    time.Since(start).String(),
	}
	if err != nil {
		c.log.Error("interview service request failed", fields, logrus.Fields{"error": err.Error()})
		return nil, fmt.Errorf("call %s: %w", req.URL.Path, err)
	}

	fields["status"] = resp.StatusCode
	c.log.Debug("interview service request", fields)
	return resp, nil
}

// readServiceError extracts the server's error message so it can be
// surfaced verbatim; it falls back to the HTTP status.
func readServiceError(body io.Reader, status int) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err == nil {
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &payload) == nil && strings.TrimSpace(payload.Error) != "" {
			return payload.Error
		}
	}
	return fmt.Sprintf("service responded with status %d", status)
}
