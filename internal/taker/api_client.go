package taker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hirewell/codeassess/internal/model"
	"github.com/rs/zerolog"
)

// APIError is a non-2xx response from the assessment server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

// Client talks to the assessment server's candidate API. It holds the
// session token obtained at login and sends it on every request.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     zerolog.Logger
}

// NewClient creates a Client against baseURL (e.g. http://host:8000/api/v1).
func NewClient(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		log:     log.With().Str("component", "api_client").Logger(),
	}
}

// Token returns the session token, empty before login.
func (c *Client) Token() string {
	return c.token
}

// SetToken installs a previously obtained session token (session resume).
func (c *Client) SetToken(token string) {
	c.token = token
}

// envelope mirrors the server's response wrapper.
type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// do performs one request and decodes the data payload into out (if non-nil).
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		bodyReader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		return apiErr
	}

	if out != nil && env.Data != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}
	return nil
}

// LoginResult is the identity the server binds to a new session.
type LoginResult struct {
	SessionID string `json:"session_id"`
	UserID    int    `json:"user_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
}

// Login opens a candidate session and installs its token on the client.
func (c *Client) Login(ctx context.Context, name, email string) (*LoginResult, error) {
	var result LoginResult
	err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{
		"name":  name,
		"email": email,
	}, &result)
	if err != nil {
		return nil, err
	}
	c.token = result.SessionID
	c.log.Info().Int("user_id", result.UserID).Msg("Logged in")
	return &result, nil
}

// Logout ends the session server-side.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

// StartExam begins (or resumes) the attempt.
func (c *Client) StartExam(ctx context.Context) (*model.ExamStatus, error) {
	var status model.ExamStatus
	if err := c.do(ctx, http.MethodPost, "/exam/start", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// ExamStatus fetches the authoritative attempt snapshot.
func (c *Client) ExamStatus(ctx context.Context) (*model.ExamStatus, error) {
	var status model.ExamStatus
	if err := c.do(ctx, http.MethodGet, "/exam/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// ExamSummary fetches the pre-exam paper overview.
func (c *Client) ExamSummary(ctx context.Context) (*model.ExamSummary, error) {
	var summary model.ExamSummary
	if err := c.do(ctx, http.MethodGet, "/exam/summary", nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// SaveAnswer mirrors one answer to the server-side autosave.
func (c *Client) SaveAnswer(ctx context.Context, problemID, code, language string) error {
	return c.do(ctx, http.MethodPost, "/exam/save-answer", model.SaveAnswerRequest{
		ProblemID: problemID,
		Code:      code,
		Language:  language,
	}, nil)
}

// SubmitExam sends the final answer set.
func (c *Client) SubmitExam(ctx context.Context, req *model.SubmitExamRequest) (*SubmitAck, error) {
	var ack SubmitAck
	if err := c.do(ctx, http.MethodPost, "/exam/submit", req, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// RunResult is the outcome of a practice code run. Execution happens on
// the server side; the client only relays it.
type RunResult struct {
	Output string `json:"output"`
	Error  string `json:"error,omitempty"`
	TimeMS int    `json:"time_ms"`
}

// Run executes Python code against a custom input on the server.
func (c *Client) Run(ctx context.Context, code, customInput string) (*RunResult, error) {
	var result RunResult
	err := c.do(ctx, http.MethodPost, "/run", map[string]string{
		"code":         code,
		"custom_input": customInput,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// SQLRun executes a SQL query against a problem's practice dataset.
func (c *Client) SQLRun(ctx context.Context, problemID, query string) (*RunResult, error) {
	var result RunResult
	err := c.do(ctx, http.MethodPost, "/sql/run", map[string]string{
		"problem_id": problemID,
		"query":      query,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Problem fetches one full problem.
func (c *Client) Problem(ctx context.Context, id string) (*model.Problem, error) {
	var problem model.Problem
	if err := c.do(ctx, http.MethodGet, "/problems/"+id, nil, &problem); err != nil {
		return nil, err
	}
	return &problem, nil
}

// Problems lists the problems of one language section.
func (c *Client) Problems(ctx context.Context, language model.Language) ([]model.ProblemSummary, error) {
	var data struct {
		Problems []model.ProblemSummary `json:"problems"`
	}
	if err := c.do(ctx, http.MethodGet, "/problems/"+string(language), nil, &data); err != nil {
		return nil, err
	}
	return data.Problems, nil
}
