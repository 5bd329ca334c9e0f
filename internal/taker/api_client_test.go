package taker

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hirewell/codeassess/internal/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientLoginInstallsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/login", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Ada", req["name"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"session_id": "tok-123",
				"user_id":    7,
				"name":       "Ada",
				"email":      "ada@example.com",
			},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, zerolog.Nop())
	result, err := client.Login(context.Background(), "Ada", "ada@example.com")
	require.NoError(t, err)

	assert.Equal(t, "tok-123", result.SessionID)
	assert.Equal(t, 7, result.UserID)
	assert.Equal(t, "tok-123", client.Token())
}

func TestClientSendsBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": model.ExamStatus{Status: model.StatusActive, RemainingSeconds: 120},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, zerolog.Nop())
	client.SetToken("tok-123")

	status, err := client.ExamStatus(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Equal(t, model.StatusActive, status.Status)
	assert.Equal(t, 120, status.RemainingSeconds)
}

func TestClientDecodesErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{
				"code":    "EXAM_EXPIRED",
				"message": "Exam time has expired",
			},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, zerolog.Nop())
	err := client.SaveAnswer(context.Background(), "py-1", "code", "python")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "EXAM_EXPIRED", apiErr.Code)
	assert.Equal(t, "Exam time has expired", apiErr.Message)
}

func TestClientSubmitExam(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req model.SubmitExamRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.AutoSubmit)
		require.Len(t, req.Answers, 1)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": SubmitAck{AnswersStored: 1, Status: "completed"},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, zerolog.Nop())
	ack, err := client.SubmitExam(context.Background(), &model.SubmitExamRequest{
		Answers:    []model.SubmittedAnswer{{ProblemID: "py-1", Code: "x", Language: "python"}},
		AutoSubmit: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, ack.AnswersStored)
	assert.Equal(t, "completed", ack.Status)
}

func TestClientRun(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/run", r.URL.Path)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "print(42)", req["code"])
		assert.Equal(t, "1 2 3\n", req["custom_input"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": RunResult{Output: "42\n", TimeMS: 12},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, zerolog.Nop())
	result, err := client.Run(context.Background(), "print(42)", "1 2 3\n")
	require.NoError(t, err)
	assert.Equal(t, "42\n", result.Output)
	assert.Empty(t, result.Error)
	assert.Equal(t, 12, result.TimeMS)
}

func TestClientSQLRun(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/sql/run", r.URL.Path)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "sql-1", req["problem_id"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": RunResult{Error: "syntax error at or near \"SELEC\"", TimeMS: 3},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, zerolog.Nop())
	result, err := client.SQLRun(context.Background(), "sql-1", "SELEC 1")
	require.NoError(t, err)
	assert.Contains(t, result.Error, "syntax error")
}

func TestClientNetworkErrorIsNotAPIError(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", zerolog.Nop())

	_, err := client.ExamStatus(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}
