package model

import (
	"time"

	"github.com/google/uuid"
)

// AttemptStatus enumerates exam attempt states as reported to clients.
// not_started is synthetic: it means no attempt row exists yet.
type AttemptStatus string

const (
	StatusNotStarted AttemptStatus = "not_started"
	StatusActive     AttemptStatus = "active"
	StatusExpired    AttemptStatus = "expired"
	StatusCompleted  AttemptStatus = "completed"
)

// ExamAttempt represents one candidate's timed attempt. A candidate has at
// most one attempt; it is immutable once completed.
type ExamAttempt struct {
	ID            uuid.UUID  `json:"id"`
	CandidateID   int        `json:"candidate_id"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
	Completed     bool       `json:"completed"`
	AutoSubmitted bool       `json:"auto_submitted"`
}

// ExamStatus is the server-authoritative snapshot returned by GET /exam/status.
// RemainingSeconds is computed from StartedAt and the configured duration at
// request time; clients must treat it as the only ground truth for their
// countdown.
type ExamStatus struct {
	Status           AttemptStatus `json:"status"`
	RemainingSeconds int           `json:"remaining_seconds"`
	StartTime        string        `json:"start_time,omitempty"`
}

// SubmittedAnswer is one problem's answer inside an exam submission.
type SubmittedAnswer struct {
	ProblemID string `json:"problem_id" binding:"required"`
	Code      string `json:"code"`
	Language  string `json:"language" binding:"omitempty,oneof=python sql"`
}

// SubmitExamRequest is the payload for POST /exam/submit, both for manual
// submission and for the auto submission fired when the countdown expires.
type SubmitExamRequest struct {
	Answers    []SubmittedAnswer `json:"answers"`
	AutoSubmit bool              `json:"auto_submit"`
}

// SaveAnswerRequest is the payload for POST /exam/save-answer (autosave).
type SaveAnswerRequest struct {
	ProblemID string `json:"problem_id" binding:"required"`
	Code      string `json:"code"`
	Language  string `json:"language" binding:"omitempty,oneof=python sql"`
}

// AttemptResult is an HR-facing view of one candidate's attempt.
type AttemptResult struct {
	CandidateID   int        `json:"candidate_id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	StartedAt     *time.Time `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at"`
	Completed     bool       `json:"completed"`
	AutoSubmitted bool       `json:"auto_submitted"`
	AnswerCount   int        `json:"answer_count"`
}
