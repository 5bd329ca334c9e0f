package taker

import (
	"context"
	"fmt"
	"sync"

	"github.com/hirewell/codeassess/internal/model"
	"github.com/rs/zerolog"
)

// SubmitAPI is the remote side of submission. Satisfied by *Client.
type SubmitAPI interface {
	SubmitExam(ctx context.Context, req *model.SubmitExamRequest) (*SubmitAck, error)
}

// SubmitAck is the server's acknowledgement of a submission.
type SubmitAck struct {
	AlreadySubmitted bool   `json:"already_submitted"`
	AnswersStored    int    `json:"answers_stored"`
	Status           string `json:"status"`
}

// Receipt is the local outcome of a Submit call.
type Receipt struct {
	// AlreadySubmitted is true when this Coordinator (or the server) had
	// accepted a submission before this call.
	AlreadySubmitted bool
	// AnswersSent is how many answers were in the payload.
	AnswersSent int
}

// Coordinator owns the final submission of the attempt. It guarantees at
// most one successful submission per instance: concurrent or repeated
// Submit calls after a success are acknowledged without another network
// call. On failure nothing is cleared, so a manual retry resends the same
// answers; an auto-submit failure is logged and the answers stay on disk
// for later inspection.
type Coordinator struct {
	// opMu serializes whole Submit calls so two racing submits (a manual
	// click landing together with countdown expiry) cannot both hit the
	// network before either records success.
	opMu      sync.Mutex
	mu        sync.Mutex
	submitted bool

	store *Store
	api   SubmitAPI
	saver *Saver
	clock *Clock
	log   zerolog.Logger
}

// NewCoordinator creates a Coordinator. saver and clock may be nil; when
// set, the saver's pending edits are flushed into the store before the
// payload is built, and the clock is disarmed once the server accepts the
// submission so a finished attempt can never tick into a phantom expiry.
func NewCoordinator(store *Store, api SubmitAPI, saver *Saver, clock *Clock, log zerolog.Logger) *Coordinator {
	return &Coordinator{
		store: store,
		api:   api,
		saver: saver,
		clock: clock,
		log:   log.With().Str("component", "submission_coordinator").Logger(),
	}
}

// Submit sends the full local answer set to the server. auto marks the
// submission as fired by countdown expiry rather than by the candidate.
func (c *Coordinator) Submit(ctx context.Context, auto bool) (*Receipt, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if c.submitted {
		c.mu.Unlock()
		c.log.Debug().Bool("auto", auto).Msg("Submission already done, skipping")
		return &Receipt{AlreadySubmitted: true}, nil
	}
	c.mu.Unlock()

	// Trailing keystrokes must make it into the payload.
	if c.saver != nil {
		c.saver.Flush()
	}

	answers := c.store.All()
	ack, err := c.api.SubmitExam(ctx, &model.SubmitExamRequest{
		Answers:    answers,
		AutoSubmit: auto,
	})
	if err != nil {
		if auto {
			// The answers stay local; nothing else to do from a timer.
			c.log.Error().Err(err).Int("answers", len(answers)).Msg("Auto-submit failed, answers retained")
		} else {
			c.log.Warn().Err(err).Int("answers", len(answers)).Msg("Submit failed, answers retained for retry")
		}
		return nil, fmt.Errorf("submit exam: %w", err)
	}

	c.mu.Lock()
	c.submitted = true
	c.mu.Unlock()

	// The attempt is over; no countdown may keep running against it.
	if c.clock != nil {
		c.clock.Stop()
	}

	// Clear only after the server said yes. A clear failure is logged but
	// does not undo the submission.
	if err := c.store.Clear(); err != nil {
		c.log.Warn().Err(err).Msg("Failed to clear local answers after submit")
	}

	c.log.Info().
		Int("answers", len(answers)).
		Bool("auto", auto).
		Bool("already_submitted", ack.AlreadySubmitted).
		Msg("Exam submitted")

	return &Receipt{
		AlreadySubmitted: ack.AlreadySubmitted,
		AnswersSent:      len(answers),
	}, nil
}

// Submitted reports whether a submission has been accepted.
func (c *Coordinator) Submitted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitted
}
