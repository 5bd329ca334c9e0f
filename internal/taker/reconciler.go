package taker

import (
	"context"

	"github.com/hirewell/codeassess/internal/model"
	"github.com/rs/zerolog"
)

// StatusAPI is the remote status check. Satisfied by *Client.
type StatusAPI interface {
	ExamStatus(ctx context.Context) (*model.ExamStatus, error)
}

// Route tells the caller which screen the candidate belongs on after a
// reconcile.
type Route string

const (
	RouteDashboard  Route = "dashboard"
	RouteExam       Route = "exam"
	RouteCompletion Route = "completion"
)

// Decision is the outcome of one reconcile pass.
type Decision struct {
	Route  Route
	Status model.AttemptStatus
	// Remaining is the server's countdown snapshot. Only meaningful when
	// TimerArmed is true.
	Remaining int
	// TimerArmed is true when the clock was (re)armed from a server
	// snapshot. False on a network failure: the candidate keeps working
	// but no local countdown runs, so a stale local value can never force
	// a premature auto-submit.
	TimerArmed bool
	// AutoSubmitted is true when this reconcile found the window already
	// over and fired the auto-submit.
	AutoSubmitted bool
}

// Reconciler rebases the client on the server's view of the attempt. It
// runs on every exam page entry: the server snapshot always replaces
// whatever the local clock drifted to, and a window that ended while the
// client was away is settled immediately by auto-submitting the local
// answers.
type Reconciler struct {
	api         StatusAPI
	clock       *Clock
	store       *Store
	coordinator *Coordinator
	log         zerolog.Logger
}

// NewReconciler creates a Reconciler.
func NewReconciler(api StatusAPI, clock *Clock, store *Store, coordinator *Coordinator, log zerolog.Logger) *Reconciler {
	return &Reconciler{
		api:         api,
		clock:       clock,
		store:       store,
		coordinator: coordinator,
		log:         log.With().Str("component", "reconciler").Logger(),
	}
}

// Reconcile fetches the authoritative status and applies the decision
// table:
//
//	not_started  → dashboard, no timer
//	active       → exam page, clock re-armed from the server snapshot
//	expired      → auto-submit local answers, completion page
//	completed    → completion page
//	fetch error  → exam page, fail open with no timer
func (r *Reconciler) Reconcile(ctx context.Context) Decision {
	status, err := r.api.ExamStatus(ctx)
	if err != nil {
		// Fail open: a flaky network must not lock the candidate out or,
		// worse, trust a stale local countdown into auto-submitting.
		r.log.Warn().Err(err).Msg("Status fetch failed, continuing without timer")
		r.clock.Stop()
		return Decision{Route: RouteExam, Status: model.StatusActive}
	}

	switch status.Status {
	case model.StatusNotStarted:
		return Decision{Route: RouteDashboard, Status: status.Status}

	case model.StatusActive:
		if err := r.store.SaveTimer(status.RemainingSeconds); err != nil {
			r.log.Warn().Err(err).Msg("Failed to record timer snapshot")
		}
		r.clock.Arm(status.RemainingSeconds)
		return Decision{
			Route:      RouteExam,
			Status:     status.Status,
			Remaining:  status.RemainingSeconds,
			TimerArmed: true,
		}

	case model.StatusExpired:
		r.log.Info().Msg("Window ended while away, auto-submitting")
		if _, err := r.coordinator.Submit(ctx, true); err != nil {
			// Log only: the answers are retained and the candidate still
			// lands on the completion screen.
			r.log.Error().Err(err).Msg("Auto-submit on reconcile failed")
		}
		return Decision{Route: RouteCompletion, Status: status.Status, AutoSubmitted: true}

	case model.StatusCompleted:
		return Decision{Route: RouteCompletion, Status: status.Status}

	default:
		// A status this client doesn't know is a stale session, not a
		// finished one. Treat it like a failed fetch: keep the candidate
		// on the exam page with no local countdown.
		r.log.Warn().Str("status", string(status.Status)).Msg("Unrecognized status, continuing without timer")
		r.clock.Stop()
		return Decision{Route: RouteExam, Status: model.StatusActive}
	}
}
