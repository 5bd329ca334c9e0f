package taker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hirewell/codeassess/internal/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStatusAPI serves a queue of status responses.
type fakeStatusAPI struct {
	mu        sync.Mutex
	responses []*model.ExamStatus
	errs      []error
}

func (f *fakeStatusAPI) push(status *model.ExamStatus, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, status)
	f.errs = append(f.errs, err)
}

func (f *fakeStatusAPI) ExamStatus(context.Context) (*model.ExamStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.responses) == 0 {
		return nil, errors.New("no queued response")
	}
	status, err := f.responses[0], f.errs[0]
	f.responses = f.responses[1:]
	f.errs = f.errs[1:]
	return status, err
}

type reconcilerFixture struct {
	api         *fakeStatusAPI
	submitAPI   *fakeSubmitAPI
	clock       *Clock
	store       *Store
	coordinator *Coordinator
	reconciler  *Reconciler
}

func newReconcilerFixture(t *testing.T) *reconcilerFixture {
	t.Helper()
	store, err := OpenStore(t.TempDir(), "session-abc")
	require.NoError(t, err)

	api := &fakeStatusAPI{}
	submitAPI := &fakeSubmitAPI{}
	clock := NewClock(zerolog.Nop(), WithInterval(testTick))
	coordinator := NewCoordinator(store, submitAPI, nil, clock, zerolog.Nop())

	return &reconcilerFixture{
		api:         api,
		submitAPI:   submitAPI,
		clock:       clock,
		store:       store,
		coordinator: coordinator,
		reconciler:  NewReconciler(api, clock, store, coordinator, zerolog.Nop()),
	}
}

func TestReconcileNotStarted(t *testing.T) {
	fx := newReconcilerFixture(t)
	fx.api.push(&model.ExamStatus{Status: model.StatusNotStarted}, nil)

	decision := fx.reconciler.Reconcile(context.Background())

	assert.Equal(t, RouteDashboard, decision.Route)
	assert.False(t, decision.TimerArmed)
	assert.Equal(t, 0, fx.submitAPI.count())
}

func TestReconcileActiveArmsClock(t *testing.T) {
	fx := newReconcilerFixture(t)
	fx.api.push(&model.ExamStatus{Status: model.StatusActive, RemainingSeconds: 440}, nil)

	decision := fx.reconciler.Reconcile(context.Background())
	defer fx.clock.Stop()

	assert.Equal(t, RouteExam, decision.Route)
	assert.True(t, decision.TimerArmed)
	assert.Equal(t, 440, decision.Remaining)
	assert.LessOrEqual(t, fx.clock.Remaining(), 440)
	assert.Greater(t, fx.clock.Remaining(), 430)

	ts, ok := fx.store.Timer()
	require.True(t, ok)
	assert.Equal(t, 440, ts.RemainingAtSync)
}

func TestReconcileServerValueBeatsLocalDrift(t *testing.T) {
	fx := newReconcilerFixture(t)

	// The local clock drifted to 500 while the tab was asleep; the server
	// says 440 is what is actually left.
	fx.clock.Arm(500)
	fx.api.push(&model.ExamStatus{Status: model.StatusActive, RemainingSeconds: 440}, nil)

	decision := fx.reconciler.Reconcile(context.Background())
	defer fx.clock.Stop()

	assert.Equal(t, 440, decision.Remaining)
	assert.LessOrEqual(t, fx.clock.Remaining(), 440)
}

func TestReconcileExpiredAutoSubmits(t *testing.T) {
	fx := newReconcilerFixture(t)
	require.NoError(t, fx.store.Save("py-1", "answer", "python"))
	fx.api.push(&model.ExamStatus{Status: model.StatusExpired}, nil)

	decision := fx.reconciler.Reconcile(context.Background())

	assert.Equal(t, RouteCompletion, decision.Route)
	assert.True(t, decision.AutoSubmitted)

	require.Equal(t, 1, fx.submitAPI.count())
	req := fx.submitAPI.lastRequest()
	assert.True(t, req.AutoSubmit)
	require.Len(t, req.Answers, 1)
	assert.Equal(t, "py-1", req.Answers[0].ProblemID)
	assert.Equal(t, 0, fx.store.Len(), "answers cleared after acked auto-submit")
}

func TestReconcileExpiredSubmitFailureStillRoutesToCompletion(t *testing.T) {
	fx := newReconcilerFixture(t)
	require.NoError(t, fx.store.Save("py-1", "answer", "python"))
	fx.submitAPI.setErr(errors.New("server unavailable"))
	fx.api.push(&model.ExamStatus{Status: model.StatusExpired}, nil)

	decision := fx.reconciler.Reconcile(context.Background())

	assert.Equal(t, RouteCompletion, decision.Route)
	assert.Equal(t, 1, fx.store.Len(), "failed auto-submit keeps answers on disk")
}

func TestReconcileCompleted(t *testing.T) {
	fx := newReconcilerFixture(t)
	fx.api.push(&model.ExamStatus{Status: model.StatusCompleted}, nil)

	decision := fx.reconciler.Reconcile(context.Background())

	assert.Equal(t, RouteCompletion, decision.Route)
	assert.False(t, decision.AutoSubmitted)
	assert.Equal(t, 0, fx.submitAPI.count())
}

func TestReconcileUnknownStatusFailsOpen(t *testing.T) {
	fx := newReconcilerFixture(t)
	fx.clock.Arm(500)
	fx.api.push(&model.ExamStatus{Status: "paused"}, nil)

	decision := fx.reconciler.Reconcile(context.Background())

	// A status this build doesn't know must never be read as "finished":
	// the candidate stays on the exam page and nothing is submitted.
	assert.Equal(t, RouteExam, decision.Route)
	assert.False(t, decision.TimerArmed)
	assert.False(t, decision.AutoSubmitted)
	assert.Equal(t, 0, fx.submitAPI.count())

	remaining := fx.clock.Remaining()
	time.Sleep(5 * testTick)
	assert.Equal(t, remaining, fx.clock.Remaining(), "clock halted on unknown status")
}

func TestReconcileNetworkErrorFailsOpen(t *testing.T) {
	fx := newReconcilerFixture(t)
	fx.clock.Arm(500)
	fx.api.push(nil, errors.New("dial tcp: connection refused"))

	decision := fx.reconciler.Reconcile(context.Background())

	assert.Equal(t, RouteExam, decision.Route, "candidate keeps working")
	assert.False(t, decision.TimerArmed, "no countdown runs on stale data")
	assert.Equal(t, 0, fx.submitAPI.count(), "a stale timer must never auto-submit")

	// The previously armed clock was stopped, not left ticking toward a
	// bogus expiry.
	remaining := fx.clock.Remaining()
	time.Sleep(5 * testTick)
	assert.Equal(t, remaining, fx.clock.Remaining())
}
