package taker

import (
	"context"
	"testing"
	"time"

	"github.com/hirewell/codeassess/internal/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests run the whole candidate-side stack (store, saver, clock,
// reconciler, coordinator) against fake server APIs, end to end.

func TestFlowNormalSession(t *testing.T) {
	store, err := OpenStore(t.TempDir(), "session-abc")
	require.NoError(t, err)

	submitAPI := &fakeSubmitAPI{}
	statusAPI := &fakeStatusAPI{}
	saveAPI := &fakeSaveAPI{}

	saver := NewSaver(store, saveAPI, testDebounce, zerolog.Nop())
	clock := NewClock(zerolog.Nop(), WithInterval(testTick))
	coordinator := NewCoordinator(store, submitAPI, saver, clock, zerolog.Nop())
	reconciler := NewReconciler(statusAPI, clock, store, coordinator, zerolog.Nop())

	// Entering the exam page mid-attempt with plenty of time left.
	statusAPI.push(&model.ExamStatus{Status: model.StatusActive, RemainingSeconds: 3600}, nil)
	decision := reconciler.Reconcile(context.Background())
	require.Equal(t, RouteExam, decision.Route)
	require.True(t, decision.TimerArmed)

	// Work on two problems.
	saver.Edit("py-1", "print(", "python")
	saver.Edit("py-1", "print(42)", "python")
	saver.Edit("sql-1", "SELECT name FROM users", "sql")

	require.Eventually(t, func() bool {
		return saveAPI.count() == 2
	}, time.Second, time.Millisecond)

	// Candidate hits submit.
	receipt, err := coordinator.Submit(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 2, receipt.AnswersSent)

	req := submitAPI.lastRequest()
	require.Len(t, req.Answers, 2)
	assert.False(t, req.AutoSubmit)
	assert.Equal(t, "print(42)", req.Answers[0].Code)

	assert.Equal(t, 0, store.Len())

	// The accepted submission disarmed the countdown on its own.
	remaining := clock.Remaining()
	time.Sleep(5 * testTick)
	assert.Equal(t, remaining, clock.Remaining())
	assert.False(t, clock.Expired())

	saver.Close()
}

func TestFlowExpiryAutoSubmit(t *testing.T) {
	store, err := OpenStore(t.TempDir(), "session-abc")
	require.NoError(t, err)

	submitAPI := &fakeSubmitAPI{}
	statusAPI := &fakeStatusAPI{}

	var coordinator *Coordinator
	clock := NewClock(zerolog.Nop(),
		WithInterval(testTick),
		WithOnExpire(func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			coordinator.Submit(ctx, true)
		}),
	)
	coordinator = NewCoordinator(store, submitAPI, nil, clock, zerolog.Nop())
	reconciler := NewReconciler(statusAPI, clock, store, coordinator, zerolog.Nop())

	require.NoError(t, store.Save("py-1", "last answer", "python"))

	// The server reports two seconds left; the local clock runs them out.
	statusAPI.push(&model.ExamStatus{Status: model.StatusActive, RemainingSeconds: 2}, nil)
	decision := reconciler.Reconcile(context.Background())
	require.True(t, decision.TimerArmed)
	require.Equal(t, 2, decision.Remaining)

	require.Eventually(t, coordinator.Submitted, time.Second, testTick)

	require.Equal(t, 1, submitAPI.count())
	req := submitAPI.lastRequest()
	assert.True(t, req.AutoSubmit)
	require.Len(t, req.Answers, 1)
	assert.Equal(t, "last answer", req.Answers[0].Code)
	assert.Equal(t, 0, store.Len())

	// The expiry already fired; a late manual submit is a no-op.
	receipt, err := coordinator.Submit(context.Background(), false)
	require.NoError(t, err)
	assert.True(t, receipt.AlreadySubmitted)
	assert.Equal(t, 1, submitAPI.count())
}

func TestFlowReloadMidExamRebasesTimer(t *testing.T) {
	dir := t.TempDir()

	// First process: attempt running, answers and a timer snapshot saved.
	{
		store, err := OpenStore(dir, "session-abc")
		require.NoError(t, err)
		require.NoError(t, store.Save("py-1", "work in progress", "python"))
		require.NoError(t, store.SaveTimer(500))
	}

	// Reload: a fresh process opens the same session. The stale local
	// snapshot says 500 but the server says 440.
	store, err := OpenStore(dir, "session-abc")
	require.NoError(t, err)

	ts, ok := store.Timer()
	require.True(t, ok)
	require.Equal(t, 500, ts.RemainingAtSync)

	a, ok := store.Get("py-1")
	require.True(t, ok)
	assert.Equal(t, "work in progress", a.Code, "answers survive the reload")

	submitAPI := &fakeSubmitAPI{}
	statusAPI := &fakeStatusAPI{}
	clock := NewClock(zerolog.Nop(), WithInterval(testTick))
	coordinator := NewCoordinator(store, submitAPI, nil, clock, zerolog.Nop())
	reconciler := NewReconciler(statusAPI, clock, store, coordinator, zerolog.Nop())

	statusAPI.push(&model.ExamStatus{Status: model.StatusActive, RemainingSeconds: 440}, nil)
	decision := reconciler.Reconcile(context.Background())
	defer clock.Stop()

	assert.Equal(t, 440, decision.Remaining, "server snapshot wins over local 500")
	assert.LessOrEqual(t, clock.Remaining(), 440)

	ts, ok = store.Timer()
	require.True(t, ok)
	assert.Equal(t, 440, ts.RemainingAtSync)
}

func TestFlowExpiredOnArrival(t *testing.T) {
	dir := t.TempDir()

	// The window ran out while the client was closed; answers are still
	// on disk from the previous session.
	{
		store, err := OpenStore(dir, "session-abc")
		require.NoError(t, err)
		require.NoError(t, store.Save("py-1", "finished before the crash", "python"))
		require.NoError(t, store.Save("sql-1", "SELECT 1", "sql"))
	}

	store, err := OpenStore(dir, "session-abc")
	require.NoError(t, err)

	submitAPI := &fakeSubmitAPI{}
	statusAPI := &fakeStatusAPI{}
	clock := NewClock(zerolog.Nop(), WithInterval(testTick))
	coordinator := NewCoordinator(store, submitAPI, nil, clock, zerolog.Nop())
	reconciler := NewReconciler(statusAPI, clock, store, coordinator, zerolog.Nop())

	statusAPI.push(&model.ExamStatus{Status: model.StatusExpired}, nil)
	decision := reconciler.Reconcile(context.Background())

	assert.Equal(t, RouteCompletion, decision.Route)
	assert.True(t, decision.AutoSubmitted)

	require.Equal(t, 1, submitAPI.count())
	req := submitAPI.lastRequest()
	assert.True(t, req.AutoSubmit)
	require.Len(t, req.Answers, 2)
	assert.Equal(t, "py-1", req.Answers[0].ProblemID)
	assert.Equal(t, "sql-1", req.Answers[1].ProblemID)
	assert.Equal(t, 0, store.Len())
	assert.False(t, clock.Expired(), "no local expiry needed, the server already decided")
}
