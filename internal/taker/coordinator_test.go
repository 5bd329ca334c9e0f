package taker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hirewell/codeassess/internal/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSubmitAPI records submissions and can be told to fail.
type fakeSubmitAPI struct {
	mu       sync.Mutex
	requests []*model.SubmitExamRequest
	err      error
	ack      SubmitAck
}

func (f *fakeSubmitAPI) SubmitExam(_ context.Context, req *model.SubmitExamRequest) (*SubmitAck, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	ack := f.ack
	ack.AnswersStored = len(req.Answers)
	return &ack, nil
}

func (f *fakeSubmitAPI) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeSubmitAPI) lastRequest() *model.SubmitExamRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return nil
	}
	return f.requests[len(f.requests)-1]
}

func (f *fakeSubmitAPI) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func newTestCoordinator(t *testing.T, api SubmitAPI) (*Coordinator, *Store) {
	t.Helper()
	store, err := OpenStore(t.TempDir(), "session-abc")
	require.NoError(t, err)
	return NewCoordinator(store, api, nil, nil, zerolog.Nop()), store
}

func TestCoordinatorSubmitClearsStore(t *testing.T) {
	api := &fakeSubmitAPI{}
	coordinator, store := newTestCoordinator(t, api)

	require.NoError(t, store.Save("py-2", "b", "python"))
	require.NoError(t, store.Save("py-1", "a", "python"))

	receipt, err := coordinator.Submit(context.Background(), false)
	require.NoError(t, err)
	assert.False(t, receipt.AlreadySubmitted)
	assert.Equal(t, 2, receipt.AnswersSent)

	req := api.lastRequest()
	require.NotNil(t, req)
	assert.False(t, req.AutoSubmit)
	require.Len(t, req.Answers, 2)
	assert.Equal(t, "py-1", req.Answers[0].ProblemID, "payload must be sorted")
	assert.Equal(t, "py-2", req.Answers[1].ProblemID)

	assert.Equal(t, 0, store.Len(), "store cleared only after server ack")
	assert.True(t, coordinator.Submitted())
}

func TestCoordinatorAtMostOnce(t *testing.T) {
	api := &fakeSubmitAPI{}
	coordinator, store := newTestCoordinator(t, api)
	require.NoError(t, store.Save("py-1", "a", "python"))

	_, err := coordinator.Submit(context.Background(), false)
	require.NoError(t, err)

	// A second submit (say the expiry callback racing the button) is a
	// local no-op.
	receipt, err := coordinator.Submit(context.Background(), true)
	require.NoError(t, err)
	assert.True(t, receipt.AlreadySubmitted)
	assert.Equal(t, 1, api.count(), "no second network call")
}

func TestCoordinatorFailureRetainsAnswers(t *testing.T) {
	api := &fakeSubmitAPI{}
	api.setErr(errors.New("connection refused"))
	coordinator, store := newTestCoordinator(t, api)
	require.NoError(t, store.Save("py-1", "a", "python"))

	_, err := coordinator.Submit(context.Background(), false)
	require.Error(t, err)

	assert.Equal(t, 1, store.Len(), "failed submit must not clear answers")
	assert.False(t, coordinator.Submitted())

	// Manual retry succeeds with the same answers.
	api.setErr(nil)
	receipt, err := coordinator.Submit(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, receipt.AnswersSent)
	assert.Equal(t, 0, store.Len())
}

func TestCoordinatorAutoFailureKeepsAnswers(t *testing.T) {
	api := &fakeSubmitAPI{}
	api.setErr(errors.New("gateway timeout"))
	coordinator, store := newTestCoordinator(t, api)
	require.NoError(t, store.Save("py-1", "a", "python"))

	_, err := coordinator.Submit(context.Background(), true)
	require.Error(t, err)

	req := api.lastRequest()
	require.NotNil(t, req)
	assert.True(t, req.AutoSubmit)
	assert.Equal(t, 1, store.Len(), "answers stay on disk for inspection")
	assert.False(t, coordinator.Submitted())
}

func TestCoordinatorFlushesSaverBeforePayload(t *testing.T) {
	api := &fakeSubmitAPI{}
	store, err := OpenStore(t.TempDir(), "session-abc")
	require.NoError(t, err)

	saver := NewSaver(store, nil, testDebounce, zerolog.Nop())
	coordinator := NewCoordinator(store, api, saver, nil, zerolog.Nop())

	// An edit still inside its debounce window at submit time.
	saver.Edit("py-1", "trailing keystrokes", "python")

	receipt, err := coordinator.Submit(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, receipt.AnswersSent)

	req := api.lastRequest()
	require.Len(t, req.Answers, 1)
	assert.Equal(t, "trailing keystrokes", req.Answers[0].Code)
}

func TestCoordinatorSuccessDisarmsClock(t *testing.T) {
	api := &fakeSubmitAPI{}
	store, err := OpenStore(t.TempDir(), "session-abc")
	require.NoError(t, err)

	var expirations atomic.Int32
	clock := NewClock(zerolog.Nop(),
		WithInterval(testTick),
		WithOnExpire(func() { expirations.Add(1) }),
	)
	coordinator := NewCoordinator(store, api, nil, clock, zerolog.Nop())

	require.NoError(t, store.Save("py-1", "a", "python"))

	// Three ticks of runway; the submit must win the race for good.
	clock.Arm(3)
	_, err = coordinator.Submit(context.Background(), false)
	require.NoError(t, err)

	time.Sleep(10 * testTick)
	assert.Equal(t, int32(0), expirations.Load(), "a finished attempt must not expire")
	assert.False(t, clock.Expired())
}

func TestCoordinatorFailureLeavesClockRunning(t *testing.T) {
	api := &fakeSubmitAPI{}
	api.setErr(errors.New("connection refused"))
	store, err := OpenStore(t.TempDir(), "session-abc")
	require.NoError(t, err)

	clock := NewClock(zerolog.Nop(), WithInterval(testTick))
	coordinator := NewCoordinator(store, api, nil, clock, zerolog.Nop())
	defer clock.Stop()

	clock.Arm(1000)
	_, err = coordinator.Submit(context.Background(), false)
	require.Error(t, err)

	// The countdown keeps going: the attempt is still open server-side.
	before := clock.Remaining()
	time.Sleep(5 * testTick)
	assert.Less(t, clock.Remaining(), before)
}

func TestCoordinatorEmptyAnswerSet(t *testing.T) {
	api := &fakeSubmitAPI{}
	coordinator, _ := newTestCoordinator(t, api)

	receipt, err := coordinator.Submit(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 0, receipt.AnswersSent)

	req := api.lastRequest()
	require.NotNil(t, req)
	assert.Empty(t, req.Answers)
	assert.True(t, req.AutoSubmit)
}
