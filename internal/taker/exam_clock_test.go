package taker

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTick = 5 * time.Millisecond

// tickRecorder collects tick values in order.
type tickRecorder struct {
	mu    sync.Mutex
	ticks []int
}

func (r *tickRecorder) record(remaining int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ticks = append(r.ticks, remaining)
}

func (r *tickRecorder) snapshot() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.ticks...)
}

func TestClockCountsDownMonotonically(t *testing.T) {
	rec := &tickRecorder{}
	var expired atomic.Bool

	clock := NewClock(zerolog.Nop(),
		WithInterval(testTick),
		WithOnTick(rec.record),
		WithOnExpire(func() { expired.Store(true) }),
	)

	clock.Arm(3)

	require.Eventually(t, expired.Load, time.Second, testTick)

	ticks := rec.snapshot()
	require.NotEmpty(t, ticks)
	for i := 1; i < len(ticks); i++ {
		assert.Less(t, ticks[i], ticks[i-1], "countdown must strictly decrease")
	}
	assert.Equal(t, 0, ticks[len(ticks)-1])
}

func TestClockExpiresAtMostOnce(t *testing.T) {
	var expirations atomic.Int32

	clock := NewClock(zerolog.Nop(),
		WithInterval(testTick),
		WithOnExpire(func() { expirations.Add(1) }),
	)

	clock.Arm(1)
	require.Eventually(t, clock.Expired, time.Second, testTick)

	// Re-arming after expiry must not restart the countdown or fire again.
	clock.Arm(100)
	clock.Arm(0)
	time.Sleep(10 * testTick)

	assert.Equal(t, int32(1), expirations.Load())
	assert.True(t, clock.Expired())
}

func TestClockArmWithZeroExpiresImmediately(t *testing.T) {
	var expired atomic.Bool

	clock := NewClock(zerolog.Nop(),
		WithInterval(time.Hour), // no tick should be needed
		WithOnExpire(func() { expired.Store(true) }),
	)

	clock.Arm(0)

	assert.True(t, expired.Load())
	assert.True(t, clock.Expired())
}

func TestClockRearmRebasesOnServerValue(t *testing.T) {
	rec := &tickRecorder{}

	clock := NewClock(zerolog.Nop(),
		WithInterval(testTick),
		WithOnTick(rec.record),
	)

	// Local drift says 500; the server snapshot says 440. Re-arm must
	// replace the local value, not blend them.
	clock.Arm(500)
	clock.Arm(440)

	require.Eventually(t, func() bool {
		return len(rec.snapshot()) >= 2
	}, time.Second, testTick)
	clock.Stop()

	ticks := rec.snapshot()
	for _, v := range ticks[1:] {
		assert.Less(t, v, 440, "ticks after re-arm must come from the rebased value")
	}
}

func TestClockRemainingTracksWallClock(t *testing.T) {
	// The countdown is elapsed wall time against the server snapshot, not a
	// count of ticker fires, so a starved or suspended process wakes up with
	// the value already caught up instead of inflated.
	clock := NewClock(zerolog.Nop(), WithInterval(testTick))
	defer clock.Stop()

	clock.Arm(100)
	time.Sleep(7 * testTick / 2)

	remaining := clock.Remaining()
	assert.LessOrEqual(t, remaining, 97, "3.5 intervals elapsed, at least 3 must be gone")
	assert.GreaterOrEqual(t, remaining, 90)
}

func TestClockStopHaltsWithoutExpiring(t *testing.T) {
	var expired atomic.Bool

	clock := NewClock(zerolog.Nop(),
		WithInterval(testTick),
		WithOnExpire(func() { expired.Store(true) }),
	)

	clock.Arm(1000)
	clock.Stop()
	time.Sleep(5 * testTick)

	assert.False(t, expired.Load())
	assert.False(t, clock.Expired())

	// Stop is idempotent.
	clock.Stop()
}
