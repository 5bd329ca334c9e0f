package taker

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Clock drives the local 1s countdown between server syncs. It never
// invents time: it only counts down from the remaining_seconds snapshot
// the server reported, and every re-arm replaces the local value with the
// server's. The displayed value is derived from wall clock elapsed since
// the snapshot, not from counting ticker fires, so a suspended or starved
// process wakes up with the countdown already caught up. Expiry fires at
// most once per Clock instance, no matter how many times the countdown is
// re-armed afterwards.
type Clock struct {
	mu      sync.Mutex
	base    int       // server snapshot the countdown runs from
	armedAt time.Time // when base was accepted
	frozen  int       // last value, shown while not armed
	armed   bool
	expired bool
	stop    chan struct{}

	interval time.Duration
	onTick   func(remaining int)
	onExpire func()
	log      zerolog.Logger
}

// ClockOption configures a Clock.
type ClockOption func(*Clock)

// WithInterval overrides the 1s tick interval. Tests use a short interval.
func WithInterval(d time.Duration) ClockOption {
	return func(c *Clock) { c.interval = d }
}

// WithOnTick registers the per-tick callback. It receives the current
// remaining seconds and is called outside the clock's lock.
func WithOnTick(fn func(remaining int)) ClockOption {
	return func(c *Clock) { c.onTick = fn }
}

// WithOnExpire registers the expiry callback, called outside the lock.
func WithOnExpire(fn func()) ClockOption {
	return func(c *Clock) { c.onExpire = fn }
}

// NewClock creates a stopped Clock. Call Arm with a server snapshot to
// start counting.
func NewClock(log zerolog.Logger, opts ...ClockOption) *Clock {
	c := &Clock{
		interval: time.Second,
		log:      log.With().Str("component", "exam_clock").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Arm rebases the countdown on a fresh server snapshot and starts (or
// restarts) ticking. A snapshot of zero or less expires immediately.
// Arming an already-expired clock does nothing: the expiry transition
// already happened and auto-submit must not fire twice.
func (c *Clock) Arm(remaining int) {
	c.mu.Lock()
	if c.expired {
		c.mu.Unlock()
		return
	}

	if c.armed {
		close(c.stop)
		c.armed = false
	}

	if remaining <= 0 {
		c.expired = true
		c.frozen = 0
		onExpire := c.onExpire
		c.mu.Unlock()
		c.log.Info().Msg("Armed with no time left, expiring")
		if onExpire != nil {
			onExpire()
		}
		return
	}

	c.base = remaining
	c.armedAt = time.Now()
	c.frozen = remaining
	c.armed = true
	stop := make(chan struct{})
	c.stop = stop
	c.mu.Unlock()

	go c.run(stop)
}

// left computes the live countdown value from the snapshot and wall clock.
// Callers must hold c.mu.
func (c *Clock) left() int {
	remaining := c.base - int(time.Since(c.armedAt)/c.interval)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// run owns the ticking loop until stopped or expired.
func (c *Clock) run(stop chan struct{}) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			if !c.armed || c.stop != stop {
				c.mu.Unlock()
				return
			}
			remaining := c.left()
			c.frozen = remaining
			onTick := c.onTick

			if remaining <= 0 {
				c.expired = true
				c.armed = false
				onExpire := c.onExpire
				c.mu.Unlock()
				if onTick != nil {
					onTick(0)
				}
				c.log.Info().Msg("Countdown reached zero")
				if onExpire != nil {
					onExpire()
				}
				return
			}
			c.mu.Unlock()

			if onTick != nil {
				onTick(remaining)
			}
		}
	}
}

// Remaining returns the current local countdown value. While armed it is
// derived from wall clock; once stopped or expired it is the last value.
func (c *Clock) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.armed {
		return c.left()
	}
	return c.frozen
}

// Expired reports whether the expiry transition has fired.
func (c *Clock) Expired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expired
}

// Stop halts ticking without expiring. Safe to call repeatedly.
func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.armed {
		c.frozen = c.left()
		close(c.stop)
		c.armed = false
	}
}
