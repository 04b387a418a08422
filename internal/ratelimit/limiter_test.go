package ratelimit

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestLimiter_CeilingAndWindowReset(t *testing.T) {
	clock := newFakeClock()
	l := New(Config{MaxRequests: 2, Window: 60 * time.Second}, WithClock(clock.Now))

	assert.True(t, l.Allow("1.2.3.4"))
	assert.True(t, l.Allow("1.2.3.4"))
	assert.False(t, l.Allow("1.2.3.4"))

	// Still inside the window: the reset happens only once now is past resetAt.
	clock.Advance(60 * time.Second)
	assert.False(t, l.Allow("1.2.3.4"))

	clock.Advance(time.Millisecond)
	assert.True(t, l.Allow("1.2.3.4"))
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	clock := newFakeClock()
	l := New(Config{MaxRequests: 1, Window: time.Minute}, WithClock(clock.Now))

	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"))
	assert.True(t, l.Allow("unknown"))
	assert.Equal(t, 3, l.Len())
}

func TestLimiter_RejectionDoesNotConsume(t *testing.T) {
	clock := newFakeClock()
	l := New(Config{MaxRequests: 1, Window: time.Minute}, WithClock(clock.Now))

	first := l.Decide("k")
	require.True(t, first.Allowed)
	assert.Equal(t, 0, first.Remaining)
	assert.Equal(t, clock.Now().Add(time.Minute), first.ResetAt)

	clock.Advance(20 * time.Second)
	for i := 0; i < 5; i++ {
		d := l.Decide("k")
		assert.False(t, d.Allowed)
		assert.Equal(t, 40*time.Second, d.RetryAfter)
		assert.Equal(t, 1, d.Limit)
	}

	clock.Advance(41 * time.Second)
	assert.True(t, l.Allow("k"))
}

func TestLimiter_Defaults(t *testing.T) {
	l := New(Config{})
	assert.Equal(t, DefaultMaxRequests, l.Limit())
	assert.Equal(t, DefaultWindow, l.Window())
}

func TestLimiter_Sweep(t *testing.T) {
	clock := newFakeClock()
	l := New(Config{MaxRequests: 5, Window: time.Minute}, WithClock(clock.Now))

	l.Allow("old")
	clock.Advance(30 * time.Second)
	l.Allow("fresh")
	clock.Advance(31 * time.Second)

	assert.Equal(t, 1, l.Sweep())
	assert.Equal(t, 1, l.Len())
}

func TestLimiter_ConcurrentAdmissionNeverOvershoots(t *testing.T) {
	const ceiling = 25
	l := New(Config{MaxRequests: ceiling, Window: time.Hour})

	var admitted int64
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow("shared") {
				atomic.AddInt64(&admitted, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(ceiling), admitted)
}
