package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mrlokans/library/internal/config"
)

func newTestRateLimiter(t *testing.T, clock *time.Time) *RateLimiter {
	t.Helper()
	rl := NewRateLimiter(config.Auth{
		MaxLoginAttempts: 3,
		RateLimitWindow:  time.Minute,
		LockoutDuration:  10 * time.Minute,
	})
	rl.now = func() time.Time { return *clock }
	t.Cleanup(rl.Stop)
	return rl
}

func TestRateLimiter_LocksAfterMaxAttempts(t *testing.T) {
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := newTestRateLimiter(t, &clock)

	assert.False(t, rl.RecordFailure("1.2.3.4", "admin"))
	assert.False(t, rl.RecordFailure("1.2.3.4", "admin"))
	allowed, _ := rl.Allow("1.2.3.4", "admin")
	assert.True(t, allowed)

	assert.True(t, rl.RecordFailure("1.2.3.4", "admin"))
	allowed, retryAfter := rl.Allow("1.2.3.4", "admin")
	assert.False(t, allowed)
	assert.Equal(t, 10*time.Minute, retryAfter)

	// Other IPs and usernames are unaffected
	allowed, _ = rl.Allow("5.6.7.8", "admin")
	assert.True(t, allowed)
	allowed, _ = rl.Allow("1.2.3.4", "other")
	assert.True(t, allowed)

	clock = clock.Add(11 * time.Minute)
	allowed, _ = rl.Allow("1.2.3.4", "admin")
	assert.True(t, allowed)
}

func TestRateLimiter_WindowResets(t *testing.T) {
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := newTestRateLimiter(t, &clock)

	rl.RecordFailure("ip", "admin")
	rl.RecordFailure("ip", "admin")

	clock = clock.Add(2 * time.Minute)
	assert.False(t, rl.RecordFailure("ip", "admin"), "count restarts after the window")
}

func TestRateLimiter_SuccessClears(t *testing.T) {
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := newTestRateLimiter(t, &clock)

	rl.RecordFailure("ip", "admin")
	rl.RecordFailure("ip", "admin")
	rl.RecordSuccess("ip", "admin")

	assert.False(t, rl.RecordFailure("ip", "admin"))
}

func TestRateLimiter_Cleanup(t *testing.T) {
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := newTestRateLimiter(t, &clock)

	rl.RecordFailure("ip", "admin")
	clock = clock.Add(time.Hour)
	rl.cleanup()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.Empty(t, rl.attempts)
}
