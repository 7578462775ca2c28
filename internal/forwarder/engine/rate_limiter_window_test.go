package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// newClockedLimiter возвращает лимитер с управляемыми часами: тесты
// двигают время вперёд, не дожидаясь реальных окон.
func newClockedLimiter(perMinute, perHour int) (*RateLimiter, *time.Time) {
	limiter := NewRateLimiter(perMinute, perHour)
	clock := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return clock }

	return limiter, &clock
}

func TestRateLimiter_MinuteWindowSlides(t *testing.T) {
	t.Parallel()

	limiter, clock := newClockedLimiter(2, 100)

	assert.True(t, limiter.Allow("session-1"))
	assert.True(t, limiter.Allow("session-1"))
	assert.False(t, limiter.Allow("session-1"), "минутный потолок исчерпан")

	*clock = clock.Add(30 * time.Second)
	assert.False(t, limiter.Allow("session-1"), "обе отправки ещё внутри минутного окна")

	*clock = clock.Add(31 * time.Second)
	assert.True(t, limiter.Allow("session-1"), "старые отправки выпали из минутного окна")
}

func TestRateLimiter_HourWindowSlides(t *testing.T) {
	t.Parallel()

	limiter, clock := newClockedLimiter(100, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, limiter.Allow("session-1"))
		*clock = clock.Add(20 * time.Minute)
	}

	*clock = clock.Add(-10 * time.Minute)
	assert.False(t, limiter.Allow("session-1"), "часовой потолок исчерпан")

	// Сдвиг выводит первую отправку за пределы часового окна.
	*clock = clock.Add(10*time.Minute + time.Second)
	assert.True(t, limiter.Allow("session-1"))
	assert.False(t, limiter.Allow("session-1"), "внутри часа по-прежнему три отправки")
}

func TestRateLimiter_MinuteResetDoesNotBypassHourCeiling(t *testing.T) {
	t.Parallel()

	limiter, clock := newClockedLimiter(2, 3)

	assert.True(t, limiter.Allow("session-1"))
	assert.True(t, limiter.Allow("session-1"))

	*clock = clock.Add(2 * time.Minute)
	assert.True(t, limiter.Allow("session-1"))
	assert.False(t, limiter.Allow("session-1"), "часовой потолок держит даже после смены минутного окна")
}
