package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sunil55999/TelegramForwarderX/internal/forwarder/engine"
)

func TestRateLimiter_MinuteCeiling(t *testing.T) {
	t.Parallel()

	limiter := engine.NewRateLimiter(3, 100)

	for i := 0; i < 3; i++ {
		assert.True(t, limiter.Allow("session-1"), "отправка %d должна пройти", i+1)
	}

	assert.False(t, limiter.Allow("session-1"), "четвёртая отправка превышает минутный потолок")
}

func TestRateLimiter_HourCeiling(t *testing.T) {
	t.Parallel()

	limiter := engine.NewRateLimiter(100, 5)

	for i := 0; i < 5; i++ {
		assert.True(t, limiter.Allow("session-1"))
	}

	assert.False(t, limiter.Allow("session-1"), "шестая отправка превышает часовой потолок")
}

func TestRateLimiter_SessionsIndependent(t *testing.T) {
	t.Parallel()

	limiter := engine.NewRateLimiter(1, 100)

	assert.True(t, limiter.Allow("session-1"))
	assert.False(t, limiter.Allow("session-1"))

	assert.True(t, limiter.Allow("session-2"), "лимиты считаются на сессию")
}

func TestRateLimiter_Reset(t *testing.T) {
	t.Parallel()

	limiter := engine.NewRateLimiter(1, 100)

	assert.True(t, limiter.Allow("session-1"))
	assert.False(t, limiter.Allow("session-1"))

	limiter.Reset("session-1")

	assert.True(t, limiter.Allow("session-1"))
}

func TestRateLimiter_DefaultCeilings(t *testing.T) {
	t.Parallel()

	limiter := engine.NewRateLimiter(0, 0)

	for i := 0; i < 30; i++ {
		assert.True(t, limiter.Allow("session-1"))
	}

	assert.False(t, limiter.Allow("session-1"), "по умолчанию действует потолок 30 в минуту")
}
