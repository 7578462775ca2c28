package engine

import (
	"sync"
	"time"
)

// RateLimiter — скользящие окна отправок по каждой сессии: минутный и
// часовой потолки. Хранится только в памяти, перезапуск сбрасывает
// счётчики.
type RateLimiter struct {
	mu        sync.Mutex
	perMinute int
	perHour   int
	stamps    map[string][]time.Time
	now       func() time.Time
}

func NewRateLimiter(perMinute, perHour int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 30
	}

	if perHour <= 0 {
		perHour = 1000
	}

	return &RateLimiter{
		perMinute: perMinute,
		perHour:   perHour,
		stamps:    make(map[string][]time.Time),
		now:       time.Now,
	}
}

// Allow проверяет потолки и при успехе сразу регистрирует отправку.
func (l *RateLimiter) Allow(sessionID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	hourAgo := now.Add(-time.Hour)
	minuteAgo := now.Add(-time.Minute)

	stamps := l.stamps[sessionID]

	pruned := stamps[:0]
	for _, ts := range stamps {
		if ts.After(hourAgo) {
			pruned = append(pruned, ts)
		}
	}

	if len(pruned) >= l.perHour {
		l.stamps[sessionID] = pruned
		return false
	}

	recent := 0

	for _, ts := range pruned {
		if ts.After(minuteAgo) {
			recent++
		}
	}

	if recent >= l.perMinute {
		l.stamps[sessionID] = pruned
		return false
	}

	l.stamps[sessionID] = append(pruned, now)

	return true
}

func (l *RateLimiter) Reset(sessionID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.stamps, sessionID)
}
