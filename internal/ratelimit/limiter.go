// Package ratelimit enforces the upstream API plan ceilings before any
// request leaves the process.
package ratelimit

import (
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Window identifies which plan ceiling was exhausted.
type Window string

const (
	WindowMinute Window = "minute"
	WindowDay    Window = "day"
)

// QuotaExceededError is returned when a request cannot be admitted under
// the current plan ceilings. RetryAfter is the earliest time at which a
// retry could succeed.
type QuotaExceededError struct {
	Window     Window
	RetryAfter time.Duration
}

func (e *QuotaExceededError) Error() string {
	return "quota exceeded for " + string(e.Window) + " window, retry after " + e.RetryAfter.String()
}

// Usage is a point-in-time snapshot of both windows.
type Usage struct {
	MinuteRemaining int `json:"minute_remaining"`
	MinuteLimit     int `json:"minute_limit"`
	DayRemaining    int `json:"day_remaining"`
	DayLimit        int `json:"day_limit"`
}

// Limiter admits requests against the per-minute and per-day upstream
// ceilings. Admission is all or nothing: a request consumes one token
// from each window or none at all, so a denial never burns budget.
type Limiter struct {
	minute      *rate.Limiter
	day         *rate.Limiter
	minuteLimit int
	dayLimit    int
	mu          sync.Mutex
	now         func() time.Time
	logger      *zap.Logger
}

// NewLimiter creates a limiter sized to the upstream plan. Both windows
// start full so a freshly started process can burst up to the ceiling.
func NewLimiter(perMinute, perDay int, logger *zap.Logger) *Limiter {
	return &Limiter{
		minute:      rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), perMinute),
		day:         rate.NewLimiter(rate.Limit(float64(perDay)/86400.0), perDay),
		minuteLimit: perMinute,
		dayLimit:    perDay,
		now:         time.Now,
		logger:      logger,
	}
}

// Acquire takes one token from each window, or neither. On denial it
// returns a QuotaExceededError naming the tighter window; the caller is
// expected to surface RetryAfter rather than block.
func (l *Limiter) Acquire() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	minRes := l.minute.ReserveN(now, 1)
	dayRes := l.day.ReserveN(now, 1)

	minDelay := minRes.DelayFrom(now)
	dayDelay := dayRes.DelayFrom(now)

	if minDelay > 0 || dayDelay > 0 {
		minRes.CancelAt(now)
		dayRes.CancelAt(now)

		window := WindowMinute
		retryAfter := minDelay
		if dayDelay > minDelay {
			window = WindowDay
			retryAfter = dayDelay
		}

		l.logger.Warn("Request denied by plan ceiling",
			zap.String("window", string(window)),
			zap.Duration("retry_after", retryAfter),
		)

		return &QuotaExceededError{Window: window, RetryAfter: retryAfter}
	}

	return nil
}

// Usage reports the tokens remaining in each window. Fractional tokens
// are truncated so the snapshot never overstates the remaining budget.
func (l *Limiter) Usage() Usage {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	return Usage{
		MinuteRemaining: clampTokens(l.minute.TokensAt(now), l.minuteLimit),
		MinuteLimit:     l.minuteLimit,
		DayRemaining:    clampTokens(l.day.TokensAt(now), l.dayLimit),
		DayLimit:        l.dayLimit,
	}
}

func clampTokens(tokens float64, limit int) int {
	if tokens < 0 {
		return 0
	}
	if tokens > float64(limit) {
		return limit
	}
	return int(tokens)
}

// setClock overrides the time source for tests.
func (l *Limiter) setClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}
