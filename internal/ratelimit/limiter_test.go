package ratelimit

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func fixedClock(start time.Time) (func() time.Time, func(time.Duration)) {
	current := start
	now := func() time.Time { return current }
	advance := func(d time.Duration) { current = current.Add(d) }
	return now, advance
}

func TestNewLimiter(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	limiter := NewLimiter(30, 100, logger)

	usage := limiter.Usage()
	if usage.MinuteRemaining != 30 || usage.MinuteLimit != 30 {
		t.Errorf("Expected full minute window 30/30, got %d/%d", usage.MinuteRemaining, usage.MinuteLimit)
	}
	if usage.DayRemaining != 100 || usage.DayLimit != 100 {
		t.Errorf("Expected full day window 100/100, got %d/%d", usage.DayRemaining, usage.DayLimit)
	}
}

func TestAcquire_AllowsUpToCeiling(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	limiter := NewLimiter(3, 100, logger)

	now, _ := fixedClock(time.Now())
	limiter.setClock(now)

	for i := 0; i < 3; i++ {
		if err := limiter.Acquire(); err != nil {
			t.Fatalf("Acquire() %d failed: %v", i+1, err)
		}
	}

	err := limiter.Acquire()
	if err == nil {
		t.Fatal("Expected quota error after ceiling reached")
	}

	var quotaErr *QuotaExceededError
	if !errors.As(err, &quotaErr) {
		t.Fatalf("Expected QuotaExceededError, got %T", err)
	}
	if quotaErr.Window != WindowMinute {
		t.Errorf("Expected minute window, got %s", quotaErr.Window)
	}
	if quotaErr.RetryAfter <= 0 {
		t.Errorf("Expected positive retry-after, got %v", quotaErr.RetryAfter)
	}
}

func TestAcquire_RetryAfterMatchesRefill(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	limiter := NewLimiter(1, 100, logger)

	now, _ := fixedClock(time.Now())
	limiter.setClock(now)

	if err := limiter.Acquire(); err != nil {
		t.Fatalf("First Acquire() failed: %v", err)
	}

	err := limiter.Acquire()
	var quotaErr *QuotaExceededError
	if !errors.As(err, &quotaErr) {
		t.Fatalf("Expected QuotaExceededError, got %v", err)
	}

	// Capacity 1 refilling at 1 token per minute: the next token is a
	// full window away.
	if quotaErr.RetryAfter < 59*time.Second || quotaErr.RetryAfter > 61*time.Second {
		t.Errorf("Expected retry-after near 60s, got %v", quotaErr.RetryAfter)
	}
}

func TestAcquire_AllOrNothing(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	limiter := NewLimiter(10, 2, logger)

	now, _ := fixedClock(time.Now())
	limiter.setClock(now)

	for i := 0; i < 2; i++ {
		if err := limiter.Acquire(); err != nil {
			t.Fatalf("Acquire() %d failed: %v", i+1, err)
		}
	}

	err := limiter.Acquire()
	var quotaErr *QuotaExceededError
	if !errors.As(err, &quotaErr) {
		t.Fatalf("Expected QuotaExceededError, got %v", err)
	}
	if quotaErr.Window != WindowDay {
		t.Errorf("Expected day window, got %s", quotaErr.Window)
	}

	// The denied request must not have burned minute budget.
	usage := limiter.Usage()
	if usage.MinuteRemaining != 8 {
		t.Errorf("Expected 8 minute tokens after denial, got %d", usage.MinuteRemaining)
	}
	if usage.DayRemaining != 0 {
		t.Errorf("Expected 0 day tokens, got %d", usage.DayRemaining)
	}
}

func TestAcquire_RefillsOverTime(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	limiter := NewLimiter(1, 100, logger)

	now, advance := fixedClock(time.Now())
	limiter.setClock(now)

	if err := limiter.Acquire(); err != nil {
		t.Fatalf("First Acquire() failed: %v", err)
	}
	if err := limiter.Acquire(); err == nil {
		t.Fatal("Expected denial with empty window")
	}

	advance(61 * time.Second)

	if err := limiter.Acquire(); err != nil {
		t.Errorf("Expected success after refill, got %v", err)
	}
}

func TestUsage_TruncatesFractionalTokens(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	limiter := NewLimiter(30, 100, logger)

	now, advance := fixedClock(time.Now())
	limiter.setClock(now)

	for i := 0; i < 5; i++ {
		if err := limiter.Acquire(); err != nil {
			t.Fatalf("Acquire() %d failed: %v", i+1, err)
		}
	}

	// Half a token refills in one second at 30 per minute.
	advance(1 * time.Second)

	usage := limiter.Usage()
	if usage.MinuteRemaining != 25 {
		t.Errorf("Expected truncated snapshot of 25, got %d", usage.MinuteRemaining)
	}
}
