// Package gateway is the single path to the upstream API. Every fetch
// goes cache first, then plan ceilings, then a bounded retry loop, and
// successful payloads are written back under the category TTL.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/ahmedtohamy-16/footygateway/internal/cache"
	"github.com/ahmedtohamy-16/footygateway/internal/ratelimit"
	"github.com/ahmedtohamy-16/footygateway/internal/upstream"
)

// ErrUpstreamUnavailable is returned when every retry attempt failed
// with a transient error. The last attempt's error is wrapped.
var ErrUpstreamUnavailable = errors.New("upstream unavailable")

// Request pairs an upstream call with the cache category that decides
// its TTL.
type Request struct {
	Spec     upstream.RequestSpec
	Category cache.Category
}

// Result is a fetched payload plus where it came from.
type Result struct {
	Payload  []byte
	CacheHit bool
}

// RetryPolicy bounds the retry loop. Delay for attempt n is
// BaseDelay doubled per prior failure, plus jitter, capped at MaxDelay.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// Gateway coordinates cache, plan ceilings and the retry loop.
type Gateway struct {
	cache   cache.Cache
	policy  *cache.Policy
	limiter *ratelimit.Limiter
	client  *upstream.Client
	retry   RetryPolicy
	sleep   func(context.Context, time.Duration) error
	logger  *zap.Logger
}

func New(c cache.Cache, policy *cache.Policy, limiter *ratelimit.Limiter, client *upstream.Client, retry RetryPolicy, logger *zap.Logger) *Gateway {
	return &Gateway{
		cache:   c,
		policy:  policy,
		limiter: limiter,
		client:  client,
		retry:   retry,
		sleep:   sleepCtx,
		logger:  logger,
	}
}

// Lookup checks the cache without touching the plan ceilings. Used by
// callers that want to serve immutable data for free before paying for
// a full Fetch.
func (g *Gateway) Lookup(ctx context.Context, req Request) ([]byte, bool) {
	key := cache.Key(req.Spec.Endpoint, req.Spec.Params)
	payload, hit, err := g.cache.Get(ctx, key)
	if err != nil {
		g.logger.Error("Cache lookup failed",
			zap.String("key", key),
			zap.Error(err),
		)
		return nil, false
	}
	return payload, hit
}

// Fetch serves a request from cache when fresh, otherwise admits it
// against the plan ceilings and fetches upstream with retries. Cache
// hits consume no quota.
func (g *Gateway) Fetch(ctx context.Context, req Request) (*Result, error) {
	key := cache.Key(req.Spec.Endpoint, req.Spec.Params)

	payload, hit, err := g.cache.Get(ctx, key)
	if err != nil {
		// A broken cache backend must not take the service down.
		g.logger.Error("Cache lookup failed, falling through to upstream",
			zap.String("key", key),
			zap.Error(err),
		)
	}
	if hit {
		cacheLookupsTotal.WithLabelValues(string(req.Category), "hit").Inc()
		return &Result{Payload: payload, CacheHit: true}, nil
	}
	cacheLookupsTotal.WithLabelValues(string(req.Category), "miss").Inc()

	if err := g.limiter.Acquire(); err != nil {
		var quotaErr *ratelimit.QuotaExceededError
		if errors.As(err, &quotaErr) {
			quotaDenialsTotal.WithLabelValues(string(quotaErr.Window)).Inc()
		}
		return nil, err
	}

	payload, err = g.fetchWithRetry(ctx, req.Spec)
	if err != nil {
		return nil, err
	}

	ttl := g.policy.TTLFor(req.Category)
	if err := g.cache.Set(ctx, key, payload, ttl); err != nil {
		g.logger.Error("Failed to store response in cache",
			zap.String("key", key),
			zap.Error(err),
		)
	}

	return &Result{Payload: payload, CacheHit: false}, nil
}

// fetchWithRetry runs the bounded attempt loop. Only transient errors
// are retried, fatal errors surface immediately.
func (g *Gateway) fetchWithRetry(ctx context.Context, spec upstream.RequestSpec) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= g.retry.MaxAttempts; attempt++ {
		start := time.Now()
		payload, err := g.client.Fetch(ctx, spec)
		elapsed := time.Since(start)
		upstreamAttemptDuration.WithLabelValues(spec.Endpoint).Observe(elapsed.Seconds())

		if err == nil {
			upstreamAttemptsTotal.WithLabelValues(spec.Endpoint, "ok").Inc()
			if attempt > 1 {
				g.logger.Info("Upstream recovered after retry",
					zap.String("endpoint", spec.Endpoint),
					zap.Int("attempt", attempt),
				)
			}
			return payload, nil
		}

		if !upstream.IsTransient(err) {
			upstreamAttemptsTotal.WithLabelValues(spec.Endpoint, "fatal").Inc()
			g.logger.Error("Upstream request failed",
				zap.String("endpoint", spec.Endpoint),
				zap.Int("attempt", attempt),
				zap.Duration("elapsed", elapsed),
				zap.Error(err),
			)
			return nil, err
		}

		upstreamAttemptsTotal.WithLabelValues(spec.Endpoint, "transient").Inc()
		lastErr = err

		if attempt == g.retry.MaxAttempts {
			break
		}

		delay := g.backoff(attempt)
		g.logger.Warn("Upstream attempt failed, backing off",
			zap.String("endpoint", spec.Endpoint),
			zap.Int("attempt", attempt),
			zap.Duration("elapsed", elapsed),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		if err := g.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("%w after %d attempts: %w", ErrUpstreamUnavailable, g.retry.MaxAttempts, lastErr)
}

// backoff returns the delay before the next attempt: exponential in
// the number of failures so far, with up to one base delay of jitter,
// capped at MaxDelay.
func (g *Gateway) backoff(failures int) time.Duration {
	delay := g.retry.BaseDelay << (failures - 1)
	jitter := time.Duration(rand.Int63n(int64(g.retry.BaseDelay)))
	delay += jitter
	if delay > g.retry.MaxDelay {
		delay = g.retry.MaxDelay
	}
	return delay
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
