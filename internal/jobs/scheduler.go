// Package jobs runs recurring maintenance: request-log pruning and
// memory cache sweeps.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/ahmedtohamy-16/footygateway/internal/cache"
	"github.com/ahmedtohamy-16/footygateway/internal/database"
)

// requestLogRetention is how long audit rows for metered requests are
// kept before the nightly prune removes them.
const requestLogRetention = 30 * 24 * time.Hour

// Scheduler owns the cron runner and its jobs.
type Scheduler struct {
	cron   *cron.Cron
	db     *database.DB
	memory *cache.MemoryCache
	logger *zap.Logger
}

// NewScheduler builds the maintenance schedule. The memory cache may
// be nil when the Redis backend is configured; the sweep job is then
// skipped because Redis expires entries itself.
func NewScheduler(db *database.DB, memory *cache.MemoryCache, logger *zap.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:   cron.New(),
		db:     db,
		memory: memory,
		logger: logger,
	}

	// Nightly, during the quiet hours for football traffic.
	if _, err := s.cron.AddFunc("30 3 * * *", s.pruneRequestLogs); err != nil {
		return nil, err
	}

	if memory != nil {
		if _, err := s.cron.AddFunc("@hourly", s.sweepCache); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Start launches the cron runner in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("maintenance scheduler started")
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("maintenance scheduler stopped")
}

func (s *Scheduler) pruneRequestLogs() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	removed, err := s.db.PruneRequestLogs(ctx, requestLogRetention)
	if err != nil {
		s.logger.Error("request log prune failed", zap.Error(err))
		return
	}
	s.logger.Info("request log prune completed", zap.Int64("removed", removed))
}

func (s *Scheduler) sweepCache() {
	removed := s.memory.Sweep()
	s.logger.Debug("cache sweep completed", zap.Int("removed", removed))
}
