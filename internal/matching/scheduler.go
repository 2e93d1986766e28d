// internal/matching/scheduler.go

package matching

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/vettly/vettly-backend/internal/common/database"
)

// Scheduler runs the hourly expiry and the daily candidate analysis
type Scheduler struct {
	service      Service
	locker       *database.Locker
	matchExpiry  time.Duration
	analysisHour int
	log          *zap.Logger
}

func NewScheduler(service Service, locker *database.Locker, matchExpiry time.Duration, log *zap.Logger) *Scheduler {
	return &Scheduler{
		service:      service,
		locker:       locker,
		matchExpiry:  matchExpiry,
		analysisHour: 3,
		log:          log.Named("matching_scheduler"),
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	// Expire unanswered matches every hour
	go s.runHourly(ctx, "expire-matches", s.expireStale)

	// Candidate analysis daily at 3 AM
	go s.runDaily(ctx, s.analysisHour, 0, "analyze-candidates", s.analyzeCandidates)
}

func (s *Scheduler) expireStale(ctx context.Context) error {
	return s.locker.WithLock(ctx, "matching:expire", 30*time.Minute, func(ctx context.Context) error {
		_, err := s.service.ExpireStale(ctx, s.matchExpiry)
		return err
	})
}

func (s *Scheduler) analyzeCandidates(ctx context.Context) error {
	return s.locker.WithLock(ctx, "matching:analyze", 2*time.Hour, func(ctx context.Context) error {
		_, err := s.service.AnalyzeCandidates(ctx)
		return err
	})
}

func (s *Scheduler) runDaily(ctx context.Context, hour, minute int, name string, task func(context.Context) error) {
	for {
		now := time.Now()
		next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
		if now.After(next) {
			next = next.Add(24 * time.Hour)
		}

		timer := time.NewTimer(next.Sub(now))

		select {
		case <-timer.C:
			s.run(ctx, name, task)
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}

func (s *Scheduler) runHourly(ctx context.Context, name string, task func(context.Context) error) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.run(ctx, name, task)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) run(ctx context.Context, name string, task func(context.Context) error) {
	start := time.Now()
	err := task(ctx)
	switch {
	case errors.Is(err, database.ErrLockHeld):
		s.log.Debug("scheduled task skipped, another instance holds the lock", zap.String("task", name))
	case err != nil:
		s.log.Error("scheduled task failed", zap.String("task", name), zap.Error(err))
	default:
		s.log.Info("scheduled task finished", zap.String("task", name), zap.Duration("took", time.Since(start)))
	}
}
