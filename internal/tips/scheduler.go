// internal/tips/scheduler.go

package tips

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/vettly/vettly-backend/internal/common/database"
)

// Scheduler generates the weekly tip
type Scheduler struct {
	service Service
	locker  *database.Locker
	weekday time.Weekday
	hour    int
	log     *zap.Logger
}

func NewScheduler(service Service, locker *database.Locker, weekday time.Weekday, hour int, log *zap.Logger) *Scheduler {
	return &Scheduler{
		service: service,
		locker:  locker,
		weekday: weekday,
		hour:    hour,
		log:     log.Named("tips_scheduler"),
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	go s.runWeekly(ctx)
}

// nextRun returns the first weekday at hour:00 strictly after now
func nextRun(now time.Time, weekday time.Weekday, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	days := (int(weekday) - int(now.Weekday()) + 7) % 7
	next = next.AddDate(0, 0, days)
	if !next.After(now) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}

func (s *Scheduler) runWeekly(ctx context.Context) {
	for {
		next := nextRun(time.Now(), s.weekday, s.hour)
		s.log.Info("next weekly tip scheduled", zap.Time("at", next))
		timer := time.NewTimer(time.Until(next))

		select {
		case <-timer.C:
			s.generate(ctx)
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}

func (s *Scheduler) generate(ctx context.Context) {
	err := s.locker.WithLock(ctx, "tips:weekly", time.Hour, func(ctx context.Context) error {
		t, err := s.service.GenerateWeeklyTip(ctx)
		if err != nil {
			return err
		}
		s.log.Info("weekly tip generated",
			zap.String("tip_id", t.ID.String()),
			zap.String("category", t.Category),
			zap.String("status", string(t.Status)))
		return nil
	})
	switch {
	case errors.Is(err, database.ErrLockHeld):
		s.log.Debug("weekly tip skipped, another instance holds the lock")
	case err != nil:
		s.log.Error("weekly tip generation failed", zap.Error(err))
	}
}
