// Package jobs runs periodic housekeeping next to the API.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

type tokenPurger interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Scheduler owns the cron runner.
type Scheduler struct {
	sched  *cron.Cron
	logger *zap.Logger
}

// New builds a scheduler in the named time zone. An empty or unknown zone
// falls back to UTC.
func New(timezone string, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil || timezone == "" {
		loc = time.UTC
	}
	return &Scheduler{
		sched:  cron.New(cron.WithLocation(loc), cron.WithParser(cronParser)),
		logger: logger.Named("jobs"),
	}
}

// AddTokenPurge schedules the expired token purge with a cron expression.
func (s *Scheduler) AddTokenPurge(spec string, tokens tokenPurger) error {
	_, err := s.sched.AddFunc(spec, func() { s.PurgeTokens(context.Background(), tokens) })
	if err != nil {
		return fmt.Errorf("schedule token purge %q: %w", spec, err)
	}
	return nil
}

// PurgeTokens runs one purge. Panics are logged and swallowed so the scheduler
// keeps running.
func (s *Scheduler) PurgeTokens(ctx context.Context, tokens tokenPurger) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("token purge panicked", zap.Any("panic", r))
		}
	}()
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	n, err := tokens.DeleteExpired(ctx, time.Now())
	if err != nil {
		s.logger.Error("token purge failed", zap.Error(err))
		return
	}
	s.logger.Info("expired tokens purged", zap.Int64("count", n))
}

func (s *Scheduler) Start() {
	s.sched.Start()
}

// Stop prevents new runs and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.sched.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}
