package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	DefaultSweepSchedule = "@every 5m"
	DefaultTransientIdle = 30 * time.Minute
	jobTimeout           = 2 * time.Minute
)

type DailyResetter interface {
	ResetDay(ctx context.Context) error
}

type ChatSweeper interface {
	SweepIdle(ctx context.Context) (int, error)
}

type TransientSweeper interface {
	SweepTransient(maxIdle time.Duration) int
}

// Config contains the schedules for the maintenance jobs
type Config struct {
	DailyResetSchedule string        // cron expression, e.g. "0 0 * * *" for midnight
	SweepSchedule      string        // cron expression for chat history and transient state sweeps
	TransientIdle      time.Duration // detached session state older than this is dropped
}

// Scheduler runs the periodic maintenance jobs of the interview service.
type Scheduler struct {
	daily     DailyResetter
	chats     ChatSweeper
	transient TransientSweeper
	config    Config
	logger    *zap.Logger
	cron      *cron.Cron
}

func NewScheduler(daily DailyResetter, chats ChatSweeper, transient TransientSweeper, config Config, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.SweepSchedule == "" {
		config.SweepSchedule = DefaultSweepSchedule
	}
	if config.TransientIdle <= 0 {
		config.TransientIdle = DefaultTransientIdle
	}
	return &Scheduler{
		daily:     daily,
		chats:     chats,
		transient: transient,
		config:    config,
		logger:    logger,
		cron:      cron.New(cron.WithLocation(time.UTC)),
	}
}

// Start registers every configured job and starts the cron runner.
func (s *Scheduler) Start() error {
	if s.daily != nil && s.config.DailyResetSchedule != "" {
		if _, err := s.cron.AddFunc(s.config.DailyResetSchedule, func() { s.RunDailyReset(context.Background()) }); err != nil {
			return fmt.Errorf("failed to schedule daily reset: %w", err)
		}
	}
	if _, err := s.cron.AddFunc(s.config.SweepSchedule, func() { s.RunSweep(context.Background()) }); err != nil {
		return fmt.Errorf("failed to schedule sweep: %w", err)
	}

	s.cron.Start()
	s.logger.Info("Scheduler started",
		zap.String("daily_reset_schedule", s.config.DailyResetSchedule),
		zap.String("sweep_schedule", s.config.SweepSchedule))
	return nil
}

// Stop waits for running jobs to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
		s.logger.Info("Scheduler stopped")
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out", zap.Error(ctx.Err()))
	}
}

// RunDailyReset deactivates yesterday's question set and generates today's.
func (s *Scheduler) RunDailyReset(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	start := time.Now()
	if err := s.daily.ResetDay(ctx); err != nil {
		s.logger.Error("Daily reset failed", zap.Error(err))
		return
	}
	s.logger.Info("Daily reset completed", zap.Duration("elapsed", time.Since(start)))
}

// RunSweep drops idle chat histories and detached interview state.
func (s *Scheduler) RunSweep(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	if s.chats != nil {
		removed, err := s.chats.SweepIdle(ctx)
		if err != nil {
			s.logger.Warn("Chat history sweep failed", zap.Error(err))
		} else if removed > 0 {
			s.logger.Debug("Swept idle chat histories", zap.Int("removed", removed))
		}
	}
	if s.transient != nil {
		if removed := s.transient.SweepTransient(s.config.TransientIdle); removed > 0 {
			s.logger.Debug("Swept detached interview state", zap.Int("removed", removed))
		}
	}
}
