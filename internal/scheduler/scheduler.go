package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// Task is a periodic job. Returned errors are logged.
type Task func(ctx context.Context) error

// Scheduler runs periodic maintenance such as follow-up emails and expired
// session cleanup.
type Scheduler struct {
	scheduler *gocron.Scheduler
	logger    *zap.Logger
	ctx       context.Context
	cancel    context.CancelFunc
}

func New(logger *zap.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Daily schedules task every day at hour:00 UTC.
func (s *Scheduler) Daily(name string, hour int, task Task) error {
	if hour < 0 || hour > 23 {
		return fmt.Errorf("scheduler: hour %d out of range", hour)
	}
	_, err := s.scheduler.Every(1).Day().At(fmt.Sprintf("%02d:00", hour)).Tag(name).Do(s.wrap(name, task))
	if err != nil {
		return fmt.Errorf("scheduler: schedule %s: %w", name, err)
	}
	return nil
}

func (s *Scheduler) Every(name string, interval time.Duration, task Task) error {
	_, err := s.scheduler.Every(interval).Tag(name).Do(s.wrap(name, task))
	if err != nil {
		return fmt.Errorf("scheduler: schedule %s: %w", name, err)
	}
	return nil
}

// RunNow triggers the named job immediately, outside its schedule.
func (s *Scheduler) RunNow(name string) error {
	return s.scheduler.RunByTag(name)
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.scheduler.StartAsync()
}

// Stop cancels running tasks and stops the scheduler.
func (s *Scheduler) Stop() {
	s.cancel()
	s.scheduler.Stop()
}

func (s *Scheduler) wrap(name string, task Task) func() {
	return func() {
		start := time.Now()
		if err := task(s.ctx); err != nil {
			s.logger.Error("scheduled job failed", zap.String("job", name), zap.Error(err))
			return
		}
		s.logger.Info("scheduled job finished",
			zap.String("job", name),
			zap.Duration("duration", time.Since(start)))
	}
}
