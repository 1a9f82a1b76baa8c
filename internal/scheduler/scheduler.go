package scheduler

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// Sweeper drops sessions that have been idle for longer than ttl
type Sweeper interface {
	ExpireIdle(ttl time.Duration) int
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	sweeper   Sweeper
	ttl       time.Duration
	interval  time.Duration
	log       *slog.Logger
}

// New creates a new scheduler instance. Every interval it expires
// sessions idle for longer than ttl.
func New(sweeper Sweeper, interval, ttl time.Duration, log *slog.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		sweeper:   sweeper,
		ttl:       ttl,
		interval:  interval,
		log:       log,
	}
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start() error {
	if s.interval <= 0 || s.ttl <= 0 {
		return fmt.Errorf("invalid sweep settings: interval %s, ttl %s", s.interval, s.ttl)
	}

	if _, err := s.scheduler.Every(s.interval).WaitForSchedule().Do(func() { s.sweep() }); err != nil {
		return fmt.Errorf("failed to schedule session sweep: %w", err)
	}

	// Start the scheduler in a non-blocking manner
	s.scheduler.StartAsync()
	s.log.Info("session sweeper started", "interval", s.interval, "ttl", s.ttl)
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// RunNow performs one sweep immediately
func (s *Scheduler) RunNow() int {
	return s.sweep()
}

func (s *Scheduler) sweep() int {
	n := s.sweeper.ExpireIdle(s.ttl)
	if n > 0 {
		s.log.Info("expired idle sessions", "count", n)
	}
	return n
}
